package kafka

import (
	"context"
	"errors"
	"testing"

	"github.com/IBM/sarama"
	"github.com/mecber11/farmacia/internal/usecase"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

type fakeSession struct {
	sarama.ConsumerGroupSession
	ctx    context.Context
	marked map[int64]string
}

func (s *fakeSession) Context() context.Context { return s.ctx }
func (s *fakeSession) MarkMessage(msg *sarama.ConsumerMessage, md string) {
	s.marked[msg.Offset] = md
}

type fakeClaim struct {
	sarama.ConsumerGroupClaim
	msgs chan *sarama.ConsumerMessage
}

func (c *fakeClaim) Messages() <-chan *sarama.ConsumerMessage { return c.msgs }

func claimOf(values ...string) *fakeClaim {
	c := &fakeClaim{msgs: make(chan *sarama.ConsumerMessage, len(values))}
	for i, v := range values {
		c.msgs <- &sarama.ConsumerMessage{Topic: "payment.status", Offset: int64(i), Value: []byte(v)}
	}
	close(c.msgs)
	return c
}

func TestConsumeClaim(t *testing.T) {
	var got []usecase.PaymentStatusChangedMsg
	calls := 0
	h := &cgHandler{
		log:         zap.NewNop(),
		maxAttempts: 2,
		handle: func(_ context.Context, ev usecase.PaymentStatusChangedMsg) error {
			calls++
			if ev.PedidoID == 2 {
				return errors.New("db down")
			}
			got = append(got, ev)
			return nil
		},
	}
	sess := &fakeSession{ctx: context.Background(), marked: map[int64]string{}}

	err := h.ConsumeClaim(sess, claimOf(
		`{"pedido_id":1,"estado":"pagado"}`,
		`garbage`,
		`{"pedido_id":2,"estado":"cancelado"}`,
	))
	require.NoError(t, err)

	assert.Equal(t, []usecase.PaymentStatusChangedMsg{{PedidoID: 1, Estado: "pagado"}}, got)
	assert.Equal(t, map[int64]string{0: "", 1: "decode-error", 2: "handler-error"}, sess.marked)
	assert.Equal(t, 3, calls, "one success plus two attempts")
}

func TestConsumeClaim_ShutdownLeavesMessageUnmarked(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	h := &cgHandler{
		log:         zap.NewNop(),
		maxAttempts: 3,
		handle: func(context.Context, usecase.PaymentStatusChangedMsg) error {
			cancel()
			return errors.New("interrupted")
		},
	}
	sess := &fakeSession{ctx: ctx, marked: map[int64]string{}}

	require.NoError(t, h.ConsumeClaim(sess, claimOf(`{"pedido_id":5,"estado":"pagado"}`)))
	assert.Empty(t, sess.marked)
}

func TestSaramaConfig(t *testing.T) {
	cfg, err := saramaConfig(GroupConfig{Brokers: []string{"localhost:9092"}, GroupID: "farmacia-api"})
	require.NoError(t, err)
	assert.Equal(t, sarama.V2_6_0_0, cfg.Version)
	assert.Equal(t, sarama.OffsetNewest, cfg.Consumer.Offsets.Initial)
	assert.Equal(t, "farmacia-api", cfg.ClientID)

	cfg, err = saramaConfig(GroupConfig{Version: "3.6.0", Offset: "oldest", ClientID: "farmacia-api-2"})
	require.NoError(t, err)
	assert.Equal(t, sarama.V3_6_0_0, cfg.Version)
	assert.Equal(t, sarama.OffsetOldest, cfg.Consumer.Offsets.Initial)
	assert.Equal(t, "farmacia-api-2", cfg.ClientID)

	_, err = saramaConfig(GroupConfig{Version: "not-a-version"})
	assert.ErrorContains(t, err, "kafka version")

	_, err = saramaConfig(GroupConfig{Offset: "latest"})
	assert.ErrorContains(t, err, "newest or oldest")
}
