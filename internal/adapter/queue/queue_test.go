package queue

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/mecber11/farmacia/internal/logging"
	"github.com/mecber11/farmacia/internal/usecase"
	amqp "github.com/rabbitmq/amqp091-go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zaptest/observer"
)

type ackResult struct {
	acked   bool
	requeue bool
}

type fakeAck struct {
	mu      sync.Mutex
	results map[uint64]ackResult
	done    chan uint64
}

func newFakeAck() *fakeAck {
	return &fakeAck{results: map[uint64]ackResult{}, done: make(chan uint64, 16)}
}

func (a *fakeAck) Ack(tag uint64, _ bool) error {
	a.mu.Lock()
	a.results[tag] = ackResult{acked: true}
	a.mu.Unlock()
	a.done <- tag
	return nil
}

func (a *fakeAck) Nack(tag uint64, _ bool, requeue bool) error {
	a.mu.Lock()
	a.results[tag] = ackResult{requeue: requeue}
	a.mu.Unlock()
	a.done <- tag
	return nil
}

func (a *fakeAck) Reject(tag uint64, requeue bool) error { return a.Nack(tag, false, requeue) }

func (a *fakeAck) result(tag uint64) ackResult {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.results[tag]
}

type fakeChannel struct {
	mu         sync.Mutex
	deliveries map[string]chan amqp.Delivery
	cancelled  []string
	published  []amqp.Publishing
	keys       []string
	declared   []string
	bindings   [][3]string
	publishErr error
}

func newFakeChannel() *fakeChannel {
	return &fakeChannel{deliveries: map[string]chan amqp.Delivery{}}
}

func (f *fakeChannel) Qos(int, int, bool) error { return nil }

func (f *fakeChannel) Consume(queue, _ string, _, _, _, _ bool, _ amqp.Table) (<-chan amqp.Delivery, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	ch := make(chan amqp.Delivery, 8)
	f.deliveries[queue] = ch
	return ch, nil
}

func (f *fakeChannel) Cancel(consumer string, _ bool) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.cancelled = append(f.cancelled, consumer)
	return nil
}

func (f *fakeChannel) ExchangeDeclare(name, kind string, _, _, _, _ bool, _ amqp.Table) error {
	f.declared = append(f.declared, "exchange:"+name+":"+kind)
	return nil
}

func (f *fakeChannel) QueueDeclare(name string, _, _, _, _ bool, _ amqp.Table) (amqp.Queue, error) {
	f.declared = append(f.declared, "queue:"+name)
	return amqp.Queue{Name: name}, nil
}

func (f *fakeChannel) QueueBind(name, key, exchange string, _ bool, _ amqp.Table) error {
	f.bindings = append(f.bindings, [3]string{name, key, exchange})
	return nil
}

func (f *fakeChannel) PublishWithContext(_ context.Context, _, key string, _, _ bool, msg amqp.Publishing) error {
	if f.publishErr != nil {
		return f.publishErr
	}
	f.keys = append(f.keys, key)
	f.published = append(f.published, msg)
	return nil
}

type recordingUsecase struct {
	mu   sync.Mutex
	got  []usecase.PaymentStatusChangedMsg
	errs []error
}

func (r *recordingUsecase) Handle(_ context.Context, ev usecase.PaymentStatusChangedMsg) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.got = append(r.got, ev)
	if len(r.errs) > 0 {
		err := r.errs[0]
		r.errs = r.errs[1:]
		return err
	}
	return nil
}

func waitTag(t *testing.T, ack *fakeAck) uint64 {
	t.Helper()
	select {
	case tag := <-ack.done:
		return tag
	case <-time.After(2 * time.Second):
		t.Fatal("delivery was not settled")
		return 0
	}
}

func TestRouter_PaymentStatus(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	ch := newFakeChannel()
	uc := &recordingUsecase{errs: []error{nil, errors.New("db down")}}
	r := NewRouter(ch, WithPrefetch(5), WithTimeout(time.Second), WithRequeueDelay(10*time.Millisecond))
	r.Register("payment.status.q", NewPaymentStatusHandler(uc))
	require.NoError(t, r.Start(ctx))

	ack := newFakeAck()
	in := ch.deliveries["payment.status.q"]
	in <- amqp.Delivery{Acknowledger: ack, DeliveryTag: 1, Body: []byte(`{"pedido_id":7,"estado":"pagado"}`)}
	require.Equal(t, uint64(1), waitTag(t, ack))
	assert.True(t, ack.result(1).acked)

	in <- amqp.Delivery{Acknowledger: ack, DeliveryTag: 2, Body: []byte(`{"pedido_id":8,"estado":"fallido"}`)}
	require.Equal(t, uint64(2), waitTag(t, ack))
	assert.Equal(t, ackResult{requeue: true}, ack.result(2))

	in <- amqp.Delivery{Acknowledger: ack, DeliveryTag: 3, Body: []byte(`{not json`)}
	require.Equal(t, uint64(3), waitTag(t, ack))
	assert.Equal(t, ackResult{requeue: false}, ack.result(3))

	uc.mu.Lock()
	assert.Equal(t, []usecase.PaymentStatusChangedMsg{{PedidoID: 7, Estado: "pagado"}, {PedidoID: 8, Estado: "fallido"}}, uc.got)
	uc.mu.Unlock()

	cancel()
	assert.Eventually(t, func() bool {
		ch.mu.Lock()
		defer ch.mu.Unlock()
		return len(ch.cancelled) == 1 && ch.cancelled[0] == "c_payment.status.q"
	}, 2*time.Second, 10*time.Millisecond)
}

func TestRouter_RequeueDelay(t *testing.T) {
	t.Run("store errors wait before requeue", func(t *testing.T) {
		ctx, cancel := context.WithCancel(context.Background())
		defer cancel()

		ch := newFakeChannel()
		storeDown := fmt.Errorf("%w: update order status: connection refused", usecase.ErrStoreUnavailable)
		uc := &recordingUsecase{errs: []error{storeDown}}
		r := NewRouter(ch, WithRequeueDelay(150*time.Millisecond))
		r.Register("payment.status.q", NewPaymentStatusHandler(uc))
		require.NoError(t, r.Start(ctx))

		ack := newFakeAck()
		start := time.Now()
		ch.deliveries["payment.status.q"] <- amqp.Delivery{Acknowledger: ack, DeliveryTag: 1, Body: []byte(`{"pedido_id":7,"estado":"pagado"}`)}
		require.Equal(t, uint64(1), waitTag(t, ack))
		assert.GreaterOrEqual(t, time.Since(start), 150*time.Millisecond)
		assert.Equal(t, ackResult{requeue: true}, ack.result(1))
	})

	t.Run("poison is not delayed", func(t *testing.T) {
		ctx, cancel := context.WithCancel(context.Background())
		defer cancel()

		ch := newFakeChannel()
		r := NewRouter(ch, WithRequeueDelay(time.Hour))
		r.Register("payment.status.q", NewPaymentStatusHandler(&recordingUsecase{}))
		require.NoError(t, r.Start(ctx))

		ack := newFakeAck()
		ch.deliveries["payment.status.q"] <- amqp.Delivery{Acknowledger: ack, DeliveryTag: 1, Body: []byte(`{`)}
		require.Equal(t, uint64(1), waitTag(t, ack))
		assert.Equal(t, ackResult{requeue: false}, ack.result(1))
	})

	t.Run("shutdown cuts the wait short", func(t *testing.T) {
		ctx, cancel := context.WithCancel(context.Background())
		defer cancel()

		ch := newFakeChannel()
		uc := &recordingUsecase{errs: []error{errors.New("db down")}}
		r := NewRouter(ch, WithRequeueDelay(time.Hour))
		r.Register("payment.status.q", NewPaymentStatusHandler(uc))
		require.NoError(t, r.Start(ctx))

		ack := newFakeAck()
		ch.deliveries["payment.status.q"] <- amqp.Delivery{Acknowledger: ack, DeliveryTag: 1, Body: []byte(`{"pedido_id":7,"estado":"pagado"}`)}
		require.Eventually(t, func() bool {
			uc.mu.Lock()
			defer uc.mu.Unlock()
			return len(uc.got) == 1
		}, time.Second, 5*time.Millisecond)
		cancel()
		require.Equal(t, uint64(1), waitTag(t, ack))
		assert.Equal(t, ackResult{requeue: true}, ack.result(1))
	})
}

func TestJSONHandler_DeliveryLogger(t *testing.T) {
	core, logs := observer.New(zap.InfoLevel)
	ctx := logging.WithCtx(context.Background(), zap.New(core))

	var got usecase.PaymentStatusChangedMsg
	h := JSONHandler[usecase.PaymentStatusChangedMsg]{HandleFunc: func(ctx context.Context, msg usecase.PaymentStatusChangedMsg) error {
		got = msg
		logging.FromCtx(ctx).Info("handled")
		return nil
	}}

	err := h.Handle(ctx, amqp.Delivery{
		RoutingKey: "payment.status.paypal", MessageId: "m-42", Redelivered: true,
		Body: []byte(`{"pedido_id":9,"estado":"cancelado"}`),
	})
	require.NoError(t, err)
	assert.Equal(t, usecase.PaymentStatusChangedMsg{PedidoID: 9, Estado: "cancelado"}, got)

	require.Equal(t, 1, logs.Len())
	fields := logs.All()[0].ContextMap()
	assert.Equal(t, "payment.status.paypal", fields["routing_key"])
	assert.Equal(t, "m-42", fields["message_id"])
	assert.Equal(t, true, fields["redelivered"])

	err = h.Handle(ctx, amqp.Delivery{MessageId: "m-43", Body: []byte(`[]`)})
	assert.ErrorIs(t, err, ErrPoison)
	assert.Equal(t, 1, logs.FilterMessage("undecodable delivery").Len())
}

func TestDeclareTopology(t *testing.T) {
	ch := newFakeChannel()
	require.NoError(t, DeclareTopology(ch, "farmacia.events", "payment.status.q"))
	assert.Equal(t, []string{"exchange:farmacia.events:topic", "queue:payment.status.q"}, ch.declared)
	assert.Equal(t, [][3]string{{"payment.status.q", RoutingPaymentStatus, "farmacia.events"}}, ch.bindings)

	ch = newFakeChannel()
	require.NoError(t, DeclareTopology(ch, "farmacia.events", ""))
	assert.Len(t, ch.declared, 1)
}

func TestRabbitProducer_PublishDispatched(t *testing.T) {
	ch := newFakeChannel()
	p := NewRabbitProducer(ch, "farmacia.events")
	at := time.Date(2026, 4, 1, 15, 0, 0, 0, time.UTC)

	err := p.PublishDispatched(context.Background(), usecase.CheckoutDispatchedMsg{
		SessionID: "s-1", ClienteID: 3, ApproveURL: "https://pay/x", DispatchedAt: at,
		Items: []usecase.CheckoutEventItem{{ID: 1, Cantidad: 1}},
	})
	require.NoError(t, err)
	require.Len(t, ch.published, 1)
	assert.Equal(t, RoutingCheckoutDispatched, ch.keys[0])
	assert.Equal(t, amqp.Persistent, ch.published[0].DeliveryMode)
	assert.NotEmpty(t, ch.published[0].MessageId)
	assert.Equal(t, "farmacia-api", ch.published[0].AppId)

	var body map[string]any
	require.NoError(t, json.Unmarshal(ch.published[0].Body, &body))
	assert.Equal(t, "s-1", body["session_id"])
	assert.Equal(t, "https://pay/x", body["approve_url"])

	ch.publishErr = errors.New("channel closed")
	err = p.PublishDispatched(context.Background(), usecase.CheckoutDispatchedMsg{})
	assert.ErrorContains(t, err, "channel closed")
}
