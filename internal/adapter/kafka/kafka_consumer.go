package kafka

import (
	"context"
	"encoding/json"
	"time"

	"github.com/IBM/sarama"
	"github.com/mecber11/farmacia/internal/logging"
	"github.com/mecber11/farmacia/internal/usecase"
	"go.uber.org/zap"
)

// HandlerFunc processes a decoded payment status event.
type HandlerFunc func(ctx context.Context, ev usecase.PaymentStatusChangedMsg) error

// Consumer consumes payment status topics with a single handler.
type Consumer struct {
	Group       sarama.ConsumerGroup
	Topics      []string
	Handle      HandlerFunc
	MaxAttempts int
	Backoff     time.Duration
}

func NewConsumer(group sarama.ConsumerGroup, topics []string, h HandlerFunc) *Consumer {
	return &Consumer{
		Group:       group,
		Topics:      topics,
		Handle:      h,
		MaxAttempts: 3,
		Backoff:     500 * time.Millisecond,
	}
}

// Start blocks until ctx is cancelled or the group fails.
func (c *Consumer) Start(ctx context.Context) error {
	handler := &cgHandler{
		handle:      c.Handle,
		log:         logging.FromCtx(ctx).With(zap.String("component", "kafka-consumer")),
		maxAttempts: c.MaxAttempts,
		backoff:     c.Backoff,
	}
	for {
		if err := c.Group.Consume(ctx, c.Topics, handler); err != nil {
			return err
		}
		// When Consume returns, it’s because ctx was cancelled or a rebalance happened.
		if ctx.Err() != nil {
			return ctx.Err()
		}
	}
}

type cgHandler struct {
	handle      HandlerFunc
	log         *zap.Logger
	maxAttempts int
	backoff     time.Duration
}

func (h *cgHandler) Setup(sarama.ConsumerGroupSession) error   { return nil }
func (h *cgHandler) Cleanup(sarama.ConsumerGroupSession) error { return nil }

func (h *cgHandler) ConsumeClaim(sess sarama.ConsumerGroupSession, claim sarama.ConsumerGroupClaim) error {
	for msg := range claim.Messages() {
		log := h.log.With(zap.String("topic", msg.Topic), zap.Int32("partition", msg.Partition), zap.Int64("offset", msg.Offset))

		var ev usecase.PaymentStatusChangedMsg
		if err := json.Unmarshal(msg.Value, &ev); err != nil {
			log.Warn("kafka decode error", zap.Error(err))
			// mark to avoid reprocessing poison
			sess.MarkMessage(msg, "decode-error")
			continue
		}

		ctx := logging.WithCtx(sess.Context(), log)
		if err := h.handleWithRetry(ctx, ev); err != nil {
			if sess.Context().Err() != nil {
				// rebalance or shutdown: leave unmarked for the next owner
				return nil
			}
			log.Error("handler gave up", zap.Error(err), zap.ByteString("key", msg.Key))
			sess.MarkMessage(msg, "handler-error")
			continue
		}
		sess.MarkMessage(msg, "")
	}
	return nil
}

func (h *cgHandler) handleWithRetry(ctx context.Context, ev usecase.PaymentStatusChangedMsg) error {
	attempts := h.maxAttempts
	if attempts < 1 {
		attempts = 1
	}
	var err error
	for i := 0; i < attempts; i++ {
		if err = h.handle(ctx, ev); err == nil {
			return nil
		}
		if i == attempts-1 {
			break
		}
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(h.backoff * time.Duration(i+1)):
		}
	}
	return err
}
