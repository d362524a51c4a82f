package queue

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/mecber11/farmacia/internal/logging"
	amqp "github.com/rabbitmq/amqp091-go"
	"go.uber.org/zap"
)

// JSONHandler decodes d.Body into T and calls HandleFunc with a context whose
// logger carries the delivery's routing key and message id. A body that does
// not decode is poison and is never requeued.
type JSONHandler[T any] struct {
	HandleFunc func(ctx context.Context, msg T) error
}

func (h JSONHandler[T]) Handle(ctx context.Context, d amqp.Delivery) error {
	log := logging.FromCtx(ctx).With(
		zap.String("routing_key", d.RoutingKey),
		zap.String("message_id", d.MessageId),
		zap.Bool("redelivered", d.Redelivered),
	)

	var v T
	if err := json.Unmarshal(d.Body, &v); err != nil {
		log.Warn("undecodable delivery", zap.Int("bytes", len(d.Body)), zap.Error(err))
		return fmt.Errorf("%w: %v", ErrPoison, err)
	}
	return h.HandleFunc(logging.WithCtx(ctx, log), v)
}
