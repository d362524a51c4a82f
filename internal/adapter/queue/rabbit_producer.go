package queue

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/google/uuid"
	"github.com/mecber11/farmacia/internal/usecase"
	amqp "github.com/rabbitmq/amqp091-go"
)

const (
	RoutingCheckoutDispatched = "checkout.dispatched"
	RoutingPaymentStatus      = "payment.status.*"
)

// DeclareTopology sets up the events exchange and the payment status queue once at startup.
func DeclareTopology(ch Channel, exchange, statusQueue string) error {
	// 1. declare exchange (topic type, durable)
	if err := ch.ExchangeDeclare(
		exchange,
		"topic",
		true,  // durable
		false, // auto-delete
		false, // internal
		false, // no-wait
		nil,
	); err != nil {
		return fmt.Errorf("declare exchange: %w", err)
	}
	if statusQueue == "" {
		return nil
	}

	// 2. declare queue
	q, err := ch.QueueDeclare(
		statusQueue,
		true,  // durable
		false, // auto-delete
		false, // exclusive
		false, // no-wait
		nil,
	)
	if err != nil {
		return fmt.Errorf("declare queue: %w", err)
	}

	// 3. bind queue → exchange
	if err := ch.QueueBind(q.Name, RoutingPaymentStatus, exchange, false, nil); err != nil {
		return fmt.Errorf("queue bind: %w", err)
	}
	return nil
}

// RabbitProducer implements usecase.CheckoutEvents
type RabbitProducer struct {
	ch       Channel
	exchange string
}

func NewRabbitProducer(ch Channel, exchange string) *RabbitProducer {
	return &RabbitProducer{ch: ch, exchange: exchange}
}

// PublishDispatched sends a "checkout.dispatched" event to the exchange.
func (p *RabbitProducer) PublishDispatched(ctx context.Context, msg usecase.CheckoutDispatchedMsg) error {
	body, err := json.Marshal(msg)
	if err != nil {
		return fmt.Errorf("marshal message: %w", err)
	}

	pub := amqp.Publishing{
		MessageId:    uuid.NewString(),
		AppId:        "farmacia-api",
		ContentType:  "application/json",
		DeliveryMode: amqp.Persistent, // survive broker restarts
		Timestamp:    msg.DispatchedAt,
		Body:         body,
	}

	if err := p.ch.PublishWithContext(
		ctx,
		p.exchange,                // exchange
		RoutingCheckoutDispatched, // routing key
		false,                     // mandatory
		false,                     // immediate
		pub,
	); err != nil {
		return fmt.Errorf("publish: %w", err)
	}

	return nil
}

var _ usecase.CheckoutEvents = (*RabbitProducer)(nil)
