package queue

import (
	"context"
	"errors"
	"time"

	"github.com/mecber11/farmacia/internal/logging"
	amqp "github.com/rabbitmq/amqp091-go"
	"go.uber.org/zap"
)

// Router manages multiple consumers (one per registered queue) on a single AMQP channel.
type Router struct {
	ch            Channel
	prefetch      int
	callTimeout   time.Duration
	requeueOnErr  bool
	requeueDelay  time.Duration
	registrations []registration
}

type registration struct {
	queueName   string
	handler     Handler
	consumerTag string
}

// --- Options ---

type RouterOption func(*Router)

func WithPrefetch(n int) RouterOption          { return func(r *Router) { r.prefetch = n } }
func WithTimeout(d time.Duration) RouterOption { return func(r *Router) { r.callTimeout = d } }
func WithRequeue(b bool) RouterOption          { return func(r *Router) { r.requeueOnErr = b } }

// WithRequeueDelay holds a failed delivery for d before requeueing it. The
// queue's consumer waits meanwhile.
func WithRequeueDelay(d time.Duration) RouterOption { return func(r *Router) { r.requeueDelay = d } }

// NewRouter constructs a Router. Defaults: prefetch=50, timeout=10s, requeueOnErr=true, requeueDelay=1s.
func NewRouter(ch Channel, opts ...RouterOption) *Router {
	r := &Router{
		ch:           ch,
		prefetch:     50,
		callTimeout:  10 * time.Second,
		requeueOnErr: true,
		requeueDelay: time.Second,
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Register associates a queue with a handler. Call multiple times for multiple queues.
func (r *Router) Register(queueName string, h Handler) {
	r.registrations = append(r.registrations, registration{
		queueName:   queueName,
		handler:     h,
		consumerTag: "c_" + queueName,
	})
}

// Start begins consuming; non-blocking (spawns one goroutine per queue).
// Consumers are cancelled when ctx is done.
func (r *Router) Start(ctx context.Context) error {
	if err := r.ch.Qos(r.prefetch, 0, false); err != nil {
		return err
	}

	log := logging.FromCtx(ctx).With(zap.String("component", "rmq-router"))
	for _, reg := range r.registrations {
		deliveries, err := r.ch.Consume(
			reg.queueName,
			reg.consumerTag,
			false, // manual ack
			false, // exclusive
			false, // no-local
			false, // no-wait
			nil,
		)
		if err != nil {
			return err
		}

		qlog := log.With(zap.String("queue", reg.queueName), zap.String("tag", reg.consumerTag))
		go r.consume(logging.WithCtx(ctx, qlog), reg.handler, deliveries)
		go func(tag string) {
			<-ctx.Done()
			if err := r.ch.Cancel(tag, false); err != nil {
				qlog.Debug("cancel consumer", zap.Error(err))
			}
		}(reg.consumerTag)
	}

	return nil
}

func (r *Router) consume(ctx context.Context, h Handler, msgs <-chan amqp.Delivery) {
	log := logging.FromCtx(ctx)
	for d := range msgs {
		r.dispatch(ctx, log, h, d)
	}
	log.Info("consumer stopped")
}

func (r *Router) dispatch(ctx context.Context, log *zap.Logger, h Handler, d amqp.Delivery) {
	hctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), r.callTimeout)
	err := h.Handle(hctx, d)
	cancel()

	if err == nil {
		_ = d.Ack(false)
		return
	}
	requeue := r.requeueOnErr && !errors.Is(err, ErrPoison)
	log.Error("handler error",
		zap.String("rk", d.RoutingKey), zap.Error(err), zap.Bool("requeue", requeue))
	if requeue && r.requeueDelay > 0 {
		t := time.NewTimer(r.requeueDelay)
		select {
		case <-ctx.Done():
		case <-t.C:
		}
		t.Stop()
	}
	_ = d.Nack(false, requeue)
}
