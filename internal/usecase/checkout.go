package usecase

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"errors"
	"time"

	domain "github.com/mecber11/farmacia/internal/entity"
	"github.com/mecber11/farmacia/internal/logging"
	"go.uber.org/zap"
)

const checkoutScope = "checkout"

type CheckoutInput struct {
	SessionID string
	Who       *domain.Identity
	Cart      domain.Cart
}

// Checkout performs exactly one synchronous webhook call per Execute. There
// is no retry. Unless a duplicate window is configured, two identical calls
// create two external orders.
type Checkout struct {
	dispatcher OrderDispatcher
	events     CheckoutEvents
	metrics    Metrics
	idem       IdempotencyStore
	now        func() time.Time
}

type CheckoutOption func(*Checkout)

// WithDuplicateGuard rejects an identical order while store still holds its key.
func WithDuplicateGuard(store IdempotencyStore) CheckoutOption {
	return func(uc *Checkout) { uc.idem = store }
}

// WithEvents publishes a CheckoutDispatchedMsg after every accepted order.
func WithEvents(events CheckoutEvents) CheckoutOption {
	return func(uc *Checkout) { uc.events = events }
}

func NewCheckout(dispatcher OrderDispatcher, metrics Metrics, opts ...CheckoutOption) *Checkout {
	if metrics == nil {
		metrics = nopMetrics{}
	}
	uc := &Checkout{dispatcher: dispatcher, metrics: metrics, now: time.Now}
	for _, opt := range opts {
		opt(uc)
	}
	return uc
}

// Execute returns the approval URL exactly as the webhook sent it.
func (uc *Checkout) Execute(ctx context.Context, in CheckoutInput) (string, error) {
	log := logging.FromCtx(ctx).With(zap.String("session_id", in.SessionID))

	payload, err := domain.NewOrderPayload(in.Who, in.Cart)
	switch {
	case errors.Is(err, domain.ErrEmptyOrder):
		return "", ErrEmptyCart
	case errors.Is(err, domain.ErrAnonymousOrder):
		return "", ErrNotAuthenticated
	case err != nil:
		return "", err
	}

	var key string
	if uc.idem != nil {
		key = fingerprint(payload)
		ok, err := uc.idem.TryLock(ctx, checkoutScope, key)
		switch {
		case err != nil:
			// guard is best-effort; a cache outage must not block checkout
			log.Warn("duplicate guard unavailable", zap.Error(err))
			key = ""
		case !ok:
			uc.metrics.CheckoutAttempt("duplicate")
			return "", ErrDuplicateCheckout
		}
	}

	url, err := uc.dispatcher.Dispatch(ctx, payload)
	if err != nil {
		if key != "" {
			if rerr := uc.idem.Release(ctx, checkoutScope, key); rerr != nil {
				log.Warn("release duplicate guard", zap.Error(rerr))
			}
		}
		result := "failed"
		if errors.Is(err, ErrMissingRedirect) {
			result = "no_redirect"
		}
		uc.metrics.CheckoutAttempt(result)
		log.Error("checkout dispatch failed", zap.Int64("customer_id", in.Who.ID), zap.Error(err))
		return "", err
	}

	uc.metrics.CheckoutAttempt("success")
	log.Info("checkout dispatched", zap.Int64("customer_id", in.Who.ID), zap.Int("items", len(payload.Items)))

	if uc.events != nil {
		msg := CheckoutDispatchedMsg{
			SessionID:    in.SessionID,
			ClienteID:    in.Who.ID,
			ApproveURL:   url,
			DispatchedAt: uc.now().UTC(),
		}
		for _, it := range payload.Items {
			msg.Items = append(msg.Items, CheckoutEventItem{ID: it.ID, Cantidad: it.Cantidad})
		}
		if err := uc.events.PublishDispatched(ctx, msg); err != nil {
			log.Warn("publish checkout event", zap.Error(err))
		}
	}
	return url, nil
}

func fingerprint(p domain.OrderPayload) string {
	b, _ := json.Marshal(p)
	sum := sha256.Sum256(b)
	return hex.EncodeToString(sum[:])
}
