package usecase

import (
	"context"
	"time"

	domain "github.com/mecber11/farmacia/internal/entity"
	"github.com/shopspring/decimal"
)

// SessionStore persists sessions between interactions. Get returns
// ErrSessionNotFound for unknown or expired ids.
type SessionStore interface {
	Get(ctx context.Context, id string) (*domain.Session, error)
	Save(ctx context.Context, s *domain.Session) error
	Delete(ctx context.Context, id string) error
}

// CustomerRepo reads and creates clientes rows. FindByPhone returns
// ErrNotFound when no row matches; Create returns ErrPhoneTaken on a
// duplicate phone.
type CustomerRepo interface {
	FindByPhone(ctx context.Context, phone string) (*domain.Customer, error)
	Create(ctx context.Context, c *domain.Customer) (int64, error)
}

// CatalogRepo reads medications that are active and in stock.
type CatalogRepo interface {
	ListAvailable(ctx context.Context) ([]domain.Medication, error)
	FindAvailable(ctx context.Context, id int64) (*domain.Medication, error)
}

// SaleLine is one paid order item as exposed by the reporting API.
type SaleLine struct {
	ID          int64
	Fecha       time.Time
	Cliente     string
	Medicamento string
	Cantidad    int
	Subtotal    decimal.Decimal
}

type SalesRepo interface {
	ListPaid(ctx context.Context) ([]SaleLine, error)
}

// OrderRepo applies status transitions reported by the automation service.
type OrderRepo interface {
	UpdateStatusIf(ctx context.Context, id int64, from, to domain.Status) (bool, error)
}

type PasswordHasher interface {
	Hash(password string) (string, error)
	Verify(hash, password string) bool
}

// OrderDispatcher hands an order to the automation webhook and returns the
// payment approval URL. Failures wrap ErrDispatchFailed or ErrMissingRedirect.
type OrderDispatcher interface {
	Dispatch(ctx context.Context, p domain.OrderPayload) (string, error)
}

type IdempotencyStore interface {
	TryLock(ctx context.Context, scope, key string) (bool, error)
	Release(ctx context.Context, scope, key string) error
}

type CheckoutEvents interface {
	PublishDispatched(ctx context.Context, msg CheckoutDispatchedMsg) error
}

type Metrics interface {
	LoginAttempt(result string)
	CheckoutAttempt(result string)
	PaymentStatusEvent(result string)
}

type nopMetrics struct{}

func (nopMetrics) LoginAttempt(string)       {}
func (nopMetrics) CheckoutAttempt(string)    {}
func (nopMetrics) PaymentStatusEvent(string) {}
