package usecase

import (
	"context"
	"errors"
	"strings"
	"sync"

	domain "github.com/mecber11/farmacia/internal/entity"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/mock"
)

type memSessions struct {
	mu    sync.Mutex
	data  map[string]*domain.Session
	err   error
	saves int

	// failSaves fails the next n Save calls
	failSaves int
}

func newMemSessions() *memSessions { return &memSessions{data: map[string]*domain.Session{}} }

func (m *memSessions) Get(_ context.Context, id string) (*domain.Session, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.err != nil {
		return nil, m.err
	}
	s, ok := m.data[id]
	if !ok {
		return nil, ErrSessionNotFound
	}
	return s.Clone(), nil
}

func (m *memSessions) Save(_ context.Context, s *domain.Session) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.saves++
	if m.err != nil {
		return m.err
	}
	if m.failSaves > 0 {
		m.failSaves--
		return errors.New("redis: connection reset by peer")
	}
	m.data[s.ID] = s.Clone()
	return nil
}

func (m *memSessions) Delete(_ context.Context, id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.data, id)
	return nil
}

func (m *memSessions) stored(id string) *domain.Session {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.data[id]
}

type memCustomers struct {
	mu      sync.Mutex
	byPhone map[string]*domain.Customer
	nextID  int64
	err     error
}

func newMemCustomers() *memCustomers { return &memCustomers{byPhone: map[string]*domain.Customer{}} }

func (m *memCustomers) FindByPhone(_ context.Context, phone string) (*domain.Customer, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.err != nil {
		return nil, m.err
	}
	c, ok := m.byPhone[phone]
	if !ok {
		return nil, ErrNotFound
	}
	cp := *c
	return &cp, nil
}

func (m *memCustomers) Create(_ context.Context, c *domain.Customer) (int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.err != nil {
		return 0, m.err
	}
	if _, ok := m.byPhone[c.Telefono]; ok {
		return 0, ErrPhoneTaken
	}
	m.nextID++
	cp := *c
	cp.ID = m.nextID
	m.byPhone[c.Telefono] = &cp
	return cp.ID, nil
}

type memCatalog struct {
	items []domain.Medication
	err   error
}

func (m *memCatalog) ListAvailable(context.Context) ([]domain.Medication, error) {
	if m.err != nil {
		return nil, m.err
	}
	var out []domain.Medication
	for _, it := range m.items {
		if it.Available() {
			out = append(out, it)
		}
	}
	return out, nil
}

func (m *memCatalog) FindAvailable(_ context.Context, id int64) (*domain.Medication, error) {
	if m.err != nil {
		return nil, m.err
	}
	for _, it := range m.items {
		if it.ID == id && it.Available() {
			cp := it
			return &cp, nil
		}
	}
	return nil, ErrNotFound
}

// plainHasher keeps tests independent of hashing cost.
type plainHasher struct{}

func (plainHasher) Hash(pw string) (string, error) { return "plain:" + pw, nil }
func (plainHasher) Verify(hash, pw string) bool {
	return strings.HasPrefix(hash, "plain:") && hash[len("plain:"):] == pw
}

type mockDispatcher struct{ mock.Mock }

func (m *mockDispatcher) Dispatch(ctx context.Context, p domain.OrderPayload) (string, error) {
	args := m.Called(ctx, p)
	return args.String(0), args.Error(1)
}

type memIdem struct {
	mu   sync.Mutex
	keys map[string]bool
	err  error
}

func newMemIdem() *memIdem { return &memIdem{keys: map[string]bool{}} }

func (m *memIdem) TryLock(_ context.Context, scope, key string) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.err != nil {
		return false, m.err
	}
	if m.keys[scope+key] {
		return false, nil
	}
	m.keys[scope+key] = true
	return true, nil
}

func (m *memIdem) Release(_ context.Context, scope, key string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.keys, scope+key)
	return nil
}

type recordedEvents struct {
	mu   sync.Mutex
	msgs []CheckoutDispatchedMsg
	err  error
}

func (r *recordedEvents) PublishDispatched(_ context.Context, msg CheckoutDispatchedMsg) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.msgs = append(r.msgs, msg)
	return r.err
}

type countingMetrics struct {
	mu       sync.Mutex
	logins   map[string]int
	checkout map[string]int
	payments map[string]int
}

func newCountingMetrics() *countingMetrics {
	return &countingMetrics{logins: map[string]int{}, checkout: map[string]int{}, payments: map[string]int{}}
}

func (c *countingMetrics) LoginAttempt(r string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.logins[r]++
}

func (c *countingMetrics) CheckoutAttempt(r string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.checkout[r]++
}

func (c *countingMetrics) PaymentStatusEvent(r string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.payments[r]++
}

type fakeOrders struct {
	applied bool
	err     error
	calls   []domain.Status
}

func (f *fakeOrders) UpdateStatusIf(_ context.Context, _ int64, from, to domain.Status) (bool, error) {
	f.calls = append(f.calls, from, to)
	return f.applied, f.err
}

func paracetamol() domain.Medication {
	return domain.Medication{
		ID: 1, Nombre: "Paracetamol", Presentacion: "Tableta 500mg",
		PrecioUnitario: decimal.RequireFromString("5.00"), Stock: 10, Activo: true,
	}
}

func ibuprofeno() domain.Medication {
	return domain.Medication{
		ID: 2, Nombre: "Ibuprofeno", Presentacion: "Tableta 400mg",
		PrecioUnitario: decimal.RequireFromString("7.50"), Stock: 3, Activo: true,
	}
}
