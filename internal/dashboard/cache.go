package dashboard

import (
	"context"
	"sync"
	"time"
)

// Cache stores the last fetched sales snapshot.
type Cache interface {
	Get(ctx context.Context, key string) ([]byte, bool, error)
	Set(ctx context.Context, key string, val []byte) error
}

type MemoryCache struct {
	mu   sync.Mutex
	ttl  time.Duration
	vals map[string]memVal
	now  func() time.Time
}

type memVal struct {
	b       []byte
	expires time.Time
}

func NewMemoryCache(ttl time.Duration) *MemoryCache {
	return &MemoryCache{ttl: ttl, vals: map[string]memVal{}, now: time.Now}
}

func (m *MemoryCache) Get(_ context.Context, key string) ([]byte, bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	v, ok := m.vals[key]
	if !ok || (m.ttl > 0 && m.now().After(v.expires)) {
		return nil, false, nil
	}
	return v.b, true, nil
}

func (m *MemoryCache) Set(_ context.Context, key string, val []byte) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.vals[key] = memVal{b: val, expires: m.now().Add(m.ttl)}
	return nil
}

var _ Cache = (*MemoryCache)(nil)
