package cache

import (
	"context"
	"sync"
	"time"

	domain "github.com/mecber11/farmacia/internal/entity"
	"github.com/mecber11/farmacia/internal/usecase"
)

// MemorySessionStore is the single-process store used in development.
// Expired entries are dropped on access and by a sweep that Save runs at
// most once per sweepEvery.
type MemorySessionStore struct {
	mu         sync.Mutex
	ttl        time.Duration
	data       map[string]memEntry
	now        func() time.Time
	sweepEvery time.Duration
	lastSweep  time.Time
}

type memEntry struct {
	sess    *domain.Session
	expires time.Time
}

func NewMemorySessionStore(ttl time.Duration) *MemorySessionStore {
	every := time.Minute
	if ttl > 0 && ttl < every {
		every = ttl
	}
	return &MemorySessionStore{ttl: ttl, data: make(map[string]memEntry), now: time.Now, sweepEvery: every}
}

func (s *MemorySessionStore) Get(_ context.Context, id string) (*domain.Session, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	e, ok := s.data[id]
	if !ok {
		return nil, usecase.ErrSessionNotFound
	}
	if !e.expires.IsZero() && s.now().After(e.expires) {
		delete(s.data, id)
		return nil, usecase.ErrSessionNotFound
	}
	return e.sess.Clone(), nil
}

func (s *MemorySessionStore) Save(_ context.Context, sess *domain.Session) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	now := s.now()
	if s.ttl > 0 && now.Sub(s.lastSweep) >= s.sweepEvery {
		for id, e := range s.data {
			if now.After(e.expires) {
				delete(s.data, id)
			}
		}
		s.lastSweep = now
	}

	e := memEntry{sess: sess.Clone()}
	if s.ttl > 0 {
		e.expires = now.Add(s.ttl)
	}
	s.data[sess.ID] = e
	return nil
}

func (s *MemorySessionStore) Delete(_ context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.data, id)
	return nil
}

var _ usecase.SessionStore = (*MemorySessionStore)(nil)
