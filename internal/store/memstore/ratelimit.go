// Package memstore implementa backends en memoria para desarrollo y
// tests, con la misma semántica que los de redis.
package memstore

import (
	"context"
	"sync"
	"time"
)

type counterEntry struct {
	count     int64
	expiresAt time.Time
}

// RateLimitStore implementa domain.RateLimitStore en memoria.
// Incremento y TTL se fijan bajo el mismo lock, espejo de la garantía
// del pipeline de redis.
type RateLimitStore struct {
	mu   sync.Mutex
	data map[string]*counterEntry

	// now es inyectable para los tests de ventana.
	now func() time.Time
}

func NewRateLimitStore() *RateLimitStore {
	return &RateLimitStore{
		data: make(map[string]*counterEntry),
		now:  time.Now,
	}
}

func (s *RateLimitStore) IncrementWithTTL(_ context.Context, key string, ttl time.Duration) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	entry, ok := s.data[key]
	if !ok || s.now().After(entry.expiresAt) {
		entry = &counterEntry{expiresAt: s.now().Add(ttl)}
		s.data[key] = entry
	}
	entry.count++
	return entry.count, nil
}

func (s *RateLimitStore) ResetPreservingTTL(_ context.Context, key string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	entry, ok := s.data[key]
	if !ok || s.now().After(entry.expiresAt) {
		return nil
	}
	entry.count = 0
	return nil
}

// SetNowFunc reemplaza el reloj; solo para tests.
func (s *RateLimitStore) SetNowFunc(now func() time.Time) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.now = now
}
