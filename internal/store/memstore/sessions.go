package memstore

import (
	"context"
	"sync"

	"github.com/docuplane/credentiald/internal/domain"
)

// SessionBackend implementa domain.SessionBackend en memoria.
type SessionBackend struct {
	mu       sync.RWMutex
	byUser   map[string]map[string]*domain.Session
	saveErr  error
	endCalls int
}

func NewSessionBackend() *SessionBackend {
	return &SessionBackend{byUser: make(map[string]map[string]*domain.Session)}
}

func (b *SessionBackend) Save(_ context.Context, s *domain.Session) error {
	if b.saveErr != nil {
		return b.saveErr
	}
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.byUser[s.UserID] == nil {
		b.byUser[s.UserID] = make(map[string]*domain.Session)
	}
	copied := *s
	b.byUser[s.UserID][s.SessionID] = &copied
	return nil
}

func (b *SessionBackend) GetByUser(_ context.Context, userID string) ([]*domain.Session, error) {
	b.mu.RLock()
	defer b.mu.RUnlock()
	out := make([]*domain.Session, 0, len(b.byUser[userID]))
	for _, s := range b.byUser[userID] {
		copied := *s
		out = append(out, &copied)
	}
	return out, nil
}

func (b *SessionBackend) End(ctx context.Context, s *domain.Session) error {
	return b.EndByIDs(ctx, s.UserID, s.SessionID)
}

func (b *SessionBackend) EndByIDs(_ context.Context, userID, sessionID string) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.endCalls++
	delete(b.byUser[userID], sessionID)
	return nil
}

// FailSaves hace fallar los próximos Save; solo para tests.
func (b *SessionBackend) FailSaves(err error) { b.saveErr = err }

// EndCalls retorna cuántos End/EndByIDs se ejecutaron; solo para tests.
func (b *SessionBackend) EndCalls() int {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return b.endCalls
}
