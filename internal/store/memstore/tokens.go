package memstore

import (
	"context"
	"sync"
	"time"

	"github.com/docuplane/credentiald/internal/domain"
	"github.com/docuplane/credentiald/internal/security/token"
)

// TokenRepository implementa domain.TokenRepository en memoria.
type TokenRepository struct {
	mu    sync.RWMutex
	byKey map[string]token.Token
}

func NewTokenRepository() *TokenRepository {
	return &TokenRepository{byKey: make(map[string]token.Token)}
}

func (r *TokenRepository) Save(_ context.Context, t token.Token) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.byKey[t.Key()] = t
	return nil
}

func (r *TokenRepository) GetByKey(_ context.Context, key string) (token.Token, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	t, ok := r.byKey[key]
	if !ok {
		return nil, domain.ErrNotFound
	}
	return t, nil
}

func (r *TokenRepository) CountAll(context.Context) (int64, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return int64(len(r.byKey)), nil
}

func (r *TokenRepository) GetForUsers(_ context.Context, userIDs []string) ([]domain.UserIDWithToken, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	wanted := make(map[string]bool, len(userIDs))
	for _, id := range userIDs {
		wanted[id] = true
	}
	var out []domain.UserIDWithToken
	for _, t := range r.byKey {
		otl, ok := t.(*token.OneTimeLoginToken)
		if !ok || !wanted[otl.UserID] || !otl.IsValid() {
			continue
		}
		out = append(out, domain.UserIDWithToken{UserID: otl.UserID, Token: otl.Key()})
		delete(wanted, otl.UserID)
	}
	return out, nil
}

// ActiveSessionRepository implementa domain.ActiveSessionRepository en
// memoria.
type ActiveSessionRepository struct {
	mu   sync.Mutex
	data map[string]time.Time
}

func NewActiveSessionRepository() *ActiveSessionRepository {
	return &ActiveSessionRepository{data: make(map[string]time.Time)}
}

func activeKey(accountID, sessionID string) string {
	return accountID + ":" + sessionID
}

func (r *ActiveSessionRepository) Extend(_ context.Context, accountID, sessionID string, window time.Duration) (bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	key := activeKey(accountID, sessionID)
	if expiration, ok := r.data[key]; ok && time.Now().After(expiration) {
		return false, nil
	}
	r.data[key] = time.Now().Add(window)
	return true, nil
}

func (r *ActiveSessionRepository) HasExpired(_ context.Context, accountID, sessionID string) (bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	expiration, ok := r.data[activeKey(accountID, sessionID)]
	if !ok {
		return false, nil
	}
	return !time.Now().Before(expiration), nil
}
