package memstore

import (
	"context"
	"strings"
	"sync"
	"time"

	"github.com/docuplane/credentiald/internal/domain"
)

// CredentialRepository implementa domain.CredentialRepository en
// memoria, con la misma normalización de login que el repo de pg.
type CredentialRepository struct {
	mu       sync.RWMutex
	byUserID map[string]*domain.Credential
}

func NewCredentialRepository() *CredentialRepository {
	return &CredentialRepository{byUserID: make(map[string]*domain.Credential)}
}

func normalizeLogin(login string) string {
	return strings.ToLower(strings.TrimSpace(login))
}

func (r *CredentialRepository) GetByLogin(_ context.Context, login string) (*domain.Credential, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	login = normalizeLogin(login)
	for _, cred := range r.byUserID {
		if cred.Login == login {
			copied := *cred
			return &copied, nil
		}
	}
	return nil, domain.ErrLoginNotFound
}

func (r *CredentialRepository) GetByUserID(_ context.Context, userID string) (*domain.Credential, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	cred, ok := r.byUserID[userID]
	if !ok {
		return nil, domain.ErrUserIDNotFound
	}
	copied := *cred
	return &copied, nil
}

func (r *CredentialRepository) GetByUserIDs(_ context.Context, userIDs []string) (map[string]*domain.Credential, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make(map[string]*domain.Credential)
	for _, id := range userIDs {
		if cred, ok := r.byUserID[id]; ok {
			copied := *cred
			out[id] = &copied
		}
	}
	return out, nil
}

func (r *CredentialRepository) Insert(_ context.Context, cred *domain.Credential) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	login := normalizeLogin(cred.Login)
	for id, existing := range r.byUserID {
		if id == cred.UserID || existing.Login == login {
			return domain.ErrConflict
		}
	}
	copied := *cred
	copied.Login = login
	r.byUserID[cred.UserID] = &copied
	return nil
}

func (r *CredentialRepository) UpdatePassword(_ context.Context, cred *domain.Credential) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	existing, ok := r.byUserID[cred.UserID]
	if !ok || existing.Login != normalizeLogin(cred.Login) {
		return domain.ErrLoginNotFound
	}
	existing.PasswordHash = cred.PasswordHash
	existing.LastPasswordChange = time.Now()
	return nil
}

func (r *CredentialRepository) UpdateLogin(_ context.Context, userID, login string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	existing, ok := r.byUserID[userID]
	if !ok {
		return domain.ErrUserIDNotFound
	}
	existing.Login = normalizeLogin(login)
	return nil
}

func (r *CredentialRepository) CreateOrUpdate(_ context.Context, cred *domain.Credential) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	login := normalizeLogin(cred.Login)
	for id, existing := range r.byUserID {
		if (id == cred.UserID) != (existing.Login == login) {
			if id == cred.UserID || existing.Login == login {
				return domain.ErrInvalidCredential
			}
		}
	}
	copied := *cred
	copied.Login = login
	copied.LastPasswordChange = time.Now()
	r.byUserID[cred.UserID] = &copied
	return nil
}
