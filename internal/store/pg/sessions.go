package pg

import (
	"context"

	"github.com/docuplane/credentiald/internal/domain"
)

// SessionBackend es el backend durable del fan-out de sesiones.
// Solo appendea: sirve para auditoría y disaster recovery, por eso
// End/EndByIDs son no-ops. Las lecturas calientes van por el backend
// canónico (redis).
type SessionBackend struct{ store *Store }

func NewSessionBackend(store *Store) *SessionBackend {
	return &SessionBackend{store: store}
}

func (b *SessionBackend) Save(ctx context.Context, s *domain.Session) error {
	const q = `
		INSERT INTO sessions (session_id, user_id, identity_provider, created_on,
		                      user_agent, is_device_user, account_ids, device_user_id)
		VALUES ($1, $2, $3, $4, $5, $6, $7, NULLIF($8, ''))`

	_, err := b.store.pool.Exec(ctx, q,
		s.SessionID, s.UserID, string(s.IdentityProvider), s.CreatedOn,
		s.UserAgent, s.IsDeviceUser, s.AccountIDs, s.DeviceUserID)
	return err
}

func (b *SessionBackend) GetByUser(ctx context.Context, userID string) ([]*domain.Session, error) {
	const q = `
		SELECT session_id, user_id, identity_provider, created_on
		FROM sessions WHERE user_id = $1`

	rows, err := b.store.pool.Query(ctx, q, userID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []*domain.Session
	for rows.Next() {
		var (
			s        domain.Session
			provider string
		)
		if err := rows.Scan(&s.SessionID, &s.UserID, &provider, &s.CreatedOn); err != nil {
			return nil, err
		}
		s.IdentityProvider = domain.IdentityProvider(provider)
		out = append(out, &s)
	}
	return out, rows.Err()
}

// End es no-op: el backend durable no trackea estado de fin de sesión.
func (b *SessionBackend) End(context.Context, *domain.Session) error { return nil }

// EndByIDs es no-op, igual que End.
func (b *SessionBackend) EndByIDs(context.Context, string, string) error { return nil }
