package pg

import (
	"context"
	"errors"
	"time"

	"github.com/docuplane/credentiald/internal/domain"
	"github.com/jackc/pgx/v5"
)

// ActiveSessionRepository guarda las ventanas de inactividad:
// (account_id, session_id) -> expiration_date. Registro aparte de la
// entidad Session, durable para sobrevivir reinicios del store
// efímero.
type ActiveSessionRepository struct{ store *Store }

func NewActiveSessionRepository(store *Store) *ActiveSessionRepository {
	return &ActiveSessionRepository{store: store}
}

func (r *ActiveSessionRepository) Extend(ctx context.Context, accountID, sessionID string, window time.Duration) (bool, error) {
	const get = `
		SELECT expiration_date FROM active_sessions
		WHERE account_id = $1 AND session_id = $2`

	var current time.Time
	err := r.store.pool.QueryRow(ctx, get, accountID, sessionID).Scan(&current)
	switch {
	case errors.Is(err, pgx.ErrNoRows):
		// Primera vez que se trackea: se crea la ventana.
	case err != nil:
		return false, err
	case time.Now().After(current):
		// Ventana vencida: no se resucita una sesión muerta.
		return false, nil
	}

	const q = `
		INSERT INTO active_sessions (account_id, session_id, expiration_date)
		VALUES ($1, $2, $3)
		ON CONFLICT (account_id, session_id)
		DO UPDATE SET expiration_date = EXCLUDED.expiration_date`

	_, err = r.store.pool.Exec(ctx, q, accountID, sessionID, time.Now().Add(window))
	if err != nil {
		return false, err
	}
	return true, nil
}

func (r *ActiveSessionRepository) HasExpired(ctx context.Context, accountID, sessionID string) (bool, error) {
	const q = `
		SELECT expiration_date FROM active_sessions
		WHERE account_id = $1 AND session_id = $2`

	var expirationDate time.Time
	err := r.store.pool.QueryRow(ctx, q, accountID, sessionID).Scan(&expirationDate)
	if errors.Is(err, pgx.ErrNoRows) {
		// Sin registro: todavía no trackeada, por lo tanto no expiró.
		return false, nil
	}
	if err != nil {
		return false, err
	}
	return !time.Now().Before(expirationDate), nil
}

// Interface check.
var _ domain.ActiveSessionRepository = (*ActiveSessionRepository)(nil)
