package pg

import (
	"context"
	"errors"
	"time"

	"github.com/docuplane/credentiald/internal/domain"
	"github.com/docuplane/credentiald/internal/security/token"
	"github.com/jackc/pgx/v5"
)

// TokenRepository persiste tokens one-time-login. Los tokens
// consumidos se re-persisten con consumed seteado, nunca se borran.
type TokenRepository struct{ store *Store }

func NewTokenRepository(store *Store) *TokenRepository {
	return &TokenRepository{store: store}
}

func (r *TokenRepository) Save(ctx context.Context, t token.Token) error {
	data, err := token.DataJSON(t)
	if err != nil {
		return err
	}
	const q = `
		INSERT INTO tokens (key, token_type, data, invalidated, expiration_date, created_on)
		VALUES ($1, $2, $3, $4, $5, NOW())
		ON CONFLICT (key)
		DO UPDATE SET data = EXCLUDED.data, invalidated = EXCLUDED.invalidated`

	_, err = r.store.pool.Exec(ctx, q, t.Key(), int(t.Type()), data, t.Invalidated(), t.ExpirationDate())
	return err
}

func (r *TokenRepository) GetByKey(ctx context.Context, key string) (token.Token, error) {
	const q = `
		SELECT key, token_type, data, invalidated, expiration_date
		FROM tokens WHERE key = $1`

	var (
		rawKey         string
		typ            int
		data           []byte
		invalidated    bool
		expirationDate time.Time
	)
	err := r.store.pool.QueryRow(ctx, q, key).Scan(&rawKey, &typ, &data, &invalidated, &expirationDate)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, domain.ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return token.Rehydrate(rawKey, token.Type(typ), data, invalidated, expirationDate)
}

func (r *TokenRepository) CountAll(ctx context.Context) (int64, error) {
	var count int64
	err := r.store.pool.QueryRow(ctx, `SELECT COUNT(*) FROM tokens`).Scan(&count)
	return count, err
}

func (r *TokenRepository) GetForUsers(ctx context.Context, userIDs []string) ([]domain.UserIDWithToken, error) {
	// El userId de un one-time-login vive dentro del payload JSON.
	const q = `
		SELECT DISTINCT ON (data->>'userId') data->>'userId', key
		FROM tokens
		WHERE token_type = $1
		  AND data->>'userId' = ANY($2)
		  AND invalidated IS NOT TRUE
		  AND data->>'consumed' IS NULL
		  AND expiration_date > NOW()
		ORDER BY data->>'userId', created_on DESC`

	rows, err := r.store.pool.Query(ctx, q, int(token.TypeOneTimeLogin), userIDs)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []domain.UserIDWithToken
	for rows.Next() {
		var entry domain.UserIDWithToken
		if err := rows.Scan(&entry.UserID, &entry.Token); err != nil {
			return nil, err
		}
		out = append(out, entry)
	}
	return out, rows.Err()
}
