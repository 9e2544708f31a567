package pg

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/docuplane/credentiald/internal/domain"
	"github.com/docuplane/credentiald/internal/security/password"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
)

// CredentialRepository implementa domain.CredentialRepository.
// El login se guarda siempre lower-cased y trimmed; el índice único
// sobre login aplica solo a filas no borradas (índice parcial).
type CredentialRepository struct{ store *Store }

func NewCredentialRepository(store *Store) *CredentialRepository {
	return &CredentialRepository{store: store}
}

func normalizeLogin(login string) string {
	return strings.ToLower(strings.TrimSpace(login))
}

type credentialRow struct {
	UserID             string
	Login              string
	Password           string
	Blocked            bool
	LastPasswordChange time.Time
}

func (r credentialRow) toModel() (*domain.Credential, error) {
	hash, err := password.Deserialize(r.Password)
	if err != nil {
		return nil, err
	}
	return &domain.Credential{
		UserID:             r.UserID,
		Login:              r.Login,
		PasswordHash:       hash,
		Blocked:            r.Blocked,
		LastPasswordChange: r.LastPasswordChange,
	}, nil
}

func (r *CredentialRepository) GetByLogin(ctx context.Context, login string) (*domain.Credential, error) {
	const q = `
		SELECT user_id, login, password, blocked, last_password_change
		FROM credentials
		WHERE login = $1 AND deleted IS NOT TRUE`

	var row credentialRow
	err := r.store.pool.QueryRow(ctx, q, normalizeLogin(login)).Scan(
		&row.UserID, &row.Login, &row.Password, &row.Blocked, &row.LastPasswordChange)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, domain.ErrLoginNotFound
	}
	if err != nil {
		return nil, err
	}
	return row.toModel()
}

func (r *CredentialRepository) GetByUserID(ctx context.Context, userID string) (*domain.Credential, error) {
	const q = `
		SELECT user_id, login, password, blocked, last_password_change
		FROM credentials
		WHERE user_id = $1 AND deleted IS NOT TRUE`

	var row credentialRow
	err := r.store.pool.QueryRow(ctx, q, userID).Scan(
		&row.UserID, &row.Login, &row.Password, &row.Blocked, &row.LastPasswordChange)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, domain.ErrUserIDNotFound
	}
	if err != nil {
		return nil, err
	}
	return row.toModel()
}

func (r *CredentialRepository) GetByUserIDs(ctx context.Context, userIDs []string) (map[string]*domain.Credential, error) {
	const q = `
		SELECT user_id, login, password, blocked, last_password_change
		FROM credentials
		WHERE user_id = ANY($1) AND deleted IS NOT TRUE`

	rows, err := r.store.pool.Query(ctx, q, userIDs)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := make(map[string]*domain.Credential, len(userIDs))
	for rows.Next() {
		var row credentialRow
		if err := rows.Scan(&row.UserID, &row.Login, &row.Password, &row.Blocked, &row.LastPasswordChange); err != nil {
			return nil, err
		}
		cred, err := row.toModel()
		if err != nil {
			return nil, err
		}
		out[cred.UserID] = cred
	}
	return out, rows.Err()
}

func (r *CredentialRepository) Insert(ctx context.Context, cred *domain.Credential) error {
	serialized, err := password.Serialize(cred.PasswordHash)
	if err != nil {
		return err
	}
	const q = `
		INSERT INTO credentials (user_id, login, password, blocked, last_password_change)
		VALUES ($1, $2, $3, $4, $5)`

	_, err = r.store.pool.Exec(ctx, q,
		cred.UserID, normalizeLogin(cred.Login), serialized, cred.Blocked, cred.LastPasswordChange)
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) && pgErr.Code == "23505" {
		return domain.ErrConflict
	}
	return err
}

func (r *CredentialRepository) UpdatePassword(ctx context.Context, cred *domain.Credential) error {
	serialized, err := password.Serialize(cred.PasswordHash)
	if err != nil {
		return err
	}
	const q = `
		UPDATE credentials
		SET password = $3, last_password_change = NOW()
		WHERE login = $1 AND user_id = $2 AND deleted IS NOT TRUE`

	tag, err := r.store.pool.Exec(ctx, q, normalizeLogin(cred.Login), cred.UserID, serialized)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return domain.ErrLoginNotFound
	}
	return nil
}

func (r *CredentialRepository) UpdateLogin(ctx context.Context, userID, login string) error {
	const q = `
		UPDATE credentials SET login = $2 WHERE user_id = $1`

	tag, err := r.store.pool.Exec(ctx, q, userID, normalizeLogin(login))
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return domain.ErrUserIDNotFound
	}
	return nil
}

func (r *CredentialRepository) CreateOrUpdate(ctx context.Context, cred *domain.Credential) error {
	serialized, err := password.Serialize(cred.PasswordHash)
	if err != nil {
		return err
	}
	login := normalizeLogin(cred.Login)

	// Chequeo de ambigüedad: si login y userId matchean filas
	// distintas, el upsert pisaría la credencial de otro usuario.
	const check = `
		SELECT user_id, login FROM credentials
		WHERE user_id = $1 OR login = $2`

	rows, err := r.store.pool.Query(ctx, check, cred.UserID, login)
	if err != nil {
		return err
	}
	var matches []credentialRow
	for rows.Next() {
		var row credentialRow
		if err := rows.Scan(&row.UserID, &row.Login); err != nil {
			rows.Close()
			return err
		}
		matches = append(matches, row)
	}
	rows.Close()
	if err := rows.Err(); err != nil {
		return err
	}
	if len(matches) > 1 {
		return domain.ErrInvalidCredential
	}
	if len(matches) == 1 && (matches[0].UserID != cred.UserID || matches[0].Login != login) {
		return domain.ErrInvalidCredential
	}

	const q = `
		INSERT INTO credentials (user_id, login, password, blocked, last_password_change)
		VALUES ($1, $2, $3, $4, NOW())
		ON CONFLICT (user_id)
		DO UPDATE SET login = EXCLUDED.login, password = EXCLUDED.password,
		              blocked = EXCLUDED.blocked, last_password_change = NOW()`

	_, err = r.store.pool.Exec(ctx, q, cred.UserID, login, serialized, cred.Blocked)
	return err
}
