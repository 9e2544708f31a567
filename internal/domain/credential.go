package domain

import (
	"context"
	"time"

	"github.com/docuplane/credentiald/internal/security/password"
)

// Credential identifica un principal de login.
//
// Nunca se borra en duro: el login se reescribe a un placeholder opaco
// al anonimizar, o se marca deleted por un flag externo.
type Credential struct {
	UserID             string
	Login              string // almacenado lower-cased y trimmed
	PasswordHash       password.Hash
	Blocked            bool
	LastPasswordChange time.Time
}

// CredentialRepository define operaciones sobre credenciales.
type CredentialRepository interface {
	// GetByLogin busca por login (case-insensitive, excluye borradas).
	// Retorna ErrLoginNotFound si no existe.
	GetByLogin(ctx context.Context, login string) (*Credential, error)

	// GetByUserID retorna la credencial de un usuario.
	// Retorna ErrUserIDNotFound si no existe.
	GetByUserID(ctx context.Context, userID string) (*Credential, error)

	// GetByUserIDs retorna las credenciales existentes para un batch
	// de userIds, indexadas por userId. Ausencias no son error.
	GetByUserIDs(ctx context.Context, userIDs []string) (map[string]*Credential, error)

	// Insert crea una credencial nueva.
	Insert(ctx context.Context, cred *Credential) error

	// UpdatePassword reemplaza el hash y actualiza lastPasswordChange.
	// Retorna ErrLoginNotFound si login+userId no matchean una fila.
	UpdatePassword(ctx context.Context, cred *Credential) error

	// UpdateLogin reescribe el login de un usuario.
	// Retorna ErrUserIDNotFound si no existe.
	UpdateLogin(ctx context.Context, userID, login string) error

	// CreateOrUpdate hace upsert por userId. Retorna
	// ErrInvalidCredential si login y userId apuntan a filas distintas.
	CreateOrUpdate(ctx context.Context, cred *Credential) error
}
