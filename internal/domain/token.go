package domain

import (
	"context"

	"github.com/docuplane/credentiald/internal/security/token"
)

// UserIDWithToken asocia un userId con su token one-time vigente.
type UserIDWithToken struct {
	UserID string
	Token  string
}

// TokenRepository persiste tokens one-time-login (los URL tokens son
// stateless y nunca se guardan).
//
// Save es un upsert plano por key, no un check-and-set: existe una
// carrera angosta entre leer un token y persistirlo consumido. El
// orquestador la acota persistiendo el consumo antes de honrar el
// login.
type TokenRepository interface {
	// Save inserta o reemplaza el token por su key.
	Save(ctx context.Context, t token.Token) error

	// GetByKey busca un token por su bearer string.
	// Retorna ErrNotFound si no existe.
	GetByKey(ctx context.Context, key string) (token.Token, error)

	// CountAll retorna el total de tokens persistidos.
	CountAll(ctx context.Context) (int64, error)

	// GetForUsers retorna el token one-time más reciente por usuario,
	// para los usuarios que tengan alguno.
	GetForUsers(ctx context.Context, userIDs []string) ([]UserIDWithToken, error)
}
