package domain

import (
	"context"
	"time"
)

// IdentityProvider etiqueta el mecanismo que autenticó la sesión.
type IdentityProvider string

const (
	ProviderPassword      IdentityProvider = "password"
	ProviderToken         IdentityProvider = "token"
	ProviderSAMLSSO       IdentityProvider = "saml-sso"
	ProviderBackend       IdentityProvider = "backend"
	ProviderImpersonation IdentityProvider = "impersonation"
)

// Session representa un contexto autenticado de browser/dispositivo.
// Exactamente un sessionId canónico por evento de login; un usuario
// puede tener muchas sesiones concurrentes salvo evicción explícita.
type Session struct {
	SessionID        string
	UserID           string
	IdentityProvider IdentityProvider
	CreatedOn        time.Time
	UserAgent        string

	// IsDeviceUser marca cuentas compartidas tipo kiosco.
	IsDeviceUser bool

	// AccountIDs restringe los tenants visibles para la sesión.
	// Vacío significa sin restricción.
	AccountIDs []string

	// DeviceUserID es el device que originó un login por
	// impersonación, si aplica.
	DeviceUserID string
}

// SessionBackend es un target individual del fan-out de sesiones.
// Un backend puede implementar End/EndByIDs como no-op si solo
// appendea (ej: el backend durable de auditoría).
type SessionBackend interface {
	Save(ctx context.Context, session *Session) error
	GetByUser(ctx context.Context, userID string) ([]*Session, error)
	End(ctx context.Context, session *Session) error
	EndByIDs(ctx context.Context, userID, sessionID string) error
}

// ActiveSessionRepository guarda la ventana de inactividad por sesión:
// accountId + sessionId -> expirationDate. Es un registro aparte de la
// entidad Session.
type ActiveSessionRepository interface {
	// Extend sobrescribe la expiración con now + window. Retorna false
	// si la ventana ya venció (no se puede extender una sesión muerta).
	// La ausencia de registro significa "todavía no trackeada": se crea
	// y retorna true.
	Extend(ctx context.Context, accountID, sessionID string, window time.Duration) (bool, error)

	// HasExpired retorna true solo si existe registro y ya venció.
	// Sin registro la sesión se considera no expirada.
	HasExpired(ctx context.Context, accountID, sessionID string) (bool, error)
}
