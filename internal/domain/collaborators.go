package domain

import (
	"context"
	"time"
)

// UserType clasifica las cuentas del directorio de usuarios.
type UserType int

const (
	UserTypeRegular UserType = 0
	UserTypeDevice  UserType = 2
)

// User es la vista mínima que este servicio necesita del user service.
type User struct {
	ID    string
	Login string
	Type  UserType
}

// UserDirectory es el seam hacia el user service.
type UserDirectory interface {
	// GetUser retorna el usuario o ErrNotFound.
	GetUser(ctx context.Context, userID string) (*User, error)

	// CanBeManagedBy indica, por userId, si el actor puede administrar a
	// ese usuario dentro de la cuenta. Usuarios ausentes del mapa cuentan
	// como no administrables.
	CanBeManagedBy(ctx context.Context, accountID string, userIDs []string, actorID string) (map[string]bool, error)
}

// SecuritySettings son los settings de auto-logout de una cuenta.
type SecuritySettings struct {
	AutoLogout       bool
	AutoLogoutPeriod time.Duration
}

// AccountSettings es la vista mínima del account service.
type AccountSettings struct {
	// UserTokenSecret es el secreto de firma propio de la cuenta,
	// usado para verificar user tokens cross-tenant.
	UserTokenSecret string
	Security        *SecuritySettings
}

// AccountClient es el seam hacia el account service.
type AccountClient interface {
	GetAccountSettings(ctx context.Context, accountID string) (*AccountSettings, error)
}

// AuthorizationClient es el seam hacia el authorization service.
type AuthorizationClient interface {
	// CanAccessBackend indica si el usuario es admin de plataforma.
	CanAccessBackend(ctx context.Context, userID string) (bool, error)
}

// DirectoryIdentityResolver mapea una identidad externa (AD/SAML
// nameID) a un userId. El mantenimiento del mapping es de otro
// colaborador.
type DirectoryIdentityResolver interface {
	// ResolveUserID retorna "" si no hay mapping para ese nameID.
	ResolveUserID(ctx context.Context, nameID string) (string, error)
}

// RoutingKeyType discrimina el destino de una notificación.
type RoutingKeyType string

const RoutingKeyUser RoutingKeyType = "user"

// RoutingKey direcciona una notificación saliente.
type RoutingKey struct {
	Type  RoutingKeyType
	Value string
}

// Eventos de notificación que emite este servicio.
const EventUserLoggedOff = "USER_LOGGED_OFF"

// NotificationSink despacha notificaciones fire-and-forget.
// Best-effort: los errores se loguean y nunca alteran el control flow.
type NotificationSink interface {
	Dispatch(routingKey RoutingKey, eventType string, payload map[string]any)
}

// ImpersonationRecord audita un login con user token.
type ImpersonationRecord struct {
	ImpersonatedUserID string
	UserID             string
	UserAgent          string
	ClientIP           string
	CreatedOn          time.Time
}

// ImpersonationRepository persiste el audit trail de impersonaciones.
type ImpersonationRepository interface {
	Save(ctx context.Context, rec *ImpersonationRecord) error
}

// RateLimitStore es el store efímero de contadores del circuit breaker.
//
// IncrementWithTTL debe ser atómico entre callers concurrentes, y debe
// fijar el TTL junto con el incremento que crea la key (no en dos
// pasos observables por separado).
type RateLimitStore interface {
	// IncrementWithTTL incrementa el contador y retorna el nuevo valor.
	// El TTL aplica solo cuando el incremento crea la key.
	IncrementWithTTL(ctx context.Context, key string, ttl time.Duration) (int64, error)

	// ResetPreservingTTL pone el contador en cero sin resucitar una
	// key expirada ni tocar el TTL vigente.
	ResetPreservingTTL(ctx context.Context, key string) error
}
