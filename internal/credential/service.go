// Package credential contiene la orquestación central del servicio:
// logins por contraseña, token, identidad de directorio, backend e
// impersonación, más el ciclo de vida de credenciales y sesiones.
package credential

import (
	"time"

	"github.com/docuplane/credentiald/internal/cache"
	"github.com/docuplane/credentiald/internal/domain"
	"github.com/docuplane/credentiald/internal/email"
	"github.com/docuplane/credentiald/internal/notification"
	"github.com/docuplane/credentiald/internal/observability/logger"
	"github.com/docuplane/credentiald/internal/rate"
	"github.com/docuplane/credentiald/internal/security/token"
	"github.com/docuplane/credentiald/internal/session"
	"go.uber.org/zap"
)

const (
	// defaultAccessTokenTTL acota los access tokens emitidos para
	// sesiones existentes.
	defaultAccessTokenTTL = time.Hour

	// settingsCacheTTL acota el cacheo de settings de cuenta usado por
	// los heartbeats de sesión.
	settingsCacheTTL = time.Minute
)

// Deps son las dependencias del servicio. Todo entra por acá: nada de
// singletons a nivel módulo, así los tests sustituyen fakes por caso.
type Deps struct {
	Credentials    domain.CredentialRepository
	Tokens         domain.TokenRepository
	Sessions       *session.MultiStore
	ActiveSessions domain.ActiveSessionRepository
	Impersonations domain.ImpersonationRepository
	Breaker        *rate.CircuitBreaker
	Codec          *token.Codec
	Users          domain.UserDirectory
	Accounts       domain.AccountClient
	Authorization  domain.AuthorizationClient
	Directory      domain.DirectoryIdentityResolver
	Notifier       domain.NotificationSink
	Mailer         email.PasswordMailer
	SettingsCache  cache.Client

	// AccessTokenSecret firma los access tokens de sesión; distinto
	// del secreto de los bearer tokens del Codec.
	AccessTokenSecret []byte
	AccessTokenTTL    time.Duration
}

// Service es el orquestador de autenticación.
type Service struct {
	credentials    domain.CredentialRepository
	tokens         domain.TokenRepository
	sessions       *session.MultiStore
	active         domain.ActiveSessionRepository
	impersonations domain.ImpersonationRepository
	breaker        *rate.CircuitBreaker
	codec          *token.Codec
	users          domain.UserDirectory
	accounts       domain.AccountClient
	authz          domain.AuthorizationClient
	directory      domain.DirectoryIdentityResolver
	notifier       domain.NotificationSink
	mailer         email.PasswordMailer
	settingsCache  cache.Client

	accessTokenSecret []byte
	accessTokenTTL    time.Duration

	log *zap.Logger
}

// New arma el servicio. Notifier y Mailer son opcionales; el resto de
// las dependencias las decide el wiring de cada entrypoint.
func New(deps Deps) *Service {
	notifier := deps.Notifier
	if notifier == nil {
		notifier = notification.NopSink{}
	}
	mailer := deps.Mailer
	if mailer == nil {
		mailer = email.NopMailer{}
	}
	accessTokenTTL := deps.AccessTokenTTL
	if accessTokenTTL <= 0 {
		accessTokenTTL = defaultAccessTokenTTL
	}
	return &Service{
		credentials:       deps.Credentials,
		tokens:            deps.Tokens,
		sessions:          deps.Sessions,
		active:            deps.ActiveSessions,
		impersonations:    deps.Impersonations,
		breaker:           deps.Breaker,
		codec:             deps.Codec,
		users:             deps.Users,
		accounts:          deps.Accounts,
		authz:             deps.Authorization,
		directory:         deps.Directory,
		notifier:          notifier,
		mailer:            mailer,
		settingsCache:     deps.SettingsCache,
		accessTokenSecret: deps.AccessTokenSecret,
		accessTokenTTL:    accessTokenTTL,
		log:               logger.Named("credential"),
	}
}

// LoginOptions modula la cola de creación de sesión compartida por
// todos los paths de login.
type LoginOptions struct {
	UserAgent               string
	DisableConcurrentLogins bool

	// RestrictedToAccountIDs limita los tenants visibles de la sesión.
	RestrictedToAccountIDs []string

	// DeviceUserID es el device que inició el login, si lo hubo.
	DeviceUserID string
}
