package credential

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/docuplane/credentiald/internal/domain"
	"github.com/docuplane/credentiald/internal/metrics"
	"github.com/docuplane/credentiald/internal/observability/logger"
	"github.com/docuplane/credentiald/internal/security/token"
	"github.com/docuplane/credentiald/internal/validation"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

// LoginWithPassword autentica login+contraseña y crea la sesión.
// Todos los fallos de autenticación salen como errores de login
// (ver domain.IsLoginFailure); el transporte los colapsa en uno solo.
func (s *Service) LoginWithPassword(ctx context.Context, login, clearText string, opts *LoginOptions) (*domain.Session, error) {
	if !validation.ValidLogin(login) {
		return nil, domain.ErrInvalidLogin
	}
	cred, err := s.validatePassword(ctx, login, clearText)
	if err != nil {
		return nil, err
	}
	return s.doLogin(ctx, cred.UserID, domain.ProviderPassword, opts)
}

// validatePassword es el camino único de validación de contraseña:
// breaker primero, credencial después, y reset del contador solo tras
// validación exitosa. Una credencial bloqueada valida siempre falso.
func (s *Service) validatePassword(ctx context.Context, login, clearText string) (*domain.Credential, error) {
	if err := s.breaker.Test(ctx, login); err != nil {
		if errors.Is(err, domain.ErrRateLimited) {
			metrics.BreakerTrips.Inc()
			metrics.LoginFailures.WithLabelValues("rate_limited").Inc()
		}
		return nil, err
	}

	cred, err := s.credentials.GetByLogin(ctx, login)
	if err != nil {
		if errors.Is(err, domain.ErrLoginNotFound) {
			metrics.LoginFailures.WithLabelValues("login_not_found").Inc()
		}
		return nil, err
	}

	valid := false
	if !cred.Blocked {
		valid, err = cred.PasswordHash.Validate(ctx, clearText)
		if err != nil {
			return nil, fmt.Errorf("validate password for %s: %w", cred.UserID, err)
		}
	}
	if !valid {
		metrics.LoginFailures.WithLabelValues("invalid_password").Inc()
		return nil, domain.ErrInvalidPassword
	}

	// El login ya está autenticado: si el reset falla, el contador viejo
	// expira solo por TTL.
	if err := s.breaker.Reset(ctx, login); err != nil {
		s.log.Warn("could not reset failed-login counter", logger.Err(err))
	}
	return cred, nil
}

// VerifyPassword chequea una contraseña sin crear sesión. Pasa por el
// mismo breaker que los logins: los errores de throttling se propagan,
// los de mismatch se reportan como false.
func (s *Service) VerifyPassword(ctx context.Context, login, clearText string) (bool, error) {
	_, err := s.validatePassword(ctx, login, clearText)
	switch {
	case err == nil:
		return true, nil
	case errors.Is(err, domain.ErrLoginNotFound), errors.Is(err, domain.ErrInvalidPassword):
		return false, nil
	default:
		return false, err
	}
}

// LoginWithToken autentica con un one-time-login token persistido.
// El consumo se persiste antes de crear la sesión: un replay falla
// aunque la cola del login falle después.
func (s *Service) LoginWithToken(ctx context.Context, key string, opts *LoginOptions) (*domain.Session, error) {
	stored, err := s.tokens.GetByKey(ctx, key)
	if err != nil {
		if domain.IsNotFound(err) {
			return nil, token.ErrInvalidToken
		}
		return nil, err
	}
	oneTime, ok := stored.(*token.OneTimeLoginToken)
	if !ok || !oneTime.IsValid() {
		return nil, token.ErrInvalidToken
	}

	if err := s.tokens.Save(ctx, oneTime.Consume()); err != nil {
		return nil, fmt.Errorf("consume token: %w", err)
	}
	return s.doLogin(ctx, oneTime.UserID, domain.ProviderToken, opts)
}

// LoginWithUserToken autentica un user token firmado con el secreto de
// la cuenta emisora. La sesión es siempre para el sub del token; si el
// token declara un impersonado, queda audit trail antes del login (las
// sesiones de impersonación propiamente dichas salen solo de
// GetImpersonatedSession).
func (s *Service) LoginWithUserToken(ctx context.Context, rawToken, accountID, clientIP string, opts *LoginOptions) (*domain.Session, error) {
	settings, err := s.accounts.GetAccountSettings(ctx, accountID)
	if err != nil {
		return nil, err
	}
	if settings.UserTokenSecret == "" {
		return nil, fmt.Errorf("%w: account has no user token secret", domain.ErrUnauthorized)
	}

	ut, err := token.InflateUserToken(rawToken, []byte(settings.UserTokenSecret))
	if err != nil {
		return nil, fmt.Errorf("%w: user token rejected", domain.ErrUnauthorized)
	}
	if ut.IsExpired() {
		return nil, fmt.Errorf("%w: user token expired", domain.ErrUnauthorized)
	}

	user, err := s.users.GetUser(ctx, ut.Sub)
	if err != nil {
		return nil, err
	}
	if validation.IsInternalLogin(user.Login) {
		return nil, fmt.Errorf("%w: user token logins are not allowed for internal accounts", domain.ErrUnauthorized)
	}

	if opts == nil {
		opts = &LoginOptions{}
	}

	if ut.ImpersonatedUser != "" {
		rec := &domain.ImpersonationRecord{
			ImpersonatedUserID: ut.ImpersonatedUser,
			UserID:             ut.Sub,
			UserAgent:          opts.UserAgent,
			ClientIP:           clientIP,
			CreatedOn:          time.Now().UTC(),
		}
		if err := s.impersonations.Save(ctx, rec); err != nil {
			// Sin audit trail no hay login.
			return nil, fmt.Errorf("record impersonation: %w", err)
		}
	}
	return s.doLogin(ctx, ut.Sub, domain.ProviderToken, opts)
}

// LoginByDirectoryIdentity autentica una identidad externa (AD/SAML
// nameID) resuelta a un userId por el resolver.
func (s *Service) LoginByDirectoryIdentity(ctx context.Context, nameID string, opts *LoginOptions) (*domain.Session, error) {
	userID, err := s.directory.ResolveUserID(ctx, nameID)
	if err != nil {
		return nil, err
	}
	if userID == "" {
		return nil, fmt.Errorf("%w: no user mapped to directory identity", domain.ErrNotFound)
	}
	return s.doLogin(ctx, userID, domain.ProviderSAMLSSO, opts)
}

// LoginByAuthenticatedUserID crea una sesión para un userId ya
// autenticado por otro medio. Solo para callers backend confiables; el
// transporte es responsable de no exponer este path.
func (s *Service) LoginByAuthenticatedUserID(ctx context.Context, userID string, opts *LoginOptions) (*domain.Session, error) {
	return s.doLogin(ctx, userID, domain.ProviderBackend, opts)
}

// GetImpersonatedSession crea una sesión en nombre de otro usuario.
// Los admins de plataforma impersonan sin restricciones; cualquier otro
// actor queda limitado a la cuenta dada. Un actor device deja además
// rastro del device en la sesión.
func (s *Service) GetImpersonatedSession(ctx context.Context, targetUserID, accountID, actorUserID string, actorIsDevice bool) (*domain.Session, error) {
	isAdmin, err := s.authz.CanAccessBackend(ctx, actorUserID)
	if err != nil {
		return nil, err
	}

	opts := &LoginOptions{}
	if !isAdmin {
		opts.RestrictedToAccountIDs = []string{accountID}
	}
	if actorIsDevice {
		opts.DeviceUserID = actorUserID
	}
	return s.doLogin(ctx, targetUserID, domain.ProviderImpersonation, opts)
}

// doLogin es la cola compartida de todos los paths de login: resuelve
// el usuario, crea la sesión canónica y aplica la evicción opcional de
// sesiones concurrentes.
func (s *Service) doLogin(ctx context.Context, userID string, provider domain.IdentityProvider, opts *LoginOptions) (*domain.Session, error) {
	if opts == nil {
		opts = &LoginOptions{}
	}

	user, err := s.users.GetUser(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("login: fetch user %s: %w", userID, err)
	}

	sess := &domain.Session{
		SessionID:        "ses-" + uuid.NewString(),
		UserID:           userID,
		IdentityProvider: provider,
		CreatedOn:        time.Now().UTC(),
		UserAgent:        opts.UserAgent,
		IsDeviceUser:     user.Type == domain.UserTypeDevice,
		AccountIDs:       opts.RestrictedToAccountIDs,
		DeviceUserID:     opts.DeviceUserID,
	}

	saved, err := s.sessions.Save(ctx, sess)
	if err != nil {
		s.log.Error("session save failed", logger.UserID(userID), logger.Err(err))
		return nil, err
	}
	metrics.LoginAttempts.WithLabelValues(string(provider)).Inc()

	if opts.DisableConcurrentLogins {
		s.endOtherSessions(ctx, userID, sess.SessionID)
	}

	s.log.Info("login",
		logger.UserID(userID),
		logger.SessionID(sess.SessionID),
		zap.String("provider", string(provider)))
	return saved, nil
}

// endOtherSessions termina toda sesión del usuario distinta de la
// excluida y despacha USER_LOGGED_OFF por cada una. Best-effort: la
// sesión nueva ya existe, un fallo acá no la invalida.
func (s *Service) endOtherSessions(ctx context.Context, userID, excludeSessionID string) {
	others, err := s.sessions.GetByUser(ctx, userID)
	if err != nil {
		s.log.Warn("could not list sessions for eviction", logger.UserID(userID), logger.Err(err))
		return
	}
	for _, other := range others {
		if other.SessionID == excludeSessionID {
			continue
		}
		if err := s.sessions.End(ctx, other); err != nil {
			s.log.Warn("could not end session", logger.SessionID(other.SessionID), logger.Err(err))
			continue
		}
		metrics.SessionsEnded.Inc()
		s.notifier.Dispatch(
			domain.RoutingKey{Type: domain.RoutingKeyUser, Value: userID},
			domain.EventUserLoggedOff,
			map[string]any{"sessionId": other.SessionID},
		)
	}
}
