package credential

import (
	"context"
	"encoding/json"

	"github.com/docuplane/credentiald/internal/domain"
	"github.com/docuplane/credentiald/internal/metrics"
	"github.com/docuplane/credentiald/internal/observability/logger"
)

// EndSessionsForUser termina todas las sesiones vigentes del usuario.
func (s *Service) EndSessionsForUser(ctx context.Context, userID string) error {
	sessions, err := s.sessions.GetByUser(ctx, userID)
	if err != nil {
		return err
	}
	for _, sess := range sessions {
		if err := s.sessions.End(ctx, sess); err != nil {
			return err
		}
		metrics.SessionsEnded.Inc()
	}
	return nil
}

// ExtendSession corre la ventana de inactividad de la sesión. Cuentas
// sin auto-logout siempre extienden; con auto-logout, una ventana ya
// vencida no se puede extender y retorna false.
func (s *Service) ExtendSession(ctx context.Context, accountID, sessionID string) (bool, error) {
	settings, err := s.accountSettings(ctx, accountID)
	if err != nil {
		return false, err
	}
	if settings.Security == nil || !settings.Security.AutoLogout {
		return true, nil
	}
	return s.active.Extend(ctx, accountID, sessionID, settings.Security.AutoLogoutPeriod)
}

// HasSessionExpired reporta si la ventana de inactividad venció. Una
// sesión vencida se termina en los backends y el usuario recibe
// USER_LOGGED_OFF; ambas cosas best-effort, el veredicto no cambia.
func (s *Service) HasSessionExpired(ctx context.Context, accountID, sessionID, userID string) (bool, error) {
	settings, err := s.accountSettings(ctx, accountID)
	if err != nil {
		return false, err
	}
	if settings.Security == nil || !settings.Security.AutoLogout {
		return false, nil
	}

	expired, err := s.active.HasExpired(ctx, accountID, sessionID)
	if err != nil || !expired {
		return false, err
	}

	if err := s.sessions.EndByIDs(ctx, userID, sessionID); err != nil {
		s.log.Warn("could not end expired session", logger.SessionID(sessionID), logger.Err(err))
	} else {
		metrics.SessionsEnded.Inc()
	}
	s.notifier.Dispatch(
		domain.RoutingKey{Type: domain.RoutingKeyUser, Value: userID},
		domain.EventUserLoggedOff,
		map[string]any{"sessionId": sessionID},
	)
	return true, nil
}

// accountSettings resuelve los settings de la cuenta con un cache corto
// adelante: los heartbeats de sesión llegan por montones y los settings
// cambian poco.
func (s *Service) accountSettings(ctx context.Context, accountID string) (*domain.AccountSettings, error) {
	key := "account-settings:" + accountID
	if s.settingsCache != nil {
		if raw, err := s.settingsCache.Get(ctx, key); err == nil {
			var settings domain.AccountSettings
			if json.Unmarshal([]byte(raw), &settings) == nil {
				return &settings, nil
			}
		}
	}

	settings, err := s.accounts.GetAccountSettings(ctx, accountID)
	if err != nil {
		return nil, err
	}
	if s.settingsCache != nil {
		if raw, err := json.Marshal(settings); err == nil {
			if err := s.settingsCache.Set(ctx, key, string(raw), settingsCacheTTL); err != nil {
				s.log.Debug("could not cache account settings", logger.AccountID(accountID), logger.Err(err))
			}
		}
	}
	return settings, nil
}
