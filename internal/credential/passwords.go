package credential

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/docuplane/credentiald/internal/domain"
	"github.com/docuplane/credentiald/internal/observability/logger"
	"github.com/docuplane/credentiald/internal/security/password"
	"github.com/docuplane/credentiald/internal/security/token"
	"github.com/docuplane/credentiald/internal/validation"
)

// CredentialStatus resume si un usuario tiene contraseña configurada.
type CredentialStatus string

const (
	StatusPasswordSet CredentialStatus = "PASSWORD_SET"
	StatusNoPassword  CredentialStatus = "NO_PASSWORD"

	// StatusUnknown se reporta cuando el actor no puede administrar a ese
	// usuario: el estado real no se revela.
	StatusUnknown CredentialStatus = "UNKNOWN"
)

// CreateCredential crea la credencial inicial de un usuario. Falla con
// ErrConflict si el login o el userId ya tienen credencial.
func (s *Service) CreateCredential(ctx context.Context, userID, login, clearText string) error {
	if !validation.ValidLogin(login) {
		return domain.ErrInvalidLogin
	}
	hash, err := password.NewBCrypt(ctx, clearText, password.DefaultBCryptCost)
	if err != nil {
		return err
	}
	return s.credentials.Insert(ctx, &domain.Credential{
		UserID:             userID,
		Login:              login,
		PasswordHash:       hash,
		LastPasswordChange: time.Now().UTC(),
	})
}

// CreateOrUpdateCredentialForUser hace upsert de la credencial de un
// usuario en nombre de otro. Si la contraseña la cambió alguien más,
// las sesiones vigentes del usuario se terminan y el usuario recibe el
// aviso de cambio de contraseña.
func (s *Service) CreateOrUpdateCredentialForUser(ctx context.Context, userID, login, clearText, actorUserID string) error {
	if !validation.ValidLogin(login) {
		return domain.ErrInvalidLogin
	}
	hash, err := password.NewBCrypt(ctx, clearText, password.DefaultBCryptCost)
	if err != nil {
		return err
	}

	existed := true
	if _, err := s.credentials.GetByUserID(ctx, userID); err != nil {
		if !errors.Is(err, domain.ErrUserIDNotFound) {
			return err
		}
		existed = false
	}

	err = s.credentials.CreateOrUpdate(ctx, &domain.Credential{
		UserID:             userID,
		Login:              login,
		PasswordHash:       hash,
		LastPasswordChange: time.Now().UTC(),
	})
	if err != nil {
		return err
	}

	if userID != actorUserID {
		if err := s.EndSessionsForUser(ctx, userID); err != nil {
			s.log.Warn("could not end sessions after admin password change",
				logger.UserID(userID), logger.Err(err))
		}
	}
	if existed {
		s.sendPasswordChangedMail(ctx, login, userID != actorUserID)
	}
	return nil
}

// UpdatePassword cambia la contraseña de un usuario que conoce la
// vigente. Pasa por el mismo breaker que los logins.
func (s *Service) UpdatePassword(ctx context.Context, login, oldPassword, newPassword string) error {
	cred, err := s.validatePassword(ctx, login, oldPassword)
	if err != nil {
		return err
	}
	hash, err := password.NewBCrypt(ctx, newPassword, password.DefaultBCryptCost)
	if err != nil {
		return err
	}
	cred.PasswordHash = hash
	cred.LastPasswordChange = time.Now().UTC()
	if err := s.credentials.UpdatePassword(ctx, cred); err != nil {
		return err
	}
	s.sendPasswordChangedMail(ctx, cred.Login, false)
	return nil
}

// UpdatePasswordByAdmin fija la contraseña de un usuario sin conocer la
// vigente. Solo para callers ya autorizados como admins.
func (s *Service) UpdatePasswordByAdmin(ctx context.Context, userID, newPassword string) error {
	cred, err := s.credentials.GetByUserID(ctx, userID)
	if err != nil {
		return err
	}
	hash, err := password.NewBCrypt(ctx, newPassword, password.DefaultBCryptCost)
	if err != nil {
		return err
	}
	cred.PasswordHash = hash
	cred.LastPasswordChange = time.Now().UTC()
	if err := s.credentials.UpdatePassword(ctx, cred); err != nil {
		return err
	}
	s.sendPasswordChangedMail(ctx, cred.Login, true)
	return nil
}

// ResetPassword canjea un one-time-login token por una contraseña
// nueva y una sesión. Crea la credencial si el usuario todavía no
// tenía; el token se persiste consumido antes de honrar el login.
func (s *Service) ResetPassword(ctx context.Context, rawToken, login, newPassword string, opts *LoginOptions) (*domain.Session, error) {
	if !validation.ValidLogin(login) {
		return nil, domain.ErrInvalidLogin
	}

	inflated, err := s.codec.Inflate(rawToken)
	if err != nil {
		return nil, err
	}
	oneTime, ok := inflated.(*token.OneTimeLoginToken)
	if !ok {
		return nil, token.ErrInvalidToken
	}

	// La copia persistida manda: el token firmado no sabe si ya fue
	// consumido en un reset anterior.
	if stored, err := s.tokens.GetByKey(ctx, rawToken); err == nil {
		if storedOneTime, ok := stored.(*token.OneTimeLoginToken); ok {
			oneTime = storedOneTime
		}
	} else if !domain.IsNotFound(err) {
		return nil, err
	}
	if !oneTime.IsValid() {
		return nil, token.ErrInvalidToken
	}

	hash, err := password.NewBCrypt(ctx, newPassword, password.DefaultBCryptCost)
	if err != nil {
		return nil, err
	}
	cred := &domain.Credential{
		UserID:             oneTime.UserID,
		Login:              login,
		PasswordHash:       hash,
		LastPasswordChange: time.Now().UTC(),
	}

	existing, err := s.credentials.GetByUserID(ctx, oneTime.UserID)
	switch {
	case err == nil:
		if !strings.EqualFold(existing.Login, login) {
			return nil, fmt.Errorf("%w: login does not match credential", domain.ErrUnauthorized)
		}
		cred.Login = existing.Login
		if err := s.credentials.UpdatePassword(ctx, cred); err != nil {
			return nil, err
		}
	case errors.Is(err, domain.ErrUserIDNotFound):
		if err := s.credentials.Insert(ctx, cred); err != nil {
			return nil, err
		}
	default:
		return nil, err
	}

	if err := s.tokens.Save(ctx, oneTime.Consume()); err != nil {
		return nil, fmt.Errorf("consume token: %w", err)
	}

	// Un reset deja una sola sesión viva: la nueva.
	loginOpts := LoginOptions{DisableConcurrentLogins: true}
	if opts != nil {
		loginOpts = *opts
		loginOpts.DisableConcurrentLogins = true
	}
	return s.doLogin(ctx, oneTime.UserID, domain.ProviderToken, &loginOpts)
}

// HasPassword indica si el usuario tiene credencial configurada.
func (s *Service) HasPassword(ctx context.Context, userID string) (bool, error) {
	_, err := s.credentials.GetByUserID(ctx, userID)
	if errors.Is(err, domain.ErrUserIDNotFound) {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	return true, nil
}

// GetCredentialStatusForUsers reporta el estado de credencial de un
// batch de usuarios. Con actor, los usuarios que el actor no puede
// administrar salen UNKNOWN; sin actor (caller backend confiable) se
// reporta todo. Usuarios sin credencial no son error.
func (s *Service) GetCredentialStatusForUsers(ctx context.Context, accountID string, userIDs []string, actorUserID string) (map[string]CredentialStatus, error) {
	manageable := make(map[string]bool, len(userIDs))
	if actorUserID == "" {
		for _, id := range userIDs {
			manageable[id] = true
		}
	} else {
		var err error
		manageable, err = s.users.CanBeManagedBy(ctx, accountID, userIDs, actorUserID)
		if err != nil {
			return nil, err
		}
	}

	lookup := make([]string, 0, len(userIDs))
	for _, id := range userIDs {
		if manageable[id] {
			lookup = append(lookup, id)
		}
	}
	found, err := s.credentials.GetByUserIDs(ctx, lookup)
	if err != nil {
		return nil, err
	}

	out := make(map[string]CredentialStatus, len(userIDs))
	for _, id := range userIDs {
		switch {
		case !manageable[id]:
			out[id] = StatusUnknown
		case found[id] != nil:
			out[id] = StatusPasswordSet
		default:
			out[id] = StatusNoPassword
		}
	}
	return out, nil
}

// UpdateLogin reescribe el login de un usuario.
func (s *Service) UpdateLogin(ctx context.Context, userID, login string) error {
	if !validation.ValidLogin(login) {
		return domain.ErrInvalidLogin
	}
	return s.credentials.UpdateLogin(ctx, userID, login)
}

// AnonymizeCredential reemplaza el login por un placeholder opaco y
// termina toda sesión vigente del usuario. Para el pipeline de borrado
// de usuarios: la fila queda, el dato personal no.
func (s *Service) AnonymizeCredential(ctx context.Context, userID string) error {
	placeholder := userID + "@" + validation.AnonymizedLoginDomain
	if err := s.credentials.UpdateLogin(ctx, userID, placeholder); err != nil {
		return err
	}
	return s.EndSessionsForUser(ctx, userID)
}

// sendPasswordChangedMail avisa el cambio best-effort: un SMTP caído
// nunca voltea la operación que ya persistió.
func (s *Service) sendPasswordChangedMail(ctx context.Context, to string, byAdmin bool) {
	if !validation.ValidLogin(to) || validation.IsInternalLogin(to) {
		return
	}
	if err := s.mailer.SendPasswordChanged(ctx, to, byAdmin); err != nil {
		s.log.Warn("could not send password change mail", logger.Err(err))
	}
}
