package credential

import (
	"context"
	"fmt"
	"time"

	"github.com/docuplane/credentiald/internal/domain"
	"github.com/docuplane/credentiald/internal/security/token"
	jwtv5 "github.com/golang-jwt/jwt/v5"
)

// DefaultOneTimeTokenDays es la vigencia por defecto de los tokens
// one-time-login (invitaciones, resets de contraseña).
const DefaultOneTimeTokenDays = 7

// CreateOneTimeToken emite y persiste un one-time-login token para el
// usuario. days <= 0 usa la vigencia por defecto.
func (s *Service) CreateOneTimeToken(ctx context.Context, userID string, days int) (*token.OneTimeLoginToken, error) {
	if days <= 0 {
		days = DefaultOneTimeTokenDays
	}
	t, err := s.codec.BuildOneTimeLogin(userID, time.Now().UTC().AddDate(0, 0, days))
	if err != nil {
		return nil, err
	}
	if err := s.tokens.Save(ctx, t); err != nil {
		return nil, err
	}
	return t, nil
}

// CreateURLToken emite un URL token con la ACL embebida. Es stateless:
// no se persiste, la validez es firma + expiry.
func (s *Service) CreateURLToken(ctx context.Context, acl token.ACL, days int) (*token.URLToken, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if days <= 0 {
		days = DefaultOneTimeTokenDays
	}
	return s.codec.BuildURL(acl, time.Now().UTC().AddDate(0, 0, days))
}

// GetToken busca un token persistido por su bearer string.
func (s *Service) GetToken(ctx context.Context, key string) (token.Token, error) {
	return s.tokens.GetByKey(ctx, key)
}

// GetUsersTokens retorna el one-time token vigente de cada usuario del
// batch que tenga alguno.
func (s *Service) GetUsersTokens(ctx context.Context, userIDs []string) ([]domain.UserIDWithToken, error) {
	return s.tokens.GetForUsers(ctx, userIDs)
}

// CountTokens retorna el total de tokens persistidos.
func (s *Service) CountTokens(ctx context.Context) (int64, error) {
	return s.tokens.CountAll(ctx)
}

// CreateUserAccessToken firma un access token corto para una sesión
// vigente. La sesión tiene que existir en el store canónico: una sesión
// evictada o terminada da ErrSessionExpired.
func (s *Service) CreateUserAccessToken(ctx context.Context, userID, sessionID string) (string, error) {
	sessions, err := s.sessions.GetByUser(ctx, userID)
	if err != nil {
		return "", err
	}
	var sess *domain.Session
	for _, candidate := range sessions {
		if candidate.SessionID == sessionID {
			sess = candidate
			break
		}
	}
	if sess == nil {
		return "", domain.ErrSessionExpired
	}

	now := time.Now().UTC()
	claims := jwtv5.MapClaims{
		"sessionId":    sess.SessionID,
		"userId":       sess.UserID,
		"isDeviceUser": sess.IsDeviceUser,
		"iat":          now.Unix(),
		"exp":          now.Add(s.accessTokenTTL).Unix(),
	}
	if len(sess.AccountIDs) > 0 {
		claims["accountIds"] = sess.AccountIDs
	}
	if sess.DeviceUserID != "" {
		claims["deviceUserId"] = sess.DeviceUserID
	}

	signed, err := jwtv5.NewWithClaims(jwtv5.SigningMethodHS256, claims).SignedString(s.accessTokenSecret)
	if err != nil {
		return "", fmt.Errorf("sign access token: %w", err)
	}
	return signed, nil
}
