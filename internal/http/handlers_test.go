package http

import (
	"bytes"
	"context"
	"encoding/json"
	nethttp "net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/docuplane/credentiald/internal/credential"
	"github.com/docuplane/credentiald/internal/domain"
	"github.com/docuplane/credentiald/internal/rate"
	"github.com/docuplane/credentiald/internal/security/password"
	"github.com/docuplane/credentiald/internal/security/token"
	"github.com/docuplane/credentiald/internal/session"
	"github.com/docuplane/credentiald/internal/store/memstore"
	"github.com/stretchr/testify/require"
)

type staticUsers struct{}

func (staticUsers) GetUser(_ context.Context, userID string) (*domain.User, error) {
	return &domain.User{ID: userID, Login: userID + "@example.com"}, nil
}

func (staticUsers) CanBeManagedBy(_ context.Context, _ string, userIDs []string, _ string) (map[string]bool, error) {
	out := make(map[string]bool, len(userIDs))
	for _, id := range userIDs {
		out[id] = true
	}
	return out, nil
}

type staticAccounts struct{}

func (staticAccounts) GetAccountSettings(context.Context, string) (*domain.AccountSettings, error) {
	return &domain.AccountSettings{}, nil
}

type denyAuthz struct{}

func (denyAuthz) CanAccessBackend(context.Context, string) (bool, error) { return false, nil }

type emptyDirectory struct{}

func (emptyDirectory) ResolveUserID(context.Context, string) (string, error) { return "", nil }

type nopImpersonations struct{}

func (nopImpersonations) Save(context.Context, *domain.ImpersonationRecord) error { return nil }

func newTestRouter(t *testing.T) nethttp.Handler {
	t.Helper()

	creds := memstore.NewCredentialRepository()
	err := creds.Insert(context.Background(), &domain.Credential{
		UserID:       "usr-1",
		Login:        "ana@example.com",
		PasswordHash: password.NewClearText("hunter22"),
	})
	require.NoError(t, err)

	multi, err := session.NewMultiStore(memstore.NewSessionBackend(), memstore.NewSessionBackend())
	require.NoError(t, err)

	svc := credential.New(credential.Deps{
		Credentials:       creds,
		Tokens:            memstore.NewTokenRepository(),
		Sessions:          multi,
		ActiveSessions:    memstore.NewActiveSessionRepository(),
		Impersonations:    nopImpersonations{},
		Breaker:           rate.NewCircuitBreaker(memstore.NewRateLimitStore()),
		Codec:             token.NewCodec([]byte("http-test-secret")),
		Users:             staticUsers{},
		Accounts:          staticAccounts{},
		Authorization:     denyAuthz{},
		Directory:         emptyDirectory{},
		AccessTokenSecret: []byte("access-secret"),
	})
	return NewRouter(NewHandler(svc))
}

func postJSON(t *testing.T, h nethttp.Handler, path string, body any) *httptest.ResponseRecorder {
	t.Helper()
	raw, err := json.Marshal(body)
	require.NoError(t, err)
	req := httptest.NewRequest(nethttp.MethodPost, path, bytes.NewReader(raw))
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	return rec
}

func decodeError(t *testing.T, rec *httptest.ResponseRecorder) string {
	t.Helper()
	var payload struct {
		Error string `json:"error"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &payload))
	return payload.Error
}

func TestLoginEndpoint_Success(t *testing.T) {
	t.Parallel()
	h := newTestRouter(t)

	rec := postJSON(t, h, "/v1/login", map[string]string{
		"login":    "ana@example.com",
		"password": "hunter22",
	})
	require.Equal(t, nethttp.StatusOK, rec.Code)

	var sess struct {
		SessionID        string `json:"sessionId"`
		UserID           string `json:"userId"`
		IdentityProvider string `json:"identityProvider"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &sess))
	require.Equal(t, "usr-1", sess.UserID)
	require.Equal(t, "password", sess.IdentityProvider)
	require.NotEmpty(t, sess.SessionID)
}

// Contraseña errónea, cuenta inexistente y throttling tienen que ser
// indistinguibles hacia afuera.
func TestLoginEndpoint_FailuresCollapse(t *testing.T) {
	t.Parallel()
	h := newTestRouter(t)

	wrongPassword := postJSON(t, h, "/v1/login", map[string]string{
		"login": "ana@example.com", "password": "nope",
	})
	unknownLogin := postJSON(t, h, "/v1/login", map[string]string{
		"login": "ghost@example.com", "password": "nope",
	})

	for _, rec := range []*httptest.ResponseRecorder{wrongPassword, unknownLogin} {
		require.Equal(t, nethttp.StatusUnauthorized, rec.Code)
		require.Equal(t, "invalid_credentials", decodeError(t, rec))
	}

	var rateLimited *httptest.ResponseRecorder
	for i := 0; i < rate.DefaultThreshold+1; i++ {
		rateLimited = postJSON(t, h, "/v1/login", map[string]string{
			"login": "ana@example.com", "password": "nope",
		})
	}
	require.Equal(t, nethttp.StatusUnauthorized, rateLimited.Code)
	require.Equal(t, "invalid_credentials", decodeError(t, rateLimited))
}

func TestLoginEndpoint_BadSyntaxIs400(t *testing.T) {
	t.Parallel()
	h := newTestRouter(t)

	rec := postJSON(t, h, "/v1/login", map[string]string{
		"login": "not-an-email", "password": "whatever",
	})
	require.Equal(t, nethttp.StatusBadRequest, rec.Code)
	require.Equal(t, "invalid_login", decodeError(t, rec))
}

func TestTokenLoginEndpoint_InvalidVsExpired(t *testing.T) {
	t.Parallel()
	h := newTestRouter(t)

	rec := postJSON(t, h, "/v1/login/token", map[string]string{"token": "garbage"})
	require.Equal(t, nethttp.StatusUnauthorized, rec.Code)
	require.Equal(t, "invalid_token", decodeError(t, rec))

	// un token expirado pero bien formado se reporta distinto
	expired, err := token.NewCodec([]byte("http-test-secret")).
		BuildOneTimeLogin("usr-1", time.Now().Add(-time.Minute))
	require.NoError(t, err)
	rec = postJSON(t, h, "/v1/credentials/reset-password", map[string]string{
		"token": expired.Key(), "login": "ana@example.com", "newPassword": "fresh",
	})
	require.Equal(t, nethttp.StatusUnauthorized, rec.Code)
	require.Equal(t, "token_expired", decodeError(t, rec))
}

func TestImpersonateEndpoint_NonAdminIsAccountScoped(t *testing.T) {
	t.Parallel()
	h := newTestRouter(t)

	rec := postJSON(t, h, "/v1/login/impersonate", map[string]any{
		"userId": "usr-1", "accountId": "acc-1", "actorUserId": "usr-nobody",
	})
	require.Equal(t, nethttp.StatusOK, rec.Code)

	var sess struct {
		UserID     string   `json:"userId"`
		AccountIDs []string `json:"accountIds"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &sess))
	require.Equal(t, "usr-1", sess.UserID)
	require.Equal(t, []string{"acc-1"}, sess.AccountIDs)
}

func TestCreateCredentialEndpoint_DuplicateIs409(t *testing.T) {
	t.Parallel()
	h := newTestRouter(t)

	body := map[string]string{
		"userId": "usr-new", "login": "new@example.com", "password": "pw",
	}
	rec := postJSON(t, h, "/v1/credentials", body)
	require.Equal(t, nethttp.StatusCreated, rec.Code)

	rec = postJSON(t, h, "/v1/credentials", body)
	require.Equal(t, nethttp.StatusConflict, rec.Code)
	require.Equal(t, "conflict", decodeError(t, rec))
}

func TestHealthz(t *testing.T) {
	t.Parallel()
	h := newTestRouter(t)

	req := httptest.NewRequest(nethttp.MethodGet, "/healthz", nil)
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	require.Equal(t, nethttp.StatusOK, rec.Code)
}
