package http

import (
	"errors"
	"net/http"
	"time"

	"github.com/docuplane/credentiald/internal/credential"
	"github.com/docuplane/credentiald/internal/domain"
	"github.com/docuplane/credentiald/internal/observability/logger"
	"github.com/docuplane/credentiald/internal/security/token"
	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"
)

// Handler agrupa los endpoints REST sobre el orquestador.
type Handler struct {
	svc *credential.Service
	log *zap.Logger
}

func NewHandler(svc *credential.Service) *Handler {
	return &Handler{svc: svc, log: logger.Named("http")}
}

func (h *Handler) Register(r chi.Router) {
	r.Route("/v1", func(r chi.Router) {
		r.Post("/login", h.login)
		r.Post("/login/token", h.loginWithToken)
		r.Post("/login/usertoken", h.loginWithUserToken)
		r.Post("/login/impersonate", h.impersonate)

		r.Post("/tokens/one-time", h.createOneTimeToken)
		r.Post("/tokens/url", h.createURLToken)
		r.Get("/tokens", h.getToken)

		r.Post("/credentials", h.createCredential)
		r.Put("/credentials", h.createOrUpdateCredential)
		r.Put("/credentials/password", h.updatePassword)
		r.Post("/credentials/reset-password", h.resetPassword)
		r.Post("/credentials/verify", h.verifyPassword)
		r.Post("/credentials/status", h.credentialStatus)
		r.Post("/credentials/anonymize", h.anonymizeCredential)

		r.Post("/sessions/extend", h.extendSession)
		r.Post("/sessions/expired", h.sessionExpired)
		r.Post("/sessions/access-token", h.createAccessToken)
		r.Delete("/sessions", h.endSessions)
	})
}

// writeDomainError mapea errores del dominio a status + código API.
// Todos los fallos de autenticación colapsan en invalid_credentials:
// el cliente nunca distingue cuenta inexistente, contraseña errónea o
// throttling.
func (h *Handler) writeDomainError(w http.ResponseWriter, err error) {
	switch {
	case domain.IsLoginFailure(err):
		WriteError(w, http.StatusUnauthorized, "invalid_credentials", "Invalid credentials")
	case errors.Is(err, token.ErrTokenExpired):
		WriteError(w, http.StatusUnauthorized, "token_expired", "Token expired")
	case errors.Is(err, token.ErrInvalidToken):
		WriteError(w, http.StatusUnauthorized, "invalid_token", "Invalid token")
	case errors.Is(err, domain.ErrInvalidLogin):
		WriteError(w, http.StatusBadRequest, "invalid_login", "Login must be a valid email address")
	case errors.Is(err, domain.ErrSessionExpired):
		WriteError(w, http.StatusUnauthorized, "session_expired", "Session no longer exists")
	case errors.Is(err, domain.ErrUnauthorized):
		WriteError(w, http.StatusForbidden, "unauthorized", "Not allowed")
	case domain.IsConflict(err), errors.Is(err, domain.ErrInvalidCredential):
		WriteError(w, http.StatusConflict, "conflict", "Credential conflict")
	case domain.IsNotFound(err), errors.Is(err, domain.ErrUserIDNotFound):
		WriteError(w, http.StatusNotFound, "not_found", "Resource not found")
	default:
		h.log.Error("unhandled error", logger.Err(err))
		WriteError(w, http.StatusInternalServerError, "internal_error", "Internal error")
	}
}

type sessionResponse struct {
	SessionID        string   `json:"sessionId"`
	UserID           string   `json:"userId"`
	IdentityProvider string   `json:"identityProvider"`
	CreatedOn        string   `json:"createdOn"`
	UserAgent        string   `json:"userAgent,omitempty"`
	IsDeviceUser     bool     `json:"isDeviceUser"`
	AccountIDs       []string `json:"accountIds,omitempty"`
	DeviceUserID     string   `json:"deviceUserId,omitempty"`
}

func toSessionResponse(s *domain.Session) sessionResponse {
	return sessionResponse{
		SessionID:        s.SessionID,
		UserID:           s.UserID,
		IdentityProvider: string(s.IdentityProvider),
		CreatedOn:        s.CreatedOn.UTC().Format(time.RFC3339),
		UserAgent:        s.UserAgent,
		IsDeviceUser:     s.IsDeviceUser,
		AccountIDs:       s.AccountIDs,
		DeviceUserID:     s.DeviceUserID,
	}
}

// --- Logins ---

type loginRequest struct {
	Login                   string `json:"login"`
	Password                string `json:"password"`
	UserAgent               string `json:"userAgent"`
	DisableConcurrentLogins bool   `json:"disableConcurrentLogins"`
}

func (h *Handler) login(w http.ResponseWriter, r *http.Request) {
	var req loginRequest
	if !ReadJSON(w, r, &req) {
		return
	}
	if req.Login == "" || req.Password == "" {
		WriteError(w, http.StatusBadRequest, "missing_fields", "login and password required")
		return
	}
	sess, err := h.svc.LoginWithPassword(r.Context(), req.Login, req.Password, &credential.LoginOptions{
		UserAgent:               req.UserAgent,
		DisableConcurrentLogins: req.DisableConcurrentLogins,
	})
	if err != nil {
		h.writeDomainError(w, err)
		return
	}
	WriteJSON(w, http.StatusOK, toSessionResponse(sess))
}

type tokenLoginRequest struct {
	Token     string `json:"token"`
	UserAgent string `json:"userAgent"`
}

func (h *Handler) loginWithToken(w http.ResponseWriter, r *http.Request) {
	var req tokenLoginRequest
	if !ReadJSON(w, r, &req) {
		return
	}
	if req.Token == "" {
		WriteError(w, http.StatusBadRequest, "missing_fields", "token required")
		return
	}
	sess, err := h.svc.LoginWithToken(r.Context(), req.Token, &credential.LoginOptions{UserAgent: req.UserAgent})
	if err != nil {
		h.writeDomainError(w, err)
		return
	}
	WriteJSON(w, http.StatusOK, toSessionResponse(sess))
}

type userTokenLoginRequest struct {
	Token     string `json:"token"`
	AccountID string `json:"accountId"`
	UserAgent string `json:"userAgent"`
}

func (h *Handler) loginWithUserToken(w http.ResponseWriter, r *http.Request) {
	var req userTokenLoginRequest
	if !ReadJSON(w, r, &req) {
		return
	}
	if req.Token == "" || req.AccountID == "" {
		WriteError(w, http.StatusBadRequest, "missing_fields", "token and accountId required")
		return
	}
	sess, err := h.svc.LoginWithUserToken(r.Context(), req.Token, req.AccountID, r.RemoteAddr,
		&credential.LoginOptions{UserAgent: req.UserAgent})
	if err != nil {
		h.writeDomainError(w, err)
		return
	}
	WriteJSON(w, http.StatusOK, toSessionResponse(sess))
}

type impersonateRequest struct {
	UserID        string `json:"userId"`
	AccountID     string `json:"accountId"`
	ActorUserID   string `json:"actorUserId"`
	ActorIsDevice bool   `json:"actorIsDevice"`
}

func (h *Handler) impersonate(w http.ResponseWriter, r *http.Request) {
	var req impersonateRequest
	if !ReadJSON(w, r, &req) {
		return
	}
	if req.UserID == "" || req.ActorUserID == "" {
		WriteError(w, http.StatusBadRequest, "missing_fields", "userId and actorUserId required")
		return
	}
	sess, err := h.svc.GetImpersonatedSession(r.Context(), req.UserID, req.AccountID, req.ActorUserID, req.ActorIsDevice)
	if err != nil {
		h.writeDomainError(w, err)
		return
	}
	WriteJSON(w, http.StatusOK, toSessionResponse(sess))
}

// --- Tokens ---

type oneTimeTokenRequest struct {
	UserID string `json:"userId"`
	Days   int    `json:"days"`
}

func (h *Handler) createOneTimeToken(w http.ResponseWriter, r *http.Request) {
	var req oneTimeTokenRequest
	if !ReadJSON(w, r, &req) {
		return
	}
	if req.UserID == "" {
		WriteError(w, http.StatusBadRequest, "missing_fields", "userId required")
		return
	}
	t, err := h.svc.CreateOneTimeToken(r.Context(), req.UserID, req.Days)
	if err != nil {
		h.writeDomainError(w, err)
		return
	}
	WriteJSON(w, http.StatusCreated, map[string]any{
		"token":          t.Key(),
		"expirationDate": t.ExpirationDate().UTC().Format(time.RFC3339),
	})
}

type urlTokenRequest struct {
	ItemIDs []string `json:"itemIds"`
	Days    int      `json:"days"`
}

func (h *Handler) createURLToken(w http.ResponseWriter, r *http.Request) {
	var req urlTokenRequest
	if !ReadJSON(w, r, &req) {
		return
	}
	if len(req.ItemIDs) == 0 {
		WriteError(w, http.StatusBadRequest, "missing_fields", "itemIds required")
		return
	}
	t, err := h.svc.CreateURLToken(r.Context(), token.ACLFromItemIDs(req.ItemIDs...), req.Days)
	if err != nil {
		h.writeDomainError(w, err)
		return
	}
	WriteJSON(w, http.StatusCreated, map[string]any{
		"token":          t.Key(),
		"expirationDate": t.ExpirationDate().UTC().Format(time.RFC3339),
	})
}

func (h *Handler) getToken(w http.ResponseWriter, r *http.Request) {
	key := r.URL.Query().Get("key")
	if key == "" {
		WriteError(w, http.StatusBadRequest, "missing_fields", "key query param required")
		return
	}
	t, err := h.svc.GetToken(r.Context(), key)
	if err != nil {
		h.writeDomainError(w, err)
		return
	}
	WriteJSON(w, http.StatusOK, map[string]any{
		"token":          t.Key(),
		"type":           int(t.Type()),
		"invalidated":    t.Invalidated(),
		"valid":          t.IsValid(),
		"expirationDate": t.ExpirationDate().UTC().Format(time.RFC3339),
	})
}

// --- Credentials ---

type createCredentialRequest struct {
	UserID   string `json:"userId"`
	Login    string `json:"login"`
	Password string `json:"password"`
}

func (h *Handler) createCredential(w http.ResponseWriter, r *http.Request) {
	var req createCredentialRequest
	if !ReadJSON(w, r, &req) {
		return
	}
	if req.UserID == "" || req.Login == "" || req.Password == "" {
		WriteError(w, http.StatusBadRequest, "missing_fields", "userId, login and password required")
		return
	}
	if err := h.svc.CreateCredential(r.Context(), req.UserID, req.Login, req.Password); err != nil {
		h.writeDomainError(w, err)
		return
	}
	w.WriteHeader(http.StatusCreated)
}

type upsertCredentialRequest struct {
	UserID      string `json:"userId"`
	Login       string `json:"login"`
	Password    string `json:"password"`
	ActorUserID string `json:"actorUserId"`
}

func (h *Handler) createOrUpdateCredential(w http.ResponseWriter, r *http.Request) {
	var req upsertCredentialRequest
	if !ReadJSON(w, r, &req) {
		return
	}
	if req.UserID == "" || req.Login == "" || req.Password == "" {
		WriteError(w, http.StatusBadRequest, "missing_fields", "userId, login and password required")
		return
	}
	if err := h.svc.CreateOrUpdateCredentialForUser(r.Context(), req.UserID, req.Login, req.Password, req.ActorUserID); err != nil {
		h.writeDomainError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

type updatePasswordRequest struct {
	Login       string `json:"login"`
	OldPassword string `json:"oldPassword"`
	NewPassword string `json:"newPassword"`
}

func (h *Handler) updatePassword(w http.ResponseWriter, r *http.Request) {
	var req updatePasswordRequest
	if !ReadJSON(w, r, &req) {
		return
	}
	if req.Login == "" || req.OldPassword == "" || req.NewPassword == "" {
		WriteError(w, http.StatusBadRequest, "missing_fields", "login, oldPassword and newPassword required")
		return
	}
	if err := h.svc.UpdatePassword(r.Context(), req.Login, req.OldPassword, req.NewPassword); err != nil {
		h.writeDomainError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

type resetPasswordRequest struct {
	Token       string `json:"token"`
	Login       string `json:"login"`
	NewPassword string `json:"newPassword"`
	UserAgent   string `json:"userAgent"`
}

func (h *Handler) resetPassword(w http.ResponseWriter, r *http.Request) {
	var req resetPasswordRequest
	if !ReadJSON(w, r, &req) {
		return
	}
	if req.Token == "" || req.Login == "" || req.NewPassword == "" {
		WriteError(w, http.StatusBadRequest, "missing_fields", "token, login and newPassword required")
		return
	}
	sess, err := h.svc.ResetPassword(r.Context(), req.Token, req.Login, req.NewPassword,
		&credential.LoginOptions{UserAgent: req.UserAgent})
	if err != nil {
		h.writeDomainError(w, err)
		return
	}
	WriteJSON(w, http.StatusOK, toSessionResponse(sess))
}

type verifyPasswordRequest struct {
	Login    string `json:"login"`
	Password string `json:"password"`
}

func (h *Handler) verifyPassword(w http.ResponseWriter, r *http.Request) {
	var req verifyPasswordRequest
	if !ReadJSON(w, r, &req) {
		return
	}
	ok, err := h.svc.VerifyPassword(r.Context(), req.Login, req.Password)
	if err != nil {
		h.writeDomainError(w, err)
		return
	}
	WriteJSON(w, http.StatusOK, map[string]bool{"valid": ok})
}

type credentialStatusRequest struct {
	AccountID   string   `json:"accountId"`
	UserIDs     []string `json:"userIds"`
	ActorUserID string   `json:"actorUserId"`
}

func (h *Handler) credentialStatus(w http.ResponseWriter, r *http.Request) {
	var req credentialStatusRequest
	if !ReadJSON(w, r, &req) {
		return
	}
	statuses, err := h.svc.GetCredentialStatusForUsers(r.Context(), req.AccountID, req.UserIDs, req.ActorUserID)
	if err != nil {
		h.writeDomainError(w, err)
		return
	}
	WriteJSON(w, http.StatusOK, statuses)
}

type anonymizeRequest struct {
	UserID string `json:"userId"`
}

func (h *Handler) anonymizeCredential(w http.ResponseWriter, r *http.Request) {
	var req anonymizeRequest
	if !ReadJSON(w, r, &req) {
		return
	}
	if req.UserID == "" {
		WriteError(w, http.StatusBadRequest, "missing_fields", "userId required")
		return
	}
	if err := h.svc.AnonymizeCredential(r.Context(), req.UserID); err != nil {
		h.writeDomainError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// --- Sessions ---

type sessionWindowRequest struct {
	AccountID string `json:"accountId"`
	SessionID string `json:"sessionId"`
	UserID    string `json:"userId"`
}

func (h *Handler) extendSession(w http.ResponseWriter, r *http.Request) {
	var req sessionWindowRequest
	if !ReadJSON(w, r, &req) {
		return
	}
	if req.AccountID == "" || req.SessionID == "" {
		WriteError(w, http.StatusBadRequest, "missing_fields", "accountId and sessionId required")
		return
	}
	extended, err := h.svc.ExtendSession(r.Context(), req.AccountID, req.SessionID)
	if err != nil {
		h.writeDomainError(w, err)
		return
	}
	WriteJSON(w, http.StatusOK, map[string]bool{"extended": extended})
}

func (h *Handler) sessionExpired(w http.ResponseWriter, r *http.Request) {
	var req sessionWindowRequest
	if !ReadJSON(w, r, &req) {
		return
	}
	if req.AccountID == "" || req.SessionID == "" || req.UserID == "" {
		WriteError(w, http.StatusBadRequest, "missing_fields", "accountId, sessionId and userId required")
		return
	}
	expired, err := h.svc.HasSessionExpired(r.Context(), req.AccountID, req.SessionID, req.UserID)
	if err != nil {
		h.writeDomainError(w, err)
		return
	}
	WriteJSON(w, http.StatusOK, map[string]bool{"expired": expired})
}

type accessTokenRequest struct {
	UserID    string `json:"userId"`
	SessionID string `json:"sessionId"`
}

func (h *Handler) createAccessToken(w http.ResponseWriter, r *http.Request) {
	var req accessTokenRequest
	if !ReadJSON(w, r, &req) {
		return
	}
	if req.UserID == "" || req.SessionID == "" {
		WriteError(w, http.StatusBadRequest, "missing_fields", "userId and sessionId required")
		return
	}
	signed, err := h.svc.CreateUserAccessToken(r.Context(), req.UserID, req.SessionID)
	if err != nil {
		h.writeDomainError(w, err)
		return
	}
	WriteJSON(w, http.StatusOK, map[string]string{"accessToken": signed})
}

func (h *Handler) endSessions(w http.ResponseWriter, r *http.Request) {
	userID := r.URL.Query().Get("userId")
	if userID == "" {
		WriteError(w, http.StatusBadRequest, "missing_fields", "userId query param required")
		return
	}
	if err := h.svc.EndSessionsForUser(r.Context(), userID); err != nil {
		h.writeDomainError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
