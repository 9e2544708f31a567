// Package clients implementa los clientes HTTP hacia los servicios
// colaboradores: user service, account service y authorization service.
package clients

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/docuplane/credentiald/internal/domain"
)

type baseClient struct {
	baseURL string
	http    *http.Client
}

func newBaseClient(baseURL string) baseClient {
	return baseClient{
		baseURL: strings.TrimRight(baseURL, "/"),
		http:    &http.Client{Timeout: 10 * time.Second},
	}
}

func (c baseClient) getJSON(ctx context.Context, path string, out any) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+path, nil)
	if err != nil {
		return err
	}
	resp, err := c.http.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	switch {
	case resp.StatusCode == http.StatusNotFound:
		return domain.ErrNotFound
	case resp.StatusCode >= 300:
		return fmt.Errorf("clients: GET %s: status %d", path, resp.StatusCode)
	}
	return json.NewDecoder(resp.Body).Decode(out)
}

func (c baseClient) postJSON(ctx context.Context, path string, in, out any) error {
	body, err := json.Marshal(in)
	if err != nil {
		return err
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+path, bytes.NewReader(body))
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")
	resp, err := c.http.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	switch {
	case resp.StatusCode == http.StatusNotFound:
		return domain.ErrNotFound
	case resp.StatusCode >= 300:
		return fmt.Errorf("clients: POST %s: status %d", path, resp.StatusCode)
	}
	return json.NewDecoder(resp.Body).Decode(out)
}

// UserClient implementa domain.UserDirectory contra el user service.
type UserClient struct {
	baseClient
}

func NewUserClient(baseURL string) *UserClient {
	return &UserClient{newBaseClient(baseURL)}
}

func (c *UserClient) GetUser(ctx context.Context, userID string) (*domain.User, error) {
	var payload struct {
		ID    string `json:"id"`
		Login string `json:"login"`
		Type  int    `json:"type"`
	}
	if err := c.getJSON(ctx, "/v1/users/"+url.PathEscape(userID), &payload); err != nil {
		return nil, err
	}
	return &domain.User{
		ID:    payload.ID,
		Login: payload.Login,
		Type:  domain.UserType(payload.Type),
	}, nil
}

func (c *UserClient) CanBeManagedBy(ctx context.Context, accountID string, userIDs []string, actorID string) (map[string]bool, error) {
	in := struct {
		AccountID string   `json:"accountId"`
		UserIDs   []string `json:"userIds"`
		ActorID   string   `json:"actorId"`
	}{AccountID: accountID, UserIDs: userIDs, ActorID: actorID}

	out := map[string]bool{}
	if err := c.postJSON(ctx, "/v1/users/can-be-managed", in, &out); err != nil {
		return nil, err
	}
	return out, nil
}

// AccountsClient implementa domain.AccountClient contra el account
// service.
type AccountsClient struct {
	baseClient
}

func NewAccountsClient(baseURL string) *AccountsClient {
	return &AccountsClient{newBaseClient(baseURL)}
}

func (c *AccountsClient) GetAccountSettings(ctx context.Context, accountID string) (*domain.AccountSettings, error) {
	var payload struct {
		UserTokenSecret string `json:"userTokenSecret"`
		Security        *struct {
			AutoLogout              bool `json:"autoLogout"`
			AutoLogoutPeriodMinutes int  `json:"autoLogoutPeriodMinutes"`
		} `json:"security"`
	}
	if err := c.getJSON(ctx, "/v1/accounts/"+url.PathEscape(accountID)+"/settings", &payload); err != nil {
		return nil, err
	}
	out := &domain.AccountSettings{UserTokenSecret: payload.UserTokenSecret}
	if payload.Security != nil {
		out.Security = &domain.SecuritySettings{
			AutoLogout:       payload.Security.AutoLogout,
			AutoLogoutPeriod: time.Duration(payload.Security.AutoLogoutPeriodMinutes) * time.Minute,
		}
	}
	return out, nil
}

// AuthorizationHTTPClient implementa domain.AuthorizationClient.
type AuthorizationHTTPClient struct {
	baseClient
}

func NewAuthorizationClient(baseURL string) *AuthorizationHTTPClient {
	return &AuthorizationHTTPClient{newBaseClient(baseURL)}
}

func (c *AuthorizationHTTPClient) CanAccessBackend(ctx context.Context, userID string) (bool, error) {
	var payload struct {
		Allowed bool `json:"allowed"`
	}
	err := c.getJSON(ctx, "/v1/authorization/backend/"+url.PathEscape(userID), &payload)
	if domain.IsNotFound(err) {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	return payload.Allowed, nil
}

// DirectoryClient implementa domain.DirectoryIdentityResolver contra el
// user service (mapping nameID externo -> userId).
type DirectoryClient struct {
	baseClient
}

func NewDirectoryClient(baseURL string) *DirectoryClient {
	return &DirectoryClient{newBaseClient(baseURL)}
}

func (c *DirectoryClient) ResolveUserID(ctx context.Context, nameID string) (string, error) {
	var payload struct {
		UserID string `json:"userId"`
	}
	err := c.getJSON(ctx, "/v1/directory/identities/"+url.PathEscape(nameID), &payload)
	if domain.IsNotFound(err) {
		return "", nil
	}
	if err != nil {
		return "", err
	}
	return payload.UserID, nil
}
