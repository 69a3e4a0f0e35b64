// Package ssosdk is the Go SDK for the tutor-support SSO service. It carries
// the wire types shared with the server plus a small HTTP client that covers
// the whole handshake, which the end-to-end tests drive the service with.
package ssosdk

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/tutorhub/sso/pkg/jwtx"
)

// Client talks to a single SSO deployment.
type Client struct {
	BaseURL    string
	HTTPClient *http.Client
}

// NewClient creates a client that never follows redirects; the authorize
// endpoint answers with one and the caller wants the Location, not the page
// behind it.
func NewClient(baseURL string) *Client {
	return &Client{
		BaseURL: strings.TrimSuffix(baseURL, "/"),
		HTTPClient: &http.Client{
			Timeout: 10 * time.Second,
			CheckRedirect: func(*http.Request, []*http.Request) error {
				return http.ErrUseLastResponse
			},
		},
	}
}

// BeginAuthorization starts a flow and returns the login page URL from the
// redirect plus the freshly issued code embedded in it.
func (c *Client) BeginAuthorization(ctx context.Context, redirectURI, state string) (string, string, error) {
	q := url.Values{}
	if redirectURI != "" {
		q.Set("redirect_uri", redirectURI)
	}
	if state != "" {
		q.Set("state", state)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet,
		c.BaseURL+"/v1/sso/authorize?"+q.Encode(), nil)
	if err != nil {
		return "", "", err
	}

	resp, err := c.HTTPClient.Do(req)
	if err != nil {
		return "", "", err
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode != http.StatusFound {
		return "", "", decodeError(resp)
	}

	loginURL := resp.Header.Get("Location")
	parsed, err := url.Parse(loginURL)
	if err != nil {
		return "", "", fmt.Errorf("ssosdk: bad redirect location: %w", err)
	}
	return loginURL, parsed.Query().Get("code"), nil
}

// Login completes the credential step against a pending code.
func (c *Client) Login(ctx context.Context, code, username, password string) (*LoginResponse, error) {
	form := url.Values{
		"code":     {code},
		"username": {username},
		"password": {password},
	}

	var out LoginResponse
	if err := c.postForm(ctx, "/v1/sso/login", form, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// ExchangeCode trades an authenticated code for tokens.
func (c *Client) ExchangeCode(ctx context.Context, code, redirectURI string) (*TokenResponse, error) {
	form := url.Values{"code": {code}}
	if redirectURI != "" {
		form.Set("redirect_uri", redirectURI)
	}

	var out TokenResponse
	if err := c.postForm(ctx, "/v1/sso/token", form, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// ValidateSession looks up the session behind a token.
func (c *Client) ValidateSession(ctx context.Context, sessionToken string) (*SessionResponse, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.BaseURL+"/v1/sso/session", nil)
	if err != nil {
		return nil, err
	}
	req.Header.Set("Authorization", "Bearer "+sessionToken)

	resp, err := c.HTTPClient.Do(req)
	if err != nil {
		return nil, err
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode != http.StatusOK {
		return nil, decodeError(resp)
	}

	var out SessionResponse
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		return nil, err
	}
	return &out, nil
}

// Logout ends the session. Logging out an unknown token still succeeds.
func (c *Client) Logout(ctx context.Context, sessionToken string) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.BaseURL+"/v1/sso/logout", nil)
	if err != nil {
		return err
	}
	req.Header.Set("Authorization", "Bearer "+sessionToken)

	resp, err := c.HTTPClient.Do(req)
	if err != nil {
		return err
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode != http.StatusNoContent {
		return decodeError(resp)
	}
	return nil
}

// UserInfo resolves the account behind an access token.
func (c *Client) UserInfo(ctx context.Context, accessToken string) (*Subject, error) {
	return c.getSubject(ctx, "/v1/userinfo", accessToken)
}

// GetSubject looks up any account by id. Requires an access token carrying
// the view:all permission.
func (c *Client) GetSubject(ctx context.Context, accessToken, subjectID string) (*Subject, error) {
	return c.getSubject(ctx, "/v1/subjects/"+url.PathEscape(subjectID), accessToken)
}

func (c *Client) getSubject(ctx context.Context, path, accessToken string) (*Subject, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.BaseURL+path, nil)
	if err != nil {
		return nil, err
	}
	req.Header.Set("Authorization", "Bearer "+accessToken)

	resp, err := c.HTTPClient.Do(req)
	if err != nil {
		return nil, err
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode != http.StatusOK {
		return nil, decodeError(resp)
	}

	var out Subject
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		return nil, err
	}
	return &out, nil
}

// Bootstrap seeds the first account.
func (c *Client) Bootstrap(ctx context.Context, breq BootstrapRequest) (*BootstrapResponse, error) {
	body, err := json.Marshal(breq)
	if err != nil {
		return nil, err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost,
		c.BaseURL+"/v1/bootstrap", strings.NewReader(string(body)))
	if err != nil {
		return nil, err
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.HTTPClient.Do(req)
	if err != nil {
		return nil, err
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode != http.StatusCreated {
		return nil, decodeError(resp)
	}

	var out BootstrapResponse
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		return nil, err
	}
	return &out, nil
}

// JWKS fetches the service's public signing keys.
func (c *Client) JWKS(ctx context.Context) (*jwtx.JWKS, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet,
		c.BaseURL+"/.well-known/jwks.json", nil)
	if err != nil {
		return nil, err
	}

	resp, err := c.HTTPClient.Do(req)
	if err != nil {
		return nil, err
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode != http.StatusOK {
		return nil, decodeError(resp)
	}

	var out jwtx.JWKS
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		return nil, err
	}
	return &out, nil
}

// Readyz reports whether the service is ready to take traffic.
func (c *Client) Readyz(ctx context.Context) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.BaseURL+"/readyz", nil)
	if err != nil {
		return err
	}

	resp, err := c.HTTPClient.Do(req)
	if err != nil {
		return err
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("ssosdk: not ready (status %d)", resp.StatusCode)
	}
	return nil
}

func (c *Client) postForm(ctx context.Context, path string, form url.Values, out any) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodPost,
		c.BaseURL+path, strings.NewReader(form.Encode()))
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")

	resp, err := c.HTTPClient.Do(req)
	if err != nil {
		return err
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode != http.StatusOK {
		return decodeError(resp)
	}
	return json.NewDecoder(resp.Body).Decode(out)
}

func decodeError(resp *http.Response) error {
	body, err := io.ReadAll(io.LimitReader(resp.Body, 4096))
	if err != nil {
		return fmt.Errorf("ssosdk: status %d", resp.StatusCode)
	}

	var er ErrorResponse
	if err := json.Unmarshal(body, &er); err != nil || er.Error == "" {
		return fmt.Errorf("ssosdk: status %d: %s", resp.StatusCode, strings.TrimSpace(string(body)))
	}

	return &Error{
		StatusCode:  resp.StatusCode,
		Code:        er.Error,
		Description: er.ErrorDescription,
	}
}
