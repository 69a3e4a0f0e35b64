package ssosdk

// ErrorResponse is the JSON error body, used by the client for unmarshaling.
// Server code should use the Error type from errors.go instead.
type ErrorResponse struct {
	Error            string `json:"error"`
	ErrorDescription string `json:"error_description"`
}

// Subject is the redacted account projection the service shares with
// consumers. It never carries credentials.
type Subject struct {
	ID         string `json:"id"`
	Username   string `json:"username"`
	GivenName  string `json:"given_name"`
	FamilyName string `json:"family_name"`
	Role       string `json:"role"`
}

// LoginResponse is returned from POST /v1/sso/login. RedirectTo is the
// consumer's callback URL with the code and state attached; the login page
// sends the browser there.
type LoginResponse struct {
	SessionToken string  `json:"session_token"`
	Subject      Subject `json:"subject"`
	RedirectTo   string  `json:"redirect_to"`
}

// TokenResponse is returned from POST /v1/sso/token.
type TokenResponse struct {
	AccessToken string `json:"access_token"`

	// RefreshToken is opaque and currently not redeemable; token refresh is
	// not part of the handshake.
	RefreshToken string `json:"refresh_token,omitempty"`

	// TokenType is always "Bearer"
	TokenType string `json:"token_type"`

	// ExpiresIn is the lifetime in seconds of the access token
	ExpiresIn int64 `json:"expires_in"`

	Subject Subject `json:"subject"`
}

// SessionResponse is returned from GET /v1/sso/session.
type SessionResponse struct {
	SubjectID   string   `json:"subject_id"`
	Role        string   `json:"role"`
	Permissions []string `json:"permissions"`
	ExpiresAt   string   `json:"expires_at"`
	Subject     Subject  `json:"subject"`
}

// BootstrapRequest seeds the first account on an empty deployment.
type BootstrapRequest struct {
	Token      string `json:"token,omitempty"`
	Username   string `json:"username"`
	Password   string `json:"password"`
	GivenName  string `json:"given_name"`
	FamilyName string `json:"family_name"`
}

// BootstrapResponse is returned from POST /v1/bootstrap.
type BootstrapResponse struct {
	Subject Subject `json:"subject"`
}

// HealthResponse is returned from /livez and /readyz.
type HealthResponse struct {
	Status  string        `json:"status"`
	Uptime  string        `json:"uptime"`
	Version string        `json:"version"`
	Checks  *HealthChecks `json:"checks,omitempty"`
}

// HealthChecks carries the per-dependency readiness detail.
type HealthChecks struct {
	Database string `json:"database"`
	Signer   string `json:"signer"`
}
