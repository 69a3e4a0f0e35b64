package ssosdk

import (
	"encoding/json"
	"fmt"
	"net/http"

	"github.com/tutorhub/sso/pkg/httpx"
)

// Error codes shared between the service and its consumers.
const (
	ErrorCodeInvalidRequest          = "invalid_request"
	ErrorCodeInvalidCode             = "invalid_code"
	ErrorCodeCodeExpired             = "code_expired"
	ErrorCodeCodeNotAuthenticated    = "code_not_yet_authenticated"
	ErrorCodeInvalidCredentials      = "invalid_credentials"
	ErrorCodeInsufficientPermissions = "insufficient_permissions"
	ErrorCodeInvalidSession          = "invalid_session"
	ErrorCodeSubjectNotFound         = "subject_not_found"
	ErrorCodeAlreadyBootstrapped     = "already_bootstrapped"
	ErrorCodeUnauthorized            = "unauthorized"
	ErrorCodeServerError             = "server_error"
)

// Error is the wire error shape, styled after the RFC 6749 error body. It is
// used by the server to write responses and by the client to surface them.
type Error struct {
	// StatusCode is the HTTP status code for this error
	StatusCode int `json:"-"`

	// Code is the machine-readable error code
	Code string `json:"error"`

	// Description is a human-readable description of the error
	Description string `json:"error_description"`
}

func (e *Error) Error() string {
	return fmt.Sprintf("%s: %s", e.Code, e.Description)
}

// WriteError writes this Error to an HTTP response writer.
func (e *Error) WriteError(w http.ResponseWriter) {
	httpx.NoCache(w)
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(e.StatusCode)
	_ = json.NewEncoder(w).Encode(map[string]string{
		"error":             e.Code,
		"error_description": e.Description,
	})
}

var (
	ErrInvalidRequest = &Error{
		StatusCode:  http.StatusBadRequest,
		Code:        ErrorCodeInvalidRequest,
		Description: "the request is malformed or missing required parameters",
	}

	ErrInvalidContentType = &Error{
		StatusCode:  http.StatusBadRequest,
		Code:        ErrorCodeInvalidRequest,
		Description: "content-type must be application/x-www-form-urlencoded",
	}

	ErrInvalidFormBody = &Error{
		StatusCode:  http.StatusBadRequest,
		Code:        ErrorCodeInvalidRequest,
		Description: "request body could not be parsed as a form",
	}

	ErrInvalidCode = &Error{
		StatusCode:  http.StatusBadRequest,
		Code:        ErrorCodeInvalidCode,
		Description: "authorization code is unknown or already used",
	}

	ErrCodeExpired = &Error{
		StatusCode:  http.StatusBadRequest,
		Code:        ErrorCodeCodeExpired,
		Description: "authorization code has expired",
	}

	ErrCodeNotAuthenticated = &Error{
		StatusCode:  http.StatusConflict,
		Code:        ErrorCodeCodeNotAuthenticated,
		Description: "authorization code has not completed the login step",
	}

	ErrInvalidCredentials = &Error{
		StatusCode:  http.StatusUnauthorized,
		Code:        ErrorCodeInvalidCredentials,
		Description: "invalid credentials",
	}

	ErrInsufficientPermissions = &Error{
		StatusCode:  http.StatusForbidden,
		Code:        ErrorCodeInsufficientPermissions,
		Description: "account role is not allowed to sign in here",
	}

	ErrInvalidSession = &Error{
		StatusCode:  http.StatusUnauthorized,
		Code:        ErrorCodeInvalidSession,
		Description: "session is unknown or expired",
	}

	ErrSubjectNotFound = &Error{
		StatusCode:  http.StatusNotFound,
		Code:        ErrorCodeSubjectNotFound,
		Description: "the account behind this session no longer exists",
	}

	ErrAlreadyBootstrapped = &Error{
		StatusCode:  http.StatusConflict,
		Code:        ErrorCodeAlreadyBootstrapped,
		Description: "the system already has accounts",
	}

	ErrUnauthorizedBootstrap = &Error{
		StatusCode:  http.StatusUnauthorized,
		Code:        ErrorCodeUnauthorized,
		Description: "bootstrap token is missing or wrong",
	}

	ErrServerError = &Error{
		StatusCode:  http.StatusInternalServerError,
		Code:        ErrorCodeServerError,
		Description: "internal server error",
	}
)
