package service

import "errors"

var (
	// ErrInvalidCode covers unknown codes and codes presented for a step
	// their stage does not permit a second time.
	ErrInvalidCode = errors.New("invalid_code")

	// ErrCodeExpired is returned once per expired code; the record is
	// deleted on first sight.
	ErrCodeExpired = errors.New("code_expired")

	// ErrInvalidCredentials is shared between unknown identifiers and wrong
	// passwords so callers cannot enumerate accounts.
	ErrInvalidCredentials = errors.New("invalid_credentials")

	// ErrInsufficientPermissions means the account's role is outside the
	// platform's allow-list.
	ErrInsufficientPermissions = errors.New("insufficient_permissions")

	// ErrCodeNotAuthenticated means the token exchange was attempted before
	// the login step completed.
	ErrCodeNotAuthenticated = errors.New("code_not_yet_authenticated")

	// ErrInvalidSession means the session referenced by an authenticated
	// code no longer exists.
	ErrInvalidSession = errors.New("invalid_session")

	// ErrSubjectNotFound means the account behind a live session has gone
	// away.
	ErrSubjectNotFound = errors.New("subject_not_found")
)
