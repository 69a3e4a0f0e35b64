package domain

import (
	"errors"
	"time"
)

// AuthorizationStage is the explicit lifecycle stage of a pending
// authorization. The flow's third stage, consumed, is represented by
// deletion, not by a stage value: a consumed code must be unfindable.
type AuthorizationStage int

const (
	// StageIssued means the code has been handed out but nobody has
	// authenticated against it yet.
	StageIssued AuthorizationStage = iota

	// StageAuthenticated means the end user presented valid credentials and a
	// session was bound to the code.
	StageAuthenticated
)

// ErrAlreadyAuthenticated reports a second authentication attempt against a
// code whose session is already bound. The transition is one-shot.
var ErrAlreadyAuthenticated = errors.New("domain: pending authorization already authenticated")

// PendingAuthorization correlates an authorization request with the session
// created once the end user authenticates. RedirectURI and State are caller
// supplied and echoed back unchanged.
type PendingAuthorization struct {
	Code        string
	RedirectURI string
	State       string

	Stage        AuthorizationStage
	SessionToken string // set on the Issued -> Authenticated transition
	SubjectID    string // set alongside SessionToken

	CreatedAt time.Time
	ExpiresAt time.Time
}

// NewPendingAuthorization returns a freshly issued pending authorization.
func NewPendingAuthorization(code, redirectURI, state string, now time.Time, ttl time.Duration) PendingAuthorization {
	return PendingAuthorization{
		Code:        code,
		RedirectURI: redirectURI,
		State:       state,
		Stage:       StageIssued,
		CreatedAt:   now,
		ExpiresAt:   now.Add(ttl),
	}
}

// Authenticate transitions Issued -> Authenticated, binding the session and
// subject. It fails if the transition already happened.
func (p PendingAuthorization) Authenticate(sessionToken, subjectID string) (PendingAuthorization, error) {
	if p.Stage != StageIssued {
		return p, ErrAlreadyAuthenticated
	}

	p.Stage = StageAuthenticated
	p.SessionToken = sessionToken
	p.SubjectID = subjectID
	return p, nil
}

// Expired reports whether the authorization is past its window. The
// comparison is strict: a code checked exactly at ExpiresAt is still valid.
func (p PendingAuthorization) Expired(now time.Time) bool {
	return now.After(p.ExpiresAt)
}
