package domain

import "time"

// Session identifies a validated end-user sign-in. The token is opaque and
// distinct from the bearer access token minted at code-exchange time.
type Session struct {
	Token       string
	SubjectID   string
	Role        string
	Permissions []string

	CreatedAt time.Time
	ExpiresAt time.Time
}

// NewSession builds a session for subject with the permission set derived
// from role.
func NewSession(token, subjectID, role string, now time.Time, ttl time.Duration) Session {
	return Session{
		Token:       token,
		SubjectID:   subjectID,
		Role:        role,
		Permissions: PermissionsForRole(role),
		CreatedAt:   now,
		ExpiresAt:   now.Add(ttl),
	}
}

// Expired reports whether the session is past its window (strictly after).
func (s Session) Expired(now time.Time) bool {
	return now.After(s.ExpiresAt)
}
