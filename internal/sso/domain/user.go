package domain

import "time"

// User is a platform account as persisted in the user store.
type User struct {
	ID           string
	Username     string
	GivenName    string
	FamilyName   string
	PasswordHash string // argon2id encoded
	Role         string
	CreatedAt    time.Time
	UpdatedAt    time.Time
}

// SubjectSummary is the redacted projection of a User returned across the
// SSO boundary. It never carries the password hash.
type SubjectSummary struct {
	ID         string `json:"id"`
	Username   string `json:"username"`
	GivenName  string `json:"given_name"`
	FamilyName string `json:"family_name"`
	Role       string `json:"role"`
}

// Summary returns the redacted projection of u.
func (u User) Summary() SubjectSummary {
	return SubjectSummary{
		ID:         u.ID,
		Username:   u.Username,
		GivenName:  u.GivenName,
		FamilyName: u.FamilyName,
		Role:       u.Role,
	}
}
