package store

import (
	"context"
	"errors"
	"time"

	"github.com/tutorhub/sso/internal/sso/domain"
)

var (
	ErrNotFound      = errors.New("store: not found")
	ErrAlreadyExists = errors.New("store: already exists")
)

// Store is the persistent data access interface for platform accounts.
// Concrete drivers (sqlite today) implement this. Sub-repositories keep the
// surface tidy and let callers depend on the narrow slice they need.
type Store interface {
	Users() Users

	ApplyMigrations() error

	// Close releases any underlying resources.
	Close() error

	// Ping verifies the database connection is still alive.
	Ping(ctx context.Context) error
}

type Users interface {
	// GetUserByID returns a user by id.
	GetUserByID(ctx context.Context, id string) (domain.User, error)

	// GetUserByUsername is used during credential verification.
	GetUserByUsername(ctx context.Context, username string) (domain.User, error)

	// CreateUser inserts a new user (id is provided by the app via ULID).
	CreateUser(ctx context.Context, u domain.User) error

	// IsEmpty returns true if there are no users (bootstrap gate).
	IsEmpty(ctx context.Context) (bool, error)
}

// StateStore holds the two time-bounded collections of the authorization
// exchange: pending authorizations keyed by code and sessions keyed by token.
// Keys are unguessable and unique per flow, so entries are never contended
// across flows, but implementations must be safe for the background sweep to
// interleave with request-driven access.
type StateStore interface {
	PendingAuthorizations() PendingAuthorizations
	Sessions() Sessions
}

type PendingAuthorizations interface {
	// Create stores a freshly issued pending authorization.
	Create(ctx context.Context, auth domain.PendingAuthorization) error

	// Get fetches a pending authorization by its code.
	Get(ctx context.Context, code string) (domain.PendingAuthorization, error)

	// Update replaces the stored record after a stage transition.
	Update(ctx context.Context, auth domain.PendingAuthorization) error

	// Delete removes a record. Missing records are a no-op.
	Delete(ctx context.Context, code string) error

	// DeleteExpired removes every record with now strictly past its expiry
	// and reports how many were removed.
	DeleteExpired(ctx context.Context, now time.Time) (int, error)
}

type Sessions interface {
	// Create stores a new session.
	Create(ctx context.Context, s domain.Session) error

	// Get fetches a session by its token.
	Get(ctx context.Context, token string) (domain.Session, error)

	// Delete removes a session. Missing sessions are a no-op.
	Delete(ctx context.Context, token string) error

	// DeleteExpired removes every session with now strictly past its expiry
	// and reports how many were removed.
	DeleteExpired(ctx context.Context, now time.Time) (int, error)
}
