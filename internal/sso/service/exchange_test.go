package service

import (
	"context"
	"net/url"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/tutorhub/sso/internal/sso/domain"
	"github.com/tutorhub/sso/internal/sso/store/drivers/memory"
	"github.com/tutorhub/sso/internal/sso/store/drivers/sqlite"
	"github.com/tutorhub/sso/pkg/jwtx"
)

// fakeClock is an advanceable clock shared by a test's service and sweeper.
type fakeClock struct {
	mu  sync.Mutex
	now time.Time
}

func newFakeClock(start time.Time) *fakeClock {
	return &fakeClock{now: start}
}

func (c *fakeClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *fakeClock) Advance(d time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.now = c.now.Add(d)
}

type exchangeFixture struct {
	svc   *ExchangeService
	users *UserService
	state *memory.StateStore
	clock *fakeClock
	keys  *jwtx.KeyManager
}

func newExchangeFixture(t *testing.T) *exchangeFixture {
	t.Helper()

	db, err := sqlite.NewStore(":memory:")
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })
	require.NoError(t, db.ApplyMigrations())

	clock := newFakeClock(time.Date(2026, 3, 1, 9, 0, 0, 0, time.UTC))

	keys, err := jwtx.NewEphemeralKeyManager(jwtx.KeyManagerOptions{
		Issuer:   "https://sso.tutorhub.test",
		NumKeys:  1,
		TimeFunc: clock.Now,
	})
	require.NoError(t, err)

	state := memory.New()

	svc := NewExchangeService(db.Users(), state, keys,
		"https://sso.tutorhub.test", "https://sso.tutorhub.test/login")
	svc.Clock = clock

	return &exchangeFixture{
		svc:   svc,
		users: &UserService{Users: db.Users(), Clock: clock},
		state: state,
		clock: clock,
		keys:  keys,
	}
}

func (f *exchangeFixture) seedUser(t *testing.T, username, password, role string) domain.User {
	t.Helper()

	u, err := f.users.CreateUser(context.Background(), CreateUserRequest{
		Username:   username,
		Password:   password,
		GivenName:  "Binh",
		FamilyName: "Tran",
		Role:       role,
	})
	require.NoError(t, err)
	return u
}

func TestBeginAuthorization(t *testing.T) {
	ctx := context.Background()
	f := newExchangeFixture(t)

	authURL, code, err := f.svc.BeginAuthorization(ctx, "https://app.tutorhub.test/auth/callback", "xyz")
	require.NoError(t, err)
	require.NotEmpty(t, code)

	u, err := url.Parse(authURL)
	require.NoError(t, err)
	require.Equal(t, "/login", u.Path)
	require.Equal(t, code, u.Query().Get("code"))
	require.Equal(t, "xyz", u.Query().Get("state"))

	// codes are unique per call
	_, code2, err := f.svc.BeginAuthorization(ctx, "https://app.tutorhub.test/auth/callback", "xyz")
	require.NoError(t, err)
	require.NotEqual(t, code, code2)
}

func TestAuthenticateHappyPath(t *testing.T) {
	ctx := context.Background()
	f := newExchangeFixture(t)
	f.seedUser(t, "sv012345", "correct-horse", domain.RoleStudent)

	_, code, err := f.svc.BeginAuthorization(ctx, "https://app.tutorhub.test/auth/callback", "")
	require.NoError(t, err)

	token, subject, err := f.svc.Authenticate(ctx, code, "sv012345", "correct-horse")
	require.NoError(t, err)
	require.NotEmpty(t, token)
	require.Equal(t, "sv012345", subject.Username)
	require.Equal(t, domain.RoleStudent, subject.Role)

	sess, err := f.svc.ValidateSession(ctx, token)
	require.NoError(t, err)
	require.NotNil(t, sess)
	require.Equal(t, subject.ID, sess.SubjectID)
	require.Contains(t, sess.Permissions, "book:sessions")
}

func TestAuthenticateErrors(t *testing.T) {
	ctx := context.Background()
	f := newExchangeFixture(t)
	f.seedUser(t, "sv012345", "correct-horse", domain.RoleStudent)

	t.Run("unknown code", func(t *testing.T) {
		_, _, err := f.svc.Authenticate(ctx, "nope", "sv012345", "correct-horse")
		require.ErrorIs(t, err, ErrInvalidCode)
	})

	t.Run("wrong password and unknown user are the same error", func(t *testing.T) {
		_, code, err := f.svc.BeginAuthorization(ctx, "https://app.tutorhub.test/auth/callback", "")
		require.NoError(t, err)

		_, _, err = f.svc.Authenticate(ctx, code, "sv012345", "wrong")
		require.ErrorIs(t, err, ErrInvalidCredentials)

		_, _, err = f.svc.Authenticate(ctx, code, "nobody", "wrong")
		require.ErrorIs(t, err, ErrInvalidCredentials)
	})

	t.Run("expired code is deleted on first sight", func(t *testing.T) {
		_, code, err := f.svc.BeginAuthorization(ctx, "https://app.tutorhub.test/auth/callback", "")
		require.NoError(t, err)

		f.clock.Advance(10*time.Minute + time.Second)

		_, _, err = f.svc.Authenticate(ctx, code, "sv012345", "correct-horse")
		require.ErrorIs(t, err, ErrCodeExpired)

		// second attempt sees an unknown code
		_, _, err = f.svc.Authenticate(ctx, code, "sv012345", "correct-horse")
		require.ErrorIs(t, err, ErrInvalidCode)
	})

	t.Run("re-authenticating an authenticated code is rejected", func(t *testing.T) {
		_, code, err := f.svc.BeginAuthorization(ctx, "https://app.tutorhub.test/auth/callback", "")
		require.NoError(t, err)

		_, _, err = f.svc.Authenticate(ctx, code, "sv012345", "correct-horse")
		require.NoError(t, err)

		_, _, err = f.svc.Authenticate(ctx, code, "sv012345", "correct-horse")
		require.ErrorIs(t, err, ErrInvalidCode)
	})
}

func TestAuthenticateCodeStaysAtTTLBoundary(t *testing.T) {
	ctx := context.Background()
	f := newExchangeFixture(t)
	f.seedUser(t, "sv012345", "correct-horse", domain.RoleStudent)

	_, code, err := f.svc.BeginAuthorization(ctx, "https://app.tutorhub.test/auth/callback", "")
	require.NoError(t, err)

	// exactly at the expiry instant the code is still usable
	f.clock.Advance(10 * time.Minute)
	_, _, err = f.svc.Authenticate(ctx, code, "sv012345", "correct-horse")
	require.NoError(t, err)
}

func TestExchangeCodeForToken(t *testing.T) {
	ctx := context.Background()
	f := newExchangeFixture(t)
	user := f.seedUser(t, "gv067890", "correct-horse", domain.RoleTutor)

	_, code, err := f.svc.BeginAuthorization(ctx, "https://app.tutorhub.test/auth/callback", "")
	require.NoError(t, err)

	t.Run("before authentication", func(t *testing.T) {
		_, err := f.svc.ExchangeCodeForToken(ctx, code)
		require.ErrorIs(t, err, ErrCodeNotAuthenticated)
	})

	sessionToken, _, err := f.svc.Authenticate(ctx, code, "gv067890", "correct-horse")
	require.NoError(t, err)

	bundle, err := f.svc.ExchangeCodeForToken(ctx, code)
	require.NoError(t, err)
	require.Equal(t, "Bearer", bundle.TokenType)
	require.Equal(t, int64(7*24*3600), bundle.ExpiresIn)
	require.NotEmpty(t, bundle.RefreshToken)
	require.Equal(t, user.ID, bundle.Subject.ID)

	t.Run("access token claims", func(t *testing.T) {
		claims, err := f.keys.Verifier.Verify(bundle.AccessToken)
		require.NoError(t, err)
		require.Equal(t, user.ID, claims.Subject)
		require.Equal(t, sessionToken, claims.SID)
		require.Equal(t, domain.RoleTutor, claims.Role)
		require.Contains(t, claims.Permissions, "answer:questions")
		require.Equal(t, "gv067890", claims.Username)
	})

	t.Run("code is single use", func(t *testing.T) {
		_, err := f.svc.ExchangeCodeForToken(ctx, code)
		require.ErrorIs(t, err, ErrInvalidCode)
	})

	t.Run("session survives the exchange", func(t *testing.T) {
		sess, err := f.svc.ValidateSession(ctx, sessionToken)
		require.NoError(t, err)
		require.NotNil(t, sess)
	})
}

func TestExchangeInvalidSession(t *testing.T) {
	ctx := context.Background()
	f := newExchangeFixture(t)
	f.seedUser(t, "sv012345", "correct-horse", domain.RoleStudent)

	_, code, err := f.svc.BeginAuthorization(ctx, "https://app.tutorhub.test/auth/callback", "")
	require.NoError(t, err)

	token, _, err := f.svc.Authenticate(ctx, code, "sv012345", "correct-horse")
	require.NoError(t, err)

	// logout between login and exchange orphans the code
	require.NoError(t, f.svc.Logout(ctx, token))

	_, err = f.svc.ExchangeCodeForToken(ctx, code)
	require.ErrorIs(t, err, ErrInvalidSession)
}

func TestValidateSessionExpiry(t *testing.T) {
	ctx := context.Background()
	f := newExchangeFixture(t)
	f.seedUser(t, "sv012345", "correct-horse", domain.RoleStudent)

	_, code, err := f.svc.BeginAuthorization(ctx, "https://app.tutorhub.test/auth/callback", "")
	require.NoError(t, err)
	token, _, err := f.svc.Authenticate(ctx, code, "sv012345", "correct-horse")
	require.NoError(t, err)

	f.clock.Advance(24*time.Hour + time.Second)

	sess, err := f.svc.ValidateSession(ctx, token)
	require.NoError(t, err)
	require.Nil(t, sess)

	// second lookup behaves identically
	sess, err = f.svc.ValidateSession(ctx, token)
	require.NoError(t, err)
	require.Nil(t, sess)
}

func TestLogoutIsIdempotent(t *testing.T) {
	ctx := context.Background()
	f := newExchangeFixture(t)
	f.seedUser(t, "sv012345", "correct-horse", domain.RoleStudent)

	_, code, err := f.svc.BeginAuthorization(ctx, "https://app.tutorhub.test/auth/callback", "")
	require.NoError(t, err)
	token, _, err := f.svc.Authenticate(ctx, code, "sv012345", "correct-horse")
	require.NoError(t, err)

	require.NoError(t, f.svc.Logout(ctx, token))
	require.NoError(t, f.svc.Logout(ctx, token))
	require.NoError(t, f.svc.Logout(ctx, "never-existed"))
}

func TestCTSVCarriesSentinelPermission(t *testing.T) {
	ctx := context.Background()
	f := newExchangeFixture(t)
	f.seedUser(t, "ctsv001", "correct-horse", domain.RoleCTSV)

	_, code, err := f.svc.BeginAuthorization(ctx, "https://app.tutorhub.test/auth/callback", "")
	require.NoError(t, err)
	token, _, err := f.svc.Authenticate(ctx, code, "ctsv001", "correct-horse")
	require.NoError(t, err)

	sess, err := f.svc.ValidateSession(ctx, token)
	require.NoError(t, err)
	require.NotNil(t, sess)
	require.Contains(t, sess.Permissions, domain.PermViewAll)

	// the sentinel grants permissions the role does not list directly
	require.True(t, domain.HasPermission(sess.Permissions, "manage:courses"))
}
