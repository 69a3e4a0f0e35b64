package http

import (
	"context"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/tutorhub/sso/internal/sso/domain"
	"github.com/tutorhub/sso/pkg/ssosdk"
)

// The end-to-end tests run the full handshake through the SDK client against
// an in-process server, the same way a consumer service would use it.

func newE2EServer(t *testing.T) (*ssosdk.Client, *routerFixture) {
	t.Helper()

	f := newRouterFixture(t)
	srv := httptest.NewServer(f.router)
	t.Cleanup(srv.Close)

	return ssosdk.NewClient(srv.URL), f
}

func TestE2EFullHandshake(t *testing.T) {
	ctx := context.Background()
	client, f := newE2EServer(t)
	f.seedUser(t, "sv012345", "correct-horse", domain.RoleStudent)

	loginURL, code, err := client.BeginAuthorization(ctx, "https://app.tutorhub.test/cb", "xyz")
	require.NoError(t, err)
	require.Contains(t, loginURL, "code=")
	require.NotEmpty(t, code)

	login, err := client.Login(ctx, code, "sv012345", "correct-horse")
	require.NoError(t, err)
	require.NotEmpty(t, login.SessionToken)
	require.Equal(t, "sv012345", login.Subject.Username)
	require.Contains(t, login.RedirectTo, "https://app.tutorhub.test/cb?code=")
	require.Contains(t, login.RedirectTo, "state=xyz")

	token, err := client.ExchangeCode(ctx, code, "https://app.tutorhub.test/cb")
	require.NoError(t, err)
	require.Equal(t, "Bearer", token.TokenType)
	require.NotEmpty(t, token.AccessToken)
	require.NotEmpty(t, token.RefreshToken)
	require.Equal(t, login.Subject.ID, token.Subject.ID)

	// the exchanged token verifies against the published JWKS
	jwks, err := client.JWKS(ctx)
	require.NoError(t, err)
	require.NotEmpty(t, jwks.Keys)

	sess, err := client.ValidateSession(ctx, login.SessionToken)
	require.NoError(t, err)
	require.Equal(t, domain.RoleStudent, sess.Role)
	require.Contains(t, sess.Permissions, "view:tutors")
	require.Equal(t, login.Subject.ID, sess.SubjectID)

	// a second exchange of the same code fails
	_, err = client.ExchangeCode(ctx, code, "")
	var sdkErr *ssosdk.Error
	require.ErrorAs(t, err, &sdkErr)
	require.Equal(t, ssosdk.ErrorCodeInvalidCode, sdkErr.Code)

	// logout twice, both succeed
	require.NoError(t, client.Logout(ctx, login.SessionToken))
	require.NoError(t, client.Logout(ctx, login.SessionToken))

	_, err = client.ValidateSession(ctx, login.SessionToken)
	require.ErrorAs(t, err, &sdkErr)
	require.Equal(t, ssosdk.ErrorCodeInvalidSession, sdkErr.Code)
}

func TestE2EOrderingViolation(t *testing.T) {
	ctx := context.Background()
	client, _ := newE2EServer(t)

	_, code, err := client.BeginAuthorization(ctx, "https://app.tutorhub.test/cb", "")
	require.NoError(t, err)

	_, err = client.ExchangeCode(ctx, code, "")
	var sdkErr *ssosdk.Error
	require.ErrorAs(t, err, &sdkErr)
	require.Equal(t, ssosdk.ErrorCodeCodeNotAuthenticated, sdkErr.Code)
}

func TestE2EBootstrapThenLogin(t *testing.T) {
	ctx := context.Background()
	client, _ := newE2EServer(t)

	boot, err := client.Bootstrap(ctx, ssosdk.BootstrapRequest{
		Token:      "boot-token",
		Username:   "ctsv.admin",
		Password:   "long-enough-pass",
		GivenName:  "Chi",
		FamilyName: "Pham",
	})
	require.NoError(t, err)
	require.Equal(t, domain.RoleCTSV, boot.Subject.Role)

	_, code, err := client.BeginAuthorization(ctx, "https://app.tutorhub.test/cb", "")
	require.NoError(t, err)

	login, err := client.Login(ctx, code, "ctsv.admin", "long-enough-pass")
	require.NoError(t, err)

	sess, err := client.ValidateSession(ctx, login.SessionToken)
	require.NoError(t, err)
	require.Contains(t, sess.Permissions, domain.PermViewAll)
}

func TestE2ETokenProtectedEndpoints(t *testing.T) {
	ctx := context.Background()
	client, f := newE2EServer(t)
	f.seedUser(t, "sv012345", "correct-horse", domain.RoleStudent)
	f.seedUser(t, "ctsv001", "correct-horse", domain.RoleCTSV)

	mintToken := func(username string) *ssosdk.TokenResponse {
		_, code, err := client.BeginAuthorization(ctx, "https://app.tutorhub.test/cb", "")
		require.NoError(t, err)
		_, err = client.Login(ctx, code, username, "correct-horse")
		require.NoError(t, err)
		token, err := client.ExchangeCode(ctx, code, "")
		require.NoError(t, err)
		return token
	}

	student := mintToken("sv012345")
	ctsv := mintToken("ctsv001")

	t.Run("userinfo resolves the token's subject", func(t *testing.T) {
		info, err := client.UserInfo(ctx, student.AccessToken)
		require.NoError(t, err)
		require.Equal(t, "sv012345", info.Username)
	})

	t.Run("userinfo rejects garbage tokens", func(t *testing.T) {
		_, err := client.UserInfo(ctx, "not-a-jwt")
		require.Error(t, err)
	})

	t.Run("subject lookup needs view:all", func(t *testing.T) {
		_, err := client.GetSubject(ctx, student.AccessToken, ctsv.Subject.ID)
		require.Error(t, err)

		got, err := client.GetSubject(ctx, ctsv.AccessToken, student.Subject.ID)
		require.NoError(t, err)
		require.Equal(t, "sv012345", got.Username)
	})
}

func TestE2EReadyz(t *testing.T) {
	ctx := context.Background()
	client, _ := newE2EServer(t)
	require.NoError(t, client.Readyz(ctx))
}

func TestE2ELoginRateLimit(t *testing.T) {
	ctx := context.Background()
	client, f := newE2EServer(t)
	f.seedUser(t, "sv1", "long-enough-pass", domain.RoleStudent)

	// hammer the login endpoint with bad passwords for one username until
	// the strict limiter steps in
	_, code, err := client.BeginAuthorization(ctx, "https://app.tutorhub.test/cb", "")
	require.NoError(t, err)

	limited := false
	for i := 0; i < 20; i++ {
		_, err := client.Login(ctx, code, "sv1", "wrong-password")
		require.Error(t, err)

		var sdkErr *ssosdk.Error
		require.ErrorAs(t, err, &sdkErr)
		if sdkErr.StatusCode == 429 {
			limited = true
			break
		}
		require.Equal(t, ssosdk.ErrorCodeInvalidCredentials, sdkErr.Code)
	}
	require.True(t, limited, "expected the limiter to kick in within 20 attempts")
}
