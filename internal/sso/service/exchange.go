package service

import (
	"context"
	"errors"
	"log/slog"
	"net/url"
	"time"

	"github.com/tutorhub/sso/internal/sso/domain"
	"github.com/tutorhub/sso/internal/sso/store"
	"github.com/tutorhub/sso/pkg/cryptox"
	"github.com/tutorhub/sso/pkg/jwtx"
	"github.com/tutorhub/sso/pkg/slogx"
)

const (
	DefaultCodeTTL    = 10 * time.Minute
	DefaultSessionTTL = 24 * time.Hour
	DefaultAccessTTL  = 7 * 24 * time.Hour
)

// ExchangeService implements the pseudo-SSO handshake: a consumer service
// starts an authorization, the user logs in against it, and the consumer
// trades the resulting code for a signed access token.
type ExchangeService struct {
	Users store.Users
	State store.StateStore
	Keys  *jwtx.KeyManager

	// Issuer goes into the "iss" claim of minted access tokens.
	Issuer string

	// LoginURL is the front-end page the authorize endpoint hands the user
	// over to. The pending code is appended as a query parameter.
	LoginURL string

	CodeTTL    time.Duration
	SessionTTL time.Duration
	AccessTTL  time.Duration

	Clock Clock
}

// NewExchangeService fills in the default TTLs and the system clock for any
// zero-valued option.
func NewExchangeService(users store.Users, state store.StateStore, keys *jwtx.KeyManager, issuer, loginURL string) *ExchangeService {
	return &ExchangeService{
		Users:      users,
		State:      state,
		Keys:       keys,
		Issuer:     issuer,
		LoginURL:   loginURL,
		CodeTTL:    DefaultCodeTTL,
		SessionTTL: DefaultSessionTTL,
		AccessTTL:  DefaultAccessTTL,
		Clock:      SystemClock(),
	}
}

// BeginAuthorization issues a fresh pending authorization and returns the
// login page URL the caller should be redirected to, plus the code itself.
func (s *ExchangeService) BeginAuthorization(ctx context.Context, redirectURI, state string) (string, string, error) {
	l := slogx.FromContext(ctx)

	code, err := cryptox.GenerateToken(cryptox.TokenSize128)
	if err != nil {
		return "", "", err
	}

	auth := domain.NewPendingAuthorization(code, redirectURI, state, s.Clock.Now(), s.CodeTTL)
	if err := s.State.PendingAuthorizations().Create(ctx, auth); err != nil {
		return "", "", err
	}

	authURL, err := url.Parse(s.LoginURL)
	if err != nil {
		return "", "", err
	}
	q := authURL.Query()
	q.Set("code", code)
	if state != "" {
		q.Set("state", state)
	}
	authURL.RawQuery = q.Encode()

	l.Info("authorization started",
		slog.String("redirect_uri", redirectURI),
		slog.Time("expires_at", auth.ExpiresAt),
	)
	return authURL.String(), code, nil
}

// Authenticate verifies the user's credentials against a pending code, opens
// a session, and moves the code to the authenticated stage. The code is not
// consumed here; it survives for the token exchange.
func (s *ExchangeService) Authenticate(ctx context.Context, code, username, password string) (string, domain.SubjectSummary, error) {
	l := slogx.FromContext(ctx)
	now := s.Clock.Now()

	auth, err := s.State.PendingAuthorizations().Get(ctx, code)
	if errors.Is(err, store.ErrNotFound) {
		return "", domain.SubjectSummary{}, ErrInvalidCode
	} else if err != nil {
		return "", domain.SubjectSummary{}, err
	}

	if auth.Expired(now) {
		_ = s.State.PendingAuthorizations().Delete(ctx, code)
		return "", domain.SubjectSummary{}, ErrCodeExpired
	}

	user, err := s.Users.GetUserByUsername(ctx, username)
	if errors.Is(err, store.ErrNotFound) {
		// Same answer as a wrong password so usernames stay unguessable.
		return "", domain.SubjectSummary{}, ErrInvalidCredentials
	} else if err != nil {
		return "", domain.SubjectSummary{}, err
	}

	if err := cryptox.VerifyPassword(password, user.PasswordHash); err != nil {
		if errors.Is(err, cryptox.ErrPasswordMismatch) {
			return "", domain.SubjectSummary{}, ErrInvalidCredentials
		}
		return "", domain.SubjectSummary{}, err
	}

	if !domain.IsAllowedRole(user.Role) {
		l.Warn("login rejected for role outside allow-list",
			slog.String("subject_id", user.ID),
			slog.String("role", user.Role),
		)
		return "", domain.SubjectSummary{}, ErrInsufficientPermissions
	}

	sessionToken, err := cryptox.GenerateToken(cryptox.TokenSize256)
	if err != nil {
		return "", domain.SubjectSummary{}, err
	}

	updated, err := auth.Authenticate(sessionToken, user.ID)
	if errors.Is(err, domain.ErrAlreadyAuthenticated) {
		return "", domain.SubjectSummary{}, ErrInvalidCode
	} else if err != nil {
		return "", domain.SubjectSummary{}, err
	}

	sess := domain.NewSession(sessionToken, user.ID, user.Role, now, s.SessionTTL)
	if err := s.State.Sessions().Create(ctx, sess); err != nil {
		return "", domain.SubjectSummary{}, err
	}
	if err := s.State.PendingAuthorizations().Update(ctx, updated); err != nil {
		_ = s.State.Sessions().Delete(ctx, sessionToken)
		return "", domain.SubjectSummary{}, err
	}

	l.Info("user authenticated",
		slog.String("subject_id", user.ID),
		slog.String("role", user.Role),
	)
	return sessionToken, user.Summary(), nil
}

// CallbackURL builds the consumer's return URL for an authenticated code:
// the flow's redirect URI with the code and original state attached.
func (s *ExchangeService) CallbackURL(ctx context.Context, code string) (string, error) {
	auth, err := s.State.PendingAuthorizations().Get(ctx, code)
	if errors.Is(err, store.ErrNotFound) {
		return "", ErrInvalidCode
	} else if err != nil {
		return "", err
	}
	if auth.Stage != domain.StageAuthenticated {
		return "", ErrCodeNotAuthenticated
	}

	u, err := url.Parse(auth.RedirectURI)
	if err != nil {
		return "", err
	}
	q := u.Query()
	q.Set("code", auth.Code)
	if auth.State != "" {
		q.Set("state", auth.State)
	}
	u.RawQuery = q.Encode()
	return u.String(), nil
}

// ExchangeCodeForToken trades an authenticated code for a signed access token
// and an opaque refresh token. The refresh token is generated and returned but
// never stored; refresh is not part of the handshake. Success consumes the
// pending authorization.
func (s *ExchangeService) ExchangeCodeForToken(ctx context.Context, code string) (domain.TokenBundle, error) {
	l := slogx.FromContext(ctx)
	now := s.Clock.Now()

	auth, err := s.State.PendingAuthorizations().Get(ctx, code)
	if errors.Is(err, store.ErrNotFound) {
		return domain.TokenBundle{}, ErrInvalidCode
	} else if err != nil {
		return domain.TokenBundle{}, err
	}

	if auth.Expired(now) {
		_ = s.State.PendingAuthorizations().Delete(ctx, code)
		return domain.TokenBundle{}, ErrCodeExpired
	}

	if auth.Stage != domain.StageAuthenticated {
		return domain.TokenBundle{}, ErrCodeNotAuthenticated
	}

	sess, err := s.State.Sessions().Get(ctx, auth.SessionToken)
	if errors.Is(err, store.ErrNotFound) {
		return domain.TokenBundle{}, ErrInvalidSession
	} else if err != nil {
		return domain.TokenBundle{}, err
	}
	if sess.Expired(now) {
		_ = s.State.Sessions().Delete(ctx, sess.Token)
		return domain.TokenBundle{}, ErrInvalidSession
	}

	user, err := s.Users.GetUserByID(ctx, sess.SubjectID)
	if errors.Is(err, store.ErrNotFound) {
		return domain.TokenBundle{}, ErrSubjectNotFound
	} else if err != nil {
		return domain.TokenBundle{}, err
	}

	signer := s.Keys.GetSigner()
	claims := jwtx.NewAccessClaims(
		user.ID, sess.Token, sess.Role,
		sess.Permissions,
		s.AccessTTL,
		s.Issuer, user.Username,
		now,
	)
	accessToken, err := signer.Sign(claims)
	if err != nil {
		return domain.TokenBundle{}, err
	}

	refreshToken, err := cryptox.GenerateToken(cryptox.TokenSize256)
	if err != nil {
		return domain.TokenBundle{}, err
	}

	// The only place a pending authorization is removed on purpose.
	if err := s.State.PendingAuthorizations().Delete(ctx, code); err != nil {
		return domain.TokenBundle{}, err
	}

	l.Info("code exchanged for access token",
		slog.String("subject_id", user.ID),
		slog.String("kid", signer.KID()),
	)
	return domain.TokenBundle{
		AccessToken:  accessToken,
		RefreshToken: refreshToken,
		TokenType:    "Bearer",
		ExpiresIn:    int64(s.AccessTTL / time.Second),
		Subject:      user.Summary(),
	}, nil
}

// ValidateSession returns the session behind a token, or nil when the token
// is unknown. Expired sessions are removed on sight and reported as absent.
func (s *ExchangeService) ValidateSession(ctx context.Context, token string) (*domain.Session, error) {
	sess, err := s.State.Sessions().Get(ctx, token)
	if errors.Is(err, store.ErrNotFound) {
		return nil, nil
	} else if err != nil {
		return nil, err
	}

	if sess.Expired(s.Clock.Now()) {
		_ = s.State.Sessions().Delete(ctx, token)
		return nil, nil
	}
	return &sess, nil
}

// Subject resolves the redacted account summary behind a live session.
func (s *ExchangeService) Subject(ctx context.Context, subjectID string) (domain.SubjectSummary, error) {
	user, err := s.Users.GetUserByID(ctx, subjectID)
	if errors.Is(err, store.ErrNotFound) {
		return domain.SubjectSummary{}, ErrSubjectNotFound
	} else if err != nil {
		return domain.SubjectSummary{}, err
	}
	return user.Summary(), nil
}

// Logout removes the session. Unknown tokens are fine; logging out twice is
// the same as logging out once.
func (s *ExchangeService) Logout(ctx context.Context, token string) error {
	return s.State.Sessions().Delete(ctx, token)
}
