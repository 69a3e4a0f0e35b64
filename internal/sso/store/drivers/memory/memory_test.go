package memory

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/tutorhub/sso/internal/sso/domain"
	"github.com/tutorhub/sso/internal/sso/store"
)

func TestPendingAuthorizationsCRUD(t *testing.T) {
	ctx := context.Background()
	s := New()
	repo := s.PendingAuthorizations()

	now := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	auth := domain.NewPendingAuthorization("code-1", "https://app.example/cb", "xyz", now, 10*time.Minute)

	require.NoError(t, repo.Create(ctx, auth))
	require.ErrorIs(t, repo.Create(ctx, auth), store.ErrAlreadyExists)

	got, err := repo.Get(ctx, "code-1")
	require.NoError(t, err)
	require.Equal(t, auth, got)

	updated, err := auth.Authenticate("sess-1", "user-1")
	require.NoError(t, err)
	require.NoError(t, repo.Update(ctx, updated))

	got, err = repo.Get(ctx, "code-1")
	require.NoError(t, err)
	require.Equal(t, domain.StageAuthenticated, got.Stage)
	require.Equal(t, "sess-1", got.SessionToken)

	require.NoError(t, repo.Delete(ctx, "code-1"))
	_, err = repo.Get(ctx, "code-1")
	require.ErrorIs(t, err, store.ErrNotFound)

	// deleting an absent record is fine
	require.NoError(t, repo.Delete(ctx, "code-1"))
}

func TestPendingAuthorizationsUpdateMissing(t *testing.T) {
	ctx := context.Background()
	repo := New().PendingAuthorizations()

	now := time.Now().UTC()
	auth := domain.NewPendingAuthorization("ghost", "https://app.example/cb", "", now, time.Minute)
	require.ErrorIs(t, repo.Update(ctx, auth), store.ErrNotFound)
}

func TestPendingAuthorizationsDeleteExpired(t *testing.T) {
	ctx := context.Background()
	repo := New().PendingAuthorizations()

	now := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	fresh := domain.NewPendingAuthorization("fresh", "https://app.example/cb", "", now, 10*time.Minute)
	stale := domain.NewPendingAuthorization("stale", "https://app.example/cb", "", now.Add(-20*time.Minute), 10*time.Minute)
	edge := domain.NewPendingAuthorization("edge", "https://app.example/cb", "", now.Add(-10*time.Minute), 10*time.Minute)

	require.NoError(t, repo.Create(ctx, fresh))
	require.NoError(t, repo.Create(ctx, stale))
	require.NoError(t, repo.Create(ctx, edge))

	removed, err := repo.DeleteExpired(ctx, now)
	require.NoError(t, err)
	require.Equal(t, 1, removed)

	_, err = repo.Get(ctx, "stale")
	require.ErrorIs(t, err, store.ErrNotFound)

	// a record exactly at its expiry instant survives
	_, err = repo.Get(ctx, "edge")
	require.NoError(t, err)
	_, err = repo.Get(ctx, "fresh")
	require.NoError(t, err)
}

func TestSessionsCRUD(t *testing.T) {
	ctx := context.Background()
	repo := New().Sessions()

	now := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	sess := domain.NewSession("tok-1", "user-1", domain.RoleStudent, now, 24*time.Hour)

	require.NoError(t, repo.Create(ctx, sess))
	require.ErrorIs(t, repo.Create(ctx, sess), store.ErrAlreadyExists)

	got, err := repo.Get(ctx, "tok-1")
	require.NoError(t, err)
	require.Equal(t, sess, got)

	require.NoError(t, repo.Delete(ctx, "tok-1"))
	_, err = repo.Get(ctx, "tok-1")
	require.ErrorIs(t, err, store.ErrNotFound)
	require.NoError(t, repo.Delete(ctx, "tok-1"))
}

func TestSessionsDeleteExpired(t *testing.T) {
	ctx := context.Background()
	repo := New().Sessions()

	now := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	live := domain.NewSession("live", "user-1", domain.RoleTutor, now, 24*time.Hour)
	dead := domain.NewSession("dead", "user-2", domain.RoleChief, now.Add(-48*time.Hour), 24*time.Hour)

	require.NoError(t, repo.Create(ctx, live))
	require.NoError(t, repo.Create(ctx, dead))

	removed, err := repo.DeleteExpired(ctx, now)
	require.NoError(t, err)
	require.Equal(t, 1, removed)

	_, err = repo.Get(ctx, "dead")
	require.ErrorIs(t, err, store.ErrNotFound)
	_, err = repo.Get(ctx, "live")
	require.NoError(t, err)
}
