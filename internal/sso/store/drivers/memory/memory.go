// Package memory provides an in-process StateStore backed by mutex-guarded
// maps. Authorization codes and session tokens are ephemeral and a restart
// invalidating them is acceptable, so nothing here touches disk.
package memory

import (
	"context"
	"sync"
	"time"

	"github.com/tutorhub/sso/internal/sso/domain"
	"github.com/tutorhub/sso/internal/sso/store"
)

type StateStore struct {
	pending  *pendingRepo
	sessions *sessionRepo
}

var _ store.StateStore = (*StateStore)(nil)

func New() *StateStore {
	return &StateStore{
		pending: &pendingRepo{
			byCode: make(map[string]domain.PendingAuthorization),
		},
		sessions: &sessionRepo{
			byToken: make(map[string]domain.Session),
		},
	}
}

func (s *StateStore) PendingAuthorizations() store.PendingAuthorizations {
	return s.pending
}

func (s *StateStore) Sessions() store.Sessions {
	return s.sessions
}

type pendingRepo struct {
	mu     sync.RWMutex
	byCode map[string]domain.PendingAuthorization
}

func (r *pendingRepo) Create(_ context.Context, auth domain.PendingAuthorization) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, ok := r.byCode[auth.Code]; ok {
		return store.ErrAlreadyExists
	}
	r.byCode[auth.Code] = auth
	return nil
}

func (r *pendingRepo) Get(_ context.Context, code string) (domain.PendingAuthorization, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	auth, ok := r.byCode[code]
	if !ok {
		return domain.PendingAuthorization{}, store.ErrNotFound
	}
	return auth, nil
}

func (r *pendingRepo) Update(_ context.Context, auth domain.PendingAuthorization) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, ok := r.byCode[auth.Code]; !ok {
		return store.ErrNotFound
	}
	r.byCode[auth.Code] = auth
	return nil
}

func (r *pendingRepo) Delete(_ context.Context, code string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	delete(r.byCode, code)
	return nil
}

func (r *pendingRepo) DeleteExpired(_ context.Context, now time.Time) (int, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	removed := 0
	for code, auth := range r.byCode {
		if auth.Expired(now) {
			delete(r.byCode, code)
			removed++
		}
	}
	return removed, nil
}

type sessionRepo struct {
	mu      sync.RWMutex
	byToken map[string]domain.Session
}

func (r *sessionRepo) Create(_ context.Context, s domain.Session) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, ok := r.byToken[s.Token]; ok {
		return store.ErrAlreadyExists
	}
	r.byToken[s.Token] = s
	return nil
}

func (r *sessionRepo) Get(_ context.Context, token string) (domain.Session, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	s, ok := r.byToken[token]
	if !ok {
		return domain.Session{}, store.ErrNotFound
	}
	return s, nil
}

func (r *sessionRepo) Delete(_ context.Context, token string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	delete(r.byToken, token)
	return nil
}

func (r *sessionRepo) DeleteExpired(_ context.Context, now time.Time) (int, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	removed := 0
	for token, s := range r.byToken {
		if s.Expired(now) {
			delete(r.byToken, token)
			removed++
		}
	}
	return removed, nil
}
