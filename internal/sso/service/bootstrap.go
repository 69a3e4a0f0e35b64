package service

import (
	"context"
	"errors"

	"github.com/tutorhub/sso/internal/sso/domain"
	"github.com/tutorhub/sso/internal/sso/store"
	"github.com/tutorhub/sso/pkg/slogx"
)

var (
	ErrBootstrapAlready      = errors.New("system already bootstrapped")
	ErrBootstrapUnauthorized = errors.New("unauthorized bootstrap attempt")
)

// BootstrapService creates the first account on an empty deployment. The
// first account is always a student-affairs (ctsv) one so someone can
// administer the platform; everything after that goes through normal account
// provisioning.
type BootstrapService struct {
	Store store.Store
	Users *UserService

	// Token guards the endpoint. Empty means the endpoint is open while the
	// user table is empty, which is only acceptable for local development.
	Token string
}

func (s *BootstrapService) IsBootstrapped(ctx context.Context) (bool, error) {
	empty, err := s.Store.Users().IsEmpty(ctx)
	if err != nil {
		return false, err
	}
	return !empty, nil
}

func (s *BootstrapService) Bootstrap(ctx context.Context, token, username, password, givenName, familyName string) (domain.SubjectSummary, error) {
	l := slogx.FromContext(ctx)

	if bootstrapped, err := s.IsBootstrapped(ctx); err != nil {
		return domain.SubjectSummary{}, err
	} else if bootstrapped {
		l.Warn("attempted bootstrap on already-bootstrapped system")
		return domain.SubjectSummary{}, ErrBootstrapAlready
	}

	if s.Token != "" && token != s.Token {
		l.Warn("unauthorized bootstrap attempt")
		return domain.SubjectSummary{}, ErrBootstrapUnauthorized
	}

	user, err := s.Users.CreateUser(ctx, CreateUserRequest{
		Username:   username,
		Password:   password,
		GivenName:  givenName,
		FamilyName: familyName,
		Role:       domain.RoleCTSV,
	})
	if err != nil {
		return domain.SubjectSummary{}, err
	}

	l.Info("system bootstrapped")
	return user.Summary(), nil
}
