package service

import (
	"context"
	"errors"
	"log/slog"

	"github.com/tutorhub/sso/internal/sso/domain"
	"github.com/tutorhub/sso/internal/sso/store"
	"github.com/tutorhub/sso/pkg/cryptox"
	"github.com/tutorhub/sso/pkg/idx"
	"github.com/tutorhub/sso/pkg/slogx"
)

var (
	ErrInvalidRole    = errors.New("invalid_role")
	ErrUsernameTaken  = errors.New("username_taken")
	ErrWeakCredential = errors.New("weak_credential")
)

const minPasswordLength = 8

// UserService creates platform accounts. Account management beyond creation
// lives with the main platform; the SSO only needs enough to seed users and
// verify logins.
type UserService struct {
	Users store.Users
	Clock Clock
}

type CreateUserRequest struct {
	Username   string
	Password   string
	GivenName  string
	FamilyName string
	Role       string
}

func (s *UserService) CreateUser(ctx context.Context, req CreateUserRequest) (domain.User, error) {
	l := slogx.FromContext(ctx)

	if !domain.IsAllowedRole(req.Role) {
		return domain.User{}, ErrInvalidRole
	}
	if req.Username == "" || len(req.Password) < minPasswordLength {
		return domain.User{}, ErrWeakCredential
	}

	hash, err := cryptox.HashPassword(req.Password)
	if err != nil {
		return domain.User{}, err
	}

	now := s.Clock.Now()
	user := domain.User{
		ID:           idx.New().String(),
		Username:     req.Username,
		GivenName:    req.GivenName,
		FamilyName:   req.FamilyName,
		PasswordHash: hash,
		Role:         req.Role,
		CreatedAt:    now,
		UpdatedAt:    now,
	}

	if err := s.Users.CreateUser(ctx, user); err != nil {
		if errors.Is(err, store.ErrAlreadyExists) {
			return domain.User{}, ErrUsernameTaken
		}
		return domain.User{}, err
	}

	l.Info("user created",
		slog.String("subject_id", user.ID),
		slog.String("role", user.Role),
	)
	return user, nil
}
