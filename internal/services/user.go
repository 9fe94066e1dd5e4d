package services

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"gatekeeper/internal/domain"
)

// ErrInvalidCredentials is returned for unknown emails and wrong passwords alike.
var ErrInvalidCredentials = errors.New("invalid credentials")

type userService struct {
	users       domain.UserRepository
	hasher      domain.PasswordHasher
	tokens      domain.TokenIssuer
	tokenExpiry time.Duration
}

// NewUserService returns a UserService handling password login.
func NewUserService(users domain.UserRepository, hasher domain.PasswordHasher, tokens domain.TokenIssuer, tokenExpiry time.Duration) domain.UserService {
	return &userService{
		users:       users,
		hasher:      hasher,
		tokens:      tokens,
		tokenExpiry: tokenExpiry,
	}
}

func (s *userService) Login(ctx context.Context, email, password string) (string, *domain.User, error) {
	email = strings.TrimSpace(strings.ToLower(email))
	if email == "" || password == "" {
		return "", nil, domain.ErrInvalidInput
	}
	user, err := s.users.GetByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return "", nil, ErrInvalidCredentials
		}
		return "", nil, fmt.Errorf("get user by email: %w", err)
	}
	if err := s.hasher.Compare(user.PasswordHash, password); err != nil {
		return "", nil, ErrInvalidCredentials
	}
	token, err := s.tokens.Issue(user.ID, user.Email, s.tokenExpiry)
	if err != nil {
		return "", nil, fmt.Errorf("issue token: %w", err)
	}
	return token, user, nil
}
