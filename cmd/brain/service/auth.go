package service

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/lyzr/secondbrain/cmd/brain/models"
	"github.com/lyzr/secondbrain/cmd/brain/repository"
	"github.com/lyzr/secondbrain/common/auth"
	"github.com/lyzr/secondbrain/common/logger"
)

// UserStore is the persistence used by AuthService
type UserStore interface {
	Create(ctx context.Context, user *models.User) error
	GetByUsername(ctx context.Context, username string) (*models.User, error)
	GetByID(ctx context.Context, id uuid.UUID) (*models.User, error)
}

// AuthService handles signup, signin and token verification
type AuthService struct {
	users     UserStore
	passwords *auth.PasswordHasher
	tokens    *auth.TokenService
	log       *logger.Logger
}

// NewAuthService creates a new auth service
func NewAuthService(users UserStore, passwords *auth.PasswordHasher, tokens *auth.TokenService, log *logger.Logger) *AuthService {
	return &AuthService{
		users:     users,
		passwords: passwords,
		tokens:    tokens,
		log:       log,
	}
}

// Signup creates an account with a bcrypt-hashed password
func (s *AuthService) Signup(ctx context.Context, username, password string) (*models.User, error) {
	hash, err := s.passwords.Hash(password)
	if err != nil {
		return nil, fmt.Errorf("failed to hash password: %w", err)
	}

	user := &models.User{
		ID:           uuid.New(),
		Username:     username,
		PasswordHash: hash,
	}

	if err := s.users.Create(ctx, user); err != nil {
		if errors.Is(err, repository.ErrDuplicate) {
			return nil, ErrUsernameTaken
		}
		return nil, fmt.Errorf("failed to create user: %w", err)
	}

	s.log.Info("user signed up", "user_id", user.ID, "username", username)
	return user, nil
}

// Signin checks credentials and issues an access token
func (s *AuthService) Signin(ctx context.Context, username, password string) (string, error) {
	user, err := s.users.GetByUsername(ctx, username)
	if errors.Is(err, repository.ErrNotFound) {
		return "", ErrUnknownUser
	}
	if err != nil {
		return "", fmt.Errorf("failed to get user: %w", err)
	}

	if err := s.passwords.Verify(user.PasswordHash, password); err != nil {
		if errors.Is(err, auth.ErrPasswordMismatch) {
			return "", ErrInvalidCredentials
		}
		return "", err
	}

	token, err := s.tokens.Issue(user.ID, user.Username)
	if err != nil {
		return "", fmt.Errorf("failed to issue token: %w", err)
	}
	return token, nil
}

// Authenticate verifies an access token
func (s *AuthService) Authenticate(token string) (*auth.Claims, error) {
	return s.tokens.Verify(token)
}

// User returns an account by id
func (s *AuthService) User(ctx context.Context, id uuid.UUID) (*models.User, error) {
	user, err := s.users.GetByID(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("failed to get user: %w", err)
	}
	return user, nil
}
