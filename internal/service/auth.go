// Package service provides the account and catalog business logic,
// delegating persistence to repository interfaces and the gateway.
package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/atinyakov/hacklearn/internal/models"
	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"
)

var (
	// ErrInvalidCredentials is returned for an unknown email or a wrong password.
	ErrInvalidCredentials = errors.New("invalid email or password")
	// ErrUserExists is returned when registering an email twice.
	ErrUserExists = errors.New("user already exists")
	// ErrNotAuthenticated is returned when an operation needs a signed-in user.
	ErrNotAuthenticated = models.ErrNotAuthenticated
)

// MinPasswordLength is the shortest accepted password.
const MinPasswordLength = 6

// AuthRepository defines the persistence operations
// required by the authentication service.
type AuthRepository interface {
	// UserExists returns true if an account with the given email exists.
	UserExists(ctx context.Context, email string) (bool, error)
	// CreateUser stores a new account.
	CreateUser(ctx context.Context, u models.User) error
	// GetUserByEmail returns the account or an error wrapping models.ErrNotFound.
	GetUserByEmail(ctx context.Context, email string) (*models.User, error)
}

// Service implements authentication operations by delegating
// to an AuthRepository.
type Service struct {
	// repo performs the data-layer operations.
	repo AuthRepository
	now  func() time.Time
}

// NewAuthService constructs a new Service using the provided repository.
// repo must implement AuthRepository.
func NewAuthService(repo AuthRepository) *Service {
	return &Service{repo: repo, now: time.Now}
}

func normalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

// UserExists checks whether an account with the specified email exists.
func (s *Service) UserExists(ctx context.Context, email string) (bool, error) {
	return s.repo.UserExists(ctx, normalizeEmail(email))
}

// Register creates an account for email and returns its identity.
func (s *Service) Register(ctx context.Context, email, password string) (*models.Identity, error) {
	email = normalizeEmail(email)
	if email == "" || len(password) < MinPasswordLength {
		return nil, fmt.Errorf("%w: email and a password of at least %d characters are required",
			models.ErrValidation, MinPasswordLength)
	}

	exists, err := s.repo.UserExists(ctx, email)
	if err != nil {
		return nil, err
	}
	if exists {
		return nil, ErrUserExists
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return nil, fmt.Errorf("hash password: %w", err)
	}
	u := models.User{
		ID:           uuid.NewString(),
		Email:        email,
		PasswordHash: hash,
		CreatedAt:    s.now(),
	}
	if err := s.repo.CreateUser(ctx, u); err != nil {
		return nil, err
	}
	return &models.Identity{ID: u.ID, Email: u.Email}, nil
}

// Login verifies the credentials and returns the matching identity.
func (s *Service) Login(ctx context.Context, email, password string) (*models.Identity, error) {
	u, err := s.repo.GetUserByEmail(ctx, normalizeEmail(email))
	if errors.Is(err, models.ErrNotFound) {
		return nil, ErrInvalidCredentials
	}
	if err != nil {
		return nil, err
	}
	if err := bcrypt.CompareHashAndPassword(u.PasswordHash, []byte(password)); err != nil {
		return nil, ErrInvalidCredentials
	}
	return &models.Identity{ID: u.ID, Email: u.Email}, nil
}
