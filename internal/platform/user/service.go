package user

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/divvyapp/divvy/pkg/logger"
)

// Service handles user business logic
type Service struct {
	repo Repository
	log  *logger.Logger
}

// NewService creates a new user service
func NewService(repo Repository, log *logger.Logger) *Service {
	return &Service{
		repo: repo,
		log:  log,
	}
}

// Register registers a new user account
func (s *Service) Register(ctx context.Context, email, displayName, password string) (*User, error) {
	email = strings.ToLower(strings.TrimSpace(email))

	exists, err := s.repo.Exists(ctx, email)
	if err != nil {
		return nil, fmt.Errorf("failed to check if user exists: %w", err)
	}
	if exists {
		return nil, ErrUserAlreadyExists
	}

	now := time.Now()
	u := &User{
		ID:          uuid.New(),
		Email:       email,
		DisplayName: strings.TrimSpace(displayName),
		CreatedAt:   now,
		UpdatedAt:   now,
	}

	if err := u.SetPassword(password); err != nil {
		return nil, err
	}

	if err := u.Validate(); err != nil {
		return nil, err
	}

	if err := s.repo.Create(ctx, u); err != nil {
		return nil, fmt.Errorf("failed to create user: %w", err)
	}

	s.log.WithContext(ctx).Info("user registered", "user_id", u.ID)
	return u, nil
}

// Login authenticates a user with email and password
func (s *Service) Login(ctx context.Context, email, password string) (*User, error) {
	u, err := s.repo.GetByEmail(ctx, strings.ToLower(strings.TrimSpace(email)))
	if err != nil {
		if errors.Is(err, ErrUserNotFound) {
			// Don't reveal that the user doesn't exist
			return nil, ErrInvalidPassword
		}
		return nil, fmt.Errorf("failed to get user: %w", err)
	}

	if err := u.CheckPassword(password); err != nil {
		return nil, err
	}

	u.UpdateLastLogin()
	if err := s.repo.Update(ctx, u); err != nil {
		// Non-critical: the login itself succeeded
		s.log.WithContext(ctx).WithError(err).Warn("failed to update last login")
	}

	return u, nil
}

// UpdateProfile changes the user's display name
func (s *Service) UpdateProfile(ctx context.Context, id uuid.UUID, displayName string) (*User, error) {
	u, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}

	u.DisplayName = strings.TrimSpace(displayName)
	u.UpdatedAt = time.Now()
	if err := u.Validate(); err != nil {
		return nil, err
	}

	if err := s.repo.Update(ctx, u); err != nil {
		return nil, fmt.Errorf("failed to update user: %w", err)
	}

	return u, nil
}

// ChangePassword verifies the current password and sets a new one
func (s *Service) ChangePassword(ctx context.Context, id uuid.UUID, current, updated string) error {
	u, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return err
	}

	if err := u.CheckPassword(current); err != nil {
		return err
	}

	if err := u.SetPassword(updated); err != nil {
		return err
	}

	u.UpdatedAt = time.Now()
	if err := s.repo.Update(ctx, u); err != nil {
		return fmt.Errorf("failed to update user: %w", err)
	}

	return nil
}

// GetByID retrieves a user by ID
func (s *Service) GetByID(ctx context.Context, id uuid.UUID) (*User, error) {
	return s.repo.GetByID(ctx, id)
}

// GetByEmail retrieves a user by email
func (s *Service) GetByEmail(ctx context.Context, email string) (*User, error) {
	return s.repo.GetByEmail(ctx, strings.ToLower(strings.TrimSpace(email)))
}
