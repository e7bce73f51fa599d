// internal/core/services/users.go
package services

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/ammerola/stockledger-be/internal/core/domain"
	"github.com/ammerola/stockledger-be/internal/core/ports"
)

// UserAdminService lets administrators manage regular accounts
type UserAdminService struct {
	users  ports.UserRepository
	hasher ports.PasswordHasher
	logger *slog.Logger
	now    func() time.Time
}

// Statically assert that *UserAdminService implements the UserAdminService interface.
var _ ports.UserAdminService = (*UserAdminService)(nil)

// NewUserAdminService creates a new user admin service
func NewUserAdminService(users ports.UserRepository, hasher ports.PasswordHasher, logger *slog.Logger) *UserAdminService {
	return &UserAdminService{
		users:  users,
		hasher: hasher,
		logger: logger.With(slog.String("service", "user_admin")),
		now:    func() time.Time { return time.Now().UTC() },
	}
}

// ListUsers returns every non-admin account
func (s *UserAdminService) ListUsers(ctx context.Context) ([]*domain.User, error) {
	users, err := s.users.ListByRole(ctx, domain.RoleUser)
	if err != nil {
		return nil, fmt.Errorf("failed to list users: %w", err)
	}
	if users == nil {
		users = []*domain.User{}
	}
	return users, nil
}

// ToggleUser enables a disabled account or disables an enabled one
func (s *UserAdminService) ToggleUser(ctx context.Context, userID uuid.UUID) (*domain.User, error) {
	user, err := s.load(ctx, userID)
	if err != nil {
		return nil, err
	}

	user.Toggle(s.now())
	if err := s.users.Update(ctx, user); err != nil {
		return nil, fmt.Errorf("failed to update user: %w", err)
	}

	s.logger.InfoContext(ctx, "user status toggled",
		slog.String("user_id", userID.String()),
		slog.Bool("enabled", user.Enabled))

	return user, nil
}

// UpdateUser edits profile fields and optionally resets the password
func (s *UserAdminService) UpdateUser(ctx context.Context, userID uuid.UUID, patch ports.UserPatch) (*domain.User, error) {
	user, err := s.load(ctx, userID)
	if err != nil {
		return nil, err
	}

	if patch.FirstName != nil {
		user.FirstName = strings.TrimSpace(*patch.FirstName)
	}
	if patch.LastName != nil {
		user.LastName = strings.TrimSpace(*patch.LastName)
	}
	if patch.Email != nil {
		email := domain.NormalizeEmail(*patch.Email)
		if email != user.Email {
			taken, err := s.users.EmailTaken(ctx, email, user.ID)
			if err != nil {
				return nil, fmt.Errorf("failed to check email: %w", err)
			}
			if taken {
				return nil, domain.ErrEmailTaken
			}
			user.Email = email
		}
	}
	if err := user.Validate(); err != nil {
		return nil, err
	}

	if patch.Password != nil && *patch.Password != "" {
		if err := domain.ValidatePassword(*patch.Password); err != nil {
			return nil, err
		}
		hash, err := s.hasher.Hash(*patch.Password)
		if err != nil {
			return nil, fmt.Errorf("failed to hash password: %w", err)
		}
		user.PasswordHash = hash
	}

	user.UpdatedAt = s.now()
	if err := s.users.Update(ctx, user); err != nil {
		return nil, fmt.Errorf("failed to update user: %w", err)
	}

	s.logger.InfoContext(ctx, "user updated", slog.String("user_id", userID.String()))
	return user, nil
}

// load refuses to touch admin accounts
func (s *UserAdminService) load(ctx context.Context, userID uuid.UUID) (*domain.User, error) {
	user, err := s.users.FindByID(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to get user: %w", err)
	}
	if user == nil {
		return nil, domain.ErrUserNotFound
	}
	if user.IsAdmin() {
		return nil, domain.ErrForbidden
	}
	return user, nil
}
