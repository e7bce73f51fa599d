// internal/core/ports/user_repository.go
package ports

import (
	"context"

	"github.com/google/uuid"

	"github.com/ammerola/stockledger-be/internal/core/domain"
)

// UserRepository persists accounts. Lookups return (nil, nil) when absent.
type UserRepository interface {
	// Create returns domain.ErrEmailTaken on a duplicate email
	Create(ctx context.Context, user *domain.User) error
	Update(ctx context.Context, user *domain.User) error
	FindByID(ctx context.Context, id uuid.UUID) (*domain.User, error)
	FindByEmail(ctx context.Context, email string) (*domain.User, error)
	// LockByID takes a row lock that serialises every stock mutation of the owner
	LockByID(ctx context.Context, id uuid.UUID) (*domain.User, error)
	ListByRole(ctx context.Context, role domain.Role) ([]*domain.User, error)
	EmailTaken(ctx context.Context, email string, exceptID uuid.UUID) (bool, error)
}
