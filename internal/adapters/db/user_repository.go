// internal/adapters/db/user_repository.go
package db

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/Masterminds/squirrel"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"

	"github.com/ammerola/stockledger-be/internal/core/domain"
	"github.com/ammerola/stockledger-be/internal/core/ports"
)

const uniqueViolation = "23505"

var userColumns = []string{
	"id", "first_name", "last_name", "email", "password_hash",
	"role", "enabled", "joined_at", "left_at", "created_at", "updated_at",
}

// UserRepository implements ports.UserRepository
type UserRepository struct {
	q      querier
	logger *slog.Logger
}

var _ ports.UserRepository = (*UserRepository)(nil)

// NewUserRepository creates a user repository over q
func NewUserRepository(q querier, logger *slog.Logger) *UserRepository {
	return &UserRepository{
		q:      q,
		logger: logger.With(slog.String("repository", "users")),
	}
}

// Create inserts a user; a duplicate email yields domain.ErrEmailTaken
func (r *UserRepository) Create(ctx context.Context, user *domain.User) error {
	query, args, err := psql.Insert("users").
		Columns(userColumns...).
		Values(user.ID, user.FirstName, user.LastName, user.Email, user.PasswordHash,
			string(user.Role), user.Enabled, user.JoinedAt, user.LeftAt, user.CreatedAt, user.UpdatedAt).
		ToSql()
	if err != nil {
		return fmt.Errorf("failed to build insert query: %w", err)
	}

	if _, err := r.q.Exec(ctx, query, args...); err != nil {
		if isUniqueViolation(err) {
			return domain.ErrEmailTaken
		}
		return fmt.Errorf("failed to insert user: %w", err)
	}
	return nil
}

// Update saves profile, credential and status fields
func (r *UserRepository) Update(ctx context.Context, user *domain.User) error {
	query, args, err := psql.Update("users").
		Set("first_name", user.FirstName).
		Set("last_name", user.LastName).
		Set("email", user.Email).
		Set("password_hash", user.PasswordHash).
		Set("role", string(user.Role)).
		Set("enabled", user.Enabled).
		Set("left_at", user.LeftAt).
		Set("updated_at", user.UpdatedAt).
		Where("id = ?", user.ID).
		ToSql()
	if err != nil {
		return fmt.Errorf("failed to build update query: %w", err)
	}

	tag, err := r.q.Exec(ctx, query, args...)
	if err != nil {
		if isUniqueViolation(err) {
			return domain.ErrEmailTaken
		}
		return fmt.Errorf("failed to update user: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return domain.ErrUserNotFound
	}
	return nil
}

// FindByID returns the user or nil
func (r *UserRepository) FindByID(ctx context.Context, id uuid.UUID) (*domain.User, error) {
	return r.findOne(ctx, psql.Select(userColumns...).From("users").Where("id = ?", id))
}

// FindByEmail expects an already normalised address
func (r *UserRepository) FindByEmail(ctx context.Context, email string) (*domain.User, error) {
	return r.findOne(ctx, psql.Select(userColumns...).From("users").Where("email = ?", email))
}

// LockByID selects the user FOR UPDATE
func (r *UserRepository) LockByID(ctx context.Context, id uuid.UUID) (*domain.User, error) {
	return r.findOne(ctx, psql.Select(userColumns...).From("users").Where("id = ?", id).Suffix("FOR UPDATE"))
}

func (r *UserRepository) findOne(ctx context.Context, qb squirrel.SelectBuilder) (*domain.User, error) {
	query, args, err := qb.ToSql()
	if err != nil {
		return nil, fmt.Errorf("failed to build select query: %w", err)
	}

	user, err := scanOne(r.q.QueryRow(ctx, query, args...), scanUser)
	if err != nil {
		return nil, fmt.Errorf("failed to find user: %w", err)
	}
	return user, nil
}

// ListByRole returns users of role ordered by last name
func (r *UserRepository) ListByRole(ctx context.Context, role domain.Role) ([]*domain.User, error) {
	query, args, err := psql.Select(userColumns...).
		From("users").
		Where(squirrel.Eq{"role": string(role)}).
		OrderBy("last_name", "first_name", "id").
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("failed to build list query: %w", err)
	}

	rows, err := r.q.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to list users: %w", err)
	}
	users, err := scanMany(rows, scanUser)
	if err != nil {
		return nil, fmt.Errorf("failed to scan users: %w", err)
	}
	return users, nil
}

// EmailTaken reports whether another user already has email
func (r *UserRepository) EmailTaken(ctx context.Context, email string, exceptID uuid.UUID) (bool, error) {
	query, args, err := psql.Select("1").
		From("users").
		Where("email = ? AND id <> ?", email, exceptID).
		Prefix("SELECT EXISTS (").
		Suffix(")").
		ToSql()
	if err != nil {
		return false, fmt.Errorf("failed to build exists query: %w", err)
	}

	var taken bool
	if err := r.q.QueryRow(ctx, query, args...).Scan(&taken); err != nil {
		return false, fmt.Errorf("failed to check email: %w", err)
	}
	return taken, nil
}

func scanUser(row pgx.Row) (*domain.User, error) {
	var (
		u    domain.User
		role string
	)
	err := row.Scan(&u.ID, &u.FirstName, &u.LastName, &u.Email, &u.PasswordHash,
		&role, &u.Enabled, &u.JoinedAt, &u.LeftAt, &u.CreatedAt, &u.UpdatedAt)
	if err != nil {
		return nil, err
	}
	u.Role = domain.Role(role)
	return &u, nil
}

func isUniqueViolation(err error) bool {
	var pgErr *pgconn.PgError
	return errors.As(err, &pgErr) && pgErr.Code == uniqueViolation
}
