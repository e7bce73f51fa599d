// internal/core/domain/user.go
package domain

import (
	"net/mail"
	"strings"
	"time"

	"github.com/google/uuid"
)

// Role grants access to route groups
type Role string

// Role constants
const (
	RoleAdmin Role = "admin"
	RoleUser  Role = "user"
)

// MinPasswordLength for registration and admin updates
const MinPasswordLength = 8

// User owns a catalog and a sales ledger
type User struct {
	ID           uuid.UUID  `json:"id"`
	FirstName    string     `json:"first_name"`
	LastName     string     `json:"last_name"`
	Email        string     `json:"email"`
	PasswordHash string     `json:"-"`
	Role         Role       `json:"role"`
	Enabled      bool       `json:"enabled"`
	JoinedAt     time.Time  `json:"joined_at"`
	LeftAt       *time.Time `json:"left_at,omitempty"`
	CreatedAt    time.Time  `json:"created_at"`
	UpdatedAt    time.Time  `json:"updated_at"`
}

// FullName joins first and last name
func (u *User) FullName() string {
	return strings.TrimSpace(u.FirstName + " " + u.LastName)
}

// IsAdmin reports the admin role
func (u *User) IsAdmin() bool {
	return u.Role == RoleAdmin
}

// Toggle flips Enabled and tracks when the user left
func (u *User) Toggle(now time.Time) {
	u.Enabled = !u.Enabled
	if u.Enabled {
		u.LeftAt = nil
	} else {
		u.LeftAt = &now
	}
	u.UpdatedAt = now
}

// Validate checks profile fields, not the password
func (u *User) Validate() error {
	if strings.TrimSpace(u.FirstName) == "" {
		return NewValidationError("first_name is required")
	}
	if strings.TrimSpace(u.LastName) == "" {
		return NewValidationError("last_name is required")
	}
	if err := ValidateEmail(u.Email); err != nil {
		return err
	}
	if u.Role != RoleAdmin && u.Role != RoleUser {
		return NewValidationError("unknown role %q", u.Role)
	}
	return nil
}

// NormalizeEmail lower-cases and trims an address
func NormalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

// ValidateEmail rejects malformed addresses
func ValidateEmail(email string) error {
	if email == "" {
		return NewValidationError("email is required")
	}
	addr, err := mail.ParseAddress(email)
	if err != nil || addr.Address != email {
		return NewValidationError("email is invalid")
	}
	return nil
}

// ValidatePassword enforces the minimum length
func ValidatePassword(password string) error {
	if len(password) < MinPasswordLength {
		return NewValidationError("password must be at least %d characters", MinPasswordLength)
	}
	return nil
}
