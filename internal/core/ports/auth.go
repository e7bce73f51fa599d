// internal/core/ports/auth.go
package ports

import (
	"context"
	"time"

	"github.com/google/uuid"

	"github.com/ammerola/stockledger-be/internal/core/domain"
)

// Claims is the identity carried by an access token
type Claims struct {
	UserID    uuid.UUID   `json:"id"`
	Name      string      `json:"name"`
	Role      domain.Role `json:"role"`
	TokenID   string      `json:"jti"`
	ExpiresAt time.Time   `json:"exp"`
}

// TokenIssuer signs and verifies access tokens
type TokenIssuer interface {
	Issue(user *domain.User) (string, *Claims, error)
	Parse(token string) (*Claims, error)
}

// PasswordHasher hashes and verifies passwords
type PasswordHasher interface {
	Hash(password string) (string, error)
	Compare(hash, password string) error
}

// TokenRevoker remembers logged out tokens until they expire
type TokenRevoker interface {
	Revoke(ctx context.Context, tokenID string, ttl time.Duration) error
	IsRevoked(ctx context.Context, tokenID string) (bool, error)
}
