// internal/adapters/redis_adapter/revocation.go
package redis_a

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/ammerola/stockledger-be/internal/core/ports"
)

// TokenRevoker stores logged out token ids until the token would have expired
type TokenRevoker struct {
	client *redis.Client
	logger *slog.Logger
}

var _ ports.TokenRevoker = (*TokenRevoker)(nil)

// NewTokenRevoker creates a revocation list backed by redis
func NewTokenRevoker(client *redis.Client, logger *slog.Logger) *TokenRevoker {
	return &TokenRevoker{
		client: client,
		logger: logger.With(slog.String("component", "token_revoker")),
	}
}

// Revoke marks tokenID as revoked for ttl. An already expired token is a no-op.
func (r *TokenRevoker) Revoke(ctx context.Context, tokenID string, ttl time.Duration) error {
	if ttl <= 0 {
		return nil
	}
	if err := r.client.Set(ctx, BuildKey(PrefixRevoked, tokenID), 1, ttl).Err(); err != nil {
		return fmt.Errorf("failed to revoke token: %w", err)
	}
	r.logger.DebugContext(ctx, "token revoked",
		slog.String("token_id", tokenID),
		slog.Duration("ttl", ttl))
	return nil
}

// IsRevoked reports whether tokenID was revoked
func (r *TokenRevoker) IsRevoked(ctx context.Context, tokenID string) (bool, error) {
	n, err := r.client.Exists(ctx, BuildKey(PrefixRevoked, tokenID)).Result()
	if err != nil {
		return false, fmt.Errorf("failed to check token revocation: %w", err)
	}
	return n > 0, nil
}
