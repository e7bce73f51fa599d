// internal/core/services/keys.go
package services

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/ammerola/stockledger-be/internal/core/domain"
	"github.com/ammerola/stockledger-be/internal/core/ports"
)

// SummaryWindow is the default span of a sales summary, in days
const SummaryWindow = 30

const (
	defaultListTTL    = 5 * time.Minute
	defaultSummaryTTL = 15 * time.Minute
)

func salesListKey(ownerID uuid.UUID) string {
	return fmt.Sprintf("sales:%s:list", ownerID)
}

func salesSummaryKey(ownerID uuid.UUID, from, to time.Time) string {
	return fmt.Sprintf("sales:%s:summary:%d:%d", ownerID, from.Unix(), to.Unix())
}

func catalogListKey(ownerID uuid.UUID, filter ports.CatalogFilter) string {
	state := string(filter.State)
	if state == "" {
		state = "all"
	}
	return fmt.Sprintf("catalog:%s:%s:%s", ownerID, filter.Kind, state)
}

// invalidateOwner drops every cached read model of one owner.
// Failures only cost freshness until the TTL runs out.
func invalidateOwner(ctx context.Context, cache ports.CacheRepository, logger *slog.Logger, ownerID uuid.UUID) {
	if cache == nil {
		return
	}
	patterns := []string{
		fmt.Sprintf("sales:%s:*", ownerID),
		fmt.Sprintf("catalog:%s:*", ownerID),
	}
	for _, pattern := range patterns {
		if err := cache.DeletePattern(ctx, pattern); err != nil {
			logger.WarnContext(ctx, "failed to invalidate cache pattern",
				slog.String("pattern", pattern),
				slog.Any("error", err))
		}
	}
}

// rejectionReason labels a sale failure for metrics
func rejectionReason(err error) string {
	switch {
	case errors.Is(err, domain.ErrItemNotFound):
		return "item_not_found"
	case errors.Is(err, domain.ErrItemNotActive):
		return "item_not_active"
	case errors.Is(err, domain.ErrInvalidQuantity):
		return "invalid_quantity"
	case errors.Is(err, domain.ErrInsufficientStock):
		return "insufficient_stock"
	case errors.Is(err, domain.ErrOwnerNotFound):
		return "owner_not_found"
	case errors.Is(err, domain.ErrEmptySale):
		return "empty_sale"
	default:
		return "internal"
	}
}
