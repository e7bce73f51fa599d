// internal/workers/sale_events.go
package workers

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/hibiken/asynq"

	"github.com/ammerola/stockledger-be/internal/core/domain"
	"github.com/ammerola/stockledger-be/internal/core/ports"
)

const alertDedupTTL = 12 * time.Hour

// SaleEventProcessor reacts to committed sales and cancellations
type SaleEventProcessor struct {
	users     ports.UserRepository
	sales     ports.SaleService
	cache     ports.CacheRepository
	notifier  Notifier
	threshold int
	logger    *slog.Logger
}

// NewSaleEventProcessor creates a sale event processor. cache may be nil.
func NewSaleEventProcessor(
	users ports.UserRepository,
	sales ports.SaleService,
	cache ports.CacheRepository,
	notifier Notifier,
	threshold int,
	logger *slog.Logger,
) *SaleEventProcessor {
	return &SaleEventProcessor{
		users:     users,
		sales:     sales,
		cache:     cache,
		notifier:  notifier,
		threshold: threshold,
		logger:    logger.With(slog.String("processor", "sale_events")),
	}
}

// HandleSaleCreated raises low stock alerts and re-warms the owner's summary
func (p *SaleEventProcessor) HandleSaleCreated(ctx context.Context, t *asynq.Task) error {
	var payload SaleEventPayload
	if err := decodePayload(t, &payload); err != nil {
		return err
	}

	p.logger.InfoContext(ctx, "processing sale created",
		slog.String("sale_id", payload.SaleID.String()),
		slog.Int("items", len(payload.Items)))

	alerts := p.lowStock(ctx, payload.Items)
	if len(alerts) > 0 {
		if err := p.notify(ctx, payload, alerts); err != nil {
			return err
		}
	}

	p.refreshSummary(ctx, payload)
	return nil
}

// HandleSaleCancelled re-warms the owner's summary
func (p *SaleEventProcessor) HandleSaleCancelled(ctx context.Context, t *asynq.Task) error {
	var payload SaleEventPayload
	if err := decodePayload(t, &payload); err != nil {
		return err
	}

	p.logger.InfoContext(ctx, "processing sale cancelled",
		slog.String("sale_id", payload.SaleID.String()),
		slog.Int("restored", len(payload.Items)))

	p.refreshSummary(ctx, payload)
	return nil
}

// lowStock keeps products at or under the threshold, dropping alerts already sent recently
func (p *SaleEventProcessor) lowStock(ctx context.Context, items []StockSnapshot) []LowStockAlert {
	var alerts []LowStockAlert
	for _, item := range items {
		if item.Kind != domain.KindProduct {
			continue
		}
		depleted := item.State == domain.StateDepleted || item.Quantity == 0
		if !depleted && item.Quantity > p.threshold {
			continue
		}
		if !p.firstAlert(ctx, item, depleted) {
			continue
		}
		alerts = append(alerts, LowStockAlert{
			ItemID:   item.ID,
			Name:     item.Name,
			Quantity: item.Quantity,
			Depleted: depleted,
		})
	}
	return alerts
}

func (p *SaleEventProcessor) firstAlert(ctx context.Context, item StockSnapshot, depleted bool) bool {
	if p.cache == nil {
		return true
	}
	level := "low"
	if depleted {
		level = "depleted"
	}
	ok, err := p.cache.SetNX(ctx, fmt.Sprintf("alerts:%s:%s", item.ID, level), 1, alertDedupTTL)
	if err != nil {
		// alert anyway; a duplicate beats a missed depletion
		p.logger.WarnContext(ctx, "failed to record alert", slog.Any("error", err))
		return true
	}
	return ok
}

func (p *SaleEventProcessor) notify(ctx context.Context, payload SaleEventPayload, alerts []LowStockAlert) error {
	owner, err := p.users.FindByID(ctx, payload.OwnerID)
	if err != nil {
		return fmt.Errorf("failed to get owner: %w", err)
	}
	if owner == nil {
		p.logger.WarnContext(ctx, "owner not found, dropping stock alerts",
			slog.String("owner_id", payload.OwnerID.String()))
		return nil
	}

	if err := p.notifier.NotifyLowStock(ctx, owner, alerts); err != nil {
		return fmt.Errorf("failed to notify low stock: %w", err)
	}

	p.logger.InfoContext(ctx, "low stock alerts sent",
		slog.String("owner_id", owner.ID.String()),
		slog.Int("alerts", len(alerts)))
	return nil
}

func (p *SaleEventProcessor) refreshSummary(ctx context.Context, payload SaleEventPayload) {
	if _, err := p.sales.Summary(ctx, payload.OwnerID, time.Time{}, time.Time{}); err != nil {
		p.logger.WarnContext(ctx, "failed to refresh sales summary",
			slog.String("owner_id", payload.OwnerID.String()),
			slog.Any("error", err))
	}
}
