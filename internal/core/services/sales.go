// internal/core/services/sales.go
package services

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/ammerola/stockledger-be/internal/core/domain"
	"github.com/ammerola/stockledger-be/internal/core/ports"
	"github.com/ammerola/stockledger-be/internal/pkg/metrics"
)

// SaleService handles the sale lifecycle
type SaleService struct {
	uow     ports.UnitOfWork
	cache   ports.CacheRepository
	tasks   ports.TaskPublisher
	jobs    ports.JobStore
	metrics *metrics.Metrics
	logger  *slog.Logger
	now     func() time.Time
}

// Statically assert that *SaleService implements the SaleService interface.
var _ ports.SaleService = (*SaleService)(nil)

// NewSaleService creates a new sale service
func NewSaleService(
	uow ports.UnitOfWork,
	cache ports.CacheRepository,
	tasks ports.TaskPublisher,
	jobs ports.JobStore,
	m *metrics.Metrics,
	logger *slog.Logger,
) *SaleService {
	return &SaleService{
		uow:     uow,
		cache:   cache,
		tasks:   tasks,
		jobs:    jobs,
		metrics: m,
		logger:  logger.With(slog.String("service", "sales")),
		now:     func() time.Time { return time.Now().UTC() },
	}
}

// CreateSale validates every line, debits stock and records the sale in one
// transaction. The owner row lock serialises it with other stock mutations.
func (s *SaleService) CreateSale(ctx context.Context, ownerID uuid.UUID, lines []domain.LineRequest) (*domain.Sale, error) {
	if len(lines) == 0 {
		s.metrics.SaleRejected(rejectionReason(domain.ErrEmptySale))
		return nil, domain.ErrEmptySale
	}

	var (
		sale    *domain.Sale
		touched []*domain.StockItem
	)

	err := s.uow.Within(ctx, func(ctx context.Context, repos ports.Repositories) error {
		owner, err := repos.Users.LockByID(ctx, ownerID)
		if err != nil {
			return fmt.Errorf("failed to lock owner: %w", err)
		}
		if owner == nil {
			return domain.ErrOwnerNotFound
		}

		items, err := repos.Catalog.FindForUpdate(ctx, ownerID, domain.DistinctItemIDs(lines))
		if err != nil {
			return fmt.Errorf("failed to load stock items: %w", err)
		}

		built, mutated, err := domain.BuildSale(ownerID, lines, func(id uuid.UUID) *domain.StockItem {
			return items[id]
		}, s.now())
		if err != nil {
			return err
		}

		for _, item := range mutated {
			if err := repos.Catalog.Update(ctx, item); err != nil {
				return fmt.Errorf("failed to update stock item %s: %w", item.ID, err)
			}
		}

		if err := repos.Sales.Insert(ctx, built); err != nil {
			return fmt.Errorf("failed to insert sale: %w", err)
		}

		sale, touched = built, mutated
		return nil
	})
	if err != nil {
		s.metrics.SaleRejected(rejectionReason(err))
		return nil, err
	}

	s.metrics.SaleCreated(sale.TotalPrice, sale.UnitsSold())
	invalidateOwner(ctx, s.cache, s.logger, ownerID)

	if s.tasks != nil {
		if err := s.tasks.PublishSaleCreated(ctx, sale, touched); err != nil {
			s.logger.WarnContext(ctx, "failed to publish sale created event",
				slog.String("sale_id", sale.ID.String()),
				slog.Any("error", err))
		}
	}

	s.logger.InfoContext(ctx, "sale created",
		slog.String("sale_id", sale.ID.String()),
		slog.String("owner_id", ownerID.String()),
		slog.Int("lines", len(sale.Items)),
		slog.String("total", sale.TotalPrice.StringFixed(2)))

	return sale, nil
}

// CancelSale restores product stock and deletes the sale. Lines whose item
// no longer exists are skipped. The sale row is deleted last.
func (s *SaleService) CancelSale(ctx context.Context, ownerID, saleID uuid.UUID) (*ports.CancelResult, error) {
	existing, err := s.uow.Repositories().Sales.FindByID(ctx, saleID)
	if err != nil {
		return nil, fmt.Errorf("failed to get sale: %w", err)
	}
	if existing == nil || (ownerID != uuid.Nil && existing.OwnerID != ownerID) {
		return nil, domain.ErrSaleNotFound
	}

	var (
		result   *ports.CancelResult
		restored []*domain.StockItem
	)

	err = s.uow.Within(ctx, func(ctx context.Context, repos ports.Repositories) error {
		res := &ports.CancelResult{SaleID: saleID}

		owner, err := repos.Users.LockByID(ctx, existing.OwnerID)
		if err != nil {
			return fmt.Errorf("failed to lock owner: %w", err)
		}
		if owner == nil {
			res.OwnerMissing = true
			s.logger.WarnContext(ctx, "sale owner not found, restoring remaining items",
				slog.String("sale_id", saleID.String()),
				slog.String("owner_id", existing.OwnerID.String()))
		}

		// Re-read under lock; a concurrent cancel may have won.
		sale, err := repos.Sales.FindByIDForUpdate(ctx, saleID)
		if err != nil {
			return fmt.Errorf("failed to lock sale: %w", err)
		}
		if sale == nil {
			return domain.ErrSaleNotFound
		}

		items, err := repos.Catalog.FindForUpdate(ctx, sale.OwnerID, sale.ProductLineIDs())
		if err != nil {
			return fmt.Errorf("failed to load stock items: %w", err)
		}

		restore := domain.RestoreSale(sale, func(id uuid.UUID) *domain.StockItem {
			return items[id]
		}, s.now())

		for _, item := range restore.Restored {
			if err := repos.Catalog.Update(ctx, item); err != nil {
				return fmt.Errorf("failed to restore stock item %s: %w", item.ID, err)
			}
			res.Restored = append(res.Restored, item.ID)
		}

		for _, id := range restore.Skipped {
			s.logger.WarnContext(ctx, "sale line item missing, skipping restore",
				slog.String("sale_id", saleID.String()),
				slog.String("stock_item_id", id.String()))
		}
		res.Skipped = restore.Skipped

		if err := repos.Sales.DeleteByID(ctx, saleID); err != nil {
			return fmt.Errorf("failed to delete sale: %w", err)
		}

		result = res
		restored = restore.Restored
		existing = sale
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.metrics.SaleCancelled()
	invalidateOwner(ctx, s.cache, s.logger, existing.OwnerID)

	if s.tasks != nil {
		if err := s.tasks.PublishSaleCancelled(ctx, saleID, existing.OwnerID, restored); err != nil {
			s.logger.WarnContext(ctx, "failed to publish sale cancelled event",
				slog.String("sale_id", saleID.String()),
				slog.Any("error", err))
		}
	}

	s.logger.InfoContext(ctx, "sale cancelled",
		slog.String("sale_id", saleID.String()),
		slog.Int("restored", len(result.Restored)),
		slog.Int("skipped", len(result.Skipped)))

	return result, nil
}

// GetSale returns one of the owner's sales
func (s *SaleService) GetSale(ctx context.Context, ownerID, saleID uuid.UUID) (*domain.Sale, error) {
	sale, err := s.uow.Repositories().Sales.FindByID(ctx, saleID)
	if err != nil {
		return nil, fmt.Errorf("failed to get sale: %w", err)
	}
	if sale == nil || sale.OwnerID != ownerID {
		return nil, domain.ErrSaleNotFound
	}
	return sale, nil
}

// ListSales returns the owner's sales newest first. The unfiltered list is cached.
func (s *SaleService) ListSales(ctx context.Context, ownerID uuid.UUID, filter ports.SaleFilter) ([]*domain.Sale, error) {
	repos := s.uow.Repositories()

	fetch := func() (interface{}, error) {
		owner, err := repos.Users.FindByID(ctx, ownerID)
		if err != nil {
			return nil, fmt.Errorf("failed to get owner: %w", err)
		}
		if owner == nil {
			return nil, domain.ErrOwnerNotFound
		}
		sales, err := repos.Sales.FindByOwner(ctx, ownerID, filter)
		if err != nil {
			return nil, fmt.Errorf("failed to list sales: %w", err)
		}
		if sales == nil {
			sales = []*domain.Sale{}
		}
		return sales, nil
	}

	if s.cache == nil || filter != (ports.SaleFilter{}) {
		v, err := fetch()
		if err != nil {
			return nil, err
		}
		return v.([]*domain.Sale), nil
	}

	var sales []*domain.Sale
	if err := s.cache.GetOrSet(ctx, salesListKey(ownerID), &sales, fetch, defaultListTTL); err != nil {
		return nil, err
	}
	return sales, nil
}

// Summary aggregates the owner's sales in [from, to). Zero bounds fall back
// to SummaryWindow days ending at the close of the current day.
func (s *SaleService) Summary(ctx context.Context, ownerID uuid.UUID, from, to time.Time) (*domain.SalesSummary, error) {
	if to.IsZero() {
		to = s.now().Truncate(24 * time.Hour).Add(24 * time.Hour)
	}
	if from.IsZero() {
		from = to.AddDate(0, 0, -SummaryWindow)
	}
	if !to.After(from) {
		return nil, domain.NewValidationError("to must be after from")
	}

	fetch := func() (interface{}, error) {
		summary, err := s.uow.Repositories().Sales.Summarize(ctx, ownerID, from, to)
		if err != nil {
			return nil, fmt.Errorf("failed to summarize sales: %w", err)
		}
		return summary, nil
	}

	if s.cache == nil {
		v, err := fetch()
		if err != nil {
			return nil, err
		}
		return v.(*domain.SalesSummary), nil
	}

	var summary domain.SalesSummary
	if err := s.cache.GetOrSet(ctx, salesSummaryKey(ownerID, from, to), &summary, fetch, defaultSummaryTTL); err != nil {
		return nil, err
	}
	return &summary, nil
}

// RequestExport queues a spreadsheet export of the owner's sales
func (s *SaleService) RequestExport(ctx context.Context, ownerID uuid.UUID, from, to time.Time) (*domain.Job, error) {
	if !from.IsZero() && !to.IsZero() && !to.After(from) {
		return nil, domain.NewValidationError("to must be after from")
	}

	job := domain.NewJob(domain.JobSalesExport, ownerID, s.now())
	job.Format = "xlsx"
	job.From = from
	job.To = to

	if err := s.jobs.Save(ctx, job); err != nil {
		return nil, fmt.Errorf("failed to save export job: %w", err)
	}
	if err := s.tasks.EnqueueSalesExport(ctx, job); err != nil {
		return nil, fmt.Errorf("failed to enqueue export: %w", err)
	}

	s.logger.InfoContext(ctx, "sales export queued",
		slog.String("job_id", job.ID),
		slog.String("owner_id", ownerID.String()))

	return job, nil
}
