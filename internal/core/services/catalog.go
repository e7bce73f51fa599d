// internal/core/services/catalog.go
package services

import (
	"context"
	"fmt"
	"log/slog"
	"path/filepath"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/ammerola/stockledger-be/internal/core/domain"
	"github.com/ammerola/stockledger-be/internal/core/ports"
)

// Import formats accepted by RequestImport
const (
	ImportFormatXLSX = "xlsx"
	ImportFormatPDF  = "pdf"
)

// CatalogService manages products and services of each owner
type CatalogService struct {
	uow     ports.UnitOfWork
	cache   ports.CacheRepository
	storage ports.FileStorage
	tasks   ports.TaskPublisher
	jobs    ports.JobStore
	logger  *slog.Logger
	now     func() time.Time
}

// Statically assert that *CatalogService implements the CatalogService interface.
var _ ports.CatalogService = (*CatalogService)(nil)

// NewCatalogService creates a new catalog service
func NewCatalogService(
	uow ports.UnitOfWork,
	cache ports.CacheRepository,
	storage ports.FileStorage,
	tasks ports.TaskPublisher,
	jobs ports.JobStore,
	logger *slog.Logger,
) *CatalogService {
	return &CatalogService{
		uow:     uow,
		cache:   cache,
		storage: storage,
		tasks:   tasks,
		jobs:    jobs,
		logger:  logger.With(slog.String("service", "catalog")),
		now:     func() time.Time { return time.Now().UTC() },
	}
}

// CreateProduct adds a product to the owner's catalog
func (s *CatalogService) CreateProduct(ctx context.Context, ownerID uuid.UUID, in ports.ProductInput) (*domain.StockItem, error) {
	item, err := domain.NewProduct(ownerID, in.Name, in.PurchasePrice, in.SalePrice, in.Quantity, s.now())
	if err != nil {
		return nil, err
	}
	if err := s.insert(ctx, ownerID, item); err != nil {
		return nil, err
	}
	return item, nil
}

// CreateService adds a service to the owner's catalog
func (s *CatalogService) CreateService(ctx context.Context, ownerID uuid.UUID, in ports.ServiceInput) (*domain.StockItem, error) {
	item, err := domain.NewService(ownerID, in.Name, in.Description, in.Cost, s.now())
	if err != nil {
		return nil, err
	}
	if err := s.insert(ctx, ownerID, item); err != nil {
		return nil, err
	}
	return item, nil
}

func (s *CatalogService) insert(ctx context.Context, ownerID uuid.UUID, item *domain.StockItem) error {
	err := s.uow.Within(ctx, func(ctx context.Context, repos ports.Repositories) error {
		if err := lockOwner(ctx, repos, ownerID); err != nil {
			return err
		}
		if err := repos.Catalog.Insert(ctx, item); err != nil {
			return fmt.Errorf("failed to insert stock item: %w", err)
		}
		return nil
	})
	if err != nil {
		return err
	}

	invalidateOwner(ctx, s.cache, s.logger, ownerID)
	s.logger.InfoContext(ctx, "stock item created",
		slog.String("item_id", item.ID.String()),
		slog.String("kind", string(item.Kind)),
		slog.String("owner_id", ownerID.String()))
	return nil
}

// UpdateProduct applies a partial update to a product
func (s *CatalogService) UpdateProduct(ctx context.Context, ownerID, itemID uuid.UUID, patch domain.ProductPatch) (*domain.StockItem, error) {
	return s.mutate(ctx, ownerID, itemID, domain.KindProduct, "updated", func(item *domain.StockItem) error {
		return item.ApplyProductPatch(patch)
	})
}

// UpdateService applies a partial update to a service
func (s *CatalogService) UpdateService(ctx context.Context, ownerID, itemID uuid.UUID, patch domain.ServicePatch) (*domain.StockItem, error) {
	return s.mutate(ctx, ownerID, itemID, domain.KindService, "updated", func(item *domain.StockItem) error {
		return item.ApplyServicePatch(patch)
	})
}

// Deactivate logically deletes an item
func (s *CatalogService) Deactivate(ctx context.Context, ownerID, itemID uuid.UUID, kind domain.ItemKind) (*domain.StockItem, error) {
	return s.mutate(ctx, ownerID, itemID, kind, "deactivated", func(item *domain.StockItem) error {
		item.Deactivate()
		return nil
	})
}

// Activate reactivates an inactive item
func (s *CatalogService) Activate(ctx context.Context, ownerID, itemID uuid.UUID, kind domain.ItemKind) (*domain.StockItem, error) {
	return s.mutate(ctx, ownerID, itemID, kind, "activated", func(item *domain.StockItem) error {
		return item.Activate()
	})
}

// Restock sets the quantity of a depleted product
func (s *CatalogService) Restock(ctx context.Context, ownerID, itemID uuid.UUID, quantity int) (*domain.StockItem, error) {
	return s.mutate(ctx, ownerID, itemID, domain.KindProduct, "restocked", func(item *domain.StockItem) error {
		return item.Restock(quantity)
	})
}

// mutate loads the item under the owner lock, applies fn and saves it.
// An item of another kind is reported as not found.
func (s *CatalogService) mutate(
	ctx context.Context,
	ownerID, itemID uuid.UUID,
	kind domain.ItemKind,
	action string,
	fn func(*domain.StockItem) error,
) (*domain.StockItem, error) {
	var updated *domain.StockItem

	err := s.uow.Within(ctx, func(ctx context.Context, repos ports.Repositories) error {
		if err := lockOwner(ctx, repos, ownerID); err != nil {
			return err
		}

		items, err := repos.Catalog.FindForUpdate(ctx, ownerID, []uuid.UUID{itemID})
		if err != nil {
			return fmt.Errorf("failed to load stock item: %w", err)
		}
		item := items[itemID]
		if item == nil || item.Kind != kind {
			return domain.ErrItemNotFound
		}

		if err := fn(item); err != nil {
			return err
		}
		item.UpdatedAt = s.now()

		if err := repos.Catalog.Update(ctx, item); err != nil {
			return fmt.Errorf("failed to update stock item: %w", err)
		}
		updated = item
		return nil
	})
	if err != nil {
		return nil, err
	}

	invalidateOwner(ctx, s.cache, s.logger, ownerID)
	s.logger.InfoContext(ctx, "stock item "+action,
		slog.String("item_id", itemID.String()),
		slog.String("state", string(updated.State)))

	return updated, nil
}

// GetItem returns a single item of the given kind
func (s *CatalogService) GetItem(ctx context.Context, ownerID, itemID uuid.UUID, kind domain.ItemKind) (*domain.StockItem, error) {
	item, err := s.uow.Repositories().Catalog.FindByID(ctx, ownerID, itemID)
	if err != nil {
		return nil, fmt.Errorf("failed to get stock item: %w", err)
	}
	if item == nil || item.Kind != kind {
		return nil, domain.ErrItemNotFound
	}
	return item, nil
}

// List returns the owner's items, cached per kind and state filter
func (s *CatalogService) List(ctx context.Context, ownerID uuid.UUID, filter ports.CatalogFilter) ([]*domain.StockItem, error) {
	fetch := func() (interface{}, error) {
		items, err := s.uow.Repositories().Catalog.List(ctx, ownerID, filter)
		if err != nil {
			return nil, fmt.Errorf("failed to list stock items: %w", err)
		}
		if items == nil {
			items = []*domain.StockItem{}
		}
		return items, nil
	}

	if s.cache == nil {
		v, err := fetch()
		if err != nil {
			return nil, err
		}
		return v.([]*domain.StockItem), nil
	}

	var items []*domain.StockItem
	if err := s.cache.GetOrSet(ctx, catalogListKey(ownerID, filter), &items, fetch, defaultListTTL); err != nil {
		return nil, err
	}
	return items, nil
}

// ImportProducts creates every draft in one transaction; one invalid row rejects all.
func (s *CatalogService) ImportProducts(ctx context.Context, ownerID uuid.UUID, drafts []ports.ProductInput) (int, error) {
	if len(drafts) == 0 {
		s.logger.InfoContext(ctx, "no products to import")
		return 0, nil
	}

	now := s.now()
	items := make([]*domain.StockItem, 0, len(drafts))
	for i, d := range drafts {
		item, err := domain.NewProduct(ownerID, d.Name, d.PurchasePrice, d.SalePrice, d.Quantity, now)
		if err != nil {
			return 0, fmt.Errorf("row %d: %w", i+1, err)
		}
		items = append(items, item)
	}

	err := s.uow.Within(ctx, func(ctx context.Context, repos ports.Repositories) error {
		if err := lockOwner(ctx, repos, ownerID); err != nil {
			return err
		}
		if err := repos.Catalog.InsertBatch(ctx, items); err != nil {
			return fmt.Errorf("failed to insert products batch: %w", err)
		}
		return nil
	})
	if err != nil {
		return 0, err
	}

	invalidateOwner(ctx, s.cache, s.logger, ownerID)
	s.logger.InfoContext(ctx, "imported products",
		slog.String("owner_id", ownerID.String()),
		slog.Int("count", len(items)))

	return len(items), nil
}

// RequestImport stores the uploaded file and queues its processing
func (s *CatalogService) RequestImport(ctx context.Context, ownerID uuid.UUID, upload ports.ImportUpload) (*domain.Job, error) {
	format, err := importFormat(upload.Filename, upload.ContentType)
	if err != nil {
		return nil, err
	}

	now := s.now()
	job := domain.NewJob(domain.JobProductImport, ownerID, now)
	job.Format = format
	job.ObjectKey = fmt.Sprintf("imports/%s/%s/%s.%s", ownerID, now.Format("20060102"), job.ID, format)

	if _, err := s.storage.Upload(ctx, job.ObjectKey, upload.Body, upload.ContentType); err != nil {
		return nil, fmt.Errorf("failed to store import file: %w", err)
	}
	if err := s.jobs.Save(ctx, job); err != nil {
		return nil, fmt.Errorf("failed to save import job: %w", err)
	}
	if err := s.tasks.EnqueueProductImport(ctx, job); err != nil {
		return nil, fmt.Errorf("failed to enqueue import: %w", err)
	}

	s.logger.InfoContext(ctx, "product import queued",
		slog.String("job_id", job.ID),
		slog.String("format", format),
		slog.String("filename", upload.Filename))

	return job, nil
}

func importFormat(filename, contentType string) (string, error) {
	switch contentType {
	case "application/pdf":
		return ImportFormatPDF, nil
	case "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet":
		return ImportFormatXLSX, nil
	}
	switch strings.ToLower(filepath.Ext(filename)) {
	case ".pdf":
		return ImportFormatPDF, nil
	case ".xlsx":
		return ImportFormatXLSX, nil
	}
	return "", domain.NewValidationError("only .xlsx and .pdf files can be imported")
}

func lockOwner(ctx context.Context, repos ports.Repositories, ownerID uuid.UUID) error {
	owner, err := repos.Users.LockByID(ctx, ownerID)
	if err != nil {
		return fmt.Errorf("failed to lock owner: %w", err)
	}
	if owner == nil {
		return domain.ErrOwnerNotFound
	}
	return nil
}
