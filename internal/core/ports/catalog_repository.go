// internal/core/ports/catalog_repository.go
package ports

import (
	"context"

	"github.com/google/uuid"

	"github.com/ammerola/stockledger-be/internal/core/domain"
)

// CatalogFilter narrows an owner's catalog listing
type CatalogFilter struct {
	Kind  domain.ItemKind
	State domain.StateFilter
}

// CatalogRepository persists the stock items of every owner.
// Lookups return (nil, nil) when the item does not exist for that owner.
type CatalogRepository interface {
	Insert(ctx context.Context, item *domain.StockItem) error
	InsertBatch(ctx context.Context, items []*domain.StockItem) error
	Update(ctx context.Context, item *domain.StockItem) error
	FindByID(ctx context.Context, ownerID, itemID uuid.UUID) (*domain.StockItem, error)
	// FindForUpdate row-locks the requested items until the surrounding transaction ends.
	FindForUpdate(ctx context.Context, ownerID uuid.UUID, itemIDs []uuid.UUID) (map[uuid.UUID]*domain.StockItem, error)
	List(ctx context.Context, ownerID uuid.UUID, filter CatalogFilter) ([]*domain.StockItem, error)
}
