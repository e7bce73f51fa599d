// internal/core/ports/sale_repository.go
package ports

import (
	"context"
	"time"

	"github.com/google/uuid"

	"github.com/ammerola/stockledger-be/internal/core/domain"
)

// SaleFilter bounds an owner's ledger query. Zero values mean unbounded.
type SaleFilter struct {
	From  time.Time
	To    time.Time
	Limit int
}

// SaleRepository is the sales ledger
type SaleRepository interface {
	Insert(ctx context.Context, sale *domain.Sale) error
	FindByID(ctx context.Context, saleID uuid.UUID) (*domain.Sale, error)
	FindByIDForUpdate(ctx context.Context, saleID uuid.UUID) (*domain.Sale, error)
	// FindByOwner returns sales newest first
	FindByOwner(ctx context.Context, ownerID uuid.UUID, filter SaleFilter) ([]*domain.Sale, error)
	// DeleteByID returns domain.ErrSaleNotFound when nothing was deleted
	DeleteByID(ctx context.Context, saleID uuid.UUID) error
	Summarize(ctx context.Context, ownerID uuid.UUID, from, to time.Time) (*domain.SalesSummary, error)
}
