// internal/core/ports/tasks.go
package ports

import (
	"context"

	"github.com/google/uuid"

	"github.com/ammerola/stockledger-be/internal/core/domain"
)

// TaskPublisher hands work to the background worker
type TaskPublisher interface {
	PublishSaleCreated(ctx context.Context, sale *domain.Sale, touched []*domain.StockItem) error
	PublishSaleCancelled(ctx context.Context, saleID, ownerID uuid.UUID, restored []*domain.StockItem) error
	EnqueueSalesExport(ctx context.Context, job *domain.Job) error
	EnqueueProductImport(ctx context.Context, job *domain.Job) error
}

// JobStore tracks asynchronous job status
type JobStore interface {
	Save(ctx context.Context, job *domain.Job) error
	// Get returns domain.ErrJobNotFound when the job is unknown or expired
	Get(ctx context.Context, jobID string) (*domain.Job, error)
}
