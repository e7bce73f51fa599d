// internal/workers/tasks.go
package workers

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"github.com/hibiken/asynq"
	"github.com/shopspring/decimal"

	"github.com/ammerola/stockledger-be/internal/core/domain"
	"github.com/ammerola/stockledger-be/internal/core/ports"
)

const (
	TypeSaleCreated      = "sale:created"
	TypeSaleCancelled    = "sale:cancelled"
	TypeSalesExport      = "export:sales"
	TypeProductImport    = "import:products"
	TypeCleanupStorage   = "cleanup:storage"
	TypeCleanupTempFiles = "cleanup:temp_files"
)

// Queue names, matching the worker's priority map
const (
	QueueCritical = "critical"
	QueueDefault  = "default"
	QueueLow      = "low"
)

// StockSnapshot is the state of a stock item right after a sale event
type StockSnapshot struct {
	ID       uuid.UUID        `json:"id"`
	Name     string           `json:"name"`
	Kind     domain.ItemKind  `json:"kind"`
	State    domain.ItemState `json:"state"`
	Quantity int              `json:"quantity"`
}

// SaleEventPayload is carried by sale:created and sale:cancelled tasks
type SaleEventPayload struct {
	SaleID     uuid.UUID       `json:"sale_id"`
	OwnerID    uuid.UUID       `json:"owner_id"`
	TotalPrice decimal.Decimal `json:"total_price"`
	Items      []StockSnapshot `json:"items"`
	OccurredAt time.Time       `json:"occurred_at"`
}

// JobPayload points a worker at a job stored in the job store
type JobPayload struct {
	JobID   string    `json:"job_id"`
	OwnerID uuid.UUID `json:"owner_id"`
}

func snapshot(items []*domain.StockItem) []StockSnapshot {
	out := make([]StockSnapshot, 0, len(items))
	for _, item := range items {
		s := StockSnapshot{
			ID:    item.ID,
			Name:  item.Name,
			Kind:  item.Kind,
			State: item.State,
		}
		if item.Product != nil {
			s.Quantity = item.Product.Quantity
		}
		out = append(out, s)
	}
	return out
}

// Enqueuer is the subset of *asynq.Client the publisher needs
type Enqueuer interface {
	EnqueueContext(ctx context.Context, task *asynq.Task, opts ...asynq.Option) (*asynq.TaskInfo, error)
}

// Publisher enqueues background tasks on asynq
type Publisher struct {
	client   Enqueuer
	maxRetry int
	logger   *slog.Logger
}

// Statically assert that *Publisher implements the TaskPublisher interface.
var _ ports.TaskPublisher = (*Publisher)(nil)

// NewPublisher creates a task publisher
func NewPublisher(client Enqueuer, maxRetry int, logger *slog.Logger) *Publisher {
	if maxRetry <= 0 {
		maxRetry = 3
	}
	return &Publisher{
		client:   client,
		maxRetry: maxRetry,
		logger:   logger.With(slog.String("component", "task_publisher")),
	}
}

// PublishSaleCreated announces a committed sale with the stock it touched
func (p *Publisher) PublishSaleCreated(ctx context.Context, sale *domain.Sale, touched []*domain.StockItem) error {
	return p.enqueue(ctx, TypeSaleCreated, SaleEventPayload{
		SaleID:     sale.ID,
		OwnerID:    sale.OwnerID,
		TotalPrice: sale.TotalPrice,
		Items:      snapshot(touched),
		OccurredAt: sale.CreatedAt,
	}, asynq.Queue(QueueDefault), asynq.MaxRetry(p.maxRetry))
}

// PublishSaleCancelled announces a cancellation with the restored stock
func (p *Publisher) PublishSaleCancelled(ctx context.Context, saleID, ownerID uuid.UUID, restored []*domain.StockItem) error {
	return p.enqueue(ctx, TypeSaleCancelled, SaleEventPayload{
		SaleID:     saleID,
		OwnerID:    ownerID,
		Items:      snapshot(restored),
		OccurredAt: time.Now().UTC(),
	}, asynq.Queue(QueueDefault), asynq.MaxRetry(p.maxRetry))
}

// EnqueueSalesExport schedules the export job. The job id doubles as task id.
func (p *Publisher) EnqueueSalesExport(ctx context.Context, job *domain.Job) error {
	return p.enqueue(ctx, TypeSalesExport, JobPayload{JobID: job.ID, OwnerID: job.OwnerID},
		asynq.Queue(QueueLow),
		asynq.MaxRetry(p.maxRetry),
		asynq.TaskID(job.ID),
		asynq.Timeout(5*time.Minute))
}

// EnqueueProductImport schedules the import job
func (p *Publisher) EnqueueProductImport(ctx context.Context, job *domain.Job) error {
	return p.enqueue(ctx, TypeProductImport, JobPayload{JobID: job.ID, OwnerID: job.OwnerID},
		asynq.Queue(QueueDefault),
		asynq.MaxRetry(p.maxRetry),
		asynq.TaskID(job.ID),
		asynq.Timeout(10*time.Minute))
}

func (p *Publisher) enqueue(ctx context.Context, taskType string, payload any, opts ...asynq.Option) error {
	data, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("failed to marshal %s payload: %w", taskType, err)
	}

	info, err := p.client.EnqueueContext(ctx, asynq.NewTask(taskType, data), opts...)
	if err != nil {
		return fmt.Errorf("failed to enqueue %s: %w", taskType, err)
	}

	p.logger.DebugContext(ctx, "task enqueued",
		slog.String("type", taskType),
		slog.String("task_id", info.ID),
		slog.String("queue", info.Queue))
	return nil
}

// NewCleanupTasks returns the periodic tasks registered with the scheduler
func NewCleanupTasks() []*asynq.Task {
	return []*asynq.Task{
		asynq.NewTask(TypeCleanupStorage, nil, asynq.Queue(QueueLow), asynq.MaxRetry(1)),
		asynq.NewTask(TypeCleanupTempFiles, nil, asynq.Queue(QueueLow), asynq.MaxRetry(1)),
	}
}

func decodePayload(t *asynq.Task, dst any) error {
	if err := json.Unmarshal(t.Payload(), dst); err != nil {
		// a malformed payload never succeeds on retry
		return fmt.Errorf("failed to unmarshal payload: %v: %w", err, asynq.SkipRetry)
	}
	return nil
}
