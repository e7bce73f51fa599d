// internal/workers/import_processor.go
package workers

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/hibiken/asynq"

	"github.com/ammerola/stockledger-be/internal/core/domain"
	"github.com/ammerola/stockledger-be/internal/core/ports"
)

// maxReportedSkips bounds the skipped-row reasons kept on the job
const maxReportedSkips = 20

// ImportProcessor turns uploaded spreadsheets and price lists into products
type ImportProcessor struct {
	catalog ports.CatalogService
	storage ports.FileStorage
	runner  jobRunner
	logger  *slog.Logger
}

// NewImportProcessor creates a new import processor
func NewImportProcessor(catalog ports.CatalogService, storage ports.FileStorage, jobs ports.JobStore, logger *slog.Logger) *ImportProcessor {
	logger = logger.With(slog.String("processor", "import"))
	return &ImportProcessor{
		catalog: catalog,
		storage: storage,
		runner:  newJobRunner(jobs, logger),
		logger:  logger,
	}
}

// ProcessProductImport handles import:products tasks
func (p *ImportProcessor) ProcessProductImport(ctx context.Context, t *asynq.Task) error {
	return p.runner.run(ctx, t, domain.JobProductImport, p.importProducts)
}

func (p *ImportProcessor) importProducts(ctx context.Context, job *domain.Job) error {
	p.logger.InfoContext(ctx, "processing product import",
		slog.String("job_id", job.ID),
		slog.String("format", job.Format),
		slog.String("object_key", job.ObjectKey))

	data, err := p.storage.Download(ctx, job.ObjectKey)
	if err != nil {
		return fmt.Errorf("failed to download import file: %w", err)
	}

	report, err := ParseImportFile(job.Format, data)
	if err != nil {
		return fmt.Errorf("%w: %w", err, asynq.SkipRetry)
	}
	if len(report.Drafts) == 0 {
		return fmt.Errorf("no products found in file: %w", asynq.SkipRetry)
	}

	imported, err := p.catalog.ImportProducts(ctx, job.OwnerID, report.Drafts)
	if err != nil {
		if errors.Is(err, domain.ErrValidation) || errors.Is(err, domain.ErrOwnerNotFound) {
			return fmt.Errorf("%w: %w", err, asynq.SkipRetry)
		}
		return fmt.Errorf("failed to import products: %w", err)
	}

	job.Result = map[string]int{
		"rows":     report.Rows,
		"imported": imported,
		"skipped":  len(report.Skipped),
	}
	if len(report.Skipped) > 0 {
		job.Meta = make(map[string]string, min(len(report.Skipped), maxReportedSkips))
		for i, reason := range report.Skipped {
			if i == maxReportedSkips {
				break
			}
			job.Meta[fmt.Sprintf("skipped_%d", i+1)] = reason
		}
	}

	p.logger.InfoContext(ctx, "product import completed",
		slog.String("job_id", job.ID),
		slog.Int("rows", report.Rows),
		slog.Int("imported", imported),
		slog.Int("skipped", len(report.Skipped)))
	return nil
}
