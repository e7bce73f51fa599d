// internal/workers/job_runner.go
package workers

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/hibiken/asynq"

	"github.com/ammerola/stockledger-be/internal/core/domain"
	"github.com/ammerola/stockledger-be/internal/core/ports"
)

// jobRunner moves a stored job through processing to completed or failed
type jobRunner struct {
	jobs   ports.JobStore
	now    func() time.Time
	logger *slog.Logger
}

func newJobRunner(jobs ports.JobStore, logger *slog.Logger) jobRunner {
	return jobRunner{
		jobs:   jobs,
		now:    func() time.Time { return time.Now().UTC() },
		logger: logger,
	}
}

func (r jobRunner) run(ctx context.Context, t *asynq.Task, kind domain.JobKind, fn func(context.Context, *domain.Job) error) error {
	var payload JobPayload
	if err := decodePayload(t, &payload); err != nil {
		return err
	}

	job, err := r.jobs.Get(ctx, payload.JobID)
	if errors.Is(err, domain.ErrJobNotFound) {
		r.logger.WarnContext(ctx, "job expired before processing",
			slog.String("job_id", payload.JobID))
		return fmt.Errorf("job %s: %w: %w", payload.JobID, err, asynq.SkipRetry)
	}
	if err != nil {
		return fmt.Errorf("failed to load job: %w", err)
	}
	if job.Kind != kind || job.OwnerID != payload.OwnerID {
		return fmt.Errorf("job %s does not match task %s: %w", job.ID, t.Type(), asynq.SkipRetry)
	}
	if job.Status == domain.JobCompleted {
		return nil
	}

	job.Start(r.now())
	if err := r.jobs.Save(ctx, job); err != nil {
		return fmt.Errorf("failed to save job: %w", err)
	}

	if err := fn(ctx, job); err != nil {
		if errors.Is(err, asynq.SkipRetry) || finalAttempt(ctx) {
			job.Fail(errors.New(jobMessage(err)), r.now())
			if saveErr := r.jobs.Save(ctx, job); saveErr != nil {
				r.logger.ErrorContext(ctx, "failed to record job failure",
					slog.String("job_id", job.ID),
					slog.Any("error", saveErr))
			}
		}
		return err
	}

	job.Complete(r.now())
	if err := r.jobs.Save(ctx, job); err != nil {
		return fmt.Errorf("failed to save job: %w", err)
	}
	return nil
}

// finalAttempt reports whether asynq will not retry a failure of the running task
func finalAttempt(ctx context.Context) bool {
	retried, ok := asynq.GetRetryCount(ctx)
	if !ok {
		return true
	}
	maxRetry, ok := asynq.GetMaxRetry(ctx)
	if !ok {
		return true
	}
	return retried >= maxRetry
}

// jobMessage strips the retry marker from the message shown to job owners
func jobMessage(err error) string {
	return strings.TrimSuffix(err.Error(), ": "+asynq.SkipRetry.Error())
}
