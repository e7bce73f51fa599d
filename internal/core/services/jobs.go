// internal/core/services/jobs.go
package services

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/ammerola/stockledger-be/internal/core/domain"
	"github.com/ammerola/stockledger-be/internal/core/ports"
)

const downloadURLExpiry = 15 * time.Minute

// JobService reports export and import progress
type JobService struct {
	jobs    ports.JobStore
	storage ports.FileStorage
	logger  *slog.Logger
}

// Statically assert that *JobService implements the JobService interface.
var _ ports.JobService = (*JobService)(nil)

// NewJobService creates a new job service
func NewJobService(jobs ports.JobStore, storage ports.FileStorage, logger *slog.Logger) *JobService {
	return &JobService{
		jobs:    jobs,
		storage: storage,
		logger:  logger.With(slog.String("service", "jobs")),
	}
}

// GetJob returns the job and, for a finished export, a download URL
func (s *JobService) GetJob(ctx context.Context, ownerID uuid.UUID, jobID string) (*domain.Job, string, error) {
	job, err := s.jobs.Get(ctx, jobID)
	if err != nil {
		return nil, "", err
	}
	if job.OwnerID != ownerID {
		return nil, "", domain.ErrJobNotFound
	}

	if job.Kind != domain.JobSalesExport || job.Status != domain.JobCompleted || job.ObjectKey == "" {
		return job, "", nil
	}

	url, err := s.storage.GetPresignedURL(ctx, job.ObjectKey, downloadURLExpiry)
	if err != nil {
		return nil, "", fmt.Errorf("failed to presign export: %w", err)
	}
	return job, url, nil
}
