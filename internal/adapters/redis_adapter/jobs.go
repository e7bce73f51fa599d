// internal/adapters/redis_adapter/jobs.go
package redis_a

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/ammerola/stockledger-be/internal/core/domain"
	"github.com/ammerola/stockledger-be/internal/core/ports"
)

const defaultJobTTL = 7 * 24 * time.Hour

// JobStore keeps export and import job status in redis
type JobStore struct {
	client *redis.Client
	ttl    time.Duration
	logger *slog.Logger
}

var _ ports.JobStore = (*JobStore)(nil)

// NewJobStore creates a job store; ttl <= 0 uses a week
func NewJobStore(client *redis.Client, ttl time.Duration, logger *slog.Logger) *JobStore {
	if ttl <= 0 {
		ttl = defaultJobTTL
	}
	return &JobStore{
		client: client,
		ttl:    ttl,
		logger: logger.With(slog.String("component", "job_store")),
	}
}

// Save writes the job and refreshes its TTL
func (s *JobStore) Save(ctx context.Context, job *domain.Job) error {
	data, err := json.Marshal(job)
	if err != nil {
		return fmt.Errorf("marshal job: %w", err)
	}
	if err := s.client.Set(ctx, BuildKey(PrefixJob, job.ID), data, s.ttl).Err(); err != nil {
		return fmt.Errorf("failed to save job %s: %w", job.ID, err)
	}

	s.logger.DebugContext(ctx, "job saved",
		slog.String("job_id", job.ID),
		slog.String("status", string(job.Status)))
	return nil
}

// Get loads a job; domain.ErrJobNotFound when unknown or expired
func (s *JobStore) Get(ctx context.Context, jobID string) (*domain.Job, error) {
	data, err := s.client.Get(ctx, BuildKey(PrefixJob, jobID)).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, domain.ErrJobNotFound
		}
		return nil, fmt.Errorf("failed to load job %s: %w", jobID, err)
	}

	var job domain.Job
	if err := json.Unmarshal(data, &job); err != nil {
		return nil, fmt.Errorf("unmarshal job: %w", err)
	}
	return &job, nil
}
