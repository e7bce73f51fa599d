// internal/core/domain/job.go
package domain

import (
	"errors"
	"time"

	"github.com/google/uuid"
)

// ErrJobNotFound is returned for unknown or expired jobs
var ErrJobNotFound = errors.New("job not found")

// JobKind names an asynchronous job
type JobKind string

// Job kinds
const (
	JobSalesExport   JobKind = "sales_export"
	JobProductImport JobKind = "product_import"
)

// JobStatus is the progress of an asynchronous job
type JobStatus string

// Job statuses
const (
	JobQueued     JobStatus = "queued"
	JobProcessing JobStatus = "processing"
	JobCompleted  JobStatus = "completed"
	JobFailed     JobStatus = "failed"
)

// Job tracks one export or import request
type Job struct {
	ID         string            `json:"id"`
	Kind       JobKind           `json:"kind"`
	OwnerID    uuid.UUID         `json:"owner_id"`
	Status     JobStatus         `json:"status"`
	ObjectKey  string            `json:"object_key,omitempty"`
	Format     string            `json:"format,omitempty"`
	From       time.Time         `json:"from,omitempty"`
	To         time.Time         `json:"to,omitempty"`
	Error      string            `json:"error,omitempty"`
	Result     map[string]int    `json:"result,omitempty"`
	Meta       map[string]string `json:"meta,omitempty"`
	CreatedAt  time.Time         `json:"created_at"`
	UpdatedAt  time.Time         `json:"updated_at"`
	FinishedAt *time.Time        `json:"finished_at,omitempty"`
}

// NewJob creates a queued job
func NewJob(kind JobKind, ownerID uuid.UUID, now time.Time) *Job {
	return &Job{
		ID:        uuid.NewString(),
		Kind:      kind,
		OwnerID:   ownerID,
		Status:    JobQueued,
		CreatedAt: now,
		UpdatedAt: now,
	}
}

// Start marks the job as processing
func (j *Job) Start(now time.Time) {
	j.Status = JobProcessing
	j.UpdatedAt = now
}

// Complete records success
func (j *Job) Complete(now time.Time) {
	j.Status = JobCompleted
	j.Error = ""
	j.UpdatedAt = now
	j.FinishedAt = &now
}

// Fail records the failure message
func (j *Job) Fail(err error, now time.Time) {
	j.Status = JobFailed
	j.Error = err.Error()
	j.UpdatedAt = now
	j.FinishedAt = &now
}
