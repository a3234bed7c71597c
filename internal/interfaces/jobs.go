package interfaces

import (
	"context"

	"github.com/ternarybob/invenio/internal/models"
)

// JobStatusView is a job joined with its log-derived counters and progress,
// the shape returned by the job endpoints.
type JobStatusView struct {
	Job      *models.Job          `json:"job"`
	Logs     []models.JobLogEntry `json:"logs,omitempty"`
	Progress *models.JobProgress  `json:"progress,omitempty"`
	Counters map[string]int       `json:"counters,omitempty"`
}

// JobService owns the enrichment job lifecycle: creation, the worker pool,
// progress derivation and cooperative cancellation.
type JobService interface {
	// StartDiscoveryJob queues and launches a website-discovery run.
	StartDiscoveryJob(ctx context.Context, req *models.JobRequest) (*models.Job, error)

	// StartEmailJob queues and launches an email-crawl run.
	StartEmailJob(ctx context.Context, req *models.JobRequest) (*models.Job, error)

	// GetJob returns one job with logs and derived progress.
	GetJob(ctx context.Context, jobID string) (*JobStatusView, error)

	// ListJobs returns jobs with running ones first, then newest first.
	ListJobs(ctx context.Context) ([]*JobStatusView, error)

	// CancelJob requests cooperative cancellation. Workers observe the status
	// at item boundaries; the job transitions to cancelled once drained.
	CancelJob(ctx context.Context, jobID string) error

	// FailStaleJobs marks running jobs without recent log activity as failed.
	// Returns the number of jobs transitioned.
	FailStaleJobs(ctx context.Context) int

	// Wait blocks until all running jobs have drained, for shutdown.
	Wait()
}
