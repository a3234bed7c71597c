package interfaces

import (
	"context"
	"errors"
	"time"

	"github.com/ternarybob/invenio/internal/models"
)

// ErrFacilityNotFound is returned when a facility ID has no record.
var ErrFacilityNotFound = errors.New("facility not found")

// ErrJobNotFound is returned when a job ID has no record.
var ErrJobNotFound = errors.New("job not found")

// ErrJobNotCancellable is returned when cancellation is requested for a job
// already in a terminal state.
var ErrJobNotCancellable = errors.New("job is not cancellable")

// ErrCacheMiss is returned by cache storage when a key is absent.
var ErrCacheMiss = errors.New("cache miss")

// FacilityListOptions filters and pages facility queries.
type FacilityListOptions struct {
	Page         int
	Limit        int
	City         string
	Type         string
	Search       string
	StatusFilter string // pending | not_found | has_website | has_email
}

// FacilityStorage persists the accommodation catalog.
type FacilityStorage interface {
	SaveFacility(ctx context.Context, facility *models.Facility) error
	GetFacility(ctx context.Context, id string) (*models.Facility, error)
	GetFacilityByRawID(ctx context.Context, rawID string) (*models.Facility, error)
	ListFacilities(ctx context.Context, opts *FacilityListOptions) ([]*models.Facility, int, error)
	ListAllFacilities(ctx context.Context) ([]*models.Facility, error)
	ListWebsiteTargets(ctx context.Context) ([]*models.Facility, error)
	ListEmailTargets(ctx context.Context) ([]*models.Facility, error)
	CountFacilities(ctx context.Context) (int, error)
	GetStats(ctx context.Context) (*models.FacilityStats, error)
	GetTypeCounts(ctx context.Context) ([]models.TypeCount, error)
	DeleteAll(ctx context.Context) error
}

// JobListOptions filters job queries.
type JobListOptions struct {
	Status models.JobStatus
	Type   models.JobType
	Limit  int
}

// JobStorage persists enrichment jobs.
type JobStorage interface {
	SaveJob(ctx context.Context, job *models.Job) error
	GetJob(ctx context.Context, jobID string) (*models.Job, error)
	ListJobs(ctx context.Context, opts *JobListOptions) ([]*models.Job, error)
	UpdateJobStatus(ctx context.Context, jobID string, status models.JobStatus, errorMsg string) error
}

// JobLogStorage persists append-only job log lines.
type JobLogStorage interface {
	AppendLog(ctx context.Context, entry models.JobLogEntry) error
	GetLogs(ctx context.Context, jobID string, limit int) ([]models.JobLogEntry, error)
	GetLogsByLevel(ctx context.Context, jobID string, level string, limit int) ([]models.JobLogEntry, error)
	CountLogsByLevel(ctx context.Context, jobID string) (map[string]int, error)
	DeleteLogs(ctx context.Context, jobID string) error
}

// CacheStorage is the persistent layer under the TTL cache. Get returns
// ErrCacheMiss for absent keys; freshness policy lives in the cache service.
type CacheStorage interface {
	Get(ctx context.Context, ns models.CacheNamespace, key string) (*models.CacheEntry, error)
	Put(ctx context.Context, ns models.CacheNamespace, key string, payload []byte, checkedAt time.Time) error
	DeleteOlderThan(ctx context.Context, ns models.CacheNamespace, cutoff time.Time) (int, error)
	DeleteNamespace(ctx context.Context, ns models.CacheNamespace) (int, error)
	Count(ctx context.Context, ns models.CacheNamespace) (int, error)
}

// StorageManager - composite interface for all storage operations
type StorageManager interface {
	FacilityStorage() FacilityStorage
	JobStorage() JobStorage
	JobLogStorage() JobLogStorage
	CacheStorage() CacheStorage

	// RunGC reclaims value-log space. Badger never garbage-collects on its
	// own, so the scheduler calls this nightly.
	RunGC(ctx context.Context) error

	Close() error
}
