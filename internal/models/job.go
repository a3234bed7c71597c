package models

import (
	"time"

	"github.com/google/uuid"
)

// JobType identifies what an enrichment job does.
type JobType string

const (
	JobTypeDiscovery  JobType = "discovery"
	JobTypeEmailCrawl JobType = "email_crawl"
)

// JobStatus is the job lifecycle state.
type JobStatus string

const (
	JobStatusQueued    JobStatus = "queued"
	JobStatusRunning   JobStatus = "running"
	JobStatusCompleted JobStatus = "completed"
	JobStatusCancelled JobStatus = "cancelled"
	JobStatusFailed    JobStatus = "failed"
)

// IsTerminal reports whether the status admits no further transitions.
func (s JobStatus) IsTerminal() bool {
	return s == JobStatusCompleted || s == JobStatusCancelled || s == JobStatusFailed
}

// Job is one background enrichment run over a set of facilities.
//
// TotalItems is fixed once at the queued->running transition and never
// changes afterwards; ProcessedItems never exceeds it.
type Job struct {
	ID             string     `json:"id" badgerhold:"key"`
	Type           JobType    `json:"job_type" badgerhold:"index"`
	Status         JobStatus  `json:"status" badgerhold:"index"`
	TotalItems     int        `json:"total_items"`
	ProcessedItems int        `json:"processed_items"`
	ErrorCount     int        `json:"error_count"`
	Error          string     `json:"error,omitempty"`
	CreatedAt      time.Time  `json:"created_at"`
	StartedAt      *time.Time `json:"started_at,omitempty"`
	FinishedAt     *time.Time `json:"finished_at,omitempty"`
}

// NewJob creates a queued job of the given type.
func NewJob(jobType JobType) *Job {
	return &Job{
		ID:        uuid.New().String(),
		Type:      jobType,
		Status:    JobStatusQueued,
		CreatedAt: time.Now(),
	}
}

// JobProgress carries the log-derived progress figures for one job.
// Elapsed and EstimatedRemaining are seconds; ItemsPerMinute is derived from
// the spacing of recent completion logs.
type JobProgress struct {
	ElapsedSeconds   float64        `json:"elapsed_seconds"`
	EstimatedSeconds float64        `json:"estimated_remaining_seconds"`
	ItemsPerMinute   float64        `json:"items_per_minute"`
	SuccessCount     int            `json:"success_count"`
	WarningCount     int            `json:"warning_count"`
	ErrorCount       int            `json:"error_count"`
	CurrentAction    string         `json:"current_action"`
	CurrentItem      string         `json:"current_item"`
	LastSuccess      string         `json:"last_success"`
	LastWarning      string         `json:"last_warning"`
	NotFoundReasons  map[string]int `json:"not_found_reasons"`
}
