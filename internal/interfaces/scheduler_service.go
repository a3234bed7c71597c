package interfaces

import "time"

// ScheduledJobStatus describes one registered maintenance job.
type ScheduledJobStatus struct {
	Name        string     `json:"name"`
	Schedule    string     `json:"schedule"`
	Description string     `json:"description"`
	LastRun     *time.Time `json:"last_run,omitempty"`
	NextRun     *time.Time `json:"next_run,omitempty"`
	IsRunning   bool       `json:"is_running"`
	LastError   string     `json:"last_error,omitempty"`
}

// SchedulerService runs recurring maintenance on cron schedules: the nightly
// cache sweep plus a periodic stale-job detector.
type SchedulerService interface {
	// Start registers the built-in jobs and begins the cron loop. A disabled
	// scheduler starts nothing and returns nil.
	Start() error

	// Stop halts the cron loop and the stale-job detector.
	Stop() error

	// IsRunning reports whether the scheduler is active.
	IsRunning() bool

	// RegisterJob adds a named job with a five-field cron schedule.
	RegisterJob(name, schedule, description string, handler func() error) error

	// TriggerJob runs a registered job immediately, outside its schedule.
	TriggerJob(name string) error

	// GetJobStatus returns the status of one registered job.
	GetJobStatus(name string) (*ScheduledJobStatus, error)

	// GetAllJobStatuses returns the status of every registered job keyed by name.
	GetAllJobStatuses() map[string]*ScheduledJobStatus
}
