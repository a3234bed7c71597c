package scheduler

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/robfig/cron/v3"
	"github.com/ternarybob/arbor"
	"github.com/ternarybob/invenio/internal/common"
	"github.com/ternarybob/invenio/internal/interfaces"
)

const (
	// cacheSweepJob is the built-in maintenance job that evicts expired
	// cache entries on the configured schedule.
	cacheSweepJob = "cache_sweep"

	// staleCheckInterval is how often running jobs are checked for activity.
	staleCheckInterval = 5 * time.Minute
)

// jobEntry represents a registered job with metadata
type jobEntry struct {
	name        string
	schedule    string
	description string
	handler     func() error
	cronID      cron.EntryID
	lastRun     *time.Time
	isRunning   bool
	lastError   string
}

// Service implements SchedulerService interface
type Service struct {
	config       *common.Config
	cacheService interfaces.CacheService
	jobService   interfaces.JobService
	cron         *cron.Cron
	logger       arbor.ILogger
	jobMu        sync.Mutex // Protects jobs map
	globalMu     sync.Mutex // Prevents concurrent job execution
	jobs         map[string]*jobEntry
	running      bool
	staleTicker  *time.Ticker
	staleDone    chan struct{}
}

var _ interfaces.SchedulerService = (*Service)(nil)

// NewService creates a cron-backed scheduler. The cache and job services may
// be nil; the corresponding built-in maintenance is skipped.
func NewService(config *common.Config, cacheService interfaces.CacheService, jobService interfaces.JobService, logger arbor.ILogger) interfaces.SchedulerService {
	if logger == nil {
		logger = common.GetLogger()
	}
	return &Service{
		config:       config,
		cacheService: cacheService,
		jobService:   jobService,
		cron:         cron.New(),
		logger:       logger,
		jobs:         make(map[string]*jobEntry),
	}
}

// Start registers the built-in jobs and begins the cron loop
func (s *Service) Start() error {
	if s.running {
		return fmt.Errorf("scheduler already running")
	}

	if !s.config.Scheduler.Enabled {
		s.logger.Info().Msg("Scheduler disabled by configuration")
		return nil
	}

	if schedule := s.config.Scheduler.CacheSweepSchedule; schedule != "" && s.cacheService != nil {
		err := s.RegisterJob(cacheSweepJob, schedule, "Remove cache entries older than their namespace TTL", s.runCacheSweep)
		if err != nil {
			return fmt.Errorf("failed to register cache sweep: %w", err)
		}
	}

	s.cron.Start()
	s.running = true

	// Launch stale job detector goroutine
	if s.jobService != nil {
		s.staleTicker = time.NewTicker(staleCheckInterval)
		s.staleDone = make(chan struct{})
		go s.staleJobDetectorLoop()
		s.logger.Info().Msg("Stale job detector started (5 minute interval)")
	}

	s.logger.Info().Msg("Scheduler started")
	return nil
}

// Stop halts the cron loop and the stale job detector
func (s *Service) Stop() error {
	if !s.running {
		return nil
	}

	if s.staleTicker != nil {
		s.staleTicker.Stop()
		close(s.staleDone)
		s.logger.Info().Msg("Stale job detector stopped")
	}

	s.cron.Stop()
	s.running = false

	s.logger.Info().Msg("Scheduler stopped")
	return nil
}

// IsRunning returns true if scheduler is active
func (s *Service) IsRunning() bool {
	return s.running
}

// RegisterJob registers a new job with the scheduler
func (s *Service) RegisterJob(name, schedule, description string, handler func() error) error {
	// Validate schedule before attempting to register
	if err := common.ValidateJobSchedule(schedule); err != nil {
		return fmt.Errorf("invalid schedule: %w", err)
	}

	s.jobMu.Lock()
	defer s.jobMu.Unlock()

	if _, exists := s.jobs[name]; exists {
		return fmt.Errorf("job %s already registered", name)
	}

	entry := &jobEntry{
		name:        name,
		schedule:    schedule,
		description: description,
		handler:     handler,
	}

	cronID, err := s.cron.AddFunc(schedule, func() {
		s.executeJob(name)
	})
	if err != nil {
		return fmt.Errorf("failed to add job to cron: %w", err)
	}

	entry.cronID = cronID
	s.jobs[name] = entry

	s.logger.Info().
		Str("job_name", name).
		Str("schedule", schedule).
		Msg("Job registered")

	return nil
}

// TriggerJob manually triggers a specific job to run immediately
func (s *Service) TriggerJob(name string) error {
	s.jobMu.Lock()
	entry, exists := s.jobs[name]
	if !exists {
		s.jobMu.Unlock()
		return fmt.Errorf("job %s not found", name)
	}

	if entry.isRunning {
		s.jobMu.Unlock()
		return fmt.Errorf("job %s is already running", name)
	}
	s.jobMu.Unlock()

	s.logger.Info().
		Str("job_name", name).
		Msg("Manually triggering job execution")

	go s.executeJob(name)

	return nil
}

// GetJobStatus returns the status of a specific job
func (s *Service) GetJobStatus(name string) (*interfaces.ScheduledJobStatus, error) {
	s.jobMu.Lock()
	defer s.jobMu.Unlock()

	entry, exists := s.jobs[name]
	if !exists {
		return nil, fmt.Errorf("job %s not found", name)
	}

	// Get next run time from cron
	var nextRun *time.Time
	for _, cronEntry := range s.cron.Entries() {
		if cronEntry.ID == entry.cronID {
			if next := cronEntry.Next; !next.IsZero() {
				nextRun = &next
			}
			break
		}
	}

	return &interfaces.ScheduledJobStatus{
		Name:        entry.name,
		Schedule:    entry.schedule,
		Description: entry.description,
		LastRun:     entry.lastRun,
		NextRun:     nextRun,
		IsRunning:   entry.isRunning,
		LastError:   entry.lastError,
	}, nil
}

// GetAllJobStatuses returns all job statuses
func (s *Service) GetAllJobStatuses() map[string]*interfaces.ScheduledJobStatus {
	// Copy job names while holding lock to avoid concurrent map iteration
	s.jobMu.Lock()
	names := make([]string, 0, len(s.jobs))
	for name := range s.jobs {
		names = append(names, name)
	}
	s.jobMu.Unlock()

	// Build statuses without holding lock (GetJobStatus has its own locking)
	statuses := make(map[string]*interfaces.ScheduledJobStatus)
	for _, name := range names {
		status, err := s.GetJobStatus(name)
		if err == nil {
			statuses[name] = status
		}
	}

	return statuses
}

// executeJob wraps job execution with mutex, panic recovery, and status tracking
func (s *Service) executeJob(name string) {
	defer func() {
		if r := recover(); r != nil {
			s.logger.Error().
				Str("job_name", name).
				Str("panic", fmt.Sprintf("%v", r)).
				Msg("PANIC RECOVERED in job execution")

			s.jobMu.Lock()
			if entry, exists := s.jobs[name]; exists {
				entry.isRunning = false
				entry.lastError = fmt.Sprintf("panic: %v", r)
			}
			s.jobMu.Unlock()
		}
	}()

	// Acquire global mutex to prevent concurrent execution
	s.globalMu.Lock()
	defer s.globalMu.Unlock()

	s.logger.Info().
		Str("job_name", name).
		Msg("🚀 Job execution started")

	s.jobMu.Lock()
	entry, exists := s.jobs[name]
	if !exists {
		s.jobMu.Unlock()
		s.logger.Warn().
			Str("job_name", name).
			Msg("Job not found")
		return
	}

	entry.isRunning = true
	started := time.Now()
	handler := entry.handler
	s.jobMu.Unlock()

	err := handler()

	completed := time.Now()
	s.jobMu.Lock()
	entry.isRunning = false
	entry.lastRun = &completed
	if err != nil {
		entry.lastError = err.Error()
	} else {
		entry.lastError = ""
	}
	s.jobMu.Unlock()

	if err != nil {
		s.logger.Error().
			Str("job_name", name).
			Err(err).
			Dur("duration", time.Since(started)).
			Msg("❌ Job execution failed")
	} else {
		s.logger.Info().
			Str("job_name", name).
			Dur("duration", time.Since(started)).
			Msg("✅ Job execution completed successfully")
	}
}

// runCacheSweep is the handler for the built-in cache sweep job.
func (s *Service) runCacheSweep() error {
	removed := s.cacheService.Sweep(context.Background())
	s.logger.Info().Int("removed", removed).Msg("Cache sweep completed")
	return nil
}

// staleJobDetectorLoop periodically fails running jobs with no recent activity.
func (s *Service) staleJobDetectorLoop() {
	for {
		select {
		case <-s.staleDone:
			return
		case <-s.staleTicker.C:
			if count := s.jobService.FailStaleJobs(context.Background()); count > 0 {
				s.logger.Warn().Int("count", count).Msg("Marked stale jobs as failed")
			}
		}
	}
}
