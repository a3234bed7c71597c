package jobs

import (
	"context"
	"errors"
	"fmt"
	"math/rand"
	"sync"
	"sync/atomic"
	"time"

	"golang.org/x/time/rate"

	"github.com/ternarybob/invenio/internal/common"
	"github.com/ternarybob/invenio/internal/interfaces"
	"github.com/ternarybob/invenio/internal/models"
)

// minEmailInterval floors the configurable email-crawl pacing.
const minEmailInterval = 100 * time.Millisecond

// itemOutcome is one worker's report for one facility. A skipped outcome
// means cancellation drained the item before processing; it does not count
// toward processed items.
type itemOutcome struct {
	level   string
	skipped bool
}

// discoveryJitter spaces discovery lookups 0.8 to 1.8 seconds apart so the
// search backend sees an organic request pattern.
func discoveryJitter() time.Duration {
	return 800*time.Millisecond + time.Duration(rand.Int63n(1000))*time.Millisecond
}

// runJob drives one job to a terminal state: target selection, the
// queued->running transition that fixes TotalItems, a worker pool over the
// targets, and the terminal transition.
func (s *Service) runJob(jobID string, jobType models.JobType, req *models.JobRequest) {
	ctx := context.Background()

	defer func() {
		if r := recover(); r != nil {
			s.logger.Error().
				Str("job_id", jobID).
				Str("panic", fmt.Sprintf("%v", r)).
				Msg("Job runner panicked")
			s.logToJob(ctx, jobID, models.LogLevelError, fmt.Sprintf("Fatal: %v", r))
			s.finalizeJob(ctx, jobID, models.JobStatusFailed, fmt.Sprintf("panic: %v", r))
		}
	}()

	targets, err := s.resolveTargets(ctx, jobType, req)
	if err != nil {
		s.logToJob(ctx, jobID, models.LogLevelError, fmt.Sprintf("Error: %v", err))
		s.finalizeJob(ctx, jobID, models.JobStatusFailed, err.Error())
		return
	}

	job, err := s.jobStore.GetJob(ctx, jobID)
	if err != nil {
		s.logger.Error().Err(err).Str("job_id", jobID).Msg("Job vanished before start")
		return
	}
	if job.Status == models.JobStatusCancelled {
		// Cancelled while still queued, nothing to do.
		return
	}

	now := time.Now()
	job.Status = models.JobStatusRunning
	job.TotalItems = len(targets)
	job.StartedAt = &now
	if err := s.jobStore.SaveJob(ctx, job); err != nil {
		s.logger.Error().Err(err).Str("job_id", jobID).Msg("Failed to start job")
		return
	}
	s.publishJobEvent(ctx, interfaces.EventJobStarted, job)
	s.logger.Info().
		Str("job_id", jobID).
		Str("type", string(jobType)).
		Int("targets", len(targets)).
		Msg("Starting batch process")

	// One crawl start per interval across the whole pool.
	var limiter *rate.Limiter
	if jobType == models.JobTypeEmailCrawl {
		interval := time.Duration(req.Settings.RateLimit * float64(time.Second))
		if interval < minEmailInterval {
			interval = minEmailInterval
		}
		limiter = rate.NewLimiter(rate.Every(interval), 1)
	}

	workers := s.config.Jobs.Workers
	if workers <= 0 {
		workers = 1
	}
	if workers > len(targets) && len(targets) > 0 {
		workers = len(targets)
	}

	items := make(chan *models.Facility)
	results := make(chan itemOutcome)

	// Set once a status poll observes the cancel; lets the remaining queue
	// drain without a store read per item.
	var cancelled atomic.Bool

	var workerWG sync.WaitGroup
	for i := 0; i < workers; i++ {
		workerWG.Add(1)
		common.SafeGo(s.logger, "jobWorker", func() {
			defer workerWG.Done()
			for facility := range items {
				if cancelled.Load() || s.isCancelled(ctx, jobID) {
					cancelled.Store(true)
					results <- itemOutcome{skipped: true}
					continue
				}
				results <- itemOutcome{level: s.processItem(ctx, jobID, jobType, facility, limiter)}
			}
		})
	}

	common.SafeGo(s.logger, "jobFeeder", func() {
		defer close(items)
		for _, facility := range targets {
			items <- facility
		}
	})

	common.SafeGo(s.logger, "jobResultsCloser", func() {
		workerWG.Wait()
		close(results)
	})

	processed := 0
	errorCount := 0
	for outcome := range results {
		// Poll before accounting each completion so a cancel stops the
		// aggregate writes immediately.
		if !cancelled.Load() && s.isCancelled(ctx, jobID) {
			cancelled.Store(true)
		}
		if outcome.skipped {
			continue
		}
		processed++
		if outcome.level == models.LogLevelError {
			errorCount++
		}
		if cancelled.Load() {
			continue
		}
		s.persistProgress(ctx, jobID, processed, errorCount)
	}

	final, err := s.jobStore.GetJob(ctx, jobID)
	if err != nil {
		s.logger.Error().Err(err).Str("job_id", jobID).Msg("Job vanished before finish")
		return
	}
	if final.Status == models.JobStatusRunning {
		if err := s.jobStore.UpdateJobStatus(ctx, jobID, models.JobStatusCompleted, ""); err != nil {
			s.logger.Warn().Err(err).Str("job_id", jobID).Msg("Failed to complete job")
			return
		}
		final.Status = models.JobStatusCompleted
		s.publishJobEvent(ctx, interfaces.EventJobCompleted, final)
	}

	s.logger.Info().
		Str("job_id", jobID).
		Str("status", string(final.Status)).
		Int("processed", processed).
		Int("errors", errorCount).
		Int("total", len(targets)).
		Msg("Batch process finished")
}

// resolveTargets picks the facilities a job will work on. Selected mode loads
// each requested UID and drops unknown ones; all mode asks the store for the
// facilities still missing the field this job fills in.
func (s *Service) resolveTargets(ctx context.Context, jobType models.JobType, req *models.JobRequest) ([]*models.Facility, error) {
	if req.Mode == models.JobModeSelected && len(req.UIDs) > 0 {
		targets := make([]*models.Facility, 0, len(req.UIDs))
		for _, uid := range req.UIDs {
			facility, err := s.facilities.GetFacility(ctx, uid)
			if errors.Is(err, interfaces.ErrFacilityNotFound) {
				continue
			}
			if err != nil {
				return nil, fmt.Errorf("failed to load facility %s: %w", uid, err)
			}
			targets = append(targets, facility)
		}
		return targets, nil
	}

	if jobType == models.JobTypeEmailCrawl {
		return s.facilities.ListEmailTargets(ctx)
	}
	return s.facilities.ListWebsiteTargets(ctx)
}

func (s *Service) isCancelled(ctx context.Context, jobID string) bool {
	job, err := s.jobStore.GetJob(ctx, jobID)
	if err != nil {
		return false
	}
	return job.Status == models.JobStatusCancelled
}

// persistProgress writes the processed and error aggregates with a fresh read
// so it never clobbers a status written by the cancel endpoint in between.
func (s *Service) persistProgress(ctx context.Context, jobID string, processed, errorCount int) {
	job, err := s.jobStore.GetJob(ctx, jobID)
	if err != nil {
		s.logger.Warn().Err(err).Str("job_id", jobID).Msg("Failed to read job for progress update")
		return
	}
	if job.Status != models.JobStatusRunning {
		return
	}
	job.ProcessedItems = processed
	job.ErrorCount = errorCount
	if err := s.jobStore.SaveJob(ctx, job); err != nil {
		s.logger.Warn().Err(err).Str("job_id", jobID).Msg("Failed to persist job progress")
		return
	}
	s.publishJobEvent(ctx, interfaces.EventJobProgress, job)
}

// finalizeJob forces a terminal status outside the normal completion path.
func (s *Service) finalizeJob(ctx context.Context, jobID string, status models.JobStatus, errMsg string) {
	if err := s.jobStore.UpdateJobStatus(ctx, jobID, status, errMsg); err != nil {
		s.logger.Warn().Err(err).Str("job_id", jobID).Msg("Failed to finalize job")
		return
	}
	job, err := s.jobStore.GetJob(ctx, jobID)
	if err != nil {
		return
	}
	eventType := interfaces.EventJobCompleted
	switch status {
	case models.JobStatusFailed:
		eventType = interfaces.EventJobFailed
	case models.JobStatusCancelled:
		eventType = interfaces.EventJobCancelled
	}
	s.publishJobEvent(ctx, eventType, job)
}

// processItem runs one facility through the job's enrichment step and returns
// the outcome log level. A panic while processing becomes an ERROR outcome
// instead of a dead worker.
func (s *Service) processItem(ctx context.Context, jobID string, jobType models.JobType, facility *models.Facility, limiter *rate.Limiter) (level string) {
	defer func() {
		if r := recover(); r != nil {
			level = models.LogLevelError
			s.logToJob(ctx, jobID, models.LogLevelError, fmt.Sprintf("Error: %v", r))
		}
	}()

	if jobType == models.JobTypeEmailCrawl {
		return s.processEmailItem(ctx, jobID, facility, limiter)
	}
	return s.processDiscoveryItem(ctx, jobID, facility)
}

func (s *Service) processDiscoveryItem(ctx context.Context, jobID string, facility *models.Facility) string {
	s.sleep(discoveryJitter())

	s.logToJob(ctx, jobID, models.LogLevelInfo,
		fmt.Sprintf("Processing: %s (%s)", facility.Name, facility.City))

	result := s.discovery.FindWebsite(ctx, facility.Name, facility.City)

	if result != nil && result.Found() {
		source := string(result.Source)
		if source == "" {
			source = "unknown"
		}
		facility.SetWebsite(result.URL, source, result.Score)
		if err := s.facilities.SaveFacility(ctx, facility); err != nil {
			s.logToJob(ctx, jobID, models.LogLevelError, fmt.Sprintf("Error: %v", err))
			return models.LogLevelError
		}
		s.logToJob(ctx, jobID, models.LogLevelSuccess,
			fmt.Sprintf("Found: %s (score: %.0f, source: %s)", result.URL, result.Score, source))
		return models.LogLevelSuccess
	}

	reason := string(models.ReasonNoMatch)
	if result != nil && result.Reason != "" {
		reason = string(result.Reason)
	}
	facility.SetWebsite("", "", 0)
	if err := s.facilities.SaveFacility(ctx, facility); err != nil {
		s.logToJob(ctx, jobID, models.LogLevelError, fmt.Sprintf("Error: %v", err))
		return models.LogLevelError
	}
	s.logToJob(ctx, jobID, models.LogLevelWarning,
		fmt.Sprintf("Not found: %s | reason: %s", facility.Name, reason))
	return models.LogLevelWarning
}

func (s *Service) processEmailItem(ctx context.Context, jobID string, facility *models.Facility, limiter *rate.Limiter) string {
	if facility.Website == "" {
		// Selected targets may lack a website. Counted, no outcome log.
		return models.LogLevelInfo
	}

	if limiter != nil {
		if err := limiter.Wait(ctx); err != nil {
			return models.LogLevelError
		}
	}

	s.logToJob(ctx, jobID, models.LogLevelInfo,
		fmt.Sprintf("Processing: %s (%s)", facility.Name, facility.City))

	result := s.crawler.CrawlForEmail(ctx, facility.Website, s.config.Crawler.MaxPages)

	if result != nil && result.Email != "" {
		facility.SetEmail(result.Email, result.Source)
		if err := s.facilities.SaveFacility(ctx, facility); err != nil {
			s.logToJob(ctx, jobID, models.LogLevelError, fmt.Sprintf("Error: %v", err))
			return models.LogLevelError
		}
		s.logToJob(ctx, jobID, models.LogLevelSuccess,
			fmt.Sprintf("Found: %s (score: %.0f)", result.Email, result.Score))
		return models.LogLevelSuccess
	}

	facility.SetEmail("", "")
	if err := s.facilities.SaveFacility(ctx, facility); err != nil {
		s.logToJob(ctx, jobID, models.LogLevelError, fmt.Sprintf("Error: %v", err))
		return models.LogLevelError
	}
	s.logToJob(ctx, jobID, models.LogLevelWarning,
		fmt.Sprintf("Not found: %s | reason: no_email_found", facility.Name))
	return models.LogLevelWarning
}
