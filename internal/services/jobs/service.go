package jobs

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/ternarybob/arbor"

	"github.com/ternarybob/invenio/internal/common"
	"github.com/ternarybob/invenio/internal/interfaces"
	"github.com/ternarybob/invenio/internal/models"
)

// Service runs enrichment jobs over the facility catalog. Each job gets a
// bounded worker pool, per-item outcome logs, and cooperative cancellation
// driven by status polls at item boundaries.
type Service struct {
	config     *common.Config
	facilities interfaces.FacilityStorage
	jobStore   interfaces.JobStorage
	logStore   interfaces.JobLogStorage
	discovery  interfaces.DiscoveryService
	crawler    interfaces.CrawlerService
	events     interfaces.EventService
	logger     arbor.ILogger

	wg sync.WaitGroup

	// sleep is swapped out in tests to keep the discovery jitter off the
	// test clock.
	sleep func(time.Duration)
}

// NewService creates a job service backed by the given stores and enrichment
// services.
func NewService(
	config *common.Config,
	facilities interfaces.FacilityStorage,
	jobStore interfaces.JobStorage,
	logStore interfaces.JobLogStorage,
	discovery interfaces.DiscoveryService,
	crawler interfaces.CrawlerService,
	events interfaces.EventService,
	logger arbor.ILogger,
) interfaces.JobService {
	if logger == nil {
		logger = common.GetLogger()
	}
	return &Service{
		config:     config,
		facilities: facilities,
		jobStore:   jobStore,
		logStore:   logStore,
		discovery:  discovery,
		crawler:    crawler,
		events:     events,
		logger:     logger,
		sleep:      time.Sleep,
	}
}

// Ensure Service implements the JobService interface
var _ interfaces.JobService = (*Service)(nil)

// StartDiscoveryJob queues a website-discovery run and launches it in the
// background.
func (s *Service) StartDiscoveryJob(ctx context.Context, req *models.JobRequest) (*models.Job, error) {
	return s.startJob(ctx, models.JobTypeDiscovery, req)
}

// StartEmailJob queues an email-crawl run and launches it in the background.
func (s *Service) StartEmailJob(ctx context.Context, req *models.JobRequest) (*models.Job, error) {
	return s.startJob(ctx, models.JobTypeEmailCrawl, req)
}

func (s *Service) startJob(ctx context.Context, jobType models.JobType, req *models.JobRequest) (*models.Job, error) {
	if req == nil {
		req = &models.JobRequest{Mode: models.JobModeAll}
	}

	job := models.NewJob(jobType)
	if err := s.jobStore.SaveJob(ctx, job); err != nil {
		return nil, fmt.Errorf("failed to create job: %w", err)
	}

	s.publishJobEvent(ctx, interfaces.EventJobQueued, job)
	s.logger.Info().
		Str("job_id", job.ID).
		Str("type", string(jobType)).
		Str("mode", req.Mode).
		Msg("Job queued")

	s.wg.Add(1)
	common.SafeGo(s.logger, "runJob", func() {
		defer s.wg.Done()
		s.runJob(job.ID, jobType, req)
	})

	return job, nil
}

// CancelJob marks a job cancelled. Workers observe the new status at item
// boundaries and drain without processing the remaining queue.
func (s *Service) CancelJob(ctx context.Context, jobID string) error {
	job, err := s.jobStore.GetJob(ctx, jobID)
	if err != nil {
		return err
	}
	if job.Status.IsTerminal() {
		return fmt.Errorf("%w: %s", interfaces.ErrJobNotCancellable, job.Status)
	}

	if err := s.jobStore.UpdateJobStatus(ctx, jobID, models.JobStatusCancelled, ""); err != nil {
		return fmt.Errorf("failed to cancel job: %w", err)
	}

	s.logger.Info().Str("job_id", jobID).Msg("Job cancellation requested")

	job.Status = models.JobStatusCancelled
	s.publishJobEvent(ctx, interfaces.EventJobCancelled, job)
	return nil
}

// FailStaleJobs transitions running jobs with no recent log activity to
// failed. A crashed process leaves its jobs running forever otherwise.
func (s *Service) FailStaleJobs(ctx context.Context) int {
	running, err := s.jobStore.ListJobs(ctx, &interfaces.JobListOptions{Status: models.JobStatusRunning})
	if err != nil {
		s.logger.Warn().Err(err).Msg("Failed to list running jobs")
		return 0
	}

	timeout := s.config.Jobs.StaleJobTimeout
	failed := 0
	for _, job := range running {
		lastActivity := job.CreatedAt
		if job.StartedAt != nil {
			lastActivity = *job.StartedAt
		}
		if logs, err := s.logStore.GetLogs(ctx, job.ID, 1); err == nil && len(logs) > 0 {
			if t := logs[0].Time(); !t.IsZero() {
				lastActivity = t
			}
		}
		if time.Since(lastActivity) <= timeout {
			continue
		}

		if err := s.jobStore.UpdateJobStatus(ctx, job.ID, models.JobStatusFailed, "stale: no recent activity"); err != nil {
			s.logger.Warn().Err(err).Str("job_id", job.ID).Msg("Failed to mark stale job as failed")
			continue
		}
		s.logToJob(ctx, job.ID, models.LogLevelError,
			fmt.Sprintf("No activity for %s, marking as failed", timeout))

		job.Status = models.JobStatusFailed
		s.publishJobEvent(ctx, interfaces.EventJobFailed, job)
		failed++
	}

	if failed > 0 {
		s.logger.Warn().Int("count", failed).Msg("Marked stale jobs as failed")
	}
	return failed
}

// Wait blocks until every launched job has reached a terminal state.
func (s *Service) Wait() {
	s.wg.Wait()
}

// logToJob appends a log line to the job's persistent log, echoes it to the
// console logger and publishes it for live streaming.
func (s *Service) logToJob(ctx context.Context, jobID, level, message string) {
	entry := models.NewJobLogEntry(jobID, level, message)
	if err := s.logStore.AppendLog(ctx, entry); err != nil {
		s.logger.Warn().Err(err).Str("job_id", jobID).Msg("Failed to append job log")
	}

	jobLogger := s.logger.WithCorrelationId(jobID)
	switch level {
	case models.LogLevelWarning:
		jobLogger.Warn().Msg(message)
	case models.LogLevelError:
		jobLogger.Error().Msg(message)
	default:
		jobLogger.Info().Msg(message)
	}

	if s.events == nil {
		return
	}
	s.events.Publish(ctx, interfaces.Event{
		Type: interfaces.EventJobLog,
		Payload: map[string]interface{}{
			"job_id":    jobID,
			"level":     level,
			"message":   message,
			"timestamp": entry.Timestamp,
		},
	})
}

func (s *Service) publishJobEvent(ctx context.Context, eventType interfaces.EventType, job *models.Job) {
	if s.events == nil {
		return
	}
	s.events.Publish(ctx, interfaces.Event{
		Type: eventType,
		Payload: map[string]interface{}{
			"job_id":          job.ID,
			"type":            string(job.Type),
			"status":          string(job.Status),
			"total_items":     job.TotalItems,
			"processed_items": job.ProcessedItems,
			"error_count":     job.ErrorCount,
		},
	})
}
