package jobs

import (
	"context"
	"sort"
	"strings"
	"time"

	"github.com/ternarybob/invenio/internal/interfaces"
	"github.com/ternarybob/invenio/internal/models"
)

const (
	// jobLogLimit caps the log rows returned per status request.
	jobLogLimit = 200

	// completionWindow is how many recent completion logs feed the
	// remaining-time estimate.
	completionWindow = 20

	// jobListLimit caps the jobs listing.
	jobListLimit = 100
)

// GetJob returns one job with its recent logs oldest-first and the progress
// figures derived from them.
func (s *Service) GetJob(ctx context.Context, jobID string) (*interfaces.JobStatusView, error) {
	job, err := s.jobStore.GetJob(ctx, jobID)
	if err != nil {
		return nil, err
	}

	logsDesc, err := s.logStore.GetLogs(ctx, jobID, jobLogLimit)
	if err != nil {
		s.logger.Warn().Err(err).Str("job_id", jobID).Msg("Failed to load job logs")
		logsDesc = nil
	}

	counts, err := s.logStore.CountLogsByLevel(ctx, jobID)
	if err != nil {
		s.logger.Warn().Err(err).Str("job_id", jobID).Msg("Failed to count job logs")
		counts = map[string]int{}
	}

	progress := deriveProgress(job, logsDesc)
	progress.SuccessCount = counts[models.LogLevelSuccess]
	progress.WarningCount = counts[models.LogLevelWarning]
	progress.ErrorCount = counts[models.LogLevelError]

	// Oldest-first for display; the store returns newest-first.
	logs := make([]models.JobLogEntry, len(logsDesc))
	for i, entry := range logsDesc {
		logs[len(logsDesc)-1-i] = entry
	}

	return &interfaces.JobStatusView{
		Job:      job,
		Logs:     logs,
		Progress: progress,
		Counters: outcomeCounters(counts),
	}, nil
}

// ListJobs returns every known job, active ones first, each with elapsed time
// and outcome counters but without logs.
func (s *Service) ListJobs(ctx context.Context) ([]*interfaces.JobStatusView, error) {
	jobs, err := s.jobStore.ListJobs(ctx, &interfaces.JobListOptions{Limit: jobListLimit})
	if err != nil {
		return nil, err
	}

	// The store orders newest-first already; a stable sort lifts the active
	// jobs without disturbing that.
	sort.SliceStable(jobs, func(i, j int) bool {
		return statusRank(jobs[i].Status) < statusRank(jobs[j].Status)
	})

	views := make([]*interfaces.JobStatusView, 0, len(jobs))
	for _, job := range jobs {
		counts, err := s.logStore.CountLogsByLevel(ctx, job.ID)
		if err != nil {
			counts = map[string]int{}
		}
		views = append(views, &interfaces.JobStatusView{
			Job: job,
			Progress: &models.JobProgress{
				ElapsedSeconds:  elapsedSince(job.CreatedAt, job.FinishedAt),
				SuccessCount:    counts[models.LogLevelSuccess],
				WarningCount:    counts[models.LogLevelWarning],
				ErrorCount:      counts[models.LogLevelError],
				NotFoundReasons: map[string]int{},
			},
			Counters: outcomeCounters(counts),
		})
	}
	return views, nil
}

func statusRank(status models.JobStatus) int {
	switch status {
	case models.JobStatusRunning:
		return 0
	case models.JobStatusQueued:
		return 1
	default:
		return 2
	}
}

func elapsedSince(start time.Time, finished *time.Time) float64 {
	end := time.Now()
	if finished != nil {
		end = *finished
	}
	if !end.After(start) {
		return 0
	}
	return end.Sub(start).Seconds()
}

// outcomeCounters maps log levels to the found/not-found counters the job
// endpoints expose. The outcome log grammar guarantees one SUCCESS line per
// found item and one WARNING line per not-found item.
func outcomeCounters(counts map[string]int) map[string]int {
	return map[string]int{
		"found":     counts[models.LogLevelSuccess],
		"not_found": counts[models.LogLevelWarning],
	}
}

// deriveProgress recomputes display figures from the job row and its newest
// logs (newest-first). Elapsed starts at the oldest fetched log when one
// exists: time spent queued waiting for a worker is not progress.
func deriveProgress(job *models.Job, logsDesc []models.JobLogEntry) *models.JobProgress {
	progress := &models.JobProgress{NotFoundReasons: map[string]int{}}

	start := job.CreatedAt
	if n := len(logsDesc); n > 0 {
		if t := logsDesc[n-1].Time(); !t.IsZero() {
			start = t
		}
	}
	progress.ElapsedSeconds = elapsedSince(start, job.FinishedAt)

	// The spacing of recent completions estimates the remaining time. With
	// fewer than two completions fall back to the overall average.
	var completions []time.Time
	for _, entry := range logsDesc {
		if len(completions) == completionWindow {
			break
		}
		switch entry.Level {
		case models.LogLevelSuccess, models.LogLevelWarning, models.LogLevelError:
			if t := entry.Time(); !t.IsZero() {
				completions = append(completions, t)
			}
		}
	}

	if remaining := job.TotalItems - job.ProcessedItems; remaining > 0 {
		if avg, ok := completionRate(progress.ElapsedSeconds, job.ProcessedItems, completions); ok {
			progress.EstimatedSeconds = avg * float64(remaining)
			progress.ItemsPerMinute = 60 / avg
		}
	}

	// The newest Processing line names the current item; the newest outcome
	// lines surface as last success and warning.
	for _, entry := range logsDesc {
		if progress.CurrentAction == "" && strings.HasPrefix(entry.Message, "Processing:") {
			progress.CurrentAction = "processing"
			progress.CurrentItem = strings.TrimSpace(strings.TrimPrefix(entry.Message, "Processing:"))
		}
		if progress.LastSuccess == "" && entry.Level == models.LogLevelSuccess {
			progress.LastSuccess = entry.Message
		}
		if progress.LastWarning == "" && entry.Level == models.LogLevelWarning {
			progress.LastWarning = entry.Message
		}
		if progress.CurrentAction != "" && progress.LastSuccess != "" && progress.LastWarning != "" {
			break
		}
	}

	for _, entry := range logsDesc {
		if entry.Level != models.LogLevelWarning {
			continue
		}
		parts := strings.SplitN(entry.Message, "reason:", 2)
		if len(parts) == 2 {
			progress.NotFoundReasons[strings.TrimSpace(parts[1])]++
		}
	}

	return progress
}

// completionRate is the average seconds per item: completion-log spacing when
// at least two completions are visible, overall elapsed per processed item
// otherwise. Floored at 0.1 seconds.
func completionRate(elapsed float64, processed int, completions []time.Time) (float64, bool) {
	var avg float64
	switch {
	case len(completions) >= 2:
		delta := completions[0].Sub(completions[len(completions)-1]).Seconds()
		avg = delta / float64(len(completions)-1)
	case processed > 0:
		avg = elapsed / float64(processed)
	default:
		return 0, false
	}
	if avg < 0.1 {
		avg = 0.1
	}
	return avg, true
}
