package handlers

import (
	"encoding/json"
	"errors"
	"fmt"
	"math"
	"net/http"
	"sort"
	"time"

	"github.com/ternarybob/arbor"
	"github.com/ternarybob/invenio/internal/interfaces"
	"github.com/ternarybob/invenio/internal/models"
)

// JobHandler handles HTTP requests for enrichment job management
type JobHandler struct {
	jobService interfaces.JobService
	logger     arbor.ILogger
}

// NewJobHandler creates a new JobHandler
func NewJobHandler(jobService interfaces.JobService, logger arbor.ILogger) *JobHandler {
	return &JobHandler{
		jobService: jobService,
		logger:     logger,
	}
}

// jobSummary is one row of the jobs listing.
type jobSummary struct {
	JobID            string           `json:"job_id"`
	JobType          models.JobType   `json:"job_type"`
	Status           models.JobStatus `json:"status"`
	Total            int              `json:"total"`
	Done             int              `json:"done"`
	Errors           int              `json:"errors"`
	WebsitesFound    int              `json:"websites_found"`
	WebsitesNotFound int              `json:"websites_not_found"`
	SuccessRate      float64          `json:"success_rate"`
	CreatedAt        time.Time        `json:"created_at"`
	FinishedAt       *time.Time       `json:"finished_at"`
	ElapsedSeconds   int              `json:"elapsed_seconds"`
}

// jobDetail is the full status view of one job, logs oldest-first.
type jobDetail struct {
	JobID                     string           `json:"job_id"`
	Status                    models.JobStatus `json:"status"`
	Total                     int              `json:"total"`
	Done                      int              `json:"done"`
	Errors                    int              `json:"errors"`
	WebsitesFound             int              `json:"websites_found"`
	WebsitesNotFound          int              `json:"websites_not_found"`
	SuccessRate               float64          `json:"success_rate"`
	CreatedAt                 time.Time        `json:"created_at"`
	FinishedAt                *time.Time       `json:"finished_at"`
	ElapsedSeconds            int              `json:"elapsed_seconds"`
	EstimatedRemainingSeconds int              `json:"estimated_remaining_seconds"`
	Logs                      []jobLogView     `json:"logs"`
	CurrentAction             string           `json:"current_action"`
	CurrentItem               string           `json:"current_item"`
	LastSuccess               string           `json:"last_success"`
	LastWarning               string           `json:"last_warning"`
	NotFoundReasons           []reasonCount    `json:"not_found_reasons"`
}

type jobLogView struct {
	Timestamp string `json:"timestamp"`
	Level     string `json:"level"`
	Message   string `json:"message"`
}

type reasonCount struct {
	Reason string `json:"reason"`
	Count  int    `json:"count"`
}

// StartDiscoveryHandler handles POST /api/jobs/website-discovery
func (h *JobHandler) StartDiscoveryHandler(w http.ResponseWriter, r *http.Request) {
	if !RequireMethod(w, r, "POST") {
		return
	}

	req, ok := h.decodeJobRequest(w, r)
	if !ok {
		return
	}

	job, err := h.jobService.StartDiscoveryJob(r.Context(), req)
	if err != nil {
		h.logger.Error().Err(err).Msg("Failed to start discovery job")
		WriteError(w, http.StatusInternalServerError, "Failed to start job")
		return
	}

	WriteJSON(w, http.StatusOK, map[string]string{"job_id": job.ID})
}

// StartEmailHandler handles POST /api/jobs/email-crawl
func (h *JobHandler) StartEmailHandler(w http.ResponseWriter, r *http.Request) {
	if !RequireMethod(w, r, "POST") {
		return
	}

	req, ok := h.decodeJobRequest(w, r)
	if !ok {
		return
	}

	job, err := h.jobService.StartEmailJob(r.Context(), req)
	if err != nil {
		h.logger.Error().Err(err).Msg("Failed to start email crawl job")
		WriteError(w, http.StatusInternalServerError, "Failed to start job")
		return
	}

	WriteJSON(w, http.StatusOK, map[string]string{"job_id": job.ID})
}

// decodeJobRequest decodes a job request body over defaults. An empty object
// selects all pending facilities at the default rate limit.
func (h *JobHandler) decodeJobRequest(w http.ResponseWriter, r *http.Request) (*models.JobRequest, bool) {
	req := models.JobRequest{
		Mode:     models.JobModeAll,
		Settings: models.JobSettings{RateLimit: 1.0},
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		WriteError(w, http.StatusBadRequest, "Invalid JSON body")
		return nil, false
	}
	if err := req.Validate(); err != nil {
		WriteError(w, http.StatusBadRequest, "Invalid request: "+err.Error())
		return nil, false
	}
	return &req, true
}

// ListJobsHandler handles GET /api/jobs
func (h *JobHandler) ListJobsHandler(w http.ResponseWriter, r *http.Request) {
	if !RequireMethod(w, r, "GET") {
		return
	}

	views, err := h.jobService.ListJobs(r.Context())
	if err != nil {
		h.logger.Error().Err(err).Msg("Failed to list jobs")
		WriteError(w, http.StatusInternalServerError, "Failed to list jobs")
		return
	}

	jobs := make([]jobSummary, 0, len(views))
	for _, view := range views {
		jobs = append(jobs, toJobSummary(view))
	}

	WriteJSON(w, http.StatusOK, map[string]interface{}{
		"jobs": jobs,
	})
}

// GetJobHandler handles GET /api/jobs/{id}
func (h *JobHandler) GetJobHandler(w http.ResponseWriter, r *http.Request) {
	if !RequireMethod(w, r, "GET") {
		return
	}

	id := extractIDFromPath(r.URL.Path, "/api/jobs/")
	if id == "" {
		WriteError(w, http.StatusBadRequest, "Job ID is required")
		return
	}

	view, err := h.jobService.GetJob(r.Context(), id)
	if err != nil {
		if errors.Is(err, interfaces.ErrJobNotFound) {
			WriteError(w, http.StatusNotFound, "Job not found")
			return
		}
		h.logger.Error().Err(err).Str("job_id", id).Msg("Failed to get job")
		WriteError(w, http.StatusInternalServerError, "Failed to get job")
		return
	}

	WriteJSON(w, http.StatusOK, toJobDetail(view))
}

// CancelJobHandler handles DELETE /api/jobs/{id}
func (h *JobHandler) CancelJobHandler(w http.ResponseWriter, r *http.Request) {
	if !RequireMethod(w, r, "DELETE") {
		return
	}

	id := extractIDFromPath(r.URL.Path, "/api/jobs/")
	if id == "" {
		WriteError(w, http.StatusBadRequest, "Job ID is required")
		return
	}

	if err := h.jobService.CancelJob(r.Context(), id); err != nil {
		switch {
		case errors.Is(err, interfaces.ErrJobNotFound):
			WriteError(w, http.StatusNotFound, "Job not found")
		case errors.Is(err, interfaces.ErrJobNotCancellable):
			status := "unknown"
			if view, viewErr := h.jobService.GetJob(r.Context(), id); viewErr == nil {
				status = string(view.Job.Status)
			}
			WriteError(w, http.StatusBadRequest, fmt.Sprintf("Cannot cancel job with status: %s", status))
		default:
			h.logger.Error().Err(err).Str("job_id", id).Msg("Failed to cancel job")
			WriteError(w, http.StatusInternalServerError, "Failed to cancel job")
		}
		return
	}

	WriteJSON(w, http.StatusOK, map[string]interface{}{
		"success": true,
		"job_id":  id,
		"status":  "cancelled",
		"message": "Job cancellation requested. The job will stop after current item.",
	})
}

func toJobSummary(view *interfaces.JobStatusView) jobSummary {
	job := view.Job
	found := view.Counters["found"]
	notFound := view.Counters["not_found"]

	summary := jobSummary{
		JobID:            job.ID,
		JobType:          job.Type,
		Status:           job.Status,
		Total:            job.TotalItems,
		Done:             job.ProcessedItems,
		Errors:           job.ErrorCount,
		WebsitesFound:    found,
		WebsitesNotFound: notFound,
		SuccessRate:      successRate(found, job.ProcessedItems),
		CreatedAt:        job.CreatedAt,
		FinishedAt:       job.FinishedAt,
	}
	if view.Progress != nil {
		summary.ElapsedSeconds = int(view.Progress.ElapsedSeconds)
	}
	return summary
}

func toJobDetail(view *interfaces.JobStatusView) jobDetail {
	job := view.Job
	found := view.Counters["found"]
	notFound := view.Counters["not_found"]

	logs := make([]jobLogView, 0, len(view.Logs))
	for _, entry := range view.Logs {
		logs = append(logs, jobLogView{
			Timestamp: entry.FullTimestamp,
			Level:     entry.Level,
			Message:   entry.Message,
		})
	}

	detail := jobDetail{
		JobID:            job.ID,
		Status:           job.Status,
		Total:            job.TotalItems,
		Done:             job.ProcessedItems,
		Errors:           job.ErrorCount,
		WebsitesFound:    found,
		WebsitesNotFound: notFound,
		SuccessRate:      successRate(found, job.ProcessedItems),
		CreatedAt:        job.CreatedAt,
		FinishedAt:       job.FinishedAt,
		Logs:             logs,
		NotFoundReasons:  []reasonCount{},
	}
	if p := view.Progress; p != nil {
		detail.ElapsedSeconds = int(p.ElapsedSeconds)
		detail.EstimatedRemainingSeconds = int(p.EstimatedSeconds)
		detail.CurrentAction = p.CurrentAction
		detail.CurrentItem = p.CurrentItem
		detail.LastSuccess = p.LastSuccess
		detail.LastWarning = p.LastWarning
		detail.NotFoundReasons = sortedReasons(p.NotFoundReasons)
	}
	return detail
}

// successRate is the found percentage of processed items, one decimal place.
func successRate(found, done int) float64 {
	if done < 1 {
		done = 1
	}
	return math.Round(float64(found)/float64(done)*1000) / 10
}

// sortedReasons flattens the not-found histogram, biggest bucket first.
func sortedReasons(m map[string]int) []reasonCount {
	out := make([]reasonCount, 0, len(m))
	for reason, count := range m {
		out = append(out, reasonCount{Reason: reason, Count: count})
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Count != out[j].Count {
			return out[i].Count > out[j].Count
		}
		return out[i].Reason < out[j].Reason
	})
	return out
}
