package handlers

import (
	"net/http"
	"strings"

	"github.com/ternarybob/invenio/internal/interfaces"
)

// SchedulerHandler handles scheduler-related endpoints
type SchedulerHandler struct {
	schedulerService interfaces.SchedulerService
}

// NewSchedulerHandler creates a new scheduler handler
func NewSchedulerHandler(schedulerService interfaces.SchedulerService) *SchedulerHandler {
	return &SchedulerHandler{
		schedulerService: schedulerService,
	}
}

// StatusHandler handles GET /api/scheduler/status
func (h *SchedulerHandler) StatusHandler(w http.ResponseWriter, r *http.Request) {
	if !RequireMethod(w, r, "GET") {
		return
	}

	WriteJSON(w, http.StatusOK, map[string]interface{}{
		"running": h.schedulerService.IsRunning(),
		"jobs":    h.schedulerService.GetAllJobStatuses(),
	})
}

// TriggerHandler handles POST /api/scheduler/trigger?job=<name>
func (h *SchedulerHandler) TriggerHandler(w http.ResponseWriter, r *http.Request) {
	if !RequireMethod(w, r, "POST") {
		return
	}

	name := r.URL.Query().Get("job")
	if name == "" {
		WriteError(w, http.StatusBadRequest, "Job name is required")
		return
	}

	if err := h.schedulerService.TriggerJob(name); err != nil {
		if strings.Contains(err.Error(), "not found") {
			WriteError(w, http.StatusNotFound, err.Error())
			return
		}
		WriteError(w, http.StatusConflict, err.Error())
		return
	}

	WriteJSON(w, http.StatusOK, map[string]interface{}{
		"success": true,
		"message": "Job triggered",
		"job":     name,
	})
}
