package server

import (
	"net/http"
)

// setupRoutes configures all HTTP routes
func (s *Server) setupRoutes() *http.ServeMux {
	mux := http.NewServeMux()

	// WebSocket route
	mux.HandleFunc("/ws", s.app.WSHandler.HandleWebSocket)

	// API routes - Catalog
	mux.HandleFunc("/api/upload", s.app.FacilityHandler.UploadHandler)
	mux.HandleFunc("/api/facilities", s.app.FacilityHandler.ListFacilitiesHandler)
	mux.HandleFunc("/api/facilities/stats", s.app.FacilityHandler.StatsHandler)
	mux.HandleFunc("/api/facilities/", s.app.FacilityHandler.GetFacilityHandler) // GET /{id}
	mux.HandleFunc("/api/filters/types", s.app.FacilityHandler.TypesHandler)

	// API routes - Enrichment jobs
	mux.HandleFunc("/api/jobs", s.app.JobHandler.ListJobsHandler)
	mux.HandleFunc("/api/jobs/", s.handleJobRoutes) // Handles /api/jobs/{id} and subpaths

	// API routes - Export
	mux.HandleFunc("/api/export/csv", s.app.ExportHandler.ExportCSVHandler)
	mux.HandleFunc("/api/export/sqlite", s.app.ExportHandler.ExportSQLiteHandler)

	// API routes - Cache
	mux.HandleFunc("/api/cache/stats", s.app.CacheHandler.StatsHandler)
	mux.HandleFunc("/api/cache/clear", s.app.CacheHandler.ClearHandler)

	// API routes - Scheduler
	mux.HandleFunc("/api/scheduler/status", s.app.SchedulerHandler.StatusHandler)
	mux.HandleFunc("/api/scheduler/trigger", s.app.SchedulerHandler.TriggerHandler)

	// API routes - System
	mux.HandleFunc("/api/version", s.app.APIHandler.VersionHandler)
	mux.HandleFunc("/api/health", s.app.APIHandler.HealthHandler)
	mux.HandleFunc("/api/shutdown", s.ShutdownHandler) // Graceful shutdown endpoint (dev mode)

	// 404 handler for unmatched API routes
	mux.HandleFunc("/api/", s.app.APIHandler.NotFoundHandler)

	return mux
}

// handleJobRoutes routes job-related requests to the appropriate handler
func (s *Server) handleJobRoutes(w http.ResponseWriter, r *http.Request) {
	path := r.URL.Path

	// POST /api/jobs/website-discovery
	if path == "/api/jobs/website-discovery" {
		s.app.JobHandler.StartDiscoveryHandler(w, r)
		return
	}

	// POST /api/jobs/email-crawl
	if path == "/api/jobs/email-crawl" {
		s.app.JobHandler.StartEmailHandler(w, r)
		return
	}

	// GET/DELETE /api/jobs/{id}
	if len(path) > len("/api/jobs/") {
		RouteResourceItem(w, r, s.app.JobHandler.GetJobHandler, nil, s.app.JobHandler.CancelJobHandler)
		return
	}

	http.Error(w, "Not found", http.StatusNotFound)
}
