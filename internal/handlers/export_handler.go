package handlers

import (
	"bytes"
	"net/http"
	"os"
	"path/filepath"

	"github.com/ternarybob/arbor"
	"github.com/ternarybob/invenio/internal/interfaces"
)

// ExportHandler handles catalog download requests
type ExportHandler struct {
	exportService interfaces.ExportService
	logger        arbor.ILogger
}

// NewExportHandler creates a new ExportHandler
func NewExportHandler(exportService interfaces.ExportService, logger arbor.ILogger) *ExportHandler {
	return &ExportHandler{
		exportService: exportService,
		logger:        logger,
	}
}

// ExportCSVHandler handles GET /api/export/csv
//
// The export is buffered before any byte reaches the client so a storage
// failure still produces a clean error response. An optional city query
// parameter narrows the export to one city.
func (h *ExportHandler) ExportCSVHandler(w http.ResponseWriter, r *http.Request) {
	if !RequireMethod(w, r, "GET") {
		return
	}

	city := r.URL.Query().Get("city")

	var buf bytes.Buffer
	if err := h.exportService.WriteCSV(r.Context(), &buf, city); err != nil {
		h.logger.Error().Err(err).Msg("CSV export failed")
		WriteError(w, http.StatusInternalServerError, "Export failed")
		return
	}

	w.Header().Set("Content-Type", "text/csv; charset=utf-8")
	w.Header().Set("Content-Disposition", `attachment; filename="facilities_export.csv"`)
	w.WriteHeader(http.StatusOK)
	w.Write(buf.Bytes())
}

// ExportSQLiteHandler handles GET /api/export/sqlite
//
// Builds a fresh snapshot database in a temp directory and serves it as an
// attachment. The temp directory is removed once the response is sent.
func (h *ExportHandler) ExportSQLiteHandler(w http.ResponseWriter, r *http.Request) {
	if !RequireMethod(w, r, "GET") {
		return
	}

	dir, err := os.MkdirTemp("", "invenio-export-")
	if err != nil {
		h.logger.Error().Err(err).Msg("Failed to create export directory")
		WriteError(w, http.StatusInternalServerError, "Export failed")
		return
	}
	defer os.RemoveAll(dir)

	path := filepath.Join(dir, "leads.db")
	if err := h.exportService.BuildSQLite(r.Context(), path); err != nil {
		h.logger.Error().Err(err).Msg("SQLite export failed")
		WriteError(w, http.StatusInternalServerError, "Export failed")
		return
	}

	w.Header().Set("Content-Type", "application/octet-stream")
	w.Header().Set("Content-Disposition", `attachment; filename="leads.db"`)
	http.ServeFile(w, r, path)
}
