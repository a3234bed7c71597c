package handlers

import (
	"net/http"

	"github.com/ternarybob/arbor"
	"github.com/ternarybob/invenio/internal/interfaces"
	"github.com/ternarybob/invenio/internal/models"
)

// CacheHandler exposes enrichment cache introspection and maintenance
type CacheHandler struct {
	cacheService interfaces.CacheService
	logger       arbor.ILogger
}

// NewCacheHandler creates a new CacheHandler
func NewCacheHandler(cacheService interfaces.CacheService, logger arbor.ILogger) *CacheHandler {
	return &CacheHandler{
		cacheService: cacheService,
		logger:       logger,
	}
}

// StatsHandler handles GET /api/cache/stats
func (h *CacheHandler) StatsHandler(w http.ResponseWriter, r *http.Request) {
	if !RequireMethod(w, r, "GET") {
		return
	}

	WriteJSON(w, http.StatusOK, h.cacheService.Stats(r.Context()))
}

// ClearHandler handles POST /api/cache/clear
//
// An optional namespace query parameter limits the clear to one namespace;
// without it the whole cache is emptied.
func (h *CacheHandler) ClearHandler(w http.ResponseWriter, r *http.Request) {
	if !RequireMethod(w, r, "POST") {
		return
	}

	ns := models.CacheNamespace(r.URL.Query().Get("namespace"))
	removed := h.cacheService.Clear(r.Context(), ns)

	h.logger.Info().Str("namespace", string(ns)).Int("removed", removed).Msg("Cache cleared")

	WriteJSON(w, http.StatusOK, map[string]interface{}{
		"status":  "success",
		"removed": removed,
	})
}
