package handlers

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"
	"strings"

	"github.com/ternarybob/arbor"
	"github.com/ternarybob/invenio/internal/interfaces"
	"github.com/ternarybob/invenio/internal/models"
)

// FacilityHandler handles HTTP requests for catalog upload and facility queries
type FacilityHandler struct {
	facilityService interfaces.FacilityService
	logger          arbor.ILogger
}

// NewFacilityHandler creates a new FacilityHandler
func NewFacilityHandler(facilityService interfaces.FacilityService, logger arbor.ILogger) *FacilityHandler {
	return &FacilityHandler{
		facilityService: facilityService,
		logger:          logger,
	}
}

// facilityResponse is the wire shape of one facility. Provenance fields
// (raw ID, discovery sources, timestamps) stay internal.
type facilityResponse struct {
	ID            string                  `json:"id"`
	Name          string                  `json:"name"`
	City          string                  `json:"sehir"`
	District      string                  `json:"ilce"`
	Type          string                  `json:"type"`
	Website       string                  `json:"website"`
	Email         string                  `json:"email"`
	WebsiteStatus models.EnrichmentStatus `json:"website_status"`
	EmailStatus   models.EnrichmentStatus `json:"email_status"`
	WebsiteScore  float64                 `json:"website_score"`
}

func toFacilityResponse(f *models.Facility) facilityResponse {
	return facilityResponse{
		ID:            f.ID,
		Name:          f.Name,
		City:          f.City,
		District:      f.District,
		Type:          f.Type,
		Website:       f.Website,
		Email:         f.Email,
		WebsiteStatus: f.WebsiteStatus,
		EmailStatus:   f.EmailStatus,
		WebsiteScore:  f.WebsiteScore,
	}
}

// UploadHandler handles POST /api/upload
//
// The body is a JSON array of raw catalog rows with provider-dependent key
// spellings. An optional reset_db query parameter clears the catalog before
// import.
func (h *FacilityHandler) UploadHandler(w http.ResponseWriter, r *http.Request) {
	if !RequireMethod(w, r, "POST") {
		return
	}

	resetDB := false
	if v := r.URL.Query().Get("reset_db"); v != "" {
		if b, err := strconv.ParseBool(v); err == nil {
			resetDB = b
		}
	}

	var rows []models.UploadItem
	if err := json.NewDecoder(r.Body).Decode(&rows); err != nil {
		WriteError(w, http.StatusBadRequest, "Invalid JSON body: expected an array of catalog rows")
		return
	}

	report, err := h.facilityService.ImportCatalog(r.Context(), rows, resetDB)
	if err != nil {
		h.logger.Error().Err(err).Msg("Catalog import failed")
		WriteError(w, http.StatusInternalServerError, "Import failed")
		return
	}

	WriteJSON(w, http.StatusOK, report)
}

// ListFacilitiesHandler handles GET /api/facilities
func (h *FacilityHandler) ListFacilitiesHandler(w http.ResponseWriter, r *http.Request) {
	if !RequireMethod(w, r, "GET") {
		return
	}

	query := r.URL.Query()

	opts := &interfaces.FacilityListOptions{
		Page:         1,
		Limit:        50,
		City:         query.Get("city"),
		Type:         query.Get("type"),
		Search:       strings.TrimSpace(query.Get("search")),
		StatusFilter: query.Get("status_filter"),
	}
	if p, err := strconv.Atoi(query.Get("page")); err == nil && p > 0 {
		opts.Page = p
	}
	if l, err := strconv.Atoi(query.Get("limit")); err == nil && l > 0 {
		opts.Limit = l
	}

	facilities, total, err := h.facilityService.ListFacilities(r.Context(), opts)
	if err != nil {
		h.logger.Error().Err(err).Msg("Failed to list facilities")
		WriteError(w, http.StatusInternalServerError, "Failed to list facilities")
		return
	}

	data := make([]facilityResponse, 0, len(facilities))
	for _, f := range facilities {
		data = append(data, toFacilityResponse(f))
	}

	WriteJSON(w, http.StatusOK, map[string]interface{}{
		"data":  data,
		"total": total,
		"page":  opts.Page,
	})
}

// GetFacilityHandler handles GET /api/facilities/{id}
func (h *FacilityHandler) GetFacilityHandler(w http.ResponseWriter, r *http.Request) {
	if !RequireMethod(w, r, "GET") {
		return
	}

	id := extractIDFromPath(r.URL.Path, "/api/facilities/")
	if id == "" {
		WriteError(w, http.StatusBadRequest, "Facility ID is required")
		return
	}

	facility, err := h.facilityService.GetFacility(r.Context(), id)
	if err != nil {
		if errors.Is(err, interfaces.ErrFacilityNotFound) {
			WriteError(w, http.StatusNotFound, "Facility not found")
			return
		}
		h.logger.Error().Err(err).Str("id", id).Msg("Failed to get facility")
		WriteError(w, http.StatusInternalServerError, "Failed to get facility")
		return
	}

	WriteJSON(w, http.StatusOK, toFacilityResponse(facility))
}

// StatsHandler handles GET /api/facilities/stats
func (h *FacilityHandler) StatsHandler(w http.ResponseWriter, r *http.Request) {
	if !RequireMethod(w, r, "GET") {
		return
	}

	stats, err := h.facilityService.GetStats(r.Context())
	if err != nil {
		h.logger.Error().Err(err).Msg("Failed to compute facility stats")
		WriteError(w, http.StatusInternalServerError, "Failed to compute stats")
		return
	}

	WriteJSON(w, http.StatusOK, stats)
}

// TypesHandler handles GET /api/filters/types
func (h *FacilityHandler) TypesHandler(w http.ResponseWriter, r *http.Request) {
	if !RequireMethod(w, r, "GET") {
		return
	}

	types, err := h.facilityService.GetTypeCounts(r.Context())
	if err != nil {
		h.logger.Error().Err(err).Msg("Failed to list facility types")
		WriteError(w, http.StatusInternalServerError, "Failed to list types")
		return
	}

	if types == nil {
		types = []models.TypeCount{}
	}

	WriteJSON(w, http.StatusOK, map[string]interface{}{
		"types": types,
	})
}

// extractIDFromPath extracts the ID from a URL path
func extractIDFromPath(path, prefix string) string {
	if !strings.HasPrefix(path, prefix) {
		return ""
	}
	id := strings.TrimPrefix(path, prefix)
	id = strings.TrimSuffix(id, "/")
	return id
}
