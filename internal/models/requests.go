package models

import "github.com/go-playground/validator/v10"

// Job target selection modes.
const (
	JobModeAll      = "all"
	JobModeSelected = "selected"
)

// JobSettings tunes one job run. RateLimit is the per-item delay in seconds
// used by email-crawl pacing.
type JobSettings struct {
	RateLimit float64 `json:"rate_limit" validate:"omitempty,gte=0,lte=60"`
}

// JobRequest is the body of POST /api/jobs/website-discovery and
// POST /api/jobs/email-crawl.
type JobRequest struct {
	Mode     string      `json:"mode" validate:"required,oneof=all selected"`
	UIDs     []string    `json:"uids" validate:"required_if=Mode selected,dive,uuid4"`
	Settings JobSettings `json:"settings"`
}

// Validate validates the request using go-playground/validator.
func (r *JobRequest) Validate() error {
	validate := validator.New()
	return validate.Struct(r)
}

// UploadItem is one raw catalog row. Key names vary between exports of the
// source catalog, so every field carries its spelling variants; the importer
// resolves them in order.
type UploadItem map[string]interface{}

// UploadReport summarizes one catalog import, echoed back to the uploader.
// SampleMapped shows how the first row resolved so key-mapping problems are
// visible without digging through logs.
type UploadReport struct {
	Status       string            `json:"status"`
	ResetApplied bool              `json:"reset_applied"`
	TotalRows    int               `json:"total_rows"`
	Inserted     int               `json:"inserted"`
	Updated      int               `json:"updated"`
	SampleMapped map[string]string `json:"sample_mapped_row,omitempty"`
	Message      string            `json:"message"`
}
