package interfaces

import (
	"context"

	"github.com/ternarybob/invenio/internal/models"
)

// FacilityService owns catalog import and the read-side facility queries.
type FacilityService interface {
	// ImportCatalog maps raw upload rows onto facilities and upserts them by
	// raw ID. When reset is true the catalog is cleared first.
	ImportCatalog(ctx context.Context, rows []models.UploadItem, reset bool) (*models.UploadReport, error)

	// ListFacilities returns one filtered page plus the total match count.
	ListFacilities(ctx context.Context, opts *FacilityListOptions) ([]*models.Facility, int, error)

	// GetFacility returns one facility by ID.
	GetFacility(ctx context.Context, id string) (*models.Facility, error)

	// GetStats returns the enrichment progress buckets.
	GetStats(ctx context.Context) (*models.FacilityStats, error)

	// GetTypeCounts returns the distinct Belge Türü values with counts,
	// largest bucket first.
	GetTypeCounts(ctx context.Context) ([]models.TypeCount, error)
}
