package facilities

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/ternarybob/arbor"
	"github.com/ternarybob/invenio/internal/interfaces"
	"github.com/ternarybob/invenio/internal/models"
)

// Service implements FacilityService on top of the facility store.
type Service struct {
	storage interfaces.FacilityStorage
	logger  arbor.ILogger
}

// NewService creates a new facility service
func NewService(storage interfaces.FacilityStorage, logger arbor.ILogger) interfaces.FacilityService {
	return &Service{
		storage: storage,
		logger:  logger,
	}
}

// ImportCatalog upserts raw catalog rows. Rows with a raw ID update the
// matching facility's catalog fields and leave its enrichment fields alone;
// rows without one always insert.
func (s *Service) ImportCatalog(ctx context.Context, rows []models.UploadItem, reset bool) (*models.UploadReport, error) {
	if reset {
		if err := s.storage.DeleteAll(ctx); err != nil {
			return nil, fmt.Errorf("failed to reset catalog: %w", err)
		}
	}

	report := &models.UploadReport{
		Status:       "success",
		ResetApplied: reset,
		TotalRows:    len(rows),
	}

	for _, row := range rows {
		rawID := rawIDOf(row)
		name := pick(row, nameKeys, "Bilinmeyen Tesis")
		city := pick(row, cityKeys, "Bilinmiyor")
		district := pick(row, districtKeys, "Bilinmiyor")
		address := pick(row, addressKeys, "")

		rawType := pick(row, typeKeys, "")
		docType, known := normalizeBelgeTuru(rawType)
		if !known {
			s.logger.Warn().
				Str("value", rawType).
				Msg("Unknown Belge Türü, using default category")
		}

		var existing *models.Facility
		if rawID != "" {
			found, err := s.storage.GetFacilityByRawID(ctx, rawID)
			if err != nil && !errors.Is(err, interfaces.ErrFacilityNotFound) {
				return nil, fmt.Errorf("failed to look up raw_id %q: %w", rawID, err)
			}
			existing = found
		}

		if existing != nil {
			existing.Name = name
			existing.City = city
			existing.District = district
			existing.Type = docType
			existing.Address = address
			existing.UpdatedAt = time.Now()
			if err := s.storage.SaveFacility(ctx, existing); err != nil {
				return nil, fmt.Errorf("failed to update facility: %w", err)
			}
			report.Updated++
		} else {
			facility := models.NewFacility(rawID, name, city, district, docType, address)
			if err := s.storage.SaveFacility(ctx, facility); err != nil {
				return nil, fmt.Errorf("failed to save facility: %w", err)
			}
			report.Inserted++
		}

		if report.SampleMapped == nil {
			report.SampleMapped = map[string]string{
				"raw_id": rawID,
				"name":   name,
				"sehir":  city,
				"ilce":   district,
			}
		}
	}

	report.Message = fmt.Sprintf("Imported %d new facilities", report.Inserted)

	s.logger.Info().
		Int("total_rows", report.TotalRows).
		Int("inserted", report.Inserted).
		Int("updated", report.Updated).
		Bool("reset", reset).
		Msg("Catalog import complete")

	return report, nil
}

// ListFacilities returns one filtered page plus the total match count.
func (s *Service) ListFacilities(ctx context.Context, opts *interfaces.FacilityListOptions) ([]*models.Facility, int, error) {
	if opts == nil {
		opts = &interfaces.FacilityListOptions{Page: 1, Limit: 50}
	}
	return s.storage.ListFacilities(ctx, opts)
}

// GetFacility returns one facility by ID.
func (s *Service) GetFacility(ctx context.Context, id string) (*models.Facility, error) {
	return s.storage.GetFacility(ctx, id)
}

// GetStats returns the enrichment progress buckets.
func (s *Service) GetStats(ctx context.Context) (*models.FacilityStats, error) {
	return s.storage.GetStats(ctx)
}

// GetTypeCounts returns distinct Belge Türü values with counts.
func (s *Service) GetTypeCounts(ctx context.Context) ([]models.TypeCount, error) {
	return s.storage.GetTypeCounts(ctx)
}

var _ interfaces.FacilityService = (*Service)(nil)
