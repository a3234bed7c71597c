package export

import (
	"context"
	"encoding/csv"
	"fmt"
	"io"
	"strconv"
	"time"

	"github.com/ternarybob/arbor"

	"github.com/ternarybob/invenio/internal/common"
	"github.com/ternarybob/invenio/internal/interfaces"
	"github.com/ternarybob/invenio/internal/models"
)

// csvColumns is the export column order, catalog fields first, then the
// enrichment fields in discovery/email order.
var csvColumns = []string{
	"id", "raw_id", "name", "sehir", "ilce", "type", "address",
	"website", "website_source", "website_score", "website_status",
	"email", "email_source", "email_status",
	"created_at", "updated_at",
}

// Service builds CSV and SQLite exports straight from the facility store.
type Service struct {
	facilities interfaces.FacilityStorage
	logger     arbor.ILogger
}

// NewService creates an export service.
func NewService(facilities interfaces.FacilityStorage, logger arbor.ILogger) interfaces.ExportService {
	if logger == nil {
		logger = common.GetLogger()
	}
	return &Service{
		facilities: facilities,
		logger:     logger,
	}
}

// Ensure Service implements the ExportService interface
var _ interfaces.ExportService = (*Service)(nil)

// WriteCSV streams every facility (or one city's worth) as CSV rows.
func (s *Service) WriteCSV(ctx context.Context, w io.Writer, city string) error {
	facilities, err := s.facilities.ListAllFacilities(ctx)
	if err != nil {
		return fmt.Errorf("failed to load facilities: %w", err)
	}

	cw := csv.NewWriter(w)
	if err := cw.Write(csvColumns); err != nil {
		return fmt.Errorf("failed to write csv header: %w", err)
	}

	rows := 0
	for _, f := range facilities {
		if city != "" && f.City != city {
			continue
		}
		if err := cw.Write(csvRow(f)); err != nil {
			return fmt.Errorf("failed to write csv row: %w", err)
		}
		rows++
	}

	cw.Flush()
	if err := cw.Error(); err != nil {
		return fmt.Errorf("failed to flush csv: %w", err)
	}

	s.logger.Info().Int("rows", rows).Str("city", city).Msg("CSV export written")
	return nil
}

func csvRow(f *models.Facility) []string {
	return []string{
		f.ID,
		f.RawID,
		f.Name,
		f.City,
		f.District,
		f.Type,
		f.Address,
		f.Website,
		f.WebsiteSource,
		strconv.FormatFloat(f.WebsiteScore, 'f', -1, 64),
		string(f.WebsiteStatus),
		f.Email,
		f.EmailSource,
		string(f.EmailStatus),
		f.CreatedAt.Format(time.RFC3339),
		f.UpdatedAt.Format(time.RFC3339),
	}
}
