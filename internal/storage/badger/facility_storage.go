package badger

import (
	"context"
	"fmt"
	"sort"
	"strings"

	"github.com/ternarybob/arbor"
	"github.com/ternarybob/invenio/internal/interfaces"
	"github.com/ternarybob/invenio/internal/models"
	"github.com/timshannon/badgerhold/v4"
)

// FacilityStorage implements the FacilityStorage interface for Badger
type FacilityStorage struct {
	db     *BadgerDB
	logger arbor.ILogger
}

// NewFacilityStorage creates a new FacilityStorage instance
func NewFacilityStorage(db *BadgerDB, logger arbor.ILogger) interfaces.FacilityStorage {
	return &FacilityStorage{
		db:     db,
		logger: logger,
	}
}

func (s *FacilityStorage) SaveFacility(ctx context.Context, facility *models.Facility) error {
	if facility.ID == "" {
		return fmt.Errorf("facility ID is required")
	}
	if err := s.db.Store().Upsert(facility.ID, facility); err != nil {
		return fmt.Errorf("failed to save facility: %w", err)
	}
	return nil
}

func (s *FacilityStorage) GetFacility(ctx context.Context, id string) (*models.Facility, error) {
	var facility models.Facility
	if err := s.db.Store().Get(id, &facility); err != nil {
		if err == badgerhold.ErrNotFound {
			return nil, interfaces.ErrFacilityNotFound
		}
		return nil, fmt.Errorf("failed to get facility: %w", err)
	}
	return &facility, nil
}

func (s *FacilityStorage) GetFacilityByRawID(ctx context.Context, rawID string) (*models.Facility, error) {
	var facilities []models.Facility
	if err := s.db.Store().Find(&facilities, badgerhold.Where("RawID").Eq(rawID).Limit(1)); err != nil {
		return nil, fmt.Errorf("failed to query facility by raw_id: %w", err)
	}
	if len(facilities) == 0 {
		return nil, interfaces.ErrFacilityNotFound
	}
	return &facilities[0], nil
}

// ListFacilities applies the tab filter, column filters and substring search,
// then pages. Returns the page plus the total match count.
func (s *FacilityStorage) ListFacilities(ctx context.Context, opts *interfaces.FacilityListOptions) ([]*models.Facility, int, error) {
	all, err := s.ListAllFacilities(ctx)
	if err != nil {
		return nil, 0, err
	}

	filtered := make([]*models.Facility, 0, len(all))
	for _, f := range all {
		if !matchesStatusFilter(f, opts.StatusFilter) {
			continue
		}
		if opts.City != "" && f.City != opts.City {
			continue
		}
		if opts.Type != "" && f.Type != opts.Type {
			continue
		}
		if opts.Search != "" {
			needle := strings.ToLower(opts.Search)
			if !strings.Contains(strings.ToLower(f.Name), needle) &&
				!strings.Contains(strings.ToLower(f.City), needle) {
				continue
			}
		}
		filtered = append(filtered, f)
	}

	total := len(filtered)

	page := opts.Page
	if page < 1 {
		page = 1
	}
	limit := opts.Limit
	if limit < 1 {
		limit = 50
	}
	start := (page - 1) * limit
	if start >= total {
		return []*models.Facility{}, total, nil
	}
	end := start + limit
	if end > total {
		end = total
	}
	return filtered[start:end], total, nil
}

// matchesStatusFilter mirrors the UI tabs: pending facilities have no website
// and were never marked not_found; has_website excludes those that already
// have an email; has_email requires both fields.
func matchesStatusFilter(f *models.Facility, filter string) bool {
	switch filter {
	case "pending":
		return f.Website == "" && (f.WebsiteStatus == "" || f.WebsiteStatus == models.StatusPending)
	case "not_found":
		return f.WebsiteStatus == models.StatusNotFound
	case "has_website":
		return f.Website != "" && f.Email == ""
	case "has_email":
		return f.Website != "" && f.Email != ""
	default:
		return true
	}
}

func (s *FacilityStorage) ListAllFacilities(ctx context.Context) ([]*models.Facility, error) {
	var facilities []models.Facility
	if err := s.db.Store().Find(&facilities, badgerhold.Where("ID").Ne("").SortBy("Name")); err != nil {
		return nil, fmt.Errorf("failed to list facilities: %w", err)
	}
	result := make([]*models.Facility, len(facilities))
	for i := range facilities {
		result[i] = &facilities[i]
	}
	return result, nil
}

// ListWebsiteTargets returns facilities eligible for a discovery run: no
// website yet and not previously exhausted.
func (s *FacilityStorage) ListWebsiteTargets(ctx context.Context) ([]*models.Facility, error) {
	all, err := s.ListAllFacilities(ctx)
	if err != nil {
		return nil, err
	}
	targets := make([]*models.Facility, 0)
	for _, f := range all {
		if f.Website == "" && f.WebsiteStatus != models.StatusNotFound {
			targets = append(targets, f)
		}
	}
	return targets, nil
}

// ListEmailTargets returns facilities eligible for an email crawl: website
// known, email missing and not previously exhausted.
func (s *FacilityStorage) ListEmailTargets(ctx context.Context) ([]*models.Facility, error) {
	all, err := s.ListAllFacilities(ctx)
	if err != nil {
		return nil, err
	}
	targets := make([]*models.Facility, 0)
	for _, f := range all {
		if f.Website != "" && f.Email == "" && f.EmailStatus != models.StatusNotFound {
			targets = append(targets, f)
		}
	}
	return targets, nil
}

func (s *FacilityStorage) CountFacilities(ctx context.Context) (int, error) {
	count, err := s.db.Store().Count(&models.Facility{}, nil)
	if err != nil {
		return 0, fmt.Errorf("failed to count facilities: %w", err)
	}
	return int(count), nil
}

func (s *FacilityStorage) GetStats(ctx context.Context) (*models.FacilityStats, error) {
	all, err := s.ListAllFacilities(ctx)
	if err != nil {
		return nil, err
	}

	stats := &models.FacilityStats{Total: len(all)}
	for _, f := range all {
		switch {
		case matchesStatusFilter(f, "pending"):
			stats.Pending++
		}
		if f.WebsiteStatus == models.StatusNotFound {
			stats.NotFound++
		}
		if f.Website != "" && f.Email == "" {
			stats.HasWebsite++
		}
		if f.Website != "" && f.Email != "" {
			stats.HasEmail++
		}
	}
	return stats, nil
}

func (s *FacilityStorage) GetTypeCounts(ctx context.Context) ([]models.TypeCount, error) {
	all, err := s.ListAllFacilities(ctx)
	if err != nil {
		return nil, err
	}

	counts := make(map[string]int)
	for _, f := range all {
		if f.Type != "" {
			counts[f.Type]++
		}
	}

	result := make([]models.TypeCount, 0, len(counts))
	for name, count := range counts {
		result = append(result, models.TypeCount{Name: name, Count: count})
	}
	sort.Slice(result, func(i, j int) bool {
		if result[i].Count != result[j].Count {
			return result[i].Count > result[j].Count
		}
		return result[i].Name < result[j].Name
	})
	return result, nil
}

func (s *FacilityStorage) DeleteAll(ctx context.Context) error {
	if err := s.db.Store().DeleteMatching(&models.Facility{}, badgerhold.Where("ID").Ne("")); err != nil {
		return fmt.Errorf("failed to delete facilities: %w", err)
	}
	s.logger.Info().Msg("Deleted all facilities")
	return nil
}
