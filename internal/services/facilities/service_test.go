package facilities

import (
	"context"
	"testing"

	"github.com/ternarybob/arbor"

	"github.com/ternarybob/invenio/internal/interfaces"
	"github.com/ternarybob/invenio/internal/models"
)

func createTestLogger() arbor.ILogger {
	return arbor.NewLogger()
}

// memFacilityStore is an in-memory FacilityStorage for service tests.
type memFacilityStore struct {
	byID  map[string]*models.Facility
	order []string
}

func newMemFacilityStore() *memFacilityStore {
	return &memFacilityStore{byID: map[string]*models.Facility{}}
}

func (m *memFacilityStore) SaveFacility(ctx context.Context, f *models.Facility) error {
	if _, ok := m.byID[f.ID]; !ok {
		m.order = append(m.order, f.ID)
	}
	cp := *f
	m.byID[f.ID] = &cp
	return nil
}

func (m *memFacilityStore) GetFacility(ctx context.Context, id string) (*models.Facility, error) {
	f, ok := m.byID[id]
	if !ok {
		return nil, interfaces.ErrFacilityNotFound
	}
	cp := *f
	return &cp, nil
}

func (m *memFacilityStore) GetFacilityByRawID(ctx context.Context, rawID string) (*models.Facility, error) {
	for _, id := range m.order {
		if m.byID[id].RawID == rawID {
			cp := *m.byID[id]
			return &cp, nil
		}
	}
	return nil, interfaces.ErrFacilityNotFound
}

func (m *memFacilityStore) ListFacilities(ctx context.Context, opts *interfaces.FacilityListOptions) ([]*models.Facility, int, error) {
	all, err := m.ListAllFacilities(ctx)
	return all, len(all), err
}

func (m *memFacilityStore) ListAllFacilities(ctx context.Context) ([]*models.Facility, error) {
	out := make([]*models.Facility, 0, len(m.order))
	for _, id := range m.order {
		cp := *m.byID[id]
		out = append(out, &cp)
	}
	return out, nil
}

func (m *memFacilityStore) ListWebsiteTargets(ctx context.Context) ([]*models.Facility, error) {
	return nil, nil
}

func (m *memFacilityStore) ListEmailTargets(ctx context.Context) ([]*models.Facility, error) {
	return nil, nil
}

func (m *memFacilityStore) CountFacilities(ctx context.Context) (int, error) {
	return len(m.byID), nil
}

func (m *memFacilityStore) GetStats(ctx context.Context) (*models.FacilityStats, error) {
	return &models.FacilityStats{Total: len(m.byID)}, nil
}

func (m *memFacilityStore) GetTypeCounts(ctx context.Context) ([]models.TypeCount, error) {
	return nil, nil
}

func (m *memFacilityStore) DeleteAll(ctx context.Context) error {
	m.byID = map[string]*models.Facility{}
	m.order = nil
	return nil
}

var _ interfaces.FacilityStorage = (*memFacilityStore)(nil)

func TestImportCatalogMapsVariantKeys(t *testing.T) {
	store := newMemFacilityStore()
	svc := NewService(store, createTestLogger())

	rows := []models.UploadItem{
		{
			"BelgeNo":   float64(1001),
			"TesisAdi":  "ALEXIA RESORT & SPA HOTEL",
			"Sehir":     "ANTALYA",
			"Ilce":      "Manavgat",
			"BelgeTuru": "Turizm İşletmesi Belgesi",
			"adres":     "Side Mah. Alanya Cad. 1",
		},
		{
			"id":   "K-204",
			"adi":  "melissa pansiyon",
			"Il":   "MUĞLA",
			"İlçe": "Bodrum",
			"tur":  "basit konaklama tesisi",
		},
		{
			"name": "Mystery Lodge",
		},
	}

	report, err := svc.ImportCatalog(context.Background(), rows, false)
	if err != nil {
		t.Fatalf("ImportCatalog: %v", err)
	}
	if report.Inserted != 3 || report.Updated != 0 || report.TotalRows != 3 {
		t.Fatalf("report = %+v, want 3 inserted, 0 updated", report)
	}

	all, _ := store.ListAllFacilities(context.Background())
	if len(all) != 3 {
		t.Fatalf("stored %d facilities, want 3", len(all))
	}

	first := all[0]
	if first.RawID != "1001" {
		t.Errorf("first RawID = %q, want stringified BelgeNo", first.RawID)
	}
	if first.Name != "ALEXIA RESORT & SPA HOTEL" || first.City != "ANTALYA" || first.District != "Manavgat" {
		t.Errorf("first row mapped wrong: %+v", first)
	}
	if first.Type != typeTurizmIsletmesi {
		t.Errorf("first Type = %q, want canonical value", first.Type)
	}
	if first.WebsiteStatus != models.StatusPending || first.EmailStatus != models.StatusPending {
		t.Errorf("new facility should start pending, got %s/%s", first.WebsiteStatus, first.EmailStatus)
	}

	second := all[1]
	if second.RawID != "K-204" || second.City != "MUĞLA" || second.District != "Bodrum" {
		t.Errorf("second row mapped wrong: %+v", second)
	}
	if second.Type != typeBasitKonaklama {
		t.Errorf("second Type = %q, want normalized basit konaklama", second.Type)
	}

	third := all[2]
	if third.RawID != "" || third.Name != "Mystery Lodge" {
		t.Errorf("third row mapped wrong: %+v", third)
	}
	if third.City != "Bilinmiyor" || third.District != "Bilinmiyor" {
		t.Errorf("missing fields should default, got %q/%q", third.City, third.District)
	}

	if report.SampleMapped["raw_id"] != "1001" || report.SampleMapped["name"] != "ALEXIA RESORT & SPA HOTEL" {
		t.Errorf("sample mapped row = %+v, want first row", report.SampleMapped)
	}
}

func TestImportCatalogUpsertPreservesEnrichment(t *testing.T) {
	store := newMemFacilityStore()
	svc := NewService(store, createTestLogger())
	ctx := context.Background()

	_, err := svc.ImportCatalog(ctx, []models.UploadItem{
		{"BelgeNo": "B-77", "TesisAdi": "GRAND OTEL", "Sehir": "ANTALYA"},
	}, false)
	if err != nil {
		t.Fatalf("first import: %v", err)
	}

	// Enrichment lands between uploads.
	stored, err := store.GetFacilityByRawID(ctx, "B-77")
	if err != nil {
		t.Fatalf("GetFacilityByRawID: %v", err)
	}
	stored.SetWebsite("http://www.grandotel.com", "domain_guess", 85)
	stored.SetEmail("info@grandotel.com", models.SourceScrape)
	if err := store.SaveFacility(ctx, stored); err != nil {
		t.Fatalf("SaveFacility: %v", err)
	}

	report, err := svc.ImportCatalog(ctx, []models.UploadItem{
		{"BelgeNo": "B-77", "TesisAdi": "GRAND OTEL ANTALYA", "Sehir": "ANTALYA", "Ilce": "Muratpaşa"},
	}, false)
	if err != nil {
		t.Fatalf("second import: %v", err)
	}
	if report.Inserted != 0 || report.Updated != 1 {
		t.Fatalf("report = %+v, want 1 updated", report)
	}

	after, err := store.GetFacilityByRawID(ctx, "B-77")
	if err != nil {
		t.Fatalf("GetFacilityByRawID after update: %v", err)
	}
	if after.Name != "GRAND OTEL ANTALYA" || after.District != "Muratpaşa" {
		t.Errorf("catalog fields not updated: %+v", after)
	}
	if after.Website != "http://www.grandotel.com" || after.WebsiteStatus != models.StatusFound {
		t.Errorf("website enrichment lost on re-import: %+v", after)
	}
	if after.Email != "info@grandotel.com" || after.EmailStatus != models.StatusFound {
		t.Errorf("email enrichment lost on re-import: %+v", after)
	}

	count, _ := store.CountFacilities(ctx)
	if count != 1 {
		t.Errorf("count = %d, want 1 after upsert", count)
	}
}

func TestImportCatalogReset(t *testing.T) {
	store := newMemFacilityStore()
	svc := NewService(store, createTestLogger())
	ctx := context.Background()

	_, err := svc.ImportCatalog(ctx, []models.UploadItem{
		{"BelgeNo": "OLD-1", "TesisAdi": "Eski Otel"},
	}, false)
	if err != nil {
		t.Fatalf("seed import: %v", err)
	}

	report, err := svc.ImportCatalog(ctx, []models.UploadItem{
		{"BelgeNo": "NEW-1", "TesisAdi": "Yeni Otel"},
	}, true)
	if err != nil {
		t.Fatalf("reset import: %v", err)
	}
	if !report.ResetApplied || report.Inserted != 1 {
		t.Fatalf("report = %+v, want reset applied with 1 insert", report)
	}

	if _, err := store.GetFacilityByRawID(ctx, "OLD-1"); err != interfaces.ErrFacilityNotFound {
		t.Errorf("old facility should be gone after reset, got err %v", err)
	}
	count, _ := store.CountFacilities(ctx)
	if count != 1 {
		t.Errorf("count = %d, want only the new facility", count)
	}
}

func TestImportCatalogRowsWithoutIDAlwaysInsert(t *testing.T) {
	store := newMemFacilityStore()
	svc := NewService(store, createTestLogger())
	ctx := context.Background()

	row := []models.UploadItem{{"TesisAdi": "Isimsiz Tesis", "Sehir": "ANTALYA"}}
	if _, err := svc.ImportCatalog(ctx, row, false); err != nil {
		t.Fatalf("first import: %v", err)
	}
	if _, err := svc.ImportCatalog(ctx, row, false); err != nil {
		t.Fatalf("second import: %v", err)
	}

	count, _ := store.CountFacilities(ctx)
	if count != 2 {
		t.Errorf("count = %d, want 2: rows without raw IDs never upsert", count)
	}
}
