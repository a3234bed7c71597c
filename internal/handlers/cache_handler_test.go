package handlers

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/ternarybob/invenio/internal/interfaces"
	"github.com/ternarybob/invenio/internal/models"
)

// mockCacheService implements interfaces.CacheService for testing
type mockCacheService struct {
	statsFunc func(ctx context.Context) *models.CacheStats
	clearFunc func(ctx context.Context, ns models.CacheNamespace) int
}

var _ interfaces.CacheService = (*mockCacheService)(nil)

func (m *mockCacheService) Get(ctx context.Context, ns models.CacheNamespace, key string) ([]byte, bool) {
	return nil, false
}

func (m *mockCacheService) GetJSON(ctx context.Context, ns models.CacheNamespace, key string, out interface{}) bool {
	return false
}

func (m *mockCacheService) Put(ctx context.Context, ns models.CacheNamespace, key string, payload []byte) {
}

func (m *mockCacheService) PutJSON(ctx context.Context, ns models.CacheNamespace, key string, v interface{}) {
}

func (m *mockCacheService) Sweep(ctx context.Context) int { return 0 }

func (m *mockCacheService) Clear(ctx context.Context, ns models.CacheNamespace) int {
	if m.clearFunc != nil {
		return m.clearFunc(ctx, ns)
	}
	return 0
}

func (m *mockCacheService) Stats(ctx context.Context) *models.CacheStats {
	if m.statsFunc != nil {
		return m.statsFunc(ctx)
	}
	return &models.CacheStats{Entries: map[string]int{}}
}

func TestCacheStatsHandler(t *testing.T) {
	mockService := &mockCacheService{
		statsFunc: func(ctx context.Context) *models.CacheStats {
			return &models.CacheStats{
				Entries: map[string]int{"dns": 12, "domain": 4, "validation": 0, "search": 7},
				Total:   23,
			}
		},
	}
	handler := NewCacheHandler(mockService, createTestLogger())

	req := httptest.NewRequest("GET", "/api/cache/stats", nil)
	rec := httptest.NewRecorder()

	handler.StatsHandler(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("Expected status 200, got %d", rec.Code)
	}

	var response map[string]interface{}
	if err := json.NewDecoder(rec.Body).Decode(&response); err != nil {
		t.Fatalf("Failed to decode response: %v", err)
	}
	if int(response["total"].(float64)) != 23 {
		t.Errorf("Expected total 23, got %v", response["total"])
	}
	entries := response["entries"].(map[string]interface{})
	if int(entries["dns"].(float64)) != 12 {
		t.Errorf("Expected 12 dns entries, got %v", entries["dns"])
	}
}

func TestCacheClearHandler(t *testing.T) {
	var clearedNS models.CacheNamespace
	mockService := &mockCacheService{
		clearFunc: func(ctx context.Context, ns models.CacheNamespace) int {
			clearedNS = ns
			return 5
		},
	}
	handler := NewCacheHandler(mockService, createTestLogger())

	req := httptest.NewRequest("POST", "/api/cache/clear?namespace=dns", nil)
	rec := httptest.NewRecorder()

	handler.ClearHandler(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("Expected status 200, got %d", rec.Code)
	}
	if clearedNS != models.CacheNamespaceDNS {
		t.Errorf("Expected namespace 'dns', got %q", clearedNS)
	}

	var response map[string]interface{}
	if err := json.NewDecoder(rec.Body).Decode(&response); err != nil {
		t.Fatalf("Failed to decode response: %v", err)
	}
	if response["status"] != "success" {
		t.Errorf("Expected status 'success', got %v", response["status"])
	}
	if int(response["removed"].(float64)) != 5 {
		t.Errorf("Expected removed 5, got %v", response["removed"])
	}
}

func TestCacheClearHandlerAllNamespaces(t *testing.T) {
	var clearedNS models.CacheNamespace = "sentinel"
	mockService := &mockCacheService{
		clearFunc: func(ctx context.Context, ns models.CacheNamespace) int {
			clearedNS = ns
			return 42
		},
	}
	handler := NewCacheHandler(mockService, createTestLogger())

	req := httptest.NewRequest("POST", "/api/cache/clear", nil)
	rec := httptest.NewRecorder()

	handler.ClearHandler(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("Expected status 200, got %d", rec.Code)
	}
	if clearedNS != "" {
		t.Errorf("Expected empty namespace for full clear, got %q", clearedNS)
	}
}

func TestCacheClearHandlerRequiresPost(t *testing.T) {
	handler := NewCacheHandler(&mockCacheService{}, createTestLogger())

	req := httptest.NewRequest("GET", "/api/cache/clear", nil)
	rec := httptest.NewRecorder()

	handler.ClearHandler(rec, req)

	if rec.Code != http.StatusMethodNotAllowed {
		t.Errorf("Expected status 405, got %d", rec.Code)
	}
}
