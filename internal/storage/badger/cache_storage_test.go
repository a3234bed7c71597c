package badger

import (
	"context"
	"testing"
	"time"

	"github.com/ternarybob/arbor"
	"github.com/ternarybob/invenio/internal/interfaces"
	"github.com/ternarybob/invenio/internal/models"
)

func TestCacheEntryRoundTrip(t *testing.T) {
	db := newTestDB(t)
	storage := NewCacheStorage(db, arbor.NewLogger())
	ctx := context.Background()

	now := time.Now()
	if err := storage.Put(ctx, models.CacheNamespaceDNS, "oteldeniz.com", []byte(`{"domain_exists":true}`), now); err != nil {
		t.Fatalf("Failed to put cache entry: %v", err)
	}

	entry, err := storage.Get(ctx, models.CacheNamespaceDNS, "oteldeniz.com")
	if err != nil {
		t.Fatalf("Failed to get cache entry: %v", err)
	}
	if string(entry.Payload) != `{"domain_exists":true}` {
		t.Errorf("Unexpected payload: %s", entry.Payload)
	}

	// Keys are case-insensitive
	entry, err = storage.Get(ctx, models.CacheNamespaceDNS, "OtelDeniz.COM")
	if err != nil {
		t.Fatalf("Expected case-insensitive hit, got %v", err)
	}
	if entry.Key != "oteldeniz.com" {
		t.Errorf("Expected lowercased key, got %q", entry.Key)
	}

	if _, err := storage.Get(ctx, models.CacheNamespaceDNS, "missing.com"); err != interfaces.ErrCacheMiss {
		t.Errorf("Expected ErrCacheMiss, got %v", err)
	}

	// Same key in another namespace is a separate entry
	if _, err := storage.Get(ctx, models.CacheNamespaceDomain, "oteldeniz.com"); err != interfaces.ErrCacheMiss {
		t.Errorf("Expected namespace isolation, got %v", err)
	}
}

func TestCachePutKeepsNewerEntry(t *testing.T) {
	db := newTestDB(t)
	storage := NewCacheStorage(db, arbor.NewLogger())
	ctx := context.Background()

	newer := time.Now()
	older := newer.Add(-time.Hour)

	if err := storage.Put(ctx, models.CacheNamespaceDomain, "a.com", []byte("new"), newer); err != nil {
		t.Fatal(err)
	}
	// A write with an older checked_at must not win
	if err := storage.Put(ctx, models.CacheNamespaceDomain, "a.com", []byte("old"), older); err != nil {
		t.Fatal(err)
	}

	entry, err := storage.Get(ctx, models.CacheNamespaceDomain, "a.com")
	if err != nil {
		t.Fatal(err)
	}
	if string(entry.Payload) != "new" {
		t.Errorf("Expected newer payload to survive, got %q", entry.Payload)
	}
}

func TestCacheDeleteOlderThan(t *testing.T) {
	db := newTestDB(t)
	storage := NewCacheStorage(db, arbor.NewLogger())
	ctx := context.Background()

	now := time.Now()
	storage.Put(ctx, models.CacheNamespaceSearch, "fresh", []byte("x"), now)
	storage.Put(ctx, models.CacheNamespaceSearch, "stale", []byte("y"), now.Add(-48*time.Hour))

	removed, err := storage.DeleteOlderThan(ctx, models.CacheNamespaceSearch, now.Add(-24*time.Hour))
	if err != nil {
		t.Fatalf("Failed to sweep: %v", err)
	}
	if removed != 1 {
		t.Errorf("Expected 1 removed entry, got %d", removed)
	}

	if _, err := storage.Get(ctx, models.CacheNamespaceSearch, "fresh"); err != nil {
		t.Errorf("Fresh entry should survive the sweep: %v", err)
	}
	if _, err := storage.Get(ctx, models.CacheNamespaceSearch, "stale"); err != interfaces.ErrCacheMiss {
		t.Errorf("Stale entry should be gone, got %v", err)
	}
}

func TestCacheNamespaceOps(t *testing.T) {
	db := newTestDB(t)
	storage := NewCacheStorage(db, arbor.NewLogger())
	ctx := context.Background()

	now := time.Now()
	storage.Put(ctx, models.CacheNamespaceDNS, "a.com", []byte("1"), now)
	storage.Put(ctx, models.CacheNamespaceDNS, "b.com", []byte("2"), now)
	storage.Put(ctx, models.CacheNamespaceDomain, "a.com", []byte("3"), now)

	count, err := storage.Count(ctx, models.CacheNamespaceDNS)
	if err != nil {
		t.Fatalf("Failed to count: %v", err)
	}
	if count != 2 {
		t.Errorf("Expected 2 dns entries, got %d", count)
	}

	removed, err := storage.DeleteNamespace(ctx, models.CacheNamespaceDNS)
	if err != nil {
		t.Fatalf("Failed to clear namespace: %v", err)
	}
	if removed != 2 {
		t.Errorf("Expected 2 removed, got %d", removed)
	}

	// Other namespaces are untouched
	count, _ = storage.Count(ctx, models.CacheNamespaceDomain)
	if count != 1 {
		t.Errorf("Expected domain namespace intact, got %d", count)
	}
}

func TestJobLogAppendAndCount(t *testing.T) {
	db := newTestDB(t)
	storage := NewJobLogStorage(db, arbor.NewLogger())
	ctx := context.Background()

	jobID := "job-logs-test"
	levels := []string{
		models.LogLevelInfo,
		models.LogLevelSuccess,
		models.LogLevelSuccess,
		models.LogLevelWarning,
		models.LogLevelError,
	}
	for i, level := range levels {
		entry := models.NewJobLogEntry(jobID, level, "line")
		// Spread the sortable timestamps so ordering is deterministic
		entry.FullTimestamp = time.Now().Add(time.Duration(i) * time.Millisecond).Format(time.RFC3339Nano)
		if err := storage.AppendLog(ctx, entry); err != nil {
			t.Fatalf("Failed to append log: %v", err)
		}
	}

	logs, err := storage.GetLogs(ctx, jobID, 0)
	if err != nil {
		t.Fatalf("Failed to get logs: %v", err)
	}
	if len(logs) != 5 {
		t.Fatalf("Expected 5 logs, got %d", len(logs))
	}
	// Newest first
	if logs[0].Level != models.LogLevelError {
		t.Errorf("Expected newest log first, got %s", logs[0].Level)
	}

	limited, err := storage.GetLogs(ctx, jobID, 2)
	if err != nil {
		t.Fatalf("Failed to get limited logs: %v", err)
	}
	if len(limited) != 2 {
		t.Errorf("Expected 2 logs with limit, got %d", len(limited))
	}

	warnings, err := storage.GetLogsByLevel(ctx, jobID, models.LogLevelWarning, 0)
	if err != nil {
		t.Fatalf("Failed to get logs by level: %v", err)
	}
	if len(warnings) != 1 {
		t.Errorf("Expected 1 warning, got %d", len(warnings))
	}

	counts, err := storage.CountLogsByLevel(ctx, jobID)
	if err != nil {
		t.Fatalf("Failed to count logs: %v", err)
	}
	if counts[models.LogLevelSuccess] != 2 || counts[models.LogLevelError] != 1 {
		t.Errorf("Unexpected level counts: %v", counts)
	}

	if err := storage.DeleteLogs(ctx, jobID); err != nil {
		t.Fatalf("Failed to delete logs: %v", err)
	}
	logs, _ = storage.GetLogs(ctx, jobID, 0)
	if len(logs) != 0 {
		t.Errorf("Expected no logs after delete, got %d", len(logs))
	}
}
