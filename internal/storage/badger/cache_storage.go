package badger

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/ternarybob/arbor"
	"github.com/ternarybob/invenio/internal/interfaces"
	"github.com/ternarybob/invenio/internal/models"
	"github.com/timshannon/badgerhold/v4"
)

// CacheStorage implements the CacheStorage interface for Badger. It is the
// persistent layer under the in-memory TTL cache; TTL policy lives above it.
type CacheStorage struct {
	db     *BadgerDB
	logger arbor.ILogger
}

// NewCacheStorage creates a new CacheStorage instance
func NewCacheStorage(db *BadgerDB, logger arbor.ILogger) interfaces.CacheStorage {
	return &CacheStorage{
		db:     db,
		logger: logger,
	}
}

// cacheEntryID builds the composite record key. Keys are lowercased so that
// lookups are case-insensitive across the whole cache.
func cacheEntryID(ns models.CacheNamespace, key string) string {
	return fmt.Sprintf("%s:%s", ns, strings.ToLower(key))
}

func (s *CacheStorage) Get(ctx context.Context, ns models.CacheNamespace, key string) (*models.CacheEntry, error) {
	var entry models.CacheEntry
	if err := s.db.Store().Get(cacheEntryID(ns, key), &entry); err != nil {
		if err == badgerhold.ErrNotFound {
			return nil, interfaces.ErrCacheMiss
		}
		return nil, fmt.Errorf("failed to get cache entry: %w", err)
	}
	return &entry, nil
}

// Put upserts an entry. CheckedAt never moves backwards for a key, so a
// concurrent refresh cannot overwrite a newer probe with an older one.
func (s *CacheStorage) Put(ctx context.Context, ns models.CacheNamespace, key string, payload []byte, checkedAt time.Time) error {
	id := cacheEntryID(ns, key)

	var existing models.CacheEntry
	if err := s.db.Store().Get(id, &existing); err == nil {
		if existing.CheckedAt.After(checkedAt) {
			return nil
		}
	}

	entry := models.CacheEntry{
		ID:        id,
		Namespace: ns,
		Key:       strings.ToLower(key),
		Payload:   payload,
		CheckedAt: checkedAt,
	}

	if err := s.db.Store().Upsert(id, &entry); err != nil {
		return fmt.Errorf("failed to put cache entry: %w", err)
	}
	return nil
}

// DeleteOlderThan removes entries in a namespace whose CheckedAt is before
// the cutoff. Returns the number removed.
func (s *CacheStorage) DeleteOlderThan(ctx context.Context, ns models.CacheNamespace, cutoff time.Time) (int, error) {
	var stale []models.CacheEntry
	query := badgerhold.Where("Namespace").Eq(ns)
	if err := s.db.Store().Find(&stale, query); err != nil {
		return 0, fmt.Errorf("failed to scan cache namespace: %w", err)
	}

	removed := 0
	for _, entry := range stale {
		if entry.CheckedAt.Before(cutoff) {
			if err := s.db.Store().Delete(entry.ID, &models.CacheEntry{}); err != nil {
				s.logger.Debug().Err(err).Str("id", entry.ID).Msg("Failed to delete stale cache entry")
				continue
			}
			removed++
		}
	}
	return removed, nil
}

func (s *CacheStorage) DeleteNamespace(ctx context.Context, ns models.CacheNamespace) (int, error) {
	count, err := s.Count(ctx, ns)
	if err != nil {
		return 0, err
	}

	if err := s.db.Store().DeleteMatching(&models.CacheEntry{}, badgerhold.Where("Namespace").Eq(ns)); err != nil {
		return 0, fmt.Errorf("failed to clear cache namespace: %w", err)
	}
	return count, nil
}

func (s *CacheStorage) Count(ctx context.Context, ns models.CacheNamespace) (int, error) {
	count, err := s.db.Store().Count(&models.CacheEntry{}, badgerhold.Where("Namespace").Eq(ns))
	if err != nil {
		return 0, fmt.Errorf("failed to count cache entries: %w", err)
	}
	return int(count), nil
}

// Ensure interface compliance
var _ interfaces.CacheStorage = (*CacheStorage)(nil)
