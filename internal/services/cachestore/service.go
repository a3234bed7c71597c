package cachestore

import (
	"context"
	"encoding/json"
	"time"

	gocache "github.com/patrickmn/go-cache"
	"github.com/ternarybob/arbor"
	"github.com/ternarybob/invenio/internal/common"
	"github.com/ternarybob/invenio/internal/interfaces"
	"github.com/ternarybob/invenio/internal/models"
)

// Service is the layered enrichment cache: a go-cache in-memory front with
// per-namespace TTLs over the badger-backed persistent store. Reads fall
// through memory to disk; disk hits past their TTL are misses. All failures
// degrade to cache misses.
type Service struct {
	storage interfaces.CacheStorage
	memory  map[models.CacheNamespace]*gocache.Cache
	ttls    map[models.CacheNamespace]time.Duration
	logger  arbor.ILogger
}

// NewService creates the cache service with one in-memory region per
// namespace, each running its own expiry janitor.
func NewService(storage interfaces.CacheStorage, config *common.CacheConfig, logger arbor.ILogger) interfaces.CacheService {
	ttls := map[models.CacheNamespace]time.Duration{
		models.CacheNamespaceDNS:        config.DNSTTL,
		models.CacheNamespaceDomain:     config.DomainTTL,
		models.CacheNamespaceValidation: config.ValidationTTL,
		models.CacheNamespaceSearch:     config.SearchTTL,
	}

	memory := make(map[models.CacheNamespace]*gocache.Cache, len(ttls))
	for ns, ttl := range ttls {
		// Janitor interval scales with the TTL but stays bounded
		cleanup := ttl / 4
		if cleanup > time.Hour {
			cleanup = time.Hour
		}
		if cleanup < time.Minute {
			cleanup = time.Minute
		}
		memory[ns] = gocache.New(ttl, cleanup)
	}

	return &Service{
		storage: storage,
		memory:  memory,
		ttls:    ttls,
		logger:  logger,
	}
}

func (s *Service) ttl(ns models.CacheNamespace) time.Duration {
	if ttl, ok := s.ttls[ns]; ok {
		return ttl
	}
	return 24 * time.Hour
}

func (s *Service) Get(ctx context.Context, ns models.CacheNamespace, key string) ([]byte, bool) {
	key = normalizeKey(key)

	if region, ok := s.memory[ns]; ok {
		if v, found := region.Get(key); found {
			if payload, ok := v.([]byte); ok {
				return payload, true
			}
		}
	}

	entry, err := s.storage.Get(ctx, ns, key)
	if err != nil {
		if err != interfaces.ErrCacheMiss {
			s.logger.Debug().Err(err).Str("namespace", string(ns)).Str("key", key).Msg("Cache read failed")
		}
		return nil, false
	}

	// A persisted entry past its TTL is a miss
	age := time.Since(entry.CheckedAt)
	if age >= s.ttl(ns) {
		return nil, false
	}

	// Repopulate the memory layer with the remaining lifetime
	if region, ok := s.memory[ns]; ok {
		region.Set(key, entry.Payload, s.ttl(ns)-age)
	}

	return entry.Payload, true
}

func (s *Service) GetJSON(ctx context.Context, ns models.CacheNamespace, key string, out interface{}) bool {
	payload, ok := s.Get(ctx, ns, key)
	if !ok {
		return false
	}
	if err := json.Unmarshal(payload, out); err != nil {
		s.logger.Debug().Err(err).Str("namespace", string(ns)).Str("key", key).Msg("Cache payload unmarshal failed")
		return false
	}
	return true
}

func (s *Service) Put(ctx context.Context, ns models.CacheNamespace, key string, payload []byte) {
	key = normalizeKey(key)

	if region, ok := s.memory[ns]; ok {
		region.Set(key, payload, s.ttl(ns))
	}

	if err := s.storage.Put(ctx, ns, key, payload, time.Now()); err != nil {
		s.logger.Debug().Err(err).Str("namespace", string(ns)).Str("key", key).Msg("Cache write failed")
	}
}

func (s *Service) PutJSON(ctx context.Context, ns models.CacheNamespace, key string, v interface{}) {
	payload, err := json.Marshal(v)
	if err != nil {
		s.logger.Debug().Err(err).Str("namespace", string(ns)).Str("key", key).Msg("Cache payload marshal failed")
		return
	}
	s.Put(ctx, ns, key, payload)
}

// Sweep removes persisted entries older than their namespace TTL. The memory
// layer expires on its own janitors.
func (s *Service) Sweep(ctx context.Context) int {
	removed := 0
	for _, ns := range models.AllCacheNamespaces {
		cutoff := time.Now().Add(-s.ttl(ns))
		n, err := s.storage.DeleteOlderThan(ctx, ns, cutoff)
		if err != nil {
			s.logger.Warn().Err(err).Str("namespace", string(ns)).Msg("Cache sweep failed for namespace")
			continue
		}
		removed += n
	}

	if removed > 0 {
		s.logger.Info().Int("removed", removed).Msg("Cache sweep completed")
	}
	return removed
}

func (s *Service) Clear(ctx context.Context, ns models.CacheNamespace) int {
	targets := models.AllCacheNamespaces
	if ns != "" {
		targets = []models.CacheNamespace{ns}
	}

	removed := 0
	for _, target := range targets {
		if region, ok := s.memory[target]; ok {
			region.Flush()
		}
		n, err := s.storage.DeleteNamespace(ctx, target)
		if err != nil {
			s.logger.Warn().Err(err).Str("namespace", string(target)).Msg("Cache clear failed for namespace")
			continue
		}
		removed += n
	}

	s.logger.Info().Str("namespace", string(ns)).Int("removed", removed).Msg("Cache cleared")
	return removed
}

func (s *Service) Stats(ctx context.Context) *models.CacheStats {
	stats := &models.CacheStats{Entries: make(map[string]int)}
	for _, ns := range models.AllCacheNamespaces {
		count, err := s.storage.Count(ctx, ns)
		if err != nil {
			s.logger.Debug().Err(err).Str("namespace", string(ns)).Msg("Cache count failed")
			continue
		}
		stats.Entries[string(ns)] = count
		stats.Total += count
	}
	return stats
}

// Ensure interface compliance
var _ interfaces.CacheService = (*Service)(nil)
