// Package interfaces provides service interfaces for dependency injection.
package interfaces

import (
	"context"

	"github.com/ternarybob/invenio/internal/models"
)

// CacheService is the four-namespace TTL cache shared by the discovery and
// crawl pipelines. Every operation is best-effort: a storage failure is
// logged at debug and behaves as a miss so callers never see cache errors.
type CacheService interface {
	// Get returns the payload for a key and whether it is fresh. A stale or
	// absent key returns (nil, false).
	Get(ctx context.Context, ns models.CacheNamespace, key string) ([]byte, bool)

	// GetJSON unmarshals a fresh payload into out and reports freshness.
	GetJSON(ctx context.Context, ns models.CacheNamespace, key string, out interface{}) bool

	// Put upserts a payload with the current time as checked_at.
	Put(ctx context.Context, ns models.CacheNamespace, key string, payload []byte)

	// PutJSON marshals v and upserts it.
	PutJSON(ctx context.Context, ns models.CacheNamespace, key string, v interface{})

	// Sweep deletes entries older than each namespace's TTL. Returns the
	// number of removed entries.
	Sweep(ctx context.Context) int

	// Clear empties one namespace, or all when ns is empty.
	Clear(ctx context.Context, ns models.CacheNamespace) int

	// Stats reports per-namespace entry counts.
	Stats(ctx context.Context) *models.CacheStats
}
