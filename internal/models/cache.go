package models

import "time"

// CacheNamespace partitions the enrichment cache. Each namespace carries its
// own TTL; reads past the TTL are treated as absent.
type CacheNamespace string

const (
	CacheNamespaceDNS        CacheNamespace = "dns"
	CacheNamespaceDomain     CacheNamespace = "domain"
	CacheNamespaceValidation CacheNamespace = "validation"
	CacheNamespaceSearch     CacheNamespace = "search"
)

// AllCacheNamespaces lists every namespace for sweeps and stats.
var AllCacheNamespaces = []CacheNamespace{
	CacheNamespaceDNS,
	CacheNamespaceDomain,
	CacheNamespaceValidation,
	CacheNamespaceSearch,
}

// CacheEntry is one persisted cache row. Payload is namespace-specific JSON.
// CheckedAt only moves forward for a given key.
type CacheEntry struct {
	ID        string         `json:"id" badgerhold:"key"`
	Namespace CacheNamespace `json:"namespace" badgerhold:"index"`
	Key       string         `json:"key"`
	Payload   []byte         `json:"payload"`
	CheckedAt time.Time      `json:"checked_at"`
}

// DNSCachePayload records whether a host resolved.
type DNSCachePayload struct {
	Exists bool `json:"domain_exists"`
}

// DomainCachePayload records a HEAD probe outcome.
type DomainCachePayload struct {
	StatusCode int    `json:"status_code"`
	FinalURL   string `json:"final_url"`
}

// ValidationCachePayload records a content-validation verdict.
type ValidationCachePayload struct {
	IsHotel    bool     `json:"is_hotel"`
	Confidence float64  `json:"confidence"`
	Indicators []string `json:"indicators"`
}

// SearchCachePayload records decoded search results for one query.
type SearchCachePayload struct {
	Results []SearchResult `json:"results"`
}

// CacheStats reports per-namespace entry counts for the stats endpoint.
type CacheStats struct {
	Entries map[string]int `json:"entries"`
	Total   int            `json:"total"`
}
