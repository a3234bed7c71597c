package cachestore

import (
	"crypto/md5"
	"encoding/hex"
	"strings"
)

// normalizeKey lowercases keys so lookups are case-insensitive.
func normalizeKey(key string) string {
	return strings.ToLower(strings.TrimSpace(key))
}

// SearchKey derives the cache key for a search query: md5 of the lowercased
// query, hex encoded. Queries are free text, so hashing keeps keys bounded.
func SearchKey(query string) string {
	sum := md5.Sum([]byte(strings.ToLower(query)))
	return hex.EncodeToString(sum[:])
}
