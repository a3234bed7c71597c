package interfaces

import (
	"context"

	"github.com/ternarybob/invenio/internal/models"
)

// SearchService queries an external web-search backend and yields decoded
// result anchors. The shipped implementation posts to the DuckDuckGo HTML
// endpoint; the interface keeps the backend pluggable so discovery only
// depends on "a query produces result anchors".
type SearchService interface {
	// Search runs one query and returns decoded result anchors, capped by the
	// backend's result limit. Results are served from the search cache when
	// fresh. A circuit-open condition surfaces as an error.
	Search(ctx context.Context, query string) ([]models.SearchResult, error)

	// Available reports whether the backend's circuit admits calls right now.
	Available() bool
}
