package interfaces

import (
	"context"

	"github.com/ternarybob/invenio/internal/models"
)

// CrawlerService walks a bounded set of same-host pages from a root URL and
// extracts the best scored contact email.
type CrawlerService interface {
	// CrawlForEmail runs a priority BFS from rootURL, visiting at most
	// maxPages distinct pages on the root host. Per-page failures are logged
	// and skipped; the crawl itself never fails. A nil result means no valid
	// address was found.
	CrawlForEmail(ctx context.Context, rootURL string, maxPages int) *models.EmailResult
}

// DiscoveryService resolves a facility (name, city) to a website.
type DiscoveryService interface {
	// FindWebsite runs the domain-guess, search-fallback and alternative-TLD
	// strategies in order and returns either a scored URL or a reason code,
	// never both.
	FindWebsite(ctx context.Context, name, city string) *models.DiscoveryResult
}

// DNSChecker resolves hosts with caching and bounded fan-out.
type DNSChecker interface {
	// Check reports whether the host resolves. Negative answers from the
	// resolver are cached; network timeouts are not.
	Check(ctx context.Context, host string) bool

	// FilterExisting keeps only URLs whose host resolves, resolving each
	// distinct host at most once.
	FilterExisting(ctx context.Context, urls []string) []string
}
