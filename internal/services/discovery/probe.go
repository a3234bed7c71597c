package discovery

import (
	"context"
	"net/http"

	"github.com/ternarybob/arbor"

	"github.com/ternarybob/invenio/internal/common"
	"github.com/ternarybob/invenio/internal/httpclient"
	"github.com/ternarybob/invenio/internal/interfaces"
	"github.com/ternarybob/invenio/internal/models"
	"github.com/ternarybob/invenio/internal/services/breaker"
)

// Prober wraps the two probe modes used during discovery: a short HEAD for
// reachability and a longer GET for content. Every call goes through the
// shared http breaker, and HEAD outcomes are cached in the domain namespace.
type Prober struct {
	cache      interfaces.CacheService
	breaker    *breaker.Breaker
	logger     arbor.ILogger
	headClient *http.Client
	getClient  *http.Client
}

func NewProber(config *common.DiscoveryConfig, cache interfaces.CacheService, httpBreaker *breaker.Breaker, logger arbor.ILogger) *Prober {
	return &Prober{
		cache:      cache,
		breaker:    httpBreaker,
		logger:     logger,
		headClient: httpclient.NewNoRedirectClient(config.HeadTimeout),
		getClient:  httpclient.NewDefaultHTTPClient(config.GetTimeout),
	}
}

// Head probes a URL without following redirects. The returned payload holds
// the raw status code and the redirect target when the server sent one.
// Responses are cached; transport failures are not, they may be temporary.
func (p *Prober) Head(ctx context.Context, rawURL string) (*models.DomainCachePayload, error) {
	var cached models.DomainCachePayload
	if p.cache.GetJSON(ctx, models.CacheNamespaceDomain, rawURL, &cached) {
		return &cached, nil
	}

	if err := p.breaker.Allow(); err != nil {
		return nil, err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodHead, rawURL, nil)
	if err != nil {
		return nil, err
	}
	httpclient.ApplyDiscoveryHeaders(req)

	resp, err := p.headClient.Do(req)
	if err != nil {
		p.breaker.RecordFailure()
		return nil, err
	}
	defer resp.Body.Close()
	p.breaker.RecordSuccess()

	payload := models.DomainCachePayload{StatusCode: resp.StatusCode, FinalURL: rawURL}
	if loc := resp.Header.Get("Location"); loc != "" && resp.StatusCode >= 300 && resp.StatusCode < 400 {
		payload.FinalURL = loc
	}
	p.cache.PutJSON(ctx, models.CacheNamespaceDomain, rawURL, payload)

	return &payload, nil
}

// Get fetches page content following redirects. The caller owns the body.
func (p *Prober) Get(ctx context.Context, rawURL string) (*http.Response, error) {
	if err := p.breaker.Allow(); err != nil {
		return nil, err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, rawURL, nil)
	if err != nil {
		return nil, err
	}
	httpclient.ApplyDiscoveryHeaders(req)

	resp, err := p.getClient.Do(req)
	if err != nil {
		p.breaker.RecordFailure()
		return nil, err
	}
	p.breaker.RecordSuccess()

	return resp, nil
}
