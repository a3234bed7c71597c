package search

import (
	"context"
	"errors"
	"io"
	"net/http"
	"strings"
	"testing"
	"time"

	"github.com/ternarybob/arbor"

	"github.com/ternarybob/invenio/internal/common"
	"github.com/ternarybob/invenio/internal/interfaces"
	"github.com/ternarybob/invenio/internal/models"
	"github.com/ternarybob/invenio/internal/services/breaker"
)

func createTestLogger() arbor.ILogger {
	return arbor.NewLogger()
}

// memCache stores search payloads keyed the way the real cache store does.
type memCache struct {
	data map[string]models.SearchCachePayload
}

func newMemCache() *memCache {
	return &memCache{data: make(map[string]models.SearchCachePayload)}
}

func (c *memCache) Get(ctx context.Context, ns models.CacheNamespace, key string) ([]byte, bool) {
	return nil, false
}

func (c *memCache) GetJSON(ctx context.Context, ns models.CacheNamespace, key string, out interface{}) bool {
	payload, ok := c.data[string(ns)+"|"+key]
	if !ok {
		return false
	}
	if p, ok := out.(*models.SearchCachePayload); ok {
		*p = payload
		return true
	}
	return false
}

func (c *memCache) Put(ctx context.Context, ns models.CacheNamespace, key string, payload []byte) {}

func (c *memCache) PutJSON(ctx context.Context, ns models.CacheNamespace, key string, v interface{}) {
	if p, ok := v.(models.SearchCachePayload); ok {
		c.data[string(ns)+"|"+key] = p
	}
}

func (c *memCache) Sweep(ctx context.Context) int { return 0 }

func (c *memCache) Clear(ctx context.Context, ns models.CacheNamespace) int { return 0 }

func (c *memCache) Stats(ctx context.Context) *models.CacheStats { return &models.CacheStats{} }

var _ interfaces.CacheService = (*memCache)(nil)

type roundTripperFunc func(*http.Request) (*http.Response, error)

func (f roundTripperFunc) RoundTrip(req *http.Request) (*http.Response, error) {
	return f(req)
}

func htmlResponse(status int, body string) *http.Response {
	return &http.Response{
		StatusCode: status,
		Header:     http.Header{"Content-Type": []string{"text/html; charset=utf-8"}},
		Body:       io.NopCloser(strings.NewReader(body)),
	}
}

func fastRetry(maxAttempts int) *RetryPolicy {
	p := NewRetryPolicy(maxAttempts)
	p.InitialBackoff = time.Millisecond
	p.MaxBackoff = 2 * time.Millisecond
	return p
}

func newTestSearch(rt roundTripperFunc, br *breaker.Breaker) (*Service, *memCache) {
	if br == nil {
		br = breaker.New(breaker.Settings{Name: "search-test"}, createTestLogger())
	}
	cache := newMemCache()
	s := &Service{
		config: &common.SearchConfig{
			Endpoint:   "https://search.test/html",
			Timeout:    2 * time.Second,
			MaxRetries: 3,
			MaxLinks:   50,
		},
		cache:   cache,
		breaker: br,
		client:  &http.Client{Transport: rt, Timeout: 2 * time.Second},
		retry:   fastRetry(3),
		logger:  createTestLogger(),
	}
	return s, cache
}

const resultPage = `<html><body>
<a href="/settings">internal</a>
<a href="https://duckduckgo.com/about">engine link</a>
<a href="https://out.search.example/l/?uddg=https%3A%2F%2Fwww.alexiahotel.com%2F">Alexia Hotel Antalya resmi site</a>
<a href="https://www.grandhotel.com.tr/">Grand Hotel</a>
<a href="mailto:info@example.com">mail</a>
</body></html>`

func TestSearchParsesResultPage(t *testing.T) {
	var gotReq *http.Request
	var gotBody string
	rt := roundTripperFunc(func(req *http.Request) (*http.Response, error) {
		gotReq = req
		raw, _ := io.ReadAll(req.Body)
		gotBody = string(raw)
		return htmlResponse(200, resultPage), nil
	})
	s, _ := newTestSearch(rt, nil)

	results, err := s.Search(context.Background(), `"pearl hotel" istanbul otel`)
	if err != nil {
		t.Fatalf("Search: %v", err)
	}

	if gotReq.Method != http.MethodPost {
		t.Errorf("method = %s, want POST", gotReq.Method)
	}
	if ct := gotReq.Header.Get("Content-Type"); ct != "application/x-www-form-urlencoded" {
		t.Errorf("Content-Type = %q", ct)
	}
	if ref := gotReq.Header.Get("Referer"); !strings.Contains(ref, "duckduckgo") {
		t.Errorf("Referer = %q", ref)
	}
	if !strings.Contains(gotBody, "q=%22pearl+hotel%22") {
		t.Errorf("form body = %q, want encoded query", gotBody)
	}

	if len(results) != 2 {
		t.Fatalf("results = %+v, want 2", results)
	}
	if results[0].URL != "https://www.alexiahotel.com/" {
		t.Errorf("results[0].URL = %q, want decoded redirect target", results[0].URL)
	}
	if results[0].Text != "Alexia Hotel Antalya resmi site" {
		t.Errorf("results[0].Text = %q", results[0].Text)
	}
	if results[1].URL != "https://www.grandhotel.com.tr/" {
		t.Errorf("results[1].URL = %q", results[1].URL)
	}
}

func TestSearchCaching(t *testing.T) {
	calls := 0
	rt := roundTripperFunc(func(req *http.Request) (*http.Response, error) {
		calls++
		return htmlResponse(200, resultPage), nil
	})
	s, _ := newTestSearch(rt, nil)

	first, err := s.Search(context.Background(), "Pearl Hotel istanbul otel")
	if err != nil {
		t.Fatalf("Search: %v", err)
	}

	// Same query in a different case hits the same cache entry.
	second, err := s.Search(context.Background(), "PEARL HOTEL istanbul otel")
	if err != nil {
		t.Fatalf("Search (cached): %v", err)
	}
	if calls != 1 {
		t.Errorf("expected 1 HTTP call, got %d", calls)
	}
	if len(second) != len(first) {
		t.Errorf("cached results = %d, want %d", len(second), len(first))
	}
}

func TestSearchAccepts202(t *testing.T) {
	rt := roundTripperFunc(func(req *http.Request) (*http.Response, error) {
		return htmlResponse(202, resultPage), nil
	})
	s, _ := newTestSearch(rt, nil)

	results, err := s.Search(context.Background(), "grand hotel antalya otel")
	if err != nil {
		t.Fatalf("Search: %v", err)
	}
	if len(results) != 2 {
		t.Errorf("results = %d, want 2", len(results))
	}
}

func TestSearchRetriesRateLimit(t *testing.T) {
	calls := 0
	rt := roundTripperFunc(func(req *http.Request) (*http.Response, error) {
		calls++
		if calls == 1 {
			return htmlResponse(429, "slow down"), nil
		}
		return htmlResponse(200, resultPage), nil
	})
	s, _ := newTestSearch(rt, nil)

	results, err := s.Search(context.Background(), "grand hotel antalya otel")
	if err != nil {
		t.Fatalf("Search: %v", err)
	}
	if calls != 2 {
		t.Errorf("expected a retry after 429, got %d calls", calls)
	}
	if len(results) != 2 {
		t.Errorf("results = %d, want 2", len(results))
	}
}

func TestSearchClientErrorNotRetried(t *testing.T) {
	calls := 0
	rt := roundTripperFunc(func(req *http.Request) (*http.Response, error) {
		calls++
		return htmlResponse(403, "forbidden"), nil
	})
	s, _ := newTestSearch(rt, nil)

	_, err := s.Search(context.Background(), "grand hotel antalya otel")
	if err == nil {
		t.Fatal("expected error for HTTP 403")
	}
	if calls != 1 {
		t.Errorf("403 must not be retried, got %d calls", calls)
	}
}

func TestSearchCircuitOpen(t *testing.T) {
	calls := 0
	rt := roundTripperFunc(func(req *http.Request) (*http.Response, error) {
		calls++
		return htmlResponse(500, "boom"), nil
	})
	br := breaker.New(breaker.Settings{
		Name:             "search-test",
		FailureThreshold: 1,
		RecoveryTimeout:  time.Minute,
		SuccessThreshold: 1,
	}, createTestLogger())
	s, _ := newTestSearch(rt, br)

	_, err := s.Search(context.Background(), "grand hotel antalya otel")
	if !errors.Is(err, interfaces.ErrCircuitOpen) {
		t.Fatalf("expected circuit-open error once the breaker trips, got %v", err)
	}
	if calls != 1 {
		t.Errorf("open circuit must stop further attempts, got %d calls", calls)
	}
	if s.Available() {
		t.Error("Available() must report the open circuit")
	}
}

func TestSearchEmptyResultsCached(t *testing.T) {
	calls := 0
	rt := roundTripperFunc(func(req *http.Request) (*http.Response, error) {
		calls++
		return htmlResponse(200, "<html><body>no results</body></html>"), nil
	})
	s, _ := newTestSearch(rt, nil)

	results, err := s.Search(context.Background(), "xyzzy otel")
	if err != nil {
		t.Fatalf("Search: %v", err)
	}
	if len(results) != 0 {
		t.Errorf("results = %+v, want none", results)
	}

	if _, err := s.Search(context.Background(), "xyzzy otel"); err != nil {
		t.Fatalf("Search (cached): %v", err)
	}
	if calls != 1 {
		t.Errorf("empty result pages should be cached too, got %d calls", calls)
	}
}

func TestSearchMaxLinksCap(t *testing.T) {
	page := `<html><body>
<a href="https://www.one.com.tr/">One</a>
<a href="https://www.two.com.tr/">Two</a>
<a href="https://www.three.com.tr/">Three</a>
</body></html>`
	rt := roundTripperFunc(func(req *http.Request) (*http.Response, error) {
		return htmlResponse(200, page), nil
	})
	s, _ := newTestSearch(rt, nil)
	s.config.MaxLinks = 2

	results, err := s.Search(context.Background(), "cap test otel")
	if err != nil {
		t.Fatalf("Search: %v", err)
	}
	if len(results) != 2 {
		t.Fatalf("results = %d, want the first 2 anchors only", len(results))
	}
	if results[1].URL != "https://www.two.com.tr/" {
		t.Errorf("results[1].URL = %q", results[1].URL)
	}
}

func TestDecodeRedirect(t *testing.T) {
	tests := []struct {
		name     string
		href     string
		expected string
	}{
		{
			name:     "uddg wrapper",
			href:     "https://out.search.example/l/?uddg=https%3A%2F%2Fwww.alexiahotel.com%2F",
			expected: "https://www.alexiahotel.com/",
		},
		{
			name:     "r wrapper",
			href:     "https://out.search.example/?r=https%3A%2F%2Fwww.grandhotel.com",
			expected: "https://www.grandhotel.com",
		},
		{
			name:     "wrapper without parameter",
			href:     "https://out.search.example/l/?uddg=",
			expected: "https://out.search.example/l/?uddg=",
		},
		{
			name:     "plain url with r= substring",
			href:     "https://example.com/?color=red",
			expected: "https://example.com/?color=red",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := decodeRedirect(tt.href)
			if err != nil {
				t.Fatalf("decodeRedirect: %v", err)
			}
			if got != tt.expected {
				t.Errorf("decodeRedirect(%q) = %q, want %q", tt.href, got, tt.expected)
			}
		})
	}
}

func TestRetryBackoffBounds(t *testing.T) {
	p := NewRetryPolicy(3)
	for attempt := 0; attempt < 3; attempt++ {
		for i := 0; i < 50; i++ {
			backoff := p.CalculateBackoff(attempt)
			if backoff < 0 {
				t.Fatalf("negative backoff at attempt %d", attempt)
			}
			// 10s cap plus 25% jitter.
			if backoff > 12500*time.Millisecond {
				t.Fatalf("backoff %v exceeds jittered cap at attempt %d", backoff, attempt)
			}
		}
	}
}
