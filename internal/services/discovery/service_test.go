package discovery

import (
	"context"
	"errors"
	"net/http"
	"testing"
	"time"

	"github.com/ternarybob/invenio/internal/common"
	"github.com/ternarybob/invenio/internal/interfaces"
	"github.com/ternarybob/invenio/internal/models"
)

type stubDNS struct {
	keep func(urls []string) []string
}

func (d *stubDNS) Check(ctx context.Context, host string) bool { return true }

func (d *stubDNS) FilterExisting(ctx context.Context, urls []string) []string {
	if d.keep == nil {
		return urls
	}
	return d.keep(urls)
}

var _ interfaces.DNSChecker = (*stubDNS)(nil)

type stubSearch struct {
	available bool
	results   []models.SearchResult
	err       error
	calls     int
}

func (s *stubSearch) Search(ctx context.Context, query string) ([]models.SearchResult, error) {
	s.calls++
	if s.err != nil {
		return nil, s.err
	}
	return s.results, nil
}

func (s *stubSearch) Available() bool { return s.available }

var _ interfaces.SearchService = (*stubSearch)(nil)

func newTestService(rt roundTripperFunc, dns interfaces.DNSChecker, search interfaces.SearchService) *Service {
	cache := newJSONCache()
	prober := newTestProber(cache, rt)
	return &Service{
		config: &common.DiscoveryConfig{
			HeadTimeout:    2 * time.Second,
			GetTimeout:     5 * time.Second,
			EarlyExitScore: 85,
		},
		dns:       dns,
		search:    search,
		prober:    prober,
		validator: NewValidator(prober, cache, createTestLogger()),
		logger:    createTestLogger(),
		sleep:     func(time.Duration) {},
	}
}

func failingRT() roundTripperFunc {
	return func(req *http.Request) (*http.Response, error) {
		return nil, errors.New("dial tcp: connection refused")
	}
}

func TestFindWebsiteEmptyName(t *testing.T) {
	s := newTestService(failingRT(), &stubDNS{keep: func([]string) []string { return nil }}, &stubSearch{})

	result := s.FindWebsite(context.Background(), "   ", "antalya")
	if result.Found() {
		t.Fatalf("expected no match, got %+v", result)
	}
	if result.Reason != models.ReasonNoMatch {
		t.Errorf("Reason = %q, want %q", result.Reason, models.ReasonNoMatch)
	}
}

func TestFindWebsiteDomainGuessEarlyExit(t *testing.T) {
	rt := roundTripperFunc(func(req *http.Request) (*http.Response, error) {
		if req.URL.Host != "alexiaresort.com" {
			return nil, errors.New("unexpected host " + req.URL.Host)
		}
		if req.Method == http.MethodHead {
			return htmlResponse(200, ""), nil
		}
		return htmlResponse(200, "<html><body>Alexia Resort, Antalya sahilinde</body></html>"), nil
	})
	dns := &stubDNS{keep: func(urls []string) []string {
		if len(urls) == 0 {
			return nil
		}
		return []string{"http://alexiaresort.com"}
	}}
	search := &stubSearch{available: true}
	s := newTestService(rt, dns, search)

	result := s.FindWebsite(context.Background(), "Alexia Resort", "antalya")
	if !result.Found() {
		t.Fatalf("expected a match, got %+v", result)
	}
	if result.URL != "http://alexiaresort.com" {
		t.Errorf("URL = %q", result.URL)
	}
	if result.Source != models.SourceDomainGuess {
		t.Errorf("Source = %q, want %q", result.Source, models.SourceDomainGuess)
	}
	if result.Score != 100 {
		t.Errorf("Score = %.2f, want 100", result.Score)
	}
	if search.calls != 0 {
		t.Errorf("search should not run after an early exit, got %d calls", search.calls)
	}
}

func TestFindWebsiteDomainNotHotelReason(t *testing.T) {
	rt := roundTripperFunc(func(req *http.Request) (*http.Response, error) {
		if req.URL.Host != "alexiaresort.com" {
			return nil, errors.New("dial tcp: connection refused")
		}
		if req.Method == http.MethodHead {
			return htmlResponse(200, ""), nil
		}
		// Reachable and relevant, but nothing on the page says hotel.
		return htmlResponse(200, "<html><body>random page</body></html>"), nil
	})
	dns := &stubDNS{keep: func(urls []string) []string {
		return []string{"http://alexiaresort.com"}
	}}
	search := &stubSearch{available: true}
	s := newTestService(rt, dns, search)

	result := s.FindWebsite(context.Background(), "Alexia Resort", "antalya")
	if result.Found() {
		t.Fatalf("expected no match, got %+v", result)
	}
	if result.Reason != models.ReasonDomainNotHotel {
		t.Errorf("Reason = %q, want %q", result.Reason, models.ReasonDomainNotHotel)
	}
	if search.calls == 0 {
		t.Error("search fallback should still have been tried")
	}
}

func TestFindWebsiteSearchFallback(t *testing.T) {
	rt := roundTripperFunc(func(req *http.Request) (*http.Response, error) {
		if req.URL.Host == "www.grandhotelantalya.com" && req.Method == http.MethodGet {
			return htmlResponse(200, "<html><body>Antalya merkezde konaklama</body></html>"), nil
		}
		return nil, errors.New("dial tcp: connection refused")
	})
	dns := &stubDNS{keep: func([]string) []string { return nil }}
	search := &stubSearch{
		available: true,
		results: []models.SearchResult{
			{URL: "http://www.grandhotelantalya.com", Text: "Grand Hotel Antalya - resmi site"},
		},
	}
	s := newTestService(rt, dns, search)

	result := s.FindWebsite(context.Background(), "Grand Hotel", "antalya")
	if !result.Found() {
		t.Fatalf("expected a match, got %+v", result)
	}
	if result.Source != models.SourceSearch {
		t.Errorf("Source = %q, want %q", result.Source, models.SourceSearch)
	}
	// The search result URL is returned as listed, not the post-redirect URL.
	if result.URL != "http://www.grandhotelantalya.com" {
		t.Errorf("URL = %q", result.URL)
	}
	if search.calls != 1 {
		t.Errorf("expected 1 search call, got %d", search.calls)
	}
}

func TestFindWebsiteSearchSkippedWhenUnavailable(t *testing.T) {
	dns := &stubDNS{keep: func([]string) []string { return nil }}
	search := &stubSearch{available: false}
	s := newTestService(failingRT(), dns, search)

	result := s.FindWebsite(context.Background(), "Alexia Resort", "antalya")
	if result.Found() {
		t.Fatalf("expected no match, got %+v", result)
	}
	if result.Reason != models.ReasonSearchNoCandidates {
		t.Errorf("Reason = %q, want %q", result.Reason, models.ReasonSearchNoCandidates)
	}
	if search.calls != 0 {
		t.Errorf("open search circuit must skip queries, got %d calls", search.calls)
	}
}

func TestFindWebsiteSearchNoValidReason(t *testing.T) {
	rt := roundTripperFunc(func(req *http.Request) (*http.Response, error) {
		if req.URL.Host == "grandhotelantalya.com" && req.Method == http.MethodGet {
			// Hotel-looking domain but the page content never confirms it.
			return htmlResponse(200, "<html><body>random content</body></html>"), nil
		}
		return nil, errors.New("dial tcp: connection refused")
	})
	dns := &stubDNS{keep: func([]string) []string { return nil }}
	search := &stubSearch{
		available: true,
		results: []models.SearchResult{
			{URL: "http://grandhotelantalya.com", Text: "Grand Hotel Antalya"},
		},
	}
	s := newTestService(rt, dns, search)

	result := s.FindWebsite(context.Background(), "Grand Hotel", "antalya")
	if result.Found() {
		t.Fatalf("expected no match, got %+v", result)
	}
	if result.Reason != models.ReasonSearchNoValid {
		t.Errorf("Reason = %q, want %q", result.Reason, models.ReasonSearchNoValid)
	}
}

func TestFindWebsiteBlacklistedSearchResults(t *testing.T) {
	getCalls := 0
	rt := roundTripperFunc(func(req *http.Request) (*http.Response, error) {
		if req.Method == http.MethodGet {
			getCalls++
		}
		return nil, errors.New("dial tcp: connection refused")
	})
	dns := &stubDNS{keep: func([]string) []string { return nil }}
	search := &stubSearch{
		available: true,
		results: []models.SearchResult{
			{URL: "http://www.booking.com/hotel/tr/grand.html", Text: "Grand Hotel - Booking.com"},
			{URL: "https://www.tripadvisor.com.tr/Hotel_Review", Text: "Grand Hotel - Tripadvisor"},
		},
	}
	s := newTestService(rt, dns, search)

	result := s.FindWebsite(context.Background(), "Grand Hotel", "antalya")
	if result.Found() {
		t.Fatalf("expected no match, got %+v", result)
	}
	if result.Reason != models.ReasonSearchNoCandidates {
		t.Errorf("Reason = %q, want %q", result.Reason, models.ReasonSearchNoCandidates)
	}
	if search.calls == 0 {
		t.Error("expected search queries to run")
	}
	if getCalls != 0 {
		t.Errorf("aggregator results must never be validated, got %d GET calls", getCalls)
	}
}

func TestFindWebsiteAlternativeTLD(t *testing.T) {
	rt := roundTripperFunc(func(req *http.Request) (*http.Response, error) {
		if req.URL.Host != "alexiaresort.biz" {
			return nil, errors.New("dial tcp: connection refused")
		}
		if req.Method == http.MethodHead {
			return htmlResponse(200, ""), nil
		}
		return htmlResponse(200, "<html><body>Antalya tatil koyu</body></html>"), nil
	})
	dns := &stubDNS{keep: func([]string) []string { return nil }}
	search := &stubSearch{available: true}
	s := newTestService(rt, dns, search)

	result := s.FindWebsite(context.Background(), "Alexia Resort", "antalya")
	if !result.Found() {
		t.Fatalf("expected a match, got %+v", result)
	}
	if result.Source != models.SourceAlternativeTLD {
		t.Errorf("Source = %q, want %q", result.Source, models.SourceAlternativeTLD)
	}
	if result.URL != "http://alexiaresort.biz" {
		t.Errorf("URL = %q", result.URL)
	}
	if result.Reason != "" {
		t.Errorf("Reason = %q, want empty", result.Reason)
	}
}

func TestFindWebsiteRedirectFollowed(t *testing.T) {
	rt := roundTripperFunc(func(req *http.Request) (*http.Response, error) {
		switch req.URL.Host {
		case "www.alexia-hotel.com.tr":
			resp := htmlResponse(301, "")
			resp.Header.Set("Location", "https://alexiahotel.com")
			return resp, nil
		case "alexiahotel.com":
			return htmlResponse(200, "<html><body>Antalya merkez</body></html>"), nil
		default:
			return nil, errors.New("dial tcp: connection refused")
		}
	})
	dns := &stubDNS{keep: func([]string) []string {
		return []string{"http://www.alexia-hotel.com.tr"}
	}}
	search := &stubSearch{available: true}
	s := newTestService(rt, dns, search)

	result := s.FindWebsite(context.Background(), "Alexia Resort", "antalya")
	if !result.Found() {
		t.Fatalf("expected a match, got %+v", result)
	}
	// The redirect target is what gets validated and returned.
	if result.URL != "https://alexiahotel.com" {
		t.Errorf("URL = %q, want the redirect target", result.URL)
	}
	if result.Source != models.SourceDomainGuess {
		t.Errorf("Source = %q, want %q", result.Source, models.SourceDomainGuess)
	}
}

func TestFindWebsiteCancelledContext(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	headCalls := 0
	rt := roundTripperFunc(func(req *http.Request) (*http.Response, error) {
		headCalls++
		return htmlResponse(200, ""), nil
	})
	dns := &stubDNS{}
	search := &stubSearch{available: true}
	s := newTestService(rt, dns, search)

	result := s.FindWebsite(ctx, "Alexia Resort", "antalya")
	if result.Found() {
		t.Fatalf("cancelled context must not produce a match, got %+v", result)
	}
	if headCalls != 0 {
		t.Errorf("cancelled context must stop probing, got %d calls", headCalls)
	}
}

func TestDomainQualityBonus(t *testing.T) {
	tests := []struct {
		url      string
		name     string
		expected float64
	}{
		{"http://alexiaresort.com", "Alexia Resort", 10},
		{"http://yildizoteli.com", "YILDIZ OTELİ", 15},
		{"http://alexiahotel.com", "ALEXIA OTEL", 15},
		{"http://crystalspa.com", "Crystal Spa Hotel", 8},
		{"http://plainname.com", "Plain Name Hotel", 0},
	}

	for _, tt := range tests {
		if got := domainQualityBonus(tt.url, tt.name); got != tt.expected {
			t.Errorf("domainQualityBonus(%q, %q) = %.0f, want %.0f", tt.url, tt.name, got, tt.expected)
		}
	}
}
