package dnscheck

import (
	"context"
	"errors"
	"net"
	"sync/atomic"
	"testing"
	"time"

	"github.com/miekg/dns"
	"github.com/ternarybob/arbor"
	"github.com/ternarybob/invenio/internal/common"
	"github.com/ternarybob/invenio/internal/interfaces"
	"github.com/ternarybob/invenio/internal/models"
)

func createTestLogger() arbor.ILogger {
	return arbor.NewLogger()
}

// memCache is a minimal CacheService for tests.
type memCache struct {
	data map[string][]byte
}

func newMemCache() *memCache {
	return &memCache{data: make(map[string][]byte)}
}

func (m *memCache) key(ns models.CacheNamespace, key string) string {
	return string(ns) + ":" + key
}

func (m *memCache) Get(ctx context.Context, ns models.CacheNamespace, key string) ([]byte, bool) {
	payload, ok := m.data[m.key(ns, key)]
	return payload, ok
}

func (m *memCache) GetJSON(ctx context.Context, ns models.CacheNamespace, key string, out interface{}) bool {
	payload, ok := m.data[m.key(ns, key)]
	if !ok {
		return false
	}
	if p, ok := out.(*models.DNSCachePayload); ok {
		p.Exists = string(payload) == "true"
		return true
	}
	return false
}

func (m *memCache) Put(ctx context.Context, ns models.CacheNamespace, key string, payload []byte) {
	m.data[m.key(ns, key)] = payload
}

func (m *memCache) PutJSON(ctx context.Context, ns models.CacheNamespace, key string, v interface{}) {
	if p, ok := v.(models.DNSCachePayload); ok {
		if p.Exists {
			m.data[m.key(ns, key)] = []byte("true")
		} else {
			m.data[m.key(ns, key)] = []byte("false")
		}
	}
}

func (m *memCache) Sweep(ctx context.Context) int                            { return 0 }
func (m *memCache) Clear(ctx context.Context, ns models.CacheNamespace) int  { return 0 }
func (m *memCache) Stats(ctx context.Context) *models.CacheStats             { return &models.CacheStats{} }

var _ interfaces.CacheService = (*memCache)(nil)

func newTestService(cache interfaces.CacheService) *Service {
	return NewService(cache, &common.DNSConfig{
		Resolver:      "127.0.0.1:53",
		Timeout:       time.Second,
		MaxConcurrent: 4,
	}, createTestLogger())
}

// fakeExchange builds an exchange function returning a fixed rcode, with an
// A answer when exists is true.
func fakeExchange(rcode int, exists bool, calls *int32) func(ctx context.Context, msg *dns.Msg, addr string) (*dns.Msg, error) {
	return func(ctx context.Context, msg *dns.Msg, addr string) (*dns.Msg, error) {
		if calls != nil {
			atomic.AddInt32(calls, 1)
		}
		resp := new(dns.Msg)
		resp.SetReply(msg)
		resp.Rcode = rcode
		if exists {
			resp.Answer = append(resp.Answer, &dns.A{
				Hdr: dns.RR_Header{Name: msg.Question[0].Name, Rrtype: dns.TypeA, Class: dns.ClassINET, Ttl: 300},
				A:   net.ParseIP("93.184.216.34"),
			})
		}
		return resp, nil
	}
}

func TestExtractHost(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{"http://www.example.com", "example.com"},
		{"https://example.com/path/page.html", "example.com"},
		{"http://www.grandhotel.com.tr/iletisim", "grandhotel.com.tr"},
		{"example.org", "example.org"},
		{"www.example.org", "example.org"},
		{"HTTP://EXAMPLE.COM", "http://example.com"},
	}

	for _, tt := range tests {
		if got := ExtractHost(tt.in); got != tt.want {
			t.Errorf("ExtractHost(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}
}

func TestCheckPositiveIsCached(t *testing.T) {
	cache := newMemCache()
	svc := newTestService(cache)
	var calls int32
	svc.exchange = fakeExchange(dns.RcodeSuccess, true, &calls)

	ctx := context.Background()
	if !svc.Check(ctx, "example.com") {
		t.Fatal("expected host to resolve")
	}
	if !svc.Check(ctx, "example.com") {
		t.Fatal("expected cached positive answer")
	}
	if atomic.LoadInt32(&calls) != 1 {
		t.Errorf("expected 1 DNS query, got %d", calls)
	}
}

func TestCheckNXDomainIsCached(t *testing.T) {
	cache := newMemCache()
	svc := newTestService(cache)
	var calls int32
	svc.exchange = fakeExchange(dns.RcodeNameError, false, &calls)

	ctx := context.Background()
	if svc.Check(ctx, "no-such-host.example") {
		t.Fatal("expected NXDOMAIN to report false")
	}
	if svc.Check(ctx, "no-such-host.example") {
		t.Fatal("expected cached negative answer")
	}
	if atomic.LoadInt32(&calls) != 1 {
		t.Errorf("expected 1 DNS query, got %d", calls)
	}
}

func TestCheckTimeoutIsNotCached(t *testing.T) {
	cache := newMemCache()
	svc := newTestService(cache)
	var calls int32
	svc.exchange = func(ctx context.Context, msg *dns.Msg, addr string) (*dns.Msg, error) {
		atomic.AddInt32(&calls, 1)
		return nil, errors.New("i/o timeout")
	}

	ctx := context.Background()
	if svc.Check(ctx, "slow.example.com") {
		t.Fatal("expected timeout to report false")
	}
	if svc.Check(ctx, "slow.example.com") {
		t.Fatal("expected false on second attempt")
	}
	// Both attempts hit the resolver: the timeout was not cached
	if atomic.LoadInt32(&calls) != 2 {
		t.Errorf("expected 2 DNS queries, got %d", calls)
	}
}

func TestCheckServfailIsNotCached(t *testing.T) {
	cache := newMemCache()
	svc := newTestService(cache)
	var calls int32
	svc.exchange = fakeExchange(dns.RcodeServerFailure, false, &calls)

	ctx := context.Background()
	svc.Check(ctx, "flaky.example.com")
	svc.Check(ctx, "flaky.example.com")

	if atomic.LoadInt32(&calls) != 2 {
		t.Errorf("expected SERVFAIL to stay uncached, got %d queries", calls)
	}
}

func TestFilterExistingDedupesHosts(t *testing.T) {
	cache := newMemCache()
	svc := newTestService(cache)
	var calls int32
	svc.exchange = fakeExchange(dns.RcodeSuccess, true, &calls)

	urls := []string{
		"http://www.example.com",
		"http://example.com",
		"http://example.com/contact",
	}

	kept := svc.FilterExisting(context.Background(), urls)
	if len(kept) != 3 {
		t.Fatalf("expected all 3 URLs kept, got %d", len(kept))
	}
	// All three URLs share one host
	if atomic.LoadInt32(&calls) != 1 {
		t.Errorf("expected 1 DNS query for the shared host, got %d", calls)
	}
}

func TestFilterExistingDropsUnresolved(t *testing.T) {
	cache := newMemCache()
	svc := newTestService(cache)
	svc.exchange = func(ctx context.Context, msg *dns.Msg, addr string) (*dns.Msg, error) {
		resp := new(dns.Msg)
		resp.SetReply(msg)
		if msg.Question[0].Name == "alive.example.com." {
			resp.Rcode = dns.RcodeSuccess
			resp.Answer = append(resp.Answer, &dns.A{
				Hdr: dns.RR_Header{Name: msg.Question[0].Name, Rrtype: dns.TypeA, Class: dns.ClassINET, Ttl: 300},
				A:   net.ParseIP("10.0.0.1"),
			})
		} else {
			resp.Rcode = dns.RcodeNameError
		}
		return resp, nil
	}

	urls := []string{
		"http://alive.example.com",
		"http://dead.example.com",
	}

	kept := svc.FilterExisting(context.Background(), urls)
	if len(kept) != 1 || kept[0] != "http://alive.example.com" {
		t.Errorf("expected only the resolving URL, got %v", kept)
	}
}
