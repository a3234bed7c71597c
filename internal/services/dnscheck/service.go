package dnscheck

import (
	"context"
	"net"
	"strings"
	"sync"

	"github.com/miekg/dns"
	"github.com/ternarybob/arbor"
	"github.com/ternarybob/invenio/internal/common"
	"github.com/ternarybob/invenio/internal/interfaces"
	"github.com/ternarybob/invenio/internal/models"
)

// Service answers "does this host resolve" with caching. Definitive negative
// answers (NXDOMAIN, NODATA) are cached; timeouts and resolver failures are
// not, so a transient outage never poisons the cache.
type Service struct {
	cache    interfaces.CacheService
	config   *common.DNSConfig
	logger   arbor.ILogger
	client   *dns.Client
	resolver string

	// exchange is swappable for tests
	exchange func(ctx context.Context, msg *dns.Msg, addr string) (*dns.Msg, error)
}

// NewService creates the DNS prober. The resolver comes from config, else
// the first server in /etc/resolv.conf, else 1.1.1.1.
func NewService(cache interfaces.CacheService, config *common.DNSConfig, logger arbor.ILogger) *Service {
	client := &dns.Client{Timeout: config.Timeout}

	s := &Service{
		cache:    cache,
		config:   config,
		logger:   logger,
		client:   client,
		resolver: resolverAddr(config.Resolver),
	}
	s.exchange = func(ctx context.Context, msg *dns.Msg, addr string) (*dns.Msg, error) {
		resp, _, err := s.client.ExchangeContext(ctx, msg, addr)
		return resp, err
	}

	logger.Debug().Str("resolver", s.resolver).Msg("DNS prober initialized")
	return s
}

// resolverAddr picks the resolver address, always host:port.
func resolverAddr(configured string) string {
	if configured != "" {
		if _, _, err := net.SplitHostPort(configured); err == nil {
			return configured
		}
		return net.JoinHostPort(configured, "53")
	}

	conf, err := dns.ClientConfigFromFile("/etc/resolv.conf")
	if err == nil && len(conf.Servers) > 0 {
		port := conf.Port
		if port == "" {
			port = "53"
		}
		return net.JoinHostPort(conf.Servers[0], port)
	}

	return "1.1.1.1:53"
}

// ExtractHost reduces a URL or bare domain to the host to resolve: scheme,
// leading www. and any path are stripped.
func ExtractHost(rawURL string) string {
	host := strings.TrimSpace(rawURL)
	host = strings.TrimPrefix(host, "https://")
	host = strings.TrimPrefix(host, "http://")
	host = strings.TrimPrefix(host, "www.")
	if idx := strings.Index(host, "/"); idx >= 0 {
		host = host[:idx]
	}
	return strings.ToLower(host)
}

// Check reports whether the host has an A record.
func (s *Service) Check(ctx context.Context, rawHost string) bool {
	host := ExtractHost(rawHost)
	if host == "" {
		return false
	}

	var cached models.DNSCachePayload
	if s.cache.GetJSON(ctx, models.CacheNamespaceDNS, host, &cached) {
		return cached.Exists
	}

	exists, definitive := s.resolve(ctx, host)
	if definitive {
		s.cache.PutJSON(ctx, models.CacheNamespaceDNS, host, models.DNSCachePayload{Exists: exists})
	}
	return exists
}

// resolve runs one A query. The second return reports whether the answer is
// definitive and may be cached.
func (s *Service) resolve(ctx context.Context, host string) (exists bool, definitive bool) {
	msg := new(dns.Msg)
	msg.SetQuestion(dns.Fqdn(host), dns.TypeA)
	msg.RecursionDesired = true

	resp, err := s.exchange(ctx, msg, s.resolver)
	if err != nil {
		// Timeout or resolver unreachable: unknown, not cacheable
		s.logger.Debug().Err(err).Str("host", host).Msg("DNS query failed")
		return false, false
	}

	switch resp.Rcode {
	case dns.RcodeNameError:
		return false, true
	case dns.RcodeSuccess:
		for _, rr := range resp.Answer {
			if _, ok := rr.(*dns.A); ok {
				return true, true
			}
		}
		// NOERROR without an A answer is an authoritative NODATA
		return false, true
	default:
		// SERVFAIL and friends are transient
		s.logger.Debug().Str("host", host).Int("rcode", resp.Rcode).Msg("DNS query returned transient rcode")
		return false, false
	}
}

// FilterExisting keeps URLs whose host resolves. Each distinct host is
// resolved at most once, with a bounded fan-out.
func (s *Service) FilterExisting(ctx context.Context, urls []string) []string {
	if len(urls) == 0 {
		return nil
	}

	// Dedupe hosts, preserving URL order for the result
	hosts := make([]string, 0, len(urls))
	seen := make(map[string]bool, len(urls))
	for _, u := range urls {
		host := ExtractHost(u)
		if host == "" || seen[host] {
			continue
		}
		seen[host] = true
		hosts = append(hosts, host)
	}

	maxConcurrent := s.config.MaxConcurrent
	if maxConcurrent <= 0 {
		maxConcurrent = 10
	}

	results := make(map[string]bool, len(hosts))
	var mu sync.Mutex
	var wg sync.WaitGroup
	sem := make(chan struct{}, maxConcurrent)

	for _, host := range hosts {
		wg.Add(1)
		sem <- struct{}{}
		go func(h string) {
			defer wg.Done()
			defer func() { <-sem }()
			exists := s.Check(ctx, h)
			mu.Lock()
			results[h] = exists
			mu.Unlock()
		}(host)
	}
	wg.Wait()

	kept := make([]string, 0, len(urls))
	for _, u := range urls {
		if results[ExtractHost(u)] {
			kept = append(kept, u)
		}
	}

	s.logger.Debug().
		Int("candidates", len(urls)).
		Int("resolved", len(kept)).
		Msg("DNS pre-filter completed")

	return kept
}

// Ensure interface compliance
var _ interfaces.DNSChecker = (*Service)(nil)
