package search

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"

	"github.com/PuerkitoBio/goquery"
	"github.com/ternarybob/arbor"

	"github.com/ternarybob/invenio/internal/common"
	"github.com/ternarybob/invenio/internal/httpclient"
	"github.com/ternarybob/invenio/internal/interfaces"
	"github.com/ternarybob/invenio/internal/models"
	"github.com/ternarybob/invenio/internal/services/breaker"
	"github.com/ternarybob/invenio/internal/services/cachestore"
)

// Service queries the DuckDuckGo HTML endpoint. The endpoint tolerates
// form POSTs without a token but rate-limits hard, so every call runs
// through the search breaker and a slow exponential retry, and results are
// cached for a day per query.
type Service struct {
	config  *common.SearchConfig
	cache   interfaces.CacheService
	breaker *breaker.Breaker
	client  *http.Client
	retry   *RetryPolicy
	logger  arbor.ILogger
}

func NewService(config *common.SearchConfig, cache interfaces.CacheService, searchBreaker *breaker.Breaker, logger arbor.ILogger) interfaces.SearchService {
	return &Service{
		config:  config,
		cache:   cache,
		breaker: searchBreaker,
		client:  httpclient.NewDefaultHTTPClient(config.Timeout),
		retry:   NewRetryPolicy(config.MaxRetries),
		logger:  logger,
	}
}

// Available reports whether the breaker currently admits search calls.
func (s *Service) Available() bool {
	return s.breaker.Available()
}

func (s *Service) Search(ctx context.Context, query string) ([]models.SearchResult, error) {
	key := cachestore.SearchKey(query)

	var cached models.SearchCachePayload
	if s.cache.GetJSON(ctx, models.CacheNamespaceSearch, key, &cached) {
		s.logger.Debug().Str("query", query).Int("results", len(cached.Results)).Msg("Search cache hit")
		return cached.Results, nil
	}

	var html []byte
	_, err := s.retry.ExecuteWithRetry(ctx, s.logger, func() (int, error) {
		status, body, err := s.fetch(ctx, query)
		if err != nil {
			return status, err
		}
		html = body
		return status, nil
	})
	if err != nil {
		return nil, err
	}

	results := s.parseResults(html)
	s.logger.Debug().Str("query", query).Int("results", len(results)).Msg("Search results parsed")

	s.cache.PutJSON(ctx, models.CacheNamespaceSearch, key, models.SearchCachePayload{Results: results})
	return results, nil
}

// fetch runs one POST against the endpoint. 200 and 202 both carry a result
// page; everything else counts as a backend failure.
func (s *Service) fetch(ctx context.Context, query string) (int, []byte, error) {
	if err := s.breaker.Allow(); err != nil {
		return 0, nil, err
	}

	form := url.Values{"q": {query}}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, s.config.Endpoint, strings.NewReader(form.Encode()))
	if err != nil {
		return 0, nil, err
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	httpclient.ApplyDiscoveryHeaders(req)

	resp, err := s.client.Do(req)
	if err != nil {
		s.breaker.RecordFailure()
		return 0, nil, err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK && resp.StatusCode != http.StatusAccepted {
		s.breaker.RecordFailure()
		return resp.StatusCode, nil, fmt.Errorf("search backend returned HTTP %d", resp.StatusCode)
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		s.breaker.RecordFailure()
		return resp.StatusCode, nil, err
	}

	s.breaker.RecordSuccess()
	return resp.StatusCode, body, nil
}

// parseResults walks the anchors of a result page, capped at MaxLinks,
// decodes the redirect wrappers and drops anything internal or relative.
func (s *Service) parseResults(html []byte) []models.SearchResult {
	doc, err := goquery.NewDocumentFromReader(bytes.NewReader(html))
	if err != nil {
		s.logger.Warn().Err(err).Msg("Result page did not parse")
		return nil
	}

	maxLinks := s.config.MaxLinks
	if maxLinks <= 0 {
		maxLinks = 50
	}

	var results []models.SearchResult
	inspected := 0
	doc.Find("a[href]").EachWithBreak(func(_ int, sel *goquery.Selection) bool {
		if inspected >= maxLinks {
			return false
		}
		inspected++

		href, _ := sel.Attr("href")
		text := truncateRunes(strings.TrimSpace(sel.Text()), 100)

		if href == "" || strings.HasPrefix(href, "/") || strings.Contains(href, "duckduckgo") {
			return true
		}
		if !strings.HasPrefix(href, "http") {
			return true
		}

		if strings.Contains(href, "uddg=") || strings.Contains(href, "r=") {
			decoded, err := decodeRedirect(href)
			if err != nil {
				return true
			}
			href = decoded
		}
		if !strings.HasPrefix(href, "http") {
			return true
		}

		results = append(results, models.SearchResult{URL: href, Text: text})
		return true
	})

	return results
}

// decodeRedirect unwraps the result-page indirection: links arrive as
// //duckduckgo.com/l/?uddg=<encoded> or ?r=<encoded>. A wrapper without the
// expected parameter passes through unchanged.
func decodeRedirect(href string) (string, error) {
	u, err := url.Parse(href)
	if err != nil {
		return "", err
	}
	params := u.Query()

	if strings.Contains(href, "uddg=") {
		if v := params.Get("uddg"); v != "" {
			return v, nil
		}
	} else if strings.Contains(href, "r=") {
		if v := params.Get("r"); v != "" {
			return v, nil
		}
	}
	return href, nil
}

func truncateRunes(s string, n int) string {
	count := 0
	for i := range s {
		if count == n {
			return s[:i]
		}
		count++
	}
	return s
}

var _ interfaces.SearchService = (*Service)(nil)
