package crawler

import (
	"bytes"
	"context"
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
)

// skippedExtensions are resources never worth fetching during a crawl.
var skippedExtensions = []string{".pdf", ".jpg", ".png", ".gif", ".css", ".js", ".zip", ".doc"}

// Service walks a site breadth-first, contact pages first, and keeps the best
// scored address it sees.
type Service struct {
	config *common.CrawlerConfig
	client *http.Client
	logger arbor.ILogger
}

// NewService creates the email crawler.
func NewService(config *common.CrawlerConfig, logger arbor.ILogger) interfaces.CrawlerService {
	return &Service{
		config: config,
		client: httpclient.NewDefaultHTTPClient(config.RequestTimeout),
		logger: logger,
	}
}

// CrawlForEmail walks same-host pages from rootURL until an address reaches
// the early-exit score, maxPages pages were fetched, or the frontier drains.
// Page failures are logged and skipped; the crawl itself never fails.
func (s *Service) CrawlForEmail(ctx context.Context, rootURL string, maxPages int) *models.EmailResult {
	if maxPages <= 0 {
		maxPages = s.config.MaxPages
	}

	rootHost := ""
	if u, err := url.Parse(rootURL); err == nil {
		rootHost = u.Host
	}

	queue := newURLQueue()
	queue.Push(rootURL, false)

	found := make(map[string]int)
	pagesCrawled := 0

	s.logger.Debug().Str("url", rootURL).Msg("Starting email crawl")

	for queue.Len() > 0 && pagesCrawled < maxPages {
		if ctx.Err() != nil {
			break
		}

		pageURL, ok := queue.Pop()
		if !ok {
			break
		}
		if hasSkippedExtension(pageURL) {
			continue
		}

		body, err := s.fetchPage(ctx, pageURL)
		if err != nil {
			s.logger.Debug().Err(err).Str("url", pageURL).Msg("Page fetch failed")
			continue
		}
		if body == nil {
			// Not an HTML document.
			continue
		}
		pagesCrawled++

		doc, err := goquery.NewDocumentFromReader(bytes.NewReader(body))
		if err != nil {
			s.logger.Debug().Err(err).Str("url", pageURL).Msg("Page parse failed")
			continue
		}

		pageEmails := extractEmailsFromHTML(doc)
		// The raw body catches addresses hidden in comments or broken markup.
		for email := range extractEmailsFromText(string(body)) {
			pageEmails[email] = true
		}

		lowerURL := strings.ToLower(pageURL)
		for email := range pageEmails {
			score := scoreEmail(email, rootHost)
			if containsPriorityKeyword(lowerURL) {
				score += 15
			}
			if prev, seen := found[email]; !seen || score > prev {
				found[email] = score
				s.logger.Debug().Str("email", email).Int("score", score).Msg("Found email")
			}
		}

		s.enqueueLinks(doc, pageURL, rootHost, queue)

		if email, score := bestEmail(found); email != "" && score >= s.config.EarlyExitScore {
			s.logger.Info().
				Str("email", email).
				Int("score", score).
				Int("pages", pagesCrawled).
				Msg("High-confidence email found")
			return &models.EmailResult{Email: email, Score: float64(score), Source: models.SourceScrape, PagesCrawled: pagesCrawled}
		}
	}

	if email, score := bestEmail(found); email != "" {
		s.logger.Info().
			Str("email", email).
			Int("score", score).
			Int("pages", pagesCrawled).
			Msg("Best email selected")
		return &models.EmailResult{Email: email, Score: float64(score), Source: models.SourceScrape, PagesCrawled: pagesCrawled}
	}

	s.logger.Debug().Str("url", rootURL).Int("pages", pagesCrawled).Msg("No emails found")
	return nil
}

// fetchPage returns the page body, or nil without error when the response is
// not an HTML document. Status codes are not checked: error pages still get
// scanned, which mirrors how often hotel sites serve contact data on soft
// 404s.
func (s *Service) fetchPage(ctx context.Context, pageURL string) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, pageURL, nil)
	if err != nil {
		return nil, err
	}
	httpclient.ApplyCrawlerHeaders(req)

	resp, err := s.client.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, err
	}

	contentType := strings.ToLower(resp.Header.Get("Content-Type"))
	if !strings.Contains(contentType, "text/html") && !strings.Contains(contentType, "application/xhtml") {
		return nil, nil
	}
	return body, nil
}

// enqueueLinks queues same-host anchor targets, contact-like URLs first.
// Links resolve against the queued URL, not the post-redirect one.
func (s *Service) enqueueLinks(doc *goquery.Document, pageURL, rootHost string, queue *urlQueue) {
	base, err := url.Parse(pageURL)
	if err != nil {
		return
	}
	doc.Find("a[href]").Each(func(_ int, sel *goquery.Selection) {
		href, _ := sel.Attr("href")
		if href == "" || strings.HasPrefix(href, "mailto:") || strings.HasPrefix(href, "javascript:") {
			return
		}
		resolved, err := base.Parse(href)
		if err != nil || resolved.Host != rootHost {
			return
		}
		resolved.Fragment = ""
		full := resolved.String()
		queue.Push(full, containsPriorityKeyword(strings.ToLower(full)))
	})
}

// bestEmail returns the top-scoring address. Ties go to the
// lexicographically smaller address so results are stable.
func bestEmail(found map[string]int) (string, int) {
	best := ""
	bestScore := 0
	for email, score := range found {
		if best == "" || score > bestScore || (score == bestScore && email < best) {
			best = email
			bestScore = score
		}
	}
	return best, bestScore
}

func hasSkippedExtension(rawURL string) bool {
	lower := strings.ToLower(rawURL)
	for _, ext := range skippedExtensions {
		if strings.HasSuffix(lower, ext) {
			return true
		}
	}
	return false
}

var _ interfaces.CrawlerService = (*Service)(nil)
