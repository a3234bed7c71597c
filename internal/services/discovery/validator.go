package discovery

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"net"
	"net/http"
	"net/url"
	"strings"
	"unicode"
	"unicode/utf8"

	"github.com/PuerkitoBio/goquery"
	"github.com/ternarybob/arbor"

	"github.com/ternarybob/invenio/internal/interfaces"
	"github.com/ternarybob/invenio/internal/models"
)

// Validator classifies a URL as a hotel site for a (name, city) pair using a
// priority ladder: domain keywords first, then a city match in the body,
// then HTML fallbacks. The two strongest signals together skip HTML parsing
// entirely. Verdicts are cached per URL.
type Validator struct {
	prober *Prober
	cache  interfaces.CacheService
	logger arbor.ILogger
}

func NewValidator(prober *Prober, cache interfaces.CacheService, logger arbor.ILogger) *Validator {
	return &Validator{
		prober: prober,
		cache:  cache,
		logger: logger,
	}
}

func (v *Validator) Validate(ctx context.Context, rawURL, hotelName, city string) *models.ValidationVerdict {
	var cached models.ValidationCachePayload
	if v.cache.GetJSON(ctx, models.CacheNamespaceValidation, rawURL, &cached) {
		v.logger.Debug().Str("url", rawURL).Msg("Validation cache hit")
		return &models.ValidationVerdict{
			IsHotel:    cached.IsHotel,
			Confidence: cached.Confidence,
			Indicators: cached.Indicators,
		}
	}

	indicators := []string{}
	score := 0.0

	if u, err := url.Parse(rawURL); err == nil {
		host := strings.ToLower(u.Host)
		if containsAny(host, validatorDomainKeywords) {
			score += 40
			indicators = append(indicators, fmt.Sprintf("✓ Hotel keyword in domain: %s", host))
		} else if containsAny(host, validatorBrandKeywords) {
			score += 35
			indicators = append(indicators, fmt.Sprintf("✓ Hotel brand in domain: %s", host))
		}
	}

	resp, err := v.prober.Get(ctx, rawURL)
	if err != nil {
		return v.errorVerdict(ctx, rawURL, score, indicators, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		if score >= 40 {
			verdict := &models.ValidationVerdict{
				IsHotel:    true,
				Confidence: 80,
				Indicators: append(indicators, "⚠ HTTP non-200 but domain is hotel"),
			}
			v.store(ctx, rawURL, verdict)
			return verdict
		}
		verdict := &models.ValidationVerdict{
			IsHotel:    false,
			Confidence: 0,
			Indicators: []string{"✗ HTTP not 200"},
		}
		v.store(ctx, rawURL, verdict)
		return verdict
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return v.errorVerdict(ctx, rawURL, score, indicators, err)
	}
	content := strings.ToLower(string(body))

	if city != "" {
		variants := []string{strings.ToLower(city), capitalize(city), strings.ToUpper(city)}
		for _, variant := range variants {
			if strings.Contains(content, variant) {
				score += 40
				indicators = append(indicators, fmt.Sprintf("✓ City matched: %s", city))
				break
			}
		}
	}

	// Domain plus city is decisive on its own.
	if score >= 70 {
		indicators = append(indicators, fmt.Sprintf("✓ FAST PASS: Domain + City = %.0f pts", score))
		verdict := &models.ValidationVerdict{
			IsHotel:    true,
			Confidence: minFloat(score+20, 100),
			Indicators: indicators,
		}
		v.store(ctx, rawURL, verdict)
		return verdict
	}

	doc, err := goquery.NewDocumentFromReader(bytes.NewReader(body))
	if err != nil {
		return v.errorVerdict(ctx, rawURL, score, indicators, err)
	}

	title := strings.ToLower(doc.Find("title").First().Text())
	if title != "" && (strings.Contains(title, "hotel") || strings.Contains(title, "otel") || strings.Contains(title, "resort")) {
		score += 20
		indicators = append(indicators, "✓ Hotel keyword in title")
	}

	englishKw := countKeywords(content, hotelKeywordsEnglish)
	turkishKw := countKeywords(content, hotelKeywordsTurkish)
	if englishKw >= 2 {
		score += 20
		indicators = append(indicators, fmt.Sprintf("✓ English keywords: %d", englishKw))
	} else if turkishKw >= 2 {
		score += 20
		indicators = append(indicators, fmt.Sprintf("✓ Turkish keywords: %d", turkishKw))
	}

	for _, pattern := range phonePatterns {
		if pattern.MatchString(content) {
			score += 15
			indicators = append(indicators, "✓ Phone number found")
			break
		}
	}

	if score >= 50 {
		verdict := &models.ValidationVerdict{
			IsHotel:    true,
			Confidence: minFloat(score, 100),
			Indicators: indicators,
		}
		v.store(ctx, rawURL, verdict)
		return verdict
	}

	verdict := &models.ValidationVerdict{
		IsHotel:    false,
		Confidence: score,
		Indicators: append(indicators, "✗ Score too low"),
	}
	v.store(ctx, rawURL, verdict)
	return verdict
}

// errorVerdict handles fetch failures. A domain that already scored as a
// hotel is accepted and cached; anything else is rejected without caching
// since the failure may be temporary.
func (v *Validator) errorVerdict(ctx context.Context, rawURL string, score float64, indicators []string, err error) *models.ValidationVerdict {
	if score >= 40 {
		verdict := &models.ValidationVerdict{
			IsHotel:    true,
			Confidence: minFloat(score+10, 100),
			Indicators: append(indicators, "⚠ Content error but domain is hotel"),
		}
		v.store(ctx, rawURL, verdict)
		return verdict
	}

	v.logger.Debug().Str("url", rawURL).Err(err).Msg("Content fetch failed")
	return &models.ValidationVerdict{
		IsHotel:    false,
		Confidence: 0,
		Indicators: []string{fmt.Sprintf("✗ Error: %s", errKind(err))},
	}
}

func (v *Validator) store(ctx context.Context, rawURL string, verdict *models.ValidationVerdict) {
	v.cache.PutJSON(ctx, models.CacheNamespaceValidation, rawURL, models.ValidationCachePayload{
		IsHotel:    verdict.IsHotel,
		Confidence: verdict.Confidence,
		Indicators: verdict.Indicators,
	})
}

func errKind(err error) string {
	var netErr net.Error
	switch {
	case errors.Is(err, interfaces.ErrCircuitOpen):
		return "circuit open"
	case errors.Is(err, context.DeadlineExceeded):
		return "timeout"
	case errors.As(err, &netErr) && netErr.Timeout():
		return "timeout"
	default:
		return "request failed"
	}
}

func containsAny(s string, keywords []string) bool {
	for _, kw := range keywords {
		if strings.Contains(s, kw) {
			return true
		}
	}
	return false
}

// countKeywords counts how many distinct keywords occur in the content.
func countKeywords(content string, keywords []string) int {
	count := 0
	for _, kw := range keywords {
		if strings.Contains(content, kw) {
			count++
		}
	}
	return count
}

// capitalize upper-cases the first rune and lower-cases the rest, the way a
// city name is written mid-sentence.
func capitalize(s string) string {
	if s == "" {
		return s
	}
	r, size := utf8.DecodeRuneInString(s)
	return string(unicode.ToUpper(r)) + strings.ToLower(s[size:])
}
