package discovery

import (
	"context"
	"errors"
	"math/rand"
	"sort"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/ternarybob/arbor"

	"github.com/ternarybob/invenio/internal/common"
	"github.com/ternarybob/invenio/internal/interfaces"
	"github.com/ternarybob/invenio/internal/models"
	"github.com/ternarybob/invenio/internal/services/breaker"
)

// Reachable HEAD statuses. The alternative-TLD pass is stricter: 303 means a
// parked domain often enough that it is not worth validating there.
var (
	headReachable = map[int]bool{
		200: true, 301: true, 302: true, 303: true, 307: true, 308: true,
	}
	altHeadReachable = map[int]bool{
		200: true, 301: true, 302: true, 307: true, 308: true,
	}
)

// Service resolves a facility (name, city) to a website with three
// strategies tried in order: direct domain guessing, search fallback and
// alternative TLDs. The first high-confidence hit wins; a miss carries the
// most specific reason reached.
type Service struct {
	config    *common.DiscoveryConfig
	dns       interfaces.DNSChecker
	search    interfaces.SearchService
	prober    *Prober
	validator *Validator
	logger    arbor.ILogger

	// sleep is swapped out in tests to keep jitter out of the test clock.
	sleep func(time.Duration)
}

func NewService(
	config *common.DiscoveryConfig,
	cache interfaces.CacheService,
	dns interfaces.DNSChecker,
	search interfaces.SearchService,
	httpBreaker *breaker.Breaker,
	logger arbor.ILogger,
) interfaces.DiscoveryService {
	prober := NewProber(config, cache, httpBreaker, logger)
	return &Service{
		config:    config,
		dns:       dns,
		search:    search,
		prober:    prober,
		validator: NewValidator(prober, cache, logger),
		logger:    logger,
		sleep:     time.Sleep,
	}
}

func (s *Service) FindWebsite(ctx context.Context, name, city string) *models.DiscoveryResult {
	name = strings.TrimSpace(name)
	city = strings.ToLower(strings.TrimSpace(city))

	if name == "" {
		return &models.DiscoveryResult{Reason: models.ReasonNoMatch}
	}

	s.logger.Info().Str("name", name).Str("city", city).Msg("Searching for website")

	var reason models.ReasonCode
	domainAnyChecked := false
	domainAnyRelevant := false
	domainAnyValid := false
	ddgAnyCandidates := false
	ddgAnyRelevant := false
	altAnyChecked := false
	altAnyRelevant := false

	nv := buildDomainVariants(name)

	// Strategy A: guess domains straight from the name.
	if len(nv.Variants) > 0 {
		urls := expandURLVariants(nv.Variants)
		s.logger.Debug().Int("count", len(urls)).Msg("DNS pre-check for candidate URLs")
		urls = s.dns.FilterExisting(ctx, urls)
		s.logger.Debug().Int("count", len(urls)).Msg("URLs passed DNS check")

		var best *models.DiscoveryResult
		bestScore := 0.0

		for _, candidate := range urls {
			if ctx.Err() != nil {
				break
			}
			domainAnyChecked = true

			head, err := s.prober.Head(ctx, candidate)
			if err != nil {
				s.logger.Debug().Str("url", candidate).Err(err).Msg("HEAD probe failed")
				continue
			}
			if !headReachable[head.StatusCode] {
				s.logger.Debug().Str("url", candidate).Int("status", head.StatusCode).Msg("Domain not reachable")
				continue
			}
			finalURL := head.FinalURL

			if !isRelevantDomain(name, finalURL) {
				s.logger.Debug().Str("url", finalURL).Msg("Domain not relevant")
				continue
			}
			domainAnyRelevant = true

			verdict := s.validator.Validate(ctx, finalURL, name, city)
			if !verdict.IsHotel {
				s.logger.Debug().Str("url", finalURL).Float64("confidence", verdict.Confidence).Msg("Domain exists but content is not a hotel")
				continue
			}

			score := calculateScore(name, finalURL, name)
			score = minFloat(score+verdict.Confidence/2, 100)
			score = minFloat(score+domainQualityBonus(candidate, name), 100)

			s.logger.Info().Str("url", finalURL).Float64("score", score).Msg("Validated domain guess")
			domainAnyValid = true

			if score > bestScore {
				bestScore = score
				best = &models.DiscoveryResult{
					URL:        finalURL,
					Score:      score,
					Source:     models.SourceDomainGuess,
					Indicators: verdict.Indicators,
				}
			}
			if score >= float64(s.config.EarlyExitScore) {
				s.logger.Info().Str("url", finalURL).Msg("High-confidence match, returning early")
				return best
			}
		}

		if domainAnyChecked && !domainAnyValid {
			if domainAnyRelevant {
				reason = models.ReasonDomainNotHotel
			} else {
				reason = models.ReasonDomainNotRelevant
			}
		}
		if best != nil {
			s.logger.Info().Str("url", best.URL).Float64("score", best.Score).Msg("Returning best domain guess")
			return best
		}
	} else {
		s.logger.Debug().Str("name", nv.CleanName).Msg("Cleaned name too short for domain guessing")
	}

	// Strategy B: search fallback, skipped entirely while the breaker is open.
	if result := s.searchFallback(ctx, name, city, &ddgAnyCandidates, &ddgAnyRelevant); result != nil {
		return result
	}
	if reason == "" {
		if ddgAnyCandidates {
			if ddgAnyRelevant {
				reason = models.ReasonSearchNoValid
			} else {
				reason = models.ReasonSearchNotRelevant
			}
		} else {
			reason = models.ReasonSearchNoCandidates
		}
	}

	// Strategy C: the cleaned base name against last-resort TLDs.
	if utf8.RuneCountInString(strings.TrimSpace(nv.CleanName)) >= 2 {
		altName := strings.TrimSpace(nv.CleanName)
		for _, tld := range alternativeTLDs {
			if ctx.Err() != nil {
				break
			}
			candidate := "http://" + altName + tld
			altAnyChecked = true

			head, err := s.prober.Head(ctx, candidate)
			if err != nil {
				continue
			}
			if !altHeadReachable[head.StatusCode] {
				continue
			}
			finalURL := head.FinalURL

			if !isRelevantDomain(name, finalURL) {
				continue
			}
			altAnyRelevant = true

			verdict := s.validator.Validate(ctx, finalURL, name, city)
			if !verdict.IsHotel {
				s.logger.Debug().Str("url", finalURL).Msg("Alternative domain exists but is not a hotel")
				continue
			}

			score := calculateScore(name, finalURL, name)
			score = minFloat(score+verdict.Confidence/2, 100)
			s.logger.Info().Str("url", finalURL).Float64("score", score).Msg("Validated alternative TLD")
			return &models.DiscoveryResult{
				URL:        finalURL,
				Score:      score,
				Source:     models.SourceAlternativeTLD,
				Indicators: verdict.Indicators,
			}
		}

		if altAnyChecked && reason == "" {
			if altAnyRelevant {
				reason = models.ReasonAlternativeNotHotel
			} else {
				reason = models.ReasonAlternativeNotRelevant
			}
		}
	}

	if reason == "" {
		reason = models.ReasonNoMatch
	}
	s.logger.Warn().Str("name", name).Str("reason", string(reason)).Msg("Website not found")
	return &models.DiscoveryResult{Reason: reason}
}

// searchFallback runs progressive queries against the search backend. Each
// query sleeps a short jitter first to stay under the backend's rate
// expectations. A non-circuit search error aborts the whole strategy.
func (s *Service) searchFallback(ctx context.Context, name, city string, anyCandidates, anyRelevant *bool) *models.DiscoveryResult {
	if !s.search.Available() {
		s.logger.Warn().Msg("Search breaker is open, skipping search fallback")
		return nil
	}

	for _, query := range buildProgressiveQueries(name, city) {
		if ctx.Err() != nil {
			return nil
		}
		s.logger.Debug().Str("query", query).Msg("Search query")
		s.sleep(searchJitter())

		results, err := s.search.Search(ctx, query)
		if err != nil {
			if errors.Is(err, interfaces.ErrCircuitOpen) {
				s.logger.Warn().Str("query", query).Msg("Search circuit open, query skipped")
				continue
			}
			s.logger.Warn().Str("query", query).Err(err).Msg("Search failed, aborting fallback")
			return nil
		}

		type scoredCandidate struct {
			url   string
			score float64
		}
		var candidates []scoredCandidate

		for _, r := range results {
			if isBlacklisted(r.URL) {
				s.logger.Debug().Str("url", r.URL).Msg("Blacklisted domain")
				continue
			}
			score := calculateScore(name, r.URL, r.Text)
			if score > 10 {
				candidates = append(candidates, scoredCandidate{url: r.URL, score: score})
				s.logger.Info().Str("url", r.URL).Float64("score", score).Msg("Search candidate found")
			}
		}

		if len(candidates) == 0 {
			s.logger.Debug().Str("query", query).Msg("No search candidates above threshold")
			continue
		}
		*anyCandidates = true

		sort.SliceStable(candidates, func(i, j int) bool {
			return candidates[i].score > candidates[j].score
		})
		for i := range candidates {
			c := candidates[i]
			if !isRelevantDomain(name, c.url) {
				continue
			}
			*anyRelevant = true

			verdict := s.validator.Validate(ctx, c.url, name, city)
			if !verdict.IsHotel {
				continue
			}

			finalScore := minFloat(c.score+verdict.Confidence/2, 100)
			s.logger.Info().Str("url", c.url).Float64("score", finalScore).Msg("Validated search result")
			return &models.DiscoveryResult{
				URL:        c.url,
				Score:      finalScore,
				Source:     models.SourceSearch,
				Indicators: verdict.Indicators,
			}
		}
		s.logger.Warn().Str("query", query).Msg("Search candidates found but none are valid hotels")
	}

	return nil
}

// domainQualityBonus prefers domains that echo distinctive words from the
// name: "alexiaresort" should beat "alexia-hotel" when both validate.
func domainQualityBonus(candidateURL, name string) float64 {
	domain := strings.ToLower(candidateURL)
	nameLower := strings.ToLower(name)

	bonus := 0.0
	if strings.Contains(domain, "resort") && strings.Contains(nameLower, "resort") {
		bonus += 10
	}
	if strings.Contains(domain, "otel") && strings.Contains(strings.ReplaceAll(nameLower, "ı", "i"), "otel") {
		bonus += 15
	}
	for _, kw := range []string{"spa", "beach", "villa"} {
		if strings.Contains(nameLower, kw) && strings.Contains(domain, kw) {
			bonus += 8
			break
		}
	}
	return bonus
}

func searchJitter() time.Duration {
	return 500*time.Millisecond + time.Duration(rand.Int63n(1000))*time.Millisecond
}

var _ interfaces.DiscoveryService = (*Service)(nil)
