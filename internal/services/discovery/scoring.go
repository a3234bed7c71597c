package discovery

import (
	"net/url"
	"strings"
	"unicode/utf8"

	"golang.org/x/net/publicsuffix"
)

// registeredDomain resolves a URL to its registrable domain ("booking.com")
// and the bare label before the public suffix ("booking"). URLs that do not
// parse, or hosts below any known suffix, fall back to the first host label.
func registeredDomain(rawURL string) (label, full string) {
	u, err := url.Parse(rawURL)
	if err != nil {
		return "", ""
	}
	host := strings.ToLower(u.Hostname())
	if host == "" {
		return "", ""
	}

	etld1, err := publicsuffix.EffectiveTLDPlusOne(host)
	if err != nil {
		host = strings.TrimPrefix(host, "www.")
		if idx := strings.Index(host, "."); idx >= 0 {
			return host[:idx], host
		}
		return host, host
	}
	if idx := strings.Index(etld1, "."); idx >= 0 {
		return etld1[:idx], etld1
	}
	return etld1, etld1
}

// domainLabel is the registrable domain minus its public suffix:
// "http://www.alexiaresort.com.tr/x" yields "alexiaresort".
func domainLabel(rawURL string) string {
	label, _ := registeredDomain(rawURL)
	return label
}

// isBlacklisted reports whether the URL belongs to a known aggregator or
// platform domain that can never be a facility's own site.
func isBlacklisted(rawURL string) bool {
	label, full := registeredDomain(rawURL)
	if label == "" {
		return false
	}
	if _, ok := blacklistDomains[label]; ok {
		return true
	}
	_, ok := blacklistDomains[full]
	return ok
}

// isRelevantDomain decides whether a candidate domain is worth validating
// for the given facility name. Deliberately permissive: a domain that looks
// hotel-ish or shares a name token gets through and content validation makes
// the real call.
func isRelevantDomain(hotelName, rawURL string) bool {
	if isBlacklisted(rawURL) {
		return false
	}

	domain := domainLabel(rawURL)
	if domain == "" {
		return false
	}

	// A bare generic type word is never a facility's own domain.
	if _, ok := relevanceKeywords[domain]; ok && len(domain) < 6 {
		return false
	}

	for kw := range relevanceKeywords {
		if strings.Contains(domain, kw) {
			return true
		}
	}

	for _, token := range strings.Fields(strings.ToLower(hotelName)) {
		if utf8.RuneCountInString(token) <= 2 {
			continue
		}
		if _, stop := relevanceStopwords[token]; stop {
			continue
		}
		if _, kw := relevanceKeywords[token]; kw {
			continue
		}
		tokenClean := reDigits.ReplaceAllString(token, "")
		if utf8.RuneCountInString(tokenClean) >= 3 && strings.Contains(domain, tokenClean) {
			return true
		}
	}

	// Long domains rarely collide by accident; let validation decide.
	return len(domain) >= 6
}

// calculateScore rates how well a found URL matches a facility name on a
// 0-100 scale: up to 45 for token overlap with the domain label, +20 for a
// hotel keyword in the domain, up to 30 for the name appearing in the page
// title and a small bonus for longer, more specific domains.
func calculateScore(hotelName, foundURL, title string) float64 {
	score := 0.0

	nameTokens := tokenizeName(hotelName)

	domainName := domainLabel(foundURL)
	domainClean := reDigits.ReplaceAllString(domainName, "")

	matches := 0.0
	for _, token := range nameTokens {
		tokenClean := reDigits.ReplaceAllString(token, "")
		switch {
		case strings.Contains(domainName, token) || strings.Contains(domainName, tokenClean):
			matches++
		case strings.Contains(domainClean, tokenClean):
			matches++
		case utf8.RuneCountInString(tokenClean) >= 4:
			if strings.HasPrefix(domainClean, runePrefix(tokenClean, 4)) ||
				strings.HasPrefix(tokenClean, runePrefix(domainClean, 4)) {
				matches += 0.5
			}
		}
	}
	if len(nameTokens) > 0 {
		score += (matches / float64(len(nameTokens))) * 45
	}

	for _, kw := range scoreDomainKeywords {
		if strings.Contains(domainName, kw) {
			score += 20
			break
		}
	}

	if title != "" {
		titleLower := strings.ToLower(title)
		nameLower := strings.ToLower(hotelName)
		if strings.Contains(titleLower, nameLower) {
			score += 30
		} else {
			matchesInTitle := 0
			for _, token := range nameTokens {
				if utf8.RuneCountInString(token) > 3 && strings.Contains(titleLower, token) {
					matchesInTitle++
				}
			}
			if matchesInTitle > 0 {
				score += minFloat(float64(matchesInTitle)*10, 25)
			}
		}
	}

	if len(domainName) > 8 {
		score += 10
	} else if len(domainName) > 5 {
		score += 5
	}

	return minFloat(score, 100)
}

// tokenizeName yields the distinct meaningful tokens of a name: lowercased,
// longer than two runes, stopwords dropped. Falls back to the unfiltered
// token set so very short names still score.
func tokenizeName(hotelName string) []string {
	fields := strings.Fields(strings.ToLower(hotelName))

	seen := make(map[string]struct{}, len(fields))
	tokens := make([]string, 0, len(fields))
	for _, t := range fields {
		if utf8.RuneCountInString(t) <= 2 {
			continue
		}
		if _, stop := scoreStopwords[t]; stop {
			continue
		}
		if _, dup := seen[t]; dup {
			continue
		}
		seen[t] = struct{}{}
		tokens = append(tokens, t)
	}

	if len(tokens) == 0 {
		seen = make(map[string]struct{}, len(fields))
		for _, t := range fields {
			if _, dup := seen[t]; dup {
				continue
			}
			seen[t] = struct{}{}
			tokens = append(tokens, t)
		}
	}
	return tokens
}

func runePrefix(s string, n int) string {
	count := 0
	for i := range s {
		if count == n {
			return s[:i]
		}
		count++
	}
	return s
}

func minFloat(a, b float64) float64 {
	if a < b {
		return a
	}
	return b
}
