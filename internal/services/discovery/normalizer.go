package discovery

import (
	"fmt"
	"regexp"
	"sort"
	"strings"
	"unicode/utf8"
)

var (
	reBracketed     = regexp.MustCompile(`\(.*?\)|\[.*?\]`)
	reWhitespace    = regexp.MustCompile(`\s+`)
	reNumericPrefix = regexp.MustCompile(`^\d+\s+`)
	reNameCharset   = regexp.MustCompile(`[^a-zA-Z0-9\sşğıüçöŞĞİÜÇÖ-]`)
	reDigits        = regexp.MustCompile(`\d+`)
)

// turkishFolder maps Turkish letters to their ASCII shapes so that generated
// domains stay registrable. The combining-dot form shows up when a dotted
// capital İ passes through a full-unicode lowercase elsewhere.
var turkishFolder = strings.NewReplacer(
	"ş", "s", "ı", "i", "ğ", "g", "ü", "u", "ç", "c", "ö", "o",
	"Ş", "S", "İ", "I", "Ğ", "G", "Ü", "U", "Ç", "C", "Ö", "O",
	"i̇", "i",
)

func foldTurkish(s string) string {
	return turkishFolder.Replace(s)
}

// normalizeNameForSearch reduces a raw facility name to its display core:
// the part before a hyphen (suffixes are usually district names), minus any
// bracketed additions, with whitespace collapsed.
func normalizeNameForSearch(name string) string {
	base := name
	if idx := strings.Index(name, "-"); idx >= 0 {
		base = strings.TrimSpace(name[:idx])
	}
	base = reBracketed.ReplaceAllString(base, "")
	return strings.TrimSpace(reWhitespace.ReplaceAllString(base, " "))
}

// nameVariants is the domain-guessing material derived from one name:
// CleanName is the folded, suffix-stripped, concatenated base used by the
// alternative-TLD strategy, Variants the priority-ordered domain labels.
type nameVariants struct {
	CleanName string
	Variants  []string
}

// buildDomainVariants runs the full normalization pipeline: pre-clean, type
// suffix strip, diacritic fold, progressive token prefixes, per-prefix
// orderings, numeric variants and priority sorting.
func buildDomainVariants(name string) nameVariants {
	base := normalizeNameForSearch(name)
	clean := strings.ToLower(base)

	// Numeric tokens are collected from the name before the prefix strip so
	// "1207 Residence" still yields hotel1207.
	rawName := clean

	clean = reNumericPrefix.ReplaceAllString(clean, "")
	clean = strings.ReplaceAll(clean, "&", "")
	clean = reNameCharset.ReplaceAllString(clean, "")
	clean = foldTurkish(clean)

	var removedSuffix string
	for _, suffix := range typeSuffixes {
		if strings.HasSuffix(clean, " "+suffix) {
			removedSuffix = suffix
			clean = strings.TrimSpace(clean[:len(clean)-len(suffix)-1])
			break
		}
	}

	rawTokens := strings.Fields(clean)
	rawTokensOriginal := strings.Fields(rawName)

	coreTokens := make([]string, 0, len(rawTokens))
	for _, t := range rawTokens {
		if _, stop := variantStopwords[t]; stop {
			continue
		}
		if _, typ := variantTypeWords[t]; typ {
			continue
		}
		coreTokens = append(coreTokens, t)
	}
	if len(coreTokens) == 0 {
		for _, t := range rawTokens {
			if _, stop := variantStopwords[t]; !stop {
				coreTokens = append(coreTokens, t)
			}
		}
	}

	// Progressive prefixes: the most specific tokens first, growing one token
	// at a time. When type-word filtering shrank the list, the unfiltered
	// prefixes are added too so "alexia resort" patterns survive.
	var progressive [][]string
	if len(coreTokens) > 0 {
		for i := 1; i <= len(coreTokens); i++ {
			progressive = append(progressive, coreTokens[:i])
		}
	} else {
		for i := 1; i <= len(rawTokens); i++ {
			progressive = append(progressive, rawTokens[:i])
		}
	}
	if len(coreTokens) < len(rawTokens) && len(rawTokens) > 1 {
		for i := len(coreTokens) + 1; i <= len(rawTokens); i++ {
			combo := rawTokens[:i]
			if !containsTokenList(progressive, combo) {
				progressive = append(progressive, combo)
			}
		}
	}

	// A stripped suffix is re-attached to the core as the highest priority
	// prefix: "admiral" + "oteli" is the single most likely domain.
	if removedSuffix != "" && len(coreTokens) > 0 {
		withSuffix := append(append([]string{}, coreTokens...), removedSuffix)
		if !containsTokenList(progressive, withSuffix) {
			progressive = append([][]string{withSuffix}, progressive...)
		}
	}

	cleanName := concatVariant(clean)

	if utf8.RuneCountInString(cleanName) < 3 {
		return nameVariants{CleanName: cleanName}
	}

	var variants []string
	for _, tokenList := range progressive {
		if len(tokenList) == 0 {
			continue
		}
		hasType := false
		for _, t := range tokenList {
			if _, ok := variantTypeWords[t]; ok {
				hasType = true
				break
			}
		}

		var orderings [][]string
		if hasType {
			orderings = [][]string{tokenList}
		} else {
			orderings = [][]string{
				append([]string{"hotel"}, tokenList...),
				append(append([]string{}, tokenList...), "hotel"),
			}
			if len(tokenList) >= 2 {
				middle := append([]string{tokenList[0], "hotel"}, tokenList[1:]...)
				orderings = append(orderings, middle)
			}
		}

		for _, ordering := range orderings {
			if v := concatVariant(strings.Join(ordering, "")); len(v) >= 3 {
				variants = append(variants, v)
			}
			if v := concatVariant(strings.Join(ordering, "-")); len(v) >= 3 {
				variants = append(variants, v)
			}
		}
	}

	for _, t := range rawTokensOriginal {
		if isDigits(t) {
			variants = append(variants, fmt.Sprintf("hotel%s", t))
			variants = append(variants, fmt.Sprintf("%shotel", t))
		}
	}

	variants = append(variants, cleanName)
	variants = dedupeStrings(variants)
	variants = sortByPriority(variants)

	return nameVariants{CleanName: cleanName, Variants: variants}
}

// sortByPriority buckets variants by how specific they look: Turkish "oteli"
// endings beat "otel" endings beat plain names beat generic "hotel"
// insertions. Longer variants win within a bucket.
func sortByPriority(variants []string) []string {
	var hasOteli, hasOtel, noHotel, hasHotel []string
	for _, v := range variants {
		switch {
		case strings.HasSuffix(v, "oteli"):
			hasOteli = append(hasOteli, v)
		case strings.HasSuffix(v, "otel"):
			hasOtel = append(hasOtel, v)
		case !strings.Contains(v, "hotel"):
			noHotel = append(noHotel, v)
		default:
			hasHotel = append(hasHotel, v)
		}
	}
	sortByLengthDesc(hasOteli)
	sortByLengthDesc(hasOtel)
	sortByLengthDesc(noHotel)
	sortByLengthDesc(hasHotel)

	out := make([]string, 0, len(variants))
	out = append(out, hasOteli...)
	out = append(out, hasOtel...)
	out = append(out, noHotel...)
	out = append(out, hasHotel...)
	return out
}

// expandURLVariants crosses domain labels with the primary TLD list, www
// form first. Order is significant: earlier URLs are probed first.
func expandURLVariants(variants []string) []string {
	urls := make([]string, 0, len(variants)*len(primaryTLDs)*2)
	for _, v := range variants {
		for _, tld := range primaryTLDs {
			urls = append(urls, "http://www."+v+tld)
			urls = append(urls, "http://"+v+tld)
		}
	}
	return dedupeStrings(urls)
}

// buildProgressiveQueries yields search queries from the most specific core
// tokens outward. Unlike domain variants, queries keep Turkish diacritics:
// the search backend handles them better than folded ASCII.
func buildProgressiveQueries(name, city string) []string {
	parts := strings.Split(name, "-")
	for i := range parts {
		parts[i] = strings.TrimSpace(parts[i])
	}
	base := strings.ToLower(parts[0])
	suffix := ""
	if len(parts) > 1 {
		suffix = strings.ToLower(parts[1])
	}
	tokens := strings.Fields(base)
	suffixTokens := strings.Fields(suffix)

	coreTokens := make([]string, 0, len(tokens))
	for _, t := range tokens {
		if _, stop := queryStopwords[t]; stop {
			continue
		}
		if _, typ := queryTypeWords[t]; typ {
			continue
		}
		coreTokens = append(coreTokens, t)
	}
	if len(coreTokens) == 0 {
		for _, t := range tokens {
			if _, stop := queryStopwords[t]; !stop {
				coreTokens = append(coreTokens, t)
			}
		}
	}

	var progressive [][]string
	start := 1
	if len(coreTokens) >= 2 {
		start = 2
	}
	for i := start; i <= len(coreTokens); i++ {
		progressive = append(progressive, coreTokens[:i])
	}

	// Numeric-stripped variant helps names like "1207 Residence".
	coreNoNumbers := make([]string, 0, len(coreTokens))
	for _, t := range coreTokens {
		if !isDigits(t) {
			coreNoNumbers = append(coreNoNumbers, t)
		}
	}
	if len(coreNoNumbers) > 0 && len(coreNoNumbers) != len(coreTokens) {
		start = 1
		if len(coreNoNumbers) >= 2 {
			start = 2
		}
		for i := start; i <= len(coreNoNumbers); i++ {
			progressive = append(progressive, coreNoNumbers[:i])
		}
	}

	if len(tokens) > 0 {
		progressive = append(progressive, tokens)
	}

	var queries []string
	locationHint := strings.Join(suffixTokens, " ")

	for _, tokenList := range progressive {
		if len(tokenList) == 0 {
			continue
		}
		hasType := false
		for _, t := range tokenList {
			if _, ok := queryTypeWords[t]; ok {
				hasType = true
				break
			}
		}
		if !hasType {
			tokenList = append(append([]string{}, tokenList...), "hotel")
		}
		phrase := strings.Join(tokenList, " ")
		if utf8.RuneCountInString(phrase) < 3 {
			continue
		}
		queries = append(queries, fmt.Sprintf("\"%s\" %s otel", phrase, city))
		queries = append(queries, fmt.Sprintf("%s %s otel", phrase, city))

		if locationHint != "" {
			queries = append(queries, fmt.Sprintf("\"%s\" %s otel", phrase, locationHint))
			queries = append(queries, fmt.Sprintf("%s %s otel", phrase, locationHint))
		}

		if len(suffixTokens) > 0 {
			phraseWithSuffix := strings.Join(append(append([]string{}, tokenList...), suffixTokens...), " ")
			if utf8.RuneCountInString(phraseWithSuffix) >= 3 {
				queries = append(queries, fmt.Sprintf("\"%s\" %s otel", phraseWithSuffix, city))
				queries = append(queries, fmt.Sprintf("%s %s otel", phraseWithSuffix, city))
			}
		}
	}

	return dedupeStrings(queries)
}

// concatVariant flattens a cleaned name into a domain label candidate.
func concatVariant(s string) string {
	s = foldTurkish(s)
	for _, r := range []string{"(", ")", "[", "]", " ", ".", ",", "/"} {
		s = strings.ReplaceAll(s, r, "")
	}
	return s
}

func isDigits(s string) bool {
	if s == "" {
		return false
	}
	for _, r := range s {
		if r < '0' || r > '9' {
			return false
		}
	}
	return true
}

func containsTokenList(lists [][]string, candidate []string) bool {
	joined := strings.Join(candidate, " ")
	for _, l := range lists {
		if strings.Join(l, " ") == joined {
			return true
		}
	}
	return false
}

func dedupeStrings(in []string) []string {
	seen := make(map[string]struct{}, len(in))
	out := make([]string, 0, len(in))
	for _, s := range in {
		if _, ok := seen[s]; ok {
			continue
		}
		seen[s] = struct{}{}
		out = append(out, s)
	}
	return out
}

// sortByLengthDesc orders longest first; stable so equal lengths keep
// generation order.
func sortByLengthDesc(s []string) {
	sort.SliceStable(s, func(i, j int) bool {
		return len(s[i]) > len(s[j])
	})
}
