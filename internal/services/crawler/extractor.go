package crawler

import (
	"encoding/json"
	"regexp"
	"strings"
	"unicode/utf8"

	"github.com/PuerkitoBio/goquery"
)

// emailPattern matches plainly written addresses in free text.
var emailPattern = regexp.MustCompile(`[a-zA-Z0-9._%+-]+@[a-zA-Z0-9.-]+\.[a-zA-Z]{2,}`)

// priorityKeywords mark contact-like pages. Links containing one are crawled
// first and addresses found on such pages earn a bonus.
var priorityKeywords = []string{
	"contact", "iletisim", "about", "hakkimizda", "info",
	"ulasim", "bize-ulasin", "bizeulasin", "communication",
}

// obfuscationPatterns cover the common anti-scraping spellings. Each pattern
// captures local part, domain and TLD; the address is rebuilt from those
// three groups.
var obfuscationPatterns = []*regexp.Regexp{
	// [at] and [dot] variants
	regexp.MustCompile(`(?i)([a-zA-Z0-9._%+-]+)\s*\[\s*at\s*\]\s*([a-zA-Z0-9.-]+)\s*\[\s*dot\s*\]\s*([a-zA-Z]{2,})`),
	regexp.MustCompile(`(?i)([a-zA-Z0-9._%+-]+)\s*\(\s*at\s*\)\s*([a-zA-Z0-9.-]+)\s*\(\s*dot\s*\)\s*([a-zA-Z]{2,})`),
	regexp.MustCompile(`(?i)([a-zA-Z0-9._%+-]+)\s*\{\s*at\s*\}\s*([a-zA-Z0-9.-]+)\s*\{\s*dot\s*\}\s*([a-zA-Z]{2,})`),

	// at and dot written out, any case
	regexp.MustCompile(`(?i)([a-zA-Z0-9._%+-]+)\s+at\s+([a-zA-Z0-9.-]+)\s+dot\s+([a-zA-Z]{2,})`),

	// Turkish variants
	regexp.MustCompile(`(?i)([a-zA-Z0-9._%+-]+)\s*\[\s*et\s*\]\s*([a-zA-Z0-9.-]+)\s*\[\s*nokta\s*\]\s*([a-zA-Z]{2,})`),
	regexp.MustCompile(`(?i)([a-zA-Z0-9._%+-]+)\s+et\s+([a-zA-Z0-9.-]+)\s+nokta\s+([a-zA-Z]{2,})`),

	// HTML entity variants (&#64; = @, &#46; = .)
	regexp.MustCompile(`(?i)([a-zA-Z0-9._%+-]+)&#64;([a-zA-Z0-9.-]+)&#46;([a-zA-Z]{2,})`),
	regexp.MustCompile(`(?i)([a-zA-Z0-9._%+-]+)&commat;([a-zA-Z0-9.-]+)&period;([a-zA-Z]{2,})`),

	// Spaced out letters before the @, e.g. i n f o @
	regexp.MustCompile(`(?i)([a-zA-Z0-9])\s+([a-zA-Z0-9])\s+([a-zA-Z0-9])\s+([a-zA-Z0-9])\s*@`),
}

// invalidEmailPatterns reject the usual false positives the text scan drags
// in.
var invalidEmailPatterns = []*regexp.Regexp{
	// image files
	regexp.MustCompile(`.*\.png$`),
	regexp.MustCompile(`.*\.jpg$`),
	regexp.MustCompile(`.*\.gif$`),
	regexp.MustCompile(`.*\.jpeg$`),
	// code files
	regexp.MustCompile(`.*\.js$`),
	regexp.MustCompile(`.*\.css$`),
	// example domains
	regexp.MustCompile(`.*@example\.com$`),
	regexp.MustCompile(`.*@test\.com$`),
	// no-reply addresses
	regexp.MustCompile(`^noreply@`),
	regexp.MustCompile(`^no-reply@`),
	// service emails
	regexp.MustCompile(`.*@sentry\.io$`),
	regexp.MustCompile(`.*@google\.com$`),
	// numeric local parts are usually not real
	regexp.MustCompile(`^[0-9]+@`),
}

// preferredLocalParts are the front-desk mailbox names worth chasing.
var preferredLocalParts = []string{
	"info", "contact", "rezervasyon", "reservation", "booking",
	"sales", "satis", "reception", "resepsiyon",
}

// genericMailProviders score a penalty since they may not be the business
// mailbox.
var genericMailProviders = []string{
	"gmail.com", "yahoo.com", "hotmail.com", "outlook.com", "yandex.com",
}

// isValidEmail runs the sanity checks every extracted candidate must pass.
func isValidEmail(email string) bool {
	email = strings.ToLower(strings.TrimSpace(email))

	for _, pattern := range invalidEmailPatterns {
		if pattern.MatchString(email) {
			return false
		}
	}

	if n := utf8.RuneCountInString(email); n < 5 || n > 254 {
		return false
	}
	if strings.Count(email, "@") != 1 {
		return false
	}

	domain := email[strings.Index(email, "@")+1:]
	return strings.Contains(domain, ".")
}

// decodeObfuscatedEmails rebuilds addresses hidden behind obfuscated
// spellings.
func decodeObfuscatedEmails(text string) map[string]bool {
	emails := make(map[string]bool)
	for _, pattern := range obfuscationPatterns {
		for _, match := range pattern.FindAllStringSubmatch(text, -1) {
			if len(match) < 4 {
				continue
			}
			email := strings.ToLower(strings.TrimSpace(match[1] + "@" + match[2] + "." + match[3]))
			if isValidEmail(email) {
				emails[email] = true
			}
		}
	}
	return emails
}

// extractEmailsFromText collects standard and obfuscated addresses from raw
// text.
func extractEmailsFromText(text string) map[string]bool {
	emails := make(map[string]bool)
	for _, match := range emailPattern.FindAllString(text, -1) {
		email := strings.ToLower(strings.TrimSpace(match))
		if isValidEmail(email) {
			emails[email] = true
		}
	}
	for email := range decodeObfuscatedEmails(text) {
		emails[email] = true
	}
	return emails
}

// extractEmailsFromHTML collects addresses from visible text, mailto links,
// data attributes, meta tags and JSON-LD blocks.
func extractEmailsFromHTML(doc *goquery.Document) map[string]bool {
	emails := make(map[string]bool)

	for email := range extractEmailsFromText(doc.Text()) {
		emails[email] = true
	}

	doc.Find("a[href]").Each(func(_ int, sel *goquery.Selection) {
		href, _ := sel.Attr("href")
		if !strings.HasPrefix(href, "mailto:") {
			return
		}
		email := strings.TrimSpace(strings.SplitN(strings.TrimPrefix(href, "mailto:"), "?", 2)[0])
		if isValidEmail(email) {
			emails[strings.ToLower(email)] = true
		}
	})

	for _, attr := range []string{"data-email", "data-mail"} {
		doc.Find("[" + attr + "]").Each(func(_ int, sel *goquery.Selection) {
			email := strings.TrimSpace(sel.AttrOr(attr, ""))
			if isValidEmail(email) {
				emails[strings.ToLower(email)] = true
			}
		})
	}

	doc.Find(`meta[name="email"]`).Each(func(_ int, sel *goquery.Selection) {
		email := strings.TrimSpace(sel.AttrOr("content", ""))
		if isValidEmail(email) {
			emails[strings.ToLower(email)] = true
		}
	})

	doc.Find(`script[type="application/ld+json"]`).Each(func(_ int, sel *goquery.Selection) {
		var data map[string]interface{}
		if err := json.Unmarshal([]byte(sel.Text()), &data); err != nil {
			return
		}
		if email, ok := data["email"].(string); ok && isValidEmail(email) {
			emails[strings.ToLower(email)] = true
		}
	})

	return emails
}

// scoreEmail ranks an address for a site. Same-domain addresses and
// front-desk local parts win, generic providers lose points. The total is
// intentionally left unclamped.
func scoreEmail(email, host string) int {
	score := 0
	email = strings.ToLower(email)

	emailDomain := ""
	if i := strings.Index(email, "@"); i >= 0 {
		emailDomain = email[i+1:]
	}
	siteDomain := strings.ReplaceAll(host, "www.", "")

	if emailDomain == siteDomain {
		score += 50
	} else if strings.Contains(emailDomain, siteDomain) || strings.Contains(siteDomain, emailDomain) {
		score += 30
	}

	local := email
	if i := strings.Index(email, "@"); i >= 0 {
		local = email[:i]
	}
	exact := false
	partial := false
	for _, pref := range preferredLocalParts {
		if local == pref {
			exact = true
			break
		}
		if strings.Contains(local, pref) {
			partial = true
		}
	}
	if exact {
		score += 40
	} else if partial {
		score += 20
	}

	for _, provider := range genericMailProviders {
		if emailDomain == provider {
			score -= 20
			break
		}
	}

	return score
}

// containsPriorityKeyword reports whether a lowered URL looks like a contact
// page.
func containsPriorityKeyword(s string) bool {
	for _, keyword := range priorityKeywords {
		if strings.Contains(s, keyword) {
			return true
		}
	}
	return false
}
