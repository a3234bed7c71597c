package discovery

import "regexp"

// The tables in this file are tuning data for the matching pipeline. The
// relevance filter, the content validator and the generated domain/query
// space all key off them, so changing a single entry shifts match behavior
// for every facility.

// blacklistDomains are aggregators, OTAs and social platforms that can never
// be a facility's own website. Matched against both the bare domain label and
// the registered domain.
var blacklistDomains = map[string]struct{}{
	"booking.com": {}, "tripadvisor": {}, "trivago": {}, "etstur.com": {},
	"hotels.com": {}, "expedia": {}, "tatilbudur.com": {}, "agoda.com": {},
	"facebook.com": {}, "instagram.com": {}, "twitter.com": {}, "linkedin.com": {},
	"youtube.com": {}, "google.com": {}, "wikipedia": {}, "enuygun.com": {},
	"obilet.com": {}, "skyscanner.com": {}, "skyscanner.com.tr": {},
	"hotel-istanbul.net": {}, "hotel-of-istanbul.com": {}, "hotel-tr.com": {},
	"otelz.com": {}, "otelz.com.tr": {}, "jollytur.com": {}, "tatilsepeti.com": {},
	"setur.com.tr": {}, "neredekal.com": {}, "gezimanya.com": {}, "trip.com": {},
}

// Content-validation dictionaries. A page counting two or more hits in either
// language earns the keyword signal.
var hotelKeywordsEnglish = []string{
	"hotel", "resort", "motel", "guest house", "lodge", "inn", "villa",
	"room", "accommodation", "booking", "reserve", "check-in", "check-out",
}

var hotelKeywordsTurkish = []string{
	"otel", "resort", "pansiyon", "konuk evi", "konak", "yatakhane",
	"apart", "kamp", "oda", "konaklama", "rezervasyon", "giriş", "çıkış",
	"tur", "turizm",
}

// validatorDomainKeywords is the strongest single validation signal: the host
// of a candidate URL containing any of these is worth 40 points.
var validatorDomainKeywords = []string{
	"hotel", "otel", "resort", "apart", "pansiyon", "villa", "lodge", "inn", "motel",
}

// validatorBrandKeywords covers chain hotels whose domain carries the brand
// rather than a type word. Worth 35 points.
var validatorBrandKeywords = []string{
	"hyatt", "hilton", "marriott", "radisson", "sheraton",
	"accor", "ibis", "novotel", "mercure", "sofitel",
	"ramada", "wyndham", "holiday inn", "crowne plaza",
	"intercontinental", "doubletree", "hampton", "embassy",
}

// relevanceKeywords and relevanceStopwords drive the domain relevance filter.
var relevanceKeywords = map[string]struct{}{
	"hotel": {}, "hotels": {}, "otel": {}, "oteller": {}, "resort": {},
	"spa": {}, "apart": {}, "pansiyon": {}, "motel": {}, "pension": {},
	"guest": {}, "house": {}, "hostel": {}, "lodge": {}, "inn": {},
}

var relevanceStopwords = map[string]struct{}{
	"the": {}, "a": {}, "an": {}, "and": {}, "or": {}, "in": {}, "at": {},
	"by": {}, "for": {}, "of": {}, "to": {},
	"special": {}, "class": {}, "boutique": {}, "luxury": {}, "deluxe": {},
}

// scoreDomainKeywords earns the flat +20 domain bonus in calculateScore.
var scoreDomainKeywords = []string{
	"hotel", "otel", "resort", "apart", "pansiyon", "villa", "lodge", "inn", "motel", "pension",
}

var scoreStopwords = map[string]struct{}{
	"the": {}, "a": {}, "an": {}, "and": {}, "or": {}, "in": {}, "at": {},
	"by": {}, "for": {}, "of": {}, "to": {}, "is": {},
}

// typeSuffixes are trailing words that say WHAT a facility is rather than
// naming it. Only the first matching suffix is stripped, in this order.
var typeSuffixes = []string{
	"pansiyon", "pansiyonu",
	"otel", "oteli", "oteller",
	"apart", "apart-otel", "apart otel",
	"spa", "tesisi", "hotel", "hotels",
	"motel", "pension", "guest house", "hostel",
}

// variantTypeWords marks tokens as type words during domain variant
// generation; a prefix that already carries one is emitted as-is instead of
// getting "hotel" injected.
var variantTypeWords = map[string]struct{}{
	"hotel": {}, "otel": {}, "resort": {}, "spa": {}, "apart": {},
	"pansiyon": {}, "motel": {}, "house": {}, "guest": {}, "inn": {},
	"lodge": {}, "oteli": {}, "oteller": {}, "pansiyonu": {}, "resorts": {},
	"kabin": {}, "kabins": {}, "vila": {}, "villalar": {}, "konaklama": {},
}

// variantStopwords are dropped from variant token lists. Articles stay: a
// domain like "thegrandotel" keeps its article.
var variantStopwords = map[string]struct{}{
	"special": {}, "class": {}, "boutique": {}, "luxury": {}, "deluxe": {},
}

// Query generation uses its own word classes: queries keep Turkish
// diacritics, so these sets are matched against unfolded lowercase tokens.
var queryTypeWords = map[string]struct{}{
	"hotel": {}, "otel": {}, "resort": {}, "spa": {}, "apart": {},
	"pansiyon": {}, "motel": {}, "pension": {}, "guest": {}, "house": {},
	"hostel": {}, "lodge": {}, "inn": {},
}

var queryStopwords = map[string]struct{}{
	"the": {}, "a": {}, "an": {}, "and": {}, "or": {}, "in": {}, "at": {},
	"by": {}, "for": {}, "of": {}, "to": {},
	"special": {}, "class": {}, "boutique": {}, "luxury": {}, "deluxe": {},
}

// phonePatterns match Turkish phone formats: mobile with country code,
// land lines (0 + area code) and 444 short numbers.
var phonePatterns = []*regexp.Regexp{
	regexp.MustCompile(`\+90[\s\-]?\(?\d{3}\)?[\s\-]?\d{3}[\s\-]?\d{2}[\s\-]?\d{2}`),
	regexp.MustCompile(`0[2-5]\d{2}[\s\-]?\d{3}[\s\-]?\d{2}[\s\-]?\d{2}`),
	regexp.MustCompile(`444[\s\-]?\d{1}[\s\-]?\d{3}`),
}

// primaryTLDs is the expansion order for guessed domains; Turkish TLDs first.
var primaryTLDs = []string{
	".com.tr", ".org.tr", ".net.tr", ".biz.tr",
	".com", ".net", ".org", ".biz", ".info", ".co",
}

// alternativeTLDs is the last-resort TLD set tried by the final strategy.
var alternativeTLDs = []string{".biz", ".info", ".mobi"}
