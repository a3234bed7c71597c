package models

// DiscoverySource identifies which strategy produced a URL.
type DiscoverySource string

const (
	SourceDomainGuess    DiscoverySource = "domain_guess"
	SourceSearch         DiscoverySource = "ddg_search"
	SourceAlternativeTLD DiscoverySource = "alternative_tld"
)

// ReasonCode is the closed set of negative discovery outcomes, ordered here
// from most to least specific. When several strategies fail, the most
// specific state reached wins.
type ReasonCode string

const (
	ReasonDomainNotHotel         ReasonCode = "domain_not_hotel"
	ReasonDomainNotRelevant      ReasonCode = "domain_not_relevant"
	ReasonSearchNoValid          ReasonCode = "ddg_no_valid"
	ReasonSearchNotRelevant      ReasonCode = "ddg_not_relevant"
	ReasonSearchNoCandidates     ReasonCode = "ddg_no_candidates"
	ReasonAlternativeNotHotel    ReasonCode = "alternative_not_hotel"
	ReasonAlternativeNotRelevant ReasonCode = "alternative_not_relevant"
	ReasonNoMatch                ReasonCode = "no_match"
)

// DiscoveryResult is the outcome of one FindWebsite call: either a scored URL
// with its source, or an empty URL with a reason code. Never both.
type DiscoveryResult struct {
	URL        string          `json:"url,omitempty"`
	Score      float64         `json:"score,omitempty"`
	Source     DiscoverySource `json:"source,omitempty"`
	Indicators []string        `json:"indicators,omitempty"`
	Reason     ReasonCode      `json:"reason,omitempty"`
}

// Found reports whether the result carries a URL.
func (r *DiscoveryResult) Found() bool {
	return r != nil && r.URL != ""
}

// ValidationVerdict classifies one URL as a hotel site or not.
type ValidationVerdict struct {
	IsHotel    bool     `json:"is_hotel"`
	Confidence float64  `json:"confidence"`
	Indicators []string `json:"indicators"`
}

// SearchResult is one decoded anchor from the search backend.
type SearchResult struct {
	URL  string `json:"url"`
	Text string `json:"text"`
}
