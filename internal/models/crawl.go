package models

// SourceScrape marks addresses recovered by crawling the facility website.
const SourceScrape = "scrape"

// EmailResult is the best address an email crawl produced. Score is the raw
// heuristic total and may be negative for poor matches; callers treat any
// returned address as the crawl's best effort.
type EmailResult struct {
	Email        string  `json:"email"`
	Score        float64 `json:"score"`
	Source       string  `json:"source"`
	PagesCrawled int     `json:"pages_crawled"`
}
