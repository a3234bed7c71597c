package crawler

import (
	"net/url"
	"strings"
)

// urlQueue is the crawl frontier: two FIFO classes with URL deduplication.
// Contact-like URLs are served before everything else; within a class order
// is first in, first out.
type urlQueue struct {
	priority []string
	normal   []string
	seen     map[string]bool
}

func newURLQueue() *urlQueue {
	return &urlQueue{seen: make(map[string]bool)}
}

// Push enqueues a URL once. The fragment is stripped before deduplication so
// /about and /about#team count as one page.
func (q *urlQueue) Push(rawURL string, priority bool) bool {
	normalized := normalizeURL(rawURL)
	if normalized == "" || q.seen[normalized] {
		return false
	}
	q.seen[normalized] = true
	if priority {
		q.priority = append(q.priority, normalized)
	} else {
		q.normal = append(q.normal, normalized)
	}
	return true
}

// Pop returns the next URL to fetch, or false when the frontier is empty.
func (q *urlQueue) Pop() (string, bool) {
	if len(q.priority) > 0 {
		next := q.priority[0]
		q.priority = q.priority[1:]
		return next, true
	}
	if len(q.normal) > 0 {
		next := q.normal[0]
		q.normal = q.normal[1:]
		return next, true
	}
	return "", false
}

// Len returns the number of queued URLs.
func (q *urlQueue) Len() int {
	return len(q.priority) + len(q.normal)
}

// normalizeURL strips the fragment. Unparseable URLs dedupe on their trimmed
// raw form.
func normalizeURL(rawURL string) string {
	u, err := url.Parse(rawURL)
	if err != nil {
		return strings.TrimSpace(rawURL)
	}
	u.Fragment = ""
	return u.String()
}
