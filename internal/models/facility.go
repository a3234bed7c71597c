package models

import (
	"time"

	"github.com/google/uuid"
)

// EnrichmentStatus is the lifecycle of one enrichment field (website or email).
type EnrichmentStatus string

const (
	StatusPending  EnrichmentStatus = "pending"
	StatusFound    EnrichmentStatus = "found"
	StatusNotFound EnrichmentStatus = "not_found"
)

// Facility is one accommodation record from the uploaded catalog.
// Catalog fields are immutable after import; enrichment fields are written by
// discovery and email-crawl jobs.
type Facility struct {
	ID       string `json:"id" badgerhold:"key"`
	RawID    string `json:"raw_id" badgerhold:"index"`
	Name     string `json:"name"`
	City     string `json:"sehir" badgerhold:"index"`
	District string `json:"ilce"`
	Type     string `json:"type" badgerhold:"index"`
	Address  string `json:"address"`

	Website       string           `json:"website"`
	WebsiteSource string           `json:"website_source"`
	WebsiteScore  float64          `json:"website_score"`
	WebsiteStatus EnrichmentStatus `json:"website_status" badgerhold:"index"`

	Email       string           `json:"email"`
	EmailSource string           `json:"email_source"`
	EmailStatus EnrichmentStatus `json:"email_status" badgerhold:"index"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// NewFacility creates a facility with a fresh ID and pending enrichment state.
func NewFacility(rawID, name, city, district, docType, address string) *Facility {
	now := time.Now()
	return &Facility{
		ID:            uuid.New().String(),
		RawID:         rawID,
		Name:          name,
		City:          city,
		District:      district,
		Type:          docType,
		Address:       address,
		WebsiteStatus: StatusPending,
		EmailStatus:   StatusPending,
		CreatedAt:     now,
		UpdatedAt:     now,
	}
}

// SetWebsite records a discovery outcome. A found status always carries a URL.
func (f *Facility) SetWebsite(url, source string, score float64) {
	f.Website = url
	f.WebsiteSource = source
	f.WebsiteScore = score
	if url != "" {
		f.WebsiteStatus = StatusFound
	} else {
		f.WebsiteStatus = StatusNotFound
	}
	f.UpdatedAt = time.Now()
}

// SetEmail records an email-crawl outcome. A found status always carries an address.
func (f *Facility) SetEmail(email, source string) {
	f.Email = email
	f.EmailSource = source
	if email != "" {
		f.EmailStatus = StatusFound
	} else {
		f.EmailStatus = StatusNotFound
	}
	f.UpdatedAt = time.Now()
}

// FacilityStats summarizes catalog enrichment progress for the stats
// endpoint. The buckets are disjoint tabs, not column counts: pending means
// no website and never marked not_found; has_website means a website but no
// email yet; has_email means both.
type FacilityStats struct {
	Total      int `json:"total"`
	Pending    int `json:"pending"`
	NotFound   int `json:"not_found"`
	HasWebsite int `json:"has_website"`
	HasEmail   int `json:"has_email"`
}

// TypeCount is one Belge Türü bucket for the filter endpoint.
type TypeCount struct {
	Name  string `json:"name"`
	Count int    `json:"count"`
}
