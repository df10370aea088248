package connector

import (
	"context"
	"time"
)

// Platform identifies which network an item was observed on.
type Platform string

const (
	PlatformX         Platform = "x"
	PlatformTelegram  Platform = "telegram"
	PlatformYouTube   Platform = "youtube"
	PlatformInstagram Platform = "instagram"
	PlatformWeb       Platform = "web"
)

// AllPlatforms returns all known platforms, in catalog order.
func AllPlatforms() []Platform {
	return []Platform{
		PlatformX,
		PlatformTelegram,
		PlatformYouTube,
		PlatformInstagram,
		PlatformWeb,
	}
}

// ValidPlatform reports whether p is one of the known platforms.
func ValidPlatform(p Platform) bool {
	for _, known := range AllPlatforms() {
		if p == known {
			return true
		}
	}
	return false
}

// ContentItem is the standardized unit of observed content across all
// connectors. Items are immutable once created and belong to exactly one case.
type ContentItem struct {
	ID           string    `json:"id" db:"id"`
	CaseID       string    `json:"case_id" db:"case_id"`
	Platform     Platform  `json:"platform" db:"platform"`
	Author       string    `json:"author" db:"author"`
	Text         string    `json:"text" db:"text"`
	URL          string    `json:"url" db:"url"`
	ObservedAt   time.Time `json:"observed_at" db:"observed_at"`
	Language     string    `json:"language" db:"language"`
	Engagement   int       `json:"engagement" db:"engagement"`
	SourceName   string    `json:"source_name" db:"source_name"`
	MediaHash    string    `json:"media_hash,omitempty" db:"media_hash"`
	NarrativeKey string    `json:"narrative_key,omitempty" db:"narrative_key"`
	Entities     []string  `json:"entities" db:"-"`
	EntitiesJSON string    `json:"-" db:"entities"`
}

// Collector produces content items for a case. Implementations must stamp
// every returned item with the given case id.
type Collector interface {
	Collect(ctx context.Context, caseID, query string, platforms []Platform) ([]ContentItem, error)
}

// Chain runs several collectors in order and concatenates their output.
// The first collector error aborts the run.
type Chain []Collector

func (c Chain) Collect(ctx context.Context, caseID, query string, platforms []Platform) ([]ContentItem, error) {
	var all []ContentItem
	for _, coll := range c {
		items, err := coll.Collect(ctx, caseID, query, platforms)
		if err != nil {
			return nil, err
		}
		all = append(all, items...)
	}
	return all, nil
}
