package connector

import (
	"context"
	"crypto/sha1"
	"encoding/hex"
	"fmt"
	"sort"
	"strings"
	"time"
)

// seedText holds per-platform rotating sample posts used by the demo
// collector. The phrasing intentionally triggers the narrative and
// verification heuristics downstream.
var seedText = map[Platform][]string{
	PlatformX: {
		"Breaking: circulating claims about policy changes with no cited source",
		"Coordinated repost wave detected around regional energy narrative",
		"Multiple accounts amplifying identical text in Arabic and English",
	},
	PlatformTelegram: {
		"Forwarded post with unverifiable casualty claims and viral traction",
		"Channel network shares mirrored narrative blocks within minutes",
		"Media asset reused with altered caption targeting local audience",
	},
	PlatformYouTube: {
		"Comment clusters repeating same claim template across videos",
		"Re-uploaded clip framed as current event without timestamp context",
		"Cross-linking to low-credibility domains in description threads",
	},
	PlatformInstagram: {
		"Carousel post spreads infographic with missing citation metadata",
		"Stories from multiple pages synchronize wording and hashtag sets",
		"Recycled image appears with contradictory location tagging",
	},
	PlatformWeb: {
		"Blog network republishes the same article body with modified headlines",
		"Domain cluster shows coordinated backlinking to boost visibility",
		"Low-trust pages embed copied claims without source attribution",
	},
}

// entityVocabulary is the closed set of tokens the seed collector treats as
// extractable entities.
var entityVocabulary = map[string]bool{
	"mena":    true,
	"arabic":  true,
	"english": true,
	"policy":  true,
	"energy":  true,
	"claims":  true,
}

// Seed is the deterministic demo collector. It synthesizes a fixed number of
// items per requested platform from the seed texts.
type Seed struct {
	perPlatform int
}

// NewSeed creates a seed collector yielding perPlatform items per platform.
func NewSeed(perPlatform int) *Seed {
	if perPlatform <= 0 {
		perPlatform = 4
	}
	return &Seed{perPlatform: perPlatform}
}

func (s *Seed) Collect(_ context.Context, caseID, query string, platforms []Platform) ([]ContentItem, error) {
	var items []ContentItem
	for _, platform := range platforms {
		items = append(items, s.collectPlatform(caseID, query, platform)...)
	}
	return items, nil
}

func (s *Seed) collectPlatform(caseID, query string, platform Platform) []ContentItem {
	now := time.Now().UTC()
	seeds := seedText[platform]
	if len(seeds) == 0 {
		return nil
	}

	items := make([]ContentItem, 0, s.perPlatform)
	for i := 0; i < s.perPlatform; i++ {
		seed := seeds[i%len(seeds)]
		text := fmt.Sprintf("%s | query=%s", seed, query)
		author := fmt.Sprintf("%s_account_%d", platform, i+1)
		fingerprint := shortSHA1(fmt.Sprintf("%s:%s:%s:%s", caseID, platform, author, text), 12)

		var mediaHash string
		switch platform {
		case PlatformInstagram, PlatformTelegram, PlatformYouTube:
			mediaHash = shortSHA1(fmt.Sprintf("media:%s:%d", platform, i/2), 16)
		}

		narrativeKey := "coordinated-amplification"
		if strings.Contains(strings.ToLower(text), "claims") {
			narrativeKey = "energy-claims-wave"
		}

		language := "en"
		if i%2 == 0 {
			language = "ar"
		}

		items = append(items, ContentItem{
			ID:           fmt.Sprintf("itm_%s_%s", platform, fingerprint),
			CaseID:       caseID,
			Platform:     platform,
			Author:       author,
			Text:         text,
			URL:          fmt.Sprintf("https://intel.local/%s/%s", platform, fingerprint),
			ObservedAt:   now.Add(-time.Duration(i*3) * time.Minute),
			Language:     language,
			Engagement:   (i + 1) * 120,
			SourceName:   fmt.Sprintf("%s-collector", platform),
			MediaHash:    mediaHash,
			NarrativeKey: narrativeKey,
			Entities:     ExtractEntities(text),
		})
	}
	return items
}

// ExtractEntities pulls known entity tokens out of text, lowercased,
// deduplicated and sorted.
func ExtractEntities(text string) []string {
	cleaned := strings.NewReplacer(":", "", ",", "").Replace(text)
	seen := make(map[string]bool)
	for _, token := range strings.Fields(cleaned) {
		token = strings.ToLower(token)
		if entityVocabulary[token] {
			seen[token] = true
		}
	}

	entities := make([]string, 0, len(seen))
	for token := range seen {
		entities = append(entities, token)
	}
	sort.Strings(entities)
	return entities
}

func shortSHA1(s string, n int) string {
	sum := sha1.Sum([]byte(s))
	return hex.EncodeToString(sum[:])[:n]
}
