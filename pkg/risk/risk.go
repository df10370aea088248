// Package risk turns a case's content items into bounded risk signals, a
// composite score, a severity tier and a narrative cluster breakdown. All
// functions are pure and order-independent over the item multiset.
package risk

import (
	"math"
	"sort"
	"strings"
	"time"

	"github.com/disinfolab/casetrack/pkg/connector"
)

// Severity is the ordinal risk classification, R1 (lowest) to R4 (highest).
type Severity string

const (
	SeverityR1 Severity = "R1"
	SeverityR2 Severity = "R2"
	SeverityR3 Severity = "R3"
	SeverityR4 Severity = "R4"
)

// Rank returns the ordinal position of a severity, R1=1 .. R4=4.
func (s Severity) Rank() int {
	switch s {
	case SeverityR2:
		return 2
	case SeverityR3:
		return 3
	case SeverityR4:
		return 4
	}
	return 1
}

// Signals are the six independent risk sub-scores, each clamped to [0,100].
type Signals struct {
	Harm           float64 `json:"harm"`
	Velocity       float64 `json:"velocity"`
	Reach          float64 `json:"reach"`
	Coordination   float64 `json:"coordination"`
	CredibilityGap float64 `json:"credibility_gap"`
	CrossPlatform  float64 `json:"cross_platform"`
}

// Result is one complete analysis pass over a case's items.
type Result struct {
	Signals              Signals        `json:"signals"`
	Score                float64        `json:"score"`
	Severity             Severity       `json:"severity"`
	NarrativeClusters    map[string]int `json:"narrative_clusters"`
	TopEntities          []string       `json:"top_entities"`
	TopAccounts          []string       `json:"top_accounts"`
	LanguageDistribution map[string]int `json:"language_distribution"`
	GeneratedAt          time.Time      `json:"generated_at"`
}

func clamp(v float64) float64 {
	return math.Max(0, math.Min(100, v))
}

// ClusterNarratives counts keyword-triggered narrative clusters across the
// items. Predicates are independent and non-exclusive: one item may increment
// several clusters, or none. Clusters with no matches are omitted.
func ClusterNarratives(items []connector.ContentItem) map[string]int {
	clusters := make(map[string]int)
	for _, item := range items {
		text := strings.ToLower(item.Text)
		if strings.Contains(text, "coordinated") || strings.Contains(text, "synchronize") {
			clusters["coordinated-amplification"]++
		}
		if strings.Contains(text, "unverifiable") || strings.Contains(text, "no cited source") {
			clusters["source-credibility-gap"]++
		}
		if strings.Contains(text, "reused") || strings.Contains(text, "re-uploaded") || strings.Contains(text, "recycled") {
			clusters["media-recontextualization"]++
		}
		if strings.Contains(text, "claims") {
			clusters["claims-propagation"]++
		}
	}
	return clusters
}

// ComputeSignals derives the six bounded signals from the item set. An empty
// set yields all-zero signals.
func ComputeSignals(items []connector.ContentItem) Signals {
	if len(items) == 0 {
		return Signals{}
	}

	var engagementSum float64
	platforms := make(map[connector.Platform]bool)
	languages := make(map[string]bool)
	authors := make(map[string]bool)
	hasCasualty := false
	hasUnverifiable := false

	for _, item := range items {
		engagementSum += float64(item.Engagement)
		platforms[item.Platform] = true
		languages[item.Language] = true
		authors[item.Author] = true

		text := strings.ToLower(item.Text)
		if strings.Contains(text, "casualty") {
			hasCasualty = true
		}
		if strings.Contains(text, "unverifiable") {
			hasUnverifiable = true
		}
	}

	itemCount := len(items)
	avgEngagement := engagementSum / float64(itemCount)
	// Raw author-string collisions, no normalization.
	duplicateAuthors := itemCount - len(authors)

	harm := 35.0
	if hasCasualty {
		harm += 8
	}
	credibilityGap := 25.0
	if hasUnverifiable {
		credibilityGap += 12
	}
	coordination := 18 + float64(duplicateAuthors)*4
	if itemCount > 14 {
		coordination += 10
	}

	return Signals{
		Harm:           clamp(harm),
		Velocity:       clamp(20 + float64(itemCount)*2.2),
		Reach:          clamp(avgEngagement / 6.0),
		Coordination:   clamp(coordination),
		CredibilityGap: clamp(credibilityGap),
		CrossPlatform:  clamp(float64(len(platforms))*15 + float64(len(languages))*8),
	}
}

// ScoreSignals folds the six signals into the composite risk score.
func ScoreSignals(s Signals) float64 {
	return clamp(s.Harm*0.25 +
		s.Coordination*0.2 +
		s.Velocity*0.2 +
		s.Reach*0.15 +
		s.CrossPlatform*0.1 +
		s.CredibilityGap*0.1)
}

// SeverityForScore maps a composite score to its severity tier. Boundary
// values belong to the higher tier.
func SeverityForScore(score float64) Severity {
	switch {
	case score >= 75:
		return SeverityR4
	case score >= 55:
		return SeverityR3
	case score >= 30:
		return SeverityR2
	}
	return SeverityR1
}

// Analyze runs one full analysis pass over the items. Empty input produces a
// zero score at severity R1 with empty clusters.
func Analyze(items []connector.ContentItem) *Result {
	signals := ComputeSignals(items)
	score := round2(ScoreSignals(signals))

	entityCounts := make(map[string]int)
	accountCounts := make(map[string]int)
	languageCounts := make(map[string]int)
	for _, item := range items {
		for _, entity := range item.Entities {
			entityCounts[entity]++
		}
		accountCounts[item.Author]++
		languageCounts[item.Language]++
	}

	return &Result{
		Signals:              signals,
		Score:                score,
		Severity:             SeverityForScore(score),
		NarrativeClusters:    ClusterNarratives(items),
		TopEntities:          topKeys(entityCounts, 6),
		TopAccounts:          topKeys(accountCounts, 5),
		LanguageDistribution: languageCounts,
		GeneratedAt:          time.Now().UTC(),
	}
}

// topKeys returns up to n keys ordered by descending count, ties broken
// alphabetically for determinism.
func topKeys(counts map[string]int, n int) []string {
	keys := make([]string, 0, len(counts))
	for k := range counts {
		keys = append(keys, k)
	}
	sort.Slice(keys, func(i, j int) bool {
		if counts[keys[i]] != counts[keys[j]] {
			return counts[keys[i]] > counts[keys[j]]
		}
		return keys[i] < keys[j]
	})
	if len(keys) > n {
		keys = keys[:n]
	}
	return keys
}

func round2(v float64) float64 {
	return math.Round(v*100) / 100
}
