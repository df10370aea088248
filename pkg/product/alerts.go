// Package product builds the derived artifacts of a case: alerts, evidence
// records, media-verification results and the case report. Every builder is a
// pure function of the analysis result and/or item set; artifacts are
// regenerated wholesale on each derivation pass.
package product

import (
	"crypto/sha1"
	"encoding/hex"
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/disinfolab/casetrack/pkg/risk"
)

// AlertStatus is the triage state of an alert.
type AlertStatus string

const (
	AlertOpen    AlertStatus = "open"
	AlertTriaged AlertStatus = "triaged"
	AlertClosed  AlertStatus = "closed"
)

// AlertRecord is one actionable alert raised from a case analysis.
type AlertRecord struct {
	ID                string        `json:"id" db:"id"`
	CaseID            string        `json:"case_id" db:"case_id"`
	Severity          risk.Severity `json:"severity" db:"severity"`
	Status            AlertStatus   `json:"status" db:"status"`
	Title             string        `json:"title" db:"title"`
	Summary           string        `json:"summary" db:"summary"`
	RecommendedAction string        `json:"recommended_action" db:"recommended_action"`
	CreatedAt         time.Time     `json:"created_at" db:"created_at"`
}

// crossPlatformAlertThreshold is the cross_platform signal level at which the
// secondary amplification alert fires.
const crossPlatformAlertThreshold = 40

// BuildAlerts derives the alert set for a case from its analysis. The primary
// alert is always present; a cross-platform amplification alert is added when
// the cross_platform signal reaches the threshold, with severity capped at R3.
func BuildAlerts(caseID string, analysis *risk.Result) []AlertRecord {
	now := time.Now().UTC()

	clusterNames := topClusters(analysis.NarrativeClusters, 3)
	summary := fmt.Sprintf("Score %.2f with top clusters: %s.", analysis.Score, orNone(strings.Join(clusterNames, ", ")))

	alerts := []AlertRecord{{
		ID:                fmt.Sprintf("alert_%s", shortSHA1(caseID+"primary", 10)),
		CaseID:            caseID,
		Severity:          analysis.Severity,
		Status:            AlertOpen,
		Title:             "Coordinated disinformation risk",
		Summary:           summary,
		RecommendedAction: "Prioritize analyst validation, preserve evidence, and monitor spread velocity.",
		CreatedAt:         now,
	}}

	if analysis.Signals.CrossPlatform >= crossPlatformAlertThreshold {
		severity := analysis.Severity
		if severity == risk.SeverityR4 {
			severity = risk.SeverityR3
		}
		alerts = append(alerts, AlertRecord{
			ID:                fmt.Sprintf("alert_%s", shortSHA1(caseID+"cross", 10)),
			CaseID:            caseID,
			Severity:          severity,
			Status:            AlertOpen,
			Title:             "Cross-platform amplification",
			Summary:           "Narrative appears on multiple platforms and languages.",
			RecommendedAction: "Escalate to campaign timeline review and monitor bridge accounts.",
			CreatedAt:         now,
		})
	}

	return alerts
}

// topClusters orders cluster names by descending occurrence count, ties
// broken alphabetically, and returns at most n of them.
func topClusters(clusters map[string]int, n int) []string {
	names := make([]string, 0, len(clusters))
	for name := range clusters {
		names = append(names, name)
	}
	sort.Slice(names, func(i, j int) bool {
		if clusters[names[i]] != clusters[names[j]] {
			return clusters[names[i]] > clusters[names[j]]
		}
		return names[i] < names[j]
	})
	if len(names) > n {
		names = names[:n]
	}
	return names
}

func orNone(s string) string {
	if s == "" {
		return "none"
	}
	return s
}

func shortSHA1(s string, n int) string {
	sum := sha1.Sum([]byte(s))
	return hex.EncodeToString(sum[:])[:n]
}
