package product

import (
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/disinfolab/casetrack/pkg/connector"
	"github.com/disinfolab/casetrack/pkg/risk"
)

// CaseReport is the structured analyst report for a case, replaced wholesale
// on every derivation pass.
type CaseReport struct {
	CaseID           string    `json:"case_id"`
	Headline         string    `json:"headline"`
	ExecutiveSummary []string  `json:"executive_summary"`
	Findings         []string  `json:"findings"`
	Recommendations  []string  `json:"recommendations"`
	GeneratedAt      time.Time `json:"generated_at"`
}

// credibilityAuditThreshold is the credibility_gap signal level above which
// the source-audit recommendation is prepended.
const credibilityAuditThreshold = 35

// BuildReport assembles the case report from the analysis and item set.
func BuildReport(caseID string, analysis *risk.Result, items []connector.ContentItem) *CaseReport {
	clusters := orNone(strings.Join(topClusters(analysis.NarrativeClusters, 4), ", "))

	recommendations := []string{
		"Escalate R3/R4 alerts to analyst queue with evidence lock.",
		"Track bridge accounts and recurring narrative keys for 24h.",
		"Run cross-language verification on Arabic-English claim pairs.",
	}
	if analysis.Signals.CredibilityGap > credibilityAuditThreshold {
		recommendations = append([]string{"Prioritize source credibility audit for top-linked domains."}, recommendations...)
	}

	return &CaseReport{
		CaseID:   caseID,
		Headline: fmt.Sprintf("%s disinformation posture for case %s", analysis.Severity, caseID),
		ExecutiveSummary: []string{
			fmt.Sprintf("Overall risk score is %.2f (%s).", analysis.Score, analysis.Severity),
			fmt.Sprintf("Top narrative clusters: %s.", clusters),
			fmt.Sprintf("Primary platform distribution: %s.", platformSummary(items)),
		},
		Findings: []string{
			fmt.Sprintf("Cross-platform signal: %.1f.", analysis.Signals.CrossPlatform),
			fmt.Sprintf("Coordination signal: %.1f.", analysis.Signals.Coordination),
			fmt.Sprintf("Credibility gap signal: %.1f.", analysis.Signals.CredibilityGap),
		},
		Recommendations: recommendations,
		GeneratedAt:     time.Now().UTC(),
	}
}

// platformSummary names the top 3 platforms by item count, e.g.
// "x (4), telegram (4), web (2)".
func platformSummary(items []connector.ContentItem) string {
	counts := make(map[string]int)
	for _, item := range items {
		counts[string(item.Platform)]++
	}

	names := make([]string, 0, len(counts))
	for name := range counts {
		names = append(names, name)
	}
	sort.Slice(names, func(i, j int) bool {
		if counts[names[i]] != counts[names[j]] {
			return counts[names[i]] > counts[names[j]]
		}
		return names[i] < names[j]
	})
	if len(names) > 3 {
		names = names[:3]
	}

	parts := make([]string, len(names))
	for i, name := range names {
		parts[i] = fmt.Sprintf("%s (%d)", name, counts[name])
	}
	return orNone(strings.Join(parts, ", "))
}

// RenderMarkdown renders the report as a Markdown document, used for the
// HTML report endpoint and the CLI report command.
func RenderMarkdown(report *CaseReport) string {
	var b strings.Builder
	fmt.Fprintf(&b, "# %s\n\n", report.Headline)
	fmt.Fprintf(&b, "_Generated %s_\n\n", report.GeneratedAt.Format(time.RFC3339))

	b.WriteString("## Executive summary\n\n")
	for _, line := range report.ExecutiveSummary {
		fmt.Fprintf(&b, "- %s\n", line)
	}

	b.WriteString("\n## Findings\n\n")
	for _, line := range report.Findings {
		fmt.Fprintf(&b, "- %s\n", line)
	}

	b.WriteString("\n## Recommendations\n\n")
	for i, line := range report.Recommendations {
		fmt.Fprintf(&b, "%d. %s\n", i+1, line)
	}
	return b.String()
}
