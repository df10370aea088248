package product

import (
	"fmt"
	"strings"
	"testing"

	"github.com/disinfolab/casetrack/pkg/connector"
	"github.com/disinfolab/casetrack/pkg/risk"
)

func analysis(score float64, sev risk.Severity, signals risk.Signals) *risk.Result {
	return &risk.Result{
		Signals:  signals,
		Score:    score,
		Severity: sev,
		NarrativeClusters: map[string]int{
			"claims-propagation":        3,
			"coordinated-amplification": 3,
			"source-credibility-gap":    1,
		},
	}
}

func TestBuildAlertsPrimaryOnly(t *testing.T) {
	a := analysis(42.5, risk.SeverityR2, risk.Signals{CrossPlatform: 39.9})

	alerts := BuildAlerts("case_abc1234567", a)

	if len(alerts) != 1 {
		t.Fatalf("expected 1 alert below cross-platform threshold, got %d", len(alerts))
	}
	primary := alerts[0]
	if primary.Title != "Coordinated disinformation risk" {
		t.Errorf("unexpected primary title: %q", primary.Title)
	}
	if primary.Severity != risk.SeverityR2 {
		t.Errorf("expected severity R2, got %s", primary.Severity)
	}
	if primary.Status != AlertOpen {
		t.Errorf("expected open status, got %s", primary.Status)
	}
	want := "Score 42.50 with top clusters: claims-propagation, coordinated-amplification, source-credibility-gap."
	if primary.Summary != want {
		t.Errorf("summary mismatch:\n  got  %q\n  want %q", primary.Summary, want)
	}
	if !strings.HasPrefix(primary.ID, "alert_") || len(primary.ID) != len("alert_")+10 {
		t.Errorf("unexpected alert id %q", primary.ID)
	}
}

func TestBuildAlertsCrossPlatform(t *testing.T) {
	a := analysis(61.0, risk.SeverityR3, risk.Signals{CrossPlatform: 40})

	alerts := BuildAlerts("case_abc1234567", a)

	if len(alerts) != 2 {
		t.Fatalf("expected 2 alerts at cross-platform threshold, got %d", len(alerts))
	}
	cross := alerts[1]
	if cross.Title != "Cross-platform amplification" {
		t.Errorf("unexpected cross alert title: %q", cross.Title)
	}
	if cross.Severity != risk.SeverityR3 {
		t.Errorf("expected severity R3, got %s", cross.Severity)
	}
	if cross.ID == alerts[0].ID {
		t.Error("cross alert id must differ from primary")
	}
}

func TestBuildAlertsCrossPlatformCapsR4(t *testing.T) {
	a := analysis(80.0, risk.SeverityR4, risk.Signals{CrossPlatform: 75})

	alerts := BuildAlerts("case_abc1234567", a)

	if len(alerts) != 2 {
		t.Fatalf("expected 2 alerts, got %d", len(alerts))
	}
	if alerts[0].Severity != risk.SeverityR4 {
		t.Errorf("primary keeps case severity, got %s", alerts[0].Severity)
	}
	if alerts[1].Severity != risk.SeverityR3 {
		t.Errorf("cross alert severity must cap at R3, got %s", alerts[1].Severity)
	}
}

func TestBuildAlertsDeterministicIDs(t *testing.T) {
	a := analysis(50, risk.SeverityR2, risk.Signals{})

	first := BuildAlerts("case_abc1234567", a)
	second := BuildAlerts("case_abc1234567", a)

	if first[0].ID != second[0].ID {
		t.Errorf("primary alert id should be stable: %q vs %q", first[0].ID, second[0].ID)
	}
}

func TestBuildAlertsNoClusters(t *testing.T) {
	a := &risk.Result{Score: 10, Severity: risk.SeverityR1, NarrativeClusters: map[string]int{}}

	alerts := BuildAlerts("case_abc1234567", a)

	want := "Score 10.00 with top clusters: none."
	if alerts[0].Summary != want {
		t.Errorf("summary mismatch:\n  got  %q\n  want %q", alerts[0].Summary, want)
	}
}

func TestBuildEvidence(t *testing.T) {
	items := []connector.ContentItem{
		{ID: "itm_x_aaaaaaaaaaaa", CaseID: "case_1", Text: "first post", URL: "https://x.example/1", SourceName: "x-live-search"},
		{ID: "itm_web_bbbbbbbbbbbb", CaseID: "case_1", Text: "second post", URL: "https://web.example/2", SourceName: "web-feed"},
	}

	evidence := BuildEvidence("case_1", items)

	if len(evidence) != 2 {
		t.Fatalf("expected one record per item, got %d", len(evidence))
	}
	for i, ev := range evidence {
		if ev.CaseID != "case_1" {
			t.Errorf("record %d: wrong case id %q", i, ev.CaseID)
		}
		if ev.ItemID != items[i].ID {
			t.Errorf("record %d: wrong item id %q", i, ev.ItemID)
		}
		if !strings.HasPrefix(ev.ID, "ev_") || len(ev.ID) != len("ev_")+12 {
			t.Errorf("record %d: unexpected id %q", i, ev.ID)
		}
		if len(ev.EvidenceHash) != 40 {
			t.Errorf("record %d: expected full sha1 hex hash, got %q", i, ev.EvidenceHash)
		}
	}

	// Same inputs, same hashes.
	again := BuildEvidence("case_1", items)
	if again[0].EvidenceHash != evidence[0].EvidenceHash {
		t.Error("evidence hash should be deterministic")
	}
}

func TestVerifyMediaSkipsHashless(t *testing.T) {
	items := []connector.ContentItem{
		{ID: "itm_1", Text: "plain text post"},
		{ID: "itm_2", Text: "video post", MediaHash: "abc123", Platform: connector.PlatformYouTube, SourceName: "youtube-search"},
	}

	results := VerifyMedia(items)

	if len(results) != 1 {
		t.Fatalf("expected 1 verification, got %d", len(results))
	}
	if results[0].ItemID != "itm_2" {
		t.Errorf("expected itm_2, got %s", results[0].ItemID)
	}
}

func TestVerifyMediaReused(t *testing.T) {
	items := []connector.ContentItem{
		{ID: "itm_1", Text: "clip one", MediaHash: "samehash"},
		{ID: "itm_2", Text: "clip two", MediaHash: "samehash"},
	}

	results := VerifyMedia(items)

	for _, r := range results {
		if r.Verdict != VerdictReused {
			t.Errorf("item %s: expected reused, got %s", r.ItemID, r.Verdict)
		}
		if r.Confidence != 0.87 {
			t.Errorf("item %s: expected confidence 0.87, got %v", r.ItemID, r.Confidence)
		}
		if !r.Checks["hash_reused"] {
			t.Errorf("item %s: expected hash_reused check", r.ItemID)
		}
	}
}

func TestVerifyMediaSuspiciousCaption(t *testing.T) {
	items := []connector.ContentItem{
		{ID: "itm_1", Text: "shared without confirmation", MediaHash: "unique1"},
	}

	results := VerifyMedia(items)

	if results[0].Verdict != VerdictSuspicious {
		t.Errorf("expected suspicious, got %s", results[0].Verdict)
	}
	if results[0].Confidence != 0.74 {
		t.Errorf("expected confidence 0.74, got %v", results[0].Confidence)
	}
}

func TestVerifyMediaLikelyAuthentic(t *testing.T) {
	items := []connector.ContentItem{
		{ID: "itm_1", Text: "ordinary caption", MediaHash: "unique1", Platform: connector.PlatformInstagram, SourceName: "instagram-hashtag-scan"},
	}

	results := VerifyMedia(items)

	r := results[0]
	if r.Verdict != VerdictLikelyAuthentic {
		t.Errorf("expected likely_authentic, got %s", r.Verdict)
	}
	if r.Confidence != 0.62 {
		t.Errorf("expected confidence 0.62, got %v", r.Confidence)
	}
	if !r.Checks["source_consistent"] {
		t.Error("source name prefixed with platform should be consistent")
	}
}

func TestVerifyMediaReusedWinsOverCaption(t *testing.T) {
	items := []connector.ContentItem{
		{ID: "itm_1", Text: "unverifiable clip", MediaHash: "dup"},
		{ID: "itm_2", Text: "same clip again", MediaHash: "dup"},
	}

	results := VerifyMedia(items)

	if results[0].Verdict != VerdictReused {
		t.Errorf("reuse takes precedence over caption check, got %s", results[0].Verdict)
	}
	if !results[0].Checks["suspicious_caption"] {
		t.Error("caption check should still be recorded")
	}
}

func TestBuildReport(t *testing.T) {
	a := analysis(58.25, risk.SeverityR3, risk.Signals{
		CrossPlatform:  46,
		Coordination:   22,
		CredibilityGap: 25,
	})
	items := []connector.ContentItem{
		{Platform: connector.PlatformX},
		{Platform: connector.PlatformX},
		{Platform: connector.PlatformTelegram},
	}

	report := BuildReport("case_abc1234567", a, items)

	if report.Headline != "R3 disinformation posture for case case_abc1234567" {
		t.Errorf("unexpected headline: %q", report.Headline)
	}
	if len(report.ExecutiveSummary) != 3 {
		t.Fatalf("expected 3 summary lines, got %d", len(report.ExecutiveSummary))
	}
	if report.ExecutiveSummary[0] != "Overall risk score is 58.25 (R3)." {
		t.Errorf("unexpected summary line: %q", report.ExecutiveSummary[0])
	}
	if report.ExecutiveSummary[2] != "Primary platform distribution: x (2), telegram (1)." {
		t.Errorf("unexpected platform line: %q", report.ExecutiveSummary[2])
	}
	if len(report.Findings) != 3 {
		t.Fatalf("expected 3 findings, got %d", len(report.Findings))
	}
	if report.Findings[0] != "Cross-platform signal: 46.0." {
		t.Errorf("unexpected finding: %q", report.Findings[0])
	}
	if len(report.Recommendations) != 3 {
		t.Errorf("expected 3 recommendations below audit threshold, got %d", len(report.Recommendations))
	}
}

func TestBuildReportCredibilityAudit(t *testing.T) {
	a := analysis(60, risk.SeverityR3, risk.Signals{CredibilityGap: 37})

	report := BuildReport("case_abc1234567", a, nil)

	if len(report.Recommendations) != 4 {
		t.Fatalf("expected 4 recommendations above audit threshold, got %d", len(report.Recommendations))
	}
	if report.Recommendations[0] != "Prioritize source credibility audit for top-linked domains." {
		t.Errorf("audit recommendation must come first, got %q", report.Recommendations[0])
	}
}

func TestRenderMarkdown(t *testing.T) {
	a := analysis(58.25, risk.SeverityR3, risk.Signals{})
	report := BuildReport("case_abc1234567", a, nil)

	md := RenderMarkdown(report)

	if !strings.HasPrefix(md, fmt.Sprintf("# %s\n", report.Headline)) {
		t.Error("markdown should open with the headline")
	}
	for _, heading := range []string{"## Executive summary", "## Findings", "## Recommendations"} {
		if !strings.Contains(md, heading) {
			t.Errorf("markdown missing %q section", heading)
		}
	}
	if !strings.Contains(md, "1. Escalate R3/R4 alerts") {
		t.Error("recommendations should render as a numbered list")
	}
}
