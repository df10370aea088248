package product

import (
	"strings"

	"github.com/disinfolab/casetrack/pkg/connector"
)

// Verdict classifies a media asset's authenticity.
type Verdict string

const (
	VerdictLikelyAuthentic Verdict = "likely_authentic"
	VerdictSuspicious      Verdict = "suspicious"
	VerdictReused          Verdict = "reused"
)

// MediaVerification is the per-item authenticity assessment for items that
// carry a media fingerprint.
type MediaVerification struct {
	ItemID      string          `json:"item_id" db:"item_id"`
	Verdict     Verdict         `json:"verdict" db:"verdict"`
	Confidence  float64         `json:"confidence" db:"confidence"`
	Checks      map[string]bool `json:"checks" db:"-"`
	Explanation string          `json:"explanation" db:"explanation"`
}

// VerifyMedia assesses every item that carries a media hash. A hash seen on
// more than one item in the set means the asset is being recycled. Items
// without a media hash are skipped.
func VerifyMedia(items []connector.ContentItem) []MediaVerification {
	hashCounts := make(map[string]int)
	for _, item := range items {
		if item.MediaHash != "" {
			hashCounts[item.MediaHash]++
		}
	}

	results := make([]MediaVerification, 0, len(items))
	for _, item := range items {
		if item.MediaHash == "" {
			continue
		}

		reused := hashCounts[item.MediaHash] > 1
		text := strings.ToLower(item.Text)
		suspiciousCaption := strings.Contains(text, "unverifiable") || strings.Contains(text, "without")

		var (
			verdict     Verdict
			confidence  float64
			explanation string
		)
		switch {
		case reused:
			verdict = VerdictReused
			confidence = 0.87
			explanation = "Media hash appears in multiple posts, indicating potential recycling."
		case suspiciousCaption:
			verdict = VerdictSuspicious
			confidence = 0.74
			explanation = "Caption has unverifiable framing language."
		default:
			verdict = VerdictLikelyAuthentic
			confidence = 0.62
			explanation = "No immediate duplication or caption anomalies detected."
		}

		results = append(results, MediaVerification{
			ItemID:      item.ID,
			Verdict:     verdict,
			Confidence:  confidence,
			Checks: map[string]bool{
				"hash_reused":        reused,
				"suspicious_caption": suspiciousCaption,
				"source_consistent":  strings.HasPrefix(item.SourceName, string(item.Platform)),
			},
			Explanation: explanation,
		})
	}
	return results
}
