package product

import (
	"crypto/sha1"
	"encoding/hex"
	"fmt"
	"time"

	"github.com/disinfolab/casetrack/pkg/connector"
)

// EvidenceRecord is a tamper-evident capture of one content item.
type EvidenceRecord struct {
	ID           string    `json:"id" db:"id"`
	CaseID       string    `json:"case_id" db:"case_id"`
	ItemID       string    `json:"item_id" db:"item_id"`
	SourceName   string    `json:"source_name" db:"source_name"`
	SourceURL    string    `json:"source_url" db:"source_url"`
	EvidenceHash string    `json:"evidence_hash" db:"evidence_hash"`
	Note         string    `json:"note" db:"note"`
	CapturedAt   time.Time `json:"captured_at" db:"captured_at"`
}

// BuildEvidence captures one evidence record per item present at derivation
// time. The hash covers item text and URL so later tampering is detectable;
// it is not used for deduplication.
func BuildEvidence(caseID string, items []connector.ContentItem) []EvidenceRecord {
	now := time.Now().UTC()
	evidence := make([]EvidenceRecord, 0, len(items))
	for _, item := range items {
		sum := sha1.Sum([]byte(item.Text + item.URL))
		evidence = append(evidence, EvidenceRecord{
			ID:           fmt.Sprintf("ev_%s", shortSHA1(item.ID+"evidence", 12)),
			CaseID:       caseID,
			ItemID:       item.ID,
			SourceName:   item.SourceName,
			SourceURL:    item.URL,
			EvidenceHash: hex.EncodeToString(sum[:]),
			Note:         "Captured by unified connector pipeline.",
			CapturedAt:   now,
		})
	}
	return evidence
}
