// Package store owns the authoritative copy of every case and its derived
// artifacts. All mutations are transactional and append their timeline event
// inside the same transaction, so the timeline order matches the order in
// which operations actually committed.
package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"math"
	"time"

	"github.com/jmoiron/sqlx"
	_ "modernc.org/sqlite"

	"github.com/disinfolab/casetrack/pkg/connector"
	"github.com/disinfolab/casetrack/pkg/product"
	"github.com/disinfolab/casetrack/pkg/risk"
)

// ErrNotFound marks lookups for unknown case ids (or absent reports).
var ErrNotFound = errors.New("not found")

// CaseStatus is the lifecycle state of a case.
type CaseStatus string

const (
	StatusDraft      CaseStatus = "draft"
	StatusCollecting CaseStatus = "collecting"
	StatusAnalyzing  CaseStatus = "analyzing"
	StatusReady      CaseStatus = "ready"
)

// CaseRecord is one investigation case.
type CaseRecord struct {
	ID            string               `json:"id" db:"id"`
	Title         string               `json:"title" db:"title"`
	Query         string               `json:"query" db:"query"`
	Platforms     []connector.Platform `json:"platforms" db:"-"`
	Status        CaseStatus           `json:"status" db:"status"`
	CreatedAt     time.Time            `json:"created_at" db:"created_at"`
	UpdatedAt     time.Time            `json:"updated_at" db:"updated_at"`
	ItemCount     int                  `json:"item_count" db:"item_count"`
	RiskScore     float64              `json:"risk_score" db:"risk_score"`
	Severity      risk.Severity        `json:"severity" db:"severity"`
	Analysis      *risk.Result         `json:"analysis" db:"-"`
	PlatformsJSON string               `json:"-" db:"platforms"`
	AnalysisJSON  string               `json:"-" db:"analysis"`
}

// TimelineEvent is one immutable audit-log entry for a case.
type TimelineEvent struct {
	Seq          int64          `json:"-" db:"seq"`
	ID           string         `json:"id" db:"id"`
	CaseID       string         `json:"case_id" db:"case_id"`
	EventType    string         `json:"event_type" db:"event_type"`
	Summary      string         `json:"summary" db:"summary"`
	CreatedAt    time.Time      `json:"created_at" db:"created_at"`
	Metadata     map[string]any `json:"metadata" db:"-"`
	MetadataJSON string         `json:"-" db:"metadata"`
}

// GlobalMetrics aggregates across all cases.
type GlobalMetrics struct {
	TotalCases        int     `json:"total_cases"`
	OpenAlerts        int     `json:"open_alerts"`
	AvgRisk           float64 `json:"avg_risk"`
	HighSeverityCases int     `json:"high_severity_cases"`
}

// Store is the persistence interface for the case lifecycle.
type Store interface {
	CreateCase(ctx context.Context, c *CaseRecord) error
	ListCases(ctx context.Context) ([]CaseRecord, error)
	GetCase(ctx context.Context, id string) (*CaseRecord, error)
	SetStatus(ctx context.Context, id string, status CaseStatus) error

	AppendItems(ctx context.Context, caseID string, items []connector.ContentItem) (*CaseRecord, error)
	GetItems(ctx context.Context, caseID string) ([]connector.ContentItem, error)

	SaveAnalysis(ctx context.Context, caseID string, analysis *risk.Result) (*CaseRecord, error)
	SaveAlerts(ctx context.Context, caseID string, alerts []product.AlertRecord) error
	GetAlerts(ctx context.Context, caseID string) ([]product.AlertRecord, error)
	SaveEvidence(ctx context.Context, caseID string, evidence []product.EvidenceRecord) error
	GetEvidence(ctx context.Context, caseID string) ([]product.EvidenceRecord, error)
	SaveMediaVerification(ctx context.Context, caseID string, results []product.MediaVerification) error
	GetMediaVerification(ctx context.Context, caseID string) ([]product.MediaVerification, error)
	SaveReport(ctx context.Context, caseID string, report *product.CaseReport) error
	GetReport(ctx context.Context, caseID string) (*product.CaseReport, error)

	GetTimeline(ctx context.Context, caseID string) ([]TimelineEvent, error)
	GetGlobalMetrics(ctx context.Context) (*GlobalMetrics, error)

	Close() error
}

// SQLiteStore implements Store using SQLite.
type SQLiteStore struct {
	db *sqlx.DB
}

// New opens a SQLite database and runs migrations.
func New(path string) (*SQLiteStore, error) {
	db, err := sqlx.Open("sqlite", path+"?_journal_mode=WAL&_busy_timeout=5000")
	if err != nil {
		return nil, fmt.Errorf("open sqlite %s: %w", path, err)
	}

	if _, err := db.Exec(schema); err != nil {
		db.Close()
		return nil, fmt.Errorf("run migrations: %w", err)
	}

	return &SQLiteStore{db: db}, nil
}

func (s *SQLiteStore) Close() error {
	return s.db.Close()
}

func (s *SQLiteStore) CreateCase(ctx context.Context, c *CaseRecord) error {
	platformsJSON, _ := json.Marshal(c.Platforms)

	tx, err := s.db.BeginTxx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin create case: %w", err)
	}
	defer tx.Rollback()

	_, err = tx.ExecContext(ctx, `
		INSERT INTO cases (id, title, query, platforms, status, created_at, updated_at, item_count, risk_score, severity, analysis)
		VALUES (?, ?, ?, ?, ?, ?, ?, 0, 0, ?, '')
	`, c.ID, c.Title, c.Query, string(platformsJSON), c.Status, c.CreatedAt, c.UpdatedAt, c.Severity)
	if err != nil {
		return fmt.Errorf("insert case %s: %w", c.ID, err)
	}

	if err := addTimelineEvent(ctx, tx, c.ID, "case_created", "Investigation case created.", nil); err != nil {
		return err
	}
	return tx.Commit()
}

func (s *SQLiteStore) ListCases(ctx context.Context) ([]CaseRecord, error) {
	var cases []CaseRecord
	err := s.db.SelectContext(ctx, &cases, "SELECT * FROM cases ORDER BY updated_at DESC")
	if err != nil {
		return nil, fmt.Errorf("list cases: %w", err)
	}
	for i := range cases {
		decodeCase(&cases[i])
	}
	return cases, nil
}

func (s *SQLiteStore) GetCase(ctx context.Context, id string) (*CaseRecord, error) {
	var c CaseRecord
	err := s.db.GetContext(ctx, &c, "SELECT * FROM cases WHERE id = ?", id)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("case %s: %w", id, ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("get case %s: %w", id, err)
	}
	decodeCase(&c)
	return &c, nil
}

func (s *SQLiteStore) SetStatus(ctx context.Context, id string, status CaseStatus) error {
	res, err := s.db.ExecContext(ctx, "UPDATE cases SET status = ? WHERE id = ?", status, id)
	if err != nil {
		return fmt.Errorf("set status %s: %w", id, err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return fmt.Errorf("case %s: %w", id, ErrNotFound)
	}
	return nil
}

func (s *SQLiteStore) AppendItems(ctx context.Context, caseID string, items []connector.ContentItem) (*CaseRecord, error) {
	if _, err := s.GetCase(ctx, caseID); err != nil {
		return nil, err
	}

	tx, err := s.db.BeginTxx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("begin append items: %w", err)
	}
	defer tx.Rollback()

	for i := range items {
		entitiesJSON, _ := json.Marshal(items[i].Entities)
		_, err = tx.ExecContext(ctx, `
			INSERT INTO items (id, case_id, platform, author, text, url, observed_at, language, engagement, source_name, media_hash, narrative_key, entities)
			VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		`, items[i].ID, caseID, items[i].Platform, items[i].Author, items[i].Text,
			items[i].URL, items[i].ObservedAt, items[i].Language, items[i].Engagement,
			items[i].SourceName, items[i].MediaHash, items[i].NarrativeKey, string(entitiesJSON))
		if err != nil {
			return nil, fmt.Errorf("insert item %s: %w", items[i].ID, err)
		}
	}

	_, err = tx.ExecContext(ctx, `
		UPDATE cases
		SET status = ?, updated_at = ?,
		    item_count = (SELECT COUNT(*) FROM items WHERE case_id = ?)
		WHERE id = ?
	`, StatusCollecting, time.Now().UTC(), caseID, caseID)
	if err != nil {
		return nil, fmt.Errorf("update case %s after append: %w", caseID, err)
	}

	summary := fmt.Sprintf("Collected %d new items.", len(items))
	if err := addTimelineEvent(ctx, tx, caseID, "collection_completed", summary, map[string]any{"item_count": len(items)}); err != nil {
		return nil, err
	}
	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("commit append items: %w", err)
	}

	return s.GetCase(ctx, caseID)
}

func (s *SQLiteStore) GetItems(ctx context.Context, caseID string) ([]connector.ContentItem, error) {
	var items []connector.ContentItem
	err := s.db.SelectContext(ctx, &items, `
		SELECT id, case_id, platform, author, text, url, observed_at, language, engagement, source_name, media_hash, narrative_key, entities
		FROM items WHERE case_id = ? ORDER BY seq
	`, caseID)
	if err != nil {
		return nil, fmt.Errorf("get items %s: %w", caseID, err)
	}
	for i := range items {
		json.Unmarshal([]byte(items[i].EntitiesJSON), &items[i].Entities)
	}
	return items, nil
}

func (s *SQLiteStore) SaveAnalysis(ctx context.Context, caseID string, analysis *risk.Result) (*CaseRecord, error) {
	if _, err := s.GetCase(ctx, caseID); err != nil {
		return nil, err
	}

	analysisJSON, err := json.Marshal(analysis)
	if err != nil {
		return nil, fmt.Errorf("marshal analysis %s: %w", caseID, err)
	}

	tx, err := s.db.BeginTxx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("begin save analysis: %w", err)
	}
	defer tx.Rollback()

	_, err = tx.ExecContext(ctx, `
		UPDATE cases SET status = ?, risk_score = ?, severity = ?, analysis = ?, updated_at = ?
		WHERE id = ?
	`, StatusReady, analysis.Score, analysis.Severity, string(analysisJSON), time.Now().UTC(), caseID)
	if err != nil {
		return nil, fmt.Errorf("save analysis %s: %w", caseID, err)
	}

	summary := fmt.Sprintf("Analysis completed with score %.2f (%s).", analysis.Score, analysis.Severity)
	meta := map[string]any{"score": analysis.Score, "severity": string(analysis.Severity)}
	if err := addTimelineEvent(ctx, tx, caseID, "analysis_completed", summary, meta); err != nil {
		return nil, err
	}
	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("commit save analysis: %w", err)
	}

	return s.GetCase(ctx, caseID)
}

func (s *SQLiteStore) SaveAlerts(ctx context.Context, caseID string, alerts []product.AlertRecord) error {
	tx, err := s.db.BeginTxx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin save alerts: %w", err)
	}
	defer tx.Rollback()

	if _, err := tx.ExecContext(ctx, "DELETE FROM alerts WHERE case_id = ?", caseID); err != nil {
		return fmt.Errorf("clear alerts %s: %w", caseID, err)
	}
	for _, a := range alerts {
		_, err = tx.ExecContext(ctx, `
			INSERT INTO alerts (id, case_id, severity, status, title, summary, recommended_action, created_at)
			VALUES (?, ?, ?, ?, ?, ?, ?, ?)
		`, a.ID, a.CaseID, a.Severity, a.Status, a.Title, a.Summary, a.RecommendedAction, a.CreatedAt)
		if err != nil {
			return fmt.Errorf("insert alert %s: %w", a.ID, err)
		}
	}

	summary := fmt.Sprintf("Generated %d alerts.", len(alerts))
	if err := addTimelineEvent(ctx, tx, caseID, "alerts_generated", summary, nil); err != nil {
		return err
	}
	return tx.Commit()
}

func (s *SQLiteStore) GetAlerts(ctx context.Context, caseID string) ([]product.AlertRecord, error) {
	var alerts []product.AlertRecord
	err := s.db.SelectContext(ctx, &alerts, "SELECT * FROM alerts WHERE case_id = ? ORDER BY rowid", caseID)
	if err != nil {
		return nil, fmt.Errorf("get alerts %s: %w", caseID, err)
	}
	return alerts, nil
}

func (s *SQLiteStore) SaveEvidence(ctx context.Context, caseID string, evidence []product.EvidenceRecord) error {
	tx, err := s.db.BeginTxx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin save evidence: %w", err)
	}
	defer tx.Rollback()

	if _, err := tx.ExecContext(ctx, "DELETE FROM evidence WHERE case_id = ?", caseID); err != nil {
		return fmt.Errorf("clear evidence %s: %w", caseID, err)
	}
	for _, ev := range evidence {
		_, err = tx.ExecContext(ctx, `
			INSERT INTO evidence (id, case_id, item_id, source_name, source_url, evidence_hash, note, captured_at)
			VALUES (?, ?, ?, ?, ?, ?, ?, ?)
		`, ev.ID, ev.CaseID, ev.ItemID, ev.SourceName, ev.SourceURL, ev.EvidenceHash, ev.Note, ev.CapturedAt)
		if err != nil {
			return fmt.Errorf("insert evidence %s: %w", ev.ID, err)
		}
	}

	summary := fmt.Sprintf("Captured %d evidence records.", len(evidence))
	if err := addTimelineEvent(ctx, tx, caseID, "evidence_captured", summary, nil); err != nil {
		return err
	}
	return tx.Commit()
}

func (s *SQLiteStore) GetEvidence(ctx context.Context, caseID string) ([]product.EvidenceRecord, error) {
	var evidence []product.EvidenceRecord
	err := s.db.SelectContext(ctx, &evidence, "SELECT * FROM evidence WHERE case_id = ? ORDER BY rowid", caseID)
	if err != nil {
		return nil, fmt.Errorf("get evidence %s: %w", caseID, err)
	}
	return evidence, nil
}

type mediaRow struct {
	CaseID      string  `db:"case_id"`
	ItemID      string  `db:"item_id"`
	Verdict     string  `db:"verdict"`
	Confidence  float64 `db:"confidence"`
	Checks      string  `db:"checks"`
	Explanation string  `db:"explanation"`
}

func (s *SQLiteStore) SaveMediaVerification(ctx context.Context, caseID string, results []product.MediaVerification) error {
	tx, err := s.db.BeginTxx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin save media verification: %w", err)
	}
	defer tx.Rollback()

	if _, err := tx.ExecContext(ctx, "DELETE FROM media_verifications WHERE case_id = ?", caseID); err != nil {
		return fmt.Errorf("clear media verification %s: %w", caseID, err)
	}
	for _, r := range results {
		checksJSON, _ := json.Marshal(r.Checks)
		_, err = tx.ExecContext(ctx, `
			INSERT INTO media_verifications (case_id, item_id, verdict, confidence, checks, explanation)
			VALUES (?, ?, ?, ?, ?, ?)
		`, caseID, r.ItemID, r.Verdict, r.Confidence, string(checksJSON), r.Explanation)
		if err != nil {
			return fmt.Errorf("insert media verification %s: %w", r.ItemID, err)
		}
	}

	summary := fmt.Sprintf("Media verification completed for %d items.", len(results))
	if err := addTimelineEvent(ctx, tx, caseID, "media_verified", summary, nil); err != nil {
		return err
	}
	return tx.Commit()
}

func (s *SQLiteStore) GetMediaVerification(ctx context.Context, caseID string) ([]product.MediaVerification, error) {
	var rows []mediaRow
	err := s.db.SelectContext(ctx, &rows, "SELECT * FROM media_verifications WHERE case_id = ? ORDER BY rowid", caseID)
	if err != nil {
		return nil, fmt.Errorf("get media verification %s: %w", caseID, err)
	}

	results := make([]product.MediaVerification, 0, len(rows))
	for _, row := range rows {
		checks := make(map[string]bool)
		json.Unmarshal([]byte(row.Checks), &checks)
		results = append(results, product.MediaVerification{
			ItemID:      row.ItemID,
			Verdict:     product.Verdict(row.Verdict),
			Confidence:  row.Confidence,
			Checks:      checks,
			Explanation: row.Explanation,
		})
	}
	return results, nil
}

func (s *SQLiteStore) SaveReport(ctx context.Context, caseID string, report *product.CaseReport) error {
	payload, err := json.Marshal(report)
	if err != nil {
		return fmt.Errorf("marshal report %s: %w", caseID, err)
	}

	tx, err := s.db.BeginTxx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin save report: %w", err)
	}
	defer tx.Rollback()

	_, err = tx.ExecContext(ctx, `
		INSERT INTO reports (case_id, payload) VALUES (?, ?)
		ON CONFLICT(case_id) DO UPDATE SET payload = excluded.payload
	`, caseID, string(payload))
	if err != nil {
		return fmt.Errorf("save report %s: %w", caseID, err)
	}

	if err := addTimelineEvent(ctx, tx, caseID, "report_generated", "Executive and technical report generated.", nil); err != nil {
		return err
	}
	return tx.Commit()
}

func (s *SQLiteStore) GetReport(ctx context.Context, caseID string) (*product.CaseReport, error) {
	var payload string
	err := s.db.GetContext(ctx, &payload, "SELECT payload FROM reports WHERE case_id = ?", caseID)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("report for case %s: %w", caseID, ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("get report %s: %w", caseID, err)
	}

	var report product.CaseReport
	if err := json.Unmarshal([]byte(payload), &report); err != nil {
		return nil, fmt.Errorf("decode report %s: %w", caseID, err)
	}
	return &report, nil
}

func (s *SQLiteStore) GetTimeline(ctx context.Context, caseID string) ([]TimelineEvent, error) {
	var events []TimelineEvent
	err := s.db.SelectContext(ctx, &events, "SELECT * FROM timeline WHERE case_id = ? ORDER BY seq", caseID)
	if err != nil {
		return nil, fmt.Errorf("get timeline %s: %w", caseID, err)
	}
	for i := range events {
		events[i].Metadata = make(map[string]any)
		json.Unmarshal([]byte(events[i].MetadataJSON), &events[i].Metadata)
	}
	return events, nil
}

func (s *SQLiteStore) GetGlobalMetrics(ctx context.Context) (*GlobalMetrics, error) {
	m := &GlobalMetrics{}

	if err := s.db.GetContext(ctx, &m.TotalCases, "SELECT COUNT(*) FROM cases"); err != nil {
		return nil, fmt.Errorf("count cases: %w", err)
	}
	if err := s.db.GetContext(ctx, &m.OpenAlerts, "SELECT COUNT(*) FROM alerts WHERE status = 'open'"); err != nil {
		return nil, fmt.Errorf("count open alerts: %w", err)
	}
	if err := s.db.GetContext(ctx, &m.HighSeverityCases, "SELECT COUNT(*) FROM cases WHERE severity IN ('R3', 'R4')"); err != nil {
		return nil, fmt.Errorf("count high severity cases: %w", err)
	}
	if m.TotalCases > 0 {
		var avg float64
		if err := s.db.GetContext(ctx, &avg, "SELECT AVG(risk_score) FROM cases"); err != nil {
			return nil, fmt.Errorf("average risk: %w", err)
		}
		m.AvgRisk = math.Round(avg*100) / 100
	}
	return m, nil
}

// addTimelineEvent appends one audit event inside the caller's transaction so
// the timeline order matches the commit order of the mutations it records.
func addTimelineEvent(ctx context.Context, tx *sqlx.Tx, caseID, eventType, summary string, metadata map[string]any) error {
	var count int
	if err := tx.GetContext(ctx, &count, "SELECT COUNT(*) FROM timeline WHERE case_id = ?", caseID); err != nil {
		return fmt.Errorf("count timeline %s: %w", caseID, err)
	}

	if metadata == nil {
		metadata = map[string]any{}
	}
	metadataJSON, _ := json.Marshal(metadata)

	suffix := caseID
	if len(suffix) > 4 {
		suffix = suffix[len(suffix)-4:]
	}
	eventID := fmt.Sprintf("evt_%d_%s", count+1, suffix)

	_, err := tx.ExecContext(ctx, `
		INSERT INTO timeline (id, case_id, event_type, summary, created_at, metadata)
		VALUES (?, ?, ?, ?, ?, ?)
	`, eventID, caseID, eventType, summary, time.Now().UTC(), string(metadataJSON))
	if err != nil {
		return fmt.Errorf("append timeline event %s: %w", eventID, err)
	}
	return nil
}

func decodeCase(c *CaseRecord) {
	json.Unmarshal([]byte(c.PlatformsJSON), &c.Platforms)
	if c.AnalysisJSON != "" {
		var analysis risk.Result
		if err := json.Unmarshal([]byte(c.AnalysisJSON), &analysis); err == nil {
			c.Analysis = &analysis
		}
	}
}
