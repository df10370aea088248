// Package casefile sequences the case lifecycle: create, collect, analyze and
// the derivation pass that produces alerts, evidence, media verification and
// the report. It is the only writer of store state and serializes all
// mutating operations per case.
package casefile

import (
	"context"
	"encoding/hex"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/disinfolab/casetrack/internal/store"
	"github.com/disinfolab/casetrack/pkg/connector"
	"github.com/disinfolab/casetrack/pkg/product"
	"github.com/disinfolab/casetrack/pkg/risk"
)

// ErrValidation marks malformed create-case input. Not retryable without the
// caller fixing the input.
var ErrValidation = errors.New("validation failed")

// ErrNoAnalysis marks a derivation request made before any analysis exists.
// Resolved by calling Analyze first.
var ErrNoAnalysis = errors.New("analyze the case first")

const (
	titleMinLen = 5
	titleMaxLen = 140
	queryMinLen = 2
	queryMaxLen = 200
)

// Service orchestrates the case pipeline over a store and a collector.
type Service struct {
	store     store.Store
	collector connector.Collector

	mu    sync.Mutex
	locks map[string]*sync.Mutex
}

// NewService creates a case service.
func NewService(s store.Store, collector connector.Collector) *Service {
	return &Service{
		store:     s,
		collector: collector,
		locks:     make(map[string]*sync.Mutex),
	}
}

// caseLock returns the mutex guarding a single case's mutations, creating it
// on first use. Locks are never removed; the case population is small.
func (s *Service) caseLock(caseID string) *sync.Mutex {
	s.mu.Lock()
	defer s.mu.Unlock()
	lock, ok := s.locks[caseID]
	if !ok {
		lock = &sync.Mutex{}
		s.locks[caseID] = lock
	}
	return lock
}

// CreateCase validates the input and registers a new case in draft state.
// Platforms default to all known platforms when empty.
func (s *Service) CreateCase(ctx context.Context, title, query string, platforms []connector.Platform) (*store.CaseRecord, error) {
	if n := len(title); n < titleMinLen || n > titleMaxLen {
		return nil, fmt.Errorf("title must be %d-%d characters: %w", titleMinLen, titleMaxLen, ErrValidation)
	}
	if n := len(query); n < queryMinLen || n > queryMaxLen {
		return nil, fmt.Errorf("query must be %d-%d characters: %w", queryMinLen, queryMaxLen, ErrValidation)
	}
	if len(platforms) == 0 {
		platforms = connector.AllPlatforms()
	}
	for _, p := range platforms {
		if !connector.ValidPlatform(p) {
			return nil, fmt.Errorf("unknown platform %q: %w", p, ErrValidation)
		}
	}

	id := uuid.New()
	now := time.Now().UTC()
	c := &store.CaseRecord{
		ID:        fmt.Sprintf("case_%s", hex.EncodeToString(id[:])[:10]),
		Title:     title,
		Query:     query,
		Platforms: platforms,
		Status:    store.StatusDraft,
		CreatedAt: now,
		UpdatedAt: now,
		Severity:  risk.SeverityR1,
	}

	lock := s.caseLock(c.ID)
	lock.Lock()
	defer lock.Unlock()

	if err := s.store.CreateCase(ctx, c); err != nil {
		return nil, err
	}
	return s.store.GetCase(ctx, c.ID)
}

// Collect runs the collector for the case's query and platform set and
// appends the resulting items. Repeated calls are additive; no deduplication
// is performed.
func (s *Service) Collect(ctx context.Context, caseID string) (*store.CaseRecord, error) {
	lock := s.caseLock(caseID)
	lock.Lock()
	defer lock.Unlock()

	c, err := s.store.GetCase(ctx, caseID)
	if err != nil {
		return nil, err
	}

	items, err := s.collector.Collect(ctx, c.ID, c.Query, c.Platforms)
	if err != nil {
		return nil, fmt.Errorf("collect items for %s: %w", caseID, err)
	}
	return s.store.AppendItems(ctx, caseID, items)
}

// Analyze scores the case's full current item list and attaches the analysis
// result, replacing any previous one wholesale.
func (s *Service) Analyze(ctx context.Context, caseID string) (*store.CaseRecord, error) {
	lock := s.caseLock(caseID)
	lock.Lock()
	defer lock.Unlock()

	return s.analyzeLocked(ctx, caseID)
}

func (s *Service) analyzeLocked(ctx context.Context, caseID string) (*store.CaseRecord, error) {
	if _, err := s.store.GetCase(ctx, caseID); err != nil {
		return nil, err
	}
	if err := s.store.SetStatus(ctx, caseID, store.StatusAnalyzing); err != nil {
		return nil, err
	}

	items, err := s.store.GetItems(ctx, caseID)
	if err != nil {
		return nil, err
	}
	return s.store.SaveAnalysis(ctx, caseID, risk.Analyze(items))
}

// GenerateProducts runs the derivation pass, overwriting alerts, evidence,
// media verification and the report. It requires a prior successful Analyze.
func (s *Service) GenerateProducts(ctx context.Context, caseID string) (*store.CaseRecord, error) {
	lock := s.caseLock(caseID)
	lock.Lock()
	defer lock.Unlock()

	return s.generateProductsLocked(ctx, caseID)
}

func (s *Service) generateProductsLocked(ctx context.Context, caseID string) (*store.CaseRecord, error) {
	c, err := s.store.GetCase(ctx, caseID)
	if err != nil {
		return nil, err
	}
	if c.Analysis == nil {
		return nil, fmt.Errorf("case %s has no analysis: %w", caseID, ErrNoAnalysis)
	}

	items, err := s.store.GetItems(ctx, caseID)
	if err != nil {
		return nil, err
	}

	if err := s.store.SaveAlerts(ctx, caseID, product.BuildAlerts(caseID, c.Analysis)); err != nil {
		return nil, err
	}
	if err := s.store.SaveEvidence(ctx, caseID, product.BuildEvidence(caseID, items)); err != nil {
		return nil, err
	}
	if err := s.store.SaveMediaVerification(ctx, caseID, product.VerifyMedia(items)); err != nil {
		return nil, err
	}
	if err := s.store.SaveReport(ctx, caseID, product.BuildReport(caseID, c.Analysis, items)); err != nil {
		return nil, err
	}

	return s.store.GetCase(ctx, caseID)
}

// RunAll executes collect, analyze and the derivation pass in one call.
func (s *Service) RunAll(ctx context.Context, caseID string) (*store.CaseRecord, error) {
	lock := s.caseLock(caseID)
	lock.Lock()
	defer lock.Unlock()

	c, err := s.store.GetCase(ctx, caseID)
	if err != nil {
		return nil, err
	}

	items, err := s.collector.Collect(ctx, c.ID, c.Query, c.Platforms)
	if err != nil {
		return nil, fmt.Errorf("collect items for %s: %w", caseID, err)
	}
	if _, err := s.store.AppendItems(ctx, caseID, items); err != nil {
		return nil, err
	}
	if _, err := s.analyzeLocked(ctx, caseID); err != nil {
		return nil, err
	}
	return s.generateProductsLocked(ctx, caseID)
}

// Read accessors pass straight through to the store.

func (s *Service) Case(ctx context.Context, caseID string) (*store.CaseRecord, error) {
	return s.store.GetCase(ctx, caseID)
}

func (s *Service) Cases(ctx context.Context) ([]store.CaseRecord, error) {
	return s.store.ListCases(ctx)
}

func (s *Service) Items(ctx context.Context, caseID string) ([]connector.ContentItem, error) {
	if _, err := s.store.GetCase(ctx, caseID); err != nil {
		return nil, err
	}
	return s.store.GetItems(ctx, caseID)
}

func (s *Service) Alerts(ctx context.Context, caseID string) ([]product.AlertRecord, error) {
	if _, err := s.store.GetCase(ctx, caseID); err != nil {
		return nil, err
	}
	return s.store.GetAlerts(ctx, caseID)
}

func (s *Service) Evidence(ctx context.Context, caseID string) ([]product.EvidenceRecord, error) {
	if _, err := s.store.GetCase(ctx, caseID); err != nil {
		return nil, err
	}
	return s.store.GetEvidence(ctx, caseID)
}

func (s *Service) MediaVerification(ctx context.Context, caseID string) ([]product.MediaVerification, error) {
	if _, err := s.store.GetCase(ctx, caseID); err != nil {
		return nil, err
	}
	return s.store.GetMediaVerification(ctx, caseID)
}

func (s *Service) Report(ctx context.Context, caseID string) (*product.CaseReport, error) {
	if _, err := s.store.GetCase(ctx, caseID); err != nil {
		return nil, err
	}
	return s.store.GetReport(ctx, caseID)
}

func (s *Service) Timeline(ctx context.Context, caseID string) ([]store.TimelineEvent, error) {
	if _, err := s.store.GetCase(ctx, caseID); err != nil {
		return nil, err
	}
	return s.store.GetTimeline(ctx, caseID)
}

func (s *Service) Graph(ctx context.Context, caseID string) (*connector.Graph, error) {
	items, err := s.Items(ctx, caseID)
	if err != nil {
		return nil, err
	}
	graph := connector.BuildGraph(items)
	return &graph, nil
}

func (s *Service) Metrics(ctx context.Context) (*store.GlobalMetrics, error) {
	return s.store.GetGlobalMetrics(ctx)
}
