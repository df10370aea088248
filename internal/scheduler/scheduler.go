package scheduler

import (
	"context"
	"fmt"
	"os"
	"time"

	"github.com/disinfolab/casetrack/internal/casefile"
	"github.com/disinfolab/casetrack/internal/store"
)

// Scheduler drives the two polling workers: the ingest loop that collects
// items for open cases, and the analysis loop that scores cases with items.
// Both call ordinary service operations; the service's per-case locking keeps
// their interleavings safe.
type Scheduler struct {
	svc        *casefile.Service
	ingestInt  time.Duration
	analyzeInt time.Duration
}

// New creates a new scheduler.
func New(svc *casefile.Service, ingestInt, analyzeInt time.Duration) *Scheduler {
	if ingestInt == 0 {
		ingestInt = 30 * time.Second
	}
	if analyzeInt == 0 {
		analyzeInt = 45 * time.Second
	}
	return &Scheduler{
		svc:        svc,
		ingestInt:  ingestInt,
		analyzeInt: analyzeInt,
	}
}

// Run starts both poll loops. Blocks until ctx is cancelled.
func (s *Scheduler) Run(ctx context.Context) error {
	ingestTicker := time.NewTicker(s.ingestInt)
	analyzeTicker := time.NewTicker(s.analyzeInt)
	defer ingestTicker.Stop()
	defer analyzeTicker.Stop()

	// Run immediately on start.
	fmt.Fprintln(os.Stderr, "scheduler: initial ingest pass...")
	s.ingestPass(ctx)
	fmt.Fprintln(os.Stderr, "scheduler: initial analysis pass...")
	s.analyzePass(ctx)

	fmt.Fprintf(os.Stderr, "scheduler: running (ingest every %s, analyze every %s)\n",
		s.ingestInt, s.analyzeInt)

	for {
		select {
		case <-ctx.Done():
			fmt.Fprintln(os.Stderr, "scheduler: stopped")
			return ctx.Err()
		case <-ingestTicker.C:
			s.ingestPass(ctx)
		case <-analyzeTicker.C:
			s.analyzePass(ctx)
		}
	}
}

// ingestPass collects new items for every case still being built up.
func (s *Scheduler) ingestPass(ctx context.Context) {
	cases, err := s.svc.Cases(ctx)
	if err != nil {
		fmt.Fprintf(os.Stderr, "  ingest list error: %v\n", err)
		return
	}

	for _, c := range cases {
		if c.Status != store.StatusDraft && c.Status != store.StatusCollecting {
			continue
		}
		updated, err := s.svc.Collect(ctx, c.ID)
		if err != nil {
			fmt.Fprintf(os.Stderr, "  ingest %s error: %v\n", c.ID, err)
			continue
		}
		fmt.Fprintf(os.Stderr, "  ingest %s: %d items total\n", c.ID, updated.ItemCount)
	}
}

// analyzePass scores every case that has items but no finished analysis.
func (s *Scheduler) analyzePass(ctx context.Context) {
	cases, err := s.svc.Cases(ctx)
	if err != nil {
		fmt.Fprintf(os.Stderr, "  analyze list error: %v\n", err)
		return
	}

	for _, c := range cases {
		if c.ItemCount == 0 || c.Status == store.StatusReady {
			continue
		}
		updated, err := s.svc.Analyze(ctx, c.ID)
		if err != nil {
			fmt.Fprintf(os.Stderr, "  analyze %s error: %v\n", c.ID, err)
			continue
		}
		fmt.Fprintf(os.Stderr, "  analyze %s: score %.2f (%s)\n", c.ID, updated.RiskScore, updated.Severity)
	}
}
