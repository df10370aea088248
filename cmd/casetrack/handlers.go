package main

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"text/tabwriter"
	"time"

	"github.com/disinfolab/casetrack/internal/casefile"
	"github.com/disinfolab/casetrack/internal/config"
	"github.com/disinfolab/casetrack/internal/scheduler"
	"github.com/disinfolab/casetrack/internal/store"
	"github.com/disinfolab/casetrack/pkg/connector"
	"github.com/disinfolab/casetrack/pkg/product"
	"github.com/disinfolab/casetrack/pkg/server"
)

func loadConfig() (*config.Config, error) {
	path := cfgFile
	if path == "" {
		if _, err := os.Stat("config.yaml"); err == nil {
			path = "config.yaml"
		}
	}
	return config.Load(path)
}

func buildCollector(cfg *config.Config) connector.Collector {
	chain := connector.Chain{connector.NewSeed(cfg.Collector.ItemsPerPlatform)}

	if cfg.Collector.WebFeeds.Enabled && len(cfg.Collector.WebFeeds.Feeds) > 0 {
		feeds := make([]connector.RSSFeed, len(cfg.Collector.WebFeeds.Feeds))
		for i, f := range cfg.Collector.WebFeeds.Feeds {
			feeds[i] = connector.RSSFeed{Name: f.Name, URL: f.URL}
		}
		chain = append(chain, connector.NewRSS(feeds, cfg.Collector.WebFeeds.FetchContent))
		fmt.Fprintf(os.Stderr, "web feeds enabled: %d feeds\n", len(feeds))
	}

	return chain
}

func buildService(cfg *config.Config) (*casefile.Service, *store.SQLiteStore, error) {
	db, err := store.New(cfg.Database.Path)
	if err != nil {
		return nil, nil, fmt.Errorf("open store: %w", err)
	}
	return casefile.NewService(db, buildCollector(cfg)), db, nil
}

func runServe(port int) error {
	cfg, err := loadConfig()
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}

	if port == 0 {
		port = cfg.Server.Port
	}

	svc, db, err := buildService(cfg)
	if err != nil {
		return err
	}
	defer db.Close()

	srv := server.New(svc, port)
	return srv.ListenAndServe()
}

func runDaemon(port int) error {
	cfg, err := loadConfig()
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}

	if port == 0 {
		port = cfg.Server.Port
	}

	svc, db, err := buildService(cfg)
	if err != nil {
		return err
	}
	defer db.Close()

	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	sched := scheduler.New(svc,
		cfg.Schedule.ParseIngestInterval(),
		cfg.Schedule.ParseAnalyzeInterval(),
	)

	// Start scheduler in background.
	go func() {
		if err := sched.Run(ctx); err != nil && ctx.Err() == nil {
			fmt.Fprintf(os.Stderr, "scheduler error: %v\n", err)
		}
	}()

	go func() {
		<-ctx.Done()
		fmt.Fprintln(os.Stderr, "\nshutting down...")
	}()

	srv := server.New(svc, port)
	return srv.ListenAndServe()
}

func runCreate(title, query string, platforms []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}

	svc, db, err := buildService(cfg)
	if err != nil {
		return err
	}
	defer db.Close()

	var selected []connector.Platform
	for _, p := range platforms {
		selected = append(selected, connector.Platform(p))
	}

	c, err := svc.CreateCase(context.Background(), title, query, selected)
	if err != nil {
		return err
	}

	fmt.Printf("created case %s (%s)\n", c.ID, c.Title)
	return nil
}

func runCollect(caseID string) error {
	cfg, err := loadConfig()
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}

	svc, db, err := buildService(cfg)
	if err != nil {
		return err
	}
	defer db.Close()

	c, err := svc.Collect(context.Background(), caseID)
	if err != nil {
		return err
	}

	fmt.Fprintf(os.Stderr, "collected: case %s now has %d items\n", c.ID, c.ItemCount)
	return nil
}

func runAnalyze(caseID string) error {
	cfg, err := loadConfig()
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}

	svc, db, err := buildService(cfg)
	if err != nil {
		return err
	}
	defer db.Close()

	c, err := svc.Analyze(context.Background(), caseID)
	if err != nil {
		return err
	}

	fmt.Printf("case %s scored %.2f (%s)\n", c.ID, c.RiskScore, c.Severity)
	return nil
}

func runProducts(caseID string) error {
	cfg, err := loadConfig()
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}

	svc, db, err := buildService(cfg)
	if err != nil {
		return err
	}
	defer db.Close()

	ctx := context.Background()
	if _, err := svc.GenerateProducts(ctx, caseID); err != nil {
		return err
	}

	report, err := svc.Report(ctx, caseID)
	if err != nil {
		return err
	}

	fmt.Println(product.RenderMarkdown(report))
	return nil
}

func runCases(jsonOutput bool) error {
	cfg, err := loadConfig()
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}

	svc, db, err := buildService(cfg)
	if err != nil {
		return err
	}
	defer db.Close()

	cases, err := svc.Cases(context.Background())
	if err != nil {
		return fmt.Errorf("list cases: %w", err)
	}

	if jsonOutput {
		enc := json.NewEncoder(os.Stdout)
		enc.SetIndent("", "  ")
		return enc.Encode(cases)
	}

	if len(cases) == 0 {
		fmt.Println("no cases found (create one first: casetrack create)")
		return nil
	}

	w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "ID\tSTATUS\tITEMS\tSCORE\tSEVERITY\tTITLE\tCREATED")
	for _, c := range cases {
		fmt.Fprintf(w, "%s\t%s\t%d\t%.2f\t%s\t%s\t%s\n",
			c.ID, c.Status, c.ItemCount, c.RiskScore, c.Severity, c.Title,
			c.CreatedAt.Format(time.RFC3339))
	}
	return w.Flush()
}
