package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"
)

func TestDefaults(t *testing.T) {
	cfg := Default()

	if cfg.Server.Port != 8080 {
		t.Errorf("expected default port 8080, got %d", cfg.Server.Port)
	}
	if cfg.Database.Path != "./casetrack.db" {
		t.Errorf("unexpected default db path: %s", cfg.Database.Path)
	}
	if cfg.Collector.ItemsPerPlatform != 4 {
		t.Errorf("expected 4 items per platform, got %d", cfg.Collector.ItemsPerPlatform)
	}
	if cfg.Collector.WebFeeds.Enabled {
		t.Error("web feeds should be disabled by default")
	}
	if cfg.Schedule.ParseIngestInterval() != 30*time.Second {
		t.Errorf("expected 30s ingest interval, got %v", cfg.Schedule.ParseIngestInterval())
	}
	if cfg.Schedule.ParseAnalyzeInterval() != 45*time.Second {
		t.Errorf("expected 45s analyze interval, got %v", cfg.Schedule.ParseAnalyzeInterval())
	}
}

func TestLoadEmptyPath(t *testing.T) {
	cfg, err := Load("")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if cfg.Server.Port != 8080 {
		t.Errorf("empty path should yield defaults, got port %d", cfg.Server.Port)
	}
}

func TestLoadFromFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	data := `
database:
  path: /tmp/cases.db
server:
  port: 9090
schedule:
  ingest_interval: 1m
collector:
  items_per_platform: 6
  web_feeds:
    enabled: true
    fetch_content: true
    feeds:
      - name: Example
        url: https://example.com/rss
`
	if err := os.WriteFile(path, []byte(data), 0o644); err != nil {
		t.Fatalf("write config: %v", err)
	}

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if cfg.Database.Path != "/tmp/cases.db" {
		t.Errorf("unexpected db path: %s", cfg.Database.Path)
	}
	if cfg.Server.Port != 9090 {
		t.Errorf("expected port 9090, got %d", cfg.Server.Port)
	}
	if cfg.Schedule.ParseIngestInterval() != time.Minute {
		t.Errorf("expected 1m ingest interval, got %v", cfg.Schedule.ParseIngestInterval())
	}
	// Unset fields keep their defaults.
	if cfg.Schedule.ParseAnalyzeInterval() != 45*time.Second {
		t.Errorf("expected default analyze interval, got %v", cfg.Schedule.ParseAnalyzeInterval())
	}
	if cfg.Collector.ItemsPerPlatform != 6 {
		t.Errorf("expected 6 items per platform, got %d", cfg.Collector.ItemsPerPlatform)
	}
	if !cfg.Collector.WebFeeds.Enabled || len(cfg.Collector.WebFeeds.Feeds) != 1 {
		t.Errorf("web feeds not loaded: %+v", cfg.Collector.WebFeeds)
	}
}

func TestLoadMissingFile(t *testing.T) {
	if _, err := Load("/nonexistent/config.yaml"); err == nil {
		t.Error("expected error for missing file")
	}
}

func TestEnvOverrides(t *testing.T) {
	t.Setenv("CASETRACK_DB_PATH", "/tmp/override.db")
	t.Setenv("CASETRACK_PORT", "7070")

	cfg, err := Load("")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if cfg.Database.Path != "/tmp/override.db" {
		t.Errorf("db path override not applied: %s", cfg.Database.Path)
	}
	if cfg.Server.Port != 7070 {
		t.Errorf("port override not applied: %d", cfg.Server.Port)
	}
}

func TestInvalidIntervalFallsBack(t *testing.T) {
	s := ScheduleConfig{IngestInterval: "soon", AnalyzeInterval: ""}
	if s.ParseIngestInterval() != 30*time.Second {
		t.Errorf("invalid interval should fall back to 30s, got %v", s.ParseIngestInterval())
	}
	if s.ParseAnalyzeInterval() != 45*time.Second {
		t.Errorf("empty interval should fall back to 45s, got %v", s.ParseAnalyzeInterval())
	}
}
