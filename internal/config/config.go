package config

import (
	"fmt"
	"os"
	"strconv"
	"time"

	"gopkg.in/yaml.v3"
)

// Config is the root configuration.
type Config struct {
	Database  DatabaseConfig  `yaml:"database"`
	Server    ServerConfig    `yaml:"server"`
	Schedule  ScheduleConfig  `yaml:"schedule"`
	Collector CollectorConfig `yaml:"collector"`
}

// DatabaseConfig configures SQLite storage.
type DatabaseConfig struct {
	Path string `yaml:"path"`
}

// ServerConfig configures the HTTP server.
type ServerConfig struct {
	Port int `yaml:"port"`
}

// ScheduleConfig configures the ingest and analysis poll intervals.
type ScheduleConfig struct {
	IngestInterval  string `yaml:"ingest_interval"`
	AnalyzeInterval string `yaml:"analyze_interval"`
}

// ParseIngestInterval returns the ingest interval as time.Duration.
func (s ScheduleConfig) ParseIngestInterval() time.Duration {
	d, err := time.ParseDuration(s.IngestInterval)
	if err != nil {
		return 30 * time.Second
	}
	return d
}

// ParseAnalyzeInterval returns the analysis interval as time.Duration.
func (s ScheduleConfig) ParseAnalyzeInterval() time.Duration {
	d, err := time.ParseDuration(s.AnalyzeInterval)
	if err != nil {
		return 45 * time.Second
	}
	return d
}

// CollectorConfig configures the content collectors.
type CollectorConfig struct {
	ItemsPerPlatform int            `yaml:"items_per_platform"`
	WebFeeds         WebFeedsConfig `yaml:"web_feeds"`
}

// WebFeedsConfig configures the optional live RSS collector for the web
// platform.
type WebFeedsConfig struct {
	Enabled      bool       `yaml:"enabled"`
	FetchContent bool       `yaml:"fetch_content"`
	Feeds        []FeedItem `yaml:"feeds"`
}

// FeedItem is a single RSS feed entry.
type FeedItem struct {
	Name string `yaml:"name"`
	URL  string `yaml:"url"`
}

// Default returns a Config with sensible defaults.
func Default() *Config {
	return &Config{
		Database: DatabaseConfig{Path: "./casetrack.db"},
		Server:   ServerConfig{Port: 8080},
		Schedule: ScheduleConfig{
			IngestInterval:  "30s",
			AnalyzeInterval: "45s",
		},
		Collector: CollectorConfig{
			ItemsPerPlatform: 4,
			WebFeeds: WebFeedsConfig{
				Enabled: false,
				Feeds: []FeedItem{
					{Name: "BBC World", URL: "https://feeds.bbci.co.uk/news/world/rss.xml"},
					{Name: "Reuters Top", URL: "https://www.reutersagency.com/feed/"},
				},
			},
		},
	}
}

// Load reads configuration from a YAML file and applies env var overrides.
func Load(path string) (*Config, error) {
	cfg := Default()

	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("read config %s: %w", path, err)
		}
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("parse config %s: %w", path, err)
		}
	}

	applyEnvOverrides(cfg)
	return cfg, nil
}

// applyEnvOverrides overrides config values with environment variables.
func applyEnvOverrides(cfg *Config) {
	if v := os.Getenv("CASETRACK_DB_PATH"); v != "" {
		cfg.Database.Path = v
	}
	if v := os.Getenv("CASETRACK_PORT"); v != "" {
		if port, err := strconv.Atoi(v); err == nil {
			cfg.Server.Port = port
		}
	}
}
