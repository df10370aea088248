package connector

// Status describes the operational health of an upstream connector.
type Status struct {
	Connector    string  `json:"connector"`
	Domain       string  `json:"domain"`
	Health       string  `json:"health"`
	SuccessRate  float64 `json:"success_rate"`
	AvgLatencyMS int     `json:"avg_latency_ms"`
	LastError    string  `json:"last_error,omitempty"`
}

// CatalogEntry points at an upstream OSINT source or tool.
type CatalogEntry struct {
	ID         string   `json:"id"`
	Name       string   `json:"name"`
	Category   string   `json:"category"`
	SourceType string   `json:"source_type"`
	OriginRepo string   `json:"origin_repo"`
	URL        string   `json:"url"`
	Tags       []string `json:"tags"`
}

var connectorHealth = []Status{
	{
		Connector:    "sherlock-identity",
		Domain:       "social_identity",
		Health:       "healthy",
		SuccessRate:  0.98,
		AvgLatencyMS: 420,
	},
	{
		Connector:    "telegram-intel-pack",
		Domain:       "social_content",
		Health:       "healthy",
		SuccessRate:  0.95,
		AvgLatencyMS: 510,
	},
	{
		Connector:    "instagram-intel-pack",
		Domain:       "social_content",
		Health:       "degraded",
		SuccessRate:  0.88,
		AvgLatencyMS: 860,
		LastError:    "rate-limit burst in last run",
	},
	{
		Connector:    "web-check-stack",
		Domain:       "web_infra",
		Health:       "healthy",
		SuccessRate:  0.99,
		AvgLatencyMS: 310,
	},
	{
		Connector:    "theharvester-domain-enum",
		Domain:       "web_infra",
		Health:       "healthy",
		SuccessRate:  0.93,
		AvgLatencyMS: 740,
	},
}

var sourceCatalog = []CatalogEntry{
	{
		ID:         "src_awesome_osint",
		Name:       "Awesome OSINT",
		Category:   "catalog",
		SourceType: "index",
		OriginRepo: "jivoi/awesome-osint",
		URL:        "https://github.com/jivoi/awesome-osint",
		Tags:       []string{"catalog", "multi-domain", "discovery"},
	},
	{
		ID:         "src_spiderfoot",
		Name:       "SpiderFoot",
		Category:   "engine",
		SourceType: "tool",
		OriginRepo: "smicallef/spiderfoot",
		URL:        "https://github.com/smicallef/spiderfoot",
		Tags:       []string{"automation", "correlation", "osint"},
	},
	{
		ID:         "src_sherlock",
		Name:       "Sherlock",
		Category:   "identity",
		SourceType: "tool",
		OriginRepo: "sherlock-project/sherlock",
		URL:        "https://github.com/sherlock-project/sherlock",
		Tags:       []string{"username", "social", "discovery"},
	},
	{
		ID:         "src_social_analyzer",
		Name:       "Social Analyzer",
		Category:   "identity",
		SourceType: "tool",
		OriginRepo: "qeeqbox/social-analyzer",
		URL:        "https://github.com/qeeqbox/social-analyzer",
		Tags:       []string{"identity", "confidence", "social"},
	},
	{
		ID:         "src_web_check",
		Name:       "Web Check",
		Category:   "web_infra",
		SourceType: "tool",
		OriginRepo: "Lissy93/web-check",
		URL:        "https://github.com/Lissy93/web-check",
		Tags:       []string{"domain", "tls", "headers"},
	},
	{
		ID:         "src_telegram_osint",
		Name:       "Telegram OSINT Toolbox",
		Category:   "social_content",
		SourceType: "catalog",
		OriginRepo: "The-Osint-Toolbox/Telegram-OSINT",
		URL:        "https://github.com/The-Osint-Toolbox/Telegram-OSINT",
		Tags:       []string{"telegram", "channels", "groups"},
	},
	{
		ID:         "src_instagram_osint",
		Name:       "Osintgram",
		Category:   "social_content",
		SourceType: "tool",
		OriginRepo: "Datalux/Osintgram",
		URL:        "https://github.com/Datalux/Osintgram",
		Tags:       []string{"instagram", "posts", "metadata"},
	},
}

// Health returns the static connector health listing.
func Health() []Status {
	return connectorHealth
}

// Catalog returns the static upstream source catalog.
func Catalog() []CatalogEntry {
	return sourceCatalog
}
