package connector

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
)

const testFeedXML = `<?xml version="1.0" encoding="UTF-8"?>
<rss version="2.0">
  <channel>
    <title>Test Feed</title>
    <item>
      <title>Energy claims spread online</title>
      <link>https://example.com/story-1</link>
      <description>Unverified claims about energy policy circulate.</description>
      <pubDate>Mon, 24 Aug 2026 10:00:00 GMT</pubDate>
    </item>
    <item>
      <title>Second story</title>
      <link>https://example.com/story-2</link>
    </item>
  </channel>
</rss>`

func newFeedServer(t *testing.T) *httptest.Server {
	t.Helper()
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/rss+xml")
		w.Write([]byte(testFeedXML))
	}))
	t.Cleanup(ts.Close)
	return ts
}

func TestRSSCollect(t *testing.T) {
	ts := newFeedServer(t)
	rss := NewRSS([]RSSFeed{{Name: "test-feed", URL: ts.URL}}, false)

	items, err := rss.Collect(context.Background(), "case_test123", "energy", []Platform{PlatformWeb})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(items) != 2 {
		t.Fatalf("expected 2 items, got %d", len(items))
	}

	first := items[0]
	if first.Platform != PlatformWeb {
		t.Errorf("expected web platform, got %s", first.Platform)
	}
	if first.CaseID != "case_test123" {
		t.Errorf("wrong case id: %q", first.CaseID)
	}
	if !strings.Contains(first.Text, "Energy claims spread online") {
		t.Errorf("feed title missing from text: %q", first.Text)
	}
	if !strings.Contains(first.Text, "Unverified claims") {
		t.Errorf("description missing from text: %q", first.Text)
	}
	if first.URL != "https://example.com/story-1" {
		t.Errorf("unexpected link: %q", first.URL)
	}
	if first.Author != "test-feed" {
		t.Errorf("authorless entries fall back to the feed name, got %q", first.Author)
	}
	if first.SourceName != "web-feed" {
		t.Errorf("unexpected source name: %q", first.SourceName)
	}

	// pubDate is carried through as the observation time.
	if first.ObservedAt.Year() != 2026 || first.ObservedAt.Month() != 8 {
		t.Errorf("unexpected observed_at: %v", first.ObservedAt)
	}
}

func TestRSSSkipsWithoutWebPlatform(t *testing.T) {
	ts := newFeedServer(t)
	rss := NewRSS([]RSSFeed{{Name: "test-feed", URL: ts.URL}}, false)

	items, err := rss.Collect(context.Background(), "case_test123", "energy", []Platform{PlatformX, PlatformTelegram})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(items) != 0 {
		t.Errorf("expected no items without web platform, got %d", len(items))
	}
}

func TestRSSFeedErrorSkipsFeed(t *testing.T) {
	broken := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	}))
	t.Cleanup(broken.Close)
	good := newFeedServer(t)

	rss := NewRSS([]RSSFeed{
		{Name: "broken", URL: broken.URL},
		{Name: "good", URL: good.URL},
	}, false)

	items, err := rss.Collect(context.Background(), "case_test123", "energy", []Platform{PlatformWeb})
	if err != nil {
		t.Fatalf("a broken feed should not abort the collect: %v", err)
	}
	if len(items) != 2 {
		t.Errorf("expected 2 items from the healthy feed, got %d", len(items))
	}
}

func TestTruncate(t *testing.T) {
	if got := truncate("short", 10); got != "short" {
		t.Errorf("short strings pass through, got %q", got)
	}
	long := strings.Repeat("a", 20)
	if got := truncate(long, 10); got != long[:10]+"..." {
		t.Errorf("unexpected truncation: %q", got)
	}
}
