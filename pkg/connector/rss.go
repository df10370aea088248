package connector

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"time"

	readability "github.com/go-shiori/go-readability"
	"github.com/mmcdole/gofeed"
)

// RSSFeed is a named RSS/Atom feed URL.
type RSSFeed struct {
	Name string
	URL  string
}

// RSS collects live web items from RSS/Atom feeds. It only contributes when
// the requested platform set includes the web platform; items from the demo
// seed collector and real feed items coexist in the same case.
type RSS struct {
	client       *http.Client
	parser       *gofeed.Parser
	feeds        []RSSFeed
	fetchContent bool
}

// NewRSS creates a new RSS collector. When fetchContent is set, each entry's
// link is fetched and the readable article text replaces the feed summary.
func NewRSS(feeds []RSSFeed, fetchContent bool) *RSS {
	return &RSS{
		client:       &http.Client{Timeout: 30 * time.Second},
		parser:       gofeed.NewParser(),
		feeds:        feeds,
		fetchContent: fetchContent,
	}
}

func (r *RSS) Collect(ctx context.Context, caseID, query string, platforms []Platform) ([]ContentItem, error) {
	wantWeb := false
	for _, p := range platforms {
		if p == PlatformWeb {
			wantWeb = true
			break
		}
	}
	if !wantWeb {
		return nil, nil
	}

	var allItems []ContentItem
	for _, feed := range r.feeds {
		items, err := r.collectFeed(ctx, caseID, feed)
		if err != nil {
			fmt.Fprintf(os.Stderr, "  rss feed %s error: %v\n", feed.Name, err)
			continue
		}
		allItems = append(allItems, items...)
	}
	return allItems, nil
}

func (r *RSS) collectFeed(ctx context.Context, caseID string, feed RSSFeed) ([]ContentItem, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, feed.URL, nil)
	if err != nil {
		return nil, fmt.Errorf("create rss request %s: %w", feed.Name, err)
	}
	req.Header.Set("User-Agent", "casetrack/1.0")

	resp, err := r.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("fetch rss %s: %w", feed.Name, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("rss %s status %d", feed.Name, resp.StatusCode)
	}

	parsed, err := r.parser.Parse(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("parse rss %s: %w", feed.Name, err)
	}

	now := time.Now().UTC()
	var items []ContentItem

	for _, entry := range parsed.Items {
		observed := now
		if entry.PublishedParsed != nil {
			observed = entry.PublishedParsed.UTC()
		} else if entry.UpdatedParsed != nil {
			observed = entry.UpdatedParsed.UTC()
		}

		link := entry.Link
		if link == "" && len(entry.Links) > 0 {
			link = entry.Links[0]
		}

		author := feed.Name
		if entry.Author != nil && entry.Author.Name != "" {
			author = entry.Author.Name
		}

		text := entry.Title
		if entry.Description != "" {
			text = entry.Title + " - " + entry.Description
		}
		if r.fetchContent && link != "" {
			if full := r.fetchReadable(ctx, link); full != "" {
				text = entry.Title + " - " + full
			}
		}
		text = truncate(text, 1000)

		fingerprint := shortSHA1(fmt.Sprintf("%s:%s:%s:%s", caseID, PlatformWeb, author, text), 12)
		items = append(items, ContentItem{
			ID:         fmt.Sprintf("itm_%s_%s", PlatformWeb, fingerprint),
			CaseID:     caseID,
			Platform:   PlatformWeb,
			Author:     author,
			Text:       text,
			URL:        link,
			ObservedAt: observed,
			Language:   "en",
			Engagement: 0,
			SourceName: fmt.Sprintf("%s-feed", PlatformWeb),
			Entities:   ExtractEntities(text),
		})
	}

	return items, nil
}

// fetchReadable downloads a page and extracts the readable article text.
// Failures fall back to the feed summary, never abort the collect.
func (r *RSS) fetchReadable(ctx context.Context, link string) string {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, link, nil)
	if err != nil {
		return ""
	}
	req.Header.Set("User-Agent", "casetrack/1.0")

	resp, err := r.client.Do(req)
	if err != nil {
		return ""
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return ""
	}

	article, err := readability.FromReader(resp.Body, resp.Request.URL)
	if err != nil {
		return ""
	}
	return article.TextContent
}

func truncate(s string, maxLen int) string {
	if len(s) <= maxLen {
		return s
	}
	return s[:maxLen] + "..."
}
