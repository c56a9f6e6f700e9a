package feeds

import (
	"log"
	"net/url"
	"strings"
	"time"

	"github.com/mmcdole/gofeed"

	"github.com/zhaidewei/active-info-daily/internal/config"
)

const maxPerFeed = 20

// RSSFetcher parses configured RSS/Atom feeds into items.
type RSSFetcher struct {
	feeds []config.Feed
}

// NewRSSFetcher creates a fetcher over the configured feeds.
func NewRSSFetcher(feeds []config.Feed) *RSSFetcher {
	return &RSSFetcher{feeds: feeds}
}

// Fetch parses all configured feeds. Per-feed failures are logged and
// skipped.
func (f *RSSFetcher) Fetch() []Item {
	parser := gofeed.NewParser()
	var all []Item

	for _, fc := range f.feeds {
		name := fc.Name
		if name == "" {
			name = sourceNameFromURL(fc.URL)
		}

		items, err := parseFeed(parser, fc, name)
		if err != nil {
			log.Printf("Failed to parse feed %s: %v", fc.URL, err)
			continue
		}
		all = append(all, items...)
		log.Printf("Parsed %d items from %s", len(items), name)
	}

	return all
}

func parseFeed(parser *gofeed.Parser, fc config.Feed, sourceName string) ([]Item, error) {
	feed, err := parser.ParseURL(fc.URL)
	if err != nil {
		return nil, err
	}

	category := fc.Category
	if category == "" {
		category = "general"
	}

	var items []Item
	for _, entry := range feed.Items {
		if len(items) >= maxPerFeed {
			break
		}

		item := parseEntry(entry, sourceName, category)
		if item == nil {
			continue
		}
		items = append(items, *item)
	}

	return items, nil
}

func parseEntry(entry *gofeed.Item, source, category string) *Item {
	link := entry.Link
	if link == "" {
		link = entry.GUID
	}

	title := strings.TrimSpace(entry.Title)
	if title == "" && link == "" {
		return nil
	}

	var publishedAt *time.Time
	if entry.PublishedParsed != nil {
		publishedAt = entry.PublishedParsed
	} else if entry.UpdatedParsed != nil {
		publishedAt = entry.UpdatedParsed
	}

	summary := entry.Description
	if summary == "" {
		summary = entry.Content
	}
	summary = stripHTML(summary)
	if len(summary) > 800 {
		summary = summary[:800]
	}

	return &Item{
		Source:      source,
		Category:    category,
		URL:         link,
		Title:       title,
		Summary:     summary,
		PublishedAt: publishedAt,
	}
}

func stripHTML(text string) string {
	var result strings.Builder
	inTag := false
	for _, r := range text {
		if r == '<' {
			inTag = true
			result.WriteRune(' ')
			continue
		}
		if r == '>' {
			inTag = false
			continue
		}
		if !inTag {
			result.WriteRune(r)
		}
	}

	s := result.String()
	s = strings.ReplaceAll(s, "&nbsp;", " ")
	s = strings.ReplaceAll(s, "&amp;", "&")
	s = strings.ReplaceAll(s, "&lt;", "<")
	s = strings.ReplaceAll(s, "&gt;", ">")
	s = strings.ReplaceAll(s, "&quot;", `"`)
	s = strings.ReplaceAll(s, "&#39;", "'")

	return strings.Join(strings.Fields(s), " ")
}

func sourceNameFromURL(feedURL string) string {
	u, err := url.Parse(feedURL)
	if err != nil {
		return feedURL
	}
	host := strings.ToLower(u.Hostname())
	for _, prefix := range []string{"www.", "blog.", "blogs.", "rss.", "feeds."} {
		host = strings.TrimPrefix(host, prefix)
	}

	parts := strings.Split(host, ".")
	if len(parts) >= 2 {
		name := parts[len(parts)-2]
		return strings.ToUpper(name[:1]) + name[1:]
	}
	if host == "" {
		return feedURL
	}
	return strings.ToUpper(host[:1]) + host[1:]
}
