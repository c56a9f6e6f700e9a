// Package feeds pulls raw signal items from configured sources: RSS and
// Twitter-bridge feeds, the Polymarket gamma API, and SEC EDGAR filings.
// Each fetcher is a simple pull that returns items; failures are logged
// and never abort a collection run.
package feeds

import "time"

// Item is one fetched signal before any normalization. Immutable once
// produced by a fetcher.
type Item struct {
	Source      string            `json:"source"`
	Category    string            `json:"category"`
	URL         string            `json:"url"`
	Title       string            `json:"title"`
	Summary     string            `json:"summary,omitempty"`
	PublishedAt *time.Time        `json:"published_at,omitempty"`
	Meta        map[string]string `json:"meta,omitempty"`
}

// PublishedDay returns the item's publication date as YYYY-MM-DD, or ""
// when the timestamp is absent.
func (it Item) PublishedDay() string {
	if it.PublishedAt == nil {
		return ""
	}
	return it.PublishedAt.UTC().Format("2006-01-02")
}
