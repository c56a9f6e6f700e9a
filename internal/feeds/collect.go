package feeds

import (
	"log"
	"time"

	"github.com/zhaidewei/active-info-daily/internal/config"
)

// Collector runs every configured fetcher and concatenates the results.
type Collector struct {
	rss        *RSSFetcher
	polymarket *PolymarketFetcher
	sec        *SECFetcher
}

// NewCollector wires fetchers from the source configuration.
func NewCollector(cfg *config.Config) *Collector {
	timeout := 15 * time.Second
	c := &Collector{
		polymarket: NewPolymarketFetcher(cfg.Sources.Polymarket, timeout),
		sec:        NewSECFetcher(cfg.Sources.SEC, timeout),
	}
	if len(cfg.Sources.Feeds) > 0 {
		c.rss = NewRSSFetcher(cfg.Sources.Feeds)
	}
	return c
}

// CollectAll fetches from all sources. Ordering across sources carries
// no meaning; the engine sorts deterministically downstream.
func (c *Collector) CollectAll() []Item {
	var all []Item
	if c.rss != nil {
		all = append(all, c.rss.Fetch()...)
	}
	all = append(all, c.polymarket.Fetch()...)
	all = append(all, c.sec.Fetch()...)
	log.Printf("Collection complete: %d raw items", len(all))
	return all
}
