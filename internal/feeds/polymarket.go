package feeds

import (
	"encoding/json"
	"fmt"
	"log"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"github.com/zhaidewei/active-info-daily/internal/config"
)

const polymarketAPI = "https://gamma-api.polymarket.com/markets"

// PolymarketFetcher pulls open prediction markets above a volume floor.
type PolymarketFetcher struct {
	cfg    config.Polymarket
	client *http.Client
	apiURL string
}

// NewPolymarketFetcher creates a fetcher for the gamma markets API.
func NewPolymarketFetcher(cfg config.Polymarket, timeout time.Duration) *PolymarketFetcher {
	return &PolymarketFetcher{
		cfg:    cfg,
		client: &http.Client{Timeout: timeout},
		apiURL: polymarketAPI,
	}
}

// market mirrors the gamma API response. Numeric fields arrive as
// either strings or numbers depending on the endpoint version.
type market struct {
	Question  string          `json:"question"`
	Slug      string          `json:"slug"`
	Volume    json.RawMessage `json:"volume"`
	VolumeNum json.RawMessage `json:"volumeNum"`
	Liquidity json.RawMessage `json:"liquidity"`
	EndDate   string          `json:"endDate"`
}

// Fetch returns markets with volume >= the configured floor. Any
// transport or decode failure yields an empty slice.
func (f *PolymarketFetcher) Fetch() []Item {
	if !f.cfg.Enabled {
		return nil
	}

	params := url.Values{}
	params.Set("limit", strconv.Itoa(f.cfg.Limit))
	params.Set("closed", "false")

	resp, err := f.client.Get(f.apiURL + "?" + params.Encode())
	if err != nil {
		log.Printf("Polymarket fetch failed: %v", err)
		return nil
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		log.Printf("Polymarket API returned %d", resp.StatusCode)
		return nil
	}

	var markets []market
	if err := json.NewDecoder(resp.Body).Decode(&markets); err != nil {
		log.Printf("Polymarket decode failed: %v", err)
		return nil
	}

	var items []Item
	for _, m := range markets {
		volume := rawFloat(m.Volume)
		if volume == 0 {
			volume = rawFloat(m.VolumeNum)
		}
		if volume < f.cfg.MinVolume {
			continue
		}

		title := m.Question
		if title == "" {
			title = "Polymarket signal"
		}
		link := "https://polymarket.com"
		if m.Slug != "" {
			link = "https://polymarket.com/event/" + m.Slug
		}

		var publishedAt *time.Time
		if m.EndDate != "" {
			if t, err := time.Parse(time.RFC3339, m.EndDate); err == nil {
				publishedAt = &t
			}
		}
		if publishedAt == nil {
			now := time.Now().UTC()
			publishedAt = &now
		}

		liquidity := rawFloat(m.Liquidity)
		items = append(items, Item{
			Source:      "Polymarket",
			Category:    "prediction_market",
			URL:         link,
			Title:       title,
			Summary:     fmt.Sprintf("Market volume: %.0f. Liquidity: %.0f.", volume, liquidity),
			PublishedAt: publishedAt,
			Meta: map[string]string{
				"volume": strconv.FormatFloat(volume, 'f', 0, 64),
			},
		})
	}

	log.Printf("Polymarket: %d markets above volume floor", len(items))
	return items
}

// rawFloat reads a JSON value that may be a number or a quoted number.
func rawFloat(raw json.RawMessage) float64 {
	if len(raw) == 0 {
		return 0
	}
	var n float64
	if err := json.Unmarshal(raw, &n); err == nil {
		return n
	}
	var s string
	if err := json.Unmarshal(raw, &s); err == nil {
		if n, err := strconv.ParseFloat(s, 64); err == nil {
			return n
		}
	}
	return 0
}
