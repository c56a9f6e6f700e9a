package feeds

import (
	"encoding/json"
	"fmt"
	"log"
	"net/http"
	"strings"
	"time"

	"github.com/zhaidewei/active-info-daily/internal/config"
)

const (
	tickerMapURL   = "https://www.sec.gov/files/company_tickers.json"
	submissionsURL = "https://data.sec.gov/submissions/CIK%s.json"
)

// SECFetcher pulls recent EDGAR filings for configured tickers.
type SECFetcher struct {
	cfg     config.SEC
	client  *http.Client
	baseMap string
	baseSub string
}

// NewSECFetcher creates a fetcher for the EDGAR submissions API.
func NewSECFetcher(cfg config.SEC, timeout time.Duration) *SECFetcher {
	return &SECFetcher{
		cfg:     cfg,
		client:  &http.Client{Timeout: timeout},
		baseMap: tickerMapURL,
		baseSub: submissionsURL,
	}
}

type tickerEntry struct {
	CIK    json.Number `json:"cik_str"`
	Ticker string      `json:"ticker"`
}

type submissions struct {
	Filings struct {
		Recent struct {
			Form                  []string `json:"form"`
			FilingDate            []string `json:"filingDate"`
			AccessionNumber       []string `json:"accessionNumber"`
			PrimaryDocument       []string `json:"primaryDocument"`
			PrimaryDocDescription []string `json:"primaryDocDescription"`
		} `json:"recent"`
	} `json:"filings"`
}

// Fetch returns filing items for the configured tickers and form types
// within the lookback window. Failures degrade to an empty slice.
func (f *SECFetcher) Fetch() []Item {
	if !f.cfg.Enabled || len(f.cfg.Tickers) == 0 {
		return nil
	}

	tickerMap := f.fetchTickerMap()
	if len(tickerMap) == 0 {
		return nil
	}

	forms := make(map[string]bool, len(f.cfg.Forms))
	for _, form := range f.cfg.Forms {
		forms[strings.ToUpper(strings.TrimSpace(form))] = true
	}
	cutoff := time.Now().UTC().AddDate(0, 0, -f.cfg.LookbackDays)

	var all []Item
	for _, raw := range f.cfg.Tickers {
		ticker := strings.ToUpper(strings.TrimSpace(raw))
		cik, ok := tickerMap[ticker]
		if !ok {
			continue
		}

		var payload submissions
		if err := f.getJSON(fmt.Sprintf(f.baseSub, cik), &payload); err != nil {
			log.Printf("SEC submissions fetch failed for %s: %v", ticker, err)
			continue
		}

		all = append(all, f.parseFilings(ticker, cik, payload, forms, cutoff)...)
	}

	log.Printf("SEC: %d filings across %d tickers", len(all), len(f.cfg.Tickers))
	return all
}

func (f *SECFetcher) parseFilings(ticker, cik string, payload submissions, forms map[string]bool, cutoff time.Time) []Item {
	recent := payload.Filings.Recent
	var items []Item

	for idx, form := range recent.Form {
		if idx >= len(recent.FilingDate) {
			break
		}
		formUpper := strings.ToUpper(form)
		if !forms[formUpper] {
			continue
		}

		filedAt, err := time.Parse("2006-01-02", recent.FilingDate[idx])
		if err != nil || filedAt.Before(cutoff) {
			continue
		}

		link := "https://www.sec.gov/edgar/search/"
		if idx < len(recent.AccessionNumber) && idx < len(recent.PrimaryDocument) {
			accession := strings.ReplaceAll(recent.AccessionNumber[idx], "-", "")
			doc := recent.PrimaryDocument[idx]
			if accession != "" && doc != "" {
				link = fmt.Sprintf("https://www.sec.gov/Archives/edgar/data/%s/%s/%s",
					strings.TrimLeft(cik, "0"), accession, doc)
			}
		}

		summary := "SEC filing update"
		if idx < len(recent.PrimaryDocDescription) && recent.PrimaryDocDescription[idx] != "" {
			summary = recent.PrimaryDocDescription[idx]
		}

		filed := filedAt
		items = append(items, Item{
			Source:      "SEC Filing",
			Category:    "earnings",
			URL:         link,
			Title:       fmt.Sprintf("%s filed %s (%s)", ticker, formUpper, filedAt.Format("2006-01-02")),
			Summary:     summary,
			PublishedAt: &filed,
			Meta:        map[string]string{"form": formUpper},
		})
		if len(items) >= f.cfg.PerTickerLimit {
			break
		}
	}

	return items
}

func (f *SECFetcher) fetchTickerMap() map[string]string {
	var payload map[string]tickerEntry
	if err := f.getJSON(f.baseMap, &payload); err != nil {
		log.Printf("SEC ticker map fetch failed: %v", err)
		return nil
	}

	mapping := make(map[string]string, len(payload))
	for _, row := range payload {
		ticker := strings.ToUpper(strings.TrimSpace(row.Ticker))
		cik, err := row.CIK.Int64()
		if ticker == "" || err != nil {
			continue
		}
		mapping[ticker] = fmt.Sprintf("%010d", cik)
	}
	return mapping
}

func (f *SECFetcher) getJSON(rawURL string, dest any) error {
	req, err := http.NewRequest(http.MethodGet, rawURL, nil)
	if err != nil {
		return err
	}
	req.Header.Set("User-Agent", f.cfg.UserAgent)

	resp, err := f.client.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("unexpected status %d", resp.StatusCode)
	}
	return json.NewDecoder(resp.Body).Decode(dest)
}
