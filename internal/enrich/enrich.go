// Package enrich pulls full article context for the analysis shortlist
// via HTTP and readability extraction. Items keep their fetched summary
// when enrichment fails; nothing here can fail a run.
package enrich

import (
	"context"
	"io"
	"log"
	"net/http"
	"net/url"
	"strings"
	"time"

	readability "github.com/go-shiori/go-readability"

	"github.com/zhaidewei/active-info-daily/internal/rank"
)

const (
	maxContextChars = 1600
	minUsefulChars  = 100
)

// Enricher fetches article text for shortlisted items.
type Enricher struct {
	client *http.Client
}

// NewEnricher creates an enricher with the given per-request timeout.
func NewEnricher(timeout time.Duration) *Enricher {
	if timeout == 0 {
		timeout = 15 * time.Second
	}
	return &Enricher{
		client: &http.Client{
			Timeout: timeout,
			CheckRedirect: func(req *http.Request, via []*http.Request) error {
				if len(via) >= 10 {
					return http.ErrUseLastResponse
				}
				return nil
			},
		},
	}
}

// Shortlist returns a copy of items with article context appended to
// each representative summary. Domains that fail once are skipped for
// the rest of the batch.
func (e *Enricher) Shortlist(ctx context.Context, items []rank.RankedItem) []rank.RankedItem {
	out := make([]rank.RankedItem, len(items))
	copy(out, items)

	failedDomains := make(map[string]struct{})
	enriched := 0

	for i := range out {
		if ctx.Err() != nil {
			break
		}

		itemURL := out[i].Group.Rep.URL
		if !strings.HasPrefix(itemURL, "http") {
			continue
		}

		u, _ := url.Parse(itemURL)
		domain := ""
		if u != nil {
			domain = strings.ToLower(u.Host)
		}
		if _, failed := failedDomains[domain]; failed {
			continue
		}

		text, err := e.fetchContext(ctx, itemURL)
		if err != nil || text == "" {
			if domain != "" {
				failedDomains[domain] = struct{}{}
			}
			continue
		}

		combined := strings.TrimSpace(out[i].Group.Rep.Summary + "\n" + text)
		if len(combined) > maxContextChars {
			combined = combined[:maxContextChars]
		}
		out[i].Group.Rep.Summary = combined
		enriched++
	}

	if enriched > 0 {
		log.Printf("Enriched %d of %d shortlist items with article context", enriched, len(items))
	}
	return out
}

func (e *Enricher) fetchContext(ctx context.Context, articleURL string) (string, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, articleURL, nil)
	if err != nil {
		return "", err
	}
	req.Header.Set("User-Agent", "active-info-daily/1.0 (signal aggregator)")

	resp, err := e.client.Do(req)
	if err != nil {
		return "", err
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 400 {
		return "", &httpError{code: resp.StatusCode}
	}

	bodyBytes, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", nil
	}

	parsedURL, _ := url.Parse(articleURL)
	article, err := readability.FromReader(strings.NewReader(string(bodyBytes)), parsedURL)
	if err != nil {
		return "", nil
	}

	text := strings.Join(strings.Fields(article.TextContent), " ")
	if len(text) > minUsefulChars {
		return text, nil
	}
	return "", nil
}

type httpError struct {
	code int
}

func (e *httpError) Error() string {
	return http.StatusText(e.code)
}
