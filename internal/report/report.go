// Package report renders the final daily report as markdown and as a
// JSON payload for storage and the API.
package report

import (
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/zhaidewei/active-info-daily/internal/analyze"
	"github.com/zhaidewei/active-info-daily/internal/dedupe"
	"github.com/zhaidewei/active-info-daily/internal/rank"
)

// Input bundles everything a rendered report is built from.
type Input struct {
	ReportDate      string
	GeneratedAt     time.Time
	TotalDownloaded int
	Stats           dedupe.Stats
	Items           []rank.RankedItem
	TrendRows       []string
	Analysis        analyze.Analysis
	PowerFocus      []rank.RankedItem
	Earnings        []analyze.EarningsInsight
}

// BuildMarkdown renders the report body.
func BuildMarkdown(in Input) string {
	var sections []string

	header := fmt.Sprintf("# Daily Signals — %s\n\n*Generated %s · %d fetched · %d unique · %d duplicates merged*",
		in.ReportDate, in.GeneratedAt.Format("15:04 MST"),
		in.TotalDownloaded, in.Stats.UniqueItems, in.Stats.DuplicatesRemoved)
	sections = append(sections, header)

	if in.Analysis.Overview != "" {
		sections = append(sections, "## Overview\n\n"+in.Analysis.Overview)
	}

	if section := bulletSection("Breakthroughs", in.Analysis.Breakthroughs); section != "" {
		sections = append(sections, section)
	}
	if section := bulletSection("Investment Signals", in.Analysis.InvestmentSignals); section != "" {
		sections = append(sections, section)
	}
	if section := bulletSection("Overlooked Trends", in.Analysis.OverlookedTrends); section != "" {
		sections = append(sections, section)
	}
	if section := bulletSection("Watchlist", in.Analysis.Watchlist); section != "" {
		sections = append(sections, section)
	}

	if len(in.Earnings) > 0 {
		sections = append(sections, earningsSection(in.Earnings))
	}
	if len(in.PowerFocus) > 0 {
		sections = append(sections, powerSection(in.PowerFocus))
	}

	if len(in.TrendRows) > 0 {
		sections = append(sections, bulletSection("Resonating Themes", in.TrendRows))
	}

	if len(in.Items) > 0 {
		sections = append(sections, itemSection(in.Items))
	} else {
		sections = append(sections, "## Top Items\n\nNo items collected today.")
	}

	return strings.Join(sections, "\n\n---\n\n")
}

func bulletSection(title string, lines []string) string {
	if len(lines) == 0 {
		return ""
	}
	var bullets []string
	for _, line := range lines {
		bullets = append(bullets, "- "+line)
	}
	return fmt.Sprintf("## %s\n\n%s", title, strings.Join(bullets, "\n"))
}

func itemSection(items []rank.RankedItem) string {
	var lines []string
	lines = append(lines, "## Top Items")
	for _, item := range items {
		rep := item.Group.Rep
		line := fmt.Sprintf("%d. **[%s](%s)** · %s · score %.2f",
			item.Rank, rep.Title, rep.URL, rep.Source, item.FinalScore)
		if item.Group.Repeated {
			line += fmt.Sprintf(" · seen %s", strings.Join(item.Group.RepeatedFrom, ", "))
		}
		lines = append(lines, line)
		if rep.Summary != "" {
			summary := rep.Summary
			if len(summary) > 280 {
				summary = summary[:280] + "…"
			}
			lines = append(lines, "   "+summary)
		}
	}
	return strings.Join(lines, "\n")
}

func earningsSection(insights []analyze.EarningsInsight) string {
	lines := []string{"## Earnings Radar"}
	for _, in := range insights {
		lines = append(lines, fmt.Sprintf("- **[%s](%s)** · %s · %s · %s",
			in.Title, in.URL, in.Sentiment, in.Target, in.Action))
	}
	return strings.Join(lines, "\n")
}

func powerSection(items []rank.RankedItem) string {
	lines := []string{"## Power Focus"}
	for _, item := range items {
		rep := item.Group.Rep
		lines = append(lines, fmt.Sprintf("- **[%s](%s)** · %s · score %.2f",
			rep.Title, rep.URL, rep.Source, item.FinalScore))
	}
	return strings.Join(lines, "\n")
}

type jsonItem struct {
	Rank        int      `json:"rank"`
	Title       string   `json:"title"`
	URL         string   `json:"url"`
	Source      string   `json:"source"`
	Category    string   `json:"category"`
	Score       float64  `json:"score"`
	Strategy    string   `json:"strategy"`
	Repeated    bool     `json:"repeated"`
	RepeatedOn  []string `json:"repeated_on,omitempty"`
	MergedCount int      `json:"merged_count"`
}

type jsonReport struct {
	ReportDate        string                    `json:"report_date"`
	GeneratedAt       string                    `json:"generated_at"`
	TotalDownloaded   int                       `json:"total_downloaded"`
	RawItems          int                       `json:"raw_items"`
	UniqueItems       int                       `json:"unique_items"`
	DuplicatesRemoved int                       `json:"duplicates_removed"`
	TrendRows         []string                  `json:"trend_rows,omitempty"`
	Analysis          analyze.Analysis          `json:"analysis"`
	PowerFocus        []jsonItem                `json:"power_focus,omitempty"`
	EarningsRadar     []analyze.EarningsInsight `json:"earnings_radar,omitempty"`
	Items             []jsonItem                `json:"items"`
}

// BuildJSON renders the machine-readable report payload.
func BuildJSON(in Input) (string, error) {
	payload := jsonReport{
		ReportDate:        in.ReportDate,
		GeneratedAt:       in.GeneratedAt.UTC().Format(time.RFC3339),
		TotalDownloaded:   in.TotalDownloaded,
		RawItems:          in.Stats.RawItems,
		UniqueItems:       in.Stats.UniqueItems,
		DuplicatesRemoved: in.Stats.DuplicatesRemoved,
		TrendRows:         in.TrendRows,
		Analysis:          in.Analysis,
		EarningsRadar:     in.Earnings,
		Items:             make([]jsonItem, 0, len(in.Items)),
	}
	for _, item := range in.Items {
		payload.Items = append(payload.Items, toJSONItem(item))
	}
	for _, item := range in.PowerFocus {
		payload.PowerFocus = append(payload.PowerFocus, toJSONItem(item))
	}
	data, err := json.MarshalIndent(payload, "", "  ")
	if err != nil {
		return "", fmt.Errorf("marshaling report: %w", err)
	}
	return string(data), nil
}

func toJSONItem(item rank.RankedItem) jsonItem {
	rep := item.Group.Rep
	return jsonItem{
		Rank:        item.Rank,
		Title:       rep.Title,
		URL:         rep.URL,
		Source:      rep.Source,
		Category:    rep.Category,
		Score:       item.FinalScore,
		Strategy:    string(item.Breakdown.Strategy),
		Repeated:    item.Group.Repeated,
		RepeatedOn:  item.Group.RepeatedFrom,
		MergedCount: len(item.Group.Items),
	}
}
