// Package analyze turns the top-ranked shortlist into the narrative
// sections of the daily report: an overview plus curated signal lists.
// With no provider configured it degrades to a heuristic digest built
// from the shortlist itself.
package analyze

import (
	"context"
	"fmt"
	"log"
	"strings"

	"github.com/zhaidewei/active-info-daily/internal/llm"
	"github.com/zhaidewei/active-info-daily/internal/rank"
)

const analysisPrompt = `You are an investment research analyst writing the daily signal digest for %s.

Here are today's top-ranked items:

%s

Write the digest sections. Focus on opportunity signals; down-weight negative-news noise unless it changes a thesis.

Respond with ONLY this JSON:
{
    "overview": "2-3 sentence summary of the day",
    "breakthroughs": ["notable technology or market breakthroughs"],
    "investment_signals": ["concrete, actionable investment signals"],
    "overlooked_trends": ["underreported developments worth tracking"],
    "watchlist": ["items to re-check in coming days"]
}`

const maxLinesPerSection = 6

// Analysis holds the narrative sections of a report.
type Analysis struct {
	Overview          string   `json:"overview"`
	Breakthroughs     []string `json:"breakthroughs"`
	InvestmentSignals []string `json:"investment_signals"`
	OverlookedTrends  []string `json:"overlooked_trends"`
	Watchlist         []string `json:"watchlist"`
}

// Analyzer generates the analysis from the ranked shortlist.
type Analyzer struct {
	provider llm.Provider
}

// NewAnalyzer creates an analyzer. A nil provider selects the heuristic
// digest.
func NewAnalyzer(provider llm.Provider) *Analyzer {
	return &Analyzer{provider: provider}
}

// Analyze produces the report narrative for a date from the shortlist.
func (a *Analyzer) Analyze(ctx context.Context, dateKey string, items []rank.RankedItem) Analysis {
	if len(items) == 0 {
		return Analysis{Overview: "No items collected today."}
	}
	if a.provider == nil {
		return heuristicAnalysis(items)
	}

	prompt := fmt.Sprintf(analysisPrompt, dateKey, formatShortlist(items))
	responseText, err := a.provider.Generate(ctx, prompt, 1024)
	if err != nil {
		log.Printf("Analysis degraded to heuristic digest: %v", err)
		return heuristicAnalysis(items)
	}

	parsed := llm.ParseJSONResponse(responseText)
	if parsed == nil {
		log.Printf("Analysis response unparseable, using heuristic digest")
		return heuristicAnalysis(items)
	}

	analysis := Analysis{
		Overview:          strings.TrimSpace(llm.GetString(parsed, "overview", "")),
		Breakthroughs:     clampLines(llm.GetStrings(parsed, "breakthroughs")),
		InvestmentSignals: clampLines(llm.GetStrings(parsed, "investment_signals")),
		OverlookedTrends:  clampLines(llm.GetStrings(parsed, "overlooked_trends")),
		Watchlist:         clampLines(llm.GetStrings(parsed, "watchlist")),
	}
	if analysis.Overview == "" {
		analysis.Overview = heuristicAnalysis(items).Overview
	}
	return analysis
}

func formatShortlist(items []rank.RankedItem) string {
	var lines []string
	for _, item := range items {
		rep := item.Group.Rep
		summary := rep.Summary
		if len(summary) > 400 {
			summary = summary[:400]
		}
		lines = append(lines, fmt.Sprintf("%d. [%s/%s] %s\n   %s",
			item.Rank, rep.Source, rep.Category, rep.Title, summary))
	}
	return strings.Join(lines, "\n")
}

// heuristicAnalysis builds a digest without judgment calls: top titles
// become the overview and category buckets fill the sections.
func heuristicAnalysis(items []rank.RankedItem) Analysis {
	analysis := Analysis{}

	topTitles := make([]string, 0, 3)
	for _, item := range items {
		if len(topTitles) >= 3 {
			break
		}
		topTitles = append(topTitles, item.Group.Rep.Title)
	}
	analysis.Overview = fmt.Sprintf("Top signals today: %s.", strings.Join(topTitles, "; "))

	for _, item := range items {
		rep := item.Group.Rep
		line := fmt.Sprintf("%s (%s)", rep.Title, rep.Source)
		switch rep.Category {
		case "ai", "it":
			analysis.Breakthroughs = appendLine(analysis.Breakthroughs, line)
		case "earnings", "prediction_market":
			analysis.InvestmentSignals = appendLine(analysis.InvestmentSignals, line)
		case "power_trading":
			analysis.OverlookedTrends = appendLine(analysis.OverlookedTrends, line)
		default:
			analysis.Watchlist = appendLine(analysis.Watchlist, line)
		}
	}
	return analysis
}

func appendLine(lines []string, line string) []string {
	if len(lines) >= maxLinesPerSection {
		return lines
	}
	return append(lines, line)
}

func clampLines(lines []string) []string {
	if len(lines) > maxLinesPerSection {
		return lines[:maxLinesPerSection]
	}
	return lines
}
