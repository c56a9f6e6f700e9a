// Package trends detects themes that resonate across sources within a
// run and rewards items riding them. A theme mentioned by many items
// from diverse sources signals a developing story rather than noise.
package trends

import (
	"fmt"
	"sort"
	"strings"

	"github.com/zhaidewei/active-info-daily/internal/score"
)

// themeKeywords maps a theme tag to the phrases that indicate it.
var themeKeywords = map[string][]string{
	"ai_agent":            {"agent", "agentic", "copilot", "autonomous"},
	"model_breakthrough":  {"model", "reasoning", "sota", "breakthrough", "inference"},
	"compute_chip":        {"chip", "gpu", "semiconductor", "cuda"},
	"enterprise_adoption": {"enterprise", "adoption", "contract", "partnership", "deployment"},
	"earnings_quality":    {"revenue", "profit", "margin", "guidance", "buyback"},
	"policy_regulation":   {"policy", "regulation", "compliance", "sec", "standard"},
	"infra_buildout":      {"datacenter", "infrastructure", "cloud", "power", "network"},
	"web3_infra":          {"web3", "blockchain", "layer 2", "rollup", "mainnet", "onchain"},
	"digital_assets":      {"bitcoin", "ethereum", "solana", "token", "stablecoin", "defi", "wallet", "etf"},
	"power_market":        {"power market", "electricity market", "lmp", "capacity market", "ancillary services", "ppa"},
	"grid_constraints":    {"grid", "transmission", "congestion", "curtailment", "interconnection", "demand response"},
}

const (
	frequencyWeight = 0.22
	diversityWeight = 0.35
	maxBonus        = 2.8
	maxTrendRows    = 8
)

// Apply adds a resonance bonus to each item's adjusted score and
// returns human-readable rows for the themes that recurred. The bonus
// is the best resonance among the item's themes, capped at maxBonus.
func Apply(items []score.Scored) []string {
	themeCount := make(map[string]int)
	themeSources := make(map[string]map[string]bool)
	itemThemes := make([][]string, len(items))

	for i, item := range items {
		tags := extractThemes(item)
		itemThemes[i] = tags
		for _, tag := range tags {
			themeCount[tag]++
			if themeSources[tag] == nil {
				themeSources[tag] = make(map[string]bool)
			}
			themeSources[tag][item.Group.Rep.Source] = true
		}
	}

	for i := range items {
		bestBonus := 0.0
		for _, tag := range itemThemes[i] {
			resonance := float64(themeCount[tag])*frequencyWeight + float64(len(themeSources[tag]))*diversityWeight
			if resonance > bestBonus {
				bestBonus = resonance
			}
		}
		if bestBonus > maxBonus {
			bestBonus = maxBonus
		}
		items[i].Adjusted += bestBonus
	}

	return trendRows(themeCount, themeSources)
}

func extractThemes(item score.Scored) []string {
	rep := item.Group.Rep
	blob := strings.ToLower(rep.Title + " " + rep.Summary + " " + rep.Category)

	var tags []string
	for theme, keywords := range themeKeywords {
		for _, kw := range keywords {
			if strings.Contains(blob, kw) {
				tags = append(tags, theme)
				break
			}
		}
	}
	sort.Strings(tags)
	return tags
}

func trendRows(themeCount map[string]int, themeSources map[string]map[string]bool) []string {
	type themeStat struct {
		theme   string
		count   int
		sources int
	}
	stats := make([]themeStat, 0, len(themeCount))
	for theme, count := range themeCount {
		stats = append(stats, themeStat{theme: theme, count: count, sources: len(themeSources[theme])})
	}
	sort.Slice(stats, func(i, j int) bool {
		if stats[i].count != stats[j].count {
			return stats[i].count > stats[j].count
		}
		if stats[i].sources != stats[j].sources {
			return stats[i].sources > stats[j].sources
		}
		return stats[i].theme < stats[j].theme
	})

	var rows []string
	for _, s := range stats {
		if len(rows) >= maxTrendRows {
			break
		}
		if s.count < 2 {
			continue
		}
		rows = append(rows, fmt.Sprintf("%s: %d mentions across %d sources", displayName(s.theme), s.count, s.sources))
	}
	return rows
}

func displayName(theme string) string {
	return strings.ReplaceAll(theme, "_", " ")
}
