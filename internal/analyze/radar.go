package analyze

import (
	"regexp"
	"strings"

	"github.com/zhaidewei/active-info-daily/internal/rank"
)

// EarningsInsight is one row of the earnings radar: a filing or result
// tagged with its likely direction and the names it touches.
type EarningsInsight struct {
	Title     string `json:"title"`
	URL       string `json:"url"`
	Source    string `json:"source"`
	Sentiment string `json:"sentiment"`
	Target    string `json:"impact_target"`
	Action    string `json:"suggested_action"`
}

const maxRadarItems = 8

var (
	bullishTerms = []string{"record", "growth", "beat", "raise", "approval", "partnership", "adoption"}
	bearishTerms = []string{"fraud", "lawsuit", "probe", "investigation", "miss", "down", "cut"}

	filedTickerPattern = regexp.MustCompile(`^([A-Z]{2,6})\s+filed\s`)
)

// EarningsRadar tags the ranked earnings items with a direction and an
// impact target. Ranking order is preserved and a bearish tie reads as
// negative.
func EarningsRadar(items []rank.RankedItem) []EarningsInsight {
	var insights []EarningsInsight
	for _, item := range items {
		rep := item.Group.Rep
		if rep.Category != "earnings" {
			continue
		}
		if len(insights) >= maxRadarItems {
			break
		}

		text := strings.ToLower(rep.Title + " " + rep.Summary)
		bulls, bears := 0, 0
		for _, term := range bullishTerms {
			if strings.Contains(text, term) {
				bulls++
			}
		}
		for _, term := range bearishTerms {
			if strings.Contains(text, term) {
				bears++
			}
		}

		sentiment, action := "neutral", "track"
		switch {
		case bears >= 1 && bears >= bulls:
			sentiment, action = "negative", "ignore"
		case bulls >= 1:
			sentiment = "positive"
		}

		insights = append(insights, EarningsInsight{
			Title:     rep.Title,
			URL:       rep.URL,
			Source:    rep.Source,
			Sentiment: sentiment,
			Target:    impactTarget(rep.Title, text),
			Action:    action,
		})
	}
	return insights
}

func impactTarget(title, lowered string) string {
	if m := filedTickerPattern.FindStringSubmatch(strings.TrimSpace(title)); m != nil {
		return m[1]
	}
	switch {
	case strings.Contains(lowered, "sec"):
		return "US regulators and capital markets"
	case strings.Contains(lowered, "etf"):
		return "ETFs and asset managers"
	case strings.Contains(lowered, "crypto"), strings.Contains(lowered, "token"):
		return "digital asset firms"
	}
	return "related companies"
}
