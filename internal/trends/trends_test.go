package trends

import (
	"math"
	"strings"
	"testing"

	"github.com/zhaidewei/active-info-daily/internal/dedupe"
	"github.com/zhaidewei/active-info-daily/internal/feeds"
	"github.com/zhaidewei/active-info-daily/internal/score"
)

func scored(source, title string) score.Scored {
	return score.Scored{
		Group:    dedupe.Group{Rep: feeds.Item{Source: source, Title: title}},
		Adjusted: 1.0,
	}
}

func TestApplyAddsResonanceBonus(t *testing.T) {
	items := []score.Scored{
		scored("FeedA", "new gpu chip announced"),
		scored("FeedB", "semiconductor demand surges"),
		scored("FeedC", "quiet day in bond markets"),
	}

	rows := Apply(items)

	// compute_chip: 2 mentions, 2 sources -> 2*0.22 + 2*0.35 = 1.14
	want := 1.0 + 2*frequencyWeight + 2*diversityWeight
	if math.Abs(items[0].Adjusted-want) > 1e-9 {
		t.Errorf("chip item adjusted = %v, want %v", items[0].Adjusted, want)
	}
	if math.Abs(items[1].Adjusted-want) > 1e-9 {
		t.Errorf("semiconductor item adjusted = %v, want %v", items[1].Adjusted, want)
	}
	if items[2].Adjusted != 1.0 {
		t.Errorf("unthemed item must be untouched, got %v", items[2].Adjusted)
	}

	if len(rows) != 1 {
		t.Fatalf("expected 1 trend row, got %d: %v", len(rows), rows)
	}
	if rows[0] != "compute chip: 2 mentions across 2 sources" {
		t.Errorf("row = %q", rows[0])
	}
}

func TestApplySingleMentionIsNotATrend(t *testing.T) {
	items := []score.Scored{scored("FeedA", "new gpu benchmark")}
	if rows := Apply(items); len(rows) != 0 {
		t.Errorf("single mention must not produce a row, got %v", rows)
	}
}

func TestApplyBonusCapped(t *testing.T) {
	// Ten mentions from ten sources would give 10*0.22 + 10*0.35 = 5.7,
	// well over the cap.
	var items []score.Scored
	sources := []string{"A", "B", "C", "D", "E", "F", "G", "H", "I", "J"}
	for _, s := range sources {
		items = append(items, scored(s, "gpu shipments grow"))
	}

	Apply(items)
	want := 1.0 + maxBonus
	if math.Abs(items[0].Adjusted-want) > 1e-9 {
		t.Errorf("adjusted = %v, want capped %v", items[0].Adjusted, want)
	}
}

func TestApplyItemTakesBestTheme(t *testing.T) {
	// The first item carries both themes; the bonus is the stronger
	// resonance, not the sum.
	items := []score.Scored{
		scored("FeedA", "gpu datacenter buildout accelerates"),
		scored("FeedB", "cloud infrastructure spending rises"),
		scored("FeedC", "new datacenter power deal"),
	}

	Apply(items)
	// infra_buildout: 3 mentions, 3 sources -> 3*0.22 + 3*0.35 = 1.71
	want := 1.0 + 3*frequencyWeight + 3*diversityWeight
	if math.Abs(items[0].Adjusted-want) > 1e-9 {
		t.Errorf("adjusted = %v, want best-theme bonus %v", items[0].Adjusted, want)
	}
}

func TestTrendRowsDeterministicOrder(t *testing.T) {
	items := []score.Scored{
		scored("A", "gpu news"),
		scored("B", "gpu more news"),
		scored("C", "bitcoin etf flows"),
		scored("D", "bitcoin rally continues"),
		scored("E", "bitcoin hits new high"),
	}

	first := strings.Join(Apply(cloneScored(items)), "|")
	for i := 0; i < 5; i++ {
		again := strings.Join(Apply(cloneScored(items)), "|")
		if again != first {
			t.Fatalf("row order not deterministic: %q vs %q", again, first)
		}
	}
	if !strings.HasPrefix(first, "digital assets:") {
		t.Errorf("most frequent theme should lead, got %q", first)
	}
}

func cloneScored(items []score.Scored) []score.Scored {
	out := make([]score.Scored, len(items))
	copy(out, items)
	return out
}
