// Package dedupe collapses near-duplicate items into groups, both within
// a single run and against signatures from recent reports.
package dedupe

import (
	"sort"

	"github.com/zhaidewei/active-info-daily/internal/canonical"
	"github.com/zhaidewei/active-info-daily/internal/feeds"
)

// Group is a cluster of items judged to represent the same event, plus
// the chosen representative. Immutable after merging except for the
// repeat flags set by FlagRepeats.
type Group struct {
	Key   canonical.Key
	Items []feeds.Item
	Rep   feeds.Item

	// Repeated marks a group whose event already appeared in a recent
	// report. RepeatedFrom holds the originating report dates.
	Repeated     bool
	RepeatedFrom []string
}

// Signature is the canonical key of an item from a prior report, used
// for the cross-report repeat check.
type Signature struct {
	ReportDate  string
	URLKey      string
	Fingerprint string
}

// Stats summarizes one merge pass.
type Stats struct {
	RawItems          int
	UniqueItems       int
	DuplicatesRemoved int
}

// Merger partitions items into duplicate groups.
type Merger struct {
	threshold      float64
	sourcePriority map[string]int
}

// NewMerger creates a merger with the configured similarity threshold
// and source priority order (earlier sources win representative ties).
func NewMerger(threshold float64, sourcePriority []string) *Merger {
	prio := make(map[string]int, len(sourcePriority))
	for i, source := range sourcePriority {
		prio[source] = i
	}
	return &Merger{threshold: threshold, sourcePriority: prio}
}

// Merge partitions items into groups. Identical normalized URLs always
// merge; remaining items merge on title similarity >= threshold when
// they also share a publication day or a category. The result is
// independent of input order: items are sorted deterministically before
// grouping, and representative selection follows fixed tie-breaks.
func (m *Merger) Merge(items []feeds.Item) ([]Group, Stats) {
	stats := Stats{RawItems: len(items)}
	if len(items) == 0 {
		return nil, stats
	}

	type entry struct {
		item feeds.Item
		key  canonical.Key
	}
	entries := make([]entry, len(items))
	for i, it := range items {
		entries[i] = entry{item: it, key: canonical.Canonicalize(it.URL, it.Title)}
	}

	// Deterministic base order makes the whole merge order-independent.
	sort.Slice(entries, func(i, j int) bool {
		a, b := entries[i], entries[j]
		if a.key.URLKey != b.key.URLKey {
			return a.key.URLKey < b.key.URLKey
		}
		if a.key.Fingerprint != b.key.Fingerprint {
			return a.key.Fingerprint < b.key.Fingerprint
		}
		if a.item.Source != b.item.Source {
			return a.item.Source < b.item.Source
		}
		return a.item.Title < b.item.Title
	})

	parent := make([]int, len(entries))
	for i := range parent {
		parent[i] = i
	}
	var find func(int) int
	find = func(x int) int {
		for parent[x] != x {
			parent[x] = parent[parent[x]]
			x = parent[x]
		}
		return x
	}
	union := func(a, b int) {
		ra, rb := find(a), find(b)
		if ra != rb {
			if rb < ra {
				ra, rb = rb, ra
			}
			parent[rb] = ra
		}
	}

	// Pass 1: exact URL-key matches always merge.
	byURL := make(map[string]int, len(entries))
	for i, e := range entries {
		if e.key.URLKey == "" {
			continue
		}
		if first, ok := byURL[e.key.URLKey]; ok {
			union(first, i)
		} else {
			byURL[e.key.URLKey] = i
		}
	}

	// Pass 2: near matches, bucketed by the fingerprint's first token
	// to keep the pairwise comparison tractable.
	buckets := make(map[string][]int)
	for i, e := range entries {
		tokens := canonical.Tokens(e.key.Fingerprint)
		if len(tokens) == 0 {
			continue
		}
		buckets[tokens[0]] = append(buckets[tokens[0]], i)
	}
	for _, bucket := range buckets {
		for x := 0; x < len(bucket); x++ {
			for y := x + 1; y < len(bucket); y++ {
				i, j := bucket[x], bucket[y]
				if find(i) == find(j) {
					continue
				}
				if m.nearMatch(entries[i].item, entries[j].item, entries[i].key, entries[j].key) {
					union(i, j)
				}
			}
		}
	}

	clusters := make(map[int][]int)
	for i := range entries {
		root := find(i)
		clusters[root] = append(clusters[root], i)
	}

	roots := make([]int, 0, len(clusters))
	for root := range clusters {
		roots = append(roots, root)
	}
	sort.Ints(roots)

	groups := make([]Group, 0, len(roots))
	for _, root := range roots {
		members := clusters[root]
		groupItems := make([]feeds.Item, len(members))
		for i, idx := range members {
			groupItems[i] = entries[idx].item
		}
		rep := m.pickRepresentative(groupItems)
		groups = append(groups, Group{
			Key:   canonical.Canonicalize(rep.URL, rep.Title),
			Items: groupItems,
			Rep:   rep,
		})
		stats.DuplicatesRemoved += len(groupItems) - 1
	}
	stats.UniqueItems = len(groups)

	return groups, stats
}

// nearMatch applies the similarity gate: fingerprint Jaccard above the
// threshold plus a shared publication day or category.
func (m *Merger) nearMatch(a, b feeds.Item, ka, kb canonical.Key) bool {
	if ka.Fingerprint == "" || kb.Fingerprint == "" {
		return false
	}
	if ka.Fingerprint == kb.Fingerprint {
		return true
	}
	if canonical.Jaccard(ka.Fingerprint, kb.Fingerprint) < m.threshold {
		return false
	}

	sameDay := a.PublishedDay() != "" && a.PublishedDay() == b.PublishedDay()
	sameTopic := a.Category != "" && a.Category == b.Category
	return sameDay || sameTopic
}

// pickRepresentative prefers the richest summary, then the earliest
// published item, then the source priority order, then the title.
func (m *Merger) pickRepresentative(items []feeds.Item) feeds.Item {
	best := items[0]
	for _, candidate := range items[1:] {
		if m.better(candidate, best) {
			best = candidate
		}
	}
	return best
}

func (m *Merger) better(a, b feeds.Item) bool {
	if len(a.Summary) != len(b.Summary) {
		return len(a.Summary) > len(b.Summary)
	}

	switch {
	case a.PublishedAt != nil && b.PublishedAt == nil:
		return true
	case a.PublishedAt == nil && b.PublishedAt != nil:
		return false
	case a.PublishedAt != nil && b.PublishedAt != nil && !a.PublishedAt.Equal(*b.PublishedAt):
		return a.PublishedAt.Before(*b.PublishedAt)
	}

	pa, pb := m.priority(a.Source), m.priority(b.Source)
	if pa != pb {
		return pa < pb
	}
	return a.Title < b.Title
}

func (m *Merger) priority(source string) int {
	if p, ok := m.sourcePriority[source]; ok {
		return p
	}
	return len(m.sourcePriority)
}

// FlagRepeats marks groups whose event appears in the lookback
// signatures, by exact URL key or by title similarity over the same
// threshold. Matched groups are flagged, never dropped.
func (m *Merger) FlagRepeats(groups []Group, signatures []Signature) []Group {
	if len(signatures) == 0 {
		return groups
	}

	out := make([]Group, len(groups))
	copy(out, groups)

	for i := range out {
		seen := make(map[string]bool)
		for _, sig := range signatures {
			if !m.matchesSignature(out[i].Key, sig) {
				continue
			}
			out[i].Repeated = true
			if !seen[sig.ReportDate] {
				seen[sig.ReportDate] = true
				out[i].RepeatedFrom = append(out[i].RepeatedFrom, sig.ReportDate)
			}
		}
		sort.Strings(out[i].RepeatedFrom)
	}
	return out
}

func (m *Merger) matchesSignature(key canonical.Key, sig Signature) bool {
	if key.URLKey != "" && key.URLKey == sig.URLKey {
		return true
	}
	if key.Fingerprint == "" || sig.Fingerprint == "" {
		return false
	}
	if key.Fingerprint == sig.Fingerprint {
		return true
	}
	return canonical.Jaccard(key.Fingerprint, sig.Fingerprint) >= m.threshold
}
