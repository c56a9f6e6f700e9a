package feeds

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"
)

// Snapshot is the on-disk record of one collection run. Re-running the
// engine from a snapshot skips fetching entirely.
type Snapshot struct {
	ReportDate      string    `json:"report_date"`
	FetchedAt       time.Time `json:"fetched_at"`
	TotalDownloaded int       `json:"total_downloaded"`
	Items           []Item    `json:"items"`
}

const snapshotSuffix = ".download.json"

// SnapshotPath returns the snapshot file path for a report date.
func SnapshotPath(dir, dateKey string) string {
	return filepath.Join(dir, dateKey+snapshotSuffix)
}

// WriteSnapshot persists the raw items collected for a report date.
func WriteSnapshot(dir, dateKey string, items []Item) (string, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return "", fmt.Errorf("creating snapshot directory: %w", err)
	}

	snap := Snapshot{
		ReportDate:      dateKey,
		FetchedAt:       time.Now().UTC(),
		TotalDownloaded: len(items),
		Items:           items,
	}
	data, err := json.MarshalIndent(snap, "", "  ")
	if err != nil {
		return "", fmt.Errorf("encoding snapshot: %w", err)
	}

	path := SnapshotPath(dir, dateKey)
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return "", fmt.Errorf("writing snapshot: %w", err)
	}
	return path, nil
}

// ReadSnapshot loads the raw items saved for a report date.
func ReadSnapshot(dir, dateKey string) ([]Item, error) {
	data, err := os.ReadFile(SnapshotPath(dir, dateKey))
	if err != nil {
		return nil, fmt.Errorf("reading snapshot: %w", err)
	}

	var snap Snapshot
	if err := json.Unmarshal(data, &snap); err != nil {
		return nil, fmt.Errorf("decoding snapshot: %w", err)
	}
	return snap.Items, nil
}

// LatestSnapshotDate returns the most recent snapshot date in dir.
func LatestSnapshotDate(dir string) (string, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return "", fmt.Errorf("listing snapshots: %w", err)
	}

	var dates []string
	for _, entry := range entries {
		name := entry.Name()
		if strings.HasSuffix(name, snapshotSuffix) {
			dates = append(dates, strings.TrimSuffix(name, snapshotSuffix))
		}
	}
	if len(dates) == 0 {
		return "", fmt.Errorf("no download snapshots found in %s; run 'activeinfo fetch' first", dir)
	}
	sort.Strings(dates)
	return dates[len(dates)-1], nil
}
