package pipeline

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/zhaidewei/active-info-daily/internal/config"
	"github.com/zhaidewei/active-info-daily/internal/database"
	"github.com/zhaidewei/active-info-daily/internal/feeds"
)

func testConfig(t *testing.T, dataDir string) *config.Config {
	t.Helper()
	cfg, err := config.Parse([]byte(`
output:
  data_dir: ` + dataDir + `
scoring:
  base_score: 1.0
  positive_keywords:
    - term: breakthrough
      weight: 1.5
  negative_keywords:
    - term: lawsuit
      weight: 1.8
report:
  top_k: 10
  shortlist: 5
`))
	if err != nil {
		t.Fatalf("test config invalid: %v", err)
	}
	return cfg
}

func openTestDB(t *testing.T, dir string) *database.DB {
	t.Helper()
	db, err := database.Open(filepath.Join(dir, "test.db"))
	if err != nil {
		t.Fatalf("failed to open test db: %v", err)
	}
	t.Cleanup(func() { db.Close() })
	return db
}

func snapshotItems() []feeds.Item {
	ts := time.Date(2026, 8, 30, 7, 0, 0, 0, time.UTC)
	return []feeds.Item{
		{Source: "FeedA", Category: "ai", URL: "https://127.0.0.1:1/a", Title: "Major breakthrough in inference",
			Summary: "Details.", PublishedAt: &ts},
		{Source: "FeedB", Category: "ai", URL: "https://127.0.0.1:1/a?utm_source=rss", Title: "Major breakthrough in inference",
			Summary: "More details here.", PublishedAt: &ts},
		{Source: "FeedC", Category: "it", URL: "https://127.0.0.1:1/b", Title: "Vendor faces lawsuit",
			Summary: "Court filing.", PublishedAt: &ts},
	}
}

func TestRunFromSnapshot(t *testing.T) {
	dir := t.TempDir()
	cfg := testConfig(t, dir)
	db := openTestDB(t, dir)

	if _, err := feeds.WriteSnapshot(dir, "2026-08-30", snapshotItems()); err != nil {
		t.Fatal(err)
	}

	pipe := New(cfg, db)
	result, err := pipe.RunFromSnapshot(context.Background(), "2026-08-30")
	if err != nil {
		t.Fatalf("run failed: %v", err)
	}
	for _, step := range result.Steps {
		if step.Err != nil {
			t.Fatalf("step %s failed: %v", step.Name, step.Err)
		}
	}

	report, err := db.GetReport("2026-08-30")
	if err != nil {
		t.Fatal(err)
	}
	if report == nil {
		t.Fatal("report not stored")
	}
	// The two utm-variant items collapse into one group.
	if report.TotalItems != 2 {
		t.Errorf("total items = %d, want 2", report.TotalItems)
	}
	if !strings.Contains(report.Markdown, "Daily Signals") {
		t.Error("markdown body missing header")
	}

	var payload struct {
		Items []struct {
			Title string  `json:"title"`
			Score float64 `json:"score"`
		} `json:"items"`
	}
	if err := json.Unmarshal([]byte(report.JSONContent), &payload); err != nil {
		t.Fatalf("stored JSON invalid: %v", err)
	}
	if len(payload.Items) != 2 {
		t.Fatalf("json items = %d, want 2", len(payload.Items))
	}
	// breakthrough (base 1 + 1.5) outranks the lawsuit item.
	if !strings.Contains(payload.Items[0].Title, "breakthrough") {
		t.Errorf("top item = %q", payload.Items[0].Title)
	}

	// The rendered report also lands on disk.
	md, err := os.ReadFile(filepath.Join(dir, "reports", "2026-08-30.md"))
	if err != nil {
		t.Fatalf("markdown report file not written: %v", err)
	}
	if !strings.Contains(string(md), "Daily Signals") {
		t.Error("markdown report file missing header")
	}
	raw, err := os.ReadFile(filepath.Join(dir, "reports", "2026-08-30.json"))
	if err != nil {
		t.Fatalf("json report file not written: %v", err)
	}
	if !json.Valid(raw) {
		t.Error("json report file is not valid JSON")
	}
}

func TestRunFromSnapshotMissing(t *testing.T) {
	dir := t.TempDir()
	cfg := testConfig(t, dir)
	db := openTestDB(t, dir)

	pipe := New(cfg, db)
	if _, err := pipe.RunFromSnapshot(context.Background(), "2026-01-01"); err == nil {
		t.Error("expected error for missing snapshot")
	}
}

func TestRepeatDetectionAcrossRuns(t *testing.T) {
	dir := t.TempDir()
	cfg := testConfig(t, dir)
	db := openTestDB(t, dir)

	if _, err := feeds.WriteSnapshot(dir, "2026-08-29", snapshotItems()); err != nil {
		t.Fatal(err)
	}
	if _, err := feeds.WriteSnapshot(dir, "2026-08-30", snapshotItems()); err != nil {
		t.Fatal(err)
	}

	pipe := New(cfg, db)
	if _, err := pipe.RunFromSnapshot(context.Background(), "2026-08-29"); err != nil {
		t.Fatal(err)
	}
	if _, err := pipe.RunFromSnapshot(context.Background(), "2026-08-30"); err != nil {
		t.Fatal(err)
	}

	items, err := db.GetReportItems("2026-08-30")
	if err != nil {
		t.Fatal(err)
	}
	if len(items) == 0 {
		t.Fatal("no items stored for second run")
	}
	for _, item := range items {
		if !item.Repeated {
			t.Errorf("item %q should be flagged repeated on the second day", item.Title)
		}
	}

	// Repeats are penalized relative to the first run.
	first, _ := db.GetReportItems("2026-08-29")
	if first[0].Score <= items[0].Score {
		t.Errorf("second-day score %v should be below first-day %v", items[0].Score, first[0].Score)
	}
}

func TestCancelledRunStoresNothing(t *testing.T) {
	dir := t.TempDir()
	cfg := testConfig(t, dir)
	db := openTestDB(t, dir)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// The shortlist fetch cancels the run mid-enrichment, the way an
	// interrupted run would.
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		cancel()
		fmt.Fprint(w, "<html><body><p>Article body text.</p></body></html>")
	}))
	defer ts.Close()

	pub := time.Date(2026, 8, 30, 7, 0, 0, 0, time.UTC)
	items := []feeds.Item{
		{Source: "FeedA", Category: "ai", URL: ts.URL + "/a", Title: "Major breakthrough in inference",
			Summary: "Details.", PublishedAt: &pub},
	}
	if _, err := feeds.WriteSnapshot(dir, "2026-08-30", items); err != nil {
		t.Fatal(err)
	}

	pipe := New(cfg, db)
	result, err := pipe.RunFromSnapshot(ctx, "2026-08-30")
	if err != nil {
		t.Fatalf("snapshot unreadable: %v", err)
	}

	var stepErr error
	for _, step := range result.Steps {
		if step.Err != nil {
			stepErr = step.Err
		}
	}
	if !errors.Is(stepErr, context.Canceled) {
		t.Fatalf("step error = %v, want context.Canceled", stepErr)
	}

	report, err := db.GetReport("2026-08-30")
	if err != nil {
		t.Fatal(err)
	}
	if report != nil {
		t.Error("report stored despite cancellation")
	}
	if _, err := os.Stat(filepath.Join(dir, "reports", "2026-08-30.md")); !os.IsNotExist(err) {
		t.Error("report file written despite cancellation")
	}
}
