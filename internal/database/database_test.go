package database

import (
	"path/filepath"
	"testing"
)

func openTestDB(t *testing.T) *DB {
	t.Helper()
	db, err := Open(filepath.Join(t.TempDir(), "test.db"))
	if err != nil {
		t.Fatalf("failed to open test db: %v", err)
	}
	t.Cleanup(func() { db.Close() })
	return db
}

func sampleItems(date string) []ReportItem {
	return []ReportItem{
		{ReportDate: date, Rank: 1, URLKey: "a.com/1", Fingerprint: "nvidia record earnings",
			Title: "Nvidia record earnings", URL: "https://a.com/1", Source: "Reuters",
			Score: 4.2, Strategy: "heuristic"},
		{ReportDate: date, Rank: 2, URLKey: "b.com/2", Fingerprint: "polymarket volume spikes",
			Title: "Polymarket volume spikes", URL: "https://b.com/2", Source: "Polymarket",
			Score: 3.1, Strategy: "heuristic", Repeated: true},
	}
}

func TestUpsertAndGetReport(t *testing.T) {
	db := openTestDB(t)

	report := Report{
		ReportDate:  "2026-08-30",
		TotalItems:  2,
		Markdown:    "# Daily Signals",
		JSONContent: `{"report_date":"2026-08-30"}`,
	}
	if err := db.UpsertReport(report, sampleItems("2026-08-30")); err != nil {
		t.Fatalf("upsert failed: %v", err)
	}

	got, err := db.GetReport("2026-08-30")
	if err != nil {
		t.Fatalf("get failed: %v", err)
	}
	if got == nil {
		t.Fatal("expected report, got nil")
	}
	if got.TotalItems != 2 || got.Markdown != "# Daily Signals" {
		t.Errorf("unexpected report: %+v", got)
	}
	if got.CreatedAt == "" {
		t.Error("created_at should be filled in")
	}

	items, err := db.GetReportItems("2026-08-30")
	if err != nil {
		t.Fatalf("get items failed: %v", err)
	}
	if len(items) != 2 {
		t.Fatalf("expected 2 items, got %d", len(items))
	}
	if items[0].Rank != 1 || items[0].URLKey != "a.com/1" {
		t.Errorf("item 1 = %+v", items[0])
	}
	if !items[1].Repeated {
		t.Error("repeated flag lost in round trip")
	}
}

func TestUpsertReplacesItems(t *testing.T) {
	db := openTestDB(t)

	report := Report{ReportDate: "2026-08-30", TotalItems: 2, Markdown: "v1"}
	if err := db.UpsertReport(report, sampleItems("2026-08-30")); err != nil {
		t.Fatal(err)
	}

	report.Markdown = "v2"
	replacement := sampleItems("2026-08-30")[:1]
	if err := db.UpsertReport(report, replacement); err != nil {
		t.Fatal(err)
	}

	got, _ := db.GetReport("2026-08-30")
	if got.Markdown != "v2" {
		t.Errorf("markdown = %q, want v2", got.Markdown)
	}
	items, _ := db.GetReportItems("2026-08-30")
	if len(items) != 1 {
		t.Errorf("re-upsert must replace items, got %d", len(items))
	}
}

func TestGetReportMissing(t *testing.T) {
	db := openTestDB(t)
	got, err := db.GetReport("2026-01-01")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got != nil {
		t.Errorf("expected nil for missing report, got %+v", got)
	}
}

func TestLatestReportAndList(t *testing.T) {
	db := openTestDB(t)
	for _, date := range []string{"2026-08-28", "2026-08-30", "2026-08-29"} {
		if err := db.UpsertReport(Report{ReportDate: date, TotalItems: 1}, nil); err != nil {
			t.Fatal(err)
		}
	}

	latest, err := db.LatestReport()
	if err != nil {
		t.Fatal(err)
	}
	if latest == nil || latest.ReportDate != "2026-08-30" {
		t.Errorf("latest = %+v, want 2026-08-30", latest)
	}

	reports, err := db.ListReports(2)
	if err != nil {
		t.Fatal(err)
	}
	if len(reports) != 2 || reports[0].ReportDate != "2026-08-30" || reports[1].ReportDate != "2026-08-29" {
		t.Errorf("list = %+v", reports)
	}
}

func TestRecentSignatures(t *testing.T) {
	db := openTestDB(t)
	for _, date := range []string{"2026-08-27", "2026-08-28", "2026-08-29"} {
		if err := db.UpsertReport(Report{ReportDate: date, TotalItems: 2}, sampleItems(date)); err != nil {
			t.Fatal(err)
		}
	}

	sigs, err := db.RecentSignatures(2, "2026-08-30")
	if err != nil {
		t.Fatal(err)
	}
	// Two lookback reports, two items each.
	if len(sigs) != 4 {
		t.Fatalf("expected 4 signatures, got %d", len(sigs))
	}
	for _, s := range sigs {
		if s.ReportDate == "2026-08-27" {
			t.Error("signature outside lookback window returned")
		}
		if s.ReportDate >= "2026-08-30" {
			t.Error("signature at or after the report date returned")
		}
		if s.URLKey == "" || s.Fingerprint == "" {
			t.Errorf("incomplete signature: %+v", s)
		}
	}
}

func TestRecentSignaturesExcludesSameDay(t *testing.T) {
	db := openTestDB(t)
	if err := db.UpsertReport(Report{ReportDate: "2026-08-30", TotalItems: 2}, sampleItems("2026-08-30")); err != nil {
		t.Fatal(err)
	}

	sigs, err := db.RecentSignatures(2, "2026-08-30")
	if err != nil {
		t.Fatal(err)
	}
	if len(sigs) != 0 {
		t.Errorf("a re-run must not see its own previous items, got %d", len(sigs))
	}
}

func TestRecentSignaturesZeroLookback(t *testing.T) {
	db := openTestDB(t)
	sigs, err := db.RecentSignatures(0, "2026-08-30")
	if err != nil || sigs != nil {
		t.Errorf("zero lookback should disable the check, got %v, %v", sigs, err)
	}
}

func TestGetStats(t *testing.T) {
	db := openTestDB(t)

	stats, err := db.GetStats()
	if err != nil {
		t.Fatal(err)
	}
	if stats.Reports != 0 || stats.LastReport != "" {
		t.Errorf("empty db stats = %+v", stats)
	}

	if err := db.UpsertReport(Report{ReportDate: "2026-08-30", TotalItems: 2}, sampleItems("2026-08-30")); err != nil {
		t.Fatal(err)
	}
	stats, _ = db.GetStats()
	if stats.Reports != 1 || stats.ReportItems != 2 || stats.LastReport != "2026-08-30" {
		t.Errorf("stats = %+v", stats)
	}
}

func TestOpenIsIdempotent(t *testing.T) {
	path := filepath.Join(t.TempDir(), "test.db")
	db, err := Open(path)
	if err != nil {
		t.Fatal(err)
	}
	if err := db.UpsertReport(Report{ReportDate: "2026-08-30"}, nil); err != nil {
		t.Fatal(err)
	}
	db.Close()

	// Re-opening migrates nothing and keeps the data.
	db, err = Open(path)
	if err != nil {
		t.Fatalf("re-open failed: %v", err)
	}
	defer db.Close()
	got, err := db.GetReport("2026-08-30")
	if err != nil || got == nil {
		t.Errorf("data lost across re-open: %v, %v", got, err)
	}
}
