package database

import (
	"database/sql"
	"fmt"
	"time"

	"github.com/zhaidewei/active-info-daily/internal/dedupe"
)

// Report is one stored daily report.
type Report struct {
	ReportDate  string
	CreatedAt   string
	TotalItems  int
	Markdown    string
	JSONContent string
}

// ReportItem is one ranked entry persisted with a report. Its canonical
// key doubles as the historical signature for later novelty checks.
type ReportItem struct {
	ReportDate  string
	Rank        int
	URLKey      string
	Fingerprint string
	Title       string
	URL         string
	Source      string
	Score       float64
	Strategy    string
	Repeated    bool
}

// Stats contains aggregate database statistics.
type Stats struct {
	Reports     int
	ReportItems int
	LastReport  string
}

// UpsertReport inserts or replaces the report for a date and its items
// in one transaction.
func (db *DB) UpsertReport(report Report, items []ReportItem) error {
	tx, err := db.conn.Begin()
	if err != nil {
		return fmt.Errorf("begin report upsert: %w", err)
	}
	defer tx.Rollback()

	createdAt := report.CreatedAt
	if createdAt == "" {
		createdAt = time.Now().UTC().Format(time.RFC3339)
	}

	if _, err := tx.Exec(
		`INSERT INTO reports (report_date, created_at, total_items, markdown, json_content)
		VALUES (?, ?, ?, ?, ?)
		ON CONFLICT(report_date) DO UPDATE SET
			created_at=excluded.created_at,
			total_items=excluded.total_items,
			markdown=excluded.markdown,
			json_content=excluded.json_content`,
		report.ReportDate, createdAt, report.TotalItems, report.Markdown, report.JSONContent,
	); err != nil {
		return fmt.Errorf("upserting report: %w", err)
	}

	if _, err := tx.Exec("DELETE FROM report_items WHERE report_date = ?", report.ReportDate); err != nil {
		return fmt.Errorf("clearing report items: %w", err)
	}

	for _, item := range items {
		repeated := 0
		if item.Repeated {
			repeated = 1
		}
		if _, err := tx.Exec(
			`INSERT INTO report_items
			(report_date, position, url_key, fingerprint, title, url, source, score, strategy, repeated)
			VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
			report.ReportDate, item.Rank, item.URLKey, item.Fingerprint,
			item.Title, item.URL, item.Source, item.Score, item.Strategy, repeated,
		); err != nil {
			return fmt.Errorf("inserting report item %d: %w", item.Rank, err)
		}
	}

	return tx.Commit()
}

// GetReport returns the report for a date, or nil when absent.
func (db *DB) GetReport(reportDate string) (*Report, error) {
	row := db.conn.QueryRow(
		`SELECT report_date, created_at, total_items, markdown, json_content
		FROM reports WHERE report_date = ?`, reportDate,
	)
	return scanReport(row)
}

// LatestReport returns the most recent report, or nil when none exist.
func (db *DB) LatestReport() (*Report, error) {
	row := db.conn.QueryRow(
		`SELECT report_date, created_at, total_items, markdown, json_content
		FROM reports ORDER BY report_date DESC LIMIT 1`,
	)
	return scanReport(row)
}

// ListReports returns report metadata ordered by date descending.
// Markdown and JSON bodies are not loaded.
func (db *DB) ListReports(limit int) ([]Report, error) {
	rows, err := db.conn.Query(
		`SELECT report_date, created_at, total_items, '', ''
		FROM reports ORDER BY report_date DESC LIMIT ?`, limit,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var reports []Report
	for rows.Next() {
		var r Report
		if err := rows.Scan(&r.ReportDate, &r.CreatedAt, &r.TotalItems, &r.Markdown, &r.JSONContent); err != nil {
			return nil, err
		}
		reports = append(reports, r)
	}
	return reports, rows.Err()
}

// RecentSignatures returns canonical signatures from the lookback most
// recent reports strictly before the given date. Read once at run
// start; never written by the engine.
func (db *DB) RecentSignatures(lookback int, beforeDate string) ([]dedupe.Signature, error) {
	if lookback <= 0 {
		return nil, nil
	}

	rows, err := db.conn.Query(
		`SELECT report_date, url_key, fingerprint FROM report_items
		WHERE report_date IN (
			SELECT report_date FROM reports
			WHERE report_date < ? ORDER BY report_date DESC LIMIT ?
		)
		ORDER BY report_date DESC, position ASC`,
		beforeDate, lookback,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var sigs []dedupe.Signature
	for rows.Next() {
		var s dedupe.Signature
		if err := rows.Scan(&s.ReportDate, &s.URLKey, &s.Fingerprint); err != nil {
			return nil, err
		}
		sigs = append(sigs, s)
	}
	return sigs, rows.Err()
}

// GetReportItems returns the ranked items stored with a report.
func (db *DB) GetReportItems(reportDate string) ([]ReportItem, error) {
	rows, err := db.conn.Query(
		`SELECT report_date, position, url_key, fingerprint, title, url, source, score, strategy, repeated
		FROM report_items WHERE report_date = ? ORDER BY position ASC`, reportDate,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var items []ReportItem
	for rows.Next() {
		var item ReportItem
		var source sql.NullString
		var repeated int
		if err := rows.Scan(&item.ReportDate, &item.Rank, &item.URLKey, &item.Fingerprint,
			&item.Title, &item.URL, &source, &item.Score, &item.Strategy, &repeated); err != nil {
			return nil, err
		}
		item.Source = source.String
		item.Repeated = repeated != 0
		items = append(items, item)
	}
	return items, rows.Err()
}

// GetLastReportDate returns the most recent report date, or "" if no
// reports exist.
func (db *DB) GetLastReportDate() (string, error) {
	row := db.conn.QueryRow("SELECT report_date FROM reports ORDER BY report_date DESC LIMIT 1")
	var date string
	if err := row.Scan(&date); err != nil {
		if err == sql.ErrNoRows {
			return "", nil
		}
		return "", err
	}
	return date, nil
}

// GetStats returns aggregate database statistics.
func (db *DB) GetStats() (*Stats, error) {
	s := &Stats{}
	if err := db.conn.QueryRow("SELECT COUNT(*) FROM reports").Scan(&s.Reports); err != nil {
		return nil, err
	}
	if err := db.conn.QueryRow("SELECT COUNT(*) FROM report_items").Scan(&s.ReportItems); err != nil {
		return nil, err
	}
	last, err := db.GetLastReportDate()
	if err != nil {
		return nil, err
	}
	s.LastReport = last
	return s, nil
}

func scanReport(row *sql.Row) (*Report, error) {
	var r Report
	if err := row.Scan(&r.ReportDate, &r.CreatedAt, &r.TotalItems, &r.Markdown, &r.JSONContent); err != nil {
		if err == sql.ErrNoRows {
			return nil, nil
		}
		return nil, err
	}
	return &r, nil
}
