package database

import "database/sql"

// Migration represents a single schema migration step.
type Migration struct {
	Version     int
	Description string
	Up          func(tx *sql.Tx) error
}

// migrations is the ordered list of all schema migrations.
// Append new migrations to the end with incrementing Version numbers.
var migrations = []Migration{
	{
		Version:     1,
		Description: "initial schema",
		Up: func(tx *sql.Tx) error {
			_, err := tx.Exec(`
CREATE TABLE IF NOT EXISTS reports (
    report_date TEXT PRIMARY KEY,
    created_at TEXT NOT NULL,
    total_items INTEGER NOT NULL,
    markdown TEXT NOT NULL,
    json_content TEXT NOT NULL
);

CREATE TABLE IF NOT EXISTS report_items (
    report_date TEXT NOT NULL REFERENCES reports(report_date),
    position INTEGER NOT NULL,
    url_key TEXT NOT NULL,
    fingerprint TEXT NOT NULL,
    title TEXT NOT NULL,
    url TEXT NOT NULL,
    source TEXT,
    score REAL NOT NULL,
    strategy TEXT NOT NULL,
    repeated INTEGER DEFAULT 0,
    PRIMARY KEY (report_date, position)
);

CREATE INDEX IF NOT EXISTS idx_report_items_date ON report_items(report_date);
CREATE INDEX IF NOT EXISTS idx_report_items_url_key ON report_items(url_key);
`)
			return err
		},
	},
}

// latestVersion returns the highest migration version number.
func latestVersion() int {
	if len(migrations) == 0 {
		return 0
	}
	return migrations[len(migrations)-1].Version
}
