package db

import (
	"database/sql"
	"fmt"
)

// Base schema - uses Snowflake IDs (no AUTOINCREMENT)
const baseSchema = `
CREATE TABLE IF NOT EXISTS submissions (
  id INTEGER PRIMARY KEY,
  full_name TEXT NOT NULL,
  telephone TEXT NOT NULL,
  email TEXT NOT NULL,
  description TEXT NOT NULL DEFAULT '',
  submitted_at TEXT NOT NULL,
  webhook_status TEXT NOT NULL DEFAULT '',
  webhook_sent_at TEXT,
  webhook_failed_at TEXT,
  webhook_error TEXT
);

CREATE INDEX IF NOT EXISTS idx_submissions_submitted_at ON submissions(submitted_at);

CREATE TABLE IF NOT EXISTS settings (
  key TEXT PRIMARY KEY,
  value TEXT NOT NULL,
  updated_at TEXT NOT NULL
);
`

func Migrate(db *sql.DB) error {
	if _, err := db.Exec(baseSchema); err != nil {
		return fmt.Errorf("migrate base schema: %w", err)
	}

	if err := runMigrations(db); err != nil {
		return fmt.Errorf("run migrations: %w", err)
	}

	return nil
}

func runMigrations(db *sql.DB) error {
	// Migration 1: Add webhook_response_code column to submissions if not exists
	var count int
	err := db.QueryRow(`
		SELECT COUNT(*) FROM pragma_table_info('submissions') WHERE name = 'webhook_response_code'
	`).Scan(&count)
	if err != nil {
		return fmt.Errorf("check webhook_response_code column: %w", err)
	}

	if count == 0 {
		if _, err := db.Exec(`ALTER TABLE submissions ADD COLUMN webhook_response_code INTEGER`); err != nil {
			return fmt.Errorf("add webhook_response_code column: %w", err)
		}
	}

	// Migration 2: Index webhook_status for the admin list filter
	if _, err := db.Exec(`CREATE INDEX IF NOT EXISTS idx_submissions_webhook_status ON submissions(webhook_status)`); err != nil {
		return fmt.Errorf("create idx_submissions_webhook_status: %w", err)
	}

	return nil
}
