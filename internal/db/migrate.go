package db

import (
	"database/sql"
	"fmt"
	"strings"
)

// Migrate runs all schema migrations. Every statement is idempotent so the
// whole list is replayed on each open.
func Migrate(db *sql.DB) error {
	for i, stmt := range migrations {
		if _, err := db.Exec(stmt); err != nil {
			// Tolerate "duplicate column name" errors from ALTER TABLE
			// since the migration system re-runs all statements.
			if strings.Contains(err.Error(), "duplicate column name") {
				continue
			}
			return fmt.Errorf("migration %d: %w", i, err)
		}
	}
	return nil
}

var migrations = []string{
	`CREATE TABLE IF NOT EXISTS projects (
		id                INTEGER PRIMARY KEY AUTOINCREMENT,
		name              TEXT NOT NULL,
		description       TEXT NOT NULL,
		creator           TEXT NOT NULL,
		sponsor           TEXT NOT NULL,
		total_budget      INTEGER NOT NULL CHECK(total_budget > 0),
		total_deposited   INTEGER NOT NULL DEFAULT 0 CHECK(total_deposited >= 0),
		total_released    INTEGER NOT NULL DEFAULT 0 CHECK(total_released >= 0),
		total_refunded    INTEGER NOT NULL DEFAULT 0 CHECK(total_refunded >= 0),
		current_milestone INTEGER NOT NULL DEFAULT 0 CHECK(current_milestone >= 0),
		active            INTEGER NOT NULL DEFAULT 1,
		created_at        TEXT NOT NULL,
		closed_at         TEXT,
		updated_at        TEXT NOT NULL,
		CHECK(total_deposited <= total_budget),
		CHECK(total_released + total_refunded <= total_deposited)
	)`,

	`CREATE INDEX IF NOT EXISTS idx_projects_creator ON projects(creator)`,
	`CREATE INDEX IF NOT EXISTS idx_projects_sponsor ON projects(sponsor)`,

	`CREATE TABLE IF NOT EXISTS milestones (
		project_id   INTEGER NOT NULL REFERENCES projects(id),
		idx          INTEGER NOT NULL CHECK(idx >= 0),
		description  TEXT NOT NULL,
		amount       INTEGER NOT NULL CHECK(amount > 0),
		due_date     TEXT NOT NULL,
		state        TEXT NOT NULL DEFAULT 'pending'
		             CHECK(state IN ('pending','completed','approved_paid')),
		completed_at TEXT,
		approved_at  TEXT,
		PRIMARY KEY (project_id, idx)
	)`,

	`CREATE TABLE IF NOT EXISTS accounts (
		address       TEXT PRIMARY KEY,
		balance       INTEGER NOT NULL DEFAULT 0 CHECK(balance >= 0),
		rejects_funds INTEGER NOT NULL DEFAULT 0,
		updated_at    TEXT NOT NULL
	)`,

	`CREATE TABLE IF NOT EXISTS outbox_events (
		id              TEXT PRIMARY KEY,
		project_id      INTEGER NOT NULL,
		event_type      TEXT NOT NULL,
		routing_key     TEXT NOT NULL,
		payload         TEXT NOT NULL,
		status          TEXT NOT NULL DEFAULT 'pending'
		                CHECK(status IN ('pending','sent','failed')),
		attempts        INTEGER NOT NULL DEFAULT 0,
		last_error      TEXT NOT NULL DEFAULT '',
		occurred_at     TEXT NOT NULL,
		next_attempt_at TEXT NOT NULL,
		sent_at         TEXT
	)`,

	`CREATE INDEX IF NOT EXISTS idx_outbox_pending ON outbox_events(status, next_attempt_at)`,
	`CREATE INDEX IF NOT EXISTS idx_outbox_project ON outbox_events(project_id)`,
}
