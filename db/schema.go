// ABOUTME: Database schema for sync history
// ABOUTME: Runs, per-record errors, and last status per direction
package db

import (
	"database/sql"
)

const schema = `
CREATE TABLE IF NOT EXISTS sync_runs (
	id TEXT PRIMARY KEY,
	mode TEXT NOT NULL,
	dry_run INTEGER NOT NULL DEFAULT 0,
	status TEXT NOT NULL CHECK(status IN ('ok', 'partial', 'failed', 'canceled')),
	message TEXT,
	started_at DATETIME NOT NULL,
	finished_at DATETIME NOT NULL,
	created INTEGER NOT NULL DEFAULT 0,
	updated INTEGER NOT NULL DEFAULT 0,
	excluded INTEGER NOT NULL DEFAULT 0,
	invalid INTEGER NOT NULL DEFAULT 0,
	ambiguous INTEGER NOT NULL DEFAULT 0,
	matched_provider_id INTEGER NOT NULL DEFAULT 0,
	matched_email INTEGER NOT NULL DEFAULT 0,
	matched_phone INTEGER NOT NULL DEFAULT 0,
	matched_name INTEGER NOT NULL DEFAULT 0,
	retracted INTEGER NOT NULL DEFAULT 0,
	retract_unchanged INTEGER NOT NULL DEFAULT 0,
	unlinked INTEGER NOT NULL DEFAULT 0,
	canceled INTEGER NOT NULL DEFAULT 0,
	errors INTEGER NOT NULL DEFAULT 0
);

CREATE INDEX IF NOT EXISTS idx_sync_runs_started_at ON sync_runs(started_at DESC);

CREATE TABLE IF NOT EXISTS sync_errors (
	id TEXT PRIMARY KEY,
	run_id TEXT NOT NULL,
	direction TEXT NOT NULL,
	record TEXT NOT NULL,
	kind TEXT NOT NULL,
	message TEXT NOT NULL,
	FOREIGN KEY (run_id) REFERENCES sync_runs(id) ON DELETE CASCADE
);

CREATE INDEX IF NOT EXISTS idx_sync_errors_run_id ON sync_errors(run_id);

CREATE TABLE IF NOT EXISTS sync_state (
	direction TEXT PRIMARY KEY,
	last_sync_time DATETIME,
	last_run_id TEXT,
	status TEXT CHECK(status IN ('idle', 'syncing', 'error')),
	error_message TEXT,
	created_at DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP,
	updated_at DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP
);
`

// InitSchema creates every table and index if missing.
func InitSchema(db *sql.DB) error {
	_, err := db.Exec(schema)
	return err
}
