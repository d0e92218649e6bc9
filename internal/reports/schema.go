// Package reports provides the SQLite-backed store for pipeline run
// history and fixity reports. The parsed object graph itself is never
// persisted; only run records and checksum findings are.
package reports

import (
	"database/sql"
	"fmt"

	_ "github.com/mattn/go-sqlite3"
)

const schemaSQL = `
CREATE TABLE IF NOT EXISTS runs (
	id             INTEGER PRIMARY KEY AUTOINCREMENT,
	run_key        TEXT NOT NULL DEFAULT '',
	sip_id         TEXT NOT NULL DEFAULT '',
	source_paths   TEXT NOT NULL DEFAULT '[]',
	status         TEXT NOT NULL,
	error          TEXT NOT NULL DEFAULT '',
	entity_count   INTEGER NOT NULL DEFAULT 0,
	rep_count      INTEGER NOT NULL DEFAULT 0,
	file_count     INTEGER NOT NULL DEFAULT 0,
	fixity_count   INTEGER NOT NULL DEFAULT 0,
	mismatch_count INTEGER NOT NULL DEFAULT 0,
	invalid_count  INTEGER NOT NULL DEFAULT 0,
	started_at     DATETIME NOT NULL,
	finished_at    DATETIME
);

CREATE INDEX IF NOT EXISTS idx_runs_run_key ON runs(run_key);

CREATE TABLE IF NOT EXISTS fixity_results (
	run_id    INTEGER NOT NULL REFERENCES runs(id) ON DELETE CASCADE,
	position  INTEGER NOT NULL,
	file_id   TEXT NOT NULL,
	algorithm TEXT NOT NULL,
	declared  TEXT NOT NULL,
	computed  TEXT NOT NULL DEFAULT '',
	status    TEXT NOT NULL,
	detail    TEXT NOT NULL DEFAULT '',
	PRIMARY KEY (run_id, position)
);
`

// DB wraps a sql.DB with report-store operations.
type DB struct {
	conn *sql.DB
}

// Open opens (or creates) the SQLite database and applies the schema.
func Open(dsn string) (*DB, error) {
	conn, err := sql.Open("sqlite3", dsn+"?_journal_mode=WAL&_busy_timeout=5000&_foreign_keys=on")
	if err != nil {
		return nil, fmt.Errorf("reports: open db: %w", err)
	}
	if err := conn.Ping(); err != nil {
		conn.Close()
		return nil, fmt.Errorf("reports: ping: %w", err)
	}
	if _, err := conn.Exec(schemaSQL); err != nil {
		conn.Close()
		return nil, fmt.Errorf("reports: apply schema: %w", err)
	}
	return &DB{conn: conn}, nil
}

// Close closes the underlying database connection.
func (db *DB) Close() error {
	return db.conn.Close()
}
