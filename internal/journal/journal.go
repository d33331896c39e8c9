// Package journal records every operation applied to a note in SQLite.
package journal

import (
	"database/sql"
	"fmt"

	_ "github.com/mattn/go-sqlite3"
)

const schemaSQL = `
CREATE TABLE IF NOT EXISTS entries (
	id              INTEGER PRIMARY KEY AUTOINCREMENT,
	path            TEXT NOT NULL,
	action          TEXT NOT NULL,
	status          TEXT NOT NULL,
	detail          TEXT NOT NULL DEFAULT '',
	checksum_before TEXT NOT NULL DEFAULT '',
	checksum_after  TEXT NOT NULL DEFAULT '',
	created_at      DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP
);

CREATE INDEX IF NOT EXISTS idx_entries_path ON entries(path);
CREATE INDEX IF NOT EXISTS idx_entries_created ON entries(created_at);
`

// Recorder is the write side used by the tidy service.
type Recorder interface {
	Record(e Entry) error
}

// Reader is the read side used by the command surfaces.
type Reader interface {
	List(path, action string, limit int) ([]Entry, error)
}

// Journal is both sides.
type Journal interface {
	Recorder
	Reader
}

// DB wraps a sql.DB with journal operations.
type DB struct {
	conn *sql.DB
}

var _ Journal = (*DB)(nil)

// Open opens (or creates) the SQLite database and applies the schema.
func Open(dsn string) (*DB, error) {
	conn, err := sql.Open("sqlite3", dsn+"?_journal_mode=WAL&_busy_timeout=5000")
	if err != nil {
		return nil, fmt.Errorf("journal: open db: %w", err)
	}
	if err := conn.Ping(); err != nil {
		conn.Close()
		return nil, fmt.Errorf("journal: ping: %w", err)
	}
	if _, err := conn.Exec(schemaSQL); err != nil {
		conn.Close()
		return nil, fmt.Errorf("journal: apply schema: %w", err)
	}
	return &DB{conn: conn}, nil
}

// Close closes the underlying database connection.
func (db *DB) Close() error {
	return db.conn.Close()
}
