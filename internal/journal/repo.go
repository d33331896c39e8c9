package journal

import (
	"fmt"
	"time"
)

// Actions.
const (
	ActionStamp     = "stamp"
	ActionStrip     = "strip"
	ActionSummarize = "summarize"
)

// Statuses.
const (
	StatusOK      = "ok"
	StatusSkipped = "skipped"
	StatusPending = "pending"
	StatusFailed  = "failed"
)

// Entry is one journal row.
type Entry struct {
	ID             int64     `json:"id"`
	Path           string    `json:"path"`
	Action         string    `json:"action"`
	Status         string    `json:"status"`
	Detail         string    `json:"detail,omitempty"`
	ChecksumBefore string    `json:"checksum_before,omitempty"`
	ChecksumAfter  string    `json:"checksum_after,omitempty"`
	CreatedAt      time.Time `json:"created_at"`
}

// Record inserts e. A zero CreatedAt is set to now.
func (db *DB) Record(e Entry) error {
	if e.CreatedAt.IsZero() {
		e.CreatedAt = time.Now()
	}
	_, err := db.conn.Exec(`
		INSERT INTO entries (path, action, status, detail, checksum_before, checksum_after, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?)
	`, e.Path, e.Action, e.Status, e.Detail, e.ChecksumBefore, e.ChecksumAfter, e.CreatedAt.UTC())
	if err != nil {
		return fmt.Errorf("journal: record: %w", err)
	}
	return nil
}

// List returns the newest entries first, optionally filtered by path and action.
func (db *DB) List(path, action string, limit int) ([]Entry, error) {
	if limit <= 0 || limit > 500 {
		limit = 50
	}
	rows, err := db.conn.Query(`
		SELECT id, path, action, status, detail, checksum_before, checksum_after, created_at
		FROM entries
		WHERE (? = '' OR path = ?) AND (? = '' OR action = ?)
		ORDER BY id DESC
		LIMIT ?
	`, path, path, action, action, limit)
	if err != nil {
		return nil, fmt.Errorf("journal: list: %w", err)
	}
	defer rows.Close()

	var out []Entry
	for rows.Next() {
		var e Entry
		if err := rows.Scan(&e.ID, &e.Path, &e.Action, &e.Status, &e.Detail, &e.ChecksumBefore, &e.ChecksumAfter, &e.CreatedAt); err != nil {
			return nil, err
		}
		out = append(out, e)
	}
	return out, rows.Err()
}

// Last returns the newest entry for path and action, or nil.
func (db *DB) Last(path, action string) (*Entry, error) {
	entries, err := db.List(path, action, 1)
	if err != nil {
		return nil, err
	}
	if len(entries) == 0 {
		return nil, nil
	}
	return &entries[0], nil
}
