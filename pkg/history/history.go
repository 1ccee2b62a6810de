// Package history records completed downloads in a local SQLite database so
// the browser can mark files already on disk and offer a recent-downloads
// view across sessions.
package history

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"time"

	_ "modernc.org/sqlite"
)

const schema = `
CREATE TABLE IF NOT EXISTS downloads (
	id          INTEGER PRIMARY KEY AUTOINCREMENT,
	resource_url TEXT NOT NULL,
	dest        TEXT NOT NULL,
	size_bytes  INTEGER NOT NULL,
	finished_at TIMESTAMP NOT NULL
);
CREATE INDEX IF NOT EXISTS idx_downloads_url ON downloads(resource_url);
`

// Entry is one recorded download.
type Entry struct {
	ResourceURL string
	Dest        string
	Size        int64
	FinishedAt  time.Time
}

// Store persists download history. Safe for use from multiple goroutines;
// database/sql serializes access.
type Store struct {
	db *sql.DB
}

// Open opens (or creates) the history database at path.
func Open(path string) (*Store, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, fmt.Errorf("history: create dir: %w", err)
	}
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("history: open %s: %w", path, err)
	}
	if _, err := db.Exec(schema); err != nil {
		db.Close()
		return nil, fmt.Errorf("history: init schema: %w", err)
	}
	return &Store{db: db}, nil
}

// Close releases the database handle.
func (s *Store) Close() error { return s.db.Close() }

// Record stores one finished download.
func (s *Store) Record(ctx context.Context, e Entry) error {
	if e.FinishedAt.IsZero() {
		e.FinishedAt = time.Now()
	}
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO downloads (resource_url, dest, size_bytes, finished_at) VALUES (?, ?, ?, ?)`,
		e.ResourceURL, e.Dest, e.Size, e.FinishedAt.UTC(),
	)
	if err != nil {
		return fmt.Errorf("history: record: %w", err)
	}
	return nil
}

// Downloaded reports whether a resource URL has ever been downloaded.
func (s *Store) Downloaded(ctx context.Context, resourceURL string) (bool, error) {
	var n int
	err := s.db.QueryRowContext(ctx,
		`SELECT COUNT(1) FROM downloads WHERE resource_url = ?`, resourceURL,
	).Scan(&n)
	if err != nil {
		return false, fmt.Errorf("history: lookup: %w", err)
	}
	return n > 0, nil
}

// Recent returns the most recent downloads, newest first, at most limit.
func (s *Store) Recent(ctx context.Context, limit int) ([]Entry, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT resource_url, dest, size_bytes, finished_at
		 FROM downloads ORDER BY finished_at DESC, id DESC LIMIT ?`, limit,
	)
	if err != nil {
		return nil, fmt.Errorf("history: recent: %w", err)
	}
	defer rows.Close()

	var out []Entry
	for rows.Next() {
		var e Entry
		if err := rows.Scan(&e.ResourceURL, &e.Dest, &e.Size, &e.FinishedAt); err != nil {
			return nil, fmt.Errorf("history: scan: %w", err)
		}
		out = append(out, e)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("history: iterate: %w", err)
	}
	return out, nil
}
