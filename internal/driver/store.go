package driver

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	_ "modernc.org/sqlite"
)

const storeSchema = `
CREATE TABLE IF NOT EXISTS findings (
	id         TEXT PRIMARY KEY,
	created_at TEXT NOT NULL,
	class      TEXT NOT NULL,
	message    TEXT NOT NULL,
	source     TEXT NOT NULL,
	iteration  INTEGER NOT NULL
);`

// Store indexes findings in a SQLite database so repeated sessions against
// the same tool accumulate one queryable history.
type Store struct {
	db *sql.DB
}

// OpenStore opens (creating if needed) the findings database at path.
func OpenStore(path string) (*Store, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("driver: open findings db: %w", err)
	}
	if _, err := db.Exec(storeSchema); err != nil {
		db.Close()
		return nil, fmt.Errorf("driver: init findings db: %w", err)
	}
	return &Store{db: db}, nil
}

// Add inserts one finding.
func (s *Store) Add(ctx context.Context, f *Finding) error {
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO findings (id, created_at, class, message, source, iteration) VALUES (?, ?, ?, ?, ?, ?)`,
		f.ID.String(), time.Now().UTC().Format(time.RFC3339), f.Class.String(), f.Message, f.Source, f.Iteration)
	return err
}

// Count returns the number of stored findings.
func (s *Store) Count(ctx context.Context) (int, error) {
	var n int
	err := s.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM findings`).Scan(&n)
	return n, err
}

// Close releases the database handle.
func (s *Store) Close() error {
	return s.db.Close()
}
