// Package store handles SQLite persistence of athlete metadata.
package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/verte-zerg/pcrtt/internal/model"

	_ "modernc.org/sqlite" // SQLite driver.
)

// fixed width so fetched_at sorts lexically
const timeLayout = "2006-01-02T15:04:05.000000000Z"

// Store caches athlete names and genders between runs.
type Store struct {
	db  *sql.DB
	ttl time.Duration
	now func() time.Time
}

// Open opens or creates the SQLite database and applies migrations.
// Entries older than ttl are treated as missing; ttl <= 0 keeps them forever.
func Open(path string, ttl time.Duration) (*Store, error) {
	if path != ":memory:" {
		if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
			return nil, fmt.Errorf("failed to create cache dir: %w", err)
		}
	}
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("failed to open cache: %w", err)
	}
	db.SetMaxOpenConns(1)
	store := &Store{db: db, ttl: ttl, now: time.Now}
	if err := store.migrate(); err != nil {
		if cerr := db.Close(); cerr != nil {
			// Best-effort close on migration failure.
			_ = cerr
		}
		return nil, fmt.Errorf("failed to migrate cache: %w", err)
	}
	return store, nil
}

// Close closes the underlying database.
func (s *Store) Close() error {
	return s.db.Close()
}

func (s *Store) migrate() error {
	stmts := []string{
		`CREATE TABLE IF NOT EXISTS athletes (
			id INTEGER PRIMARY KEY,
			firstname TEXT NOT NULL,
			lastname TEXT NOT NULL,
			sex TEXT NOT NULL,
			fetched_at TEXT NOT NULL
		);`,
		`CREATE INDEX IF NOT EXISTS idx_athletes_fetched_at ON athletes(fetched_at);`,
	}
	for _, stmt := range stmts {
		if _, err := s.db.Exec(stmt); err != nil {
			return err
		}
	}
	return nil
}

// GetAthlete returns a cached athlete. ok is false when the id is unknown or stale.
func (s *Store) GetAthlete(ctx context.Context, athleteID int64) (model.Athlete, bool, error) {
	var (
		a         model.Athlete
		fetchedAt string
	)
	err := s.db.QueryRowContext(ctx,
		`SELECT id, firstname, lastname, sex, fetched_at FROM athletes WHERE id = ?`, athleteID,
	).Scan(&a.ID, &a.FirstName, &a.LastName, &a.Gender, &fetchedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return model.Athlete{}, false, nil
	}
	if err != nil {
		return model.Athlete{}, false, err
	}
	if s.ttl > 0 {
		fetched, err := time.Parse(timeLayout, fetchedAt)
		if err != nil {
			return model.Athlete{}, false, err
		}
		if s.now().Sub(fetched) > s.ttl {
			return model.Athlete{}, false, nil
		}
	}
	return a, true, nil
}

// PutAthlete inserts or refreshes an athlete.
func (s *Store) PutAthlete(ctx context.Context, a model.Athlete) error {
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO athletes (id, firstname, lastname, sex, fetched_at)
		 VALUES (?, ?, ?, ?, ?)
		 ON CONFLICT(id) DO UPDATE SET
			firstname = excluded.firstname,
			lastname = excluded.lastname,
			sex = excluded.sex,
			fetched_at = excluded.fetched_at`,
		a.ID, a.FirstName, a.LastName, a.Gender, s.now().UTC().Format(timeLayout),
	)
	return err
}

// Prune deletes entries older than the TTL and reports how many were removed.
func (s *Store) Prune(ctx context.Context) (int64, error) {
	if s.ttl <= 0 {
		return 0, nil
	}
	cutoff := s.now().Add(-s.ttl).UTC().Format(timeLayout)
	res, err := s.db.ExecContext(ctx, `DELETE FROM athletes WHERE fetched_at < ?`, cutoff)
	if err != nil {
		return 0, err
	}
	return res.RowsAffected()
}

// Count returns the number of cached athletes.
func (s *Store) Count(ctx context.Context) (int, error) {
	var n int
	if err := s.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM athletes`).Scan(&n); err != nil {
		return 0, err
	}
	return n, nil
}
