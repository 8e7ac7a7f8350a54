// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package cache persists resolved entries in SQLite so repeated runs do not
// query the metadata providers again.
package cache

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	_ "github.com/mattn/go-sqlite3"

	"github.com/delanoflipse/pretty-bib/pkg/types"
)

// Store is a SQLite-backed resolution cache.
type Store struct {
	db  *sql.DB
	ttl time.Duration
	now func() time.Time
}

// Open opens or creates the cache database described by cfg. The parent
// directory is created when missing.
func Open(cfg types.CacheConfig) (*Store, error) {
	if dir := filepath.Dir(cfg.Path); dir != "" {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, fmt.Errorf("creating cache directory: %w", err)
		}
	}

	db, err := sql.Open("sqlite3", cfg.Path+"?_journal_mode=WAL&_busy_timeout=5000")
	if err != nil {
		return nil, fmt.Errorf("opening cache: %w", err)
	}

	s := &Store{db: db, ttl: cfg.TTL, now: time.Now}
	if err := s.createSchema(); err != nil {
		db.Close()
		return nil, fmt.Errorf("creating schema: %w", err)
	}
	return s, nil
}

// Close releases the database connection.
func (s *Store) Close() error {
	return s.db.Close()
}

func (s *Store) createSchema() error {
	statements := []string{
		`CREATE TABLE IF NOT EXISTS resolutions (
			resolver TEXT NOT NULL,
			doi TEXT NOT NULL,
			entry TEXT NOT NULL,
			fetched_at TEXT NOT NULL,
			PRIMARY KEY (resolver, doi)
		)`,
		`CREATE INDEX IF NOT EXISTS idx_resolutions_fetched_at ON resolutions(fetched_at)`,
	}
	for _, stmt := range statements {
		if _, err := s.db.Exec(stmt); err != nil {
			return fmt.Errorf("executing schema statement: %w", err)
		}
	}
	return nil
}

// Get returns the cached entry for (resolver, doi). Entries older than the
// TTL are treated as missing.
func (s *Store) Get(ctx context.Context, resolver, doi string) (types.Entry, bool, error) {
	var raw, fetched string
	err := s.db.QueryRowContext(ctx,
		`SELECT entry, fetched_at FROM resolutions WHERE resolver = ? AND doi = ?`,
		resolver, doi,
	).Scan(&raw, &fetched)
	if errors.Is(err, sql.ErrNoRows) {
		return types.Entry{}, false, nil
	}
	if err != nil {
		return types.Entry{}, false, fmt.Errorf("reading cache: %w", err)
	}

	if s.ttl > 0 {
		at, err := time.Parse(time.RFC3339Nano, fetched)
		if err != nil || s.now().Sub(at) > s.ttl {
			return types.Entry{}, false, nil
		}
	}

	var e types.Entry
	if err := json.Unmarshal([]byte(raw), &e); err != nil {
		return types.Entry{}, false, fmt.Errorf("decoding cached entry: %w", err)
	}
	return e, true, nil
}

// Put stores e for (resolver, doi), replacing any earlier value.
func (s *Store) Put(ctx context.Context, resolver, doi string, e types.Entry) error {
	raw, err := json.Marshal(e)
	if err != nil {
		return fmt.Errorf("encoding entry: %w", err)
	}
	_, err = s.db.ExecContext(ctx,
		`INSERT INTO resolutions (resolver, doi, entry, fetched_at) VALUES (?, ?, ?, ?)
		 ON CONFLICT(resolver, doi) DO UPDATE SET entry=excluded.entry, fetched_at=excluded.fetched_at`,
		resolver, doi, string(raw), s.now().UTC().Format(time.RFC3339Nano),
	)
	if err != nil {
		return fmt.Errorf("writing cache: %w", err)
	}
	return nil
}

// Stats summarizes the cache contents.
type Stats struct {
	Total      int            `json:"total" yaml:"total"`
	ByResolver map[string]int `json:"by_resolver" yaml:"by_resolver"`
	Expired    int            `json:"expired" yaml:"expired"`
}

// Stats counts cached resolutions per resolver and how many are past the TTL.
func (s *Store) Stats(ctx context.Context) (Stats, error) {
	st := Stats{ByResolver: map[string]int{}}
	rows, err := s.db.QueryContext(ctx, `SELECT resolver, fetched_at FROM resolutions`)
	if err != nil {
		return st, fmt.Errorf("reading cache: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var resolver, fetched string
		if err := rows.Scan(&resolver, &fetched); err != nil {
			return st, fmt.Errorf("scanning cache row: %w", err)
		}
		st.Total++
		st.ByResolver[resolver]++
		if s.ttl > 0 {
			if at, err := time.Parse(time.RFC3339Nano, fetched); err != nil || s.now().Sub(at) > s.ttl {
				st.Expired++
			}
		}
	}
	return st, rows.Err()
}

// Clear deletes every cached resolution and returns how many were removed.
func (s *Store) Clear(ctx context.Context) (int64, error) {
	res, err := s.db.ExecContext(ctx, `DELETE FROM resolutions`)
	if err != nil {
		return 0, fmt.Errorf("clearing cache: %w", err)
	}
	return res.RowsAffected()
}
