// Package store caches finished outlines in SQLite, keyed by the content
// hash of the source file and the settings that produced it.
package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	_ "modernc.org/sqlite"

	"github.com/dgallion1/outliner/internal/extract"
	"github.com/dgallion1/outliner/internal/outline"
)

const schema = `
CREATE TABLE IF NOT EXISTS outlines (
	content_hash TEXT NOT NULL,
	model        TEXT NOT NULL,
	title        TEXT NOT NULL,
	outline_json TEXT NOT NULL,
	candidates   INTEGER NOT NULL DEFAULT 0,
	body_size    REAL NOT NULL DEFAULT 0,
	sizes_json   TEXT NOT NULL DEFAULT '[]',
	created_at   INTEGER NOT NULL,
	PRIMARY KEY (content_hash, model)
);
CREATE INDEX IF NOT EXISTS idx_outlines_created ON outlines(created_at);
`

// Columns added after the first release. Older rows read back zero stats.
var migrations = []string{
	`ALTER TABLE outlines ADD COLUMN candidates INTEGER NOT NULL DEFAULT 0`,
	`ALTER TABLE outlines ADD COLUMN body_size REAL NOT NULL DEFAULT 0`,
	`ALTER TABLE outlines ADD COLUMN sizes_json TEXT NOT NULL DEFAULT '[]'`,
}

// Entry is a cached outline with the extraction stats of the run that
// produced it.
type Entry struct {
	Outline    outline.Outline
	Candidates int
	BodySize   float64
	Sizes      []extract.SizeCount
}

// Store is a SQLite-backed outline cache. It is safe for concurrent use.
type Store struct {
	db *sql.DB
}

// Open opens or creates the cache database at path. ":memory:" gives a
// private in-memory cache.
func Open(path string) (*Store, error) {
	if path != ":memory:" {
		if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
			return nil, fmt.Errorf("store: mkdir: %w", err)
		}
	}

	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("store: open: %w", err)
	}
	if path == ":memory:" {
		// Every connection to :memory: is a separate database.
		db.SetMaxOpenConns(1)
	}

	pragmas := []string{
		"PRAGMA journal_mode = WAL",
		"PRAGMA busy_timeout = 10000",
		"PRAGMA synchronous = NORMAL",
	}
	for _, p := range pragmas {
		if _, err := db.Exec(p); err != nil {
			db.Close()
			return nil, fmt.Errorf("store: %s: %w", p, err)
		}
	}
	if _, err := db.Exec(schema); err != nil {
		db.Close()
		return nil, fmt.Errorf("store: schema: %w", err)
	}
	for _, m := range migrations {
		if _, err := db.Exec(m); err != nil && !strings.Contains(err.Error(), "duplicate column") {
			db.Close()
			return nil, fmt.Errorf("store: migrate: %w", err)
		}
	}
	return &Store{db: db}, nil
}

func (s *Store) Close() error {
	return s.db.Close()
}

// Get returns the cached entry. The bool is false on a miss.
func (s *Store) Get(ctx context.Context, contentHash, key string) (Entry, bool, error) {
	var (
		e             Entry
		raw, rawSizes string
	)
	err := s.db.QueryRowContext(ctx,
		`SELECT title, outline_json, candidates, body_size, sizes_json
		 FROM outlines WHERE content_hash = ? AND model = ?`,
		contentHash, key,
	).Scan(&e.Outline.Title, &raw, &e.Candidates, &e.BodySize, &rawSizes)
	if errors.Is(err, sql.ErrNoRows) {
		return Entry{}, false, nil
	}
	if err != nil {
		return Entry{}, false, fmt.Errorf("store: get %s: %w", contentHash, err)
	}

	if err := json.Unmarshal([]byte(raw), &e.Outline.Outline); err != nil {
		return Entry{}, false, fmt.Errorf("store: decode %s: %w", contentHash, err)
	}
	if e.Outline.Outline == nil {
		e.Outline.Outline = []outline.RankedHeading{}
	}
	if err := json.Unmarshal([]byte(rawSizes), &e.Sizes); err != nil {
		return Entry{}, false, fmt.Errorf("store: decode sizes %s: %w", contentHash, err)
	}
	if e.Sizes == nil {
		e.Sizes = []extract.SizeCount{}
	}
	return e, true, nil
}

// Put stores or replaces the entry for a hash and key.
func (s *Store) Put(ctx context.Context, contentHash, key string, e Entry) error {
	headings := e.Outline.Outline
	if headings == nil {
		headings = []outline.RankedHeading{}
	}
	raw, err := json.Marshal(headings)
	if err != nil {
		return fmt.Errorf("store: encode: %w", err)
	}
	sizes := e.Sizes
	if sizes == nil {
		sizes = []extract.SizeCount{}
	}
	rawSizes, err := json.Marshal(sizes)
	if err != nil {
		return fmt.Errorf("store: encode sizes: %w", err)
	}
	_, err = s.db.ExecContext(ctx,
		`INSERT INTO outlines (content_hash, model, title, outline_json, candidates, body_size, sizes_json, created_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?)
		 ON CONFLICT(content_hash, model) DO UPDATE SET
		   title = excluded.title,
		   outline_json = excluded.outline_json,
		   candidates = excluded.candidates,
		   body_size = excluded.body_size,
		   sizes_json = excluded.sizes_json,
		   created_at = excluded.created_at`,
		contentHash, key, e.Outline.Title, string(raw), e.Candidates, e.BodySize, string(rawSizes), time.Now().Unix(),
	)
	if err != nil {
		return fmt.Errorf("store: put %s: %w", contentHash, err)
	}
	return nil
}

// Prune deletes entries older than maxAge and returns how many were removed.
func (s *Store) Prune(ctx context.Context, maxAge time.Duration) (int64, error) {
	cutoff := time.Now().Add(-maxAge).Unix()
	res, err := s.db.ExecContext(ctx, `DELETE FROM outlines WHERE created_at < ?`, cutoff)
	if err != nil {
		return 0, fmt.Errorf("store: prune: %w", err)
	}
	return res.RowsAffected()
}

// Count returns the number of cached outlines.
func (s *Store) Count(ctx context.Context) (int, error) {
	var n int
	if err := s.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM outlines`).Scan(&n); err != nil {
		return 0, fmt.Errorf("store: count: %w", err)
	}
	return n, nil
}
