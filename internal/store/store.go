// Package store persists completed analysis reports to SQLite: one row per
// run with the scoring columns denormalized for listing and the full report
// as a JSON blob for retrieval.
package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"time"

	"github.com/hazyhaar/siteaudit/engine"
	"github.com/hazyhaar/siteaudit/internal/idgen"
)

const schema = `
CREATE TABLE IF NOT EXISTS reports (
	id            TEXT PRIMARY KEY,
	url           TEXT NOT NULL,
	overall_score INTEGER NOT NULL,
	partial       INTEGER NOT NULL DEFAULT 0,
	report_json   TEXT NOT NULL,
	created_at    INTEGER NOT NULL
);
CREATE INDEX IF NOT EXISTS idx_reports_url ON reports(url, created_at);
CREATE INDEX IF NOT EXISTS idx_reports_created ON reports(created_at);
`

// Store is the report history. Safe for concurrent use; SQLite serializes
// writers behind the busy timeout.
type Store struct {
	db    *sql.DB
	newID idgen.Generator
}

// Option configures a Store.
type Option func(*Store)

// WithIDGenerator sets a custom report ID generator.
func WithIDGenerator(gen idgen.Generator) Option {
	return func(s *Store) { s.newID = gen }
}

// Open opens (or creates) the report database at path with the production
// pragmas applied and the schema ensured. The caller must blank-import
// modernc.org/sqlite.
func Open(path string, opts ...Option) (*Store, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("store: open: %w", err)
	}
	for _, pragma := range []string{
		"PRAGMA journal_mode = WAL",
		"PRAGMA busy_timeout = 10000",
		"PRAGMA synchronous = NORMAL",
		"PRAGMA foreign_keys = ON",
	} {
		if _, err := db.Exec(pragma); err != nil {
			db.Close()
			return nil, fmt.Errorf("store: %s: %w", pragma, err)
		}
	}
	s := New(db, opts...)
	if err := ApplySchema(db); err != nil {
		db.Close()
		return nil, err
	}
	return s, nil
}

// New wraps an already-opened database. Used by tests with :memory:.
func New(db *sql.DB, opts ...Option) *Store {
	s := &Store{db: db, newID: idgen.Prefixed("rpt_", idgen.Default)}
	for _, o := range opts {
		o(s)
	}
	return s
}

// ApplySchema creates the reports table and its indexes.
func ApplySchema(db *sql.DB) error {
	if _, err := db.Exec(schema); err != nil {
		return fmt.Errorf("store: apply schema: %w", err)
	}
	return nil
}

// Record is one stored report. Report is populated by Get and left nil by
// List.
type Record struct {
	ID           string         `json:"id"`
	URL          string         `json:"url"`
	OverallScore int            `json:"overall_score"`
	Partial      bool           `json:"partial"`
	CreatedAt    int64          `json:"created_at"`
	Report       *engine.Report `json:"report,omitempty"`
}

// Insert persists a completed report and returns its assigned ID.
func (s *Store) Insert(ctx context.Context, rep *engine.Report) (string, error) {
	data, err := json.Marshal(rep)
	if err != nil {
		return "", fmt.Errorf("store: marshal report: %w", err)
	}

	id := s.newID()
	_, err = s.db.ExecContext(ctx,
		`INSERT INTO reports (id, url, overall_score, partial, report_json, created_at)
		VALUES (?, ?, ?, ?, ?, ?)`,
		id, rep.URL, rep.OverallScore, rep.Partial(), string(data), time.Now().UnixMilli())
	if err != nil {
		return "", fmt.Errorf("store: insert report: %w", err)
	}
	return id, nil
}

// Get retrieves one stored report, including the full report body.
func (s *Store) Get(ctx context.Context, id string) (*Record, error) {
	var rec Record
	var blob string
	err := s.db.QueryRowContext(ctx,
		`SELECT id, url, overall_score, partial, report_json, created_at
		FROM reports WHERE id = ?`, id).
		Scan(&rec.ID, &rec.URL, &rec.OverallScore, &rec.Partial, &blob, &rec.CreatedAt)
	if err != nil {
		return nil, fmt.Errorf("store: get %s: %w", id, err)
	}

	rec.Report = &engine.Report{}
	if err := json.Unmarshal([]byte(blob), rec.Report); err != nil {
		return nil, fmt.Errorf("store: decode report %s: %w", id, err)
	}
	return &rec, nil
}

// List returns report metadata, newest first, up to limit rows (default 50).
func (s *Store) List(ctx context.Context, limit int) ([]Record, error) {
	if limit <= 0 {
		limit = 50
	}
	rows, err := s.db.QueryContext(ctx,
		`SELECT id, url, overall_score, partial, created_at
		FROM reports ORDER BY created_at DESC, id DESC LIMIT ?`, limit)
	if err != nil {
		return nil, fmt.Errorf("store: list: %w", err)
	}
	defer rows.Close()

	var records []Record
	for rows.Next() {
		var rec Record
		if err := rows.Scan(&rec.ID, &rec.URL, &rec.OverallScore, &rec.Partial, &rec.CreatedAt); err != nil {
			return nil, fmt.Errorf("store: scan: %w", err)
		}
		records = append(records, rec)
	}
	return records, rows.Err()
}

// Cleanup deletes reports older than the retention window. Zero or negative
// days means no cleanup.
func (s *Store) Cleanup(ctx context.Context, days int) error {
	if days <= 0 {
		return nil
	}
	cutoff := time.Now().AddDate(0, 0, -days).UnixMilli()
	if _, err := s.db.ExecContext(ctx, `DELETE FROM reports WHERE created_at < ?`, cutoff); err != nil {
		return fmt.Errorf("store: cleanup: %w", err)
	}
	return nil
}

// Close closes the underlying database.
func (s *Store) Close() error { return s.db.Close() }
