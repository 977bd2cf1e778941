// Package storage persists analysis run snapshots to SQLite, so past runs
// can be listed and re-rendered. Stored snapshots are never consulted by
// aggregation itself.
package storage

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	// SQLite driver.
	_ "github.com/mattn/go-sqlite3"

	"logsift/internal/analyzer"
)

// ErrRunNotFound is returned when a run id does not exist.
var ErrRunNotFound = errors.New("run not found")

// Run is one persisted analysis run.
type Run struct {
	ID           string    `json:"id"`
	CreatedAt    time.Time `json:"created_at"`
	Source       string    `json:"source"`
	TotalEntries int       `json:"total_entries"`
	Malformed    int       `json:"malformed_entries"`
	ErrorCount   int       `json:"error_count"`
	FlaggedIPs   int       `json:"flagged_ips"`
}

// RunStore stores run snapshots in a SQLite database.
type RunStore struct {
	path string
	db   *sql.DB
}

// NewRunStore creates a store for the database at path.
func NewRunStore(path string) *RunStore {
	return &RunStore{path: path}
}

// Open initializes the database connection and creates the schema.
func (s *RunStore) Open() error {
	ctx := context.Background()

	db, err := sql.Open("sqlite3", "file:"+s.path)
	if err != nil {
		return fmt.Errorf("open database: %w", err)
	}

	// SQLite is single-writer.
	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)
	db.SetConnMaxLifetime(0)

	if err := db.PingContext(ctx); err != nil {
		db.Close()
		return fmt.Errorf("ping database: %w", err)
	}

	pragmas := []string{
		"PRAGMA foreign_keys = ON",
		"PRAGMA journal_mode = WAL",
	}
	for _, pragma := range pragmas {
		if _, err := db.ExecContext(ctx, pragma); err != nil {
			db.Close()
			return fmt.Errorf("execute %s: %w", pragma, err)
		}
	}

	schema := `CREATE TABLE IF NOT EXISTS runs (
		id TEXT PRIMARY KEY,
		created_at TIMESTAMP NOT NULL,
		source TEXT NOT NULL,
		total_entries INTEGER NOT NULL,
		malformed_entries INTEGER NOT NULL,
		error_count INTEGER NOT NULL,
		flagged_ips INTEGER NOT NULL,
		stats TEXT NOT NULL
	);
	CREATE INDEX IF NOT EXISTS idx_runs_created_at ON runs(created_at DESC);`

	if _, err := db.ExecContext(ctx, schema); err != nil {
		db.Close()
		return fmt.Errorf("create schema: %w", err)
	}

	s.db = db
	return nil
}

// Close closes the database connection.
func (s *RunStore) Close() error {
	if s.db == nil {
		return nil
	}
	return s.db.Close()
}

// SaveRun persists one snapshot and returns its generated id.
func (s *RunStore) SaveRun(ctx context.Context, stats *analyzer.Stats, source string) (string, error) {
	data, err := json.Marshal(stats)
	if err != nil {
		return "", fmt.Errorf("marshal stats: %w", err)
	}

	id := uuid.New().String()
	errorCount := stats.LevelCounts["ERROR"].Count

	_, err = s.db.ExecContext(ctx,
		`INSERT INTO runs (id, created_at, source, total_entries, malformed_entries, error_count, flagged_ips, stats)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
		id, time.Now().UTC(), source, stats.TotalEntries, stats.MalformedEntries,
		errorCount, len(stats.FlaggedIPs), string(data))
	if err != nil {
		return "", fmt.Errorf("insert run: %w", err)
	}

	return id, nil
}

// ListRuns returns the most recent runs, newest first.
func (s *RunStore) ListRuns(ctx context.Context, limit int) ([]*Run, error) {
	if limit <= 0 {
		limit = 20
	}

	rows, err := s.db.QueryContext(ctx,
		`SELECT id, created_at, source, total_entries, malformed_entries, error_count, flagged_ips
		 FROM runs ORDER BY created_at DESC, id LIMIT ?`, limit)
	if err != nil {
		return nil, fmt.Errorf("query runs: %w", err)
	}
	defer rows.Close()

	var runs []*Run
	for rows.Next() {
		run := &Run{}
		if err := rows.Scan(&run.ID, &run.CreatedAt, &run.Source, &run.TotalEntries,
			&run.Malformed, &run.ErrorCount, &run.FlaggedIPs); err != nil {
			return nil, fmt.Errorf("scan run: %w", err)
		}
		runs = append(runs, run)
	}

	return runs, rows.Err()
}

// GetRun loads the full snapshot for one run id. Short id prefixes are
// accepted when unambiguous.
func (s *RunStore) GetRun(ctx context.Context, id string) (*Run, *analyzer.Stats, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT id, created_at, source, total_entries, malformed_entries, error_count, flagged_ips, stats
		 FROM runs WHERE id LIKE ? ORDER BY created_at DESC LIMIT 2`, id+"%")
	if err != nil {
		return nil, nil, fmt.Errorf("query run: %w", err)
	}
	defer rows.Close()

	var matches []*Run
	var blobs []string
	for rows.Next() {
		run := &Run{}
		var blob string
		if err := rows.Scan(&run.ID, &run.CreatedAt, &run.Source, &run.TotalEntries,
			&run.Malformed, &run.ErrorCount, &run.FlaggedIPs, &blob); err != nil {
			return nil, nil, fmt.Errorf("scan run: %w", err)
		}
		matches = append(matches, run)
		blobs = append(blobs, blob)
	}
	if err := rows.Err(); err != nil {
		return nil, nil, err
	}

	switch len(matches) {
	case 0:
		return nil, nil, ErrRunNotFound
	case 1:
	default:
		return nil, nil, fmt.Errorf("ambiguous run id prefix %q", id)
	}

	var stats analyzer.Stats
	if err := json.Unmarshal([]byte(blobs[0]), &stats); err != nil {
		return nil, nil, fmt.Errorf("unmarshal stats: %w", err)
	}

	return matches[0], &stats, nil
}
