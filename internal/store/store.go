// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package store persists per-run reference records so an interrupted
// batch can resume without re-querying the evidence services. Records
// are keyed by their position in the input; a resumed run reuses the
// longest completed prefix and continues from the first missing or
// provisional entry.
package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"time"

	_ "github.com/mattn/go-sqlite3"

	"github.com/pdiddy/refcheck/pkg/types"
)

// Store manages the resolution cache SQLite database.
type Store struct {
	db *sql.DB
}

// Run is one resolution run's bookkeeping row.
type Run struct {
	ID          string
	InputPath   string
	TotalRefs   int
	StartedAt   time.Time
	CompletedAt time.Time // zero when still in progress
	Cached      int       // final (non-provisional) records persisted
}

// Open opens or creates the cache database at dbPath, creating parent
// directories and the schema as needed.
func Open(cfg types.StoreConfig) (*Store, error) {
	if err := os.MkdirAll(filepath.Dir(cfg.DBPath), 0o755); err != nil {
		return nil, fmt.Errorf("creating store directory: %w", err)
	}

	db, err := sql.Open("sqlite3", cfg.DBPath+"?_journal_mode=WAL&_foreign_keys=on")
	if err != nil {
		return nil, fmt.Errorf("opening database: %w", err)
	}

	s := &Store{db: db}
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
		`CREATE TABLE IF NOT EXISTS runs (
			id TEXT PRIMARY KEY,
			input_path TEXT NOT NULL,
			total_refs INTEGER NOT NULL,
			started_at TEXT NOT NULL,
			completed_at TEXT
		)`,
		`CREATE TABLE IF NOT EXISTS refs (
			run_id TEXT NOT NULL REFERENCES runs(id),
			position INTEGER NOT NULL,
			record TEXT NOT NULL,
			provisional INTEGER NOT NULL DEFAULT 0,
			PRIMARY KEY (run_id, position)
		)`,
		`CREATE INDEX IF NOT EXISTS idx_refs_run ON refs(run_id)`,
	}
	for _, stmt := range statements {
		if _, err := s.db.Exec(stmt); err != nil {
			return fmt.Errorf("executing schema statement: %w", err)
		}
	}
	return nil
}

// BeginRun records a run's identity and input size. Calling it again for
// the same run (a resume) refreshes the input path and size but keeps
// the original start time and cached records.
func (s *Store) BeginRun(ctx context.Context, runID, inputPath string, totalRefs int) error {
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO runs (id, input_path, total_refs, started_at) VALUES (?, ?, ?, ?)
		 ON CONFLICT(id) DO UPDATE SET input_path = excluded.input_path, total_refs = excluded.total_refs`,
		runID, inputPath, totalRefs, time.Now().UTC().Format(time.RFC3339))
	if err != nil {
		return fmt.Errorf("recording run %s: %w", runID, err)
	}
	return nil
}

// CompleteRun stamps a run as finished.
func (s *Store) CompleteRun(ctx context.Context, runID string) error {
	_, err := s.db.ExecContext(ctx,
		`UPDATE runs SET completed_at = ? WHERE id = ?`,
		time.Now().UTC().Format(time.RFC3339), runID)
	if err != nil {
		return fmt.Errorf("completing run %s: %w", runID, err)
	}
	return nil
}

// Append persists one resolved record at its input position. Provisional
// records are ones whose evidence lookups timed out: they are kept for
// reporting but excluded from the resume prefix so a later run retries
// them. Re-appending a position overwrites the earlier record.
func (s *Store) Append(ctx context.Context, runID string, position int, ref *types.Reference, provisional bool) error {
	data, err := json.Marshal(ref)
	if err != nil {
		return fmt.Errorf("marshaling record %d: %w", position, err)
	}

	flag := 0
	if provisional {
		flag = 1
	}
	_, err = s.db.ExecContext(ctx,
		`INSERT OR REPLACE INTO refs (run_id, position, record, provisional) VALUES (?, ?, ?, ?)`,
		runID, position, string(data), flag)
	if err != nil {
		return fmt.Errorf("persisting record %d: %w", position, err)
	}
	return nil
}

// Resume returns the longest prefix of final records for a run, in input
// order. The second return is the position the run should continue from.
// A cache holding more final records than the input has lines means the
// cache belongs to a different input; that is fatal for the run rather
// than silently truncated.
func (s *Store) Resume(ctx context.Context, runID string, totalRefs int) ([]*types.Reference, int, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT position, record FROM refs
		 WHERE run_id = ? AND provisional = 0 ORDER BY position`,
		runID)
	if err != nil {
		return nil, 0, fmt.Errorf("loading cached records: %w", err)
	}
	defer rows.Close()

	var (
		refs  []*types.Reference
		final int
	)
	for rows.Next() {
		var (
			position int
			data     string
		)
		if err := rows.Scan(&position, &data); err != nil {
			return nil, 0, fmt.Errorf("scanning cached record: %w", err)
		}
		final++

		// A gap (missing or provisional entry) ends the usable prefix.
		if position != len(refs) {
			continue
		}
		var ref types.Reference
		if err := json.Unmarshal([]byte(data), &ref); err != nil {
			return nil, 0, fmt.Errorf("decoding cached record %d: %w", position, err)
		}
		refs = append(refs, &ref)
	}
	if err := rows.Err(); err != nil {
		return nil, 0, fmt.Errorf("reading cached records: %w", err)
	}

	if final > totalRefs {
		return nil, 0, fmt.Errorf(
			"cache for run %s holds %d records but the input has only %d references; refusing to resume",
			runID, final, totalRefs)
	}
	return refs, len(refs), nil
}

// Records returns every persisted record for a run in input order,
// including provisional ones. Used for reporting on partial runs.
func (s *Store) Records(ctx context.Context, runID string) ([]*types.Reference, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT record FROM refs WHERE run_id = ? ORDER BY position`, runID)
	if err != nil {
		return nil, fmt.Errorf("loading records: %w", err)
	}
	defer rows.Close()

	var refs []*types.Reference
	for rows.Next() {
		var data string
		if err := rows.Scan(&data); err != nil {
			return nil, fmt.Errorf("scanning record: %w", err)
		}
		var ref types.Reference
		if err := json.Unmarshal([]byte(data), &ref); err != nil {
			return nil, fmt.Errorf("decoding record: %w", err)
		}
		refs = append(refs, &ref)
	}
	return refs, rows.Err()
}

// Runs lists all runs, most recently started first.
func (s *Store) Runs(ctx context.Context) ([]Run, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT r.id, r.input_path, r.total_refs, r.started_at, COALESCE(r.completed_at, ''),
		        (SELECT COUNT(*) FROM refs WHERE run_id = r.id AND provisional = 0)
		 FROM runs r ORDER BY r.started_at DESC`)
	if err != nil {
		return nil, fmt.Errorf("listing runs: %w", err)
	}
	defer rows.Close()

	var runs []Run
	for rows.Next() {
		var (
			run                  Run
			startedAt, completed string
		)
		if err := rows.Scan(&run.ID, &run.InputPath, &run.TotalRefs, &startedAt, &completed, &run.Cached); err != nil {
			return nil, fmt.Errorf("scanning run: %w", err)
		}
		if t, err := time.Parse(time.RFC3339, startedAt); err == nil {
			run.StartedAt = t
		}
		if completed != "" {
			if t, err := time.Parse(time.RFC3339, completed); err == nil {
				run.CompletedAt = t
			}
		}
		runs = append(runs, run)
	}
	return runs, rows.Err()
}
