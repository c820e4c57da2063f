// Package store keeps a history of scenario runs in SQLite.
package store

import (
	"context"
	"database/sql"
	_ "embed"
	"encoding/json"
	"fmt"

	"github.com/go-gl/mathgl/mgl64"
	_ "github.com/mattn/go-sqlite3"

	"mad-liquid/internal/scenario"
	"mad-liquid/internal/world"
)

//go:embed schema.sql
var schemaSQL string

// Store records scenario reports.
type Store struct {
	db *sql.DB
}

// Open creates or opens the database at path and applies the schema.
func Open(path string) (*Store, error) {
	db, err := sql.Open("sqlite3", path)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}
	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}

	// SQLite allows a single writer.
	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)

	for _, pragma := range []string{
		"PRAGMA journal_mode = WAL",
		"PRAGMA synchronous = NORMAL",
		"PRAGMA busy_timeout = 5000",
		"PRAGMA foreign_keys = ON",
	} {
		if _, err := db.Exec(pragma); err != nil {
			db.Close()
			return nil, fmt.Errorf("failed to execute %q: %w", pragma, err)
		}
	}
	if _, err := db.Exec(schemaSQL); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to apply schema: %w", err)
	}
	return &Store{db: db}, nil
}

// Close closes the database.
func (s *Store) Close() error {
	if s.db == nil {
		return nil
	}
	return s.db.Close()
}

// RecordRun stores a report and its census. Recording the same run ID twice
// is a no-op.
func (s *Store) RecordRun(ctx context.Context, rep scenario.Report) error {
	failures := rep.Failures
	if failures == nil {
		failures = []string{}
	}
	failuresJSON, err := json.Marshal(failures)
	if err != nil {
		return fmt.Errorf("record run: %w", err)
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("record run: %w", err)
	}
	defer tx.Rollback()

	res, err := tx.ExecContext(ctx, `
		INSERT INTO runs (run_id, scenario, steps, idle, pending, xp, failures)
		VALUES (?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(run_id) DO NOTHING
	`, rep.RunID, rep.Scenario, rep.Steps, rep.Idle, rep.Pending, rep.XP, string(failuresJSON))
	if err != nil {
		return fmt.Errorf("record run: %w", err)
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return tx.Commit()
	}

	for _, c := range rep.Census {
		_, err := tx.ExecContext(ctx, `
			INSERT INTO census (run_id, liquid, sources, flowing, top, centroid_x, centroid_y, centroid_z)
			VALUES (?, ?, ?, ?, ?, ?, ?, ?)
		`, rep.RunID, c.Liquid, c.Sources, c.Flowing, c.Top, c.Centroid.X(), c.Centroid.Y(), c.Centroid.Z())
		if err != nil {
			return fmt.Errorf("record census %s: %w", c.Liquid, err)
		}
	}
	return tx.Commit()
}

// RunSummary is one row of the run history.
type RunSummary struct {
	Seq      int64    `json:"seq"`
	RunID    string   `json:"run_id"`
	Scenario string   `json:"scenario"`
	Steps    int      `json:"steps"`
	Idle     bool     `json:"idle"`
	Pending  int      `json:"pending"`
	XP       int      `json:"xp"`
	Failures []string `json:"failures,omitempty"`
}

// Passed reports whether the run met its expectations.
func (r RunSummary) Passed() bool { return len(r.Failures) == 0 }

// Runs lists recorded runs, newest first. An empty name lists every
// scenario; a non-positive limit lists everything.
func (s *Store) Runs(ctx context.Context, name string, limit int) ([]RunSummary, error) {
	if limit <= 0 {
		limit = -1
	}
	rows, err := s.db.QueryContext(ctx, `
		SELECT seq, run_id, scenario, steps, idle, pending, xp, failures
		FROM runs
		WHERE ? = '' OR scenario = ?
		ORDER BY seq DESC
		LIMIT ?
	`, name, name, limit)
	if err != nil {
		return nil, fmt.Errorf("query runs: %w", err)
	}
	defer rows.Close()

	runs := []RunSummary{}
	for rows.Next() {
		var (
			r        RunSummary
			failures string
		)
		if err := rows.Scan(&r.Seq, &r.RunID, &r.Scenario, &r.Steps, &r.Idle, &r.Pending, &r.XP, &failures); err != nil {
			return nil, fmt.Errorf("scan run: %w", err)
		}
		if err := json.Unmarshal([]byte(failures), &r.Failures); err != nil {
			return nil, fmt.Errorf("decode failures of %s: %w", r.RunID, err)
		}
		runs = append(runs, r)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate runs: %w", err)
	}
	return runs, nil
}

// Census returns the stored census of a run, ordered by liquid.
func (s *Store) Census(ctx context.Context, runID string) ([]world.Census, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT liquid, sources, flowing, top, centroid_x, centroid_y, centroid_z
		FROM census
		WHERE run_id = ?
		ORDER BY liquid COLLATE BINARY ASC
	`, runID)
	if err != nil {
		return nil, fmt.Errorf("query census: %w", err)
	}
	defer rows.Close()

	out := []world.Census{}
	for rows.Next() {
		var (
			c       world.Census
			x, y, z float64
		)
		if err := rows.Scan(&c.Liquid, &c.Sources, &c.Flowing, &c.Top, &x, &y, &z); err != nil {
			return nil, fmt.Errorf("scan census: %w", err)
		}
		c.Centroid = mgl64.Vec3{x, y, z}
		out = append(out, c)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate census: %w", err)
	}
	return out, nil
}
