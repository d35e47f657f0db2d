package ledger

import (
	"context"
	"database/sql"
	_ "embed"
	"errors"
	"fmt"
	"time"

	_ "modernc.org/sqlite"

	"tidy/internal/config"
)

//go:embed schema.sql
var schemaSQL string

// schemaVersion is the current schema version. Bump this when the schema changes.
const schemaVersion = 1

// ErrSchemaMismatch indicates the database schema version doesn't match the expected version.
var ErrSchemaMismatch = errors.New("schema version mismatch")

// ErrNoRuns indicates the ledger holds no run that can satisfy the request.
var ErrNoRuns = errors.New("no runs recorded")

// Store manages the move-history ledger backed by SQLite. WAL journaling keeps
// each appended record independently durable, so a crash mid-append corrupts
// at most the in-flight transaction, never the history.
type Store struct {
	db   *sql.DB
	path string
}

// Open initializes or connects to the ledger database.
func Open(cfg *config.Config) (*Store, error) {
	if err := cfg.EnsureDirectories(); err != nil {
		return nil, fmt.Errorf("ensure directories: %w", err)
	}
	return OpenPath(cfg.LedgerPath())
}

// OpenPath opens the ledger at an explicit database path.
func OpenPath(dbPath string) (*Store, error) {
	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("open sqlite db: %w", err)
	}

	pragmas := []string{
		"PRAGMA journal_mode=WAL",
		"PRAGMA foreign_keys = ON",
		"PRAGMA busy_timeout = 5000",
	}
	for _, pragma := range pragmas {
		if _, execErr := db.Exec(pragma); execErr != nil {
			_ = db.Close()
			return nil, fmt.Errorf("apply pragma %q: %w", pragma, execErr)
		}
	}

	store := &Store{db: db, path: dbPath}
	if err := store.initSchema(context.Background()); err != nil {
		_ = db.Close()
		return nil, err
	}
	return store, nil
}

// Close closes the underlying database connection.
func (s *Store) Close() error {
	if s == nil || s.db == nil {
		return nil
	}
	return s.db.Close()
}

// Path returns the database file location.
func (s *Store) Path() string {
	return s.path
}

func (s *Store) initSchema(ctx context.Context) error {
	var tableExists int
	err := s.db.QueryRowContext(ctx,
		"SELECT COUNT(1) FROM sqlite_master WHERE type='table' AND name='schema_version'",
	).Scan(&tableExists)
	if err != nil {
		return fmt.Errorf("check schema_version table: %w", err)
	}

	if tableExists == 0 {
		tx, err := s.db.BeginTx(ctx, nil)
		if err != nil {
			return fmt.Errorf("begin schema tx: %w", err)
		}
		defer func() { _ = tx.Rollback() }()
		if _, err := tx.ExecContext(ctx, schemaSQL); err != nil {
			return fmt.Errorf("create schema: %w", err)
		}
		return tx.Commit()
	}

	var version int
	if err := s.db.QueryRowContext(ctx, "SELECT version FROM schema_version LIMIT 1").Scan(&version); err != nil {
		return fmt.Errorf("read schema version: %w", err)
	}
	if version != schemaVersion {
		return fmt.Errorf("%w: database has version %d, expected %d (delete %s to reset history)",
			ErrSchemaMismatch, version, schemaVersion, s.path)
	}
	return nil
}

// Append records one successful move under the given run. The run row is
// created on the run's first record, so dry runs and empty runs leave no trace.
func (s *Store) Append(ctx context.Context, runID, trigger string, rec MoveRecord) error {
	if runID == "" {
		return errors.New("run id is empty")
	}
	movedAt := rec.MovedAt
	if movedAt.IsZero() {
		movedAt = time.Now().UTC()
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin append tx: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	if _, err := tx.ExecContext(ctx,
		`INSERT INTO runs (run_id, trigger, started_at) VALUES (?, ?, ?)
         ON CONFLICT(run_id) DO NOTHING`,
		runID, trigger, movedAt.UTC().Format(time.RFC3339Nano),
	); err != nil {
		return fmt.Errorf("insert run: %w", err)
	}

	if _, err := tx.ExecContext(ctx,
		`INSERT INTO move_records (run_id, source_path, destination_path, moved_at)
         VALUES (?, ?, ?, ?)`,
		runID, rec.Source, rec.Destination, movedAt.UTC().Format(time.RFC3339Nano),
	); err != nil {
		return fmt.Errorf("insert move record: %w", err)
	}

	return tx.Commit()
}

// LastRun returns the most recent non-reverted run and its records in append
// order. ErrNoRuns is returned when every run has been reverted or the ledger
// is empty.
func (s *Store) LastRun(ctx context.Context) (*Run, []MoveRecord, error) {
	row := s.db.QueryRowContext(ctx,
		`SELECT run_id, trigger, started_at, reverted FROM runs
         WHERE reverted = 0 ORDER BY started_at DESC, rowid DESC LIMIT 1`)
	run, err := scanRun(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil, ErrNoRuns
	}
	if err != nil {
		return nil, nil, fmt.Errorf("last run: %w", err)
	}

	records, err := s.RecordsForRun(ctx, run.ID)
	if err != nil {
		return nil, nil, err
	}
	run.Records = len(records)
	return run, records, nil
}

// RecordsForRun returns a run's move records in append order.
func (s *Store) RecordsForRun(ctx context.Context, runID string) ([]MoveRecord, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT id, run_id, source_path, destination_path, moved_at
         FROM move_records WHERE run_id = ? ORDER BY id`, runID)
	if err != nil {
		return nil, fmt.Errorf("query records: %w", err)
	}
	defer rows.Close()

	var records []MoveRecord
	for rows.Next() {
		var rec MoveRecord
		var movedAt string
		if err := rows.Scan(&rec.ID, &rec.RunID, &rec.Source, &rec.Destination, &movedAt); err != nil {
			return nil, fmt.Errorf("scan record: %w", err)
		}
		rec.MovedAt, err = time.Parse(time.RFC3339Nano, movedAt)
		if err != nil {
			return nil, fmt.Errorf("parse moved_at %q: %w", movedAt, err)
		}
		records = append(records, rec)
	}
	return records, rows.Err()
}

// MarkReverted flags a run as reverted. Reverted runs are no longer
// candidates for undo.
func (s *Store) MarkReverted(ctx context.Context, runID string) error {
	res, err := s.db.ExecContext(ctx, `UPDATE runs SET reverted = 1 WHERE run_id = ?`, runID)
	if err != nil {
		return fmt.Errorf("mark reverted: %w", err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("rows affected: %w", err)
	}
	if affected == 0 {
		return fmt.Errorf("%w: run %s", ErrNoRuns, runID)
	}
	return nil
}

// Runs lists the most recent runs, newest first, with their record counts.
// A limit <= 0 returns every run.
func (s *Store) Runs(ctx context.Context, limit int) ([]Run, error) {
	query := `SELECT r.run_id, r.trigger, r.started_at, r.reverted,
                     (SELECT COUNT(1) FROM move_records m WHERE m.run_id = r.run_id)
              FROM runs r ORDER BY r.started_at DESC, r.rowid DESC`
	var (
		rows *sql.Rows
		err  error
	)
	if limit > 0 {
		rows, err = s.db.QueryContext(ctx, query+` LIMIT ?`, limit)
	} else {
		rows, err = s.db.QueryContext(ctx, query)
	}
	if err != nil {
		return nil, fmt.Errorf("query runs: %w", err)
	}
	defer rows.Close()

	var result []Run
	for rows.Next() {
		var run Run
		var startedAt string
		var reverted int
		if err := rows.Scan(&run.ID, &run.Trigger, &startedAt, &reverted, &run.Records); err != nil {
			return nil, fmt.Errorf("scan run: %w", err)
		}
		run.StartedAt, err = time.Parse(time.RFC3339Nano, startedAt)
		if err != nil {
			return nil, fmt.Errorf("parse started_at %q: %w", startedAt, err)
		}
		run.Reverted = reverted != 0
		result = append(result, run)
	}
	return result, rows.Err()
}

// MonthlyMoveCounts aggregates recorded moves per calendar month, oldest first.
func (s *Store) MonthlyMoveCounts(ctx context.Context) ([]MonthCount, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT strftime('%Y-%m', moved_at) AS month, COUNT(1)
         FROM move_records GROUP BY month ORDER BY month`)
	if err != nil {
		return nil, fmt.Errorf("query monthly counts: %w", err)
	}
	defer rows.Close()

	var counts []MonthCount
	for rows.Next() {
		var mc MonthCount
		if err := rows.Scan(&mc.Month, &mc.Moves); err != nil {
			return nil, fmt.Errorf("scan monthly count: %w", err)
		}
		counts = append(counts, mc)
	}
	return counts, rows.Err()
}

func scanRun(row *sql.Row) (*Run, error) {
	var run Run
	var startedAt string
	var reverted int
	if err := row.Scan(&run.ID, &run.Trigger, &startedAt, &reverted); err != nil {
		return nil, err
	}
	parsed, err := time.Parse(time.RFC3339Nano, startedAt)
	if err != nil {
		return nil, fmt.Errorf("parse started_at %q: %w", startedAt, err)
	}
	run.StartedAt = parsed
	run.Reverted = reverted != 0
	return &run, nil
}
