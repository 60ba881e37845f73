// Package store persists bootstrap run history to SQLite under the user
// config directory.
package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/google/uuid"
	_ "github.com/mattn/go-sqlite3"
)

var (
	ErrNoRuns      = errors.New("no recorded runs")
	ErrRunNotFound = errors.New("run not found")
)

type Store struct {
	db   *sql.DB
	path string
}

// DefaultPath resolves the history database location.
func DefaultPath() (string, error) {
	configDir, err := os.UserConfigDir()
	if err != nil {
		return "", fmt.Errorf("resolve user config dir: %w", err)
	}
	return filepath.Join(configDir, "envboot", "history.db"), nil
}

// Open creates the parent directory if needed and opens the database.
func Open(path string) (*Store, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0o700); err != nil {
		return nil, fmt.Errorf("create store directory: %w", err)
	}

	db, err := sql.Open("sqlite3", path+"?_journal_mode=WAL&_busy_timeout=5000")
	if err != nil {
		return nil, fmt.Errorf("open sqlite: %w", err)
	}
	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("ping sqlite: %w", err)
	}
	return &Store{db: db, path: path}, nil
}

func (s *Store) Path() string {
	return s.path
}

func (s *Store) Close() error {
	return s.db.Close()
}

func (s *Store) Migrate() error {
	schema := `
	CREATE TABLE IF NOT EXISTS runs (
		id TEXT PRIMARY KEY,
		manifest_path TEXT NOT NULL,
		description TEXT NOT NULL DEFAULT '',
		status TEXT NOT NULL,
		failure_class TEXT NOT NULL DEFAULT '',
		failed_step TEXT NOT NULL DEFAULT '',
		failed_index INTEGER,
		exit_code INTEGER,
		started_at TIMESTAMP NOT NULL,
		ended_at TIMESTAMP
	);

	CREATE TABLE IF NOT EXISTS run_steps (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		run_id TEXT NOT NULL,
		idx INTEGER NOT NULL,
		name TEXT NOT NULL,
		kind TEXT NOT NULL,
		command TEXT NOT NULL,
		status TEXT NOT NULL,
		reason TEXT NOT NULL DEFAULT '',
		exit_code INTEGER,
		duration_ms INTEGER NOT NULL DEFAULT 0,
		dir TEXT NOT NULL DEFAULT '',
		started_at TIMESTAMP NOT NULL,
		FOREIGN KEY (run_id) REFERENCES runs(id)
	);

	CREATE INDEX IF NOT EXISTS idx_runs_started_at ON runs(started_at);
	CREATE INDEX IF NOT EXISTS idx_run_steps_run_id ON run_steps(run_id);
	`
	if _, err := s.db.Exec(schema); err != nil {
		return fmt.Errorf("migrate schema: %w", err)
	}
	return nil
}

func (s *Store) CreateRun(ctx context.Context, manifestPath, description string, startedAt time.Time) (*Run, error) {
	run := &Run{
		ID:           uuid.NewString(),
		ManifestPath: manifestPath,
		Description:  description,
		Status:       RunStatusRunning,
		StartedAt:    startedAt.UTC(),
	}

	_, err := s.db.ExecContext(ctx,
		`INSERT INTO runs (id, manifest_path, description, status, started_at) VALUES (?, ?, ?, ?, ?)`,
		run.ID, run.ManifestPath, run.Description, run.Status, run.StartedAt,
	)
	if err != nil {
		return nil, fmt.Errorf("insert run: %w", err)
	}
	return run, nil
}

func (s *Store) AddStep(ctx context.Context, rec StepRecord) error {
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO run_steps (run_id, idx, name, kind, command, status, reason, exit_code, duration_ms, dir, started_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		rec.RunID, rec.Index, rec.Name, rec.Kind, rec.Command, rec.Status, rec.Reason,
		nullableInt(rec.ExitCode), rec.DurationMS, rec.Dir, rec.StartedAt.UTC(),
	)
	if err != nil {
		return fmt.Errorf("insert run step: %w", err)
	}
	return nil
}

func (s *Store) FinishRun(ctx context.Context, id string, in FinishInput) error {
	res, err := s.db.ExecContext(ctx,
		`UPDATE runs SET status = ?, failure_class = ?, failed_step = ?, failed_index = ?, exit_code = ?, ended_at = ?
		 WHERE id = ?`,
		in.Status, in.FailureClass, in.FailedStep, nullableInt(in.FailedIndex), nullableInt(in.ExitCode), in.EndedAt.UTC(), id,
	)
	if err != nil {
		return fmt.Errorf("update run: %w", err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("rows affected: %w", err)
	}
	if affected == 0 {
		return ErrRunNotFound
	}
	return nil
}

const runColumns = `r.id, r.manifest_path, r.description, r.status, r.failure_class, r.failed_step,
	r.failed_index, r.exit_code, r.started_at, r.ended_at,
	(SELECT COUNT(*) FROM run_steps st WHERE st.run_id = r.id)`

func (s *Store) RunByID(ctx context.Context, id string) (*Run, error) {
	row := s.db.QueryRowContext(ctx, `SELECT `+runColumns+` FROM runs r WHERE r.id = ?`, id)
	run, err := scanRun(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrRunNotFound
	}
	return run, err
}

func (s *Store) LastRun(ctx context.Context) (*Run, error) {
	row := s.db.QueryRowContext(ctx, `SELECT `+runColumns+` FROM runs r ORDER BY r.started_at DESC, r.id DESC LIMIT 1`)
	run, err := scanRun(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNoRuns
	}
	return run, err
}

func (s *Store) ListRuns(ctx context.Context, limit int) ([]Run, error) {
	if limit <= 0 {
		limit = 10
	}
	rows, err := s.db.QueryContext(ctx,
		`SELECT `+runColumns+` FROM runs r ORDER BY r.started_at DESC, r.id DESC LIMIT ?`, limit)
	if err != nil {
		return nil, fmt.Errorf("query runs: %w", err)
	}
	defer rows.Close()

	var runs []Run
	for rows.Next() {
		run, err := scanRun(rows)
		if err != nil {
			return nil, err
		}
		runs = append(runs, *run)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate runs: %w", err)
	}
	if len(runs) == 0 {
		return nil, ErrNoRuns
	}
	return runs, nil
}

func (s *Store) StepsForRun(ctx context.Context, runID string) ([]StepRecord, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT run_id, idx, name, kind, command, status, reason, exit_code, duration_ms, dir, started_at
		 FROM run_steps WHERE run_id = ? ORDER BY idx ASC`, runID)
	if err != nil {
		return nil, fmt.Errorf("query run steps: %w", err)
	}
	defer rows.Close()

	var steps []StepRecord
	for rows.Next() {
		var rec StepRecord
		var exitCode sql.NullInt64
		if err := rows.Scan(&rec.RunID, &rec.Index, &rec.Name, &rec.Kind, &rec.Command,
			&rec.Status, &rec.Reason, &exitCode, &rec.DurationMS, &rec.Dir, &rec.StartedAt); err != nil {
			return nil, fmt.Errorf("scan run step: %w", err)
		}
		rec.ExitCode = intFromNull(exitCode)
		steps = append(steps, rec)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate run steps: %w", err)
	}
	return steps, nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanRun(row rowScanner) (*Run, error) {
	var run Run
	var failedIndex, exitCode sql.NullInt64
	var endedAt sql.NullTime
	if err := row.Scan(&run.ID, &run.ManifestPath, &run.Description, &run.Status,
		&run.FailureClass, &run.FailedStep, &failedIndex, &exitCode,
		&run.StartedAt, &endedAt, &run.StepCount); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, err
		}
		return nil, fmt.Errorf("scan run: %w", err)
	}
	run.FailedIndex = intFromNull(failedIndex)
	run.ExitCode = intFromNull(exitCode)
	if endedAt.Valid {
		t := endedAt.Time
		run.EndedAt = &t
	}
	return &run, nil
}

func nullableInt(v *int) any {
	if v == nil {
		return nil
	}
	return *v
}

func intFromNull(v sql.NullInt64) *int {
	if !v.Valid {
		return nil
	}
	i := int(v.Int64)
	return &i
}
