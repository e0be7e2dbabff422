package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	sqlite3 "github.com/mattn/go-sqlite3"

	"github.com/tiendamoda/reclass/internal/common"
	"github.com/tiendamoda/reclass/internal/model"
)

// BeginRun inserts a new run row in the running state. The unique index on
// the generated running marker is the single authoritative mutual-exclusion
// point: a unique violation means another run is already in flight and is
// surfaced as common.ErrRunAlreadyRunning.
func (s *SQLiteStorage) BeginRun(ctx context.Context, run *model.ReseedRun) (int64, error) {
	if err := validateContext(ctx); err != nil {
		return 0, err
	}
	run.Status = model.RunRunning
	if run.StartedAt.IsZero() {
		run.StartedAt = time.Now()
	}
	if err := validateRun(run); err != nil {
		return 0, err
	}

	res, err := s.db.ExecContext(ctx, `
		INSERT INTO auto_reseed_runs (
			run_trigger, status, reason, started_at,
			pending_count, source, run_key
		) VALUES (?, ?, ?, ?, ?, ?, ?)
	`,
		string(run.Trigger), string(run.Status), run.Reason, run.StartedAt,
		run.PendingCount, run.Source, run.RunKey,
	)
	if err != nil {
		if isUniqueViolation(err) {
			return 0, common.ErrRunAlreadyRunning
		}
		return 0, fmt.Errorf("failed to insert run row: %w", err)
	}

	id, err := res.LastInsertId()
	if err != nil {
		return 0, fmt.Errorf("failed to get run id: %w", err)
	}
	run.ID = id
	return id, nil
}

// FinalizeRun records a run's terminal state exactly once.
func (s *SQLiteStorage) FinalizeRun(ctx context.Context, id int64, status model.RunStatus, reason string, scanned, proposed, enqueued int, runErr string) error {
	if err := validateContext(ctx); err != nil {
		return err
	}
	switch status {
	case model.RunCompleted, model.RunSkipped, model.RunFailed:
	default:
		return fmt.Errorf("%w: %q is not a terminal status", ErrInvalidRun, status)
	}

	res, err := s.db.ExecContext(ctx, `
		UPDATE auto_reseed_runs
		SET status = ?, reason = ?, completed_at = ?,
		    scanned = ?, proposed = ?, enqueued = ?, error = ?
		WHERE id = ? AND status = 'running'
	`,
		string(status), reason, time.Now(),
		scanned, proposed, enqueued, runErr,
		id,
	)
	if err != nil {
		return fmt.Errorf("failed to finalize run %d: %w", id, err)
	}
	n, _ := res.RowsAffected()
	if n == 0 {
		return fmt.Errorf("%w: running row %d", common.ErrNotFound, id)
	}
	return nil
}

// RecordSkippedRun inserts a terminal skipped row for admission pre-check
// failures. Such rows never pass through the running state.
func (s *SQLiteStorage) RecordSkippedRun(ctx context.Context, run *model.ReseedRun) (int64, error) {
	if err := validateContext(ctx); err != nil {
		return 0, err
	}
	run.Status = model.RunSkipped
	now := time.Now()
	if run.StartedAt.IsZero() {
		run.StartedAt = now
	}
	if err := validateRun(run); err != nil {
		return 0, err
	}

	res, err := s.db.ExecContext(ctx, `
		INSERT INTO auto_reseed_runs (
			run_trigger, status, reason, started_at, completed_at,
			pending_count, source, run_key
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?)
	`,
		string(run.Trigger), string(run.Status), run.Reason, run.StartedAt, now,
		run.PendingCount, run.Source, run.RunKey,
	)
	if err != nil {
		return 0, fmt.Errorf("failed to insert skipped run row: %w", err)
	}
	id, err := res.LastInsertId()
	if err != nil {
		return 0, fmt.Errorf("failed to get run id: %w", err)
	}
	run.ID = id
	return id, nil
}

// SweepStaleRuns flips running rows older than the staleness window to
// failed, unblocking future runs after a crash. Returns the number of rows
// swept.
func (s *SQLiteStorage) SweepStaleRuns(ctx context.Context, olderThan time.Duration) (int, error) {
	if err := validateContext(ctx); err != nil {
		return 0, err
	}
	if olderThan <= 0 {
		return 0, fmt.Errorf("staleness window must be positive, got %v", olderThan)
	}

	cutoff := time.Now().Add(-olderThan)
	res, err := s.db.ExecContext(ctx, `
		UPDATE auto_reseed_runs
		SET status = 'failed', reason = ?, completed_at = ?,
		    error = 'run exceeded staleness window'
		WHERE status = 'running' AND started_at < ?
	`, model.ReasonStaleRunningTimeout, time.Now(), cutoff)
	if err != nil {
		return 0, fmt.Errorf("failed to sweep stale runs: %w", err)
	}
	n, _ := res.RowsAffected()
	return int(n), nil
}

// LastCompletedAt returns when the most recent completed run finished, for
// cooldown checks. Returns the zero time when no run completed yet.
func (s *SQLiteStorage) LastCompletedAt(ctx context.Context) (time.Time, error) {
	if err := validateContext(ctx); err != nil {
		return time.Time{}, err
	}

	// Select the bare column rather than MAX(): an aggregate loses the
	// DATETIME decltype and the driver would hand back a string.
	var completed time.Time
	err := s.db.QueryRowContext(ctx, `
		SELECT completed_at FROM auto_reseed_runs
		WHERE status = 'completed'
		ORDER BY completed_at DESC
		LIMIT 1
	`).Scan(&completed)
	if errors.Is(err, sql.ErrNoRows) {
		return time.Time{}, nil
	}
	if err != nil {
		return time.Time{}, fmt.Errorf("failed to query last completed run: %w", err)
	}
	return completed, nil
}

// GetRun returns a run audit row by ID.
func (s *SQLiteStorage) GetRun(ctx context.Context, id int64) (*model.ReseedRun, error) {
	if err := validateContext(ctx); err != nil {
		return nil, err
	}

	row := s.db.QueryRowContext(ctx, `
		SELECT id, run_trigger, status, reason, started_at, completed_at,
		       pending_count, scanned, proposed, enqueued, source, run_key, error
		FROM auto_reseed_runs WHERE id = ?
	`, id)

	run, err := scanRun(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("%w: run %d", common.ErrNotFound, id)
	}
	if err != nil {
		return nil, err
	}
	return run, nil
}

// ListRuns returns the most recent run audit rows, newest first.
func (s *SQLiteStorage) ListRuns(ctx context.Context, limit int) ([]model.ReseedRun, error) {
	if err := validateContext(ctx); err != nil {
		return nil, err
	}
	if limit <= 0 {
		return nil, fmt.Errorf("limit must be positive, got %d", limit)
	}

	rows, err := s.db.QueryContext(ctx, `
		SELECT id, run_trigger, status, reason, started_at, completed_at,
		       pending_count, scanned, proposed, enqueued, source, run_key, error
		FROM auto_reseed_runs
		ORDER BY started_at DESC, id DESC
		LIMIT ?
	`, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to query runs: %w", err)
	}
	defer func() { _ = rows.Close() }()

	var runs []model.ReseedRun
	for rows.Next() {
		run, scanErr := scanRun(rows)
		if scanErr != nil {
			return nil, scanErr
		}
		runs = append(runs, *run)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate runs: %w", err)
	}
	return runs, nil
}

func scanRun(row rowScanner) (*model.ReseedRun, error) {
	var (
		run                  model.ReseedRun
		trigger, status      string
		reason, source       sql.NullString
		runKey, runErr       sql.NullString
		completedAt          sql.NullTime
	)

	err := row.Scan(
		&run.ID, &trigger, &status, &reason, &run.StartedAt, &completedAt,
		&run.PendingCount, &run.Scanned, &run.Proposed, &run.Enqueued,
		&source, &runKey, &runErr,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, err
		}
		return nil, fmt.Errorf("failed to scan run: %w", err)
	}

	run.Trigger = model.RunTrigger(trigger)
	run.Status = model.RunStatus(status)
	run.Reason = reason.String
	run.Source = source.String
	run.RunKey = runKey.String
	run.Error = runErr.String
	if completedAt.Valid {
		t := completedAt.Time
		run.CompletedAt = &t
	}
	return &run, nil
}

// isUniqueViolation reports whether err is a SQLite unique constraint error.
func isUniqueViolation(err error) bool {
	var sqliteErr sqlite3.Error
	if errors.As(err, &sqliteErr) {
		return sqliteErr.ExtendedCode == sqlite3.ErrConstraintUnique ||
			sqliteErr.ExtendedCode == sqlite3.ErrConstraintPrimaryKey
	}
	return false
}
