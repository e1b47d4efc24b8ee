package db

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/j-veylop/supervision-hours/internal/models"
)

const runColumns = `
	id, started_at, finished_at, window_start, window_end, mode, input,
	status, error, row_count, anomaly_count, direct_hours, supervision_hours,
	report_path`

// InsertRun records the start of a run. An empty ID is filled with a new UUID.
func (db *DB) InsertRun(ctx context.Context, run *models.RunSummary) error {
	if run.ID == "" {
		run.ID = uuid.NewString()
	}
	if run.StartedAt.IsZero() {
		run.StartedAt = time.Now()
	}
	if run.Status == "" {
		run.Status = models.RunRunning
	}

	query := `
		INSERT INTO runs (id, started_at, window_start, window_end, mode, input, status)
		VALUES (?, ?, ?, ?, ?, ?, ?)
	`
	_, err := db.ExecContext(ctx, query,
		run.ID,
		formatTime(run.StartedAt),
		formatTime(run.Window.Start),
		formatTime(run.Window.End),
		string(run.Mode),
		nullString(run.Input),
		string(run.Status),
	)
	if err != nil {
		return fmt.Errorf("failed to insert run: %w", err)
	}
	return nil
}

// FinishRun stores the outcome of a run.
func (db *DB) FinishRun(ctx context.Context, run *models.RunSummary) error {
	if run.FinishedAt.IsZero() {
		run.FinishedAt = time.Now()
	}

	query := `
		UPDATE runs SET
			finished_at = ?, status = ?, error = ?, row_count = ?, anomaly_count = ?,
			direct_hours = ?, supervision_hours = ?, report_path = ?
		WHERE id = ?
	`
	result, err := db.ExecContext(ctx, query,
		formatTime(run.FinishedAt),
		string(run.Status),
		nullString(run.Error),
		run.RowCount,
		run.AnomalyCount,
		run.DirectHours.String(),
		run.SupervisionHours.String(),
		nullString(run.ReportPath),
		run.ID,
	)
	if err != nil {
		return fmt.Errorf("failed to finish run: %w", err)
	}
	if n, err := result.RowsAffected(); err == nil && n == 0 {
		return fmt.Errorf("failed to finish run %s: %w", run.ID, ErrNoRows)
	}
	return nil
}

// GetRun returns one run by id.
func (db *DB) GetRun(ctx context.Context, id string) (*models.RunSummary, error) {
	row := db.QueryRowContext(ctx, `SELECT `+runColumns+` FROM runs WHERE id = ?`, id)
	run, err := scanRun(row)
	if err != nil {
		return nil, fmt.Errorf("failed to get run %s: %w", id, err)
	}
	return run, nil
}

// GetLatestRun returns the most recent successful run.
func (db *DB) GetLatestRun(ctx context.Context) (*models.RunSummary, error) {
	query := `SELECT ` + runColumns + ` FROM runs
		WHERE status = ?
		ORDER BY started_at DESC
		LIMIT 1`
	run, err := scanRun(db.QueryRowContext(ctx, query, string(models.RunSucceeded)))
	if err != nil {
		return nil, fmt.Errorf("failed to get latest run: %w", err)
	}
	return run, nil
}

// GetRecentRuns returns up to limit runs, newest first.
func (db *DB) GetRecentRuns(ctx context.Context, limit int) ([]models.RunSummary, error) {
	query := `SELECT ` + runColumns + ` FROM runs ORDER BY started_at DESC LIMIT ?`

	rows, err := db.QueryContext(ctx, query, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to query recent runs: %w", err)
	}
	defer func() { _ = rows.Close() }()

	var runs []models.RunSummary
	for rows.Next() {
		run, err := scanRun(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan run: %w", err)
		}
		runs = append(runs, *run)
	}

	return runs, rows.Err()
}

// LatestWindowEnd returns the window end of the newest successful run. ok is
// false when no run has succeeded yet.
func (db *DB) LatestWindowEnd(ctx context.Context) (end time.Time, ok bool, err error) {
	var value sql.NullString
	err = db.QueryRowContext(ctx,
		`SELECT MAX(window_end) FROM runs WHERE status = ?`,
		string(models.RunSucceeded),
	).Scan(&value)
	if err != nil {
		return time.Time{}, false, fmt.Errorf("failed to query latest window: %w", err)
	}
	if !value.Valid {
		return time.Time{}, false, nil
	}
	end, ok = parseTimeString(value.String)
	return end, ok, nil
}

// DeleteRunsBefore removes runs started before cutoff together with their
// rows and anomalies.
func (db *DB) DeleteRunsBefore(ctx context.Context, cutoff time.Time) (int64, error) {
	tx, err := db.BeginTx(ctx, nil)
	if err != nil {
		return 0, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	old := `SELECT id FROM runs WHERE started_at < ?`
	for _, table := range []string{"report_rows", "anomalies"} {
		if _, err := tx.ExecContext(ctx, `DELETE FROM `+table+` WHERE run_id IN (`+old+`)`, formatTime(cutoff)); err != nil {
			return 0, fmt.Errorf("failed to delete old %s: %w", table, err)
		}
	}
	result, err := tx.ExecContext(ctx, `DELETE FROM runs WHERE started_at < ?`, formatTime(cutoff))
	if err != nil {
		return 0, fmt.Errorf("failed to delete old runs: %w", err)
	}
	n, err := result.RowsAffected()
	if err != nil {
		return 0, err
	}

	if err := tx.Commit(); err != nil {
		return 0, fmt.Errorf("failed to commit run cleanup: %w", err)
	}
	return n, nil
}

type scanner interface {
	Scan(dest ...any) error
}

func scanRun(s scanner) (*models.RunSummary, error) {
	var (
		run                          models.RunSummary
		startedAt, windowStart, wEnd string
		finishedAt, input, errStr    sql.NullString
		reportPath                   sql.NullString
		mode, status                 string
		direct, supervision          sql.NullString
	)

	err := s.Scan(
		&run.ID,
		&startedAt,
		&finishedAt,
		&windowStart,
		&wEnd,
		&mode,
		&input,
		&status,
		&errStr,
		&run.RowCount,
		&run.AnomalyCount,
		&direct,
		&supervision,
		&reportPath,
	)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNoRows
	}
	if err != nil {
		return nil, err
	}

	run.StartedAt, _ = parseTimeString(startedAt)
	if finishedAt.Valid {
		run.FinishedAt, _ = parseTimeString(finishedAt.String)
	}
	run.Window.Start, _ = parseTimeString(windowStart)
	run.Window.End, _ = parseTimeString(wEnd)
	run.Mode = models.InputMode(mode)
	run.Status = models.RunStatus(status)
	run.Input = input.String
	run.Error = errStr.String
	run.ReportPath = reportPath.String
	run.DirectHours = parseDecimal(direct)
	run.SupervisionHours = parseDecimal(supervision)

	return &run, nil
}

func parseDecimal(s sql.NullString) decimal.Decimal {
	if !s.Valid {
		return decimal.Zero
	}
	d, err := decimal.NewFromString(s.String)
	if err != nil {
		return decimal.Zero
	}
	return d
}

// nullString returns a sql.NullString from a string.
func nullString(s string) sql.NullString {
	if s == "" {
		return sql.NullString{}
	}
	return sql.NullString{String: s, Valid: true}
}
