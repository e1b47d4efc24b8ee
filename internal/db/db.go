// Package db is the SQLite run history: one row per pipeline run, with the
// report rows and anomalies it produced.
package db

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"path/filepath"

	// Import modernc.org/sqlite as a blank import to register the driver
	_ "modernc.org/sqlite"
)

// DB wraps the SQL database connection with application-specific methods.
type DB struct {
	*sql.DB
	path string
}

// New opens or creates the history database at path, creating parent
// directories and the schema as needed.
func New(path string) (*DB, error) {
	dir := filepath.Dir(path)
	if dir != "" && dir != "." {
		if err := os.MkdirAll(dir, 0o750); err != nil {
			return nil, fmt.Errorf("failed to create database directory: %w", err)
		}
	}

	sqlDB, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	if err := sqlDB.PingContext(context.Background()); err != nil {
		_ = sqlDB.Close()
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}

	db := &DB{
		DB:   sqlDB,
		path: path,
	}

	if err := db.configure(); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("failed to configure database: %w", err)
	}

	if err := db.createSchema(); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("failed to create schema: %w", err)
	}

	return db, nil
}

// Path returns the database file path.
func (db *DB) Path() string {
	return db.path
}

var pragmas = []string{
	"PRAGMA journal_mode=WAL",
	"PRAGMA synchronous=NORMAL",
	"PRAGMA busy_timeout=5000",
	"PRAGMA foreign_keys=ON",
	"PRAGMA temp_store=MEMORY",
}

func (db *DB) configure() error {
	for _, p := range pragmas {
		if _, err := db.ExecContext(context.Background(), p); err != nil {
			return fmt.Errorf("%s: %w", p, err)
		}
	}
	return nil
}

// schema holds one statement per table, each followed by its indexes.
// Hours are TEXT so decimal values round-trip without float error.
var schema = []string{
	`CREATE TABLE IF NOT EXISTS runs (
		id                TEXT PRIMARY KEY,
		started_at        TEXT NOT NULL,
		finished_at       TEXT,
		window_start      TEXT NOT NULL,
		window_end        TEXT NOT NULL,
		mode              TEXT NOT NULL,
		input             TEXT,
		status            TEXT NOT NULL DEFAULT 'running',
		error             TEXT,
		row_count         INTEGER DEFAULT 0,
		anomaly_count     INTEGER DEFAULT 0,
		direct_hours      TEXT DEFAULT '0',
		supervision_hours TEXT DEFAULT '0',
		report_path       TEXT
	);
	CREATE INDEX IF NOT EXISTS idx_runs_started ON runs(started_at);
	CREATE INDEX IF NOT EXISTS idx_runs_status ON runs(status);`,

	`CREATE TABLE IF NOT EXISTS report_rows (
		id                 INTEGER PRIMARY KEY AUTOINCREMENT,
		run_id             TEXT NOT NULL REFERENCES runs(id) ON DELETE CASCADE,
		position           INTEGER NOT NULL,
		clinic             TEXT NOT NULL,
		provider_id        TEXT NOT NULL,
		provider_name      TEXT,
		direct_hours       TEXT NOT NULL,
		supervision_hours  TEXT NOT NULL,
		pct_supervised     TEXT,
		unsupervised_hours TEXT NOT NULL,
		credential_codes   INTEGER DEFAULT 0,
		credential_hours   TEXT DEFAULT '0',
		flags              TEXT
	);
	CREATE INDEX IF NOT EXISTS idx_report_rows_run ON report_rows(run_id, position);
	CREATE INDEX IF NOT EXISTS idx_report_rows_clinic ON report_rows(clinic);`,

	`CREATE TABLE IF NOT EXISTS anomalies (
		id          INTEGER PRIMARY KEY AUTOINCREMENT,
		run_id      TEXT NOT NULL REFERENCES runs(id) ON DELETE CASCADE,
		kind        TEXT NOT NULL,
		message     TEXT NOT NULL,
		client_id   TEXT,
		provider_id TEXT,
		location    TEXT,
		value       TEXT
	);
	CREATE INDEX IF NOT EXISTS idx_anomalies_run ON anomalies(run_id);`,
}

func (db *DB) createSchema() error {
	for _, ddl := range schema {
		if _, err := db.ExecContext(context.Background(), ddl); err != nil {
			return err
		}
	}
	return nil
}

// Close truncates the WAL into the main file, then closes the pool.
func (db *DB) Close() error {
	_, _ = db.ExecContext(context.Background(), "PRAGMA wal_checkpoint(TRUNCATE)")
	return db.DB.Close()
}

// Vacuum rebuilds the file to hand pages freed by pruning back to the OS.
func (db *DB) Vacuum() error {
	_, err := db.ExecContext(context.Background(), "VACUUM")
	return err
}
