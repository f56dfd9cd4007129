// Package journal persists per-document run outcomes in SQLite so a crashed
// process can find the runs it abandoned and re-deliver their documents on
// the next start.
package journal

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	"github.com/google/uuid"
	_ "modernc.org/sqlite"

	"github.com/parvezamm3/receipt-agent/constants"
)

// Journal records run lifecycle events.
type Journal struct {
	db     *sql.DB
	logger *slog.Logger
}

// Open opens (and creates if needed) the journal database at path and
// ensures the run_journal table exists.
func Open(ctx context.Context, path string, logger *slog.Logger) (*Journal, error) {
	if path == "" {
		return nil, fmt.Errorf("journal path is empty")
	}
	if logger == nil {
		logger = slog.Default()
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, fmt.Errorf("create journal directory: %w", err)
	}

	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("open journal: %w", err)
	}

	pctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	if _, err := db.ExecContext(pctx, "PRAGMA foreign_keys = ON;"); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("enable foreign_keys: %w", err)
	}
	if _, err := db.ExecContext(pctx, "PRAGMA busy_timeout = 5000;"); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("set busy_timeout: %w", err)
	}
	if err := bootstrap(ctx, db); err != nil {
		_ = db.Close()
		return nil, err
	}
	return &Journal{db: db, logger: logger}, nil
}

func bootstrap(ctx context.Context, db *sql.DB) error {
	stmts := []string{
		`CREATE TABLE IF NOT EXISTS run_journal (
  id             TEXT PRIMARY KEY,
  source_path    TEXT NOT NULL,
  status         TEXT NOT NULL,
  filed_name     TEXT,
  failure_reason TEXT,
  started_at     TEXT NOT NULL,
  finished_at    TEXT
);`,
		`CREATE INDEX IF NOT EXISTS run_journal_status_idx ON run_journal(status);`,
	}
	for _, stmt := range stmts {
		if _, err := db.ExecContext(ctx, stmt); err != nil {
			return fmt.Errorf("bootstrap journal: %w", err)
		}
	}
	return nil
}

// Begin records a new running entry and returns its id.
func (j *Journal) Begin(ctx context.Context, sourcePath string) (string, error) {
	id := uuid.NewString()
	_, err := j.db.ExecContext(ctx,
		`INSERT INTO run_journal (id, source_path, status, started_at) VALUES (?, ?, ?, ?)`,
		id, sourcePath, string(constants.RunStatusRunning), time.Now().UTC().Format(time.RFC3339),
	)
	if err != nil {
		return "", fmt.Errorf("journal begin: %w", err)
	}
	return id, nil
}

// FinishFiled marks a run as successfully filed.
func (j *Journal) FinishFiled(ctx context.Context, id, filedName string) error {
	return j.finish(ctx, id, constants.RunStatusFiled, filedName, "")
}

// FinishQuarantined marks a run as quarantined with its reason.
func (j *Journal) FinishQuarantined(ctx context.Context, id, reason string) error {
	return j.finish(ctx, id, constants.RunStatusQuarantined, "", reason)
}

func (j *Journal) finish(ctx context.Context, id string, status constants.RunStatus, filedName, reason string) error {
	res, err := j.db.ExecContext(ctx,
		`UPDATE run_journal SET status = ?, filed_name = ?, failure_reason = ?, finished_at = ? WHERE id = ?`,
		string(status), nullable(filedName), nullable(reason),
		time.Now().UTC().Format(time.RFC3339), id,
	)
	if err != nil {
		return fmt.Errorf("journal finish: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return fmt.Errorf("journal finish: run %s not found", id)
	}
	return nil
}

// ReapInFlight marks every still-running entry as abandoned and returns the
// distinct source paths involved, so the caller can re-deliver them.
func (j *Journal) ReapInFlight(ctx context.Context) ([]string, error) {
	rows, err := j.db.QueryContext(ctx,
		`SELECT DISTINCT source_path FROM run_journal WHERE status = ?`,
		string(constants.RunStatusRunning),
	)
	if err != nil {
		return nil, fmt.Errorf("journal reap: %w", err)
	}
	defer rows.Close()

	var paths []string
	for rows.Next() {
		var p string
		if err := rows.Scan(&p); err != nil {
			return nil, fmt.Errorf("journal reap scan: %w", err)
		}
		paths = append(paths, p)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("journal reap rows: %w", err)
	}

	if len(paths) > 0 {
		_, err = j.db.ExecContext(ctx,
			`UPDATE run_journal SET status = ?, finished_at = ? WHERE status = ?`,
			string(constants.RunStatusAbandoned),
			time.Now().UTC().Format(time.RFC3339),
			string(constants.RunStatusRunning),
		)
		if err != nil {
			return nil, fmt.Errorf("journal reap update: %w", err)
		}
		j.logger.Warn("journal.reaped_abandoned_runs", "count", len(paths))
	}
	return paths, nil
}

func (j *Journal) Close() error {
	return j.db.Close()
}

func nullable(s string) any {
	if s == "" {
		return nil
	}
	return s
}
