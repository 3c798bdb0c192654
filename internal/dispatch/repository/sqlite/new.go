package sqlite

import (
	"context"
	"database/sql"
	"fmt"

	"intelligent-scheduler/internal/dispatch/repository"
	pkgLog "intelligent-scheduler/pkg/log"
)

// Times are stored as unix milliseconds so range filters compare integers.
const schema = `
CREATE TABLE IF NOT EXISTS dispatch_runs (
  run_id TEXT PRIMARY KEY,
  user_id TEXT NOT NULL,
  source TEXT NOT NULL,
  status TEXT NOT NULL,
  created_tasks TEXT NOT NULL DEFAULT '[]',
  outcomes TEXT NOT NULL DEFAULT '[]',
  error TEXT NOT NULL DEFAULT '',
  created_at INTEGER NOT NULL,
  started_at INTEGER,
  finished_at INTEGER
);
CREATE INDEX IF NOT EXISTS idx_dispatch_runs_status ON dispatch_runs(status);
CREATE INDEX IF NOT EXISTS idx_dispatch_runs_finished_at ON dispatch_runs(finished_at);
CREATE TABLE IF NOT EXISTS availability_snapshots (
  user_id TEXT PRIMARY KEY,
  intervals TEXT NOT NULL,
  taken_at INTEGER NOT NULL
);`

type implRepository struct {
	l  pkgLog.Logger
	db *sql.DB
}

// New ensures the schema exists and returns the dispatch repository.
func New(ctx context.Context, l pkgLog.Logger, db *sql.DB) (repository.Repository, error) {
	if _, err := db.ExecContext(ctx, schema); err != nil {
		return nil, fmt.Errorf("dispatch schema: %w", err)
	}
	return &implRepository{l: l, db: db}, nil
}

func (r *implRepository) dsn(method string) string {
	return fmt.Sprintf("dispatch.repository.sqlite.%s", method)
}
