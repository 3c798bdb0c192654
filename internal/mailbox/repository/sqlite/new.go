package sqlite

import (
	"context"
	"database/sql"
	"fmt"

	"intelligent-scheduler/internal/mailbox/repository"
	pkgLog "intelligent-scheduler/pkg/log"
)

const schema = `
CREATE TABLE IF NOT EXISTS processed_emails (
  user_id TEXT NOT NULL,
  message_id TEXT NOT NULL,
  run_id TEXT NOT NULL DEFAULT '',
  tasks_created INTEGER NOT NULL DEFAULT 0,
  processed_at DATETIME NOT NULL,
  PRIMARY KEY (user_id, message_id)
);`

type implRepository struct {
	l  pkgLog.Logger
	db *sql.DB
}

// New ensures the ledger table exists and returns the repository.
func New(ctx context.Context, l pkgLog.Logger, db *sql.DB) (repository.Repository, error) {
	if _, err := db.ExecContext(ctx, schema); err != nil {
		return nil, fmt.Errorf("mailbox ledger schema: %w", err)
	}
	return &implRepository{l: l, db: db}, nil
}

func (r *implRepository) dsn(method string) string {
	return fmt.Sprintf("mailbox.repository.sqlite.%s", method)
}
