package sqlite

import (
	"context"
	"strings"
	"time"

	"intelligent-scheduler/internal/mailbox/repository"
)

func (r *implRepository) Processed(ctx context.Context, userID string, ids []string) (map[string]bool, error) {
	out := make(map[string]bool, len(ids))
	if len(ids) == 0 {
		return out, nil
	}

	args := make([]any, 0, len(ids)+1)
	args = append(args, userID)
	for _, id := range ids {
		args = append(args, id)
	}
	query := `SELECT message_id FROM processed_emails WHERE user_id = ? AND message_id IN (?` +
		strings.Repeat(",?", len(ids)-1) + `)`

	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		r.l.Errorf(ctx, "%s: %v", r.dsn("Processed"), err)
		return nil, repository.ErrFailedToQuery
	}
	defer rows.Close()

	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			r.l.Errorf(ctx, "%s: scan: %v", r.dsn("Processed"), err)
			return nil, repository.ErrFailedToQuery
		}
		out[id] = true
	}
	if err := rows.Err(); err != nil {
		r.l.Errorf(ctx, "%s: rows: %v", r.dsn("Processed"), err)
		return nil, repository.ErrFailedToQuery
	}
	return out, nil
}

func (r *implRepository) MarkProcessed(ctx context.Context, opt repository.MarkProcessedOptions) error {
	if len(opt.MessageIDs) == 0 {
		return nil
	}
	at := opt.ProcessedAt
	if at.IsZero() {
		at = time.Now()
	}

	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		r.l.Errorf(ctx, "%s: begin: %v", r.dsn("MarkProcessed"), err)
		return repository.ErrFailedToInsert
	}
	defer tx.Rollback()

	stmt, err := tx.PrepareContext(ctx, `
INSERT INTO processed_emails (user_id, message_id, run_id, tasks_created, processed_at)
VALUES (?, ?, ?, ?, ?)
ON CONFLICT(user_id, message_id) DO UPDATE SET run_id = excluded.run_id, tasks_created = excluded.tasks_created, processed_at = excluded.processed_at`)
	if err != nil {
		r.l.Errorf(ctx, "%s: prepare: %v", r.dsn("MarkProcessed"), err)
		return repository.ErrFailedToInsert
	}
	defer stmt.Close()

	for _, id := range opt.MessageIDs {
		if _, err := stmt.ExecContext(ctx, opt.UserID, id, opt.RunID, opt.TasksCreated, at.UTC()); err != nil {
			r.l.Errorf(ctx, "%s: insert %s: %v", r.dsn("MarkProcessed"), id, err)
			return repository.ErrFailedToInsert
		}
	}

	if err := tx.Commit(); err != nil {
		r.l.Errorf(ctx, "%s: commit: %v", r.dsn("MarkProcessed"), err)
		return repository.ErrFailedToInsert
	}
	return nil
}
