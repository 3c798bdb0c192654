package sqlite

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"

	"intelligent-scheduler/internal/dispatch/repository"
	"intelligent-scheduler/internal/model"
)

type rowScanner interface {
	Scan(dest ...any) error
}

// SaveRun upserts the full run record.
func (r *implRepository) SaveRun(ctx context.Context, run model.DispatchRun) error {
	tasks, err := json.Marshal(nonNilSlots(run.CreatedTasks))
	if err != nil {
		r.l.Errorf(ctx, "%s: marshal created_tasks: %v", r.dsn("SaveRun"), err)
		return repository.ErrFailedToInsert
	}
	outcomes, err := json.Marshal(nonNilOutcomes(run.Outcomes))
	if err != nil {
		r.l.Errorf(ctx, "%s: marshal outcomes: %v", r.dsn("SaveRun"), err)
		return repository.ErrFailedToInsert
	}

	const query = `
INSERT INTO dispatch_runs (` + runColumns + `)
VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
ON CONFLICT(run_id) DO UPDATE SET
  status = excluded.status,
  created_tasks = excluded.created_tasks,
  outcomes = excluded.outcomes,
  error = excluded.error,
  started_at = excluded.started_at,
  finished_at = excluded.finished_at`

	_, err = r.db.ExecContext(ctx, query,
		run.RunID, run.UserID, string(run.Source), string(run.Status),
		string(tasks), string(outcomes), run.Error,
		toMillis(run.CreatedAt), toNullMillis(run.StartedAt), toNullMillis(run.FinishedAt),
	)
	if err != nil {
		r.l.Errorf(ctx, "%s: %v", r.dsn("SaveRun"), err)
		return repository.ErrFailedToInsert
	}
	return nil
}

// GetRun returns ErrNotFound when no row matches runID.
func (r *implRepository) GetRun(ctx context.Context, runID string) (model.DispatchRun, error) {
	query := `SELECT ` + runColumns + ` FROM dispatch_runs WHERE run_id = ?`

	run, err := r.scanRun(r.db.QueryRowContext(ctx, query, runID))
	if errors.Is(err, sql.ErrNoRows) {
		return model.DispatchRun{}, repository.ErrNotFound
	}
	if err != nil {
		r.l.Errorf(ctx, "%s: %v", r.dsn("GetRun"), err)
		return model.DispatchRun{}, repository.ErrFailedToGet
	}
	return run, nil
}

func (r *implRepository) ListRuns(ctx context.Context, opt repository.ListRunsOptions) ([]model.DispatchRun, error) {
	clause, args := r.buildListQuery(opt)
	query := fmt.Sprintf("SELECT %s FROM dispatch_runs WHERE %s", runColumns, clause)

	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		r.l.Errorf(ctx, "%s: %v", r.dsn("ListRuns"), err)
		return nil, repository.ErrFailedToList
	}
	defer rows.Close()

	var runs []model.DispatchRun
	for rows.Next() {
		run, err := r.scanRun(rows)
		if err != nil {
			r.l.Errorf(ctx, "%s: scan: %v", r.dsn("ListRuns"), err)
			return nil, repository.ErrFailedToList
		}
		runs = append(runs, run)
	}
	if err := rows.Err(); err != nil {
		r.l.Errorf(ctx, "%s: rows: %v", r.dsn("ListRuns"), err)
		return nil, repository.ErrFailedToList
	}
	return runs, nil
}

// DeleteRuns removes terminal runs finished before opt.FinishedBefore.
func (r *implRepository) DeleteRuns(ctx context.Context, opt repository.DeleteRunsOptions) (int64, error) {
	const query = `DELETE FROM dispatch_runs WHERE finished_at IS NOT NULL AND finished_at < ?`

	res, err := r.db.ExecContext(ctx, query, toMillis(opt.FinishedBefore))
	if err != nil {
		r.l.Errorf(ctx, "%s: %v", r.dsn("DeleteRuns"), err)
		return 0, repository.ErrFailedToDelete
	}
	n, _ := res.RowsAffected()
	return n, nil
}

func (r *implRepository) scanRun(row rowScanner) (model.DispatchRun, error) {
	var (
		run                   model.DispatchRun
		source, status        string
		tasks, outcomes       string
		createdAt             int64
		startedAt, finishedAt sql.NullInt64
	)
	if err := row.Scan(&run.RunID, &run.UserID, &source, &status, &tasks, &outcomes, &run.Error,
		&createdAt, &startedAt, &finishedAt); err != nil {
		return model.DispatchRun{}, err
	}
	if err := json.Unmarshal([]byte(tasks), &run.CreatedTasks); err != nil {
		return model.DispatchRun{}, fmt.Errorf("created_tasks: %w", err)
	}
	if err := json.Unmarshal([]byte(outcomes), &run.Outcomes); err != nil {
		return model.DispatchRun{}, fmt.Errorf("outcomes: %w", err)
	}
	run.Source = model.Source(source)
	run.Status = model.RunStatus(status)
	run.CreatedAt = fromMillis(createdAt)
	run.StartedAt = fromNullMillis(startedAt)
	run.FinishedAt = fromNullMillis(finishedAt)
	return run, nil
}

func nonNilSlots(s []model.ScheduledSlot) []model.ScheduledSlot {
	if s == nil {
		return []model.ScheduledSlot{}
	}
	return s
}

func nonNilOutcomes(o []model.TaskOutcome) []model.TaskOutcome {
	if o == nil {
		return []model.TaskOutcome{}
	}
	return o
}
