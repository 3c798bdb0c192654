package sqlite

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"

	"intelligent-scheduler/internal/dispatch/repository"
	"intelligent-scheduler/internal/model"
)

func (r *implRepository) SaveSnapshot(ctx context.Context, snap repository.Snapshot) error {
	intervals := snap.Intervals
	if intervals == nil {
		intervals = []model.BusyInterval{}
	}
	data, err := json.Marshal(intervals)
	if err != nil {
		r.l.Errorf(ctx, "%s: marshal: %v", r.dsn("SaveSnapshot"), err)
		return repository.ErrFailedToInsert
	}

	const query = `
INSERT INTO availability_snapshots (user_id, intervals, taken_at) VALUES (?, ?, ?)
ON CONFLICT(user_id) DO UPDATE SET intervals = excluded.intervals, taken_at = excluded.taken_at`

	if _, err := r.db.ExecContext(ctx, query, snap.UserID, string(data), toMillis(snap.TakenAt)); err != nil {
		r.l.Errorf(ctx, "%s: %v", r.dsn("SaveSnapshot"), err)
		return repository.ErrFailedToInsert
	}
	return nil
}

// GetSnapshot returns ErrNotFound when the user has no snapshot.
func (r *implRepository) GetSnapshot(ctx context.Context, userID string) (repository.Snapshot, error) {
	const query = `SELECT intervals, taken_at FROM availability_snapshots WHERE user_id = ?`

	var (
		data    string
		takenAt int64
	)
	err := r.db.QueryRowContext(ctx, query, userID).Scan(&data, &takenAt)
	if errors.Is(err, sql.ErrNoRows) {
		return repository.Snapshot{}, repository.ErrNotFound
	}
	if err != nil {
		r.l.Errorf(ctx, "%s: %v", r.dsn("GetSnapshot"), err)
		return repository.Snapshot{}, repository.ErrFailedToGet
	}

	snap := repository.Snapshot{UserID: userID, TakenAt: fromMillis(takenAt)}
	if err := json.Unmarshal([]byte(data), &snap.Intervals); err != nil {
		r.l.Errorf(ctx, "%s: unmarshal: %v", r.dsn("GetSnapshot"), err)
		return repository.Snapshot{}, repository.ErrFailedToGet
	}
	return snap, nil
}

func (r *implRepository) DeleteSnapshots(ctx context.Context, opt repository.DeleteSnapshotsOptions) (int64, error) {
	const query = `DELETE FROM availability_snapshots WHERE taken_at < ?`

	res, err := r.db.ExecContext(ctx, query, toMillis(opt.TakenBefore))
	if err != nil {
		r.l.Errorf(ctx, "%s: %v", r.dsn("DeleteSnapshots"), err)
		return 0, repository.ErrFailedToDelete
	}
	n, _ := res.RowsAffected()
	return n, nil
}
