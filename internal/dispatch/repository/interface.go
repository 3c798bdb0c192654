package repository

import (
	"context"

	"intelligent-scheduler/internal/model"
)

// Repository is the durable store of the dispatch domain.
type Repository interface {
	RunRepository
	SnapshotRepository
}

// RunRepository persists DispatchRun records.
type RunRepository interface {
	// SaveRun inserts or replaces the run.
	SaveRun(ctx context.Context, run model.DispatchRun) error
	GetRun(ctx context.Context, runID string) (model.DispatchRun, error)
	ListRuns(ctx context.Context, opt ListRunsOptions) ([]model.DispatchRun, error)
	DeleteRuns(ctx context.Context, opt DeleteRunsOptions) (int64, error)
}

// SnapshotRepository persists the last known availability index of a user.
type SnapshotRepository interface {
	SaveSnapshot(ctx context.Context, snap Snapshot) error
	GetSnapshot(ctx context.Context, userID string) (Snapshot, error)
	DeleteSnapshots(ctx context.Context, opt DeleteSnapshotsOptions) (int64, error)
}
