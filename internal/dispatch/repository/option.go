package repository

import (
	"time"

	"intelligent-scheduler/internal/model"
)

// ListRunsOptions filters runs. Empty fields match everything.
type ListRunsOptions struct {
	UserID   string
	Statuses []model.RunStatus
	Limit    int
}

// DeleteRunsOptions removes terminal runs finished before FinishedBefore.
type DeleteRunsOptions struct {
	FinishedBefore time.Time
}

type DeleteSnapshotsOptions struct {
	TakenBefore time.Time
}

// Snapshot is a user's busy intervals at TakenAt.
type Snapshot struct {
	UserID    string
	Intervals []model.BusyInterval
	TakenAt   time.Time
}
