package dispatch

import (
	"context"

	"intelligent-scheduler/internal/model"
)

// UseCase admits trigger events and runs them asynchronously.
type UseCase interface {
	// Submit admits ev and returns the run id immediately. A second trigger for
	// the same (user, source) while a run is live fails with *AlreadyInProgressError.
	Submit(ctx context.Context, ev model.TriggerEvent) (string, error)
	// GetStatus returns the run, or ErrRunNotFound once retention has expired.
	GetStatus(ctx context.Context, runID string) (model.DispatchRun, error)

	// Start recovers runs interrupted by a restart and schedules retention.
	Start(ctx context.Context) error
	// Close stops admission and waits for live runs until ctx is done.
	Close(ctx context.Context) error
}
