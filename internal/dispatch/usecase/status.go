package usecase

import (
	"context"
	"errors"
	"time"

	"intelligent-scheduler/internal/dispatch"
	"intelligent-scheduler/internal/dispatch/repository"
	"intelligent-scheduler/internal/model"
)

// GetStatus serves live and recently finished runs from memory and falls
// back to the store for runs finished before a restart.
func (uc *implUseCase) GetStatus(ctx context.Context, runID string) (model.DispatchRun, error) {
	uc.mu.Lock()
	run, ok := uc.runs[runID]
	var cp model.DispatchRun
	if ok {
		cp = run.Clone()
	}
	uc.mu.Unlock()

	if !ok {
		stored, err := uc.repo.GetRun(ctx, runID)
		if errors.Is(err, repository.ErrNotFound) {
			return model.DispatchRun{}, dispatch.ErrRunNotFound
		}
		if err != nil {
			uc.l.Errorf(ctx, "dispatch.GetStatus: repo.GetRun: %v", err)
			return model.DispatchRun{}, err
		}
		cp = stored
	}

	if uc.expired(cp, uc.now()) {
		return model.DispatchRun{}, dispatch.ErrRunNotFound
	}
	return cp, nil
}

// expired reports whether a terminal run is past the retention window.
func (uc *implUseCase) expired(run model.DispatchRun, now time.Time) bool {
	if !run.Status.IsTerminal() || run.FinishedAt == nil {
		return false
	}
	return now.Sub(*run.FinishedAt) > uc.cfg.Retention
}
