package usecase

import (
	"context"
	"fmt"

	"intelligent-scheduler/internal/calendar"
	"intelligent-scheduler/internal/dispatch/repository"
	"intelligent-scheduler/internal/model"
)

// Start fails runs left queued or running by a previous process and
// schedules retention.
func (uc *implUseCase) Start(ctx context.Context) error {
	if err := uc.recoverInterrupted(ctx); err != nil {
		return err
	}
	if _, err := uc.cron.AddFunc(uc.cfg.GCSchedule, func() {
		uc.collectGarbage(uc.baseCtx)
	}); err != nil {
		return fmt.Errorf("dispatch: gc schedule %q: %w", uc.cfg.GCSchedule, err)
	}
	uc.cron.Start()
	return nil
}

// Close rejects new triggers and waits for live runs. When ctx ends first,
// live runs are interrupted and finalized as failed.
func (uc *implUseCase) Close(ctx context.Context) error {
	uc.mu.Lock()
	uc.closed = true
	uc.mu.Unlock()

	stopped := uc.cron.Stop()

	done := make(chan struct{})
	go func() {
		uc.wg.Wait()
		close(done)
	}()

	var err error
	select {
	case <-done:
	case <-ctx.Done():
		uc.cancel()
		<-done
		err = ctx.Err()
	}
	uc.cancel()

	select {
	case <-stopped.Done():
	case <-ctx.Done():
	}
	return err
}

func (uc *implUseCase) recoverInterrupted(ctx context.Context) error {
	stale, err := uc.repo.ListRuns(ctx, repository.ListRunsOptions{
		Statuses: []model.RunStatus{model.RunStatusQueued, model.RunStatusRunning},
	})
	if err != nil {
		uc.l.Errorf(ctx, "dispatch.recoverInterrupted: repo.ListRuns: %v", err)
		return err
	}

	cause := fmt.Errorf("%w: interrupted by restart", calendar.ErrExternalUnavailable).Error()
	for _, run := range stale {
		now := uc.now()
		run.Status = model.RunStatusFailed
		run.Error = cause
		run.FinishedAt = &now
		if err := uc.repo.SaveRun(ctx, run); err != nil {
			uc.l.Errorf(ctx, "dispatch.recoverInterrupted: run %s: %v", run.RunID, err)
			return err
		}
	}
	if len(stale) > 0 {
		uc.l.Warnf(ctx, "dispatch.recoverInterrupted: marked %d interrupted runs as failed", len(stale))
	}
	return nil
}

// collectGarbage drops terminal runs and idle sessions past retention, in
// memory and in the store.
func (uc *implUseCase) collectGarbage(ctx context.Context) {
	now := uc.now()
	cutoff := now.Add(-uc.cfg.Retention)

	uc.mu.Lock()
	evicted := 0
	for id, run := range uc.runs {
		if uc.expired(*run, now) {
			delete(uc.runs, id)
			evicted++
		}
	}
	for userID, s := range uc.sessions {
		if s.idleSince(cutoff) {
			delete(uc.sessions, userID)
		}
	}
	uc.mu.Unlock()

	runs, err := uc.repo.DeleteRuns(ctx, repository.DeleteRunsOptions{FinishedBefore: cutoff})
	if err != nil {
		uc.l.Errorf(ctx, "dispatch.collectGarbage: repo.DeleteRuns: %v", err)
	}
	snaps, err := uc.repo.DeleteSnapshots(ctx, repository.DeleteSnapshotsOptions{TakenBefore: cutoff})
	if err != nil {
		uc.l.Errorf(ctx, "dispatch.collectGarbage: repo.DeleteSnapshots: %v", err)
	}
	if evicted > 0 || runs > 0 || snaps > 0 {
		uc.l.Debugf(ctx, "dispatch.collectGarbage: evicted %d runs from memory, deleted %d runs and %d snapshots", evicted, runs, snaps)
	}
}
