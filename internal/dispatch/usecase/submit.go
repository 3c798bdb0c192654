package usecase

import (
	"context"
	"fmt"
	"strings"

	"intelligent-scheduler/internal/dispatch"
	"intelligent-scheduler/internal/model"
)

// Submit checks and sets the (user, source) admission slot atomically, then
// starts the run in the background.
func (uc *implUseCase) Submit(ctx context.Context, ev model.TriggerEvent) (string, error) {
	ev.UserID = strings.TrimSpace(ev.UserID)
	if ev.UserID == "" {
		return "", fmt.Errorf("%w: user_id is required", dispatch.ErrInvalidTrigger)
	}
	if !ev.Source.IsValid() {
		return "", fmt.Errorf("%w: unknown source %q", dispatch.ErrInvalidTrigger, ev.Source)
	}
	if ev.ReceivedAt.IsZero() {
		ev.ReceivedAt = uc.now()
	}

	key := admissionKey{userID: ev.UserID, source: ev.Source}

	uc.mu.Lock()
	if uc.closed {
		uc.mu.Unlock()
		return "", dispatch.ErrClosed
	}
	if existing, ok := uc.admission[key]; ok {
		uc.mu.Unlock()
		return "", &dispatch.AlreadyInProgressError{
			UserID:        ev.UserID,
			Source:        ev.Source,
			ExistingRunID: existing,
		}
	}
	run := &model.DispatchRun{
		RunID:     uc.newRunID(),
		UserID:    ev.UserID,
		Source:    ev.Source,
		Status:    model.RunStatusQueued,
		CreatedAt: uc.now(),
	}
	uc.runs[run.RunID] = run
	uc.admission[key] = run.RunID
	queued := run.Clone()
	uc.wg.Add(1)
	uc.mu.Unlock()

	uc.persist(ctx, queued)
	uc.l.Infof(ctx, "dispatch.Submit: admitted %s run %s for user %s", ev.Source, queued.RunID, ev.UserID)

	go uc.execute(queued.RunID, ev)
	return queued.RunID, nil
}
