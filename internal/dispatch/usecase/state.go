package usecase

import (
	"context"
	"sort"

	"intelligent-scheduler/internal/model"
)

// update applies fn to a live run and returns a copy. Terminal runs are
// frozen: fn is not called and ok is false.
func (uc *implUseCase) update(runID string, fn func(r *model.DispatchRun)) (model.DispatchRun, bool) {
	uc.mu.Lock()
	defer uc.mu.Unlock()

	run, ok := uc.runs[runID]
	if !ok || run.Status.IsTerminal() {
		return model.DispatchRun{}, false
	}
	fn(run)
	return run.Clone(), true
}

// finish applies fn, which must set a terminal status, stamps FinishedAt and
// frees the admission slot in the same critical section.
func (uc *implUseCase) finish(runID string, fn func(r *model.DispatchRun)) (model.DispatchRun, bool) {
	uc.mu.Lock()
	defer uc.mu.Unlock()

	run, ok := uc.runs[runID]
	if !ok || run.Status.IsTerminal() {
		return model.DispatchRun{}, false
	}
	fn(run)
	now := uc.now()
	run.FinishedAt = &now
	sort.SliceStable(run.CreatedTasks, func(i, j int) bool {
		return run.CreatedTasks[i].Start.Before(run.CreatedTasks[j].Start)
	})

	key := admissionKey{userID: run.UserID, source: run.Source}
	if uc.admission[key] == runID {
		delete(uc.admission, key)
	}
	return run.Clone(), true
}

// persist writes run to the store. A failed write is logged; the in-memory
// record stays authoritative for this process.
func (uc *implUseCase) persist(ctx context.Context, run model.DispatchRun) {
	if err := uc.repo.SaveRun(context.WithoutCancel(ctx), run); err != nil {
		uc.l.Errorf(ctx, "dispatch.persist: run %s: %v", run.RunID, err)
	}
}

// settle derives the terminal status from per-task outcomes.
func settle(r *model.DispatchRun) {
	committed := 0
	firstErr := ""
	for _, o := range r.Outcomes {
		if o.State == model.OutcomeCommitted {
			committed++
		} else if firstErr == "" {
			firstErr = o.Error
		}
	}

	switch {
	case len(r.Outcomes) > 0 && committed == len(r.Outcomes):
		r.Status = model.RunStatusSucceeded
	case committed > 0:
		r.Status = model.RunStatusPartial
	default:
		r.Status = model.RunStatusFailed
		r.Error = errNothingCommitted(firstErr).Error()
	}
}
