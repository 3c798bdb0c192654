package usecase

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"intelligent-scheduler/internal/allocator"
	"intelligent-scheduler/internal/calendar"
	"intelligent-scheduler/internal/committer"
	"intelligent-scheduler/internal/dispatch"
	"intelligent-scheduler/internal/dispatch/repository"
	"intelligent-scheduler/internal/extraction"
	"intelligent-scheduler/internal/mailbox"
	"intelligent-scheduler/internal/model"
	pkgLog "intelligent-scheduler/pkg/log"
)

const notCommitted = "not committed before the run ended"

type input struct {
	text      string
	messageID string
}

type result struct {
	err        error
	noWork     bool
	messageIDs []string
}

// execute drives one run to a terminal state within the run budget. When the
// budget expires the run is finalized right away; work still in flight can no
// longer change it.
func (uc *implUseCase) execute(runID string, ev model.TriggerEvent) {
	defer uc.wg.Done()

	ctx, cancel := context.WithTimeout(uc.baseCtx, uc.cfg.RunTimeout)
	defer cancel()
	ctx = pkgLog.WithRunID(pkgLog.WithUserID(ctx, ev.UserID), runID)

	started := uc.now()
	if run, ok := uc.update(runID, func(r *model.DispatchRun) {
		r.Status = model.RunStatusRunning
		r.StartedAt = &started
	}); ok {
		uc.persist(ctx, run)
	}

	done := make(chan result, 1)
	go func() { done <- uc.process(ctx, runID, ev) }()

	var res result
	select {
	case res = <-done:
		if res.err != nil && ctx.Err() != nil {
			res = result{err: uc.interrupted(ctx)}
		}
	case <-ctx.Done():
		res = result{err: uc.interrupted(ctx)}
	}

	run, ok := uc.finish(runID, func(r *model.DispatchRun) {
		switch {
		case res.err != nil:
			r.Status = model.RunStatusFailed
			r.Error = res.err.Error()
		case res.noWork:
			r.Status = model.RunStatusSucceeded
		default:
			settle(r)
		}
	})
	if !ok {
		return
	}
	uc.persist(ctx, run)

	if s := uc.lookupSession(ev.UserID); s != nil && s.end(runID, uc.now()) {
		uc.saveSnapshot(ctx, ev.UserID, s)
	}
	if run.Status == model.RunStatusSucceeded || run.Status == model.RunStatusPartial {
		uc.markProcessed(ctx, run, res.messageIDs)
	}

	if run.Status == model.RunStatusFailed {
		uc.l.Warnf(ctx, "dispatch.execute: run %s failed: %s", runID, run.Error)
		return
	}
	uc.l.Infof(ctx, "dispatch.execute: run %s %s, %d of %d tasks committed", runID, run.Status, len(run.CreatedTasks), len(run.Outcomes))
}

func (uc *implUseCase) process(ctx context.Context, runID string, ev model.TriggerEvent) result {
	inputs, fromMailbox, err := uc.collect(ctx, ev)
	if err != nil {
		return result{err: err}
	}
	if fromMailbox && len(inputs) == 0 {
		uc.l.Infof(ctx, "dispatch.process: no unprocessed mail for user %s", ev.UserID)
		return result{noWork: true}
	}

	tasks, ids, err := uc.extract(ctx, inputs, fromMailbox)
	if err != nil {
		return result{err: err}
	}
	if len(tasks) == 0 {
		if fromMailbox {
			return result{noWork: true, messageIDs: ids}
		}
		return result{err: dispatch.ErrNoTasks}
	}

	now := uc.now()
	sess := uc.session(ev.UserID)
	if err := uc.seed(ctx, runID, ev.UserID, sess, tasks, now); err != nil {
		return result{err: err}
	}

	var allocs []allocator.Allocation
	if err := sess.allocate(runID, func(idx allocator.Index) {
		allocs = uc.alloc.Allocate(ctx, tasks, idx, now)
	}); err != nil {
		return result{err: err}
	}
	uc.recordAllocations(runID, tasks, allocs)

	uc.commitAll(ctx, runID, ev.UserID, sess, allocs)
	return result{messageIDs: ids}
}

// collect returns the texts to extract from. Voice runs and email_sync runs
// with a body extract the payload; an empty email_sync pulls unprocessed mail.
func (uc *implUseCase) collect(ctx context.Context, ev model.TriggerEvent) ([]input, bool, error) {
	if ev.Source == model.SourceVoice || strings.TrimSpace(ev.Payload) != "" {
		return []input{{text: ev.Payload}}, false, nil
	}
	if uc.mailbox == nil {
		return nil, true, fmt.Errorf("%w: no mailbox configured", mailbox.ErrMailboxUnavailable)
	}

	msgs, err := uc.mailbox.FetchUnprocessed(ctx, ev.UserID)
	if err != nil {
		return nil, true, err
	}
	inputs := make([]input, 0, len(msgs))
	for _, m := range msgs {
		inputs = append(inputs, input{text: m.Text(), messageID: m.ID})
	}
	return inputs, true, nil
}

// extract concatenates tasks in input order. The run fails only when no
// input could be extracted; a blank email counts as one without tasks.
func (uc *implUseCase) extract(ctx context.Context, inputs []input, fromMailbox bool) ([]model.TaskDescriptor, []string, error) {
	var (
		tasks   []model.TaskDescriptor
		ids     []string
		lastErr error
		okCount int
	)
	for _, in := range inputs {
		got, err := uc.extractor.Extract(ctx, in.text)
		if err != nil && !(fromMailbox && errors.Is(err, extraction.ErrEmptyInput)) {
			uc.l.Warnf(ctx, "dispatch.extract: %v", err)
			lastErr = err
			continue
		}
		okCount++
		tasks = append(tasks, got...)
		if in.messageID != "" {
			ids = append(ids, in.messageID)
		}
	}
	if okCount == 0 {
		return nil, nil, lastErr
	}
	return tasks, ids, nil
}

// seed loads the user's busy intervals over the search horizon of tasks.
func (uc *implUseCase) seed(ctx context.Context, runID, userID string, sess *session, tasks []model.TaskDescriptor, now time.Time) error {
	end := now.AddDate(0, 0, uc.alloc.Config().LookaheadDays)
	for _, t := range tasks {
		if t.LatestEnd != nil && t.LatestEnd.After(end) {
			end = *t.LatestEnd
		}
	}

	busy, err := uc.reader.ListBusy(ctx, userID, now, end)
	if err != nil {
		if ctx.Err() != nil {
			return ctx.Err()
		}
		if busy, err = uc.fallbackBusy(ctx, userID, now, err); err != nil {
			return err
		}
	}
	return sess.seed(ctx, runID, busy)
}

// fallbackBusy serves the persisted snapshot while it is younger than the
// retention window.
func (uc *implUseCase) fallbackBusy(ctx context.Context, userID string, now time.Time, cause error) ([]model.BusyInterval, error) {
	if !errors.Is(cause, calendar.ErrExternalUnavailable) {
		cause = fmt.Errorf("%w: %v", calendar.ErrExternalUnavailable, cause)
	}

	snap, err := uc.repo.GetSnapshot(ctx, userID)
	if err != nil {
		if !errors.Is(err, repository.ErrNotFound) {
			uc.l.Errorf(ctx, "dispatch.fallbackBusy: repo.GetSnapshot: %v", err)
		}
		return nil, cause
	}
	if now.Sub(snap.TakenAt) > uc.cfg.Retention {
		return nil, cause
	}

	uc.l.Warnf(ctx, "dispatch.fallbackBusy: %v; using snapshot taken at %s", cause, snap.TakenAt.Format(time.RFC3339))
	return snap.Intervals, nil
}

func (uc *implUseCase) recordAllocations(runID string, tasks []model.TaskDescriptor, allocs []allocator.Allocation) {
	uc.update(runID, func(r *model.DispatchRun) {
		r.Outcomes = make([]model.TaskOutcome, len(tasks))
		for i, t := range tasks {
			r.Outcomes[i] = model.TaskOutcome{
				Title:    t.Title,
				Priority: t.Priority,
				State:    model.OutcomeFailed,
				Error:    notCommitted,
			}
		}
		for _, a := range allocs {
			if a.Err == nil {
				continue
			}
			o := &r.Outcomes[a.Position]
			o.Error = a.Err.Error()
			if errors.Is(a.Err, allocator.ErrUnschedulable) {
				o.State = model.OutcomeUnschedulable
			}
		}
	})
}

// commitAll commits every allocated slot, at most CommitConcurrency at a time.
func (uc *implUseCase) commitAll(ctx context.Context, runID, userID string, sess *session, allocs []allocator.Allocation) {
	res := sess.reservations(runID)
	sem := make(chan struct{}, uc.cfg.CommitConcurrency)

	var wg sync.WaitGroup
	for _, a := range allocs {
		if a.Slot == nil {
			continue
		}
		wg.Add(1)
		go func(a allocator.Allocation) {
			defer wg.Done()

			select {
			case sem <- struct{}{}:
			case <-ctx.Done():
				if err := res.Release(a.Slot.Interval()); err != nil {
					uc.l.Errorf(ctx, "dispatch.commitAll: release %q: %v", a.Task.Title, err)
				}
				return
			}
			defer func() { <-sem }()

			slot, err := uc.committer.Commit(ctx, committer.Request{
				UserID:      userID,
				Description: a.Task.Description,
				Slot:        *a.Slot,
			}, res)
			uc.recordCommit(ctx, runID, a.Position, slot, err)
		}(a)
	}
	wg.Wait()
}

func (uc *implUseCase) recordCommit(ctx context.Context, runID string, pos int, slot model.ScheduledSlot, err error) {
	_, ok := uc.update(runID, func(r *model.DispatchRun) {
		if pos >= len(r.Outcomes) {
			return
		}
		o := &r.Outcomes[pos]
		if err != nil {
			o.State = model.OutcomeFailed
			o.Error = err.Error()
			return
		}
		committed := slot
		o.State = model.OutcomeCommitted
		o.Error = ""
		o.Slot = &committed
		r.CreatedTasks = append(r.CreatedTasks, slot)
	})
	if !ok && err == nil {
		uc.l.Warnf(ctx, "dispatch.recordCommit: event %s for %q created after run %s ended", slot.EventID, slot.TaskTitle, runID)
	}
}

func (uc *implUseCase) interrupted(ctx context.Context) error {
	if errors.Is(ctx.Err(), context.DeadlineExceeded) {
		return fmt.Errorf("%w: run exceeded its %s budget", calendar.ErrExternalUnavailable, uc.cfg.RunTimeout)
	}
	return fmt.Errorf("%w: run interrupted by shutdown", calendar.ErrExternalUnavailable)
}

func (uc *implUseCase) saveSnapshot(ctx context.Context, userID string, s *session) {
	err := uc.repo.SaveSnapshot(context.WithoutCancel(ctx), repository.Snapshot{
		UserID:    userID,
		Intervals: s.snapshot(),
		TakenAt:   uc.now(),
	})
	if err != nil {
		uc.l.Errorf(ctx, "dispatch.saveSnapshot: %v", err)
	}
}

func (uc *implUseCase) markProcessed(ctx context.Context, run model.DispatchRun, ids []string) {
	if uc.mailbox == nil || len(ids) == 0 {
		return
	}
	err := uc.mailbox.MarkProcessed(context.WithoutCancel(ctx), mailbox.MarkProcessedInput{
		UserID:       run.UserID,
		RunID:        run.RunID,
		MessageIDs:   ids,
		TasksCreated: len(run.CreatedTasks),
	})
	if err != nil {
		uc.l.Errorf(ctx, "dispatch.markProcessed: %v", err)
	}
}

func errNothingCommitted(cause string) error {
	if cause == "" {
		return dispatch.ErrNothingCommitted
	}
	return fmt.Errorf("%w: %s", dispatch.ErrNothingCommitted, cause)
}
