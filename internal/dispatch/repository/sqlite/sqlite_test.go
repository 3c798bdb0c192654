package sqlite_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"intelligent-scheduler/internal/dispatch/repository"
	dispatchSQLite "intelligent-scheduler/internal/dispatch/repository/sqlite"
	"intelligent-scheduler/internal/model"
	"intelligent-scheduler/pkg/log"
	"intelligent-scheduler/pkg/sqlite"
)

func newRepo(t *testing.T) repository.Repository {
	t.Helper()
	db, err := sqlite.Open(context.Background(), sqlite.MemoryPath)
	if err != nil {
		t.Fatalf("open: %v", err)
	}
	t.Cleanup(func() { db.Close() })

	repo, err := dispatchSQLite.New(context.Background(), log.NewNop(), db)
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	return repo
}

var base = time.Date(2025, 3, 3, 8, 0, 0, 0, time.UTC)

func TestRunRoundTrip(t *testing.T) {
	ctx := context.Background()
	repo := newRepo(t)

	run := model.DispatchRun{
		RunID:     "run_1",
		UserID:    "alice",
		Source:    model.SourceVoice,
		Status:    model.RunStatusQueued,
		CreatedAt: base,
	}
	if err := repo.SaveRun(ctx, run); err != nil {
		t.Fatalf("SaveRun: %v", err)
	}

	got, err := repo.GetRun(ctx, "run_1")
	if err != nil {
		t.Fatalf("GetRun: %v", err)
	}
	if got.Status != model.RunStatusQueued || got.StartedAt != nil || got.FinishedAt != nil || !got.CreatedAt.Equal(base) {
		t.Errorf("unexpected queued run %+v", got)
	}

	slot := model.ScheduledSlot{TaskTitle: "Write report", Start: base.Add(time.Hour), End: base.Add(90 * time.Minute), EventID: "evt-1"}
	started, finished := base.Add(time.Second), base.Add(5*time.Second)
	run.Status = model.RunStatusPartial
	run.StartedAt = &started
	run.FinishedAt = &finished
	run.CreatedTasks = []model.ScheduledSlot{slot}
	run.Outcomes = []model.TaskOutcome{
		{Title: "Write report", Priority: model.PriorityHigh, State: model.OutcomeCommitted, Slot: &slot},
		{Title: "Long workshop", Priority: model.PriorityNormal, State: model.OutcomeUnschedulable, Error: "no slot"},
	}
	if err := repo.SaveRun(ctx, run); err != nil {
		t.Fatalf("SaveRun update: %v", err)
	}

	got, err = repo.GetRun(ctx, "run_1")
	if err != nil {
		t.Fatalf("GetRun: %v", err)
	}
	if got.Status != model.RunStatusPartial || !got.FinishedAt.Equal(finished) || !got.StartedAt.Equal(started) {
		t.Errorf("unexpected terminal run %+v", got)
	}
	if len(got.CreatedTasks) != 1 || got.CreatedTasks[0].EventID != "evt-1" || !got.CreatedTasks[0].Start.Equal(slot.Start) {
		t.Errorf("unexpected created tasks %+v", got.CreatedTasks)
	}
	if len(got.Outcomes) != 2 || got.Outcomes[1].State != model.OutcomeUnschedulable || got.Outcomes[0].Slot == nil {
		t.Errorf("unexpected outcomes %+v", got.Outcomes)
	}

	if _, err := repo.GetRun(ctx, "missing"); !errors.Is(err, repository.ErrNotFound) {
		t.Errorf("expected ErrNotFound, got %v", err)
	}
}

func TestListAndDeleteRuns(t *testing.T) {
	ctx := context.Background()
	repo := newRepo(t)

	old := base.Add(-2 * time.Hour)
	recent := base.Add(-time.Minute)
	runs := []model.DispatchRun{
		{RunID: "run_old", UserID: "alice", Source: model.SourceVoice, Status: model.RunStatusSucceeded, CreatedAt: old, FinishedAt: &old},
		{RunID: "run_recent", UserID: "alice", Source: model.SourceVoice, Status: model.RunStatusFailed, CreatedAt: recent, FinishedAt: &recent},
		{RunID: "run_live", UserID: "bob", Source: model.SourceEmailSync, Status: model.RunStatusRunning, CreatedAt: base},
	}
	for _, r := range runs {
		if err := repo.SaveRun(ctx, r); err != nil {
			t.Fatalf("SaveRun %s: %v", r.RunID, err)
		}
	}

	live, err := repo.ListRuns(ctx, repository.ListRunsOptions{Statuses: []model.RunStatus{model.RunStatusQueued, model.RunStatusRunning}})
	if err != nil {
		t.Fatalf("ListRuns: %v", err)
	}
	if len(live) != 1 || live[0].RunID != "run_live" {
		t.Errorf("unexpected live runs %+v", live)
	}

	alice, _ := repo.ListRuns(ctx, repository.ListRunsOptions{UserID: "alice"})
	if len(alice) != 2 || alice[0].RunID != "run_old" {
		t.Errorf("expected alice's runs oldest first, got %+v", alice)
	}

	n, err := repo.DeleteRuns(ctx, repository.DeleteRunsOptions{FinishedBefore: base.Add(-time.Hour)})
	if err != nil || n != 1 {
		t.Fatalf("DeleteRuns = %d, %v", n, err)
	}
	if _, err := repo.GetRun(ctx, "run_old"); !errors.Is(err, repository.ErrNotFound) {
		t.Errorf("expired run must be gone, got %v", err)
	}
	if _, err := repo.GetRun(ctx, "run_live"); err != nil {
		t.Errorf("live runs are never deleted: %v", err)
	}
}

func TestSnapshots(t *testing.T) {
	ctx := context.Background()
	repo := newRepo(t)

	if _, err := repo.GetSnapshot(ctx, "alice"); !errors.Is(err, repository.ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}

	snap := repository.Snapshot{
		UserID:    "alice",
		Intervals: []model.BusyInterval{{Start: base.Add(time.Hour), End: base.Add(2 * time.Hour)}},
		TakenAt:   base,
	}
	if err := repo.SaveSnapshot(ctx, snap); err != nil {
		t.Fatalf("SaveSnapshot: %v", err)
	}
	snap.TakenAt = base.Add(time.Minute)
	snap.Intervals = append(snap.Intervals, model.BusyInterval{Start: base.Add(3 * time.Hour), End: base.Add(4 * time.Hour)})
	if err := repo.SaveSnapshot(ctx, snap); err != nil {
		t.Fatalf("SaveSnapshot overwrite: %v", err)
	}

	got, err := repo.GetSnapshot(ctx, "alice")
	if err != nil {
		t.Fatalf("GetSnapshot: %v", err)
	}
	if len(got.Intervals) != 2 || !got.TakenAt.Equal(base.Add(time.Minute)) || !got.Intervals[1].End.Equal(base.Add(4*time.Hour)) {
		t.Errorf("unexpected snapshot %+v", got)
	}

	n, err := repo.DeleteSnapshots(ctx, repository.DeleteSnapshotsOptions{TakenBefore: base.Add(time.Hour)})
	if err != nil || n != 1 {
		t.Fatalf("DeleteSnapshots = %d, %v", n, err)
	}
}
