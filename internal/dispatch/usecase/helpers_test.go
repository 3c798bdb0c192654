package usecase

import (
	"context"
	"sync"
	"testing"
	"time"

	"intelligent-scheduler/internal/allocator"
	"intelligent-scheduler/internal/calendar"
	"intelligent-scheduler/internal/committer"
	"intelligent-scheduler/internal/dispatch"
	"intelligent-scheduler/internal/dispatch/repository"
	dispatchSQLite "intelligent-scheduler/internal/dispatch/repository/sqlite"
	"intelligent-scheduler/internal/extraction"
	"intelligent-scheduler/internal/mailbox"
	"intelligent-scheduler/internal/model"
	"intelligent-scheduler/pkg/log"
	"intelligent-scheduler/pkg/sqlite"
)

// 2025-03-03 is a Monday.
func mon(h, m int) time.Time {
	return time.Date(2025, 3, 3, h, m, 0, 0, time.UTC)
}

func minutes(n int) *time.Duration {
	d := time.Duration(n) * time.Minute
	return &d
}

func ptr(t time.Time) *time.Time { return &t }

type clock struct {
	mu sync.Mutex
	t  time.Time
}

func (c *clock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.t
}

func (c *clock) Advance(d time.Duration) {
	c.mu.Lock()
	c.t = c.t.Add(d)
	c.mu.Unlock()
}

type fakeExtractor struct {
	gate  chan struct{}
	tasks map[string][]model.TaskDescriptor
	err   error
}

func (f *fakeExtractor) Extract(ctx context.Context, text string) ([]model.TaskDescriptor, error) {
	if f.gate != nil {
		select {
		case <-f.gate:
		case <-ctx.Done():
			return nil, ctx.Err()
		}
	}
	if f.err != nil {
		return nil, f.err
	}
	if text == "" {
		return nil, extraction.ErrEmptyInput
	}
	return f.tasks[text], nil
}

type fakeCalendar struct {
	mu      sync.Mutex
	busy    []model.BusyInterval
	listErr error
	create  func(ctx context.Context, in calendar.CreateEventInput) (calendar.CreatedEvent, error)
	created []calendar.CreateEventInput
}

func (f *fakeCalendar) ListBusy(ctx context.Context, userID string, start, end time.Time) ([]model.BusyInterval, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.listErr != nil {
		return nil, f.listErr
	}
	return append([]model.BusyInterval(nil), f.busy...), nil
}

func (f *fakeCalendar) CreateEvent(ctx context.Context, in calendar.CreateEventInput) (calendar.CreatedEvent, error) {
	f.mu.Lock()
	f.created = append(f.created, in)
	create := f.create
	f.mu.Unlock()

	if create != nil {
		return create(ctx, in)
	}
	return calendar.CreatedEvent{ID: "evt-" + in.Title, Link: "https://calendar.test/" + in.Title}, nil
}

type fakeMailbox struct {
	mu       sync.Mutex
	messages []mailbox.Message
	fetchErr error
	fetches  int
	marked   []mailbox.MarkProcessedInput
}

func (f *fakeMailbox) FetchUnprocessed(ctx context.Context, userID string) ([]mailbox.Message, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.fetches++
	if f.fetchErr != nil {
		return nil, f.fetchErr
	}
	return f.messages, nil
}

func (f *fakeMailbox) MarkProcessed(ctx context.Context, in mailbox.MarkProcessedInput) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.marked = append(f.marked, in)
	return nil
}

type fixture struct {
	uc    *implUseCase
	repo  repository.Repository
	cal   *fakeCalendar
	ext   *fakeExtractor
	mail  *fakeMailbox
	clock *clock
}

func newFixture(t *testing.T, cfg dispatch.Config) *fixture {
	t.Helper()

	db, err := sqlite.Open(context.Background(), sqlite.MemoryPath)
	if err != nil {
		t.Fatalf("sqlite.Open: %v", err)
	}
	t.Cleanup(func() { db.Close() })

	repo, err := dispatchSQLite.New(context.Background(), log.NewNop(), db)
	if err != nil {
		t.Fatalf("repository: %v", err)
	}

	alloc, err := allocator.New(allocator.DefaultConfig())
	if err != nil {
		t.Fatalf("allocator.New: %v", err)
	}

	f := &fixture{
		repo:  repo,
		cal:   &fakeCalendar{},
		ext:   &fakeExtractor{tasks: map[string][]model.TaskDescriptor{}},
		mail:  &fakeMailbox{},
		clock: &clock{t: mon(8, 0)},
	}
	cm := committer.New(log.NewNop(), f.cal, committer.Config{})
	f.uc = New(log.NewNop(), repo, f.ext, f.cal, alloc, cm, f.mail, cfg)
	f.uc.now = f.clock.Now
	t.Cleanup(func() {
		ctx, cancel := context.WithTimeout(context.Background(), time.Second)
		defer cancel()
		f.uc.Close(ctx)
	})
	return f
}

func (f *fixture) submit(t *testing.T, userID string, source model.Source, payload string) string {
	t.Helper()
	id, err := f.uc.Submit(context.Background(), model.TriggerEvent{UserID: userID, Source: source, Payload: payload})
	if err != nil {
		t.Fatalf("Submit: %v", err)
	}
	return id
}

// wait blocks until every admitted run has been finalized.
func (f *fixture) wait(t *testing.T, runID string) model.DispatchRun {
	t.Helper()
	done := make(chan struct{})
	go func() {
		f.uc.wg.Wait()
		close(done)
	}()
	select {
	case <-done:
	case <-time.After(5 * time.Second):
		t.Fatalf("run %s did not finish", runID)
	}

	run, err := f.uc.GetStatus(context.Background(), runID)
	if err != nil {
		t.Fatalf("GetStatus(%s): %v", runID, err)
	}
	return run
}

func assertSlot(t *testing.T, got model.ScheduledSlot, title string, start, end time.Time) {
	t.Helper()
	if got.TaskTitle != title || !got.Start.Equal(start) || !got.End.Equal(end) {
		t.Errorf("slot %q [%s, %s), want %q [%s, %s)", got.TaskTitle,
			got.Start.Format(time.RFC3339), got.End.Format(time.RFC3339),
			title, start.Format(time.RFC3339), end.Format(time.RFC3339))
	}
}
