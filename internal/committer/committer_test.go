package committer

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"intelligent-scheduler/internal/availability"
	"intelligent-scheduler/internal/calendar"
	"intelligent-scheduler/internal/model"
	"intelligent-scheduler/pkg/log"
)

type fakeWriter struct {
	mu    sync.Mutex
	calls int
	fail  map[string]error // by title
}

func (f *fakeWriter) CreateEvent(ctx context.Context, in calendar.CreateEventInput) (calendar.CreatedEvent, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls++
	if err := f.fail[in.Title]; err != nil {
		return calendar.CreatedEvent{}, err
	}
	return calendar.CreatedEvent{ID: "evt-" + in.Title, Link: "https://calendar/" + in.Title}, nil
}

type indexReservations struct {
	idx      *availability.Index
	promoted []model.BusyInterval
	held     []model.BusyInterval
}

func (r *indexReservations) Promote(iv model.BusyInterval) { r.promoted = append(r.promoted, iv) }
func (r *indexReservations) Hold(iv model.BusyInterval) { r.held = append(r.held, iv) }
func (r *indexReservations) Release(iv model.BusyInterval) error {
	return r.idx.Remove(iv)
}

var base = time.Date(2025, 3, 3, 9, 0, 0, 0, time.UTC)

func slot(title string, startMin int) model.ScheduledSlot {
	return model.ScheduledSlot{
		TaskTitle: title,
		Start:     base.Add(time.Duration(startMin) * time.Minute),
		End:       base.Add(time.Duration(startMin+30) * time.Minute),
	}
}

func TestCommit_OneOfThreeUnavailable(t *testing.T) {
	w := &fakeWriter{fail: map[string]error{"b": calendar.ErrExternalUnavailable}}
	c := New(log.NewNop(), w, Config{})

	slots := []model.ScheduledSlot{slot("a", 0), slot("b", 60), slot("c", 120)}
	idx := availability.New()
	for _, s := range slots {
		if err := idx.Insert(s.Interval()); err != nil {
			t.Fatalf("reserve: %v", err)
		}
	}
	res := &indexReservations{idx: idx}

	var errs []error
	for _, s := range slots {
		got, err := c.Commit(context.Background(), Request{UserID: "u1", Slot: s}, res)
		errs = append(errs, err)
		if err == nil && got.EventID != "evt-"+s.TaskTitle {
			t.Errorf("expected event id on %s, got %+v", s.TaskTitle, got)
		}
	}

	if errs[0] != nil || errs[2] != nil {
		t.Fatalf("expected a and c to commit, got %v", errs)
	}
	if !errors.Is(errs[1], ErrExternalUnavailable) {
		t.Fatalf("expected ErrExternalUnavailable for b, got %v", errs[1])
	}
	if idx.IsFree(slots[0].Interval()) || idx.IsFree(slots[2].Interval()) {
		t.Errorf("committed slots must stay busy")
	}
	if !idx.IsFree(slots[1].Interval()) {
		t.Errorf("rolled back slot must be free, index=%+v", idx.Snapshot())
	}
	if len(res.promoted) != 2 {
		t.Errorf("expected 2 promotions, got %d", len(res.promoted))
	}
}

func TestCommit_ConflictKeepsReservation(t *testing.T) {
	w := &fakeWriter{fail: map[string]error{"x": calendar.ErrConflict}}
	c := New(log.NewNop(), w, Config{})

	s := slot("x", 0)
	idx := availability.New(s.Interval())
	res := &indexReservations{idx: idx}
	_, err := c.Commit(context.Background(), Request{UserID: "u1", Slot: s}, res)
	if !errors.Is(err, ErrConflict) {
		t.Fatalf("expected ErrConflict, got %v", err)
	}
	if idx.IsFree(s.Interval()) {
		t.Errorf("conflicting range must stay busy")
	}
	if len(res.held) != 1 || len(res.promoted) != 0 {
		t.Errorf("expected the range held, got held=%v promoted=%v", res.held, res.promoted)
	}
}

func TestCommit_UnknownErrorIsUnavailable(t *testing.T) {
	w := &fakeWriter{fail: map[string]error{"x": errors.New("boom")}}
	c := New(log.NewNop(), w, Config{})

	s := slot("x", 0)
	idx := availability.New(s.Interval())
	_, err := c.Commit(context.Background(), Request{UserID: "u1", Slot: s}, &indexReservations{idx: idx})
	if !errors.Is(err, ErrExternalUnavailable) {
		t.Fatalf("expected ErrExternalUnavailable, got %v", err)
	}
	if !idx.IsFree(s.Interval()) {
		t.Errorf("reservation must be released")
	}
}

func TestCommit_BreakerOpens(t *testing.T) {
	w := &fakeWriter{fail: map[string]error{"down": calendar.ErrExternalUnavailable}}
	c := New(log.NewNop(), w, Config{FailureThreshold: 2, Timeout: time.Hour})
	res := &indexReservations{idx: availability.New()}

	for i := 0; i < 2; i++ {
		c.Commit(context.Background(), Request{UserID: "u1", Slot: slot("down", i*60)}, res)
	}
	if c.BreakerState("u1") != "open" {
		t.Fatalf("expected open breaker, got %s", c.BreakerState("u1"))
	}

	_, err := c.Commit(context.Background(), Request{UserID: "u1", Slot: slot("ok", 300)}, res)
	if !errors.Is(err, ErrExternalUnavailable) {
		t.Errorf("expected ErrExternalUnavailable from open breaker, got %v", err)
	}
	if w.calls != 2 {
		t.Errorf("open breaker must not call out, calls=%d", w.calls)
	}

	// Breakers are per user.
	if _, err := c.Commit(context.Background(), Request{UserID: "u2", Slot: slot("ok", 300)}, res); err != nil {
		t.Errorf("other user must not be affected: %v", err)
	}
}

func TestCommit_ConflictsDoNotTripBreaker(t *testing.T) {
	w := &fakeWriter{fail: map[string]error{"x": calendar.ErrConflict}}
	c := New(log.NewNop(), w, Config{FailureThreshold: 1})
	res := &indexReservations{idx: availability.New()}

	for i := 0; i < 3; i++ {
		c.Commit(context.Background(), Request{UserID: "u1", Slot: slot("x", i*60)}, res)
	}
	if c.BreakerState("u1") != "closed" {
		t.Errorf("expected closed breaker, got %s", c.BreakerState("u1"))
	}
}

func TestCommit_BreakersAreBounded(t *testing.T) {
	c := New(log.NewNop(), &fakeWriter{}, Config{BreakerCacheSize: 2})
	res := &indexReservations{idx: availability.New()}

	for i, user := range []string{"u1", "u2", "u3", "u4"} {
		if _, err := c.Commit(context.Background(), Request{UserID: user, Slot: slot("ok", i*60)}, res); err != nil {
			t.Fatalf("Commit(%s): %v", user, err)
		}
	}
	if n := c.breakers.Len(); n != 2 {
		t.Errorf("expected 2 cached breakers, got %d", n)
	}
	if _, ok := c.breakers.Peek("u1"); ok {
		t.Errorf("least recently used breaker must be evicted")
	}
}

func TestCommit_InvalidSlot(t *testing.T) {
	c := New(log.NewNop(), &fakeWriter{}, Config{})
	_, err := c.Commit(context.Background(), Request{UserID: "u1", Slot: model.ScheduledSlot{Start: base, End: base}}, &indexReservations{idx: availability.New()})
	if !errors.Is(err, ErrInvalidSlot) {
		t.Errorf("expected ErrInvalidSlot, got %v", err)
	}
}
