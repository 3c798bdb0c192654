package usecase

import (
	"context"
	"errors"
	"sync"
	"time"

	"intelligent-scheduler/internal/allocator"
	"intelligent-scheduler/internal/availability"
	"intelligent-scheduler/internal/committer"
	"intelligent-scheduler/internal/model"
)

var errRunEnded = errors.New("run already ended")

// session is the scheduling state of one user. The index is written only
// under mu; calendar calls happen outside it.
type session struct {
	mu       sync.Mutex
	index    *availability.Index
	runs     map[string]bool
	reserved map[string][]model.BusyInterval
	promoted map[string][]model.BusyInterval
	held     map[string][]model.BusyInterval
	lastUsed time.Time
}

func newSession() *session {
	return &session{
		index:    availability.New(),
		runs:     make(map[string]bool),
		reserved: make(map[string][]model.BusyInterval),
		promoted: make(map[string][]model.BusyInterval),
		held:     make(map[string][]model.BusyInterval),
	}
}

// session returns the user's session, creating it on first use.
func (uc *implUseCase) session(userID string) *session {
	uc.mu.Lock()
	defer uc.mu.Unlock()

	s, ok := uc.sessions[userID]
	if !ok {
		s = newSession()
		uc.sessions[userID] = s
	}
	s.touch(uc.now())
	return s
}

func (uc *implUseCase) lookupSession(userID string) *session {
	uc.mu.Lock()
	defer uc.mu.Unlock()
	return uc.sessions[userID]
}

func (s *session) touch(now time.Time) {
	s.mu.Lock()
	s.lastUsed = now
	s.mu.Unlock()
}

// seed rebuilds the index from busy plus every interval still held by the
// user's other live runs, and registers runID. A run whose context is done
// is never registered.
func (s *session) seed(ctx context.Context, runID string, busy []model.BusyInterval) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := ctx.Err(); err != nil {
		return err
	}

	all := append([]model.BusyInterval(nil), busy...)
	for id := range s.runs {
		if id == runID {
			continue
		}
		all = append(all, s.reserved[id]...)
		all = append(all, s.promoted[id]...)
		all = append(all, s.held[id]...)
	}
	s.index.Reset(all)
	s.runs[runID] = true
	return nil
}

// allocate runs fn with the session locked. Inserts made through the index
// handed to fn are recorded as reservations of runID.
func (s *session) allocate(runID string, fn func(idx allocator.Index)) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if !s.runs[runID] {
		return errRunEnded
	}
	fn(&stagingIndex{s: s, runID: runID})
	return nil
}

// end unregisters runID and reports whether it had been seeded. Reservations
// the run never settled are rolled back; promoted and held ranges stay busy.
func (s *session) end(runID string, now time.Time) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	seeded := s.runs[runID]
	for _, iv := range s.reserved[runID] {
		// Reserved intervals are valid, Remove cannot fail.
		_ = s.index.Remove(iv)
	}
	delete(s.runs, runID)
	delete(s.reserved, runID)
	delete(s.promoted, runID)
	delete(s.held, runID)
	s.lastUsed = now
	return seeded
}

func (s *session) snapshot() []model.BusyInterval {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.index.Snapshot()
}

func (s *session) idleSince(cutoff time.Time) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.runs) == 0 && s.lastUsed.Before(cutoff)
}

func (s *session) reservations(runID string) committer.Reservations {
	return &runReservations{s: s, runID: runID}
}

// stagingIndex is only used while the session lock is held.
type stagingIndex struct {
	s     *session
	runID string
}

func (x *stagingIndex) Query(start, end time.Time) []model.BusyInterval {
	return x.s.index.Query(start, end)
}

func (x *stagingIndex) Insert(iv model.BusyInterval) error {
	if err := x.s.index.Insert(iv); err != nil {
		return err
	}
	x.s.reserved[x.runID] = append(x.s.reserved[x.runID], iv)
	return nil
}

type runReservations struct {
	s     *session
	runID string
}

// Promote keeps iv busy for the rest of the run. An interval settled after
// its run ended was rolled back by end and goes back into the index.
func (r *runReservations) Promote(iv model.BusyInterval) {
	r.settle(iv, r.s.promoted)
}

func (r *runReservations) Hold(iv model.BusyInterval) {
	r.settle(iv, r.s.held)
}

func (r *runReservations) settle(iv model.BusyInterval, into map[string][]model.BusyInterval) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	if !r.s.runs[r.runID] {
		_ = r.s.index.Insert(iv)
		return
	}
	r.s.reserved[r.runID] = without(r.s.reserved[r.runID], iv)
	into[r.runID] = append(into[r.runID], iv)
}

func (r *runReservations) Release(iv model.BusyInterval) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	// end already rolled back what the run left unsettled.
	if !r.s.runs[r.runID] {
		return nil
	}
	r.s.reserved[r.runID] = without(r.s.reserved[r.runID], iv)
	return r.s.index.Remove(iv)
}

func without(list []model.BusyInterval, iv model.BusyInterval) []model.BusyInterval {
	out := list[:0]
	for _, x := range list {
		if x.Start.Equal(iv.Start) && x.End.Equal(iv.End) {
			continue
		}
		out = append(out, x)
	}
	return out
}
