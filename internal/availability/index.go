package availability

import (
	"fmt"
	"sort"
	"sync"
	"time"

	"intelligent-scheduler/internal/model"
)

// Index is the set of busy intervals of one user. Stored intervals are sorted
// by start and never overlap or touch; adjacent ranges are merged on insert.
// Since the intervals are disjoint, ends are sorted too, which keeps every
// lookup a binary search.
type Index struct {
	mu    sync.RWMutex
	items []model.BusyInterval
}

// New builds an Index from intervals, dropping malformed ones.
func New(intervals ...model.BusyInterval) *Index {
	x := &Index{}
	x.Reset(intervals)
	return x
}

// Query returns, in order, the stored intervals overlapping [start, end).
func (x *Index) Query(start, end time.Time) []model.BusyInterval {
	if !start.Before(end) {
		return nil
	}

	x.mu.RLock()
	defer x.mu.RUnlock()

	i := sort.Search(len(x.items), func(i int) bool {
		return x.items[i].End.After(start)
	})

	var out []model.BusyInterval
	for ; i < len(x.items) && x.items[i].Start.Before(end); i++ {
		out = append(out, x.items[i])
	}
	return out
}

// IsFree reports whether no stored interval overlaps iv.
func (x *Index) IsFree(iv model.BusyInterval) bool {
	return len(x.Query(iv.Start, iv.End)) == 0
}

// Insert merges iv into the set.
func (x *Index) Insert(iv model.BusyInterval) error {
	if !iv.Valid() {
		return fmt.Errorf("%w: [%s, %s)", ErrInvalidInterval, iv.Start.Format(time.RFC3339), iv.End.Format(time.RFC3339))
	}

	x.mu.Lock()
	defer x.mu.Unlock()
	x.insertLocked(iv)
	return nil
}

func (x *Index) insertLocked(iv model.BusyInterval) {
	// First interval ending at or after iv.Start touches or overlaps it.
	lo := sort.Search(len(x.items), func(i int) bool {
		return !x.items[i].End.Before(iv.Start)
	})
	// First interval starting strictly after iv.End is beyond reach.
	hi := sort.Search(len(x.items), func(i int) bool {
		return x.items[i].Start.After(iv.End)
	})

	merged := iv
	if lo < hi {
		if x.items[lo].Start.Before(merged.Start) {
			merged.Start = x.items[lo].Start
		}
		if x.items[hi-1].End.After(merged.End) {
			merged.End = x.items[hi-1].End
		}
	}

	x.items = append(x.items[:lo], append([]model.BusyInterval{merged}, x.items[hi:]...)...)
}

// Remove subtracts iv from the set. Removing a range that is not stored is a no-op.
func (x *Index) Remove(iv model.BusyInterval) error {
	if !iv.Valid() {
		return fmt.Errorf("%w: [%s, %s)", ErrInvalidInterval, iv.Start.Format(time.RFC3339), iv.End.Format(time.RFC3339))
	}

	x.mu.Lock()
	defer x.mu.Unlock()

	lo := sort.Search(len(x.items), func(i int) bool {
		return x.items[i].End.After(iv.Start)
	})
	hi := sort.Search(len(x.items), func(i int) bool {
		return !x.items[i].Start.Before(iv.End)
	})
	if lo >= hi {
		return nil
	}

	var rest []model.BusyInterval
	if first := x.items[lo]; first.Start.Before(iv.Start) {
		rest = append(rest, model.BusyInterval{Start: first.Start, End: iv.Start})
	}
	if last := x.items[hi-1]; last.End.After(iv.End) {
		rest = append(rest, model.BusyInterval{Start: iv.End, End: last.End})
	}

	x.items = append(x.items[:lo], append(rest, x.items[hi:]...)...)
	return nil
}

// Reset replaces the whole set. Malformed intervals are skipped.
func (x *Index) Reset(intervals []model.BusyInterval) {
	x.mu.Lock()
	defer x.mu.Unlock()

	x.items = x.items[:0]
	for _, iv := range intervals {
		if iv.Valid() {
			x.insertLocked(iv)
		}
	}
}

// Snapshot returns a copy of the stored intervals.
func (x *Index) Snapshot() []model.BusyInterval {
	x.mu.RLock()
	defer x.mu.RUnlock()
	return append([]model.BusyInterval(nil), x.items...)
}

// Len returns the number of stored (merged) intervals.
func (x *Index) Len() int {
	x.mu.RLock()
	defer x.mu.RUnlock()
	return len(x.items)
}
