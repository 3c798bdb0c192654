package allocator

import (
	"context"
	"fmt"
	"sort"
	"time"

	"intelligent-scheduler/internal/model"
)

// Index is the view of a user's availability the allocator works against.
// Insert is used to stage transient reservations.
type Index interface {
	Query(start, end time.Time) []model.BusyInterval
	Insert(iv model.BusyInterval) error
}

// Allocation is the result for one task. Slot is nil when Err is set.
type Allocation struct {
	Position int // position of Task in the input batch
	Task     model.TaskDescriptor
	Slot     *model.ScheduledSlot
	Err      error
}

// Allocator places tasks into free working time.
type Allocator struct {
	cfg      Config
	segments []Window
	workDays map[time.Weekday]bool
}

// New validates cfg and returns an Allocator.
func New(cfg Config) (*Allocator, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	days := make(map[time.Weekday]bool, len(cfg.WorkDays))
	for _, d := range cfg.WorkDays {
		days[d] = true
	}
	return &Allocator{
		cfg:      cfg,
		segments: cfg.segments(),
		workDays: days,
	}, nil
}

// Config returns the effective configuration.
func (a *Allocator) Config() Config {
	return a.cfg
}

// Allocate assigns each task the earliest free slot in its search window.
// Tasks are processed in priority order (high first) with input order as the
// tie-break, and every slot found is reserved in idx before the next task.
// The result follows processing order.
func (a *Allocator) Allocate(ctx context.Context, tasks []model.TaskDescriptor, idx Index, now time.Time) []Allocation {
	order := make([]int, len(tasks))
	for i := range order {
		order[i] = i
	}
	sort.SliceStable(order, func(i, j int) bool {
		return tasks[order[i]].Priority.Rank() > tasks[order[j]].Priority.Rank()
	})

	out := make([]Allocation, 0, len(tasks))
	for _, pos := range order {
		task := tasks[pos]
		alloc := Allocation{Position: pos, Task: task}

		if err := ctx.Err(); err != nil {
			alloc.Err = err
			out = append(out, alloc)
			continue
		}

		slot, err := a.place(task, idx, now)
		if err != nil {
			alloc.Err = err
			out = append(out, alloc)
			continue
		}

		if err := idx.Insert(slot.Interval()); err != nil {
			alloc.Err = fmt.Errorf("reserve slot: %w", err)
			out = append(out, alloc)
			continue
		}

		alloc.Slot = &slot
		out = append(out, alloc)
	}
	return out
}

// Duration returns the effective duration for task.
func (a *Allocator) Duration(task model.TaskDescriptor) time.Duration {
	d := a.cfg.DefaultDuration
	if task.DurationHint != nil && *task.DurationHint > 0 {
		d = *task.DurationHint
	}
	if d < a.cfg.MinDuration {
		d = a.cfg.MinDuration
	}
	return d
}

// Window returns the search window [max(now, earliest), latest or now+lookahead].
func (a *Allocator) Window(task model.TaskDescriptor, now time.Time) (time.Time, time.Time) {
	start := now
	if task.EarliestStart != nil && task.EarliestStart.After(now) {
		start = *task.EarliestStart
	}
	end := now.AddDate(0, 0, a.cfg.LookaheadDays)
	if task.LatestEnd != nil {
		end = *task.LatestEnd
	}
	return start, end
}

func (a *Allocator) place(task model.TaskDescriptor, idx Index, now time.Time) (model.ScheduledSlot, error) {
	dur := a.Duration(task)
	winStart, winEnd := a.Window(task, now)

	unschedulable := func() error {
		return fmt.Errorf("%w: no available time slot of %d minutes between %s and %s",
			ErrUnschedulable, int(dur.Minutes()),
			winStart.In(a.cfg.Location).Format(time.RFC3339), winEnd.In(a.cfg.Location).Format(time.RFC3339))
	}

	if winEnd.Sub(winStart) < dur {
		return model.ScheduledSlot{}, unschedulable()
	}

	local := winStart.In(a.cfg.Location)
	for day := midnight(local); day.Before(winEnd); day = midnight(day.AddDate(0, 0, 1)) {
		if !a.workDays[day.Weekday()] {
			continue
		}

		for _, seg := range a.segments {
			segStart := clock(day, seg.Start)
			segEnd := clock(day, seg.End)
			if segStart.Before(winStart) {
				segStart = winStart
			}
			if segEnd.After(winEnd) {
				segEnd = winEnd
			}
			if segEnd.Sub(segStart) < dur {
				continue
			}

			if start, ok := a.firstFit(day, segStart, segEnd, dur, idx.Query(segStart, segEnd)); ok {
				return model.ScheduledSlot{
					TaskTitle: task.Title,
					Start:     start,
					End:       start.Add(dur),
				}, nil
			}
		}
	}

	return model.ScheduledSlot{}, unschedulable()
}

// firstFit walks the gaps between busy intervals inside [segStart, segEnd).
func (a *Allocator) firstFit(day, segStart, segEnd time.Time, dur time.Duration, busy []model.BusyInterval) (time.Time, bool) {
	cursor := segStart
	for _, b := range busy {
		gapEnd := b.Start
		if gapEnd.After(segEnd) {
			gapEnd = segEnd
		}
		if start, ok := a.fit(day, cursor, gapEnd, dur); ok {
			return start, true
		}
		if b.End.After(cursor) {
			cursor = b.End
		}
		if !cursor.Before(segEnd) {
			return time.Time{}, false
		}
	}
	return a.fit(day, cursor, segEnd, dur)
}

func (a *Allocator) fit(day, gapStart, gapEnd time.Time, dur time.Duration) (time.Time, bool) {
	start := a.align(day, gapStart)
	if start.Add(dur).After(gapEnd) {
		return time.Time{}, false
	}
	return start, true
}

// align rounds t up to the next granularity boundary counted from day's midnight.
func (a *Allocator) align(day, t time.Time) time.Time {
	g := a.cfg.Granularity
	off := t.Sub(day)
	if rem := off % g; rem != 0 {
		off += g - rem
	}
	return day.Add(off)
}

func midnight(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, t.Location())
}

func clock(day time.Time, off time.Duration) time.Time {
	h := int(off / time.Hour)
	m := int((off % time.Hour) / time.Minute)
	return time.Date(day.Year(), day.Month(), day.Day(), h, m, 0, 0, day.Location())
}
