package model

import (
	"strings"
	"time"
)

// Priority orders tasks competing for the same slot.
type Priority string

const (
	PriorityLow    Priority = "low"
	PriorityNormal Priority = "normal"
	PriorityHigh   Priority = "high"
)

// Rank returns a sortable weight, higher first.
func (p Priority) Rank() int {
	switch p {
	case PriorityHigh:
		return 2
	case PriorityLow:
		return 0
	default:
		return 1
	}
}

// ParsePriority normalizes free-form priority labels. Unknown labels map to normal.
func ParsePriority(s string) Priority {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "high", "urgent", "critical", "p0", "p1", "1":
		return PriorityHigh
	case "low", "minor", "p3", "p4", "3":
		return PriorityLow
	default:
		return PriorityNormal
	}
}

// TaskDescriptor is an extracted, not yet scheduled unit of intent.
type TaskDescriptor struct {
	Title         string
	Description   string
	DurationHint  *time.Duration
	EarliestStart *time.Time
	LatestEnd     *time.Time
	Priority      Priority
}

// BusyInterval is an occupied range [Start, End).
type BusyInterval struct {
	Start time.Time
	End   time.Time
}

// Valid reports whether Start < End.
func (b BusyInterval) Valid() bool {
	return b.Start.Before(b.End)
}

// Duration returns End - Start.
func (b BusyInterval) Duration() time.Duration {
	return b.End.Sub(b.Start)
}

// Overlaps reports whether b and o share any instant.
func (b BusyInterval) Overlaps(o BusyInterval) bool {
	return b.Start.Before(o.End) && o.Start.Before(b.End)
}

// ScheduledSlot is a concrete time range assigned to a task.
type ScheduledSlot struct {
	TaskTitle string    `json:"task_title"`
	Start     time.Time `json:"start"`
	End       time.Time `json:"end"`
	EventID   string    `json:"event_id,omitempty"`
	EventLink string    `json:"event_link,omitempty"`
}

// Interval returns the slot's range as a BusyInterval.
func (s ScheduledSlot) Interval() BusyInterval {
	return BusyInterval{Start: s.Start, End: s.End}
}
