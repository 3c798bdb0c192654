package model

import "time"

// RunStatus is the DispatchRun state.
type RunStatus string

const (
	RunStatusQueued    RunStatus = "queued"
	RunStatusRunning   RunStatus = "running"
	RunStatusSucceeded RunStatus = "succeeded"
	RunStatusPartial   RunStatus = "partial"
	RunStatusFailed    RunStatus = "failed"
)

// IsTerminal reports whether no further transition is possible.
func (s RunStatus) IsTerminal() bool {
	return s == RunStatusSucceeded || s == RunStatusPartial || s == RunStatusFailed
}

// OutcomeState is the per-task result inside a run.
type OutcomeState string

const (
	OutcomeCommitted     OutcomeState = "committed"
	OutcomeUnschedulable OutcomeState = "unschedulable"
	OutcomeFailed        OutcomeState = "failed"
)

// TaskOutcome records what happened to one extracted task.
type TaskOutcome struct {
	Title    string         `json:"title"`
	Priority Priority       `json:"priority"`
	State    OutcomeState   `json:"state"`
	Slot     *ScheduledSlot `json:"slot,omitempty"`
	Error    string         `json:"error,omitempty"`
}

// DispatchRun is the tracked execution of one TriggerEvent.
type DispatchRun struct {
	RunID        string
	UserID       string
	Source       Source
	Status       RunStatus
	CreatedTasks []ScheduledSlot
	Outcomes     []TaskOutcome
	Error        string
	CreatedAt    time.Time
	StartedAt    *time.Time
	FinishedAt   *time.Time
}

// Clone returns a deep copy safe to hand to callers.
func (r DispatchRun) Clone() DispatchRun {
	out := r
	if r.CreatedTasks != nil {
		out.CreatedTasks = append([]ScheduledSlot(nil), r.CreatedTasks...)
	}
	if r.Outcomes != nil {
		out.Outcomes = make([]TaskOutcome, len(r.Outcomes))
		for i, o := range r.Outcomes {
			if o.Slot != nil {
				s := *o.Slot
				o.Slot = &s
			}
			out.Outcomes[i] = o
		}
	}
	if r.StartedAt != nil {
		t := *r.StartedAt
		out.StartedAt = &t
	}
	if r.FinishedAt != nil {
		t := *r.FinishedAt
		out.FinishedAt = &t
	}
	return out
}
