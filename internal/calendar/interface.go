package calendar

import (
	"context"
	"time"

	"intelligent-scheduler/internal/model"
)

// Reader lists what already occupies a user's calendar.
type Reader interface {
	ListBusy(ctx context.Context, userID string, start, end time.Time) ([]model.BusyInterval, error)
}

// Writer creates events on a user's calendar.
type Writer interface {
	CreateEvent(ctx context.Context, in CreateEventInput) (CreatedEvent, error)
}

// Calendar is the read/write capability the scheduler needs from a user calendar.
type Calendar interface {
	Reader
	Writer
}
