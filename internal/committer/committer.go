// Package committer turns reserved slots into calendar events and settles the
// reservation in the user's availability index afterwards.
package committer

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"github.com/hashicorp/golang-lru/v2/expirable"
	"github.com/sony/gobreaker/v2"

	"intelligent-scheduler/internal/calendar"
	"intelligent-scheduler/internal/model"
	"intelligent-scheduler/pkg/log"
)

// Reservations settles a transient reservation made by the allocator.
// Implementations serialize calls per user.
type Reservations interface {
	// Promote marks the interval as durable.
	Promote(iv model.BusyInterval)
	// Hold keeps the interval busy without an event behind it.
	Hold(iv model.BusyInterval)
	// Release removes the interval from the index.
	Release(iv model.BusyInterval) error
}

// Request is one slot to persist.
type Request struct {
	UserID      string
	Description string
	Slot        model.ScheduledSlot
}

type Committer struct {
	l      log.Logger
	writer calendar.Writer
	cfg    Config

	mu       sync.Mutex
	breakers *expirable.LRU[string, *gobreaker.CircuitBreaker[calendar.CreatedEvent]]
}

func New(l log.Logger, writer calendar.Writer, cfg Config) *Committer {
	cfg.setDefaults()
	return &Committer{
		l:        l,
		writer:   writer,
		cfg:      cfg,
		breakers: expirable.NewLRU[string, *gobreaker.CircuitBreaker[calendar.CreatedEvent]](cfg.BreakerCacheSize, nil, cfg.BreakerTTL),
	}
}

// Commit creates the calendar event of req.Slot and settles the reservation:
// promoted on success, released on ErrExternalUnavailable, held on ErrConflict
// since the calendar reports the range as taken.
func (c *Committer) Commit(ctx context.Context, req Request, res Reservations) (model.ScheduledSlot, error) {
	slot := req.Slot
	iv := slot.Interval()
	if !iv.Valid() {
		return slot, ErrInvalidSlot
	}

	ev, err := c.breaker(req.UserID).Execute(func() (calendar.CreatedEvent, error) {
		return c.writer.CreateEvent(ctx, calendar.CreateEventInput{
			UserID:      req.UserID,
			Title:       slot.TaskTitle,
			Description: req.Description,
			Start:       slot.Start,
			End:         slot.End,
		})
	})
	if err != nil {
		err = classify(err)
		if errors.Is(err, ErrConflict) {
			res.Hold(iv)
			c.l.Warnf(ctx, "committer.Commit %q: %v", slot.TaskTitle, err)
			return slot, err
		}
		if rerr := res.Release(iv); rerr != nil {
			c.l.Errorf(ctx, "committer.Commit: release %q: %v", slot.TaskTitle, rerr)
		}
		c.l.Warnf(ctx, "committer.Commit %q: %v", slot.TaskTitle, err)
		return slot, err
	}

	res.Promote(iv)
	slot.EventID = ev.ID
	slot.EventLink = ev.Link
	return slot, nil
}

// BreakerState reports the breaker state for userID.
func (c *Committer) BreakerState(userID string) string {
	return c.breaker(userID).State().String()
}

func (c *Committer) breaker(userID string) *gobreaker.CircuitBreaker[calendar.CreatedEvent] {
	c.mu.Lock()
	defer c.mu.Unlock()

	if cb, ok := c.breakers.Get(userID); ok {
		return cb
	}

	threshold := c.cfg.FailureThreshold
	cb := gobreaker.NewCircuitBreaker[calendar.CreatedEvent](gobreaker.Settings{
		Name:        "calendar:" + userID,
		MaxRequests: c.cfg.MaxRequests,
		Interval:    c.cfg.Interval,
		Timeout:     c.cfg.Timeout,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			return counts.ConsecutiveFailures >= threshold
		},
		// A conflict is an answer from a healthy calendar.
		IsSuccessful: func(err error) bool {
			return err == nil || errors.Is(err, calendar.ErrConflict)
		},
		OnStateChange: func(name string, from, to gobreaker.State) {
			c.l.Infof(context.Background(), "committer: circuit breaker %s changed from %s to %s", name, from, to)
		},
	})
	c.breakers.Add(userID, cb)
	return cb
}

// classify folds every failure that is not a conflict into ErrExternalUnavailable.
func classify(err error) error {
	switch {
	case errors.Is(err, ErrConflict), errors.Is(err, ErrExternalUnavailable):
		return err
	case errors.Is(err, gobreaker.ErrOpenState), errors.Is(err, gobreaker.ErrTooManyRequests):
		return fmt.Errorf("%w: %v", ErrExternalUnavailable, err)
	default:
		return fmt.Errorf("%w: %w", ErrExternalUnavailable, err)
	}
}
