package google

import (
	"context"
	"errors"
	"fmt"
	"time"

	"intelligent-scheduler/internal/calendar"
	"intelligent-scheduler/internal/model"
	"intelligent-scheduler/pkg/gcalendar"
)

func (c *implCalendar) ListBusy(ctx context.Context, userID string, start, end time.Time) ([]model.BusyInterval, error) {
	client, err := c.client(ctx, userID)
	if err != nil {
		return nil, err
	}

	periods, err := client.QueryFreeBusy(ctx, gcalendar.FreeBusyRequest{
		CalendarID: c.calendarID,
		TimeMin:    start,
		TimeMax:    end,
		Timezone:   c.timezone,
	})
	if err != nil {
		c.l.Warnf(ctx, "calendar.google.ListBusy: %v", err)
		return nil, c.mapError(err)
	}

	out := make([]model.BusyInterval, 0, len(periods))
	for _, p := range periods {
		iv := model.BusyInterval{Start: p.Start, End: p.End}
		if iv.Valid() {
			out = append(out, iv)
		}
	}
	return out, nil
}

func (c *implCalendar) CreateEvent(ctx context.Context, in calendar.CreateEventInput) (calendar.CreatedEvent, error) {
	client, err := c.client(ctx, in.UserID)
	if err != nil {
		return calendar.CreatedEvent{}, err
	}

	ev, err := client.CreateEventIfFree(ctx, gcalendar.CreateEventRequest{
		CalendarID:  c.calendarID,
		Summary:     in.Title,
		Description: in.Description,
		StartTime:   in.Start,
		EndTime:     in.End,
		Timezone:    c.timezone,
	})
	if err != nil {
		c.l.Warnf(ctx, "calendar.google.CreateEvent %q: %v", in.Title, err)
		return calendar.CreatedEvent{}, c.mapError(err)
	}
	return calendar.CreatedEvent{ID: ev.ID, Link: ev.HtmlLink}, nil
}

// client returns the cached API client of userID, building it on a miss.
func (c *implCalendar) client(ctx context.Context, userID string) (*gcalendar.Client, error) {
	if cl, ok := c.clients.Get(userID); ok {
		return cl, nil
	}

	ts, err := c.resolver.TokenSource(ctx, userID)
	if err != nil {
		c.l.Errorf(ctx, "calendar.google.client: resolve token for %s: %v", userID, err)
		return nil, fmt.Errorf("%w: %v", calendar.ErrExternalUnavailable, err)
	}
	cl, err := c.newClient(ctx, ts)
	if err != nil {
		c.l.Errorf(ctx, "calendar.google.client: %v", err)
		return nil, fmt.Errorf("%w: %v", calendar.ErrExternalUnavailable, err)
	}
	c.clients.Add(userID, cl)
	return cl, nil
}

func (c *implCalendar) mapError(err error) error {
	switch {
	case gcalendar.IsConflict(err):
		return fmt.Errorf("%w: %v", calendar.ErrConflict, err)
	case errors.Is(err, context.Canceled), errors.Is(err, context.DeadlineExceeded):
		return fmt.Errorf("%w: %w", calendar.ErrExternalUnavailable, err)
	default:
		return fmt.Errorf("%w: %v", calendar.ErrExternalUnavailable, err)
	}
}
