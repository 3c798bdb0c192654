package gcalendar

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"golang.org/x/oauth2"
	"google.golang.org/api/calendar/v3"
	"google.golang.org/api/option"
)

const (
	// DefaultCalendarID is the authenticated user's main calendar.
	DefaultCalendarID = "primary"

	// Scope grants read and write access to the user's calendars.
	Scope = calendar.CalendarScope
)

// Client wraps the Google Calendar API service.
type Client struct {
	service *calendar.Service
}

// NewClientFromTokenSource creates a Calendar client authorized by ts.
func NewClientFromTokenSource(ctx context.Context, ts oauth2.TokenSource) (*Client, error) {
	svc, err := calendar.NewService(ctx, option.WithTokenSource(ts))
	if err != nil {
		return nil, fmt.Errorf("failed to create calendar service: %w", err)
	}
	return &Client{service: svc}, nil
}

// NewClientFromHTTP creates a Calendar client from a pre-configured HTTP client.
func NewClientFromHTTP(ctx context.Context, httpClient *http.Client) (*Client, error) {
	svc, err := calendar.NewService(ctx, option.WithHTTPClient(httpClient))
	if err != nil {
		return nil, fmt.Errorf("failed to create calendar service: %w", err)
	}
	return &Client{service: svc}, nil
}

// CreateEvent creates a new Google Calendar event.
func (c *Client) CreateEvent(ctx context.Context, req CreateEventRequest) (*Event, error) {
	event := &calendar.Event{
		Summary:     req.Summary,
		Description: req.Description,
		Start: &calendar.EventDateTime{
			DateTime: req.StartTime.Format(time.RFC3339),
			TimeZone: req.Timezone,
		},
		End: &calendar.EventDateTime{
			DateTime: req.EndTime.Format(time.RFC3339),
			TimeZone: req.Timezone,
		},
	}

	created, err := c.service.Events.Insert(calendarID(req.CalendarID), event).Context(ctx).Do()
	if err != nil {
		return nil, fmt.Errorf("failed to create calendar event: %w", err)
	}

	return &Event{
		ID:          created.Id,
		Summary:     created.Summary,
		Description: created.Description,
		HtmlLink:    created.HtmlLink,
		StartTime:   req.StartTime,
		EndTime:     req.EndTime,
	}, nil
}

// CreateEventIfFree re-checks the range with a free/busy query and creates the
// event only when nothing overlaps it. ErrSlotTaken is returned otherwise.
func (c *Client) CreateEventIfFree(ctx context.Context, req CreateEventRequest) (*Event, error) {
	busy, err := c.QueryFreeBusy(ctx, FreeBusyRequest{
		CalendarID: req.CalendarID,
		TimeMin:    req.StartTime,
		TimeMax:    req.EndTime,
		Timezone:   req.Timezone,
	})
	if err != nil {
		return nil, err
	}
	for _, b := range busy {
		if b.Start.Before(req.EndTime) && req.StartTime.Before(b.End) {
			return nil, fmt.Errorf("%w: busy %s-%s", ErrSlotTaken, b.Start.Format(time.RFC3339), b.End.Format(time.RFC3339))
		}
	}
	return c.CreateEvent(ctx, req)
}

// QueryFreeBusy returns the busy periods of one calendar in [TimeMin, TimeMax).
func (c *Client) QueryFreeBusy(ctx context.Context, req FreeBusyRequest) ([]BusyPeriod, error) {
	id := calendarID(req.CalendarID)
	query := &calendar.FreeBusyRequest{
		TimeMin:  req.TimeMin.Format(time.RFC3339),
		TimeMax:  req.TimeMax.Format(time.RFC3339),
		TimeZone: req.Timezone,
		Items:    []*calendar.FreeBusyRequestItem{{Id: id}},
	}

	resp, err := c.service.Freebusy.Query(query).Context(ctx).Do()
	if err != nil {
		return nil, fmt.Errorf("failed to query free/busy: %w", err)
	}

	cal, ok := resp.Calendars[id]
	if !ok {
		return nil, nil
	}
	if len(cal.Errors) > 0 {
		return nil, fmt.Errorf("free/busy error for %s: %s", id, cal.Errors[0].Reason)
	}

	periods := make([]BusyPeriod, 0, len(cal.Busy))
	for _, p := range cal.Busy {
		start, err := time.Parse(time.RFC3339, p.Start)
		if err != nil {
			return nil, fmt.Errorf("invalid busy start %q: %w", p.Start, err)
		}
		end, err := time.Parse(time.RFC3339, p.End)
		if err != nil {
			return nil, fmt.Errorf("invalid busy end %q: %w", p.End, err)
		}
		periods = append(periods, BusyPeriod{Start: start, End: end})
	}
	return periods, nil
}

func calendarID(id string) string {
	if id == "" {
		return DefaultCalendarID
	}
	return id
}
