package gcalendar

import "time"

// CreateEventRequest is the input for creating a Google Calendar event.
type CreateEventRequest struct {
	CalendarID  string
	Summary     string
	Description string
	StartTime   time.Time
	EndTime     time.Time
	Timezone    string // e.g. "Asia/Ho_Chi_Minh"
}

// Event is a simplified representation of a Google Calendar event.
type Event struct {
	ID          string
	Summary     string
	Description string
	HtmlLink    string
	StartTime   time.Time
	EndTime     time.Time
}

// FreeBusyRequest is the input for a free/busy query on one calendar.
type FreeBusyRequest struct {
	CalendarID string
	TimeMin    time.Time
	TimeMax    time.Time
	Timezone   string
}

// BusyPeriod is one busy range returned by the free/busy API.
type BusyPeriod struct {
	Start time.Time
	End   time.Time
}
