package calendar

import "time"

type CreateEventInput struct {
	UserID      string
	Title       string
	Description string
	Start       time.Time
	End         time.Time
}

type CreatedEvent struct {
	ID   string
	Link string
}
