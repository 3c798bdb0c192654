package gmail

import "time"

// ListRequest selects messages of the authenticated user.
type ListRequest struct {
	Query      string // Gmail search syntax, e.g. "is:unread newer_than:1d"
	MaxResults int64
}

// Message is a decoded mail with its plain-text body.
type Message struct {
	ID         string
	ThreadID   string
	From       string
	Subject    string
	Snippet    string
	Body       string
	ReceivedAt time.Time
}
