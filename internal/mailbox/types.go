package mailbox

import (
	"strings"
	"time"
)

type Message struct {
	ID         string
	From       string
	Subject    string
	Body       string
	ReceivedAt time.Time
}

// Text is what gets handed to the extractor.
func (m Message) Text() string {
	var sb strings.Builder
	if m.Subject != "" {
		sb.WriteString("Subject: ")
		sb.WriteString(m.Subject)
		sb.WriteString("\n\n")
	}
	sb.WriteString(m.Body)
	return strings.TrimSpace(sb.String())
}

type MarkProcessedInput struct {
	UserID       string
	RunID        string
	MessageIDs   []string
	TasksCreated int
}
