package model

import "time"

// Source identifies what produced a TriggerEvent.
type Source string

const (
	SourceVoice     Source = "voice"
	SourceEmailSync Source = "email_sync"
)

// IsValid reports whether s is a known trigger source.
func (s Source) IsValid() bool {
	switch s {
	case SourceVoice, SourceEmailSync:
		return true
	}
	return false
}

// TriggerEvent is one user action or sync request submitted to the dispatcher.
type TriggerEvent struct {
	UserID     string
	Source     Source
	Payload    string // transcript or email body; may be empty for email_sync
	ReceivedAt time.Time
}
