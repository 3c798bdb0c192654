package repository

import "time"

type MarkProcessedOptions struct {
	UserID       string
	RunID        string
	MessageIDs   []string
	TasksCreated int
	ProcessedAt  time.Time
}
