package mailbox

import "context"

// Source supplies email bodies for email_sync runs.
type Source interface {
	// FetchUnprocessed returns recent messages not yet recorded as processed,
	// oldest first.
	FetchUnprocessed(ctx context.Context, userID string) ([]Message, error)
	// MarkProcessed records messages so later syncs skip them.
	MarkProcessed(ctx context.Context, in MarkProcessedInput) error
}
