package repository

import "context"

type Repository interface {
	// Processed returns the subset of ids already recorded for userID.
	Processed(ctx context.Context, userID string, ids []string) (map[string]bool, error)
	MarkProcessed(ctx context.Context, opt MarkProcessedOptions) error
}
