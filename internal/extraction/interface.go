package extraction

import (
	"context"

	"intelligent-scheduler/internal/model"
)

// UseCase turns free text into ordered task descriptors.
type UseCase interface {
	Extract(ctx context.Context, text string) ([]model.TaskDescriptor, error)
}
