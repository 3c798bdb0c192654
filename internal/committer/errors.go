package committer

import (
	"errors"

	"intelligent-scheduler/internal/calendar"
)

var (
	ErrExternalUnavailable = calendar.ErrExternalUnavailable
	ErrConflict            = calendar.ErrConflict
	ErrInvalidSlot         = errors.New("committer: slot has no duration")
)
