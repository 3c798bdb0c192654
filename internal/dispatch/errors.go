package dispatch

import (
	"errors"
	"fmt"

	"intelligent-scheduler/internal/model"
)

var (
	ErrAlreadyInProgress = errors.New("dispatch: run already in progress")
	ErrRunNotFound       = errors.New("dispatch: run not found")
	ErrInvalidTrigger    = errors.New("dispatch: invalid trigger")
	ErrClosed            = errors.New("dispatch: dispatcher is shutting down")

	ErrNoTasks          = errors.New("dispatch: no tasks extracted")
	ErrNothingCommitted = errors.New("dispatch: no task could be scheduled")
)

// AlreadyInProgressError carries the id of the live run holding the
// (user, source) admission slot.
type AlreadyInProgressError struct {
	UserID        string
	Source        model.Source
	ExistingRunID string
}

func (e *AlreadyInProgressError) Error() string {
	return fmt.Sprintf("dispatch: %s run for user %s already in progress: %s", e.Source, e.UserID, e.ExistingRunID)
}

func (e *AlreadyInProgressError) Is(target error) bool {
	return target == ErrAlreadyInProgress
}
