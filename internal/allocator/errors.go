package allocator

import "errors"

var (
	ErrUnschedulable = errors.New("unschedulable")
	ErrInvalidConfig = errors.New("invalid allocator config")
)
