package datemath

import (
	"errors"
	"time"
)

// ErrUnrecognized is returned for phrases the parser cannot resolve.
var ErrUnrecognized = errors.New("datemath: unrecognized date expression")

// ParseResult holds the result of parsing a date expression.
type ParseResult struct {
	Time time.Time
	// DateOnly is set when the expression named a day but no time of day.
	DateOnly bool
}
