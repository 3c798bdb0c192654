package calendar

import "errors"

var (
	// ErrExternalUnavailable covers transport failures, auth failures and
	// 5xx answers from the calendar provider.
	ErrExternalUnavailable = errors.New("calendar: external calendar unavailable")
	// ErrConflict means the requested range is already taken on the calendar.
	ErrConflict = errors.New("calendar: time range conflicts with an existing event")
)
