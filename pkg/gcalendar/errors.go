package gcalendar

import (
	"errors"
	"net/http"

	"google.golang.org/api/googleapi"
)

var (
	// ErrSlotTaken is returned by CreateEventIfFree when the range is already busy.
	ErrSlotTaken = errors.New("gcalendar: time range is no longer free")
)

// StatusCode returns the HTTP status of a Google API error, or 0.
func StatusCode(err error) int {
	var apiErr *googleapi.Error
	if errors.As(err, &apiErr) {
		return apiErr.Code
	}
	return 0
}

// IsConflict reports whether err means the target range or event is taken.
func IsConflict(err error) bool {
	if errors.Is(err, ErrSlotTaken) {
		return true
	}
	code := StatusCode(err)
	return code == http.StatusConflict || code == http.StatusPreconditionFailed
}
