package chatcompat

import (
	"errors"
	"fmt"
)

var (
	ErrEmptyRequest = errors.New("chatcompat: request has no messages")
	ErrNoChoices    = errors.New("chatcompat: response has no choices")
)

// APIError is a non-200 answer from the endpoint.
type APIError struct {
	StatusCode int
	Message    string
}

func (e *APIError) Error() string {
	return fmt.Sprintf("chatcompat: API error %d: %s", e.StatusCode, e.Message)
}
