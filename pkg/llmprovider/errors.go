package llmprovider

import (
	"errors"
	"fmt"
)

var (
	ErrAllProvidersFailed    = errors.New("llmprovider: all providers failed")
	ErrNoProvidersConfigured = errors.New("llmprovider: no providers configured")
	ErrInvalidRequest        = errors.New("llmprovider: request has no messages")
	// ErrProviderTimeout is returned once the fallback chain runs out of time.
	ErrProviderTimeout = errors.New("llmprovider: timed out")
)

// ProviderError tags an error with the provider that produced it.
type ProviderError struct {
	Provider string
	Err      error
}

func (e *ProviderError) Error() string {
	return fmt.Sprintf("provider %s: %v", e.Provider, e.Err)
}

func (e *ProviderError) Unwrap() error { return e.Err }
