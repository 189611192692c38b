package weather

import (
	"errors"
	"fmt"
)

var (
	// ErrMalformedResponse is returned when the provider answers with a
	// success status but the body lacks a required field or has the wrong
	// shape.
	ErrMalformedResponse = errors.New("malformed provider response")

	// ErrFetchStarted is returned when a Fetch is run a second time.
	ErrFetchStarted = errors.New("fetch already started")
)

// ProviderError is returned for a non-success HTTP status from the provider.
type ProviderError struct {
	StatusCode int
	Message    string
}

func (e *ProviderError) Error() string {
	if e.Message == "" {
		return fmt.Sprintf("provider error (status %d)", e.StatusCode)
	}
	return fmt.Sprintf("provider error (status %d): %s", e.StatusCode, e.Message)
}

func malformed(format string, args ...any) error {
	return fmt.Errorf("%w: %s", ErrMalformedResponse, fmt.Sprintf(format, args...))
}
