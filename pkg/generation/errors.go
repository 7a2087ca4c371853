package generation

import (
	"errors"
	"fmt"
)

var (
	// ErrEmptyResult is returned when a successful response carries no image part.
	ErrEmptyResult = errors.New("generation returned no image")

	// ErrMisconfigured is returned when the API credential is missing or a placeholder.
	ErrMisconfigured = errors.New("generation credential not configured")
)

// TransportError reports a failed call to the generation endpoint.
// StatusCode is 0 when no HTTP response was received (network error, timeout).
type TransportError struct {
	StatusCode int
	Err        error
}

func (e *TransportError) Error() string {
	if e.StatusCode == 0 {
		return fmt.Sprintf("generation transport error: %v", e.Err)
	}
	return fmt.Sprintf("generation transport error: status=%d: %v", e.StatusCode, e.Err)
}

func (e *TransportError) Unwrap() error { return e.Err }
