package openlibrary

import (
	"errors"
	"fmt"
)

var (
	// ErrNotFound is returned when Open Library has no record for the ISBN.
	ErrNotFound = errors.New("book not found (404)")
	// ErrNetwork is returned when Open Library cannot be reached or a call times out.
	ErrNetwork = errors.New("network error")
	// ErrInvalidResponse is returned when a response body cannot be used.
	ErrInvalidResponse = errors.New("invalid response from Open Library")
)

// UpstreamError reports an error status other than 404.
type UpstreamError struct {
	StatusCode int
}

func (e *UpstreamError) Error() string {
	return fmt.Sprintf("Open Library returned status %d", e.StatusCode)
}
