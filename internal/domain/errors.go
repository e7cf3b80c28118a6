package domain

import (
	"errors"
	"fmt"
)

// ErrClassificationRejected marks URLs or documents that fail the blog
// heuristics. Terminal: the pipeline never retries a rejected URL.
var ErrClassificationRejected = errors.New("url does not look like a blog or personal publication")

// ErrNoContentFound means every acquisition strategy ran and none produced
// a single article. Terminal for the current cycle only.
var ErrNoContentFound = errors.New("no articles found by any acquisition strategy")

// ErrFeedNotFound is returned when a publication id has no record.
var ErrFeedNotFound = errors.New("feed not found")

// FetchError wraps network, timeout, and HTTP-status failures. Retryable on
// the next scheduled cycle.
type FetchError struct {
	URL    string
	Status int
	Err    error
}

func (e *FetchError) Error() string {
	if e.Status != 0 {
		return fmt.Sprintf("fetch %s: status %d", e.URL, e.Status)
	}
	return fmt.Sprintf("fetch %s: %v", e.URL, e.Err)
}

func (e *FetchError) Unwrap() error { return e.Err }

// ParseError wraps malformed syndication or document payloads. Treated as a
// strategy failure; the acquisition chain continues.
type ParseError struct {
	URL string
	Err error
}

func (e *ParseError) Error() string {
	return fmt.Sprintf("parse %s: %v", e.URL, e.Err)
}

func (e *ParseError) Unwrap() error { return e.Err }
