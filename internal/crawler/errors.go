package crawler

import (
	"errors"
	"fmt"
)

var (
	// ErrCrawlAborted is matched by an *AbortError.
	ErrCrawlAborted = errors.New("crawl aborted")

	// ErrNoStartURL is returned when Crawl is called with an empty start URL.
	ErrNoStartURL = errors.New("no start URL")
)

// AbortError is returned when the crawl stops before the end of the
// history because a page could not be fetched.
type AbortError struct {
	// Cursor is the commits page the crawl was working on.
	Cursor string

	// Err is the error that caused the abort.
	Err error
}

// Error implements error.
func (e *AbortError) Error() string {
	return fmt.Sprintf("crawl aborted at %s: %v", e.Cursor, e.Err)
}

// Unwrap lets errors.Is match ErrCrawlAborted and the cause.
func (e *AbortError) Unwrap() []error {
	return []error{ErrCrawlAborted, e.Err}
}
