package fetch

import (
	"errors"
	"fmt"
	"io"
	"net"
	"net/http"
	"net/url"
	"syscall"
	"time"
)

var (
	// ErrNoContent is returned for an empty URL. No request is made.
	// The crawler uses an empty cursor to mark the end of the history.
	ErrNoContent = errors.New("no content: empty URL")

	// ErrRetriesExhausted is matched by a *FetchError returned after every
	// attempt failed with a transient error.
	ErrRetriesExhausted = errors.New("fetch retries exhausted")

	// ErrBodyTooLarge is returned when a response body exceeds the size
	// limit. It is permanent: the page is never read partially.
	ErrBodyTooLarge = errors.New("response body too large")

	// ErrInvalidProxyAddress is returned when the proxy address format is invalid.
	// Expected format is "host:port".
	ErrInvalidProxyAddress = errors.New("invalid proxy address format: expected host:port")
)

// StatusError is returned when the server answers with a non-2xx status.
type StatusError struct {
	// URL is the requested URL.
	URL string

	// StatusCode is the HTTP status code.
	StatusCode int

	// RetryAfter is the wait requested by a Retry-After header, or zero.
	RetryAfter time.Duration
}

// Error implements error.
func (e *StatusError) Error() string {
	return fmt.Sprintf("GET %s: unexpected status %d %s", e.URL, e.StatusCode, http.StatusText(e.StatusCode))
}

// Transient reports whether the status is worth retrying.
func (e *StatusError) Transient() bool {
	return e.StatusCode >= http.StatusInternalServerError || e.StatusCode == http.StatusTooManyRequests
}

// FetchError is returned when a page could not be fetched after all retries.
type FetchError struct {
	// URL is the requested URL.
	URL string

	// Attempts is the number of requests made.
	Attempts int

	// Err is the error of the last attempt.
	Err error
}

// Error implements error.
func (e *FetchError) Error() string {
	return fmt.Sprintf("fetch %s: giving up after %d attempts: %v", e.URL, e.Attempts, e.Err)
}

// Unwrap lets errors.Is match both ErrRetriesExhausted and the last error.
func (e *FetchError) Unwrap() []error {
	return []error{ErrRetriesExhausted, e.Err}
}

// IsTransient reports whether err is a failure that may succeed on retry:
// network errors, timeouts, truncated responses and 5xx/429 statuses.
func IsTransient(err error) bool {
	if err == nil {
		return false
	}

	var statusErr *StatusError
	if errors.As(err, &statusErr) {
		return statusErr.Transient()
	}

	if errors.Is(err, io.ErrUnexpectedEOF) || errors.Is(err, io.EOF) ||
		errors.Is(err, syscall.ECONNRESET) || errors.Is(err, syscall.ECONNREFUSED) {
		return true
	}

	var urlErr *url.Error
	if errors.As(err, &urlErr) && urlErr.Timeout() {
		return true
	}

	var opErr *net.OpError
	if errors.As(err, &opErr) {
		return true
	}

	var netErr net.Error
	return errors.As(err, &netErr) && netErr.Timeout()
}
