package database

import "errors"

var (
	// ErrRunNotFound is returned when no run matches the lookup.
	ErrRunNotFound = errors.New("crawl run not found")

	// ErrNilRun is returned by SaveRun for a nil run.
	ErrNilRun = errors.New("run is nil")
)
