package config

import "errors"

// Configuration validation errors returned by Config.Validate.
var (
	// ErrNoStartURL is returned when no commits page to start from is given.
	ErrNoStartURL = errors.New("no start URL specified: pass a commits page URL or set start_url")

	// ErrInvalidStartURL is returned when the start URL is not an http(s) URL.
	ErrInvalidStartURL = errors.New("invalid start URL: must be an absolute http or https URL")

	// ErrInvalidIssueBaseURL is returned when the issue base URL is not an http(s) URL.
	ErrInvalidIssueBaseURL = errors.New("invalid issue base URL: must be an absolute http or https URL")

	// ErrInvalidTimeout is returned when the timeout is not positive.
	ErrInvalidTimeout = errors.New("invalid timeout: must be positive")

	// ErrInvalidMaxRetries is returned when the retry count is negative.
	ErrInvalidMaxRetries = errors.New("invalid max retries: must be non-negative")

	// ErrInvalidBackoff is returned when the base delay is not positive or
	// exceeds the maximum backoff.
	ErrInvalidBackoff = errors.New("invalid backoff: base delay must be positive and not exceed max backoff")

	// ErrInvalidConcurrency is returned when the concurrency is not positive.
	ErrInvalidConcurrency = errors.New("invalid concurrency: must be positive")

	// ErrInvalidMaxPages is returned when the page limit is negative.
	ErrInvalidMaxPages = errors.New("invalid max pages: must be non-negative, 0 means unlimited")

	// ErrInvalidPageDelay is returned when the page delay is negative.
	ErrInvalidPageDelay = errors.New("invalid page delay: must be non-negative")

	// ErrInvalidMaxBodySize is returned when the max body size is negative.
	ErrInvalidMaxBodySize = errors.New("invalid max body size: must be non-negative")

	// ErrNoDBDir is returned when saving is enabled without a database directory.
	ErrNoDBDir = errors.New("no database directory: set db_dir or disable saving")

	// ErrIncompleteObjectStore is returned when an endpoint is set without
	// a bucket or credentials.
	ErrIncompleteObjectStore = errors.New("incomplete object store configuration: bucket, access_key and secret_key are required")

	// ErrConfigNotFound is returned when the configuration file does not exist.
	ErrConfigNotFound = errors.New("configuration file not found")
)
