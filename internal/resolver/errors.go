package resolver

import "errors"

var (
	// ErrNoFetcher is returned by New when no page fetcher is given.
	ErrNoFetcher = errors.New("resolver requires a page fetcher")

	// ErrUnknownLinkKind is returned for a reference of an unknown kind.
	ErrUnknownLinkKind = errors.New("unknown reference kind")

	// ErrNoIssueBaseURL is returned when no issue URL can be built for an id.
	ErrNoIssueBaseURL = errors.New("cannot determine issue base URL")
)
