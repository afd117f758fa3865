// Package fetch retrieves tracker pages over HTTP.
//
// Client.Fetch performs a GET and returns the response body. Failures are
// classified: network errors, timeouts, HTTP 5xx and 429 are transient and
// retried with exponential backoff up to a fixed number of attempts; any
// other non-2xx status is permanent and returned at once as a *StatusError.
// When every attempt fails the returned *FetchError matches
// ErrRetriesExhausted, which the crawler treats as fatal.
//
// # Usage
//
//	client, err := fetch.NewClient(
//	    fetch.WithMaxRetries(5),
//	    fetch.WithBackoff(time.Second, 30*time.Second),
//	)
//	body, err := client.Fetch(ctx, "https://github.com/o/r/commits/main")
//
// Requests may be routed through a SOCKS5 proxy; see NewHTTPClient.
package fetch
