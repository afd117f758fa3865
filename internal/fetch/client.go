package fetch

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"net"
	"net/http"
	"strconv"
	"strings"
	"sync/atomic"
	"time"

	"golang.org/x/net/proxy"
)

// Default client settings.
const (
	// DefaultMaxRetries is the number of retries after the first attempt.
	DefaultMaxRetries = 5

	// DefaultBaseDelay is the wait before the first retry. It doubles on
	// every further retry.
	DefaultBaseDelay = 1 * time.Second

	// DefaultMaxDelay caps a single wait between retries.
	DefaultMaxDelay = 30 * time.Second

	// DefaultTimeout bounds a single request including reading the body.
	DefaultTimeout = 60 * time.Second

	// DefaultMaxBodySize is the largest response body accepted.
	DefaultMaxBodySize = 10 * 1024 * 1024 // 10MB

	// DefaultUserAgent identifies commitmine in HTTP requests.
	DefaultUserAgent = "commitmine/1.0 (+https://github.com/nao1215/commitmine)"

	// maxRedirects limits redirect chains.
	maxRedirects = 10
)

// Client fetches pages with bounded retries.
// It is safe for concurrent use.
type Client struct {
	// httpClient performs the requests.
	httpClient *http.Client

	// userAgent is the User-Agent header to use.
	userAgent string

	// headers are extra request headers sent with every request.
	headers map[string]string

	// hostHeaders are sent only to the lower-cased host they are keyed by,
	// after headers.
	hostHeaders map[string]map[string]string

	// maxBodySize is the largest body accepted; larger ones fail with
	// ErrBodyTooLarge.
	maxBodySize int64

	// maxRetries is the number of retries after the first attempt.
	maxRetries int

	// baseDelay and maxDelay shape the exponential backoff.
	baseDelay time.Duration
	maxDelay  time.Duration

	// logger reports retries.
	logger *slog.Logger

	// requests counts every HTTP request made, retries included.
	requests atomic.Int64
}

// Option configures a Client.
type Option func(*Client)

// WithHTTPClient sets the underlying HTTP client.
// Use NewHTTPClient to build one with a timeout and an optional proxy.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) {
		c.httpClient = hc
	}
}

// WithUserAgent sets a custom User-Agent header.
func WithUserAgent(ua string) Option {
	return func(c *Client) {
		if ua != "" {
			c.userAgent = ua
		}
	}
}

// WithHeaders sets extra headers sent with every request.
func WithHeaders(headers map[string]string) Option {
	return func(c *Client) {
		c.headers = headers
	}
}

// WithHostHeaders sets headers sent only to a given host. Keys are host
// names without port; they override WithHeaders values of the same name.
func WithHostHeaders(hosts map[string]map[string]string) Option {
	return func(c *Client) {
		c.hostHeaders = make(map[string]map[string]string, len(hosts))
		for host, headers := range hosts {
			c.hostHeaders[strings.ToLower(host)] = headers
		}
	}
}

// WithMaxBodySize sets the maximum response body size. A larger body
// fails the fetch with ErrBodyTooLarge.
func WithMaxBodySize(size int64) Option {
	return func(c *Client) {
		if size > 0 {
			c.maxBodySize = size
		}
	}
}

// WithMaxRetries sets how many times a transient failure is retried.
// Zero disables retries.
func WithMaxRetries(n int) Option {
	return func(c *Client) {
		if n >= 0 {
			c.maxRetries = n
		}
	}
}

// WithBackoff sets the first retry delay and the cap on any single delay.
func WithBackoff(base, maxDelay time.Duration) Option {
	return func(c *Client) {
		c.baseDelay = base
		c.maxDelay = maxDelay
	}
}

// WithLogger sets a custom logger.
func WithLogger(logger *slog.Logger) Option {
	return func(c *Client) {
		c.logger = logger
	}
}

// NewClient creates a Client. Without WithHTTPClient it uses a direct
// connection with DefaultTimeout.
func NewClient(opts ...Option) (*Client, error) {
	c := &Client{
		userAgent:   DefaultUserAgent,
		maxBodySize: DefaultMaxBodySize,
		maxRetries:  DefaultMaxRetries,
		baseDelay:   DefaultBaseDelay,
		maxDelay:    DefaultMaxDelay,
	}

	for _, opt := range opts {
		opt(c)
	}

	if c.httpClient == nil {
		hc, err := NewHTTPClient(DefaultTimeout, "")
		if err != nil {
			return nil, err
		}
		c.httpClient = hc
	}
	if c.logger == nil {
		c.logger = slog.Default()
	}
	if c.maxDelay < c.baseDelay {
		c.maxDelay = c.baseDelay
	}

	return c, nil
}

// NewHTTPClient creates an HTTP client with the given per-request timeout.
// When proxyAddress is not empty, connections go through the SOCKS5 proxy
// at that "host:port" address.
func NewHTTPClient(timeout time.Duration, proxyAddress string) (*http.Client, error) {
	transport := http.DefaultTransport.(*http.Transport).Clone()
	transport.MaxIdleConns = 10
	transport.MaxIdleConnsPerHost = 4
	transport.IdleConnTimeout = 30 * time.Second

	if proxyAddress != "" {
		if !isValidProxyAddress(proxyAddress) {
			return nil, ErrInvalidProxyAddress
		}

		// SOCKS proxies used for crawling rarely require auth.
		dialer, err := proxy.SOCKS5("tcp", proxyAddress, nil, proxy.Direct)
		if err != nil {
			return nil, fmt.Errorf("failed to create SOCKS5 dialer: %w", err)
		}
		transport.Proxy = nil
		if cd, ok := dialer.(proxy.ContextDialer); ok {
			transport.DialContext = cd.DialContext
		} else {
			transport.DialContext = func(_ context.Context, network, addr string) (net.Conn, error) {
				return dialer.Dial(network, addr)
			}
		}
	}

	return &http.Client{
		Transport: transport,
		Timeout:   timeout,
		CheckRedirect: func(_ *http.Request, via []*http.Request) error {
			if len(via) >= maxRedirects {
				return http.ErrUseLastResponse
			}
			return nil
		},
	}, nil
}

// isValidProxyAddress checks that address is "host:port" with a non-empty
// host and a port between 1 and 65535.
func isValidProxyAddress(address string) bool {
	host, port, err := net.SplitHostPort(address)
	if err != nil || host == "" {
		return false
	}
	n, err := strconv.Atoi(port)
	return err == nil && n >= 1 && n <= 65535
}

// Fetch returns the body of the page at pageURL.
//
// An empty pageURL returns ErrNoContent without a request. Transient
// failures are retried; when they persist Fetch returns a *FetchError
// matching ErrRetriesExhausted. Permanent failures, including bodies
// over the size limit, and context cancellation are returned immediately.
func (c *Client) Fetch(ctx context.Context, pageURL string) ([]byte, error) {
	if pageURL == "" {
		return nil, ErrNoContent
	}

	var lastErr error
	for attempt := 0; attempt <= c.maxRetries; attempt++ {
		if attempt > 0 {
			wait := c.backoff(attempt-1, lastErr)
			c.logger.Warn("transient fetch failure, retrying",
				"url", pageURL,
				"attempt", attempt,
				"maxRetries", c.maxRetries,
				"wait", wait,
				"error", lastErr,
			)
			select {
			case <-ctx.Done():
				return nil, ctx.Err()
			case <-time.After(wait):
			}
		}

		body, err := c.fetchOnce(ctx, pageURL)
		if err == nil {
			return body, nil
		}
		if ctxErr := ctx.Err(); ctxErr != nil {
			return nil, ctxErr
		}
		if !IsTransient(err) {
			return nil, err
		}
		lastErr = err
	}

	return nil, &FetchError{URL: pageURL, Attempts: c.maxRetries + 1, Err: lastErr}
}

// Requests returns the number of HTTP requests made so far.
func (c *Client) Requests() int64 {
	return c.requests.Load()
}

// fetchOnce performs a single GET.
func (c *Client) fetchOnce(ctx context.Context, pageURL string) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, pageURL, nil)
	if err != nil {
		return nil, err
	}

	req.Header.Set("User-Agent", c.userAgent)
	req.Header.Set("Accept", "text/html,application/xhtml+xml,application/xml;q=0.9,*/*;q=0.8")
	req.Header.Set("Accept-Language", "en-US,en;q=0.5")
	for k, v := range c.headers {
		req.Header.Set(k, v)
	}
	for k, v := range c.hostHeaders[strings.ToLower(req.URL.Hostname())] {
		req.Header.Set(k, v)
	}

	c.requests.Add(1)
	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		// Drain a little so the connection can be reused.
		_, _ = io.Copy(io.Discard, io.LimitReader(resp.Body, 4096)) //nolint:errcheck // best effort
		return nil, &StatusError{
			URL:        pageURL,
			StatusCode: resp.StatusCode,
			RetryAfter: parseRetryAfter(resp.Header.Get("Retry-After")),
		}
	}

	body, err := io.ReadAll(io.LimitReader(resp.Body, c.maxBodySize+1))
	if err != nil {
		return nil, err
	}
	if int64(len(body)) > c.maxBodySize {
		return nil, fmt.Errorf("GET %s: %w (limit %d bytes)", pageURL, ErrBodyTooLarge, c.maxBodySize)
	}
	return body, nil
}

// backoff returns the wait before retry number n (0-based): baseDelay
// doubled n times, capped at maxDelay. A Retry-After sent with the last
// failure replaces the computed delay, still capped at maxDelay.
func (c *Client) backoff(n int, lastErr error) time.Duration {
	wait := c.baseDelay
	for i := 0; i < n && wait < c.maxDelay; i++ {
		wait *= 2
	}

	if se, ok := lastErr.(*StatusError); ok && se.RetryAfter > 0 {
		wait = se.RetryAfter
	}

	if wait > c.maxDelay {
		wait = c.maxDelay
	}
	return wait
}

// parseRetryAfter parses a Retry-After header given either as seconds or
// as an HTTP date. It returns zero when the header is absent or invalid.
func parseRetryAfter(value string) time.Duration {
	if value == "" {
		return 0
	}
	if seconds, err := strconv.Atoi(value); err == nil && seconds > 0 {
		return time.Duration(seconds) * time.Second
	}
	if t, err := http.ParseTime(value); err == nil {
		if d := time.Until(t); d > 0 {
			return d
		}
	}
	return 0
}
