package config

import (
	"net/http"
	"net/url"
	"path/filepath"
	"strings"
	"time"

	"github.com/adrg/xdg"
)

// Default configuration values.
const (
	// AppName is the application name used for XDG directory paths.
	AppName = "commitmine"

	// DefaultTimeout bounds a single page request.
	DefaultTimeout = 60 * time.Second

	// DefaultMaxRetries is the number of retries after a transient failure.
	DefaultMaxRetries = 5

	// DefaultRetryBaseDelay is the first backoff delay. It doubles per retry.
	DefaultRetryBaseDelay = 1 * time.Second

	// DefaultMaxBackoff caps a single backoff delay.
	DefaultMaxBackoff = 30 * time.Second

	// DefaultConcurrency is the number of commits of a page processed at once.
	// Hosted trackers rate limit aggressively, so keep it small.
	DefaultConcurrency = 4

	// DefaultMaxPages of 0 crawls until the history ends.
	DefaultMaxPages = 0

	// DefaultCacheSize is the number of issues and pull requests cached.
	DefaultCacheSize = 1024

	// DefaultUserAgent identifies commitmine in HTTP requests.
	DefaultUserAgent = "commitmine/1.0 (+https://github.com/nao1215/commitmine)"

	// DefaultMaxBodySize limits the response body size read per page.
	DefaultMaxBodySize = 10 * 1024 * 1024 // 10MB

	// DefaultOutputDir is where the index files are written.
	DefaultOutputDir = "."
)

// Config holds all options of a crawl. It is filled from defaults, the
// configuration file, the environment and CLI flags, in that order.
type Config struct {
	// StartURL is the first commits page, such as
	// "https://github.com/owner/repo/commits/main".
	StartURL string

	// IssueBaseURL is the prefix of issue pages. When empty it is derived
	// from each reference link.
	IssueBaseURL string

	// FixKeywords, BugLabels and FeatureLabels replace the built-in
	// vocabularies when non-empty.
	FixKeywords   []string
	BugLabels     []string
	FeatureLabels []string

	// Timeout is the timeout of a single HTTP request.
	Timeout time.Duration

	// MaxRetries is the number of retries after a transient failure.
	// Zero disables retrying.
	MaxRetries int

	// RetryBaseDelay and MaxBackoff shape the exponential backoff.
	RetryBaseDelay time.Duration
	MaxBackoff     time.Duration

	// Concurrency is the number of commits processed in parallel.
	Concurrency int

	// MaxPages stops the crawl after this many commits pages. 0 is unlimited.
	MaxPages int

	// PageDelay is a politeness delay between commits pages.
	PageDelay time.Duration

	// CacheSize is the size of the issue and pull request caches.
	CacheSize int

	// UserAgent is the User-Agent header sent with every request.
	UserAgent string

	// MaxBodySize is the maximum response body size in bytes.
	MaxBodySize int64

	// Proxy is an optional SOCKS5 proxy in "host:port" form.
	Proxy string

	// Headers are sent with every request, on top of the tracker headers
	// of the configuration file.
	Headers map[string]string

	// OutputDir receives the index files.
	OutputDir string

	// Markdown also writes a Markdown summary next to the index files.
	Markdown bool

	// DBDir is the directory of the SQLite database.
	// Defaults to the XDG data directory (~/.local/share/commitmine on Linux).
	DBDir string

	// SaveToDB stores the run in the database.
	SaveToDB bool

	// ObjectStore uploads the run documents when configured.
	ObjectStore ObjectStore

	// Verbose enables debug logging.
	Verbose bool

	// JSONLog switches log output to JSON.
	JSONLog bool

	// ConfigFilePath is the configuration file in use. Empty means none.
	ConfigFilePath string

	// File is the loaded configuration file, if any.
	File *File
}

// ObjectStore locates the bucket run documents are uploaded to.
type ObjectStore struct {
	Endpoint  string `yaml:"endpoint,omitempty"`
	Region    string `yaml:"region,omitempty"`
	Bucket    string `yaml:"bucket,omitempty"`
	AccessKey string `yaml:"access_key,omitempty"`
	SecretKey string `yaml:"secret_key,omitempty"`
	UseSSL    bool   `yaml:"use_ssl,omitempty"`
	Prefix    string `yaml:"prefix,omitempty"`
}

// Enabled reports whether an endpoint is configured.
func (o ObjectStore) Enabled() bool {
	return strings.TrimSpace(o.Endpoint) != ""
}

// NewConfig creates a Config with default values.
func NewConfig() *Config {
	return &Config{
		Timeout:        DefaultTimeout,
		MaxRetries:     DefaultMaxRetries,
		RetryBaseDelay: DefaultRetryBaseDelay,
		MaxBackoff:     DefaultMaxBackoff,
		Concurrency:    DefaultConcurrency,
		MaxPages:       DefaultMaxPages,
		CacheSize:      DefaultCacheSize,
		UserAgent:      DefaultUserAgent,
		MaxBodySize:    DefaultMaxBodySize,
		Headers:        make(map[string]string),
		OutputDir:      DefaultOutputDir,
		DBDir:          XDGDataDir(),
		SaveToDB:       true,
	}
}

// XDGDataDir returns the XDG data directory for commitmine.
// On Linux: ~/.local/share/commitmine
// On macOS: ~/Library/Application Support/commitmine
// On Windows: %LOCALAPPDATA%\commitmine
func XDGDataDir() string {
	return filepath.Join(xdg.DataHome, AppName)
}

// XDGConfigDir returns the XDG config directory for commitmine.
func XDGConfigDir() string {
	return filepath.Join(xdg.ConfigHome, AppName)
}

// RequestHeaders returns the headers sent to every host: the file
// defaults, then Headers.
func (c *Config) RequestHeaders() map[string]string {
	headers := make(map[string]string)
	if c.File != nil {
		for k, v := range c.File.Defaults.Headers {
			headers[k] = v
		}
		if c.File.Defaults.Cookie != "" {
			headers["Cookie"] = c.File.Defaults.Cookie
		}
	}
	for k, v := range c.Headers {
		headers[k] = v
	}
	return headers
}

// HostHeaders returns, per lower-cased host name, the tracker settings for
// that host merged over the file defaults. They are only sent to that
// host. Names set in Headers are left out so that explicit headers keep
// precedence.
func (c *Config) HostHeaders() map[string]map[string]string {
	hosts := make(map[string]map[string]string)
	if c.File == nil {
		return hosts
	}

	explicit := make(map[string]struct{}, len(c.Headers))
	for k := range c.Headers {
		explicit[http.CanonicalHeaderKey(k)] = struct{}{}
	}

	for host := range c.File.Trackers {
		tracker := c.File.TrackerFor(host)
		headers := make(map[string]string, len(tracker.Headers)+1)
		for k, v := range tracker.Headers {
			if _, ok := explicit[http.CanonicalHeaderKey(k)]; !ok {
				headers[k] = v
			}
		}
		if _, ok := explicit["Cookie"]; !ok && tracker.Cookie != "" {
			headers["Cookie"] = tracker.Cookie
		}
		if len(headers) > 0 {
			hosts[strings.ToLower(host)] = headers
		}
	}
	return hosts
}

// Validate checks the configuration and returns the first problem found.
func (c *Config) Validate() error {
	if strings.TrimSpace(c.StartURL) == "" {
		return ErrNoStartURL
	}
	if !isHTTPURL(c.StartURL) {
		return ErrInvalidStartURL
	}
	if c.IssueBaseURL != "" && !isHTTPURL(c.IssueBaseURL) {
		return ErrInvalidIssueBaseURL
	}
	if c.Timeout <= 0 {
		return ErrInvalidTimeout
	}
	if c.MaxRetries < 0 {
		return ErrInvalidMaxRetries
	}
	if c.RetryBaseDelay <= 0 || c.MaxBackoff < c.RetryBaseDelay {
		return ErrInvalidBackoff
	}
	if c.Concurrency <= 0 {
		return ErrInvalidConcurrency
	}
	if c.MaxPages < 0 {
		return ErrInvalidMaxPages
	}
	if c.PageDelay < 0 {
		return ErrInvalidPageDelay
	}
	if c.MaxBodySize < 0 {
		return ErrInvalidMaxBodySize
	}
	if c.SaveToDB && strings.TrimSpace(c.DBDir) == "" {
		return ErrNoDBDir
	}
	if c.ObjectStore.Enabled() {
		o := c.ObjectStore
		if strings.TrimSpace(o.Bucket) == "" || strings.TrimSpace(o.AccessKey) == "" || strings.TrimSpace(o.SecretKey) == "" {
			return ErrIncompleteObjectStore
		}
	}
	return nil
}

func isHTTPURL(raw string) bool {
	u, err := url.Parse(strings.TrimSpace(raw))
	if err != nil {
		return false
	}
	return (u.Scheme == "http" || u.Scheme == "https") && u.Host != ""
}
