package config

import "time"

// TrackerConfig holds request settings for one tracker host.
type TrackerConfig struct {
	// Cookie is sent as the Cookie header.
	// Format: "name=value" or "name1=value1; name2=value2"
	Cookie string `yaml:"cookie,omitempty"`

	// Headers are extra request headers.
	Headers map[string]string `yaml:"headers,omitempty"`
}

// CrawlSection holds crawl tuning options.
type CrawlSection struct {
	Concurrency    int           `yaml:"concurrency,omitempty"`
	MaxPages       int           `yaml:"max_pages,omitempty"`
	PageDelay      time.Duration `yaml:"page_delay,omitempty"`
	Timeout        time.Duration `yaml:"timeout,omitempty"`
	MaxRetries     *int          `yaml:"max_retries,omitempty"`
	RetryBaseDelay time.Duration `yaml:"retry_base_delay,omitempty"`
	MaxBackoff     time.Duration `yaml:"max_backoff,omitempty"`
	CacheSize      int           `yaml:"cache_size,omitempty"`
	UserAgent      string        `yaml:"user_agent,omitempty"`
	MaxBodySize    int64         `yaml:"max_body_size,omitempty"`
	Proxy          string        `yaml:"proxy,omitempty"`
}

// VocabularySection replaces the built-in keyword and label lists.
type VocabularySection struct {
	FixKeywords   []string `yaml:"fix_keywords,omitempty"`
	BugLabels     []string `yaml:"bug_labels,omitempty"`
	FeatureLabels []string `yaml:"feature_labels,omitempty"`
}

// OutputSection configures where results go.
type OutputSection struct {
	Dir      string `yaml:"dir,omitempty"`
	Markdown bool   `yaml:"markdown,omitempty"`
	DBDir    string `yaml:"db_dir,omitempty"`
	SaveToDB *bool  `yaml:"save_to_db,omitempty"`
}

// File represents the structure of the .commitmine configuration file.
type File struct {
	StartURL     string            `yaml:"start_url,omitempty"`
	IssueBaseURL string            `yaml:"issue_base_url,omitempty"`
	Vocabulary   VocabularySection `yaml:"vocabulary,omitempty"`
	Crawl        CrawlSection      `yaml:"crawl,omitempty"`
	Output       OutputSection     `yaml:"output,omitempty"`
	ObjectStore  ObjectStore       `yaml:"object_store,omitempty"`

	// Defaults apply to every tracker host.
	Defaults TrackerConfig `yaml:"defaults,omitempty"`

	// Trackers maps a host name, such as "github.com", to its settings.
	Trackers map[string]TrackerConfig `yaml:"trackers,omitempty"`
}

// TrackerFor returns the settings for host, merged over Defaults.
// Headers are merged key by key; a tracker cookie replaces the default one.
func (f *File) TrackerFor(host string) TrackerConfig {
	result := TrackerConfig{
		Cookie:  f.Defaults.Cookie,
		Headers: make(map[string]string, len(f.Defaults.Headers)),
	}
	for k, v := range f.Defaults.Headers {
		result.Headers[k] = v
	}

	tracker, ok := f.Trackers[host]
	if !ok {
		return result
	}
	if tracker.Cookie != "" {
		result.Cookie = tracker.Cookie
	}
	for k, v := range tracker.Headers {
		result.Headers[k] = v
	}
	return result
}

// ApplyFile copies every value set in f onto c and keeps f for
// RequestHeaders and HostHeaders.
func (c *Config) ApplyFile(f *File) {
	if f == nil {
		return
	}
	c.File = f

	setString(&c.StartURL, f.StartURL)
	setString(&c.IssueBaseURL, f.IssueBaseURL)

	setStrings(&c.FixKeywords, f.Vocabulary.FixKeywords)
	setStrings(&c.BugLabels, f.Vocabulary.BugLabels)
	setStrings(&c.FeatureLabels, f.Vocabulary.FeatureLabels)

	cr := f.Crawl
	setInt(&c.Concurrency, cr.Concurrency)
	setInt(&c.MaxPages, cr.MaxPages)
	setDuration(&c.PageDelay, cr.PageDelay)
	setDuration(&c.Timeout, cr.Timeout)
	if cr.MaxRetries != nil {
		c.MaxRetries = *cr.MaxRetries
	}
	setDuration(&c.RetryBaseDelay, cr.RetryBaseDelay)
	setDuration(&c.MaxBackoff, cr.MaxBackoff)
	setInt(&c.CacheSize, cr.CacheSize)
	setString(&c.UserAgent, cr.UserAgent)
	if cr.MaxBodySize != 0 {
		c.MaxBodySize = cr.MaxBodySize
	}
	setString(&c.Proxy, cr.Proxy)

	setString(&c.OutputDir, f.Output.Dir)
	if f.Output.Markdown {
		c.Markdown = true
	}
	setString(&c.DBDir, f.Output.DBDir)
	if f.Output.SaveToDB != nil {
		c.SaveToDB = *f.Output.SaveToDB
	}

	o := f.ObjectStore
	setString(&c.ObjectStore.Endpoint, o.Endpoint)
	setString(&c.ObjectStore.Region, o.Region)
	setString(&c.ObjectStore.Bucket, o.Bucket)
	setString(&c.ObjectStore.AccessKey, o.AccessKey)
	setString(&c.ObjectStore.SecretKey, o.SecretKey)
	setString(&c.ObjectStore.Prefix, o.Prefix)
	if o.UseSSL {
		c.ObjectStore.UseSSL = true
	}
}

func setString(dst *string, v string) {
	if v != "" {
		*dst = v
	}
}

func setStrings(dst *[]string, v []string) {
	if len(v) > 0 {
		*dst = append([]string(nil), v...)
	}
}

func setInt(dst *int, v int) {
	if v != 0 {
		*dst = v
	}
}

func setDuration(dst *time.Duration, v time.Duration) {
	if v != 0 {
		*dst = v
	}
}
