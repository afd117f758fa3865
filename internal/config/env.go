package config

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

// EnvPrefix prefixes every environment variable read by ApplyEnv.
const EnvPrefix = "COMMITMINE_"

// LookupFunc reads an environment variable. os.LookupEnv satisfies it.
type LookupFunc func(key string) (string, bool)

// LoadDotEnv loads a .env file from the current directory into the process
// environment. Variables already set are kept. A missing file is ignored.
func LoadDotEnv(filenames ...string) {
	_ = godotenv.Load(filenames...) //nolint:errcheck // .env is optional
}

// ApplyEnv copies COMMITMINE_* variables onto c. Blank variables are ignored.
func (c *Config) ApplyEnv(lookup LookupFunc) error {
	get := func(name string) (string, bool) {
		v, ok := lookup(EnvPrefix + name)
		v = strings.TrimSpace(v)
		return v, ok && v != ""
	}

	strs := []struct {
		name string
		dst  *string
	}{
		{"START_URL", &c.StartURL},
		{"ISSUE_BASE_URL", &c.IssueBaseURL},
		{"USER_AGENT", &c.UserAgent},
		{"PROXY", &c.Proxy},
		{"OUTPUT_DIR", &c.OutputDir},
		{"DB_DIR", &c.DBDir},
		{"S3_ENDPOINT", &c.ObjectStore.Endpoint},
		{"S3_REGION", &c.ObjectStore.Region},
		{"S3_BUCKET", &c.ObjectStore.Bucket},
		{"S3_ACCESS_KEY", &c.ObjectStore.AccessKey},
		{"S3_SECRET_KEY", &c.ObjectStore.SecretKey},
		{"S3_PREFIX", &c.ObjectStore.Prefix},
	}
	for _, s := range strs {
		if v, ok := get(s.name); ok {
			*s.dst = v
		}
	}

	ints := []struct {
		name string
		dst  *int
	}{
		{"CONCURRENCY", &c.Concurrency},
		{"MAX_PAGES", &c.MaxPages},
		{"MAX_RETRIES", &c.MaxRetries},
		{"CACHE_SIZE", &c.CacheSize},
	}
	for _, i := range ints {
		if v, ok := get(i.name); ok {
			n, err := strconv.Atoi(v)
			if err != nil {
				return fmt.Errorf("invalid %s%s %q: %w", EnvPrefix, i.name, v, err)
			}
			*i.dst = n
		}
	}

	durations := []struct {
		name string
		dst  *time.Duration
	}{
		{"TIMEOUT", &c.Timeout},
		{"PAGE_DELAY", &c.PageDelay},
		{"RETRY_BASE_DELAY", &c.RetryBaseDelay},
		{"MAX_BACKOFF", &c.MaxBackoff},
	}
	for _, d := range durations {
		if v, ok := get(d.name); ok {
			dur, err := time.ParseDuration(v)
			if err != nil {
				return fmt.Errorf("invalid %s%s %q: %w", EnvPrefix, d.name, v, err)
			}
			*d.dst = dur
		}
	}

	bools := []struct {
		name string
		dst  *bool
	}{
		{"MARKDOWN", &c.Markdown},
		{"SAVE_TO_DB", &c.SaveToDB},
		{"S3_USE_SSL", &c.ObjectStore.UseSSL},
	}
	for _, b := range bools {
		if v, ok := get(b.name); ok {
			parsed, err := strconv.ParseBool(v)
			if err != nil {
				return fmt.Errorf("invalid %s%s %q: %w", EnvPrefix, b.name, v, err)
			}
			*b.dst = parsed
		}
	}

	return nil
}
