package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"
)

func mapLookup(env map[string]string) LookupFunc {
	return func(key string) (string, bool) {
		v, ok := env[key]
		return v, ok
	}
}

func TestConfigApplyEnv(t *testing.T) {
	t.Parallel()

	t.Run("overlays values", func(t *testing.T) {
		t.Parallel()

		cfg := NewConfig()
		err := cfg.ApplyEnv(mapLookup(map[string]string{
			"COMMITMINE_START_URL":     "https://github.com/owner/repo/commits/main",
			"COMMITMINE_CONCURRENCY":   "12",
			"COMMITMINE_MAX_PAGES":     "3",
			"COMMITMINE_PAGE_DELAY":    "2s",
			"COMMITMINE_MARKDOWN":      "true",
			"COMMITMINE_SAVE_TO_DB":    "false",
			"COMMITMINE_S3_ENDPOINT":   "localhost:9000",
			"COMMITMINE_S3_BUCKET":     "commitmine",
			"COMMITMINE_S3_ACCESS_KEY": "minioadmin",
			"COMMITMINE_S3_SECRET_KEY": "minioadmin",
			"COMMITMINE_S3_USE_SSL":    "1",
			"COMMITMINE_USER_AGENT":    "   ",
		}))
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}

		if cfg.StartURL != "https://github.com/owner/repo/commits/main" {
			t.Errorf("unexpected StartURL %q", cfg.StartURL)
		}
		if cfg.Concurrency != 12 || cfg.MaxPages != 3 || cfg.PageDelay != 2*time.Second {
			t.Errorf("unexpected crawl settings %d %d %v", cfg.Concurrency, cfg.MaxPages, cfg.PageDelay)
		}
		if !cfg.Markdown || cfg.SaveToDB {
			t.Errorf("unexpected output flags markdown=%v save=%v", cfg.Markdown, cfg.SaveToDB)
		}
		if !cfg.ObjectStore.Enabled() || !cfg.ObjectStore.UseSSL {
			t.Errorf("unexpected object store %+v", cfg.ObjectStore)
		}
		if cfg.UserAgent != DefaultUserAgent {
			t.Errorf("expected a blank variable to be ignored, got %q", cfg.UserAgent)
		}
	})

	t.Run("rejects malformed values", func(t *testing.T) {
		t.Parallel()

		for key, value := range map[string]string{
			"COMMITMINE_CONCURRENCY": "many",
			"COMMITMINE_TIMEOUT":     "soon",
			"COMMITMINE_MARKDOWN":    "maybe",
		} {
			cfg := NewConfig()
			if err := cfg.ApplyEnv(mapLookup(map[string]string{key: value})); err == nil {
				t.Errorf("expected an error for %s=%s", key, value)
			}
		}
	})
}

func TestLoadDotEnv(t *testing.T) {
	path := filepath.Join(t.TempDir(), ".env")
	if err := os.WriteFile(path, []byte("COMMITMINE_TEST_DOTENV=from-file\n"), 0600); err != nil {
		t.Fatalf("failed to write .env: %v", err)
	}
	t.Setenv("COMMITMINE_TEST_DOTENV", "")
	os.Unsetenv("COMMITMINE_TEST_DOTENV") //nolint:errcheck // restored by t.Setenv

	LoadDotEnv(path)
	if got := os.Getenv("COMMITMINE_TEST_DOTENV"); got != "from-file" {
		t.Errorf("expected value from .env, got %q", got)
	}

	LoadDotEnv(filepath.Join(t.TempDir(), "missing.env"))
}
