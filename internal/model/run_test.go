package model

import (
	"errors"
	"testing"
	"time"
)

// TestCrawlRun tests CrawlRun lifecycle helpers.
func TestCrawlRun(t *testing.T) {
	t.Parallel()

	t.Run("new run has id and empty indices", func(t *testing.T) {
		t.Parallel()

		run := NewCrawlRun("https://github.com/o/r/commits/main")
		if run.ID == "" {
			t.Error("expected non-empty id")
		}
		if run.Indices == nil || !run.Indices.IsEmpty() {
			t.Error("expected empty indices")
		}
		if run.StartedAt.IsZero() {
			t.Error("expected StartedAt to be set")
		}
		if run.Status() != "running" {
			t.Errorf("Status() = %q, expected running", run.Status())
		}
		if run.Duration() != 0 {
			t.Errorf("Duration() = %v, expected 0", run.Duration())
		}
	})

	t.Run("ids are unique", func(t *testing.T) {
		t.Parallel()

		a := NewCrawlRun("x")
		b := NewCrawlRun("x")
		if a.ID == b.ID {
			t.Error("expected distinct run ids")
		}
	})

	t.Run("SetError keeps the first error", func(t *testing.T) {
		t.Parallel()

		run := NewCrawlRun("x")
		first := errors.New("first")
		run.SetError(first)
		run.SetError(errors.New("second"))
		run.SetError(nil)

		if !errors.Is(run.Error, first) {
			t.Errorf("Error = %v, expected first", run.Error)
		}
		if run.ErrorMessage != "first" {
			t.Errorf("ErrorMessage = %q, expected first", run.ErrorMessage)
		}
		if run.Status() != "failed" {
			t.Errorf("Status() = %q, expected failed", run.Status())
		}
	})

	t.Run("status reflects outcome", func(t *testing.T) {
		t.Parallel()

		run := NewCrawlRun("x")
		run.FinishedAt = run.StartedAt.Add(2 * time.Second)
		if run.Status() != "completed" {
			t.Errorf("Status() = %q, expected completed", run.Status())
		}
		if run.Duration() != 2*time.Second {
			t.Errorf("Duration() = %v, expected 2s", run.Duration())
		}

		run.Aborted = true
		if run.Status() != "aborted" {
			t.Errorf("Status() = %q, expected aborted", run.Status())
		}
	})
}
