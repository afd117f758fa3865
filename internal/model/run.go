package model

import (
	"time"

	"github.com/google/uuid"
)

// CrawlStats counts what a crawl did. It is filled in by the crawler and
// stored alongside the indices.
type CrawlStats struct {
	// PagesCrawled is the number of commits pages fetched and processed.
	PagesCrawled int `json:"pages_crawled"`

	// CommitsSeen is the number of commit records extracted from those pages.
	CommitsSeen int `json:"commits_seen"`

	// CommitsSkipped counts malformed entries and commits whose sub-pages
	// could not be fetched.
	CommitsSkipped int `json:"commits_skipped"`

	// ReferencesResolved is the number of issue and pull request links resolved.
	ReferencesResolved int `json:"references_resolved"`

	// IssuesResolved is the number of issue resolutions produced.
	IssuesResolved int `json:"issues_resolved"`

	// LastCursor is the commits page URL the crawl stopped at.
	// It is empty when the crawl reached the end of the history.
	LastCursor string `json:"last_cursor,omitempty"`
}

// CrawlRun is one execution of the crawl pipeline.
//
// The run is created before crawling starts and carries the indices and
// stats produced so far. When the crawl aborts, the run still holds the
// partial indices so they can be persisted.
type CrawlRun struct {
	// ID uniquely identifies the run in the database and object storage.
	ID string `json:"id"`

	// StartURL is the first commits page of the crawl.
	StartURL string `json:"start_url"`

	// StartedAt is when the run was created.
	StartedAt time.Time `json:"started_at"`

	// FinishedAt is when the crawl step returned, successfully or not.
	FinishedAt time.Time `json:"finished_at,omitzero"`

	// Indices are the lookup tables accumulated by the crawl.
	Indices *Indices `json:"indices"`

	// Stats counts pages, commits and references processed.
	Stats CrawlStats `json:"stats"`

	// Aborted is true when the crawl stopped before reaching the last page.
	Aborted bool `json:"aborted"`

	// Error is the error that stopped the run, if any.
	// Not serialized; ErrorMessage carries the text.
	Error error `json:"-"`

	// ErrorMessage is the text of Error for JSON output.
	ErrorMessage string `json:"error,omitempty"`

	// PerformedSteps lists the pipeline steps that ran, in order.
	PerformedSteps []string `json:"performed_steps,omitempty"`
}

// NewCrawlRun creates a run for the given start URL with a fresh id and
// empty indices.
func NewCrawlRun(startURL string) *CrawlRun {
	return &CrawlRun{
		ID:        uuid.NewString(),
		StartURL:  startURL,
		StartedAt: time.Now().UTC(),
		Indices:   NewIndices(),
	}
}

// Status returns a short word describing how the run ended.
func (r *CrawlRun) Status() string {
	switch {
	case r.Aborted:
		return "aborted"
	case r.Error != nil || r.ErrorMessage != "":
		return "failed"
	case r.FinishedAt.IsZero():
		return "running"
	default:
		return "completed"
	}
}

// SetError records err on the run. Only the first error is kept.
func (r *CrawlRun) SetError(err error) {
	if err == nil || r.Error != nil {
		return
	}
	r.Error = err
	r.ErrorMessage = err.Error()
}

// Duration returns how long the crawl took, or zero while it is running.
func (r *CrawlRun) Duration() time.Duration {
	if r.FinishedAt.IsZero() {
		return 0
	}
	return r.FinishedAt.Sub(r.StartedAt)
}
