package crawler

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync/atomic"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/nao1215/commitmine/internal/extract"
	"github.com/nao1215/commitmine/internal/fetch"
	"github.com/nao1215/commitmine/internal/model"
	"github.com/nao1215/commitmine/internal/store"
)

// DefaultConcurrency is the number of commits processed at once.
const DefaultConcurrency = 4

// PageFetcher retrieves the raw content of a page.
type PageFetcher interface {
	Fetch(ctx context.Context, pageURL string) ([]byte, error)
}

// IssueResolver resolves a commit reference into categorized issues.
type IssueResolver interface {
	Resolve(ctx context.Context, ref model.IssueRef) ([]model.IssueResolution, error)
}

// CommitCrawler crawls commit history pages and fills a store.Store.
type CommitCrawler struct {
	fetcher  PageFetcher
	resolver IssueResolver

	// concurrency limits the commits processed at once.
	concurrency int

	// maxPages limits the number of commits pages crawled. 0 is unlimited.
	maxPages int

	// delay is the time to wait before fetching the next page.
	delay time.Duration

	// onPage is called after each page with the stats so far.
	onPage func(model.CrawlStats)

	logger *slog.Logger
}

// Option configures a CommitCrawler.
type Option func(*CommitCrawler)

// WithConcurrency sets how many commits of a page are processed at once.
func WithConcurrency(n int) Option {
	return func(c *CommitCrawler) {
		if n > 0 {
			c.concurrency = n
		}
	}
}

// WithMaxPages sets the maximum number of commits pages to crawl.
// 0 means no limit.
func WithMaxPages(n int) Option {
	return func(c *CommitCrawler) {
		if n >= 0 {
			c.maxPages = n
		}
	}
}

// WithPageDelay sets the delay between commits pages.
func WithPageDelay(d time.Duration) Option {
	return func(c *CommitCrawler) {
		c.delay = d
	}
}

// WithPageCallback sets a function called after every crawled page.
func WithPageCallback(fn func(model.CrawlStats)) Option {
	return func(c *CommitCrawler) {
		c.onPage = fn
	}
}

// WithLogger sets a custom logger.
func WithLogger(logger *slog.Logger) Option {
	return func(c *CommitCrawler) {
		c.logger = logger
	}
}

// New creates a CommitCrawler.
func New(fetcher PageFetcher, resolver IssueResolver, opts ...Option) *CommitCrawler {
	c := &CommitCrawler{
		fetcher:     fetcher,
		resolver:    resolver,
		concurrency: DefaultConcurrency,
	}

	for _, opt := range opts {
		opt(c)
	}

	if c.logger == nil {
		c.logger = slog.Default()
	}

	return c
}

// counters are the crawl stats updated by concurrent workers.
type counters struct {
	skipped    atomic.Int64
	references atomic.Int64
	issues     atomic.Int64
}

// Crawl walks the history from startURL and records every resolved issue
// in st. The returned stats are valid even when an error is returned.
// An error matching ErrCrawlAborted means the history was not fully
// crawled; st keeps what was recorded.
func (c *CommitCrawler) Crawl(ctx context.Context, startURL string, st *store.Store) (model.CrawlStats, error) {
	var stats model.CrawlStats
	if startURL == "" {
		return stats, ErrNoStartURL
	}

	var cnt counters
	snapshot := func() model.CrawlStats {
		stats.CommitsSkipped = int(cnt.skipped.Load())
		stats.ReferencesResolved = int(cnt.references.Load())
		stats.IssuesResolved = int(cnt.issues.Load())
		return stats
	}

	visited := make(map[string]struct{})
	cursor := startURL
	for cursor != "" {
		stats.LastCursor = cursor
		visited[cursor] = struct{}{}

		// FETCHING_PAGE
		body, err := c.fetcher.Fetch(ctx, cursor)
		if err != nil {
			return snapshot(), &AbortError{Cursor: cursor, Err: err}
		}

		// EXTRACTING_COMMITS
		parser, err := extract.NewParser(cursor)
		if err != nil {
			return snapshot(), &AbortError{Cursor: cursor, Err: err}
		}
		page, err := parser.CommitsPage(bytes.NewReader(body))
		if err != nil {
			return snapshot(), &AbortError{Cursor: cursor, Err: fmt.Errorf("failed to parse commits page: %w", err)}
		}
		for _, skipErr := range page.Skipped {
			c.logger.Warn("skipping malformed commit entry", "page", cursor, "error", skipErr)
		}
		cnt.skipped.Add(int64(len(page.Skipped)))
		stats.CommitsSeen += len(page.Commits)

		// RESOLVING_REFERENCES
		if err := c.processCommits(ctx, page.Commits, st, &cnt); err != nil {
			return snapshot(), &AbortError{Cursor: cursor, Err: err}
		}
		stats.PagesCrawled++

		c.logger.Debug("crawled commits page",
			"page", cursor,
			"commits", len(page.Commits),
			"skipped", len(page.Skipped),
			"next", page.NextURL,
		)
		if c.onPage != nil {
			c.onPage(snapshot())
		}

		// ADVANCING
		cursor = page.NextURL
		if cursor == "" {
			break
		}
		if _, seen := visited[cursor]; seen {
			c.logger.Warn("next page already visited, stopping", "page", cursor)
			cursor = ""
			break
		}
		if c.maxPages > 0 && stats.PagesCrawled >= c.maxPages {
			c.logger.Info("page limit reached, stopping", "maxPages", c.maxPages, "next", cursor)
			break
		}
		if err := c.wait(ctx); err != nil {
			return snapshot(), &AbortError{Cursor: cursor, Err: err}
		}
	}

	stats.LastCursor = cursor
	return snapshot(), nil
}

// processCommits runs the commits of one page through the worker pool.
// It returns the first error that should abort the crawl, after the
// in-flight workers have returned.
func (c *CommitCrawler) processCommits(ctx context.Context, commits []model.CommitRecord, st *store.Store, cnt *counters) error {
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(c.concurrency)

	for _, record := range commits {
		g.Go(func() error {
			err := c.processCommit(gctx, record, st, cnt)
			if err == nil {
				return nil
			}
			if isAbort(err) {
				return err
			}
			cnt.skipped.Add(1)
			c.logger.Warn("skipping commit",
				"commit", record.Title,
				"link", record.SourceLink,
				"error", err,
			)
			return nil
		})
	}

	return g.Wait()
}

// processCommit resolves the references of one commit and records them.
// Changed files are only fetched when a bug or feature issue was resolved.
func (c *CommitCrawler) processCommit(ctx context.Context, record model.CommitRecord, st *store.Store, cnt *counters) error {
	if !record.HasReferences() {
		return nil
	}

	resolutions := make([]model.IssueResolution, 0, len(record.References))
	indexed := false
	for _, ref := range record.References {
		resolved, err := c.resolver.Resolve(ctx, ref)
		if err != nil {
			return fmt.Errorf("failed to resolve %s %s: %w", ref.Kind, ref.Link, err)
		}
		cnt.references.Add(1)
		for _, res := range resolved {
			if res.Category.Indexed() {
				indexed = true
			}
		}
		resolutions = append(resolutions, resolved...)
	}

	var files []string
	if indexed {
		var err error
		if files, err = c.changedFiles(ctx, record.SourceLink); err != nil {
			return err
		}
	}

	for _, res := range resolutions {
		st.RecordResolution(res, record.Title, files)
	}
	cnt.issues.Add(int64(len(resolutions)))
	return nil
}

// changedFiles fetches a commit detail page and extracts its file paths.
func (c *CommitCrawler) changedFiles(ctx context.Context, link string) ([]string, error) {
	body, err := c.fetcher.Fetch(ctx, link)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch commit %s: %w", link, err)
	}

	parser, err := extract.NewParser(link)
	if err != nil {
		return nil, err
	}
	files, err := parser.ChangedFiles(bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("failed to parse commit %s: %w", link, err)
	}
	return files, nil
}

// wait sleeps for the page delay, returning early when ctx is done.
func (c *CommitCrawler) wait(ctx context.Context) error {
	if c.delay <= 0 {
		return ctx.Err()
	}
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-time.After(c.delay):
		return nil
	}
}

// isAbort reports whether err must stop the crawl: retries were exhausted
// or the context is done. Other errors only skip the commit.
func isAbort(err error) bool {
	return errors.Is(err, fetch.ErrRetriesExhausted) ||
		errors.Is(err, context.Canceled) ||
		errors.Is(err, context.DeadlineExceeded)
}
