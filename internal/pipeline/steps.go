package pipeline

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/nao1215/commitmine/internal/crawler"
	"github.com/nao1215/commitmine/internal/model"
	"github.com/nao1215/commitmine/internal/report"
	"github.com/nao1215/commitmine/internal/store"
)

// Names of the files written next to the indices.
const (
	// SummaryFile is the Markdown summary of a run.
	SummaryFile = "summary.md"

	// RunFile is the full run as JSON.
	RunFile = "run.json"
)

// Crawler crawls a commit history into a store.
type Crawler interface {
	Crawl(ctx context.Context, startURL string, st *store.Store) (model.CrawlStats, error)
}

// RunSaver persists a crawl run.
type RunSaver interface {
	SaveRun(ctx context.Context, run *model.CrawlRun) error
}

// Uploader stores a named document of a run remotely.
type Uploader interface {
	Put(ctx context.Context, runID, name string, content []byte) error
}

// CrawlStep crawls the history starting at the run's start URL and stores
// the resulting indices and stats on the run.
type CrawlStep struct {
	crawler Crawler
	logger  *slog.Logger
}

// CrawlStepOption configures a CrawlStep.
type CrawlStepOption func(*CrawlStep)

// WithCrawlLogger sets a custom logger for the crawl step.
func WithCrawlLogger(logger *slog.Logger) CrawlStepOption {
	return func(s *CrawlStep) {
		s.logger = logger
	}
}

// NewCrawlStep creates a new crawling step.
func NewCrawlStep(c Crawler, opts ...CrawlStepOption) *CrawlStep {
	s := &CrawlStep{
		crawler: c,
		logger:  slog.Default(),
	}

	for _, opt := range opts {
		opt(s)
	}

	return s
}

// Name returns the step name.
func (s *CrawlStep) Name() string {
	return "crawl"
}

// Do executes the crawl. The indices gathered before an abort are kept on
// the run and the run is marked aborted.
func (s *CrawlStep) Do(ctx context.Context, run *model.CrawlRun) error {
	st := store.New()
	stats, err := s.crawler.Crawl(ctx, run.StartURL, st)

	run.Stats = stats
	run.Indices = st.Snapshot()
	run.FinishedAt = time.Now().UTC()
	if errors.Is(err, crawler.ErrCrawlAborted) {
		run.Aborted = true
	}

	s.logger.Info("crawl finished",
		"pages", stats.PagesCrawled,
		"commits", stats.CommitsSeen,
		"skipped", stats.CommitsSkipped,
		"issues", st.IssueCount(),
		"bugFiles", st.FileCount(model.CategoryBug),
		"featureFiles", st.FileCount(model.CategoryFeature),
		"aborted", run.Aborted,
	)
	if err == nil && run.Indices.IsEmpty() {
		s.logger.Warn("crawl completed without recording any issue; check the start URL and the label vocabulary",
			"startURL", run.StartURL,
			"commits", stats.CommitsSeen,
		)
	}

	return err
}

// SaveRunStep saves the run to the database.
type SaveRunStep struct {
	saver RunSaver
}

// NewSaveRunStep creates a step saving runs with saver.
func NewSaveRunStep(saver RunSaver) *SaveRunStep {
	return &SaveRunStep{saver: saver}
}

// Name returns the step name.
func (s *SaveRunStep) Name() string {
	return "save_run"
}

// Do saves the run.
func (s *SaveRunStep) Do(ctx context.Context, run *model.CrawlRun) error {
	if err := s.saver.SaveRun(ctx, run); err != nil {
		return fmt.Errorf("failed to save run: %w", err)
	}
	return nil
}

// WriteIndicesStep writes the index files, and optionally a Markdown
// summary and the full run, into an output directory.
type WriteIndicesStep struct {
	writer *report.IndexWriter

	// markdown enables summary.md.
	markdown bool

	// runReport enables run.json.
	runReport bool

	// version is recorded in run.json.
	version string

	logger *slog.Logger
}

// WriteIndicesStepOption configures a WriteIndicesStep.
type WriteIndicesStepOption func(*WriteIndicesStep)

// WithMarkdownSummary enables writing summary.md.
func WithMarkdownSummary(enabled bool) WriteIndicesStepOption {
	return func(s *WriteIndicesStep) {
		s.markdown = enabled
	}
}

// WithRunReport enables writing run.json tagged with version.
func WithRunReport(version string) WriteIndicesStepOption {
	return func(s *WriteIndicesStep) {
		s.runReport = true
		s.version = version
	}
}

// WithWriteLogger sets a custom logger for the write step.
func WithWriteLogger(logger *slog.Logger) WriteIndicesStepOption {
	return func(s *WriteIndicesStep) {
		s.logger = logger
	}
}

// NewWriteIndicesStep creates a step writing into dir.
func NewWriteIndicesStep(dir string, opts ...WriteIndicesStepOption) *WriteIndicesStep {
	s := &WriteIndicesStep{
		writer: report.NewIndexWriter(dir),
		logger: slog.Default(),
	}

	for _, opt := range opts {
		opt(s)
	}

	return s
}

// Name returns the step name.
func (s *WriteIndicesStep) Name() string {
	return "write_indices"
}

// Do writes the files.
func (s *WriteIndicesStep) Do(_ context.Context, run *model.CrawlRun) error {
	paths, err := s.writer.Write(run.Indices)
	if err != nil {
		return err
	}

	if s.markdown {
		var buf bytes.Buffer
		if _, err := report.NewMarkdownWriter(&buf).Write(run); err != nil {
			return fmt.Errorf("failed to render summary: %w", err)
		}
		path, err := report.WriteFile(s.writer.Dir(), SummaryFile, buf.Bytes())
		if err != nil {
			return err
		}
		paths = append(paths, path)
	}

	if s.runReport {
		var buf bytes.Buffer
		w := report.NewJSONWriter(&buf, report.WithPrettyPrint(), report.WithVersion(s.version))
		if _, err := w.Write(run); err != nil {
			return fmt.Errorf("failed to render run: %w", err)
		}
		path, err := report.WriteFile(s.writer.Dir(), RunFile, buf.Bytes())
		if err != nil {
			return err
		}
		paths = append(paths, path)
	}

	s.logger.Info("wrote output files", "dir", s.writer.Dir(), "files", paths)
	return nil
}

// UploadStep uploads the index files to object storage.
type UploadStep struct {
	uploader Uploader
}

// NewUploadStep creates a step uploading with uploader.
func NewUploadStep(uploader Uploader) *UploadStep {
	return &UploadStep{uploader: uploader}
}

// Name returns the step name.
func (s *UploadStep) Name() string {
	return "upload"
}

// Do uploads every index file under the run's id.
func (s *UploadStep) Do(ctx context.Context, run *model.CrawlRun) error {
	files, err := report.IndexFiles(run.Indices)
	if err != nil {
		return err
	}

	for _, f := range files {
		if err := s.uploader.Put(ctx, run.ID, f.Name, f.Content); err != nil {
			return fmt.Errorf("failed to upload %s: %w", f.Name, err)
		}
	}
	return nil
}
