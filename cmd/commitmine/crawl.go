package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/nao1215/commitmine/internal/config"
	"github.com/nao1215/commitmine/internal/crawler"
	"github.com/nao1215/commitmine/internal/database"
	"github.com/nao1215/commitmine/internal/fetch"
	"github.com/nao1215/commitmine/internal/model"
	"github.com/nao1215/commitmine/internal/objstore"
	"github.com/nao1215/commitmine/internal/pipeline"
	"github.com/nao1215/commitmine/internal/report"
	"github.com/nao1215/commitmine/internal/resolver"
)

// NewCrawlCmd creates the crawl command.
func NewCrawlCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "crawl [start-url]",
		Short: "Crawl a commit history and build the issue indices",
		Long: `Crawl walks the commits pages starting at start-url, following the
"Older" link until the history ends. Every referenced issue is resolved and
classified by its labels; pull requests are followed to the issues they close.

The indices are written to the output directory even when the crawl is
interrupted or gives up after repeated network failures. In that case the
command exits with a non-zero status.

Examples:
  # Crawl the main branch of a repository
  commitmine crawl https://github.com/owner/repo/commits/main

  # Crawl only the first 5 pages with 8 workers and a Markdown summary
  commitmine crawl -p 5 -n 8 -m https://github.com/owner/repo/commits/main

  # Go through a SOCKS5 proxy with an extra request header
  commitmine crawl --proxy 127.0.0.1:1080 -H "Accept-Language: en-US" https://github.com/owner/repo/commits/main

  # Use the start URL and settings of a configuration file
  commitmine crawl -c .commitmine`,
		Args: cobra.MaximumNArgs(1),
		RunE: runCrawlCmd,
	}

	cmd.Flags().StringP("config", "c", "",
		"Configuration file path (default: ./.commitmine, $XDG_CONFIG_HOME/commitmine/config.yaml or ~/.commitmine)")
	cmd.Flags().StringP("output", "o", config.DefaultOutputDir,
		"Directory the index files are written to")
	cmd.Flags().IntP("concurrency", "n", config.DefaultConcurrency,
		"Number of commits processed in parallel")
	cmd.Flags().IntP("max-retries", "r", config.DefaultMaxRetries,
		"Retries after a transient network failure")
	cmd.Flags().DurationP("timeout", "t", config.DefaultTimeout,
		"Timeout for each request")
	cmd.Flags().IntP("max-pages", "p", config.DefaultMaxPages,
		"Maximum number of commits pages to crawl (0 = until the history ends)")
	cmd.Flags().Duration("page-delay", 0,
		"Delay between commits pages")
	cmd.Flags().String("proxy", "",
		"SOCKS5 proxy address (host:port)")
	cmd.Flags().String("issue-base-url", "",
		"Issue page URL prefix (default: derived from each reference link)")
	cmd.Flags().StringArrayP("header", "H", nil,
		`Extra request header as "Name: value" (repeatable)`)
	cmd.Flags().BoolP("markdown", "m", false,
		"Also write a Markdown summary (summary.md)")
	cmd.Flags().Bool("no-db", false,
		"Do not save the run to the database")

	return cmd
}

// runCrawlCmd executes the crawl command.
func runCrawlCmd(cmd *cobra.Command, args []string) error {
	cfg, err := buildConfig(cmd, args)
	if err != nil {
		return err
	}

	if err := cfg.Validate(); err != nil {
		return fmt.Errorf("configuration error: %w", err)
	}

	logger := setupLogger(cmd)
	if cfg.ConfigFilePath != "" {
		logger.Info("loaded configuration file", "path", cfg.ConfigFilePath)
	}

	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	return runCrawl(ctx, cmd.OutOrStdout(), cfg, logger)
}

// buildConfig layers CLI flags over the configuration file and environment.
// Only flags set on the command line override earlier sources.
func buildConfig(cmd *cobra.Command, args []string) (*config.Config, error) {
	configPath, err := cmd.Flags().GetString("config")
	if err != nil {
		return nil, err
	}

	cfg, err := config.Load(configPath)
	if err != nil {
		return nil, err
	}

	if len(args) > 0 {
		cfg.StartURL = args[0]
	}

	flags := cmd.Flags()
	if flags.Changed("output") {
		if cfg.OutputDir, err = flags.GetString("output"); err != nil {
			return nil, err
		}
	}
	if flags.Changed("concurrency") {
		if cfg.Concurrency, err = flags.GetInt("concurrency"); err != nil {
			return nil, err
		}
	}
	if flags.Changed("max-retries") {
		if cfg.MaxRetries, err = flags.GetInt("max-retries"); err != nil {
			return nil, err
		}
	}
	if flags.Changed("timeout") {
		if cfg.Timeout, err = flags.GetDuration("timeout"); err != nil {
			return nil, err
		}
	}
	if flags.Changed("max-pages") {
		if cfg.MaxPages, err = flags.GetInt("max-pages"); err != nil {
			return nil, err
		}
	}
	if flags.Changed("page-delay") {
		if cfg.PageDelay, err = flags.GetDuration("page-delay"); err != nil {
			return nil, err
		}
	}
	if flags.Changed("proxy") {
		if cfg.Proxy, err = flags.GetString("proxy"); err != nil {
			return nil, err
		}
	}
	if flags.Changed("issue-base-url") {
		if cfg.IssueBaseURL, err = flags.GetString("issue-base-url"); err != nil {
			return nil, err
		}
	}
	if flags.Changed("markdown") {
		if cfg.Markdown, err = flags.GetBool("markdown"); err != nil {
			return nil, err
		}
	}

	noDB, err := flags.GetBool("no-db")
	if err != nil {
		return nil, err
	}
	if noDB {
		cfg.SaveToDB = false
	}

	headers, err := flags.GetStringArray("header")
	if err != nil {
		return nil, err
	}
	for _, h := range headers {
		name, value, ok := strings.Cut(h, ":")
		name = strings.TrimSpace(name)
		if !ok || name == "" {
			return nil, fmt.Errorf("invalid header %q: expected \"Name: value\"", h)
		}
		cfg.Headers[name] = strings.TrimSpace(value)
	}

	cfg.Verbose = getVerboseFlag(cmd)
	cfg.JSONLog = getJSONLogFlag(cmd)

	return cfg, nil
}

// runCrawl wires the components for cfg, executes the pipeline and prints
// the summary. The returned error is non-nil when the crawl did not finish.
func runCrawl(ctx context.Context, out io.Writer, cfg *config.Config, logger *slog.Logger) error {
	p, cleanup, err := newCrawlPipeline(cfg, logger)
	if err != nil {
		return err
	}
	defer cleanup()

	logger.Info("starting crawl",
		"startURL", cfg.StartURL,
		"concurrency", cfg.Concurrency,
		"maxPages", cfg.MaxPages,
		"steps", p.StepNames(),
	)

	run := model.NewCrawlRun(cfg.StartURL)
	execErr := p.Execute(ctx, run)

	if _, err := report.NewSimpleWriter(out, report.WithVerbose(cfg.Verbose)).Write(run); err != nil {
		logger.Error("failed to print summary", "error", err)
	}

	if execErr != nil {
		if errors.Is(execErr, crawler.ErrCrawlAborted) || errors.Is(execErr, context.Canceled) {
			fmt.Fprintf(out, "Partial indices were saved. Resume from: %s\n", run.Stats.LastCursor)
		}
		return fmt.Errorf("crawl %s: %w", run.Status(), execErr)
	}
	return nil
}

// newCrawlPipeline builds the fetch, resolve, crawl and persist chain.
// cleanup releases the database and must be called once the pipeline is done.
func newCrawlPipeline(cfg *config.Config, logger *slog.Logger) (*pipeline.Pipeline, func(), error) {
	cleanup := func() {}

	httpClient, err := fetch.NewHTTPClient(cfg.Timeout, cfg.Proxy)
	if err != nil {
		return nil, cleanup, fmt.Errorf("failed to create HTTP client: %w", err)
	}
	if cfg.Proxy != "" {
		logger.Info("using SOCKS5 proxy", "proxy", cfg.Proxy)
	}

	fetcher, err := fetch.NewClient(
		fetch.WithHTTPClient(httpClient),
		fetch.WithUserAgent(cfg.UserAgent),
		fetch.WithHeaders(cfg.RequestHeaders()),
		fetch.WithHostHeaders(cfg.HostHeaders()),
		fetch.WithMaxBodySize(cfg.MaxBodySize),
		fetch.WithMaxRetries(cfg.MaxRetries),
		fetch.WithBackoff(cfg.RetryBaseDelay, cfg.MaxBackoff),
		fetch.WithLogger(logger),
	)
	if err != nil {
		return nil, cleanup, fmt.Errorf("failed to create fetcher: %w", err)
	}

	res, err := resolver.New(fetcher,
		resolver.WithIssueBaseURL(cfg.IssueBaseURL),
		resolver.WithFixKeywords(cfg.FixKeywords),
		resolver.WithBugLabels(cfg.BugLabels),
		resolver.WithFeatureLabels(cfg.FeatureLabels),
		resolver.WithCacheSize(cfg.CacheSize),
		resolver.WithLogger(logger),
	)
	if err != nil {
		return nil, cleanup, fmt.Errorf("failed to create resolver: %w", err)
	}

	started := time.Now()
	cr := crawler.New(fetcher, res,
		crawler.WithConcurrency(cfg.Concurrency),
		crawler.WithMaxPages(cfg.MaxPages),
		crawler.WithPageDelay(cfg.PageDelay),
		crawler.WithPageCallback(func(stats model.CrawlStats) {
			logger.Info("page done",
				"pages", stats.PagesCrawled,
				"commits", stats.CommitsSeen,
				"skipped", stats.CommitsSkipped,
				"issues", stats.IssuesResolved,
				"requests", fetcher.Requests(),
				"elapsed", time.Since(started).Round(time.Second),
			)
		}),
		crawler.WithLogger(logger),
	)

	p := pipeline.New(pipeline.WithLogger(logger))
	p.AddStep(pipeline.NewCrawlStep(cr, pipeline.WithCrawlLogger(logger)))
	p.AddFinalStep(pipeline.NewWriteIndicesStep(cfg.OutputDir,
		pipeline.WithMarkdownSummary(cfg.Markdown),
		pipeline.WithRunReport(getVersion()),
		pipeline.WithWriteLogger(logger),
	))

	if cfg.SaveToDB {
		db, err := database.Open(cfg.DBDir, database.DefaultOptions())
		if err != nil {
			return nil, cleanup, fmt.Errorf("failed to open database: %w", err)
		}
		cleanup = func() {
			if err := db.Close(); err != nil {
				logger.Error("failed to close database", "error", err)
			}
		}
		logger.Info("database opened", "path", db.Path())
		p.AddFinalStep(pipeline.NewSaveRunStep(db))
	}

	if cfg.ObjectStore.Enabled() {
		o := cfg.ObjectStore
		uploader, err := objstore.New(objstore.Config{
			Endpoint:  o.Endpoint,
			Region:    o.Region,
			AccessKey: o.AccessKey,
			SecretKey: o.SecretKey,
			Bucket:    o.Bucket,
			UseSSL:    o.UseSSL,
			Prefix:    o.Prefix,
		}, objstore.WithLogger(logger))
		if err != nil {
			cleanup()
			return nil, func() {}, fmt.Errorf("failed to create uploader: %w", err)
		}
		p.AddFinalStep(pipeline.NewUploadStep(uploader))
	}

	return p, cleanup, nil
}
