package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/spf13/cobra"

	"github.com/nao1215/commitmine/internal/config"
	"github.com/nao1215/commitmine/internal/database"
	"github.com/nao1215/commitmine/internal/model"
	"github.com/nao1215/commitmine/internal/report"
)

// defaultListLimit is the number of runs listed by --list.
const defaultListLimit = 20

// NewShowCmd creates the show command.
func NewShowCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "show [run-id]",
		Short: "Query the indices of a saved crawl run",
		Long: `Show reads a crawl run from the database. Without a run id the latest
run is used.

Examples:
  # Summary of the latest run
  commitmine show

  # List saved runs
  commitmine show --list

  # Commits and changed files of issue 42
  commitmine show --issue 42

  # Feature issues that touched a file in a given run
  commitmine show 0b7c... --file src/app.go --category feature`,
		Args: cobra.MaximumNArgs(1),
		RunE: runShowCmd,
	}

	cmd.Flags().BoolP("list", "l", false, "List saved runs")
	cmd.Flags().Int("limit", defaultListLimit, "Maximum number of runs listed")
	cmd.Flags().String("issue", "", "Show the commits and files of an issue")
	cmd.Flags().String("file", "", "Show the issues that changed a file")
	cmd.Flags().String("category", model.CategoryBug.String(), "Issue category for --issue and --file (bug or feature)")
	cmd.Flags().BoolP("markdown", "m", false, "Print the run summary as Markdown")
	cmd.Flags().Int("top", report.DefaultTopFiles, "Files listed per category in the Markdown summary")
	cmd.Flags().Bool("delete", false, "Delete the given run and its indices from the database")
	cmd.Flags().String("db-dir", "", "Database directory (default: XDG data directory)")

	return cmd
}

// showOptions are the parsed flags of the show command.
type showOptions struct {
	runID    string
	list     bool
	limit    int
	issue    string
	file     string
	category model.Category
	remove   bool
	markdown bool
	top      int
}

// runShowCmd executes the show command.
func runShowCmd(cmd *cobra.Command, args []string) error {
	opts, err := parseShowOptions(cmd, args)
	if err != nil {
		return err
	}

	dbDir, err := cmd.Flags().GetString("db-dir")
	if err != nil {
		return err
	}
	if dbDir == "" {
		dbDir = config.XDGDataDir()
	}

	db, err := database.Open(dbDir, database.Options{EnableWAL: true})
	if err != nil {
		return fmt.Errorf("failed to open database: %w", err)
	}
	defer db.Close()

	return runShow(cmd.Context(), cmd.OutOrStdout(), db, opts)
}

func parseShowOptions(cmd *cobra.Command, args []string) (showOptions, error) {
	var opts showOptions
	var err error

	if len(args) > 0 {
		opts.runID = strings.TrimSpace(args[0])
	}
	if opts.list, err = cmd.Flags().GetBool("list"); err != nil {
		return opts, err
	}
	if opts.limit, err = cmd.Flags().GetInt("limit"); err != nil {
		return opts, err
	}
	if opts.issue, err = cmd.Flags().GetString("issue"); err != nil {
		return opts, err
	}
	if opts.file, err = cmd.Flags().GetString("file"); err != nil {
		return opts, err
	}
	category, err := cmd.Flags().GetString("category")
	if err != nil {
		return opts, err
	}
	if opts.category, err = model.ParseCategory(category); err != nil {
		return opts, err
	}
	if !opts.category.Indexed() {
		return opts, fmt.Errorf("invalid category %q: use bug or feature", category)
	}
	if opts.issue != "" && opts.file != "" {
		return opts, errors.New("--issue and --file cannot be used together")
	}
	if opts.markdown, err = cmd.Flags().GetBool("markdown"); err != nil {
		return opts, err
	}
	if opts.top, err = cmd.Flags().GetInt("top"); err != nil {
		return opts, err
	}
	if opts.markdown && (opts.list || opts.issue != "" || opts.file != "") {
		return opts, errors.New("--markdown cannot be combined with --list, --issue or --file")
	}
	if opts.remove, err = cmd.Flags().GetBool("delete"); err != nil {
		return opts, err
	}
	if opts.remove {
		if opts.runID == "" {
			return opts, errors.New("--delete requires a run id")
		}
		if opts.list || opts.issue != "" || opts.file != "" || opts.markdown {
			return opts, errors.New("--delete cannot be combined with --list, --issue, --file or --markdown")
		}
	}
	return opts, nil
}

func runShow(ctx context.Context, out io.Writer, db *database.CrawlDB, opts showOptions) error {
	if opts.list {
		return listRuns(ctx, out, db, opts.limit)
	}
	if opts.remove {
		return deleteRun(ctx, out, db, opts.runID)
	}

	run, err := loadRun(ctx, db, opts.runID)
	if err != nil {
		return err
	}

	switch {
	case opts.issue != "":
		return showIssue(ctx, out, db, run.ID, opts.issue, opts.category)
	case opts.file != "":
		return showFile(ctx, out, db, run.ID, opts.file, opts.category)
	case opts.markdown:
		_, err := report.NewMarkdownWriter(out, report.WithTopFiles(opts.top)).Write(run)
		return err
	default:
		_, err := report.NewSimpleWriter(out, report.WithVerbose(true)).Write(run)
		return err
	}
}

func loadRun(ctx context.Context, db *database.CrawlDB, runID string) (*model.CrawlRun, error) {
	var (
		run *model.CrawlRun
		err error
	)
	if runID == "" {
		run, err = db.GetLatestRun(ctx)
	} else {
		run, err = db.GetRun(ctx, runID)
	}
	if errors.Is(err, database.ErrRunNotFound) {
		if runID == "" {
			return nil, errors.New("no saved runs: use 'commitmine crawl <start-url>' first")
		}
		return nil, fmt.Errorf("run %s not found (use --list to see saved runs)", runID)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to load run: %w", err)
	}
	return run, nil
}

func listRuns(ctx context.Context, out io.Writer, db *database.CrawlDB, limit int) error {
	runs, err := db.ListRuns(ctx, limit)
	if err != nil {
		return fmt.Errorf("failed to list runs: %w", err)
	}

	if len(runs) == 0 {
		fmt.Fprintln(out, "No saved runs found in the database.")
		fmt.Fprintln(out, "\nUse 'commitmine crawl <start-url>' to crawl a repository.")
		return nil
	}

	fmt.Fprintf(out, "Saved runs (%d):\n\n", len(runs))
	fmt.Fprintf(out, "  %-36s  %-20s  %-10s  %6s  %7s  %s\n", "ID", "Started", "Status", "Pages", "Issues", "Start URL")
	fmt.Fprintln(out, "  "+strings.Repeat("-", 110))
	for _, r := range runs {
		fmt.Fprintf(out, "  %-36s  %-20s  %-10s  %6d  %7d  %s\n",
			r.ID,
			r.StartedAt.Local().Format("2006-01-02 15:04:05"),
			r.Status,
			r.Stats.PagesCrawled,
			r.Stats.IssuesResolved,
			r.StartURL,
		)
	}
	return nil
}

func deleteRun(ctx context.Context, out io.Writer, db *database.CrawlDB, runID string) error {
	err := db.DeleteRun(ctx, runID)
	if errors.Is(err, database.ErrRunNotFound) {
		return fmt.Errorf("run %s not found (use --list to see saved runs)", runID)
	}
	if err != nil {
		return fmt.Errorf("failed to delete run: %w", err)
	}
	fmt.Fprintf(out, "Deleted run %s\n", runID)
	return nil
}

func showIssue(ctx context.Context, out io.Writer, db *database.CrawlDB, runID, issueID string, c model.Category) error {
	commits, err := db.CommitsForIssue(ctx, runID, issueID)
	if err != nil {
		return fmt.Errorf("failed to query commits: %w", err)
	}
	files, err := db.FilesForIssue(ctx, runID, c, issueID)
	if err != nil {
		return fmt.Errorf("failed to query files: %w", err)
	}

	fmt.Fprintf(out, "Issue #%s (run %s)\n\n", issueID, runID)
	writeList(out, "Commits", commits)
	writeList(out, fmt.Sprintf("Files (%s)", c), files)
	return nil
}

func showFile(ctx context.Context, out io.Writer, db *database.CrawlDB, runID, path string, c model.Category) error {
	issues, err := db.IssuesForFile(ctx, runID, c, path)
	if err != nil {
		return fmt.Errorf("failed to query issues: %w", err)
	}

	fmt.Fprintf(out, "%s (run %s)\n\n", path, runID)
	writeList(out, fmt.Sprintf("%s issues", c), issues)
	return nil
}

func writeList(out io.Writer, title string, items []string) {
	fmt.Fprintf(out, "%s (%d):\n", title, len(items))
	if len(items) == 0 {
		fmt.Fprintln(out, "  (none)")
	}
	for _, item := range items {
		fmt.Fprintf(out, "  - %s\n", item)
	}
	fmt.Fprintln(out)
}
