package report

import (
	"fmt"
	"io"
	"strings"

	"github.com/nao1215/commitmine/internal/model"
)

// SimpleWriter outputs a human-readable run summary for the terminal.
type SimpleWriter struct {
	baseWriter

	// verbose lists the most affected files per category.
	verbose bool

	// topFiles limits the files listed in verbose mode.
	topFiles int
}

// SimpleWriterOption configures a SimpleWriter.
type SimpleWriterOption func(*SimpleWriter)

// WithVerbose enables the list of most affected files.
func WithVerbose(verbose bool) SimpleWriterOption {
	return func(w *SimpleWriter) {
		w.verbose = verbose
	}
}

// NewSimpleWriter creates a SimpleWriter that outputs to the given writer.
func NewSimpleWriter(output io.Writer, opts ...SimpleWriterOption) *SimpleWriter {
	w := &SimpleWriter{
		baseWriter: newBaseWriter(output),
		topFiles:   DefaultTopFiles,
	}

	for _, opt := range opts {
		opt(w)
	}

	return w
}

// Write outputs the run summary in human-readable format.
func (w *SimpleWriter) Write(run *model.CrawlRun) (int, error) {
	var sb strings.Builder
	s := summarize(run)

	sb.WriteString("\n")
	sb.WriteString(strings.Repeat("=", 70))
	sb.WriteString("\n")
	sb.WriteString("                         COMMITMINE REPORT\n")
	sb.WriteString(strings.Repeat("=", 70))
	sb.WriteString("\n\n")

	fmt.Fprintf(&sb, "Run ID:         %s\n", run.ID)
	fmt.Fprintf(&sb, "Start URL:      %s\n", run.StartURL)
	fmt.Fprintf(&sb, "Started:        %s\n", run.StartedAt.Format("2006-01-02 15:04:05 MST"))
	fmt.Fprintf(&sb, "Pages Crawled:  %d\n", run.Stats.PagesCrawled)
	fmt.Fprintf(&sb, "Status:         %s\n", statusText(run))
	if run.Stats.LastCursor != "" {
		fmt.Fprintf(&sb, "Resume From:    %s\n", run.Stats.LastCursor)
	}
	sb.WriteString("\n")

	sb.WriteString(strings.Repeat("-", 70))
	sb.WriteString("\nSUMMARY\n")
	sb.WriteString(strings.Repeat("-", 70))
	sb.WriteString("\n\n")
	fmt.Fprintf(&sb, "  Commits seen:        %d (%d skipped)\n", run.Stats.CommitsSeen, run.Stats.CommitsSkipped)
	fmt.Fprintf(&sb, "  Issues with commits: %d\n", s.issues)
	fmt.Fprintf(&sb, "  Bug issues:          %d across %d files\n", s.bugIssues, s.bugFiles)
	fmt.Fprintf(&sb, "  Feature issues:      %d across %d files\n", s.featureIssues, s.featureFiles)
	sb.WriteString("\n")

	if w.verbose && run.Indices != nil {
		w.writeTopFiles(&sb, run.Indices, model.CategoryBug, "BUG HOTSPOTS")
		w.writeTopFiles(&sb, run.Indices, model.CategoryFeature, "FEATURE HOTSPOTS")
	}

	sb.WriteString(strings.Repeat("=", 70))
	sb.WriteString("\n")

	return w.output.Write([]byte(sb.String()))
}

// writeTopFiles lists the files with the most issues of a category.
func (w *SimpleWriter) writeTopFiles(sb *strings.Builder, ix *model.Indices, c model.Category, title string) {
	top := ix.TopFiles(c, w.topFiles)
	if len(top) == 0 {
		return
	}

	sb.WriteString(strings.Repeat("-", 70))
	sb.WriteString("\n" + title + "\n")
	sb.WriteString(strings.Repeat("-", 70))
	sb.WriteString("\n\n")
	for _, f := range top {
		fmt.Fprintf(sb, "  %4d  %s\n", f.Issues, f.Path)
	}
	sb.WriteString("\n")
}
