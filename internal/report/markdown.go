package report

import (
	"io"
	"strconv"
	"time"

	"github.com/nao1215/markdown"
	"github.com/nao1215/markdown/mermaid/piechart"

	"github.com/nao1215/commitmine/internal/model"
)

// DefaultTopFiles is the number of files listed per category.
const DefaultTopFiles = 10

// MarkdownWriter outputs run summaries in Markdown format.
// This format is designed for documentation and sharing.
type MarkdownWriter struct {
	baseWriter

	// topFiles limits the rows of the most affected files tables.
	topFiles int
}

// MarkdownWriterOption configures a MarkdownWriter.
type MarkdownWriterOption func(*MarkdownWriter)

// WithTopFiles sets how many files are listed per category.
func WithTopFiles(n int) MarkdownWriterOption {
	return func(w *MarkdownWriter) {
		if n > 0 {
			w.topFiles = n
		}
	}
}

// NewMarkdownWriter creates a MarkdownWriter that outputs to the given writer.
func NewMarkdownWriter(output io.Writer, opts ...MarkdownWriterOption) *MarkdownWriter {
	w := &MarkdownWriter{
		baseWriter: newBaseWriter(output),
		topFiles:   DefaultTopFiles,
	}

	for _, opt := range opts {
		opt(w)
	}

	return w
}

// Write outputs the run summary in Markdown format.
func (w *MarkdownWriter) Write(run *model.CrawlRun) (int, error) {
	md := markdown.NewMarkdown(w.output)
	s := summarize(run)

	w.writeHeader(md, run)
	w.writeSummary(md, run, s)
	w.writeTopFiles(md, run, model.CategoryBug, "Files Most Touched by Bug Fixes")
	w.writeTopFiles(md, run, model.CategoryFeature, "Files Most Touched by Features")
	w.writeFooter(md)

	return len(md.String()), md.Build()
}

// writeHeader writes the run metadata table.
func (w *MarkdownWriter) writeHeader(md *markdown.Markdown, run *model.CrawlRun) {
	md.H1("commitmine Report")
	md.PlainText("")

	rows := [][]string{
		{"Run ID", "`" + run.ID + "`"},
		{"Start URL", run.StartURL},
		{"Started", run.StartedAt.Format("2006-01-02 15:04:05 MST")},
		{"Duration", run.Duration().Round(time.Millisecond).String()},
		{"Pages Crawled", strconv.Itoa(run.Stats.PagesCrawled)},
		{"Status", statusText(run)},
	}
	if run.Stats.LastCursor != "" {
		rows = append(rows, []string{"Resume From", run.Stats.LastCursor})
	}

	md.Table(markdown.TableSet{
		Header: []string{"Property", "Value"},
		Rows:   rows,
	})
	md.PlainText("")
}

// writeSummary writes the count table, a category chart and an alert.
func (w *MarkdownWriter) writeSummary(md *markdown.Markdown, run *model.CrawlRun, s summary) {
	md.H2("Summary")
	md.PlainText("")

	md.Table(markdown.TableSet{
		Header: []string{"Metric", "Count"},
		Rows: [][]string{
			{"Commits seen", strconv.Itoa(run.Stats.CommitsSeen)},
			{"Commits skipped", strconv.Itoa(run.Stats.CommitsSkipped)},
			{"References resolved", strconv.Itoa(run.Stats.ReferencesResolved)},
			{"Issues with commits", strconv.Itoa(s.issues)},
			{"Bug issues", strconv.Itoa(s.bugIssues)},
			{"Feature issues", strconv.Itoa(s.featureIssues)},
			{"Files touched by bugs", strconv.Itoa(s.bugFiles)},
			{"Files touched by features", strconv.Itoa(s.featureFiles)},
		},
	})
	md.PlainText("")

	if s.bugIssues > 0 || s.featureIssues > 0 {
		w.writePieChart(md, s)
	}

	switch run.Status() {
	case "aborted":
		md.Warningf("The crawl stopped before the end of the history. Indices are partial. %s", run.ErrorMessage)
	case "failed":
		md.Cautionf("The run failed: %s", run.ErrorMessage)
	default:
		if s.issues == 0 {
			md.Note("No commit referenced a resolvable issue.")
		} else {
			md.Tip("The whole commit history was crawled.")
		}
	}
	md.PlainText("")
}

// writePieChart writes a mermaid pie chart of issues per category.
func (w *MarkdownWriter) writePieChart(md *markdown.Markdown, s summary) {
	chart := piechart.NewPieChart(
		io.Discard,
		piechart.WithTitle("Issues by Category"),
		piechart.WithShowData(true),
	)

	if s.bugIssues > 0 {
		chart.LabelAndIntValue("Bug", uint64(s.bugIssues))
	}
	if s.featureIssues > 0 {
		chart.LabelAndIntValue("Feature", uint64(s.featureIssues))
	}

	md.PlainText("")
	md.CodeBlocks(markdown.SyntaxHighlightMermaid, chart.String())
	md.PlainText("")
}

// writeTopFiles writes the files with the most issues of a category.
func (w *MarkdownWriter) writeTopFiles(md *markdown.Markdown, run *model.CrawlRun, c model.Category, title string) {
	md.H2(title)
	md.PlainText("")

	if run.Indices == nil {
		md.PlainText("No files recorded.")
		md.PlainText("")
		return
	}

	top := run.Indices.TopFiles(c, w.topFiles)
	if len(top) == 0 {
		md.PlainText("No files recorded.")
		md.PlainText("")
		return
	}

	rows := make([][]string, len(top))
	for i, f := range top {
		rows[i] = []string{"`" + f.Path + "`", strconv.Itoa(f.Issues)}
	}
	md.Table(markdown.TableSet{
		Header: []string{"File", "Issues"},
		Rows:   rows,
	})
	md.PlainText("")
}

// writeFooter writes the report footer.
func (w *MarkdownWriter) writeFooter(md *markdown.Markdown) {
	md.HorizontalRule()
	md.PlainText("")
	md.PlainTextf("*Report generated by [commitmine](https://github.com/nao1215/commitmine)*")
}
