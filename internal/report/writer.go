package report

import (
	"io"

	"github.com/nao1215/commitmine/internal/model"
)

// Writer writes a crawl run report to its destination.
type Writer interface {
	// Write outputs the report for run.
	// Returns the number of bytes written and any error encountered.
	Write(run *model.CrawlRun) (int, error)
}

// baseWriter provides common functionality for report writers.
type baseWriter struct {
	output io.Writer
}

// newBaseWriter creates a baseWriter with the given output destination.
func newBaseWriter(output io.Writer) baseWriter {
	return baseWriter{output: output}
}

// summary is the set of counts shown by the human-readable writers.
type summary struct {
	issues        int
	bugIssues     int
	featureIssues int
	bugFiles      int
	featureFiles  int
}

// summarize counts distinct issues and files in the run's indices.
func summarize(run *model.CrawlRun) summary {
	ix := run.Indices
	if ix == nil {
		return summary{}
	}
	return summary{
		issues:        len(ix.CommitsByIssue),
		bugIssues:     distinctValues(ix.BugFiles),
		featureIssues: distinctValues(ix.FeatureFiles),
		bugFiles:      len(ix.BugFiles),
		featureFiles:  len(ix.FeatureFiles),
	}
}

// distinctValues counts the distinct values across all sets of an index.
func distinctValues(index map[string][]string) int {
	seen := make(map[string]struct{})
	for _, ids := range index {
		for _, id := range ids {
			seen[id] = struct{}{}
		}
	}
	return len(seen)
}

// statusText describes how the run ended.
func statusText(run *model.CrawlRun) string {
	switch run.Status() {
	case "aborted":
		if run.ErrorMessage != "" {
			return "Aborted (partial results) - " + run.ErrorMessage
		}
		return "Aborted (partial results)"
	case "failed":
		return "Error - " + run.ErrorMessage
	case "running":
		return "Running"
	default:
		return "Complete"
	}
}
