package report

import (
	"encoding/json"
	"io"

	"github.com/nao1215/commitmine/internal/model"
)

// JSONWriter outputs run reports in JSON format.
// This format is designed for tool integration and programmatic processing.
type JSONWriter struct {
	baseWriter

	// indent enables pretty-printed JSON output.
	// When false, output is compact (no extra whitespace).
	indent bool

	// indentPrefix is the prefix for each line in indented output.
	indentPrefix string

	// indentString is the indentation string (typically "  " or "\t").
	indentString string

	// version, when set, wraps the run in a JSONReport.
	version string
}

// JSONWriterOption configures a JSONWriter.
type JSONWriterOption func(*JSONWriter)

// WithIndent enables pretty-printed JSON output.
// The prefix is prepended to each line, and indent is used for each level.
func WithIndent(prefix, indent string) JSONWriterOption {
	return func(w *JSONWriter) {
		w.indent = true
		w.indentPrefix = prefix
		w.indentString = indent
	}
}

// WithPrettyPrint enables pretty-printed JSON with default indentation.
// This is a convenience wrapper for WithIndent("", "  ").
func WithPrettyPrint() JSONWriterOption {
	return WithIndent("", "  ")
}

// WithVersion wraps the run with the version of the tool that produced it.
func WithVersion(version string) JSONWriterOption {
	return func(w *JSONWriter) {
		w.version = version
	}
}

// NewJSONWriter creates a JSONWriter that outputs to the given writer.
func NewJSONWriter(output io.Writer, opts ...JSONWriterOption) *JSONWriter {
	w := &JSONWriter{
		baseWriter: newBaseWriter(output),
	}

	for _, opt := range opts {
		opt(w)
	}

	return w
}

// Write outputs the run in JSON format.
func (w *JSONWriter) Write(run *model.CrawlRun) (int, error) {
	if w.version != "" {
		return w.writeJSON(NewJSONReport(run, w.version))
	}
	return w.writeJSON(run)
}

// writeJSON marshals the given value to JSON and writes it to the output.
func (w *JSONWriter) writeJSON(v any) (int, error) {
	data, err := marshalJSON(v, w.indent, w.indentPrefix, w.indentString)
	if err != nil {
		return 0, err
	}
	return w.output.Write(data)
}

// marshalJSON encodes v with a trailing newline.
func marshalJSON(v any, indent bool, prefix, indentString string) ([]byte, error) {
	var data []byte
	var err error

	if indent {
		data, err = json.MarshalIndent(v, prefix, indentString)
	} else {
		data, err = json.Marshal(v)
	}
	if err != nil {
		return nil, err
	}

	// Add trailing newline for better terminal output
	return append(data, '\n'), nil
}

// JSONReport is a run wrapped with the version of the tool that produced it.
type JSONReport struct {
	// Version is the commitmine version that generated this report.
	Version string `json:"version"`

	// Status is how the run ended.
	Status string `json:"status"`

	// Run is the full crawl run.
	Run *model.CrawlRun `json:"run"`
}

// NewJSONReport creates a JSONReport wrapper with version information.
func NewJSONReport(run *model.CrawlRun, version string) *JSONReport {
	return &JSONReport{
		Version: version,
		Status:  run.Status(),
		Run:     run,
	}
}
