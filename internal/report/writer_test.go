package report

import (
	"bytes"
	"encoding/json"
	"errors"
	"os"
	"path/filepath"
	"reflect"
	"strings"
	"testing"
	"time"

	"github.com/nao1215/commitmine/internal/model"
)

// createTestRun creates a finished run with sample indices.
func createTestRun() *model.CrawlRun {
	run := model.NewCrawlRun("https://github.com/o/r/commits/main")
	run.Indices.CommitsByIssue["42"] = []string{"Fix null pointer"}
	run.Indices.CommitsByIssue["7"] = []string{"Add export", "Polish export"}
	run.Indices.CommitsByIssue["9"] = []string{"Write docs"}
	run.Indices.BugFiles["src/Parser.kt"] = []string{"42"}
	run.Indices.BugFiles["src/Lexer.kt"] = []string{"42", "7"}
	run.Indices.FeatureFiles["src/Export.kt"] = []string{"7"}
	run.Stats = model.CrawlStats{PagesCrawled: 3, CommitsSeen: 20, CommitsSkipped: 1, ReferencesResolved: 4, IssuesResolved: 5}
	run.FinishedAt = run.StartedAt.Add(2 * time.Second)
	return run
}

func TestSimpleWriter(t *testing.T) {
	t.Parallel()

	t.Run("writes header and summary", func(t *testing.T) {
		t.Parallel()

		var buf bytes.Buffer
		run := createTestRun()
		if _, err := NewSimpleWriter(&buf).Write(run); err != nil {
			t.Fatalf("unexpected error: %v", err)
		}

		output := buf.String()
		for _, want := range []string{
			"COMMITMINE REPORT",
			run.ID,
			"Status:         Complete",
			"Issues with commits: 3",
			"Bug issues:          2 across 2 files",
			"Feature issues:      1 across 1 files",
		} {
			if !strings.Contains(output, want) {
				t.Errorf("expected output to contain %q", want)
			}
		}
		if strings.Contains(output, "BUG HOTSPOTS") {
			t.Error("hotspots should only be listed in verbose mode")
		}
	})

	t.Run("verbose lists hotspots", func(t *testing.T) {
		t.Parallel()

		var buf bytes.Buffer
		if _, err := NewSimpleWriter(&buf, WithVerbose(true)).Write(createTestRun()); err != nil {
			t.Fatalf("unexpected error: %v", err)
		}

		output := buf.String()
		if !strings.Contains(output, "BUG HOTSPOTS") || !strings.Contains(output, "FEATURE HOTSPOTS") {
			t.Error("expected hotspot sections")
		}
		if strings.Index(output, "src/Lexer.kt") > strings.Index(output, "src/Parser.kt") {
			t.Error("expected files ordered by issue count")
		}
	})

	t.Run("shows aborted status", func(t *testing.T) {
		t.Parallel()

		run := createTestRun()
		run.Aborted = true
		run.SetError(errors.New("crawl aborted at page 4"))
		run.Stats.LastCursor = "https://github.com/o/r/commits/main?after=4"

		var buf bytes.Buffer
		if _, err := NewSimpleWriter(&buf).Write(run); err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		output := buf.String()
		if !strings.Contains(output, "Aborted (partial results)") {
			t.Error("expected aborted status")
		}
		if !strings.Contains(output, "Resume From:") {
			t.Error("expected resume cursor")
		}
	})
}

func TestJSONWriter(t *testing.T) {
	t.Parallel()

	t.Run("writes compact run", func(t *testing.T) {
		t.Parallel()

		var buf bytes.Buffer
		run := createTestRun()
		if _, err := NewJSONWriter(&buf).Write(run); err != nil {
			t.Fatalf("unexpected error: %v", err)
		}

		var decoded model.CrawlRun
		if err := json.Unmarshal(buf.Bytes(), &decoded); err != nil {
			t.Fatalf("output is not valid JSON: %v", err)
		}
		if decoded.ID != run.ID {
			t.Errorf("expected id %s, got %s", run.ID, decoded.ID)
		}
		if !reflect.DeepEqual(decoded.Indices.BugFiles, run.Indices.BugFiles) {
			t.Errorf("bug files mismatch: %v", decoded.Indices.BugFiles)
		}
		if strings.Count(buf.String(), "\n") != 1 {
			t.Error("expected compact output with a trailing newline")
		}
	})

	t.Run("wraps with version", func(t *testing.T) {
		t.Parallel()

		var buf bytes.Buffer
		if _, err := NewJSONWriter(&buf, WithPrettyPrint(), WithVersion("1.2.3")).Write(createTestRun()); err != nil {
			t.Fatalf("unexpected error: %v", err)
		}

		var decoded JSONReport
		if err := json.Unmarshal(buf.Bytes(), &decoded); err != nil {
			t.Fatalf("output is not valid JSON: %v", err)
		}
		if decoded.Version != "1.2.3" {
			t.Errorf("expected version 1.2.3, got %q", decoded.Version)
		}
		if decoded.Status != "completed" {
			t.Errorf("expected status completed, got %q", decoded.Status)
		}
		if !strings.Contains(buf.String(), "\n  ") {
			t.Error("expected indented output")
		}
	})
}

func TestMarkdownWriter(t *testing.T) {
	t.Parallel()

	t.Run("writes summary sections", func(t *testing.T) {
		t.Parallel()

		var buf bytes.Buffer
		if _, err := NewMarkdownWriter(&buf).Write(createTestRun()); err != nil {
			t.Fatalf("unexpected error: %v", err)
		}

		output := buf.String()
		for _, want := range []string{
			"# commitmine Report",
			"## Summary",
			"## Files Most Touched by Bug Fixes",
			"`src/Lexer.kt`",
			"mermaid",
		} {
			if !strings.Contains(output, want) {
				t.Errorf("expected output to contain %q", want)
			}
		}
	})

	t.Run("limits top files", func(t *testing.T) {
		t.Parallel()

		var buf bytes.Buffer
		if _, err := NewMarkdownWriter(&buf, WithTopFiles(1)).Write(createTestRun()); err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		output := buf.String()
		if !strings.Contains(output, "`src/Lexer.kt`") {
			t.Error("expected the top bug file")
		}
		if strings.Contains(output, "`src/Parser.kt`") {
			t.Error("expected only one bug file")
		}
	})

	t.Run("empty run", func(t *testing.T) {
		t.Parallel()

		run := model.NewCrawlRun("https://github.com/o/r/commits/main")
		run.FinishedAt = time.Now()

		var buf bytes.Buffer
		if _, err := NewMarkdownWriter(&buf).Write(run); err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if !strings.Contains(buf.String(), "No files recorded.") {
			t.Error("expected empty file sections")
		}
	})
}

func TestIndexWriter(t *testing.T) {
	t.Parallel()

	t.Run("writes the three index files", func(t *testing.T) {
		t.Parallel()

		dir := filepath.Join(t.TempDir(), "out")
		run := createTestRun()

		paths, err := NewIndexWriter(dir).Write(run.Indices)
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if len(paths) != 3 {
			t.Fatalf("expected 3 files, got %d", len(paths))
		}

		want := map[string]map[string][]string{
			CommitIssueFile:      run.Indices.CommitsByIssue,
			BugFileIssueFile:     run.Indices.BugFiles,
			FeatureFileIssueFile: run.Indices.FeatureFiles,
		}
		for name, index := range want {
			data, err := os.ReadFile(filepath.Join(dir, name))
			if err != nil {
				t.Fatalf("failed to read %s: %v", name, err)
			}
			var got map[string][]string
			if err := json.Unmarshal(data, &got); err != nil {
				t.Fatalf("%s is not valid JSON: %v", name, err)
			}
			if !reflect.DeepEqual(got, index) {
				t.Errorf("%s = %v, want %v", name, got, index)
			}
		}

		info, err := os.Stat(filepath.Join(dir, CommitIssueFile))
		if err != nil {
			t.Fatalf("stat failed: %v", err)
		}
		if info.Mode().Perm() != 0o600 {
			t.Errorf("expected mode 0600, got %v", info.Mode().Perm())
		}
	})

	t.Run("empty indices are written as empty objects", func(t *testing.T) {
		t.Parallel()

		files, err := IndexFiles(&model.Indices{})
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		for _, f := range files {
			if strings.TrimSpace(string(f.Content)) != "{}" {
				t.Errorf("%s = %q, want {}", f.Name, f.Content)
			}
		}
	})

	t.Run("nil indices", func(t *testing.T) {
		t.Parallel()

		if _, err := IndexFiles(nil); !errors.Is(err, ErrNoIndices) {
			t.Errorf("expected ErrNoIndices, got %v", err)
		}
	})
}
