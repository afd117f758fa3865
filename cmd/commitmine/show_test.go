package main

import (
	"bytes"
	"io"
	"strings"
	"testing"
	"time"

	"github.com/nao1215/commitmine/internal/database"
	"github.com/nao1215/commitmine/internal/model"
)

// seedDB saves two runs and returns the database directory and the newer run.
func seedDB(t *testing.T) (string, *model.CrawlRun) {
	t.Helper()

	dir := t.TempDir()
	db, err := database.Open(dir, database.DefaultOptions())
	if err != nil {
		t.Fatalf("failed to open database: %v", err)
	}
	defer db.Close()

	older := model.NewCrawlRun("https://github.com/o/r/commits/old")
	older.StartedAt = time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	older.FinishedAt = older.StartedAt.Add(time.Second)

	newer := model.NewCrawlRun("https://github.com/o/r/commits/main")
	newer.StartedAt = time.Date(2026, 2, 1, 0, 0, 0, 0, time.UTC)
	newer.FinishedAt = newer.StartedAt.Add(time.Second)
	newer.Indices.CommitsByIssue["42"] = []string{"Fix crash", "Add regression test"}
	newer.Indices.BugFiles["src/app.go"] = []string{"42", "13"}
	newer.Indices.FeatureFiles["src/export.go"] = []string{"9"}
	newer.Stats = model.CrawlStats{PagesCrawled: 3, CommitsSeen: 60, IssuesResolved: 3}

	for _, run := range []*model.CrawlRun{older, newer} {
		if err := db.SaveRun(t.Context(), run); err != nil {
			t.Fatalf("failed to save run: %v", err)
		}
	}
	return dir, newer
}

func executeShow(t *testing.T, args ...string) (string, error) {
	t.Helper()

	cmd := NewRootCmd()
	var out bytes.Buffer
	cmd.SetOut(&out)
	cmd.SetErr(io.Discard)
	cmd.SetArgs(append([]string{"show"}, args...))
	err := cmd.Execute()
	return out.String(), err
}

func TestShowCommand(t *testing.T) {
	t.Parallel()

	dir, newer := seedDB(t)

	tests := []struct {
		name    string
		args    []string
		want    []string
		wantErr string
	}{
		{
			name: "latest run summary",
			args: []string{"--db-dir", dir},
			want: []string{newer.ID, "https://github.com/o/r/commits/main"},
		},
		{
			name: "list runs",
			args: []string{"--db-dir", dir, "--list"},
			want: []string{"Saved runs (2)", newer.ID, "commits/old"},
		},
		{
			name: "issue commits and bug files",
			args: []string{"--db-dir", dir, "--issue", "42"},
			want: []string{"Issue #42", "Fix crash", "Add regression test", "Files (bug) (1)", "src/app.go"},
		},
		{
			name: "feature issues of a file in a given run",
			args: []string{newer.ID, "--db-dir", dir, "--file", "src/export.go", "--category", "feature"},
			want: []string{"src/export.go", "feature issues (1)", "- 9"},
		},
		{
			name: "file without issues",
			args: []string{"--db-dir", dir, "--file", "README.md"},
			want: []string{"(none)"},
		},
		{
			name: "markdown summary",
			args: []string{"--db-dir", dir, "--markdown", "--top", "1"},
			want: []string{"# ", "`src/app.go`", "`src/export.go`"},
		},
		{
			name:    "markdown with a query",
			args:    []string{"--db-dir", dir, "--markdown", "--issue", "42"},
			wantErr: "cannot be combined",
		},
		{
			name:    "unknown run",
			args:    []string{"missing-run", "--db-dir", dir},
			wantErr: "not found",
		},
		{
			name:    "unlabeled category is not indexed",
			args:    []string{"--db-dir", dir, "--file", "a.go", "--category", "unlabeled"},
			wantErr: "invalid category",
		},
		{
			name:    "issue and file together",
			args:    []string{"--db-dir", dir, "--file", "a.go", "--issue", "1"},
			wantErr: "cannot be used together",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			out, err := executeShow(t, tt.args...)
			if tt.wantErr != "" {
				if err == nil || !strings.Contains(err.Error(), tt.wantErr) {
					t.Fatalf("expected error containing %q, got %v", tt.wantErr, err)
				}
				return
			}
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			for _, want := range tt.want {
				if !strings.Contains(out, want) {
					t.Errorf("expected %q in output:\n%s", want, out)
				}
			}
		})
	}
}

func TestShowCommandDelete(t *testing.T) {
	t.Parallel()

	dir, newer := seedDB(t)

	if _, err := executeShow(t, "--db-dir", dir, "--delete"); err == nil || !strings.Contains(err.Error(), "requires a run id") {
		t.Fatalf("expected missing run id error, got %v", err)
	}
	if _, err := executeShow(t, newer.ID, "--db-dir", dir, "--delete", "--list"); err == nil || !strings.Contains(err.Error(), "cannot be combined") {
		t.Fatalf("expected combination error, got %v", err)
	}

	out, err := executeShow(t, newer.ID, "--db-dir", dir, "--delete")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !strings.Contains(out, "Deleted run "+newer.ID) {
		t.Errorf("unexpected output: %s", out)
	}

	out, err = executeShow(t, "--db-dir", dir, "--list")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if strings.Contains(out, newer.ID) || !strings.Contains(out, "Saved runs (1)") {
		t.Errorf("deleted run still listed:\n%s", out)
	}

	if _, err := executeShow(t, newer.ID, "--db-dir", dir, "--delete"); err == nil || !strings.Contains(err.Error(), "not found") {
		t.Errorf("expected not found error, got %v", err)
	}
}

func TestShowCommandWithoutDatabase(t *testing.T) {
	t.Parallel()

	_, err := executeShow(t, "--db-dir", t.TempDir())
	if err == nil || !strings.Contains(err.Error(), "database not found") {
		t.Fatalf("expected missing database error, got %v", err)
	}
}

func TestShowCommandEmptyDatabase(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	db, err := database.Open(dir, database.DefaultOptions())
	if err != nil {
		t.Fatalf("failed to open database: %v", err)
	}
	if err := db.Close(); err != nil {
		t.Fatalf("failed to close database: %v", err)
	}

	out, err := executeShow(t, "--db-dir", dir, "--list")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !strings.Contains(out, "No saved runs") {
		t.Errorf("unexpected output: %s", out)
	}

	if _, err := executeShow(t, "--db-dir", dir); err == nil || !strings.Contains(err.Error(), "no saved runs") {
		t.Errorf("expected no saved runs error, got %v", err)
	}
}
