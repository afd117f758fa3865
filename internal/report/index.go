package report

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/nao1215/commitmine/internal/model"
)

// Index file names.
const (
	// CommitIssueFile holds commitsByIssue: issue id to commit titles.
	CommitIssueFile = "commit_issue_dict.json"

	// BugFileIssueFile holds bugFilesIndex: file path to bug issue ids.
	BugFileIssueFile = "file_bug_issue.json"

	// FeatureFileIssueFile holds featureFilesIndex: file path to feature issue ids.
	FeatureFileIssueFile = "file_feature_issue.json"
)

// File permissions for written output.
const (
	dirPerm  = 0o750
	filePerm = 0o600
)

// ErrNoIndices is returned when a run carries no indices.
var ErrNoIndices = errors.New("run has no indices")

// File is a named serialized document.
type File struct {
	Name    string
	Content []byte
}

// IndexFiles serializes the three indices into their documents, in a
// fixed order. Keys are sorted by encoding/json, values keep their
// insertion order.
func IndexFiles(ix *model.Indices) ([]File, error) {
	if ix == nil {
		return nil, ErrNoIndices
	}

	docs := []struct {
		name  string
		index map[string][]string
	}{
		{CommitIssueFile, ix.CommitsByIssue},
		{BugFileIssueFile, ix.BugFiles},
		{FeatureFileIssueFile, ix.FeatureFiles},
	}

	files := make([]File, 0, len(docs))
	for _, d := range docs {
		index := d.index
		if index == nil {
			index = map[string][]string{}
		}
		data, err := marshalJSON(index, true, "", "  ")
		if err != nil {
			return nil, fmt.Errorf("failed to encode %s: %w", d.name, err)
		}
		files = append(files, File{Name: d.name, Content: data})
	}
	return files, nil
}

// IndexWriter writes the index files into a directory.
type IndexWriter struct {
	dir string
}

// NewIndexWriter creates an IndexWriter for dir. The directory is created
// on first write.
func NewIndexWriter(dir string) *IndexWriter {
	return &IndexWriter{dir: dir}
}

// Dir returns the output directory.
func (w *IndexWriter) Dir() string {
	return w.dir
}

// Write writes the three index files and returns their paths.
func (w *IndexWriter) Write(ix *model.Indices) ([]string, error) {
	files, err := IndexFiles(ix)
	if err != nil {
		return nil, err
	}

	paths := make([]string, 0, len(files))
	for _, f := range files {
		path, err := WriteFile(w.dir, f.Name, f.Content)
		if err != nil {
			return paths, err
		}
		paths = append(paths, path)
	}
	return paths, nil
}

// WriteFile writes content to dir/name, creating dir when needed.
func WriteFile(dir, name string, content []byte) (string, error) {
	if err := os.MkdirAll(dir, dirPerm); err != nil {
		return "", fmt.Errorf("failed to create output directory: %w", err)
	}
	path := filepath.Join(dir, name)
	if err := os.WriteFile(path, content, filePerm); err != nil {
		return "", fmt.Errorf("failed to write %s: %w", path, err)
	}
	return path, nil
}
