package store

import (
	"sync"

	"github.com/nao1215/commitmine/internal/model"
)

// Store accumulates the three indices of a crawl.
// The zero value is not usable; create one with New.
type Store struct {
	mu sync.Mutex

	// commitsByIssue maps issue id to commit titles.
	commitsByIssue setIndex

	// bugFiles maps file path to bug issue ids.
	bugFiles setIndex

	// featureFiles maps file path to feature issue ids.
	featureFiles setIndex
}

// New creates an empty Store.
func New() *Store {
	return &Store{
		commitsByIssue: make(setIndex),
		bugFiles:       make(setIndex),
		featureFiles:   make(setIndex),
	}
}

// RecordCommitForIssue appends commitTitle to the commits of issueID unless
// it is already there. It reports whether the index changed.
func (s *Store) RecordCommitForIssue(issueID, commitTitle string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.commitsByIssue.add(issueID, commitTitle)
}

// RecordFileForIssue appends issueID to the issues of filePath in the index
// selected by category unless it is already there. Categories that are not
// indexed per file are ignored. It reports whether the index changed.
func (s *Store) RecordFileForIssue(category model.Category, filePath, issueID string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	switch category {
	case model.CategoryBug:
		return s.bugFiles.add(filePath, issueID)
	case model.CategoryFeature:
		return s.featureFiles.add(filePath, issueID)
	default:
		return false
	}
}

// RecordResolution records one resolved issue for a commit: the commit title
// under the issue, and the issue under every file when the category is
// indexed. It returns the number of index entries added.
func (s *Store) RecordResolution(res model.IssueResolution, commitTitle string, files []string) int {
	added := 0
	if s.RecordCommitForIssue(res.IssueID, commitTitle) {
		added++
	}
	if !res.Category.Indexed() {
		return added
	}
	for _, f := range files {
		if s.RecordFileForIssue(res.Category, f, res.IssueID) {
			added++
		}
	}
	return added
}

// IssueCount returns the number of issues with at least one commit.
func (s *Store) IssueCount() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.commitsByIssue)
}

// FileCount returns the number of files in the index for category.
func (s *Store) FileCount(category model.Category) int {
	s.mu.Lock()
	defer s.mu.Unlock()

	switch category {
	case model.CategoryBug:
		return len(s.bugFiles)
	case model.CategoryFeature:
		return len(s.featureFiles)
	default:
		return 0
	}
}

// Snapshot returns a deep copy of the indices. Later writes to the store do
// not affect the returned value.
func (s *Store) Snapshot() *model.Indices {
	s.mu.Lock()
	defer s.mu.Unlock()

	return &model.Indices{
		CommitsByIssue: s.commitsByIssue.snapshot(),
		BugFiles:       s.bugFiles.snapshot(),
		FeatureFiles:   s.featureFiles.snapshot(),
	}
}
