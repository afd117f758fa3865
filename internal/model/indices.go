package model

import "sort"

// Indices holds the three lookup tables built by a crawl.
// Every value slice is an insertion-ordered set without duplicates.
//
// The JSON names match the file names written by the report package so a
// serialized Indices can be split into the three output documents.
type Indices struct {
	// CommitsByIssue maps an issue id to the titles of the commits that resolved it.
	CommitsByIssue map[string][]string `json:"commit_issue_dict"`

	// BugFiles maps a file path to the ids of bug issues whose commits touched it.
	BugFiles map[string][]string `json:"file_bug_issue"`

	// FeatureFiles maps a file path to the ids of feature issues whose commits touched it.
	FeatureFiles map[string][]string `json:"file_feature_issue"`
}

// NewIndices returns empty, non-nil indices.
func NewIndices() *Indices {
	return &Indices{
		CommitsByIssue: make(map[string][]string),
		BugFiles:       make(map[string][]string),
		FeatureFiles:   make(map[string][]string),
	}
}

// FilesFor returns the file index for the given category.
// It returns nil for categories that are not indexed per file.
func (ix *Indices) FilesFor(c Category) map[string][]string {
	switch c {
	case CategoryBug:
		return ix.BugFiles
	case CategoryFeature:
		return ix.FeatureFiles
	default:
		return nil
	}
}

// IsEmpty reports whether nothing was recorded.
func (ix *Indices) IsEmpty() bool {
	return len(ix.CommitsByIssue) == 0 && len(ix.BugFiles) == 0 && len(ix.FeatureFiles) == 0
}

// FileCount is a file path with the number of issues recorded for it.
type FileCount struct {
	Path   string `json:"path"`
	Issues int    `json:"issues"`
}

// TopFiles returns up to limit files of the category ordered by issue count,
// most first. Ties are broken by path so the order is stable.
// A limit of zero or less returns every file.
func (ix *Indices) TopFiles(c Category, limit int) []FileCount {
	files := ix.FilesFor(c)
	counts := make([]FileCount, 0, len(files))
	for path, issues := range files {
		counts = append(counts, FileCount{Path: path, Issues: len(issues)})
	}

	sort.Slice(counts, func(i, j int) bool {
		if counts[i].Issues != counts[j].Issues {
			return counts[i].Issues > counts[j].Issues
		}
		return counts[i].Path < counts[j].Path
	})

	if limit > 0 && len(counts) > limit {
		counts = counts[:limit]
	}
	return counts
}
