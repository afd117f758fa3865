package model

// LinkKind tells whether an issue reference on a commit points at an issue
// directly or at a pull request whose thread must be scanned.
type LinkKind int

const (
	// LinkKindDirectIssue is a reference to an issue page.
	LinkKindDirectIssue LinkKind = iota

	// LinkKindPullRequest is a reference to a pull request thread.
	LinkKindPullRequest
)

// String returns the wire name of the link kind.
func (k LinkKind) String() string {
	switch k {
	case LinkKindDirectIssue:
		return "direct_issue"
	case LinkKindPullRequest:
		return "pull_request"
	default:
		return "unknown"
	}
}

// IssueRef is a single issue link found on a commit entry.
type IssueRef struct {
	// Link is the absolute URL of the issue or pull request.
	Link string `json:"link"`

	// Kind selects how the reference is resolved.
	Kind LinkKind `json:"kind"`
}

// CommitRecord is one commit entry of a commits page.
// It is produced once by the extractor and never modified afterwards.
type CommitRecord struct {
	// Title is the commit message headline with the trailing " (" removed.
	Title string `json:"title"`

	// SourceLink is the absolute URL of the commit detail page,
	// which lists the files changed by the commit.
	SourceLink string `json:"source_link"`

	// References are the issue and pull request links shown on the entry,
	// in document order.
	References []IssueRef `json:"references,omitempty"`
}

// HasReferences reports whether the commit links to any issue or pull request.
func (c CommitRecord) HasReferences() bool {
	return len(c.References) > 0
}
