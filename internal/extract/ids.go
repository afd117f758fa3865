package extract

import (
	"fmt"
	"net/url"
	"strings"
)

// ParseCommitTitle trims the " (" left over from a commit message whose
// issue link was rendered as a separate anchor, e.g. "Fix null pointer (".
func ParseCommitTitle(s string) string {
	return strings.Trim(strings.TrimSpace(s), " (")
}

// IssueIDFromAriaLabel extracts the issue id from a keyword span's
// accessible label, which has the form "...#<id>.".
func IssueIDFromAriaLabel(label string) (string, error) {
	_, rest, ok := strings.Cut(label, "#")
	if !ok {
		return "", fmt.Errorf("%w: aria-label %q names no issue", ErrMalformed, label)
	}
	id, _, _ := strings.Cut(rest, "#")
	id = strings.Trim(strings.TrimSpace(id), ".")
	if id == "" {
		return "", fmt.Errorf("%w: aria-label %q has an empty issue id", ErrMalformed, label)
	}
	return id, nil
}

// IssueIDFromLink returns the last path segment of an issue link,
// e.g. "42" for "https://github.com/o/r/issues/42".
func IssueIDFromLink(link string) (string, error) {
	u, err := url.Parse(link)
	if err != nil {
		return "", fmt.Errorf("%w: issue link %q: %v", ErrMalformed, link, err)
	}

	path := strings.TrimRight(u.Path, "/")
	id := path[strings.LastIndex(path, "/")+1:]
	if id == "" {
		return "", fmt.Errorf("%w: issue link %q has no id", ErrMalformed, link)
	}
	return id, nil
}
