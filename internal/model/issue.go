package model

import "fmt"

// Category classifies a resolved issue by its labels.
//
// Only bug and feature issues feed the file indices. Unlabeled issues are
// still counted in the commit index.
type Category int

const (
	// CategoryUnlabeled is an issue with no label from either vocabulary.
	CategoryUnlabeled Category = iota

	// CategoryBug is an issue carrying a bug label.
	CategoryBug

	// CategoryFeature is an issue carrying a feature label.
	CategoryFeature
)

// String returns the lowercase name of the category.
func (c Category) String() string {
	switch c {
	case CategoryUnlabeled:
		return "unlabeled"
	case CategoryBug:
		return "bug"
	case CategoryFeature:
		return "feature"
	default:
		return "unknown"
	}
}

// Indexed reports whether issues of this category are recorded per file.
func (c Category) Indexed() bool {
	return c == CategoryBug || c == CategoryFeature
}

// ParseCategory converts a category name back into a Category.
func ParseCategory(s string) (Category, error) {
	switch s {
	case "unlabeled":
		return CategoryUnlabeled, nil
	case "bug":
		return CategoryBug, nil
	case "feature":
		return CategoryFeature, nil
	default:
		return CategoryUnlabeled, fmt.Errorf("unknown issue category %q", s)
	}
}

// MarshalText implements encoding.TextMarshaler.
func (c Category) MarshalText() ([]byte, error) {
	return []byte(c.String()), nil
}

// UnmarshalText implements encoding.TextUnmarshaler.
func (c *Category) UnmarshalText(text []byte) error {
	parsed, err := ParseCategory(string(text))
	if err != nil {
		return err
	}
	*c = parsed
	return nil
}

// IssueResolution is an issue closed by a commit reference, tagged with
// its category. Issue identifiers are opaque tokens and are never parsed
// as numbers.
type IssueResolution struct {
	IssueID  string   `json:"issue_id"`
	Category Category `json:"category"`
}
