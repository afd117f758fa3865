package resolver

import (
	"strings"

	"golang.org/x/text/cases"
)

// Default vocabularies. Matching is case-insensitive.
var (
	// DefaultFixKeywords are the pull request keywords that close an issue.
	DefaultFixKeywords = []string{
		"CLOSE", "CLOSES", "CLOSED",
		"FIX", "FIXES", "FIXED",
		"RESOLVE", "RESOLVES", "RESOLVED",
	}

	// DefaultBugLabels are the labels of bug issues.
	DefaultBugLabels = []string{"bug"}

	// DefaultFeatureLabels are the labels of feature issues.
	DefaultFeatureLabels = []string{"feature", "improvement"}
)

// vocabulary is a case-folded set of words.
type vocabulary map[string]struct{}

// newVocabulary folds words into a set. Blank words are ignored.
func newVocabulary(words []string) vocabulary {
	v := make(vocabulary, len(words))
	for _, w := range words {
		if f := fold(w); f != "" {
			v[f] = struct{}{}
		}
	}
	return v
}

// contains reports whether word, folded, is in the set.
func (v vocabulary) contains(word string) bool {
	_, ok := v[fold(word)]
	return ok
}

// fold returns the case-folded, trimmed form of s.
// A Caser keeps state, so a new one is made per call.
func fold(s string) string {
	return cases.Fold().String(strings.TrimSpace(s))
}
