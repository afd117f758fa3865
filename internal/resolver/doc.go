// Package resolver turns commit references into resolved issues.
//
// A direct issue reference is resolved by reading the labels of the issue.
// A pull request reference is resolved by reading its thread, keeping the
// issues named by fix keywords ("Fixes #42", "Closes #7") and reading the
// labels of each. Labels decide the category of every resolved issue.
//
// Label lookups and pull request resolutions are kept in LRU caches, so a
// pull request referenced by several commits is fetched once.
package resolver
