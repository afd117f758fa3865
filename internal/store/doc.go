// Package store holds the running indices of a crawl.
//
// Store is the only component with write access to the indices. Its two
// mutators are idempotent: recording the same commit title for an issue, or
// the same issue for a file, twice leaves a single entry. Writes are
// serialized by a mutex so the crawler may resolve commits concurrently.
//
// Each index value is an ordered set: a slice that keeps insertion order for
// output, backed by a map so membership checks stay constant time as the
// indices grow.
package store
