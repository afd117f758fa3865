// Package database stores crawl runs and their indices in SQLite.
//
// Every run is one row of crawl_runs. Its indices are flattened into
// commit_issues (issue id to commit title) and file_issues (category and
// file path to issue id), with the position of each value so the insertion
// order of the in-memory sets survives a round trip.
package database
