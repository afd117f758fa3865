// Package model defines the core data structures used throughout commitmine.
//
// This package contains the following main types:
//   - CommitRecord: One commit entry extracted from a commits page
//   - IssueRef: A link from a commit to an issue or pull request
//   - IssueResolution: An issue identifier tagged with its category
//   - Indices: The three lookup tables built by a crawl
//   - CrawlRun: One execution of the crawl pipeline and its outcome
//
// The models live in their own package so that the extractor, resolver,
// store, crawler and persistence packages can share them without import
// cycles. All of them serialize to JSON for report output and database
// storage.
package model
