// Package crawler walks the paginated commit history of a repository.
//
// # Architecture
//
// CommitCrawler is a small state machine over a cursor, the URL of the
// next commits page:
//
//	FETCHING_PAGE -> EXTRACTING_COMMITS -> RESOLVING_REFERENCES -> ADVANCING
//	      ^                                                          |
//	      +--------------------- next page link ---------------------+
//
// Pages are fetched one after another. The commits of one page are
// processed by a bounded pool of workers: each worker resolves the commit's
// references, fetches its changed files when a bug or feature issue was
// resolved, and records the result in a store.Store.
//
// # Failure handling
//
// A fetch that keeps failing after its retries, or a cancelled context,
// aborts the crawl with an *AbortError. Everything recorded until then
// stays in the store. A sub-page that fails permanently (for example a
// 404 pull request) or a malformed commit entry only skips that record.
//
// The crawl ends when a page has no link to older commits. It also stops
// when a next link was already visited or when the page limit is reached.
package crawler
