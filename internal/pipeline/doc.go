// Package pipeline runs a crawl and persists its results as a sequence of
// steps over a model.CrawlRun.
//
// Regular steps run in order and the pipeline stops at the first failure.
// Final steps run afterwards in every case, with a context that is not
// cancelled, so the indices accumulated by an aborted or interrupted crawl
// are still saved to the database, the output directory and object storage.
package pipeline
