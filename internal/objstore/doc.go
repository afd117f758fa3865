// Package objstore uploads crawl output to an S3-compatible bucket.
//
// Objects are keyed "<prefix>/<run id>/<name>", so every run's index files
// live under their own folder. The bucket is created on first use when it
// does not exist.
package objstore
