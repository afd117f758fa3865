// Package report writes crawl results.
//
// Two kinds of output are produced:
//   - the index files: commit_issue_dict.json, file_bug_issue.json and
//     file_feature_issue.json, written by IndexWriter into an output directory
//   - run reports: SimpleWriter for the terminal, JSONWriter for tools and
//     MarkdownWriter for a shareable summary
//
// Run report writers implement the Writer interface.
package report
