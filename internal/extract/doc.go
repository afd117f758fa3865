// Package extract turns fetched tracker pages into typed records.
//
// Every function in this package is a pure function of the page content:
// it performs no network access and keeps no state between calls. The
// expected markup is the classic GitHub web layout:
//
//   - commits page: li.commits-list-item entries, issue-link anchors,
//     and an "Older" pagination anchor
//   - commit detail page: div.file-info anchors whose title is the file path
//   - issue page: a.IssueLabel anchors whose title is the label name
//   - pull request page: span.issue-keyword spans with an aria-label naming
//     the referenced issue
//
// Parsing uses golang.org/x/net/html so that malformed markup still yields a
// tree. Entries missing a required element are reported as ErrMalformed and
// skipped rather than failing the whole page.
package extract
