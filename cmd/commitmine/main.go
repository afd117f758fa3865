// Package main provides the entry point for the commitmine CLI.
//
// commitmine walks the commit history of a hosted repository page by page,
// follows the issue and pull request links of every commit and builds three
// lookup tables: commits per issue, and issues per changed file for bug and
// feature issues.
//
// Usage:
//
//	commitmine crawl https://github.com/owner/repo/commits/main
//	commitmine show --issue 42
//
// See --help for all available options.
package main

func main() {
	Execute()
}
