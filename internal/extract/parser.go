package extract

import (
	"fmt"
	"io"
	"net/url"
	"strings"

	"golang.org/x/net/html"

	"github.com/nao1215/commitmine/internal/model"
)

// Class names and attributes of the tracker markup.
const (
	classCommitItem   = "commits-list-item"
	classIssueLink    = "issue-link"
	classFileInfo     = "file-info"
	classIssueLabel   = "IssueLabel"
	classIssueKeyword = "issue-keyword"

	attrHovercardType = "data-hovercard-type"
	attrAriaLabel     = "aria-label"

	hovercardIssue = "issue"

	// nextPageText is the text of the anchor pointing at older commits.
	nextPageText = "Older"
)

// Parser extracts records from tracker pages.
// It holds the URL of the page being parsed so relative links can be
// resolved to absolute ones.
type Parser struct {
	// baseURL is the URL of the page being parsed.
	baseURL *url.URL
}

// CommitsPage is the content of one page of commit history.
type CommitsPage struct {
	// Commits are the well-formed commit entries in page order.
	Commits []model.CommitRecord

	// NextURL is the absolute URL of the next (older) page,
	// or empty when this is the last page.
	NextURL string

	// Skipped holds one ErrMalformed-wrapping error per commit entry that
	// could not be extracted.
	Skipped []error
}

// KeywordSpan is an issue keyword span of a pull request thread, such as
// the "Fixes" in "Fixes #42".
type KeywordSpan struct {
	// Text is the keyword as displayed.
	Text string

	// AriaLabel is the accessible label, which names the referenced issue.
	AriaLabel string
}

// NewParser creates a Parser for the page at pageURL.
func NewParser(pageURL string) (*Parser, error) {
	u, err := url.Parse(pageURL)
	if err != nil {
		return nil, fmt.Errorf("invalid page URL %q: %w", pageURL, err)
	}
	return &Parser{baseURL: u}, nil
}

// CommitsPage parses a commits page.
func (p *Parser) CommitsPage(content io.Reader) (*CommitsPage, error) {
	doc, err := html.Parse(content)
	if err != nil {
		return nil, err
	}

	page := &CommitsPage{
		Commits: make([]model.CommitRecord, 0),
		Skipped: make([]error, 0),
	}

	for _, li := range findAll(doc, "li", classCommitItem) {
		record, err := p.commitRecord(li)
		if err != nil {
			page.Skipped = append(page.Skipped, err)
			continue
		}
		page.Commits = append(page.Commits, record)
	}

	for _, a := range findAll(doc, "a", "") {
		if strings.TrimSpace(textContent(a)) != nextPageText {
			continue
		}
		page.NextURL = p.resolveURL(getAttr(a, "href"))
		break
	}

	return page, nil
}

// commitRecord extracts a commit entry from its list item.
func (p *Parser) commitRecord(li *html.Node) (model.CommitRecord, error) {
	cell := findFirst(li, "div", "")
	if cell == nil {
		return model.CommitRecord{}, fmt.Errorf("%w: commit entry has no cell", ErrMalformed)
	}
	para := findFirst(cell, "p", "")
	if para == nil {
		return model.CommitRecord{}, fmt.Errorf("%w: commit entry has no message paragraph", ErrMalformed)
	}
	anchor := findFirst(para, "a", "")
	if anchor == nil {
		return model.CommitRecord{}, fmt.Errorf("%w: commit entry has no message link", ErrMalformed)
	}

	title := ParseCommitTitle(textContent(anchor))
	link := p.resolveURL(getAttr(anchor, "href"))
	if link == "" {
		return model.CommitRecord{}, fmt.Errorf("%w: commit %q has no detail link", ErrMalformed, title)
	}

	record := model.CommitRecord{
		Title:      title,
		SourceLink: link,
		References: make([]model.IssueRef, 0),
	}

	for _, a := range findAll(cell, "a", classIssueLink) {
		href := p.resolveURL(getAttr(a, "href"))
		if href == "" {
			continue
		}
		kind := model.LinkKindPullRequest
		if getAttr(a, attrHovercardType) == hovercardIssue {
			kind = model.LinkKindDirectIssue
		}
		record.References = append(record.References, model.IssueRef{Link: href, Kind: kind})
	}

	return record, nil
}

// ChangedFiles parses a commit detail page and returns the changed file
// paths in page order. Entries without a title are ignored.
func (p *Parser) ChangedFiles(content io.Reader) ([]string, error) {
	doc, err := html.Parse(content)
	if err != nil {
		return nil, err
	}

	files := make([]string, 0)
	for _, div := range findAll(doc, "div", classFileInfo) {
		a := findFirst(div, "a", "")
		if a == nil {
			continue
		}
		if title := strings.TrimSpace(getAttr(a, "title")); title != "" {
			files = append(files, title)
		}
	}
	return files, nil
}

// IssueLabels parses an issue page and returns its label names.
func (p *Parser) IssueLabels(content io.Reader) ([]string, error) {
	doc, err := html.Parse(content)
	if err != nil {
		return nil, err
	}

	labels := make([]string, 0)
	for _, a := range findAll(doc, "a", classIssueLabel) {
		if title := strings.TrimSpace(getAttr(a, "title")); title != "" {
			labels = append(labels, title)
		}
	}
	return labels, nil
}

// KeywordSpans parses a pull request thread and returns its issue keyword spans.
func (p *Parser) KeywordSpans(content io.Reader) ([]KeywordSpan, error) {
	doc, err := html.Parse(content)
	if err != nil {
		return nil, err
	}

	spans := make([]KeywordSpan, 0)
	for _, span := range findAll(doc, "span", classIssueKeyword) {
		spans = append(spans, KeywordSpan{
			Text:      strings.TrimSpace(textContent(span)),
			AriaLabel: getAttr(span, attrAriaLabel),
		})
	}
	return spans, nil
}

// resolveURL resolves href against the page URL.
// It returns an empty string for empty or unparseable hrefs and for
// fragment-only or javascript: links.
func (p *Parser) resolveURL(href string) string {
	href = strings.TrimSpace(href)
	if href == "" || href == "#" || strings.HasPrefix(href, "javascript:") {
		return ""
	}

	u, err := url.Parse(href)
	if err != nil {
		return ""
	}
	return p.baseURL.ResolveReference(u).String()
}

// findAll returns every element below n (n included) with the given tag and,
// when class is not empty, carrying that class.
func findAll(n *html.Node, tag, class string) []*html.Node {
	var found []*html.Node
	var walk func(*html.Node)
	walk = func(n *html.Node) {
		if n.Type == html.ElementNode && n.Data == tag && (class == "" || hasClass(n, class)) {
			found = append(found, n)
		}
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			walk(c)
		}
	}
	walk(n)
	return found
}

// findFirst returns the first descendant of n in document order matching
// tag and class, or nil.
func findFirst(n *html.Node, tag, class string) *html.Node {
	for c := n.FirstChild; c != nil; c = c.NextSibling {
		if c.Type == html.ElementNode && c.Data == tag && (class == "" || hasClass(c, class)) {
			return c
		}
		if found := findFirst(c, tag, class); found != nil {
			return found
		}
	}
	return nil
}

// hasClass reports whether the class attribute of n contains class as a token.
func hasClass(n *html.Node, class string) bool {
	for _, token := range strings.Fields(getAttr(n, "class")) {
		if token == class {
			return true
		}
	}
	return false
}

// textContent returns the concatenated text of n and its descendants.
func textContent(n *html.Node) string {
	var b strings.Builder
	var walk func(*html.Node)
	walk = func(n *html.Node) {
		if n.Type == html.TextNode {
			b.WriteString(n.Data)
		}
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			walk(c)
		}
	}
	walk(n)
	return b.String()
}

// getAttr retrieves an attribute value from an HTML node.
func getAttr(n *html.Node, key string) string {
	for _, attr := range n.Attr {
		if attr.Key == key {
			return attr.Val
		}
	}
	return ""
}
