package resolver

import (
	"bytes"
	"context"
	"fmt"
	"log/slog"
	"net/url"
	"strings"

	lru "github.com/hashicorp/golang-lru/v2"

	"github.com/nao1215/commitmine/internal/extract"
	"github.com/nao1215/commitmine/internal/model"
)

// DefaultCacheSize is the number of entries kept in each cache.
const DefaultCacheSize = 1024

// PageFetcher retrieves the raw content of a page.
type PageFetcher interface {
	Fetch(ctx context.Context, pageURL string) ([]byte, error)
}

// Resolver resolves commit references into categorized issues.
// It is safe for concurrent use.
type Resolver struct {
	fetcher PageFetcher

	// issueBaseURL is joined with an issue id to build the issue page URL.
	// When empty it is derived from the reference link.
	issueBaseURL string

	fixKeywords   vocabulary
	bugLabels     vocabulary
	featureLabels vocabulary

	cacheSize int

	// labels caches issue labels by issue page URL.
	labels *lru.Cache[string, []string]

	// pulls caches pull request resolutions by link.
	pulls *lru.Cache[string, []model.IssueResolution]

	logger *slog.Logger
}

// Option configures a Resolver.
type Option func(*Resolver)

// WithIssueBaseURL sets the URL prefix of issue pages, such as
// "https://github.com/owner/repo/issues/".
func WithIssueBaseURL(base string) Option {
	return func(r *Resolver) {
		r.issueBaseURL = base
	}
}

// WithFixKeywords replaces the fix keyword vocabulary.
func WithFixKeywords(words []string) Option {
	return func(r *Resolver) {
		if len(words) > 0 {
			r.fixKeywords = newVocabulary(words)
		}
	}
}

// WithBugLabels replaces the bug label vocabulary.
func WithBugLabels(labels []string) Option {
	return func(r *Resolver) {
		if len(labels) > 0 {
			r.bugLabels = newVocabulary(labels)
		}
	}
}

// WithFeatureLabels replaces the feature label vocabulary.
func WithFeatureLabels(labels []string) Option {
	return func(r *Resolver) {
		if len(labels) > 0 {
			r.featureLabels = newVocabulary(labels)
		}
	}
}

// WithCacheSize sets the size of each cache.
func WithCacheSize(size int) Option {
	return func(r *Resolver) {
		if size > 0 {
			r.cacheSize = size
		}
	}
}

// WithLogger sets a custom logger.
func WithLogger(logger *slog.Logger) Option {
	return func(r *Resolver) {
		r.logger = logger
	}
}

// New creates a Resolver reading pages through fetcher.
func New(fetcher PageFetcher, opts ...Option) (*Resolver, error) {
	if fetcher == nil {
		return nil, ErrNoFetcher
	}

	r := &Resolver{
		fetcher:       fetcher,
		fixKeywords:   newVocabulary(DefaultFixKeywords),
		bugLabels:     newVocabulary(DefaultBugLabels),
		featureLabels: newVocabulary(DefaultFeatureLabels),
		cacheSize:     DefaultCacheSize,
	}

	for _, opt := range opts {
		opt(r)
	}

	if r.logger == nil {
		r.logger = slog.Default()
	}
	if r.issueBaseURL != "" && !strings.HasSuffix(r.issueBaseURL, "/") {
		r.issueBaseURL += "/"
	}

	var err error
	if r.labels, err = lru.New[string, []string](r.cacheSize); err != nil {
		return nil, fmt.Errorf("failed to create label cache: %w", err)
	}
	if r.pulls, err = lru.New[string, []model.IssueResolution](r.cacheSize); err != nil {
		return nil, fmt.Errorf("failed to create pull request cache: %w", err)
	}

	return r, nil
}

// Resolve returns the issues closed by ref, each tagged with its category.
//
// A direct issue yields one resolution per matching category, or a single
// unlabeled one. A pull request yields the union over its fix keyword
// spans; no matching span yields an empty result. Fetch errors are
// returned wrapped so callers can tell transient from permanent failures.
func (r *Resolver) Resolve(ctx context.Context, ref model.IssueRef) ([]model.IssueResolution, error) {
	switch ref.Kind {
	case model.LinkKindDirectIssue:
		id, err := extract.IssueIDFromLink(ref.Link)
		if err != nil {
			return nil, err
		}
		return r.resolveIssue(ctx, id, ref.Link)
	case model.LinkKindPullRequest:
		return r.resolvePull(ctx, ref.Link)
	default:
		return nil, fmt.Errorf("%w: %d", ErrUnknownLinkKind, ref.Kind)
	}
}

// resolvePull resolves the issues a pull request closes.
func (r *Resolver) resolvePull(ctx context.Context, link string) ([]model.IssueResolution, error) {
	if cached, ok := r.pulls.Get(link); ok {
		return cloneResolutions(cached), nil
	}

	body, err := r.fetcher.Fetch(ctx, link)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch pull request %s: %w", link, err)
	}

	parser, err := extract.NewParser(link)
	if err != nil {
		return nil, err
	}
	spans, err := parser.KeywordSpans(bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("failed to parse pull request %s: %w", link, err)
	}

	seen := make(map[model.IssueResolution]struct{})
	result := make([]model.IssueResolution, 0)
	for _, span := range spans {
		if !r.fixKeywords.contains(span.Text) {
			continue
		}

		id, err := extract.IssueIDFromAriaLabel(span.AriaLabel)
		if err != nil {
			r.logger.Warn("skipping keyword span",
				"pullRequest", link,
				"keyword", span.Text,
				"error", err,
			)
			continue
		}

		resolved, err := r.resolveIssue(ctx, id, link)
		if err != nil {
			return nil, err
		}
		for _, res := range resolved {
			if _, dup := seen[res]; dup {
				continue
			}
			seen[res] = struct{}{}
			result = append(result, res)
		}
	}

	r.pulls.Add(link, cloneResolutions(result))
	return result, nil
}

// resolveIssue classifies the issue id. refLink is the link the id was
// found through and is used to locate the issue page when no base URL is
// configured.
func (r *Resolver) resolveIssue(ctx context.Context, id, refLink string) ([]model.IssueResolution, error) {
	issueURL, err := r.issueURL(id, refLink)
	if err != nil {
		return nil, err
	}

	labels, err := r.issueLabels(ctx, issueURL)
	if err != nil {
		return nil, err
	}
	return r.classify(id, labels), nil
}

// issueLabels returns the labels of the issue page at issueURL.
func (r *Resolver) issueLabels(ctx context.Context, issueURL string) ([]string, error) {
	if cached, ok := r.labels.Get(issueURL); ok {
		return cached, nil
	}

	body, err := r.fetcher.Fetch(ctx, issueURL)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch issue %s: %w", issueURL, err)
	}

	parser, err := extract.NewParser(issueURL)
	if err != nil {
		return nil, err
	}
	labels, err := parser.IssueLabels(bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("failed to parse issue %s: %w", issueURL, err)
	}

	r.labels.Add(issueURL, labels)
	return labels, nil
}

// classify maps labels to categories. Unknown labels are ignored.
func (r *Resolver) classify(id string, labels []string) []model.IssueResolution {
	var bug, feature bool
	for _, label := range labels {
		if r.bugLabels.contains(label) {
			bug = true
		}
		if r.featureLabels.contains(label) {
			feature = true
		}
	}

	result := make([]model.IssueResolution, 0, 2)
	if bug {
		result = append(result, model.IssueResolution{IssueID: id, Category: model.CategoryBug})
	}
	if feature {
		result = append(result, model.IssueResolution{IssueID: id, Category: model.CategoryFeature})
	}
	if len(result) == 0 {
		result = append(result, model.IssueResolution{IssueID: id, Category: model.CategoryUnlabeled})
	}
	return result
}

// issueURL builds the page URL of issue id.
func (r *Resolver) issueURL(id, refLink string) (string, error) {
	if r.issueBaseURL != "" {
		return r.issueBaseURL + url.PathEscape(id), nil
	}

	base, err := IssueBaseURL(refLink)
	if err != nil {
		return "", err
	}
	return base + url.PathEscape(id), nil
}

// IssueBaseURL derives the issue page prefix of the repository that
// pageURL belongs to. For "https://github.com/o/r/commits/main" it returns
// "https://github.com/o/r/issues/".
func IssueBaseURL(pageURL string) (string, error) {
	u, err := url.Parse(pageURL)
	if err != nil || u.Scheme == "" || u.Host == "" {
		return "", fmt.Errorf("%w: %q", ErrNoIssueBaseURL, pageURL)
	}

	segments := strings.Split(strings.Trim(u.Path, "/"), "/")
	if len(segments) < 2 || segments[0] == "" || segments[1] == "" {
		return "", fmt.Errorf("%w: %q has no owner/repository path", ErrNoIssueBaseURL, pageURL)
	}

	return fmt.Sprintf("%s://%s/%s/%s/issues/", u.Scheme, u.Host, segments[0], segments[1]), nil
}

// cloneResolutions copies a cached slice so callers cannot alter it.
func cloneResolutions(src []model.IssueResolution) []model.IssueResolution {
	dst := make([]model.IssueResolution, len(src))
	copy(dst, src)
	return dst
}
