package extract

import (
	"strings"
	"testing"

	"github.com/nao1215/commitmine/internal/model"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const commitsPageHTML = `<html><body>
<ol>
  <li class="commit commits-list-item js-commits-list-item">
    <div class="table-list-cell">
      <p class="commit-title h5 mb-1">
        <a href="/o/r/commit/aaa" class="message js-navigation-open">Fix null pointer (</a><a class="issue-link js-issue-link" data-hovercard-type="pull_request" href="https://github.com/o/r/pull/7">#7</a><a href="/o/r/commit/aaa" class="message">)</a>
      </p>
    </div>
  </li>
  <li class="commit commits-list-item">
    <div class="table-list-cell">
      <p><a href="/o/r/commit/bbb">Add lexer option (</a><a class="issue-link" data-hovercard-type="issue" href="/o/r/issues/12">#12</a>, <a class="issue-link" data-hovercard-type="pull_request" href="/o/r/pull/13">#13</a>)</p>
    </div>
  </li>
  <li class="commit commits-list-item">
    <div class="table-list-cell"><p><a href="/o/r/commit/ccc">Bump version</a></p></div>
  </li>
  <li class="commit commits-list-item">
    <span>no cell here</span>
  </li>
  <li class="commit commits-list-item">
    <div><p><a>Detached title</a></p></div>
  </li>
</ol>
<div class="paginate-container">
  <a rel="nofollow" class="btn" disabled>Newer</a>
  <a rel="nofollow" class="btn" href="https://github.com/o/r/commits/master?after=aaa+34">Older</a>
</div>
</body></html>`

func TestCommitsPage(t *testing.T) {
	t.Parallel()

	p, err := NewParser("https://github.com/o/r/commits/master")
	require.NoError(t, err)

	page, err := p.CommitsPage(strings.NewReader(commitsPageHTML))
	require.NoError(t, err)

	t.Run("extracts well-formed commits in order", func(t *testing.T) {
		t.Parallel()

		require.Len(t, page.Commits, 3)

		first := page.Commits[0]
		assert.Equal(t, "Fix null pointer", first.Title)
		assert.Equal(t, "https://github.com/o/r/commit/aaa", first.SourceLink)
		assert.Equal(t, []model.IssueRef{
			{Link: "https://github.com/o/r/pull/7", Kind: model.LinkKindPullRequest},
		}, first.References)

		second := page.Commits[1]
		assert.Equal(t, "Add lexer option", second.Title)
		assert.Equal(t, []model.IssueRef{
			{Link: "https://github.com/o/r/issues/12", Kind: model.LinkKindDirectIssue},
			{Link: "https://github.com/o/r/pull/13", Kind: model.LinkKindPullRequest},
		}, second.References)

		third := page.Commits[2]
		assert.Equal(t, "Bump version", third.Title)
		assert.False(t, third.HasReferences())
	})

	t.Run("reports malformed entries", func(t *testing.T) {
		t.Parallel()

		require.Len(t, page.Skipped, 2)
		for _, err := range page.Skipped {
			assert.ErrorIs(t, err, ErrMalformed)
		}
	})

	t.Run("finds the older link", func(t *testing.T) {
		t.Parallel()

		assert.Equal(t, "https://github.com/o/r/commits/master?after=aaa+34", page.NextURL)
	})
}

func TestCommitsPageLastPage(t *testing.T) {
	t.Parallel()

	p, err := NewParser("https://github.com/o/r/commits/master")
	require.NoError(t, err)

	page, err := p.CommitsPage(strings.NewReader(`<html><body>
		<li class="commits-list-item"><div><p><a href="/o/r/commit/z">Initial commit</a></p></div></li>
		<a class="btn" disabled>Older</a>
	</body></html>`))
	require.NoError(t, err)

	require.Len(t, page.Commits, 1)
	assert.Empty(t, page.NextURL, "a disabled Older button has no href")
}

func TestChangedFiles(t *testing.T) {
	t.Parallel()

	p, err := NewParser("https://github.com/o/r/commit/aaa")
	require.NoError(t, err)

	files, err := p.ChangedFiles(strings.NewReader(`<html><body>
		<div class="file-header"><div class="file-info"><span>3</span><a href="#diff-1" title="src/Parser.kt">src/Parser.kt</a></div></div>
		<div class="file-info"><a href="#diff-2" title="docs/README.md">docs/README.md</a></div>
		<div class="file-info"><a href="#diff-3">untitled</a></div>
		<div class="file-info"></div>
	</body></html>`))
	require.NoError(t, err)

	assert.Equal(t, []string{"src/Parser.kt", "docs/README.md"}, files)
}

func TestIssueLabels(t *testing.T) {
	t.Parallel()

	p, err := NewParser("https://github.com/o/r/issues/42")
	require.NoError(t, err)

	labels, err := p.IssueLabels(strings.NewReader(`<html><body>
		<div class="labels">
			<a class="IssueLabel hx_IssueLabel" title="bug" href="/o/r/labels/bug">bug</a>
			<a class="IssueLabel" title="help wanted">help wanted</a>
			<a class="Label" title="not a label">x</a>
		</div>
	</body></html>`))
	require.NoError(t, err)

	assert.Equal(t, []string{"bug", "help wanted"}, labels)
}

func TestKeywordSpans(t *testing.T) {
	t.Parallel()

	p, err := NewParser("https://github.com/o/r/pull/7")
	require.NoError(t, err)

	spans, err := p.KeywordSpans(strings.NewReader(`<html><body>
		<p><span class="issue-keyword tooltipped" aria-label="This pull request closes issue #42.">Fixes</span> <a href="/o/r/issues/42">#42</a></p>
		<p><span class="issue-keyword" aria-label="Mentions issue #43."> see </span></p>
	</body></html>`))
	require.NoError(t, err)

	assert.Equal(t, []KeywordSpan{
		{Text: "Fixes", AriaLabel: "This pull request closes issue #42."},
		{Text: "see", AriaLabel: "Mentions issue #43."},
	}, spans)
}

func TestNewParserRejectsBadURL(t *testing.T) {
	t.Parallel()

	_, err := NewParser("://bad")
	assert.Error(t, err)
}
