package rewrite

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/net/html"

	"github.com/GriffinCanCode/pagepatch/internal/dom"
)

const walkPage = `<html><body><div id="root"><p>one</p><div class="link"><span>two</span></div><table><tr><td>three</td></tr></table><figure><figcaption><em>five</em></figcaption></figure><section><b>four</b></section></div></body></html>`

func walkRoot(t *testing.T, page, selector string) *html.Node {
	t.Helper()
	doc, err := dom.Parse(page)
	require.NoError(t, err)
	n, err := doc.ResolveOne(selector)
	require.NoError(t, err)
	require.NotNil(t, n)
	return n
}

func texts(nodes []*html.Node) []string {
	out := make([]string, 0, len(nodes))
	for _, n := range nodes {
		out = append(out, n.Data)
	}
	return out
}

func TestWalkerTextMode(t *testing.T) {
	root := walkRoot(t, walkPage, "#root")

	// the walk root is always a candidate
	got := NewWalker(root, "", DefaultPolicy()).Collect()
	assert.Equal(t, []string{"div", "one", "four"}, texts(got))

	// TEXT is the same as no attribute
	got = NewWalker(root, TextSentinel, DefaultPolicy()).Collect()
	assert.Equal(t, []string{"div", "one", "four"}, texts(got))
}

func TestWalkerParentRulesOnly(t *testing.T) {
	root := walkRoot(t, walkPage, "#root")

	policy := DefaultPolicy()
	policy.PruneExcluded = false

	// without pruning only the parent and grandparent rules apply, so text
	// nested deeper under an excluded tag is reachable
	got := NewWalker(root, "", policy).Collect()
	assert.Equal(t, []string{"div", "one", "three", "four"}, texts(got))
}

func TestWalkerNeverYieldsExcludedDescendants(t *testing.T) {
	page := `<html><body><main><div class="link"><p><span><i>deep</i></span></p></div><canvas><p>c</p></canvas><script>var x;</script><p>ok</p></main></body></html>`
	root := walkRoot(t, page, "main")

	got := NewWalker(root, "", DefaultPolicy()).Collect()
	assert.Equal(t, []string{"main", "ok"}, texts(got))
}

func TestWalkerAttributeMode(t *testing.T) {
	page := `<html><body><div id="root" title="r"><a class="link" title="a"><span title="s">x</span></a><p><img title="i"></p><span>no</span></div></body></html>`
	root := walkRoot(t, page, "#root")

	var tags []string
	for n := range NewWalker(root, "title", DefaultPolicy()).Nodes() {
		tags = append(tags, dom.Tag(n))
	}
	assert.Equal(t, []string{"div", "img"}, tags)

	policy := DefaultPolicy()
	policy.ExcludeInAttributeMode = false
	tags = nil
	for n := range NewWalker(root, "title", policy).Nodes() {
		tags = append(tags, dom.Tag(n))
	}
	assert.Equal(t, []string{"div", "a", "span", "img"}, tags)
}

func TestWalkerExcludedRoot(t *testing.T) {
	page := `<html><body><div class="link"><p>x</p></div></body></html>`
	root := walkRoot(t, page, ".link")

	assert.Empty(t, NewWalker(root, "", DefaultPolicy()).Collect())
}

func TestWalkerSkipsDocumentElement(t *testing.T) {
	page := `<html lang="en"><body><p lang="fr">x</p></body></html>`
	root := walkRoot(t, page, "html")

	got := NewWalker(root, "lang", DefaultPolicy()).Collect()
	require.Len(t, got, 1)
	assert.Equal(t, "p", dom.Tag(got[0]))
}

func TestWalkerStopsEarly(t *testing.T) {
	root := walkRoot(t, `<html><body><ul><li>a</li><li>b</li><li>c</li></ul></body></html>`, "ul")

	var seen []string
	for n := range NewWalker(root, "", DefaultPolicy()).Nodes() {
		seen = append(seen, n.Data)
		if len(seen) == 2 {
			break
		}
	}
	assert.Equal(t, []string{"ul", "a"}, seen)
}

func TestWalkerObservesMutation(t *testing.T) {
	root := walkRoot(t, `<html><body><div><p>a</p><p>b</p></div></body></html>`, "div")

	var seen []string
	for n := range NewWalker(root, "", DefaultPolicy()).Nodes() {
		seen = append(seen, n.Data)
		if n.Data == "a" {
			// the second paragraph is gone before the walk reaches it
			second := n.Parent.NextSibling
			dom.Remove(second)
		}
	}
	assert.Equal(t, []string{"div", "a"}, seen)
}

func TestWalkerEnsureVisitsMissing(t *testing.T) {
	root := walkRoot(t, `<html><body><div id="r"><img><p>x</p></div></body></html>`, "#r")

	policy := DefaultPolicy()
	policy.MissingAttribute = MissingEnsure

	var tags []string
	for n := range NewWalker(root, "alt", policy).Nodes() {
		tags = append(tags, dom.Tag(n))
	}
	assert.Equal(t, []string{"div", "img", "p"}, tags)
}

func TestWalkerRootInsidePrunedRegion(t *testing.T) {
	tests := []struct {
		name     string
		page     string
		selector string
	}{
		{
			name:     "class marker three levels up",
			page:     `<html><body><div class="link"><p><span><b>shoe</b></span></p></div></body></html>`,
			selector: "b",
		},
		{
			name:     "excluded tag four levels up",
			page:     `<html><body><canvas><div><p><span>shoe</span></p></div></canvas></body></html>`,
			selector: "span",
		},
		{
			name:     "table cell",
			page:     `<html><body><table><tr><td>shoe</td></tr></table></body></html>`,
			selector: "td",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			root := walkRoot(t, tt.page, tt.selector)
			assert.Empty(t, NewWalker(root, "", DefaultPolicy()).Collect())

			policy := DefaultPolicy()
			policy.PruneExcluded = false
			assert.NotEmpty(t, NewWalker(root, "", policy).Collect())
		})
	}
}

func TestWalkerStrictPolicy(t *testing.T) {
	page := `<html><body><div id="root"><h1>title</h1><a href="/">anchor</a><h2><span>nested</span></h2><p>para</p></div></body></html>`
	root := walkRoot(t, page, "#root")

	got := NewWalker(root, "", DefaultPolicy()).Collect()
	assert.Equal(t, []string{"div", "title", "anchor", "nested", "para"}, texts(got))

	got = NewWalker(root, "", StrictPolicy()).Collect()
	assert.Equal(t, []string{"div", "para"}, texts(got))

	// images are pruned in attribute mode
	imgRoot := walkRoot(t, `<html><body><p id="r"><img alt="x"></p></body></html>`, "#r")
	assert.Len(t, NewWalker(imgRoot, "alt", DefaultPolicy()).Collect(), 2)
	assert.Len(t, NewWalker(imgRoot, "alt", StrictPolicy()).Collect(), 1)
}
