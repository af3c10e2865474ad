package dom

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/net/html"
)

const samplePage = `<!DOCTYPE html>
<html>
<head><title>Shoes</title><meta name="description" content="Shoe shop"></head>
<body>
	<div id="main" class="content">
		<h1>Best shoes</h1>
		<p class="intro">I love my <b>red</b> shoe</p>
		<a href="/boots" class="link">Boots</a>
		<img src="/a.png" alt="A shoe">
	</div>
</body>
</html>`

func mustParse(t *testing.T, s string) *Document {
	t.Helper()
	doc, err := Parse(s)
	require.NoError(t, err)
	return doc
}

func TestResolveCSS(t *testing.T) {
	doc := mustParse(t, samplePage)

	tests := []struct {
		name     string
		selector string
		want     []string
	}{
		{name: "tag", selector: "p", want: []string{"p"}},
		{name: "class", selector: ".content > *", want: []string{"h1", "p", "a", "img"}},
		{name: "attribute", selector: "[href]", want: []string{"a"}},
		{name: "group keeps document order", selector: "img, h1", want: []string{"h1", "img"}},
		{name: "no match", selector: "table", want: []string{}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			nodes, err := doc.Resolve(tt.selector)
			require.NoError(t, err)

			tags := make([]string, 0, len(nodes))
			for _, n := range nodes {
				tags = append(tags, Tag(n))
			}
			assert.Equal(t, tt.want, tags)
		})
	}
}

func TestResolveXPath(t *testing.T) {
	doc := mustParse(t, samplePage)

	nodes, err := doc.Resolve("//div[@id='main']/p")
	require.NoError(t, err)
	require.Len(t, nodes, 1)
	assert.Equal(t, "p", Tag(nodes[0]))

	// text() results are not elements
	nodes, err = doc.Resolve("//h1/text()")
	require.NoError(t, err)
	assert.Empty(t, nodes)
}

func TestResolveInvalidSelector(t *testing.T) {
	doc := mustParse(t, samplePage)

	_, err := doc.Resolve("p[")
	assert.Error(t, err)

	_, err = doc.Resolve("//p[")
	assert.Error(t, err)

	_, err = doc.Resolve("  ")
	assert.Error(t, err)
}

func TestResolveOne(t *testing.T) {
	doc := mustParse(t, samplePage)

	n, err := doc.ResolveOne("body *")
	require.NoError(t, err)
	assert.Equal(t, "div", Tag(n))

	n, err = doc.ResolveOne("section")
	require.NoError(t, err)
	assert.Nil(t, n)
}

func TestWellKnownNodes(t *testing.T) {
	doc := mustParse(t, samplePage)

	assert.Equal(t, "html", Tag(doc.DocumentElement()))
	assert.Equal(t, "head", Tag(doc.Head()))
	assert.Equal(t, "body", Tag(doc.Body()))
	assert.Equal(t, html.DocumentNode, doc.Root().Type)
}

func TestTextContent(t *testing.T) {
	doc := mustParse(t, samplePage)
	p, err := doc.ResolveOne("p")
	require.NoError(t, err)

	assert.Equal(t, "I love my red shoe", TextContent(p))
	assert.Equal(t, "I love my ", TextContent(p.FirstChild))

	SetTextContent(p, "replaced")
	assert.Equal(t, "replaced", TextContent(p))
	assert.Equal(t, p.FirstChild, p.LastChild)

	SetTextContent(p, "")
	assert.Nil(t, p.FirstChild)
}

func TestInnerHTML(t *testing.T) {
	doc := mustParse(t, samplePage)
	p, err := doc.ResolveOne("p")
	require.NoError(t, err)

	inner, err := InnerHTML(p)
	require.NoError(t, err)
	assert.Equal(t, "I love my <b>red</b> shoe", inner)

	require.NoError(t, SetInnerHTML(p, "<em>new</em> &amp; improved"))
	inner, err = InnerHTML(p)
	require.NoError(t, err)
	assert.Equal(t, "<em>new</em> &amp; improved", inner)
	assert.Equal(t, "new & improved", TextContent(p))

	// no-op on text nodes
	text := p.LastChild
	require.NoError(t, SetInnerHTML(text, "<b>x</b>"))
	assert.Equal(t, " & improved", text.Data)
}

func TestAttributes(t *testing.T) {
	doc := mustParse(t, samplePage)
	a, err := doc.ResolveOne("a")
	require.NoError(t, err)

	v, ok := Attr(a, "HREF")
	assert.True(t, ok)
	assert.Equal(t, "/boots", v)
	assert.True(t, HasClass(a, "link"))
	assert.False(t, HasClass(a, "lin"))
	assert.False(t, HasAttr(a.FirstChild, "href"))

	SetAttr(a, "href", "/shoes")
	SetAttr(a, "Title", "Shoes")
	v, _ = Attr(a, "href")
	assert.Equal(t, "/shoes", v)
	v, _ = Attr(a, "title")
	assert.Equal(t, "Shoes", v)
}

func TestCloneAndInsert(t *testing.T) {
	doc := mustParse(t, samplePage)
	p, err := doc.ResolveOne("p")
	require.NoError(t, err)

	c := Clone(p)
	assert.Nil(t, c.Parent)
	assert.Equal(t, TextContent(p), TextContent(c))

	InsertAfter(p, c)
	assert.Equal(t, c, p.NextSibling)

	Remove(p)
	assert.Nil(t, p.Parent)

	out := doc.MustRender()
	assert.Equal(t, 1, strings.Count(out, "I love my"))
}

func TestVoidElements(t *testing.T) {
	doc := mustParse(t, `<p>a<img src="x.png"><br><span></span></p>`)

	img, err := doc.ResolveOne("img")
	require.NoError(t, err)
	br, err := doc.ResolveOne("br")
	require.NoError(t, err)
	span, err := doc.ResolveOne("span")
	require.NoError(t, err)

	assert.True(t, IsVoid(img))
	assert.True(t, IsVoid(br))
	assert.False(t, IsVoid(span))
	assert.False(t, IsVoid(img.Parent.FirstChild))
	assert.True(t, IsVoid(NewElement("META")))

	SetTextContent(img, "x")
	require.NoError(t, SetInnerHTML(br, "<b>x</b>"))
	SetTextContent(span, "kept")
	assert.Nil(t, img.FirstChild)
	assert.Nil(t, br.FirstChild)

	out, err := doc.Render()
	require.NoError(t, err)
	assert.Contains(t, out, `<p>a<img src="x.png"/><br/><span>kept</span></p>`)
}

func TestLoadLatin1(t *testing.T) {
	// "café" encoded as ISO-8859-1 is not valid UTF-8
	raw := []byte("<html><body><p>caf\xe9 au lait, caf\xe9 cr\xe8me, tr\xe8s bien, d\xe9j\xe0 vu</p></body></html>")

	doc, err := Load(strings.NewReader(string(raw)))
	require.NoError(t, err)
	p, err := doc.ResolveOne("p")
	require.NoError(t, err)
	assert.Contains(t, TextContent(p), "café")
}

func TestLoadTooLarge(t *testing.T) {
	big := strings.Repeat("a", MaxHTMLSize+1)
	_, err := Parse(big)
	assert.ErrorIs(t, err, ErrTooLarge)
}
