package dom

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"strings"
	"unicode/utf8"

	"github.com/PuerkitoBio/goquery"
	"github.com/saintfish/chardet"
	"golang.org/x/net/html"
	"golang.org/x/net/html/atom"
	"golang.org/x/net/html/charset"
)

// MaxHTMLSize limits HTML input to 10MB to prevent memory exhaustion
const MaxHTMLSize = 10 * 1024 * 1024

// ErrTooLarge is returned when a document exceeds MaxHTMLSize.
var ErrTooLarge = fmt.Errorf("html exceeds maximum size of %d bytes", MaxHTMLSize)

// Document is a parsed HTML page.
type Document struct {
	root *html.Node
	gq   *goquery.Document
}

// NewDocument wraps an already parsed document node.
func NewDocument(root *html.Node) *Document {
	return &Document{
		root: root,
		gq:   goquery.NewDocumentFromNode(root),
	}
}

// Parse parses an HTML string.
func Parse(s string) (*Document, error) {
	return Load(strings.NewReader(s))
}

// Load reads and parses HTML, converting non-UTF-8 input using the detected charset.
func Load(r io.Reader) (*Document, error) {
	data, err := io.ReadAll(io.LimitReader(r, MaxHTMLSize+1))
	if err != nil {
		return nil, fmt.Errorf("read html: %w", err)
	}
	if len(data) > MaxHTMLSize {
		return nil, ErrTooLarge
	}

	root, err := html.Parse(utf8Reader(data))
	if err != nil {
		return nil, fmt.Errorf("parse html: %w", err)
	}
	return NewDocument(root), nil
}

// DetectCharset detects and returns charset from HTML bytes
func DetectCharset(data []byte) string {
	detector := chardet.NewTextDetector()
	result, err := detector.DetectBest(data)
	if err != nil || result == nil {
		return "utf-8"
	}
	return strings.ToLower(result.Charset)
}

func utf8Reader(data []byte) io.Reader {
	if utf8.Valid(data) {
		return bytes.NewReader(data)
	}
	r, err := charset.NewReaderLabel(DetectCharset(data), bytes.NewReader(data))
	if err != nil {
		return bytes.NewReader(data)
	}
	return r
}

// Root returns the document node.
func (d *Document) Root() *html.Node {
	return d.root
}

// DocumentElement returns the <html> element.
func (d *Document) DocumentElement() *html.Node {
	for c := d.root.FirstChild; c != nil; c = c.NextSibling {
		if c.Type == html.ElementNode {
			return c
		}
	}
	return nil
}

// Head returns the <head> element, or nil.
func (d *Document) Head() *html.Node {
	return d.childOfDocumentElement(atom.Head)
}

// Body returns the <body> element, or nil.
func (d *Document) Body() *html.Node {
	return d.childOfDocumentElement(atom.Body)
}

func (d *Document) childOfDocumentElement(a atom.Atom) *html.Node {
	de := d.DocumentElement()
	if de == nil {
		return nil
	}
	for c := de.FirstChild; c != nil; c = c.NextSibling {
		if c.Type == html.ElementNode && c.DataAtom == a {
			return c
		}
	}
	return nil
}

// Render serializes the whole document.
func (d *Document) Render() (string, error) {
	var buf bytes.Buffer
	if err := html.Render(&buf, d.root); err != nil {
		return "", err
	}
	return buf.String(), nil
}

// MustRender renders the document and panics on failure. Intended for tests.
func (d *Document) MustRender() string {
	s, err := d.Render()
	if err != nil {
		panic(err)
	}
	return s
}

var errNoRoot = errors.New("document has no root element")
