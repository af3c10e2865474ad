// Package dom wraps a parsed HTML document with the structural-query and
// node-mutation primitives the rewrite engine needs.
//
// The package is organized into:
//   - document: loading (with charset detection), rendering, well-known nodes
//   - resolve: CSS (goquery/cascadia) and XPath (htmlquery) selector evaluation
//   - node: browser-style accessors (textContent, innerHTML, attributes, cloning)
//
// Built on:
//   - golang.org/x/net/html: the node tree itself
//   - goquery + cascadia: CSS selectors
//   - htmlquery: XPath selectors (any selector starting with "/" or "(")
//   - chardet + x/net/html/charset: non-UTF-8 input
//
// Example Usage:
//
//	doc, err := dom.Parse(page)
//	nodes, err := doc.Resolve("article p")
//	dom.SetTextContent(nodes[0], "hello")
//	out, err := doc.Render()
package dom
