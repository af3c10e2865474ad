package dom

import (
	"fmt"
	"strings"

	"github.com/andybalholm/cascadia"
	"github.com/antchfx/htmlquery"
	"golang.org/x/net/html"
)

// IsXPath reports whether a selector should be evaluated as XPath.
func IsXPath(selector string) bool {
	s := strings.TrimSpace(selector)
	return strings.HasPrefix(s, "/") || strings.HasPrefix(s, "(")
}

// Resolve returns every element matching selector in document order.
// No match is an empty list, not an error; a malformed selector is an error.
func (d *Document) Resolve(selector string) ([]*html.Node, error) {
	if d.root == nil {
		return nil, errNoRoot
	}
	selector = strings.TrimSpace(selector)
	if selector == "" {
		return nil, fmt.Errorf("empty selector")
	}

	if IsXPath(selector) {
		nodes, err := htmlquery.QueryAll(d.root, selector)
		if err != nil {
			return nil, fmt.Errorf("xpath %q: %w", selector, err)
		}
		elements := make([]*html.Node, 0, len(nodes))
		for _, n := range nodes {
			if n.Type == html.ElementNode {
				elements = append(elements, n)
			}
		}
		return elements, nil
	}

	sel, err := cascadia.Compile(selector)
	if err != nil {
		return nil, fmt.Errorf("selector %q: %w", selector, err)
	}
	return d.gq.FindMatcher(sel).Nodes, nil
}

// ResolveOne returns the first element matching selector, or nil.
func (d *Document) ResolveOne(selector string) (*html.Node, error) {
	nodes, err := d.Resolve(selector)
	if err != nil {
		return nil, err
	}
	if len(nodes) == 0 {
		return nil, nil
	}
	return nodes[0], nil
}
