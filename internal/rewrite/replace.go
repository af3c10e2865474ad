package rewrite

import (
	"golang.org/x/net/html"

	"github.com/GriffinCanCode/pagepatch/internal/dom"
)

// ReplaceOptions select the node-level replacement behavior.
type ReplaceOptions struct {
	Force       bool
	IgnoreCase  bool
	WholeMarkup bool
}

// ReplaceNode applies one replacement to a single node and returns the nodes it touched.
// Void elements are never touched.
//
//   - WholeMarkup: the element's inner markup becomes newText verbatim.
//   - No children: Force sets the text to newText, otherwise every occurrence
//     of oldText in the text is substituted.
//   - Otherwise: each direct text child containing oldText is swapped for a new
//     text node with every occurrence substituted. Deeper nodes are left alone.
func ReplaceNode(n *html.Node, oldText, newText string, opts ReplaceOptions) ([]*html.Node, error) {
	if dom.IsVoid(n) {
		return nil, nil
	}
	if opts.WholeMarkup {
		if !dom.IsElement(n) {
			return nil, nil
		}
		if err := dom.SetInnerHTML(n, newText); err != nil {
			return nil, err
		}
		return []*html.Node{n}, nil
	}

	if n.FirstChild == nil {
		if opts.Force {
			dom.SetTextContent(n, newText)
		} else {
			dom.SetTextContent(n, substitute(dom.TextContent(n), oldText, newText, opts.IgnoreCase))
		}
		return []*html.Node{n}, nil
	}

	if oldText == "" {
		return nil, nil
	}

	var touched []*html.Node
	for c := n.FirstChild; c != nil; {
		next := c.NextSibling
		if c.Type == html.TextNode && containsText(c.Data, oldText, opts.IgnoreCase) {
			dom.ReplaceChild(n, dom.NewText(substitute(c.Data, oldText, newText, opts.IgnoreCase)), c)
			if len(touched) == 0 {
				touched = append(touched, n)
			}
		}
		c = next
	}
	return touched, nil
}
