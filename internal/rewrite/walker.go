package rewrite

import (
	"iter"

	"golang.org/x/net/html"

	"github.com/GriffinCanCode/pagepatch/internal/dom"
)

type verdict int

const (
	accept verdict = iota
	skip           // not yielded, children visited
	reject         // not yielded, subtree pruned
)

// Walker is a filtered pre-order traversal of one subtree.
//
// The traversal follows tree-walker semantics: the successor of a node is
// computed when the consumer resumes, so replacing the children of the node
// just yielded is observed by the rest of the walk.
type Walker struct {
	root      *html.Node
	attribute string
	policy    Policy
}

// NewWalker creates a walker over root. An empty attribute or TEXT selects
// text mode; any other value selects attribute mode for that attribute.
func NewWalker(root *html.Node, attribute string, policy Policy) *Walker {
	return &Walker{root: root, attribute: attribute, policy: policy}
}

// Nodes returns the lazy candidate sequence. Each call starts a new traversal.
// The root comes first in either mode unless it is rejected or is the
// document element. A root inside a pruned region yields nothing.
func (w *Walker) Nodes() iter.Seq[*html.Node] {
	return func(yield func(*html.Node) bool) {
		root := w.root
		if root == nil || w.filter(root) == reject || w.insidePruned(root) {
			return
		}
		if !isDocumentRoot(root) && !yield(root) {
			return
		}
		for n := w.next(root); n != nil; n = w.next(n) {
			if !yield(n) {
				return
			}
		}
	}
}

// Collect drains the walk into a slice.
func (w *Walker) Collect() []*html.Node {
	var out []*html.Node
	for n := range w.Nodes() {
		out = append(out, n)
	}
	return out
}

func (w *Walker) next(node *html.Node) *html.Node {
	result := accept
	for {
		for result != reject && node.FirstChild != nil {
			node = node.FirstChild
			result = w.filter(node)
			if result == accept {
				return node
			}
		}

		var sibling *html.Node
		for temp := node; temp != nil; temp = temp.Parent {
			if temp == w.root {
				return nil
			}
			if temp.NextSibling != nil {
				sibling = temp.NextSibling
				break
			}
		}
		if sibling == nil {
			return nil
		}

		node = sibling
		result = w.filter(node)
		if result == accept {
			return node
		}
	}
}

func (w *Walker) filter(n *html.Node) verdict {
	if textMode(w.attribute) {
		switch n.Type {
		case html.TextNode:
			if w.excluded(n) {
				return reject
			}
			return accept
		case html.ElementNode:
			if w.policy.PruneExcluded && w.prunes(n) {
				return reject
			}
			return skip
		default:
			return skip
		}
	}

	if n.Type != html.ElementNode {
		return skip
	}
	if w.policy.ExcludeInAttributeMode && w.prunes(n) {
		return reject
	}
	if !dom.HasAttr(n, w.attribute) && w.policy.MissingAttribute != MissingEnsure {
		return skip
	}
	return accept
}

// insidePruned reports whether an ancestor of n would have been pruned by a
// walk started above it.
func (w *Walker) insidePruned(n *html.Node) bool {
	if !w.policy.PruneExcluded || (!textMode(w.attribute) && !w.policy.ExcludeInAttributeMode) {
		return false
	}
	for a := n.Parent; a != nil; a = a.Parent {
		if dom.HasClass(a, w.policy.ExclusionClass) || w.policy.excludedTag(dom.Tag(a)) {
			return true
		}
	}
	return false
}

func (w *Walker) prunes(n *html.Node) bool {
	return w.excluded(n) || (w.policy.PruneExcluded && w.policy.excludedTag(dom.Tag(n)))
}

// excluded applies the class-marker and excluded-tag rules to n, its parent
// and its grandparent.
func (w *Walker) excluded(n *html.Node) bool {
	parent := n.Parent
	var grand *html.Node
	if parent != nil {
		grand = parent.Parent
	}

	if cls := w.policy.ExclusionClass; cls != "" {
		if dom.HasClass(n, cls) || dom.HasClass(parent, cls) || dom.HasClass(grand, cls) {
			return true
		}
	}
	return w.policy.excludedTag(dom.Tag(parent)) || w.policy.excludedTag(dom.Tag(grand))
}

// isDocumentRoot reports whether n is the document node or the <html> element.
func isDocumentRoot(n *html.Node) bool {
	if n.Type == html.DocumentNode {
		return true
	}
	return n.Type == html.ElementNode && n.Parent != nil && n.Parent.Type == html.DocumentNode
}
