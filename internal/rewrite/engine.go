package rewrite

import (
	"strings"

	"github.com/microcosm-cc/bluemonday"
	"go.uber.org/zap"
	"golang.org/x/net/html"

	"github.com/GriffinCanCode/pagepatch/internal/dom"
)

// Document is the structural query surface the engine mutates.
type Document interface {
	Resolve(selector string) ([]*html.Node, error)
	ResolveOne(selector string) (*html.Node, error)
	Head() *html.Node
	Body() *html.Node
}

// ContentParams is one normalized content mutation.
type ContentParams struct {
	Selector    string
	Match       string
	Replacement string
	IgnoreCase  bool
	Force       bool
	// Attribute targets an attribute value instead of text; empty or TEXT means text.
	Attribute   string
	RelocateTo  string
	WholeMarkup bool
}

// Result describes what one content mutation did.
type Result struct {
	// Matched is the number of elements the primary selector returned.
	Matched   int
	Touched   []*html.Node
	Relocated []*html.Node
	// Created is the element synthesized when a head-scoped selector matched nothing.
	Created *html.Node
}

// Engine applies content mutations to one document.
type Engine struct {
	doc       Document
	policy    Policy
	logger    *zap.Logger
	sanitizer *bluemonday.Policy
}

// Option configures an Engine.
type Option func(*Engine)

// WithLogger sets the engine logger.
func WithLogger(logger *zap.Logger) Option {
	return func(e *Engine) {
		if logger != nil {
			e.logger = logger
		}
	}
}

// NewEngine creates an engine over doc.
func NewEngine(doc Document, policy Policy, opts ...Option) *Engine {
	e := &Engine{
		doc:    doc,
		policy: policy,
		logger: zap.NewNop(),
	}
	for _, opt := range opts {
		opt(e)
	}
	if policy.SanitizeMarkup {
		e.sanitizer = bluemonday.UGCPolicy()
	}
	return e
}

// Policy returns the engine policy.
func (e *Engine) Policy() Policy {
	return e.policy
}

// Apply runs one content mutation across every element matched by its selector.
// An error aborts the remaining elements of this mutation only; the result
// still reports what was done before it.
func (e *Engine) Apply(p ContentParams) (*Result, error) {
	selector := strings.TrimSpace(p.Selector)
	if selector == "" {
		selector = "*"
	}

	elements, err := e.doc.Resolve(selector)
	if err != nil {
		return nil, err
	}
	res := &Result{Matched: len(elements)}

	if len(elements) == 0 {
		if strings.Contains(selector, "head") {
			res.Created = e.synthesize(selector, p)
		}
		return res, nil
	}

	touched := newNodeSet()
	direct := false
	if e.directSelect(selector, p) {
		target, err := e.doc.ResolveOne(selector)
		if err != nil {
			return res, err
		}
		if target != nil && !dom.IsVoid(target) {
			dom.SetTextContent(target, p.Replacement)
			touched.add(target)
			direct = true
		}
	}

	matcher, err := NewMatcher(p.Match, p.IgnoreCase, e.policy.Boundary, e.policy.MatchTimeout)
	if err != nil {
		return res, err
	}
	markup := p.Replacement
	if p.WholeMarkup && e.sanitizer != nil {
		markup = e.sanitizer.Sanitize(markup)
	}

	for _, el := range elements {
		if !direct {
			walker := NewWalker(el, p.Attribute, e.policy)
			for n := range walker.Nodes() {
				nodes, err := e.visit(n, p, matcher, markup)
				touched.add(nodes...)
				if err != nil {
					res.Touched = touched.list
					return res, err
				}
			}
		}

		if p.RelocateTo != "" {
			res.Relocated = append(res.Relocated, Relocate(el, p.RelocateTo, e.doc.Body()))
		}
	}

	res.Touched = touched.list
	return res, nil
}

// directSelect reports whether the single-element short circuit applies. It
// needs an absent attribute: the TEXT sentinel goes through the walk.
func (e *Engine) directSelect(selector string, p ContentParams) bool {
	if !e.policy.DirectSelect || p.WholeMarkup || selector == "*" {
		return false
	}
	return p.Attribute == "" && p.Replacement != ""
}

// visit applies the first applicable operation to one candidate node.
func (e *Engine) visit(n *html.Node, p ContentParams, m *Matcher, markup string) ([]*html.Node, error) {
	switch {
	case p.WholeMarkup:
		return ReplaceNode(n, p.Match, markup, ReplaceOptions{WholeMarkup: true})
	case p.Force && textMode(p.Attribute):
		return ReplaceNode(n, p.Match, p.Replacement, ReplaceOptions{Force: true, IgnoreCase: p.IgnoreCase})
	case !textMode(p.Attribute):
		return e.replaceAttribute(n, p, m)
	default:
		ok, err := m.Accepts(dom.TextContent(n))
		if err != nil || !ok {
			return nil, err
		}
		return ReplaceNode(n, p.Match, p.Replacement, ReplaceOptions{IgnoreCase: p.IgnoreCase})
	}
}

func (e *Engine) replaceAttribute(n *html.Node, p ContentParams, m *Matcher) ([]*html.Node, error) {
	if !dom.IsElement(n) {
		return nil, nil
	}

	value, ok := dom.Attr(n, p.Attribute)
	if !ok {
		// a missing attribute reads as empty, which only force or an empty keyword can match
		if e.policy.MissingAttribute != MissingEnsure || !(p.Force || m.Empty()) {
			return nil, nil
		}
		dom.SetAttr(n, p.Attribute, p.Replacement)
		return []*html.Node{n}, nil
	}

	if !m.Empty() && !IsCompleteWordOrPhrase(value, p.Match) {
		accepted, err := m.Accepts(value)
		if err != nil || !accepted {
			return nil, err
		}
	}

	updated := p.Replacement
	if !p.Force {
		updated = substitute(value, p.Match, p.Replacement, p.IgnoreCase)
	}
	if updated == value {
		return nil, nil
	}
	dom.SetAttr(n, p.Attribute, updated)
	return []*html.Node{n}, nil
}

func (e *Engine) synthesize(selector string, p ContentParams) *html.Node {
	var attrs []Attr
	if !textMode(p.Attribute) {
		attrs = append(attrs, Attr{Key: p.Attribute, Value: p.Replacement})
	}

	el, err := e.SynthesizeMetaTag(selector, p.Replacement, attrs)
	if err != nil {
		e.logger.Warn("Meta tag not created",
			zap.String("selector", selector),
			zap.Error(err))
		return nil
	}
	return el
}

// nodeSet keeps first-seen order.
type nodeSet struct {
	seen map[*html.Node]struct{}
	list []*html.Node
}

func newNodeSet() *nodeSet {
	return &nodeSet{seen: make(map[*html.Node]struct{})}
}

func (s *nodeSet) add(nodes ...*html.Node) {
	for _, n := range nodes {
		if _, ok := s.seen[n]; ok {
			continue
		}
		s.seen[n] = struct{}{}
		s.list = append(s.list, n)
	}
}
