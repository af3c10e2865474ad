package rewrite

import (
	"errors"
	"fmt"
	"regexp"
	"slices"
	"strings"

	"golang.org/x/net/html"

	"github.com/GriffinCanCode/pagepatch/internal/dom"
)

// Meta-tag synthesis failures. None of them is fatal to a batch.
var (
	ErrNotHeadScoped  = errors.New("selector is not head scoped")
	ErrInvalidTag     = errors.New("invalid element selector")
	ErrParentNotFound = errors.New("parent element not found")
)

var (
	trailingComma = regexp.MustCompile(`,\s*$`)
	elementSpec   = regexp.MustCompile(`^([a-zA-Z0-9-]+)((?:\[[^\]]+\])*)$`)
	bracketPair   = regexp.MustCompile(`\[([^\]]+)\]`)
)

// Attr is one attribute to set on a synthesized element.
type Attr struct {
	Key   string
	Value string
}

// SynthesizeMetaTag creates the head-scoped element described by selector,
// e.g. `head > meta[name="description"]`, and appends it to its parent.
// Attributes come from the bracket predicates, then attrs; content defaults
// to value when neither sets it.
func (e *Engine) SynthesizeMetaTag(selector, value string, attrs []Attr) (*html.Node, error) {
	normalized := strings.Join(strings.Fields(trailingComma.ReplaceAllString(strings.TrimSpace(selector), "")), " ")

	var parts []string
	for _, segment := range strings.Split(normalized, ">") {
		parts = append(parts, strings.Fields(segment)...)
	}
	if !slices.Contains(parts, "head") {
		return nil, fmt.Errorf("%w: %q", ErrNotHeadScoped, selector)
	}

	last := parts[len(parts)-1]
	m := elementSpec.FindStringSubmatch(last)
	if m == nil {
		return nil, fmt.Errorf("%w: %q", ErrInvalidTag, last)
	}

	var parent *html.Node
	parentSelector := strings.Join(parts[:len(parts)-1], " > ")
	if parentSelector == "" {
		parent = e.doc.Head()
	} else {
		var err error
		if parent, err = e.doc.ResolveOne(parentSelector); err != nil {
			return nil, fmt.Errorf("%w: %q: %v", ErrParentNotFound, parentSelector, err)
		}
	}
	if parent == nil {
		return nil, fmt.Errorf("%w: %q", ErrParentNotFound, parentSelector)
	}

	el := dom.NewElement(strings.ToLower(m[1]))
	for _, pair := range bracketPair.FindAllStringSubmatch(m[2], -1) {
		name, val, _ := strings.Cut(pair[1], "=")
		name = strings.TrimSpace(unquote(name))
		val = unquote(strings.TrimSpace(val))
		if name != "" && val != "" {
			dom.SetAttr(el, name, val)
		}
	}
	for _, a := range attrs {
		if a.Key != "" && a.Value != "" {
			dom.SetAttr(el, a.Key, a.Value)
		}
	}
	if !dom.HasAttr(el, "content") {
		dom.SetAttr(el, "content", value)
	}

	parent.AppendChild(el)
	return el, nil
}

func unquote(s string) string {
	return strings.NewReplacer(`"`, "", `'`, "").Replace(s)
}
