package rewrite

import (
	"regexp"
	"strings"

	"golang.org/x/net/html"

	"github.com/GriffinCanCode/pagepatch/internal/dom"
)

// DefaultRelocationTag is used when a relocation target names no tag.
const DefaultRelocationTag = "div"

var leadingTag = regexp.MustCompile(`^[a-zA-Z][a-zA-Z0-9-]*`)

// RelocationTag derives the tag for a relocation target from the tag part of
// its last compound selector: "div.wrapper" is div, ".content h1" is h1.
func RelocationTag(target string) string {
	fields := strings.FieldsFunc(target, func(r rune) bool {
		return r == ' ' || r == '\t' || r == '\n' || r == '>' || r == '+' || r == '~'
	})
	if len(fields) == 0 {
		return DefaultRelocationTag
	}
	tag := leadingTag.FindString(fields[len(fields)-1])
	if tag == "" {
		return DefaultRelocationTag
	}
	return strings.ToLower(tag)
}

// Relocate replaces el with a new element named after target. Attributes other
// than class and deep copies of the children are carried over; the copy takes
// el's place (or is appended to fallback when el is detached) and el is removed.
// A void target tag keeps no children.
func Relocate(el *html.Node, target string, fallback *html.Node) *html.Node {
	moved := dom.NewElement(RelocationTag(target))
	for _, a := range el.Attr {
		if strings.EqualFold(a.Key, "class") {
			continue
		}
		moved.Attr = append(moved.Attr, a)
	}

	if !dom.IsVoid(moved) {
		for c := el.FirstChild; c != nil; c = c.NextSibling {
			moved.AppendChild(dom.Clone(c))
		}
	}

	switch {
	case el.Parent != nil:
		dom.InsertAfter(el, moved)
		dom.Remove(el)
	case fallback != nil:
		fallback.AppendChild(moved)
	}
	return moved
}
