package dispatch

import (
	"fmt"
	"net/url"
	"strings"

	"github.com/bytedance/sonic"
	"golang.org/x/net/html"

	"github.com/GriffinCanCode/pagepatch/internal/dom"
	"github.com/GriffinCanCode/pagepatch/internal/suggestion"
)

// ApplyImage sets alt on every matched element whose current alt equals the
// old value, or on all of them when no old value is given.
func ApplyImage(doc *dom.Document, s *suggestion.Image) (int, error) {
	elements, err := doc.Resolve(s.Selector)
	if err != nil {
		return 0, err
	}

	touched := 0
	for _, el := range elements {
		if s.OldAlt != "" {
			if alt, _ := dom.Attr(el, "alt"); alt != s.OldAlt {
				continue
			}
		}
		dom.SetAttr(el, "alt", s.NewAlt)
		touched++
	}
	return touched, nil
}

// ApplyLink rewrites href on matched link elements. The comparison uses the
// href resolved against page. Internal links need force or a resolved href
// containing the old fragment; external links need force or an http(s) href.
func ApplyLink(doc *dom.Document, page string, s *suggestion.Link) (int, error) {
	elements, err := doc.Resolve(s.Selector)
	if err != nil {
		return 0, err
	}

	var base *url.URL
	if page != "" {
		if base, err = url.Parse(page); err != nil {
			base = nil
		}
	}

	touched := 0
	for _, el := range elements {
		href := resolvedHref(el, base)
		if href == "" {
			continue
		}
		if s.OldHref != "" && !s.Force && !strings.Contains(href, s.OldHref) {
			continue
		}

		var update bool
		if s.Internal {
			update = s.Force || strings.Contains(href, s.OldHref)
		} else {
			update = s.Force || strings.HasPrefix(href, "http")
		}
		if update {
			dom.SetAttr(el, "href", s.NewHref)
			touched++
		}
	}
	return touched, nil
}

// resolvedHref mirrors the href property of link-like elements: the attribute
// resolved against the page URL. Other elements have no href property.
func resolvedHref(el *html.Node, base *url.URL) string {
	switch dom.Tag(el) {
	case "a", "area", "link", "base":
	default:
		return ""
	}

	raw, ok := dom.Attr(el, "href")
	if !ok {
		return ""
	}
	raw = strings.TrimSpace(raw)
	if base == nil {
		return raw
	}
	ref, err := url.Parse(raw)
	if err != nil {
		return raw
	}
	return base.ResolveReference(ref).String()
}

// jsonLD escapes <, > and & since script text is rendered raw.
var jsonLD = sonic.Config{
	EscapeHTML:  true,
	SortMapKeys: true,
	UseNumber:   true,
}.Froze()

// InjectStructuredData appends the JSON-LD document data to head as
// <script type="application/ld+json">.
func InjectStructuredData(doc *dom.Document, data []byte) (*html.Node, error) {
	head := doc.Head()
	if head == nil {
		return nil, fmt.Errorf("document has no head")
	}

	var v any
	if err := jsonLD.Unmarshal(data, &v); err != nil {
		return nil, fmt.Errorf("invalid structured data: %w", err)
	}
	switch v.(type) {
	case map[string]any, []any:
	default:
		return nil, fmt.Errorf("structured data must be an object or a list")
	}
	compact, err := jsonLD.Marshal(v)
	if err != nil {
		return nil, fmt.Errorf("encode structured data: %w", err)
	}

	script := dom.NewElement("script")
	dom.SetAttr(script, "type", "application/ld+json")
	script.AppendChild(dom.NewText(string(compact)))
	head.AppendChild(script)
	return script, nil
}
