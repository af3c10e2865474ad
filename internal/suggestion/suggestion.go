package suggestion

import (
	"errors"
	"fmt"

	"github.com/google/uuid"
)

// Kind names a suggestion variant.
type Kind string

const (
	KindContent      Kind = "content"
	KindImage        Kind = "image"
	KindInternalLink Kind = "internal_link"
	KindExternalLink Kind = "external_link"
)

// Default selectors per kind
const (
	DefaultContentSelector = "*"
	DefaultImageSelector   = "img"
	DefaultLinkSelector    = "[href]"
)

// ErrUnsupportedType is returned for a record whose type has no variant.
var ErrUnsupportedType = errors.New("unsupported suggestion type")

// Meta is carried by every variant.
type Meta struct {
	ID     string
	PageID string
	// Type is the wire type; keyword and metatag both become Content.
	Type   string
	Active bool
}

// Suggestion is one of Content, Image or Link.
type Suggestion interface {
	Kind() Kind
	Header() Meta
}

// Content mutates text, an attribute or inner markup.
type Content struct {
	Meta
	Selector    string
	Match       string
	Replacement string
	IgnoreCase  bool
	Force       bool
	Attribute   string
	RelocateTo  string
	WholeMarkup bool
}

// Kind implements Suggestion.
func (c *Content) Kind() Kind { return KindContent }

// Header implements Suggestion.
func (c *Content) Header() Meta { return c.Meta }

// Image sets the alt text of matched images.
type Image struct {
	Meta
	Selector string
	OldAlt   string
	NewAlt   string
}

// Kind implements Suggestion.
func (i *Image) Kind() Kind { return KindImage }

// Header implements Suggestion.
func (i *Image) Header() Meta { return i.Meta }

// Link rewrites the href of matched elements.
type Link struct {
	Meta
	Selector string
	OldHref  string
	NewHref  string
	Internal bool
	Force    bool
}

// Kind implements Suggestion.
func (l *Link) Kind() Kind {
	if l.Internal {
		return KindInternalLink
	}
	return KindExternalLink
}

// Header implements Suggestion.
func (l *Link) Header() Meta { return l.Meta }

// FromRecord validates r and converts it to its variant.
func FromRecord(r Record) (Suggestion, error) {
	if err := r.Validate(); err != nil {
		if r.Type != "" && !knownType(r.Type) {
			return nil, fmt.Errorf("%w: %q", ErrUnsupportedType, r.Type)
		}
		return nil, err
	}

	meta := Meta{
		ID:     idString(r.ID),
		PageID: idString(r.PageID),
		Type:   r.Type,
		Active: r.Active(),
	}
	if meta.ID == "" {
		meta.ID = uuid.NewString()
	}

	switch r.Type {
	case TypeKeyword, TypeMetatag, TypeContent:
		return &Content{
			Meta:        meta,
			Selector:    orDefault(r.Selector, DefaultContentSelector),
			Match:       r.Old,
			Replacement: r.New,
			IgnoreCase:  r.IgnoreCase,
			Force:       r.ForceSet,
			Attribute:   r.AttributeToUpdate,
			RelocateTo:  r.NewSelector,
			WholeMarkup: r.ReplaceInnerHTML,
		}, nil
	case TypeImage:
		return &Image{
			Meta:     meta,
			Selector: orDefault(r.Selector, DefaultImageSelector),
			OldAlt:   r.Old,
			NewAlt:   r.New,
		}, nil
	case TypeInternalLink, TypeExternalLink:
		return &Link{
			Meta:     meta,
			Selector: orDefault(r.Selector, DefaultLinkSelector),
			OldHref:  r.Old,
			NewHref:  r.New,
			Internal: r.Type == TypeInternalLink,
			Force:    r.ForceSet,
		}, nil
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnsupportedType, r.Type)
	}
}

func knownType(t string) bool {
	switch t {
	case TypeKeyword, TypeMetatag, TypeContent, TypeImage, TypeInternalLink, TypeExternalLink:
		return true
	}
	return false
}

func orDefault(s, def string) string {
	if s == "" {
		return def
	}
	return s
}
