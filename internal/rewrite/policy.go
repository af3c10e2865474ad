package rewrite

import (
	"fmt"
	"strings"
	"time"
)

// Boundary selects the keyword boundary regime.
type Boundary int

const (
	// BoundaryScript tolerates adjacent CJK/Kana text and only rejects a
	// following Latin letter.
	BoundaryScript Boundary = iota
	// BoundaryWord requires whitespace, brackets, quotes, dashes or
	// punctuation on both sides.
	BoundaryWord
)

// String returns the config name of the regime
func (b Boundary) String() string {
	switch b {
	case BoundaryScript:
		return "script"
	case BoundaryWord:
		return "word"
	default:
		return "unknown"
	}
}

// MissingAttribute decides what attribute mode does with a visited element
// that lacks the target attribute.
type MissingAttribute int

const (
	// MissingSkip leaves the element alone.
	MissingSkip MissingAttribute = iota
	// MissingEnsure treats the value as empty: with force or an empty
	// keyword the attribute is created with the replacement.
	MissingEnsure
)

// String returns the config name of the mode
func (m MissingAttribute) String() string {
	switch m {
	case MissingSkip:
		return "skip"
	case MissingEnsure:
		return "ensure"
	default:
		return "unknown"
	}
}

// TextSentinel as attribute name means "text mode".
const TextSentinel = "TEXT"

// Policy versions
const (
	PolicyDefault = "v2"
	PolicyStrict  = "strict"
)

// Policy is the versioned exclusion and matching configuration of the engine.
type Policy struct {
	Version string

	// ExcludedTags are lowercase tag names whose content is never rewritten.
	ExcludedTags []string
	// ExclusionClass on a node, its parent or grandparent removes it from candidacy.
	ExclusionClass string
	// PruneExcluded also rejects an element whose own tag is excluded, so no
	// descendant of an excluded region is reachable.
	PruneExcluded bool
	// ExcludeInAttributeMode applies the exclusion rules in attribute mode too.
	ExcludeInAttributeMode bool

	Boundary         Boundary
	MissingAttribute MissingAttribute

	// DirectSelect enables the single-element short circuit for content
	// suggestions that carry an explicit selector.
	DirectSelect bool
	// SanitizeMarkup runs whole-markup replacements through bluemonday.
	SanitizeMarkup bool
	// MatchTimeout bounds a single boundary-pattern evaluation.
	MatchTimeout time.Duration
}

// DefaultPolicy returns the current exclusion policy.
func DefaultPolicy() Policy {
	return Policy{
		Version:                PolicyDefault,
		ExcludedTags:           []string{"canvas", "table", "figcaption", "script"},
		ExclusionClass:         "link",
		PruneExcluded:          true,
		ExcludeInAttributeMode: true,
		Boundary:               BoundaryScript,
		MissingAttribute:       MissingSkip,
		DirectSelect:           true,
		MatchTimeout:           250 * time.Millisecond,
	}
}

// StrictPolicy additionally keeps headings, anchors and images untouched.
func StrictPolicy() Policy {
	p := DefaultPolicy()
	p.Version = PolicyStrict
	p.ExcludedTags = []string{"h1", "h2", "h3", "h4", "h5", "a", "canvas", "table", "img", "figcaption", "script"}
	return p
}

// PolicyByVersion returns the named policy.
func PolicyByVersion(version string) (Policy, error) {
	switch strings.ToLower(strings.TrimSpace(version)) {
	case "", PolicyDefault:
		return DefaultPolicy(), nil
	case PolicyStrict:
		return StrictPolicy(), nil
	default:
		return Policy{}, fmt.Errorf("unknown rewrite policy %q", version)
	}
}

// ParseBoundary parses a boundary regime name.
func ParseBoundary(s string) (Boundary, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "script":
		return BoundaryScript, nil
	case "word":
		return BoundaryWord, nil
	default:
		return 0, fmt.Errorf("unknown boundary regime %q", s)
	}
}

// ParseMissingAttribute parses a missing-attribute mode name.
func ParseMissingAttribute(s string) (MissingAttribute, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "skip":
		return MissingSkip, nil
	case "ensure":
		return MissingEnsure, nil
	default:
		return 0, fmt.Errorf("unknown missing-attribute mode %q", s)
	}
}

func (p Policy) excludedTag(tag string) bool {
	if tag == "" {
		return false
	}
	for _, t := range p.ExcludedTags {
		if t == tag {
			return true
		}
	}
	return false
}

// textMode reports whether attribute selects text mode.
func textMode(attribute string) bool {
	return attribute == "" || attribute == TextSentinel
}
