package rewrite

import (
	"fmt"
	"regexp"
	"strings"
	"time"

	"github.com/dlclark/regexp2"
	"golang.org/x/net/html"

	"github.com/GriffinCanCode/pagepatch/internal/dom"
)

const (
	// Han, Bopomofo, Hiragana and Katakana.
	cjkClass = `[\u3100-\u312F\u3040-\u309F\u30A0-\u30FF\u3400-\u4DBF\u4E00-\u9FFF\uF900-\uFAFF]`

	scriptPrefix = `(?<=` + cjkClass + `?)`
	scriptSuffix = `[.{!?}(|\]\\]?(?![a-zA-Z])(?=[)/]?)`

	wordPrefix = `(?<=^|\s|[(\[{<"'«‹„“‘|/]|-|:)`
	wordSuffix = `(?=$|\s|[)\]}>"'»›”’|/]|-|[.,:;!?])`
)

// completionMarks end a match that counts as a complete phrase.
var completionMarks = map[rune]bool{
	'.': true, ',': true, '!': true, ')': true, '?': true, '"': true, '\'': true, '’': true,
}

// Matcher locates a keyword at complete word or phrase boundaries.
type Matcher struct {
	keyword string
	phrase  string
	re      *regexp2.Regexp
}

// NewMatcher builds a boundary-aware pattern for keyword. An empty keyword
// yields a matcher without a pattern.
func NewMatcher(keyword string, ignoreCase bool, boundary Boundary, timeout time.Duration) (*Matcher, error) {
	m := &Matcher{keyword: keyword}
	if keyword == "" {
		return m, nil
	}

	m.phrase = PlainText(keyword)
	if m.phrase == "" {
		return m, nil
	}

	var pattern string
	switch boundary {
	case BoundaryWord:
		pattern = wordPrefix + escapeLiteral(m.phrase) + wordSuffix
	default:
		pattern = scriptPrefix + escapeLiteral(m.phrase) + scriptSuffix
	}

	opts := regexp2.None
	if ignoreCase {
		opts |= regexp2.IgnoreCase
	}
	re, err := regexp2.Compile(pattern, opts)
	if err != nil {
		return nil, fmt.Errorf("compile boundary pattern for %q: %w", keyword, err)
	}
	if timeout > 0 {
		re.MatchTimeout = timeout
	}
	m.re = re
	return m, nil
}

// Keyword returns the keyword as given.
func (m *Matcher) Keyword() string {
	return m.keyword
}

// Empty reports whether the matcher has no pattern (empty keyword).
func (m *Matcher) Empty() bool {
	return m.re == nil
}

// Find returns the first bounded occurrence of the phrase in s.
func (m *Matcher) Find(s string) (string, bool, error) {
	if m.re == nil {
		return "", false, nil
	}
	match, err := m.re.FindStringMatch(s)
	if err != nil {
		return "", false, fmt.Errorf("match %q: %w", m.keyword, err)
	}
	if match == nil {
		return "", false, nil
	}
	return match.String(), true, nil
}

// Accepts reports whether s holds a bounded occurrence that also passes
// IsCompleteWordOrPhrase.
func (m *Matcher) Accepts(s string) (bool, error) {
	matched, ok, err := m.Find(s)
	if err != nil || !ok {
		return false, err
	}
	return IsCompleteWordOrPhrase(matched, m.keyword), nil
}

// IsCompleteWordOrPhrase accepts a match equal to the keyword (ignoring case
// and surrounding space) or ending in a closing punctuation mark.
func IsCompleteWordOrPhrase(matched, keyword string) bool {
	trimmed := strings.TrimSpace(strings.ToLower(matched))
	if trimmed == strings.ToLower(keyword) {
		return true
	}
	if trimmed == "" {
		return false
	}
	runes := []rune(trimmed)
	return completionMarks[runes[len(runes)-1]]
}

// PlainText renders s as HTML and returns its text, so entities and markup
// in a keyword compare equal to page text.
func PlainText(s string) string {
	root, err := html.Parse(strings.NewReader(s))
	if err != nil {
		return s
	}
	body := dom.NewDocument(root).Body()
	if body == nil {
		return ""
	}
	return dom.TextContent(body)
}

// escapeLiteral escapes the characters a pattern would otherwise interpret.
func escapeLiteral(s string) string {
	var b strings.Builder
	for _, r := range s {
		if strings.ContainsRune(`.*+?^${}()|[]\`, r) {
			b.WriteByte('\\')
		}
		b.WriteRune(r)
	}
	return b.String()
}

// substitute replaces every occurrence of old in s with repl, both taken literally.
func substitute(s, old, repl string, ignoreCase bool) string {
	if old == "" {
		return s
	}
	if !ignoreCase {
		return strings.ReplaceAll(s, old, repl)
	}
	return regexp.MustCompile("(?i)"+regexp.QuoteMeta(old)).ReplaceAllLiteralString(s, repl)
}

// containsText is a case-aware substring test.
func containsText(s, sub string, ignoreCase bool) bool {
	if ignoreCase {
		return strings.Contains(strings.ToLower(s), strings.ToLower(sub))
	}
	return strings.Contains(s, sub)
}
