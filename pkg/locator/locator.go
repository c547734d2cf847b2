// Package locator classifies locator patterns into an addressing dialect and
// composes parent, child, list and table addressing into one resolvable path.
package locator

import (
	"errors"
	"fmt"
	"regexp"
	"strings"
)

// Dialect is the node-addressing syntax a pattern is written in.
type Dialect int

const (
	CSS Dialect = iota
	XPath
)

// String returns the dialect name.
func (d Dialect) String() string {
	switch d {
	case CSS:
		return "css"
	case XPath:
		return "xpath"
	default:
		return "unknown"
	}
}

// ParseDialect parses "css" or "xpath" (case-insensitive).
func ParseDialect(s string) (Dialect, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "css":
		return CSS, nil
	case "xpath":
		return XPath, nil
	}
	return CSS, fmt.Errorf("unknown dialect %q", s)
}

// Scope says whether an element hangs off the page root or a section.
type Scope int

const (
	ScopePage Scope = iota
	ScopeSection
)

// ScopeSeparator joins a section path and a child pattern during
// composition. It never reaches a driver: Translate replaces it.
const ScopeSeparator = "<|>"

var (
	// ErrAmbiguousDialect is returned by ClassifyStrict when a pattern
	// carries both XPath and CSS markers.
	ErrAmbiguousDialect = errors.New("locator carries both xpath and css markers")

	// ErrDialectMismatch is returned by Compose when parent and child are
	// written in different dialects and cannot be joined into one path.
	ErrDialectMismatch = errors.New("parent and child locators use different dialects")
)

var xpathMarkers = []string{"//", "[@", "[contains("}

var cssMarkers = []string{"#", "^=", "$=", "*="}

// Matches a pseudo-class function such as :nth-child( or :not(, but not the
// XPath axis separator "::".
var rePseudoClassFunc = regexp.MustCompile(`(^|[^:]):[a-zA-Z-]+\(`)

func hasXPathMarker(pattern string) bool {
	for _, m := range xpathMarkers {
		if strings.Contains(pattern, m) {
			return true
		}
	}
	return false
}

func hasCSSMarker(pattern string) bool {
	for _, m := range cssMarkers {
		if strings.Contains(pattern, m) {
			return true
		}
	}
	return rePseudoClassFunc.MatchString(pattern)
}

// HasMarkers reports whether the pattern carries any dialect marker. A
// marker-free pattern ("Submit", "email") may also be a caption, name or id.
func HasMarkers(pattern string) bool {
	return hasXPathMarker(pattern) || hasCSSMarker(pattern)
}

// Classify infers the dialect of a pattern. Patterns with only XPath markers
// are XPath; everything else, including ambiguous patterns, is CSS.
func Classify(pattern string) Dialect {
	d, _ := ClassifyStrict(pattern)
	return d
}

// ClassifyStrict is Classify, but reports ErrAmbiguousDialect when both
// marker kinds occur. The returned dialect is still CSS in that case.
func ClassifyStrict(pattern string) (Dialect, error) {
	x := hasXPathMarker(pattern)
	c := hasCSSMarker(pattern)
	switch {
	case x && !c:
		return XPath, nil
	case x && c:
		return CSS, fmt.Errorf("%w: %q", ErrAmbiguousDialect, pattern)
	default:
		return CSS, nil
	}
}

// Translate replaces every ScopeSeparator with the dialect's descendant
// token: a space for CSS, nothing for XPath.
func Translate(path string, d Dialect) string {
	if !strings.Contains(path, ScopeSeparator) {
		return path
	}
	if d == XPath {
		return strings.ReplaceAll(path, ScopeSeparator, "")
	}
	return strings.ReplaceAll(path, ScopeSeparator, " ")
}

// PathJoin returns the child-step operator for the dialect.
func PathJoin(d Dialect) string {
	if d == XPath {
		return "/"
	}
	return " > "
}

// Expression is a locator pattern with its dialect. The dialect is fixed
// when the expression is created.
type Expression struct {
	pattern string
	dialect Dialect
	alt     string
}

// New creates an expression and classifies its pattern.
func New(pattern string) *Expression {
	return &Expression{pattern: pattern, dialect: Classify(pattern)}
}

// NewWithDialect creates an expression without classifying it.
func NewWithDialect(pattern string, d Dialect) *Expression {
	return &Expression{pattern: pattern, dialect: d}
}

// Pattern returns the effective pattern: the alternate pattern while one is
// active, otherwise the configured one. Scope separators are translated.
func (e *Expression) Pattern() string {
	if e == nil {
		return ""
	}
	if e.alt != "" {
		return Translate(e.alt, e.dialect)
	}
	return Translate(e.pattern, e.dialect)
}

// Raw returns the configured pattern, ignoring any active alternate.
func (e *Expression) Raw() string {
	if e == nil {
		return ""
	}
	return e.pattern
}

// Dialect returns the expression's dialect.
func (e *Expression) Dialect() Dialect {
	if e == nil {
		return CSS
	}
	return e.dialect
}

// IsEmpty reports whether there is nothing to resolve.
func (e *Expression) IsEmpty() bool {
	return e == nil || e.pattern == ""
}

// HasAlt reports whether an alternate pattern is active.
func (e *Expression) HasAlt() bool {
	return e != nil && e.alt != ""
}

// WithAlt runs fn with alt overriding the pattern, and clears the override
// before returning, whatever fn does.
func (e *Expression) WithAlt(alt string, fn func() error) error {
	e.alt = alt
	defer func() { e.alt = "" }()
	return fn()
}

// AtIndex addresses the index-th (1-based) match of the expression.
func (e *Expression) AtIndex(index int) *Expression {
	if e.dialect == XPath {
		return NewWithDialect(fmt.Sprintf("(%s)[%d]", e.Pattern(), index), XPath)
	}
	return NewWithDialect(fmt.Sprintf("%s:nth-of-type(%d)", e.Pattern(), index), CSS)
}

// IndexWithin addresses the index-th (1-based) match of item inside parent.
// XPath indexes the whole path, (parent/item)[i]; the result already
// carries the parent and is returned with ScopePage. CSS indexes the item
// alone, which still composes under parent with ScopeSection.
func IndexWithin(parent, item *Expression, index int) (*Expression, Scope, error) {
	if item.Dialect() != XPath || parent.IsEmpty() {
		return item.AtIndex(index), ScopeSection, nil
	}
	if parent.Dialect() != XPath {
		return nil, ScopeSection, fmt.Errorf("%w: %s and %s", ErrDialectMismatch, parent, item)
	}
	rel := strings.TrimPrefix(item.Pattern(), ".")
	if !strings.HasPrefix(rel, "/") {
		rel = "/" + rel
	}
	return NewWithDialect(parent.Pattern()+rel, XPath).AtIndex(index), ScopePage, nil
}

// String returns "dialect:pattern".
func (e *Expression) String() string {
	if e == nil {
		return ""
	}
	return e.dialect.String() + ":" + e.Pattern()
}

// Compose joins a parent section path and a child pattern. Outside a section,
// or when the parent is empty, the child is returned as is.
func Compose(parent, self *Expression, scope Scope) (*Expression, error) {
	if scope != ScopeSection || parent.IsEmpty() {
		return NewWithDialect(self.Pattern(), self.Dialect()), nil
	}
	if parent.Dialect() != self.Dialect() {
		return nil, fmt.Errorf("%w: %s and %s", ErrDialectMismatch, parent, self)
	}
	joined := parent.Pattern() + ScopeSeparator + self.Pattern()
	return NewWithDialect(Translate(joined, self.Dialect()), self.Dialect()), nil
}

// Describe returns a display form of a parent/child pair that does not have
// to be resolvable, for messages and cache keys.
func Describe(parent, self *Expression, scope Scope) string {
	composed, err := Compose(parent, self, scope)
	if err == nil {
		return composed.Pattern()
	}
	return parent.Pattern() + " >> " + self.Pattern()
}

// XPathLiteral quotes s as an XPath string literal.
func XPathLiteral(s string) string {
	if !strings.Contains(s, "'") {
		return "'" + s + "'"
	}
	if !strings.Contains(s, `"`) {
		return `"` + s + `"`
	}
	parts := strings.Split(s, "'")
	quoted := make([]string, 0, len(parts)*2)
	for i, p := range parts {
		if i > 0 {
			quoted = append(quoted, `"'"`)
		}
		if p != "" {
			quoted = append(quoted, "'"+p+"'")
		}
	}
	return "concat(" + strings.Join(quoted, ", ") + ")"
}

// CSSString quotes s as a CSS attribute value.
func CSSString(s string) string {
	return `"` + strings.NewReplacer(`\`, `\\`, `"`, `\"`).Replace(s) + `"`
}
