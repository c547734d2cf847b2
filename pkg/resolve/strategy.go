package resolve

import (
	"fmt"
	"strings"

	"github.com/devicelab-dev/pagecheck/pkg/core"
	"github.com/devicelab-dev/pagecheck/pkg/locator"
)

// Strategy is one rung of the lookup ladder.
type Strategy int

const (
	ByText  Strategy = iota // Exact normalized text of a direct text node
	ByName                  // name attribute
	ByID                    // id attribute
	ByCSS                   // Pattern as a CSS selector
	ByXPath                 // Pattern as an XPath expression
)

// String returns the string representation of Strategy
func (s Strategy) String() string {
	switch s {
	case ByText:
		return "text"
	case ByName:
		return "name"
	case ByID:
		return "id"
	case ByCSS:
		return "css"
	case ByXPath:
		return "xpath"
	default:
		return fmt.Sprintf("strategy(%d)", int(s))
	}
}

// ParseStrategy parses a rung name as written in page definitions.
func ParseStrategy(s string) (Strategy, error) {
	for _, st := range []Strategy{ByText, ByName, ByID, ByCSS, ByXPath} {
		if strings.EqualFold(strings.TrimSpace(s), st.String()) {
			return st, nil
		}
	}
	return 0, core.ErrInvalidConfig.WithMessage(fmt.Sprintf("unknown lookup strategy %q", s))
}

// Ladders used by the element families.
var (
	DefaultLadder = []Strategy{ByCSS, ByXPath}
	ButtonLadder  = []Strategy{ByText, ByID, ByName, ByCSS, ByXPath}
	FieldLadder   = []Strategy{ByID, ByName, ByCSS, ByXPath}
)

// LocatorStrategy is a rung turned into a concrete driver query.
type LocatorStrategy struct {
	Strategy Strategy
	Query    core.Query
}

// BuildStrategies expands a ladder into queries for expr. Text, name and id
// rungs only apply to bare words; a pattern carrying selector markers is
// only tried in its own dialect.
func BuildStrategies(expr *locator.Expression, ladder []Strategy, vis core.Visibility) []LocatorStrategy {
	if expr.IsEmpty() {
		return nil
	}
	pattern := expr.Pattern()
	bare := !locator.HasMarkers(pattern)

	var strategies []LocatorStrategy
	seen := make(map[string]bool)
	add := func(s Strategy, d locator.Dialect, path string) {
		key := d.String() + "\x00" + path
		if seen[key] {
			return
		}
		seen[key] = true
		strategies = append(strategies, LocatorStrategy{
			Strategy: s,
			Query:    core.Query{Dialect: d, Path: path, Visibility: vis},
		})
	}

	for _, s := range ladder {
		switch s {
		case ByText:
			if bare {
				add(s, locator.XPath, fmt.Sprintf("//*[text()[normalize-space(.)=%s]]", locator.XPathLiteral(pattern)))
			}
		case ByName:
			if bare {
				add(s, locator.CSS, fmt.Sprintf("[name=%s]", locator.CSSString(pattern)))
			}
		case ByID:
			if bare {
				add(s, locator.CSS, fmt.Sprintf("[id=%s]", locator.CSSString(pattern)))
			}
		case ByCSS:
			if bare || expr.Dialect() == locator.CSS {
				add(s, locator.CSS, pattern)
			}
		case ByXPath:
			if bare || expr.Dialect() == locator.XPath {
				add(s, locator.XPath, pattern)
			}
		}
	}
	return strategies
}
