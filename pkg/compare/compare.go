// Package compare evaluates an expected value, or a single-key operator
// record such as {greaterThan: 5}, against a value read from the UI.
package compare

import (
	"fmt"
	"reflect"
	"sort"
	"strconv"
	"strings"
	"unicode"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"

	"github.com/devicelab-dev/pagecheck/pkg/core"
)

// Operator names, in their canonical spelling.
const (
	OpLessThan            = "lessThan"
	OpLessThanOrEqual     = "lessThanOrEqual"
	OpGreaterThan         = "greaterThan"
	OpGreaterThanOrEqual  = "greaterThanOrEqual"
	OpStartsWith          = "startsWith"
	OpEndsWith            = "endsWith"
	OpContains            = "contains"
	OpNotContains         = "notContains"
	OpNotEqual            = "notEqual"
	OpLike                = "like"
	OpTranslate           = "translate"
	OpTranslateUpcase     = "translateUpcase"
	OpTranslateDowncase   = "translateDowncase"
	OpTranslateCapitalize = "translateCapitalize"
	OpTranslateTitleCase  = "translateTitleCase"
)

// Keys are matched after lower-casing and dropping underscores, so
// less_than, lessThan and LessThan are the same operator.
var operators = map[string]string{
	"lessthan":            OpLessThan,
	"lessthanorequal":     OpLessThanOrEqual,
	"lessorequal":         OpLessThanOrEqual,
	"greaterthan":         OpGreaterThan,
	"greaterthanorequal":  OpGreaterThanOrEqual,
	"greaterorequal":      OpGreaterThanOrEqual,
	"startswith":          OpStartsWith,
	"endswith":            OpEndsWith,
	"contains":            OpContains,
	"notcontains":         OpNotContains,
	"doesnotcontain":      OpNotContains,
	"notequal":            OpNotEqual,
	"like":                OpLike,
	"islike":              OpLike,
	"translate":           OpTranslate,
	"translateupcase":     OpTranslateUpcase,
	"translatedowncase":   OpTranslateDowncase,
	"translatecapitalize": OpTranslateCapitalize,
	"translatetitlecase":  OpTranslateTitleCase,
}

func normalizeKey(key string) string {
	return strings.ToLower(strings.ReplaceAll(key, "_", ""))
}

// Op is a tagged operator record.
type Op struct {
	Name  string
	Value any
}

// String renders the record the way it is written in check files.
func (o Op) String() string {
	return fmt.Sprintf("{%s: %v}", o.Name, o.Value)
}

func LessThan(v any) Op { return Op{OpLessThan, v} }
func LessThanOrEqual(v any) Op { return Op{OpLessThanOrEqual, v} }
func GreaterThan(v any) Op { return Op{OpGreaterThan, v} }
func GreaterThanOrEqual(v any) Op { return Op{OpGreaterThanOrEqual, v} }
func StartsWith(v string) Op { return Op{OpStartsWith, v} }
func EndsWith(v string) Op { return Op{OpEndsWith, v} }
func Contains(v any) Op { return Op{OpContains, v} }
func NotContains(v any) Op { return Op{OpNotContains, v} }
func NotEqual(v any) Op { return Op{OpNotEqual, v} }
func Like(v string) Op { return Op{OpLike, v} }
func Translate(key string) Op { return Op{OpTranslate, key} }
func TranslateUpcase(key string) Op { return Op{OpTranslateUpcase, key} }

// AsOp extracts an operator record from expected. Maps decoded from YAML or
// JSON with exactly one key are records; anything else is a literal.
func AsOp(expected any) (Op, bool) {
	switch v := expected.(type) {
	case Op:
		return v, true
	case *Op:
		if v == nil {
			return Op{}, false
		}
		return *v, true
	case map[string]any:
		if len(v) != 1 {
			return Op{}, false
		}
		for k, val := range v {
			return Op{Name: k, Value: val}, true
		}
	case map[any]any:
		if len(v) != 1 {
			return Op{}, false
		}
		for k, val := range v {
			return Op{Name: fmt.Sprint(k), Value: val}, true
		}
	}
	return Op{}, false
}

// Localizer resolves a symbolic key into a localized string or []string.
type Localizer interface {
	Translate(key string) (any, error)
}

// StringEquality decides whether two UI strings match.
type StringEquality func(expected, actual string) bool

// ExactStrings compares byte for byte.
func ExactStrings(expected, actual string) bool {
	return expected == actual
}

// FoldedStrings trims surrounding whitespace and ignores case. Some browsers
// report text-transformed captions in a different case than the DOM holds.
func FoldedStrings(expected, actual string) bool {
	return strings.EqualFold(strings.TrimSpace(expected), strings.TrimSpace(actual))
}

// PolicyFor returns FoldedStrings when browser is one of lenient, otherwise
// ExactStrings.
func PolicyFor(browser string, lenient []string) StringEquality {
	for _, b := range lenient {
		if strings.EqualFold(strings.TrimSpace(b), strings.TrimSpace(browser)) {
			return FoldedStrings
		}
	}
	return ExactStrings
}

// Evaluator compares expected specs against observed values.
type Evaluator struct {
	Localizer Localizer
	Strings   StringEquality
	Language  language.Tag // Used for title casing translations
}

// New returns an evaluator with exact string equality.
func New(l Localizer) *Evaluator {
	return &Evaluator{Localizer: l, Strings: ExactStrings, Language: language.English}
}

// Compare reports whether actual satisfies expected. An unrecognized operator
// key is a caller error and is returned as core.ErrInvalidOperator.
func (e *Evaluator) Compare(expected, actual any) (bool, error) {
	op, ok := AsOp(expected)
	if !ok {
		return e.Equal(expected, actual), nil
	}

	name, known := operators[normalizeKey(op.Name)]
	if !known {
		return false, core.ErrInvalidOperator.WithMessage(
			fmt.Sprintf("%q is not a valid comparison operator", op.Name)).
			WithDetails(map[string]interface{}{"operator": op.Name})
	}

	switch name {
	case OpLessThan:
		c, ok := order(actual, op.Value)
		return ok && c < 0, nil
	case OpLessThanOrEqual:
		c, ok := order(actual, op.Value)
		return ok && c <= 0, nil
	case OpGreaterThan:
		c, ok := order(actual, op.Value)
		return ok && c > 0, nil
	case OpGreaterThanOrEqual:
		c, ok := order(actual, op.Value)
		return ok && c >= 0, nil
	case OpStartsWith:
		return strings.HasPrefix(toString(actual), toString(op.Value)), nil
	case OpEndsWith:
		return strings.HasSuffix(toString(actual), toString(op.Value)), nil
	case OpContains:
		return e.contains(actual, op.Value), nil
	case OpNotContains:
		return !e.contains(actual, op.Value), nil
	case OpNotEqual:
		return !e.Equal(op.Value, actual), nil
	case OpLike:
		return strings.Contains(squash(toString(actual)), squash(toString(op.Value))), nil
	default:
		translated, err := e.translate(name, toString(op.Value))
		if err != nil {
			return false, err
		}
		return e.Equal(translated, actual), nil
	}
}

// Equal is plain equality: numbers numerically, slices element-wise, strings
// through the configured StringEquality.
func (e *Evaluator) Equal(expected, actual any) bool {
	if expected == nil || actual == nil {
		return expected == nil && actual == nil
	}

	if xs, ok := toSlice(expected); ok {
		as, ok := toSlice(actual)
		if !ok || len(xs) != len(as) {
			return false
		}
		for i := range xs {
			if !e.Equal(xs[i], as[i]) {
				return false
			}
		}
		return true
	}

	es, eIsStr := expected.(string)
	as, aIsStr := actual.(string)
	if eIsStr && aIsStr {
		return e.strings()(es, as)
	}

	if ef, ok := toFloat(expected); ok {
		if af, ok := toFloat(actual); ok {
			return ef == af
		}
	}

	if eb, ok := expected.(bool); ok {
		if ab, ok := toBool(actual); ok {
			return eb == ab
		}
		return false
	}
	if ab, ok := actual.(bool); ok {
		if eb, ok := toBool(expected); ok {
			return eb == ab
		}
		return false
	}

	if eIsStr || aIsStr {
		return e.strings()(toString(expected), toString(actual))
	}
	return reflect.DeepEqual(expected, actual)
}

func (e *Evaluator) strings() StringEquality {
	if e.Strings == nil {
		return ExactStrings
	}
	return e.Strings
}

func (e *Evaluator) contains(actual, value any) bool {
	if items, ok := toSlice(actual); ok {
		for _, it := range items {
			if e.Equal(value, it) {
				return true
			}
		}
		return false
	}
	return strings.Contains(toString(actual), toString(value))
}

func (e *Evaluator) translate(op, key string) (any, error) {
	if e.Localizer == nil {
		return nil, core.ErrTranslationMissing.WithMessage(
			fmt.Sprintf("no localizer configured to translate %q", key))
	}
	value, err := e.Localizer.Translate(key)
	if err != nil {
		return nil, err
	}

	var transform func(string) string
	switch op {
	case OpTranslateUpcase:
		transform = strings.ToUpper
	case OpTranslateDowncase:
		transform = strings.ToLower
	case OpTranslateCapitalize:
		transform = capitalize
	case OpTranslateTitleCase:
		caser := cases.Title(e.Language)
		transform = caser.String
	default:
		return value, nil
	}

	switch v := value.(type) {
	case string:
		return transform(v), nil
	case []string:
		out := make([]string, len(v))
		for i, s := range v {
			out[i] = transform(s)
		}
		return out, nil
	}
	return value, nil
}

// capitalize upper-cases the first letter and lower-cases the rest.
func capitalize(s string) string {
	for i, r := range s {
		return string(unicode.ToUpper(r)) + strings.ToLower(s[i+len(string(r)):])
	}
	return s
}

// squash removes all whitespace and lower-cases s.
func squash(s string) string {
	return strings.ToLower(strings.Map(func(r rune) rune {
		if unicode.IsSpace(r) {
			return -1
		}
		return r
	}, s))
}

// order compares a and b: numerically when both are numeric, lexically when
// both are strings. ok is false when they cannot be ordered.
func order(a, b any) (int, bool) {
	if af, ok := toFloat(a); ok {
		if bf, ok := toFloat(b); ok {
			switch {
			case af < bf:
				return -1, true
			case af > bf:
				return 1, true
			default:
				return 0, true
			}
		}
	}
	as, aok := a.(string)
	bs, bok := b.(string)
	if aok && bok {
		return strings.Compare(as, bs), true
	}
	return 0, false
}

func toFloat(v any) (float64, bool) {
	switch n := v.(type) {
	case int:
		return float64(n), true
	case int8:
		return float64(n), true
	case int16:
		return float64(n), true
	case int32:
		return float64(n), true
	case int64:
		return float64(n), true
	case uint:
		return float64(n), true
	case uint8:
		return float64(n), true
	case uint16:
		return float64(n), true
	case uint32:
		return float64(n), true
	case uint64:
		return float64(n), true
	case float32:
		return float64(n), true
	case float64:
		return n, true
	case string:
		f, err := strconv.ParseFloat(strings.TrimSpace(n), 64)
		return f, err == nil
	}
	return 0, false
}

func toBool(v any) (bool, bool) {
	switch b := v.(type) {
	case bool:
		return b, true
	case string:
		parsed, err := strconv.ParseBool(strings.TrimSpace(b))
		return parsed, err == nil
	}
	return false, false
}

func toSlice(v any) ([]any, bool) {
	switch s := v.(type) {
	case []any:
		return s, true
	case []string:
		out := make([]any, len(s))
		for i := range s {
			out[i] = s[i]
		}
		return out, true
	}
	rv := reflect.ValueOf(v)
	if rv.Kind() != reflect.Slice && rv.Kind() != reflect.Array {
		return nil, false
	}
	if rv.Type().Elem().Kind() == reflect.Uint8 {
		return nil, false
	}
	out := make([]any, rv.Len())
	for i := range out {
		out[i] = rv.Index(i).Interface()
	}
	return out, true
}

func toString(v any) string {
	switch s := v.(type) {
	case nil:
		return ""
	case string:
		return s
	case fmt.Stringer:
		return s.String()
	case []string:
		return strings.Join(s, ", ")
	case map[string]any:
		keys := make([]string, 0, len(s))
		for k := range s {
			keys = append(keys, k)
		}
		sort.Strings(keys)
		parts := make([]string, len(keys))
		for i, k := range keys {
			parts[i] = fmt.Sprintf("%s: %v", k, s[k])
		}
		return "{" + strings.Join(parts, ", ") + "}"
	}
	return fmt.Sprint(v)
}

// Describe renders an expected spec for failure messages.
func Describe(expected any) string {
	if op, ok := AsOp(expected); ok {
		return op.String()
	}
	return toString(expected)
}
