package compare

import (
	"errors"
	"testing"

	"github.com/devicelab-dev/pagecheck/pkg/core"
)

type fakeLocalizer map[string]any

func (f fakeLocalizer) Translate(key string) (any, error) {
	v, ok := f[key]
	if !ok {
		return nil, core.ErrTranslationMissing.WithMessage("translation missing: " + key)
	}
	return v, nil
}

func TestCompare_Operators(t *testing.T) {
	e := New(nil)

	tests := []struct {
		name     string
		expected any
		actual   any
		want     bool
	}{
		{"greaterThan true", GreaterThan(5), 7, true},
		{"greaterThan false", GreaterThan(5), 3, false},
		{"greaterThan numeric string", GreaterThan(5), "12", true},
		{"greaterThanOrEqual edge", GreaterThanOrEqual(5), 5, true},
		{"lessThan", LessThan(10), 9.5, true},
		{"lessThanOrEqual false", LessThanOrEqual(1), 2, false},
		{"lessThan strings", LessThan("b"), "a", true},
		{"unordered types", LessThan(3), true, false},
		{"contains substring", Contains("ab"), "xaby", true},
		{"contains missing", Contains("zz"), "xaby", false},
		{"contains slice", Contains("b"), []string{"a", "b"}, true},
		{"notContains", NotContains("zz"), "xaby", true},
		{"startsWith", StartsWith("Hel"), "Hello", true},
		{"endsWith", EndsWith("lo"), "Hello", true},
		{"endsWith false", EndsWith("He"), "Hello", false},
		{"notEqual", NotEqual(true), false, true},
		{"notEqual same", NotEqual("a"), "a", false},
		{"like ignores spaces and case", Like("Order  Total"), "Your\n\torder total: $5", true},
		{"like containment only", Like("order total due"), "Order Total", false},
		{"literal equality", "foo", "foo", true},
		{"literal mismatch", "foo", "bar", false},
		{"number vs numeric string", 3, "3", true},
		{"bool vs string", true, "true", true},
		{"nil vs nil", nil, nil, true},
		{"nil vs value", nil, "", false},
		{"slice equality", []any{"a", 1}, []string{"a", "1"}, true},
		{"slice length mismatch", []string{"a"}, []string{"a", "b"}, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := e.Compare(tt.expected, tt.actual)
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if got != tt.want {
				t.Errorf("Compare(%v, %v) = %v, want %v", tt.expected, tt.actual, got, tt.want)
			}
		})
	}
}

func TestCompare_MapRecords(t *testing.T) {
	e := New(nil)

	tests := []struct {
		expected any
		actual   any
		want     bool
	}{
		{map[string]any{"greater_than": 5}, 7, true},
		{map[string]any{"GreaterThan": 5}, 3, false},
		{map[string]any{"does_not_contain": "x"}, "abc", true},
		{map[string]any{"is_like": "A B"}, "xaby", true},
		{map[any]any{"notEqual": true}, true, false},
	}

	for _, tt := range tests {
		got, err := e.Compare(tt.expected, tt.actual)
		if err != nil {
			t.Fatalf("Compare(%v) unexpected error: %v", tt.expected, err)
		}
		if got != tt.want {
			t.Errorf("Compare(%v, %v) = %v, want %v", tt.expected, tt.actual, got, tt.want)
		}
	}
}

func TestCompare_InvalidOperator(t *testing.T) {
	e := New(nil)

	for _, expected := range []any{
		Op{Name: "bogusOp", Value: 1},
		map[string]any{"bogusOp": 1},
	} {
		_, err := e.Compare(expected, "anything")
		if !errors.Is(err, core.ErrInvalidOperator) {
			t.Fatalf("expected ErrInvalidOperator, got %v", err)
		}
		var execErr *core.ExecutionError
		if !errors.As(err, &execErr) || execErr.Details["operator"] != "bogusOp" {
			t.Errorf("error should name the invalid key, got %v", err)
		}
	}
}

func TestCompare_MultiKeyMapIsLiteral(t *testing.T) {
	e := New(nil)
	expected := map[string]any{"a": 1, "b": 2}

	got, err := e.Compare(expected, map[string]any{"a": 1, "b": 2})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !got {
		t.Error("identical multi-key maps should be equal")
	}
}

func TestCompare_Translate(t *testing.T) {
	e := New(fakeLocalizer{
		"login.submit": "sign in",
		"days":         []string{"monday", "tuesday"},
		"greeting":     "hello there",
	})

	tests := []struct {
		name     string
		expected any
		actual   any
		want     bool
	}{
		{"plain", Translate("login.submit"), "sign in", true},
		{"upcase", TranslateUpcase("login.submit"), "SIGN IN", true},
		{"downcase", Op{OpTranslateDowncase, "login.submit"}, "sign in", true},
		{"capitalize", Op{OpTranslateCapitalize, "greeting"}, "Hello there", true},
		{"title case", Op{OpTranslateTitleCase, "greeting"}, "Hello There", true},
		{"array", Op{OpTranslateUpcase, "days"}, []string{"MONDAY", "TUESDAY"}, true},
		{"mismatch", Translate("login.submit"), "log in", false},
		{"snake case key", map[string]any{"translate_upcase": "login.submit"}, "SIGN IN", true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := e.Compare(tt.expected, tt.actual)
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if got != tt.want {
				t.Errorf("Compare(%v, %v) = %v, want %v", tt.expected, tt.actual, got, tt.want)
			}
		})
	}
}

func TestCompare_TranslateMissing(t *testing.T) {
	e := New(fakeLocalizer{})
	_, err := e.Compare(Translate("nope"), "x")
	if !errors.Is(err, core.ErrTranslationMissing) {
		t.Errorf("expected ErrTranslationMissing, got %v", err)
	}

	_, err = New(nil).Compare(Translate("nope"), "x")
	if !errors.Is(err, core.ErrTranslationMissing) {
		t.Errorf("expected ErrTranslationMissing without localizer, got %v", err)
	}
}

func TestStringPolicy(t *testing.T) {
	exact := New(nil)
	lenient := New(nil)
	lenient.Strings = PolicyFor("Safari", []string{"safari", "edge"})

	if ok, _ := exact.Compare("Submit", " SUBMIT "); ok {
		t.Error("exact policy should not fold case")
	}
	if ok, _ := lenient.Compare("Submit", " SUBMIT "); !ok {
		t.Error("lenient policy should fold case and trim")
	}
	if ok, _ := lenient.Compare(NotEqual("Submit"), "submit"); ok {
		t.Error("notEqual should use the same string policy")
	}

	if got := PolicyFor("chrome", []string{"safari"}); got("a", "A") {
		t.Error("chrome should get exact strings")
	}
}

func TestDescribe(t *testing.T) {
	if got := Describe(GreaterThan(5)); got != "{greaterThan: 5}" {
		t.Errorf("Describe(op) = %q", got)
	}
	if got := Describe(map[string]any{"notEqual": true}); got != "{notEqual: true}" {
		t.Errorf("Describe(map) = %q", got)
	}
	if got := Describe("Sign in"); got != "Sign in" {
		t.Errorf("Describe(literal) = %q", got)
	}
}

func TestCapitalize(t *testing.T) {
	tests := []struct{ in, want string }{
		{"hello WORLD", "Hello world"},
		{"élan", "Élan"},
		{"", ""},
	}
	for _, tt := range tests {
		if got := capitalize(tt.in); got != tt.want {
			t.Errorf("capitalize(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}
}
