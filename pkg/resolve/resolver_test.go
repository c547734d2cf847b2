package resolve

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/devicelab-dev/pagecheck/pkg/core"
	"github.com/devicelab-dev/pagecheck/pkg/driver/mock"
	"github.com/devicelab-dev/pagecheck/pkg/locator"
)

// resolverAnchor adapts a Resolver into an Anchor for section tests.
type resolverAnchor struct{ r *Resolver }

func (a resolverAnchor) Locator() *locator.Expression {
	e, _ := a.r.Composed()
	return e
}

func (a resolverAnchor) Locate(ctx context.Context, vis core.Visibility) (core.Handle, bool) {
	f, ok := a.r.Resolve(ctx, vis)
	return f.Handle, ok
}

func (a resolverAnchor) Invalidate() { a.r.Invalidate() }

func TestBuildStrategies(t *testing.T) {
	tests := []struct {
		name    string
		pattern string
		ladder  []Strategy
		want    []string
	}{
		{
			name:    "bare word walks the whole ladder",
			pattern: "Sign in",
			ladder:  ButtonLadder,
			want: []string{
				`xpath://*[text()[normalize-space(.)='Sign in']]`,
				`css:[id="Sign in"]`,
				`css:[name="Sign in"]`,
				`css:Sign in`,
				`xpath:Sign in`,
			},
		},
		{
			name:    "css markers skip text name id and xpath",
			pattern: "#login",
			ladder:  ButtonLadder,
			want:    []string{`css:#login`},
		},
		{
			name:    "xpath markers only try xpath",
			pattern: "//button[@type='submit']",
			ladder:  ButtonLadder,
			want:    []string{`xpath://button[@type='submit']`},
		},
		{
			name:    "default ladder",
			pattern: "input.email",
			ladder:  DefaultLadder,
			want:    []string{`css:input.email`, `xpath:input.email`},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := BuildStrategies(locator.New(tt.pattern), tt.ladder, core.VisibleOnly)
			if len(got) != len(tt.want) {
				t.Fatalf("got %d strategies, want %d: %+v", len(got), len(tt.want), got)
			}
			for i, s := range got {
				if desc := s.Query.Dialect.String() + ":" + s.Query.Path; desc != tt.want[i] {
					t.Errorf("strategy %d = %s, want %s", i, desc, tt.want[i])
				}
			}
		})
	}
}

func TestBuildStrategies_Empty(t *testing.T) {
	if got := BuildStrategies(nil, ButtonLadder, core.VisibleOnly); got != nil {
		t.Errorf("empty expression should have no strategies, got %v", got)
	}
}

func TestResolve_StopsAtFirstHit(t *testing.T) {
	d := mock.New(mock.Config{})
	d.Add(`[id="Submit"]`, &mock.Element{Name: "submit"})
	d.Add(`[name="Submit"]`, &mock.Element{Name: "other"})

	r := New(d, Target{Name: "submit", Locator: locator.New("Submit"), Ladder: ButtonLadder})
	found, ok := r.Resolve(context.Background(), core.VisibleOnly)
	if !ok {
		t.Fatal("expected element to resolve")
	}
	if found.Strategy != ByID {
		t.Errorf("Strategy = %v, want id", found.Strategy)
	}
	if r.Attempts() != 2 || len(d.Calls()) != 2 {
		t.Errorf("ladder should stop at the id rung: attempts=%d calls=%d", r.Attempts(), len(d.Calls()))
	}
	if found.Handle.(*mock.Element).Name != "submit" {
		t.Errorf("resolved %v", found.Handle)
	}
}

func TestResolve_CacheAndInvalidate(t *testing.T) {
	ctx := context.Background()
	d := mock.New(mock.Config{})
	d.Add("#total", &mock.Element{})

	r := New(d, Target{Name: "total", Locator: locator.New("#total")})
	if _, ok := r.Resolve(ctx, core.VisibleOnly); !ok {
		t.Fatal("expected element to resolve")
	}
	d.ResetCalls()

	if _, ok := r.Resolve(ctx, core.VisibleOnly); !ok {
		t.Fatal("expected cached element")
	}
	if len(d.Calls()) != 0 {
		t.Errorf("cache hit should skip the driver, got %d calls", len(d.Calls()))
	}

	r.Invalidate()
	r.Resolve(ctx, core.VisibleOnly)
	if len(d.Calls()) != 1 {
		t.Errorf("invalidated cache should query again, got %d calls", len(d.Calls()))
	}
}

func TestResolve_AltPatternMissesCache(t *testing.T) {
	ctx := context.Background()
	d := mock.New(mock.Config{})
	d.Add("#a", &mock.Element{Name: "a"})
	d.Add("#b", &mock.Element{Name: "b"})

	expr := locator.New("#a")
	r := New(d, Target{Name: "x", Locator: expr})
	r.Resolve(ctx, core.VisibleOnly)

	_ = expr.WithAlt("#b", func() error {
		found, ok := r.Resolve(ctx, core.VisibleOnly)
		if !ok || found.Handle.(*mock.Element).Name != "b" {
			t.Errorf("alternate pattern should resolve #b, got %v", found.Handle)
		}
		return nil
	})
	if expr.HasAlt() {
		t.Error("alternate pattern should be cleared")
	}
}

func TestRequireAlt(t *testing.T) {
	ctx := context.Background()
	d := mock.New(mock.Config{})
	d.Add("#grid", &mock.Element{Name: "grid"})
	d.Add("#grid > tbody > tr > td:nth-of-type(2)", &mock.Element{Name: "cell"})

	expr := locator.New("#grid")
	r := New(d, Target{Name: "grid", Locator: expr})
	r.Resolve(ctx, core.VisibilityAny)

	found, err := r.RequireAlt(ctx, "grid[1,2]", "#grid > tbody > tr > td:nth-of-type(2)", core.VisibilityAny)
	if err != nil || found.Handle.(*mock.Element).Name != "cell" {
		t.Fatalf("RequireAlt() = %v, %v", found.Handle, err)
	}
	if expr.HasAlt() {
		t.Error("alternate pattern should be cleared")
	}
	if cached, ok := r.Cache.Get(r.Key()); !ok || cached.Handle.(*mock.Element).Name != "grid" {
		t.Error("alternate lookup should not replace the cached handle")
	}

	_, err = r.RequireAlt(ctx, "grid[9,9]", "#grid > tbody > tr:nth-of-type(9) > td", core.VisibilityAny)
	if !errors.Is(err, core.ErrElementNotFound) || !strings.Contains(err.Error(), "grid[9,9]") {
		t.Errorf("missing alternate = %v", err)
	}

	empty := New(d, Target{Name: "ghost"})
	if _, err := empty.RequireAlt(ctx, "ghost", "#x", core.VisibilityAny); !errors.Is(err, core.ErrMissingLocator) {
		t.Errorf("empty locator = %v, want ErrMissingLocator", err)
	}
}

func TestResolve_ScopedInsideParent(t *testing.T) {
	ctx := context.Background()
	d := mock.New(mock.Config{})
	form := d.Add("#form", &mock.Element{Name: "form", Hidden: true})
	form.Add("input.email", &mock.Element{Name: "email"})

	parent := New(d, Target{Name: "form", Locator: locator.New("#form")})
	child := New(d, Target{
		Name:    "email",
		Locator: locator.New("input.email"),
		Scope:   locator.ScopeSection,
		Parent:  resolverAnchor{parent},
	})

	found, ok := child.Resolve(ctx, core.VisibleOnly)
	if !ok || found.Handle.(*mock.Element).Name != "email" {
		t.Fatalf("expected scoped element, got %v %v", found.Handle, ok)
	}

	calls := d.Calls()
	if calls[0].Scoped || calls[0].Query.Visibility != core.VisibilityAny {
		t.Errorf("parent should be located document-wide with VisibilityAny: %+v", calls[0])
	}
	if !calls[1].Scoped {
		t.Errorf("child should be searched inside the parent: %+v", calls[1])
	}
	if got := child.Describe(); got != "#form input.email" {
		t.Errorf("Describe() = %q", got)
	}
}

func TestResolve_ParentAbsentFallsBackToComposedPath(t *testing.T) {
	d := mock.New(mock.Config{})
	d.Add("#form input.email", &mock.Element{Name: "email"})

	parent := New(d, Target{Name: "form", Locator: locator.New("#form")})
	child := New(d, Target{
		Name:    "email",
		Locator: locator.New("input.email"),
		Scope:   locator.ScopeSection,
		Parent:  resolverAnchor{parent},
	})

	found, ok := child.Resolve(context.Background(), core.VisibleOnly)
	if !ok || found.Handle.(*mock.Element).Name != "email" {
		t.Fatalf("expected composed lookup to succeed, got %v", found.Handle)
	}
	last := d.Calls()[len(d.Calls())-1]
	if last.Scoped || last.Query.Path != "#form input.email" {
		t.Errorf("last call = %+v", last)
	}
}

func TestResolve_InvalidateReachesParent(t *testing.T) {
	ctx := context.Background()
	d := mock.New(mock.Config{})
	form := d.Add("#form", &mock.Element{})
	form.Add("button", &mock.Element{})

	parent := New(d, Target{Name: "form", Locator: locator.New("#form")})
	child := New(d, Target{Name: "go", Locator: locator.New("button"), Scope: locator.ScopeSection, Parent: resolverAnchor{parent}})
	child.Resolve(ctx, core.VisibleOnly)

	child.Invalidate()
	if _, ok := parent.Cache.Get(parent.Key()); ok {
		t.Error("parent cache should be invalidated with the child")
	}
}

func TestRequire_NamesElementAndLocator(t *testing.T) {
	d := mock.New(mock.Config{})
	r := New(d, Target{Name: "Save button", Locator: locator.New("#save")})

	_, err := r.Require(context.Background(), core.VisibleOnly)
	if !errors.Is(err, core.ErrElementNotFound) {
		t.Fatalf("expected ErrElementNotFound, got %v", err)
	}
	if !strings.Contains(err.Error(), "Save button") || !strings.Contains(err.Error(), "#save") {
		t.Errorf("error should name element and locator: %v", err)
	}
}

func TestRequire_MissingLocator(t *testing.T) {
	r := New(mock.New(mock.Config{}), Target{Name: "ghost"})
	if _, ok := r.Resolve(context.Background(), core.VisibleOnly); ok {
		t.Error("empty locator should not resolve")
	}
	if _, err := r.Require(context.Background(), core.VisibleOnly); !errors.Is(err, core.ErrMissingLocator) {
		t.Errorf("expected ErrMissingLocator, got %v", err)
	}
}

func TestRequire_UnsupportedDialect(t *testing.T) {
	d := mock.New(mock.Config{Dialects: []locator.Dialect{locator.CSS}})
	r := New(d, Target{Name: "x", Locator: locator.New("//div[@id='x']")})

	if _, err := r.Require(context.Background(), core.VisibleOnly); !errors.Is(err, core.ErrUnsupportedDialect) {
		t.Errorf("expected ErrUnsupportedDialect, got %v", err)
	}
}

func TestResolve_MaxAttempts(t *testing.T) {
	d := mock.New(mock.Config{})
	r := New(d, Target{Name: "x", Locator: locator.New("Nowhere"), Ladder: ButtonLadder})
	r.MaxAttempts = 1

	if _, ok := r.Resolve(context.Background(), core.VisibleOnly); ok {
		t.Fatal("should not resolve")
	}
	if r.Attempts() != 1 {
		t.Errorf("Attempts() = %d, want 1", r.Attempts())
	}
}

func TestStrategy_String(t *testing.T) {
	if ByText.String() != "text" || ByXPath.String() != "xpath" {
		t.Error("unexpected strategy names")
	}
	if Strategy(42).String() != "strategy(42)" {
		t.Errorf("unknown = %q", Strategy(42).String())
	}
}
