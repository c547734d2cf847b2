// Package element provides the typed page elements: buttons, links, labels,
// text fields, checkboxes, radios, select lists, lists and tables.
//
// Element is a closed set. Code that needs per-kind behavior switches on the
// concrete type; see Property and Set.
package element

import (
	"context"
	"fmt"
	"strings"

	"github.com/sirupsen/logrus"

	"github.com/devicelab-dev/pagecheck/pkg/core"
	"github.com/devicelab-dev/pagecheck/pkg/locator"
	"github.com/devicelab-dev/pagecheck/pkg/resolve"
	"github.com/devicelab-dev/pagecheck/pkg/session"
)

// Kind identifies an element family.
type Kind int

const (
	KindButton Kind = iota
	KindLink
	KindLabel
	KindTextField
	KindCheckbox
	KindRadio
	KindSelectList
	KindList
	KindTable
)

var kindNames = map[Kind]string{
	KindButton:     "button",
	KindLink:       "link",
	KindLabel:      "label",
	KindTextField:  "textField",
	KindCheckbox:   "checkbox",
	KindRadio:      "radio",
	KindSelectList: "selectList",
	KindList:       "list",
	KindTable:      "table",
}

// String returns the string representation of Kind
func (k Kind) String() string {
	if name, ok := kindNames[k]; ok {
		return name
	}
	return fmt.Sprintf("kind(%d)", int(k))
}

// ParseKind accepts the names used in page definitions, case-insensitively.
// "text_field", "textfield" and "textField" are the same kind.
func ParseKind(s string) (Kind, error) {
	want := strings.ToLower(strings.ReplaceAll(s, "_", ""))
	for k, name := range kindNames {
		if strings.ToLower(name) == want {
			return k, nil
		}
	}
	return 0, core.ErrInvalidConfig.WithMessage(fmt.Sprintf("unknown element kind %q", s))
}

// Ladder returns the lookup ladder used for a kind.
func (k Kind) Ladder() []resolve.Strategy {
	switch k {
	case KindButton, KindLink:
		return resolve.ButtonLadder
	case KindTextField, KindCheckbox, KindRadio, KindSelectList:
		return resolve.FieldLadder
	default:
		return resolve.DefaultLadder
	}
}

// Spec declares an element.
type Spec struct {
	Name    string              // Registry name
	Display string              // Name used in messages; defaults to Name
	Locator *locator.Expression // Own pattern
	Scope   locator.Scope
	Parent  resolve.Anchor // Section, row or cell the element lives in

	Ladder []resolve.Strategy // Overrides the kind's ladder

	Item  *locator.Expression // Lists: item pattern relative to the list
	Shape *locator.TableShape // Tables: defaults to a plain HTML table
	Busy  *locator.Expression // Lists and tables: loading indicator
}

// Element is implemented by every element kind in this package and by no
// other type.
type Element interface {
	resolve.Anchor
	resolve.Invalidator

	Name() string
	DisplayName() string
	Describe() string
	Kind() Kind

	Exists(ctx context.Context) bool
	Visible(ctx context.Context) bool
	Enabled(ctx context.Context) (bool, error)
	Attribute(ctx context.Context, name string) (string, bool, error)

	sealed()
}

// New creates an element of the given kind.
func New(sess *session.Session, kind Kind, spec Spec) (Element, error) {
	if sess == nil {
		return nil, core.ErrInvalidConfig.WithMessage("element requires a session")
	}
	if spec.Locator.IsEmpty() {
		return nil, core.ErrMissingLocator.WithMessage(fmt.Sprintf("no locator configured for %q", spec.Name))
	}
	b := newBase(sess, kind, spec)
	switch kind {
	case KindButton:
		return &Button{base: b}, nil
	case KindLink:
		return &Link{base: b}, nil
	case KindLabel:
		return &Label{base: b}, nil
	case KindTextField:
		return &TextField{base: b}, nil
	case KindCheckbox:
		return &Checkbox{base: b}, nil
	case KindRadio:
		return &Radio{base: b}, nil
	case KindSelectList:
		return &SelectList{base: b}, nil
	case KindList:
		return newList(b, spec), nil
	case KindTable:
		return newTable(b, spec), nil
	}
	return nil, core.ErrInvalidConfig.WithMessage(fmt.Sprintf("unknown element kind %v", kind))
}

// base carries what all kinds share. It is unexported so Element stays a
// closed set.
type base struct {
	name     string
	display  string
	kind     Kind
	sess     *session.Session
	resolver *resolve.Resolver
	busy     *locator.Expression
}

func newBase(sess *session.Session, kind Kind, spec Spec) base {
	ladder := spec.Ladder
	if len(ladder) == 0 {
		ladder = kind.Ladder()
	}
	display := spec.Display
	if display == "" {
		display = spec.Name
	}

	r := resolve.New(sess.Driver, resolve.Target{
		Name:    display,
		Locator: spec.Locator,
		Scope:   spec.Scope,
		Parent:  spec.Parent,
		Ladder:  ladder,
	})
	r.PollInterval = sess.Config.PollInterval()
	r.Log = sess.Component("resolve")

	return base{
		name:     spec.Name,
		display:  display,
		kind:     kind,
		sess:     sess,
		resolver: r,
		busy:     spec.Busy,
	}
}

func (b *base) sealed() {}

// Name returns the registry name.
func (b *base) Name() string { return b.name }

// DisplayName returns the name used in messages.
func (b *base) DisplayName() string { return b.display }

// Kind returns the element family.
func (b *base) Kind() Kind { return b.kind }

// Describe returns the effective locator.
func (b *base) Describe() string { return b.resolver.Describe() }

// Locator returns the element's composed locator. Members of the element
// compose with it.
func (b *base) Locator() *locator.Expression {
	composed, err := b.resolver.Composed()
	if err != nil {
		return b.resolver.Target.Locator
	}
	return composed
}

// Locate returns the element's handle.
func (b *base) Locate(ctx context.Context, vis core.Visibility) (core.Handle, bool) {
	found, ok := b.resolver.Resolve(ctx, vis)
	return found.Handle, ok
}

// Invalidate drops cached handles of the element and its parents.
func (b *base) Invalidate() { b.resolver.Invalidate() }

// Exists reports whether the element is in the document, hidden or not.
func (b *base) Exists(ctx context.Context) bool {
	_, ok := b.resolver.Resolve(ctx, core.VisibilityAny)
	return ok
}

// Visible reports whether the element is present and rendered.
func (b *base) Visible(ctx context.Context) bool {
	found, ok := b.resolver.Resolve(ctx, core.VisibleOnly)
	if !ok {
		return false
	}
	visible, err := found.Handle.Visible(ctx)
	return err == nil && visible
}

// Enabled reports whether the element accepts input.
func (b *base) Enabled(ctx context.Context) (bool, error) {
	h, err := b.handle(ctx)
	if err != nil {
		return false, err
	}
	return h.Enabled(ctx)
}

// Text returns the element's text content.
func (b *base) Text(ctx context.Context) (string, error) {
	h, err := b.handle(ctx)
	if err != nil {
		return "", err
	}
	return h.Text(ctx)
}

// Attribute returns an attribute value and whether it is set.
func (b *base) Attribute(ctx context.Context, name string) (string, bool, error) {
	h, err := b.handle(ctx)
	if err != nil {
		return "", false, err
	}
	return h.Attribute(ctx, name)
}

// Click clicks the element. It must be visible.
func (b *base) Click(ctx context.Context) error {
	h, err := b.interactive(ctx)
	if err != nil {
		return err
	}
	b.log().Debug("click")
	return h.Click(ctx)
}

// interactive returns a visible handle. The cache is keyed without
// visibility, so a hidden handle left by a presence lookup is dropped and
// the element resolved again.
func (b *base) interactive(ctx context.Context) (core.Handle, error) {
	found, err := b.resolver.Require(ctx, core.VisibleOnly)
	if err != nil {
		return nil, err
	}
	if visible, err := found.Handle.Visible(ctx); err == nil && !visible {
		b.resolver.Cache.Invalidate()
		if found, err = b.resolver.Require(ctx, core.VisibleOnly); err != nil {
			return nil, err
		}
	}
	return found.Handle, nil
}

// configured reports a missing locator. Presence lookups would otherwise
// turn it into a plain false.
func (b *base) configured() error {
	if b.resolver.Target.Locator.IsEmpty() {
		return core.ErrMissingLocator.WithMessage(fmt.Sprintf("no locator configured for %q", b.display))
	}
	return nil
}

func (b *base) handle(ctx context.Context) (core.Handle, error) {
	found, err := b.resolver.Require(ctx, core.VisibilityAny)
	if err != nil {
		return nil, err
	}
	return found.Handle, nil
}

func (b *base) log() *logrus.Entry {
	return b.sess.Component("element").WithField("element", b.display)
}

// child builds a resolver for a path relative to the element. The path is
// only tried in its own dialect.
func (b *base) child(name string, rel *locator.Expression) *resolve.Resolver {
	return b.childIn(name, rel, locator.ScopeSection)
}

// childIn is child for a path whose scope is given. ScopePage paths already
// contain the element's own path.
func (b *base) childIn(name string, rel *locator.Expression, scope locator.Scope) *resolve.Resolver {
	ladder := []resolve.Strategy{resolve.ByCSS}
	if rel.Dialect() == locator.XPath {
		ladder = []resolve.Strategy{resolve.ByXPath}
	}
	r := resolve.New(b.sess.Driver, resolve.Target{
		Name:    name,
		Locator: rel,
		Scope:   scope,
		Parent:  anchor{b},
		Ladder:  ladder,
	})
	r.PollInterval = b.resolver.PollInterval
	r.Log = b.resolver.Log
	return r
}

// anchor exposes a base as a resolve.Anchor without widening Element.
type anchor struct{ b *base }

func (a anchor) Locator() *locator.Expression { return a.b.Locator() }

func (a anchor) Locate(ctx context.Context, vis core.Visibility) (core.Handle, bool) {
	return a.b.Locate(ctx, vis)
}

func (a anchor) Invalidate() { a.b.Invalidate() }
