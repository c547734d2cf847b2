package page

import (
	"fmt"
	"strings"

	"github.com/devicelab-dev/pagecheck/pkg/core"
	"github.com/devicelab-dev/pagecheck/pkg/element"
	"github.com/devicelab-dev/pagecheck/pkg/locator"
	"github.com/devicelab-dev/pagecheck/pkg/resolve"
	"github.com/devicelab-dev/pagecheck/pkg/session"
)

// Decl declares one element.
type Decl struct {
	Name    string
	Display string
	Kind    element.Kind
	Locator *locator.Expression

	// Global members of a section resolve from the document root.
	Global bool

	Ladder []resolve.Strategy
	Item   *locator.Expression
	Shape  *locator.TableShape
	Busy   *locator.Expression
}

// Builder records declarations. A Builder is reusable: every Build creates
// fresh elements bound to the given session.
type Builder struct {
	name     string
	display  string
	locator  *locator.Expression
	decls    []Decl
	sections []*Builder
}

// NewBuilder starts a page declaration.
func NewBuilder(name string) *Builder {
	return &Builder{name: name}
}

// Name returns the declared name.
func (b *Builder) Name() string { return b.name }

// Add declares an element.
func (b *Builder) Add(d Decl) *Builder {
	b.decls = append(b.decls, d)
	return b
}

// Element declares an element with an inferred locator dialect.
func (b *Builder) Element(kind element.Kind, name, pattern string) *Builder {
	return b.Add(Decl{Name: name, Kind: kind, Locator: locator.New(pattern)})
}

// Section declares a nested section and returns its builder.
func (b *Builder) Section(name, pattern string) *Builder {
	return b.SectionOf(name, "", locator.New(pattern))
}

// SectionOf declares a nested section with an explicit locator and display
// name.
func (b *Builder) SectionOf(name, display string, loc *locator.Expression) *Builder {
	child := &Builder{name: name, display: display, locator: loc}
	b.sections = append(b.sections, child)
	return child
}

// Build materializes the declarations into a page bound to sess.
func (b *Builder) Build(sess *session.Session) (*Page, error) {
	if sess == nil {
		return nil, core.ErrInvalidConfig.WithMessage("page requires a session")
	}
	p := &Page{members: newMembers(), name: b.name, sess: sess}
	if err := b.populate(sess, &p.members, nil, b.name); err != nil {
		return nil, err
	}
	sess.Component("page").WithField("page", b.name).
		WithField("elements", len(b.decls)).
		Debug("page built")
	return p, nil
}

// populate creates b's elements and sections inside m. parent is nil for
// page-level members.
func (b *Builder) populate(sess *session.Session, m *members, parent resolve.Anchor, path string) error {
	for _, d := range b.decls {
		if err := checkName(m, path, d.Name); err != nil {
			return err
		}
		if d.Locator.IsEmpty() {
			return core.ErrMissingLocator.WithMessage(fmt.Sprintf("element %s%s%s has no locator", path, PathSeparator, d.Name))
		}
		if err := checkLocator(sess, path+PathSeparator+d.Name, d.Locator); err != nil {
			return err
		}
		spec := element.Spec{
			Name:    d.Name,
			Display: d.Display,
			Locator: d.Locator,
			Ladder:  d.Ladder,
			Item:    d.Item,
			Shape:   d.Shape,
			Busy:    d.Busy,
		}
		if parent != nil && !d.Global {
			spec.Scope = locator.ScopeSection
			spec.Parent = parent
		}
		el, err := element.New(sess, d.Kind, spec)
		if err != nil {
			return fmt.Errorf("%s%s%s: %w", path, PathSeparator, d.Name, err)
		}
		m.addElement(el)
	}

	for _, sb := range b.sections {
		if err := checkName(m, path, sb.name); err != nil {
			return err
		}
		sub := path + PathSeparator + sb.name
		if sb.locator.IsEmpty() {
			return core.ErrMissingLocator.WithMessage(fmt.Sprintf("section %s has no locator", sub))
		}
		if err := checkLocator(sess, sub, sb.locator); err != nil {
			return err
		}
		s := newSection(sess, sb.name, sb.display, sb.locator, parent)
		if err := sb.populate(sess, &s.members, s, sub); err != nil {
			return err
		}
		m.addSection(s)
	}
	return nil
}

// bind builds b's members into a section created at run time.
func (b *Builder) bind(s *Section) error {
	if b == nil {
		return nil
	}
	return b.populate(s.sess, &s.members, s, s.name)
}

func checkName(m *members, path, name string) error {
	switch {
	case name == "":
		return core.ErrInvalidConfig.WithMessage(fmt.Sprintf("unnamed member in %s", path))
	case strings.Contains(name, PathSeparator):
		return core.ErrInvalidConfig.WithMessage(fmt.Sprintf("member name %q in %s must not contain %q", name, path, PathSeparator))
	case m.taken(name):
		return core.ErrInvalidConfig.WithMessage(fmt.Sprintf("duplicate member %q in %s", name, path))
	}
	return nil
}

// checkLocator rejects patterns carrying both dialects' markers when the
// configuration asks for strict locators.
func checkLocator(sess *session.Session, path string, loc *locator.Expression) error {
	if loc.IsEmpty() || !sess.Config.StrictLocators {
		return nil
	}
	if _, err := locator.ClassifyStrict(loc.Raw()); err != nil {
		return core.ErrInvalidConfig.WithMessage(fmt.Sprintf("%s: %v", path, err)).WithCause(err)
	}
	return nil
}
