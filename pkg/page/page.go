// Package page groups elements into pages and sections.
//
// A Builder records element declarations and materializes them into a Page
// bound to a session. Sections nest; their members resolve inside the
// section's located handle. ListRow, TableRow and TableCell bind a section
// to one list item or table position at run time.
package page

import (
	"context"
	"fmt"
	"strings"

	"github.com/devicelab-dev/pagecheck/pkg/core"
	"github.com/devicelab-dev/pagecheck/pkg/element"
	"github.com/devicelab-dev/pagecheck/pkg/locator"
	"github.com/devicelab-dev/pagecheck/pkg/resolve"
	"github.com/devicelab-dev/pagecheck/pkg/session"
)

// PathSeparator joins section and element names in lookup paths.
const PathSeparator = "."

// Container is a page, a section, a list row or a table cell.
type Container interface {
	resolve.Anchor
	resolve.Invalidator

	Name() string
	Session() *session.Session

	Element(name string) (element.Element, bool)
	Elements() []element.Element
	Section(name string) (*Section, bool)
	Sections() []*Section
}

// members holds what a container owns, in declaration order.
type members struct {
	elements     map[string]element.Element
	order        []string
	sections     map[string]*Section
	sectionOrder []string
}

func newMembers() members {
	return members{
		elements: make(map[string]element.Element),
		sections: make(map[string]*Section),
	}
}

func (m *members) taken(name string) bool {
	_, el := m.elements[name]
	_, sec := m.sections[name]
	return el || sec
}

func (m *members) addElement(el element.Element) {
	m.elements[el.Name()] = el
	m.order = append(m.order, el.Name())
}

func (m *members) addSection(s *Section) {
	m.sections[s.name] = s
	m.sectionOrder = append(m.sectionOrder, s.name)
}

// Element returns a direct member by name.
func (m *members) Element(name string) (element.Element, bool) {
	el, ok := m.elements[name]
	return el, ok
}

// Elements returns the direct members in declaration order.
func (m *members) Elements() []element.Element {
	out := make([]element.Element, 0, len(m.order))
	for _, name := range m.order {
		out = append(out, m.elements[name])
	}
	return out
}

// Section returns a nested section by name.
func (m *members) Section(name string) (*Section, bool) {
	s, ok := m.sections[name]
	return s, ok
}

// Sections returns the nested sections in declaration order.
func (m *members) Sections() []*Section {
	out := make([]*Section, 0, len(m.sectionOrder))
	for _, name := range m.sectionOrder {
		out = append(out, m.sections[name])
	}
	return out
}

// reset drops every cached handle below the container.
func (m *members) reset() {
	for _, el := range m.elements {
		el.Invalidate()
	}
	for _, s := range m.sections {
		s.Invalidate()
		s.reset()
	}
}

// Page is the document root. It has no locator and no handle of its own.
type Page struct {
	members
	name string
	sess *session.Session
}

// Name returns the page name.
func (p *Page) Name() string { return p.name }

// Session returns the session the page is bound to.
func (p *Page) Session() *session.Session { return p.sess }

// Locator returns nil: page members resolve against the whole document.
func (p *Page) Locator() *locator.Expression { return nil }

// Locate never finds a handle for the page itself.
func (p *Page) Locate(context.Context, core.Visibility) (core.Handle, bool) { return nil, false }

// Invalidate drops every cached handle on the page, e.g. after navigation.
func (p *Page) Invalidate() { p.reset() }

// Section is a located region whose members resolve inside it.
type Section struct {
	members
	name     string
	display  string
	sess     *session.Session
	resolver *resolve.Resolver
}

func newSection(sess *session.Session, name, display string, loc *locator.Expression, parent resolve.Anchor) *Section {
	scope := locator.ScopePage
	if parent != nil {
		scope = locator.ScopeSection
	}
	return newSectionIn(sess, name, display, loc, scope, parent)
}

// newSectionIn creates a section with an explicit scope. A ScopePage
// section below a parent resolves on its own locator but still drops the
// parent's cache when invalidated.
func newSectionIn(sess *session.Session, name, display string, loc *locator.Expression, scope locator.Scope, parent resolve.Anchor) *Section {
	if display == "" {
		display = name
	}
	r := resolve.New(sess.Driver, resolve.Target{
		Name:    display,
		Locator: loc,
		Scope:   scope,
		Parent:  parent,
	})
	r.PollInterval = sess.Config.PollInterval()
	r.Log = sess.Component("resolve")
	return &Section{
		members:  newMembers(),
		name:     name,
		display:  display,
		sess:     sess,
		resolver: r,
	}
}

// Name returns the section name.
func (s *Section) Name() string { return s.name }

// DisplayName returns the name used in messages.
func (s *Section) DisplayName() string { return s.display }

// Session returns the session the section is bound to.
func (s *Section) Session() *session.Session { return s.sess }

// Describe returns the section's effective locator.
func (s *Section) Describe() string { return s.resolver.Describe() }

// Locator returns the section's composed locator.
func (s *Section) Locator() *locator.Expression {
	composed, err := s.resolver.Composed()
	if err != nil {
		return s.resolver.Target.Locator
	}
	return composed
}

// Locate returns the section's handle.
func (s *Section) Locate(ctx context.Context, vis core.Visibility) (core.Handle, bool) {
	found, ok := s.resolver.Resolve(ctx, vis)
	return found.Handle, ok
}

// Invalidate drops the cached handle of the section and its parents.
func (s *Section) Invalidate() { s.resolver.Invalidate() }

// Exists reports whether the section is in the document.
func (s *Section) Exists(ctx context.Context) bool {
	_, ok := s.Locate(ctx, core.VisibilityAny)
	return ok
}

// Find returns the element at a dotted path below c, e.g.
// "shipping.express".
func Find(c Container, path string) (element.Element, error) {
	parts := strings.Split(path, PathSeparator)
	for _, name := range parts[:len(parts)-1] {
		s, ok := c.Section(name)
		if !ok {
			return nil, unknown(c, path)
		}
		c = s
	}
	el, ok := c.Element(parts[len(parts)-1])
	if !ok {
		return nil, unknown(c, path)
	}
	return el, nil
}

func unknown(c Container, path string) error {
	return core.ErrUnknownElement.
		WithMessage(fmt.Sprintf("%q has no element %q", c.Name(), path)).
		WithDetails(map[string]interface{}{"container": c.Name(), "path": path})
}

// Ensure containers implement Container
var (
	_ Container = (*Page)(nil)
	_ Container = (*Section)(nil)
)
