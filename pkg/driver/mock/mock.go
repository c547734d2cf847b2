// Package mock provides a scriptable in-memory driver for testing without a
// browser.
package mock

import (
	"context"
	"fmt"
	"sync"

	"github.com/devicelab-dev/pagecheck/pkg/core"
	"github.com/devicelab-dev/pagecheck/pkg/locator"
)

// PNG is a minimal valid PNG (1x1 transparent pixel).
var PNG = []byte{
	0x89, 0x50, 0x4E, 0x47, 0x0D, 0x0A, 0x1A, 0x0A, // PNG signature
	0x00, 0x00, 0x00, 0x0D, 0x49, 0x48, 0x44, 0x52, // IHDR chunk
	0x00, 0x00, 0x00, 0x01, 0x00, 0x00, 0x00, 0x01,
	0x08, 0x06, 0x00, 0x00, 0x00, 0x1F, 0x15, 0xC4,
	0x89, 0x00, 0x00, 0x00, 0x0A, 0x49, 0x44, 0x41,
	0x54, 0x78, 0x9C, 0x63, 0x00, 0x01, 0x00, 0x00,
	0x05, 0x00, 0x01, 0x0D, 0x0A, 0x2D, 0xB4, 0x00,
	0x00, 0x00, 0x00, 0x49, 0x45, 0x4E, 0x44, 0xAE,
	0x42, 0x60, 0x82,
}

// Config configures mock driver behavior.
type Config struct {
	// Browser name to report
	Browser string
	// Dialects the driver accepts. Empty = all.
	Dialects []locator.Dialect
	// ScreenshotErr makes every screenshot fail
	ScreenshotErr error
	// OnLookup runs before every Find, FindWithin and Count with the number
	// of lookups so far, so tests can script a changing document. It runs
	// with the driver locked: change elements directly, not through Driver.
	OnLookup func(n int)
}

// Call is one recorded lookup.
type Call struct {
	Scoped bool
	Query  core.Query
}

// Driver is a mock implementation of core.Driver. Elements are registered by
// path; a lookup matches on the exact path string.
type Driver struct {
	Config Config

	mu          sync.Mutex
	root        *Element
	calls       []Call
	screenshots int
}

// New creates a new mock driver.
func New(cfg Config) *Driver {
	if cfg.Browser == "" {
		cfg.Browser = "mock"
	}
	return &Driver{Config: cfg, root: &Element{Name: "document"}}
}

// Add registers a document-level element under path.
func (d *Driver) Add(path string, el *Element) *Element {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.root.Add(path, el)
}

// SetCount scripts the answer of a document-level Count.
func (d *Driver) SetCount(path string, n int) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.root.SetCount(path, n)
}

// Calls returns the lookups made so far.
func (d *Driver) Calls() []Call {
	d.mu.Lock()
	defer d.mu.Unlock()
	out := make([]Call, len(d.calls))
	copy(out, d.calls)
	return out
}

// ResetCalls forgets recorded lookups.
func (d *Driver) ResetCalls() {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.calls = nil
}

// Screenshots returns how many screenshots were taken.
func (d *Driver) Screenshots() int {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.screenshots
}

func (d *Driver) supports(dialect locator.Dialect) bool {
	if len(d.Config.Dialects) == 0 {
		return true
	}
	for _, s := range d.Config.Dialects {
		if s == dialect {
			return true
		}
	}
	return false
}

func (d *Driver) find(parent *Element, q core.Query, scoped bool) (core.Handle, error) {
	d.mu.Lock()
	defer d.mu.Unlock()

	d.calls = append(d.calls, Call{Scoped: scoped, Query: q})
	if d.Config.OnLookup != nil {
		d.Config.OnLookup(len(d.calls))
	}
	if !d.supports(q.Dialect) {
		return nil, core.ErrUnsupportedDialect.WithMessage(
			fmt.Sprintf("mock driver does not accept %s", q.Dialect))
	}
	el, ok := parent.children[q.Path]
	if !ok || (q.Visibility == core.VisibleOnly && el.Hidden) {
		return nil, core.ErrElementNotFound.WithMessage(fmt.Sprintf("no element at %q", q.Path))
	}
	return el, nil
}

// Find implements core.Driver.
func (d *Driver) Find(ctx context.Context, q core.Query) (core.Handle, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	return d.find(d.root, q, false)
}

// FindWithin implements core.Driver.
func (d *Driver) FindWithin(ctx context.Context, parent core.Handle, q core.Query) (core.Handle, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	el, ok := parent.(*Element)
	if !ok {
		return nil, fmt.Errorf("mock driver: foreign handle %T", parent)
	}
	return d.find(el, q, true)
}

// Count implements core.Driver.
func (d *Driver) Count(ctx context.Context, parent core.Handle, q core.Query) (int, error) {
	if err := ctx.Err(); err != nil {
		return 0, err
	}
	d.mu.Lock()
	defer d.mu.Unlock()

	d.calls = append(d.calls, Call{Scoped: parent != nil, Query: q})
	if d.Config.OnLookup != nil {
		d.Config.OnLookup(len(d.calls))
	}
	el := d.root
	if parent != nil {
		p, ok := parent.(*Element)
		if !ok {
			return 0, fmt.Errorf("mock driver: foreign handle %T", parent)
		}
		el = p
	}
	if n, ok := el.counts[q.Path]; ok {
		return n, nil
	}
	if _, ok := el.children[q.Path]; ok {
		return 1, nil
	}
	return 0, nil
}

// Screenshot returns a mock PNG image.
func (d *Driver) Screenshot(ctx context.Context) ([]byte, error) {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.Config.ScreenshotErr != nil {
		return nil, d.Config.ScreenshotErr
	}
	d.screenshots++
	return PNG, nil
}

// Browser implements core.Driver.
func (d *Driver) Browser() string {
	return d.Config.Browser
}

// Element is a scripted node. Exported fields may be changed between
// lookups to simulate a live document.
type Element struct {
	Name      string
	Caption   string // Text content
	Input     string // Current value
	Attrs     map[string]string
	Style     string
	Hidden    bool
	Disabled  bool
	On        bool // Checked state
	Checkable bool // Click toggles On
	Box       core.Bounds

	Clicks  int
	Scrolls int
	Styles  []string // Every style applied, in order
	OnClick func(el *Element)

	children map[string]*Element
	counts   map[string]int
}

// Add registers a child element under a path relative to el.
func (el *Element) Add(path string, child *Element) *Element {
	if el.children == nil {
		el.children = make(map[string]*Element)
	}
	el.children[path] = child
	return child
}

// Remove drops the child registered under path.
func (el *Element) Remove(path string) {
	delete(el.children, path)
}

// SetCount scripts the answer of a Count below el.
func (el *Element) SetCount(path string, n int) {
	if el.counts == nil {
		el.counts = make(map[string]int)
	}
	el.counts[path] = n
}

func (el *Element) String() string {
	return "mock:" + el.Name
}

// Click implements core.Handle.
func (el *Element) Click(context.Context) error {
	if el.Disabled {
		return fmt.Errorf("element %s is disabled", el.Name)
	}
	el.Clicks++
	if el.Checkable {
		el.On = !el.On
	}
	if el.OnClick != nil {
		el.OnClick(el)
	}
	return nil
}

// SetValue implements core.Handle.
func (el *Element) SetValue(_ context.Context, value string) error {
	if el.Disabled {
		return fmt.Errorf("element %s is disabled", el.Name)
	}
	el.Input = value
	return nil
}

// Text implements core.Handle.
func (el *Element) Text(context.Context) (string, error) { return el.Caption, nil }

// Value implements core.Handle.
func (el *Element) Value(context.Context) (string, error) { return el.Input, nil }

// Attribute implements core.Handle.
func (el *Element) Attribute(_ context.Context, name string) (string, bool, error) {
	v, ok := el.Attrs[name]
	return v, ok, nil
}

// Bounds implements core.Handle.
func (el *Element) Bounds(context.Context) (core.Bounds, error) { return el.Box, nil }

// ScrollIntoView implements core.Handle.
func (el *Element) ScrollIntoView(context.Context) error {
	el.Scrolls++
	return nil
}

// SetStyle implements core.Handle.
func (el *Element) SetStyle(_ context.Context, style string) (string, error) {
	prev := el.Style
	el.Style = style
	el.Styles = append(el.Styles, style)
	return prev, nil
}

// Visible implements core.Handle.
func (el *Element) Visible(context.Context) (bool, error) { return !el.Hidden, nil }

// Enabled implements core.Handle.
func (el *Element) Enabled(context.Context) (bool, error) { return !el.Disabled, nil }

// Checked implements core.Handle.
func (el *Element) Checked(context.Context) (bool, error) { return el.On, nil }
