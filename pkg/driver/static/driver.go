// Package static implements core.Driver over a parsed HTML snapshot.
//
// The document is never rendered: visibility comes from markup (hidden,
// inline display/visibility, type=hidden), there is no layout, and scripts
// do not run. Lookups are CSS only. Interactions update the snapshot the
// way a browser updates form state, so a page can be populated and
// verified without a browser.
package static

import (
	"bytes"
	"context"
	"fmt"
	"image"
	"image/color"
	"image/png"
	"sync"

	"github.com/PuerkitoBio/goquery"
	"github.com/sirupsen/logrus"

	"github.com/devicelab-dev/pagecheck/pkg/core"
	"github.com/devicelab-dev/pagecheck/pkg/locator"
	"github.com/devicelab-dev/pagecheck/pkg/logger"
)

// Browser is the identity reported by the driver.
const Browser = "static"

// Driver implements core.Driver for an HTML snapshot.
type Driver struct {
	mu  sync.Mutex
	doc *goquery.Document
	log *logrus.Entry
}

// New creates a driver over doc.
func New(doc *goquery.Document) *Driver {
	return &Driver{doc: doc, log: logger.Component("driver").WithField("driver", Browser)}
}

// Document returns the current snapshot.
func (d *Driver) Document() *goquery.Document {
	return d.doc
}

// HTML serializes the current snapshot, including form state changes.
func (d *Driver) HTML() (string, error) {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.doc.Html()
}

func (d *Driver) match(root *goquery.Selection, q core.Query) (*goquery.Selection, error) {
	if q.Dialect != locator.CSS {
		return nil, core.ErrUnsupportedDialect.WithMessage(
			fmt.Sprintf("static driver cannot evaluate %s %q", q.Dialect, q.Path))
	}
	found := root.Find(q.Path)
	if q.Visibility == core.VisibleOnly {
		found = found.FilterFunction(func(_ int, s *goquery.Selection) bool {
			return isVisible(s)
		})
	}
	return found, nil
}

func (d *Driver) find(root *goquery.Selection, q core.Query) (core.Handle, error) {
	d.mu.Lock()
	defer d.mu.Unlock()

	found, err := d.match(root, q)
	if err != nil {
		return nil, err
	}
	if found.Length() == 0 {
		return nil, core.ErrElementNotFound.WithMessage(fmt.Sprintf("no element matches %q", q.Path))
	}
	return &Node{d: d, sel: found.First()}, nil
}

func (d *Driver) node(h core.Handle) (*Node, error) {
	n, ok := h.(*Node)
	if !ok || n.d != d {
		return nil, fmt.Errorf("static driver: foreign handle %T", h)
	}
	return n, nil
}

// Find implements core.Driver.
func (d *Driver) Find(ctx context.Context, q core.Query) (core.Handle, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	return d.find(d.doc.Selection, q)
}

// FindWithin implements core.Driver.
func (d *Driver) FindWithin(ctx context.Context, parent core.Handle, q core.Query) (core.Handle, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	n, err := d.node(parent)
	if err != nil {
		return nil, err
	}
	return d.find(n.sel, q)
}

// Count implements core.Driver.
func (d *Driver) Count(ctx context.Context, parent core.Handle, q core.Query) (int, error) {
	if err := ctx.Err(); err != nil {
		return 0, err
	}
	root := d.doc.Selection
	if parent != nil {
		n, err := d.node(parent)
		if err != nil {
			return 0, err
		}
		root = n.sel
	}

	d.mu.Lock()
	defer d.mu.Unlock()
	found, err := d.match(root, q)
	if err != nil {
		return 0, err
	}
	return found.Length(), nil
}

// Screenshot returns a blank PNG: a snapshot has no rendering.
func (d *Driver) Screenshot(ctx context.Context) ([]byte, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	img := image.NewRGBA(image.Rect(0, 0, 16, 16))
	for y := 0; y < 16; y++ {
		for x := 0; x < 16; x++ {
			img.Set(x, y, color.White)
		}
	}
	var buf bytes.Buffer
	if err := png.Encode(&buf, img); err != nil {
		return nil, fmt.Errorf("encode screenshot: %w", err)
	}
	return buf.Bytes(), nil
}

// Browser implements core.Driver.
func (d *Driver) Browser() string {
	return Browser
}

// Node is a handle to one element of the snapshot.
type Node struct {
	d   *Driver
	sel *goquery.Selection
}

func (n *Node) String() string {
	return "static:" + nodeName(n.sel)
}

// Click implements core.Handle. Checkboxes toggle, radios become the
// checked member of their group, options become selected.
func (n *Node) Click(ctx context.Context) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	n.d.mu.Lock()
	defer n.d.mu.Unlock()

	if !isEnabled(n.sel) {
		return fmt.Errorf("element %s is disabled", nodeName(n.sel))
	}
	switch {
	case isToggle(n.sel) && inputType(n.sel) == "radio":
		if name, ok := n.sel.Attr("name"); ok {
			n.d.doc.Find("input[type=radio][name=" + locator.CSSString(name) + "]").RemoveAttr("checked")
		}
		n.sel.SetAttr("checked", "checked")
	case isToggle(n.sel):
		if checked(n.sel) {
			n.sel.RemoveAttr("checked")
		} else {
			n.sel.SetAttr("checked", "checked")
		}
	case nodeName(n.sel) == "option":
		n.sel.Closest("select").Find("option").RemoveAttr("selected")
		n.sel.SetAttr("selected", "selected")
	}
	n.d.log.WithField("element", nodeName(n.sel)).Debug("click")
	return nil
}

// SetValue implements core.Handle. For a select, value names the option by
// value or by text.
func (n *Node) SetValue(ctx context.Context, v string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	n.d.mu.Lock()
	defer n.d.mu.Unlock()

	if !isEnabled(n.sel) {
		return fmt.Errorf("element %s is disabled", nodeName(n.sel))
	}
	switch nodeName(n.sel) {
	case "textarea":
		n.sel.SetText(v)
	case "select":
		options := n.sel.Find("option")
		match := options.FilterFunction(func(_ int, o *goquery.Selection) bool {
			return optionValue(o) == v || text(o) == v
		}).First()
		if match.Length() == 0 {
			return fmt.Errorf("select has no option %q", v)
		}
		options.RemoveAttr("selected")
		match.SetAttr("selected", "selected")
	default:
		n.sel.SetAttr("value", v)
	}
	return nil
}

// Text implements core.Handle.
func (n *Node) Text(context.Context) (string, error) {
	n.d.mu.Lock()
	defer n.d.mu.Unlock()
	return text(n.sel), nil
}

// Value implements core.Handle.
func (n *Node) Value(context.Context) (string, error) {
	n.d.mu.Lock()
	defer n.d.mu.Unlock()
	return value(n.sel), nil
}

// Attribute implements core.Handle.
func (n *Node) Attribute(_ context.Context, name string) (string, bool, error) {
	n.d.mu.Lock()
	defer n.d.mu.Unlock()
	v, ok := n.sel.Attr(name)
	return v, ok, nil
}

// Bounds implements core.Handle. A snapshot has no layout.
func (n *Node) Bounds(context.Context) (core.Bounds, error) {
	return core.Bounds{}, nil
}

// ScrollIntoView implements core.Handle.
func (n *Node) ScrollIntoView(context.Context) error {
	return nil
}

// SetStyle implements core.Handle.
func (n *Node) SetStyle(_ context.Context, style string) (string, error) {
	n.d.mu.Lock()
	defer n.d.mu.Unlock()
	prev := n.sel.AttrOr("style", "")
	if style == "" {
		n.sel.RemoveAttr("style")
	} else {
		n.sel.SetAttr("style", style)
	}
	return prev, nil
}

// Visible implements core.Handle.
func (n *Node) Visible(context.Context) (bool, error) {
	n.d.mu.Lock()
	defer n.d.mu.Unlock()
	return isVisible(n.sel), nil
}

// Enabled implements core.Handle.
func (n *Node) Enabled(context.Context) (bool, error) {
	n.d.mu.Lock()
	defer n.d.mu.Unlock()
	return isEnabled(n.sel), nil
}

// Checked implements core.Handle.
func (n *Node) Checked(context.Context) (bool, error) {
	n.d.mu.Lock()
	defer n.d.mu.Unlock()
	return checked(n.sel), nil
}

// Ensure Driver implements core.Driver
var _ core.Driver = (*Driver)(nil)
