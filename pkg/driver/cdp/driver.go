// Package cdp implements core.Driver over the Chrome DevTools Protocol using
// go-rod. Lookups never wait: polling belongs to the caller.
package cdp

import (
	"context"
	"fmt"
	"strings"
	"sync"

	"github.com/go-rod/rod"
	"github.com/go-rod/rod/lib/launcher"
	"github.com/go-rod/rod/lib/proto"
	"github.com/sirupsen/logrus"

	"github.com/devicelab-dev/pagecheck/pkg/core"
	"github.com/devicelab-dev/pagecheck/pkg/locator"
	"github.com/devicelab-dev/pagecheck/pkg/logger"
)

// Config configures the browser connection.
type Config struct {
	// ControlURL is the DevTools WebSocket URL of a running browser.
	// Empty = launch a local browser.
	ControlURL string

	// Headless applies to launched browsers only.
	Headless bool

	// Browser is the identity reported to callers. Default: chrome.
	Browser string
}

// DefaultBrowser is reported when Config.Browser is empty.
const DefaultBrowser = "chrome"

// Driver implements core.Driver for one browser tab.
type Driver struct {
	cfg      Config
	browser  *rod.Browser
	page     *rod.Page
	launcher *launcher.Launcher
	log      *logrus.Entry

	mu     sync.Mutex
	closed bool
}

// Launch connects to cfg.ControlURL, or launches a browser when it is
// empty, and opens a blank tab.
func Launch(ctx context.Context, cfg Config) (*Driver, error) {
	if cfg.Browser == "" {
		cfg.Browser = DefaultBrowser
	}
	d := &Driver{cfg: cfg, log: logger.Component("driver").WithField("driver", "cdp")}

	wsURL := cfg.ControlURL
	if wsURL == "" {
		l := launcher.New().Headless(cfg.Headless).Logger(logger.GetWriter()).Context(ctx)
		u, err := l.Launch()
		if err != nil {
			return nil, core.ErrBrowserDisconnected.WithMessage("launch browser").WithCause(err)
		}
		wsURL = u
		d.launcher = l
		d.log.WithField("url", wsURL).Info("launched local browser")
	} else {
		d.log.WithField("url", wsURL).Info("connecting to browser")
	}

	b := rod.New().ControlURL(wsURL).Context(ctx)
	if err := b.Connect(); err != nil {
		d.cleanup()
		return nil, core.ErrBrowserDisconnected.WithMessage("connect to browser").WithCause(err)
	}
	d.browser = b

	page, err := b.Page(proto.TargetCreateTarget{URL: ""})
	if err != nil {
		d.cleanup()
		return nil, fmt.Errorf("open tab: %w", err)
	}
	d.page = page
	return d, nil
}

// Open navigates the tab to url and waits for the load event.
func (d *Driver) Open(ctx context.Context, url string) error {
	p := d.page.Context(ctx)
	if err := p.Navigate(url); err != nil {
		return fmt.Errorf("navigate %s: %w", url, err)
	}
	if err := p.WaitLoad(); err != nil {
		d.log.WithError(err).WithField("url", url).Warn("wait load failed")
	}
	return nil
}

// Page exposes the underlying tab.
func (d *Driver) Page() *rod.Page {
	return d.page
}

// Close closes the browser connection and kills a launched browser.
func (d *Driver) Close() error {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.closed {
		return nil
	}
	d.closed = true

	var err error
	if d.browser != nil {
		err = d.browser.Close()
	}
	d.cleanup()
	return err
}

func (d *Driver) cleanup() {
	if d.launcher != nil {
		d.launcher.Kill()
		d.launcher.Cleanup()
		d.launcher = nil
	}
}

// scopedXPath makes an absolute-looking path relative to the context node.
// Section paths compose by concatenation, so "/td[1]" below a row means the
// row's child.
func scopedXPath(path string) string {
	if strings.HasPrefix(path, "/") {
		return "." + path
	}
	return path
}

type finder interface {
	Elements(selector string) (rod.Elements, error)
	ElementsX(xpath string) (rod.Elements, error)
}

func (d *Driver) query(ctx context.Context, root finder, q core.Query, scoped bool) (rod.Elements, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	var (
		els rod.Elements
		err error
	)
	switch q.Dialect {
	case locator.XPath:
		path := q.Path
		if scoped {
			path = scopedXPath(path)
		}
		els, err = root.ElementsX(path)
	default:
		els, err = root.Elements(q.Path)
	}
	if err != nil {
		return nil, fmt.Errorf("query %s %q: %w", q.Dialect, q.Path, err)
	}
	if q.Visibility != core.VisibleOnly {
		return els, nil
	}

	visible := els[:0]
	for _, el := range els {
		if ok, verr := el.Context(ctx).Visible(); verr == nil && ok {
			visible = append(visible, el)
		}
	}
	return visible, nil
}

func (d *Driver) first(els rod.Elements, q core.Query) (core.Handle, error) {
	if els.Empty() {
		return nil, core.ErrElementNotFound.WithMessage(fmt.Sprintf("no element matches %q", q.Path))
	}
	return &Element{el: els.First()}, nil
}

func element(h core.Handle) (*Element, error) {
	el, ok := h.(*Element)
	if !ok {
		return nil, fmt.Errorf("cdp driver: foreign handle %T", h)
	}
	return el, nil
}

// Find implements core.Driver.
func (d *Driver) Find(ctx context.Context, q core.Query) (core.Handle, error) {
	els, err := d.query(ctx, d.page.Context(ctx), q, false)
	if err != nil {
		return nil, err
	}
	return d.first(els, q)
}

// FindWithin implements core.Driver.
func (d *Driver) FindWithin(ctx context.Context, parent core.Handle, q core.Query) (core.Handle, error) {
	p, err := element(parent)
	if err != nil {
		return nil, err
	}
	els, err := d.query(ctx, p.el.Context(ctx), q, true)
	if err != nil {
		return nil, err
	}
	return d.first(els, q)
}

// Count implements core.Driver.
func (d *Driver) Count(ctx context.Context, parent core.Handle, q core.Query) (int, error) {
	var root finder = d.page.Context(ctx)
	scoped := false
	if parent != nil {
		p, err := element(parent)
		if err != nil {
			return 0, err
		}
		root, scoped = p.el.Context(ctx), true
	}
	els, err := d.query(ctx, root, q, scoped)
	if err != nil {
		return 0, err
	}
	return len(els), nil
}

// Screenshot implements core.Driver.
func (d *Driver) Screenshot(ctx context.Context) ([]byte, error) {
	return d.page.Context(ctx).Screenshot(false, &proto.PageCaptureScreenshot{
		Format: proto.PageCaptureScreenshotFormatPng,
	})
}

// Browser implements core.Driver.
func (d *Driver) Browser() string {
	return d.cfg.Browser
}

// Element is a handle to a live DOM node.
type Element struct {
	el *rod.Element
}

const (
	jsSetValue = `function(v) {
		this.value = v;
		this.dispatchEvent(new Event('input', {bubbles: true}));
		this.dispatchEvent(new Event('change', {bubbles: true}));
	}`
	jsSetStyle = `function(v) {
		const prev = this.style.cssText;
		this.style.cssText = v;
		return prev;
	}`
)

// Click implements core.Handle.
func (e *Element) Click(ctx context.Context) error {
	return e.el.Context(ctx).Click(proto.InputMouseButtonLeft, 1)
}

// SetValue implements core.Handle. Inputs, textareas and selects take the
// value directly and fire input and change events.
func (e *Element) SetValue(ctx context.Context, v string) error {
	_, err := e.el.Context(ctx).Eval(jsSetValue, v)
	return err
}

// Text implements core.Handle.
func (e *Element) Text(ctx context.Context) (string, error) {
	return e.el.Context(ctx).Text()
}

// Value implements core.Handle.
func (e *Element) Value(ctx context.Context) (string, error) {
	v, err := e.el.Context(ctx).Property("value")
	if err != nil {
		return "", err
	}
	if v.Nil() {
		return "", nil
	}
	return v.Str(), nil
}

// Attribute implements core.Handle.
func (e *Element) Attribute(ctx context.Context, name string) (string, bool, error) {
	v, err := e.el.Context(ctx).Attribute(name)
	if err != nil || v == nil {
		return "", false, err
	}
	return *v, true, nil
}

// Bounds implements core.Handle.
func (e *Element) Bounds(ctx context.Context) (core.Bounds, error) {
	shape, err := e.el.Context(ctx).Shape()
	if err != nil {
		return core.Bounds{}, err
	}
	box := shape.Box()
	if box == nil {
		return core.Bounds{}, nil
	}
	return core.Bounds{
		X:      int(box.X),
		Y:      int(box.Y),
		Width:  int(box.Width),
		Height: int(box.Height),
	}, nil
}

// ScrollIntoView implements core.Handle.
func (e *Element) ScrollIntoView(ctx context.Context) error {
	return e.el.Context(ctx).ScrollIntoView()
}

// SetStyle implements core.Handle.
func (e *Element) SetStyle(ctx context.Context, style string) (string, error) {
	res, err := e.el.Context(ctx).Eval(jsSetStyle, style)
	if err != nil {
		return "", err
	}
	return res.Value.Str(), nil
}

// Visible implements core.Handle.
func (e *Element) Visible(ctx context.Context) (bool, error) {
	return e.el.Context(ctx).Visible()
}

// Enabled implements core.Handle.
func (e *Element) Enabled(ctx context.Context) (bool, error) {
	v, err := e.el.Context(ctx).Property("disabled")
	if err != nil {
		return false, err
	}
	return !v.Bool(), nil
}

// Checked implements core.Handle.
func (e *Element) Checked(ctx context.Context) (bool, error) {
	v, err := e.el.Context(ctx).Property("checked")
	if err != nil {
		return false, err
	}
	return v.Bool(), nil
}

// Ensure Driver implements core.Driver
var _ core.Driver = (*Driver)(nil)
