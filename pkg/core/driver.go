package core

import (
	"context"
	"time"

	"github.com/devicelab-dev/pagecheck/pkg/locator"
)

// Visibility filters the candidates a driver query may return.
type Visibility int

const (
	VisibleOnly Visibility = iota // Only rendered, visible nodes
	VisibilityAny                 // Hidden nodes too
)

// String returns the string representation of Visibility
func (v Visibility) String() string {
	if v == VisibilityAny {
		return "any"
	}
	return "visible"
}

// Query is a single lookup handed to a Driver.
type Query struct {
	Dialect      locator.Dialect
	Path         string
	Visibility   Visibility
	PollInterval time.Duration // Hint only; drivers must not block on it
}

// Driver is the automation driver the engine runs on top of.
// Implementations: cdp (Chrome DevTools), static (HTML snapshot), mock.
// A lookup returns at most one handle and never waits for the document.
type Driver interface {
	// Find searches the whole document. Absence is reported as an error
	// matching ErrElementNotFound.
	Find(ctx context.Context, q Query) (Handle, error)

	// FindWithin searches the subtree below parent.
	FindWithin(ctx context.Context, parent Handle, q Query) (Handle, error)

	// Count returns how many nodes match q below parent (document-wide when
	// parent is nil).
	Count(ctx context.Context, parent Handle, q Query) (int, error)

	// Screenshot captures the current viewport as PNG
	Screenshot(ctx context.Context) ([]byte, error)

	// Browser identifies the browser behind the driver (chrome, firefox, ...)
	Browser() string
}

// Handle is a live, driver-native reference to one node.
type Handle interface {
	Click(ctx context.Context) error
	SetValue(ctx context.Context, value string) error
	Text(ctx context.Context) (string, error)
	Value(ctx context.Context) (string, error)
	Attribute(ctx context.Context, name string) (string, bool, error)
	Bounds(ctx context.Context) (Bounds, error)
	ScrollIntoView(ctx context.Context) error

	// SetStyle replaces the inline style and returns the previous one.
	SetStyle(ctx context.Context, style string) (string, error)

	Visible(ctx context.Context) (bool, error)
	Enabled(ctx context.Context) (bool, error)
	Checked(ctx context.Context) (bool, error)
}

// Bounds represents element position and size
type Bounds struct {
	X      int `json:"x"`
	Y      int `json:"y"`
	Width  int `json:"width"`
	Height int `json:"height"`
}

// Center returns the center point of the bounds
func (b Bounds) Center() (int, int) {
	return b.X + b.Width/2, b.Y + b.Height/2
}

// Contains checks if a point is within the bounds
func (b Bounds) Contains(x, y int) bool {
	return x >= b.X && x < b.X+b.Width && y >= b.Y && y < b.Y+b.Height
}

// IsEmpty reports a zero-area box, as returned for unrendered nodes.
func (b Bounds) IsEmpty() bool {
	return b.Width <= 0 || b.Height <= 0
}

// PlatformInfo describes the browser a session runs against
type PlatformInfo struct {
	Browser   string `json:"browser"`             // chrome, firefox, safari
	Version   string `json:"version,omitempty"`   // Browser version
	Headless  bool   `json:"headless"`            // Headless vs headed
	ViewportW int    `json:"viewportW,omitempty"` // Viewport width in CSS pixels
	ViewportH int    `json:"viewportH,omitempty"` // Viewport height in CSS pixels
	URL       string `json:"url,omitempty"`       // Page under test
}
