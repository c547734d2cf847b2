// Package resolve turns a declared locator into a live driver handle.
//
// Lookups walk a ladder of strategies and stop at the first hit. Section
// members are searched inside their located parent; the last handle found is
// kept in a single-slot cache until it is explicitly invalidated.
package resolve

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/devicelab-dev/pagecheck/pkg/core"
	"github.com/devicelab-dev/pagecheck/pkg/locator"
	"github.com/devicelab-dev/pagecheck/pkg/logger"
)

// DefaultMaxAttempts bounds the driver lookups of one resolution.
const DefaultMaxAttempts = 16

// Anchor is a located scope that members resolve inside of: a page, a
// section, a list row or a table cell.
type Anchor interface {
	// Locator returns the anchor's fully composed locator. An empty locator
	// means the whole document.
	Locator() *locator.Expression

	// Locate returns the anchor's own handle.
	Locate(ctx context.Context, vis core.Visibility) (core.Handle, bool)
}

// Invalidator drops cached handles.
type Invalidator interface {
	Invalidate()
}

// Found is a resolved handle and how it was obtained.
type Found struct {
	Handle   core.Handle
	Dialect  locator.Dialect
	Strategy Strategy
}

// Target describes what to resolve.
type Target struct {
	Name    string
	Locator *locator.Expression
	Scope   locator.Scope
	Parent  Anchor // Nil for page-level members
	Ladder  []Strategy
}

// Resolver resolves one Target against a driver.
type Resolver struct {
	Driver       core.Driver
	Target       Target
	Cache        *Cache
	PollInterval time.Duration
	MaxAttempts  int
	Log          *logrus.Entry

	attempts int
}

// New creates a resolver with its own cache.
func New(d core.Driver, t Target) *Resolver {
	if len(t.Ladder) == 0 {
		t.Ladder = DefaultLadder
	}
	return &Resolver{
		Driver:      d,
		Target:      t,
		Cache:       &Cache{},
		MaxAttempts: DefaultMaxAttempts,
	}
}

func (r *Resolver) log() *logrus.Entry {
	if r.Log != nil {
		return r.Log
	}
	return logger.Component("resolve")
}

func (r *Resolver) parentLocator() *locator.Expression {
	if r.Target.Scope != locator.ScopeSection || r.Target.Parent == nil {
		return nil
	}
	return r.Target.Parent.Locator()
}

// Composed returns the effective locator joined with the parent's.
func (r *Resolver) Composed() (*locator.Expression, error) {
	return locator.Compose(r.parentLocator(), r.Target.Locator, r.Target.Scope)
}

// Describe returns the effective locator for messages.
func (r *Resolver) Describe() string {
	return locator.Describe(r.parentLocator(), r.Target.Locator, r.Target.Scope)
}

// Key returns the cache key of the current resolution.
func (r *Resolver) Key() string {
	return r.parentLocator().Pattern() + "\x00" + r.Describe()
}

// Attempts returns the number of driver lookups made by the last resolution.
func (r *Resolver) Attempts() int {
	return r.attempts
}

// Invalidate drops this resolver's cached handle and the parent chain's.
func (r *Resolver) Invalidate() {
	if r.Cache != nil {
		r.Cache.Invalidate()
	}
	if inv, ok := r.Target.Parent.(Invalidator); ok {
		inv.Invalidate()
	}
}

// Resolve locates the target once. Absence is reported as false, never as
// an error.
func (r *Resolver) Resolve(ctx context.Context, vis core.Visibility) (Found, bool) {
	found, err := r.resolve(ctx, vis)
	return found, err == nil
}

// Require locates the target once and names it when it is absent.
func (r *Resolver) Require(ctx context.Context, vis core.Visibility) (Found, error) {
	found, err := r.resolve(ctx, vis)
	if errors.Is(err, core.ErrElementNotFound) {
		return Found{}, r.notFound(r.Target.Name)
	}
	return found, err
}

// RequireAlt locates alt in place of the target's own pattern, once. alt
// is cleared before RequireAlt returns and its handle is never cached, so
// the target's own cached handle survives. name labels the lookup in
// errors.
func (r *Resolver) RequireAlt(ctx context.Context, name, alt string, vis core.Visibility) (Found, error) {
	if r.Target.Locator.IsEmpty() {
		return Found{}, core.ErrMissingLocator.WithMessage(
			fmt.Sprintf("no locator configured for %q", r.Target.Name))
	}
	var found Found
	err := r.Target.Locator.WithAlt(alt, func() error {
		var err error
		found, err = r.resolve(ctx, vis)
		if errors.Is(err, core.ErrElementNotFound) {
			return r.notFound(name)
		}
		return err
	})
	return found, err
}

func (r *Resolver) notFound(name string) error {
	return core.ErrElementNotFound.
		WithMessage(fmt.Sprintf("element %q not found using %s", name, r.Describe())).
		WithDetails(map[string]interface{}{"name": name, "locator": r.Describe()})
}

func (r *Resolver) resolve(ctx context.Context, vis core.Visibility) (Found, error) {
	r.attempts = 0
	if r.Target.Locator.IsEmpty() {
		return Found{}, core.ErrMissingLocator.WithMessage(
			fmt.Sprintf("no locator configured for %q", r.Target.Name))
	}

	cache := r.Cache
	if r.Target.Locator.HasAlt() {
		cache = nil
	}
	key := r.Key()
	if cache != nil {
		if found, ok := cache.Get(key); ok {
			return found, nil
		}
	}

	found, err := r.lookup(ctx, vis)
	if err != nil {
		r.log().WithFields(logrus.Fields{
			"element":  r.Target.Name,
			"locator":  r.Describe(),
			"attempts": r.attempts,
		}).Debug("element not resolved")
		return Found{}, err
	}
	if cache != nil {
		cache.Set(key, found)
	}
	r.log().WithFields(logrus.Fields{
		"element":  r.Target.Name,
		"strategy": found.Strategy.String(),
	}).Debug("element resolved")
	return found, nil
}

func (r *Resolver) lookup(ctx context.Context, vis core.Visibility) (Found, error) {
	parent := r.parentLocator()
	if parent.IsEmpty() {
		return r.ladder(ctx, nil, r.Target.Locator, vis)
	}

	if anchor, ok := r.Target.Parent.Locate(ctx, core.VisibilityAny); ok {
		return r.ladder(ctx, anchor, r.Target.Locator, vis)
	}

	// Parent not locatable on its own: one document-wide attempt with the
	// composed path.
	composed, err := r.Composed()
	if err != nil {
		return Found{}, err
	}
	return r.ladder(ctx, nil, composed, vis)
}

func (r *Resolver) ladder(ctx context.Context, parent core.Handle, expr *locator.Expression, vis core.Visibility) (Found, error) {
	limit := r.MaxAttempts
	if limit <= 0 {
		limit = DefaultMaxAttempts
	}

	var lastErr error
	absent := false
	for _, s := range BuildStrategies(expr, r.Target.Ladder, vis) {
		if r.attempts >= limit {
			break
		}
		if err := ctx.Err(); err != nil {
			return Found{}, err
		}
		r.attempts++

		q := s.Query
		q.PollInterval = r.PollInterval

		var h core.Handle
		var err error
		if parent != nil {
			h, err = r.Driver.FindWithin(ctx, parent, q)
		} else {
			h, err = r.Driver.Find(ctx, q)
		}
		if err == nil && h != nil {
			return Found{Handle: h, Dialect: q.Dialect, Strategy: s.Strategy}, nil
		}
		if err == nil || errors.Is(err, core.ErrElementNotFound) {
			absent = true
			continue
		}
		lastErr = err
	}
	if lastErr != nil && !absent {
		return Found{}, lastErr
	}
	return Found{}, core.ErrElementNotFound
}

// Cache holds at most one resolved handle.
type Cache struct {
	key   string
	found Found
	ok    bool
}

// Get returns the cached handle when it was stored under key.
func (c *Cache) Get(key string) (Found, bool) {
	if !c.ok || c.key != key {
		return Found{}, false
	}
	return c.found, true
}

// Set replaces the cached handle.
func (c *Cache) Set(key string, f Found) {
	c.key, c.found, c.ok = key, f, true
}

// Invalidate empties the cache.
func (c *Cache) Invalidate() {
	c.key, c.found, c.ok = "", Found{}, false
}
