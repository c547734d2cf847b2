package page

import (
	"context"
	"errors"
	"fmt"

	"github.com/devicelab-dev/pagecheck/pkg/core"
	"github.com/devicelab-dev/pagecheck/pkg/element"
)

// Check is one expectation of a verification pass.
type Check struct {
	Element  string `yaml:"element"`            // Dotted path below the container
	Property string `yaml:"property,omitempty"` // Default: value
	Expected any    `yaml:"expected"`           // Literal or operator record
	Template string `yaml:"template,omitempty"` // Failure message template
}

// Entry is one value written by Populate.
type Entry struct {
	Element string `yaml:"element"`
	Value   any    `yaml:"value"`
}

// Verify evaluates checks in order against c and raises every mismatch as
// one error when the pass ends. An element that cannot be found is a
// failure of its check, not of the pass. An unknown element or property or
// an invalid operator stops the pass at once; failures queued before it are
// joined to the returned error.
func Verify(ctx context.Context, c Container, checks []Check, preamble string) error {
	sess := c.Session()
	log := sess.Component("page").WithField("container", c.Name())
	log.WithField("checks", len(checks)).Debug("verification started")

	for _, chk := range checks {
		if err := verifyOne(ctx, c, chk); err != nil {
			log.WithError(err).Warn("verification aborted")
			return errors.Join(err, sess.Finish(ctx, preamble))
		}
	}
	return sess.Finish(ctx, preamble)
}

func verifyOne(ctx context.Context, c Container, chk Check) error {
	el, err := Find(c, chk.Element)
	if err != nil {
		return err
	}
	prop := chk.Property
	if prop == "" {
		prop = element.PropValue
	}

	q := c.Session().Queue
	actual, err := element.Property(ctx, el, prop)
	if err != nil {
		if errors.Is(err, core.ErrElementNotFound) {
			q.EnqueueMissing(ctx, el)
			return nil
		}
		return fmt.Errorf("check %s %s: %w", chk.Element, prop, err)
	}
	if err := q.EnqueueComparison(ctx, el, chk.Expected, actual, chk.Template); err != nil {
		return fmt.Errorf("check %s %s: %w", chk.Element, prop, err)
	}
	return nil
}

// Populate writes entries in order, each the way its element kind accepts
// input. It stops at the first failure.
func Populate(ctx context.Context, c Container, entries []Entry) error {
	for _, e := range entries {
		el, err := Find(c, e.Element)
		if err != nil {
			return err
		}
		if err := element.Set(ctx, el, e.Value); err != nil {
			return fmt.Errorf("populate %s: %w", e.Element, err)
		}
	}
	return nil
}
