package element

import (
	"context"
	"fmt"

	"github.com/devicelab-dev/pagecheck/pkg/compare"
	"github.com/devicelab-dev/pagecheck/pkg/core"
	"github.com/devicelab-dev/pagecheck/pkg/wait"
)

// WaitOptions tune an element wait. Zero Timeout uses the session default.
type WaitOptions = wait.Options

func (b *base) wait(ctx context.Context, until bool, desc string, opts WaitOptions, cond wait.Condition) (bool, error) {
	if opts.Subject == "" {
		opts.Subject = fmt.Sprintf("%s (%s)", b.display, b.Describe())
	}
	if opts.Description == "" {
		opts.Description = desc
	}
	opts.Invalidate = append(opts.Invalidate, b)
	if until {
		return b.sess.Waiter.Until(ctx, cond, opts)
	}
	return b.sess.Waiter.While(ctx, cond, opts)
}

// WaitExists waits for the element to appear in the document.
func (b *base) WaitExists(ctx context.Context, opts WaitOptions) (bool, error) {
	return b.wait(ctx, true, "to exist", opts, func(ctx context.Context) (bool, error) {
		return b.Exists(ctx), nil
	})
}

// WaitGone waits for the element to leave the document.
func (b *base) WaitGone(ctx context.Context, opts WaitOptions) (bool, error) {
	return b.wait(ctx, false, "to disappear", opts, func(ctx context.Context) (bool, error) {
		return b.Exists(ctx), nil
	})
}

// WaitVisible waits for the element to be rendered.
func (b *base) WaitVisible(ctx context.Context, opts WaitOptions) (bool, error) {
	return b.wait(ctx, true, "to be visible", opts, func(ctx context.Context) (bool, error) {
		return b.Visible(ctx), nil
	})
}

// WaitHidden waits for the element to be hidden or absent.
func (b *base) WaitHidden(ctx context.Context, opts WaitOptions) (bool, error) {
	return b.wait(ctx, false, "to be hidden", opts, func(ctx context.Context) (bool, error) {
		return b.Visible(ctx), nil
	})
}

// WaitEnabled waits for the element to accept input. Absence counts as not
// enabled yet.
func (b *base) WaitEnabled(ctx context.Context, opts WaitOptions) (bool, error) {
	return b.wait(ctx, true, "to be enabled", opts, func(ctx context.Context) (bool, error) {
		enabled, err := b.Enabled(ctx)
		if err != nil {
			return false, nil
		}
		return enabled, nil
	})
}

// WaitValue waits for the element's value to satisfy expected, which may be
// a literal or an operator record. An invalid operator ends the wait with
// an error.
func WaitValue(ctx context.Context, el Element, expected any, opts WaitOptions) (bool, error) {
	b := baseOf(el)
	desc := "to have value " + compare.Describe(expected)
	return b.wait(ctx, true, desc, opts, func(ctx context.Context) (bool, error) {
		actual, err := Property(ctx, el, PropValue)
		if err != nil {
			if isAbsent(err) {
				return false, nil
			}
			return false, err
		}
		return b.sess.Evaluator.Compare(expected, actual)
	})
}

// WaitValueChanges waits for the element's value to differ from baseline.
func WaitValueChanges(ctx context.Context, el Element, baseline any, opts WaitOptions) (bool, error) {
	b := baseOf(el)
	desc := fmt.Sprintf("to change from %v", baseline)
	return b.wait(ctx, true, desc, opts, func(ctx context.Context) (bool, error) {
		actual, err := Property(ctx, el, PropValue)
		if err != nil {
			if isAbsent(err) {
				return false, nil
			}
			return false, err
		}
		return !b.sess.Evaluator.Equal(baseline, actual), nil
	})
}

// WaitCount waits for a list's item count or a table's row count to satisfy
// expected.
func WaitCount(ctx context.Context, el Element, expected any, opts WaitOptions) (bool, error) {
	switch el.(type) {
	case *List, *Table:
	default:
		return false, core.ErrInvalidProperty.WithMessage(
			fmt.Sprintf("%s %q has no count", el.Kind(), el.DisplayName()))
	}
	b := baseOf(el)
	desc := "to have count " + compare.Describe(expected)
	return b.wait(ctx, true, desc, opts, func(ctx context.Context) (bool, error) {
		n, err := Property(ctx, el, PropCount)
		if err != nil {
			if isAbsent(err) {
				return false, nil
			}
			return false, err
		}
		return b.sess.Evaluator.Compare(expected, n)
	})
}

// WaitBusyCleared waits until the busy indicator of a list or table is gone.
// Elements without an indicator are never busy.
func WaitBusyCleared(ctx context.Context, el Element, opts WaitOptions) (bool, error) {
	b := baseOf(el)
	switch el.(type) {
	case *List, *Table:
	default:
		return false, core.ErrInvalidProperty.WithMessage(
			fmt.Sprintf("%s %q has no busy indicator", el.Kind(), el.DisplayName()))
	}
	if b.busy.IsEmpty() {
		return true, nil
	}
	indicator := b.child(b.display+" busy indicator", b.busy)
	opts.Invalidate = append(opts.Invalidate, indicator)
	return b.wait(ctx, false, "to finish loading", opts, func(ctx context.Context) (bool, error) {
		found, ok := indicator.Resolve(ctx, core.VisibleOnly)
		if !ok {
			return false, nil
		}
		visible, err := found.Handle.Visible(ctx)
		return err == nil && visible, nil
	})
}
