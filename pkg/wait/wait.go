// Package wait implements the bounded polling primitive used by every
// element wait.
package wait

import (
	"context"
	"fmt"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/devicelab-dev/pagecheck/pkg/core"
	"github.com/devicelab-dev/pagecheck/pkg/logger"
)

// Default bounds, used when a Waiter is created without configuration.
const (
	DefaultTimeout  = 15 * time.Second
	DefaultInterval = 100 * time.Millisecond
)

// Condition is evaluated once per tick. A returned error stops the wait.
type Condition func(ctx context.Context) (bool, error)

// Invalidator drops cached handles before each tick so the condition
// observes the live document.
type Invalidator interface {
	Invalidate()
}

// Options tune one wait.
type Options struct {
	Timeout       time.Duration // Zero uses the waiter default
	PostException bool          // Timeout returns core.ErrWaitTimeout instead of false
	Subject       string        // Element or thing being waited on, for messages
	Description   string        // What was expected, e.g. "to be visible"
	Invalidate    []Invalidator
}

// Waiter polls conditions with a fixed interval.
type Waiter struct {
	Timeout  time.Duration
	Interval time.Duration
	Log      *logrus.Entry
}

// New creates a waiter. Non-positive values fall back to the defaults.
func New(timeout, interval time.Duration) *Waiter {
	if timeout <= 0 {
		timeout = DefaultTimeout
	}
	if interval <= 0 {
		interval = DefaultInterval
	}
	return &Waiter{Timeout: timeout, Interval: interval}
}

func (w *Waiter) log() *logrus.Entry {
	if w.Log != nil {
		return w.Log
	}
	return logger.Component("wait")
}

// Until polls cond until it holds or the timeout elapses.
func (w *Waiter) Until(ctx context.Context, cond Condition, opts Options) (bool, error) {
	return w.poll(ctx, cond, true, opts)
}

// While polls cond until it stops holding or the timeout elapses.
func (w *Waiter) While(ctx context.Context, cond Condition, opts Options) (bool, error) {
	return w.poll(ctx, cond, false, opts)
}

func (w *Waiter) poll(ctx context.Context, cond Condition, want bool, opts Options) (bool, error) {
	timeout := opts.Timeout
	if timeout <= 0 {
		timeout = w.Timeout
	}
	interval := w.Interval
	if interval <= 0 {
		interval = DefaultInterval
	}

	start := time.Now()
	deadline := start.Add(timeout)
	ticks := 0
	for {
		for _, inv := range opts.Invalidate {
			inv.Invalidate()
		}
		ticks++

		got, err := cond(ctx)
		if err != nil {
			return false, err
		}
		if got == want {
			return true, nil
		}

		remaining := time.Until(deadline)
		if remaining <= 0 {
			break
		}
		sleep := interval
		if remaining < sleep {
			sleep = remaining
		}

		timer := time.NewTimer(sleep)
		select {
		case <-ctx.Done():
			timer.Stop()
			return false, ctx.Err()
		case <-timer.C:
		}
	}

	elapsed := time.Since(start)
	w.log().WithFields(logrus.Fields{
		"subject": opts.Subject,
		"ticks":   ticks,
		"elapsed": elapsed.Round(time.Millisecond).String(),
	}).Debug("wait timed out")

	if !opts.PostException {
		return false, nil
	}
	return false, core.ErrWaitTimeout.
		WithMessage(timeoutMessage(opts, want, elapsed)).
		WithDetails(map[string]interface{}{
			"subject": opts.Subject,
			"elapsed": elapsed.String(),
			"timeout": timeout.String(),
		})
}

func timeoutMessage(opts Options, want bool, elapsed time.Duration) string {
	subject := opts.Subject
	if subject == "" {
		subject = "condition"
	}
	desc := opts.Description
	if desc == "" {
		if want {
			desc = "to hold"
		} else {
			desc = "to stop holding"
		}
	}
	return fmt.Sprintf("timed out after %v waiting for %s %s", elapsed.Round(time.Millisecond), subject, desc)
}
