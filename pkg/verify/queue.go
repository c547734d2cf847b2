// Package verify collects assertion failures during a verification pass and
// raises them together at the end.
//
// Mismatches are queued rather than raised, so one pass reports every wrong
// value on the page. The first failure of each element is documented with a
// highlighted screenshot.
package verify

import (
	"context"
	"fmt"
	"strings"

	"github.com/sirupsen/logrus"

	"github.com/devicelab-dev/pagecheck/pkg/compare"
	"github.com/devicelab-dev/pagecheck/pkg/core"
	"github.com/devicelab-dev/pagecheck/pkg/logger"
)

// DefaultTemplate is used when a comparison has no message template.
const DefaultTemplate = "Expected {name} ({locator}) to be {expected} but found {actual}"

// ElementRef is the view of an element the queue needs for messages and
// evidence.
type ElementRef interface {
	DisplayName() string
	Describe() string // Effective locator
	Locate(ctx context.Context, vis core.Visibility) (core.Handle, bool)
}

// Failure is one queued assertion failure. Element is nil for raw messages.
type Failure struct {
	Message string
	Status  core.CheckStatus
	Element ElementRef
}

// Queue accumulates failures for one session.
type Queue struct {
	Evaluator *compare.Evaluator
	Evidence  *Evidence // Nil disables screenshots
	Log       *logrus.Entry

	failures        []Failure
	active          ElementRef
	lastHighlighted ElementRef
}

// NewQueue creates an empty queue.
func NewQueue(eval *compare.Evaluator, evidence *Evidence) *Queue {
	if eval == nil {
		eval = compare.New(nil)
	}
	return &Queue{Evaluator: eval, Evidence: evidence}
}

func (q *Queue) log() *logrus.Entry {
	if q.Log != nil {
		return q.Log
	}
	return logger.Component("verify")
}

// EnqueueComparison compares actual against expected and queues a failure on
// mismatch. An invalid operator is returned immediately and queues nothing.
func (q *Queue) EnqueueComparison(ctx context.Context, ref ElementRef, expected, actual any, template string) error {
	ok, err := q.Evaluator.Compare(expected, actual)
	if err != nil {
		return err
	}
	if ok {
		return nil
	}
	q.record(ctx, Failure{
		Message: Render(template, ref, expected, actual),
		Status:  core.CheckFailed,
		Element: ref,
	})
	return nil
}

// EnqueueMissing queues a failure for an element that could not be found.
func (q *Queue) EnqueueMissing(ctx context.Context, ref ElementRef) {
	q.record(ctx, Failure{
		Message: Render("Expected {name} ({locator}) to exist but it was not found", ref, nil, nil),
		Status:  core.CheckMissing,
		Element: ref,
	})
}

// EnqueueException queues a raw failure message with no element.
func (q *Queue) EnqueueException(msg string) {
	q.failures = append(q.failures, Failure{Message: msg, Status: core.CheckFailed})
	q.log().WithField("failure", msg).Debug("failure queued")
}

// record queues f and documents its element. Failures without an element
// are queued without evidence.
func (q *Queue) record(ctx context.Context, f Failure) {
	q.failures = append(q.failures, f)
	entry := q.log().WithField("status", f.Status.String())
	if f.Element == nil {
		entry.Debug("failure queued")
		return
	}
	entry.WithField("element", f.Element.DisplayName()).Debug("failure queued")

	q.active = f.Element
	if q.Evidence == nil || q.active == q.lastHighlighted {
		return
	}
	q.lastHighlighted = q.active
	q.Evidence.Capture(ctx, f.Element, f.Message)
}

// Len returns the number of queued failures.
func (q *Queue) Len() int {
	return len(q.failures)
}

// Pending returns a copy of the queued failures.
func (q *Queue) Pending() []Failure {
	out := make([]Failure, len(q.failures))
	copy(out, q.failures)
	return out
}

// PostExceptions raises every queued failure as one *AggregateError and
// empties the queue. It returns nil when nothing was queued.
func (q *Queue) PostExceptions(ctx context.Context, preamble string) error {
	defer q.reset()

	if len(q.failures) == 0 {
		return nil
	}
	err := &AggregateError{Preamble: preamble, Failures: q.Pending()}
	q.log().WithField("failures", len(q.failures)).Info("verification failed")
	return err
}

func (q *Queue) reset() {
	q.failures = nil
	q.active = nil
	q.lastHighlighted = nil
}

// AggregateError lists every failure of a verification pass.
type AggregateError struct {
	Preamble string
	Failures []Failure
}

// Error implements the error interface
func (e *AggregateError) Error() string {
	var b strings.Builder
	if e.Preamble != "" {
		b.WriteString(e.Preamble)
	} else {
		b.WriteString(core.ErrAssertionsFailed.Message)
	}
	fmt.Fprintf(&b, " (%d failure", len(e.Failures))
	if len(e.Failures) != 1 {
		b.WriteString("s")
	}
	b.WriteString("):")
	for _, f := range e.Failures {
		b.WriteString("\n  - ")
		b.WriteString(f.Message)
	}
	return b.String()
}

// Unwrap lets errors.Is match core.ErrAssertionsFailed.
func (e *AggregateError) Unwrap() error {
	return core.ErrAssertionsFailed
}

// Render fills a message template. Supported placeholders are {name},
// {locator}, {expected} and {actual}.
func Render(template string, ref ElementRef, expected, actual any) string {
	if template == "" {
		template = DefaultTemplate
	}
	name, loc := "value", ""
	if ref != nil {
		name, loc = ref.DisplayName(), ref.Describe()
	}
	return strings.NewReplacer(
		"{name}", name,
		"{locator}", loc,
		"{expected}", compare.Describe(expected),
		"{actual}", fmt.Sprintf("%v", actual),
	).Replace(template)
}
