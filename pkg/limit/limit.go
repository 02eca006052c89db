package limit

import (
	"context"
	"time"
)

// Type identifies the kind of limit implementation.
type Type string

const (
	// TypeFixed is a static concurrency ceiling.
	TypeFixed Type = "fixed"

	// TypeThroughput is a rate-based ceiling driven by a replenishment strategy.
	TypeThroughput Type = "throughput"

	// TypeAimd is an adaptive ceiling driven by observed outcomes.
	TypeAimd Type = "aimd"
)

// Task is one unit of work submitted for admission.
type Task func() error

// Limit decides, for each task, whether it may proceed immediately, must
// wait briefly, or must be rejected, bounding concurrent work against a
// capacity model.
type Limit interface {
	// Name identifies the limiter instance for lookup and registration.
	Name() string

	// Type reports the kind of limit implementation.
	Type() Type

	// Invoke admits and runs the task, recording its outcome. It returns a
	// rejection error (matching errors.ErrRejected) when no permit is
	// available within the queue timeout; otherwise it propagates the
	// task's own error unchanged.
	Invoke(ctx context.Context, task Task) error

	// TryAcquire admits one unit of work without running it. The caller
	// must resolve the returned Token exactly once. Intended for callers
	// that cannot express their work as a single closure.
	TryAcquire(ctx context.Context) (*Token, error)
}

// Do invokes a value-returning task through the limit. The task's value and
// error are returned unchanged; rejections surface as an error matching
// errors.ErrRejected with a zero value.
func Do[T any](ctx context.Context, l Limit, fn func() (T, error)) (T, error) {
	var out T
	err := l.Invoke(ctx, func() error {
		v, err := fn()
		out = v
		return err
	})
	return out, err
}

// Run executes the task against an already-acquired token, classifies the
// result, resolves the token, and returns the caller-visible error. Tasks
// wrapped with Ignore resolve as ignored and re-surface their underlying
// result unchanged.
func Run(tok *Token, classify Classifier, task Task) error {
	err := task()

	if inner, ok := AsIgnored(err); ok {
		tok.Ignored()
		return inner
	}

	if classify == nil {
		classify = DefaultClassifier
	}
	switch classify(err, tok.Elapsed()) {
	case OutcomeSuccess:
		tok.Success()
	case OutcomeIgnored:
		tok.Ignored()
	default:
		tok.Dropped()
	}
	return err
}

// Clock provides the current time. It can be mocked for testing.
type Clock interface {
	Now() time.Time
}

// SystemClock implements Clock using the system time.
type SystemClock struct{}

// Now returns the current system time.
func (SystemClock) Now() time.Time {
	return time.Now()
}
