package limit

import (
	"errors"
	"time"
)

// Classifier decides the outcome of a completed task from its error and
// elapsed time. The latency threshold that separates success from overload
// is policy, so it is pluggable rather than hard-coded.
type Classifier func(err error, elapsed time.Duration) Outcome

// DefaultClassifier treats any error as an overload signal.
func DefaultClassifier(err error, _ time.Duration) Outcome {
	if err != nil {
		return OutcomeDropped
	}
	return OutcomeSuccess
}

// LatencyThreshold returns a classifier that additionally treats tasks
// slower than max as overloaded, even when they return no error.
func LatencyThreshold(max time.Duration) Classifier {
	return func(err error, elapsed time.Duration) Outcome {
		if err != nil || elapsed > max {
			return OutcomeDropped
		}
		return OutcomeSuccess
	}
}

// ignoredError marks a task result as excluded from adaptive feedback.
type ignoredError struct {
	err error
}

func (e *ignoredError) Error() string {
	if e.err == nil {
		return "outcome ignored"
	}
	return "outcome ignored: " + e.err.Error()
}

func (e *ignoredError) Unwrap() error {
	return e.err
}

// Ignore wraps a task's result so the limit records an ignored outcome
// instead of feeding adaptive bookkeeping. The underlying error (which may
// be nil) is re-surfaced to the caller unchanged; the permit is still
// released.
//
//	err := lim.Invoke(ctx, func() error {
//		if err := warmup(); err != nil {
//			return limit.Ignore(err) // caller sees err, AIMD does not
//		}
//		return limit.Ignore(nil) // caller sees nil, AIMD does not
//	})
func Ignore(err error) error {
	return &ignoredError{err: err}
}

// AsIgnored reports whether the error carries the ignore marker and, if so,
// returns the underlying result to deliver to the caller.
func AsIgnored(err error) (error, bool) {
	var ie *ignoredError
	if errors.As(err, &ie) {
		return ie.err, true
	}
	return nil, false
}
