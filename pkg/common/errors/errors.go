package errors

import (
	"errors"
	"fmt"
)

// Common error types used across the goadmit library

var (
	// ErrRejected indicates that admission was denied for a unit of work.
	// Every rejection surfaced by a limit wraps this sentinel.
	ErrRejected = errors.New("admission rejected")

	// ErrQueueFull indicates that the wait queue was already at its
	// configured length, so the caller was rejected without waiting.
	ErrQueueFull = fmt.Errorf("%w: wait queue full", ErrRejected)

	// ErrQueueTimeout indicates that no permit became available before
	// the queue timeout elapsed.
	ErrQueueTimeout = fmt.Errorf("%w: queue timeout elapsed", ErrRejected)

	// ErrInvalidConfiguration indicates invalid configuration parameters
	ErrInvalidConfiguration = errors.New("invalid configuration")
)

// IsRejection returns true if the error is an admission rejection rather
// than a failure of the invoked task itself.
func IsRejection(err error) bool {
	return errors.Is(err, ErrRejected)
}

// IsRetryable returns true if the error indicates a condition that might
// be resolved by retrying the operation later. Retrying is always a caller
// concern; limits never retry internally.
func IsRetryable(err error) bool {
	return errors.Is(err, ErrQueueTimeout) || errors.Is(err, ErrQueueFull)
}
