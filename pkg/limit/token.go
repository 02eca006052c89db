package limit

import (
	"sync/atomic"
	"time"
)

// Outcome is the eventual resolution of one admitted unit of work. The
// adaptive limits feed on outcomes; listeners receive them for observability.
type Outcome int

const (
	// OutcomeSuccess means the task completed without any overload signal.
	OutcomeSuccess Outcome = iota

	// OutcomeDropped means the task signaled overload, either by failing
	// or by exceeding the configured latency policy.
	OutcomeDropped

	// OutcomeIgnored means the task opted out of adaptive feedback. The
	// permit is still released.
	OutcomeIgnored
)

func (o Outcome) String() string {
	switch o {
	case OutcomeSuccess:
		return "success"
	case OutcomeDropped:
		return "dropped"
	case OutcomeIgnored:
		return "ignored"
	default:
		return "unknown"
	}
}

// Token represents one admitted unit of work. It resolves to exactly one
// outcome; resolution releases the permit and notifies listeners. Resolving
// a token more than once is a no-op reported by the return value.
type Token struct {
	start    time.Time
	clock    Clock
	resolved atomic.Bool
	contexts []ListenerContext
	resolve  func(Outcome, time.Duration)
}

// NewToken creates a token admitted now. The resolve callback runs exactly
// once, on the first outcome recorded, and receives the outcome together
// with the elapsed time since admission. Used by limit implementations.
func NewToken(clock Clock, contexts []ListenerContext, resolve func(Outcome, time.Duration)) *Token {
	if clock == nil {
		clock = SystemClock{}
	}
	return &Token{
		start:    clock.Now(),
		clock:    clock,
		contexts: contexts,
		resolve:  resolve,
	}
}

// StartTime returns the admission timestamp.
func (t *Token) StartTime() time.Time {
	return t.start
}

// Elapsed returns the time since admission.
func (t *Token) Elapsed() time.Duration {
	return t.clock.Now().Sub(t.start)
}

// Contexts returns the listener contexts attached at admission, in listener
// registration order. Entries may be nil for listeners that returned none.
func (t *Token) Contexts() []ListenerContext {
	return t.contexts
}

// Success records a successful outcome. Returns false if the token was
// already resolved.
func (t *Token) Success() bool {
	return t.finish(OutcomeSuccess)
}

// Dropped records an overload outcome. Returns false if the token was
// already resolved.
func (t *Token) Dropped() bool {
	return t.finish(OutcomeDropped)
}

// Ignored records an outcome excluded from adaptive feedback. Returns false
// if the token was already resolved.
func (t *Token) Ignored() bool {
	return t.finish(OutcomeIgnored)
}

func (t *Token) finish(o Outcome) bool {
	if !t.resolved.CompareAndSwap(false, true) {
		return false
	}
	if t.resolve != nil {
		t.resolve(o, t.clock.Now().Sub(t.start))
	}
	return true
}
