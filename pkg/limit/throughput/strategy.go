package throughput

import (
	"sync/atomic"
	"time"
)

// Algorithm selects the replenishment strategy of a throughput limit.
type Algorithm string

const (
	// AlgorithmTokenBucket accrues permits continuously over the period and
	// allows bursts up to the full amount.
	AlgorithmTokenBucket Algorithm = "token-bucket"

	// AlgorithmFixedRate spaces admissions at a strict cadence of one per
	// period/amount, with no burst allowance.
	AlgorithmFixedRate Algorithm = "fixed-rate"
)

// strategy replenishes permits over time. Implementations are lock-free and
// safe for concurrent use.
type strategy interface {
	// tryAcquire grants one permit at the given instant, or reports that
	// none has accrued yet.
	tryAcquire(now time.Time) bool

	// release marks one granted permit's task as resolved.
	release()

	// outstanding reports granted permits whose tasks are unresolved.
	outstanding() int

	// waitHint is a sensible poll interval for a caller waiting on the
	// next permit: one inter-token interval.
	waitHint() time.Duration
}

// tokenBucket accrues one token every nanosPerToken. Accrual is tracked by
// advancing the last-refill timestamp by exactly the granted interval, so
// fractional progress toward the next token is never lost.
type tokenBucket struct {
	amount        int64
	nanosPerToken int64
	lastRefill    atomic.Int64
	available     atomic.Int64
	inFlight      atomic.Int64
}

func newTokenBucket(amount int64, period time.Duration, now time.Time) *tokenBucket {
	b := &tokenBucket{
		amount:        amount,
		nanosPerToken: period.Nanoseconds() / amount,
	}
	b.lastRefill.Store(now.UnixNano())
	b.available.Store(amount) // start full
	return b
}

func (b *tokenBucket) tryAcquire(now time.Time) bool {
	b.refill(now.UnixNano())
	for {
		avail := b.available.Load()
		if avail <= 0 {
			return false
		}
		if b.available.CompareAndSwap(avail, avail-1) {
			b.inFlight.Add(1)
			return true
		}
	}
}

// refill credits tokens accrued since the last refill. The bucket never
// holds more than amount minus outstanding tokens, so unresolved tasks
// suppress bursting.
func (b *tokenBucket) refill(now int64) {
	for {
		last := b.lastRefill.Load()
		elapsed := now - last
		if elapsed < b.nanosPerToken {
			return
		}

		tokens := elapsed / b.nanosPerToken
		advance := tokens * b.nanosPerToken
		if room := b.amount - b.inFlight.Load() - b.available.Load(); tokens > room {
			// Accrual beyond a full bucket is discarded.
			tokens = max(room, 0)
			advance = elapsed
		}

		if !b.lastRefill.CompareAndSwap(last, last+advance) {
			continue
		}
		if tokens > 0 {
			b.available.Add(tokens)
		}
		return
	}
}

func (b *tokenBucket) release() {
	b.inFlight.Add(-1)
}

func (b *tokenBucket) outstanding() int {
	return int(b.inFlight.Load())
}

func (b *tokenBucket) waitHint() time.Duration {
	return time.Duration(b.nanosPerToken)
}

// fixedRate admits at most one task per nanosPerRequest, measured from the
// previous admission. There is no accrual: idle time buys no burst.
type fixedRate struct {
	nanosPerRequest int64
	lastGrant       atomic.Int64
}

func newFixedRate(amount int64, period time.Duration, now time.Time) *fixedRate {
	f := &fixedRate{nanosPerRequest: period.Nanoseconds() / amount}
	// Backdate the initial grant so the first request passes immediately.
	f.lastGrant.Store(now.UnixNano() - f.nanosPerRequest)
	return f
}

func (f *fixedRate) tryAcquire(now time.Time) bool {
	t := now.UnixNano()
	for {
		last := f.lastGrant.Load()
		if t-last < f.nanosPerRequest {
			return false
		}
		if f.lastGrant.CompareAndSwap(last, t) {
			return true
		}
	}
}

func (f *fixedRate) release() {}

func (f *fixedRate) outstanding() int { return 0 }

func (f *fixedRate) waitHint() time.Duration {
	return time.Duration(f.nanosPerRequest)
}
