package throughput

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	gaerrors "github.com/goadmit/goadmit/pkg/common/errors"
	"github.com/goadmit/goadmit/pkg/common/validation"
	"github.com/goadmit/goadmit/pkg/limit"
)

const (
	// DefaultQueueLength is the number of waiters queued once the rate is
	// exhausted, when the config leaves it unset.
	DefaultQueueLength = 10

	// DefaultQueueTimeout bounds how long a caller waits for a permit.
	DefaultQueueTimeout = time.Second
)

// Config holds configuration options for creating a throughput limit.
type Config struct {
	// Name identifies the limiter instance.
	Name string

	// Amount is the number of admissions per Period. Zero means unlimited.
	Amount int

	// Period is the replenishment window. Required when Amount is set.
	Period time.Duration

	// Algorithm selects the replenishment strategy. Empty selects
	// AlgorithmTokenBucket.
	Algorithm Algorithm

	// QueueLength is the maximum number of waiters queued once the rate is
	// exhausted. Zero selects DefaultQueueLength; a negative value disables
	// queueing entirely (immediate rejection when no token has accrued).
	QueueLength int

	// QueueTimeout is the maximum wait before rejection. Zero selects
	// DefaultQueueTimeout.
	QueueTimeout time.Duration

	// Listeners observe admission decisions and outcomes.
	Listeners []limit.Listener

	// Classifier decides the outcome of completed tasks. If nil,
	// limit.DefaultClassifier is used.
	Classifier limit.Classifier

	// Clock provides the current time. If nil, limit.SystemClock is used.
	Clock limit.Clock

	// Logger receives listener failure reports. If nil, slog.Default().
	Logger *slog.Logger
}

// Limit is a rate-based ceiling: permits accrue over time according to the
// configured strategy rather than returning on task completion. Callers
// beyond the rate queue in FIFO order; only the head of the queue polls the
// strategy, so permits cannot be claimed out of arrival order.
type Limit struct {
	name         string
	amount       int
	algorithm    Algorithm
	strat        strategy // nil means unlimited
	queueLength  int
	queueTimeout time.Duration
	classify     limit.Classifier
	clock        limit.Clock
	notifier     *limit.Notifier

	mu      sync.Mutex
	waiters []*waiter
}

// waiter is a queued caller. Its turn channel closes when it reaches the
// head of the queue and may start polling the strategy.
type waiter struct {
	turn     chan struct{}
	promoted bool
}

// New creates a throughput limit from the given configuration.
func New(cfg Config) (*Limit, error) {
	if cfg.Amount < 0 {
		return nil, validation.ValidateNonNegative("throughput", "amount", cfg.Amount)
	}
	if cfg.Amount > 0 && cfg.Period <= 0 {
		return nil, gaerrors.NewValidationError("throughput", "period", cfg.Period, "must be positive").
			WithHint("set a replenishment period such as time.Second")
	}
	// The strategies count whole nanoseconds per token; a rate beyond one
	// admission per nanosecond would truncate the interval to zero.
	if cfg.Amount > 0 && cfg.Period.Nanoseconds() < int64(cfg.Amount) {
		return nil, gaerrors.NewValidationError("throughput", "amount", cfg.Amount,
			"exceeds one admission per nanosecond").
			WithHint("reduce amount or extend the period")
	}

	algorithm := cfg.Algorithm
	if algorithm == "" {
		algorithm = AlgorithmTokenBucket
	}

	clock := cfg.Clock
	if clock == nil {
		clock = limit.SystemClock{}
	}

	var strat strategy
	if cfg.Amount > 0 {
		now := clock.Now()
		switch algorithm {
		case AlgorithmTokenBucket:
			strat = newTokenBucket(int64(cfg.Amount), cfg.Period, now)
		case AlgorithmFixedRate:
			strat = newFixedRate(int64(cfg.Amount), cfg.Period, now)
		default:
			return nil, gaerrors.NewValidationError("throughput", "rate-limiting-algorithm",
				string(algorithm), "unknown algorithm").
				WithHint("use token-bucket or fixed-rate")
		}
	}

	queueLength := cfg.QueueLength
	switch {
	case queueLength == 0:
		queueLength = DefaultQueueLength
	case queueLength < 0:
		queueLength = 0
	}

	queueTimeout := cfg.QueueTimeout
	if queueTimeout <= 0 {
		queueTimeout = DefaultQueueTimeout
	}

	return &Limit{
		name:         cfg.Name,
		amount:       cfg.Amount,
		algorithm:    algorithm,
		strat:        strat,
		queueLength:  queueLength,
		queueTimeout: queueTimeout,
		classify:     cfg.Classifier,
		clock:        clock,
		notifier:     limit.NewNotifier(limit.TypeThroughput, cfg.Name, cfg.Listeners, cfg.Logger),
	}, nil
}

// Name identifies the limiter instance.
func (l *Limit) Name() string { return l.name }

// Type reports the limit kind.
func (l *Limit) Type() limit.Type { return limit.TypeThroughput }

// Algorithm reports the configured replenishment strategy.
func (l *Limit) Algorithm() Algorithm { return l.algorithm }

// TryAcquire admits one unit of work, waiting up to the queue timeout for a
// permit to accrue. The returned token must be resolved exactly once.
// Resolving a token does not return its permit: throughput permits come back
// only with time.
func (l *Limit) TryAcquire(ctx context.Context) (*limit.Token, error) {
	if l.strat == nil {
		contexts := l.notifier.Accept()
		return limit.NewToken(l.clock, contexts, func(o limit.Outcome, elapsed time.Duration) {
			l.notifier.Complete(contexts, o, elapsed)
		}), nil
	}

	waitCtx, cancel := context.WithTimeout(ctx, l.queueTimeout)
	err := l.acquire(waitCtx)
	cancel()
	if err != nil {
		l.notifier.Reject()
		return nil, fmt.Errorf("limit %q: %w", l.name, err)
	}

	contexts := l.notifier.Accept()
	l.observe()
	return limit.NewToken(l.clock, contexts, func(o limit.Outcome, elapsed time.Duration) {
		l.strat.release()
		l.notifier.Complete(contexts, o, elapsed)
		l.observe()
	}), nil
}

// Invoke admits and runs the task, recording its outcome.
func (l *Limit) Invoke(ctx context.Context, task limit.Task) error {
	tok, err := l.TryAcquire(ctx)
	if err != nil {
		return err
	}
	return limit.Run(tok, l.classify, task)
}

// CurrentLimit returns the configured amount per period, or zero when
// unlimited.
func (l *Limit) CurrentLimit() int { return l.amount }

// Outstanding returns the number of admitted, unresolved tasks.
func (l *Limit) Outstanding() int {
	if l.strat == nil {
		return 0
	}
	return l.strat.outstanding()
}

// Queued returns the number of callers waiting for a permit.
func (l *Limit) Queued() int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return len(l.waiters)
}

// acquire claims one permit, queueing FIFO behind earlier callers when none
// has accrued yet.
func (l *Limit) acquire(ctx context.Context) error {
	l.mu.Lock()
	if len(l.waiters) == 0 && l.strat.tryAcquire(l.clock.Now()) {
		l.mu.Unlock()
		return nil
	}

	// Fast reject: the queue-full check happens before any allocation so
	// overload keeps tail latency bounded.
	if len(l.waiters) >= l.queueLength {
		l.mu.Unlock()
		return gaerrors.ErrQueueFull
	}

	w := &waiter{turn: make(chan struct{})}
	l.waiters = append(l.waiters, w)
	l.promoteLocked()
	l.mu.Unlock()

	select {
	case <-w.turn:
	case <-ctx.Done():
		l.remove(w)
		return waitErr(ctx)
	}

	// Head of the queue: poll the strategy, sleeping one inter-token
	// interval between attempts.
	hint := l.strat.waitHint()
	for {
		if l.strat.tryAcquire(l.clock.Now()) {
			l.remove(w)
			return nil
		}

		wait := hint
		if deadline, ok := ctx.Deadline(); ok {
			remaining := time.Until(deadline)
			if remaining <= 0 {
				// The deadline may have lapsed before ctx's timer fired, in
				// which case ctx.Err() is still nil. The wait is over either
				// way; never report success without a granted token.
				l.remove(w)
				return gaerrors.ErrQueueTimeout
			}
			if remaining < wait {
				wait = remaining
			}
		}

		timer := time.NewTimer(wait)
		select {
		case <-timer.C:
		case <-ctx.Done():
			timer.Stop()
			l.remove(w)
			return waitErr(ctx)
		}
	}
}

// promoteLocked closes the head waiter's turn channel exactly once. Must be
// called with l.mu held.
func (l *Limit) promoteLocked() {
	if len(l.waiters) > 0 && !l.waiters[0].promoted {
		l.waiters[0].promoted = true
		close(l.waiters[0].turn)
	}
}

// remove drops a waiter from the queue and promotes the next head.
func (l *Limit) remove(w *waiter) {
	l.mu.Lock()
	defer l.mu.Unlock()
	for i, x := range l.waiters {
		if x == w {
			l.waiters = append(l.waiters[:i], l.waiters[i+1:]...)
			break
		}
	}
	l.promoteLocked()
}

func (l *Limit) observe() {
	l.mu.Lock()
	queued := len(l.waiters)
	l.mu.Unlock()
	l.notifier.ObserveState(l.amount, l.strat.outstanding(), queued)
}

func waitErr(ctx context.Context) error {
	if errors.Is(ctx.Err(), context.DeadlineExceeded) {
		return gaerrors.ErrQueueTimeout
	}
	return ctx.Err()
}
