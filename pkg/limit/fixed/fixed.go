package fixed

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/goadmit/goadmit/pkg/common/validation"
	"github.com/goadmit/goadmit/pkg/limit"
	"github.com/goadmit/goadmit/pkg/limit/semaphore"
)

const (
	// DefaultQueueLength is the number of waiters queued once capacity is
	// exhausted, when the config leaves it unset.
	DefaultQueueLength = 10

	// DefaultQueueTimeout bounds how long a caller waits for a permit.
	DefaultQueueTimeout = time.Second
)

// Config holds configuration options for creating a fixed limit.
type Config struct {
	// Name identifies the limiter instance.
	Name string

	// Permits is the static concurrency ceiling. Zero means unlimited
	// unless a Store is supplied.
	Permits int

	// QueueLength is the maximum number of waiters queued once capacity
	// is exhausted. Zero selects DefaultQueueLength; a negative value
	// disables queueing entirely (immediate rejection at capacity).
	QueueLength int

	// QueueTimeout is the maximum wait before rejection. Zero selects
	// DefaultQueueTimeout.
	QueueTimeout time.Duration

	// Store is an externally supplied permit store, bypassing
	// configuration-driven sizing. Useful for tests and for sharing
	// capacity across limiters.
	Store *semaphore.Semaphore

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

// Limit is a static concurrency ceiling: the configured capacity never
// changes at runtime and permits return only on task completion.
type Limit struct {
	name         string
	sem          *semaphore.Semaphore // nil means unlimited
	queueTimeout time.Duration
	classify     limit.Classifier
	clock        limit.Clock
	notifier     *limit.Notifier
}

// New creates a fixed limit from the given configuration.
func New(cfg Config) (*Limit, error) {
	if cfg.Permits < 0 {
		return nil, validation.ValidateNonNegative("fixed", "permits", cfg.Permits)
	}

	sem := cfg.Store
	if sem == nil && cfg.Permits > 0 {
		queueLength := cfg.QueueLength
		switch {
		case queueLength == 0:
			queueLength = DefaultQueueLength
		case queueLength < 0:
			queueLength = 0
		}
		var err error
		sem, err = semaphore.New(cfg.Permits, queueLength)
		if err != nil {
			return nil, err
		}
	}

	queueTimeout := cfg.QueueTimeout
	if queueTimeout <= 0 {
		queueTimeout = DefaultQueueTimeout
	}

	clock := cfg.Clock
	if clock == nil {
		clock = limit.SystemClock{}
	}

	return &Limit{
		name:         cfg.Name,
		sem:          sem,
		queueTimeout: queueTimeout,
		classify:     cfg.Classifier,
		clock:        clock,
		notifier:     limit.NewNotifier(limit.TypeFixed, cfg.Name, cfg.Listeners, cfg.Logger),
	}, nil
}

// Name identifies the limiter instance.
func (l *Limit) Name() string { return l.name }

// Type reports the limit kind.
func (l *Limit) Type() limit.Type { return limit.TypeFixed }

// TryAcquire admits one unit of work, waiting up to the queue timeout for
// a permit. The returned token must be resolved exactly once.
func (l *Limit) TryAcquire(ctx context.Context) (*limit.Token, error) {
	if l.sem == nil {
		// Unlimited: admission is trivial but outcomes still reach listeners.
		contexts := l.notifier.Accept()
		return limit.NewToken(l.clock, contexts, func(o limit.Outcome, elapsed time.Duration) {
			l.notifier.Complete(contexts, o, elapsed)
		}), nil
	}

	waitCtx, cancel := context.WithTimeout(ctx, l.queueTimeout)
	err := l.sem.Acquire(waitCtx)
	cancel()
	if err != nil {
		l.notifier.Reject()
		return nil, fmt.Errorf("limit %q: %w", l.name, err)
	}

	contexts := l.notifier.Accept()
	l.observe()
	return limit.NewToken(l.clock, contexts, func(o limit.Outcome, elapsed time.Duration) {
		l.sem.Release()
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

// CurrentLimit returns the configured ceiling, or zero when unlimited.
func (l *Limit) CurrentLimit() int {
	if l.sem == nil {
		return 0
	}
	return l.sem.Capacity()
}

// Outstanding returns the number of admitted, unresolved tasks.
func (l *Limit) Outstanding() int {
	if l.sem == nil {
		return 0
	}
	return l.sem.InUse()
}

// Queued returns the number of callers waiting for a permit.
func (l *Limit) Queued() int {
	if l.sem == nil {
		return 0
	}
	return l.sem.Waiting()
}

func (l *Limit) observe() {
	l.notifier.ObserveState(l.sem.Capacity(), l.sem.InUse(), l.sem.Waiting())
}
