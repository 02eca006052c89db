package aimd

import (
	"context"
	"fmt"
	"log/slog"
	"math"
	"sync"
	"time"

	"github.com/goadmit/goadmit/pkg/common/validation"
	"github.com/goadmit/goadmit/pkg/limit"
	"github.com/goadmit/goadmit/pkg/limit/semaphore"
)

const (
	// DefaultMinLimit is the floor the ceiling never shrinks below.
	DefaultMinLimit = 1

	// DefaultMaxLimit is the cap the ceiling never grows above.
	DefaultMaxLimit = 200

	// DefaultInitialLimit is the starting ceiling.
	DefaultInitialLimit = 20

	// DefaultBackoffRatio is the multiplicative decrease applied on a drop.
	DefaultBackoffRatio = 0.9

	// DefaultQueueLength is the number of waiters queued once capacity is
	// exhausted, when the config leaves it unset.
	DefaultQueueLength = 10

	// DefaultQueueTimeout bounds how long a caller waits for a permit.
	DefaultQueueTimeout = time.Second
)

// Config holds configuration options for creating an AIMD limit.
type Config struct {
	// Name identifies the limiter instance.
	Name string

	// MinLimit is the smallest ceiling the limit may shrink to. Zero
	// selects DefaultMinLimit.
	MinLimit int

	// MaxLimit is the largest ceiling the limit may grow to. Zero selects
	// DefaultMaxLimit.
	MaxLimit int

	// InitialLimit is the starting ceiling. Zero selects
	// DefaultInitialLimit, clamped into [MinLimit, MaxLimit].
	InitialLimit int

	// BackoffRatio scales the ceiling down on a dropped outcome. Must lie
	// strictly between 0 and 1. Zero selects DefaultBackoffRatio.
	BackoffRatio float64

	// QueueLength is the maximum number of waiters queued once capacity is
	// exhausted. Zero selects DefaultQueueLength; a negative value disables
	// queueing entirely.
	QueueLength int

	// QueueTimeout is the maximum wait before rejection. Zero selects
	// DefaultQueueTimeout.
	QueueTimeout time.Duration

	// Listeners observe admission decisions and outcomes.
	Listeners []limit.Listener

	// Classifier decides the outcome of completed tasks. If nil,
	// limit.DefaultClassifier is used. AIMD limits usually pair this with
	// limit.LatencyThreshold so slow successes count as drops.
	Classifier limit.Classifier

	// Clock provides the current time. If nil, limit.SystemClock is used.
	Clock limit.Clock

	// Logger receives listener failure reports. If nil, slog.Default().
	Logger *slog.Logger
}

// Limit is an adaptive concurrency ceiling driven by observed outcomes:
// additive increase of one permit per success, multiplicative decrease by
// the backoff ratio per drop. Ignored outcomes leave the ceiling untouched.
type Limit struct {
	name         string
	min          int
	max          int
	backoff      float64
	sem          *semaphore.Semaphore
	queueTimeout time.Duration
	classify     limit.Classifier
	clock        limit.Clock
	notifier     *limit.Notifier

	// adjustMu serializes ceiling mutations so concurrent outcomes cannot
	// interleave a read-modify-write.
	adjustMu sync.Mutex
	current  int
}

// New creates an AIMD limit from the given configuration.
func New(cfg Config) (*Limit, error) {
	min := cfg.MinLimit
	if min == 0 {
		min = DefaultMinLimit
	}
	max := cfg.MaxLimit
	if max == 0 {
		max = DefaultMaxLimit
	}
	initial := cfg.InitialLimit
	if initial == 0 {
		initial = DefaultInitialLimit
		if initial < min {
			initial = min
		}
		if initial > max {
			initial = max
		}
	}
	backoff := cfg.BackoffRatio
	if backoff == 0 {
		backoff = DefaultBackoffRatio
	}

	if err := validation.ValidatePositive("aimd", "min-limit", min); err != nil {
		return nil, err
	}
	if err := validation.ValidateRange("aimd", "max-limit", max, min, math.MaxInt); err != nil {
		return nil, err
	}
	if err := validation.ValidateRange("aimd", "initial-limit", initial, min, max); err != nil {
		return nil, err
	}
	if err := validation.ValidateRatio("aimd", "backoff-ratio", backoff); err != nil {
		return nil, err
	}

	queueLength := cfg.QueueLength
	switch {
	case queueLength == 0:
		queueLength = DefaultQueueLength
	case queueLength < 0:
		queueLength = 0
	}
	sem, err := semaphore.New(initial, queueLength)
	if err != nil {
		return nil, err
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
		min:          min,
		max:          max,
		backoff:      backoff,
		sem:          sem,
		queueTimeout: queueTimeout,
		classify:     cfg.Classifier,
		clock:        clock,
		notifier:     limit.NewNotifier(limit.TypeAimd, cfg.Name, cfg.Listeners, cfg.Logger),
		current:      initial,
	}, nil
}

// Name identifies the limiter instance.
func (l *Limit) Name() string { return l.name }

// Type reports the limit kind.
func (l *Limit) Type() limit.Type { return limit.TypeAimd }

// TryAcquire admits one unit of work, waiting up to the queue timeout for a
// permit. The returned token must be resolved exactly once; the outcome it
// resolves with drives the ceiling.
func (l *Limit) TryAcquire(ctx context.Context) (*limit.Token, error) {
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
		l.onOutcome(o)
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

// CurrentLimit returns the present adaptive ceiling.
func (l *Limit) CurrentLimit() int {
	l.adjustMu.Lock()
	defer l.adjustMu.Unlock()
	return l.current
}

// Outstanding returns the number of admitted, unresolved tasks.
func (l *Limit) Outstanding() int { return l.sem.InUse() }

// Queued returns the number of callers waiting for a permit.
func (l *Limit) Queued() int { return l.sem.Waiting() }

// onOutcome applies the AIMD adjustment for one resolved task. The permit
// store follows the ceiling so waiters see growth immediately and shrinks
// are absorbed as work completes.
func (l *Limit) onOutcome(o limit.Outcome) {
	l.adjustMu.Lock()
	defer l.adjustMu.Unlock()

	next := l.current
	switch o {
	case limit.OutcomeSuccess:
		if next < l.max {
			next++
		}
	case limit.OutcomeDropped:
		next = int(math.Floor(float64(next) * l.backoff))
		if next < l.min {
			next = l.min
		}
	case limit.OutcomeIgnored:
		return
	}

	if next != l.current {
		l.current = next
		l.sem.SetCapacity(next)
	}
}

func (l *Limit) observe() {
	l.notifier.ObserveState(l.sem.Capacity(), l.sem.InUse(), l.sem.Waiting())
}
