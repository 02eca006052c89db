package distributed

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync/atomic"
	"time"

	"github.com/redis/go-redis/v9"

	gaerrors "github.com/goadmit/goadmit/pkg/common/errors"
	"github.com/goadmit/goadmit/pkg/common/validation"
	"github.com/goadmit/goadmit/pkg/limit"
)

const (
	// DefaultQueueLength bounds waiters in this process, when unset.
	DefaultQueueLength = 10

	// DefaultQueueTimeout bounds how long a caller waits for a permit.
	DefaultQueueTimeout = time.Second

	// DefaultRedisTimeout bounds each Redis round trip.
	DefaultRedisTimeout = 500 * time.Millisecond

	// DefaultKeyTTL is how long idle limiter keys live in Redis.
	DefaultKeyTTL = time.Hour
)

// Config holds configuration options for creating a distributed limit.
type Config struct {
	// Name identifies the limiter instance.
	Name string

	// Redis is the client used for coordination.
	Redis redis.UniversalClient

	// Key is the Redis key prefix shared by all instances of this limiter.
	Key string

	// Amount is the number of admissions per Period, shared across every
	// process using the same Key.
	Amount int

	// Period is the replenishment window.
	Period time.Duration

	// QueueLength bounds callers waiting in this process. Zero selects
	// DefaultQueueLength; a negative value disables waiting entirely.
	QueueLength int

	// QueueTimeout is the maximum wait before rejection. Zero selects
	// DefaultQueueTimeout.
	QueueTimeout time.Duration

	// RedisTimeout bounds each Redis round trip. Zero selects
	// DefaultRedisTimeout.
	RedisTimeout time.Duration

	// KeyTTL is how long idle limiter keys live in Redis. Zero selects
	// DefaultKeyTTL.
	KeyTTL time.Duration

	// FailOpen admits tasks when Redis is unreachable instead of
	// rejecting them. Defaults to rejecting.
	FailOpen bool

	// Listeners observe admission decisions and outcomes.
	Listeners []limit.Listener

	// Classifier decides the outcome of completed tasks. If nil,
	// limit.DefaultClassifier is used.
	Classifier limit.Classifier

	// Clock provides the current time. If nil, limit.SystemClock is used.
	Clock limit.Clock

	// Logger receives listener failure and fail-open reports. If nil,
	// slog.Default().
	Logger *slog.Logger
}

// Limit is a throughput limit coordinated through Redis: every process
// sharing the same key draws from one token bucket, so the configured rate
// holds across the whole fleet. Bucket state lives in Redis and mutates only
// through a Lua script, keeping refill and consumption atomic.
type Limit struct {
	name           string
	amount         int
	microsPerToken int64
	keys           []string
	redis          redis.UniversalClient
	script         *redis.Script
	redisTimeout   time.Duration
	keyTTL         time.Duration
	failOpen       bool
	queueLength    int
	queueTimeout   time.Duration
	classify       limit.Classifier
	clock          limit.Clock
	logger         *slog.Logger
	notifier       *limit.Notifier

	waiting atomic.Int64
}

// New creates a distributed limit from the given configuration. Bucket
// state is created lazily in Redis on first use, so construction needs no
// round trip.
func New(cfg Config) (*Limit, error) {
	if cfg.Redis == nil {
		return nil, gaerrors.NewValidationError("distributed", "redis", nil, "cannot be nil").
			WithHint("pass a redis.UniversalClient")
	}
	if err := validation.ValidateNotEmpty("distributed", "key", cfg.Key); err != nil {
		return nil, err
	}
	if err := validation.ValidatePositive("distributed", "amount", cfg.Amount); err != nil {
		return nil, err
	}
	if cfg.Period <= 0 {
		return nil, gaerrors.NewValidationError("distributed", "period", cfg.Period, "must be positive").
			WithHint("set a replenishment period such as time.Second")
	}
	// The bucket script counts whole microseconds per token; a rate beyond
	// one admission per microsecond would truncate the interval to zero.
	if cfg.Period.Microseconds() < int64(cfg.Amount) {
		return nil, gaerrors.NewValidationError("distributed", "amount", cfg.Amount,
			"exceeds one admission per microsecond").
			WithHint("reduce amount or extend the period")
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
	redisTimeout := cfg.RedisTimeout
	if redisTimeout <= 0 {
		redisTimeout = DefaultRedisTimeout
	}
	keyTTL := cfg.KeyTTL
	if keyTTL <= 0 {
		keyTTL = DefaultKeyTTL
	}
	clock := cfg.Clock
	if clock == nil {
		clock = limit.SystemClock{}
	}
	logger := cfg.Logger
	if logger == nil {
		logger = slog.Default()
	}

	return &Limit{
		name:           cfg.Name,
		amount:         cfg.Amount,
		microsPerToken: cfg.Period.Microseconds() / int64(cfg.Amount),
		keys:           []string{cfg.Key + ":tokens", cfg.Key + ":last"},
		redis:          cfg.Redis,
		script:         redis.NewScript(luaTryConsume),
		redisTimeout:   redisTimeout,
		keyTTL:         keyTTL,
		failOpen:       cfg.FailOpen,
		queueLength:    queueLength,
		queueTimeout:   queueTimeout,
		classify:       cfg.Classifier,
		clock:          clock,
		logger:         logger,
		notifier:       limit.NewNotifier(limit.TypeThroughput, cfg.Name, cfg.Listeners, logger),
	}, nil
}

// Name identifies the limiter instance.
func (l *Limit) Name() string { return l.name }

// Type reports the limit kind.
func (l *Limit) Type() limit.Type { return limit.TypeThroughput }

// TryAcquire admits one unit of work against the shared bucket, waiting up
// to the queue timeout for a token to accrue. The returned token must be
// resolved exactly once.
func (l *Limit) TryAcquire(ctx context.Context) (*limit.Token, error) {
	waitCtx, cancel := context.WithTimeout(ctx, l.queueTimeout)
	err := l.acquire(waitCtx)
	cancel()
	if err != nil {
		l.notifier.Reject()
		return nil, fmt.Errorf("limit %q: %w", l.name, err)
	}

	contexts := l.notifier.Accept()
	return limit.NewToken(l.clock, contexts, func(o limit.Outcome, elapsed time.Duration) {
		l.notifier.Complete(contexts, o, elapsed)
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

// CurrentLimit returns the configured amount per period.
func (l *Limit) CurrentLimit() int { return l.amount }

// Queued returns the number of callers waiting in this process.
func (l *Limit) Queued() int { return int(l.waiting.Load()) }

func (l *Limit) acquire(ctx context.Context) error {
	allowed, wait, err := l.tryConsume(ctx)
	if err != nil {
		return l.redisFailure(err)
	}
	if allowed {
		return nil
	}

	// Token exhausted: join the local wait, bounded like every other
	// limit's queue.
	if int(l.waiting.Add(1)) > l.queueLength {
		l.waiting.Add(-1)
		return gaerrors.ErrQueueFull
	}
	defer l.waiting.Add(-1)

	for {
		if wait <= 0 {
			wait = time.Duration(l.microsPerToken) * time.Microsecond
		}
		if deadline, ok := ctx.Deadline(); ok {
			remaining := time.Until(deadline)
			if remaining <= 0 {
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
			if errors.Is(ctx.Err(), context.DeadlineExceeded) {
				return gaerrors.ErrQueueTimeout
			}
			return ctx.Err()
		}

		allowed, wait, err = l.tryConsume(ctx)
		if err != nil {
			return l.redisFailure(err)
		}
		if allowed {
			return nil
		}
	}
}

func (l *Limit) redisFailure(err error) error {
	if l.failOpen {
		l.logger.Warn("redis unreachable, admitting without coordination",
			"limit", l.name,
			"error", err,
		)
		return nil
	}
	return fmt.Errorf("redis coordination failed: %w", err)
}

// tryConsume runs the bucket script once. It returns whether a token was
// granted and, if not, how long until the next one accrues.
func (l *Limit) tryConsume(ctx context.Context) (bool, time.Duration, error) {
	opCtx, cancel := context.WithTimeout(ctx, l.redisTimeout)
	defer cancel()

	res, err := l.script.Run(opCtx, l.redis, l.keys,
		l.clock.Now().UnixMicro(),
		l.microsPerToken,
		l.amount,
		int64(l.keyTTL.Seconds()),
	).Int64Slice()
	if err != nil {
		return false, 0, err
	}
	if len(res) != 2 {
		return false, 0, fmt.Errorf("unexpected script result %v", res)
	}

	return res[0] == 1, time.Duration(res[1]) * time.Microsecond, nil
}

// luaTryConsume refills and consumes atomically. Times are integer
// microseconds; the last-refill timestamp advances by exactly the accrued
// interval so fractional progress toward the next token is never lost.
const luaTryConsume = `
local tokens_key = KEYS[1]
local last_key = KEYS[2]

local now = tonumber(ARGV[1])
local micros_per_token = tonumber(ARGV[2])
local capacity = tonumber(ARGV[3])
local ttl = tonumber(ARGV[4])

local tokens = tonumber(redis.call('GET', tokens_key))
local last = tonumber(redis.call('GET', last_key))
if tokens == nil or last == nil then
    tokens = capacity
    last = now
end

local elapsed = now - last
if elapsed >= micros_per_token then
    local accrued = math.floor(elapsed / micros_per_token)
    if tokens + accrued >= capacity then
        tokens = capacity
        last = now
    else
        tokens = tokens + accrued
        last = last + accrued * micros_per_token
    end
end

local allowed = 0
local wait = 0
if tokens >= 1 then
    tokens = tokens - 1
    allowed = 1
else
    wait = micros_per_token - (now - last)
    if wait < 0 then
        wait = 0
    end
end

redis.call('SET', tokens_key, tokens, 'EX', ttl)
redis.call('SET', last_key, last, 'EX', ttl)

return {allowed, wait}
`
