package limit

import (
	"context"
	"log/slog"
	"time"
)

// ListenerContext is an opaque value a listener returns when an admission
// decision is made. Contexts that should reach downstream request-scoped
// logic (for example a tracing filter) report ShouldPropagate true;
// listeners that only aggregate in-process statistics report false.
type ListenerContext interface {
	ShouldPropagate() bool
}

// Listener observes the lifecycle of admission decisions. Callbacks run
// synchronously on the calling goroutine in the hot path and must be cheap:
// no blocking I/O, no heavy allocation. Expensive work belongs wherever the
// ListenerContext is retrieved downstream, not in the callback.
type Listener interface {
	// DeferredAccept is called once per admitted task, before it runs.
	DeferredAccept(limitType Type, limitName string) ListenerContext

	// DeferredReject is called once per rejected task.
	DeferredReject(limitType Type, limitName string) ListenerContext

	// OnComplete is called when an admitted task resolves, with the
	// context returned by this listener's DeferredAccept.
	OnComplete(lc ListenerContext, outcome Outcome, elapsed time.Duration)
}

// StateObserver is an optional extension for listeners that track limiter
// state. After admission decisions and resolutions, limits report their
// current ceiling, outstanding permits, and queue depth to observers.
type StateObserver interface {
	ObserveState(limitType Type, limitName string, currentLimit, outstanding, queued int)
}

// Notifier fans admission events out to a fixed listener list. Listeners
// are independent: a panic in one is logged and never prevents others from
// running, nor does it affect the admission decision.
type Notifier struct {
	limitType Type
	limitName string
	listeners []Listener
	logger    *slog.Logger
}

// NewNotifier creates a notifier for the given limit identity. A nil logger
// falls back to slog.Default().
func NewNotifier(limitType Type, limitName string, listeners []Listener, logger *slog.Logger) *Notifier {
	if logger == nil {
		logger = slog.Default()
	}
	return &Notifier{
		limitType: limitType,
		limitName: limitName,
		listeners: listeners,
		logger:    logger,
	}
}

// Accept notifies every listener of an admitted task and collects their
// contexts, index-aligned with the listener list.
func (n *Notifier) Accept() []ListenerContext {
	if len(n.listeners) == 0 {
		return nil
	}
	contexts := make([]ListenerContext, len(n.listeners))
	for i, l := range n.listeners {
		n.safely(func() {
			contexts[i] = l.DeferredAccept(n.limitType, n.limitName)
		})
	}
	return contexts
}

// Reject notifies every listener of a rejected task.
func (n *Notifier) Reject() {
	for _, l := range n.listeners {
		n.safely(func() {
			l.DeferredReject(n.limitType, n.limitName)
		})
	}
}

// Complete notifies every listener of a resolved task, passing back the
// context that listener returned at admission.
func (n *Notifier) Complete(contexts []ListenerContext, outcome Outcome, elapsed time.Duration) {
	for i, l := range n.listeners {
		var lc ListenerContext
		if i < len(contexts) {
			lc = contexts[i]
		}
		n.safely(func() {
			l.OnComplete(lc, outcome, elapsed)
		})
	}
}

// ObserveState reports limiter state to listeners implementing StateObserver.
func (n *Notifier) ObserveState(currentLimit, outstanding, queued int) {
	for _, l := range n.listeners {
		if so, ok := l.(StateObserver); ok {
			n.safely(func() {
				so.ObserveState(n.limitType, n.limitName, currentLimit, outstanding, queued)
			})
		}
	}
}

func (n *Notifier) safely(fn func()) {
	defer func() {
		if r := recover(); r != nil {
			n.logger.Error("limit listener panicked",
				"limit", n.limitName, "type", string(n.limitType), "panic", r)
		}
	}()
	fn()
}

type decisionsKey struct{}

// WithDecisions stashes the propagatable listener contexts of a token in a
// request-scoped context for retrieval by downstream logic. Contexts that
// report ShouldPropagate false are filtered out.
func WithDecisions(ctx context.Context, contexts []ListenerContext) context.Context {
	var keep []ListenerContext
	for _, lc := range contexts {
		if lc != nil && lc.ShouldPropagate() {
			keep = append(keep, lc)
		}
	}
	if len(keep) == 0 {
		return ctx
	}
	return context.WithValue(ctx, decisionsKey{}, keep)
}

// DecisionsFrom retrieves listener contexts stashed by WithDecisions, or
// nil when none were propagated.
func DecisionsFrom(ctx context.Context) []ListenerContext {
	lcs, _ := ctx.Value(decisionsKey{}).([]ListenerContext)
	return lcs
}
