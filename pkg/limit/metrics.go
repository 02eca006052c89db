package limit

import (
	"time"

	"github.com/goadmit/goadmit/pkg/metrics"
)

// MetricsListener feeds admission decisions and outcomes into a Prometheus
// metrics registry. It aggregates in-process only, so its contexts are never
// propagated downstream.
type MetricsListener struct {
	registry *metrics.Registry
}

// NewMetricsListener creates a listener backed by the given registry. A nil
// registry falls back to metrics.DefaultRegistry.
func NewMetricsListener(registry *metrics.Registry) *MetricsListener {
	if registry == nil {
		registry = metrics.DefaultRegistry
	}
	return &MetricsListener{registry: registry}
}

type metricsContext struct {
	limitType Type
	limitName string
	registry  *metrics.Registry
}

func (*metricsContext) ShouldPropagate() bool { return false }

// DeferredAccept counts the admission and returns a context carrying the
// limit identity for OnComplete.
func (ml *MetricsListener) DeferredAccept(limitType Type, limitName string) ListenerContext {
	ml.registry.AdmissionAccepted.WithLabelValues(string(limitType), limitName).Inc()
	return &metricsContext{limitType: limitType, limitName: limitName, registry: ml.registry}
}

// DeferredReject counts the rejection. No context is needed: rejected tasks
// never complete.
func (ml *MetricsListener) DeferredReject(limitType Type, limitName string) ListenerContext {
	ml.registry.AdmissionRejected.WithLabelValues(string(limitType), limitName).Inc()
	return nil
}

// OnComplete records the resolved outcome and task duration.
func (ml *MetricsListener) OnComplete(lc ListenerContext, outcome Outcome, elapsed time.Duration) {
	mc, ok := lc.(*metricsContext)
	if !ok {
		return
	}
	labels := []string{string(mc.limitType), mc.limitName}
	mc.registry.AdmissionOutcomes.WithLabelValues(string(mc.limitType), mc.limitName, outcome.String()).Inc()
	mc.registry.TaskDuration.WithLabelValues(labels...).Observe(elapsed.Seconds())
}

// ObserveState updates the state gauges for the limit.
func (ml *MetricsListener) ObserveState(limitType Type, limitName string, currentLimit, outstanding, queued int) {
	labels := []string{string(limitType), limitName}
	ml.registry.CurrentLimit.WithLabelValues(labels...).Set(float64(currentLimit))
	ml.registry.Outstanding.WithLabelValues(labels...).Set(float64(outstanding))
	ml.registry.QueuedWaiters.WithLabelValues(labels...).Set(float64(queued))
}
