package limit

import (
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	promtestutil "github.com/prometheus/client_golang/prometheus/testutil"

	"github.com/goadmit/goadmit/internal/testutil"
	"github.com/goadmit/goadmit/pkg/metrics"
)

func newTestMetrics() *metrics.Registry {
	return metrics.NewRegistry(prometheus.NewRegistry())
}

func TestMetricsListenerCountsDecisions(t *testing.T) {
	reg := newTestMetrics()
	ml := NewMetricsListener(reg)

	lc := ml.DeferredAccept(TypeFixed, "api")
	ml.DeferredAccept(TypeFixed, "api")
	ml.DeferredReject(TypeFixed, "api")

	accepted := promtestutil.ToFloat64(reg.AdmissionAccepted.WithLabelValues("fixed", "api"))
	rejected := promtestutil.ToFloat64(reg.AdmissionRejected.WithLabelValues("fixed", "api"))
	testutil.AssertEqual(t, accepted, 2.0)
	testutil.AssertEqual(t, rejected, 1.0)

	// Metrics contexts never leave the process.
	testutil.AssertEqual(t, lc.ShouldPropagate(), false)
}

func TestMetricsListenerRecordsOutcomes(t *testing.T) {
	reg := newTestMetrics()
	ml := NewMetricsListener(reg)

	lc := ml.DeferredAccept(TypeAimd, "backend")
	ml.OnComplete(lc, OutcomeDropped, 30*time.Millisecond)

	dropped := promtestutil.ToFloat64(reg.AdmissionOutcomes.WithLabelValues("aimd", "backend", "dropped"))
	testutil.AssertEqual(t, dropped, 1.0)

	// A nil context (from another listener's reject) is skipped quietly.
	ml.OnComplete(nil, OutcomeSuccess, time.Millisecond)
	success := promtestutil.ToFloat64(reg.AdmissionOutcomes.WithLabelValues("aimd", "backend", "success"))
	testutil.AssertEqual(t, success, 0.0)
}

func TestMetricsListenerObservesState(t *testing.T) {
	reg := newTestMetrics()
	ml := NewMetricsListener(reg)

	ml.ObserveState(TypeAimd, "backend", 25, 10, 3)

	testutil.AssertEqual(t, promtestutil.ToFloat64(reg.CurrentLimit.WithLabelValues("aimd", "backend")), 25.0)
	testutil.AssertEqual(t, promtestutil.ToFloat64(reg.Outstanding.WithLabelValues("aimd", "backend")), 10.0)
	testutil.AssertEqual(t, promtestutil.ToFloat64(reg.QueuedWaiters.WithLabelValues("aimd", "backend")), 3.0)
}

func TestMetricsListenerDefaultRegistry(t *testing.T) {
	ml := NewMetricsListener(nil)
	testutil.AssertEqual(t, ml.registry == metrics.DefaultRegistry, true)
}
