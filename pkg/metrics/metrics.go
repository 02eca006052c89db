// Package metrics provides Prometheus instrumentation for goadmit components.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Registry holds all metric instances for goadmit components.
type Registry struct {
	// Admission Metrics
	AdmissionAccepted *prometheus.CounterVec
	AdmissionRejected *prometheus.CounterVec
	AdmissionOutcomes *prometheus.CounterVec
	TaskDuration      *prometheus.HistogramVec
	CurrentLimit      *prometheus.GaugeVec
	Outstanding       *prometheus.GaugeVec
	QueuedWaiters     *prometheus.GaugeVec
}

// DefaultRegistry is the default metrics registry used by goadmit components.
var DefaultRegistry *Registry

func init() {
	DefaultRegistry = NewRegistry(prometheus.DefaultRegisterer)
}

// NewRegistry creates a new metrics registry with the given Prometheus registerer.
func NewRegistry(reg prometheus.Registerer) *Registry {
	factory := promauto.With(reg)

	return &Registry{
		AdmissionAccepted: factory.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: "goadmit",
				Subsystem: "limit",
				Name:      "accepted_total",
				Help:      "Total number of admitted tasks",
			},
			[]string{"limit_type", "limit_name"},
		),

		AdmissionRejected: factory.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: "goadmit",
				Subsystem: "limit",
				Name:      "rejected_total",
				Help:      "Total number of rejected tasks",
			},
			[]string{"limit_type", "limit_name"},
		),

		AdmissionOutcomes: factory.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: "goadmit",
				Subsystem: "limit",
				Name:      "outcomes_total",
				Help:      "Resolved task outcomes by kind",
			},
			[]string{"limit_type", "limit_name", "outcome"},
		),

		TaskDuration: factory.NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace: "goadmit",
				Subsystem: "limit",
				Name:      "task_duration_seconds",
				Help:      "Time between admission and outcome resolution",
				Buckets:   prometheus.DefBuckets,
			},
			[]string{"limit_type", "limit_name"},
		),

		CurrentLimit: factory.NewGaugeVec(
			prometheus.GaugeOpts{
				Namespace: "goadmit",
				Subsystem: "limit",
				Name:      "current_limit",
				Help:      "Current concurrency ceiling of the limit",
			},
			[]string{"limit_type", "limit_name"},
		),

		Outstanding: factory.NewGaugeVec(
			prometheus.GaugeOpts{
				Namespace: "goadmit",
				Subsystem: "limit",
				Name:      "outstanding",
				Help:      "Number of admitted tasks not yet resolved",
			},
			[]string{"limit_type", "limit_name"},
		),

		QueuedWaiters: factory.NewGaugeVec(
			prometheus.GaugeOpts{
				Namespace: "goadmit",
				Subsystem: "limit",
				Name:      "queued_waiters",
				Help:      "Number of callers waiting for a permit",
			},
			[]string{"limit_type", "limit_name"},
		),
	}
}
