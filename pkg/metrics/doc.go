// Package metrics provides Prometheus instrumentation for goadmit components.
//
// The metrics package provides automatic instrumentation for admission
// control: accept/reject decisions, resolved outcomes, task duration, the
// current concurrency ceiling, and queue depth.
//
// # Quick Start
//
// Attach a metrics listener to any limit:
//
//	lim, _ := aimd.New(aimd.Config{
//		Name:      "backend",
//		Listeners: []limit.Listener{limit.NewMetricsListener(metrics.DefaultRegistry)},
//	})
//
// Then expose metrics via HTTP:
//
//	http.Handle("/metrics", promhttp.Handler())
//	log.Fatal(http.ListenAndServe(":8080", nil))
//
// # Available Metrics
//
//   - goadmit_limit_accepted_total: Total number of admitted tasks
//   - goadmit_limit_rejected_total: Total number of rejected tasks
//   - goadmit_limit_outcomes_total: Resolved outcomes by kind (success/dropped/ignored)
//   - goadmit_limit_task_duration_seconds: Time between admission and resolution
//   - goadmit_limit_current_limit: Current concurrency ceiling
//   - goadmit_limit_outstanding: Admitted tasks not yet resolved
//   - goadmit_limit_queued_waiters: Callers waiting for a permit
//
// All metrics carry limit_type and limit_name labels.
//
// # Custom Registry
//
// Use a custom Prometheus registry for isolation:
//
//	registry := prometheus.NewRegistry()
//	reg := metrics.NewRegistry(registry)
//	listener := limit.NewMetricsListener(reg)
//
// # Performance
//
// Listener callbacks run synchronously on the hot path; the metrics listener
// only bumps pre-built counter vecs and never blocks.
package metrics
