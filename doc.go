/*
Package goadmit provides adaptive concurrency limiting and admission control
for Go applications.

Admission Control (pkg/limit):
  - limit: the Limit facade, tokens, outcomes, and listener hooks
  - semaphore: counting permit store with a bounded FIFO wait queue
  - fixed: static concurrency ceiling
  - throughput: rate-based ceiling (token bucket or fixed-rate cadence)
  - aimd: adaptive ceiling driven by observed outcomes (AIMD feedback)
  - distributed: one admission budget shared across instances via Redis
  - schedule: cron-driven capacity plans for shared permit stores

Configuration (pkg/config):
  - YAML binding, ISO-8601 durations, and a named limit registry

Example usage:

	import (
		"github.com/goadmit/goadmit/pkg/limit"
		"github.com/goadmit/goadmit/pkg/limit/aimd"
	)

	lim, _ := aimd.New(aimd.Config{Name: "backend", InitialLimit: 20})

	err := lim.Invoke(ctx, func() error {
		return callBackend()
	})
	if gaerrors.IsRejection(err) {
		// shed load
	}
*/
package goadmit
