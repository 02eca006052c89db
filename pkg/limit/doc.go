/*
Package limit defines the admission-control contract shared by all limit
implementations: the Limit facade, tokens and outcomes, the pluggable
outcome classifier, and listener hooks.

A Limit decides, per unit of work, whether it may proceed immediately, must
wait briefly, or must be rejected. Concrete implementations live in
subpackages:

  - fixed: static concurrency ceiling
  - throughput: rate-based ceiling (token bucket or fixed-rate cadence)
  - aimd: adaptive ceiling driven by observed outcomes
  - distributed: Redis-backed throughput limit shared across instances

Basic usage:

	lim, err := fixed.New(fixed.Config{Name: "db", Permits: 20})
	if err != nil {
		log.Fatal(err)
	}

	err = lim.Invoke(ctx, func() error {
		return queryDatabase()
	})
	if gaerrors.IsRejection(err) {
		// no permit within the queue timeout; shed load
	}

Value-returning tasks:

	rows, err := limit.Do(ctx, lim, func() ([]Row, error) {
		return fetchRows()
	})

Outcomes:

Every admitted task resolves to exactly one outcome. Success grows adaptive
limits, dropped shrinks them, ignored leaves them untouched. By default any
task error counts as dropped; attach a Classifier to fold latency into the
decision:

	lim, err := aimd.New(aimd.Config{
		Name:       "backend",
		Classifier: limit.LatencyThreshold(250 * time.Millisecond),
	})

Excluding a task from adaptive feedback:

	err := lim.Invoke(ctx, func() error {
		if err := rebuildCache(); err != nil {
			return limit.Ignore(err) // caller still sees err
		}
		return nil
	})

Split acquire/complete for callers that cannot wrap their work in a closure:

	tok, err := lim.TryAcquire(ctx)
	if err != nil {
		return err
	}
	// ... do work ...
	tok.Success() // or tok.Dropped() / tok.Ignored()

Listeners:

Listeners observe accept/reject decisions and resolved outcomes. Callbacks
run synchronously on the hot path and must be cheap; a panicking listener is
isolated and logged. Contexts returned by listeners that report
ShouldPropagate true can be stashed request-scoped with WithDecisions and
retrieved downstream with DecisionsFrom. The built-in MetricsListener feeds
a Prometheus registry.
*/
package limit
