/*
Package aimd provides an adaptive concurrency limit using additive
increase, multiplicative decrease.

The ceiling starts at InitialLimit and moves with observed outcomes: each
success grows it by one permit (up to MaxLimit), each drop scales it by
BackoffRatio (down to MinLimit), and ignored outcomes leave it alone. The
underlying permit store is resized to follow, so queued callers benefit
from growth immediately and shrinks are absorbed as running work completes.

Basic usage:

	lim, err := aimd.New(aimd.Config{
		Name:         "backend",
		InitialLimit: 20,
		MaxLimit:     100,
		BackoffRatio: 0.9,
		Classifier:   limit.LatencyThreshold(200 * time.Millisecond),
	})
	if err != nil {
		log.Fatal(err)
	}

	err = lim.Invoke(ctx, func() error {
		return callBackend()
	})

With LatencyThreshold, responses slower than the threshold count as drops
and shrink the ceiling even though they returned no error. Use
limit.Ignore to exclude unrelated failures from the feedback loop.
*/
package aimd
