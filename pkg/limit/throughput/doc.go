/*
Package throughput provides a rate-based limit: permits accrue with the
passage of time instead of returning when tasks complete.

Two replenishment strategies are available:

  - token-bucket (the default) accrues one permit every period/amount and
    allows bursts up to the full amount after idle time.
  - fixed-rate spaces admissions strictly one per period/amount, with no
    burst allowance.

Basic usage:

	lim, err := throughput.New(throughput.Config{
		Name:   "outbound",
		Amount: 100,
		Period: time.Second,
	})
	if err != nil {
		log.Fatal(err)
	}

	err = lim.Invoke(ctx, func() error {
		return callDownstream()
	})

Callers that arrive with no permit accrued queue in FIFO order up to
QueueLength and wait at most QueueTimeout. Only the head of the queue polls
the strategy, so a permit can never be claimed past an earlier waiter.

Zero Amount means unlimited pass-through; listeners still observe outcomes.
*/
package throughput
