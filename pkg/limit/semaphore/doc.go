/*
Package semaphore provides the shared permit store used by the limit
implementations: a counting semaphore with a bounded FIFO wait queue.

Basic usage:

	store, err := semaphore.New(10, 5) // 10 permits, up to 5 queued waiters
	if err != nil {
		log.Fatal(err)
	}

	ctx, cancel := context.WithTimeout(ctx, time.Second)
	defer cancel()

	if err := store.Acquire(ctx); err != nil {
		// gaerrors.ErrQueueFull or gaerrors.ErrQueueTimeout
		return err
	}
	defer store.Release()

Semantics:

  - A permit immediately available is taken without queueing.
  - Once capacity is exhausted, callers queue up to the configured queue
    length; a full queue rejects immediately without blocking.
  - Released permits are handed directly to the head waiter, so waiters
    are served in FIFO arrival order. No ordering is guaranteed between a
    waiter and a caller that finds a permit free.
  - A cancelled or timed-out waiter consumes nothing.
  - SetCapacity resizes the store at runtime; the adaptive limits use this
    to follow their current ceiling.

A store can be shared between several limits (or sized by a capacity plan,
see pkg/limit/schedule) by injecting it at limit construction time.

At any instant, available + in-use permits equal the capacity, except
transiently after a shrink, where the deficit is absorbed as outstanding
work completes.
*/
package semaphore
