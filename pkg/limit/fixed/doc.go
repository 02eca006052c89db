/*
Package fixed provides a static concurrency ceiling.

A fixed limit admits at most Permits tasks at once. Further callers queue
up to QueueLength and wait at most QueueTimeout; beyond that they are
rejected. Permits return only when tasks complete. It is the baseline limit
and the building block the adaptive limit grows from.

Basic usage:

	lim, err := fixed.New(fixed.Config{
		Name:    "db",
		Permits: 20,
	})
	if err != nil {
		log.Fatal(err)
	}

	err = lim.Invoke(ctx, func() error {
		return queryDatabase()
	})

Zero Permits with no injected store means unlimited pass-through: every
task is admitted trivially, though listeners still observe outcomes.

A shared store can be injected to split one capacity budget between
several limits:

	store, _ := semaphore.New(50, 10)
	readLimit, _ := fixed.New(fixed.Config{Name: "reads", Store: store})
	writeLimit, _ := fixed.New(fixed.Config{Name: "writes", Store: store})
*/
package fixed
