/*
Package schedule resizes permit stores on a cron schedule.

A plan binds capacity windows to a Resizable target, typically a shared
semaphore injected into one or more limits:

	store, _ := semaphore.New(20, 10)
	lim, _ := fixed.New(fixed.Config{Name: "batch", Store: store})

	plan, err := schedule.New(schedule.Config{
		Name:   "batch-hours",
		Target: store,
		Windows: []schedule.Window{
			{Spec: "0 9 * * 1-5", Capacity: 50},  // weekday business hours
			{Spec: "0 18 * * 1-5", Capacity: 20}, // evenings
		},
	})
	if err != nil {
		log.Fatal(err)
	}
	plan.Start()
	defer plan.Stop()

Capacity changes never interrupt running work: growth admits queued
callers immediately, shrinks take effect as tasks complete.
*/
package schedule
