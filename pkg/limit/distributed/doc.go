/*
Package distributed provides a throughput limit coordinated through Redis.

Every process configured with the same key draws from one token bucket, so
the rate holds across a whole fleet rather than per instance. Bucket state
lives in Redis and mutates only through a Lua script, keeping refill and
consumption atomic under concurrent access from many processes.

Basic usage:

	client := redis.NewClient(&redis.Options{Addr: "localhost:6379"})

	lim, err := distributed.New(distributed.Config{
		Name:   "fleet-outbound",
		Redis:  client,
		Key:    "goadmit:outbound",
		Amount: 1000,
		Period: time.Second,
	})
	if err != nil {
		log.Fatal(err)
	}

	err = lim.Invoke(ctx, func() error {
		return callDownstream()
	})

When Redis is unreachable the limit rejects by default; set FailOpen to
admit uncoordinated instead, trading rate accuracy for availability.
*/
package distributed
