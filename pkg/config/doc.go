/*
Package config builds limits from YAML declarations.

A document lists limiters by name:

	limits:
	  - name: db
	    type: fixed
	    amount: 20
	    queue-length: 10
	    queue-timeout: PT1S
	  - name: outbound
	    type: throughput
	    amount: 100
	    duration: PT1S
	    rate-limiting-algorithm: token-bucket
	  - name: backend
	    type: aimd
	    initial-limit: 20
	    max-limit: 100
	    backoff-ratio: 0.9

Durations accept ISO-8601 ("PT1S", "PT1M30S") and Go syntax ("200ms").
Runtime collaborators that configuration cannot express, such as listeners
or a shared permit store, are passed through BuildOptions:

	cfgs, err := config.Load("limits.yaml")
	if err != nil {
		log.Fatal(err)
	}
	registry, err := config.BuildAll(cfgs, config.BuildOptions{
		Listeners: []limit.Listener{limit.NewMetricsListener(nil)},
	})
	if err != nil {
		log.Fatal(err)
	}

	dbLimit, _ := registry.Get("db")
*/
package config
