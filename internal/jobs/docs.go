// Package jobs runs the simulator's background work: the configurable
// jittered workers (order, bundle, customer, driver, store generation and
// prediction retries) and the fixed-cadence cron jobs that progress
// deliveries and sample cancellations.
//
// # Workers
//
// Each Worker is an independent goroutine loop with its own interval,
// jittered +-20% per tick. Workers are registered in a Registry which is
// the control surface's view of them: per-worker start/stop, a status
// report, and batched interval updates keyed by the six
// *_interval_seconds configuration keys. A failed or panicked tick is
// logged and followed by a 10s backoff; it never terminates the loop.
//
// # Cron jobs
//
// DeliverySimulationJob and CancellationJob use github.com/robfig/cron/v3
// on fixed schedules, since their cadence is not part of the configurable
// surface.
//
// # Usage
//
//	registry, err := jobs.NewRegistry(workers...)
//	if err != nil {
//		log.Fatal(err)
//	}
//	jobManager := jobs.NewJobManager(registry, deliveryJob, cancellationJob)
//
//	if err := jobManager.StartAll(); err != nil {
//		log.Fatal("Failed to start jobs:", err)
//	}
//	defer jobManager.StopAll()
package jobs
