package jobs

import (
	"fmt"
)

// JobManager coordinates all background work in the application: the
// worker registry plus the fixed-cadence cron jobs.
type JobManager struct {
	registry        *Registry
	deliveryJob     *DeliverySimulationJob
	cancellationJob *CancellationJob
}

// NewJobManager creates a job manager over an already-populated registry
// and the cron jobs.
func NewJobManager(
	registry *Registry,
	deliveryJob *DeliverySimulationJob,
	cancellationJob *CancellationJob,
) *JobManager {
	return &JobManager{
		registry:        registry,
		deliveryJob:     deliveryJob,
		cancellationJob: cancellationJob,
	}
}

// Registry exposes the worker registry to the control surface.
func (jm *JobManager) Registry() *Registry {
	return jm.registry
}

// StartAll starts the cron jobs and every registered worker.
// Returns an error if a cron job fails to start.
func (jm *JobManager) StartAll() error {
	if err := jm.deliveryJob.Start(); err != nil {
		return fmt.Errorf("failed to start delivery simulation job: %w", err)
	}

	if err := jm.cancellationJob.Start(); err != nil {
		// Stop already started jobs if this one fails
		jm.deliveryJob.Stop()
		return fmt.Errorf("failed to start cancellation job: %w", err)
	}

	jm.registry.StartAll()
	return nil
}

// StopAll stops all background work gracefully.
func (jm *JobManager) StopAll() {
	jm.registry.StopAll()
	jm.cancellationJob.Stop()
	jm.deliveryJob.Stop()
}
