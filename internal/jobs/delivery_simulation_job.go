package jobs

import (
	"context"
	"log/slog"

	"grocery/internal/core/application/usecases/commands"

	"github.com/robfig/cron/v3"
)

// DeliverySimulationJob advances active bundles on a fixed cadence.
// Runs every second so picking and per-stop delivery progress close to
// real time regardless of the configurable worker intervals.
type DeliverySimulationJob struct {
	handler commands.AdvanceDeliveriesCommandHandler
	cron    *cron.Cron
	logger  *slog.Logger
}

// NewDeliverySimulationJob creates the delivery progression job.
func NewDeliverySimulationJob(handler commands.AdvanceDeliveriesCommandHandler, logger *slog.Logger) *DeliverySimulationJob {
	return &DeliverySimulationJob{
		handler: handler,
		cron:    cron.New(cron.WithSeconds()),
		logger:  logger.With("component", "delivery_simulation_job"),
	}
}

// Start begins the delivery simulation to run every second.
func (j *DeliverySimulationJob) Start() error {
	_, err := j.cron.AddFunc("* * * * * *", func() {
		ctx := context.Background()
		cmd := commands.NewAdvanceDeliveriesCommand()

		if err := j.handler.Handle(ctx, cmd); err != nil {
			j.logger.ErrorContext(ctx, "Delivery simulation job failed", "error", err)
		}
	})

	if err != nil {
		return err
	}

	j.cron.Start()
	j.logger.InfoContext(context.Background(), "Delivery simulation job started (running every second)")
	return nil
}

// Stop stops the delivery simulation job.
func (j *DeliverySimulationJob) Stop() {
	j.cron.Stop()
	j.logger.InfoContext(context.Background(), "Delivery simulation job stopped")
}
