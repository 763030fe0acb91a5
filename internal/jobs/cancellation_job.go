package jobs

import (
	"context"
	"log/slog"

	"grocery/internal/core/application/usecases/commands"

	"github.com/robfig/cron/v3"
)

// CancellationJob rolls the cancellation sampler on a fixed cadence.
// Runs every ten seconds; the sampler's per-tick probability controls how
// often a roll actually cancels an order.
type CancellationJob struct {
	handler commands.SampleCancellationCommandHandler
	cron    *cron.Cron
	logger  *slog.Logger
}

// NewCancellationJob creates the cancellation sampling job.
func NewCancellationJob(handler commands.SampleCancellationCommandHandler, logger *slog.Logger) *CancellationJob {
	return &CancellationJob{
		handler: handler,
		cron:    cron.New(cron.WithSeconds()),
		logger:  logger.With("component", "cancellation_job"),
	}
}

// Start begins the cancellation sampling to run every ten seconds.
func (j *CancellationJob) Start() error {
	_, err := j.cron.AddFunc("*/10 * * * * *", func() {
		ctx := context.Background()
		cmd := commands.NewSampleCancellationCommand()

		if err := j.handler.Handle(ctx, cmd); err != nil {
			j.logger.ErrorContext(ctx, "Cancellation sampling job failed", "error", err)
		}
	})

	if err != nil {
		return err
	}

	j.cron.Start()
	j.logger.InfoContext(context.Background(), "Cancellation sampling job started (running every ten seconds)")
	return nil
}

// Stop stops the cancellation sampling job.
func (j *CancellationJob) Stop() {
	j.cron.Stop()
	j.logger.InfoContext(context.Background(), "Cancellation sampling job stopped")
}
