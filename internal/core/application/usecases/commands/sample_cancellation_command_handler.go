package commands

import (
	"context"

	"grocery/internal/core/domain/services"
)

// SampleCancellationCommandHandler simulates customers changing their mind.
// Each invocation draws at most one active order, weighted toward early
// lifecycle stages, and cancels it.
type SampleCancellationCommandHandler struct {
	uowFactory OrderUoWFactory
	sampler    services.CancellationSampler
}

// NewSampleCancellationCommandHandler creates a handler for cancellation
// sampling.
func NewSampleCancellationCommandHandler(
	uowFactory OrderUoWFactory,
	sampler services.CancellationSampler,
) SampleCancellationCommandHandler {
	return SampleCancellationCommandHandler{
		uowFactory: uowFactory,
		sampler:    sampler,
	}
}

// Handle draws and cancels one active order. A draw with no cancellable
// candidates is a no-op.
func (h SampleCancellationCommandHandler) Handle(ctx context.Context, cmd SampleCancellationCommand) error {
	if err := cmd.Validate(); err != nil {
		return err
	}

	uow := h.uowFactory.Create()
	if err := uow.Begin(ctx); err != nil {
		return err
	}

	defer func() {
		_ = uow.Rollback(ctx)
	}()

	ordersRepo := uow.OrderRepository()
	active, err := ordersRepo.GetAllActive(ctx)
	if err != nil {
		return err
	}

	picked := h.sampler.Sample(active)
	if picked == nil {
		return uow.Commit(ctx)
	}

	if err = picked.Cancel(); err != nil {
		return err
	}
	if err = ordersRepo.Update(ctx, picked); err != nil {
		return err
	}

	return uow.Commit(ctx)
}
