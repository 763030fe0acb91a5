package commands

import (
	"context"
	"fmt"
	"time"

	"grocery/internal/core/domain/model/kernel"
	"grocery/internal/core/domain/model/order"
	"grocery/internal/core/ports"
)

// DefaultResendTimeout bounds a manual prediction retry batch. Manual
// retries tolerate a much longer wait than the automatic post-confirmation
// attempt.
const DefaultResendTimeout = 30 * time.Second

// ResendPredictionsCommandHandler retries failed delivery-time predictions
// in one batch call to the prediction service. Orders that score get their
// prediction recorded and the failure flag cleared; a failed batch leaves
// every order flagged for the next retry.
type ResendPredictionsCommandHandler struct {
	uowFactory PredictionUoWFactory
	client     ports.PredictionClient
	timeout    time.Duration
}

// NewResendPredictionsCommandHandler creates a handler for manual prediction
// retries. A non-positive timeout falls back to DefaultResendTimeout.
func NewResendPredictionsCommandHandler(
	uowFactory PredictionUoWFactory,
	client ports.PredictionClient,
	timeout time.Duration,
) ResendPredictionsCommandHandler {
	if timeout <= 0 {
		timeout = DefaultResendTimeout
	}
	return ResendPredictionsCommandHandler{
		uowFactory: uowFactory,
		client:     client,
		timeout:    timeout,
	}
}

// Handle retries up to BatchSize failed predictions and returns how many
// orders were scored.
func (h ResendPredictionsCommandHandler) Handle(ctx context.Context, cmd ResendPredictionsCommand) (int, error) {
	if err := cmd.Validate(); err != nil {
		return 0, err
	}

	failures, stores, err := h.loadFailures(ctx, cmd.BatchSize())
	if err != nil {
		return 0, err
	}
	if len(failures) == 0 {
		return 0, nil
	}

	requests := make([]ports.PredictionRequest, 0, len(failures))
	for _, o := range failures {
		storeLocation, ok := stores[o.StoreID()]
		if !ok {
			return 0, fmt.Errorf("store %s not found for order %s", o.StoreID(), o.ID())
		}
		requests = append(requests, ports.PredictionRequest{
			OrderID:          o.ID(),
			CustomerID:       o.CustomerID(),
			StoreID:          o.StoreID(),
			StoreLocation:    storeLocation,
			DeliveryLocation: o.DeliveryLocation(),
			TotalCents:       o.TotalCents(),
			Quantity:         o.ItemCount(),
			CreatedAt:        o.CreatedAt(),
		})
	}

	callCtx, cancel := context.WithTimeout(ctx, h.timeout)
	defer cancel()

	predictions, err := h.client.PredictBatch(callCtx, requests)
	if err != nil {
		return 0, err
	}

	return h.recordPredictions(ctx, failures, predictions)
}

func (h ResendPredictionsCommandHandler) loadFailures(
	ctx context.Context,
	limit int,
) ([]*order.Order, map[kernel.UUID]kernel.GeoPoint, error) {
	uow := h.uowFactory.Create()
	if err := uow.Begin(ctx); err != nil {
		return nil, nil, err
	}

	defer func() {
		_ = uow.Rollback(ctx)
	}()

	failures, err := uow.OrderRepository().GetPredictionFailures(ctx, limit)
	if err != nil {
		return nil, nil, err
	}

	stores, err := uow.StoreRepository().GetAll(ctx)
	if err != nil {
		return nil, nil, err
	}
	locations := make(map[kernel.UUID]kernel.GeoPoint, len(stores))
	for _, s := range stores {
		locations[s.ID()] = s.Location()
	}

	if err = uow.Commit(ctx); err != nil {
		return nil, nil, err
	}
	return failures, locations, nil
}

func (h ResendPredictionsCommandHandler) recordPredictions(
	ctx context.Context,
	failures []*order.Order,
	predictions []ports.Prediction,
) (int, error) {
	byID := make(map[kernel.UUID]*order.Order, len(failures))
	for _, o := range failures {
		byID[o.ID()] = o
	}

	uow := h.uowFactory.Create()
	if err := uow.Begin(ctx); err != nil {
		return 0, err
	}

	defer func() {
		_ = uow.Rollback(ctx)
	}()

	recorded := 0
	for _, p := range predictions {
		o, ok := byID[p.OrderID]
		if !ok {
			continue
		}
		if err := o.RecordPrediction(p.Minutes); err != nil {
			return 0, err
		}
		// narrow guarded write: a transition committed during the 30s call
		// window keeps its lifecycle state
		minutes := p.Minutes
		scored, err := uow.OrderRepository().RecordPredictionOutcome(ctx, o.ID(), &minutes)
		if err != nil {
			return 0, err
		}
		if scored {
			recorded++
		}
	}

	if err := uow.Commit(ctx); err != nil {
		return 0, err
	}
	return recorded, nil
}
