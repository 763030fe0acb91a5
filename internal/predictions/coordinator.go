// Package predictions delivers ETA predictions for freshly confirmed orders.
// The coordinator runs each batch in a background goroutine so the dispatch
// cycle never waits on the prediction service.
package predictions

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"grocery/internal/core/application/usecases/commands"
	"grocery/internal/core/domain/model/kernel"
	"grocery/internal/core/domain/model/order"
	"grocery/internal/core/ports"
)

// DefaultDispatchTimeout bounds the automatic prediction attempt that fires
// right after bundle formation. Manual retries use a longer budget.
const DefaultDispatchTimeout = 5 * time.Second

// Coordinator sends delivery-time predictions asynchronously and records
// the outcome on each order. A successful response marks the order's
// prediction as sent; any failure (service error, timeout, missing score)
// flags the order for a later manual retry. Predictions are sent at most
// once per order.
type Coordinator struct {
	uowFactory commands.PredictionUoWFactory
	client     ports.PredictionClient
	timeout    time.Duration
	logger     *slog.Logger

	ctx    context.Context
	cancel context.CancelFunc
	wg     sync.WaitGroup
}

// NewCoordinator creates a prediction coordinator. A non-positive timeout
// falls back to DefaultDispatchTimeout.
func NewCoordinator(
	uowFactory commands.PredictionUoWFactory,
	client ports.PredictionClient,
	logger *slog.Logger,
	timeout time.Duration,
) *Coordinator {
	if timeout <= 0 {
		timeout = DefaultDispatchTimeout
	}
	ctx, cancel := context.WithCancel(context.Background())

	return &Coordinator{
		uowFactory: uowFactory,
		client:     client,
		timeout:    timeout,
		logger:     logger.With("component", "prediction_coordinator"),
		ctx:        ctx,
		cancel:     cancel,
	}
}

// Dispatch schedules one prediction batch for the given orders and returns
// immediately. Orders whose prediction was already sent are skipped.
func (c *Coordinator) Dispatch(orders []*order.Order) {
	batch := make([]*order.Order, 0, len(orders))
	for _, o := range orders {
		if o.PredictionSent() {
			continue
		}
		batch = append(batch, o)
	}
	if len(batch) == 0 {
		return
	}

	c.wg.Add(1)
	go func() {
		defer c.wg.Done()
		c.send(batch)
	}()
}

// Close stops accepting in-flight work and waits for running batches to
// finish recording their outcome.
func (c *Coordinator) Close() {
	c.cancel()
	c.wg.Wait()
}

func (c *Coordinator) send(batch []*order.Order) {
	callCtx, cancel := context.WithTimeout(c.ctx, c.timeout)
	defer cancel()

	requests, err := c.buildRequests(callCtx, batch)
	if err != nil {
		c.logger.ErrorContext(callCtx, "Failed to build prediction requests", "error", err)
		c.recordFailures(batch)
		return
	}

	predictions, err := c.client.PredictBatch(callCtx, requests)
	if err != nil {
		c.logger.WarnContext(callCtx, "Prediction batch failed",
			"orders", len(batch), "error", err)
		c.recordFailures(batch)
		return
	}

	c.recordPredictions(batch, predictions)
}

func (c *Coordinator) buildRequests(ctx context.Context, batch []*order.Order) ([]ports.PredictionRequest, error) {
	uow := c.uowFactory.Create()
	if err := uow.Begin(ctx); err != nil {
		return nil, err
	}

	defer func() {
		_ = uow.Rollback(ctx)
	}()

	stores, err := uow.StoreRepository().GetAll(ctx)
	if err != nil {
		return nil, err
	}
	if err = uow.Commit(ctx); err != nil {
		return nil, err
	}

	locations := make(map[kernel.UUID]kernel.GeoPoint, len(stores))
	for _, s := range stores {
		locations[s.ID()] = s.Location()
	}

	requests := make([]ports.PredictionRequest, 0, len(batch))
	for _, o := range batch {
		requests = append(requests, ports.PredictionRequest{
			OrderID:          o.ID(),
			CustomerID:       o.CustomerID(),
			StoreID:          o.StoreID(),
			StoreLocation:    locations[o.StoreID()],
			DeliveryLocation: o.DeliveryLocation(),
			TotalCents:       o.TotalCents(),
			Quantity:         o.ItemCount(),
			CreatedAt:        o.CreatedAt(),
		})
	}
	return requests, nil
}

// recordPredictions marks scored orders as sent and flags unscored ones as
// failed. Recording runs on a fresh context so an outcome that arrived just
// before shutdown still lands in the database.
func (c *Coordinator) recordPredictions(batch []*order.Order, predictions []ports.Prediction) {
	minutes := make(map[kernel.UUID]float64, len(predictions))
	for _, p := range predictions {
		minutes[p.OrderID] = p.Minutes
	}

	ctx, cancel := context.WithTimeout(context.Background(), c.timeout)
	defer cancel()

	uow := c.uowFactory.Create()
	if err := uow.Begin(ctx); err != nil {
		c.logger.ErrorContext(ctx, "Failed to open prediction transaction", "error", err)
		return
	}

	defer func() {
		_ = uow.Rollback(ctx)
	}()

	for _, o := range batch {
		m, scored := minutes[o.ID()]

		var err error
		var recordedMinutes *float64
		if scored {
			err = o.RecordPrediction(m)
			recordedMinutes = &m
		} else {
			err = o.RecordPredictionFailure()
		}
		if err != nil {
			c.logger.ErrorContext(ctx, "Failed to record prediction outcome",
				"order_id", o.ID(), "error", err)
			return
		}

		// only the prediction columns are written; a lifecycle transition
		// committed while the call ran must not be overwritten
		if _, err = uow.OrderRepository().RecordPredictionOutcome(ctx, o.ID(), recordedMinutes); err != nil {
			c.logger.ErrorContext(ctx, "Failed to persist prediction outcome",
				"order_id", o.ID(), "error", err)
			return
		}
	}

	if err := uow.Commit(ctx); err != nil {
		c.logger.ErrorContext(ctx, "Failed to commit prediction outcomes", "error", err)
	}
}

func (c *Coordinator) recordFailures(batch []*order.Order) {
	c.recordPredictions(batch, nil)
}
