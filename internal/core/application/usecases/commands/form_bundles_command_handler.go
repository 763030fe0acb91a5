package commands

import (
	"context"
	"errors"
	"fmt"

	"grocery/internal/core/domain/model/bundle"
	"grocery/internal/core/domain/model/kernel"
	"grocery/internal/core/domain/model/order"
	"grocery/internal/core/domain/model/store"
	"grocery/internal/core/domain/services"
)

// errClaimLost marks a bundle that lost its order or driver claims to a
// concurrent dispatch cycle. The bundle's transaction is rolled back and the
// cycle moves on; the orders stay queued for the next cycle.
var errClaimLost = errors.New("bundle claim lost to a concurrent cycle")

// PredictionDispatcher receives freshly confirmed orders after a bundle's
// transaction commits. Implementations deliver delivery-time predictions
// asynchronously; dispatch must not block the caller.
type PredictionDispatcher interface {
	Dispatch(orders []*order.Order)
}

// FormBundlesCommandHandler runs the dispatch engine: it clusters queued
// orders per store, sequences each cluster into a route, claims the nearest
// available driver and the member orders atomically, and hands the newly
// confirmed orders to the prediction dispatcher after commit.
//
// Each formed bundle commits in its own transaction. A claim lost to a
// concurrent cycle rolls back only that bundle; running out of available
// drivers ends the cycle with the remaining orders still queued.
type FormBundlesCommandHandler struct {
	uowFactory  DispatchUoWFactory
	bundler     services.Bundler
	predictions PredictionDispatcher
}

// NewFormBundlesCommandHandler creates a handler for dispatch cycles.
// predictions may be nil when no prediction delivery is wired.
func NewFormBundlesCommandHandler(
	uowFactory DispatchUoWFactory,
	bundler services.Bundler,
	predictions PredictionDispatcher,
) FormBundlesCommandHandler {
	return FormBundlesCommandHandler{
		uowFactory:  uowFactory,
		bundler:     bundler,
		predictions: predictions,
	}
}

// Handle runs one dispatch cycle and returns the number of bundles formed.
func (h FormBundlesCommandHandler) Handle(ctx context.Context, cmd FormBundlesCommand) (int, error) {
	if err := cmd.Validate(); err != nil {
		return 0, err
	}

	queued, stores, err := h.loadQueue(ctx)
	if err != nil {
		return 0, err
	}
	if len(queued) == 0 {
		return 0, nil
	}

	clusters, err := h.bundler.Cluster(queued)
	if err != nil {
		return 0, err
	}

	storesByID := make(map[kernel.UUID]*store.Store, len(stores))
	for _, s := range stores {
		storesByID[s.ID()] = s
	}

	formed := 0
	for _, cluster := range clusters {
		s, ok := storesByID[cluster[0].StoreID()]
		if !ok {
			return formed, fmt.Errorf("store %s not found for cluster", cluster[0].StoreID())
		}

		confirmed, err := h.formBundle(ctx, s, cluster)
		if errors.Is(err, errClaimLost) {
			continue
		}
		if errors.Is(err, services.ErrDriverNotFound) {
			break
		}
		if err != nil {
			return formed, err
		}

		formed++
		if h.predictions != nil && len(confirmed) > 0 {
			h.predictions.Dispatch(confirmed)
		}
	}

	return formed, nil
}

// loadQueue reads the queued orders and the stores in a short-lived
// read-only transaction.
func (h FormBundlesCommandHandler) loadQueue(ctx context.Context) ([]*order.Order, []*store.Store, error) {
	uow := h.uowFactory.Create()
	if err := uow.Begin(ctx); err != nil {
		return nil, nil, err
	}

	defer func() {
		_ = uow.Rollback(ctx)
	}()

	queued, err := uow.OrderRepository().GetAllQueued(ctx)
	if err != nil {
		return nil, nil, err
	}

	stores, err := uow.StoreRepository().GetAll(ctx)
	if err != nil {
		return nil, nil, err
	}

	if err = uow.Commit(ctx); err != nil {
		return nil, nil, err
	}
	return queued, stores, nil
}

// formBundle claims one cluster inside its own transaction. Returns the
// members that still need a delivery-time prediction.
func (h FormBundlesCommandHandler) formBundle(
	ctx context.Context,
	s *store.Store,
	cluster []*order.Order,
) ([]*order.Order, error) {
	uow := h.uowFactory.Create()
	if err := uow.Begin(ctx); err != nil {
		return nil, err
	}

	defer func() {
		_ = uow.Rollback(ctx)
	}()

	ordersRepo := uow.OrderRepository()
	driversRepo := uow.DriverRepository()
	bundlesRepo := uow.BundleRepository()

	centroid, err := h.bundler.Centroid(cluster)
	if err != nil {
		return nil, err
	}

	// availability is re-read inside the transaction so bundles formed
	// earlier in this cycle do not hand out the same driver twice
	available, err := driversRepo.GetAllAvailable(ctx)
	if err != nil {
		return nil, err
	}
	assignedDriver, err := h.bundler.NearestDriver(centroid, available)
	if err != nil {
		return nil, err
	}

	route, err := h.bundler.SequenceStops(s.Location(), cluster)
	if err != nil {
		return nil, err
	}

	bundleID := kernel.NewUUID()
	routeIDs := make([]kernel.UUID, len(route))
	for i, o := range route {
		routeIDs[i] = o.ID()
	}

	newBundle, err := bundle.NewBundle(bundleID, s.ID(), centroid, routeIDs)
	if err != nil {
		return nil, err
	}

	claimed, err := driversRepo.Claim(ctx, assignedDriver.ID(), bundleID)
	if err != nil {
		return nil, err
	}
	if !claimed {
		return nil, errClaimLost
	}

	var confirmed []*order.Order
	for _, o := range route {
		won, err := ordersRepo.ClaimForBundle(ctx, o.ID(), bundleID, assignedDriver.ID())
		if err != nil {
			return nil, err
		}
		if !won {
			return nil, errClaimLost
		}

		if err = o.AssignBundle(bundleID, assignedDriver.ID()); err != nil {
			return nil, err
		}
		if o.Status() == order.Pending {
			if err = o.Confirm(); err != nil {
				return nil, err
			}
		}
		if !o.PredictionSent() {
			confirmed = append(confirmed, o)
		}
	}

	if err = assignedDriver.Claim(bundleID); err != nil {
		return nil, err
	}
	if err = newBundle.AssignDriver(assignedDriver.ID()); err != nil {
		return nil, err
	}

	if err = bundlesRepo.Add(ctx, newBundle); err != nil {
		return nil, err
	}
	if err = driversRepo.Update(ctx, assignedDriver); err != nil {
		return nil, err
	}
	for _, o := range route {
		if err = ordersRepo.Update(ctx, o); err != nil {
			return nil, err
		}
	}

	if err = uow.Commit(ctx); err != nil {
		return nil, err
	}
	return confirmed, nil
}
