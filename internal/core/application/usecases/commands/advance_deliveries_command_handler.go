package commands

import (
	"context"
	"fmt"

	"grocery/internal/core/domain/model/bundle"
	"grocery/internal/core/domain/model/kernel"
	"grocery/internal/core/domain/model/order"
	"grocery/internal/core/ports"
)

// AdvanceDeliveriesCommandHandler drives bundles through the delivery
// simulation. Each active bundle advances exactly one step per invocation:
//
//  1. Members still Confirmed start picking.
//  2. Picked members complete picking and go out for delivery.
//  3. Otherwise the next unresolved stop on the route resolves: its order is
//     delivered, or skipped if it was canceled mid-route.
//
// A bundle whose every stop is resolved completes and releases its driver.
// Each bundle advances in its own transaction so one failure does not stall
// the rest of the fleet.
type AdvanceDeliveriesCommandHandler struct {
	uowFactory DeliveryUoWFactory
}

// NewAdvanceDeliveriesCommandHandler creates a handler for delivery
// progression.
func NewAdvanceDeliveriesCommandHandler(uowFactory DeliveryUoWFactory) AdvanceDeliveriesCommandHandler {
	return AdvanceDeliveriesCommandHandler{
		uowFactory: uowFactory,
	}
}

// Handle advances every active bundle by one simulation step.
func (h AdvanceDeliveriesCommandHandler) Handle(ctx context.Context, cmd AdvanceDeliveriesCommand) error {
	if err := cmd.Validate(); err != nil {
		return err
	}

	active, err := h.loadActiveBundles(ctx)
	if err != nil {
		return err
	}

	for _, id := range active {
		if err := h.advanceBundle(ctx, id); err != nil {
			return fmt.Errorf("advance bundle %s: %w", id, err)
		}
	}
	return nil
}

func (h AdvanceDeliveriesCommandHandler) loadActiveBundles(ctx context.Context) ([]kernel.UUID, error) {
	uow := h.uowFactory.Create()
	if err := uow.Begin(ctx); err != nil {
		return nil, err
	}

	defer func() {
		_ = uow.Rollback(ctx)
	}()

	bundles, err := uow.BundleRepository().GetAllActive(ctx)
	if err != nil {
		return nil, err
	}

	if err = uow.Commit(ctx); err != nil {
		return nil, err
	}

	ids := make([]kernel.UUID, len(bundles))
	for i, b := range bundles {
		ids[i] = b.ID()
	}
	return ids, nil
}

// advanceBundle applies one simulation step to a single bundle inside its
// own transaction. The bundle is re-read so concurrent cancellations are
// observed.
func (h AdvanceDeliveriesCommandHandler) advanceBundle(ctx context.Context, bundleID kernel.UUID) error {
	uow := h.uowFactory.Create()
	if err := uow.Begin(ctx); err != nil {
		return err
	}

	defer func() {
		_ = uow.Rollback(ctx)
	}()

	bundlesRepo := uow.BundleRepository()
	ordersRepo := uow.OrderRepository()

	b, err := bundlesRepo.Get(ctx, bundleID)
	if err != nil {
		return err
	}
	if b.Status() != bundle.Active {
		return uow.Commit(ctx)
	}

	members, err := ordersRepo.GetAllByBundle(ctx, bundleID)
	if err != nil {
		return err
	}
	byID := make(map[kernel.UUID]*order.Order, len(members))
	for _, o := range members {
		byID[o.ID()] = o
	}

	advanced, err := h.startPicking(ctx, ordersRepo, members)
	if err != nil {
		return err
	}
	if !advanced {
		advanced, err = h.finishPicking(ctx, ordersRepo, members)
		if err != nil {
			return err
		}
	}
	if !advanced {
		if err = h.deliverNextStop(ctx, uow, b, byID); err != nil {
			return err
		}
	}

	return uow.Commit(ctx)
}

// startPicking moves Confirmed members into Picking. Returns true when any
// member advanced.
func (h AdvanceDeliveriesCommandHandler) startPicking(
	ctx context.Context,
	ordersRepo ports.OrderRepository,
	members []*order.Order,
) (bool, error) {
	advanced := false
	for _, o := range members {
		if o.Status() != order.Confirmed {
			continue
		}
		if err := o.StartPicking(); err != nil {
			return false, err
		}
		// guarded on the snapshot status: an order canceled after the
		// read stays canceled
		ok, err := ordersRepo.UpdateIfStatus(ctx, o, order.Confirmed)
		if err != nil {
			return false, err
		}
		if ok {
			advanced = true
		}
	}
	return advanced, nil
}

// finishPicking completes picking for Picking members and sends them out for
// delivery. Returns true when any member advanced.
func (h AdvanceDeliveriesCommandHandler) finishPicking(
	ctx context.Context,
	ordersRepo ports.OrderRepository,
	members []*order.Order,
) (bool, error) {
	advanced := false
	for _, o := range members {
		if o.Status() != order.Picking || o.PickingCompletedAt() != nil {
			continue
		}
		if err := o.CompletePicking(); err != nil {
			return false, err
		}
		if err := o.StartDelivery(); err != nil {
			return false, err
		}
		ok, err := ordersRepo.UpdateIfStatus(ctx, o, order.Picking)
		if err != nil {
			return false, err
		}
		if ok {
			advanced = true
		}
	}
	return advanced, nil
}

// deliverNextStop resolves the next stop on the route: the order delivers,
// or the stop is skipped when the order was canceled mid-route. Completes
// the bundle and releases the driver once all stops are resolved.
func (h AdvanceDeliveriesCommandHandler) deliverNextStop(
	ctx context.Context,
	uow DeliveryUoW,
	b *bundle.Bundle,
	members map[kernel.UUID]*order.Order,
) error {
	next := b.NextStop()
	if next != nil {
		o, ok := members[next.OrderID()]
		if !ok {
			return fmt.Errorf("order %s of stop %d not found", next.OrderID(), next.Sequence())
		}

		if o.Status() != order.Canceled {
			if err := o.Deliver(); err != nil {
				return err
			}
			// a guard loss means the order was canceled after the read;
			// the stop still resolves, same as the canceled branch
			if _, err := uow.OrderRepository().UpdateIfStatus(ctx, o, order.OutForDelivery); err != nil {
				return err
			}
		}
		if err := b.ResolveStop(next.OrderID()); err != nil {
			return err
		}
	}

	if b.AllStopsResolved() {
		if err := b.Complete(); err != nil {
			return err
		}
		if b.Driver() != nil {
			d, err := uow.DriverRepository().Get(ctx, *b.Driver())
			if err != nil {
				return err
			}
			if err = d.Release(); err != nil {
				return err
			}
			if err = uow.DriverRepository().Update(ctx, d); err != nil {
				return err
			}
		}
	}

	return uow.BundleRepository().Update(ctx, b)
}
