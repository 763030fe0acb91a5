package commands

import (
	"context"

	"grocery/internal/core/domain/model/order"
)

// CreateOrderCommandHandler handles the business logic for order placement.
// New orders enter the queue in Pending status and wait for the dispatch
// engine to bundle them.
type CreateOrderCommandHandler struct {
	uowFactory OrderUoWFactory
}

// NewCreateOrderCommandHandler creates a handler for order placement.
// Requires an OrderUoWFactory for transactional persistence.
func NewCreateOrderCommandHandler(uowFactory OrderUoWFactory) CreateOrderCommandHandler {
	return CreateOrderCommandHandler{
		uowFactory: uowFactory,
	}
}

// Handle processes the order placement command. Uses a transaction to ensure
// the order is properly persisted or rolled back on error.
func (h CreateOrderCommandHandler) Handle(ctx context.Context, cmd CreateOrderCommand) error {
	if err := cmd.Validate(); err != nil {
		return err
	}

	newOrder, err := order.NewOrder(
		cmd.OrderID(),
		cmd.CustomerID(),
		cmd.StoreID(),
		cmd.DeliveryLocation(),
		cmd.SubtotalCents(),
		cmd.TaxCents(),
		cmd.DeliveryFeeCents(),
		cmd.TipCents(),
		cmd.ItemCount(),
	)
	if err != nil {
		return err
	}

	uow := h.uowFactory.Create()
	if err = uow.Begin(ctx); err != nil {
		return err
	}

	defer func() {
		_ = uow.Rollback(ctx)
	}()

	if err = uow.OrderRepository().Add(ctx, newOrder); err != nil {
		return err
	}

	return uow.Commit(ctx)
}
