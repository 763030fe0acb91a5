package commands

import (
	"errors"
	"fmt"

	"grocery/internal/core/domain/model/kernel"
	"grocery/internal/pkg/guard"
)

var (
	ErrCreateOrderCommandIsNotConstructed = errors.New(
		"CreateOrderCommand must be created via NewCreateOrderCommand constructor",
	)
	ErrAmountIsNegative   = errors.New("monetary amount must not be negative")
	ErrItemCountIsInvalid = errors.New("item count must be greater than 0")
)

// CreateOrderCommand represents a request to place a new grocery order.
// It carries the customer, the store, the drop-off point and the priced
// basket; the order enters the queue in Pending status.
//
// Example:
//
//	loc, _ := kernel.NewGeoPoint(37.77, -122.41)
//	cmd, err := NewCreateOrderCommand(kernel.NewUUID(), customerID, storeID, loc, 4250, 372, 599, 640, 7)
//	if err != nil {
//	    return fmt.Errorf("invalid order data: %w", err)
//	}
//
//	handler := NewCreateOrderCommandHandler(uowFactory)
//	if err := handler.Handle(ctx, cmd); err != nil {
//	    return fmt.Errorf("failed to create order: %w", err)
//	}
type CreateOrderCommand struct { //nolint:recvcheck //using for validation
	orderID    kernel.UUID
	customerID kernel.UUID
	storeID    kernel.UUID

	deliveryLocation kernel.GeoPoint

	subtotalCents    int64
	taxCents         int64
	deliveryFeeCents int64
	tipCents         int64
	itemCount        int

	guard guard.ConstructorGuard
}

// NewCreateOrderCommand creates a command to place a new order. All IDs and
// the delivery location must be valid, amounts non-negative (integer cents)
// and the item count positive.
func NewCreateOrderCommand(
	orderID kernel.UUID,
	customerID kernel.UUID,
	storeID kernel.UUID,
	deliveryLocation kernel.GeoPoint,
	subtotalCents int64,
	taxCents int64,
	deliveryFeeCents int64,
	tipCents int64,
	itemCount int,
) (CreateOrderCommand, error) {
	cmd := CreateOrderCommand{
		guard: guard.NewConstructorGuard(),
	}

	if err := errors.Join(
		cmd.setIDs(orderID, customerID, storeID),
		cmd.setDeliveryLocation(deliveryLocation),
		cmd.setAmounts(subtotalCents, taxCents, deliveryFeeCents, tipCents),
		cmd.setItemCount(itemCount),
	); err != nil {
		return CreateOrderCommand{}, err
	}

	return cmd, nil
}

// Validate ensures the command was created through the constructor.
func (c CreateOrderCommand) Validate() error {
	return c.guard.Validate(ErrCreateOrderCommandIsNotConstructed)
}

// OrderID returns the unique identifier for the new order.
func (c CreateOrderCommand) OrderID() kernel.UUID {
	return c.orderID
}

// CustomerID returns the ordering customer's identifier.
func (c CreateOrderCommand) CustomerID() kernel.UUID {
	return c.customerID
}

// StoreID returns the store the order is placed at.
func (c CreateOrderCommand) StoreID() kernel.UUID {
	return c.storeID
}

// DeliveryLocation returns the drop-off coordinates.
func (c CreateOrderCommand) DeliveryLocation() kernel.GeoPoint {
	return c.deliveryLocation
}

// SubtotalCents returns the pre-tax basket subtotal in cents.
func (c CreateOrderCommand) SubtotalCents() int64 { return c.subtotalCents }

// TaxCents returns the sales tax in cents.
func (c CreateOrderCommand) TaxCents() int64 { return c.taxCents }

// DeliveryFeeCents returns the delivery fee in cents.
func (c CreateOrderCommand) DeliveryFeeCents() int64 { return c.deliveryFeeCents }

// TipCents returns the driver tip in cents.
func (c CreateOrderCommand) TipCents() int64 { return c.tipCents }

// ItemCount returns the number of basket line items.
func (c CreateOrderCommand) ItemCount() int { return c.itemCount }

func (c *CreateOrderCommand) setIDs(orderID, customerID, storeID kernel.UUID) error {
	if err := errors.Join(orderID.Validate(), customerID.Validate(), storeID.Validate()); err != nil {
		return err
	}

	c.orderID = orderID
	c.customerID = customerID
	c.storeID = storeID
	return nil
}

func (c *CreateOrderCommand) setDeliveryLocation(location kernel.GeoPoint) error {
	if err := location.Validate(); err != nil {
		return err
	}

	c.deliveryLocation = location
	return nil
}

func (c *CreateOrderCommand) setAmounts(subtotal, tax, deliveryFee, tip int64) error {
	for _, v := range []int64{subtotal, tax, deliveryFee, tip} {
		if v < 0 {
			return fmt.Errorf("%w: %d", ErrAmountIsNegative, v)
		}
	}

	c.subtotalCents = subtotal
	c.taxCents = tax
	c.deliveryFeeCents = deliveryFee
	c.tipCents = tip
	return nil
}

func (c *CreateOrderCommand) setItemCount(itemCount int) error {
	if itemCount <= 0 {
		return ErrItemCountIsInvalid
	}

	c.itemCount = itemCount
	return nil
}
