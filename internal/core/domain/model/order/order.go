package order

import (
	"errors"
	"fmt"
	"time"

	"grocery/internal/core/domain/model/kernel"
	"grocery/internal/pkg/errs"
	"grocery/internal/pkg/guard"
)

var (
	// ErrOrderIsNotConstructed is returned when an Order instance was not
	// created through NewOrder or RestoreOrder.
	ErrOrderIsNotConstructed = errors.New("Order must be created via NewOrder or RestoreOrder constructor")

	// ErrAlreadyBundled is returned when claiming an order that is already a
	// member of a non-completed bundle. Concurrent dispatch cycles treat it
	// as a lost claim, not a failure.
	ErrAlreadyBundled = errors.New("order is already a member of a bundle")

	// ErrPredictionAlreadySent is returned when recording a prediction
	// outcome for an order whose prediction was already delivered. Automatic
	// delivery is at-most-once per order.
	ErrPredictionAlreadySent = errors.New("prediction already sent for order")
)

// Order represents a grocery order in the marketplace. It is the aggregate
// root owning the order lifecycle from placement through bundling and
// delivery (or cancellation), plus the delivery-time prediction bookkeeping.
//
// Order maintains these invariants:
//   - Customer, store and delivery location are fixed at creation
//   - Monetary amounts are non-negative integer cents
//   - Status transitions follow the lifecycle state machine (see Status)
//   - Lifecycle timestamps, once set, are strictly increasing
//   - No field changes after the order reaches Delivered or Canceled
//   - prediction_sent implies exactly one of: predicted minutes recorded,
//     or a recorded failure (never both)
//
// The struct uses private fields to ensure encapsulation and maintains its
// invariants through validated methods.
type Order struct {
	id         kernel.UUID
	customerID kernel.UUID
	storeID    kernel.UUID

	// driverID and bundleID are set when the dispatch engine claims the
	// order into a bundle; both are nil while the order is queued.
	driverID *kernel.UUID
	bundleID *kernel.UUID

	status Status

	// monetary amounts in integer cents
	subtotalCents    int64
	taxCents         int64
	deliveryFeeCents int64
	tipCents         int64
	totalCents       int64

	itemCount        int
	deliveryLocation kernel.GeoPoint

	createdAt          time.Time
	confirmedAt        *time.Time
	pickedAt           *time.Time
	pickingCompletedAt *time.Time
	deliveredAt        *time.Time
	canceledAt         *time.Time

	predictedDeliveryMinutes *float64
	predictionSent           bool
	predictionSentAt         *time.Time
	predictionFailed         bool

	guard guard.ConstructorGuard
}

// NewOrder creates a new Pending order. This is the only way (besides
// RestoreOrder) to obtain a valid Order, ensuring all business invariants
// hold from the start.
//
// Monetary parameters are integer cents and must be non-negative; total is
// derived as subtotal + tax + deliveryFee + tip. itemCount must be positive.
//
// Example:
//
//	loc, _ := kernel.NewGeoPoint(37.77, -122.41)
//	o, err := order.NewOrder(kernel.NewUUID(), customerID, storeID, loc, 4250, 372, 599, 640, 7)
//	if err != nil {
//	    // Handle validation error
//	}
func NewOrder(
	id kernel.UUID,
	customerID kernel.UUID,
	storeID kernel.UUID,
	deliveryLocation kernel.GeoPoint,
	subtotalCents int64,
	taxCents int64,
	deliveryFeeCents int64,
	tipCents int64,
	itemCount int,
) (*Order, error) {
	o := &Order{
		status:    Pending,
		createdAt: time.Now(),
		guard:     guard.NewConstructorGuard(),
	}

	if err := errors.Join(
		o.setID(id),
		o.setCustomerID(customerID),
		o.setStoreID(storeID),
		o.setDeliveryLocation(deliveryLocation),
		o.setAmounts(subtotalCents, taxCents, deliveryFeeCents, tipCents),
		o.setItemCount(itemCount),
	); err != nil {
		return nil, err
	}

	return o, nil
}

// RestoreOrder reconstructs an Order aggregate from persistent storage,
// preserving its lifecycle state, claim references, timestamps and
// prediction bookkeeping exactly as persisted.
//
// Unlike NewOrder it performs no lifecycle validation beyond field-level
// checks: the persisted state is assumed to have been produced by valid
// domain operations.
func RestoreOrder(
	id kernel.UUID,
	customerID kernel.UUID,
	storeID kernel.UUID,
	driverID *kernel.UUID,
	bundleID *kernel.UUID,
	status Status,
	deliveryLocation kernel.GeoPoint,
	subtotalCents int64,
	taxCents int64,
	deliveryFeeCents int64,
	tipCents int64,
	itemCount int,
	createdAt time.Time,
	confirmedAt *time.Time,
	pickedAt *time.Time,
	pickingCompletedAt *time.Time,
	deliveredAt *time.Time,
	canceledAt *time.Time,
	predictedDeliveryMinutes *float64,
	predictionSent bool,
	predictionSentAt *time.Time,
	predictionFailed bool,
) (*Order, error) {
	o := &Order{
		status:             status,
		driverID:           driverID,
		bundleID:           bundleID,
		createdAt:          createdAt,
		confirmedAt:        confirmedAt,
		pickedAt:           pickedAt,
		pickingCompletedAt: pickingCompletedAt,
		deliveredAt:        deliveredAt,
		canceledAt:         canceledAt,

		predictedDeliveryMinutes: predictedDeliveryMinutes,
		predictionSent:           predictionSent,
		predictionSentAt:         predictionSentAt,
		predictionFailed:         predictionFailed,

		guard: guard.NewConstructorGuard(),
	}

	if err := errors.Join(
		o.setID(id),
		o.setCustomerID(customerID),
		o.setStoreID(storeID),
		o.setDeliveryLocation(deliveryLocation),
		o.setAmounts(subtotalCents, taxCents, deliveryFeeCents, tipCents),
		o.setItemCount(itemCount),
		status.Validate(),
	); err != nil {
		return nil, err
	}

	return o, nil
}

// Validate ensures the Order instance was properly constructed. It should be
// called when reconstructing orders from persistence to ensure integrity.
func (o *Order) Validate() error {
	if o == nil {
		return ErrOrderIsNotConstructed
	}
	return o.guard.Validate(ErrOrderIsNotConstructed)
}

// IsEqual compares two orders by their unique identifiers.
func (o *Order) IsEqual(other *Order) bool {
	return other != nil && o.id.IsEqual(other.id)
}

// ID returns the order's unique identifier.
func (o *Order) ID() kernel.UUID {
	return o.id
}

// CustomerID returns the ordering customer's identifier.
func (o *Order) CustomerID() kernel.UUID {
	return o.customerID
}

// StoreID returns the identifier of the store the order was placed at.
// Fixed at creation; an order never moves between stores.
func (o *Order) StoreID() kernel.UUID {
	return o.storeID
}

// Driver returns the claiming driver's ID, or nil while unassigned.
func (o *Order) Driver() *kernel.UUID {
	return o.driverID
}

// Bundle returns the owning bundle's ID, or nil while unbundled.
func (o *Order) Bundle() *kernel.UUID {
	return o.bundleID
}

// Status returns the current lifecycle status.
func (o *Order) Status() Status {
	return o.status
}

// DeliveryLocation returns the customer's delivery coordinates.
func (o *Order) DeliveryLocation() kernel.GeoPoint {
	return o.deliveryLocation
}

// SubtotalCents returns the pre-tax item subtotal in cents.
func (o *Order) SubtotalCents() int64 { return o.subtotalCents }

// TaxCents returns the sales tax in cents.
func (o *Order) TaxCents() int64 { return o.taxCents }

// DeliveryFeeCents returns the delivery fee in cents.
func (o *Order) DeliveryFeeCents() int64 { return o.deliveryFeeCents }

// TipCents returns the driver tip in cents. Zeroed on cancellation.
func (o *Order) TipCents() int64 { return o.tipCents }

// TotalCents returns the order total in cents.
func (o *Order) TotalCents() int64 { return o.totalCents }

// ItemCount returns the number of line items in the order.
func (o *Order) ItemCount() int { return o.itemCount }

// CreatedAt returns the placement timestamp.
func (o *Order) CreatedAt() time.Time { return o.createdAt }

// ConfirmedAt returns the confirmation timestamp, or nil.
func (o *Order) ConfirmedAt() *time.Time { return o.confirmedAt }

// PickedAt returns the picking-start timestamp, or nil.
func (o *Order) PickedAt() *time.Time { return o.pickedAt }

// PickingCompletedAt returns the picking-completion timestamp, or nil.
func (o *Order) PickingCompletedAt() *time.Time { return o.pickingCompletedAt }

// DeliveredAt returns the delivery timestamp, or nil.
func (o *Order) DeliveredAt() *time.Time { return o.deliveredAt }

// CanceledAt returns the cancellation timestamp, or nil.
func (o *Order) CanceledAt() *time.Time { return o.canceledAt }

// PredictedDeliveryMinutes returns the recorded ETA prediction, or nil.
func (o *Order) PredictedDeliveryMinutes() *float64 { return o.predictedDeliveryMinutes }

// PredictionSent reports whether a prediction was successfully delivered.
func (o *Order) PredictionSent() bool { return o.predictionSent }

// PredictionSentAt returns when the prediction was delivered, or nil.
func (o *Order) PredictionSentAt() *time.Time { return o.predictionSentAt }

// PredictionFailed reports whether the last prediction attempt failed.
// A failed order stays eligible for the manual resend path.
func (o *Order) PredictionFailed() bool { return o.predictionFailed }

// Confirm transitions the order Pending -> Confirmed and records
// confirmed_at. Confirmation makes the order eligible for the delivery-time
// prediction request; issuing that request is the Prediction Coordinator's
// responsibility, not the aggregate's.
func (o *Order) Confirm() error {
	newStatus, err := o.status.Confirm()
	if err != nil {
		return err
	}

	o.status = newStatus
	o.confirmedAt = o.nextTimestamp()
	return nil
}

// StartPicking transitions the order Confirmed -> Picking and records
// picked_at.
func (o *Order) StartPicking() error {
	newStatus, err := o.status.StartPicking()
	if err != nil {
		return err
	}

	o.status = newStatus
	o.pickedAt = o.nextTimestamp()
	return nil
}

// CompletePicking records picking_completed_at. The order remains in Picking
// until StartDelivery; completing picking twice or outside Picking is an
// invalid transition.
func (o *Order) CompletePicking() error {
	if o.status != Picking {
		return fmt.Errorf("%w: cannot complete picking from %s", ErrInvalidTransition, o.status)
	}
	if o.pickingCompletedAt != nil {
		return fmt.Errorf("%w: picking already completed", ErrInvalidTransition)
	}

	o.pickingCompletedAt = o.nextTimestamp()
	return nil
}

// StartDelivery transitions the order Picking -> OutForDelivery. Picking
// must have been completed first.
func (o *Order) StartDelivery() error {
	if o.pickingCompletedAt == nil {
		return fmt.Errorf("%w: picking is not completed", ErrInvalidTransition)
	}

	newStatus, err := o.status.StartDelivery()
	if err != nil {
		return err
	}

	o.status = newStatus
	return nil
}

// Deliver transitions the order OutForDelivery -> Delivered and records
// delivered_at. Delivered is terminal.
//
// Marking the owning bundle stop and releasing the driver when the whole
// bundle completes is orchestrated by the application layer.
func (o *Order) Deliver() error {
	newStatus, err := o.status.Deliver()
	if err != nil {
		return err
	}

	o.status = newStatus
	o.deliveredAt = o.nextTimestamp()
	return nil
}

// Cancel transitions any non-terminal order to Canceled, records
// canceled_at, and zeroes the tip (removing it from the total). Later
// lifecycle timestamps remain unset; canceled_at is the last timestamp ever
// written for the order.
func (o *Order) Cancel() error {
	newStatus, err := o.status.Cancel()
	if err != nil {
		return err
	}

	o.status = newStatus
	o.totalCents -= o.tipCents
	o.tipCents = 0
	o.canceledAt = o.nextTimestamp()
	return nil
}

// AssignBundle claims the order into a bundle with the given driver. Valid
// only for queued orders (Pending or Confirmed) that are not yet a member of
// any bundle; a lost claim surfaces as ErrAlreadyBundled so a concurrent
// dispatch cycle can treat it as a no-op.
func (o *Order) AssignBundle(bundleID kernel.UUID, driverID kernel.UUID) error {
	if err := errors.Join(bundleID.Validate(), driverID.Validate()); err != nil {
		return err
	}
	if o.bundleID != nil {
		return ErrAlreadyBundled
	}
	if o.status != Pending && o.status != Confirmed {
		return fmt.Errorf("%w: cannot bundle order in %s", ErrInvalidTransition, o.status)
	}

	o.bundleID = &bundleID
	o.driverID = &driverID
	return nil
}

// RecordPrediction stores a successfully delivered ETA prediction: sets the
// predicted minutes, marks the prediction as sent and clears any previous
// failure flag. Rejected with ErrPredictionAlreadySent once a prediction was
// delivered — automatic delivery is at-most-once per order.
func (o *Order) RecordPrediction(minutes float64) error {
	if o.predictionSent {
		return ErrPredictionAlreadySent
	}
	if minutes < 0 {
		return errs.NewValueIsInvalidErrorWithCause("predicted minutes",
			fmt.Errorf("%f is negative", minutes))
	}

	now := time.Now()
	o.predictedDeliveryMinutes = &minutes
	o.predictionSent = true
	o.predictionSentAt = &now
	o.predictionFailed = false
	return nil
}

// RecordPredictionFailure marks the last prediction attempt as failed. The
// order stays eligible for the manual resend path; prediction_sent remains
// false.
func (o *Order) RecordPredictionFailure() error {
	if o.predictionSent {
		return ErrPredictionAlreadySent
	}

	o.predictionFailed = true
	return nil
}

// nextTimestamp returns a pointer to a timestamp strictly after every
// lifecycle timestamp already set, keeping the set timestamps strictly
// increasing even when transitions land on the same clock reading.
func (o *Order) nextTimestamp() *time.Time {
	now := time.Now()
	if last := o.lastTimestamp(); !now.After(last) {
		now = last.Add(time.Nanosecond)
	}
	return &now
}

func (o *Order) lastTimestamp() time.Time {
	last := o.createdAt
	for _, t := range []*time.Time{o.confirmedAt, o.pickedAt, o.pickingCompletedAt, o.deliveredAt, o.canceledAt} {
		if t != nil && t.After(last) {
			last = *t
		}
	}
	return last
}

// setID validates and sets the order's unique identifier.
func (o *Order) setID(id kernel.UUID) error {
	if err := id.Validate(); err != nil {
		return err
	}
	o.id = id
	return nil
}

func (o *Order) setCustomerID(id kernel.UUID) error {
	if err := id.Validate(); err != nil {
		return fmt.Errorf("customer: %w", err)
	}
	o.customerID = id
	return nil
}

func (o *Order) setStoreID(id kernel.UUID) error {
	if err := id.Validate(); err != nil {
		return fmt.Errorf("store: %w", err)
	}
	o.storeID = id
	return nil
}

func (o *Order) setDeliveryLocation(p kernel.GeoPoint) error {
	if err := p.Validate(); err != nil {
		return err
	}
	o.deliveryLocation = p
	return nil
}

// setAmounts validates the monetary fields and derives the total.
// All amounts are integer cents and must be non-negative.
func (o *Order) setAmounts(subtotal, tax, deliveryFee, tip int64) error {
	for name, v := range map[string]int64{
		"subtotal": subtotal, "tax": tax, "delivery fee": deliveryFee, "tip": tip,
	} {
		if v < 0 {
			return errs.NewValueIsInvalidErrorWithCause(name, fmt.Errorf("%d is negative", v))
		}
	}

	o.subtotalCents = subtotal
	o.taxCents = tax
	o.deliveryFeeCents = deliveryFee
	o.tipCents = tip
	o.totalCents = subtotal + tax + deliveryFee + tip
	return nil
}

func (o *Order) setItemCount(count int) error {
	if count <= 0 {
		return errs.NewValueIsInvalidErrorWithCause("item count",
			fmt.Errorf("%d is not greater than 0", count))
	}
	o.itemCount = count
	return nil
}
