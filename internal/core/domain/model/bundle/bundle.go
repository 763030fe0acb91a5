package bundle

import (
	"errors"
	"fmt"
	"time"

	"grocery/internal/core/domain/model/kernel"
	"grocery/internal/pkg/errs"
	"grocery/internal/pkg/guard"
)

// Domain errors for bundle operations.
var (
	// ErrBundleIsNotConstructed is returned when using an improperly initialized Bundle.
	ErrBundleIsNotConstructed = errors.New("Bundle must be created via NewBundle constructor")
	// ErrStopNotFound is returned when resolving a stop for an order that is
	// not part of the bundle.
	ErrStopNotFound = errors.New("stop not found in bundle")
	// ErrStopAlreadyResolved is returned when resolving a stop twice.
	ErrStopAlreadyResolved = errors.New("stop is already resolved")
	// ErrBundleNotActive is returned for stop operations on a bundle that has
	// no driver yet or is already completed.
	ErrBundleNotActive = errors.New("bundle is not active")
	// ErrStopsRemaining is returned when completing a bundle with unresolved stops.
	ErrStopsRemaining = errors.New("bundle has unresolved stops")
)

// Stop is a single customer drop-off within a bundle's route. Stops are
// sequenced at formation time by the dispatch engine and resolved one at a
// time as the driver works through the route. A stop resolves either by
// delivery or by being skipped when its order was canceled mid-route.
type Stop struct {
	orderID  kernel.UUID
	sequence int

	resolved   bool
	resolvedAt *time.Time
}

// OrderID returns the order delivered at this stop.
func (s *Stop) OrderID() kernel.UUID { return s.orderID }

// Sequence returns the 1-based position of the stop in the route.
func (s *Stop) Sequence() int { return s.sequence }

// IsResolved reports whether the stop was delivered or skipped.
func (s *Stop) IsResolved() bool { return s.resolved }

// ResolvedAt returns when the stop was resolved, or nil.
func (s *Stop) ResolvedAt() *time.Time { return s.resolvedAt }

// Bundle represents a same-store group of orders dispatched as one delivery
// route. It is an aggregate root owning the route's stop sequence and
// completion state.
//
// Bundle maintains these invariants:
//   - All member orders belong to the same store
//   - Stop sequence is a contiguous 1..N ordering with no duplicate orders
//   - Stops resolve only while the bundle is Active
//   - The bundle completes only when every stop is resolved
type Bundle struct {
	id       kernel.UUID
	storeID  kernel.UUID
	driverID *kernel.UUID

	// centroid is the mean of the member delivery locations, used to pick
	// the nearest available driver.
	centroid kernel.GeoPoint

	status    Status
	stops     []*Stop
	createdAt time.Time

	guard guard.ConstructorGuard
}

// NewBundle creates a Forming bundle from an already sequenced list of order
// IDs. The slice order becomes the stop sequence; orderIDs must be non-empty
// and free of duplicates.
func NewBundle(id kernel.UUID, storeID kernel.UUID, centroid kernel.GeoPoint, orderIDs []kernel.UUID) (*Bundle, error) {
	b := &Bundle{
		status:    Forming,
		createdAt: time.Now(),
		guard:     guard.NewConstructorGuard(),
	}

	if err := errors.Join(
		b.setID(id),
		b.setStoreID(storeID),
		b.setCentroid(centroid),
		b.setStops(orderIDs),
	); err != nil {
		return nil, err
	}

	return b, nil
}

// RestoreBundle reconstructs a Bundle aggregate from persistent storage.
// Stops must already carry their persisted sequence and resolution state.
func RestoreBundle(
	id kernel.UUID,
	storeID kernel.UUID,
	driverID *kernel.UUID,
	centroid kernel.GeoPoint,
	status Status,
	stops []*Stop,
	createdAt time.Time,
) (*Bundle, error) {
	b := &Bundle{
		driverID:  driverID,
		status:    status,
		stops:     stops,
		createdAt: createdAt,
		guard:     guard.NewConstructorGuard(),
	}

	if err := errors.Join(
		b.setID(id),
		b.setStoreID(storeID),
		b.setCentroid(centroid),
		status.Validate(),
	); err != nil {
		return nil, err
	}

	return b, nil
}

// RestoreStop reconstructs a Stop from persistent storage for use with
// RestoreBundle.
func RestoreStop(orderID kernel.UUID, sequence int, resolved bool, resolvedAt *time.Time) (*Stop, error) {
	if err := orderID.Validate(); err != nil {
		return nil, err
	}
	if sequence <= 0 {
		return nil, errs.NewValueIsInvalidErrorWithCause("sequence",
			fmt.Errorf("%d is not greater than 0", sequence))
	}

	return &Stop{orderID: orderID, sequence: sequence, resolved: resolved, resolvedAt: resolvedAt}, nil
}

// Validate ensures the Bundle instance was properly constructed.
func (b *Bundle) Validate() error {
	if b == nil {
		return ErrBundleIsNotConstructed
	}
	return b.guard.Validate(ErrBundleIsNotConstructed)
}

// IsEqual compares two bundles by their unique identifiers.
func (b *Bundle) IsEqual(other *Bundle) bool {
	return other != nil && b.id.IsEqual(other.id)
}

// ID returns the bundle's unique identifier.
func (b *Bundle) ID() kernel.UUID {
	return b.id
}

// StoreID returns the store all member orders were placed at.
func (b *Bundle) StoreID() kernel.UUID {
	return b.storeID
}

// Driver returns the assigned driver's ID, or nil while Forming.
func (b *Bundle) Driver() *kernel.UUID {
	return b.driverID
}

// Centroid returns the mean delivery location of the member orders.
func (b *Bundle) Centroid() kernel.GeoPoint {
	return b.centroid
}

// Status returns the bundle's lifecycle status.
func (b *Bundle) Status() Status {
	return b.status
}

// CreatedAt returns the formation timestamp.
func (b *Bundle) CreatedAt() time.Time {
	return b.createdAt
}

// Size returns the number of stops in the bundle.
func (b *Bundle) Size() int {
	return len(b.stops)
}

// Stops returns the route's stops in sequence order. The returned slice is a
// copy; the stops themselves are shared and must not be mutated by callers.
func (b *Bundle) Stops() []*Stop {
	out := make([]*Stop, len(b.stops))
	copy(out, b.stops)
	return out
}

// NextStop returns the first unresolved stop in sequence order, or nil when
// the route is finished.
func (b *Bundle) NextStop() *Stop {
	for _, s := range b.stops {
		if !s.resolved {
			return s
		}
	}
	return nil
}

// AssignDriver attaches a driver and activates the bundle. Valid only while
// Forming.
func (b *Bundle) AssignDriver(driverID kernel.UUID) error {
	if err := driverID.Validate(); err != nil {
		return err
	}
	if b.status != Forming {
		return fmt.Errorf("%w: cannot assign driver in %s", ErrBundleNotActive, b.status)
	}

	b.driverID = &driverID
	b.status = Active
	return nil
}

// ResolveStop marks the stop for the given order as resolved (delivered or
// skipped). Valid only while the bundle is Active.
func (b *Bundle) ResolveStop(orderID kernel.UUID) error {
	if b.status != Active {
		return fmt.Errorf("%w: bundle is %s", ErrBundleNotActive, b.status)
	}

	for _, s := range b.stops {
		if !s.orderID.IsEqual(orderID) {
			continue
		}
		if s.resolved {
			return fmt.Errorf("%w: order %s", ErrStopAlreadyResolved, orderID)
		}
		now := time.Now()
		s.resolved = true
		s.resolvedAt = &now
		return nil
	}

	return fmt.Errorf("%w: order %s", ErrStopNotFound, orderID)
}

// AllStopsResolved reports whether every stop was delivered or skipped.
func (b *Bundle) AllStopsResolved() bool {
	for _, s := range b.stops {
		if !s.resolved {
			return false
		}
	}
	return true
}

// Complete transitions the bundle Active -> Completed once every stop is
// resolved. The caller releases the driver afterwards.
func (b *Bundle) Complete() error {
	if b.status != Active {
		return fmt.Errorf("%w: bundle is %s", ErrBundleNotActive, b.status)
	}
	if !b.AllStopsResolved() {
		return ErrStopsRemaining
	}

	b.status = Completed
	return nil
}

// setID validates and sets the bundle's unique identifier.
func (b *Bundle) setID(id kernel.UUID) error {
	if err := id.Validate(); err != nil {
		return err
	}
	b.id = id
	return nil
}

func (b *Bundle) setStoreID(id kernel.UUID) error {
	if err := id.Validate(); err != nil {
		return fmt.Errorf("store: %w", err)
	}
	b.storeID = id
	return nil
}

func (b *Bundle) setCentroid(p kernel.GeoPoint) error {
	if err := p.Validate(); err != nil {
		return err
	}
	b.centroid = p
	return nil
}

// setStops builds the 1..N stop sequence from the ordered member list.
func (b *Bundle) setStops(orderIDs []kernel.UUID) error {
	if len(orderIDs) == 0 {
		return errs.NewValueIsRequiredError("orderIDs")
	}

	seen := make(map[kernel.UUID]struct{}, len(orderIDs))
	stops := make([]*Stop, 0, len(orderIDs))
	for i, orderID := range orderIDs {
		if err := orderID.Validate(); err != nil {
			return err
		}
		if _, ok := seen[orderID]; ok {
			return errs.NewValueIsInvalidErrorWithCause("orderIDs",
				fmt.Errorf("duplicate order %s", orderID))
		}
		seen[orderID] = struct{}{}
		stops = append(stops, &Stop{orderID: orderID, sequence: i + 1})
	}

	b.stops = stops
	return nil
}
