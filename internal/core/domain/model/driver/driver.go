package driver

import (
	"errors"

	"grocery/internal/core/domain/model/kernel"
	"grocery/internal/pkg/errs"
	"grocery/internal/pkg/guard"
)

// Domain errors for driver operations.
var (
	// ErrNameIsRequired is returned when attempting to create a driver without a name.
	ErrNameIsRequired = errs.NewValueIsRequiredError("name")
	// ErrDriverIsNotConstructed is returned when using an improperly initialized Driver.
	ErrDriverIsNotConstructed = errors.New("Driver must be created via NewDriver constructor")
	// ErrDriverIsBusy is returned when claiming a driver that already carries a
	// bundle. Concurrent dispatch cycles treat it as a lost claim.
	ErrDriverIsBusy = errors.New("driver is already assigned to a bundle")
	// ErrDriverIsNotBusy is returned when releasing a driver with no bundle.
	ErrDriverIsNotBusy = errors.New("driver has no assigned bundle")
)

// Driver represents a delivery driver in the marketplace. It is an aggregate
// root managing the driver's identity, position and availability.
//
// A driver is either available (waiting near a position on the map) or busy
// carrying exactly one bundle. The dispatch engine claims the nearest
// available driver when a bundle forms; the driver becomes available again
// once every stop of the bundle is delivered.
type Driver struct {
	id       kernel.UUID
	name     string
	location kernel.GeoPoint

	available bool
	bundleID  *kernel.UUID

	guard guard.ConstructorGuard
}

// NewDriver creates a new available Driver at the given position.
func NewDriver(id kernel.UUID, name string, location kernel.GeoPoint) (*Driver, error) {
	d := &Driver{
		available: true,
		guard:     guard.NewConstructorGuard(),
	}

	if err := errors.Join(
		d.setID(id),
		d.setName(name),
		d.setLocation(location),
	); err != nil {
		return nil, err
	}

	return d, nil
}

// RestoreDriver reconstructs a Driver aggregate from persistent storage,
// preserving its availability and bundle assignment.
func RestoreDriver(
	id kernel.UUID,
	name string,
	location kernel.GeoPoint,
	available bool,
	bundleID *kernel.UUID,
) (*Driver, error) {
	d := &Driver{
		available: available,
		bundleID:  bundleID,
		guard:     guard.NewConstructorGuard(),
	}

	if err := errors.Join(
		d.setID(id),
		d.setName(name),
		d.setLocation(location),
	); err != nil {
		return nil, err
	}

	return d, nil
}

// Validate ensures the Driver instance was properly constructed.
func (d *Driver) Validate() error {
	if d == nil {
		return ErrDriverIsNotConstructed
	}
	return d.guard.Validate(ErrDriverIsNotConstructed)
}

// IsEqual compares two drivers by their unique identifiers.
func (d *Driver) IsEqual(other *Driver) bool {
	return other != nil && d.id.IsEqual(other.id)
}

// ID returns the driver's unique identifier.
func (d *Driver) ID() kernel.UUID {
	return d.id
}

// Name returns the driver's display name.
func (d *Driver) Name() string {
	return d.name
}

// Location returns the driver's current position.
func (d *Driver) Location() kernel.GeoPoint {
	return d.location
}

// IsAvailable reports whether the driver can be claimed for a bundle.
func (d *Driver) IsAvailable() bool {
	return d.available
}

// Bundle returns the carried bundle's ID, or nil when the driver is free.
func (d *Driver) Bundle() *kernel.UUID {
	return d.bundleID
}

// Claim assigns the driver to a bundle and marks it unavailable. A driver
// carries at most one bundle; claiming a busy driver surfaces ErrDriverIsBusy
// so a concurrent dispatch cycle can treat it as a no-op.
func (d *Driver) Claim(bundleID kernel.UUID) error {
	if err := bundleID.Validate(); err != nil {
		return err
	}
	if !d.available || d.bundleID != nil {
		return ErrDriverIsBusy
	}

	d.available = false
	d.bundleID = &bundleID
	return nil
}

// Release frees the driver after its bundle completes.
func (d *Driver) Release() error {
	if d.bundleID == nil {
		return ErrDriverIsNotBusy
	}

	d.available = true
	d.bundleID = nil
	return nil
}

// MoveTo relocates the driver. Idle drivers drift around the metro area
// between dispatch cycles; busy drivers follow their route.
func (d *Driver) MoveTo(location kernel.GeoPoint) error {
	return d.setLocation(location)
}

// setID validates and sets the driver's unique identifier.
func (d *Driver) setID(id kernel.UUID) error {
	if err := id.Validate(); err != nil {
		return err
	}
	d.id = id
	return nil
}

// setName validates and sets the driver's name (must be non-empty).
func (d *Driver) setName(name string) error {
	if name == "" {
		return ErrNameIsRequired
	}
	d.name = name
	return nil
}

func (d *Driver) setLocation(location kernel.GeoPoint) error {
	if err := location.Validate(); err != nil {
		return err
	}
	d.location = location
	return nil
}
