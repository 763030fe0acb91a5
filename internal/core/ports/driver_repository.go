package ports

import (
	"context"

	"grocery/internal/core/domain/model/driver"
	"grocery/internal/core/domain/model/kernel"
)

// DriverRepository defines the persistence contract for driver aggregates.
type DriverRepository interface {
	// Add persists a new driver aggregate to storage.
	Add(ctx context.Context, aggregate *driver.Driver) error

	// Update persists changes to an existing driver aggregate.
	Update(ctx context.Context, aggregate *driver.Driver) error

	// Get retrieves a driver aggregate by its unique identifier.
	Get(ctx context.Context, id kernel.UUID) (*driver.Driver, error)

	// GetAll retrieves every registered driver.
	GetAll(ctx context.Context) ([]*driver.Driver, error)

	// GetAllAvailable retrieves drivers not currently carrying a bundle.
	GetAllAvailable(ctx context.Context) ([]*driver.Driver, error)

	// Claim atomically assigns a bundle to a driver with a conditional
	// update: the claim succeeds only if the driver is still available.
	// Returns false when a concurrent cycle won the driver; that is not an
	// error.
	Claim(ctx context.Context, driverID kernel.UUID, bundleID kernel.UUID) (bool, error)
}
