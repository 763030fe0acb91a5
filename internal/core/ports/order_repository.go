// Package ports defines the contracts between the application core and
// infrastructure: repositories, the unit of work, and the prediction client.
// These interfaces enable dependency inversion and testability.
package ports

import (
	"context"

	"grocery/internal/core/domain/model/kernel"
	"grocery/internal/core/domain/model/order"
)

// OrderRepository defines the persistence contract for order aggregates.
type OrderRepository interface {
	// Add persists a new order aggregate to storage.
	Add(ctx context.Context, aggregate *order.Order) error

	// Update persists changes to an existing order aggregate.
	Update(ctx context.Context, aggregate *order.Order) error

	// UpdateIfStatus persists an order only while its stored status still
	// matches expected, so a concurrent transition is never overwritten.
	// Returns false when the guard lost; that is not an error.
	UpdateIfStatus(ctx context.Context, aggregate *order.Order, expected order.Status) (bool, error)

	// Get retrieves an order aggregate by its unique identifier.
	Get(ctx context.Context, id kernel.UUID) (*order.Order, error)

	// GetAllQueued retrieves orders eligible for bundling: Pending or
	// Confirmed, not yet claimed by any bundle, oldest first.
	GetAllQueued(ctx context.Context) ([]*order.Order, error)

	// GetAllActive retrieves every order in a non-terminal status.
	GetAllActive(ctx context.Context) ([]*order.Order, error)

	// GetAllByBundle retrieves the member orders of a bundle.
	GetAllByBundle(ctx context.Context, bundleID kernel.UUID) ([]*order.Order, error)

	// GetPredictionFailures retrieves in-flight orders past confirmation
	// that still lack a delivery-time prediction, newest first, capped at
	// limit.
	GetPredictionFailures(ctx context.Context, limit int) ([]*order.Order, error)

	// RecordPredictionOutcome persists a prediction outcome by updating only
	// the prediction columns, guarded on the prediction not being sent yet.
	// A non-nil minutes records a delivered prediction; nil flags a failed
	// attempt. Lifecycle columns are never written, so an order that moved
	// on (or was canceled) while the prediction call ran keeps its state.
	// Returns false when the order was already scored.
	RecordPredictionOutcome(ctx context.Context, orderID kernel.UUID, minutes *float64) (bool, error)

	// ClaimForBundle atomically claims a queued order for a bundle with a
	// conditional update: the claim succeeds only if the order is still
	// unclaimed and in a queued status. Returns false when a concurrent
	// cycle won the order; that is not an error.
	ClaimForBundle(ctx context.Context, orderID kernel.UUID, bundleID kernel.UUID, driverID kernel.UUID) (bool, error)
}
