package ports

import (
	"context"

	"grocery/internal/core/domain/model/bundle"
	"grocery/internal/core/domain/model/kernel"
)

// BundleRepository defines the persistence contract for bundle aggregates,
// including their stop sequences.
type BundleRepository interface {
	// Add persists a new bundle aggregate with its stops.
	Add(ctx context.Context, aggregate *bundle.Bundle) error

	// Update persists changes to an existing bundle and its stops.
	Update(ctx context.Context, aggregate *bundle.Bundle) error

	// Get retrieves a bundle aggregate by its unique identifier.
	Get(ctx context.Context, id kernel.UUID) (*bundle.Bundle, error)

	// GetAllActive retrieves bundles currently being delivered.
	GetAllActive(ctx context.Context) ([]*bundle.Bundle, error)
}
