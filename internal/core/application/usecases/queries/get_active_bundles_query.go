package queries

import (
	"errors"
	"time"

	"grocery/internal/core/domain/model/kernel"
	"grocery/internal/pkg/guard"
)

var ErrGetActiveBundlesQueryIsNotConstructed = errors.New(
	"GetActiveBundlesQuery must be created via NewGetActiveBundlesQuery constructor",
)

// GetActiveBundlesQuery retrieves the bundles currently out with drivers.
// Returns one row per active bundle with its route progress.
type GetActiveBundlesQuery struct {
	guard guard.ConstructorGuard
}

// NewGetActiveBundlesQuery creates a query to retrieve active bundles.
func NewGetActiveBundlesQuery() GetActiveBundlesQuery {
	return GetActiveBundlesQuery{guard: guard.NewConstructorGuard()}
}

// Validate ensures the query was created through the constructor.
// Returns ErrGetActiveBundlesQueryIsNotConstructed if validation fails.
func (q GetActiveBundlesQuery) Validate() error {
	return q.guard.Validate(ErrGetActiveBundlesQueryIsNotConstructed)
}

// GetActiveBundlesQueryResponse represents an in-flight bundle in the read
// model. StopCount and ResolvedCount describe route progress.
type GetActiveBundlesQueryResponse struct {
	ID            kernel.UUID
	StoreID       kernel.UUID
	DriverID      *kernel.UUID
	StopCount     int
	ResolvedCount int
	CreatedAt     time.Time
}
