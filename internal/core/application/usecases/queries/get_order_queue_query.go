// Package queries contains read operations for retrieving system state.
// Implements the Query pattern for read operations in the CQRS architecture.
// Queries return optimized read models for specific use cases.
package queries

import (
	"errors"
	"time"

	"grocery/internal/core/domain/model/kernel"
	"grocery/internal/pkg/guard"
)

var ErrGetOrderQueueQueryIsNotConstructed = errors.New(
	"GetOrderQueueQuery must be created via NewGetOrderQueueQuery constructor",
)

// GetOrderQueueQuery retrieves the orders waiting for dispatch. Returns the
// queue oldest-first, the same order in which the dispatch engine considers
// them for bundling.
//
// Example:
//
//	query := NewGetOrderQueueQuery()
//	handler := NewGetOrderQueueQueryHandler(db)
//
//	queue, err := handler.Handle(ctx, query)
//	if err != nil {
//	    return fmt.Errorf("failed to retrieve order queue: %w", err)
//	}
//
//	fmt.Printf("%d orders waiting for dispatch\n", len(queue))
type GetOrderQueueQuery struct {
	guard guard.ConstructorGuard
}

// NewGetOrderQueueQuery creates a query to retrieve the dispatch queue.
// This is a parameterless query that fetches every queued order.
func NewGetOrderQueueQuery() GetOrderQueueQuery {
	return GetOrderQueueQuery{guard: guard.NewConstructorGuard()}
}

// Validate ensures the query was created through the constructor.
// Returns ErrGetOrderQueueQueryIsNotConstructed if validation fails.
func (q GetOrderQueueQuery) Validate() error {
	return q.guard.Validate(ErrGetOrderQueueQueryIsNotConstructed)
}

// GetOrderQueueQueryResponse represents a queued order in the read model.
// Contains the data the dispatch engine weighs when forming bundles.
type GetOrderQueueQueryResponse struct {
	ID               kernel.UUID
	StoreID          kernel.UUID
	DeliveryLocation kernel.GeoPoint
	TotalCents       int64
	ItemCount        int
	CreatedAt        time.Time
}
