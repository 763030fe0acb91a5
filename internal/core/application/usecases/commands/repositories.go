// Package commands contains business operations that modify system state.
// Implements the Command pattern for write operations in the CQRS architecture.
// All commands follow a consistent pattern: validation, transaction management, and persistence.
package commands

import (
	"context"

	"grocery/internal/core/ports"
)

// Unit of Work interfaces provide transaction management for command handlers.
// These abstractions ensure data consistency across aggregate boundaries.
type (
	// TxManager handles database transaction lifecycle.
	// Ensures atomic operations across multiple repository calls.
	TxManager interface {
		Begin(ctx context.Context) error
		Commit(ctx context.Context) error
		Rollback(ctx context.Context) error
	}

	// OrderRepoFactory provides access to the order repository within a transaction.
	OrderRepoFactory interface {
		OrderRepository() ports.OrderRepository
	}

	// DriverRepoFactory provides access to the driver repository within a transaction.
	DriverRepoFactory interface {
		DriverRepository() ports.DriverRepository
	}

	// BundleRepoFactory provides access to the bundle repository within a transaction.
	BundleRepoFactory interface {
		BundleRepository() ports.BundleRepository
	}

	// StoreRepoFactory provides access to the store repository within a transaction.
	StoreRepoFactory interface {
		StoreRepository() ports.StoreRepository
	}

	// OrderUoW manages transactions for order-only operations.
	OrderUoW interface {
		TxManager
		OrderRepoFactory
	}

	// OrderUoWFactory creates new order unit of work instances.
	OrderUoWFactory interface {
		Create() OrderUoW
	}

	// DispatchUoW manages transactions for bundle formation, which touches
	// orders, drivers, bundles and stores in one atomic claim.
	DispatchUoW interface {
		TxManager
		OrderRepoFactory
		DriverRepoFactory
		BundleRepoFactory
		StoreRepoFactory
	}

	// DispatchUoWFactory creates new dispatch unit of work instances.
	// Bundle formation opens one unit of work per formed bundle, so a claim
	// conflict rolls back only the bundle that lost the race.
	DispatchUoWFactory interface {
		Create() DispatchUoW
	}

	// DeliveryUoW manages transactions for delivery progression, which
	// advances orders, resolves bundle stops and releases drivers.
	DeliveryUoW interface {
		TxManager
		OrderRepoFactory
		DriverRepoFactory
		BundleRepoFactory
	}

	// DeliveryUoWFactory creates new delivery unit of work instances.
	DeliveryUoWFactory interface {
		Create() DeliveryUoW
	}

	// PredictionUoW manages transactions for prediction bookkeeping, which
	// reads orders with their stores and records prediction outcomes.
	PredictionUoW interface {
		TxManager
		OrderRepoFactory
		StoreRepoFactory
	}

	// PredictionUoWFactory creates new prediction unit of work instances.
	PredictionUoWFactory interface {
		Create() PredictionUoW
	}
)
