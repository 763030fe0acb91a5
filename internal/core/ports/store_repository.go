package ports

import (
	"context"

	"grocery/internal/core/domain/model/kernel"
	"grocery/internal/core/domain/model/store"
)

// StoreRepository defines the persistence contract for stores.
type StoreRepository interface {
	// Add persists a new store.
	Add(ctx context.Context, aggregate *store.Store) error

	// Get retrieves a store by its unique identifier.
	Get(ctx context.Context, id kernel.UUID) (*store.Store, error)

	// GetAll retrieves every store.
	GetAll(ctx context.Context) ([]*store.Store, error)
}
