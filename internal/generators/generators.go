package generators

import (
	"context"
	"math/rand/v2"

	"grocery/internal/core/ports"
)

// UoW is the transaction surface the generators write through. The GORM
// unit of work satisfies it directly.
type UoW interface {
	Begin(ctx context.Context) error
	Commit(ctx context.Context) error
	Rollback(ctx context.Context) error

	OrderRepository() ports.OrderRepository
	CustomerRepository() ports.CustomerRepository
	DriverRepository() ports.DriverRepository
	StoreRepository() ports.StoreRepository
}

// UoWFactory creates a unit of work per generated record.
type UoWFactory interface {
	Create() UoW
}

// weightedIndex draws an index with probability proportional to its weight.
func weightedIndex(rnd *rand.Rand, weights []float64) int {
	total := 0.0
	for _, w := range weights {
		total += w
	}

	roll := rnd.Float64() * total
	for i, w := range weights {
		roll -= w
		if roll < 0 {
			return i
		}
	}
	return len(weights) - 1
}
