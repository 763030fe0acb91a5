package generators

import (
	"context"
	"math/rand/v2"

	"grocery/internal/core/domain/model/kernel"
	"grocery/internal/core/domain/model/store"
)

// storeSpread keeps stores tight around the commercial centers.
const storeSpread = 0.03

// StoreGenerator creates stores in the weighted metro markets. Names are
// kept unique per generator instance; not safe for concurrent use, same as
// the random source it draws from.
type StoreGenerator struct {
	uowFactory UoWFactory
	rnd        *rand.Rand
	usedNames  map[string]bool
}

// NewStoreGenerator creates a store generator drawing from rnd.
func NewStoreGenerator(uowFactory UoWFactory, rnd *rand.Rand) *StoreGenerator {
	return &StoreGenerator{
		uowFactory: uowFactory,
		rnd:        rnd,
		usedNames:  make(map[string]bool),
	}
}

// Generate creates and persists one store.
func (g *StoreGenerator) Generate(ctx context.Context) (*store.Store, error) {
	location, err := scatterAround(g.rnd, weightedMetro(g.rnd), storeSpread)
	if err != nil {
		return nil, err
	}

	name := randomStoreName(g.rnd, g.usedNames)
	s, err := store.NewStore(kernel.NewUUID(), name, location)
	if err != nil {
		return nil, err
	}

	uow := g.uowFactory.Create()
	if err = uow.Begin(ctx); err != nil {
		return nil, err
	}

	defer func() {
		_ = uow.Rollback(ctx)
	}()

	if err = uow.StoreRepository().Add(ctx, s); err != nil {
		return nil, err
	}
	if err = uow.Commit(ctx); err != nil {
		return nil, err
	}
	return s, nil
}
