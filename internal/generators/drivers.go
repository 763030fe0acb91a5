package generators

import (
	"context"
	"math/rand/v2"

	"grocery/internal/core/domain/model/driver"
	"grocery/internal/core/domain/model/kernel"
)

// driverSpread is wider than the customer spread; drivers roam.
const driverSpread = 0.1

// DriverGenerator creates drivers scattered around the metro centers.
// New drivers enter the registry available for dispatch.
type DriverGenerator struct {
	uowFactory UoWFactory
	rnd        *rand.Rand
}

// NewDriverGenerator creates a driver generator drawing from rnd.
func NewDriverGenerator(uowFactory UoWFactory, rnd *rand.Rand) DriverGenerator {
	return DriverGenerator{
		uowFactory: uowFactory,
		rnd:        rnd,
	}
}

// Generate creates and persists one driver.
func (g DriverGenerator) Generate(ctx context.Context) (*driver.Driver, error) {
	location, err := scatterAround(g.rnd, randomMetro(g.rnd), driverSpread)
	if err != nil {
		return nil, err
	}

	d, err := driver.NewDriver(kernel.NewUUID(), randomPersonName(g.rnd), location)
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

	if err = uow.DriverRepository().Add(ctx, d); err != nil {
		return nil, err
	}
	if err = uow.Commit(ctx); err != nil {
		return nil, err
	}
	return d, nil
}
