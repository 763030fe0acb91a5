package generators

import (
	"context"
	"math/rand/v2"

	"grocery/internal/core/domain/model/customer"
	"grocery/internal/core/domain/model/kernel"
)

// customerSpread keeps homes within a few kilometers of the metro center.
const customerSpread = 0.05

// CustomerGenerator creates customers scattered around the metro centers.
type CustomerGenerator struct {
	uowFactory UoWFactory
	rnd        *rand.Rand
}

// NewCustomerGenerator creates a customer generator drawing from rnd.
func NewCustomerGenerator(uowFactory UoWFactory, rnd *rand.Rand) CustomerGenerator {
	return CustomerGenerator{
		uowFactory: uowFactory,
		rnd:        rnd,
	}
}

// Generate creates and persists one customer.
func (g CustomerGenerator) Generate(ctx context.Context) (*customer.Customer, error) {
	home, err := scatterAround(g.rnd, randomMetro(g.rnd), customerSpread)
	if err != nil {
		return nil, err
	}

	c, err := customer.NewCustomer(kernel.NewUUID(), randomPersonName(g.rnd), home)
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

	if err = uow.CustomerRepository().Add(ctx, c); err != nil {
		return nil, err
	}
	if err = uow.Commit(ctx); err != nil {
		return nil, err
	}
	return c, nil
}
