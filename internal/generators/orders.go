package generators

import (
	"context"
	"errors"
	"math/rand/v2"

	"grocery/internal/core/application/usecases/commands"
	"grocery/internal/core/domain/model/customer"
	"grocery/internal/core/domain/model/kernel"
	"grocery/internal/core/domain/model/store"
)

// Expected preconditions for order generation; jobs treat these as a quiet
// tick, not a failure.
var (
	ErrNoCustomers = errors.New("no customers to place orders for")
	ErrNoStores    = errors.New("no stores to order from")
)

const (
	// taxRateBasisPoints is 8.75% expressed in basis points for integer
	// cent arithmetic.
	taxRateBasisPoints = 875

	// DefaultPreConfirmedRate is the share of orders that arrive already
	// confirmed, skipping the pending stage.
	DefaultPreConfirmedRate = 0.02

	// minStoreDistanceKm floors the proximity weighting so a store on the
	// customer's doorstep does not dominate the draw.
	minStoreDistanceKm = 0.1
)

// Item counts 1..15, weighted toward the typical 4-7 item basket.
var itemCountWeights = []float64{1, 3, 8, 12, 15, 15, 12, 8, 5, 4, 3, 2, 2, 1, 1}

// Tip percent distribution: most customers tip 15-20%.
var (
	tipPercents       = []int64{0, 10, 15, 18, 20, 25}
	tipPercentWeights = []float64{5, 15, 30, 25, 20, 5}
)

// OrderGenerator places orders for random customers at proximity-weighted
// stores. Order placement goes through the regular command handler so
// generated orders enter the queue like real ones.
type OrderGenerator struct {
	uowFactory       UoWFactory
	handler          commands.CreateOrderCommandHandler
	rnd              *rand.Rand
	preConfirmedRate float64
}

// NewOrderGenerator creates an order generator drawing from rnd. A
// preConfirmedRate outside [0, 1] falls back to DefaultPreConfirmedRate.
func NewOrderGenerator(
	uowFactory UoWFactory,
	handler commands.CreateOrderCommandHandler,
	rnd *rand.Rand,
	preConfirmedRate float64,
) OrderGenerator {
	if preConfirmedRate < 0 || preConfirmedRate > 1 {
		preConfirmedRate = DefaultPreConfirmedRate
	}
	return OrderGenerator{
		uowFactory:       uowFactory,
		handler:          handler,
		rnd:              rnd,
		preConfirmedRate: preConfirmedRate,
	}
}

// Generate places one order and returns its ID. A small share of orders is
// confirmed immediately after placement.
func (g OrderGenerator) Generate(ctx context.Context) (kernel.UUID, error) {
	customers, stores, err := g.loadSources(ctx)
	if err != nil {
		return kernel.UUID{}, err
	}
	if len(customers) == 0 {
		return kernel.UUID{}, ErrNoCustomers
	}
	if len(stores) == 0 {
		return kernel.UUID{}, ErrNoStores
	}

	c := customers[g.rnd.IntN(len(customers))]
	s, err := g.pickStore(c, stores)
	if err != nil {
		return kernel.UUID{}, err
	}

	itemCount := weightedIndex(g.rnd, itemCountWeights) + 1
	subtotal := g.subtotalCents(itemCount)
	tax := (subtotal*taxRateBasisPoints + 5000) / 10000
	tip := subtotal * tipPercents[weightedIndex(g.rnd, tipPercentWeights)] / 100

	orderID := kernel.NewUUID()
	cmd, err := commands.NewCreateOrderCommand(
		orderID,
		c.ID(),
		s.ID(),
		c.HomeLocation(),
		subtotal,
		tax,
		g.deliveryFeeCents(subtotal),
		tip,
		itemCount,
	)
	if err != nil {
		return kernel.UUID{}, err
	}

	if err = g.handler.Handle(ctx, cmd); err != nil {
		return kernel.UUID{}, err
	}

	if g.rnd.Float64() < g.preConfirmedRate {
		if err = g.confirm(ctx, orderID); err != nil {
			return kernel.UUID{}, err
		}
	}
	return orderID, nil
}

func (g OrderGenerator) loadSources(ctx context.Context) ([]*customer.Customer, []*store.Store, error) {
	uow := g.uowFactory.Create()
	if err := uow.Begin(ctx); err != nil {
		return nil, nil, err
	}

	defer func() {
		_ = uow.Rollback(ctx)
	}()

	customers, err := uow.CustomerRepository().GetAll(ctx)
	if err != nil {
		return nil, nil, err
	}
	stores, err := uow.StoreRepository().GetAll(ctx)
	if err != nil {
		return nil, nil, err
	}

	if err = uow.Commit(ctx); err != nil {
		return nil, nil, err
	}
	return customers, stores, nil
}

// pickStore draws a store with probability inversely proportional to its
// distance from the customer.
func (g OrderGenerator) pickStore(c *customer.Customer, stores []*store.Store) (*store.Store, error) {
	weights := make([]float64, len(stores))
	for i, s := range stores {
		distance, err := c.HomeLocation().DistanceTo(s.Location())
		if err != nil {
			return nil, err
		}
		if distance < minStoreDistanceKm {
			distance = minStoreDistanceKm
		}
		weights[i] = 1.0 / distance
	}
	return stores[weightedIndex(g.rnd, weights)], nil
}

// subtotalCents prices each basket item between $1.50 and $15.
func (g OrderGenerator) subtotalCents(itemCount int) int64 {
	var subtotal int64
	for range itemCount {
		subtotal += g.rnd.Int64N(1351) + 150
	}
	return subtotal
}

// deliveryFeeCents mirrors the marketplace fee schedule: $5.99 base,
// cheaper above the $35 free-delivery threshold, and a 15% premium-member
// slice that pays little or nothing.
func (g OrderGenerator) deliveryFeeCents(subtotal int64) int64 {
	premium := g.rnd.Float64() < 0.15
	aboveThreshold := subtotal >= 3500

	switch {
	case premium && aboveThreshold:
		return 0
	case premium:
		return 299
	case aboveThreshold:
		return 399
	default:
		return 599
	}
}

func (g OrderGenerator) confirm(ctx context.Context, orderID kernel.UUID) error {
	uow := g.uowFactory.Create()
	if err := uow.Begin(ctx); err != nil {
		return err
	}

	defer func() {
		_ = uow.Rollback(ctx)
	}()

	o, err := uow.OrderRepository().Get(ctx, orderID)
	if err != nil {
		return err
	}
	if err = o.Confirm(); err != nil {
		return err
	}
	if err = uow.OrderRepository().Update(ctx, o); err != nil {
		return err
	}
	return uow.Commit(ctx)
}
