package generators_test

import (
	"context"
	"math"
	"math/rand/v2"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"grocery/internal/core/application/usecases/commands"
	"grocery/internal/core/domain/model/customer"
	"grocery/internal/core/domain/model/driver"
	"grocery/internal/core/domain/model/kernel"
	"grocery/internal/core/domain/model/order"
	"grocery/internal/core/domain/model/store"
	"grocery/internal/core/ports"
	"grocery/internal/generators"
	"grocery/internal/pkg/errs"
)

type MockOrderRepository struct {
	mock.Mock
}

func (m *MockOrderRepository) Add(ctx context.Context, aggregate *order.Order) error {
	args := m.Called(ctx, aggregate)
	return args.Error(0)
}

func (m *MockOrderRepository) Update(ctx context.Context, aggregate *order.Order) error {
	args := m.Called(ctx, aggregate)
	return args.Error(0)
}

func (m *MockOrderRepository) UpdateIfStatus(ctx context.Context, aggregate *order.Order, expected order.Status) (bool, error) {
	args := m.Called(ctx, aggregate, expected)
	return args.Bool(0), args.Error(1)
}

func (m *MockOrderRepository) RecordPredictionOutcome(ctx context.Context, orderID kernel.UUID, minutes *float64) (bool, error) {
	args := m.Called(ctx, orderID, minutes)
	return args.Bool(0), args.Error(1)
}

func (m *MockOrderRepository) Get(ctx context.Context, id kernel.UUID) (*order.Order, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*order.Order), args.Error(1)
}

func (m *MockOrderRepository) GetAllQueued(ctx context.Context) ([]*order.Order, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*order.Order), args.Error(1)
}

func (m *MockOrderRepository) GetAllActive(ctx context.Context) ([]*order.Order, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*order.Order), args.Error(1)
}

func (m *MockOrderRepository) GetAllByBundle(ctx context.Context, bundleID kernel.UUID) ([]*order.Order, error) {
	args := m.Called(ctx, bundleID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*order.Order), args.Error(1)
}

func (m *MockOrderRepository) GetPredictionFailures(ctx context.Context, limit int) ([]*order.Order, error) {
	args := m.Called(ctx, limit)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*order.Order), args.Error(1)
}

func (m *MockOrderRepository) ClaimForBundle(ctx context.Context, orderID, bundleID, driverID kernel.UUID) (bool, error) {
	args := m.Called(ctx, orderID, bundleID, driverID)
	return args.Bool(0), args.Error(1)
}

type MockCustomerRepository struct {
	mock.Mock
}

func (m *MockCustomerRepository) Add(ctx context.Context, aggregate *customer.Customer) error {
	args := m.Called(ctx, aggregate)
	return args.Error(0)
}

func (m *MockCustomerRepository) Get(ctx context.Context, id kernel.UUID) (*customer.Customer, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*customer.Customer), args.Error(1)
}

func (m *MockCustomerRepository) GetAll(ctx context.Context) ([]*customer.Customer, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*customer.Customer), args.Error(1)
}

type MockDriverRepository struct {
	mock.Mock
}

func (m *MockDriverRepository) Add(ctx context.Context, aggregate *driver.Driver) error {
	args := m.Called(ctx, aggregate)
	return args.Error(0)
}

func (m *MockDriverRepository) Update(ctx context.Context, aggregate *driver.Driver) error {
	args := m.Called(ctx, aggregate)
	return args.Error(0)
}

func (m *MockDriverRepository) Get(ctx context.Context, id kernel.UUID) (*driver.Driver, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*driver.Driver), args.Error(1)
}

func (m *MockDriverRepository) GetAll(ctx context.Context) ([]*driver.Driver, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*driver.Driver), args.Error(1)
}

func (m *MockDriverRepository) GetAllAvailable(ctx context.Context) ([]*driver.Driver, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*driver.Driver), args.Error(1)
}

func (m *MockDriverRepository) Claim(ctx context.Context, driverID, bundleID kernel.UUID) (bool, error) {
	args := m.Called(ctx, driverID, bundleID)
	return args.Bool(0), args.Error(1)
}

type MockStoreRepository struct {
	mock.Mock
}

func (m *MockStoreRepository) Add(ctx context.Context, aggregate *store.Store) error {
	args := m.Called(ctx, aggregate)
	return args.Error(0)
}

func (m *MockStoreRepository) Get(ctx context.Context, id kernel.UUID) (*store.Store, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*store.Store), args.Error(1)
}

func (m *MockStoreRepository) GetAll(ctx context.Context) ([]*store.Store, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*store.Store), args.Error(1)
}

type MockUoW struct {
	mock.Mock
}

func (m *MockUoW) Begin(ctx context.Context) error {
	args := m.Called(ctx)
	return args.Error(0)
}

func (m *MockUoW) Commit(ctx context.Context) error {
	args := m.Called(ctx)
	return args.Error(0)
}

func (m *MockUoW) Rollback(ctx context.Context) error {
	args := m.Called(ctx)
	return args.Error(0)
}

func (m *MockUoW) OrderRepository() ports.OrderRepository {
	args := m.Called()
	return args.Get(0).(ports.OrderRepository)
}

func (m *MockUoW) CustomerRepository() ports.CustomerRepository {
	args := m.Called()
	return args.Get(0).(ports.CustomerRepository)
}

func (m *MockUoW) DriverRepository() ports.DriverRepository {
	args := m.Called()
	return args.Get(0).(ports.DriverRepository)
}

func (m *MockUoW) StoreRepository() ports.StoreRepository {
	args := m.Called()
	return args.Get(0).(ports.StoreRepository)
}

type MockUoWFactory struct {
	mock.Mock
}

func (m *MockUoWFactory) Create() generators.UoW {
	args := m.Called()
	return args.Get(0).(generators.UoW)
}

type MockOrderUoW struct {
	mock.Mock
}

func (m *MockOrderUoW) Begin(ctx context.Context) error {
	args := m.Called(ctx)
	return args.Error(0)
}

func (m *MockOrderUoW) Commit(ctx context.Context) error {
	args := m.Called(ctx)
	return args.Error(0)
}

func (m *MockOrderUoW) Rollback(ctx context.Context) error {
	args := m.Called(ctx)
	return args.Error(0)
}

func (m *MockOrderUoW) OrderRepository() ports.OrderRepository {
	args := m.Called()
	return args.Get(0).(ports.OrderRepository)
}

type MockOrderUoWFactory struct {
	mock.Mock
}

func (m *MockOrderUoWFactory) Create() commands.OrderUoW {
	args := m.Called()
	return args.Get(0).(commands.OrderUoW)
}

func testRand() *rand.Rand {
	return rand.New(rand.NewPCG(7, 11))
}

// withinMetro reports whether p sits inside the scatter box of any metro
// center.
func withinMetro(p kernel.GeoPoint, spread float64) bool {
	centers := [][2]float64{
		{37.7749, -122.4194},
		{37.8044, -122.2712},
		{37.3382, -121.8863},
		{37.8716, -122.2727},
		{37.4419, -122.1430},
	}
	for _, c := range centers {
		if math.Abs(p.Latitude()-c[0]) <= spread && math.Abs(p.Longitude()-c[1]) <= spread {
			return true
		}
	}
	return false
}

func newTestCustomer(t *testing.T, lat, lon float64) *customer.Customer {
	t.Helper()

	home, err := kernel.NewGeoPoint(lat, lon)
	require.NoError(t, err)
	c, err := customer.NewCustomer(kernel.NewUUID(), "Robin Chen", home)
	require.NoError(t, err)
	return c
}

func newTestStore(t *testing.T, name string, lat, lon float64) *store.Store {
	t.Helper()

	location, err := kernel.NewGeoPoint(lat, lon)
	require.NoError(t, err)
	s, err := store.NewStore(kernel.NewUUID(), name, location)
	require.NoError(t, err)
	return s
}

func TestCustomerGenerator_Generate(t *testing.T) {
	var created *customer.Customer

	customersRepo := &MockCustomerRepository{}
	customersRepo.On("Add", mock.Anything, mock.MatchedBy(func(c *customer.Customer) bool {
		created = c
		return c.Name() != "" && withinMetro(c.HomeLocation(), 0.05)
	})).Return(nil).Once()

	uow := &MockUoW{}
	uow.On("Begin", mock.Anything).Return(nil)
	uow.On("CustomerRepository").Return(customersRepo)
	uow.On("Commit", mock.Anything).Return(nil)
	uow.On("Rollback", mock.Anything).Return(nil)

	factory := &MockUoWFactory{}
	factory.On("Create").Return(uow)

	gen := generators.NewCustomerGenerator(factory, testRand())
	c, err := gen.Generate(t.Context())

	require.NoError(t, err)
	assert.Same(t, created, c)
	customersRepo.AssertExpectations(t)
	uow.AssertExpectations(t)
}

func TestDriverGenerator_Generate(t *testing.T) {
	driversRepo := &MockDriverRepository{}
	driversRepo.On("Add", mock.Anything, mock.MatchedBy(func(d *driver.Driver) bool {
		return d.IsAvailable() && withinMetro(d.Location(), 0.1)
	})).Return(nil).Once()

	uow := &MockUoW{}
	uow.On("Begin", mock.Anything).Return(nil)
	uow.On("DriverRepository").Return(driversRepo)
	uow.On("Commit", mock.Anything).Return(nil)
	uow.On("Rollback", mock.Anything).Return(nil)

	factory := &MockUoWFactory{}
	factory.On("Create").Return(uow)

	gen := generators.NewDriverGenerator(factory, testRand())
	d, err := gen.Generate(t.Context())

	require.NoError(t, err)
	assert.True(t, d.IsAvailable())
	driversRepo.AssertExpectations(t)
}

func TestStoreGenerator_GeneratesUniqueNames(t *testing.T) {
	storesRepo := &MockStoreRepository{}
	storesRepo.On("Add", mock.Anything, mock.Anything).Return(nil)

	uow := &MockUoW{}
	uow.On("Begin", mock.Anything).Return(nil)
	uow.On("StoreRepository").Return(storesRepo)
	uow.On("Commit", mock.Anything).Return(nil)
	uow.On("Rollback", mock.Anything).Return(nil)

	factory := &MockUoWFactory{}
	factory.On("Create").Return(uow)

	gen := generators.NewStoreGenerator(factory, testRand())

	names := make(map[string]bool)
	for range 30 {
		s, err := gen.Generate(t.Context())
		require.NoError(t, err)
		assert.False(t, names[s.Name()], "duplicate store name %q", s.Name())
		names[s.Name()] = true
		assert.True(t, withinMetro(s.Location(), 0.03))
	}
}

func TestOrderGenerator_Generate(t *testing.T) {
	t.Run("places a consistent order for a known customer", func(t *testing.T) {
		c := newTestCustomer(t, 37.77, -122.41)
		s := newTestStore(t, "Fresh Market", 37.78, -122.42)

		customersRepo := &MockCustomerRepository{}
		customersRepo.On("GetAll", mock.Anything).Return([]*customer.Customer{c}, nil)
		storesRepo := &MockStoreRepository{}
		storesRepo.On("GetAll", mock.Anything).Return([]*store.Store{s}, nil)

		uow := &MockUoW{}
		uow.On("Begin", mock.Anything).Return(nil)
		uow.On("CustomerRepository").Return(customersRepo)
		uow.On("StoreRepository").Return(storesRepo)
		uow.On("Commit", mock.Anything).Return(nil)
		uow.On("Rollback", mock.Anything).Return(nil)

		factory := &MockUoWFactory{}
		factory.On("Create").Return(uow)

		var placed *order.Order
		ordersRepo := &MockOrderRepository{}
		ordersRepo.On("Add", mock.Anything, mock.MatchedBy(func(o *order.Order) bool {
			placed = o
			return o.CustomerID() == c.ID() && o.StoreID() == s.ID()
		})).Return(nil).Once()

		orderUoW := &MockOrderUoW{}
		orderUoW.On("Begin", mock.Anything).Return(nil)
		orderUoW.On("OrderRepository").Return(ordersRepo)
		orderUoW.On("Commit", mock.Anything).Return(nil)
		orderUoW.On("Rollback", mock.Anything).Return(nil)

		orderFactory := &MockOrderUoWFactory{}
		orderFactory.On("Create").Return(orderUoW)

		handler := commands.NewCreateOrderCommandHandler(orderFactory)
		gen := generators.NewOrderGenerator(factory, handler, testRand(), 0)

		orderID, err := gen.Generate(t.Context())
		require.NoError(t, err)
		require.NotNil(t, placed)
		assert.Equal(t, placed.ID(), orderID)

		assert.Equal(t, c.HomeLocation(), placed.DeliveryLocation())
		assert.GreaterOrEqual(t, placed.ItemCount(), 1)
		assert.LessOrEqual(t, placed.ItemCount(), 15)
		assert.GreaterOrEqual(t, placed.SubtotalCents(), int64(150*placed.ItemCount()))

		wantTax := (placed.SubtotalCents()*875 + 5000) / 10000
		assert.Equal(t, wantTax, placed.TaxCents())
		assert.Equal(t,
			placed.SubtotalCents()+placed.TaxCents()+placed.DeliveryFeeCents()+placed.TipCents(),
			placed.TotalCents())

		ordersRepo.AssertExpectations(t)
	})

	t.Run("prefers the nearby store", func(t *testing.T) {
		c := newTestCustomer(t, 37.77, -122.41)
		near := newTestStore(t, "Corner Pantry", 37.775, -122.415)
		far := newTestStore(t, "Valley Goods", 37.34, -121.89)

		customersRepo := &MockCustomerRepository{}
		customersRepo.On("GetAll", mock.Anything).Return([]*customer.Customer{c}, nil)
		storesRepo := &MockStoreRepository{}
		storesRepo.On("GetAll", mock.Anything).Return([]*store.Store{near, far}, nil)

		uow := &MockUoW{}
		uow.On("Begin", mock.Anything).Return(nil)
		uow.On("CustomerRepository").Return(customersRepo)
		uow.On("StoreRepository").Return(storesRepo)
		uow.On("Commit", mock.Anything).Return(nil)
		uow.On("Rollback", mock.Anything).Return(nil)

		factory := &MockUoWFactory{}
		factory.On("Create").Return(uow)

		nearCount := 0
		ordersRepo := &MockOrderRepository{}
		ordersRepo.On("Add", mock.Anything, mock.MatchedBy(func(o *order.Order) bool {
			if o.StoreID() == near.ID() {
				nearCount++
			}
			return true
		})).Return(nil)

		orderUoW := &MockOrderUoW{}
		orderUoW.On("Begin", mock.Anything).Return(nil)
		orderUoW.On("OrderRepository").Return(ordersRepo)
		orderUoW.On("Commit", mock.Anything).Return(nil)
		orderUoW.On("Rollback", mock.Anything).Return(nil)

		orderFactory := &MockOrderUoWFactory{}
		orderFactory.On("Create").Return(orderUoW)

		handler := commands.NewCreateOrderCommandHandler(orderFactory)
		gen := generators.NewOrderGenerator(factory, handler, testRand(), 0)

		const draws = 40
		for range draws {
			_, err := gen.Generate(t.Context())
			require.NoError(t, err)
		}

		// the near store is roughly three orders of magnitude more likely
		assert.GreaterOrEqual(t, nearCount, draws-2)
	})

	t.Run("no customers", func(t *testing.T) {
		customersRepo := &MockCustomerRepository{}
		customersRepo.On("GetAll", mock.Anything).Return([]*customer.Customer{}, nil)
		storesRepo := &MockStoreRepository{}
		storesRepo.On("GetAll", mock.Anything).Return([]*store.Store{}, nil)

		uow := &MockUoW{}
		uow.On("Begin", mock.Anything).Return(nil)
		uow.On("CustomerRepository").Return(customersRepo)
		uow.On("StoreRepository").Return(storesRepo)
		uow.On("Commit", mock.Anything).Return(nil)
		uow.On("Rollback", mock.Anything).Return(nil)

		factory := &MockUoWFactory{}
		factory.On("Create").Return(uow)

		orderFactory := &MockOrderUoWFactory{}
		handler := commands.NewCreateOrderCommandHandler(orderFactory)
		gen := generators.NewOrderGenerator(factory, handler, testRand(), 0)

		_, err := gen.Generate(t.Context())
		assert.ErrorIs(t, err, generators.ErrNoCustomers)
		orderFactory.AssertNotCalled(t, "Create")
	})

	t.Run("pre-confirms every order when the rate is one", func(t *testing.T) {
		c := newTestCustomer(t, 37.77, -122.41)
		s := newTestStore(t, "Fresh Market", 37.78, -122.42)

		repo := newMemoryOrderRepo()

		customersRepo := &MockCustomerRepository{}
		customersRepo.On("GetAll", mock.Anything).Return([]*customer.Customer{c}, nil)
		storesRepo := &MockStoreRepository{}
		storesRepo.On("GetAll", mock.Anything).Return([]*store.Store{s}, nil)

		uow := &MockUoW{}
		uow.On("Begin", mock.Anything).Return(nil)
		uow.On("CustomerRepository").Return(customersRepo)
		uow.On("StoreRepository").Return(storesRepo)
		uow.On("OrderRepository").Return(repo)
		uow.On("Commit", mock.Anything).Return(nil)
		uow.On("Rollback", mock.Anything).Return(nil)

		factory := &MockUoWFactory{}
		factory.On("Create").Return(uow)

		orderUoW := &MockOrderUoW{}
		orderUoW.On("Begin", mock.Anything).Return(nil)
		orderUoW.On("OrderRepository").Return(repo)
		orderUoW.On("Commit", mock.Anything).Return(nil)
		orderUoW.On("Rollback", mock.Anything).Return(nil)

		orderFactory := &MockOrderUoWFactory{}
		orderFactory.On("Create").Return(orderUoW)

		handler := commands.NewCreateOrderCommandHandler(orderFactory)
		gen := generators.NewOrderGenerator(factory, handler, testRand(), 1)

		orderID, err := gen.Generate(t.Context())
		require.NoError(t, err)

		stored, err := repo.Get(t.Context(), orderID)
		require.NoError(t, err)
		assert.Equal(t, order.Confirmed, stored.Status())
	})
}

// memoryOrderRepo backs tests that need reads of just-written orders.
type memoryOrderRepo struct {
	orders map[kernel.UUID]*order.Order
}

func newMemoryOrderRepo() *memoryOrderRepo {
	return &memoryOrderRepo{orders: make(map[kernel.UUID]*order.Order)}
}

func (r *memoryOrderRepo) Add(_ context.Context, aggregate *order.Order) error {
	r.orders[aggregate.ID()] = aggregate
	return nil
}

func (r *memoryOrderRepo) Update(_ context.Context, aggregate *order.Order) error {
	r.orders[aggregate.ID()] = aggregate
	return nil
}

func (r *memoryOrderRepo) UpdateIfStatus(_ context.Context, aggregate *order.Order, expected order.Status) (bool, error) {
	stored, ok := r.orders[aggregate.ID()]
	if !ok || stored.Status() != expected {
		return false, nil
	}
	r.orders[aggregate.ID()] = aggregate
	return true, nil
}

func (r *memoryOrderRepo) RecordPredictionOutcome(_ context.Context, orderID kernel.UUID, minutes *float64) (bool, error) {
	stored, ok := r.orders[orderID]
	if !ok || stored.PredictionSent() {
		return false, nil
	}
	if minutes == nil {
		return true, stored.RecordPredictionFailure()
	}
	return true, stored.RecordPrediction(*minutes)
}

func (r *memoryOrderRepo) Get(_ context.Context, id kernel.UUID) (*order.Order, error) {
	o, ok := r.orders[id]
	if !ok {
		return nil, errs.NewObjectNotFoundError("order", id.String())
	}
	return o, nil
}

func (r *memoryOrderRepo) GetAllQueued(_ context.Context) ([]*order.Order, error) {
	return nil, nil
}

func (r *memoryOrderRepo) GetAllActive(_ context.Context) ([]*order.Order, error) {
	return nil, nil
}

func (r *memoryOrderRepo) GetAllByBundle(_ context.Context, _ kernel.UUID) ([]*order.Order, error) {
	return nil, nil
}

func (r *memoryOrderRepo) GetPredictionFailures(_ context.Context, _ int) ([]*order.Order, error) {
	return nil, nil
}

func (r *memoryOrderRepo) ClaimForBundle(_ context.Context, _, _, _ kernel.UUID) (bool, error) {
	return false, nil
}
