package orderrepo_test

import (
	"context"
	"testing"
	"time"

	"grocery/internal/adapters/out/postgres/orderrepo"
	"grocery/internal/core/domain/model/kernel"
	"grocery/internal/core/domain/model/order"
	"grocery/internal/pkg/errs"

	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/suite"
	"github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/modules/postgres"
	"github.com/testcontainers/testcontainers-go/wait"
	postgresdriver "gorm.io/driver/postgres"
	"gorm.io/gorm"
)

// MockAggregateTracker is a mock implementation of aggregateTracker interface.
type MockAggregateTracker struct {
	mock.Mock
}

func (m *MockAggregateTracker) TrackAggregate(id kernel.UUID, aggregate interface{}) {
	m.Called(id, aggregate)
}

// OrderRepositoryIntegrationTestSuite provides integration tests for OrderRepository
// using PostgreSQL containers to verify database persistence behavior.
type OrderRepositoryIntegrationTestSuite struct {
	suite.Suite
	container  *postgres.PostgresContainer
	db         *gorm.DB
	repository *orderrepo.GormOrderRepository
	tracker    *MockAggregateTracker
}

func (suite *OrderRepositoryIntegrationTestSuite) SetupSuite() {
	ctx := context.Background()

	container, err := postgres.Run(ctx,
		"postgres:15-alpine",
		postgres.WithDatabase("testdb"),
		postgres.WithUsername("testuser"),
		postgres.WithPassword("testpass"),
		testcontainers.WithWaitStrategy(
			wait.ForLog("database system is ready to accept connections").
				WithOccurrence(2).
				WithStartupTimeout(30*time.Second),
		),
	)
	suite.Require().NoError(err)
	suite.container = container

	connStr, err := container.ConnectionString(ctx, "sslmode=disable")
	suite.Require().NoError(err)

	db, err := gorm.Open(postgresdriver.Open(connStr), &gorm.Config{})
	suite.Require().NoError(err)
	suite.db = db

	suite.Require().NoError(db.AutoMigrate(&orderrepo.OrderDTO{}))
}

func (suite *OrderRepositoryIntegrationTestSuite) SetupTest() {
	suite.Require().NoError(suite.db.Exec("TRUNCATE TABLE orders").Error)

	suite.tracker = new(MockAggregateTracker)
	suite.repository = orderrepo.NewGormOrderRepository(suite.db, suite.tracker)
}

func (suite *OrderRepositoryIntegrationTestSuite) TearDownSuite() {
	if suite.container != nil {
		suite.Require().NoError(suite.container.Terminate(context.Background()))
	}
}

func (suite *OrderRepositoryIntegrationTestSuite) TestAdd_ValidOrder_Success() {
	ctx := context.Background()

	testOrder := suite.createTestOrder()
	suite.tracker.On("TrackAggregate", testOrder.ID(), testOrder).Once()

	err := suite.repository.Add(ctx, testOrder)
	suite.Require().NoError(err)

	suite.assertOrderCount(1)
	suite.tracker.AssertExpectations(suite.T())
}

func (suite *OrderRepositoryIntegrationTestSuite) TestGet_ExistingOrder_RoundTripsAllFields() {
	ctx := context.Background()

	testOrder := suite.createTestOrder()
	suite.tracker.On("TrackAggregate", testOrder.ID(), testOrder).Once()
	suite.Require().NoError(suite.repository.Add(ctx, testOrder))

	retrieved, err := suite.repository.Get(ctx, testOrder.ID())
	suite.Require().NoError(err)

	suite.Equal(testOrder.ID(), retrieved.ID())
	suite.Equal(testOrder.CustomerID(), retrieved.CustomerID())
	suite.Equal(testOrder.StoreID(), retrieved.StoreID())
	suite.Equal(testOrder.DeliveryLocation(), retrieved.DeliveryLocation())
	suite.Equal(order.Pending, retrieved.Status())
	suite.Equal(testOrder.SubtotalCents(), retrieved.SubtotalCents())
	suite.Equal(testOrder.TotalCents(), retrieved.TotalCents())
	suite.Equal(testOrder.ItemCount(), retrieved.ItemCount())
	suite.Nil(retrieved.Driver())
	suite.Nil(retrieved.Bundle())
	suite.False(retrieved.PredictionSent())

	suite.tracker.AssertExpectations(suite.T())
}

func (suite *OrderRepositoryIntegrationTestSuite) TestGet_NonExistentOrder_ReturnsNotFoundError() {
	ctx := context.Background()

	retrieved, err := suite.repository.Get(ctx, kernel.NewUUID())

	suite.Nil(retrieved)
	suite.Require().Error(err)

	var notFoundErr *errs.ObjectNotFoundError
	suite.Require().ErrorAs(err, &notFoundErr)
	suite.tracker.AssertExpectations(suite.T())
}

func (suite *OrderRepositoryIntegrationTestSuite) TestUpdate_LifecycleProgress_Persisted() {
	ctx := context.Background()

	testOrder := suite.createTestOrder()
	suite.tracker.On("TrackAggregate", testOrder.ID(), testOrder).Twice()
	suite.Require().NoError(suite.repository.Add(ctx, testOrder))

	suite.Require().NoError(testOrder.Confirm())
	suite.Require().NoError(suite.repository.Update(ctx, testOrder))

	retrieved, err := suite.repository.Get(ctx, testOrder.ID())
	suite.Require().NoError(err)
	suite.Equal(order.Confirmed, retrieved.Status())
	suite.NotNil(retrieved.ConfirmedAt())

	suite.tracker.AssertExpectations(suite.T())
}

func (suite *OrderRepositoryIntegrationTestSuite) TestUpdate_CanceledOrder_TipZeroPersisted() {
	ctx := context.Background()

	testOrder := suite.createTestOrder()
	total := testOrder.TotalCents()
	tip := testOrder.TipCents()
	suite.tracker.On("TrackAggregate", testOrder.ID(), testOrder).Twice()
	suite.Require().NoError(suite.repository.Add(ctx, testOrder))

	suite.Require().NoError(testOrder.Cancel())
	suite.Require().NoError(suite.repository.Update(ctx, testOrder))

	retrieved, err := suite.repository.Get(ctx, testOrder.ID())
	suite.Require().NoError(err)
	suite.Equal(order.Canceled, retrieved.Status())
	suite.Equal(int64(0), retrieved.TipCents())
	suite.Equal(total-tip, retrieved.TotalCents())

	suite.tracker.AssertExpectations(suite.T())
}

func (suite *OrderRepositoryIntegrationTestSuite) TestUpdate_NonExistentOrder_ReturnsError() {
	ctx := context.Background()

	err := suite.repository.Update(ctx, suite.createTestOrder())
	suite.Require().Error(err)
	suite.tracker.AssertExpectations(suite.T())
}

func (suite *OrderRepositoryIntegrationTestSuite) TestGetAllQueued_ReturnsPendingUnbundledOldestFirst() {
	ctx := context.Background()

	suite.tracker.On("TrackAggregate", mock.AnythingOfType("kernel.UUID"), mock.Anything).Times(3)

	first := suite.createTestOrder()
	suite.Require().NoError(suite.repository.Add(ctx, first))

	// created_at is stored with microsecond precision
	time.Sleep(time.Millisecond)
	second := suite.createTestOrder()
	suite.Require().NoError(suite.repository.Add(ctx, second))

	claimed := suite.createTestOrder()
	suite.Require().NoError(suite.repository.Add(ctx, claimed))
	won, err := suite.repository.ClaimForBundle(ctx, claimed.ID(), kernel.NewUUID(), kernel.NewUUID())
	suite.Require().NoError(err)
	suite.True(won)

	queued, err := suite.repository.GetAllQueued(ctx)
	suite.Require().NoError(err)
	suite.Require().Len(queued, 2)
	suite.Equal(first.ID(), queued[0].ID())
	suite.Equal(second.ID(), queued[1].ID())

	suite.tracker.AssertExpectations(suite.T())
}

func (suite *OrderRepositoryIntegrationTestSuite) TestClaimForBundle_AlreadyClaimed_ReturnsFalse() {
	ctx := context.Background()

	testOrder := suite.createTestOrder()
	suite.tracker.On("TrackAggregate", testOrder.ID(), testOrder).Once()
	suite.Require().NoError(suite.repository.Add(ctx, testOrder))

	won, err := suite.repository.ClaimForBundle(ctx, testOrder.ID(), kernel.NewUUID(), kernel.NewUUID())
	suite.Require().NoError(err)
	suite.True(won)

	lost, err := suite.repository.ClaimForBundle(ctx, testOrder.ID(), kernel.NewUUID(), kernel.NewUUID())
	suite.Require().NoError(err)
	suite.False(lost)

	suite.tracker.AssertExpectations(suite.T())
}

func (suite *OrderRepositoryIntegrationTestSuite) TestGetPredictionFailures_ReturnsConfirmedUnscoredOrders() {
	ctx := context.Background()

	suite.tracker.On("TrackAggregate", mock.AnythingOfType("kernel.UUID"), mock.Anything).Times(3)

	unscored := suite.createTestOrder()
	suite.Require().NoError(unscored.Confirm())
	suite.Require().NoError(unscored.RecordPredictionFailure())
	suite.Require().NoError(suite.repository.Add(ctx, unscored))

	pending := suite.createTestOrder()
	suite.Require().NoError(suite.repository.Add(ctx, pending))

	scored := suite.createTestOrder()
	suite.Require().NoError(scored.Confirm())
	suite.Require().NoError(scored.RecordPrediction(24.5))
	suite.Require().NoError(suite.repository.Add(ctx, scored))

	failures, err := suite.repository.GetPredictionFailures(ctx, 10)
	suite.Require().NoError(err)
	suite.Require().Len(failures, 1)
	suite.Equal(unscored.ID(), failures[0].ID())

	suite.tracker.AssertExpectations(suite.T())
}

func (suite *OrderRepositoryIntegrationTestSuite) TestRecordPredictionOutcome_KeepsLifecycleColumns() {
	ctx := context.Background()

	testOrder := suite.createTestOrder()
	suite.tracker.On("TrackAggregate", testOrder.ID(), mock.Anything).Twice()
	suite.Require().NoError(suite.repository.Add(ctx, testOrder))

	// the order cancels while the prediction call is in flight
	canceled, err := suite.repository.Get(ctx, testOrder.ID())
	suite.Require().NoError(err)
	suite.Require().NoError(canceled.Cancel())
	suite.Require().NoError(suite.repository.Update(ctx, canceled))

	minutes := 24.5
	recorded, err := suite.repository.RecordPredictionOutcome(ctx, testOrder.ID(), &minutes)
	suite.Require().NoError(err)
	suite.True(recorded)

	retrieved, err := suite.repository.Get(ctx, testOrder.ID())
	suite.Require().NoError(err)
	suite.Equal(order.Canceled, retrieved.Status())
	suite.NotNil(retrieved.CanceledAt())
	suite.Equal(int64(0), retrieved.TipCents())
	suite.True(retrieved.PredictionSent())
	suite.Require().NotNil(retrieved.PredictedDeliveryMinutes())
	suite.InDelta(24.5, *retrieved.PredictedDeliveryMinutes(), 0.001)
}

func (suite *OrderRepositoryIntegrationTestSuite) TestRecordPredictionOutcome_AlreadySent_ReturnsFalse() {
	ctx := context.Background()

	testOrder := suite.createTestOrder()
	suite.Require().NoError(testOrder.RecordPrediction(12.0))
	suite.tracker.On("TrackAggregate", testOrder.ID(), testOrder).Once()
	suite.Require().NoError(suite.repository.Add(ctx, testOrder))

	minutes := 99.0
	recorded, err := suite.repository.RecordPredictionOutcome(ctx, testOrder.ID(), &minutes)
	suite.Require().NoError(err)
	suite.False(recorded)

	retrieved, err := suite.repository.Get(ctx, testOrder.ID())
	suite.Require().NoError(err)
	suite.Require().NotNil(retrieved.PredictedDeliveryMinutes())
	suite.InDelta(12.0, *retrieved.PredictedDeliveryMinutes(), 0.001)
}

func (suite *OrderRepositoryIntegrationTestSuite) TestRecordPredictionOutcome_NilMinutes_FlagsFailure() {
	ctx := context.Background()

	testOrder := suite.createTestOrder()
	suite.tracker.On("TrackAggregate", testOrder.ID(), testOrder).Once()
	suite.Require().NoError(suite.repository.Add(ctx, testOrder))

	recorded, err := suite.repository.RecordPredictionOutcome(ctx, testOrder.ID(), nil)
	suite.Require().NoError(err)
	suite.True(recorded)

	retrieved, err := suite.repository.Get(ctx, testOrder.ID())
	suite.Require().NoError(err)
	suite.True(retrieved.PredictionFailed())
	suite.False(retrieved.PredictionSent())
	suite.Nil(retrieved.PredictedDeliveryMinutes())
}

func (suite *OrderRepositoryIntegrationTestSuite) TestUpdateIfStatus_GuardLost_WritesNothing() {
	ctx := context.Background()

	testOrder := suite.createTestOrder()
	suite.tracker.On("TrackAggregate", testOrder.ID(), mock.Anything)
	suite.Require().NoError(suite.repository.Add(ctx, testOrder))

	// this handler read the order while it was still pending
	stale, err := suite.repository.Get(ctx, testOrder.ID())
	suite.Require().NoError(err)

	// another writer cancels first
	canceled, err := suite.repository.Get(ctx, testOrder.ID())
	suite.Require().NoError(err)
	suite.Require().NoError(canceled.Cancel())
	suite.Require().NoError(suite.repository.Update(ctx, canceled))

	suite.Require().NoError(stale.Confirm())
	won, err := suite.repository.UpdateIfStatus(ctx, stale, order.Pending)
	suite.Require().NoError(err)
	suite.False(won)

	retrieved, err := suite.repository.Get(ctx, testOrder.ID())
	suite.Require().NoError(err)
	suite.Equal(order.Canceled, retrieved.Status())
}

func (suite *OrderRepositoryIntegrationTestSuite) TestUpdateIfStatus_GuardHolds_Persists() {
	ctx := context.Background()

	testOrder := suite.createTestOrder()
	suite.tracker.On("TrackAggregate", testOrder.ID(), testOrder).Twice()
	suite.Require().NoError(suite.repository.Add(ctx, testOrder))

	suite.Require().NoError(testOrder.Confirm())
	won, err := suite.repository.UpdateIfStatus(ctx, testOrder, order.Pending)
	suite.Require().NoError(err)
	suite.True(won)

	retrieved, err := suite.repository.Get(ctx, testOrder.ID())
	suite.Require().NoError(err)
	suite.Equal(order.Confirmed, retrieved.Status())
	suite.NotNil(retrieved.ConfirmedAt())

	suite.tracker.AssertExpectations(suite.T())
}

// createTestOrder creates a basic test order with default values.
func (suite *OrderRepositoryIntegrationTestSuite) createTestOrder() *order.Order {
	location, err := kernel.NewGeoPoint(37.77, -122.41)
	suite.Require().NoError(err)

	testOrder, err := order.NewOrder(
		kernel.NewUUID(), kernel.NewUUID(), kernel.NewUUID(),
		location, 4250, 372, 599, 640, 7,
	)
	suite.Require().NoError(err)
	return testOrder
}

// assertOrderCount verifies the number of orders in the database.
func (suite *OrderRepositoryIntegrationTestSuite) assertOrderCount(expected int) {
	var count int64
	err := suite.db.Model(&orderrepo.OrderDTO{}).Count(&count).Error
	suite.Require().NoError(err)
	suite.Equal(int64(expected), count)
}

func TestOrderRepositoryIntegrationTestSuite(t *testing.T) {
	suite.Run(t, new(OrderRepositoryIntegrationTestSuite))
}
