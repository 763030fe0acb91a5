package postgres_test

import (
	"context"
	"testing"
	"time"

	"grocery/internal/adapters/out/postgres"
	"grocery/internal/adapters/out/postgres/bundlerepo"
	"grocery/internal/adapters/out/postgres/customerrepo"
	"grocery/internal/adapters/out/postgres/driverrepo"
	"grocery/internal/adapters/out/postgres/orderrepo"
	"grocery/internal/adapters/out/postgres/storerepo"
	"grocery/internal/core/domain/model/driver"
	"grocery/internal/core/domain/model/kernel"
	"grocery/internal/core/domain/model/order"

	"github.com/stretchr/testify/suite"
	"github.com/testcontainers/testcontainers-go"
	tcpostgres "github.com/testcontainers/testcontainers-go/modules/postgres"
	"github.com/testcontainers/testcontainers-go/wait"
	postgresdriver "gorm.io/driver/postgres"
	"gorm.io/gorm"
)

// UnitOfWorkIntegrationTestSuite verifies transaction semantics across the
// repositories using a PostgreSQL container.
type UnitOfWorkIntegrationTestSuite struct {
	suite.Suite
	container *tcpostgres.PostgresContainer
	db        *gorm.DB
	factory   *postgres.GormUnitOfWorkFactory
}

func (suite *UnitOfWorkIntegrationTestSuite) SetupSuite() {
	ctx := context.Background()

	container, err := tcpostgres.Run(ctx,
		"postgres:15-alpine",
		tcpostgres.WithDatabase("testdb"),
		tcpostgres.WithUsername("testuser"),
		tcpostgres.WithPassword("testpass"),
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

	suite.Require().NoError(db.AutoMigrate(
		&orderrepo.OrderDTO{},
		&driverrepo.DriverDTO{},
		&bundlerepo.BundleDTO{},
		&bundlerepo.StopDTO{},
		&storerepo.StoreDTO{},
		&customerrepo.CustomerDTO{},
	))

	suite.factory = postgres.NewGormUnitOfWorkFactory(db)
}

func (suite *UnitOfWorkIntegrationTestSuite) SetupTest() {
	suite.Require().NoError(suite.db.Exec(
		"TRUNCATE TABLE orders, drivers, bundles, bundle_stops, stores, customers",
	).Error)
}

func (suite *UnitOfWorkIntegrationTestSuite) TearDownSuite() {
	if suite.container != nil {
		suite.Require().NoError(suite.container.Terminate(context.Background()))
	}
}

func (suite *UnitOfWorkIntegrationTestSuite) TestCommit_PersistsAcrossRepositories() {
	ctx := context.Background()

	testOrder := suite.createTestOrder()
	testDriver := suite.createTestDriver()

	uow := suite.factory.Create()
	suite.Require().NoError(uow.Begin(ctx))
	suite.Require().NoError(uow.OrderRepository().Add(ctx, testOrder))
	suite.Require().NoError(uow.DriverRepository().Add(ctx, testDriver))
	suite.Require().NoError(uow.Commit(ctx))

	retrievedOrder, err := suite.factory.Create().OrderRepository().Get(ctx, testOrder.ID())
	suite.Require().NoError(err)
	suite.Equal(testOrder.ID(), retrievedOrder.ID())

	retrievedDriver, err := suite.factory.Create().DriverRepository().Get(ctx, testDriver.ID())
	suite.Require().NoError(err)
	suite.Equal(testDriver.ID(), retrievedDriver.ID())
}

func (suite *UnitOfWorkIntegrationTestSuite) TestRollback_DiscardsAllChanges() {
	ctx := context.Background()

	testOrder := suite.createTestOrder()
	testDriver := suite.createTestDriver()

	uow := suite.factory.Create()
	suite.Require().NoError(uow.Begin(ctx))
	suite.Require().NoError(uow.OrderRepository().Add(ctx, testOrder))
	suite.Require().NoError(uow.DriverRepository().Add(ctx, testDriver))
	suite.Require().NoError(uow.Rollback(ctx))

	var orderCount, driverCount int64
	suite.Require().NoError(suite.db.Model(&orderrepo.OrderDTO{}).Count(&orderCount).Error)
	suite.Require().NoError(suite.db.Model(&driverrepo.DriverDTO{}).Count(&driverCount).Error)
	suite.Zero(orderCount)
	suite.Zero(driverCount)
}

func (suite *UnitOfWorkIntegrationTestSuite) TestCommit_WithoutBegin_ReturnsError() {
	uow := suite.factory.Create()
	suite.Require().Error(uow.Commit(context.Background()))
}

func (suite *UnitOfWorkIntegrationTestSuite) TestRollback_WithoutBegin_ReturnsError() {
	uow := suite.factory.Create()
	suite.Require().Error(uow.Rollback(context.Background()))
}

func (suite *UnitOfWorkIntegrationTestSuite) TestConcurrentClaims_OnlyOneWins() {
	ctx := context.Background()

	testOrder := suite.createTestOrder()
	setup := suite.factory.Create()
	suite.Require().NoError(setup.Begin(ctx))
	suite.Require().NoError(setup.OrderRepository().Add(ctx, testOrder))
	suite.Require().NoError(setup.Commit(ctx))

	results := make(chan bool, 2)
	for range 2 {
		go func() {
			uow := suite.factory.Create()
			if err := uow.Begin(ctx); err != nil {
				results <- false
				return
			}
			won, err := uow.OrderRepository().ClaimForBundle(
				ctx, testOrder.ID(), kernel.NewUUID(), kernel.NewUUID(),
			)
			if err != nil || uow.Commit(ctx) != nil {
				results <- false
				return
			}
			results <- won
		}()
	}

	wins := 0
	for range 2 {
		if <-results {
			wins++
		}
	}
	suite.Equal(1, wins)
}

func (suite *UnitOfWorkIntegrationTestSuite) createTestOrder() *order.Order {
	location, err := kernel.NewGeoPoint(37.77, -122.41)
	suite.Require().NoError(err)

	testOrder, err := order.NewOrder(
		kernel.NewUUID(), kernel.NewUUID(), kernel.NewUUID(),
		location, 4250, 372, 599, 640, 7,
	)
	suite.Require().NoError(err)
	return testOrder
}

func (suite *UnitOfWorkIntegrationTestSuite) createTestDriver() *driver.Driver {
	location, err := kernel.NewGeoPoint(37.76, -122.43)
	suite.Require().NoError(err)

	testDriver, err := driver.NewDriver(kernel.NewUUID(), "Test Driver", location)
	suite.Require().NoError(err)
	return testDriver
}

func TestUnitOfWorkIntegrationTestSuite(t *testing.T) {
	suite.Run(t, new(UnitOfWorkIntegrationTestSuite))
}
