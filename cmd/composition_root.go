package cmd

import (
	"context"
	"errors"
	"log/slog"
	"math/rand/v2"

	"grocery/internal/adapters/in/http"
	"grocery/internal/adapters/out/postgres"
	"grocery/internal/adapters/out/prediction"
	"grocery/internal/core/application/usecases/commands"
	"grocery/internal/core/application/usecases/queries"
	"grocery/internal/core/domain/services"
	"grocery/internal/generators"
	"grocery/internal/jobs"
	"grocery/internal/predictions"

	"gorm.io/gorm"
)

// CompositionRoot wires adapters, handlers, generators and background jobs
// from a single database connection and configuration.
type CompositionRoot struct {
	config           Config
	gormDB           *gorm.DB
	uowFactory       postgres.GormUnitOfWorkFactory
	predictionClient *prediction.Client
	coordinator      *predictions.Coordinator
	bundler          services.Bundler
	logger           *slog.Logger
}

func NewCompositionRoot(config Config, gormDB *gorm.DB, logger *slog.Logger) (*CompositionRoot, error) {
	bundler, err := services.NewBundler(config.BundleMinSize, config.BundleMaxSize)
	if err != nil {
		return nil, err
	}

	root := &CompositionRoot{
		config:           config,
		gormDB:           gormDB,
		uowFactory:       *postgres.NewGormUnitOfWorkFactory(gormDB),
		predictionClient: prediction.NewClient(config.PredictionBaseURL, nil),
		bundler:          bundler,
		logger:           logger,
	}
	root.coordinator = predictions.NewCoordinator(
		FuncPredictionUoWFactory(func() commands.PredictionUoW { return root.uowFactory.Create() }),
		root.predictionClient,
		logger,
		config.PredictionTimeout,
	)
	return root, nil
}

// Coordinator returns the prediction delivery coordinator. The caller owns
// its shutdown via Close.
func (c *CompositionRoot) Coordinator() *predictions.Coordinator {
	return c.coordinator
}

func (c *CompositionRoot) CreateCreateOrderCommandHandler() commands.CreateOrderCommandHandler {
	var f commands.OrderUoWFactory = FuncOrderUoWFactory(func() commands.OrderUoW {
		return c.uowFactory.Create()
	})
	return commands.NewCreateOrderCommandHandler(f)
}

func (c *CompositionRoot) CreateFormBundlesCommandHandler() commands.FormBundlesCommandHandler {
	var f commands.DispatchUoWFactory = FuncDispatchUoWFactory(func() commands.DispatchUoW {
		return c.uowFactory.Create()
	})
	return commands.NewFormBundlesCommandHandler(f, c.bundler, c.coordinator)
}

func (c *CompositionRoot) CreateAdvanceDeliveriesCommandHandler() commands.AdvanceDeliveriesCommandHandler {
	var f commands.DeliveryUoWFactory = FuncDeliveryUoWFactory(func() commands.DeliveryUoW {
		return c.uowFactory.Create()
	})
	return commands.NewAdvanceDeliveriesCommandHandler(f)
}

func (c *CompositionRoot) CreateSampleCancellationCommandHandler() commands.SampleCancellationCommandHandler {
	var f commands.OrderUoWFactory = FuncOrderUoWFactory(func() commands.OrderUoW {
		return c.uowFactory.Create()
	})
	sampler := services.NewCancellationSampler(newRand(), services.DefaultCancellationProbability)
	return commands.NewSampleCancellationCommandHandler(f, sampler)
}

func (c *CompositionRoot) CreateResendPredictionsCommandHandler() commands.ResendPredictionsCommandHandler {
	var f commands.PredictionUoWFactory = FuncPredictionUoWFactory(func() commands.PredictionUoW {
		return c.uowFactory.Create()
	})
	// zero picks the handler's own default; manual batches run on a longer
	// deadline than the automatic path
	return commands.NewResendPredictionsCommandHandler(f, c.predictionClient, 0)
}

func (c *CompositionRoot) CreateGetOrderQueueQueryHandler() queries.GetOrderQueueQueryHandler {
	return queries.NewGetOrderQueueQueryHandler(c.gormDB)
}

func (c *CompositionRoot) CreateGetActiveBundlesQueryHandler() queries.GetActiveBundlesQueryHandler {
	return queries.NewGetActiveBundlesQueryHandler(c.gormDB)
}

func (c *CompositionRoot) CreateOrderGenerator() generators.OrderGenerator {
	return generators.NewOrderGenerator(
		c.generatorUoWFactory(),
		c.CreateCreateOrderCommandHandler(),
		newRand(),
		generators.DefaultPreConfirmedRate,
	)
}

func (c *CompositionRoot) CreateCustomerGenerator() generators.CustomerGenerator {
	return generators.NewCustomerGenerator(c.generatorUoWFactory(), newRand())
}

func (c *CompositionRoot) CreateDriverGenerator() generators.DriverGenerator {
	return generators.NewDriverGenerator(c.generatorUoWFactory(), newRand())
}

func (c *CompositionRoot) CreateStoreGenerator() *generators.StoreGenerator {
	return generators.NewStoreGenerator(c.generatorUoWFactory(), newRand())
}

// CreateRegistry builds the six simulation workers on their configured
// intervals. Workers start stopped; /services/{name}/start or StartAll
// brings them up.
func (c *CompositionRoot) CreateRegistry() (*jobs.Registry, error) {
	orderGen := c.CreateOrderGenerator()
	customerGen := c.CreateCustomerGenerator()
	driverGen := c.CreateDriverGenerator()
	storeGen := c.CreateStoreGenerator()
	formBundles := c.CreateFormBundlesCommandHandler()
	resend := c.CreateResendPredictionsCommandHandler()

	orderTick := func(ctx context.Context) error {
		_, err := orderGen.Generate(ctx)
		// an empty world is a quiet tick, not a failure
		if errors.Is(err, generators.ErrNoCustomers) || errors.Is(err, generators.ErrNoStores) {
			return nil
		}
		return err
	}
	bundleTick := func(ctx context.Context) error {
		_, err := formBundles.Handle(ctx, commands.NewFormBundlesCommand())
		return err
	}
	customerTick := func(ctx context.Context) error {
		_, err := customerGen.Generate(ctx)
		return err
	}
	driverTick := func(ctx context.Context) error {
		_, err := driverGen.Generate(ctx)
		return err
	}
	storeTick := func(ctx context.Context) error {
		_, err := storeGen.Generate(ctx)
		return err
	}
	predictionTick := func(ctx context.Context) error {
		cmd, err := commands.NewResendPredictionsCommand(http.DefaultResendBatchSize)
		if err != nil {
			return err
		}
		_, err = resend.Handle(ctx, cmd)
		return err
	}

	return jobs.NewRegistry(
		jobs.NewWorker(jobs.OrderWorker, jobs.OrderIntervalKey, c.config.OrderInterval, orderTick, c.logger),
		jobs.NewWorker(jobs.BundleWorker, jobs.BundleIntervalKey, c.config.BundleInterval, bundleTick, c.logger),
		jobs.NewWorker(jobs.CustomerWorker, jobs.CustomerIntervalKey, c.config.CustomerInterval, customerTick, c.logger),
		jobs.NewWorker(jobs.DriverWorker, jobs.DriverIntervalKey, c.config.DriverInterval, driverTick, c.logger),
		jobs.NewWorker(jobs.StoreWorker, jobs.StoreIntervalKey, c.config.StoreInterval, storeTick, c.logger),
		jobs.NewWorker(jobs.PredictionWorker, jobs.PredictionIntervalKey, c.config.PredictionInterval, predictionTick, c.logger),
	)
}

// CreateJobManager builds the fixed-cadence cron jobs plus the worker
// registry under one lifecycle.
func (c *CompositionRoot) CreateJobManager(registry *jobs.Registry) *jobs.JobManager {
	deliveryJob := jobs.NewDeliverySimulationJob(c.CreateAdvanceDeliveriesCommandHandler(), c.logger)
	cancellationJob := jobs.NewCancellationJob(c.CreateSampleCancellationCommandHandler(), c.logger)
	return jobs.NewJobManager(registry, deliveryJob, cancellationJob)
}

func (c *CompositionRoot) CreateServer(registry *jobs.Registry) *http.Server {
	return http.NewServer(
		registry,
		c.CreateFormBundlesCommandHandler(),
		c.CreateResendPredictionsCommandHandler(),
		c.CreateGetOrderQueueQueryHandler(),
		c.CreateGetActiveBundlesQueryHandler(),
	)
}

func (c *CompositionRoot) generatorUoWFactory() generators.UoWFactory {
	return FuncGeneratorUoWFactory(func() generators.UoW {
		return c.uowFactory.Create()
	})
}

// newRand seeds an independent draw source per consumer; each worker ticks
// on its own goroutine and rand.Rand is not safe for concurrent use.
func newRand() *rand.Rand {
	return rand.New(rand.NewPCG(rand.Uint64(), rand.Uint64()))
}

type FuncOrderUoWFactory func() commands.OrderUoW

func (f FuncOrderUoWFactory) Create() commands.OrderUoW {
	return f()
}

type FuncDispatchUoWFactory func() commands.DispatchUoW

func (f FuncDispatchUoWFactory) Create() commands.DispatchUoW {
	return f()
}

type FuncDeliveryUoWFactory func() commands.DeliveryUoW

func (f FuncDeliveryUoWFactory) Create() commands.DeliveryUoW {
	return f()
}

type FuncPredictionUoWFactory func() commands.PredictionUoW

func (f FuncPredictionUoWFactory) Create() commands.PredictionUoW {
	return f()
}

type FuncGeneratorUoWFactory func() generators.UoW

func (f FuncGeneratorUoWFactory) Create() generators.UoW {
	return f()
}
