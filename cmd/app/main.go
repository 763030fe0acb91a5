package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"strconv"
	"syscall"
	"time"

	"grocery/cmd"
	"grocery/internal/adapters/out/postgres/bundlerepo"
	"grocery/internal/adapters/out/postgres/customerrepo"
	"grocery/internal/adapters/out/postgres/driverrepo"
	"grocery/internal/adapters/out/postgres/orderrepo"
	"grocery/internal/adapters/out/postgres/storerepo"

	"github.com/joho/godotenv"
	"github.com/labstack/echo/v4"
	"github.com/labstack/gommon/log"
	gormpostgres "gorm.io/driver/postgres"
	"gorm.io/gorm"
)

const shutdownTimeout = 10 * time.Second

func main() {
	// .env is optional; a missing file falls through to process env and
	// the built-in defaults.
	_ = godotenv.Load(".env")

	configs := getConfigs()
	logger := slog.New(slog.NewTextHandler(os.Stdout, nil))

	gormDB, err := openDatabase(configs)
	if err != nil {
		log.Fatalf("Failed to connect to database: %v", err)
	}

	app, err := cmd.NewCompositionRoot(configs, gormDB, logger)
	if err != nil {
		log.Fatalf("Failed to build composition root: %v", err)
	}

	registry, err := app.CreateRegistry()
	if err != nil {
		log.Fatalf("Failed to build worker registry: %v", err)
	}

	jobManager := app.CreateJobManager(registry)
	if err := jobManager.StartAll(); err != nil {
		log.Fatalf("Failed to start background jobs: %v", err)
	}

	e := echo.New()
	e.HideBanner = true
	app.CreateServer(registry).RegisterRoutes(e)

	go func() {
		if err := e.Start(fmt.Sprintf("0.0.0.0:%s", configs.HTTPPort)); err != nil {
			logger.Info("HTTP server stopped", "error", err)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	logger.Info("Shutting down")

	ctx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := e.Shutdown(ctx); err != nil {
		logger.Error("HTTP server shutdown failed", "error", err)
	}

	jobManager.StopAll()
	// drains in-flight prediction deliveries before the process exits
	app.Coordinator().Close()
}

func getConfigs() cmd.Config {
	return cmd.Config{
		HTTPPort:   envString("HTTP_PORT", "8000"),
		DBHost:     envString("DB_HOST", "localhost"),
		DBPort:     envString("DB_PORT", "5432"),
		DBUser:     envString("DB_USER", "postgres"),
		DBPassword: envString("DB_PASSWORD", "postgres"),
		DBName:     envString("DB_NAME", "grocery"),
		DBSslMode:  envString("DB_SSLMODE", "disable"),

		PredictionBaseURL: envString("PREDICTION_BASE_URL", "http://localhost:8001"),
		PredictionTimeout: envSeconds("PREDICTION_TIMEOUT_SECONDS", 5),

		BundleMinSize: envInt("BUNDLE_MIN_SIZE", 3),
		BundleMaxSize: envInt("BUNDLE_MAX_SIZE", 5),

		OrderInterval:      envSeconds("ORDER_INTERVAL_SECONDS", 10),
		BundleInterval:     envSeconds("BUNDLE_INTERVAL_SECONDS", 60),
		CustomerInterval:   envSeconds("CUSTOMER_INTERVAL_SECONDS", 120),
		DriverInterval:     envSeconds("DRIVER_INTERVAL_SECONDS", 300),
		StoreInterval:      envSeconds("STORE_INTERVAL_SECONDS", 600),
		PredictionInterval: envSeconds("PREDICTION_INTERVAL_SECONDS", 60),
	}
}

func envString(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func envInt(key string, fallback int) int {
	v := os.Getenv(key)
	if v == "" {
		return fallback
	}
	parsed, err := strconv.Atoi(v)
	if err != nil {
		log.Fatalf("Invalid value for %s: %q", key, v)
	}
	return parsed
}

func envSeconds(key string, fallback float64) time.Duration {
	seconds := fallback
	if v := os.Getenv(key); v != "" {
		parsed, err := strconv.ParseFloat(v, 64)
		if err != nil || parsed <= 0 {
			log.Fatalf("Invalid value for %s: %q", key, v)
		}
		seconds = parsed
	}
	return time.Duration(seconds * float64(time.Second))
}

func openDatabase(configs cmd.Config) (*gorm.DB, error) {
	dsn := fmt.Sprintf("host=%s port=%s user=%s password=%s dbname=%s sslmode=%s",
		configs.DBHost, configs.DBPort, configs.DBUser,
		configs.DBPassword, configs.DBName, configs.DBSslMode)

	db, err := gorm.Open(gormpostgres.Open(dsn), &gorm.Config{})
	if err != nil {
		return nil, err
	}

	err = db.AutoMigrate(
		&customerrepo.CustomerDTO{},
		&storerepo.StoreDTO{},
		&driverrepo.DriverDTO{},
		&orderrepo.OrderDTO{},
		&bundlerepo.BundleDTO{},
		&bundlerepo.StopDTO{},
	)
	if err != nil {
		return nil, err
	}
	return db, nil
}
