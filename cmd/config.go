package cmd

import "time"

// Config carries everything the composition root needs to wire the
// application. Values come from the environment; see cmd/app/main.go.
type Config struct {
	HTTPPort   string
	DBHost     string
	DBPort     string
	DBUser     string
	DBPassword string
	DBName     string
	DBSslMode  string

	PredictionBaseURL string
	PredictionTimeout time.Duration

	BundleMinSize int
	BundleMaxSize int

	OrderInterval      time.Duration
	BundleInterval     time.Duration
	CustomerInterval   time.Duration
	DriverInterval     time.Duration
	StoreInterval      time.Duration
	PredictionInterval time.Duration
}
