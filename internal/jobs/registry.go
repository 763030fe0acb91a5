package jobs

import (
	"fmt"
	"time"
)

// Control-surface worker names.
const (
	OrderWorker      = "orders"
	BundleWorker     = "bundles"
	CustomerWorker   = "customers"
	DriverWorker     = "drivers"
	StoreWorker      = "stores"
	PredictionWorker = "predictions"
)

// Interval configuration keys, one per worker.
const (
	OrderIntervalKey      = "order_interval_seconds"
	BundleIntervalKey     = "bundle_interval_seconds"
	CustomerIntervalKey   = "customer_interval_seconds"
	DriverIntervalKey     = "driver_interval_seconds"
	StoreIntervalKey      = "store_interval_seconds"
	PredictionIntervalKey = "prediction_interval_seconds"
)

// WorkerStatus is one worker's entry in the status report.
type WorkerStatus struct {
	Name            string  `json:"name"`
	Active          bool    `json:"active"`
	IntervalSeconds float64 `json:"interval_seconds"`
}

// Registry holds the periodic workers and is the single place that knows
// which workers exist. It replaces ambient "is service X running" state
// with explicit per-worker lifecycle control.
type Registry struct {
	workers []*Worker
	byName  map[string]*Worker
	byKey   map[string]*Worker
}

// NewRegistry creates a registry over the given workers. Worker names and
// config keys must be unique.
func NewRegistry(workers ...*Worker) (*Registry, error) {
	r := &Registry{
		workers: workers,
		byName:  make(map[string]*Worker, len(workers)),
		byKey:   make(map[string]*Worker, len(workers)),
	}
	for _, w := range workers {
		if _, dup := r.byName[w.Name()]; dup {
			return nil, fmt.Errorf("duplicate worker name %q", w.Name())
		}
		if _, dup := r.byKey[w.ConfigKey()]; dup {
			return nil, fmt.Errorf("duplicate worker config key %q", w.ConfigKey())
		}
		r.byName[w.Name()] = w
		r.byKey[w.ConfigKey()] = w
	}
	return r, nil
}

// Get returns the worker with the given control-surface name.
func (r *Registry) Get(name string) (*Worker, error) {
	w, ok := r.byName[name]
	if !ok {
		return nil, fmt.Errorf("unknown worker %q", name)
	}
	return w, nil
}

// StartAll starts every registered worker.
func (r *Registry) StartAll() {
	for _, w := range r.workers {
		w.Start()
	}
}

// StopAll stops every registered worker.
func (r *Registry) StopAll() {
	for _, w := range r.workers {
		w.Stop()
	}
}

// Status reports every worker in registration order.
func (r *Registry) Status() []WorkerStatus {
	statuses := make([]WorkerStatus, 0, len(r.workers))
	for _, w := range r.workers {
		statuses = append(statuses, WorkerStatus{
			Name:            w.Name(),
			Active:          w.IsActive(),
			IntervalSeconds: w.Interval().Seconds(),
		})
	}
	return statuses
}

// SetIntervals applies a batch of interval updates keyed by config key.
// The whole batch is validated before any worker changes: unknown keys and
// non-positive values reject the update.
func (r *Registry) SetIntervals(intervals map[string]float64) error {
	for key, seconds := range intervals {
		if _, ok := r.byKey[key]; !ok {
			return fmt.Errorf("unknown configuration key %q", key)
		}
		if seconds <= 0 {
			return fmt.Errorf("%s must be positive, got %g", key, seconds)
		}
	}

	for key, seconds := range intervals {
		d := time.Duration(seconds * float64(time.Second))
		if err := r.byKey[key].SetInterval(d); err != nil {
			return err
		}
	}
	return nil
}
