package jobs

import (
	"context"
	"fmt"
	"log/slog"
	"math/rand/v2"
	"sync"
	"time"
)

// ErrorBackoff pauses a worker after a failed or panicked tick so one bad
// cycle does not spin the loop.
const ErrorBackoff = 10 * time.Second

// jitterFraction spreads ticks +-20% around the configured interval to
// avoid synchronized bursts across workers.
const jitterFraction = 0.2

// TickFunc runs one unit of a worker's periodic work.
type TickFunc func(ctx context.Context) error

// Worker is an independently startable goroutine loop that runs its tick on
// a jittered interval. The interval can be changed while the worker runs;
// the new value takes effect on the next tick.
type Worker struct {
	name      string
	configKey string
	tick      TickFunc
	logger    *slog.Logger

	mu       sync.Mutex
	interval time.Duration
	cancel   context.CancelFunc
	done     chan struct{}
}

// NewWorker creates a worker. name is the control-surface identifier,
// configKey the interval key it answers to.
func NewWorker(name, configKey string, interval time.Duration, tick TickFunc, logger *slog.Logger) *Worker {
	return &Worker{
		name:      name,
		configKey: configKey,
		tick:      tick,
		logger:    logger.With("worker", name),
		interval:  interval,
	}
}

// Name returns the control-surface identifier.
func (w *Worker) Name() string { return w.name }

// ConfigKey returns the interval key this worker answers to.
func (w *Worker) ConfigKey() string { return w.configKey }

// Interval returns the currently configured base interval.
func (w *Worker) Interval() time.Duration {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.interval
}

// SetInterval changes the base interval. Takes effect on the next tick.
func (w *Worker) SetInterval(interval time.Duration) error {
	if interval <= 0 {
		return fmt.Errorf("worker %s: interval must be positive", w.name)
	}
	w.mu.Lock()
	defer w.mu.Unlock()
	w.interval = interval
	return nil
}

// IsActive reports whether the worker loop is running.
func (w *Worker) IsActive() bool {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.cancel != nil
}

// Start launches the worker loop. Starting a running worker is a no-op.
func (w *Worker) Start() {
	w.mu.Lock()
	defer w.mu.Unlock()
	if w.cancel != nil {
		return
	}

	ctx, cancel := context.WithCancel(context.Background())
	w.cancel = cancel
	w.done = make(chan struct{})

	go w.run(ctx, w.done)
	w.logger.InfoContext(ctx, "Worker started", "interval", w.interval)
}

// Stop cancels the worker loop and waits for the current tick to finish.
// Stopping a stopped worker is a no-op.
func (w *Worker) Stop() {
	w.mu.Lock()
	if w.cancel == nil {
		w.mu.Unlock()
		return
	}
	cancel, done := w.cancel, w.done
	w.cancel = nil
	w.done = nil
	w.mu.Unlock()

	cancel()
	<-done
	w.logger.Info("Worker stopped")
}

func (w *Worker) run(ctx context.Context, done chan struct{}) {
	defer close(done)

	for {
		if !w.sleep(ctx, w.jittered()) {
			return
		}

		if err := w.safeTick(ctx); err != nil {
			w.logger.ErrorContext(ctx, "Worker tick failed", "error", err)
			if !w.sleep(ctx, ErrorBackoff) {
				return
			}
		}
	}
}

// safeTick runs one tick, converting a panic into an error so the loop
// survives it.
func (w *Worker) safeTick(ctx context.Context) (err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("worker %s: tick panicked: %v", w.name, r)
		}
	}()
	return w.tick(ctx)
}

func (w *Worker) jittered() time.Duration {
	base := w.Interval()
	jitter := 1 + (rand.Float64()*2-1)*jitterFraction
	return time.Duration(float64(base) * jitter)
}

// sleep waits for d or until the context is canceled. Returns false on
// cancellation.
func (w *Worker) sleep(ctx context.Context, d time.Duration) bool {
	timer := time.NewTimer(d)
	defer timer.Stop()

	select {
	case <-ctx.Done():
		return false
	case <-timer.C:
		return true
	}
}
