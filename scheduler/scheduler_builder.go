package scheduler

import (
	"runtime"
	"time"
)

// config holds TaskScheduler construction parameters assembled from
// functional options, the same builder pattern the teacher repo uses for
// its window and engine builders.
type config struct {
	numWorkers      int
	dequeCapacity   int
	fibersPerWorker int
	backoff         time.Duration
}

func defaultConfig() config {
	return config{
		numWorkers:      runtime.NumCPU(),
		dequeCapacity:   1024,
		fibersPerWorker: DefaultFibersPerWorker,
		backoff:         50 * time.Microsecond,
	}
}

// Option configures a TaskScheduler at construction time.
type Option func(*config)

// WithWorkerCount sets the total number of workers, including worker 0.
// Defaults to runtime.NumCPU(). Values below 1 are clamped to 1.
func WithWorkerCount(n int) Option {
	return func(c *config) {
		if n < 1 {
			n = 1
		}
		c.numWorkers = n
	}
}

// WithDequeCapacity sets the fixed per-worker deque capacity (rounded up
// to a power of two by deque.New). Defaults to 1024.
func WithDequeCapacity(n int) Option {
	return func(c *config) {
		if n > 0 {
			c.dequeCapacity = n
		}
	}
}

// WithFibersPerWorker sets how many fibers each worker's pool is
// pre-populated with. Defaults to DefaultFibersPerWorker.
func WithFibersPerWorker(n int) Option {
	return func(c *config) {
		if n > 0 {
			c.fibersPerWorker = n
		}
	}
}

// WithIdleBackoff sets how long an idle worker sleeps between empty polls
// of its deque and steal attempts. Defaults to 50µs.
func WithIdleBackoff(d time.Duration) Option {
	return func(c *config) {
		if d > 0 {
			c.backoff = d
		}
	}
}
