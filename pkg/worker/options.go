package worker

import (
	"time"

	"github.com/rs/zerolog"
)

// WorkerOption configures a Worker.
type WorkerOption interface {
	ApplyWorker(*WorkerConfig)
}

type workerOptionFunc func(*WorkerConfig)

func (f workerOptionFunc) ApplyWorker(c *WorkerConfig) { f(c) }

// WorkerConfig holds worker configuration.
type WorkerConfig struct {
	// RetryDelay is the pause before a failed job is attempted again.
	// Zero retries immediately.
	RetryDelay time.Duration

	// StorageRetry controls retries of history storage writes.
	StorageRetry *RetryConfig

	// DequeueRetry controls retries of queue reads.
	DequeueRetry *RetryConfig

	Logger *zerolog.Logger
}

// WithRetryDelay waits d before attempting a failed job again.
// The wait ends early when cancellation is requested.
func WithRetryDelay(d time.Duration) WorkerOption {
	return workerOptionFunc(func(c *WorkerConfig) {
		if d < 0 {
			d = 0
		}
		c.RetryDelay = d
	})
}

// WithLogger sets the worker logger. Defaults to the batch logger.
func WithLogger(l zerolog.Logger) WorkerOption {
	return workerOptionFunc(func(c *WorkerConfig) {
		c.Logger = &l
	})
}

// WithStorageRetry sets the retry configuration for history storage writes.
func WithStorageRetry(cfg RetryConfig) WorkerOption {
	return workerOptionFunc(func(c *WorkerConfig) {
		c.StorageRetry = &cfg
	})
}

// WithDequeueRetry sets the retry configuration for queue reads.
func WithDequeueRetry(cfg RetryConfig) WorkerOption {
	return workerOptionFunc(func(c *WorkerConfig) {
		c.DequeueRetry = &cfg
	})
}

// WithRetryAttempts sets the number of storage write attempts, keeping the
// other defaults.
func WithRetryAttempts(n int) WorkerOption {
	return workerOptionFunc(func(c *WorkerConfig) {
		cfg := DefaultRetryConfig()
		if n < 1 {
			n = 1
		}
		cfg.MaxAttempts = n
		c.StorageRetry = &cfg
	})
}

// DisableRetry makes storage and queue operations single-shot.
func DisableRetry() WorkerOption {
	return workerOptionFunc(func(c *WorkerConfig) {
		single := RetryConfig{MaxAttempts: 1}
		c.StorageRetry = &single
		dequeue := single
		c.DequeueRetry = &dequeue
	})
}
