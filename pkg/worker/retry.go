package worker

import (
	"context"
	"errors"
	"math/rand"
	"time"

	"github.com/jdziat/pdfbatch/pkg/core"
)

// RetryConfig controls how the worker retries its own queue reads and
// history writes. It is separate from job retries, which are counted
// against Job.MaxRetries.
type RetryConfig struct {
	MaxAttempts       int           // including the first call
	InitialBackoff    time.Duration
	MaxBackoff        time.Duration
	BackoffMultiplier float64
	JitterFraction    float64 // 0..1 of the current delay
}

// DefaultRetryConfig is five attempts from 100ms up to 5s with 10% jitter.
func DefaultRetryConfig() RetryConfig {
	return RetryConfig{
		MaxAttempts:       5,
		InitialBackoff:    100 * time.Millisecond,
		MaxBackoff:        5 * time.Second,
		BackoffMultiplier: 2.0,
		JitterFraction:    0.1,
	}
}

// delays yields successive sleep durations for cfg.
type delays struct {
	cfg  RetryConfig
	next time.Duration
}

func (d *delays) take() time.Duration {
	cur := d.next
	d.next = time.Duration(float64(d.next) * d.cfg.BackoffMultiplier)
	if d.next > d.cfg.MaxBackoff {
		d.next = d.cfg.MaxBackoff
	}
	jittered := cur + time.Duration(float64(cur)*d.cfg.JitterFraction*(2*rand.Float64()-1))
	if jittered < 0 {
		return cur
	}
	return jittered
}

// retryWithBackoff calls op until it succeeds, returns a permanent error,
// ctx ends or the attempts run out. It always calls op at least once.
func retryWithBackoff(ctx context.Context, cfg RetryConfig, op func() error) error {
	wait := delays{cfg: cfg, next: cfg.InitialBackoff}
	attempts := max(cfg.MaxAttempts, 1)

	var err error
	for i := 1; ; i++ {
		if err = op(); err == nil || !IsRetryableError(err) || i == attempts {
			return err
		}
		t := time.NewTimer(wait.take())
		select {
		case <-ctx.Done():
			t.Stop()
			return ctx.Err()
		case <-t.C:
		}
	}
}

// IsRetryableError reports whether a storage error may clear on its own,
// such as a busy SQLite file or a dropped connection. Cancellation and
// missing records are permanent.
func IsRetryableError(err error) bool {
	switch {
	case err == nil:
		return false
	case errors.Is(err, context.Canceled), errors.Is(err, context.DeadlineExceeded):
		return false
	case errors.Is(err, core.ErrJobNotFound), errors.Is(err, core.ErrRunNotFound):
		return false
	}
	return true
}
