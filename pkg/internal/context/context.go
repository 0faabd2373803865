// Package context provides context helpers for the pdfbatch package.
package context

import (
	"context"

	"github.com/rs/zerolog"

	"github.com/jdziat/pdfbatch/pkg/core"
)

// JobContextKey is the key for storing job context in context.Context.
type JobContextKey struct{}

// JobContext holds the current job and the hooks a handler may call.
type JobContext struct {
	Job *core.Job
	// Cancelled reports whether cancellation of the batch was requested
	Cancelled func() bool
	// Report publishes progress within the current job
	Report func(label string, percent int)
	Logger zerolog.Logger
}

// GetJobContext retrieves the job context from a context.Context.
func GetJobContext(ctx context.Context) *JobContext {
	if jc, ok := ctx.Value(JobContextKey{}).(*JobContext); ok {
		return jc
	}
	return nil
}

// WithJobContext adds job context to a context.Context.
func WithJobContext(ctx context.Context, jc *JobContext) context.Context {
	return context.WithValue(ctx, JobContextKey{}, jc)
}
