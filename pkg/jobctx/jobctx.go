// Package jobctx provides public access to job context for operation handlers.
//
// Handlers call Checkpoint before every unit of work (each file, each page)
// and ReportItem to publish progress within the job.
package jobctx

import (
	"context"
	"fmt"

	"github.com/rs/zerolog"

	"github.com/jdziat/pdfbatch/pkg/core"
	intctx "github.com/jdziat/pdfbatch/pkg/internal/context"
)

// JobFromContext returns the current Job from context, or nil if not in a job handler.
func JobFromContext(ctx context.Context) *core.Job {
	jc := intctx.GetJobContext(ctx)
	if jc == nil {
		return nil
	}
	return jc.Job
}

// JobIDFromContext returns the current job ID from context, or empty string if not in a job handler.
func JobIDFromContext(ctx context.Context) string {
	job := JobFromContext(ctx)
	if job == nil {
		return ""
	}
	return job.ID
}

// Checkpoint returns core.ErrCancelled when the batch has been asked to stop
// or ctx is done. Handlers call it before each file and each page.
func Checkpoint(ctx context.Context) error {
	if err := ctx.Err(); err != nil {
		return fmt.Errorf("%w: %v", core.ErrCancelled, err)
	}
	jc := intctx.GetJobContext(ctx)
	if jc != nil && jc.Cancelled != nil && jc.Cancelled() {
		return core.ErrCancelled
	}
	return nil
}

// ReportItem publishes progress within the current job. Percent is clamped to 0..100.
// It is a no-op outside a job handler.
func ReportItem(ctx context.Context, label string, percent int) {
	jc := intctx.GetJobContext(ctx)
	if jc == nil || jc.Report == nil {
		return
	}
	if percent < 0 {
		percent = 0
	}
	if percent > 100 {
		percent = 100
	}
	jc.Report(label, percent)
}

var disabled = zerolog.Nop()

// Logger returns the job scoped logger, or a disabled logger outside a job
// handler. Like zerolog.Ctx it returns a pointer so calls can be chained.
func Logger(ctx context.Context) *zerolog.Logger {
	jc := intctx.GetJobContext(ctx)
	if jc == nil {
		return &disabled
	}
	return &jc.Logger
}
