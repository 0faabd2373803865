package handlers

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/jdziat/pdfbatch/pkg/core"
	"github.com/jdziat/pdfbatch/pkg/jobctx"
	"github.com/jdziat/pdfbatch/pkg/pdf"
)

// Handler performs the work of one job.
type Handler interface {
	Handle(ctx context.Context, job *core.Job) error
}

// HandlerFunc adapts a function to the Handler interface.
type HandlerFunc func(ctx context.Context, job *core.Job) error

// Handle calls f(ctx, job).
func (f HandlerFunc) Handle(ctx context.Context, job *core.Job) error {
	return f(ctx, job)
}

// Registrar accepts handlers by kind. batch.Batch implements it.
type Registrar interface {
	Register(kind core.Kind, h Handler)
}

// Option configures the built-in handlers.
type Option interface {
	apply(*config)
}

type optionFunc func(*config)

func (f optionFunc) apply(c *config) { f(c) }

type config struct {
	now func() time.Time
}

// WithClock sets the clock used for timestamped output names.
func WithClock(now func() time.Time) Option {
	return optionFunc(func(c *config) {
		c.now = now
	})
}

// Default returns the built-in handler for every kind.
func Default(engine pdf.Engine, opts ...Option) map[core.Kind]Handler {
	c := &config{now: time.Now}
	for _, opt := range opts {
		opt.apply(c)
	}
	return map[core.Kind]Handler{
		core.KindCombine:   &Combine{Engine: engine, Now: c.now},
		core.KindSplit:     &Split{Engine: engine},
		core.KindWatermark: &Watermark{Engine: engine},
		core.KindEncrypt:   &Encrypt{Engine: engine},
		core.KindCompress:  &Compress{Engine: engine},
	}
}

// Register registers every built-in handler with r.
func Register(r Registrar, engine pdf.Engine, opts ...Option) {
	for kind, h := range Default(engine, opts...) {
		r.Register(kind, h)
	}
}

// requireInputs fails permanently when any input is missing.
func requireInputs(job *core.Job) error {
	if len(job.Inputs) == 0 {
		return core.NoRetry(core.ErrNoInputs)
	}
	for _, p := range job.Inputs {
		info, err := os.Stat(p)
		if err != nil {
			if errors.Is(err, fs.ErrNotExist) {
				return core.NoRetry(fmt.Errorf("%w: %s", core.ErrFileNotFound, p))
			}
			return fmt.Errorf("stat %s: %w", p, err)
		}
		if info.IsDir() {
			return core.NoRetry(fmt.Errorf("%w: %s is a directory", core.ErrFileNotFound, p))
		}
	}
	return nil
}

// prepare checks inputs and creates the output directory.
func prepare(job *core.Job) error {
	if err := requireInputs(job); err != nil {
		return err
	}
	if job.OutputDir == "" {
		return core.NoRetry(core.ErrNoOutputDir)
	}
	if err := os.MkdirAll(job.OutputDir, 0o755); err != nil {
		return fmt.Errorf("create output dir: %w", err)
	}
	return nil
}

func invalidSetting(key string, err error) error {
	if errors.Is(err, core.ErrInvalidSettings) {
		return core.NoRetry(err)
	}
	return core.NoRetry(fmt.Errorf("%w: %s: %v", core.ErrInvalidSettings, key, err))
}

// baseName returns the file name without directory and extension.
func baseName(path string) string {
	name := filepath.Base(path)
	return strings.TrimSuffix(name, filepath.Ext(name))
}

// percent of done out of total, in 0..100.
func percent(done, total int) int {
	if total <= 0 {
		return 100
	}
	return done * 100 / total
}

// eachInput runs fn for every input with a checkpoint before each one and
// item progress after it.
func eachInput(ctx context.Context, job *core.Job, fn func(i int, in string) error) error {
	for i, in := range job.Inputs {
		if err := jobctx.Checkpoint(ctx); err != nil {
			return err
		}
		if err := fn(i, in); err != nil {
			return err
		}
		jobctx.ReportItem(ctx, filepath.Base(in), percent(i+1, len(job.Inputs)))
	}
	return nil
}
