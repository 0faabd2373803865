package handlers

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"time"

	"github.com/jdziat/pdfbatch/pkg/core"
	"github.com/jdziat/pdfbatch/pkg/jobctx"
	"github.com/jdziat/pdfbatch/pkg/pdf"
)

// Combine merges every input, in submission order, into one document
// named combined_<YYYYMMDD_HHMMSS>.pdf.
type Combine struct {
	Engine pdf.Engine
	Now    func() time.Time
}

// Handle implements Handler.
func (h *Combine) Handle(ctx context.Context, job *core.Job) error {
	if err := prepare(job); err != nil {
		return err
	}

	// Each source is opened once before merging so a damaged file fails
	// the job before anything is written.
	pages := 0
	err := eachInput(ctx, job, func(_ int, in string) error {
		n, err := h.Engine.PageCount(in)
		if err != nil {
			return err
		}
		pages += n
		return nil
	})
	if err != nil {
		return err
	}
	if err := jobctx.Checkpoint(ctx); err != nil {
		return err
	}

	out, err := h.outputPath(job.OutputDir)
	if err != nil {
		return err
	}
	if err := h.Engine.Merge(job.Inputs, out); err != nil {
		return err
	}

	jobctx.Logger(ctx).Info().
		Str("output", out).
		Int("files", len(job.Inputs)).
		Int("pages", pages).
		Msg("combined")
	job.Outputs = []string{out}
	return nil
}

func (h *Combine) outputPath(dir string) (string, error) {
	now := time.Now
	if h.Now != nil {
		now = h.Now
	}
	stamp := now().Format("20060102_150405")
	path := filepath.Join(dir, fmt.Sprintf("combined_%s.pdf", stamp))
	for n := 1; ; n++ {
		_, err := os.Stat(path)
		if errors.Is(err, fs.ErrNotExist) {
			return path, nil
		}
		if err != nil {
			return "", fmt.Errorf("stat %s: %w", path, err)
		}
		path = filepath.Join(dir, fmt.Sprintf("combined_%s_%d.pdf", stamp, n))
	}
}
