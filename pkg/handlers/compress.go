package handlers

import (
	"context"
	"fmt"
	"os"
	"path/filepath"

	"github.com/jdziat/pdfbatch/pkg/core"
	"github.com/jdziat/pdfbatch/pkg/jobctx"
	"github.com/jdziat/pdfbatch/pkg/pdf"
)

// Compress writes an optimized compressed_<base>.pdf for every input.
type Compress struct {
	Engine pdf.Engine
}

// Handle implements Handler.
func (h *Compress) Handle(ctx context.Context, job *core.Job) error {
	if err := prepare(job); err != nil {
		return err
	}

	var outputs []string
	err := eachInput(ctx, job, func(_ int, in string) error {
		out := filepath.Join(job.OutputDir, fmt.Sprintf("compressed_%s.pdf", baseName(in)))
		if err := h.Engine.Optimize(in, out); err != nil {
			return err
		}
		outputs = append(outputs, out)

		before, after := fileSize(in), fileSize(out)
		ev := jobctx.Logger(ctx).Info().
			Str("input", in).
			Int64("size_before", before).
			Int64("size_after", after)
		if before > 0 {
			ev = ev.Float64("ratio", float64(after)/float64(before))
		}
		ev.Msg("compressed")
		return nil
	})
	job.Outputs = outputs
	return err
}

func fileSize(path string) int64 {
	info, err := os.Stat(path)
	if err != nil {
		return 0
	}
	return info.Size()
}
