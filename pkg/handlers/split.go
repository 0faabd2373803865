package handlers

import (
	"context"
	"fmt"
	"path/filepath"

	"github.com/jdziat/pdfbatch/pkg/core"
	"github.com/jdziat/pdfbatch/pkg/jobctx"
	"github.com/jdziat/pdfbatch/pkg/pdf"
)

// Split writes every page of every input to <base>_page<k>.pdf.
type Split struct {
	Engine pdf.Engine
}

// Handle implements Handler.
func (h *Split) Handle(ctx context.Context, job *core.Job) error {
	if err := prepare(job); err != nil {
		return err
	}

	var outputs []string
	for _, in := range job.Inputs {
		if err := jobctx.Checkpoint(ctx); err != nil {
			job.Outputs = outputs
			return err
		}
		n, err := h.Engine.PageCount(in)
		if err != nil {
			return err
		}
		base := baseName(in)
		for page := 1; page <= n; page++ {
			if err := jobctx.Checkpoint(ctx); err != nil {
				job.Outputs = outputs
				return err
			}
			out := filepath.Join(job.OutputDir, fmt.Sprintf("%s_page%d.pdf", base, page))
			if err := h.Engine.ExtractPage(in, page, out); err != nil {
				return err
			}
			outputs = append(outputs, out)
			jobctx.ReportItem(ctx, fmt.Sprintf("%s page %d/%d", filepath.Base(in), page, n), percent(page, n))
		}
		jobctx.Logger(ctx).Debug().Str("input", in).Int("pages", n).Msg("split")
	}
	job.Outputs = outputs
	return nil
}
