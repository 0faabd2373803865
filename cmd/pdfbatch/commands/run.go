package commands

import (
	"context"
	"errors"
	"os"
	"os/signal"
	"syscall"

	"github.com/google/uuid"
	"github.com/spf13/cobra"

	"github.com/jdziat/pdfbatch/pkg/batch"
	"github.com/jdziat/pdfbatch/pkg/core"
	"github.com/jdziat/pdfbatch/pkg/manifest"
	"github.com/jdziat/pdfbatch/pkg/schedule"
)

func newRunCommand() *cobra.Command {
	var (
		durable  bool
		cronExpr string
		d        display
	)

	cmd := &cobra.Command{
		Use:     "run <manifest.yaml>",
		Short:   "Run every job listed in a manifest",
		GroupID: "batch",
		Args:    cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := appFrom(cmd)
			if err != nil {
				return err
			}
			m, err := manifest.Load(args[0])
			if err != nil {
				return err
			}

			h, err := a.openHistory(cmd.Context())
			if err != nil {
				return err
			}
			defer h.Close()

			if durable {
				lock, err := a.lockQueue()
				if err != nil {
					return err
				}
				defer func() { _ = lock.Unlock() }()
			}

			once := func(ctx context.Context) error {
				_, err := a.runManifest(ctx, cmd, m, h, durable, d)
				return err
			}
			if cronExpr == "" {
				return once(cmd.Context())
			}

			sched, err := schedule.Cron(cronExpr)
			if err != nil {
				return err
			}
			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()
			err = schedule.Loop(ctx, sched, a.logger, once)
			if errors.Is(err, context.Canceled) {
				return nil
			}
			return err
		},
	}

	cmd.Flags().BoolVar(&durable, "durable", false, "Keep the queue in the history database so it can be resumed")
	cmd.Flags().StringVar(&cronExpr, "cron", "", "Repeat the manifest on a cron schedule (e.g. \"0 2 * * *\" or \"@hourly\")")
	bindDisplayFlags(cmd, &d)
	return cmd
}

// runManifest submits m as a new batch and processes it.
func (a *app) runManifest(ctx context.Context, cmd *cobra.Command, m *manifest.Manifest, h *history, durable bool, d display) (core.Summary, error) {
	id := uuid.New().String()
	q, err := a.queueFor(h, durable, id)
	if err != nil {
		return core.Summary{}, err
	}
	b := a.newBatch(q, h, batch.WithID(id))

	jobs, err := b.SubmitAll(ctx, m.Requests(a.cfg.Batch.OutputDir)...)
	if err != nil {
		return core.Summary{}, err
	}
	a.logger.Info().Str("batch_id", id).Str("manifest", m.Name).Int("jobs", len(jobs)).Bool("durable", durable).Msg("manifest submitted")

	return a.execute(ctx, cmd, b, d)
}
