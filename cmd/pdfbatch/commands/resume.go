package commands

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/jdziat/pdfbatch/pkg/batch"
	"github.com/jdziat/pdfbatch/pkg/storage"
)

func newResumeCommand() *cobra.Command {
	var d display

	cmd := &cobra.Command{
		Use:     "resume <batch-id>",
		Short:   "Continue a durable batch that was cancelled or interrupted",
		GroupID: "batch",
		Args:    cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := appFrom(cmd)
			if err != nil {
				return err
			}
			if err := requireStorage(a, "resume"); err != nil {
				return err
			}
			ctx := cmd.Context()
			batchID := args[0]

			h, err := a.openHistory(ctx)
			if err != nil {
				return err
			}
			defer h.Close()

			lock, err := a.lockQueue()
			if err != nil {
				return err
			}
			defer func() { _ = lock.Unlock() }()

			jobs, err := h.store.GetJobsByBatch(ctx, batchID)
			if err != nil {
				return err
			}
			if len(jobs) == 0 {
				return fmt.Errorf("no jobs recorded for batch %s", batchID)
			}

			q := storage.NewGormQueue(h.db, batchID)
			recovered, err := q.Recover(ctx)
			if err != nil {
				return err
			}
			pending, err := q.Len(ctx)
			if err != nil {
				return err
			}
			if pending == 0 {
				fmt.Fprintf(cmd.OutOrStdout(), "Batch %s has nothing left to run.\n", batchID)
				return nil
			}
			a.logger.Info().Str("batch_id", batchID).Int("pending", pending).Int("recovered", recovered).Msg("resuming batch")

			b := a.newBatch(q, h, batch.WithID(batchID))
			_, err = a.execute(ctx, cmd, b, d)
			return err
		},
	}

	bindDisplayFlags(cmd, &d)
	return cmd
}
