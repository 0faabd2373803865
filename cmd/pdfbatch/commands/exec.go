package commands

import (
	"github.com/google/uuid"
	"github.com/spf13/cobra"

	"github.com/jdziat/pdfbatch/cmd/pdfbatch/internal/bind"
	"github.com/jdziat/pdfbatch/pkg/batch"
)

func newExecCommand() *cobra.Command {
	var (
		durable bool
		d       display
	)

	cmd := &cobra.Command{
		Use:   "exec <operation> <files...>",
		Short: "Run one operation as a single-job batch",
		Long: `Run one operation as a single-job batch.

Operations: combine, split, watermark, encrypt, compress.
Settings are passed with --set, for example:

  pdfbatch exec watermark report.pdf -o out --set text=DRAFT --set opacity=0.2
  pdfbatch exec encrypt report.pdf -o out --set password=S3cretPass --set allow_print=false`,
		GroupID: "batch",
		Args:    cobra.MinimumNArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := appFrom(cmd)
			if err != nil {
				return err
			}
			req, err := bind.ExecRequest(cmd, args)
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

			id := uuid.New().String()
			q, err := a.queueFor(h, durable, id)
			if err != nil {
				return err
			}
			b := a.newBatch(q, h, batch.WithID(id))
			if _, err := b.SubmitAll(cmd.Context(), req); err != nil {
				return err
			}
			_, err = a.execute(cmd.Context(), cmd, b, d)
			return err
		},
	}

	cmd.Flags().StringP("output", "o", "", "Output directory (defaults to batch.output_dir)")
	cmd.Flags().StringArray("set", nil, "Operation setting as key=value (repeatable)")
	cmd.Flags().Int("retries", -1, "Retry budget for the job (-1 uses batch.max_retries)")
	cmd.Flags().BoolVar(&durable, "durable", false, "Keep the queue in the history database so it can be resumed")
	bindDisplayFlags(cmd, &d)
	return cmd
}
