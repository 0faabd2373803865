package commands

import (
	"github.com/spf13/cobra"

	"github.com/jdziat/pdfbatch/pkg/core"
	"github.com/jdziat/pdfbatch/pkg/observer"
)

func newHistoryCommand() *cobra.Command {
	var limit int

	cmd := &cobra.Command{
		Use:     "history",
		Short:   "List recorded runs, newest first",
		GroupID: "history",
		Args:    cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			a, err := appFrom(cmd)
			if err != nil {
				return err
			}
			if err := requireStorage(a, "history"); err != nil {
				return err
			}
			h, err := a.openHistory(cmd.Context())
			if err != nil {
				return err
			}
			defer h.Close()

			runs, err := h.store.ListRuns(cmd.Context(), limit)
			if err != nil {
				return err
			}
			return observer.RenderRuns(cmd.OutOrStdout(), runs)
		},
	}

	cmd.Flags().IntVarP(&limit, "limit", "n", 20, "Maximum number of runs to show")
	return cmd
}

func newJobsCommand() *cobra.Command {
	var status string

	cmd := &cobra.Command{
		Use:     "jobs <batch-id>",
		Short:   "List the job records of a batch",
		GroupID: "history",
		Args:    cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := appFrom(cmd)
			if err != nil {
				return err
			}
			if err := requireStorage(a, "jobs"); err != nil {
				return err
			}
			h, err := a.openHistory(cmd.Context())
			if err != nil {
				return err
			}
			defer h.Close()

			jobs, err := h.store.GetJobsByBatch(cmd.Context(), args[0])
			if err != nil {
				return err
			}
			if status != "" {
				filtered := jobs[:0]
				for _, j := range jobs {
					if j.Status == core.JobStatus(status) {
						filtered = append(filtered, j)
					}
				}
				jobs = filtered
			}
			return observer.RenderJobs(cmd.OutOrStdout(), jobs)
		},
	}

	cmd.Flags().StringVar(&status, "status", "", "Only show jobs with this status")
	return cmd
}
