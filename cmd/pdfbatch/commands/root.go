// Package commands implements the pdfbatch command line.
package commands

import (
	"context"
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/jdziat/pdfbatch/pkg/config"
	"github.com/jdziat/pdfbatch/pkg/logging"
	"github.com/jdziat/pdfbatch/pkg/pdf"
)

const cliExecutable = "pdfbatch"

type appKey struct{}

// NewCommand constructs the top-level pdfbatch command. Configuration and
// logging are set up before any subcommand runs.
func NewCommand() *cobra.Command {
	var configFile string

	cmd := &cobra.Command{
		Use:   cliExecutable,
		Short: "Run batches of PDF operations through a retrying job queue",
		PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := config.Load(cmd.Flags(), configFile)
			if err != nil {
				return err
			}
			logger, err := logging.Setup(cfg.Log.Level, cfg.Log.Format, cmd.ErrOrStderr())
			if err != nil {
				return err
			}

			a := &app{
				cfg:       cfg,
				logger:    logger,
				engine:    pdf.NewEngine(),
				validator: pdf.NewValidator(),
			}
			cmd.SetContext(context.WithValue(cmd.Context(), appKey{}, a))
			return nil
		},
	}

	cmd.SilenceUsage = true

	cmd.PersistentFlags().StringVarP(&configFile, "config", "c", "", "Configuration file path")
	config.BindFlags(cmd.PersistentFlags())

	cmd.AddGroup(&cobra.Group{ID: "batch", Title: "Batch Commands"})
	cmd.AddGroup(&cobra.Group{ID: "history", Title: "History Commands"})

	cmd.AddCommand(newRunCommand())
	cmd.AddCommand(newExecCommand())
	cmd.AddCommand(newResumeCommand())
	cmd.AddCommand(newValidateCommand())
	cmd.AddCommand(newHistoryCommand())
	cmd.AddCommand(newJobsCommand())

	return cmd
}

func appFrom(cmd *cobra.Command) (*app, error) {
	if ctx := cmd.Context(); ctx != nil {
		if a, ok := ctx.Value(appKey{}).(*app); ok {
			return a, nil
		}
	}
	return nil, errors.New("pdfbatch: configuration not loaded")
}

func requireStorage(a *app, what string) error {
	if !a.cfg.Storage.Enabled {
		return fmt.Errorf("%s needs the history database; remove --no-storage", what)
	}
	return nil
}
