package main

import (
	"log/slog"

	"github.com/spf13/cobra"

	"github.com/Imdraks/faxcloud-analyzer/internal/config"
	"github.com/Imdraks/faxcloud-analyzer/internal/infrastructure"
	"github.com/Imdraks/faxcloud-analyzer/pkg/contracts"
)

type rootOptions struct {
	logLevel string
}

func newRootCmd() *cobra.Command {
	opts := &rootOptions{}

	cmd := &cobra.Command{
		Use:           "faxanalyzer",
		Short:         "Analyze fax log exports",
		Long:          `Validates the called numbers of FaxCloud log exports and produces per-user and per-error statistics.`,
		Version:       contracts.GetVersionString(),
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	cmd.PersistentFlags().StringVar(&opts.logLevel, "log-level", "warn", "log level (debug, info, warn, error)")

	cmd.AddCommand(newAnalyzeCmd(opts), newValidateCmd())
	return cmd
}

// logger writes JSON logs to the command's error stream
func (o *rootOptions) logger(cmd *cobra.Command) *slog.Logger {
	logger := infrastructure.NewLogger(config.LoggingConfig{Level: o.logLevel}, cmd.ErrOrStderr())
	return infrastructure.WithComponent(logger, "cli")
}
