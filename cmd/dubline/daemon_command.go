package main

import (
	"github.com/spf13/cobra"

	"dubline/internal/daemonrun"
)

func newDaemonCommand(ctx *commandContext) *cobra.Command {
	var logLevel string
	var development bool

	cmd := &cobra.Command{
		Use:   "daemon",
		Short: "Run the dubbing daemon in the foreground",
		Long: `Run the dubbing daemon in the foreground.

The daemon serves the HTTP API, dispatches pending jobs to its worker pool and
sweeps expired heartbeats and stale staging workspaces on a schedule. Stop it
with Ctrl+C; interrupted jobs are failed by the next daemon's heartbeat sweep.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := ctx.ensureConfig()
			if err != nil {
				return err
			}
			return daemonrun.Run(cmd.Context(), cfg, daemonrun.Options{
				LogLevel:    logLevel,
				Development: development,
			})
		},
	}

	cmd.Flags().StringVar(&logLevel, "log-level", "", "Override the configured log level")
	cmd.Flags().BoolVar(&development, "dev", false, "Include source locations in log output")
	return cmd
}
