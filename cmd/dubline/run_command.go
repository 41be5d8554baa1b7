package main

import (
	"fmt"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"dubline/internal/api"
	"dubline/internal/config"
	"dubline/internal/logging"
	"dubline/internal/queue"
	"dubline/internal/workflow"
)

func newRunCommand(ctx *commandContext) *cobra.Command {
	var owner string

	cmd := &cobra.Command{
		Use:   "run <video>",
		Short: "Dub a single video in the foreground",
		Long: `Dub a single video in the foreground.

The job is recorded in the job store like a submitted job, but runs in this
process without a daemon. Interrupting the command leaves the job processing
until a daemon's heartbeat sweep fails it.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			input, err := resolveInput(args[0])
			if err != nil {
				return err
			}
			return ctx.withStore(func(cfg *config.Config, store *queue.Store) error {
				runCtx, cancel := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
				defer cancel()

				logger, err := logging.NewFromConfig(cfg)
				if err != nil {
					return fmt.Errorf("init logger: %w", err)
				}
				caps, err := workflow.DefaultCapabilities(cfg, logger)
				if err != nil {
					return fmt.Errorf("configure capabilities: %w", err)
				}

				jobs := api.NewJobService(store, nil)
				created, err := jobs.Create(runCtx, api.CreateJobRequest{InputPath: input, OwnerID: owner})
				if err != nil {
					return err
				}
				runErr := workflow.NewPipeline(cfg, store, caps, logger).Run(runCtx, created.ID)

				job, err := jobs.Describe(cmd.Context(), created.ID)
				if err != nil {
					return err
				}
				if job != nil {
					if ctx.JSONMode() {
						if err := writeJSON(cmd, api.JobResponse{Job: *job}); err != nil {
							return err
						}
					} else {
						out := cmd.OutOrStdout()
						renderJob(out, *job, shouldColorize(out))
					}
				}
				if runErr != nil {
					return fmt.Errorf("job %s: %w", created.ID, runErr)
				}
				return nil
			})
		},
	}

	cmd.Flags().StringVar(&owner, "owner", "", "Owner identifier recorded on the job")
	return cmd
}
