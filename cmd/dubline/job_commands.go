package main

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/spf13/cobra"

	"dubline/internal/api"
	"dubline/internal/config"
	"dubline/internal/queue"
)

func newSubmitCommand(ctx *commandContext) *cobra.Command {
	var owner string

	cmd := &cobra.Command{
		Use:   "submit <video>",
		Short: "Queue a video for dubbing",
		Long: `Queue a video for dubbing.

The job is recorded as pending in the job store; a running daemon picks it up
on its next poll.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			input, err := resolveInput(args[0])
			if err != nil {
				return err
			}
			return ctx.withStore(func(_ *config.Config, store *queue.Store) error {
				job, err := api.NewJobService(store, nil).Create(cmd.Context(), api.CreateJobRequest{
					InputPath: input,
					OwnerID:   owner,
				})
				if err != nil {
					return err
				}
				if ctx.JSONMode() {
					return writeJSON(cmd, api.JobResponse{Job: *job})
				}
				fmt.Fprintf(cmd.OutOrStdout(), "Queued job %s for %s\n", job.ID, job.InputPath)
				return nil
			})
		},
	}

	cmd.Flags().StringVar(&owner, "owner", "", "Owner identifier recorded on the job")
	return cmd
}

func newStatusCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "status <job-id>",
		Short: "Show progress and outputs of a job",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return ctx.withStore(func(_ *config.Config, store *queue.Store) error {
				job, err := api.NewJobService(store, nil).Describe(cmd.Context(), args[0])
				if err != nil {
					return err
				}
				if job == nil {
					return fmt.Errorf("job %s not found", strings.TrimSpace(args[0]))
				}
				if ctx.JSONMode() {
					return writeJSON(cmd, api.JobResponse{Job: *job})
				}
				out := cmd.OutOrStdout()
				renderJob(out, *job, shouldColorize(out))
				return nil
			})
		},
	}
}

func newListCommand(ctx *commandContext) *cobra.Command {
	var statusFilter []string

	cmd := &cobra.Command{
		Use:   "list",
		Short: "List jobs",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			statuses, err := api.ParseStatuses(statusFilter)
			if err != nil {
				return err
			}
			return ctx.withStore(func(_ *config.Config, store *queue.Store) error {
				jobs, err := api.NewJobService(store, nil).List(cmd.Context(), statuses...)
				if err != nil {
					return err
				}
				if ctx.JSONMode() {
					if jobs == nil {
						jobs = []api.Job{}
					}
					return writeJSON(cmd, api.JobListResponse{Jobs: jobs})
				}
				out := cmd.OutOrStdout()
				if len(jobs) == 0 {
					fmt.Fprintln(out, "No jobs found")
					return nil
				}
				rows := make([][]string, 0, len(jobs))
				for _, job := range jobs {
					rows = append(rows, []string{
						job.ID,
						job.Status,
						strconv.Itoa(job.Progress) + "%",
						job.InputPath,
						job.UpdatedAt,
					})
				}
				fmt.Fprint(out, renderTable(
					[]string{"ID", "Status", "Progress", "Input", "Updated"},
					rows,
					[]columnAlignment{alignLeft, alignLeft, alignRight, alignLeft, alignLeft},
				))
				return nil
			})
		},
	}

	cmd.Flags().StringSliceVarP(&statusFilter, "status", "s", nil, "Filter by status (pending, processing, completed, failed)")
	return cmd
}

func renderJob(out io.Writer, job api.Job, colorize bool) {
	for _, line := range renderSectionHeader("Job "+job.ID, colorize) {
		fmt.Fprintln(out, line)
	}
	fmt.Fprintln(out, renderStatusLine("Status", jobStatusKind(job.Status), job.Status, colorize))
	fmt.Fprintln(out, renderStatusLine("Progress", statusInfo, strconv.Itoa(job.Progress)+"%", colorize))
	fmt.Fprintln(out, renderStatusLine("Input", statusInfo, job.InputPath, colorize))
	if job.OwnerID != "" {
		fmt.Fprintln(out, renderStatusLine("Owner", statusInfo, job.OwnerID, colorize))
	}
	if job.ErrorDetail != "" {
		fmt.Fprintln(out, renderStatusLine("Error", statusError, job.ErrorDetail, colorize))
	}

	if len(job.Stages) > 0 {
		rows := make([][]string, 0, len(job.Stages))
		for _, st := range job.Stages {
			rows = append(rows, []string{st.Name, st.Status, strconv.Itoa(st.Progress) + "%"})
		}
		fmt.Fprintln(out)
		fmt.Fprint(out, renderTable(
			[]string{"Stage", "Status", "Progress"},
			rows,
			[]columnAlignment{alignLeft, alignLeft, alignRight},
		))
	}

	outputs := []struct{ label, path string }{
		{"Final video", job.Outputs.FinalVideo},
		{"Translated text", job.Outputs.TranslatedText},
		{"Synthesized audio", job.Outputs.SynthesizedAudio},
	}
	printed := false
	for _, o := range outputs {
		if o.path == "" {
			continue
		}
		if !printed {
			fmt.Fprintln(out)
			printed = true
		}
		fmt.Fprintln(out, renderStatusLine(o.label, statusOK, o.path, colorize))
	}
}

// resolveInput makes the video path absolute so a daemon with a different
// working directory resolves the same file.
func resolveInput(arg string) (string, error) {
	path := strings.TrimSpace(arg)
	if path == "" {
		return "", fmt.Errorf("video path is required")
	}
	abs, err := filepath.Abs(path)
	if err != nil {
		return "", fmt.Errorf("resolve video path: %w", err)
	}
	info, err := os.Stat(abs)
	if err != nil {
		return "", fmt.Errorf("video %s: %w", abs, err)
	}
	if info.IsDir() {
		return "", fmt.Errorf("video %s is a directory", abs)
	}
	return abs, nil
}
