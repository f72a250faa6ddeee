package cmd

import (
	"encoding/json"
	"fmt"
	"io"

	"github.com/spf13/cobra"

	"github.com/gchanuoft/DSI-BuildSoftSummative/internal/analysis"
	"github.com/gchanuoft/DSI-BuildSoftSummative/internal/config"
	"github.com/gchanuoft/DSI-BuildSoftSummative/internal/errors"
	"github.com/gchanuoft/DSI-BuildSoftSummative/internal/job"
	"github.com/gchanuoft/DSI-BuildSoftSummative/internal/logging"
)

// sourceFlags selects the system and user configuration files.
type sourceFlags struct {
	systemConfig string
	userConfig   string
}

func (f *sourceFlags) register(cmd *cobra.Command) {
	cmd.Flags().StringVar(&f.systemConfig, "system-config", config.SystemConfigPath, "system configuration file")
	cmd.Flags().StringVar(&f.userConfig, "user-config", config.UserConfigPath, "user configuration file")
}

// paths returns the configuration sources in merge order.
func (f *sourceFlags) paths(args []string) []string {
	jobConfig := config.DefaultJobConfig
	if len(args) > 0 {
		jobConfig = args[0]
	}
	return []string{f.systemConfig, f.userConfig, jobConfig}
}

type runOptions struct {
	sources   sourceFlags
	savePaths []string
	jsonOut   bool
}

// runSummary is the --json output of the run command.
type runSummary struct {
	RunID        string         `json:"run_id"`
	Counts       map[string]int `json:"counts"`
	Charts       []string       `json:"charts"`
	Notification string         `json:"notification_error,omitempty"`
}

func registerRunCmd(parent *cobra.Command) {
	opts := &runOptions{}

	runCmd := &cobra.Command{
		Use:   "run [job-config]",
		Short: "Run the analysis job",
		Long: `Run the analysis job: load the study files, count files per subcategory,
save the chart and send the completion notification.

The job configuration defaults to configs/job_config.yml. Charts are written
to every directory in output_paths unless --save-path is given; the
directories must already exist.`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runJob(cmd, opts, args)
		},
	}

	opts.sources.register(runCmd)
	runCmd.Flags().StringSliceVar(&opts.savePaths, "save-path", nil, "directory to save the chart in (repeatable, replaces output_paths)")
	runCmd.Flags().BoolVar(&opts.jsonOut, "json", false, "print the result as JSON")

	parent.AddCommand(runCmd)
}

func runJob(cmd *cobra.Command, opts *runOptions, args []string) error {
	ctx := cmd.Context()

	j, err := job.New(opts.sources.paths(args))
	if err != nil {
		return err
	}
	defer func() { _ = logging.Shutdown() }()

	if err := j.LoadData(ctx); err != nil {
		return err
	}

	// A failed notification does not stop the chart from being saved.
	result, notifyErr := j.ComputeAnalysis(ctx)
	if notifyErr != nil && !errors.As(notifyErr, new(*errors.NotificationError)) {
		return notifyErr
	}

	written, err := j.Plot(opts.savePaths...)
	if err != nil {
		return err
	}

	out := cmd.OutOrStdout()
	if opts.jsonOut {
		summary := runSummary{
			RunID:  j.RunID(),
			Counts: result.AsMap(),
			Charts: written,
		}
		if notifyErr != nil {
			summary.Notification = notifyErr.Error()
		}
		enc := json.NewEncoder(out)
		enc.SetIndent("", "  ")
		if err := enc.Encode(summary); err != nil {
			return fmt.Errorf("failed to encode result: %w", err)
		}
	} else {
		printResult(out, result, written)
	}

	return notifyErr
}

// printResult writes the counts and chart paths, styled when out is a
// terminal.
func printResult(out io.Writer, result analysis.Result, written []string) {
	styles := newStyles(isTerminal(out))

	fmt.Fprintln(out, styles.heading.Render("Files per subcategory"))
	fmt.Fprintln(out, renderTable(styles, result))
	fmt.Fprintln(out)
	for _, path := range written {
		fmt.Fprintf(out, "%s %s\n", styles.label.Render("chart:"), path)
	}
}
