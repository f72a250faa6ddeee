// Package cmd implements the osdrjob command line.
package cmd

import (
	"fmt"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"

	"github.com/gchanuoft/DSI-BuildSoftSummative/internal/errors"
)

// Process exit codes.
const (
	ExitOK = 0
	// ExitFailure covers data, render, output and state failures.
	ExitFailure = 1
	// ExitConfig means no configuration could be loaded; nothing ran.
	ExitConfig = 2
	// ExitWarning means the run finished but a warning-level step failed,
	// such as the completion notification.
	ExitWarning = 3
)

// NewRootCmd builds the osdrjob command tree.
func NewRootCmd() *cobra.Command {
	var envFiles []string

	root := &cobra.Command{
		Use:   "osdrjob",
		Short: "Summarize OSDR study files per subcategory",
		Long: `osdrjob fetches the file listing of an OSDR study, counts the files in
each subcategory, saves a chart of the counts and posts a completion
notification to ntfy.

Configuration is merged from configs/system_config.yml,
configs/user_config.yml and the job configuration, in that order. Top-level
keys of later files replace earlier ones. OSDR_<KEY> environment variables
override any file.`,
		SilenceUsage: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			// godotenv.Load never overrides variables already set
			if len(envFiles) > 0 {
				if err := godotenv.Load(envFiles...); err != nil {
					return fmt.Errorf("failed to load env file: %w", err)
				}
			}
			return nil
		},
	}

	root.PersistentFlags().StringSliceVar(&envFiles, "env-file", nil, "load environment variables from these files before reading configuration")

	registerRunCmd(root)
	registerConfigCmd(root)

	return root
}

// Execute runs the root command
func Execute() error {
	return NewRootCmd().Execute()
}

// ExitCode maps an error returned by Execute to a process exit code.
func ExitCode(err error) int {
	switch {
	case err == nil:
		return ExitOK
	case errors.IsConfigError(err):
		return ExitConfig
	case errors.GetSeverity(err) == errors.SeverityWarning:
		return ExitWarning
	default:
		return ExitFailure
	}
}
