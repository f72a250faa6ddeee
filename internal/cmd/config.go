package cmd

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"github.com/gchanuoft/DSI-BuildSoftSummative/internal/config"
)

func registerConfigCmd(parent *cobra.Command) {
	var sources sourceFlags

	configCmd := &cobra.Command{
		Use:   "config",
		Short: "Inspect the job configuration",
	}

	configShowCmd := &cobra.Command{
		Use:   "show [job-config]",
		Short: "Show the merged configuration",
		Long: `Show the configuration a run would use, after merging the system, user and
job files and applying OSDR_* environment overrides. The API key is masked.`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runConfigShow(cmd, sources.paths(args))
		},
	}
	sources.register(configShowCmd)

	configKeysCmd := &cobra.Command{
		Use:   "keys",
		Short: "List required configuration keys",
		Args:  cobra.NoArgs,
		Run: func(cmd *cobra.Command, args []string) {
			out := cmd.OutOrStdout()
			for _, key := range config.RequiredKeys() {
				fmt.Fprintln(out, key)
			}
		},
	}

	configCmd.AddCommand(configShowCmd)
	configCmd.AddCommand(configKeysCmd)
	parent.AddCommand(configCmd)
}

func runConfigShow(cmd *cobra.Command, paths []string) error {
	cfg, err := config.Load(paths)
	if err != nil {
		return err
	}

	out := cmd.OutOrStdout()
	fmt.Fprintf(out, "# sources: %s\n", strings.Join(paths, ", "))

	redacted := cfg.Redacted()
	enc := yaml.NewEncoder(out)
	enc.SetIndent(2)
	if err := enc.Encode(&redacted); err != nil {
		return fmt.Errorf("failed to encode configuration: %w", err)
	}
	return enc.Close()
}
