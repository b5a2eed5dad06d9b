package main

import (
	"fmt"

	"github.com/spf13/cobra"
)

var configCmd = &cobra.Command{
	Use:   "config",
	Short: "Print the effective configuration",
	Args:  cobra.NoArgs,
	RunE:  showConfig,
}

func init() {
	rootCmd.AddCommand(configCmd)
}

func showConfig(cmd *cobra.Command, _ []string) error {
	out := cmd.OutOrStdout()
	if cfg.ConfigFile != "" {
		fmt.Fprintf(out, "# %s\n", cfg.ConfigFile)
	} else {
		fmt.Fprintf(out, "# %s not found, using defaults\n", configFile)
	}
	return cfg.Encode(out)
}
