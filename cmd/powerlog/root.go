package main

import (
	"fmt"
	"os"

	"codeberg.org/mutker/powerlog/internal/config"
	"codeberg.org/mutker/powerlog/internal/logger"
	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
)

var (
	cfg        *config.Config
	loader     *config.Loader
	configFile string
)

var rootCmd = &cobra.Command{
	Use:   "powerlog",
	Short: "Battery and power profile logger",
	Long: "powerlog samples battery, AC and CPU power state on a fixed interval and\n" +
		"appends one row per sample to a daily CSV log.",
	SilenceUsage:      true,
	PersistentPreRunE: loadConfig,
}

// Execute adds all child commands to the root command and sets flags appropriately.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

func init() {
	flags := rootCmd.PersistentFlags()
	flags.StringVarP(&configFile, "config", "c", config.DefaultConfigFile, "Configuration file (KEY=value)")
	config.RegisterFlags(flags)
}

func loadConfig(cmd *cobra.Command, _ []string) error {
	var err error

	loader, err = config.NewLoader(
		config.WithConfigFile(configFile),
		config.WithFlags(cmd.Flags()),
	)
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}

	cfg, err = loader.Load()
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}

	if err := logger.Init(cfg.LogLevel.String(), cfg.Debug, cfg.Verbose, logger.IsService()); err != nil {
		return err
	}
	logger.Debug().Str("file", cfg.ConfigFile).Msg("Config loaded")

	return nil
}

// forwardedFlags returns the persistent flags set on this invocation so the
// background sampler sees the same configuration.
func forwardedFlags(cmd *cobra.Command) []string {
	var args []string
	cmd.Flags().Visit(func(f *pflag.Flag) {
		if rootCmd.PersistentFlags().Lookup(f.Name) == nil {
			return
		}
		args = append(args, "--"+f.Name+"="+f.Value.String())
	})
	return args
}
