package main

import (
	"fmt"

	"codeberg.org/mutker/powerlog/internal/lifecycle"
	"github.com/spf13/cobra"
)

var startCmd = &cobra.Command{
	Use:   "start",
	Short: "Start the sampler in the background",
	Args:  cobra.NoArgs,
	RunE:  startSampler,
}

var stopCmd = &cobra.Command{
	Use:   "stop",
	Short: "Stop the background sampler",
	Args:  cobra.NoArgs,
	RunE:  stopSampler,
}

func init() {
	rootCmd.AddCommand(startCmd)
	rootCmd.AddCommand(stopCmd)
}

func startSampler(cmd *cobra.Command, _ []string) error {
	ctl, err := newController(cfg, append([]string{"run"}, forwardedFlags(cmd)...))
	if err != nil {
		return err
	}

	res, err := ctl.Start(cmd.Context())
	if err != nil {
		return err
	}

	switch res.Outcome {
	case lifecycle.AlreadyRunning:
		fmt.Fprintf(cmd.OutOrStdout(), "Battery logger already running (PID %d)\n", res.PID)
	default:
		fmt.Fprintf(cmd.OutOrStdout(), "Battery logger started (PID %d)\n", res.PID)
		fmt.Fprintf(cmd.OutOrStdout(), "Logs: %s\n", cfg.LogDir)
	}

	return nil
}

func stopSampler(cmd *cobra.Command, _ []string) error {
	ctl, err := newController(cfg, nil)
	if err != nil {
		return err
	}

	res, err := ctl.Stop(cmd.Context())
	if err != nil {
		return err
	}

	switch res.Outcome {
	case lifecycle.Stopped:
		fmt.Fprintf(cmd.OutOrStdout(), "Battery logger stopped (PID %d)\n", res.PID)
	default:
		fmt.Fprintln(cmd.OutOrStdout(), "Battery logger not running")
	}

	return nil
}
