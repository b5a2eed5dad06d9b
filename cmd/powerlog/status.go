package main

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"time"

	"codeberg.org/mutker/powerlog/internal/logger"
	"codeberg.org/mutker/powerlog/internal/status"
	"codeberg.org/mutker/powerlog/internal/telemetry"
	"github.com/mattn/go-isatty"
	"github.com/spf13/cobra"
)

var (
	showHardware bool
	jsonOutput   bool
	pollPeriod   time.Duration
)

var statusCmd = &cobra.Command{
	Use:   "status",
	Short: "Show whether the sampler runs and what it has logged",
	Args:  cobra.NoArgs,
	RunE:  showStatus,
}

var watchCmd = &cobra.Command{
	Use:   "watch",
	Short: "Refresh the status view periodically",
	Args:  cobra.NoArgs,
	RunE:  watchStatus,
}

func init() {
	for _, c := range []*cobra.Command{statusCmd, watchCmd} {
		c.Flags().BoolVar(&showHardware, "hardware", false, "Include live EPP, turbo and platform profile")
		c.Flags().BoolVar(&jsonOutput, "json", false, "Print JSON")
		rootCmd.AddCommand(c)
	}
	watchCmd.Flags().DurationVar(&pollPeriod, "period", status.DefaultPollPeriod, "Refresh period")
}

func newView() (*status.View, func(), error) {
	ctl, err := newController(cfg, nil)
	if err != nil {
		return nil, nil, err
	}

	log := logger.Default().With("status")
	opts := []status.Option{status.WithLogger(log)}
	if showHardware {
		opts = append(opts, status.WithHardware(newReader(cfg)))
	}

	closer := func() {}
	if cfg.Telemetry {
		rec, err := telemetry.NewService(telemetry.Config{Enabled: true, DBPath: cfg.TelemetryDB}, log)
		if err != nil {
			log.Debug().Err(err).Msg("Telemetry unavailable")
		} else {
			opts = append(opts, status.WithCounter(rec))
			closer = func() { _ = rec.Close() }
		}
	}

	return status.New(ctl, newWriter(cfg), cfg.Threshold, opts...), closer, nil
}

func showStatus(cmd *cobra.Command, _ []string) error {
	view, closer, err := newView()
	if err != nil {
		return err
	}
	defer closer()

	report, err := view.Report(cmd.Context())
	if err != nil {
		return err
	}

	return printReport(cmd.OutOrStdout(), report)
}

func watchStatus(cmd *cobra.Command, _ []string) error {
	view, closer, err := newView()
	if err != nil {
		return err
	}
	defer closer()

	ctx, cancel := signalContext()
	defer cancel()

	out := cmd.OutOrStdout()
	clearScreen := !jsonOutput && isatty.IsTerminal(os.Stdout.Fd())

	return view.Watch(ctx, pollPeriod, func(report status.Report, err error) {
		if err != nil {
			logger.Error().Err(err).Msg("Failed to query status")
			return
		}
		if clearScreen {
			fmt.Fprint(out, "\033[2J\033[H")
		}
		if err := printReport(out, report); err != nil {
			logger.Error().Err(err).Msg("Failed to print status")
		}
	})
}

func printReport(w io.Writer, report status.Report) error {
	if jsonOutput {
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		return enc.Encode(report)
	}
	return report.WriteText(w)
}
