package main

import (
	"context"
	"time"

	"codeberg.org/mutker/powerlog/internal/config"
	"codeberg.org/mutker/powerlog/internal/dbus"
	"codeberg.org/mutker/powerlog/internal/logger"
	"codeberg.org/mutker/powerlog/internal/runner"
	"codeberg.org/mutker/powerlog/internal/sampler"
	"codeberg.org/mutker/powerlog/internal/telemetry"
	"github.com/spf13/cobra"
)

var runCmd = &cobra.Command{
	Use:   "run",
	Short: "Run the sampling loop in the foreground",
	Args:  cobra.NoArgs,
	RunE:  runLoop,
}

func init() {
	rootCmd.AddCommand(runCmd)
}

func runLoop(_ *cobra.Command, _ []string) error {
	ctx, cancel := signalContext()
	defer cancel()

	log := logger.Default()
	interval := time.Duration(cfg.LogInterval) * time.Second

	smp := sampler.New(newReader(cfg), sampler.NewPSLister(),
		sampler.WithLogger(log.With("sampler")),
	)

	rec, err := telemetry.NewService(telemetry.Config{
		Enabled: cfg.Telemetry,
		DBPath:  cfg.TelemetryDB,
	}, log.With("telemetry"))
	if err != nil {
		// the CSV log does not depend on the mirror
		logger.Warn().Err(err).Msg("Telemetry unavailable")
	} else {
		defer func() {
			if err := rec.Close(); err != nil {
				logger.Warn().Err(err).Msg("Failed to close telemetry")
			}
		}()
	}

	opts := []runner.Option{runner.WithLogger(log.With("runner"))}
	if rec != nil {
		opts = append(opts, runner.WithRecorder(rec))
	}

	var svc *dbus.Service
	if cfg.DBus {
		svc = dbus.NewService(cfg.LogDir, interval)
		conn, err := svc.Export()
		if err != nil {
			logger.Warn().Err(err).Msg("D-Bus service unavailable")
			svc = nil
		} else {
			defer conn.Close()
			opts = append(opts, runner.WithObserver(svc.Update))
			logger.Info().Str("name", dbus.BusName).Msg("D-Bus service registered")
		}
	}

	loop := runner.New(smp, newWriter(cfg), interval, opts...)

	watchConfig(ctx, loop, svc)

	logger.Info().
		Str("log_dir", cfg.LogDir).
		Dur("interval", interval).
		Msg("Sampler started")

	if err := loop.Run(ctx); err != nil {
		return err
	}

	logger.Info().Msg("Exiting...")
	return nil
}

func watchConfig(ctx context.Context, loop *runner.Runner, svc *dbus.Service) {
	if cfg.ConfigFile == "" {
		return
	}

	err := loader.Watch(ctx, func(next *config.Config) {
		interval := time.Duration(next.LogInterval) * time.Second
		if interval == loop.Interval() {
			return
		}
		loop.SetInterval(interval)
		if svc != nil {
			svc.SetInterval(interval)
		}
	})
	if err != nil {
		logger.Warn().Err(err).Msg("Config watch unavailable")
	}
}
