package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"codeberg.org/mutker/powerlog/internal/config"
	"codeberg.org/mutker/powerlog/internal/lifecycle"
	"codeberg.org/mutker/powerlog/internal/logfile"
	"codeberg.org/mutker/powerlog/internal/logger"
	"codeberg.org/mutker/powerlog/internal/pid"
	"codeberg.org/mutker/powerlog/internal/sysfs"
)

func main() {
	Execute()
}

// signalContext returns a context cancelled on SIGINT or SIGTERM.
func signalContext() (context.Context, context.CancelFunc) {
	ctx, cancel := context.WithCancel(context.Background())
	go handleSignals(ctx, cancel)
	return ctx, cancel
}

func handleSignals(ctx context.Context, cancel context.CancelFunc) {
	sigs := make(chan os.Signal, 1)
	signal.Notify(sigs, syscall.SIGINT, syscall.SIGTERM)
	defer signal.Stop(sigs)

	select {
	case <-sigs:
		logger.Info().Msg("Received termination signal.")
		cancel()
	case <-ctx.Done():
	}
}

func newController(cfg *config.Config, spawnArgs []string) (*lifecycle.Controller, error) {
	self, err := os.Executable()
	if err != nil {
		return nil, err
	}

	spawner := &lifecycle.ExecSpawner{
		Path:   self,
		Args:   spawnArgs,
		Output: cfg.DaemonLog,
	}

	return lifecycle.New(
		pid.NewFile(cfg.PIDFile),
		spawner,
		lifecycle.WithLogger(logger.Default().With("lifecycle")),
	), nil
}

func newWriter(cfg *config.Config) *logfile.Writer {
	return logfile.New(cfg.LogDir)
}

func newReader(cfg *config.Config) *sysfs.Reader {
	return sysfs.NewReader(cfg.SysfsRoot, cfg.Battery, cfg.ACAdapter)
}
