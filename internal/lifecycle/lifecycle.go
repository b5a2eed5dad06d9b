// Package lifecycle starts, stops and queries the background sampler through
// its PID file.
package lifecycle

import (
	"context"
	"time"

	"codeberg.org/mutker/powerlog/internal/errors"
	"codeberg.org/mutker/powerlog/internal/logger"
	"codeberg.org/mutker/powerlog/internal/pid"
)

const (
	defaultStopTimeout = 5 * time.Second
	stopPollInterval   = 50 * time.Millisecond
)

// Controller is stateless; every call re-reads the PID file and probes the
// process it names.
type Controller struct {
	file        *pid.File
	find        pid.Finder
	spawner     Spawner
	stopTimeout time.Duration
	log         logger.Logger
}

// Option configures a Controller.
type Option func(*Controller)

// WithFinder replaces the process probe.
func WithFinder(find pid.Finder) Option {
	return func(c *Controller) {
		c.find = find
	}
}

// WithStopTimeout bounds how long Stop waits for the process to exit after
// SIGTERM. Zero does not wait.
func WithStopTimeout(d time.Duration) Option {
	return func(c *Controller) {
		c.stopTimeout = d
	}
}

func WithLogger(log logger.Logger) Option {
	return func(c *Controller) {
		c.log = log
	}
}

func New(file *pid.File, spawner Spawner, opts ...Option) *Controller {
	c := &Controller{
		file:        file,
		find:        pid.Find,
		spawner:     spawner,
		stopTimeout: defaultStopTimeout,
		log:         logger.Nop(),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Start launches the sampler unless the PID file names a live process. A
// stale PID file is replaced.
func (c *Controller) Start(ctx context.Context) (Result, error) {
	errFactory := errors.New()

	current, exists, stale, err := c.read()
	if err != nil {
		return Result{}, err
	}
	if exists && !stale {
		return Result{Outcome: AlreadyRunning, PID: current}, nil
	}

	if stale {
		c.log.Info().Int("pid", current).Str("file", c.file.Path()).Msg("reclaiming stale PID file")
		if err := c.file.Remove(); err != nil {
			return Result{}, err
		}
	}

	child, err := c.spawner.Spawn(ctx)
	if err != nil {
		return Result{}, errFactory.Wrap(errors.ErrSpawnFailed, err)
	}

	if err := c.file.Write(child); err != nil {
		// an untracked sampler could never be stopped
		if termErr := c.find(child).Terminate(); termErr != nil {
			c.log.Warn().Err(termErr).Int("pid", child).Msg("failed to terminate untracked sampler")
		}
		return Result{}, err
	}

	c.log.Info().Int("pid", child).Msg("sampler started")

	return Result{Outcome: Started, PID: child, Stale: stale}, nil
}

// Stop terminates the recorded process and removes the PID file. It succeeds
// when nothing is running.
func (c *Controller) Stop(ctx context.Context) (Result, error) {
	current, exists, stale, err := c.read()
	if err != nil {
		return Result{}, err
	}
	if !exists {
		return Result{Outcome: AlreadyStopped}, nil
	}

	res := Result{Outcome: AlreadyStopped, PID: current, Stale: stale}
	if !stale {
		proc := c.find(current)
		if err := proc.Terminate(); err != nil {
			c.log.Debug().Err(err).Int("pid", current).Msg("signal not delivered")
		} else {
			res.Outcome = Stopped
			c.waitExit(ctx, proc)
		}
	}

	if err := c.file.Remove(); err != nil {
		return Result{}, err
	}

	if res.Outcome == Stopped {
		c.log.Info().Int("pid", current).Msg("sampler stopped")
	}

	return res, nil
}

// Status reports whether the recorded process is alive. It never modifies
// the PID file.
func (c *Controller) Status(context.Context) (Result, error) {
	current, exists, stale, err := c.read()
	if err != nil {
		return Result{}, err
	}

	switch {
	case !exists:
		return Result{Outcome: NotRunning}, nil
	case stale:
		return Result{Outcome: NotRunning, PID: current, Stale: true}, nil
	default:
		return Result{Outcome: Running, PID: current}, nil
	}
}

// read loads the PID file and probes the process. Unparsable content counts
// as stale.
func (c *Controller) read() (current int, exists, stale bool, err error) {
	current, exists, err = c.file.Read()
	if errors.HasCode(err, errors.ErrPIDFileInvalid) {
		return 0, true, true, nil
	}
	if err != nil || !exists {
		return 0, false, false, err
	}

	return current, true, !c.find(current).Alive(), nil
}

func (c *Controller) waitExit(ctx context.Context, proc pid.Handle) {
	if c.stopTimeout <= 0 {
		return
	}

	deadline := time.NewTimer(c.stopTimeout)
	defer deadline.Stop()
	ticker := time.NewTicker(stopPollInterval)
	defer ticker.Stop()

	for proc.Alive() {
		select {
		case <-ctx.Done():
			return
		case <-deadline.C:
			c.log.Warn().Dur("timeout", c.stopTimeout).Msg("sampler still alive after SIGTERM")
			return
		case <-ticker.C:
		}
	}
}
