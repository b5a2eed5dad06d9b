// Package runner drives the sampling loop: one observation immediately, then
// one per interval until the context is cancelled.
package runner

import (
	"context"
	"sync"
	"time"

	"codeberg.org/mutker/powerlog/internal/errors"
	"codeberg.org/mutker/powerlog/internal/logger"
	"codeberg.org/mutker/powerlog/internal/sampler"
)

// Observer is an in-process consumer of observations, such as the D-Bus
// service.
type Observer func(sampler.Observation)

// Source produces observations.
type Source interface {
	Sample(ctx context.Context) sampler.Observation
}

// Appender persists observations.
type Appender interface {
	Append(obs sampler.Observation) error
}

// Recorder mirrors observations to secondary storage. Its failures never stop
// the loop.
type Recorder interface {
	Record(ctx context.Context, obs sampler.Observation) error
}

type Runner struct {
	source    Source
	appender  Appender
	recorder  Recorder
	observers []Observer
	log       logger.Logger
	now       func() time.Time

	mu       sync.Mutex
	interval time.Duration
	resetCh  chan time.Duration
}

type Option func(*Runner)

func WithRecorder(r Recorder) Option {
	return func(rn *Runner) {
		rn.recorder = r
	}
}

func WithObserver(o Observer) Option {
	return func(rn *Runner) {
		rn.observers = append(rn.observers, o)
	}
}

func WithLogger(log logger.Logger) Option {
	return func(rn *Runner) {
		rn.log = log
	}
}

// WithClock overrides the clock used for wall-clock jump detection.
func WithClock(now func() time.Time) Option {
	return func(rn *Runner) {
		rn.now = now
	}
}

func New(source Source, appender Appender, interval time.Duration, opts ...Option) *Runner {
	r := &Runner{
		source:   source,
		appender: appender,
		interval: interval,
		log:      logger.Nop(),
		now:      time.Now,
		resetCh:  make(chan time.Duration, 1),
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Interval returns the current sampling interval.
func (r *Runner) Interval() time.Duration {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.interval
}

// SetInterval changes the sampling interval of a running loop. Non-positive
// values are ignored. Only the latest pending change is applied.
func (r *Runner) SetInterval(d time.Duration) {
	if d <= 0 {
		return
	}

	r.mu.Lock()
	r.interval = d
	r.mu.Unlock()

	select {
	case r.resetCh <- d:
	default:
		select {
		case <-r.resetCh:
		default:
		}
		r.resetCh <- d
	}
}

// Run blocks until ctx is cancelled. Cancellation is not an error and does
// not trigger a final write.
func (r *Runner) Run(ctx context.Context) error {
	interval := r.Interval()
	if interval <= 0 {
		return errors.New().WithData(errors.ErrInvalidInterval, interval.String())
	}

	r.log.Info().Dur("interval", interval).Msg("sampling loop started")

	// Round(0) strips the monotonic reading so Sub measures wall clock,
	// which jumps across suspend.
	last := r.now().Round(0)

	r.tick(ctx)

	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			r.log.Info().Msg("sampling loop stopped")
			return nil
		case d := <-r.resetCh:
			interval = d
			ticker.Reset(d)
			last = r.now().Round(0)
			r.log.Info().Dur("interval", d).Msg("sampling interval changed")
		case <-ticker.C:
			now := r.now().Round(0)
			if gap := now.Sub(last); gap > 2*interval {
				r.log.Info().Dur("gap", gap).Msg("wall-clock jump detected")
			}
			last = now
			r.tick(ctx)
		}
	}
}

func (r *Runner) tick(ctx context.Context) {
	obs := r.source.Sample(ctx)
	if ctx.Err() != nil {
		return
	}

	if err := r.appender.Append(obs); err != nil {
		var appErr errors.Error
		if errors.As(err, &appErr) {
			r.log.ErrorWithCode(appErr).Msg("failed to append observation")
		} else {
			r.log.Error().Err(err).Msg("failed to append observation")
		}
		// only persisted rows are mirrored and published
		return
	}

	r.log.Debug().
		Str("battery_pct", obs.BatteryPct).
		Str("status", obs.Status).
		Str("power_mode", obs.PowerMode).
		Msg("observation logged")

	if r.recorder != nil {
		if err := r.recorder.Record(ctx, obs); err != nil {
			r.log.Warn().Err(err).Msg("failed to mirror observation")
		}
	}

	for _, o := range r.observers {
		o(obs)
	}
}
