package runner_test

import (
	"bytes"
	"context"
	"fmt"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"codeberg.org/mutker/powerlog/internal/errors"
	"codeberg.org/mutker/powerlog/internal/logger"
	"codeberg.org/mutker/powerlog/internal/runner"
	"codeberg.org/mutker/powerlog/internal/sampler"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type countingSource struct {
	mu    sync.Mutex
	calls int
}

func (s *countingSource) Sample(context.Context) sampler.Observation {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.calls++
	return sampler.Observation{Timestamp: time.Now(), BatteryPct: fmt.Sprint(s.calls)}
}

type memAppender struct {
	mu      sync.Mutex
	rows    []sampler.Observation
	failing int
}

func (a *memAppender) Append(obs sampler.Observation) error {
	a.mu.Lock()
	defer a.mu.Unlock()
	if a.failing > 0 {
		a.failing--
		return errors.New().Wrap(errors.ErrPersistence, fmt.Errorf("disk full"))
	}
	a.rows = append(a.rows, obs)
	return nil
}

func (a *memAppender) count() int {
	a.mu.Lock()
	defer a.mu.Unlock()
	return len(a.rows)
}

type failingRecorder struct{ calls int }

func (r *failingRecorder) Record(context.Context, sampler.Observation) error {
	r.calls++
	return fmt.Errorf("database locked")
}

func start(t *testing.T, r *runner.Runner) (context.CancelFunc, <-chan error) {
	t.Helper()
	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- r.Run(ctx) }()
	t.Cleanup(cancel)
	return cancel, done
}

func TestRunSamplesImmediately(t *testing.T) {
	src := &countingSource{}
	app := &memAppender{}
	r := runner.New(src, app, time.Hour)

	cancel, done := start(t, r)

	assert.Eventually(t, func() bool { return app.count() == 1 }, 2*time.Second, 5*time.Millisecond)
	cancel()
	require.NoError(t, <-done)
	assert.Equal(t, 1, app.count(), "no final write on cancellation")
}

func TestRunTicks(t *testing.T) {
	app := &memAppender{}
	r := runner.New(&countingSource{}, app, 10*time.Millisecond)

	cancel, done := start(t, r)

	assert.Eventually(t, func() bool { return app.count() >= 3 }, 2*time.Second, 5*time.Millisecond)
	cancel()
	require.NoError(t, <-done)

	n := app.count()
	time.Sleep(50 * time.Millisecond)
	assert.Equal(t, n, app.count(), "no writes after Run returns")
}

func TestRunContinuesAfterAppendFailure(t *testing.T) {
	var buf bytes.Buffer
	app := &memAppender{failing: 2}
	rec := &failingRecorder{}
	r := runner.New(&countingSource{}, app, 10*time.Millisecond,
		runner.WithRecorder(rec),
		runner.WithLogger(logger.New(&syncWriter{w: &buf}, logger.DebugLevel)),
	)

	cancel, done := start(t, r)

	assert.Eventually(t, func() bool { return app.count() >= 2 }, 2*time.Second, 5*time.Millisecond)
	cancel()
	require.NoError(t, <-done)

	app.mu.Lock()
	first := app.rows[0].BatteryPct
	app.mu.Unlock()
	assert.Equal(t, "3", first, "the two failed ticks are lost, not retried")
	assert.Equal(t, app.count(), rec.calls, "only appended rows are mirrored")
	assert.Contains(t, buf.String(), "persistence_failed")
}

func TestRunObservers(t *testing.T) {
	var (
		mu   sync.Mutex
		seen []string
	)
	r := runner.New(&countingSource{}, &memAppender{}, time.Hour,
		runner.WithObserver(func(obs sampler.Observation) {
			mu.Lock()
			seen = append(seen, obs.BatteryPct)
			mu.Unlock()
		}),
	)

	cancel, done := start(t, r)
	assert.Eventually(t, func() bool {
		mu.Lock()
		defer mu.Unlock()
		return len(seen) == 1
	}, 2*time.Second, 5*time.Millisecond)
	cancel()
	require.NoError(t, <-done)
}

func TestSetInterval(t *testing.T) {
	app := &memAppender{}
	r := runner.New(&countingSource{}, app, time.Hour)

	cancel, done := start(t, r)
	assert.Eventually(t, func() bool { return app.count() == 1 }, 2*time.Second, 5*time.Millisecond)

	r.SetInterval(10 * time.Millisecond)
	assert.Equal(t, 10*time.Millisecond, r.Interval())
	assert.Eventually(t, func() bool { return app.count() >= 3 }, 2*time.Second, 5*time.Millisecond)

	r.SetInterval(0)
	assert.Equal(t, 10*time.Millisecond, r.Interval())

	cancel()
	require.NoError(t, <-done)
}

func TestRunInvalidInterval(t *testing.T) {
	app := &memAppender{}
	err := runner.New(&countingSource{}, app, 0).Run(context.Background())

	assert.True(t, errors.HasCode(err, errors.ErrInvalidInterval))
	assert.Zero(t, app.count())
}

func TestRunCancelledBeforeStart(t *testing.T) {
	app := &memAppender{}
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	require.NoError(t, runner.New(&countingSource{}, app, time.Hour).Run(ctx))
	assert.Zero(t, app.count())
}

type countingRecorder struct{ calls atomic.Int32 }

func (r *countingRecorder) Record(context.Context, sampler.Observation) error {
	r.calls.Add(1)
	return nil
}

func TestFailedAppendIsNotMirrored(t *testing.T) {
	app := &memAppender{failing: 1}
	rec := &countingRecorder{}
	var observed atomic.Int32
	r := runner.New(&countingSource{}, app, time.Hour,
		runner.WithRecorder(rec),
		runner.WithObserver(func(sampler.Observation) { observed.Add(1) }),
	)

	cancel, done := start(t, r)
	assert.Eventually(t, func() bool {
		app.mu.Lock()
		defer app.mu.Unlock()
		return app.failing == 0
	}, 2*time.Second, 5*time.Millisecond)
	cancel()
	require.NoError(t, <-done)

	assert.Zero(t, app.count())
	assert.Zero(t, rec.calls.Load())
	assert.Zero(t, observed.Load())
}

// manualClock is a wall clock that only moves when told to.
type manualClock struct{ nanos atomic.Int64 }

func newManualClock(t time.Time) *manualClock {
	c := &manualClock{}
	c.nanos.Store(t.UnixNano())
	return c
}

func (c *manualClock) Now() time.Time          { return time.Unix(0, c.nanos.Load()) }
func (c *manualClock) Advance(d time.Duration) { c.nanos.Add(int64(d)) }

func TestWallClockJumpLogged(t *testing.T) {
	var buf bytes.Buffer
	clock := newManualClock(time.Date(2024, 3, 9, 12, 0, 0, 0, time.UTC))
	app := &memAppender{}
	r := runner.New(&countingSource{}, app, 10*time.Millisecond,
		runner.WithClock(clock.Now),
		runner.WithLogger(logger.New(&syncWriter{w: &buf}, logger.DebugLevel)),
	)

	cancel, done := start(t, r)
	assert.Eventually(t, func() bool { return app.count() == 1 }, 2*time.Second, 5*time.Millisecond)
	clock.Advance(time.Hour)
	n := app.count()
	assert.Eventually(t, func() bool { return app.count() >= n+2 }, 2*time.Second, 5*time.Millisecond)
	cancel()
	require.NoError(t, <-done)

	assert.Contains(t, buf.String(), "wall-clock jump detected")
}

func TestShorterIntervalIsNotAJump(t *testing.T) {
	var buf bytes.Buffer
	clock := newManualClock(time.Date(2024, 3, 9, 12, 0, 0, 0, time.UTC))
	app := &memAppender{}
	r := runner.New(&countingSource{}, app, time.Hour,
		runner.WithClock(clock.Now),
		runner.WithLogger(logger.New(&syncWriter{w: &buf}, logger.DebugLevel)),
	)

	cancel, done := start(t, r)
	assert.Eventually(t, func() bool { return app.count() == 1 }, 2*time.Second, 5*time.Millisecond)

	// most of the old interval has elapsed when it is shortened
	clock.Advance(50 * time.Minute)
	r.SetInterval(10 * time.Millisecond)
	assert.Eventually(t, func() bool { return app.count() >= 3 }, 2*time.Second, 5*time.Millisecond)
	cancel()
	require.NoError(t, <-done)

	assert.NotContains(t, buf.String(), "wall-clock jump detected")
}

type syncWriter struct {
	mu sync.Mutex
	w  *bytes.Buffer
}

func (s *syncWriter) Write(p []byte) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.w.Write(p)
}
