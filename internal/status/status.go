// Package status assembles the read-only status view of the sampler: whether
// it runs, what it has logged and, optionally, the live hardware state.
package status

import (
	"context"
	"strconv"
	"time"

	"codeberg.org/mutker/powerlog/internal/lifecycle"
	"codeberg.org/mutker/powerlog/internal/logfile"
	"codeberg.org/mutker/powerlog/internal/logger"
	"codeberg.org/mutker/powerlog/internal/sampler"
	"codeberg.org/mutker/powerlog/internal/sysfs"
)

// DefaultPollPeriod is the refresh period of Watch.
const DefaultPollPeriod = 5 * time.Second

// Querier reports the sampler's lifecycle state without side effects.
type Querier interface {
	Status(ctx context.Context) (lifecycle.Result, error)
}

// LogReader summarizes the log directory.
type LogReader interface {
	Dir() string
	Summary() (logfile.Summary, error)
	Count(t time.Time) (int, error)
}

// HardwareSource provides the point reads of the hardware readout.
type HardwareSource interface {
	Read(attr sysfs.Attribute) (string, bool)
	ReadTurbo() (enabled, ok bool)
}

// Counter counts mirrored observations per day.
type Counter interface {
	Count(ctx context.Context, day time.Time) (int, error)
}

// Report is one snapshot of the status view.
type Report struct {
	Time           time.Time         `json:"time"`
	State          lifecycle.Outcome `json:"state"`
	PID            int               `json:"pid,omitempty"`
	Stale          bool              `json:"stale,omitempty"`
	LogDir         string            `json:"log_dir"`
	LogFiles       int               `json:"log_files"`
	TodayEntries   int               `json:"today_entries"`
	LatestFile     string            `json:"latest_file,omitempty"`
	LastEntry      string            `json:"last_entry,omitempty"`
	BatteryPct     string            `json:"battery_pct,omitempty"`
	ACOnline       string            `json:"ac_online,omitempty"`
	Threshold      int               `json:"threshold"`
	BelowThreshold bool              `json:"below_threshold"`
	Mirrored       *int              `json:"mirrored_today,omitempty"`
	Hardware       *Hardware         `json:"hardware,omitempty"`
}

// Running reports whether the sampler process is alive.
func (r Report) Running() bool {
	return r.State == lifecycle.Running
}

// Hardware is the live power state read straight from sysfs.
type Hardware struct {
	BatteryPct      string `json:"battery_pct"`
	Status          string `json:"status"`
	EPP             string `json:"epp"`
	PowerMode       string `json:"power_mode"`
	Turbo           string `json:"turbo"`
	PlatformProfile string `json:"platform_profile"`
}

// View builds Reports. It never writes to the PID file or the log directory.
type View struct {
	ctl       Querier
	logs      LogReader
	threshold int
	hw        HardwareSource
	counter   Counter
	now       func() time.Time
	log       logger.Logger
}

type Option func(*View)

// WithHardware adds the live hardware readout to every Report.
func WithHardware(hw HardwareSource) Option {
	return func(v *View) {
		v.hw = hw
	}
}

// WithCounter adds the number of observations mirrored today.
func WithCounter(c Counter) Option {
	return func(v *View) {
		v.counter = c
	}
}

func WithClock(now func() time.Time) Option {
	return func(v *View) {
		v.now = now
	}
}

func WithLogger(log logger.Logger) Option {
	return func(v *View) {
		v.log = log
	}
}

func New(ctl Querier, logs LogReader, threshold int, opts ...Option) *View {
	v := &View{
		ctl:       ctl,
		logs:      logs,
		threshold: threshold,
		now:       time.Now,
		log:       logger.Nop(),
	}
	for _, opt := range opts {
		opt(v)
	}
	return v
}

// Report takes one snapshot. Lifecycle errors are returned; log directory
// errors leave the log fields zero.
func (v *View) Report(ctx context.Context) (Report, error) {
	now := v.now()
	res, err := v.ctl.Status(ctx)
	if err != nil {
		return Report{}, err
	}

	r := Report{
		Time:      now,
		State:     res.Outcome,
		PID:       res.PID,
		Stale:     res.Stale,
		LogDir:    v.logs.Dir(),
		Threshold: v.threshold,
	}

	if summary, err := v.logs.Summary(); err != nil {
		v.log.Warn().Err(err).Msg("failed to summarize log directory")
	} else {
		r.LogFiles = summary.Files
		r.LatestFile = summary.Latest
		r.LastEntry = summary.LastValue("timestamp")
		r.BatteryPct = summary.LastValue("battery_pct")
		r.ACOnline = summary.LastValue("ac_online")
		r.BelowThreshold = belowThreshold(r.BatteryPct, r.ACOnline, v.threshold)
	}

	if n, err := v.logs.Count(now); err != nil {
		v.log.Warn().Err(err).Msg("failed to count today's entries")
	} else {
		r.TodayEntries = n
	}

	if v.counter != nil {
		if n, err := v.counter.Count(ctx, now); err != nil {
			v.log.Debug().Err(err).Msg("telemetry count unavailable")
		} else {
			r.Mirrored = &n
		}
	}

	if v.hw != nil {
		r.Hardware = readHardware(v.hw)
	}

	return r, nil
}

// Watch delivers a Report immediately and then every period until ctx is
// cancelled. Errors are passed to fn and do not end the loop.
func (v *View) Watch(ctx context.Context, period time.Duration, fn func(Report, error)) error {
	if period <= 0 {
		period = DefaultPollPeriod
	}

	ticker := time.NewTicker(period)
	defer ticker.Stop()

	for {
		fn(v.Report(ctx))

		select {
		case <-ctx.Done():
			return nil
		case <-ticker.C:
		}
	}
}

// belowThreshold is true when the last logged battery percentage is at or
// below threshold while on battery.
func belowThreshold(pct, ac string, threshold int) bool {
	if ac != "0" {
		return false
	}
	n, err := strconv.Atoi(pct)
	if err != nil {
		return false
	}
	return n <= threshold
}

func readHardware(src HardwareSource) *Hardware {
	hw := &Hardware{
		BatteryPct:      readOr(src, sysfs.BatteryCapacity, "N/A"),
		Status:          readOr(src, sysfs.BatteryStatus, sampler.UnknownStatus),
		EPP:             readOr(src, sysfs.EnergyPerformancePreference, "N/A"),
		PlatformProfile: readOr(src, sysfs.PlatformProfile, "N/A"),
		Turbo:           "N/A",
	}

	if epp, ok := src.Read(sysfs.EnergyPerformancePreference); ok {
		hw.PowerMode = sampler.PowerModeFromEPP(epp)
	} else {
		hw.PowerMode = sampler.UnknownMode
	}

	if enabled, ok := src.ReadTurbo(); ok {
		hw.Turbo = "disabled"
		if enabled {
			hw.Turbo = "enabled"
		}
	}

	return hw
}

func readOr(src HardwareSource, attr sysfs.Attribute, fallback string) string {
	if v, ok := src.Read(attr); ok {
		return v
	}
	return fallback
}
