package sampler

import (
	"context"
	"fmt"
	"strconv"
	"time"

	"codeberg.org/mutker/powerlog/internal/logger"
	"codeberg.org/mutker/powerlog/internal/sysfs"
)

const microWattsPerWatt = 1_000_000

// Sampler composes one Observation per call from a sysfs source and a
// process lister. It keeps no state between calls.
type Sampler struct {
	source sysfs.Source
	procs  ProcessLister
	now    func() time.Time
	log    logger.Logger
}

// Option configures a Sampler.
type Option func(*Sampler)

// WithClock overrides the wall clock.
func WithClock(now func() time.Time) Option {
	return func(s *Sampler) {
		s.now = now
	}
}

// WithLogger sets the logger used for probe failures.
func WithLogger(log logger.Logger) Option {
	return func(s *Sampler) {
		s.log = log
	}
}

// New returns a Sampler. A nil lister disables the top process probe.
func New(source sysfs.Source, procs ProcessLister, opts ...Option) *Sampler {
	s := &Sampler{
		source: source,
		procs:  procs,
		now:    time.Now,
		log:    logger.Nop(),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Sample produces exactly one Observation. It never fails.
func (s *Sampler) Sample(ctx context.Context) Observation {
	obs := Observation{
		Timestamp:      s.now().Truncate(time.Second),
		BatteryPct:     s.readOr(sysfs.BatteryCapacity, UnknownPercent),
		Status:         s.readOr(sysfs.BatteryStatus, UnknownStatus),
		DischargeRateW: s.dischargeRate(),
		ACOnline:       s.readOr(sysfs.ACOnline, UnknownAC),
		PowerMode:      s.powerMode(),
		TopProcess:     UnknownProcess,
		TopCPUPct:      ZeroCPUPercent,
	}

	if s.procs != nil {
		name, cpu, err := s.procs.TopProcess(ctx)
		if err != nil {
			s.log.Debug().Err(err).Msg("top process probe failed")
		} else {
			obs.TopProcess, obs.TopCPUPct = name, cpu
		}
	}

	return obs
}

func (s *Sampler) readOr(attr sysfs.Attribute, fallback string) string {
	v, ok := s.source.Read(attr)
	if !ok {
		s.log.Debug().Str("attribute", attr.String()).Msg("source unavailable")
		return fallback
	}
	return v
}

func (s *Sampler) dischargeRate() string {
	raw, ok := s.source.Read(sysfs.BatteryPowerNow)
	if !ok {
		return ZeroRate
	}
	uw, err := strconv.ParseFloat(raw, 64)
	if err != nil || uw < 0 {
		s.log.Debug().Str("power_now", raw).Msg("unparsable power draw")
		return ZeroRate
	}
	return fmt.Sprintf("%.2f", uw/microWattsPerWatt)
}

func (s *Sampler) powerMode() string {
	epp, ok := s.source.Read(sysfs.EnergyPerformancePreference)
	if !ok {
		return UnknownMode
	}
	return PowerModeFromEPP(epp)
}

// PowerModeFromEPP maps a CPU energy performance preference to a profile
// label. It approximates the active profile and can disagree with a profile
// daemon while it is switching.
func PowerModeFromEPP(epp string) string {
	switch epp {
	case "power":
		return ModePowersave
	case "balance_power":
		return ModeBalanced
	case "balance_performance":
		return ModePerformance
	case "":
		return UnknownMode
	default:
		return epp
	}
}
