package sampler_test

import (
	"context"
	"fmt"
	"testing"
	"time"

	"codeberg.org/mutker/powerlog/internal/sampler"
	"codeberg.org/mutker/powerlog/internal/sysfs"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeSource map[sysfs.Attribute]string

func (f fakeSource) Read(attr sysfs.Attribute) (string, bool) {
	v, ok := f[attr]
	return v, ok
}

type fakeLister struct {
	name, cpu string
	err       error
	calls     int
}

func (f *fakeLister) TopProcess(context.Context) (string, string, error) {
	f.calls++
	return f.name, f.cpu, f.err
}

func fixedClock(t time.Time) func() time.Time {
	return func() time.Time { return t }
}

func TestSampleDischargingScenario(t *testing.T) {
	now := time.Date(2024, 3, 9, 14, 5, 7, 900_000_000, time.Local)
	src := fakeSource{
		sysfs.BatteryCapacity:             "42",
		sysfs.BatteryStatus:               "Discharging",
		sysfs.BatteryPowerNow:             "15000000",
		sysfs.ACOnline:                    "0",
		sysfs.EnergyPerformancePreference: "balance_power",
	}
	procs := &fakeLister{name: "/usr/bin/firefox", cpu: "12.5"}

	obs := sampler.New(src, procs, sampler.WithClock(fixedClock(now))).Sample(context.Background())

	assert.Equal(t, []string{
		"2024-03-09 14:05:07",
		"42",
		"Discharging",
		"15.00",
		"0",
		"balanced",
		"/usr/bin/firefox",
		"12.5",
	}, obs.Record())
	assert.Equal(t, 1, procs.calls)
}

func TestSampleAllSourcesMissing(t *testing.T) {
	procs := &fakeLister{err: fmt.Errorf("ps: not found")}

	obs := sampler.New(fakeSource{}, procs).Sample(context.Background())

	assert.Equal(t, sampler.UnknownPercent, obs.BatteryPct)
	assert.Equal(t, sampler.UnknownStatus, obs.Status)
	assert.Equal(t, "0.00", obs.DischargeRateW)
	assert.Equal(t, "unknown", obs.ACOnline)
	assert.Equal(t, "unknown", obs.PowerMode)
	assert.Equal(t, "unknown", obs.TopProcess)
	assert.Equal(t, "0.0", obs.TopCPUPct)
	assert.Len(t, obs.Record(), len(sampler.Columns))
	for i, field := range obs.Record() {
		assert.NotEmpty(t, field, sampler.Columns[i])
	}
}

func TestSampleWithoutLister(t *testing.T) {
	obs := sampler.New(fakeSource{}, nil).Sample(context.Background())

	assert.Equal(t, "unknown", obs.TopProcess)
	assert.Equal(t, "0.0", obs.TopCPUPct)
}

func TestDischargeRate(t *testing.T) {
	tests := []struct {
		raw  string
		want string
	}{
		{raw: "15000000", want: "15.00"},
		{raw: "7123456", want: "7.12"},
		{raw: "0", want: "0.00"},
		{raw: "garbage", want: "0.00"},
		{raw: "-5", want: "0.00"},
	}
	for _, tt := range tests {
		t.Run(tt.raw, func(t *testing.T) {
			obs := sampler.New(fakeSource{sysfs.BatteryPowerNow: tt.raw}, nil).Sample(context.Background())
			assert.Equal(t, tt.want, obs.DischargeRateW)
		})
	}
}

func TestPowerModeFromEPP(t *testing.T) {
	tests := map[string]string{
		"power":               "powersave",
		"balance_power":       "balanced",
		"balance_performance": "performance",
		"performance":         "performance",
		"default":             "default",
		"":                    "unknown",
	}
	for epp, want := range tests {
		assert.Equal(t, want, sampler.PowerModeFromEPP(epp), epp)
	}
}

func TestSampleTruncatesToSeconds(t *testing.T) {
	now := time.Date(2024, 1, 1, 0, 0, 59, 999_999_999, time.UTC)

	obs := sampler.New(fakeSource{}, nil, sampler.WithClock(fixedClock(now))).Sample(context.Background())

	require.Equal(t, 0, obs.Timestamp.Nanosecond())
	assert.Equal(t, 59, obs.Timestamp.Second())
}
