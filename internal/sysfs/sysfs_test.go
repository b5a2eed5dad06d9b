package sysfs

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeTestFile(t *testing.T, path, contents string) {
	t.Helper()

	require.NoError(t, os.MkdirAll(filepath.Dir(path), 0o755))
	require.NoError(t, os.WriteFile(path, []byte(contents), 0o644))
}

func TestReadTrimsValues(t *testing.T) {
	root := t.TempDir()
	writeTestFile(t, filepath.Join(root, "class/power_supply/BAT0/capacity"), "42\n")
	writeTestFile(t, filepath.Join(root, "class/power_supply/BAT0/status"), "  Discharging \n")
	writeTestFile(t, filepath.Join(root, "class/power_supply/AC/online"), "0\n")
	writeTestFile(t, filepath.Join(root, "devices/system/cpu/cpu0/cpufreq/energy_performance_preference"), "balance_power\n")

	r := NewReader(root, "", "")

	tests := map[Attribute]string{
		BatteryCapacity:             "42",
		BatteryStatus:               "Discharging",
		ACOnline:                    "0",
		EnergyPerformancePreference: "balance_power",
	}
	for attr, want := range tests {
		got, ok := r.Read(attr)
		assert.True(t, ok, attr.String())
		assert.Equal(t, want, got, attr.String())
	}
}

func TestReadMissingAttribute(t *testing.T) {
	r := NewReader(t.TempDir(), "BAT1", "ADP1")

	for _, attr := range []Attribute{BatteryCapacity, BatteryStatus, BatteryPowerNow, ACOnline, EnergyPerformancePreference} {
		got, ok := r.Read(attr)
		assert.False(t, ok, attr.String())
		assert.Empty(t, got, attr.String())
	}
}

func TestReadEmptyAndDirectory(t *testing.T) {
	root := t.TempDir()
	writeTestFile(t, filepath.Join(root, "class/power_supply/BAT0/status"), "\n")
	require.NoError(t, os.MkdirAll(filepath.Join(root, "class/power_supply/BAT0/capacity"), 0o755))

	r := NewReader(root, "BAT0", "AC")

	_, ok := r.Read(BatteryStatus)
	assert.False(t, ok)
	_, ok = r.Read(BatteryCapacity)
	assert.False(t, ok)
	_, ok = r.Read(Attribute(99))
	assert.False(t, ok)
}

func TestReadUsesSupplyNames(t *testing.T) {
	root := t.TempDir()
	writeTestFile(t, filepath.Join(root, "class/power_supply/BAT1/capacity"), "77")
	writeTestFile(t, filepath.Join(root, "class/power_supply/ADP1/online"), "1")

	r := NewReader(root, "BAT1", "ADP1")

	v, ok := r.Read(BatteryCapacity)
	require.True(t, ok)
	assert.Equal(t, "77", v)
	v, ok = r.Read(ACOnline)
	require.True(t, ok)
	assert.Equal(t, "1", v)
}

func TestReadTurbo(t *testing.T) {
	t.Run("intel no_turbo is inverted", func(t *testing.T) {
		root := t.TempDir()
		writeTestFile(t, filepath.Join(root, "devices/system/cpu/intel_pstate/no_turbo"), "1\n")

		enabled, ok := NewReader(root, "", "").ReadTurbo()
		assert.True(t, ok)
		assert.False(t, enabled)
	})

	t.Run("cpufreq boost", func(t *testing.T) {
		root := t.TempDir()
		writeTestFile(t, filepath.Join(root, "devices/system/cpu/cpufreq/boost"), "1\n")

		enabled, ok := NewReader(root, "", "").ReadTurbo()
		assert.True(t, ok)
		assert.True(t, enabled)
	})

	t.Run("unavailable", func(t *testing.T) {
		_, ok := NewReader(t.TempDir(), "", "").ReadTurbo()
		assert.False(t, ok)
	})
}
