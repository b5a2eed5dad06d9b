// Package sysfs performs single best-effort reads of power related
// attributes. Absence is reported through the ok result, never as an error.
package sysfs

import (
	"os"
	"path/filepath"
	"strings"
)

// Attribute names a hardware attribute the sampler consumes.
type Attribute int

const (
	BatteryCapacity Attribute = iota
	BatteryStatus
	BatteryPowerNow
	ACOnline
	EnergyPerformancePreference
	IntelNoTurbo
	CPUFreqBoost
	PlatformProfile
)

func (a Attribute) String() string {
	switch a {
	case BatteryCapacity:
		return "battery_capacity"
	case BatteryStatus:
		return "battery_status"
	case BatteryPowerNow:
		return "battery_power_now"
	case ACOnline:
		return "ac_online"
	case EnergyPerformancePreference:
		return "energy_performance_preference"
	case IntelNoTurbo:
		return "intel_no_turbo"
	case CPUFreqBoost:
		return "cpufreq_boost"
	case PlatformProfile:
		return "platform_profile"
	default:
		return "unknown"
	}
}

// Source is the read side the sampler depends on.
type Source interface {
	Read(attr Attribute) (string, bool)
}

// Reader reads attributes below a sysfs root.
type Reader struct {
	root    string
	battery string
	ac      string
}

// NewReader returns a Reader for the given sysfs root and power supply names.
// Empty names fall back to "/sys", "BAT0" and "AC".
func NewReader(root, battery, ac string) *Reader {
	if root == "" {
		root = "/sys"
	}
	if battery == "" {
		battery = "BAT0"
	}
	if ac == "" {
		ac = "AC"
	}
	return &Reader{root: root, battery: battery, ac: ac}
}

// Path returns the file backing attr.
func (r *Reader) Path(attr Attribute) string {
	switch attr {
	case BatteryCapacity:
		return filepath.Join(r.root, "class/power_supply", r.battery, "capacity")
	case BatteryStatus:
		return filepath.Join(r.root, "class/power_supply", r.battery, "status")
	case BatteryPowerNow:
		return filepath.Join(r.root, "class/power_supply", r.battery, "power_now")
	case ACOnline:
		return filepath.Join(r.root, "class/power_supply", r.ac, "online")
	case EnergyPerformancePreference:
		return filepath.Join(r.root, "devices/system/cpu/cpu0/cpufreq/energy_performance_preference")
	case IntelNoTurbo:
		return filepath.Join(r.root, "devices/system/cpu/intel_pstate/no_turbo")
	case CPUFreqBoost:
		return filepath.Join(r.root, "devices/system/cpu/cpufreq/boost")
	case PlatformProfile:
		return filepath.Join(r.root, "firmware/acpi/platform_profile")
	default:
		return ""
	}
}

// Read returns the trimmed contents of attr. ok is false when the attribute
// is missing, unreadable or empty.
func (r *Reader) Read(attr Attribute) (string, bool) {
	path := r.Path(attr)
	if path == "" {
		return "", false
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return "", false
	}

	value := strings.TrimSpace(string(data))
	if value == "" {
		return "", false
	}
	return value, true
}

// ReadTurbo reports whether turbo boost is enabled. Intel exposes the inverted
// no_turbo switch, other drivers expose cpufreq/boost.
func (r *Reader) ReadTurbo() (enabled, ok bool) {
	if v, found := r.Read(IntelNoTurbo); found {
		return v == "0", true
	}
	if v, found := r.Read(CPUFreqBoost); found {
		return v == "1", true
	}
	return false, false
}
