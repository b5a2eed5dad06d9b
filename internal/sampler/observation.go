package sampler

import "time"

// TimestampLayout is the wall clock format used in log rows.
const TimestampLayout = "2006-01-02 15:04:05"

// Sentinels used when a source is unavailable.
const (
	UnknownPercent  = "?"
	UnknownStatus   = "Unknown"
	UnknownAC       = "unknown"
	UnknownMode     = "unknown"
	UnknownProcess  = "unknown"
	ZeroRate        = "0.00"
	ZeroCPUPercent  = "0.0"
	ModePowersave   = "powersave"
	ModeBalanced    = "balanced"
	ModePerformance = "performance"
)

// Columns is the fixed column order of a log row.
var Columns = []string{
	"timestamp",
	"battery_pct",
	"status",
	"discharge_rate_w",
	"ac_online",
	"power_mode",
	"top_process",
	"top_cpu_pct",
}

// Observation is one battery/power/process sample. Every field is always
// populated, missing sources degrade to the sentinels above.
type Observation struct {
	Timestamp      time.Time `json:"timestamp"`
	BatteryPct     string    `json:"battery_pct"`
	Status         string    `json:"status"`
	DischargeRateW string    `json:"discharge_rate_w"`
	ACOnline       string    `json:"ac_online"`
	PowerMode      string    `json:"power_mode"`
	TopProcess     string    `json:"top_process"`
	TopCPUPct      string    `json:"top_cpu_pct"`
}

// Record returns the observation's fields in Columns order.
func (o Observation) Record() []string {
	return []string{
		o.Timestamp.Format(TimestampLayout),
		o.BatteryPct,
		o.Status,
		o.DischargeRateW,
		o.ACOnline,
		o.PowerMode,
		o.TopProcess,
		o.TopCPUPct,
	}
}
