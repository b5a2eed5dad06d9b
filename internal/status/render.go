package status

import (
	"fmt"
	"io"
	"strings"
)

// WriteText renders r in the two-column layout of the status command.
func (r Report) WriteText(w io.Writer) error {
	var b strings.Builder

	fmt.Fprintln(&b, "Battery Logger Status")
	fmt.Fprintln(&b, "=====================")

	state := "stopped"
	switch {
	case r.Running():
		state = fmt.Sprintf("running (PID %d)", r.PID)
	case r.Stale:
		state = fmt.Sprintf("stopped (stale PID %d)", r.PID)
	}
	fmt.Fprintf(&b, "Logger:           %s\n", state)
	fmt.Fprintf(&b, "Log directory:    %s\n", r.LogDir)
	fmt.Fprintf(&b, "Log files:        %d\n", r.LogFiles)
	fmt.Fprintf(&b, "Today's entries:  %d\n", r.TodayEntries)
	if r.Mirrored != nil {
		fmt.Fprintf(&b, "Mirrored today:   %d\n", *r.Mirrored)
	}

	if r.LastEntry != "" {
		fmt.Fprintf(&b, "Last entry:       %s\n", r.LastEntry)
		fmt.Fprintf(&b, "Last battery:     %s%% (AC %s)\n", r.BatteryPct, r.ACOnline)
		if r.BelowThreshold {
			fmt.Fprintf(&b, "Warning:          battery at or below %d%%\n", r.Threshold)
		}
	}

	if hw := r.Hardware; hw != nil {
		fmt.Fprintln(&b)
		fmt.Fprintln(&b, "Hardware:")
		fmt.Fprintf(&b, "  Battery:        %s\n", hw.BatteryPct)
		fmt.Fprintf(&b, "  Power Status:   %s\n", hw.Status)
		fmt.Fprintf(&b, "  Power Mode:     %s\n", hw.PowerMode)
		fmt.Fprintf(&b, "  EPP:            %s\n", hw.EPP)
		fmt.Fprintf(&b, "  Turbo Boost:    %s\n", hw.Turbo)
		fmt.Fprintf(&b, "  Platform:       %s\n", hw.PlatformProfile)
	}

	_, err := io.WriteString(w, b.String())
	return err
}
