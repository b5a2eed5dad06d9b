package lifecycle

// Outcome is the result of a lifecycle operation.
type Outcome string

const (
	Started        Outcome = "started"
	AlreadyRunning Outcome = "already_running"
	Stopped        Outcome = "stopped"
	AlreadyStopped Outcome = "already_stopped"
	Running        Outcome = "running"
	NotRunning     Outcome = "not_running"
)

// Result reports an outcome with the PID it concerns. Stale is set when the
// PID file named a process that no longer exists.
type Result struct {
	Outcome Outcome `json:"outcome"`
	PID     int     `json:"pid,omitempty"`
	Stale   bool    `json:"stale,omitempty"`
}

func (r Result) String() string {
	return string(r.Outcome)
}
