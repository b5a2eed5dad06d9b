package pid

import (
	"slices"

	"codeberg.org/mutker/powerlog/internal/errors"
	"github.com/shirou/gopsutil/v4/process"
	"golang.org/x/sys/unix"
)

// Handle is the capability to probe and terminate a recorded process.
type Handle interface {
	Alive() bool
	Terminate() error
}

// Finder resolves a PID to a Handle.
type Finder func(pid int) Handle

// Process is a Handle for a local process.
type Process struct {
	PID int
}

// Find is the default Finder.
func Find(pid int) Handle {
	return Process{PID: pid}
}

// Alive reports whether the process exists, accepts signals and is not a
// zombie waiting to be reaped.
func (p Process) Alive() bool {
	if p.PID <= 0 {
		return false
	}

	if err := unix.Kill(p.PID, 0); err != nil && err != unix.EPERM {
		return false
	}

	proc, err := process.NewProcess(int32(p.PID))
	if err != nil {
		return false
	}
	status, err := proc.Status()
	if err != nil {
		// exists per signal 0, state unknown
		return true
	}

	return !slices.Contains(status, process.Zombie)
}

// Terminate sends SIGTERM. A process that is already gone yields
// ErrNotRunning.
func (p Process) Terminate() error {
	errFactory := errors.New()

	if p.PID <= 0 {
		return errFactory.New(errors.ErrNotRunning)
	}

	err := unix.Kill(p.PID, unix.SIGTERM)
	switch {
	case err == nil:
		return nil
	case err == unix.ESRCH:
		return errFactory.Wrap(errors.ErrNotRunning, err)
	default:
		return errFactory.Wrap(errors.ErrSignalFailed, err)
	}
}
