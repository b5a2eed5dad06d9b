package sampler

import (
	"bytes"
	"context"
	"fmt"
	"os/exec"
	"strconv"
	"strings"
	"time"
)

// DefaultProbeTimeout bounds a single process listing.
const DefaultProbeTimeout = 2 * time.Second

// ProcessLister reports the process using the most CPU right now.
type ProcessLister interface {
	TopProcess(ctx context.Context) (name, cpuPct string, err error)
}

// PSLister runs ps sorted by CPU usage and parses its first data row.
type PSLister struct {
	Path    string
	Args    []string
	Timeout time.Duration
}

// NewPSLister returns a lister running "ps aux --sort=-%cpu".
func NewPSLister() *PSLister {
	return &PSLister{
		Path:    "ps",
		Args:    []string{"aux", "--sort=-%cpu"},
		Timeout: DefaultProbeTimeout,
	}
}

func (p *PSLister) TopProcess(ctx context.Context) (string, string, error) {
	timeout := p.Timeout
	if timeout <= 0 {
		timeout = DefaultProbeTimeout
	}
	ctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	out, err := exec.CommandContext(ctx, p.Path, p.Args...).Output()
	if ctx.Err() != nil {
		return "", "", fmt.Errorf("process listing: %w", ctx.Err())
	}
	if err != nil {
		return "", "", fmt.Errorf("process listing: %w", err)
	}

	return ParsePS(out)
}

// ParsePS extracts the command (11th column) and %CPU (3rd column) of the
// first row after the header of "ps aux" output.
func ParsePS(out []byte) (string, string, error) {
	lines := bytes.Split(out, []byte("\n"))
	if len(lines) < 2 {
		return "", "", fmt.Errorf("process listing: no rows")
	}

	fields := strings.Fields(string(lines[1]))
	if len(fields) < 11 {
		return "", "", fmt.Errorf("process listing: short row %q", lines[1])
	}

	cpu := fields[2]
	if v, err := strconv.ParseFloat(cpu, 64); err != nil || v < 0 {
		return "", "", fmt.Errorf("process listing: bad cpu value %q", cpu)
	}

	return fields[10], cpu, nil
}
