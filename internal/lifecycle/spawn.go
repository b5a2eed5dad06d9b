package lifecycle

import (
	"context"
	"os"
	"os/exec"
	"path/filepath"
	"syscall"
)

// Spawner starts the sampler as a detached process and returns its PID.
type Spawner interface {
	Spawn(ctx context.Context) (int, error)
}

// ExecSpawner runs Path with Args in a new session. Stdout and stderr are
// appended to Output; stdin is /dev/null.
type ExecSpawner struct {
	Path   string
	Args   []string
	Output string
}

func (s *ExecSpawner) Spawn(ctx context.Context) (int, error) {
	if err := ctx.Err(); err != nil {
		return 0, err
	}

	out, err := s.openOutput()
	if err != nil {
		return 0, err
	}
	defer out.Close()

	// Not CommandContext: the child must outlive the caller.
	cmd := exec.Command(s.Path, s.Args...)
	cmd.Stdout = out
	cmd.Stderr = out
	cmd.SysProcAttr = &syscall.SysProcAttr{Setsid: true}

	if err := cmd.Start(); err != nil {
		return 0, err
	}

	// reap the child if it exits while we are still around
	go func() { _ = cmd.Wait() }()

	return cmd.Process.Pid, nil
}

func (s *ExecSpawner) openOutput() (*os.File, error) {
	if s.Output == "" {
		return os.OpenFile(os.DevNull, os.O_WRONLY, 0)
	}
	if err := os.MkdirAll(filepath.Dir(s.Output), 0o755); err != nil {
		return nil, err
	}
	return os.OpenFile(s.Output, os.O_WRONLY|os.O_CREATE|os.O_APPEND, 0o644)
}
