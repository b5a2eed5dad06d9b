// Package pid persists the sampler's process ID and probes whether that
// process is still alive. The file is only a hint: every read is followed by
// a liveness probe.
package pid

import (
	"io/fs"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"codeberg.org/mutker/powerlog/internal/errors"
)

// File is a PID file at a fixed path.
type File struct {
	path string
}

func NewFile(path string) *File {
	return &File{path: path}
}

// Path returns the location of the PID file.
func (f *File) Path() string {
	return f.path
}

// Read returns the recorded PID. exists is false when there is no file.
// Content that is not a positive decimal PID yields ErrPIDFileInvalid.
func (f *File) Read() (pid int, exists bool, err error) {
	errFactory := errors.New()

	data, err := os.ReadFile(f.path)
	if errors.Is(err, fs.ErrNotExist) {
		return 0, false, nil
	}
	if err != nil {
		return 0, false, errFactory.Wrap(errors.ErrPIDFileRead, err)
	}

	pid, err = strconv.Atoi(strings.TrimSpace(string(data)))
	if err != nil || pid <= 0 {
		return 0, true, errFactory.WithData(errors.ErrPIDFileInvalid, f.path)
	}

	return pid, true, nil
}

// Write records pid. The file is replaced atomically so readers never see
// partial content.
func (f *File) Write(pid int) error {
	errFactory := errors.New()
	dir := filepath.Dir(f.path)

	if err := os.MkdirAll(dir, 0o755); err != nil {
		return errFactory.Wrap(errors.ErrPIDFileWrite, err)
	}

	tmp, err := os.CreateTemp(dir, filepath.Base(f.path)+".*.tmp")
	if err != nil {
		return errFactory.Wrap(errors.ErrPIDFileWrite, err)
	}
	tmpPath := tmp.Name()

	if _, err := tmp.WriteString(strconv.Itoa(pid)); err != nil {
		tmp.Close()
		os.Remove(tmpPath)
		return errFactory.Wrap(errors.ErrPIDFileWrite, err)
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmpPath)
		return errFactory.Wrap(errors.ErrPIDFileWrite, err)
	}
	if err := os.Rename(tmpPath, f.path); err != nil {
		os.Remove(tmpPath)
		return errFactory.Wrap(errors.ErrPIDFileWrite, err)
	}

	return nil
}

// Remove deletes the PID file. A missing file is not an error.
func (f *File) Remove() error {
	if err := os.Remove(f.path); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return errors.New().Wrap(errors.ErrPIDFileWrite, err)
	}

	return nil
}
