// Package logfile appends observations to per-day CSV files.
package logfile

import (
	"bytes"
	"encoding/csv"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"codeberg.org/mutker/powerlog/internal/errors"
	"codeberg.org/mutker/powerlog/internal/sampler"
)

const (
	FilePrefix = "battery-"
	FileSuffix = ".csv"
	DateLayout = "2006-01-02"

	dirPerm  = 0o755
	filePerm = 0o644
)

// Writer appends observations to <dir>/battery-YYYY-MM-DD.csv. It holds no
// open descriptors between calls.
type Writer struct {
	dir string
}

func New(dir string) *Writer {
	return &Writer{dir: dir}
}

// Dir returns the log directory.
func (w *Writer) Dir() string {
	return w.dir
}

// Path returns the log file for the local calendar day of t.
func (w *Writer) Path(t time.Time) string {
	return filepath.Join(w.dir, FilePrefix+t.Format(DateLayout)+FileSuffix)
}

// Append writes obs to the file for its day. A new file receives the header
// and the row in a single write; an existing file receives the row only.
func (w *Writer) Append(obs sampler.Observation) error {
	errFactory := errors.New()

	if err := os.MkdirAll(w.dir, dirPerm); err != nil {
		return errFactory.Wrap(errors.ErrPersistence, err)
	}

	path := w.Path(obs.Timestamp)
	header := true
	f, err := os.OpenFile(path, os.O_WRONLY|os.O_CREATE|os.O_EXCL, filePerm)
	if errors.Is(err, fs.ErrExist) {
		header = false
		f, err = os.OpenFile(path, os.O_WRONLY|os.O_APPEND, filePerm)
	}
	if err != nil {
		return errFactory.Wrap(errors.ErrPersistence, err)
	}

	data, err := encode(obs, header)
	if err != nil {
		f.Close()
		return errFactory.Wrap(errors.ErrPersistence, err)
	}

	if _, err := f.Write(data); err != nil {
		f.Close()
		return errFactory.Wrap(errors.ErrPersistence, err)
	}

	if err := f.Close(); err != nil {
		return errFactory.Wrap(errors.ErrPersistence, err)
	}

	return nil
}

func encode(obs sampler.Observation, header bool) ([]byte, error) {
	var buf bytes.Buffer
	cw := csv.NewWriter(&buf)
	if header {
		if err := cw.Write(sampler.Columns); err != nil {
			return nil, err
		}
	}
	if err := cw.Write(obs.Record()); err != nil {
		return nil, err
	}
	cw.Flush()
	if err := cw.Error(); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

// Files returns the log files in dir, oldest first. A missing directory
// yields no files.
func (w *Writer) Files() ([]string, error) {
	entries, err := os.ReadDir(w.dir)
	if errors.Is(err, fs.ErrNotExist) {
		return nil, nil
	}
	if err != nil {
		return nil, errors.New().Wrap(errors.ErrLogDirRead, err)
	}

	var files []string
	for _, e := range entries {
		name := e.Name()
		if e.IsDir() || !strings.HasPrefix(name, FilePrefix) || !strings.HasSuffix(name, FileSuffix) {
			continue
		}
		files = append(files, filepath.Join(w.dir, name))
	}
	sort.Strings(files)

	return files, nil
}
