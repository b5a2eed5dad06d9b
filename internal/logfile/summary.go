package logfile

import (
	"encoding/csv"
	"io/fs"
	"os"
	"time"

	"codeberg.org/mutker/powerlog/internal/errors"
	"codeberg.org/mutker/powerlog/internal/sampler"
)

// Summary describes the log directory.
type Summary struct {
	Files   int
	Latest  string
	Entries int
	Last    []string
}

// LastValue returns the named column of the last row, or "" when there is
// none.
func (s Summary) LastValue(column string) string {
	for i, c := range sampler.Columns {
		if c == column && i < len(s.Last) {
			return s.Last[i]
		}
	}
	return ""
}

// Summary counts the log files and reads the newest one.
func (w *Writer) Summary() (Summary, error) {
	files, err := w.Files()
	if err != nil {
		return Summary{}, err
	}

	s := Summary{Files: len(files)}
	if len(files) == 0 {
		return s, nil
	}

	s.Latest = files[len(files)-1]
	s.Entries, s.Last, err = scan(s.Latest)
	if err != nil {
		return s, err
	}

	return s, nil
}

// Count returns the number of rows logged on the day of t.
func (w *Writer) Count(t time.Time) (int, error) {
	n, _, err := scan(w.Path(t))
	if errors.Is(err, fs.ErrNotExist) {
		return 0, nil
	}
	return n, err
}

// scan returns the number of data rows in path and the last one. A torn
// trailing row is ignored.
func scan(path string) (int, []string, error) {
	f, err := os.Open(path)
	if err != nil {
		return 0, nil, errors.New().Wrap(errors.ErrLogDirRead, err)
	}
	defer f.Close()

	r := csv.NewReader(f)
	r.FieldsPerRecord = -1

	var (
		rows int
		last []string
	)
	for {
		rec, err := r.Read()
		if err != nil {
			// io.EOF or a row cut short by a concurrent append
			break
		}
		if len(rec) != len(sampler.Columns) || rec[0] == sampler.Columns[0] {
			continue
		}
		rows++
		last = rec
	}

	return rows, last, nil
}
