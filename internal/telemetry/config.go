package telemetry

import "codeberg.org/mutker/powerlog/internal/errors"

const defaultDirPerm = 0o755

// Config controls the sqlite mirror of logged observations.
type Config struct {
	Enabled bool
	DBPath  string
}

func (c Config) Validate() error {
	if c.Enabled && c.DBPath == "" {
		return errors.New().New(ErrInvalidDBPath)
	}
	return nil
}
