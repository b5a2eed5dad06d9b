// Package telemetry mirrors logged observations into a sqlite database so
// they can be counted and queried without parsing CSV files.
package telemetry

import (
	"context"
	"time"

	"codeberg.org/mutker/powerlog/internal/errors"
	"codeberg.org/mutker/powerlog/internal/logfile"
	"codeberg.org/mutker/powerlog/internal/logger"
	"codeberg.org/mutker/powerlog/internal/sampler"
)

type service struct {
	repo Repository
}

type noopRecorder struct{}

// NewService returns a Recorder backed by sqlite, or a no-op Recorder when
// the mirror is disabled.
func NewService(cfg Config, log logger.Logger) (Recorder, error) {
	errFactory := errors.New()

	if err := cfg.Validate(); err != nil {
		return nil, errFactory.Wrap(ErrInvalidConfig, err)
	}

	if !cfg.Enabled {
		log.Debug().Msg("Telemetry disabled, using no-op recorder")
		return noopRecorder{}, nil
	}

	repo, err := NewRepository(cfg.DBPath, log)
	if err != nil {
		return nil, err
	}

	return &service{repo: repo}, nil
}

func (s *service) Record(ctx context.Context, obs sampler.Observation) error {
	if err := ctx.Err(); err != nil {
		return errors.New().Wrap(ErrOperationTimeout, err)
	}
	return s.repo.Insert(ctx, obs)
}

func (s *service) Count(ctx context.Context, day time.Time) (int, error) {
	return s.repo.CountDay(ctx, day.Format(logfile.DateLayout))
}

func (s *service) Close() error {
	return s.repo.Close()
}

func (noopRecorder) Record(context.Context, sampler.Observation) error {
	return nil
}

func (noopRecorder) Count(context.Context, time.Time) (int, error) {
	return 0, errors.New().New(ErrDisabled)
}

func (noopRecorder) Close() error {
	return nil
}
