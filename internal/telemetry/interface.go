package telemetry

import (
	"context"
	"time"

	"codeberg.org/mutker/powerlog/internal/sampler"
)

// Recorder mirrors observations into a queryable store.
type Recorder interface {
	Record(ctx context.Context, obs sampler.Observation) error
	Count(ctx context.Context, day time.Time) (int, error)
	Close() error
}

// Repository is the storage behind a Recorder.
type Repository interface {
	Insert(ctx context.Context, obs sampler.Observation) error
	CountDay(ctx context.Context, day string) (int, error)
	Close() error
}
