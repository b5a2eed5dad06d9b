package logger_test

import (
	"bytes"
	"testing"

	"codeberg.org/mutker/powerlog/internal/errors"
	"codeberg.org/mutker/powerlog/internal/logger"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseLevel(t *testing.T) {
	tests := map[string]logger.LogLevel{
		"debug":   logger.DebugLevel,
		"INFO":    logger.InfoLevel,
		"warning": logger.WarnLevel,
		"warn":    logger.WarnLevel,
		" error ": logger.ErrorLevel,
	}
	for in, want := range tests {
		got, err := logger.ParseLevel(in)
		require.NoError(t, err, in)
		assert.Equal(t, want, got, in)
	}

	_, err := logger.ParseLevel("loud")
	require.Error(t, err)
	assert.True(t, errors.HasCode(err, errors.ErrInvalidLogLevel))
}

func TestNewWritesComponentAndCode(t *testing.T) {
	logger.SetLogLevel(logger.DebugLevel)
	t.Cleanup(func() { logger.SetLogLevel(logger.WarnLevel) })

	var buf bytes.Buffer
	log := logger.New(&buf, logger.DebugLevel).With("runner")

	log.Info().Str("file", "battery.csv").Msg("appended")
	log.ErrorWithCode(errors.New().New(errors.ErrPersistence)).Msg("tick failed")

	out := buf.String()
	assert.Contains(t, out, "appended")
	assert.Contains(t, out, "runner")
	assert.Contains(t, out, "battery.csv")
	assert.Contains(t, out, "persistence_failed")
}

func TestNopDiscards(t *testing.T) {
	log := logger.Nop()
	assert.NotPanics(t, func() {
		log.Error().Msg("dropped")
		log.With("x").Debug().Send()
	})
}
