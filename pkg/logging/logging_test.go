package logging

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNew(t *testing.T) {
	logger := New()
	require.NotNil(t, logger)

	// All levels accept nil fields.
	ctx := context.Background()
	logger.Debug(ctx, "debug message", nil)
	logger.Info(ctx, "info message", map[string]interface{}{"key": "value"})
	logger.Warn(ctx, "warn message", nil)
	logger.Error(ctx, "error message", map[string]interface{}{"error": "boom"})
}

func TestWithLevel(t *testing.T) {
	logger := New(WithLevel("debug"))
	require.NotNil(t, logger)

	zl, ok := logger.(*ZerologLogger)
	require.True(t, ok)
	assert.Equal(t, "debug", zl.logger.GetLevel().String())

	// Options also apply to an existing logger.
	WithLevel("error")(logger)
	assert.Equal(t, "error", zl.logger.GetLevel().String())
}

func TestLevelFromEnvironment(t *testing.T) {
	t.Setenv("LOG_LEVEL", "warn")

	logger := New()
	zl, ok := logger.(*ZerologLogger)
	require.True(t, ok)
	assert.Equal(t, "warn", zl.logger.GetLevel().String())
}
