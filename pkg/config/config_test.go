package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/spf13/viper"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadFromEnvDefaults(t *testing.T) {
	config := LoadFromEnv()

	assert.Equal(t, 0.5, config.Engine.Damping)
	assert.Equal(t, 1000, config.Engine.MaxIterations)
	assert.Equal(t, 3, config.Engine.Patience)
	assert.Equal(t, 1.0, config.Engine.SelfAffinity)
	assert.True(t, config.Orchestrator.PrimeAcrossSlices)
	assert.False(t, config.Orchestrator.SkipFailedSlices)
	assert.False(t, config.Tracing.OpenTelemetry.Enabled)
	assert.Equal(t, "tethne", config.Tracing.OpenTelemetry.ServiceName)
	assert.Equal(t, "localhost:4317", config.Tracing.OpenTelemetry.CollectorEndpoint)
}

func TestLoadFromEnvOverrides(t *testing.T) {
	t.Setenv("TAP_DAMPING", "0.75")
	t.Setenv("TAP_MAX_ITERATIONS", "50")
	t.Setenv("TAP_PRIME_ACROSS_SLICES", "false")
	t.Setenv("OTEL_SERVICE_NAME", "tap-worker")

	config := Reload()

	assert.Equal(t, 0.75, config.Engine.Damping)
	assert.Equal(t, 50, config.Engine.MaxIterations)
	assert.False(t, config.Orchestrator.PrimeAcrossSlices)
	assert.Equal(t, "tap-worker", config.Tracing.OpenTelemetry.ServiceName)

	// Malformed values fall back to defaults.
	t.Setenv("TAP_DAMPING", "not-a-number")
	config = Reload()
	assert.Equal(t, 0.5, config.Engine.Damping)
}

func TestLoadFromFile(t *testing.T) {
	t.Run("file values override environment values", func(t *testing.T) {
		t.Setenv("TAP_MAX_ITERATIONS", "200")

		path := filepath.Join(t.TempDir(), "tethne.yaml")
		content := []byte("engine:\n  damping: 0.9\n  patience: 5\norchestrator:\n  skip_failed_slices: true\n")
		require.NoError(t, os.WriteFile(path, content, 0o600))

		config, err := LoadFromFile(path)
		require.NoError(t, err)

		assert.Equal(t, 0.9, config.Engine.Damping)
		assert.Equal(t, 5, config.Engine.Patience)
		assert.True(t, config.Orchestrator.SkipFailedSlices)
		// Keys absent from the file keep their environment values.
		assert.Equal(t, 200, config.Engine.MaxIterations)
	})

	t.Run("rejects missing and unsafe paths", func(t *testing.T) {
		_, err := LoadFromFile("")
		assert.Error(t, err)

		_, err = LoadFromFile(filepath.Join(t.TempDir(), "absent.yaml"))
		assert.Error(t, err)

		_, err = LoadFromFile("../outside.yaml")
		assert.Error(t, err)
	})

	t.Run("rejects malformed yaml", func(t *testing.T) {
		path := filepath.Join(t.TempDir(), "broken.yaml")
		require.NoError(t, os.WriteFile(path, []byte("engine: ["), 0o600))

		_, err := LoadFromFile(path)
		assert.Error(t, err)
	})
}

func TestMergeWithViper(t *testing.T) {
	// Pre-claim the keys so t.Setenv restores them after the test.
	t.Setenv("TAP_DAMPING", "")
	t.Setenv("TAP_CONVERGENCE_PATIENCE", "7")

	v := viper.New()
	v.Set("TAP_DAMPING", "0.8")
	v.Set("TAP_CONVERGENCE_PATIENCE", "9")

	merged, skipped := MergeWithViper(v)

	assert.Equal(t, 1, merged)
	assert.Equal(t, 1, skipped)

	config := Get()
	assert.Equal(t, 0.8, config.Engine.Damping)
	// The locally set value wins over the viper value.
	assert.Equal(t, 7, config.Engine.Patience)
}
