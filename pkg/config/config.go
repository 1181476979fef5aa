// Package config provides configuration for the influence engine and the
// slice orchestrator, loaded from environment variables, YAML files, or a
// viper instance.
package config

import (
	"os"
	"strconv"
)

// Config represents the global configuration for the library
type Config struct {
	// Engine configuration
	Engine struct {
		// Damping blends each message update with the previous value
		Damping float64 `yaml:"damping"`

		// MaxIterations caps the inference loop
		MaxIterations int `yaml:"max_iterations"`

		// Patience is the number of consecutive stable convergence checks
		// required before the loop stops
		Patience int `yaml:"patience"`

		// SelfAffinity weighs a node's case for being its own exemplar
		SelfAffinity float64 `yaml:"self_affinity"`
	} `yaml:"engine"`

	// Orchestrator configuration
	Orchestrator struct {
		// PrimeAcrossSlices carries message state between adjacent slices
		PrimeAcrossSlices bool `yaml:"prime_across_slices"`

		// SkipFailedSlices records slice failures and continues the run
		// instead of aborting
		SkipFailedSlices bool `yaml:"skip_failed_slices"`
	} `yaml:"orchestrator"`

	// Tracing configuration
	Tracing struct {
		// OpenTelemetry configuration
		OpenTelemetry struct {
			Enabled           bool   `yaml:"enabled"`
			ServiceName       string `yaml:"service_name"`
			CollectorEndpoint string `yaml:"collector_endpoint"`
		} `yaml:"opentelemetry"`
	} `yaml:"tracing"`
}

// LoadFromEnv loads configuration from environment variables
func LoadFromEnv() *Config {
	config := &Config{}

	// Engine configuration
	config.Engine.Damping = getEnvFloat("TAP_DAMPING", 0.5)
	config.Engine.MaxIterations = getEnvInt("TAP_MAX_ITERATIONS", 1000)
	config.Engine.Patience = getEnvInt("TAP_CONVERGENCE_PATIENCE", 3)
	config.Engine.SelfAffinity = getEnvFloat("TAP_SELF_AFFINITY", 1.0)

	// Orchestrator configuration
	config.Orchestrator.PrimeAcrossSlices = getEnvBool("TAP_PRIME_ACROSS_SLICES", true)
	config.Orchestrator.SkipFailedSlices = getEnvBool("TAP_SKIP_FAILED_SLICES", false)

	// Tracing configuration
	config.Tracing.OpenTelemetry.Enabled = getEnvBool("OTEL_ENABLED", false)
	config.Tracing.OpenTelemetry.ServiceName = getEnv("OTEL_SERVICE_NAME", "tethne")
	config.Tracing.OpenTelemetry.CollectorEndpoint = getEnv("OTEL_COLLECTOR_ENDPOINT", "localhost:4317")

	return config
}

// getEnv gets an environment variable or returns a default value
func getEnv(key, defaultValue string) string {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}
	return value
}

// getEnvBool gets a boolean environment variable or returns a default value
func getEnvBool(key string, defaultValue bool) bool {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}
	boolValue, err := strconv.ParseBool(value)
	if err != nil {
		return defaultValue
	}
	return boolValue
}

// getEnvInt gets an integer environment variable or returns a default value
func getEnvInt(key string, defaultValue int) int {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}
	intValue, err := strconv.Atoi(value)
	if err != nil {
		return defaultValue
	}
	return intValue
}

// getEnvFloat gets a float environment variable or returns a default value
func getEnvFloat(key string, defaultValue float64) float64 {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}
	floatValue, err := strconv.ParseFloat(value, 64)
	if err != nil {
		return defaultValue
	}
	return floatValue
}

// Global instance of the configuration
var globalConfig *Config

// Initialize the global configuration
func init() {
	globalConfig = LoadFromEnv()
}

// Get returns the global configuration
func Get() *Config {
	return globalConfig
}

// Reload reloads the configuration from environment variables
func Reload() *Config {
	globalConfig = LoadFromEnv()
	return globalConfig
}
