package config

import (
	"os"

	"github.com/rs/zerolog/log"
	"github.com/spf13/viper"
)

// viperKeys are the environment keys the library reads. MergeWithViper only
// considers these, so unrelated keys in the viper instance are left alone.
var viperKeys = []string{
	"TAP_DAMPING",
	"TAP_MAX_ITERATIONS",
	"TAP_CONVERGENCE_PATIENCE",
	"TAP_SELF_AFFINITY",
	"TAP_PRIME_ACROSS_SLICES",
	"TAP_SKIP_FAILED_SLICES",
	"OTEL_ENABLED",
	"OTEL_SERVICE_NAME",
	"OTEL_COLLECTOR_ENDPOINT",
}

// MergeWithViper merges configuration held by a viper instance into the
// process environment and reloads the global configuration. This handles the
// flow of:
// 1. Reading the library's keys from viper
// 2. Setting them in the OS environment (local env vars take priority)
// 3. Reloading the global config
//
// Returns the number of keys merged and skipped.
func MergeWithViper(v *viper.Viper) (merged int, skipped int) {
	for _, key := range viperKeys {
		value := v.GetString(key)
		if value == "" {
			continue
		}
		// Check OS environment, not viper, so locally set values win
		if os.Getenv(key) == "" {
			if err := os.Setenv(key, value); err != nil {
				log.Warn().Err(err).Str("key", key).Msg("Failed to set environment variable")
				continue
			}
			merged++
			log.Debug().Str("key", key).Msg("Merged config from viper")
		} else {
			skipped++
			log.Debug().Str("key", key).Msg("Skipped config (already set locally)")
		}
	}

	Reload()

	log.Info().
		Int("configs_merged", merged).
		Int("configs_skipped", skipped).
		Msg("Viper config merge completed")

	return merged, skipped
}
