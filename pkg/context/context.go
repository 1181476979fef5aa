// Package context carries run-scoped identifiers through the standard
// context so that logs and trace spans can be correlated with the
// orchestration run and slice that produced them.
package context

import (
	"context"
	"errors"
)

// Key represents a key for context values
type Key string

const (
	// RunIDKey is the key for the orchestration run ID
	RunIDKey Key = "run_id"

	// SliceKey is the key for the temporal slice key
	SliceKey Key = "slice_key"
)

// ErrNoRunID is returned when the context carries no run ID
var ErrNoRunID = errors.New("no run ID in context")

// ErrNoSliceKey is returned when the context carries no slice key
var ErrNoSliceKey = errors.New("no slice key in context")

// WithRunID returns a context carrying the orchestration run ID
func WithRunID(ctx context.Context, runID string) context.Context {
	return context.WithValue(ctx, RunIDKey, runID)
}

// GetRunID returns the run ID from the context
func GetRunID(ctx context.Context) (string, error) {
	runID, ok := ctx.Value(RunIDKey).(string)
	if !ok || runID == "" {
		return "", ErrNoRunID
	}
	return runID, nil
}

// WithSliceKey returns a context carrying the key of the slice being
// processed
func WithSliceKey(ctx context.Context, key string) context.Context {
	return context.WithValue(ctx, SliceKey, key)
}

// GetSliceKey returns the slice key from the context
func GetSliceKey(ctx context.Context) (string, error) {
	key, ok := ctx.Value(SliceKey).(string)
	if !ok || key == "" {
		return "", ErrNoSliceKey
	}
	return key, nil
}
