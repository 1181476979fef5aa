package context_test

import (
	"context"
	"errors"
	"testing"

	pkgcontext "github.com/maizifang/tethne/pkg/context"
)

func TestRunID(t *testing.T) {
	ctx := context.Background()

	// An unadorned context has no run ID
	if _, err := pkgcontext.GetRunID(ctx); !errors.Is(err, pkgcontext.ErrNoRunID) {
		t.Errorf("Expected ErrNoRunID, got %v", err)
	}

	runID := "test-run"
	ctx = pkgcontext.WithRunID(ctx, runID)
	retrieved, err := pkgcontext.GetRunID(ctx)
	if err != nil {
		t.Errorf("Expected run ID to be set, got error %v", err)
	}
	if retrieved != runID {
		t.Errorf("Expected run ID to be %s, got %s", runID, retrieved)
	}

	// An empty run ID counts as absent
	if _, err := pkgcontext.GetRunID(pkgcontext.WithRunID(context.Background(), "")); !errors.Is(err, pkgcontext.ErrNoRunID) {
		t.Errorf("Expected ErrNoRunID for empty run ID, got %v", err)
	}
}

func TestSliceKey(t *testing.T) {
	ctx := context.Background()

	if _, err := pkgcontext.GetSliceKey(ctx); !errors.Is(err, pkgcontext.ErrNoSliceKey) {
		t.Errorf("Expected ErrNoSliceKey, got %v", err)
	}

	sliceKey := "1999"
	ctx = pkgcontext.WithSliceKey(ctx, sliceKey)
	retrieved, err := pkgcontext.GetSliceKey(ctx)
	if err != nil {
		t.Errorf("Expected slice key to be set, got error %v", err)
	}
	if retrieved != sliceKey {
		t.Errorf("Expected slice key to be %s, got %s", sliceKey, retrieved)
	}

	// Run ID and slice key do not collide
	ctx = pkgcontext.WithRunID(ctx, "test-run")
	if key, _ := pkgcontext.GetSliceKey(ctx); key != sliceKey {
		t.Errorf("Expected slice key to survive, got %s", key)
	}
}
