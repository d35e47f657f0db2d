package runs_test

import (
	"errors"
	"os"
	"strings"
	"testing"

	"tidy/internal/runs"
)

func TestWrapTagsMarker(t *testing.T) {
	err := runs.Wrap(runs.ErrPerFile, "move file", "source vanished", os.ErrNotExist)
	if !errors.Is(err, runs.ErrPerFile) {
		t.Fatalf("expected ErrPerFile marker, got %v", err)
	}
	if !errors.Is(err, os.ErrNotExist) {
		t.Fatalf("expected wrapped cause, got %v", err)
	}
	if !strings.Contains(err.Error(), "move file: source vanished") {
		t.Fatalf("unexpected message: %v", err)
	}
}

func TestWrapDefaultsToPerFile(t *testing.T) {
	err := runs.Wrap(nil, "", "", nil)
	if !errors.Is(err, runs.ErrPerFile) {
		t.Fatalf("expected default marker, got %v", err)
	}
}

func TestIsFatal(t *testing.T) {
	if !runs.IsFatal(runs.Wrap(runs.ErrConfiguration, "validate", "bad rule", nil)) {
		t.Fatal("configuration errors are fatal")
	}
	if !runs.IsFatal(runs.ErrSourceMissing) {
		t.Fatal("missing source root is fatal")
	}
	if runs.IsFatal(runs.Wrap(runs.ErrPerFile, "move", "denied", nil)) {
		t.Fatal("per-file errors are not fatal")
	}
}
