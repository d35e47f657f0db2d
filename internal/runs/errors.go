package runs

import (
	"errors"
	"fmt"
	"strings"
)

var (
	// ErrConfiguration marks an invalid rule set or engine setting; the run never starts.
	ErrConfiguration = errors.New("configuration error")
	// ErrSourceMissing marks an absent source root; the run never starts.
	ErrSourceMissing = errors.New("source root not found")
	// ErrPerFile marks a failure scoped to a single planned move; the batch continues.
	ErrPerFile = errors.New("per-file failure")
	// ErrUndoConflict marks a ledger record whose filesystem state prevents reversal.
	ErrUndoConflict = errors.New("undo conflict")
	// ErrSuffixExhausted marks a collision-suffix search that hit the configured cap.
	ErrSuffixExhausted = errors.New("collision suffix cap exceeded")
	// ErrBusy marks an attempt to start a watcher or scheduler loop that is
	// already active.
	ErrBusy = errors.New("engine busy")
)

// Wrap builds an error message that includes operation context while tagging it
// with the provided marker for later classification. The marker should be one
// of the exported sentinel errors above.
func Wrap(marker error, operation, message string, err error) error {
	detail := buildDetail(operation, message)
	if marker == nil {
		marker = ErrPerFile
	}
	if err != nil {
		return fmt.Errorf("%w: %s: %w", marker, detail, err)
	}
	return fmt.Errorf("%w: %s", marker, detail)
}

// IsFatal reports whether the error should abort the run before any move executes.
func IsFatal(err error) bool {
	return errors.Is(err, ErrConfiguration) || errors.Is(err, ErrSourceMissing)
}

func buildDetail(operation, message string) string {
	parts := make([]string, 0, 2)
	if operation = strings.TrimSpace(operation); operation != "" {
		parts = append(parts, operation)
	}
	if message = strings.TrimSpace(message); message != "" {
		parts = append(parts, message)
	}
	if len(parts) == 0 {
		return "engine failure"
	}
	return strings.Join(parts, ": ")
}
