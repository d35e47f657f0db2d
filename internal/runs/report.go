package runs

import (
	"time"

	"github.com/google/uuid"
)

// NewID generates a run identifier.
func NewID() string {
	return uuid.NewString()
}

// Outcome records one move (or intended move, under dry-run) that succeeded.
type Outcome struct {
	Source      string `json:"source"`
	Destination string `json:"destination"`
	Rule        string `json:"rule"`
}

// Failure records one planned move that could not be executed. The batch
// continues past it.
type Failure struct {
	Source string `json:"source"`
	Reason string `json:"reason"`
}

// ExecutionReport aggregates the outcome of one run.
type ExecutionReport struct {
	RunID     string        `json:"run_id"`
	Trigger   Trigger       `json:"trigger"`
	DryRun    bool          `json:"dry_run"`
	StartedAt time.Time     `json:"started_at"`
	Duration  time.Duration `json:"duration"`
	Succeeded []Outcome     `json:"succeeded"`
	Failed    []Failure     `json:"failed"`
}

// SucceededCount returns the number of executed (or, under dry-run, intended) moves.
func (r ExecutionReport) SucceededCount() int { return len(r.Succeeded) }

// FailedCount returns the number of per-file failures.
func (r ExecutionReport) FailedCount() int { return len(r.Failed) }

// Empty reports whether the run planned no moves at all.
func (r ExecutionReport) Empty() bool {
	return len(r.Succeeded) == 0 && len(r.Failed) == 0
}
