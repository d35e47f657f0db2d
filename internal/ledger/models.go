package ledger

import "time"

// Run groups the move records written under one run identifier. Records of a
// run are either all un-reverted or all reverted; there is no partially
// reverted final state.
type Run struct {
	ID        string
	Trigger   string
	StartedAt time.Time
	Reverted  bool
	Records   int
}

// MoveRecord is the immutable unit of undo: one successful move.
type MoveRecord struct {
	ID          int64
	RunID       string
	Source      string
	Destination string
	MovedAt     time.Time
}

// MonthCount is one month's worth of recorded moves, for trend reporting.
type MonthCount struct {
	Month string
	Moves int
}
