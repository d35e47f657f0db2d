package ipc

import (
	"time"

	"tidy/internal/runs"
	"tidy/internal/stats"
)

// StatusRequest fetches daemon status.
type StatusRequest struct{}

// StatusResponse represents combined daemon/engine status information.
type StatusResponse struct {
	Running          bool   `json:"running"`
	Watching         bool   `json:"watching"`
	SourceRoot       string `json:"source_root"`
	SourceRootExists bool   `json:"source_root_exists"`
	LedgerPath       string `json:"ledger_path"`
	LockPath         string `json:"lock_path"`
	PID              int    `json:"pid"`
}

// RunRequest triggers one organize pass.
type RunRequest struct {
	DryRun bool `json:"dry_run"`
}

// RunResponse carries the execution report of a run or undo.
type RunResponse struct {
	Report runs.ExecutionReport `json:"report"`
}

// UndoRequest reverses the most recent non-reverted run.
type UndoRequest struct{}

// WatchRequest toggles the filesystem watcher.
type WatchRequest struct {
	Enable bool `json:"enable"`
}

// WatchResponse reports the watcher state after the call.
type WatchResponse struct {
	Watching bool `json:"watching"`
}

// HistoryRequest lists recent runs. Limit <= 0 applies a server default.
type HistoryRequest struct {
	Limit int `json:"limit"`
}

// HistoryRun is one ledger run on the wire.
type HistoryRun struct {
	RunID     string    `json:"run_id"`
	Trigger   string    `json:"trigger"`
	StartedAt time.Time `json:"started_at"`
	Reverted  bool      `json:"reverted"`
	Moves     int       `json:"moves"`
}

// HistoryResponse contains recent runs, newest first.
type HistoryResponse struct {
	Runs []HistoryRun `json:"runs"`
}

// StatsRequest fetches the dashboard snapshot.
type StatsRequest struct{}

// StatsResponse carries the metadata-only tree summary.
type StatsResponse struct {
	Summary stats.Summary `json:"summary"`
}

// TestNotificationRequest triggers a notification test.
type TestNotificationRequest struct{}

// TestNotificationResponse reports notification test outcome.
type TestNotificationResponse struct {
	Sent    bool   `json:"sent"`
	Message string `json:"message"`
}
