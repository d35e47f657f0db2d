// Package daemon coordinates the long-running tidy process.
//
// It wires configuration, the ledger, and the engine into a single lifecycle
// with flock-based locking to prevent multiple instances, and exposes the
// operations the IPC server forwards: runs, undo, watch control, history,
// stats, and notification tests.
//
// Keep orchestration logic here: run semantics live in the engine while the
// daemon focuses on startup, shutdown, and instance exclusivity.
package daemon
