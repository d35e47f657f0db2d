// Package engine coordinates organize runs across their four triggers:
// manual, watch flush, scheduled, and undo.
//
// A single run-lock serializes them. Every trigger queues behind it, so a
// manual run or undo arriving during a watch flush waits for the flush batch
// to complete. Starting an already-running watcher or scheduler returns
// ErrBusy. Ledger appends and the reverted flag are only ever touched under
// the lock.
package engine
