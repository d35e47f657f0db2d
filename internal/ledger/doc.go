// Package ledger persists the append-only move history that makes organize
// runs reversible.
//
// Records are grouped by run identifier. A run row is created lazily with its
// first record, appends are transactional, and the only mutation ever applied
// after the fact is the reverted flag set by undo. Undo is single-run-deep:
// only the most recent non-reverted run is a candidate.
package ledger
