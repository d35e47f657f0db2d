// Package stats builds dashboard snapshots of the organized tree.
//
// Everything comes from directory listings and the ledger; file content is
// never opened.
package stats
