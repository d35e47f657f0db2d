// Package logs provides bounded-memory log file tailing for the CLI.
//
// Tail reads the last N lines of the daemon log without loading the whole
// file, and Follow polls for appended lines so `tidy logs --follow` keeps
// streaming until the caller's context is cancelled. Rotated or truncated
// files restart from the beginning instead of erroring.
package logs
