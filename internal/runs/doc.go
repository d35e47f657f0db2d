// Package runs defines the identity and accounting of one organize run: the
// uuid-based run identifier, context annotation so log lines can carry run
// metadata, the error taxonomy separating fatal pre-run failures from
// per-file ones, and the ExecutionReport every engine operation returns.
package runs
