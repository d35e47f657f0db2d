// Package organize plans and executes moves inside the source root.
//
// Planning is lazy and read-only: a deterministic walk classifies each file
// and reserves a collision-free destination, yielding moves one at a time.
// Execution consumes the same sequence, re-checks the filesystem per move,
// and appends a ledger record for every move that lands. The two phases share
// a Resolver so dry-run previews show the same suffixed destinations a real
// run would produce.
package organize
