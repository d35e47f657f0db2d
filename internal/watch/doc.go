// Package watch turns filesystem events into settled batches of paths.
//
// Events under the source root stamp a debounce map; a ticker flush collects
// the paths quiet for the configured period and hands them downstream in one
// batch. A file written continuously never settles and is never flushed. The
// quiet period is a heuristic: a writer that pauses longer than it can still
// see its file moved mid-write.
package watch
