// Package classify maps file metadata to destination subfolder names.
//
// Rules are compiled once per run from the configuration into a tagged
// variant set (extension rules or a date rule) with a single exhaustive
// classification function, so there is no silent fallthrough between modes.
// Classification is pure: it only reads the FileEntry snapshot the caller
// already captured.
package classify
