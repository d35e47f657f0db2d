// Package config loads, normalizes, and validates tidy configuration data.
//
// It supplies repository defaults, expands user paths (including tilde
// shortcuts), reads TOML files, and lowercases rule extensions so the
// classifier can match case-insensitively. The Config type centralizes every
// knob the daemon and CLI need: the source root, the rule set, watch timings,
// and ledger/log locations.
//
// Always obtain settings through this package so downstream code receives
// sanitized paths, a non-empty rule set, and clear validation errors.
package config
