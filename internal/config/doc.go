// Package config loads, normalizes, and validates formcoach configuration.
//
// It supplies repository defaults, expands user paths (including tilde
// shortcuts), reads TOML files, and honours environment fallbacks such as
// FORMCOACH_NTFY_TOPIC. Engine thresholds, backend selection, frame sources,
// the trial gate, and logging are all configured in one pass.
//
// Always obtain settings through this package so downstream code receives
// sanitized paths, canonical names, and clear validation errors.
package config
