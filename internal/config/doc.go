// Package config loads, normalizes, and validates mogtools configuration data.
//
// It supplies repository defaults, expands user paths (including tilde
// shortcuts), reads TOML files, and honours environment fallbacks such as
// MOG_DB_DSN and MOG_TRACKERS. The Config type centralizes every knob the
// stats reporter and the upload client need, so both binaries resolve the
// metadata database and tracker list in one pass.
//
// Always obtain settings through this package so downstream code receives
// trimmed values, canonical log formats, and clear validation errors.
package config
