// Package config loads, normalizes, and validates clipfeed configuration data.
//
// It supplies repository defaults, expands user paths (including tilde
// shortcuts), reads TOML files, and honours environment fallbacks such as
// CLIPFEED_CORPUS_DIR. The Config type centralizes every knob the CLI and
// pipeline need: corpus location, decode parameters, batch geometry, and log
// routing.
//
// Always obtain settings through this package so downstream code receives
// sanitized paths, canonical log formats, and clear validation errors.
package config
