// Package logging assembles the structured slog loggers used across clipfeed.
//
// It owns the console and JSON handlers, centralizes level and output
// plumbing, and exposes Attr helpers plus component loggers so every part of
// the pipeline tags its lines the same way. A no-op logger is provided for
// tests and wiring code that cannot fail.
//
// Prefer these constructors over hand-rolled slog setup so decode warnings,
// corpus scan output, and pipeline progress all land in the same place with
// the same shape.
package logging
