// Package ffprobe provides a typed wrapper around ffprobe JSON output.
//
// This package has no clipfeed-specific dependencies and could be extracted
// as a standalone library.
//
// Key types:
//   - Result: parsed ffprobe output containing streams and format metadata
//   - Stream: individual audio/video stream properties
//   - Rational: exact num/den values for frame rates and time bases
//
// Primary entry point:
//   - Inspect: executes ffprobe and returns a parsed Result
//
// Helper methods on Result and Stream provide stream selection, frame-rate
// and time-base parsing, and container duration/size extraction.
package ffprobe
