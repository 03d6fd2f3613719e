// Package ffmpeg runs ffmpeg child processes and streams their pipes to
// callers.
//
// Every clip decode is its own short-lived process, so a crash inside a
// codec can never take the feeder down. The Executor interface is the seam
// tests use to substitute canned stdout/stderr without spawning anything;
// CommandExecutor is the real implementation. Handlers may end a decode
// early by returning ErrStop, which kills and reaps the child without
// reporting an error.
package ffmpeg
