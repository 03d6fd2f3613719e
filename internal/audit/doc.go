// Package audit sweeps the whole corpus through the sample loader and
// records per-clip decode outcomes in SQLite, so bad clips can be found
// offline instead of as warning noise during training. One audit run holds
// a file lock for its duration; results persist across runs for history.
package audit
