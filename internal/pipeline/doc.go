// Package pipeline runs the decode workers and prefetch queue for one epoch
// at a time.
//
// Each epoch gets a fresh plan from the constrained sampler and a fresh pool:
// a dispatcher hands per-clip jobs to workers, workers decode through the
// sample loader, and a collator assembles finished batches in plan order
// before delivering them over a bounded channel. Backpressure is structural:
// the dispatcher cannot move more than the configured prefetch depth ahead of
// the consumer, which caps peak decoded memory. A collate failure is an
// upstream contract breach and aborts the epoch; per-clip decode failures
// never reach this package, because the loader absorbs them into sentinel
// samples.
package pipeline
