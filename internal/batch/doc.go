// Package batch assembles decoded samples into training batches: frames
// stacked into one fixed-shape tensor, waveforms zero-padded to the batch's
// own maximum length, metadata carried index-aligned.
package batch
