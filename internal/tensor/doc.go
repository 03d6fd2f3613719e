// Package tensor provides minimal dense float32 tensors for decoded media.
//
// Values live in one contiguous slice in row-major order with the shape
// carried alongside. That keeps decoded frames and waveforms cheap to stack
// and pad during batch assembly without pulling in a tensor framework; the
// training side consumes the raw buffer plus shape directly.
package tensor
