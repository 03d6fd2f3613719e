package sample

import (
	"clipfeed/internal/tensor"
)

// SentinelID marks a sample that does not belong to any real source bucket.
const SentinelID int64 = -1

// Sample is the decode-time output for one clip file.
type Sample struct {
	// Frame is the normalized [3, size, size] video tensor.
	Frame tensor.Tensor
	// Audio is the mono waveform in [-1, 1], variable length.
	Audio tensor.Tensor

	SourceID  int64
	SegmentID int64
	Path      string

	// Valid is false for sentinel records. Sentinels carry zero tensors of
	// the nominal shapes and must never be counted toward a source bucket.
	Valid bool
	// Reason holds the decode diagnostic when the sample is a sentinel or
	// its audio fell back to silence.
	Reason string
}

// Sentinel builds the zero-valued stand-in for a clip that could not be
// decoded. The path is retained for auditing.
func Sentinel(frameSize, audioSamples int, path, reason string) Sample {
	return Sample{
		Frame:     tensor.New(3, frameSize, frameSize),
		Audio:     tensor.New(audioSamples),
		SourceID:  SentinelID,
		SegmentID: SentinelID,
		Path:      path,
		Valid:     false,
		Reason:    reason,
	}
}
