package batch

import (
	"errors"
	"fmt"

	"clipfeed/internal/sample"
	"clipfeed/internal/tensor"
)

// Batch is one training step's worth of samples. All fields are
// index-aligned: row i of Frames and Audio describes the clip at
// SourceIDs[i], SegmentIDs[i], Paths[i].
type Batch struct {
	// Frames is [N, 3, size, size].
	Frames tensor.Tensor
	// Audio is [N, Lmax] where Lmax is this batch's longest waveform.
	Audio tensor.Tensor

	SourceIDs  []int64
	SegmentIDs []int64
	Paths      []string
}

// Len returns the number of samples in the batch.
func (b Batch) Len() int {
	return len(b.SourceIDs)
}

// SentinelCount returns how many rows are sentinel samples.
func (b Batch) SentinelCount() int {
	count := 0
	for _, id := range b.SourceIDs {
		if id == sample.SentinelID {
			count++
		}
	}
	return count
}

// Collate stacks an ordered list of samples into one Batch. Every frame must
// share the first sample's shape and every waveform must be 1-D; a mismatch
// means an upstream contract was breached and the error is meant to abort
// the epoch, not be retried. Waveforms are right-padded with zeros to the
// longest length present in this batch.
func Collate(samples []sample.Sample) (Batch, error) {
	if len(samples) == 0 {
		return Batch{}, errors.New("collate: empty batch")
	}

	first := samples[0].Frame
	maxAudio := 0
	for i, smp := range samples {
		if !smp.Frame.SameShape(first) {
			return Batch{}, fmt.Errorf("collate: frame shape %v at row %d (%s) does not match %v",
				smp.Frame.Shape(), i, smp.Path, first.Shape())
		}
		if smp.Audio.Rank() != 1 {
			return Batch{}, fmt.Errorf("collate: audio at row %d (%s) has rank %d, want a 1-D waveform",
				i, smp.Path, smp.Audio.Rank())
		}
		if l := smp.Audio.Len(); l > maxAudio {
			maxAudio = l
		}
	}

	n := len(samples)
	frameLen := first.Len()
	frames := tensor.New(append([]int{n}, first.Shape()...)...)
	frameData := frames.Data()

	audio := tensor.New(n, maxAudio)
	audioData := audio.Data()

	out := Batch{
		Frames:     frames,
		Audio:      audio,
		SourceIDs:  make([]int64, n),
		SegmentIDs: make([]int64, n),
		Paths:      make([]string, n),
	}
	for i, smp := range samples {
		copy(frameData[i*frameLen:(i+1)*frameLen], smp.Frame.Data())
		copy(audioData[i*maxAudio:], smp.Audio.Data())
		out.SourceIDs[i] = smp.SourceID
		out.SegmentIDs[i] = smp.SegmentID
		out.Paths[i] = smp.Path
	}
	return out, nil
}
