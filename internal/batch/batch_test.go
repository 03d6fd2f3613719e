package batch_test

import (
	"strings"
	"testing"

	"clipfeed/internal/batch"
	"clipfeed/internal/sample"
	"clipfeed/internal/tensor"
)

func frameFilled(value float32) tensor.Tensor {
	t := tensor.New(3, 2, 2)
	data := t.Data()
	for i := range data {
		data[i] = value
	}
	return t
}

func waveform(t *testing.T, values ...float32) tensor.Tensor {
	t.Helper()
	out, err := tensor.FromSlice(values, len(values))
	if err != nil {
		t.Fatalf("FromSlice: %v", err)
	}
	return out
}

func validSample(t *testing.T, sourceID, segmentID int64, frameValue float32, audio ...float32) sample.Sample {
	t.Helper()
	return sample.Sample{
		Frame:     frameFilled(frameValue),
		Audio:     waveform(t, audio...),
		SourceID:  sourceID,
		SegmentID: segmentID,
		Path:      "/clips/sample.mp4",
		Valid:     true,
	}
}

func TestCollateStacksAndAligns(t *testing.T) {
	samples := []sample.Sample{
		validSample(t, 3, 0, 1.0, 0.1, 0.2, 0.3),
		validSample(t, 5, 1, 2.0, 0.4, 0.5, 0.6, 0.7, 0.8),
		validSample(t, 9, 0, 3.0, 0.9, 1.0, 1.1, 1.2),
	}

	got, err := batch.Collate(samples)
	if err != nil {
		t.Fatalf("Collate: %v", err)
	}

	if got.Len() != 3 {
		t.Fatalf("Len = %d, want 3", got.Len())
	}
	frameShape := got.Frames.Shape()
	if len(frameShape) != 4 || frameShape[0] != 3 || frameShape[1] != 3 || frameShape[2] != 2 || frameShape[3] != 2 {
		t.Fatalf("Frames shape = %v, want [3 3 2 2]", frameShape)
	}
	audioShape := got.Audio.Shape()
	if len(audioShape) != 2 || audioShape[0] != 3 || audioShape[1] != 5 {
		t.Fatalf("Audio shape = %v, want [3 5]", audioShape)
	}

	if got.Frames.At(0, 0, 0, 0) != 1.0 || got.Frames.At(1, 2, 1, 1) != 2.0 || got.Frames.At(2, 0, 1, 0) != 3.0 {
		t.Fatal("stacked frame rows lost their values")
	}
	if got.SourceIDs[1] != 5 || got.SegmentIDs[1] != 1 {
		t.Fatalf("row 1 metadata = (%d, %d), want (5, 1)", got.SourceIDs[1], got.SegmentIDs[1])
	}
	if len(got.Paths) != 3 {
		t.Fatalf("Paths length = %d, want 3", len(got.Paths))
	}
}

func TestCollatePadsAudioToBatchMax(t *testing.T) {
	samples := []sample.Sample{
		validSample(t, 1, 0, 0, 0.5, -0.5),
		validSample(t, 2, 0, 0, 0.1, 0.2, 0.3, 0.4),
	}

	got, err := batch.Collate(samples)
	if err != nil {
		t.Fatalf("Collate: %v", err)
	}
	if width := got.Audio.Dim(1); width != 4 {
		t.Fatalf("padded width = %d, want 4", width)
	}

	if got.Audio.At(0, 0) != 0.5 || got.Audio.At(0, 1) != -0.5 {
		t.Fatal("row 0 lost its original samples")
	}
	for i := 2; i < 4; i++ {
		if v := got.Audio.At(0, i); v != 0 {
			t.Fatalf("row 0 padding at %d = %v, want 0", i, v)
		}
	}
	if got.Audio.At(1, 3) != 0.4 {
		t.Fatal("full-length row was truncated")
	}
}

func TestCollateCarriesSentinelRows(t *testing.T) {
	samples := []sample.Sample{
		validSample(t, 4, 2, 1.0, 0.1, 0.2),
		sample.Sentinel(2, 7, "/clips/bad.mp4", "decode failed"),
	}

	got, err := batch.Collate(samples)
	if err != nil {
		t.Fatalf("Collate: %v", err)
	}
	if got.SourceIDs[1] != sample.SentinelID || got.SegmentIDs[1] != sample.SentinelID {
		t.Fatalf("sentinel ids = (%d, %d)", got.SourceIDs[1], got.SegmentIDs[1])
	}
	if got.Paths[1] != "/clips/bad.mp4" {
		t.Fatalf("sentinel path = %q", got.Paths[1])
	}
	if got.SentinelCount() != 1 {
		t.Fatalf("SentinelCount = %d, want 1", got.SentinelCount())
	}
	if width := got.Audio.Dim(1); width != 7 {
		t.Fatalf("padded width = %d, want sentinel length 7", width)
	}
	for x := 0; x < 2; x++ {
		for y := 0; y < 2; y++ {
			for c := 0; c < 3; c++ {
				if v := got.Frames.At(1, c, y, x); v != 0 {
					t.Fatalf("sentinel frame row has %v at (%d,%d,%d)", v, c, y, x)
				}
			}
		}
	}
}

func TestCollateRejectsFrameShapeMismatch(t *testing.T) {
	odd := sample.Sample{
		Frame:    tensor.New(3, 2, 3),
		Audio:    waveform(t, 0.1),
		SourceID: 2,
		Path:     "/clips/odd.mp4",
		Valid:    true,
	}
	samples := []sample.Sample{validSample(t, 1, 0, 0, 0.1), odd}

	_, err := batch.Collate(samples)
	if err == nil {
		t.Fatal("expected error for mismatched frame shapes")
	}
	if !strings.Contains(err.Error(), "/clips/odd.mp4") {
		t.Fatalf("error = %v, want offending path named", err)
	}
}

func TestCollateRejectsNonVectorAudio(t *testing.T) {
	bad := sample.Sample{
		Frame:    frameFilled(0),
		Audio:    tensor.New(2, 3),
		SourceID: 1,
		Path:     "/clips/bad.mp4",
		Valid:    true,
	}

	if _, err := batch.Collate([]sample.Sample{bad}); err == nil {
		t.Fatal("expected error for 2-D audio")
	}
}

func TestCollateRejectsEmptyInput(t *testing.T) {
	if _, err := batch.Collate(nil); err == nil {
		t.Fatal("expected error for empty sample list")
	}
}
