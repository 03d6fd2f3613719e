package sample_test

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"clipfeed/internal/corpus"
	"clipfeed/internal/sample"
	"clipfeed/internal/tensor"
)

type stubAudio struct {
	waveform tensor.Tensor
	err      error
	calls    int
}

func (s *stubAudio) Decode(ctx context.Context, path string) (tensor.Tensor, error) {
	s.calls++
	return s.waveform, s.err
}

type stubFrames struct {
	frame tensor.Tensor
	err   error
	calls int
}

func (s *stubFrames) Sample(ctx context.Context, path string) (tensor.Tensor, error) {
	s.calls++
	return s.frame, s.err
}

// blockingFrames waits for the context so timeout wiring can be observed.
type blockingFrames struct{}

func (blockingFrames) Sample(ctx context.Context, path string) (tensor.Tensor, error) {
	<-ctx.Done()
	return tensor.Tensor{}, ctx.Err()
}

func allZero(t *testing.T, label string, value tensor.Tensor) {
	t.Helper()
	for i, v := range value.Data() {
		if v != 0 {
			t.Fatalf("%s has non-zero value %v at %d", label, v, i)
		}
	}
}

func testClip() corpus.ClipFile {
	return corpus.ClipFile{SourceID: 3, SegmentID: 1, Path: "/clips/3_1.mp4"}
}

func TestLoadCombinesDecoders(t *testing.T) {
	frame := tensor.New(3, 4, 4)
	frame.Data()[0] = 0.5
	waveform, err := tensor.FromSlice([]float32{0.1, -0.2, 0.3}, 3)
	if err != nil {
		t.Fatalf("FromSlice: %v", err)
	}
	audioStub := &stubAudio{waveform: waveform}
	frameStub := &stubFrames{frame: frame}

	loader, err := sample.NewLoader(audioStub, frameStub, 4, 16331)
	if err != nil {
		t.Fatalf("NewLoader: %v", err)
	}

	got := loader.Load(context.Background(), testClip())
	if !got.Valid {
		t.Fatalf("sample invalid: %+v", got)
	}
	if got.SourceID != 3 || got.SegmentID != 1 {
		t.Fatalf("ids = (%d, %d), want (3, 1)", got.SourceID, got.SegmentID)
	}
	if got.Path != "/clips/3_1.mp4" {
		t.Fatalf("path = %q", got.Path)
	}
	if got.Reason != "" {
		t.Fatalf("reason = %q, want empty", got.Reason)
	}
	if got.Frame.At(0, 0, 0) != 0.5 {
		t.Fatalf("frame passthrough lost: %v", got.Frame.At(0, 0, 0))
	}
	if got.Audio.Len() != 3 || got.Audio.At(1) != -0.2 {
		t.Fatalf("audio passthrough lost: len %d", got.Audio.Len())
	}
	if audioStub.calls != 1 || frameStub.calls != 1 {
		t.Fatalf("decoder calls = (%d, %d), want (1, 1)", audioStub.calls, frameStub.calls)
	}
}

func TestLoadFrameFailureYieldsSentinel(t *testing.T) {
	audioStub := &stubAudio{waveform: tensor.New(10)}
	frameStub := &stubFrames{err: errors.New("no frame decoded near pts 1280")}

	loader, err := sample.NewLoader(audioStub, frameStub, 224, 16331)
	if err != nil {
		t.Fatalf("NewLoader: %v", err)
	}

	got := loader.Load(context.Background(), testClip())
	if got.Valid {
		t.Fatal("sample should be a sentinel")
	}
	if got.SourceID != sample.SentinelID || got.SegmentID != sample.SentinelID {
		t.Fatalf("ids = (%d, %d), want sentinel ids", got.SourceID, got.SegmentID)
	}
	if got.Path != "/clips/3_1.mp4" {
		t.Fatalf("sentinel lost the path: %q", got.Path)
	}
	if !strings.Contains(got.Reason, "no frame decoded") {
		t.Fatalf("reason = %q", got.Reason)
	}
	shape := got.Frame.Shape()
	if len(shape) != 3 || shape[0] != 3 || shape[1] != 224 || shape[2] != 224 {
		t.Fatalf("sentinel frame shape = %v, want [3 224 224]", shape)
	}
	if got.Audio.Len() != 16331 {
		t.Fatalf("sentinel audio length = %d, want 16331", got.Audio.Len())
	}
	allZero(t, "sentinel frame", got.Frame)
	allZero(t, "sentinel audio", got.Audio)
	if audioStub.calls != 0 {
		t.Fatalf("audio decoded %d times for a failed frame, want 0", audioStub.calls)
	}
}

func TestLoadAudioFailureFallsBackToSilence(t *testing.T) {
	frame := tensor.New(3, 224, 224)
	frame.Data()[7] = 1.25
	audioStub := &stubAudio{err: errors.New("audio decode /clips/3_1.mp4: missing stream")}
	frameStub := &stubFrames{frame: frame}

	loader, err := sample.NewLoader(audioStub, frameStub, 224, 16331)
	if err != nil {
		t.Fatalf("NewLoader: %v", err)
	}

	got := loader.Load(context.Background(), testClip())
	if !got.Valid {
		t.Fatal("audio fallback should keep the sample valid")
	}
	if got.SourceID != 3 || got.SegmentID != 1 {
		t.Fatalf("ids = (%d, %d), want real ids", got.SourceID, got.SegmentID)
	}
	if got.Audio.Len() != 16331 {
		t.Fatalf("silence length = %d, want 16331", got.Audio.Len())
	}
	allZero(t, "silence", got.Audio)
	if !strings.Contains(got.Reason, "missing stream") {
		t.Fatalf("reason = %q", got.Reason)
	}
	if got.Frame.Data()[7] != 1.25 {
		t.Fatal("frame should survive an audio fallback")
	}
}

func TestLoadHonorsTimeout(t *testing.T) {
	audioStub := &stubAudio{waveform: tensor.New(10)}
	loader, err := sample.NewLoader(audioStub, blockingFrames{}, 224, 16331,
		sample.WithTimeout(30*time.Millisecond))
	if err != nil {
		t.Fatalf("NewLoader: %v", err)
	}

	start := time.Now()
	got := loader.Load(context.Background(), testClip())
	if elapsed := time.Since(start); elapsed > 5*time.Second {
		t.Fatalf("Load blocked for %v", elapsed)
	}
	if got.Valid {
		t.Fatal("timed-out decode should yield a sentinel")
	}
	if !strings.Contains(got.Reason, "deadline") {
		t.Fatalf("reason = %q, want deadline exceeded", got.Reason)
	}
}

func TestNewLoaderValidation(t *testing.T) {
	audioStub := &stubAudio{}
	frameStub := &stubFrames{}
	if _, err := sample.NewLoader(nil, frameStub, 224, 16331); err == nil {
		t.Fatal("expected error for nil audio decoder")
	}
	if _, err := sample.NewLoader(audioStub, nil, 224, 16331); err == nil {
		t.Fatal("expected error for nil frame sampler")
	}
	if _, err := sample.NewLoader(audioStub, frameStub, 0, 16331); err == nil {
		t.Fatal("expected error for zero frame size")
	}
	if _, err := sample.NewLoader(audioStub, frameStub, 224, 0); err == nil {
		t.Fatal("expected error for zero audio length")
	}
}
