package sample

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"clipfeed/internal/corpus"
	"clipfeed/internal/logging"
	"clipfeed/internal/media/audio"
	"clipfeed/internal/tensor"
)

// AudioDecoder yields a clip's full waveform.
type AudioDecoder interface {
	Decode(ctx context.Context, path string) (tensor.Tensor, error)
}

// FrameSampler yields one normalized frame per call.
type FrameSampler interface {
	Sample(ctx context.Context, path string) (tensor.Tensor, error)
}

// Loader turns clip files into Samples. Safe for concurrent use: each Load
// call spawns its own decoder processes and shares no decode state.
type Loader struct {
	audio        AudioDecoder
	frames       FrameSampler
	frameSize    int
	audioSamples int
	timeout      time.Duration
	log          *slog.Logger
}

// LoaderOption configures a Loader.
type LoaderOption func(*Loader)

// WithTimeout bounds each clip's combined decode work. Zero means no
// per-clip deadline.
func WithTimeout(d time.Duration) LoaderOption {
	return func(l *Loader) {
		l.timeout = d
	}
}

// WithLogger routes the per-failure diagnostics.
func WithLogger(log *slog.Logger) LoaderOption {
	return func(l *Loader) {
		if log != nil {
			l.log = log
		}
	}
}

// NewLoader builds a loader emitting frameSize square frames and falling
// back to audioSamples of silence when a clip's audio cannot be decoded.
func NewLoader(audioDecoder AudioDecoder, frameSampler FrameSampler, frameSize, audioSamples int, opts ...LoaderOption) (*Loader, error) {
	if audioDecoder == nil {
		return nil, errors.New("loader: nil audio decoder")
	}
	if frameSampler == nil {
		return nil, errors.New("loader: nil frame sampler")
	}
	if frameSize <= 0 {
		return nil, errors.New("loader: frame size must be positive")
	}
	if audioSamples <= 0 {
		return nil, errors.New("loader: nominal audio length must be positive")
	}
	loader := &Loader{
		audio:        audioDecoder,
		frames:       frameSampler,
		frameSize:    frameSize,
		audioSamples: audioSamples,
		log:          logging.NewNop(),
	}
	for _, opt := range opts {
		opt(loader)
	}
	return loader, nil
}

// Load produces exactly one Sample for the clip and never fails. A frame
// decode error degrades the whole sample to a sentinel; an audio decode
// error substitutes nominal-length silence while the sample stays valid.
// Both paths log the failing path for offline corpus auditing.
func (l *Loader) Load(ctx context.Context, clip corpus.ClipFile) Sample {
	if l.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, l.timeout)
		defer cancel()
	}

	frame, err := l.frames.Sample(ctx, clip.Path)
	if err != nil {
		l.log.Warn("frame decode failed, emitting sentinel",
			logging.String("path", clip.Path),
			logging.Error(err))
		return Sentinel(l.frameSize, l.audioSamples, clip.Path, err.Error())
	}

	out := Sample{
		Frame:     frame,
		SourceID:  clip.SourceID,
		SegmentID: clip.SegmentID,
		Path:      clip.Path,
		Valid:     true,
	}
	waveform, err := l.audio.Decode(ctx, clip.Path)
	if err != nil {
		l.log.Warn("audio decode failed, substituting silence",
			logging.String("path", clip.Path),
			logging.Error(err))
		out.Audio = audio.Silence(l.audioSamples)
		out.Reason = err.Error()
		return out
	}
	out.Audio = waveform
	return out
}
