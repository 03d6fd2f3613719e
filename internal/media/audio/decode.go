package audio

import (
	"context"
	"encoding/binary"
	"errors"
	"fmt"
	"io"
	"strconv"
	"strings"

	"clipfeed/internal/media/ffmpeg"
	"clipfeed/internal/tensor"
)

// Decoder extracts mono waveforms from clips.
type Decoder struct {
	binary string
	rate   int
	exec   ffmpeg.Executor
}

// Option configures the decoder.
type Option func(*Decoder)

// WithExecutor injects a custom executor (primarily for tests).
func WithExecutor(exec ffmpeg.Executor) Option {
	return func(d *Decoder) {
		if exec != nil {
			d.exec = exec
		}
	}
}

// NewDecoder constructs a decoder producing mono samples at rate Hz.
func NewDecoder(binary string, rate int, opts ...Option) (*Decoder, error) {
	binary = strings.TrimSpace(binary)
	if binary == "" {
		binary = "ffmpeg"
	}
	if rate <= 0 {
		return nil, fmt.Errorf("audio: sample rate %d must be positive", rate)
	}
	decoder := &Decoder{binary: binary, rate: rate, exec: ffmpeg.CommandExecutor{}}
	for _, opt := range opts {
		opt(decoder)
	}
	return decoder, nil
}

// Decode returns the clip's entire first audio track as a 1-D tensor with
// values in [-1, 1). A clip without a decodable audio stream is an error.
func (d *Decoder) Decode(ctx context.Context, path string) (tensor.Tensor, error) {
	if strings.TrimSpace(path) == "" {
		return tensor.Tensor{}, errors.New("audio decode: empty path")
	}

	args := []string{
		"-hide_banner", "-nostdin", "-loglevel", "error",
		"-i", path,
		"-vn", "-sn",
		"-map", "0:a:0",
		"-acodec", "pcm_s16le",
		"-f", "s16le",
		"-ac", "1",
		"-ar", strconv.Itoa(d.rate),
		"pipe:1",
	}

	var pcm []byte
	tail := ffmpeg.NewTail(4)
	err := d.exec.Run(ctx, d.binary, args,
		func(r io.Reader) error {
			data, readErr := io.ReadAll(r)
			pcm = data
			return readErr
		},
		ffmpeg.ScanLines(tail.Add),
	)
	if err != nil {
		if detail := tail.String(); detail != "" {
			return tensor.Tensor{}, fmt.Errorf("audio decode %s: %w: %s", path, err, detail)
		}
		return tensor.Tensor{}, fmt.Errorf("audio decode %s: %w", path, err)
	}
	if len(pcm) < 2 {
		return tensor.Tensor{}, fmt.Errorf("audio decode %s: no samples produced", path)
	}

	samples := make([]float32, len(pcm)/2)
	for i := range samples {
		raw := int16(binary.LittleEndian.Uint16(pcm[2*i:]))
		samples[i] = float32(raw) / 32768
	}
	return tensor.FromSlice(samples, len(samples))
}

// Silence returns an all-zero waveform of the given length, the stand-in
// used when a clip's audio cannot be decoded.
func Silence(samples int) tensor.Tensor {
	return tensor.New(samples)
}
