package frame

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"math"
	"math/rand/v2"
	"strconv"
	"strings"

	"clipfeed/internal/media/ffmpeg"
	"clipfeed/internal/media/ffprobe"
	"clipfeed/internal/tensor"
)

// overshootSeconds bounds the forward scan: once a frame's pts passes the
// target by more than this, no later frame can be closer.
const overshootSeconds = 0.1

// scanMargin pads the decoded-frame budget past the clip's nominal frame
// count, for containers whose seek lands earlier than expected.
const scanMargin = 8

// ProbeFunc inspects a container. The default wraps ffprobe.Inspect.
type ProbeFunc func(ctx context.Context, binary, path string) (ffprobe.Result, error)

// Sampler decodes one frame per call from clip files.
type Sampler struct {
	ffmpegBinary  string
	ffprobeBinary string
	candidates    int
	size          int
	exec          ffmpeg.Executor
	probe         ProbeFunc
	choose        func(n int) int
}

// Option configures the sampler.
type Option func(*Sampler)

// WithExecutor injects a custom executor (primarily for tests).
func WithExecutor(exec ffmpeg.Executor) Option {
	return func(s *Sampler) {
		if exec != nil {
			s.exec = exec
		}
	}
}

// WithProbe injects a custom prober (primarily for tests).
func WithProbe(probe ProbeFunc) Option {
	return func(s *Sampler) {
		if probe != nil {
			s.probe = probe
		}
	}
}

// WithChooser replaces the uniform candidate draw. The function receives the
// candidate count and returns an index in [0, n).
func WithChooser(choose func(n int) int) Option {
	return func(s *Sampler) {
		if choose != nil {
			s.choose = choose
		}
	}
}

// NewSampler constructs a sampler that spreads candidates evenly across each
// clip and emits size x size tensors.
func NewSampler(ffmpegBinary, ffprobeBinary string, candidates, size int, opts ...Option) (*Sampler, error) {
	if candidates <= 0 {
		return nil, fmt.Errorf("frame: candidate count %d must be positive", candidates)
	}
	if size <= 0 {
		return nil, fmt.Errorf("frame: output size %d must be positive", size)
	}
	sampler := &Sampler{
		ffmpegBinary:  defaultBinary(ffmpegBinary, "ffmpeg"),
		ffprobeBinary: defaultBinary(ffprobeBinary, "ffprobe"),
		candidates:    candidates,
		size:          size,
		exec:          ffmpeg.CommandExecutor{},
		probe:         ffprobe.Inspect,
		choose:        rand.IntN,
	}
	for _, opt := range opts {
		opt(sampler)
	}
	return sampler, nil
}

func defaultBinary(value, fallback string) string {
	if trimmed := strings.TrimSpace(value); trimmed != "" {
		return trimmed
	}
	return fallback
}

// Sample decodes one randomly chosen frame from the clip as a normalized
// [3, size, size] tensor.
func (s *Sampler) Sample(ctx context.Context, path string) (tensor.Tensor, error) {
	if strings.TrimSpace(path) == "" {
		return tensor.Tensor{}, errors.New("frame sample: empty path")
	}

	meta, err := s.probe(ctx, s.ffprobeBinary, path)
	if err != nil {
		return tensor.Tensor{}, fmt.Errorf("frame sample %s: %w", path, err)
	}
	video, ok := meta.FirstVideo()
	if !ok {
		return tensor.Tensor{}, fmt.Errorf("frame sample %s: no video stream", path)
	}
	rate := video.FrameRate()
	if rate <= 0 {
		return tensor.Tensor{}, fmt.Errorf("frame sample %s: no usable frame rate", path)
	}
	timeBase := video.TimeBase()
	if !timeBase.Valid() {
		return tensor.Tensor{}, fmt.Errorf("frame sample %s: no usable time base", path)
	}
	if video.Width <= 0 || video.Height <= 0 {
		return tensor.Tensor{}, fmt.Errorf("frame sample %s: no frame geometry", path)
	}

	clipFrames := int(math.Round(rate))
	if clipFrames < 1 {
		clipFrames = 1
	}
	candidates := candidateIndices(clipFrames, s.candidates)
	chosen := candidates[s.choose(len(candidates))]
	targetSeconds := float64(chosen) / rate
	targetPTS := timeBase.UnitsIn(targetSeconds)
	overshootPTS := timeBase.UnitsIn(overshootSeconds)

	raw, err := s.scan(ctx, path, video.Width, video.Height, clipFrames, targetSeconds, targetPTS, overshootPTS)
	if err != nil {
		return tensor.Tensor{}, err
	}
	return convert(raw, video.Width, video.Height, s.size), nil
}

// candidateIndices spreads count indices evenly across [0, frames-1],
// truncating fractional positions.
func candidateIndices(frames, count int) []int {
	out := make([]int, count)
	if count <= 1 || frames <= 1 {
		return out
	}
	step := float64(frames-1) / float64(count-1)
	for i := range out {
		out[i] = int(step * float64(i))
	}
	return out
}

// scan decodes forward from a backward seek and keeps the frame closest to
// targetPTS. Frames stream on stdout as packed RGB24 while showinfo reports
// each frame's pts on stderr; the two are paired by arrival order.
func (s *Sampler) scan(ctx context.Context, path string, width, height, clipFrames int, targetSeconds float64, targetPTS, overshootPTS int64) ([]byte, error) {
	frameBytes := width * height * 3
	scanLimit := clipFrames + scanMargin

	args := []string{
		"-hide_banner", "-nostdin", "-nostats", "-loglevel", "info",
		"-noaccurate_seek",
		"-ss", strconv.FormatFloat(targetSeconds, 'f', 6, 64),
		"-copyts",
		"-i", path,
		"-map", "0:v:0",
		"-an", "-sn",
		"-frames:v", strconv.Itoa(scanLimit),
		"-vf", "showinfo",
		"-f", "rawvideo",
		"-pix_fmt", "rgb24",
		"pipe:1",
	}

	// Buffered past the frame budget so the stderr side never blocks.
	ptsCh := make(chan int64, scanLimit+scanMargin)
	tail := ffmpeg.NewTail(4)

	var best []byte
	bestDist := int64(math.MaxInt64)

	stdoutHandler := func(r io.Reader) error {
		current := make([]byte, frameBytes)
		for {
			if _, err := io.ReadFull(r, current); err != nil {
				if errors.Is(err, io.EOF) || errors.Is(err, io.ErrUnexpectedEOF) {
					return nil
				}
				return err
			}
			pts, ok := <-ptsCh
			if !ok {
				return nil
			}
			if pts < 0 {
				continue
			}
			if dist := absInt64(pts - targetPTS); dist < bestDist {
				bestDist = dist
				if best == nil {
					best = make([]byte, frameBytes)
				}
				copy(best, current)
			}
			if pts > targetPTS+overshootPTS {
				return ffmpeg.ErrStop
			}
		}
	}

	stderrHandler := func(r io.Reader) error {
		defer close(ptsCh)
		scanner := bufio.NewScanner(r)
		scanner.Buffer(make([]byte, 0, 64*1024), 1024*1024)
		for scanner.Scan() {
			line := scanner.Text()
			pts, isFrame := parseShowinfoPTS(line)
			if !isFrame {
				tail.Add(line)
				continue
			}
			ptsCh <- pts
		}
		return scanner.Err()
	}

	if err := s.exec.Run(ctx, s.ffmpegBinary, args, stdoutHandler, stderrHandler); err != nil {
		if detail := tail.String(); detail != "" {
			return nil, fmt.Errorf("frame sample %s: %w: %s", path, err, detail)
		}
		return nil, fmt.Errorf("frame sample %s: %w", path, err)
	}
	if best == nil {
		return nil, fmt.Errorf("frame sample %s: no frame decoded near pts %d", path, targetPTS)
	}
	return best, nil
}

// parseShowinfoPTS extracts the pts integer from a showinfo frame line.
// isFrame is true for any per-frame showinfo line, with pts -1 when the
// container reports no usable timestamp for it; pairing with the stdout
// frame stream must stay one to one.
func parseShowinfoPTS(line string) (pts int64, isFrame bool) {
	if !strings.Contains(line, "Parsed_showinfo") || !strings.Contains(line, " n:") {
		return 0, false
	}
	idx := strings.Index(line, " pts:")
	if idx < 0 {
		return 0, false
	}
	rest := strings.TrimSpace(line[idx+len(" pts:"):])
	if end := strings.IndexByte(rest, ' '); end >= 0 {
		rest = rest[:end]
	}
	value, err := strconv.ParseInt(rest, 10, 64)
	if err != nil {
		return -1, true
	}
	return value, true
}

func absInt64(v int64) int64 {
	if v < 0 {
		return -v
	}
	return v
}
