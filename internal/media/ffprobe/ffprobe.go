package ffprobe

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"math"
	"os/exec"
	"strconv"
	"strings"
)

// Result represents the parsed output from an ffprobe inspection.
type Result struct {
	Streams []Stream `json:"streams"`
	Format  Format   `json:"format"`
	raw     []byte
}

// Stream describes a single stream in the media container.
type Stream struct {
	Index        int    `json:"index"`
	CodecName    string `json:"codec_name"`
	CodecType    string `json:"codec_type"`
	Duration     string `json:"duration"`
	BitRate      string `json:"bit_rate"`
	Width        int    `json:"width"`
	Height       int    `json:"height"`
	SampleRate   string `json:"sample_rate"`
	Channels     int    `json:"channels"`
	AvgFrameRate string `json:"avg_frame_rate"`
	RFrameRate   string `json:"r_frame_rate"`
	TimeBaseRaw  string `json:"time_base"`
	NBFrames     string `json:"nb_frames"`
}

// Format captures container-level metadata extracted by ffprobe.
type Format struct {
	Filename   string `json:"filename"`
	NBStreams  int    `json:"nb_streams"`
	Duration   string `json:"duration"`
	Size       string `json:"size"`
	BitRate    string `json:"bit_rate"`
	FormatName string `json:"format_name"`
}

// Rational is an exact num/den pair as ffprobe reports frame rates and time
// bases ("30000/1001", "1/12800").
type Rational struct {
	Num int64
	Den int64
}

// Valid reports whether the rational describes a positive value.
func (r Rational) Valid() bool {
	return r.Num > 0 && r.Den > 0
}

// Float returns the rational as a float64, or 0 when invalid.
func (r Rational) Float() float64 {
	if !r.Valid() {
		return 0
	}
	return float64(r.Num) / float64(r.Den)
}

// UnitsIn converts a duration in seconds to a count of rational units,
// rounding to nearest. A time base of 1/12800 maps 0.5s to 6400 units.
func (r Rational) UnitsIn(seconds float64) int64 {
	if !r.Valid() {
		return 0
	}
	return int64(math.Round(seconds * float64(r.Den) / float64(r.Num)))
}

// ParseRational parses "num/den" or a bare integer string.
func ParseRational(value string) (Rational, error) {
	cleaned := strings.TrimSpace(value)
	if cleaned == "" {
		return Rational{}, errors.New("ffprobe: empty rational")
	}
	num, den, found := strings.Cut(cleaned, "/")
	n, err := strconv.ParseInt(strings.TrimSpace(num), 10, 64)
	if err != nil {
		return Rational{}, fmt.Errorf("ffprobe: rational %q: %w", value, err)
	}
	if !found {
		return Rational{Num: n, Den: 1}, nil
	}
	d, err := strconv.ParseInt(strings.TrimSpace(den), 10, 64)
	if err != nil {
		return Rational{}, fmt.Errorf("ffprobe: rational %q: %w", value, err)
	}
	return Rational{Num: n, Den: d}, nil
}

// Inspect executes ffprobe against the provided path and decodes the JSON response.
func Inspect(ctx context.Context, binary string, path string) (Result, error) {
	binary = strings.TrimSpace(binary)
	if binary == "" {
		binary = "ffprobe"
	}
	path = strings.TrimSpace(path)
	if path == "" {
		return Result{}, errors.New("ffprobe inspect: empty path")
	}

	cmd := exec.CommandContext(ctx, binary, "-v", "error", "-hide_banner", "-show_format", "-show_streams", "-of", "json", "--", path)
	output, err := cmd.CombinedOutput()
	if err != nil {
		return Result{}, fmt.Errorf("ffprobe inspect: %w: %s", err, strings.TrimSpace(string(output)))
	}

	var result Result
	if err := json.Unmarshal(output, &result); err != nil {
		return Result{}, fmt.Errorf("ffprobe parse: %w", err)
	}
	result.raw = append([]byte(nil), output...)
	return result, nil
}

// RawJSON returns the raw ffprobe JSON payload.
func (r Result) RawJSON() []byte {
	return append([]byte(nil), r.raw...)
}

// FirstVideo returns the first video stream, in probe order.
func (r Result) FirstVideo() (Stream, bool) {
	return r.firstOfType("video")
}

// FirstAudio returns the first audio stream, in probe order.
func (r Result) FirstAudio() (Stream, bool) {
	return r.firstOfType("audio")
}

func (r Result) firstOfType(codecType string) (Stream, bool) {
	for _, stream := range r.Streams {
		if strings.EqualFold(stream.CodecType, codecType) {
			return stream, true
		}
	}
	return Stream{}, false
}

// VideoStreamCount returns the number of video streams discovered.
func (r Result) VideoStreamCount() int {
	count := 0
	for _, stream := range r.Streams {
		if strings.EqualFold(stream.CodecType, "video") {
			count++
		}
	}
	return count
}

// AudioStreamCount returns the number of audio streams discovered.
func (r Result) AudioStreamCount() int {
	count := 0
	for _, stream := range r.Streams {
		if strings.EqualFold(stream.CodecType, "audio") {
			count++
		}
	}
	return count
}

// DurationSeconds returns the container duration in seconds, or 0 when unavailable.
func (r Result) DurationSeconds() float64 {
	return parseFloat(r.Format.Duration)
}

// SizeBytes returns the reported container size in bytes, or 0 when unavailable.
func (r Result) SizeBytes() int64 {
	size := parseFloat(r.Format.Size)
	if math.IsNaN(size) || size < 0 {
		return 0
	}
	return int64(size)
}

// FrameRate returns the stream's frame rate in frames per second, preferring
// the average rate over the raw rate. Returns 0 when neither parses to a
// positive value (audio streams report "0/0").
func (s Stream) FrameRate() float64 {
	for _, candidate := range []string{s.AvgFrameRate, s.RFrameRate} {
		if rational, err := ParseRational(candidate); err == nil && rational.Valid() {
			return rational.Float()
		}
	}
	return 0
}

// TimeBase returns the stream's time base. The zero Rational is returned when
// the field is missing or malformed; check Valid before use.
func (s Stream) TimeBase() Rational {
	rational, err := ParseRational(s.TimeBaseRaw)
	if err != nil {
		return Rational{}
	}
	return rational
}

// FrameCount returns nb_frames when the container reports it, or 0.
func (s Stream) FrameCount() int64 {
	count, err := strconv.ParseInt(strings.TrimSpace(s.NBFrames), 10, 64)
	if err != nil || count < 0 {
		return 0
	}
	return count
}

// SampleRateHz returns the audio sample rate in Hz, or 0 when unavailable.
func (s Stream) SampleRateHz() int {
	rate, err := strconv.Atoi(strings.TrimSpace(s.SampleRate))
	if err != nil || rate < 0 {
		return 0
	}
	return rate
}

func parseFloat(value string) float64 {
	cleaned := strings.TrimSpace(value)
	if cleaned == "" {
		return 0
	}
	if parsed, err := strconv.ParseFloat(cleaned, 64); err == nil {
		return parsed
	}
	return math.NaN()
}
