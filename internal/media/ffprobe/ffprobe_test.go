package ffprobe

import (
	"math"
	"testing"
)

func TestResultHelpers(t *testing.T) {
	result := Result{
		Streams: []Stream{
			{CodecType: "video", Index: 0},
			{CodecType: "audio", Index: 1},
			{CodecType: "audio", Index: 2},
		},
		Format: Format{
			Duration: "1.023",
			Size:     "81920",
		},
	}
	if result.VideoStreamCount() != 1 {
		t.Fatalf("expected 1 video stream, got %d", result.VideoStreamCount())
	}
	if result.AudioStreamCount() != 2 {
		t.Fatalf("expected 2 audio streams, got %d", result.AudioStreamCount())
	}
	if result.DurationSeconds() != 1.023 {
		t.Fatalf("unexpected duration: %v", result.DurationSeconds())
	}
	if result.SizeBytes() != 81920 {
		t.Fatalf("unexpected size: %d", result.SizeBytes())
	}

	video, ok := result.FirstVideo()
	if !ok || video.Index != 0 {
		t.Fatalf("FirstVideo = %+v ok=%v", video, ok)
	}
	audio, ok := result.FirstAudio()
	if !ok || audio.Index != 1 {
		t.Fatalf("FirstAudio = %+v ok=%v", audio, ok)
	}
}

func TestResultHelpersHandleInvalidNumbers(t *testing.T) {
	result := Result{
		Format: Format{
			Duration: "bad",
			Size:     "-1",
		},
	}
	if !math.IsNaN(result.DurationSeconds()) {
		t.Fatalf("expected duration NaN, got %v", result.DurationSeconds())
	}
	if result.SizeBytes() != 0 {
		t.Fatalf("expected size 0, got %d", result.SizeBytes())
	}
	if _, ok := result.FirstVideo(); ok {
		t.Fatal("expected no video stream")
	}
}

func TestStreamFrameRate(t *testing.T) {
	cases := []struct {
		name   string
		stream Stream
		want   float64
	}{
		{"ntsc fraction", Stream{AvgFrameRate: "30000/1001"}, 30000.0 / 1001.0},
		{"integer fraction", Stream{AvgFrameRate: "25/1"}, 25},
		{"falls back to r_frame_rate", Stream{AvgFrameRate: "0/0", RFrameRate: "24/1"}, 24},
		{"audio stream", Stream{AvgFrameRate: "0/0", RFrameRate: "0/0"}, 0},
		{"empty", Stream{}, 0},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			if got := tc.stream.FrameRate(); math.Abs(got-tc.want) > 1e-9 {
				t.Fatalf("FrameRate() = %v, want %v", got, tc.want)
			}
		})
	}
}

func TestStreamTimeBase(t *testing.T) {
	stream := Stream{TimeBaseRaw: "1/12800"}
	tb := stream.TimeBase()
	if !tb.Valid() {
		t.Fatal("expected valid time base")
	}
	if got := tb.UnitsIn(0.5); got != 6400 {
		t.Fatalf("UnitsIn(0.5) = %d, want 6400", got)
	}
	if got := tb.UnitsIn(0.1); got != 1280 {
		t.Fatalf("UnitsIn(0.1) = %d, want 1280", got)
	}

	if bad := (Stream{TimeBaseRaw: "garbage"}).TimeBase(); bad.Valid() {
		t.Fatalf("expected invalid time base, got %+v", bad)
	}
}

func TestParseRational(t *testing.T) {
	if _, err := ParseRational(""); err == nil {
		t.Fatal("expected error for empty rational")
	}
	r, err := ParseRational("24")
	if err != nil || r.Num != 24 || r.Den != 1 {
		t.Fatalf("ParseRational(24) = %+v, %v", r, err)
	}
	if _, err := ParseRational("a/b"); err == nil {
		t.Fatal("expected error for non-numeric rational")
	}
}

func TestStreamFrameCountAndSampleRate(t *testing.T) {
	stream := Stream{NBFrames: "30", SampleRate: "16000"}
	if stream.FrameCount() != 30 {
		t.Fatalf("FrameCount() = %d", stream.FrameCount())
	}
	if stream.SampleRateHz() != 16000 {
		t.Fatalf("SampleRateHz() = %d", stream.SampleRateHz())
	}
	empty := Stream{}
	if empty.FrameCount() != 0 || empty.SampleRateHz() != 0 {
		t.Fatal("empty stream should report zero counts")
	}
}
