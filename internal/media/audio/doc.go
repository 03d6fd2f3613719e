// Package audio decodes a clip's audio track into a float waveform.
//
// The whole track is decoded through one ffmpeg process per clip: resampled
// to the target mono rate as signed 16-bit PCM on stdout, then scaled by
// 1/32768 into [-1, 1). Decode failures come back as errors carrying
// ffmpeg's stderr tail; the caller decides whether to substitute silence.
package audio
