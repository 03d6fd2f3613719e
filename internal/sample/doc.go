// Package sample decodes one clip into a labeled training record, combining
// the audio decoder and frame sampler behind a boundary that absorbs every
// per-clip failure. Nothing downstream of the loader ever sees a decode
// error, only valid records and zero-filled sentinels.
package sample
