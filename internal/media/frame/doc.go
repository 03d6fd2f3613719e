// Package frame samples one video frame per access from a clip.
//
// Each access probes the container for its native frame rate and time base,
// spreads a fixed number of candidate frame indices evenly across the
// one-second clip, draws one uniformly, and decodes toward that target: a
// keyframe-backward seek followed by a forward scan that keeps the frame
// whose pts lies closest to the target and stops once the scan passes it by
// more than a tenth of a second. The chosen frame comes back as a
// channel-first float tensor, bilinearly resized to a square and normalized
// with the ImageNet statistics.
//
// The draw is re-done on every access, so repeated loads of the same clip
// see different frames. Finding no frame at all is a hard error; callers
// decide how to absorb it.
package frame
