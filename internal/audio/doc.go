// Package audio wraps the external ffmpeg tool family behind small
// capability interfaces: playback, capture, duration probing, and
// conversion. Implementations spawn the tools in their own process
// groups so a stop request tears down the whole pipeline.
package audio
