// Package audio models the appliance's audio path: playback, capture,
// duration probing, and archival conversion.
//
// The interfaces here are the seams the session controllers depend on; the
// production implementations shell out to ffplay/ffmpeg/ffprobe, and tests
// substitute in-memory fakes.
package audio

import (
	"context"
	"time"
)

// Player starts playback of an audio file. The returned handle owns the
// playback process; Stop must not return until nothing is sounding.
type Player interface {
	Start(ctx context.Context, path string) (PlaybackHandle, error)
}

// PlaybackHandle controls one in-flight playback.
type PlaybackHandle interface {
	// Done is closed when playback ends for any reason.
	Done() <-chan struct{}
	// Stop halts playback synchronously. Safe to call more than once and
	// after natural completion.
	Stop() error
}

// CaptureDevice opens microphone capture streams.
type CaptureDevice interface {
	StartCapture(ctx context.Context, sampleRate, channels int) (CaptureStream, error)
}

// CaptureStream yields raw PCM from an open capture.
type CaptureStream interface {
	// ReadChunk fills buf with captured samples, returning the count read.
	// io.EOF reports the stream has ended.
	ReadChunk(buf []byte) (int, error)
	// Stop ends the capture. Subsequent reads return io.EOF.
	Stop() error
}

// DurationProber reports the playable duration of an audio file.
type DurationProber interface {
	Duration(ctx context.Context, path string) (time.Duration, error)
}

// Converter converts a staged raw capture into the archival format.
type Converter interface {
	Convert(ctx context.Context, sourcePath, destPath string) error
}
