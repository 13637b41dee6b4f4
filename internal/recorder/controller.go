package recorder

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"path/filepath"
	"sync"

	"github.com/google/uuid"

	"memoria/internal/audio"
	"memoria/internal/config"
	"memoria/internal/logging"
)

// PlaybackStopper halts any active playback before a capture begins. The
// controller never records over the top of its own output.
type PlaybackStopper interface {
	StopNow()
}

// Controller owns the microphone capture lifecycle. It is either idle or
// capturing; Begin and End move it between the two and duplicate calls are
// ignored.
type Controller struct {
	cfg     *config.Config
	device  audio.CaptureDevice
	stopper PlaybackStopper
	logger  *slog.Logger

	mu        sync.Mutex
	capturing bool
	stream    audio.CaptureStream
	done      chan struct{}
	result    *captureResult
}

// captureResult is written only by the read loop goroutine; End reads it
// after the done channel closes.
type captureResult struct {
	buf     bytes.Buffer
	readErr error
}

func NewController(cfg *config.Config, device audio.CaptureDevice, stopper PlaybackStopper, logger *slog.Logger) *Controller {
	if logger == nil {
		logger = logging.NewNop()
	}
	return &Controller{
		cfg:     cfg,
		device:  device,
		stopper: stopper,
		logger:  logging.NewComponentLogger(logger, "recorder"),
	}
}

// Begin halts playback and starts pulling PCM chunks from the capture
// device. A Begin while already capturing is a no-op.
func (c *Controller) Begin(ctx context.Context) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.capturing {
		c.logger.Debug("begin ignored, capture already running")
		return nil
	}

	if c.stopper != nil {
		c.stopper.StopNow()
	}

	stream, err := c.device.StartCapture(ctx, c.cfg.Audio.SampleRate, c.cfg.Audio.Channels)
	if err != nil {
		return fmt.Errorf("start capture: %w", err)
	}

	c.capturing = true
	c.stream = stream
	c.result = &captureResult{}
	c.done = make(chan struct{})
	go c.readLoop(stream, c.result, c.done)

	c.logger.Info("capture started",
		logging.Int("sample_rate", c.cfg.Audio.SampleRate),
		logging.Int("channels", c.cfg.Audio.Channels))
	return nil
}

// End stops the capture and stages the recorded samples as a WAV file in the
// staging directory. It returns the staged path, or an empty path when
// nothing was captured. An End while idle is a no-op.
func (c *Controller) End() (string, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if !c.capturing {
		c.logger.Debug("end ignored, no capture running")
		return "", nil
	}

	if err := c.stream.Stop(); err != nil {
		c.logger.Warn("capture stream stop failed", logging.Error(err))
	}
	<-c.done

	c.capturing = false
	c.stream = nil
	result := c.result
	c.result = nil

	if result.readErr != nil {
		c.logger.Warn("capture ended after device error", logging.Error(result.readErr))
	}
	if result.buf.Len() == 0 {
		c.logger.Info("capture ended with no samples, nothing staged")
		return "", nil
	}

	path := filepath.Join(c.cfg.Paths.StagingDir, uuid.NewString()+".wav")
	if err := audio.WriteWAV(path, result.buf.Bytes(), c.cfg.Audio.SampleRate, c.cfg.Audio.Channels); err != nil {
		return "", fmt.Errorf("stage capture: %w", err)
	}
	c.logger.Info("capture staged",
		logging.String("path", path),
		logging.Int("bytes", result.buf.Len()))
	return path, nil
}

// Capturing reports whether a capture is in flight.
func (c *Controller) Capturing() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.capturing
}

func (c *Controller) readLoop(stream audio.CaptureStream, result *captureResult, done chan struct{}) {
	defer close(done)
	chunk := make([]byte, c.cfg.Audio.ChunkFrames*c.cfg.Audio.Channels*2)
	for {
		n, err := stream.ReadChunk(chunk)
		if n > 0 {
			result.buf.Write(chunk[:n])
		}
		if err != nil {
			if !errors.Is(err, io.EOF) {
				result.readErr = err
			}
			return
		}
	}
}
