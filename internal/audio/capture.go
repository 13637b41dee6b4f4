package audio

import (
	"context"
	"fmt"
	"io"
	"os/exec"
	"sync"
	"syscall"

	"golang.org/x/sys/unix"

	"memoria/internal/services"
)

// FFmpegCapture records raw signed 16-bit PCM from an ALSA input device by
// streaming ffmpeg's stdout.
type FFmpegCapture struct {
	binary string
	device string
}

// NewFFmpegCapture constructs a capture device reading from the named ALSA
// input (e.g. "default").
func NewFFmpegCapture(binary, device string) *FFmpegCapture {
	if binary == "" {
		binary = "ffmpeg"
	}
	if device == "" {
		device = "default"
	}
	return &FFmpegCapture{binary: binary, device: device}
}

// StartCapture opens the microphone and begins streaming raw samples.
func (c *FFmpegCapture) StartCapture(ctx context.Context, sampleRate, channels int) (CaptureStream, error) {
	args := []string{
		"-hide_banner",
		"-loglevel", "error",
		"-f", "alsa",
		"-i", c.device,
		"-ac", fmt.Sprintf("%d", channels),
		"-ar", fmt.Sprintf("%d", sampleRate),
		"-f", "s16le",
		"-",
	}
	cmd := exec.CommandContext(ctx, c.binary, args...) //nolint:gosec
	cmd.SysProcAttr = &syscall.SysProcAttr{Setpgid: true}
	stdout, err := cmd.StdoutPipe()
	if err != nil {
		return nil, services.Wrap(services.ErrDevice, "audio", "open capture pipe", "", err)
	}
	if err := cmd.Start(); err != nil {
		return nil, services.Wrap(services.ErrDevice, "audio", "start capture", c.device, err)
	}
	return &captureStream{cmd: cmd, stdout: stdout}, nil
}

type captureStream struct {
	cmd    *exec.Cmd
	stdout io.ReadCloser
	once   sync.Once
}

func (s *captureStream) ReadChunk(buf []byte) (int, error) {
	n, err := s.stdout.Read(buf)
	if err != nil && err != io.EOF {
		// A closed pipe after Stop reads as EOF to callers.
		return n, io.EOF
	}
	return n, err
}

func (s *captureStream) Stop() error {
	s.once.Do(func() {
		if s.cmd.Process != nil {
			_ = unix.Kill(-s.cmd.Process.Pid, unix.SIGTERM)
		}
		_ = s.cmd.Wait()
		_ = s.stdout.Close()
	})
	return nil
}

var _ CaptureDevice = (*FFmpegCapture)(nil)
