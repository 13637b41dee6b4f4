package audio

import (
	"context"
	"os/exec"
	"sync"
	"syscall"

	"golang.org/x/sys/unix"

	"memoria/internal/services"
)

// FFplayPlayer plays audio files through ffplay. Each Start owns its own
// process, so stopping one playback can never touch another.
type FFplayPlayer struct {
	binary string
}

// NewFFplayPlayer constructs a player using the given ffplay binary name.
func NewFFplayPlayer(binary string) *FFplayPlayer {
	if binary == "" {
		binary = "ffplay"
	}
	return &FFplayPlayer{binary: binary}
}

// Start launches playback of path and returns the controlling handle.
func (p *FFplayPlayer) Start(ctx context.Context, path string) (PlaybackHandle, error) {
	cmd := exec.CommandContext(ctx, p.binary, "-nodisp", "-autoexit", "-loglevel", "quiet", path) //nolint:gosec
	// Own process group so Stop can take down ffplay and any children.
	cmd.SysProcAttr = &syscall.SysProcAttr{Setpgid: true}
	if err := cmd.Start(); err != nil {
		return nil, services.Wrap(services.ErrDevice, "audio", "start playback", path, err)
	}

	handle := &processHandle{cmd: cmd, done: make(chan struct{})}
	go func() {
		_ = cmd.Wait()
		close(handle.done)
	}()
	return handle, nil
}

type processHandle struct {
	cmd  *exec.Cmd
	done chan struct{}
	once sync.Once
}

func (h *processHandle) Done() <-chan struct{} {
	return h.done
}

// Stop signals the playback process group and waits for the process to exit,
// so the audio device is confirmed quiet before Stop returns.
func (h *processHandle) Stop() error {
	h.once.Do(func() {
		if h.cmd.Process != nil {
			_ = unix.Kill(-h.cmd.Process.Pid, unix.SIGTERM)
		}
	})
	<-h.done
	return nil
}

var _ Player = (*FFplayPlayer)(nil)
