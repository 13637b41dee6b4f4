package audio

import (
	"context"
	"fmt"
	"os/exec"
	"strconv"
	"strings"
	"time"

	"memoria/internal/services"
)

// FFprobeProber reads a file's audio stream duration via ffprobe.
type FFprobeProber struct {
	binary  string
	timeout time.Duration
}

// NewFFprobeProber constructs a prober with a per-probe timeout.
func NewFFprobeProber(binary string, timeout time.Duration) *FFprobeProber {
	if binary == "" {
		binary = "ffprobe"
	}
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	return &FFprobeProber{binary: binary, timeout: timeout}
}

// Duration returns the duration of the first audio stream in path. An
// unreadable or streamless file yields a missing-asset error; callers skip
// the track and continue.
func (p *FFprobeProber) Duration(ctx context.Context, path string) (time.Duration, error) {
	probeCtx, cancel := context.WithTimeout(ctx, p.timeout)
	defer cancel()

	cmd := exec.CommandContext(probeCtx, p.binary, //nolint:gosec
		"-v", "error",
		"-select_streams", "a:0",
		"-show_entries", "stream=duration",
		"-of", "csv=p=0",
		path,
	)
	output, err := cmd.Output()
	if err != nil {
		return 0, services.Wrap(services.ErrMissingAsset, "audio", "probe duration", path, err)
	}
	duration, err := parseProbeDuration(string(output))
	if err != nil {
		return 0, services.Wrap(services.ErrMissingAsset, "audio", "probe duration", path, err)
	}
	return duration, nil
}

func parseProbeDuration(raw string) (time.Duration, error) {
	trimmed := strings.TrimSpace(raw)
	if trimmed == "" || trimmed == "N/A" {
		return 0, fmt.Errorf("no duration in probe output %q", raw)
	}
	seconds, err := strconv.ParseFloat(trimmed, 64)
	if err != nil {
		return 0, fmt.Errorf("parse probe output %q: %w", raw, err)
	}
	if seconds < 0 {
		return 0, fmt.Errorf("negative duration %f", seconds)
	}
	return time.Duration(seconds * float64(time.Second)), nil
}

var _ DurationProber = (*FFprobeProber)(nil)
