package audio

import (
	"context"
	"os/exec"
	"strings"

	"memoria/internal/services"
)

// FFmpegConverter transcodes staged WAV captures into AAC containers.
type FFmpegConverter struct {
	binary string
}

func NewFFmpegConverter(binary string) *FFmpegConverter {
	if binary == "" {
		binary = "ffmpeg"
	}
	return &FFmpegConverter{binary: binary}
}

// Convert encodes src into dst, overwriting any existing output. The source
// file is left in place; callers decide when to remove it.
func (c *FFmpegConverter) Convert(ctx context.Context, src, dst string) error {
	cmd := exec.CommandContext(ctx, c.binary, //nolint:gosec
		"-hide_banner",
		"-loglevel", "error",
		"-y",
		"-i", src,
		"-c:a", "aac",
		dst,
	)
	var stderr strings.Builder
	cmd.Stderr = &stderr
	if err := cmd.Run(); err != nil {
		message := strings.TrimSpace(stderr.String())
		if message == "" {
			message = src
		}
		return services.Wrap(services.ErrExternalService, "audio", "convert", message, err)
	}
	return nil
}

var _ Converter = (*FFmpegConverter)(nil)
