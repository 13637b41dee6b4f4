// Package deps checks the external tools and devices the appliance leans
// on: the ffmpeg family for audio work and the serial device for the dial.
package deps

import (
	"fmt"
	"os"
	"os/exec"
	"strings"

	"memoria/internal/config"
)

// Requirement defines an external dependency Memoria relies on.
type Requirement struct {
	Name        string
	Command     string
	Description string
	Optional    bool
}

// Status reports the availability of a dependency.
type Status struct {
	Name        string
	Command     string
	Description string
	Optional    bool
	Available   bool
	Detail      string
}

// Requirements returns the external binaries for the given configuration.
func Requirements(cfg *config.Config) []Requirement {
	return []Requirement{
		{Name: "ffmpeg", Command: cfg.FFmpegBinary(), Description: "audio capture and conversion"},
		{Name: "ffprobe", Command: cfg.FFprobeBinary(), Description: "track duration probing"},
		{Name: "ffplay", Command: cfg.FFplayBinary(), Description: "playback"},
	}
}

// CheckBinaries evaluates the provided requirements and reports availability.
func CheckBinaries(requirements []Requirement) []Status {
	results := make([]Status, 0, len(requirements))
	for _, req := range requirements {
		command := strings.TrimSpace(req.Command)
		status := Status{
			Name:        req.Name,
			Command:     command,
			Description: req.Description,
			Optional:    req.Optional,
		}
		if command == "" {
			status.Detail = "command not configured"
			results = append(results, status)
			continue
		}
		if _, err := exec.LookPath(command); err != nil {
			status.Detail = fmt.Sprintf("binary %q not found", command)
			results = append(results, status)
			continue
		}
		status.Available = true
		results = append(results, status)
	}
	return results
}

// CheckSerialDevice reports whether the configured serial device node exists.
// The daemon reconnects when it appears later, so absence is informational.
func CheckSerialDevice(cfg *config.Config) Status {
	device := strings.TrimSpace(cfg.Hardware.SerialDevice)
	status := Status{
		Name:        "serial device",
		Command:     device,
		Description: "rotary dial and microphone link",
		Optional:    true,
	}
	if device == "" {
		status.Detail = "not configured"
		return status
	}
	if _, err := os.Stat(device); err != nil {
		status.Detail = "device node not present"
		return status
	}
	status.Available = true
	return status
}

// Missing filters statuses down to unavailable required dependencies.
func Missing(statuses []Status) []Status {
	var missing []Status
	for _, status := range statuses {
		if !status.Available && !status.Optional {
			missing = append(missing, status)
		}
	}
	return missing
}
