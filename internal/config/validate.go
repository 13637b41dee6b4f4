package config

import (
	"errors"
	"fmt"
	"sort"
	"strings"
)

// Validate ensures the configuration is usable.
func (c *Config) Validate() error {
	if err := c.validatePaths(); err != nil {
		return err
	}
	if err := c.validateHardware(); err != nil {
		return err
	}
	if err := c.validateAudio(); err != nil {
		return err
	}
	if err := c.validateServices(); err != nil {
		return err
	}
	if err := c.validateClassify(); err != nil {
		return err
	}
	if c.Ingest.ScanInterval <= 0 {
		return errors.New("ingest.scan_interval must be positive")
	}
	return nil
}

func (c *Config) validatePaths() error {
	for field, value := range map[string]string{
		"paths.staging_dir":        c.Paths.StagingDir,
		"paths.recordings_dir":     c.Paths.RecordingsDir,
		"paths.category_audio_dir": c.Paths.CategoryAudioDir,
		"paths.log_dir":            c.Paths.LogDir,
	} {
		if strings.TrimSpace(value) == "" {
			return fmt.Errorf("%s must be set", field)
		}
	}
	return nil
}

func (c *Config) validateHardware() error {
	if strings.TrimSpace(c.Hardware.SerialDevice) == "" {
		return errors.New("hardware.serial_device must be set")
	}
	return ensurePositive(map[string]int{
		"hardware.baud_rate":         c.Hardware.BaudRate,
		"hardware.reconnect_seconds": c.Hardware.ReconnectSeconds,
	})
}

func (c *Config) validateAudio() error {
	if c.Audio.Channels != 1 && c.Audio.Channels != 2 {
		return errors.New("audio.channels must be 1 or 2")
	}
	return ensurePositive(map[string]int{
		"audio.sample_rate":      c.Audio.SampleRate,
		"audio.chunk_frames":     c.Audio.ChunkFrames,
		"audio.track_gap_millis": c.Audio.TrackGapMillis,
		"audio.probe_timeout":    c.Audio.ProbeTimeout,
		"audio.playback_timeout": c.Audio.PlaybackTimeout,
	})
}

func (c *Config) validateServices() error {
	if strings.TrimSpace(c.OpenAI.APIKey) == "" {
		defaultPath, err := DefaultConfigPath()
		if err != nil {
			defaultPath = "~/.config/memoria/config.toml"
		}
		return fmt.Errorf("openai.api_key is required. Edit %s (create with 'memoria config init') or export OPENAI_API_KEY", defaultPath)
	}
	if strings.TrimSpace(c.OpenAI.BaseURL) == "" {
		return errors.New("openai.base_url must be set")
	}
	// ElevenLabs is optional: without a key, categories are created silent.
	if strings.TrimSpace(c.ElevenLabs.APIKey) != "" && strings.TrimSpace(c.ElevenLabs.VoiceID) == "" {
		return errors.New("elevenlabs.voice_id must be set when elevenlabs.api_key is set")
	}
	return ensurePositive(map[string]int{
		"openai.timeout_seconds":     c.OpenAI.TimeoutSeconds,
		"elevenlabs.timeout_seconds": c.ElevenLabs.TimeoutSeconds,
	})
}

func (c *Config) validateClassify() error {
	if c.Classify.SimilarityThreshold <= 0 || c.Classify.SimilarityThreshold > 1 {
		return errors.New("classify.similarity_threshold must be in (0, 1]")
	}
	return nil
}

func ensurePositive(values map[string]int) error {
	fields := make([]string, 0, len(values))
	for field := range values {
		fields = append(fields, field)
	}
	sort.Strings(fields)
	for _, field := range fields {
		if values[field] <= 0 {
			return fmt.Errorf("%s must be positive", field)
		}
	}
	return nil
}
