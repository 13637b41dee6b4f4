package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func writeConfig(t *testing.T, dir, body string) string {
	t.Helper()
	path := filepath.Join(dir, "config.toml")
	if err := os.WriteFile(path, []byte(body), 0o644); err != nil {
		t.Fatalf("write config: %v", err)
	}
	return path
}

func TestLoadMissingFileUsesDefaults(t *testing.T) {
	t.Setenv("HOME", t.TempDir())
	t.Setenv("OPENAI_API_KEY", "env-key")

	cfg, _, exists, err := Load(filepath.Join(t.TempDir(), "nope.toml"))
	if err != nil {
		t.Fatalf("Load returned error: %v", err)
	}
	if exists {
		t.Fatal("missing file should report exists=false")
	}
	if cfg.Audio.SampleRate != 8000 || cfg.Audio.Channels != 1 {
		t.Fatalf("default audio format = %d/%d, want 8000/1", cfg.Audio.SampleRate, cfg.Audio.Channels)
	}
	if cfg.Classify.SimilarityThreshold != 0.50 {
		t.Fatalf("default threshold = %f", cfg.Classify.SimilarityThreshold)
	}
	if cfg.OpenAI.APIKey != "env-key" {
		t.Fatalf("api key = %q, want value from environment", cfg.OpenAI.APIKey)
	}
}

func TestLoadOverridesAndExpandsPaths(t *testing.T) {
	home := t.TempDir()
	t.Setenv("HOME", home)
	t.Setenv("OPENAI_API_KEY", "")

	path := writeConfig(t, t.TempDir(), `
[paths]
staging_dir = "~/memoria/staging"

[hardware]
serial_device = "/dev/ttyACM3"
baud_rate = 115200

[openai]
api_key = "file-key"

[classify]
similarity_threshold = 0.72
`)
	cfg, resolved, exists, err := Load(path)
	if err != nil {
		t.Fatalf("Load returned error: %v", err)
	}
	if !exists || resolved != path {
		t.Fatalf("resolved = %q exists = %v", resolved, exists)
	}
	want := filepath.Join(home, "memoria", "staging")
	if cfg.Paths.StagingDir != want {
		t.Fatalf("staging dir = %q, want %q", cfg.Paths.StagingDir, want)
	}
	if cfg.Hardware.SerialDevice != "/dev/ttyACM3" || cfg.Hardware.BaudRate != 115200 {
		t.Fatalf("hardware = %+v", cfg.Hardware)
	}
	if cfg.Classify.SimilarityThreshold != 0.72 {
		t.Fatalf("threshold = %f", cfg.Classify.SimilarityThreshold)
	}
	// Unset sections keep their defaults.
	if cfg.Audio.ChunkFrames != 1024 {
		t.Fatalf("chunk frames = %d, want default 1024", cfg.Audio.ChunkFrames)
	}
}

func TestLoadRejectsMissingAPIKey(t *testing.T) {
	t.Setenv("HOME", t.TempDir())
	t.Setenv("OPENAI_API_KEY", "")

	_, _, _, err := Load(filepath.Join(t.TempDir(), "absent.toml"))
	if err == nil || !strings.Contains(err.Error(), "openai.api_key") {
		t.Fatalf("expected api key error, got %v", err)
	}
}

func TestValidateRejectsBadValues(t *testing.T) {
	cases := []struct {
		name   string
		mutate func(*Config)
		field  string
	}{
		{name: "channels", mutate: func(c *Config) { c.Audio.Channels = 3 }, field: "audio.channels"},
		{name: "threshold", mutate: func(c *Config) { c.Classify.SimilarityThreshold = 1.5 }, field: "classify.similarity_threshold"},
		{name: "scan interval", mutate: func(c *Config) { c.Ingest.ScanInterval = 0 }, field: "ingest.scan_interval"},
		{name: "serial device", mutate: func(c *Config) { c.Hardware.SerialDevice = " " }, field: "hardware.serial_device"},
		{name: "voice id", mutate: func(c *Config) { c.ElevenLabs.APIKey = "k"; c.ElevenLabs.VoiceID = "" }, field: "elevenlabs.voice_id"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			cfg := Default()
			cfg.OpenAI.APIKey = "key"
			tc.mutate(&cfg)
			err := cfg.Validate()
			if err == nil || !strings.Contains(err.Error(), tc.field) {
				t.Fatalf("Validate error = %v, want mention of %s", err, tc.field)
			}
		})
	}
}

func TestCreateSampleParses(t *testing.T) {
	t.Setenv("HOME", t.TempDir())
	t.Setenv("OPENAI_API_KEY", "env-key")

	target := filepath.Join(t.TempDir(), "sample.toml")
	if err := CreateSample(target); err != nil {
		t.Fatalf("CreateSample returned error: %v", err)
	}
	if _, _, _, err := Load(target); err != nil {
		t.Fatalf("sample config failed to load: %v", err)
	}
}

func TestEnsureDirectories(t *testing.T) {
	base := t.TempDir()
	cfg := Default()
	cfg.Paths.StagingDir = filepath.Join(base, "staging")
	cfg.Paths.RecordingsDir = filepath.Join(base, "recordings")
	cfg.Paths.CategoryAudioDir = filepath.Join(base, "category_audio")
	cfg.Paths.LogDir = filepath.Join(base, "logs")

	if err := cfg.EnsureDirectories(); err != nil {
		t.Fatalf("EnsureDirectories returned error: %v", err)
	}
	for _, dir := range []string{cfg.Paths.StagingDir, cfg.Paths.RecordingsDir, cfg.Paths.CategoryAudioDir, cfg.Paths.LogDir} {
		info, err := os.Stat(dir)
		if err != nil || !info.IsDir() {
			t.Fatalf("directory %s missing: %v", dir, err)
		}
	}
}
