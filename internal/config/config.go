package config

import (
	_ "embed"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"github.com/pelletier/go-toml/v2"
)

//go:embed sample_config.toml
var sampleConfig string

// Paths contains directory configuration.
type Paths struct {
	// StagingDir receives raw WAV captures before conversion.
	StagingDir string `toml:"staging_dir"`
	// RecordingsDir holds archived M4A recordings awaiting or past ingestion.
	RecordingsDir string `toml:"recordings_dir"`
	// CategoryAudioDir holds synthesized spoken category names.
	CategoryAudioDir string `toml:"category_audio_dir"`
	LogDir           string `toml:"log_dir"`
}

// Hardware contains the serial link settings for the dial/microphone unit.
type Hardware struct {
	SerialDevice     string `toml:"serial_device"`
	BaudRate         int    `toml:"baud_rate"`
	ReconnectSeconds int    `toml:"reconnect_seconds"`
}

// Audio contains capture and playback device settings.
type Audio struct {
	SampleRate      int    `toml:"sample_rate"`
	Channels        int    `toml:"channels"`
	ChunkFrames     int    `toml:"chunk_frames"`
	CaptureDevice   string `toml:"capture_device"`
	TrackGapMillis  int    `toml:"track_gap_millis"`
	ProbeTimeout    int    `toml:"probe_timeout"`
	PlaybackTimeout int    `toml:"playback_timeout"`
}

// OpenAI contains settings for transcription, embeddings, and category naming.
type OpenAI struct {
	APIKey          string `toml:"api_key"`
	BaseURL         string `toml:"base_url"`
	TranscribeModel string `toml:"transcribe_model"`
	EmbeddingModel  string `toml:"embedding_model"`
	NamingModel     string `toml:"naming_model"`
	TimeoutSeconds  int    `toml:"timeout_seconds"`
}

// ElevenLabs contains settings for spoken category name synthesis.
type ElevenLabs struct {
	APIKey         string `toml:"api_key"`
	BaseURL        string `toml:"base_url"`
	VoiceID        string `toml:"voice_id"`
	ModelID        string `toml:"model_id"`
	TimeoutSeconds int    `toml:"timeout_seconds"`
}

// Classify contains settings for the categorization engine.
type Classify struct {
	// SimilarityThreshold is the cosine similarity at or above which a
	// transcription joins an existing category.
	SimilarityThreshold float64 `toml:"similarity_threshold"`
}

// Ingest contains settings for the archival scan loop.
type Ingest struct {
	ScanInterval int `toml:"scan_interval"`
}

// Logging contains configuration for log output.
type Logging struct {
	Format string `toml:"format"`
	Level  string `toml:"level"`
}

// Config encapsulates all configuration values for Memoria.
//
// Configuration sections by subsystem:
//   - Paths: staging, archive, category audio, and log directories
//   - Hardware: serial link to the rotary dial / microphone unit
//   - Audio: capture format and playback timing
//   - OpenAI: transcription, embedding, and category naming services
//   - ElevenLabs: spoken category name synthesis
//   - Classify: categorization threshold
//   - Ingest: archival scan interval
//   - Logging: log format and level
type Config struct {
	Paths      Paths      `toml:"paths"`
	Hardware   Hardware   `toml:"hardware"`
	Audio      Audio      `toml:"audio"`
	OpenAI     OpenAI     `toml:"openai"`
	ElevenLabs ElevenLabs `toml:"elevenlabs"`
	Classify   Classify   `toml:"classify"`
	Ingest     Ingest     `toml:"ingest"`
	Logging    Logging    `toml:"logging"`
}

// DefaultConfigPath returns the absolute path to the default configuration file location.
func DefaultConfigPath() (string, error) {
	return expandPath("~/.config/memoria/config.toml")
}

// Load locates, parses, and validates a configuration file. The returned
// config has all path fields expanded and normalized. The second return value
// is the resolved path and the third reports whether a file existed there.
func Load(path string) (*Config, string, bool, error) {
	cfg := Default()

	resolvedPath, exists, err := resolveConfigPath(path)
	if err != nil {
		return nil, "", false, err
	}

	if exists {
		file, err := os.Open(resolvedPath)
		if err != nil {
			return nil, "", false, fmt.Errorf("open config: %w", err)
		}
		defer file.Close()

		decoder := toml.NewDecoder(file)
		if err := decoder.Decode(&cfg); err != nil {
			return nil, "", false, fmt.Errorf("parse config: %w", err)
		}
	}

	if err := cfg.normalize(); err != nil {
		return nil, "", false, err
	}

	if err := cfg.Validate(); err != nil {
		return nil, "", false, err
	}

	return &cfg, resolvedPath, exists, nil
}

func resolveConfigPath(path string) (string, bool, error) {
	if path != "" {
		expanded, err := expandPath(path)
		if err != nil {
			return "", false, err
		}
		if _, err := os.Stat(expanded); err != nil {
			if errors.Is(err, fs.ErrNotExist) {
				return expanded, false, nil
			}
			return "", false, fmt.Errorf("stat config: %w", err)
		}
		return expanded, true, nil
	}

	defaultPath, err := DefaultConfigPath()
	if err != nil {
		return "", false, err
	}

	projectPath, err := filepath.Abs("memoria.toml")
	if err != nil {
		return "", false, err
	}

	if info, err := os.Stat(defaultPath); err == nil && !info.IsDir() {
		return defaultPath, true, nil
	}
	if info, err := os.Stat(projectPath); err == nil && !info.IsDir() {
		return projectPath, true, nil
	}

	return defaultPath, false, nil
}

func (c *Config) normalize() error {
	for _, field := range []*string{
		&c.Paths.StagingDir,
		&c.Paths.RecordingsDir,
		&c.Paths.CategoryAudioDir,
		&c.Paths.LogDir,
	} {
		expanded, err := expandPath(*field)
		if err != nil {
			return err
		}
		*field = expanded
	}
	if strings.TrimSpace(c.OpenAI.APIKey) == "" {
		c.OpenAI.APIKey = strings.TrimSpace(os.Getenv("OPENAI_API_KEY"))
	}
	if strings.TrimSpace(c.ElevenLabs.APIKey) == "" {
		c.ElevenLabs.APIKey = strings.TrimSpace(os.Getenv("ELEVENLABS_API_KEY"))
	}
	return nil
}

// EnsureDirectories creates required directories for daemon operation.
func (c *Config) EnsureDirectories() error {
	for _, dir := range []string{
		c.Paths.StagingDir,
		c.Paths.RecordingsDir,
		c.Paths.CategoryAudioDir,
		c.Paths.LogDir,
	} {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("create directory %q: %w", dir, err)
		}
	}
	return nil
}

// FFmpegBinary returns the ffmpeg executable name used for audio conversion and capture.
func (c *Config) FFmpegBinary() string {
	return "ffmpeg"
}

// FFprobeBinary returns the ffprobe executable name used for duration probing.
func (c *Config) FFprobeBinary() string {
	return "ffprobe"
}

// FFplayBinary returns the ffplay executable name used for playback.
func (c *Config) FFplayBinary() string {
	return "ffplay"
}

func expandPath(pathValue string) (string, error) {
	if pathValue == "" {
		return pathValue, nil
	}
	if strings.HasPrefix(pathValue, "~") {
		home, err := os.UserHomeDir()
		if err != nil {
			return "", fmt.Errorf("resolve home directory: %w", err)
		}
		if pathValue == "~" {
			pathValue = home
		} else if len(pathValue) > 1 && (pathValue[1] == '/' || pathValue[1] == '\\') {
			pathValue = filepath.Join(home, pathValue[2:])
		}
	}
	cleaned := filepath.Clean(pathValue)
	absolute, err := filepath.Abs(cleaned)
	if err != nil {
		return "", fmt.Errorf("resolve absolute path for %q: %w", cleaned, err)
	}
	return absolute, nil
}

// ExpandPath exposes the repository path expansion rules for other packages.
func ExpandPath(pathValue string) (string, error) {
	return expandPath(pathValue)
}

// CreateSample writes a sample configuration file to the specified location.
func CreateSample(path string) error {
	if dir := filepath.Dir(path); dir != "" {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("create config directory: %w", err)
		}
	}
	if err := os.WriteFile(path, []byte(sampleConfig), 0o644); err != nil {
		return fmt.Errorf("write sample config: %w", err)
	}
	return nil
}
