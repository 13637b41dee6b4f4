package config

const (
	defaultStagingDir       = "~/.local/share/memoria/staging"
	defaultRecordingsDir    = "~/.local/share/memoria/recordings"
	defaultCategoryAudioDir = "~/.local/share/memoria/category-audio"
	defaultLogDir           = "~/.local/share/memoria/logs"

	defaultSerialDevice     = "/dev/ttyUSB0"
	defaultBaudRate         = 9600
	defaultReconnectSeconds = 5

	defaultSampleRate      = 8000
	defaultChannels        = 1
	defaultChunkFrames     = 1024
	defaultCaptureDevice   = "default"
	defaultTrackGapMillis  = 500
	defaultProbeTimeout    = 10
	defaultPlaybackTimeout = 3600

	defaultOpenAIBaseURL       = "https://api.openai.com/v1"
	defaultTranscribeModel     = "whisper-1"
	defaultEmbeddingModel      = "text-embedding-3-large"
	defaultNamingModel         = "gpt-3.5-turbo"
	defaultOpenAITimeoutSecs   = 60
	defaultElevenLabsBaseURL   = "https://api.elevenlabs.io/v1"
	defaultElevenLabsVoiceID   = "EXAVITQu4vr4xnSDxMaL"
	defaultElevenLabsModelID   = "eleven_multilingual_v2"
	defaultElevenLabsTimeout   = 60
	defaultSimilarityThreshold = 0.50
	defaultScanInterval        = 30

	defaultLogFormat = "console"
	defaultLogLevel  = "info"
)

// Default returns a Config populated with repository defaults.
func Default() Config {
	return Config{
		Paths: Paths{
			StagingDir:       defaultStagingDir,
			RecordingsDir:    defaultRecordingsDir,
			CategoryAudioDir: defaultCategoryAudioDir,
			LogDir:           defaultLogDir,
		},
		Hardware: Hardware{
			SerialDevice:     defaultSerialDevice,
			BaudRate:         defaultBaudRate,
			ReconnectSeconds: defaultReconnectSeconds,
		},
		Audio: Audio{
			SampleRate:      defaultSampleRate,
			Channels:        defaultChannels,
			ChunkFrames:     defaultChunkFrames,
			CaptureDevice:   defaultCaptureDevice,
			TrackGapMillis:  defaultTrackGapMillis,
			ProbeTimeout:    defaultProbeTimeout,
			PlaybackTimeout: defaultPlaybackTimeout,
		},
		OpenAI: OpenAI{
			BaseURL:         defaultOpenAIBaseURL,
			TranscribeModel: defaultTranscribeModel,
			EmbeddingModel:  defaultEmbeddingModel,
			NamingModel:     defaultNamingModel,
			TimeoutSeconds:  defaultOpenAITimeoutSecs,
		},
		ElevenLabs: ElevenLabs{
			BaseURL:        defaultElevenLabsBaseURL,
			VoiceID:        defaultElevenLabsVoiceID,
			ModelID:        defaultElevenLabsModelID,
			TimeoutSeconds: defaultElevenLabsTimeout,
		},
		Classify: Classify{
			SimilarityThreshold: defaultSimilarityThreshold,
		},
		Ingest: Ingest{
			ScanInterval: defaultScanInterval,
		},
		Logging: Logging{
			Format: defaultLogFormat,
			Level:  defaultLogLevel,
		},
	}
}
