package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"memoria/internal/audio"
	"memoria/internal/catalog"
	"memoria/internal/classify"
	"memoria/internal/config"
	"memoria/internal/ingest"
	"memoria/internal/logging"
	"memoria/internal/services/elevenlabs"
	"memoria/internal/services/openai"
)

func newIngestCommand(ctx *commandContext) *cobra.Command {
	ingestCmd := &cobra.Command{
		Use:   "ingest",
		Short: "Staged recording ingestion",
	}
	ingestCmd.AddCommand(newIngestRunCommand(ctx))
	return ingestCmd
}

// newIngestRunCommand performs a single sweep without the daemon, useful
// after restoring files or when the daemon is stopped.
func newIngestRunCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "run",
		Short: "Run one ingest sweep now",
		RunE: func(cmd *cobra.Command, args []string) error {
			return ctx.withStore(func(cfg *config.Config, store *catalog.Store) error {
				logger, err := logging.NewFromConfig(cfg)
				if err != nil {
					return fmt.Errorf("init logger: %w", err)
				}
				openaiClient := openai.NewClient(openai.Config{
					APIKey:          cfg.OpenAI.APIKey,
					BaseURL:         cfg.OpenAI.BaseURL,
					TranscribeModel: cfg.OpenAI.TranscribeModel,
					EmbeddingModel:  cfg.OpenAI.EmbeddingModel,
					NamingModel:     cfg.OpenAI.NamingModel,
					TimeoutSeconds:  cfg.OpenAI.TimeoutSeconds,
				})
				elevenClient := elevenlabs.NewClient(elevenlabs.Config{
					APIKey:         cfg.ElevenLabs.APIKey,
					BaseURL:        cfg.ElevenLabs.BaseURL,
					VoiceID:        cfg.ElevenLabs.VoiceID,
					ModelID:        cfg.ElevenLabs.ModelID,
					TimeoutSeconds: cfg.ElevenLabs.TimeoutSeconds,
				})
				engine := classify.NewEngine(cfg, store, openaiClient, elevenClient, logger)
				pipeline := ingest.NewPipeline(cfg, store,
					audio.NewFFmpegConverter(cfg.FFmpegBinary()), openaiClient, engine, logger)

				if err := pipeline.RunOnce(cmd.Context()); err != nil {
					return fmt.Errorf("ingest sweep: %w", err)
				}
				fmt.Fprintln(cmd.OutOrStdout(), "Ingest sweep complete")
				return nil
			})
		},
	}
}
