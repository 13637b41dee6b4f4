package ingest

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"memoria/internal/audio"
	"memoria/internal/catalog"
	"memoria/internal/config"
	"memoria/internal/logging"
)

// Transcriber turns a staged recording into text and text into an embedding.
type Transcriber interface {
	Transcribe(ctx context.Context, audioPath string) (string, error)
	Embed(ctx context.Context, text string) ([]float32, error)
}

// Classifier files an embedding under a category, creating one if needed.
type Classifier interface {
	Classify(ctx context.Context, transcription string, embedding []float32) (int64, error)
}

// Store is the slice of the catalog the pipeline writes to.
type Store interface {
	IsFileProcessed(ctx context.Context, fileName string) (bool, error)
	MarkFileProcessed(ctx context.Context, fileName string) error
	InsertRecording(ctx context.Context, recording *catalog.Recording) (*catalog.Recording, error)
}

// Pipeline moves staged captures into the permanent library: WAV takes are
// converted to M4A, then each unprocessed M4A is transcribed, embedded,
// categorized, and cataloged. A failure on one file never blocks the rest.
type Pipeline struct {
	cfg         *config.Config
	store       Store
	converter   audio.Converter
	transcriber Transcriber
	classifier  Classifier
	logger      *slog.Logger
}

func NewPipeline(cfg *config.Config, store Store, converter audio.Converter, transcriber Transcriber, classifier Classifier, logger *slog.Logger) *Pipeline {
	if logger == nil {
		logger = logging.NewNop()
	}
	return &Pipeline{
		cfg:         cfg,
		store:       store,
		converter:   converter,
		transcriber: transcriber,
		classifier:  classifier,
		logger:      logging.NewComponentLogger(logger, "ingest"),
	}
}

// Run sweeps on the configured interval until the context is cancelled. An
// initial sweep runs immediately.
func (p *Pipeline) Run(ctx context.Context) error {
	interval := time.Duration(p.cfg.Ingest.ScanInterval) * time.Second
	if interval <= 0 {
		interval = 30 * time.Second
	}
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		if err := p.RunOnce(ctx); err != nil {
			if ctx.Err() != nil {
				return ctx.Err()
			}
			p.logger.Error("ingest sweep failed", logging.Error(err))
		}
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
		}
	}
}

// RunOnce performs a single sweep: convert staged WAV takes, then process
// every recording not yet cataloged.
func (p *Pipeline) RunOnce(ctx context.Context) error {
	if err := p.convertStaged(ctx); err != nil {
		return err
	}
	return p.processRecordings(ctx)
}

// convertStaged transcodes each staged WAV into the recordings directory and
// removes the WAV once the M4A exists.
func (p *Pipeline) convertStaged(ctx context.Context) error {
	staged, err := listByExtension(p.cfg.Paths.StagingDir, ".wav")
	if err != nil {
		return fmt.Errorf("scan staging dir: %w", err)
	}
	for _, src := range staged {
		if ctx.Err() != nil {
			return ctx.Err()
		}
		base := strings.TrimSuffix(filepath.Base(src), filepath.Ext(src))
		dst := filepath.Join(p.cfg.Paths.RecordingsDir,
			fmt.Sprintf("%s_%d.m4a", base, time.Now().Unix()))
		if err := p.converter.Convert(ctx, src, dst); err != nil {
			p.logger.Error("conversion failed, keeping staged take",
				logging.String("path", src),
				logging.Error(err))
			continue
		}
		if err := os.Remove(src); err != nil {
			p.logger.Warn("staged take removal failed",
				logging.String("path", src),
				logging.Error(err))
		}
		p.logger.Info("take converted",
			logging.String("source", src),
			logging.String("destination", dst))
	}
	return nil
}

func (p *Pipeline) processRecordings(ctx context.Context) error {
	recordings, err := listByExtension(p.cfg.Paths.RecordingsDir, ".m4a")
	if err != nil {
		return fmt.Errorf("scan recordings dir: %w", err)
	}
	for _, path := range recordings {
		if ctx.Err() != nil {
			return ctx.Err()
		}
		marker := catalog.NormalizeFileName(filepath.Base(path))
		processed, err := p.store.IsFileProcessed(ctx, marker)
		if err != nil {
			return fmt.Errorf("check processed marker: %w", err)
		}
		if processed {
			continue
		}
		if err := p.processOne(ctx, path, marker); err != nil {
			if ctx.Err() != nil {
				return ctx.Err()
			}
			p.logger.Error("recording left for next sweep",
				logging.String("path", path),
				logging.Error(err))
		}
	}
	return nil
}

// processOne catalogs a single recording. The processed marker is written
// last so a failure anywhere leaves the file eligible for a retry.
func (p *Pipeline) processOne(ctx context.Context, path, marker string) error {
	transcription, err := p.transcriber.Transcribe(ctx, path)
	if err != nil {
		return fmt.Errorf("transcribe: %w", err)
	}
	embedding, err := p.transcriber.Embed(ctx, transcription)
	if err != nil {
		return fmt.Errorf("embed: %w", err)
	}
	categoryID, err := p.classifier.Classify(ctx, transcription, embedding)
	if err != nil {
		return fmt.Errorf("classify: %w", err)
	}

	recording := &catalog.Recording{
		Transcription: transcription,
		Embedding:     embedding,
		CategoryID:    categoryID,
		FilePath:      path,
	}
	if info, err := os.Stat(path); err == nil {
		recording.CreationDate = info.ModTime()
	}
	stored, err := p.store.InsertRecording(ctx, recording)
	if err != nil {
		return fmt.Errorf("insert recording: %w", err)
	}
	if err := p.store.MarkFileProcessed(ctx, marker); err != nil {
		return fmt.Errorf("mark processed: %w", err)
	}
	p.logger.Info("recording cataloged",
		logging.Int64("recording_id", stored.ID),
		logging.Int64("category_id", categoryID),
		logging.String("path", path))
	return nil
}

func listByExtension(dir, ext string) ([]string, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, err
	}
	var paths []string
	for _, entry := range entries {
		if entry.IsDir() {
			continue
		}
		if !strings.EqualFold(filepath.Ext(entry.Name()), ext) {
			continue
		}
		paths = append(paths, filepath.Join(dir, entry.Name()))
	}
	sort.Strings(paths)
	return paths, nil
}
