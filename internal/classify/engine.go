package classify

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"

	"memoria/internal/catalog"
	"memoria/internal/config"
	"memoria/internal/logging"
	"memoria/internal/services"
)

// Namer suggests a short human-readable name for a transcription.
type Namer interface {
	SuggestName(ctx context.Context, transcription string) (string, error)
}

// Synthesizer renders text to speech for category announcements.
type Synthesizer interface {
	Enabled() bool
	Synthesize(ctx context.Context, text string) ([]byte, error)
}

// CatalogStore is the slice of the store the engine needs.
type CatalogStore interface {
	ListCategories(ctx context.Context) ([]catalog.Category, error)
	CreateCategory(ctx context.Context, name string, embedding []float32) (*catalog.Category, error)
	SetCategoryAudioPath(ctx context.Context, id int64, path string) error
}

// Engine assigns recordings to categories by embedding similarity. When no
// existing category is close enough it mints one: a suggested name, a fresh
// row, and a spoken announcement clip.
type Engine struct {
	cfg         *config.Config
	store       CatalogStore
	namer       Namer
	synthesizer Synthesizer
	logger      *slog.Logger
}

func NewEngine(cfg *config.Config, store CatalogStore, namer Namer, synthesizer Synthesizer, logger *slog.Logger) *Engine {
	if logger == nil {
		logger = logging.NewNop()
	}
	return &Engine{
		cfg:         cfg,
		store:       store,
		namer:       namer,
		synthesizer: synthesizer,
		logger:      logging.NewComponentLogger(logger, "classify"),
	}
}

// Classify returns the id of the category the embedding belongs to. The
// oldest category whose similarity clears the threshold wins; otherwise a
// new category is created from the transcription.
func (e *Engine) Classify(ctx context.Context, transcription string, embedding []float32) (int64, error) {
	categories, err := e.store.ListCategories(ctx)
	if err != nil {
		return 0, fmt.Errorf("list categories: %w", err)
	}

	for _, category := range categories {
		// A dimension mismatch means the catalog and the embedding model
		// disagree; creating a new category here would mask the corruption.
		similarity, err := CosineSimilarity(embedding, category.Embedding)
		if err != nil {
			return 0, fmt.Errorf("category %d: %w", category.ID, err)
		}
		if similarity >= e.cfg.Classify.SimilarityThreshold {
			e.logger.Info("matched existing category",
				logging.Int64("category_id", category.ID),
				logging.String("name", category.Name),
				logging.Float64("similarity", similarity))
			return category.ID, nil
		}
	}

	return e.createCategory(ctx, transcription, embedding)
}

func (e *Engine) createCategory(ctx context.Context, transcription string, embedding []float32) (int64, error) {
	suggested, err := e.namer.SuggestName(ctx, transcription)
	if err != nil {
		return 0, fmt.Errorf("suggest category name: %w", err)
	}
	name := normalizeName(suggested)
	if name == "" {
		return 0, services.Wrap(services.ErrExternalService, "classify", "suggest name",
			"model returned an empty name", nil)
	}

	category, err := e.store.CreateCategory(ctx, name, embedding)
	if err != nil {
		return 0, fmt.Errorf("create category: %w", err)
	}
	e.logger.Info("created category",
		logging.Int64("category_id", category.ID),
		logging.String("name", name))

	// The announcement clip is a nicety; the category stands without it.
	if err := e.synthesizeAnnouncement(ctx, category.ID, name); err != nil {
		e.logger.Warn("category announcement synthesis failed",
			logging.Int64("category_id", category.ID),
			logging.Error(err))
	}
	return category.ID, nil
}

func (e *Engine) synthesizeAnnouncement(ctx context.Context, categoryID int64, name string) error {
	if e.synthesizer == nil || !e.synthesizer.Enabled() {
		return nil
	}
	clip, err := e.synthesizer.Synthesize(ctx, name)
	if err != nil {
		return err
	}
	token := audioFileToken(name)
	if token == "" {
		token = fmt.Sprintf("category_%d", categoryID)
	}
	path := filepath.Join(e.cfg.Paths.CategoryAudioDir, token+".mp3")
	if err := os.WriteFile(path, clip, 0o644); err != nil {
		return fmt.Errorf("write announcement clip: %w", err)
	}
	if err := e.store.SetCategoryAudioPath(ctx, categoryID, path); err != nil {
		return fmt.Errorf("record announcement path: %w", err)
	}
	e.logger.Info("category announcement stored", logging.String("path", path))
	return nil
}
