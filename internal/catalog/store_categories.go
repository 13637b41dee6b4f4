package catalog

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"memoria/internal/services"
)

// CreateCategory inserts a new category and returns it with its assigned id.
// The spoken-name audio path starts empty; callers fill it in with
// SetCategoryAudioPath once synthesis succeeds.
func (s *Store) CreateCategory(ctx context.Context, name string, embedding []float32) (*Category, error) {
	if name == "" {
		return nil, services.Wrap(services.ErrValidation, "catalog", "create category", "name required", nil)
	}
	if len(embedding) == 0 {
		return nil, services.Wrap(services.ErrValidation, "catalog", "create category", "embedding required", nil)
	}

	res, err := s.execWithRetry(
		ctx,
		`INSERT INTO categories (name, embedding, name_audio_path) VALUES (?, ?, NULL)`,
		name,
		encodeEmbedding(embedding),
	)
	if err != nil {
		return nil, fmt.Errorf("insert category: %w", err)
	}

	id, err := res.LastInsertId()
	if err != nil {
		return nil, fmt.Errorf("last insert id: %w", err)
	}

	return s.GetCategory(ctx, id)
}

// SetCategoryAudioPath records the synthesized spoken-name asset for a category.
func (s *Store) SetCategoryAudioPath(ctx context.Context, id int64, audioPath string) error {
	res, err := s.execWithRetry(
		ctx,
		`UPDATE categories SET name_audio_path = ? WHERE id = ?`,
		audioPath,
		id,
	)
	if err != nil {
		return fmt.Errorf("update category audio path: %w", err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("rows affected: %w", err)
	}
	if affected == 0 {
		return services.Wrap(services.ErrNotFound, "catalog", "set audio path", fmt.Sprintf("category %d", id), nil)
	}
	return nil
}

// GetCategory fetches a category by identifier. Returns nil when absent.
func (s *Store) GetCategory(ctx context.Context, id int64) (*Category, error) {
	row := s.db.QueryRowContext(
		ctx,
		`SELECT id, name, embedding, name_audio_path FROM categories WHERE id = ?`,
		id,
	)
	category, err := scanCategory(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get category: %w", err)
	}
	return category, nil
}

// ListCategories returns every category in ascending id order. The ordering is
// part of the categorization contract: classification scans first to last.
func (s *Store) ListCategories(ctx context.Context) ([]Category, error) {
	rows, err := s.db.QueryContext(
		ctx,
		`SELECT id, name, embedding, name_audio_path FROM categories ORDER BY id ASC`,
	)
	if err != nil {
		return nil, fmt.Errorf("list categories: %w", err)
	}
	defer rows.Close()

	var categories []Category
	for rows.Next() {
		category, err := scanCategory(rows)
		if err != nil {
			return nil, fmt.Errorf("scan category: %w", err)
		}
		categories = append(categories, *category)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate categories: %w", err)
	}
	return categories, nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanCategory(row rowScanner) (*Category, error) {
	var (
		category  Category
		blob      []byte
		audioPath sql.NullString
	)
	if err := row.Scan(&category.ID, &category.Name, &blob, &audioPath); err != nil {
		return nil, err
	}
	embedding, err := decodeEmbedding(blob)
	if err != nil {
		return nil, err
	}
	category.Embedding = embedding
	if audioPath.Valid {
		category.NameAudioPath = audioPath.String
	}
	return &category, nil
}
