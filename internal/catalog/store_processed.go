package catalog

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
)

// IsFileProcessed reports whether the normalized filename has been ingested.
func (s *Store) IsFileProcessed(ctx context.Context, fileName string) (bool, error) {
	var one int
	err := s.db.QueryRowContext(
		ctx,
		`SELECT 1 FROM processed_files WHERE file_name = ?`,
		NormalizeFileName(fileName),
	).Scan(&one)
	if err == nil {
		return true, nil
	}
	if errors.Is(err, sql.ErrNoRows) {
		return false, nil
	}
	return false, fmt.Errorf("check processed file: %w", err)
}

// MarkFileProcessed records the normalized filename as ingested. Marking the
// same file twice is harmless; ingestion is at-least-once and the marker is
// written last.
func (s *Store) MarkFileProcessed(ctx context.Context, fileName string) error {
	_, err := s.execWithRetry(
		ctx,
		`INSERT OR IGNORE INTO processed_files (file_name) VALUES (?)`,
		NormalizeFileName(fileName),
	)
	if err != nil {
		return fmt.Errorf("mark file processed: %w", err)
	}
	return nil
}

// ProcessedFiles returns every marker, for diagnostics.
func (s *Store) ProcessedFiles(ctx context.Context) ([]string, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT file_name FROM processed_files ORDER BY file_name`)
	if err != nil {
		return nil, fmt.Errorf("list processed files: %w", err)
	}
	defer rows.Close()

	var names []string
	for rows.Next() {
		var name string
		if err := rows.Scan(&name); err != nil {
			return nil, fmt.Errorf("scan processed file: %w", err)
		}
		names = append(names, name)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate processed files: %w", err)
	}
	return names, nil
}
