package catalog

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"memoria/internal/services"
)

// InsertRecording persists a new recording and returns it with its assigned
// id. The referenced category must exist. A zero CreationDate is replaced
// with the current time.
func (s *Store) InsertRecording(ctx context.Context, rec *Recording) (*Recording, error) {
	if rec == nil {
		return nil, errors.New("recording is nil")
	}
	if rec.CategoryID == 0 {
		return nil, services.Wrap(services.ErrValidation, "catalog", "insert recording", "category id required", nil)
	}
	if rec.FilePath == "" {
		return nil, services.Wrap(services.ErrValidation, "catalog", "insert recording", "file path required", nil)
	}

	category, err := s.GetCategory(ctx, rec.CategoryID)
	if err != nil {
		return nil, err
	}
	if category == nil {
		return nil, services.Wrap(services.ErrNotFound, "catalog", "insert recording", fmt.Sprintf("category %d", rec.CategoryID), nil)
	}

	creation := rec.CreationDate
	if creation.IsZero() {
		creation = time.Now()
	}

	res, err := s.execWithRetry(
		ctx,
		`INSERT INTO recordings (transcription, embedding, creation_date, category_id, file_path)
         VALUES (?, ?, ?, ?, ?)`,
		rec.Transcription,
		encodeEmbedding(rec.Embedding),
		creation.Format(timeLayout),
		rec.CategoryID,
		rec.FilePath,
	)
	if err != nil {
		return nil, fmt.Errorf("insert recording: %w", err)
	}

	id, err := res.LastInsertId()
	if err != nil {
		return nil, fmt.Errorf("last insert id: %w", err)
	}
	return s.GetRecording(ctx, id)
}

// GetRecording fetches a recording by identifier. Returns nil when absent.
func (s *Store) GetRecording(ctx context.Context, id int64) (*Recording, error) {
	row := s.db.QueryRowContext(ctx, `SELECT `+recordingColumns+` FROM recordings WHERE id = ?`, id)
	rec, err := scanRecording(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get recording: %w", err)
	}
	return rec, nil
}

// RecordingsByCategory returns the recordings filed under a category in
// ascending id order. Track playback depends on this ordering being stable.
func (s *Store) RecordingsByCategory(ctx context.Context, categoryID int64) ([]Recording, error) {
	return s.queryRecordings(
		ctx,
		`SELECT `+recordingColumns+` FROM recordings WHERE category_id = ? ORDER BY id ASC`,
		categoryID,
	)
}

// RecordingsByYear returns the recordings whose creation year matches, in
// ascending id order.
func (s *Store) RecordingsByYear(ctx context.Context, year int) ([]Recording, error) {
	return s.queryRecordings(
		ctx,
		`SELECT `+recordingColumns+` FROM recordings WHERE strftime('%Y', creation_date) = ? ORDER BY id ASC`,
		fmt.Sprintf("%04d", year),
	)
}

// ListRecordings returns every recording in ascending id order.
func (s *Store) ListRecordings(ctx context.Context) ([]Recording, error) {
	return s.queryRecordings(ctx, `SELECT `+recordingColumns+` FROM recordings ORDER BY id ASC`)
}

// UpdateRecordingCategory reassigns a recording to another existing category.
// This is the administrative refile operation; normal ingestion never touches
// a recording's category after insertion.
func (s *Store) UpdateRecordingCategory(ctx context.Context, recordingID, categoryID int64) error {
	category, err := s.GetCategory(ctx, categoryID)
	if err != nil {
		return err
	}
	if category == nil {
		return services.Wrap(services.ErrNotFound, "catalog", "reassign recording", fmt.Sprintf("category %d", categoryID), nil)
	}

	res, err := s.execWithRetry(
		ctx,
		`UPDATE recordings SET category_id = ? WHERE id = ?`,
		categoryID,
		recordingID,
	)
	if err != nil {
		return fmt.Errorf("update recording category: %w", err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("rows affected: %w", err)
	}
	if affected == 0 {
		return services.Wrap(services.ErrNotFound, "catalog", "reassign recording", fmt.Sprintf("recording %d", recordingID), nil)
	}
	return nil
}

const recordingColumns = `id, transcription, embedding, creation_date, category_id, file_path`

func (s *Store) queryRecordings(ctx context.Context, query string, args ...any) ([]Recording, error) {
	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("query recordings: %w", err)
	}
	defer rows.Close()

	var recordings []Recording
	for rows.Next() {
		rec, err := scanRecording(rows)
		if err != nil {
			return nil, fmt.Errorf("scan recording: %w", err)
		}
		recordings = append(recordings, *rec)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate recordings: %w", err)
	}
	return recordings, nil
}

func scanRecording(row rowScanner) (*Recording, error) {
	var (
		rec      Recording
		blob     []byte
		creation string
	)
	if err := row.Scan(&rec.ID, &rec.Transcription, &blob, &creation, &rec.CategoryID, &rec.FilePath); err != nil {
		return nil, err
	}
	embedding, err := decodeEmbedding(blob)
	if err != nil {
		return nil, err
	}
	rec.Embedding = embedding
	parsed, err := time.ParseInLocation(timeLayout, creation, time.Local)
	if err != nil {
		return nil, fmt.Errorf("parse creation date %q: %w", creation, err)
	}
	rec.CreationDate = parsed
	return &rec, nil
}
