package catalog_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"memoria/internal/catalog"
	"memoria/internal/services"
	"memoria/internal/testsupport"
)

func TestCreateCategoryAssignsIDAndRoundTripsEmbedding(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	store := testsupport.MustOpenStore(t, cfg)

	ctx := context.Background()
	created, err := store.CreateCategory(ctx, "Garden Notes", []float32{0.25, -1, 3.5})
	if err != nil {
		t.Fatalf("CreateCategory failed: %v", err)
	}
	if created.ID == 0 {
		t.Fatal("expected category ID to be assigned")
	}
	if created.NameAudioPath != "" {
		t.Fatalf("expected empty audio path on creation, got %q", created.NameAudioPath)
	}

	fetched, err := store.GetCategory(ctx, created.ID)
	if err != nil {
		t.Fatalf("GetCategory failed: %v", err)
	}
	if fetched == nil || fetched.Name != "Garden Notes" {
		t.Fatalf("unexpected fetched category: %#v", fetched)
	}
	if len(fetched.Embedding) != 3 || fetched.Embedding[0] != 0.25 || fetched.Embedding[1] != -1 || fetched.Embedding[2] != 3.5 {
		t.Fatalf("embedding did not round-trip: %v", fetched.Embedding)
	}
}

func TestSetCategoryAudioPath(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	store := testsupport.MustOpenStore(t, cfg)

	ctx := context.Background()
	category := testsupport.NewCategory(t, store, "Travel", []float32{1, 0})

	if err := store.SetCategoryAudioPath(ctx, category.ID, "/audio/travel.mp3"); err != nil {
		t.Fatalf("SetCategoryAudioPath failed: %v", err)
	}
	fetched, err := store.GetCategory(ctx, category.ID)
	if err != nil {
		t.Fatalf("GetCategory failed: %v", err)
	}
	if fetched.NameAudioPath != "/audio/travel.mp3" {
		t.Fatalf("unexpected audio path: %q", fetched.NameAudioPath)
	}

	err = store.SetCategoryAudioPath(ctx, 9999, "/audio/none.mp3")
	if !errors.Is(err, services.ErrNotFound) {
		t.Fatalf("expected not-found error, got %v", err)
	}
}

func TestListCategoriesOrderedByID(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	store := testsupport.MustOpenStore(t, cfg)

	first := testsupport.NewCategory(t, store, "First", []float32{1})
	second := testsupport.NewCategory(t, store, "Second", []float32{2})

	categories, err := store.ListCategories(context.Background())
	if err != nil {
		t.Fatalf("ListCategories failed: %v", err)
	}
	if len(categories) != 2 {
		t.Fatalf("expected 2 categories, got %d", len(categories))
	}
	if categories[0].ID != first.ID || categories[1].ID != second.ID {
		t.Fatalf("categories out of order: %#v", categories)
	}
}

func TestInsertRecordingRequiresExistingCategory(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	store := testsupport.MustOpenStore(t, cfg)

	_, err := store.InsertRecording(context.Background(), &catalog.Recording{
		Transcription: "orphan",
		Embedding:     []float32{1},
		CategoryID:    42,
		FilePath:      "/audio/orphan.m4a",
	})
	if !errors.Is(err, services.ErrNotFound) {
		t.Fatalf("expected not-found error, got %v", err)
	}
}

func TestRecordingsByCategoryAndYear(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	store := testsupport.MustOpenStore(t, cfg)

	ctx := context.Background()
	category := testsupport.NewCategory(t, store, "Memories", []float32{1})
	other := testsupport.NewCategory(t, store, "Other", []float32{0})

	dates := []time.Time{
		time.Date(2023, 3, 1, 10, 0, 0, 0, time.Local),
		time.Date(2023, 7, 9, 18, 30, 0, 0, time.Local),
		time.Date(2024, 1, 2, 8, 0, 0, 0, time.Local),
	}
	for i, date := range dates {
		target := category.ID
		if i == 2 {
			target = other.ID
		}
		if _, err := store.InsertRecording(ctx, &catalog.Recording{
			Transcription: "note",
			Embedding:     []float32{float32(i)},
			CreationDate:  date,
			CategoryID:    target,
			FilePath:      "/audio/note.m4a",
		}); err != nil {
			t.Fatalf("InsertRecording failed: %v", err)
		}
	}

	byCategory, err := store.RecordingsByCategory(ctx, category.ID)
	if err != nil {
		t.Fatalf("RecordingsByCategory failed: %v", err)
	}
	if len(byCategory) != 2 {
		t.Fatalf("expected 2 recordings in category, got %d", len(byCategory))
	}
	if byCategory[0].ID >= byCategory[1].ID {
		t.Fatal("recordings not in ascending id order")
	}

	byYear, err := store.RecordingsByYear(ctx, 2023)
	if err != nil {
		t.Fatalf("RecordingsByYear failed: %v", err)
	}
	if len(byYear) != 2 {
		t.Fatalf("expected 2 recordings for 2023, got %d", len(byYear))
	}
	for _, rec := range byYear {
		if rec.Year() != 2023 {
			t.Fatalf("unexpected year %d", rec.Year())
		}
	}
}

func TestUpdateRecordingCategory(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	store := testsupport.MustOpenStore(t, cfg)

	ctx := context.Background()
	from := testsupport.NewCategory(t, store, "From", []float32{1})
	to := testsupport.NewCategory(t, store, "To", []float32{2})

	rec, err := store.InsertRecording(ctx, &catalog.Recording{
		Transcription: "moving note",
		Embedding:     []float32{1},
		CategoryID:    from.ID,
		FilePath:      "/audio/move.m4a",
	})
	if err != nil {
		t.Fatalf("InsertRecording failed: %v", err)
	}

	if err := store.UpdateRecordingCategory(ctx, rec.ID, to.ID); err != nil {
		t.Fatalf("UpdateRecordingCategory failed: %v", err)
	}
	moved, err := store.GetRecording(ctx, rec.ID)
	if err != nil {
		t.Fatalf("GetRecording failed: %v", err)
	}
	if moved.CategoryID != to.ID {
		t.Fatalf("expected category %d, got %d", to.ID, moved.CategoryID)
	}

	if err := store.UpdateRecordingCategory(ctx, rec.ID, 9999); !errors.Is(err, services.ErrNotFound) {
		t.Fatalf("expected not-found error, got %v", err)
	}
}

func TestProcessedFileMarkers(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	store := testsupport.MustOpenStore(t, cfg)

	ctx := context.Background()
	processed, err := store.IsFileProcessed(ctx, "Morning_Note.M4A")
	if err != nil {
		t.Fatalf("IsFileProcessed failed: %v", err)
	}
	if processed {
		t.Fatal("expected file to be unprocessed")
	}

	if err := store.MarkFileProcessed(ctx, "Morning_Note.M4A"); err != nil {
		t.Fatalf("MarkFileProcessed failed: %v", err)
	}

	// Lookup is case-insensitive via normalization.
	processed, err = store.IsFileProcessed(ctx, "morning_note.m4a")
	if err != nil {
		t.Fatalf("IsFileProcessed failed: %v", err)
	}
	if !processed {
		t.Fatal("expected file to be processed")
	}

	// Double-marking is harmless.
	if err := store.MarkFileProcessed(ctx, "morning_note.m4a"); err != nil {
		t.Fatalf("second MarkFileProcessed failed: %v", err)
	}
	names, err := store.ProcessedFiles(ctx)
	if err != nil {
		t.Fatalf("ProcessedFiles failed: %v", err)
	}
	if len(names) != 1 || names[0] != "morning_note.m4a" {
		t.Fatalf("unexpected markers: %v", names)
	}
}
