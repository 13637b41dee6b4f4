package testsupport

import (
	"context"
	"testing"

	"memoria/internal/catalog"
	"memoria/internal/config"
)

// MustOpenStore opens a catalog.Store for tests and registers cleanup.
func MustOpenStore(t testing.TB, cfg *config.Config) *catalog.Store {
	t.Helper()

	store, err := catalog.Open(cfg)
	if err != nil {
		t.Fatalf("catalog.Open: %v", err)
	}
	t.Cleanup(func() {
		store.Close()
	})
	return store
}

// NewCategory creates a category for tests using the provided store.
func NewCategory(t testing.TB, store *catalog.Store, name string, embedding []float32) *catalog.Category {
	t.Helper()

	category, err := store.CreateCategory(context.Background(), name, embedding)
	if err != nil {
		t.Fatalf("store.CreateCategory: %v", err)
	}
	return category
}
