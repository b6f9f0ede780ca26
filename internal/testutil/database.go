// Package testutil provides shared test helpers.
package testutil

import (
	"context"
	"testing"

	"github.com/thetombrider/Personal-Finance-Hub-sub001/internal/model"
	"github.com/thetombrider/Personal-Finance-Hub-sub001/internal/storage"
)

// SetupTestDB creates a migrated in-memory SQLite store with cleanup
// registered on the test.
func SetupTestDB(t *testing.T) *storage.SQLiteStorage {
	t.Helper()

	store, err := storage.NewSQLiteStorage(":memory:")
	if err != nil {
		t.Fatalf("failed to create test database: %v", err)
	}

	if err := store.Migrate(context.Background()); err != nil {
		t.Fatalf("failed to run migrations: %v", err)
	}

	t.Cleanup(func() {
		_ = store.Close()
	})

	return store
}

// SeedCategories creates the given categories and returns them keyed by name.
func SeedCategories(t *testing.T, store *storage.SQLiteStorage, names ...string) map[string]model.Category {
	t.Helper()

	ctx := context.Background()
	categories := make(map[string]model.Category, len(names))
	for _, name := range names {
		cat, err := store.CreateCategory(ctx, name, model.CategoryTypeExpense)
		if err != nil {
			t.Fatalf("failed to seed category %q: %v", name, err)
		}
		categories[name] = *cat
	}
	return categories
}

// SeedAccount creates a minimal account for tests.
func SeedAccount(t *testing.T, store *storage.SQLiteStorage, id string) model.Account {
	t.Helper()

	account := model.Account{ID: id, Name: id, FeedProvider: "test", FeedItemID: "item-" + id}
	if err := store.CreateAccount(context.Background(), &account); err != nil {
		t.Fatalf("failed to seed account %q: %v", id, err)
	}
	return account
}
