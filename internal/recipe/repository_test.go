package recipe

import (
	"context"
	"path/filepath"
	"testing"

	"mealgrid/internal/database"
)

func testRepo(t *testing.T) *Repository {
	t.Helper()
	db, err := database.NewDB(filepath.Join(t.TempDir(), "test.db"))
	if err != nil {
		t.Fatalf("Failed to open test database: %v", err)
	}
	t.Cleanup(func() { db.Close() })
	return NewRepository(db.SQL)
}

func TestRepositorySaveAndGet(t *testing.T) {
	repo := testRepo(t)
	ctx := context.Background()

	rec := Recipe{
		ID:          "r1",
		Title:       "Carbonara",
		Ingredients: []string{"pasta", "eggs", "guanciale"},
		CookingTime: 25,
		Servings:    2,
		SourceType:  "manual",
	}
	if err := repo.Save(ctx, "alice", rec); err != nil {
		t.Fatalf("Save failed: %v", err)
	}

	got, err := repo.Get(ctx, "r1")
	if err != nil {
		t.Fatalf("Get failed: %v", err)
	}
	if got == nil {
		t.Fatal("Expected the saved recipe back")
	}
	if got.Title != "Carbonara" || len(got.Ingredients) != 3 {
		t.Errorf("Recipe did not round trip: %+v", got)
	}
}

func TestRepositorySaveUpsertsByID(t *testing.T) {
	repo := testRepo(t)
	ctx := context.Background()

	rec := Recipe{ID: "r1", Title: "Stew", Ingredients: []string{"beef"}}
	if err := repo.Save(ctx, "alice", rec); err != nil {
		t.Fatalf("Save failed: %v", err)
	}
	rec.Ingredients = []string{"beef", "carrots"}
	if err := repo.Save(ctx, "alice", rec); err != nil {
		t.Fatalf("Second save failed: %v", err)
	}

	got, _ := repo.Get(ctx, "r1")
	if len(got.Ingredients) != 2 {
		t.Errorf("Expected the updated ingredients, got %v", got.Ingredients)
	}
	count, err := repo.Count(ctx, "alice")
	if err != nil {
		t.Fatalf("Count failed: %v", err)
	}
	if count != 1 {
		t.Errorf("Expected 1 recipe after upsert, got %d", count)
	}
}

func TestRepositorySaveRequiresID(t *testing.T) {
	repo := testRepo(t)
	if err := repo.Save(context.Background(), "alice", Recipe{Title: "No ID"}); err == nil {
		t.Fatal("Expected saving a recipe without an ID to fail")
	}
}

func TestRepositoryGetMissing(t *testing.T) {
	repo := testRepo(t)
	got, err := repo.Get(context.Background(), "nope")
	if err != nil {
		t.Fatalf("Get failed: %v", err)
	}
	if got != nil {
		t.Errorf("Expected nil for a missing recipe, got %+v", got)
	}
}

func TestRepositorySearch(t *testing.T) {
	repo := testRepo(t)
	ctx := context.Background()

	recipes := []Recipe{
		{ID: "r1", Title: "Quick Pasta", Ingredients: []string{"pasta", "garlic"}, CookingTime: 15},
		{ID: "r2", Title: "Slow Ragu", Ingredients: []string{"beef", "pasta"}, CookingTime: 180},
		{ID: "r3", Title: "Green Salad", Ingredients: []string{"lettuce"}, CookingTime: 10},
	}
	for _, rec := range recipes {
		if err := repo.Save(ctx, "alice", rec); err != nil {
			t.Fatalf("Save failed: %v", err)
		}
	}

	t.Run("by title substring", func(t *testing.T) {
		got, err := repo.Search(ctx, "alice", "pasta", 0)
		if err != nil {
			t.Fatalf("Search failed: %v", err)
		}
		if len(got) != 2 {
			t.Errorf("Expected 2 matches for pasta, got %d", len(got))
		}
	})

	t.Run("capped by cooking time", func(t *testing.T) {
		got, err := repo.Search(ctx, "alice", "pasta", 30)
		if err != nil {
			t.Fatalf("Search failed: %v", err)
		}
		if len(got) != 1 || got[0].ID != "r1" {
			t.Errorf("Expected only the quick pasta, got %+v", got)
		}
	})

	t.Run("other users see nothing", func(t *testing.T) {
		got, err := repo.Search(ctx, "bob", "pasta", 0)
		if err != nil {
			t.Fatalf("Search failed: %v", err)
		}
		if len(got) != 0 {
			t.Errorf("Expected no matches for another user, got %d", len(got))
		}
	})
}

func TestRepositoryDelete(t *testing.T) {
	repo := testRepo(t)
	ctx := context.Background()

	if err := repo.Save(ctx, "alice", Recipe{ID: "r1", Title: "Unwanted"}); err != nil {
		t.Fatalf("Save failed: %v", err)
	}
	if err := repo.Delete(ctx, "r1"); err != nil {
		t.Fatalf("Delete failed: %v", err)
	}
	got, _ := repo.Get(ctx, "r1")
	if got != nil {
		t.Error("Expected the recipe to be gone after Delete")
	}
}
