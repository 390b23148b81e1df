package metrics

import (
	"path/filepath"
	"testing"
	"time"

	"mealgrid/internal/database"
)

func testStore(t *testing.T) *Store {
	t.Helper()
	db, err := database.NewDB(filepath.Join(t.TempDir(), "test.db"))
	if err != nil {
		t.Fatalf("Failed to open test database: %v", err)
	}
	t.Cleanup(func() { db.Close() })
	return NewStore(db.SQL)
}

func TestRecordAndDailyUsage(t *testing.T) {
	store := testStore(t)

	metricsToRecord := []ExecutionMetric{
		{Operation: "shopping_list", Model: "mock", ItemCount: 5, LatencyMS: 120},
		{Operation: "shopping_list", Model: "mock", ItemCount: 3, LatencyMS: 80},
	}
	for _, m := range metricsToRecord {
		if err := store.Record(m); err != nil {
			t.Fatalf("Record failed: %v", err)
		}
	}

	usage, err := store.GetDailyUsage(7)
	if err != nil {
		t.Fatalf("GetDailyUsage failed: %v", err)
	}
	if len(usage) != 1 {
		t.Fatalf("Expected usage for 1 day, got %d", len(usage))
	}
	if usage[0].TotalCalls != 2 {
		t.Errorf("Expected 2 calls, got %d", usage[0].TotalCalls)
	}
	if usage[0].TotalItems != 8 {
		t.Errorf("Expected 8 total items, got %d", usage[0].TotalItems)
	}
}

func TestCleanupRemovesOldRecords(t *testing.T) {
	store := testStore(t)

	old := ExecutionMetric{
		Operation: "shopping_list",
		Model:     "mock",
		ItemCount: 1,
		Timestamp: time.Now().UTC().AddDate(0, 0, -60),
	}
	recent := ExecutionMetric{Operation: "shopping_list", Model: "mock", ItemCount: 2}
	if err := store.Record(old); err != nil {
		t.Fatalf("Record failed: %v", err)
	}
	if err := store.Record(recent); err != nil {
		t.Fatalf("Record failed: %v", err)
	}

	if err := store.Cleanup(30); err != nil {
		t.Fatalf("Cleanup failed: %v", err)
	}

	usage, err := store.GetDailyUsage(90)
	if err != nil {
		t.Fatalf("GetDailyUsage failed: %v", err)
	}
	if len(usage) != 1 {
		t.Fatalf("Expected only the recent day to remain, got %d days", len(usage))
	}
	if usage[0].TotalItems != 2 {
		t.Errorf("Expected the recent record to survive, got %d items", usage[0].TotalItems)
	}
}
