package plan

import (
	"testing"
	"time"
)

func TestWeekKeyFor(t *testing.T) {
	// 2026-08-24 is a Monday.
	cases := []struct {
		name string
		date time.Time
		want WeekKey
	}{
		{"monday maps to itself", time.Date(2026, 8, 24, 0, 0, 0, 0, time.UTC), "2026-08-24"},
		{"midweek maps back to monday", time.Date(2026, 8, 26, 15, 30, 0, 0, time.UTC), "2026-08-24"},
		{"sunday belongs to the preceding monday", time.Date(2026, 8, 30, 23, 59, 0, 0, time.UTC), "2026-08-24"},
		{"next monday starts a new week", time.Date(2026, 8, 31, 0, 0, 0, 0, time.UTC), "2026-08-31"},
		{"crosses a month boundary", time.Date(2026, 9, 1, 0, 0, 0, 0, time.UTC), "2026-08-31"},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			got := WeekKeyFor(tc.date)
			if got != tc.want {
				t.Errorf("WeekKeyFor(%s) = %s, want %s", tc.date.Format("2006-01-02"), got, tc.want)
			}
		})
	}
}

func TestWeekKeyForSameWeekIdenticalKeys(t *testing.T) {
	monday := time.Date(2026, 8, 24, 0, 0, 0, 0, time.UTC)
	first := WeekKeyFor(monday)
	for i := 1; i < 7; i++ {
		key := WeekKeyFor(monday.AddDate(0, 0, i))
		if key != first {
			t.Errorf("Day %d of the week produced key %s, want %s", i, key, first)
		}
	}
}

func TestParseWeekKey(t *testing.T) {
	t.Run("valid monday passes through", func(t *testing.T) {
		key, err := ParseWeekKey("2026-08-24")
		if err != nil {
			t.Fatalf("ParseWeekKey failed: %v", err)
		}
		if key != "2026-08-24" {
			t.Errorf("Expected 2026-08-24, got %s", key)
		}
	})

	t.Run("non-monday is re-anchored", func(t *testing.T) {
		key, err := ParseWeekKey("2026-08-26")
		if err != nil {
			t.Fatalf("ParseWeekKey failed: %v", err)
		}
		if key != "2026-08-24" {
			t.Errorf("Expected re-anchored key 2026-08-24, got %s", key)
		}
	})

	t.Run("garbage is rejected", func(t *testing.T) {
		if _, err := ParseWeekKey("not-a-date"); err == nil {
			t.Error("Expected an error for a malformed week key")
		}
	})
}

func TestWeekKeyMonday(t *testing.T) {
	key := WeekKey("2026-08-24")
	m := key.Monday()
	if m.Weekday() != time.Monday {
		t.Errorf("Expected Monday, got %s", m.Weekday())
	}
	if got := m.Format("2006-01-02"); got != "2026-08-24" {
		t.Errorf("Expected 2026-08-24, got %s", got)
	}
}
