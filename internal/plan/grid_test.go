package plan

import (
	"encoding/json"
	"testing"

	"mealgrid/internal/recipe"
)

func testAssignment(id, title string) MealAssignment {
	return MealAssignment{
		RecipeID: id,
		Recipe:   recipe.Recipe{ID: id, Title: title, Ingredients: []string{"salt"}},
	}
}

func TestWeekPlanSetAndOverwrite(t *testing.T) {
	p := NewWeekPlan()

	p.SetAssignment(Monday, Dinner, testAssignment("r1", "Pasta"))
	a, ok := p.Assignment(Monday, Dinner)
	if !ok {
		t.Fatal("Expected an assignment at monday/dinner")
	}
	if a.Recipe.Title != "Pasta" {
		t.Errorf("Expected Pasta, got %s", a.Recipe.Title)
	}
	if a.Day != Monday || a.Slot != Dinner {
		t.Errorf("Assignment cell fields not forced to the cell key: %s/%s", a.Day, a.Slot)
	}

	// Overwrite replaces, never merges.
	p.SetAssignment(Monday, Dinner, testAssignment("r2", "Salad"))
	a, _ = p.Assignment(Monday, Dinner)
	if a.Recipe.Title != "Salad" {
		t.Errorf("Expected overwrite to Salad, got %s", a.Recipe.Title)
	}
	if p.Len() != 1 {
		t.Errorf("Expected 1 assignment after overwrite, got %d", p.Len())
	}
}

func TestWeekPlanRemovePrunesEmptyDay(t *testing.T) {
	p := NewWeekPlan()
	p.SetAssignment(Tuesday, Lunch, testAssignment("r1", "Soup"))
	p.SetAssignment(Tuesday, Dinner, testAssignment("r2", "Stew"))

	if !p.RemoveAssignment(Tuesday, Lunch) {
		t.Fatal("Expected removal of an occupied cell to report true")
	}
	if p.DayIsEmpty(Tuesday) {
		t.Error("Tuesday still holds dinner, should not be empty")
	}

	if !p.RemoveAssignment(Tuesday, Dinner) {
		t.Fatal("Expected removal of an occupied cell to report true")
	}
	if !p.DayIsEmpty(Tuesday) {
		t.Error("Tuesday should be empty after removing its last slot")
	}
	if _, ok := p.Grid[Tuesday]; ok {
		t.Error("Empty day entry should be pruned from the grid")
	}
}

func TestWeekPlanRemoveAbsentIsNoOp(t *testing.T) {
	p := NewWeekPlan()
	if p.RemoveAssignment(Friday, Breakfast) {
		t.Error("Removing from an empty cell should report false")
	}
	p.SetAssignment(Friday, Lunch, testAssignment("r1", "Tacos"))
	if p.RemoveAssignment(Friday, Breakfast) {
		t.Error("Removing an unoccupied slot on an occupied day should report false")
	}
	if p.Len() != 1 {
		t.Errorf("No-op removal must not disturb other cells, got %d assignments", p.Len())
	}
}

func TestWeekPlanAllAssignmentsOrder(t *testing.T) {
	p := NewWeekPlan()
	// Insert out of order on purpose.
	p.SetAssignment(Sunday, Dinner, testAssignment("r4", "Roast"))
	p.SetAssignment(Monday, Dinner, testAssignment("r2", "Pasta"))
	p.SetAssignment(Monday, Breakfast, testAssignment("r1", "Eggs"))
	p.SetAssignment(Wednesday, Lunch, testAssignment("r3", "Wrap"))

	got := p.AllAssignments()
	wantTitles := []string{"Eggs", "Pasta", "Wrap", "Roast"}
	if len(got) != len(wantTitles) {
		t.Fatalf("Expected %d assignments, got %d", len(wantTitles), len(got))
	}
	for i, want := range wantTitles {
		if got[i].Recipe.Title != want {
			t.Errorf("Position %d: expected %s, got %s", i, want, got[i].Recipe.Title)
		}
	}
}

func TestWeekPlanClear(t *testing.T) {
	p := NewWeekPlan()
	p.SetAssignment(Monday, Lunch, testAssignment("r1", "Pasta"))
	p.SetAssignment(Saturday, Dinner, testAssignment("r2", "Pizza"))

	p.Clear()
	if p.Len() != 0 {
		t.Errorf("Expected empty plan after Clear, got %d assignments", p.Len())
	}
	if len(p.Grid) != 0 {
		t.Errorf("Expected no day entries after Clear, got %d", len(p.Grid))
	}
}

func TestWeekPlanCloneIsDeep(t *testing.T) {
	p := NewWeekPlan()
	p.SetAssignment(Monday, Dinner, testAssignment("r1", "Pasta"))

	cp := p.Clone()
	p.SetAssignment(Monday, Dinner, testAssignment("r2", "Salad"))
	p.SetAssignment(Tuesday, Lunch, testAssignment("r3", "Soup"))

	a, ok := cp.Assignment(Monday, Dinner)
	if !ok || a.Recipe.Title != "Pasta" {
		t.Errorf("Clone mutated by later writes to the original: %+v", a)
	}
	if cp.Len() != 1 {
		t.Errorf("Expected clone to keep 1 assignment, got %d", cp.Len())
	}
}

func TestWeekPlanJSONRoundTripIsSparse(t *testing.T) {
	p := NewWeekPlan()
	p.SetAssignment(Thursday, Breakfast, testAssignment("r1", "Porridge"))

	data, err := json.Marshal(p)
	if err != nil {
		t.Fatalf("Marshal failed: %v", err)
	}

	var restored WeekPlan
	if err := json.Unmarshal(data, &restored); err != nil {
		t.Fatalf("Unmarshal failed: %v", err)
	}
	if restored.Len() != 1 {
		t.Fatalf("Expected 1 assignment after round trip, got %d", restored.Len())
	}
	if len(restored.Grid) != 1 {
		t.Errorf("Sparse grid should only carry occupied days, got %d entries", len(restored.Grid))
	}
	a, ok := restored.Assignment(Thursday, Breakfast)
	if !ok || a.Recipe.Title != "Porridge" {
		t.Errorf("Round trip lost the assignment: %+v", a)
	}
}

func TestValidDayAndSlot(t *testing.T) {
	for _, d := range Days() {
		if !ValidDay(d) {
			t.Errorf("Expected %s to be valid", d)
		}
	}
	for _, s := range MealSlots() {
		if !ValidMealSlot(s) {
			t.Errorf("Expected %s to be valid", s)
		}
	}
	if ValidDay("funday") {
		t.Error("funday should not be a valid day")
	}
	if ValidMealSlot("brunch") {
		t.Error("brunch should not be a valid meal slot")
	}
}
