package plan

import (
	"fmt"

	"mealgrid/internal/recipe"
)

// Day is one of the seven weekdays. The set is closed; values outside it are
// a contract violation by the caller.
type Day string

const (
	Monday    Day = "monday"
	Tuesday   Day = "tuesday"
	Wednesday Day = "wednesday"
	Thursday  Day = "thursday"
	Friday    Day = "friday"
	Saturday  Day = "saturday"
	Sunday    Day = "sunday"
)

// MealSlot is one of the three meals of a day.
type MealSlot string

const (
	Breakfast MealSlot = "breakfast"
	Lunch     MealSlot = "lunch"
	Dinner    MealSlot = "dinner"
)

// Days returns the weekdays in calendar display order.
func Days() []Day {
	return []Day{Monday, Tuesday, Wednesday, Thursday, Friday, Saturday, Sunday}
}

// MealSlots returns the meal slots in display order.
func MealSlots() []MealSlot {
	return []MealSlot{Breakfast, Lunch, Dinner}
}

// ValidDay reports whether d belongs to the closed Day enumeration.
func ValidDay(d Day) bool {
	switch d {
	case Monday, Tuesday, Wednesday, Thursday, Friday, Saturday, Sunday:
		return true
	}
	return false
}

// ValidMealSlot reports whether s belongs to the closed MealSlot enumeration.
func ValidMealSlot(s MealSlot) bool {
	switch s {
	case Breakfast, Lunch, Dinner:
		return true
	}
	return false
}

// MealAssignment is the record occupying one (day, slot) cell. It carries a
// recipe ID for recipes in the collection, or a denormalized inline copy for
// recipes that have not been persisted yet. Day and Slot always match the
// cell the assignment is stored under.
type MealAssignment struct {
	Day      Day           `json:"day"`
	Slot     MealSlot      `json:"slot"`
	RecipeID string        `json:"recipe_id,omitempty"`
	Recipe   recipe.Recipe `json:"recipe"`
}

// WeekPlan is the sparse 7x3 assignment grid for one week. Absence of a day
// or slot key means empty, never unknown; no explicit empty markers are
// stored.
type WeekPlan struct {
	Grid map[Day]map[MealSlot]MealAssignment `json:"grid"`
}

// NewWeekPlan returns an empty plan.
func NewWeekPlan() *WeekPlan {
	return &WeekPlan{Grid: make(map[Day]map[MealSlot]MealAssignment)}
}

// Assignment returns the assignment at (day, slot), if any.
func (p *WeekPlan) Assignment(day Day, slot MealSlot) (MealAssignment, bool) {
	slots, ok := p.Grid[day]
	if !ok {
		return MealAssignment{}, false
	}
	a, ok := slots[slot]
	return a, ok
}

// SetAssignment writes an assignment into its cell, overwriting any previous
// occupant. The assignment's own Day and Slot fields are forced to match the
// cell key.
func (p *WeekPlan) SetAssignment(day Day, slot MealSlot, a MealAssignment) {
	a.Day = day
	a.Slot = slot
	if p.Grid == nil {
		p.Grid = make(map[Day]map[MealSlot]MealAssignment)
	}
	slots, ok := p.Grid[day]
	if !ok {
		slots = make(map[MealSlot]MealAssignment)
		p.Grid[day] = slots
	}
	slots[slot] = a
}

// RemoveAssignment deletes the assignment at (day, slot) and prunes the day
// entry when it becomes empty. It reports whether anything was removed.
func (p *WeekPlan) RemoveAssignment(day Day, slot MealSlot) bool {
	slots, ok := p.Grid[day]
	if !ok {
		return false
	}
	if _, ok := slots[slot]; !ok {
		return false
	}
	delete(slots, slot)
	if len(slots) == 0 {
		delete(p.Grid, day)
	}
	return true
}

// DayIsEmpty reports whether no slot under the day holds an assignment.
func (p *WeekPlan) DayIsEmpty(day Day) bool {
	return len(p.Grid[day]) == 0
}

// Clear empties the whole grid.
func (p *WeekPlan) Clear() {
	p.Grid = make(map[Day]map[MealSlot]MealAssignment)
}

// Len returns the number of assignments across the grid.
func (p *WeekPlan) Len() int {
	n := 0
	for _, slots := range p.Grid {
		n += len(slots)
	}
	return n
}

// AllAssignments flattens the grid in Day order then MealSlot order, giving
// deterministic input to rendering and shopping-list aggregation.
func (p *WeekPlan) AllAssignments() []MealAssignment {
	var out []MealAssignment
	for _, day := range Days() {
		slots, ok := p.Grid[day]
		if !ok {
			continue
		}
		for _, slot := range MealSlots() {
			if a, ok := slots[slot]; ok {
				out = append(out, a)
			}
		}
	}
	return out
}

// Clone returns a deep copy of the plan, used to snapshot the grid for an
// outbound save while further mutations keep landing on the original.
func (p *WeekPlan) Clone() *WeekPlan {
	cp := NewWeekPlan()
	for day, slots := range p.Grid {
		for slot, a := range slots {
			cp.SetAssignment(day, slot, a)
		}
	}
	return cp
}

func mustValidCell(day Day, slot MealSlot) {
	if !ValidDay(day) {
		panic(fmt.Sprintf("plan: %q is not a valid day", day))
	}
	if !ValidMealSlot(slot) {
		panic(fmt.Sprintf("plan: %q is not a valid meal slot", slot))
	}
}
