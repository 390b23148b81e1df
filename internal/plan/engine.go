package plan

import (
	"sync"

	"mealgrid/internal/recipe"
)

// Engine applies validated mutations to one week's grid and schedules
// persistence. It is the only writer of its WeekPlan.
type Engine struct {
	mu    sync.Mutex
	key   WeekKey
	plan  *WeekPlan
	sched *SaveScheduler
}

// NewEngine wires an engine to a plan and its save scheduler.
func NewEngine(key WeekKey, p *WeekPlan, sched *SaveScheduler) *Engine {
	if p == nil {
		p = NewWeekPlan()
	}
	return &Engine{key: key, plan: p, sched: sched}
}

// WeekKey returns the week the engine is editing.
func (e *Engine) WeekKey() WeekKey {
	return e.key
}

// Snapshot returns a deep copy of the current grid, safe to hand to an
// outbound save while mutations continue.
func (e *Engine) Snapshot() *WeekPlan {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.plan.Clone()
}

// Assign writes a recipe into (day, slot), unconditionally overwriting any
// existing assignment (last-write-wins, no merge), then schedules a save.
// Values outside the closed enumerations are a caller contract violation and
// fail fast.
func (e *Engine) Assign(day Day, slot MealSlot, rec recipe.Recipe) {
	mustValidCell(day, slot)

	a := MealAssignment{Day: day, Slot: slot}
	if rec.Saved() {
		a.RecipeID = rec.ID
	}
	a.Recipe = rec

	e.mu.Lock()
	e.plan.SetAssignment(day, slot, a)
	e.mu.Unlock()

	e.sched.Schedule(TriggerAssign)
}

// Remove deletes the assignment at (day, slot) if present. Removing from an
// empty cell is a no-op, not an error, and schedules nothing.
func (e *Engine) Remove(day Day, slot MealSlot) {
	mustValidCell(day, slot)

	e.mu.Lock()
	removed := e.plan.RemoveAssignment(day, slot)
	e.mu.Unlock()

	if removed {
		e.sched.Schedule(TriggerRemove)
	}
}

// ClearAll empties the whole week and persists immediately, bypassing the
// debounce window. Confirmation is the caller's concern.
func (e *Engine) ClearAll() {
	e.mu.Lock()
	e.plan.Clear()
	e.mu.Unlock()

	e.sched.Flush()
}

// Assignment returns the assignment at (day, slot), if any.
func (e *Engine) Assignment(day Day, slot MealSlot) (MealAssignment, bool) {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.plan.Assignment(day, slot)
}

// AllAssignments flattens the grid in Day then MealSlot order.
func (e *Engine) AllAssignments() []MealAssignment {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.plan.AllAssignments()
}

// DayIsEmpty reports whether the day holds no assignments.
func (e *Engine) DayIsEmpty(day Day) bool {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.plan.DayIsEmpty(day)
}
