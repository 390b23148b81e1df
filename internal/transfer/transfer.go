// Package transfer implements the two-phase protocol that moves a recipe
// into a grid cell. A pointer drag and a menu-driven "add to slot" selection
// are two entry points converging on the same assignment request; the
// mutation logic never learns which gesture produced it.
package transfer

import (
	"encoding/json"

	"mealgrid/internal/plan"
	"mealgrid/internal/recipe"
)

// Assigner is the convergent mutation entry point, satisfied by plan.Engine.
type Assigner interface {
	Assign(day plan.Day, slot plan.MealSlot, rec recipe.Recipe)
}

// Protocol routes both transfer paths to one Assigner.
type Protocol struct {
	assigner Assigner
}

// NewProtocol creates a Protocol bound to an assigner.
func NewProtocol(a Assigner) *Protocol {
	return &Protocol{assigner: a}
}

// RequestAssignment always assigns: once a target cell and a recipe are both
// present there is no rejection path, occupied cells are overwritten.
func (p *Protocol) RequestAssignment(day plan.Day, slot plan.MealSlot, rec recipe.Recipe) {
	p.assigner.Assign(day, slot, rec)
}

// Payload is the serializable recipe reference captured when a drag gesture
// starts.
type Payload []byte

// Pickup captures a recipe into a transfer payload at gesture start.
func Pickup(rec recipe.Recipe) (Payload, error) {
	return json.Marshal(rec)
}

// CellTarget is a concrete (day, slot) drop destination.
type CellTarget struct {
	Day  plan.Day
	Slot plan.MealSlot
}

// Drop completes a drag gesture. Drops outside any cell and malformed
// payloads are silently discarded; they never reach the assignment engine
// and are not failures. It reports whether the drop was forwarded.
func (p *Protocol) Drop(target *CellTarget, payload Payload) bool {
	if target == nil {
		return false
	}
	if !plan.ValidDay(target.Day) || !plan.ValidMealSlot(target.Slot) {
		return false
	}

	var rec recipe.Recipe
	if err := json.Unmarshal(payload, &rec); err != nil {
		return false
	}

	p.RequestAssignment(target.Day, target.Slot, rec)
	return true
}

// Selection is the explicit "add to slot" modal state. Day and Slot default
// to the first enumeration values.
type Selection struct {
	Day    plan.Day
	Slot   plan.MealSlot
	Recipe recipe.Recipe
}

// NewSelection opens a selection for a recipe with default target choices.
func NewSelection(rec recipe.Recipe) *Selection {
	return &Selection{
		Day:    plan.Days()[0],
		Slot:   plan.MealSlots()[0],
		Recipe: rec,
	}
}

// Confirm forwards the chosen (day, slot) and recipe to the assignment
// request.
func (s *Selection) Confirm(p *Protocol) {
	p.RequestAssignment(s.Day, s.Slot, s.Recipe)
}
