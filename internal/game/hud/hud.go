package hud

import (
	"fmt"

	"github.com/cory-johannsen/adventure/internal/game/world"
)

// HUD is the verb bar state of the running game.
type HUD struct {
	slots     [ActorSlots]VerbSlot
	slot      int
	current   Verb
	override  Verb
	hovered   world.Entity
	verbRects [VerbsPerSlot]world.Rect
	active    bool
}

// New returns a HUD whose slots all carry DefaultVerbSlot, with slot 0
// selected, the walk verb current, and the classic 3x3 verb bar layout.
//
// Postcondition: CurrentVerb is Walk-To.
func New() *HUD {
	h := &HUD{active: true}
	for i := range h.slots {
		h.slots[i] = DefaultVerbSlot()
	}
	for i := 1; i < VerbsPerSlot; i++ {
		col, row := (i-1)/3, (i-1)%3
		h.verbRects[i] = world.Rect{X: 2 + float64(col)*50, Y: 135 + float64(row)*14, W: 48, H: 13}
	}
	h.current = h.slots[0].Verbs[0]
	return h
}

// SetVerbSlot replaces the verbs of actor slot i.
//
// Precondition: 0 <= i < ActorSlots.
// Postcondition: Returns an error if the slot is invalid.
func (h *HUD) SetVerbSlot(i int, s VerbSlot) error {
	if i < 0 || i >= ActorSlots {
		return fmt.Errorf("hud: verb slot %d out of range", i)
	}
	if err := s.Validate(); err != nil {
		return err
	}
	h.slots[i] = s
	return nil
}

// VerbSlot returns the verbs of actor slot i.
//
// Precondition: 0 <= i < ActorSlots.
func (h *HUD) VerbSlot(i int) VerbSlot { return h.slots[i] }

// SetCurrentSlot selects the verb slot of the current actor.
//
// Precondition: 0 <= i < ActorSlots.
func (h *HUD) SetCurrentSlot(i int) { h.slot = i }

// CurrentSlot returns the selected verb slot index.
func (h *HUD) CurrentSlot() int { return h.slot }

// Verb returns the verb with the given id from the current slot.
func (h *HUD) Verb(id int) (Verb, bool) { return h.slots[h.slot].Verb(id) }

// CurrentVerb returns the selected verb.
//
// Postcondition: Returns (verb, false) when no verb is selected.
func (h *HUD) CurrentVerb() (Verb, bool) { return h.current, !h.current.IsZero() }

// SetCurrentVerb selects v.
func (h *HUD) SetCurrentVerb(v Verb) { h.current = v }

// VerbOverride returns the right-click or inventory verb override.
//
// Postcondition: Returns (verb, false) when no override is set.
func (h *HUD) VerbOverride() (Verb, bool) { return h.override, !h.override.IsZero() }

// SetVerbOverride sets or, with a zero Verb, clears the override.
func (h *HUD) SetVerbOverride(v Verb) { h.override = v }

// SetDefaultVerb selects the walk verb of the current slot and forgets the hovered entity.
//
// Postcondition: CurrentVerb is Verbs[0] of the current slot.
func (h *HUD) SetDefaultVerb() {
	h.hovered = nil
	h.current = h.slots[h.slot].Verbs[0]
}

// HoveredEntity returns the entity under the cursor, or nil.
func (h *HUD) HoveredEntity() world.Entity { return h.hovered }

// SetHoveredEntity records the entity under the cursor.
func (h *HUD) SetHoveredEntity(e world.Entity) { h.hovered = e }

// SetActive enables or disables verb bar clicks.
func (h *HUD) SetActive(active bool) { h.active = active }

// Active reports whether verb bar clicks are accepted.
func (h *HUD) Active() bool { return h.active }

// SetVerbRect places verb button i in screen space.
//
// Precondition: 0 <= i < VerbsPerSlot.
func (h *HUD) SetVerbRect(i int, r world.Rect) { h.verbRects[i] = r }

// HoveredVerb returns the verb whose button contains the screen-space point.
// The walk verb has no button.
//
// Postcondition: Returns (verb, false) when the HUD is inactive or no button is hit.
func (h *HUD) HoveredVerb(screen world.Point) (Verb, bool) {
	if !h.active {
		return Verb{}, false
	}
	slot := h.slots[h.slot]
	for i := 1; i < VerbsPerSlot; i++ {
		if slot.Verbs[i].IsZero() {
			continue
		}
		if h.verbRects[i].Contains(screen) {
			return slot.Verbs[i], true
		}
	}
	return Verb{}, false
}
