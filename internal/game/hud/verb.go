// Package hud holds the verb bar state: per-actor verb slots, the current and
// override verbs, the hovered entity, and the selectable-actor slots.
package hud

import "fmt"

// Verb ids, matching the script constants VERB_WALKTO .. VERB_USE.
const (
	VerbWalkTo = 1
	VerbOpen   = 2
	VerbClose  = 3
	VerbGive   = 4
	VerbPickUp = 5
	VerbLookAt = 6
	VerbTalkTo = 7
	VerbPush   = 8
	VerbPull   = 9
	VerbUse    = 10
)

// VerbsPerSlot is the number of verbs of one actor slot.
const VerbsPerSlot = 10

// ActorSlots is the number of selectable-actor slots.
const ActorSlots = 6

// Verb is a player-selectable action.
type Verb struct {
	// ID is one of the VerbXxx constants.
	ID int
	// Image is the verb bar sprite name.
	Image string
	// Text is the display text.
	Text string
	// Key is the keyboard shortcut; empty = none.
	Key string
	// Func is the script method invoked on the primary operand, e.g. "verbOpen".
	Func string
}

// IsZero reports whether v is an unset verb.
func (v Verb) IsZero() bool { return v.ID == 0 }

// VerbSlot is the ordered verb list of one actor slot. Verbs[0] is the walk verb.
type VerbSlot struct {
	Verbs [VerbsPerSlot]Verb
}

// DefaultVerbSlot returns the classic nine-verb layout with Walk-To first.
func DefaultVerbSlot() VerbSlot {
	return VerbSlot{Verbs: [VerbsPerSlot]Verb{
		{ID: VerbWalkTo, Image: "walkto", Text: "Walk to", Func: "verbWalkTo"},
		{ID: VerbOpen, Image: "open", Text: "Open", Key: "Q", Func: "verbOpen"},
		{ID: VerbClose, Image: "close", Text: "Close", Key: "A", Func: "verbClose"},
		{ID: VerbGive, Image: "give", Text: "Give", Key: "Z", Func: "verbGive"},
		{ID: VerbPickUp, Image: "pickup", Text: "Pick up", Key: "W", Func: "verbPickup"},
		{ID: VerbLookAt, Image: "lookat", Text: "Look at", Key: "S", Func: "verbLookAt"},
		{ID: VerbTalkTo, Image: "talkto", Text: "Talk to", Key: "X", Func: "verbTalkTo"},
		{ID: VerbPush, Image: "push", Text: "Push", Key: "E", Func: "verbPush"},
		{ID: VerbPull, Image: "pull", Text: "Pull", Key: "D", Func: "verbPull"},
		{ID: VerbUse, Image: "use", Text: "Use", Key: "C", Func: "verbUse"},
	}}
}

// Validate checks that the first verb is Walk-To.
//
// Postcondition: Returns nil if valid.
func (s VerbSlot) Validate() error {
	if s.Verbs[0].ID != VerbWalkTo {
		return fmt.Errorf("verb slot: first verb must be walk-to, got id %d", s.Verbs[0].ID)
	}
	return nil
}

// Verb returns the verb with the given id.
//
// Postcondition: Returns (verb, true) if the slot carries id.
func (s VerbSlot) Verb(id int) (Verb, bool) {
	for _, v := range s.Verbs {
		if v.ID == id && id != 0 {
			return v, true
		}
	}
	return Verb{}, false
}
