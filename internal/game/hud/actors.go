package hud

import "github.com/cory-johannsen/adventure/internal/game/world"

// SelectableMode is the bitmask controlling actor switching.
type SelectableMode int

// Selectable modes.
const (
	SelectableOff              SelectableMode = 0
	SelectableOn               SelectableMode = 1
	SelectableTempUnselectable SelectableMode = 2
)

// ActorSlot binds an actor to a verb slot.
type ActorSlot struct {
	Actor      *world.Actor
	Selectable bool
}

// ActorSelection holds the six selectable-actor slots.
type ActorSelection struct {
	slots [ActorSlots]ActorSlot
	mode  SelectableMode
}

// Slot returns slot i.
//
// Precondition: 0 <= i < ActorSlots.
func (s *ActorSelection) Slot(i int) ActorSlot { return s.slots[i] }

// SetSlot assigns slot i.
//
// Precondition: 0 <= i < ActorSlots.
func (s *ActorSelection) SetSlot(i int, a *world.Actor, selectable bool) {
	s.slots[i] = ActorSlot{Actor: a, Selectable: selectable}
}

// SetSelectable changes the selectable flag of the slot holding a.
//
// Postcondition: Returns false when a is in no slot.
func (s *ActorSelection) SetSelectable(a *world.Actor, selectable bool) bool {
	i := s.IndexOf(a)
	if i < 0 {
		return false
	}
	s.slots[i].Selectable = selectable
	return true
}

// Mode returns the selectable mode.
func (s *ActorSelection) Mode() SelectableMode { return s.mode }

// SetMode replaces the selectable mode.
func (s *ActorSelection) SetMode(m SelectableMode) { s.mode = m }

// IndexOf returns the slot holding a, or -1.
func (s *ActorSelection) IndexOf(a *world.Actor) int {
	if a == nil {
		return -1
	}
	for i, slot := range s.slots {
		if slot.Actor == a {
			return i
		}
	}
	return -1
}

// switchable reports whether the player may switch actors right now.
func (s *ActorSelection) switchable() bool {
	return s.mode&SelectableOn != 0 && s.mode&SelectableTempUnselectable == 0
}

// Next returns the next selectable actor after current, cycling.
//
// Postcondition: Returns (nil, false) when switching is disabled or no other actor is selectable.
func (s *ActorSelection) Next(current *world.Actor) (*world.Actor, bool) {
	return s.step(current, 1)
}

// Previous returns the previous selectable actor before current, cycling.
//
// Postcondition: Returns (nil, false) when switching is disabled or no other actor is selectable.
func (s *ActorSelection) Previous(current *world.Actor) (*world.Actor, bool) {
	return s.step(current, ActorSlots-1)
}

func (s *ActorSelection) step(current *world.Actor, delta int) (*world.Actor, bool) {
	if !s.switchable() {
		return nil, false
	}
	start := s.IndexOf(current)
	if start < 0 {
		start = 0
	}
	for n := 1; n <= ActorSlots; n++ {
		slot := s.slots[(start+n*delta)%ActorSlots]
		if slot.Actor != nil && slot.Selectable && slot.Actor != current {
			return slot.Actor, true
		}
	}
	return nil, false
}

// At returns the selectable actor in slot i.
//
// Postcondition: Returns (nil, false) when switching is disabled, i is out of range, or the slot is not selectable.
func (s *ActorSelection) At(i int) (*world.Actor, bool) {
	if !s.switchable() || i < 0 || i >= ActorSlots {
		return nil, false
	}
	slot := s.slots[i]
	if slot.Actor == nil || !slot.Selectable {
		return nil, false
	}
	return slot.Actor, true
}
