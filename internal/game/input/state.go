// Package input holds the input-state bitmask and the per-frame mouse and
// keyboard edge tracker.
package input

// Input-state bits as published to scripts. Each flag is an on/off pair.
const (
	InputOn         = 0x01
	InputOff        = 0x02
	InputVerbsOn    = 0x04
	InputVerbsOff   = 0x08
	InputHUDObjsOn  = 0x10
	InputHUDObjsOff = 0x20
	InputCursorOn   = 0x40
	InputCursorOff  = 0x80
)

// State is the decoded input-state bitmask.
type State struct {
	// Active enables click and keyboard handling.
	Active bool
	// VerbsActive enables verb bar clicks.
	VerbsActive bool
	// HUDObjectsVisible shows the inventory and verb bar.
	HUDObjectsVisible bool
	// CursorVisible shows the mouse cursor.
	CursorVisible bool
}

// DefaultState is the input state of a new game: everything on.
var DefaultState = State{Active: true, VerbsActive: true, HUDObjectsVisible: true, CursorVisible: true}

func pair(on bool, onBit, offBit int) int {
	if on {
		return onBit
	}
	return offBit
}

// Encode returns the bitmask for s. Exactly one bit of every pair is set.
func (s State) Encode() int {
	return pair(s.Active, InputOn, InputOff) |
		pair(s.VerbsActive, InputVerbsOn, InputVerbsOff) |
		pair(s.HUDObjectsVisible, InputHUDObjsOn, InputHUDObjsOff) |
		pair(s.CursorVisible, InputCursorOn, InputCursorOff)
}

// Apply updates s from bits. A pair with neither bit set leaves its flag
// unchanged; the on bit wins when both are set.
//
// Postcondition: Returns the updated state.
func (s State) Apply(bits int) State {
	apply := func(cur bool, onBit, offBit int) bool {
		switch {
		case bits&onBit != 0:
			return true
		case bits&offBit != 0:
			return false
		default:
			return cur
		}
	}
	s.Active = apply(s.Active, InputOn, InputOff)
	s.VerbsActive = apply(s.VerbsActive, InputVerbsOn, InputVerbsOff)
	s.HUDObjectsVisible = apply(s.HUDObjectsVisible, InputHUDObjsOn, InputHUDObjsOff)
	s.CursorVisible = apply(s.CursorVisible, InputCursorOn, InputCursorOff)
	return s
}

// Decode returns the state described by bits, starting from DefaultState.
func Decode(bits int) State { return DefaultState.Apply(bits) }
