package input

import "github.com/cory-johannsen/adventure/internal/game/world"

// Key names with engine meaning.
const (
	KeySpace  = "Space"
	KeyEscape = "Escape"
)

// RunDelay is how long, in seconds, the left button must be held before the
// actor starts running.
const RunDelay = 0.5

// Sample is the raw device state polled at the start of a frame.
type Sample struct {
	// Mouse is the cursor position in screen space.
	Mouse world.Point
	// Left and Right report whether the buttons are down.
	Left, Right bool
	// Keys lists the keys currently down.
	Keys []string
}

// Frame is the edge-detected input of one frame.
type Frame struct {
	Mouse world.Point
	// Click is a left button down-to-up edge.
	Click bool
	// RightClick is a right button down-to-up edge.
	RightClick bool
	// Held reports the left button is down.
	Held bool
	// Run reports the left button has been held longer than RunDelay.
	Run bool
	// Released lists the keys released this frame, in sample order of the previous frame.
	Released []string
}

// KeyReleased reports whether key was released this frame.
func (f Frame) KeyReleased(key string) bool {
	for _, k := range f.Released {
		if k == key {
			return true
		}
	}
	return false
}

// Tracker turns successive Samples into Frames.
type Tracker struct {
	left, right bool
	heldFor     float64
	keys        []string
}

// NewTracker returns a Tracker with every button and key up.
func NewTracker() *Tracker { return &Tracker{} }

// Update consumes the sample of a frame elapsed seconds after the previous one.
//
// Precondition: elapsed >= 0.
// Postcondition: Click and RightClick are true only on the frame the button goes up.
func (t *Tracker) Update(s Sample, elapsed float64) Frame {
	f := Frame{
		Mouse:      s.Mouse,
		Click:      t.left && !s.Left,
		RightClick: t.right && !s.Right,
		Held:       s.Left,
	}
	if s.Left {
		t.heldFor += elapsed
	} else {
		t.heldFor = 0
	}
	f.Run = t.heldFor > RunDelay

	down := make(map[string]bool, len(s.Keys))
	for _, k := range s.Keys {
		down[k] = true
	}
	for _, k := range t.keys {
		if !down[k] {
			f.Released = append(f.Released, k)
		}
	}

	t.left, t.right = s.Left, s.Right
	t.keys = append(t.keys[:0], s.Keys...)
	return f
}

// Keys only tracks key edges; used while the game is paused.
//
// Postcondition: Returns the keys released since the previous sample.
func (t *Tracker) Keys(s Sample) []string {
	var released []string
	down := make(map[string]bool, len(s.Keys))
	for _, k := range s.Keys {
		down[k] = true
	}
	for _, k := range t.keys {
		if !down[k] {
			released = append(released, k)
		}
	}
	t.keys = append(t.keys[:0], s.Keys...)
	return released
}
