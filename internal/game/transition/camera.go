package transition

import "github.com/cory-johannsen/adventure/internal/game/world"

// Camera is the room-space viewport origin and its optional bounds.
type Camera struct {
	position world.Point
	bounds   *world.Rect
}

// At moves the camera to p, clamped to the bounds when set.
func (c *Camera) At(p world.Point) {
	if c.bounds != nil {
		b := c.bounds
		p.X = min(max(p.X, b.X), b.X+b.W)
		p.Y = min(max(p.Y, b.Y), b.Y+b.H)
	}
	c.position = p
}

// Position returns the camera origin.
func (c *Camera) Position() world.Point { return c.position }

// SetBounds limits later moves to r.
func (c *Camera) SetBounds(r world.Rect) { c.bounds = &r }

// Bounds returns the camera bounds.
//
// Postcondition: Returns (rect, false) when the camera is unbounded.
func (c *Camera) Bounds() (world.Rect, bool) {
	if c.bounds == nil {
		return world.Rect{}, false
	}
	return *c.bounds, true
}

// ResetBounds removes the bounds.
func (c *Camera) ResetBounds() { c.bounds = nil }
