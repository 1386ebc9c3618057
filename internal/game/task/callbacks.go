package task

import lua "github.com/yuin/gopher-lua"

// Callback is a timed call of a global script function.
type Callback struct {
	ID int
	// Function is the global function name.
	Function string
	// Remaining is the time left, in seconds.
	Remaining float64
	// Param is the optional argument. nil = none.
	Param lua.LValue

	removed bool
}

// Callbacks holds the pending timed callbacks.
type Callbacks struct {
	nextID   int
	list     []*Callback
	inflight []*Callback
}

// NewCallbacks returns an empty set whose first id is 1.
func NewCallbacks() *Callbacks { return &Callbacks{nextID: 1} }

// Add schedules function to be called after delay seconds.
//
// Precondition: delay >= 0.
// Postcondition: Returns an id never used by another callback of this set.
func (c *Callbacks) Add(delay float64, function string, param lua.LValue) int {
	id := c.nextID
	c.nextID++
	c.list = append(c.list, &Callback{ID: id, Function: function, Remaining: delay, Param: param})
	return id
}

// Remove cancels the callback with the given id.
//
// Postcondition: Returns false when no pending callback has that id.
func (c *Callbacks) Remove(id int) bool {
	for i, cb := range c.list {
		if cb.ID == id && !cb.removed {
			cb.removed = true
			c.list = append(c.list[:i], c.list[i+1:]...)
			return true
		}
	}
	for _, cb := range c.inflight {
		if cb.ID == id && !cb.removed {
			cb.removed = true
			return true
		}
	}
	return false
}

// Update counts every callback down by elapsed seconds and fires the ones
// that reached zero, in scheduling order. Callbacks added while firing are
// kept for the next frame.
//
// Precondition: fire must be non-nil.
func (c *Callbacks) Update(elapsed float64, fire func(cb Callback)) {
	c.inflight, c.list = c.list, nil
	kept := make([]*Callback, 0, len(c.inflight))
	for _, cb := range c.inflight {
		if cb.removed {
			continue
		}
		cb.Remaining -= elapsed
		if cb.Remaining > 0 {
			kept = append(kept, cb)
			continue
		}
		cb.removed = true
		fire(*cb)
	}
	added := c.list
	c.list = make([]*Callback, 0, len(kept)+len(added))
	for _, cb := range kept {
		if !cb.removed {
			c.list = append(c.list, cb)
		}
	}
	c.list = append(c.list, added...)
	c.inflight = nil
}

// All returns a snapshot of the pending callbacks.
func (c *Callbacks) All() []Callback {
	out := make([]Callback, 0, len(c.list))
	for _, cb := range c.list {
		out = append(out, *cb)
	}
	return out
}

// Len returns the number of pending callbacks.
func (c *Callbacks) Len() int { return len(c.list) }

// NextID returns the id the next Add will assign.
func (c *Callbacks) NextID() int { return c.nextID }

// Restore replaces the pending callbacks. The id counter continues after
// both nextID and the largest restored id.
//
// Postcondition: NextID() > every restored id and NextID() >= nextID.
func (c *Callbacks) Restore(cbs []Callback, nextID int) {
	c.list = c.list[:0]
	maxID := 0
	for _, cb := range cbs {
		cb.removed = false
		c.list = append(c.list, &cb)
		if cb.ID > maxID {
			maxID = cb.ID
		}
	}
	c.nextID = max(nextID, maxID+1, 1)
}
