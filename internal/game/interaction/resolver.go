// Package interaction resolves the pointer and keyboard input of a frame into
// a hovered entity, a verb and its operands, and dispatches the result.
package interaction

import (
	lua "github.com/yuin/gopher-lua"
	"go.uber.org/zap"

	"github.com/cory-johannsen/adventure/internal/game/hud"
	"github.com/cory-johannsen/adventure/internal/game/world"
	"github.com/cory-johannsen/adventure/internal/scripting"
)

// UseFlag is the pending modifier of a two-object interaction.
type UseFlag int

// Use flags, matching the script constants.
const (
	UseNone UseFlag = iota
	UseWith
	UseOn
	UseIn
	GiveTo
)

// CursorDirection is the bitmask of cursor presentation hints.
type CursorDirection uint8

// Cursor hints.
const (
	CursorNone    CursorDirection = 0
	CursorLeft    CursorDirection = 1
	CursorRight   CursorDirection = 2
	CursorUp      CursorDirection = 4
	CursorDown    CursorDirection = 8
	CursorHotspot CursorDirection = 16
)

// EdgeMargin is the width, in screen pixels, of the left and right cursor edges.
const EdgeMargin = 20

// InventoryView reports the inventory object under the cursor.
type InventoryView interface {
	// HoveredObject returns the inventory object under the cursor, or nil.
	HoveredObject() *world.Object
}

// Resolver holds the interaction state that persists across frames: the use
// flag and use object, and the operands resolved in the last frame.
type Resolver struct {
	world     *world.Manager
	hud       *hud.HUD
	host      scripting.Host
	exec      VerbExecutor
	inventory InventoryView
	logger    *zap.Logger

	useFlag   UseFlag
	useObject world.Entity
	obj1      world.Entity
	obj2      world.Entity
	cursor    CursorDirection
	running   bool
}

// NewResolver creates a Resolver.
//
// Precondition: w, h, host, exec and logger must be non-nil. inventory may be nil.
func NewResolver(w *world.Manager, h *hud.HUD, host scripting.Host, exec VerbExecutor, inventory InventoryView, logger *zap.Logger) *Resolver {
	return &Resolver{
		world:     w,
		hud:       h,
		host:      host,
		exec:      exec,
		inventory: inventory,
		logger:    logger,
	}
}

// SetUseFlag starts a two-object interaction with object as the first operand.
// UseNone with a nil object cancels it.
func (r *Resolver) SetUseFlag(flag UseFlag, object world.Entity) {
	r.useFlag = flag
	r.useObject = object
}

// UseFlag returns the pending use flag.
func (r *Resolver) UseFlag() UseFlag { return r.useFlag }

// UseObject returns the pending first operand, or nil.
func (r *Resolver) UseObject() world.Entity { return r.useObject }

// Operands returns the operands resolved in the last frame.
func (r *Resolver) Operands() (obj1, obj2 world.Entity) { return r.obj1, r.obj2 }

// Cursor returns the cursor hints of the last frame.
func (r *Resolver) Cursor() CursorDirection { return r.cursor }

// ClearOperands forgets the use state and the resolved operands.
func (r *Resolver) ClearOperands() {
	r.useFlag = UseNone
	r.useObject = nil
	r.obj1 = nil
	r.obj2 = nil
}

// SetDefaultVerb resets the HUD to the walk verb and cancels any pending
// two-object interaction.
func (r *Resolver) SetDefaultVerb() {
	r.hud.SetDefaultVerb()
	r.ClearOperands()
}

// Hovered returns the entity under the room-space point pos. Actors of the
// room other than current are tested first; among hits the lowest z-order
// wins and the first one found wins ties. Touchable objects lying in the room
// are tested next; the lowest z-order wins and the last one found wins ties.
// When nothing is hit in a windowed room, the inventory object under the
// cursor is returned.
//
// Postcondition: Returns nil when nothing is hovered.
func (r *Resolver) Hovered(room *world.Room, current *world.Actor, pos world.Point) world.Entity {
	if room == nil {
		return nil
	}
	var (
		hit   world.Entity
		hitZ  int
		found bool
	)
	for _, a := range r.world.Actors() {
		if a == current || a.Room != room {
			continue
		}
		if a.Contains(pos) && (!found || a.ZOrder < hitZ) {
			hit, hitZ, found = a, a.ZOrder, true
		}
	}
	cell := pos.Truncate()
	for _, o := range room.Objects {
		if !o.Touchable || o.Owner != nil {
			continue
		}
		if o.Contains(cell) && (!found || o.ZOrder <= hitZ) {
			hit, hitZ, found = o, o.ZOrder, true
		}
	}
	if !found && !room.Fullscreen && r.inventory != nil {
		if o := r.inventory.HoveredObject(); o != nil {
			return o
		}
	}
	return hit
}

// Alias returns the actor sharing e's display name, or e itself. Objects that
// stand for an actor carry its name.
func (r *Resolver) Alias(e world.Entity) world.Entity {
	if e == nil {
		return nil
	}
	if a, ok := r.world.ActorNamed(e.Base().Name); ok {
		return a
	}
	return e
}

// HasFlag reports whether e or its alias actor carries any bit of flag.
func (r *Resolver) HasFlag(e world.Entity, flag uint32) bool {
	if e == nil {
		return false
	}
	if e.Base().Flags&flag != 0 {
		return true
	}
	return r.Alias(e).Base().Flags&flag != 0
}

// DefaultVerb returns the verb id used for e when the player does not pick
// one: Talk-To when the alias entity declares a dialog, the script
// defaultVerb field, the declared default verb, or fallback.
func (r *Resolver) DefaultVerb(e world.Entity, fallback int) int {
	if e == nil {
		return fallback
	}
	target := r.Alias(e)
	ref := target.Ref()
	if v, ok := r.host.RawGet(ref, "dialog"); ok && v.Type() == lua.LTString {
		return hud.VerbTalkTo
	}
	if v, ok := r.host.RawGet(ref, "defaultVerb"); ok {
		if n, isNum := v.(lua.LNumber); isNum && int(n) != 0 {
			return int(n)
		}
	}
	if id := target.Base().DefaultVerb; id != 0 {
		return id
	}
	return fallback
}

func (r *Resolver) setOverride(id int) {
	if v, ok := r.hud.Verb(id); ok {
		r.hud.SetVerbOverride(v)
	}
}

// Resolve computes the operands of the frame from the HUD's hovered entity
// and the pending use object, then applies the verb gating rules. A right
// click sets the verb override to the hovered entity's default verb.
//
// Postcondition: obj1 is nil when no action is possible; obj2 never equals obj1.
func (r *Resolver) Resolve(rightClick bool) {
	r.hud.SetVerbOverride(hud.Verb{})
	if _, ok := r.hud.CurrentVerb(); !ok {
		if v, ok := r.hud.Verb(hud.VerbWalkTo); ok {
			r.hud.SetCurrentVerb(v)
		}
	}

	hovered := r.hud.HoveredEntity()
	if r.useObject != nil {
		r.obj1, r.obj2 = r.useObject, hovered
	} else {
		r.obj1, r.obj2 = hovered, nil
	}

	verb, ok := r.hud.CurrentVerb()
	if r.obj1 == nil || !ok {
		return
	}
	if r.obj2 == r.obj1 {
		r.obj2 = nil
	}

	if rightClick {
		r.setOverride(r.DefaultVerb(r.obj1, hud.VerbLookAt))
	}

	switch verb.ID {
	case hud.VerbWalkTo:
		if r.obj1.IsInventoryObject() {
			r.setOverride(r.DefaultVerb(r.obj1, hud.VerbLookAt))
		}
	case hud.VerbTalkTo:
		if !r.HasFlag(r.obj1, world.FlagTalkable) {
			r.obj1 = nil
		}
	case hud.VerbGive:
		if !r.obj1.IsInventoryObject() {
			r.obj1 = nil
		}
		if r.obj2 != nil && !r.HasFlag(r.obj2, world.FlagGiveable) {
			r.obj2 = nil
		}
	default:
		if _, isActor := r.obj1.(*world.Actor); isActor {
			r.obj1 = nil
		}
	}
}

// UpdateCursor derives the cursor hints from the screen-space mouse position
// and the door flags of obj1.
func (r *Resolver) UpdateCursor(mouse world.Point, screen world.Size) {
	var flags uint32
	if r.obj1 != nil {
		flags = r.obj1.Base().Flags
	}
	c := CursorNone
	if mouse.X < EdgeMargin || world.HasFlags(flags, world.FlagDoorLeft) {
		c |= CursorLeft
	} else if mouse.X > float64(screen.W-EdgeMargin) || world.HasFlags(flags, world.FlagDoorRight) {
		c |= CursorRight
	}
	if world.HasFlags(flags, world.FlagDoorFront) {
		c |= CursorDown
	} else if world.HasFlags(flags, world.FlagDoorBack) {
		c |= CursorUp
	}
	if c == CursorNone && r.obj1 != nil {
		c |= CursorHotspot
	}
	r.cursor = c
}

// OverrideVerb returns the verb actually executed for v: a Walk-To on an
// entity with a default verb executes that default.
func (r *Resolver) OverrideVerb(v hud.Verb) hud.Verb {
	if v.ID != hud.VerbWalkTo || r.obj1 == nil {
		return v
	}
	if ov, ok := r.hud.Verb(r.DefaultVerb(r.obj1, hud.VerbWalkTo)); ok {
		return ov
	}
	return v
}
