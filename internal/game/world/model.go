// Package world provides the adventure world model: rooms, actors, objects,
// and the geometry used to hit-test them.
package world

import (
	"fmt"

	"github.com/cory-johannsen/adventure/internal/scripting"
)

// Entity flag bits. Door directions include the DOOR bit.
const (
	FlagUseWith   uint32 = 0x2
	FlagUseOn     uint32 = 0x4
	FlagUseIn     uint32 = 0x20
	FlagDoor      uint32 = 0x40
	FlagDoorLeft  uint32 = 0x140
	FlagDoorRight uint32 = 0x240
	FlagDoorBack  uint32 = 0x440
	FlagDoorFront uint32 = 0x840
	FlagGiveable  uint32 = 0x1000
	FlagTalkable  uint32 = 0x2000
)

// HasFlags reports whether every bit of mask is set in flags.
func HasFlags(flags, mask uint32) bool { return flags&mask == mask }

// Facing is the direction an actor looks towards.
type Facing int

// Facing values match the script constants FACE_RIGHT, FACE_LEFT, FACE_FRONT, FACE_BACK.
const (
	FaceRight Facing = 1
	FaceLeft  Facing = 2
	FaceFront Facing = 4
	FaceBack  Facing = 8
)

// UseDirection is the direction an actor faces while using an object.
type UseDirection int

// UseDirection values.
const (
	UseDirRight UseDirection = 1
	UseDirLeft  UseDirection = 2
	UseDirFront UseDirection = 4
	UseDirBack  UseDirection = 8
)

// ObjectType classifies a room object.
type ObjectType int

// Object types.
const (
	TypeObject ObjectType = iota
	TypeSpot
	TypeTrigger
	TypeProp
)

// Color is an RGBA color.
type Color struct {
	R, G, B, A uint8
}

// White is the default actor and object color.
var White = Color{R: 255, G: 255, B: 255, A: 255}

// Packed returns the color as 0xAARRGGBB.
func (c Color) Packed() int64 {
	return int64(c.A)<<24 | int64(c.R)<<16 | int64(c.G)<<8 | int64(c.B)
}

// ColorFromPacked decodes a 0xAARRGGBB value.
func ColorFromPacked(v int64) Color {
	return Color{
		A: uint8(v >> 24),
		R: uint8(v >> 16),
		G: uint8(v >> 8),
		B: uint8(v),
	}
}

// Frame is one named sprite-sheet cell of an animation.
type Frame struct {
	// Name is the sprite-sheet key, e.g. "sign_en".
	Name string
	// Rect is the cell inside the sheet texture.
	Rect Rect
	// SourceRect is the trimmed cell bounds before packing.
	SourceRect Rect
	// Size is the untrimmed size of the cell.
	Size Size
}

// Animation is a named sequence of frames.
type Animation struct {
	Name   string
	Frames []Frame
}

// Common holds the identity and targeting state shared by actors and objects.
type Common struct {
	// Key is the script-visible identifier and the save-file anchor.
	Key string
	// Name is the display name. Actors and objects can share a name.
	Name string
	// ID is the numeric entity id. 0 marks an engine-internal object.
	ID int
	// Flags is the FlagXxx bitmask.
	Flags uint32
	// ZOrder orders hit-testing; lower values are nearer the viewer.
	ZOrder int
	// Visible hides the entity from rendering when false.
	Visible bool
	// Position is the room-space anchor.
	Position Point
	// Offset is added to Position when drawing and hit-testing.
	Offset Point
	// DefaultVerb is the declared default verb id. 0 = none declared.
	DefaultVerb int
}

// Base returns c itself, giving embedding types access through Entity.
func (c *Common) Base() *Common { return c }

// Entity is the capability set shared by actors and objects.
type Entity interface {
	// Base exposes the shared identity and targeting state.
	Base() *Common
	// Ref returns the script identity of the entity.
	Ref() scripting.Ref
	// Contains reports whether the room-space point hits the entity.
	Contains(p Point) bool
	// RoomName returns the owning room's name, or "" when in no room.
	RoomName() string
	// IsInventoryObject reports whether the entity is carried by an actor.
	IsInventoryObject() bool
}

// Object is an interactive element of a room.
type Object struct {
	Common
	// Hotspot is the clickable rectangle relative to Position.
	Hotspot Rect
	// Touchable objects take part in hover hit-testing.
	Touchable bool
	// State is the script-controlled animation state. 0 is the default.
	State int
	// Temporary objects are created at runtime and skip enter callbacks.
	Temporary bool
	// Type classifies the object.
	Type ObjectType
	// UseDirection is the facing an actor takes when using the object.
	UseDirection UseDirection
	// UsePosition is the actor position for using the object, relative to Position.
	UsePosition Point
	// Owner is the carrying actor. nil = lying in its room.
	Owner *Actor
	// Jiggle marks an inventory object whose icon animates.
	Jiggle bool
	// Hidden objects are neither drawn nor hit-tested by scripts.
	Hidden bool
	// Rotation is the drawing rotation in degrees.
	Rotation float64
	// Color tints the object.
	Color Color
	// Animations lists the object's sprite animations.
	Animations []Animation
	// Room is the owning room (weak reference).
	Room *Room
}

// NewObject returns an object with engine defaults: visible, touchable, white.
//
// Precondition: key must be non-empty.
func NewObject(key string) *Object {
	return &Object{
		Common:    Common{Key: key, Name: key, Visible: true},
		Touchable: true,
		Color:     White,
	}
}

// Ref returns the object's script identity, qualified by its room.
func (o *Object) Ref() scripting.Ref {
	return scripting.Ref{Kind: scripting.RefObject, Key: o.Key, Room: o.RoomName()}
}

// RealHotspot returns the hotspot translated to room space.
func (o *Object) RealHotspot() Rect {
	return o.Hotspot.Translate(o.Position.Add(o.Offset))
}

// RealUsePosition returns the room-space position an actor walks to.
func (o *Object) RealUsePosition() Point {
	return o.Position.Add(o.UsePosition)
}

// Contains reports whether p lies inside the object's room-space hotspot.
func (o *Object) Contains(p Point) bool {
	return o.RealHotspot().Contains(p)
}

// RoomName returns the owning room's name.
func (o *Object) RoomName() string {
	if o.Room == nil {
		return ""
	}
	return o.Room.Name
}

// IsInventoryObject reports whether an actor carries the object.
func (o *Object) IsInventoryObject() bool { return o.Owner != nil }

// DefaultRenderOffset is the actor render offset omitted from saves.
var DefaultRenderOffset = Point{X: 0, Y: 45}

// Actor is a character. Actors persist across rooms.
type Actor struct {
	Common
	// Hotspot is the clickable rectangle relative to Position.
	Hotspot Rect
	// Room is the room the actor stands in. nil = none.
	Room *Room
	// Inventory lists carried objects in pickup order.
	Inventory []*Object
	// InventoryOffset is the inventory scroll offset in rows.
	InventoryOffset int
	// Costume is the costume asset name.
	Costume string
	// CostumeSheet is the optional sprite sheet override for the costume.
	CostumeSheet string
	// Facing is the current facing.
	Facing Facing
	// LockFacing forces a facing while non-zero.
	LockFacing int
	// Volume overrides the talk volume when non-nil.
	Volume *float64
	// UseDirection overrides the facing used for the actor as a target.
	UseDirection *UseDirection
	// UsePosition overrides the walk target used for the actor as a target.
	UsePosition *Point
	// RenderOffset shifts drawing relative to Position.
	RenderOffset Point
	// Color tints the actor.
	Color Color
	// WalkTarget is the pending walk destination. nil = standing.
	WalkTarget *Point
	// Running reports whether walking uses the run animation.
	Running bool
}

// NewActor returns an actor with engine defaults.
//
// Precondition: key must be non-empty.
func NewActor(key string) *Actor {
	return &Actor{
		Common:       Common{Key: key, Name: key, Visible: true},
		Facing:       FaceFront,
		RenderOffset: DefaultRenderOffset,
		Color:        White,
	}
}

// Ref returns the actor's script identity.
func (a *Actor) Ref() scripting.Ref {
	return scripting.Ref{Kind: scripting.RefActor, Key: a.Key}
}

// Contains reports whether p lies inside the actor's room-space hotspot.
func (a *Actor) Contains(p Point) bool {
	return a.Hotspot.Translate(a.Position.Add(a.Offset)).Contains(p)
}

// RoomName returns the current room's name.
func (a *Actor) RoomName() string {
	if a.Room == nil {
		return ""
	}
	return a.Room.Name
}

// IsInventoryObject always reports false for actors.
func (a *Actor) IsInventoryObject() bool { return false }

// PickUp moves o into the actor's inventory.
//
// Precondition: o must be non-nil.
// Postcondition: o.Owner == a and o is the last inventory entry.
func (a *Actor) PickUp(o *Object) {
	if o.Owner != nil {
		o.Owner.Drop(o)
	}
	o.Owner = a
	a.Inventory = append(a.Inventory, o)
}

// Drop removes o from the actor's inventory.
//
// Postcondition: Returns false when the actor did not carry o.
func (a *Actor) Drop(o *Object) bool {
	for i, it := range a.Inventory {
		if it == o {
			a.Inventory = append(a.Inventory[:i], a.Inventory[i+1:]...)
			o.Owner = nil
			return true
		}
	}
	return false
}

// WalkTo sets a walk destination. Pathfinding is done by the motion collaborator.
func (a *Actor) WalkTo(p Point) {
	target := p
	a.WalkTarget = &target
}

// StopWalking clears the walk destination.
func (a *Actor) StopWalking() {
	a.WalkTarget = nil
	a.Running = false
}

// Walkbox is a walkable polygon of a room.
type Walkbox struct {
	Name    string
	Polygon []Point
	Enabled bool
}

// ScaleValue maps a room y coordinate to an actor scale.
type ScaleValue struct {
	Y     float64
	Scale float64
}

// Scaling is a named set of scale values. The name matches a trigger object.
type Scaling struct {
	Name   string
	Values []ScaleValue
}

// DefaultScreenSize is the viewport of a windowed room without a screen height.
var DefaultScreenSize = Size{W: 320, H: 180}

// Room is a game location. It owns its objects and geometry.
type Room struct {
	// Name identifies the room and names its script table.
	Name string
	// ID is the numeric room id.
	ID int
	// Fullscreen rooms hide the HUD and use their own size as viewport.
	Fullscreen bool
	// ScreenHeight selects the viewport of a windowed room when non-zero.
	ScreenHeight int
	// RoomSize is the size of the room background.
	RoomSize Size
	// Objects lists the room's objects in declaration order.
	Objects []*Object
	// Walkboxes lists the walkable areas.
	Walkboxes []Walkbox
	// Scalings lists the actor scalings. The first is the default.
	Scalings []Scaling
	// Scaling is the active scaling. nil = none.
	Scaling *Scaling
	// PseudoRoom marks a container room with no physical location.
	PseudoRoom bool
	// SpriteSheet holds the room sprite-sheet frames by name.
	SpriteSheet map[string]Frame
}

// Ref returns the room's script identity.
func (r *Room) Ref() scripting.Ref {
	return scripting.Ref{Kind: scripting.RefRoom, Key: r.Name}
}

// Object returns the object with the given key.
//
// Postcondition: Returns (object, true) if found, or (nil, false) otherwise.
func (r *Room) Object(key string) (*Object, bool) {
	for _, o := range r.Objects {
		if o.Key == key {
			return o, true
		}
	}
	return nil, false
}

// AddObject appends o and sets its room.
//
// Precondition: o must be non-nil.
func (r *Room) AddObject(o *Object) {
	o.Room = r
	r.Objects = append(r.Objects, o)
}

// Validate checks room invariants.
//
// Postcondition: Returns nil if valid, or an error describing the first violation.
func (r *Room) Validate() error {
	if r.Name == "" {
		return fmt.Errorf("room name must not be empty")
	}
	if r.ScreenHeight < 0 {
		return fmt.Errorf("room %q: screen_height must be >= 0", r.Name)
	}
	seen := make(map[string]bool, len(r.Objects))
	for _, o := range r.Objects {
		if o.Key == "" {
			return fmt.Errorf("room %q: object key must not be empty", r.Name)
		}
		if seen[o.Key] {
			return fmt.Errorf("room %q: duplicate object key %q", r.Name, o.Key)
		}
		seen[o.Key] = true
	}
	return nil
}
