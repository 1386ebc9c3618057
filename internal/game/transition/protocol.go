// Package transition implements the ordered room exit and enter lifecycle.
package transition

import (
	"errors"
	"fmt"
	"math"
	"strings"

	lua "github.com/yuin/gopher-lua"
	"go.uber.org/zap"

	"github.com/cory-johannsen/adventure/internal/game/world"
	"github.com/cory-johannsen/adventure/internal/scripting"
)

// ErrInvalidArgument marks a corrupt world definition detected at runtime.
var ErrInvalidArgument = errors.New("invalid argument")

// ErrInvalidUseDirection is returned for a door whose use direction has no opposite facing.
var ErrInvalidUseDirection = fmt.Errorf("transition: invalid door use direction: %w", ErrInvalidArgument)

// languageSuffix tags animation frames that must be re-resolved for the current language.
const languageSuffix = "_en"

// LocalTasks stops the room-scoped background tasks.
type LocalTasks interface {
	StopLocal() int
}

// VerbReset puts the interaction state back to the default verb.
type VerbReset interface {
	SetDefaultVerb()
}

// Deps are the collaborators of a Protocol.
type Deps struct {
	Host   scripting.Host
	Tasks  LocalTasks
	Verbs  VerbReset
	Camera *Camera
	// Actor returns the current actor, or nil.
	Actor func() *world.Actor
	// Language returns the current language code, e.g. "en".
	Language func() string
	// Screen is the viewport of windowed rooms.
	Screen world.Size
	Logger *zap.Logger
}

// Protocol moves the game between rooms. It owns the current room.
type Protocol struct {
	deps   Deps
	room   *world.Room
	screen world.Size
	fade   float64
}

// New creates a Protocol with no current room.
//
// Precondition: Host, Tasks, Camera, Actor and Logger must be set. A zero
// Screen means world.DefaultScreenSize.
func New(deps Deps) *Protocol {
	if deps.Screen == (world.Size{}) {
		deps.Screen = world.DefaultScreenSize
	}
	if deps.Language == nil {
		deps.Language = func() string { return "en" }
	}
	return &Protocol{deps: deps, screen: deps.Screen}
}

// Room returns the current room, or nil.
func (p *Protocol) Room() *world.Room { return p.room }

// Screen returns the viewport size of the current room.
func (p *Protocol) Screen() world.Size { return p.screen }

// Fade returns the fade opacity in [0, 1]. 0 is fully transparent.
func (p *Protocol) Fade() float64 { return p.fade }

// SetFade sets the fade opacity.
func (p *Protocol) SetFade(alpha float64) { p.fade = min(max(alpha, 0), 1) }

// callForm is how a room callback is invoked, resolved once per call site
// from the declared parameter count.
type callForm int

const (
	formMissing callForm = iota
	formNoArg
	formWithArg
)

func (p *Protocol) callFormOf(target scripting.Ref, method string) callForm {
	switch p.deps.Host.ParamCount(target, method) {
	case -1:
		return formMissing
	case 2:
		return formWithArg
	default:
		return formNoArg
	}
}

// callLifecycle invokes a room enter or exit callback in its declared form.
// A missing callback is logged and reported. The caller skips the script
// notifications of that phase; the room switch itself carries on.
func (p *Protocol) callLifecycle(room *world.Room, method string, arg lua.LValue) error {
	ref := room.Ref()
	var err error
	switch p.callFormOf(ref, method) {
	case formWithArg:
		_, err = p.deps.Host.CallMethod(ref, method, arg)
	case formNoArg:
		_, err = p.deps.Host.CallMethod(ref, method)
	default:
		err = fmt.Errorf("room %q %s: %w", room.Name, method, scripting.ErrMissingFunction)
	}
	if err != nil {
		p.deps.Logger.Error("transition: room callback failed",
			zap.String("room", room.Name),
			zap.String("callback", method),
			zap.Error(err),
		)
	}
	return err
}

func (p *Protocol) notify(name string, args ...lua.LValue) {
	if _, err := p.deps.Host.Call(name, args...); err != nil {
		p.deps.Logger.Debug("transition: notification not declared", zap.String("function", name))
	}
}

func (p *Protocol) notifyRoom(room *world.Room, method string, args ...lua.LValue) {
	if !p.deps.Host.Exists(room.Ref(), method) {
		return
	}
	if _, err := p.deps.Host.CallMethod(room.Ref(), method, args...); err != nil {
		p.deps.Logger.Error("transition: room notification failed", zap.String("callback", method), zap.Error(err))
	}
}

func (p *Protocol) table(ref scripting.Ref) lua.LValue { return p.deps.Host.Bind(ref) }

func (p *Protocol) actor() *world.Actor {
	if p.deps.Actor == nil {
		return nil
	}
	return p.deps.Actor()
}

// exit runs the exit phase of the current room. arg is passed to a one-arg exit.
func (p *Protocol) exit(arg lua.LValue) error {
	if p.deps.Verbs != nil {
		p.deps.Verbs.SetDefaultVerb()
	}
	old := p.room
	if old == nil {
		return nil
	}
	err := p.callLifecycle(old, "exit", arg)
	// Room-scoped tasks never outlive the room, even when its exit is missing.
	stopped := p.deps.Tasks.StopLocal()
	if errors.Is(err, scripting.ErrMissingFunction) {
		return err
	}
	if a := p.actor(); a != nil {
		p.notifyRoom(old, "actorExit", p.table(a.Ref()))
	}
	p.notify("exitedRoom", p.table(old.Ref()))
	p.deps.Logger.Debug("transition: exited room", zap.String("room", old.Name), zap.Int("stopped_tasks", stopped))
	return err
}

// switchTo makes room current and recomputes the viewport.
func (p *Protocol) switchTo(room *world.Room) {
	p.deps.Host.Set("currentRoom", p.table(room.Ref()))
	p.deps.Camera.ResetBounds()
	p.deps.Camera.At(world.Point{})
	p.room = room
	p.screen = Viewport(room, p.deps.Screen)
}

// windowedViewports are the views of the screen heights the game art is drawn for.
var windowedViewports = map[int]world.Size{
	128: {W: 320, H: 180},
	172: {W: 428, H: 240},
	256: {W: 640, H: 360},
}

// Viewport returns the screen size used for room. A fullscreen room shows
// its whole room size. A windowed room is sized from its screen height:
// known heights map to fixed views, others scale 128 to 180 at 16:9. A
// windowed room without a screen height uses windowed.
func Viewport(room *world.Room, windowed world.Size) world.Size {
	if room.Fullscreen {
		return room.RoomSize
	}
	if room.ScreenHeight <= 0 {
		return windowed
	}
	if s, ok := windowedViewports[room.ScreenHeight]; ok {
		return s
	}
	h := 180 * float64(room.ScreenHeight) / 128
	return world.Size{W: int(math.Round(h * 320 / 180)), H: int(math.Round(h))}
}

// enter runs the enter phase of room. arg is passed to a one-arg enter.
func (p *Protocol) enter(room *world.Room, arg lua.LValue) error {
	err := p.callLifecycle(room, "enter", arg)
	a := p.actor()
	if a != nil {
		a.StopWalking()
	}
	p.patchLanguage(room)
	if errors.Is(err, scripting.ErrMissingFunction) {
		return err
	}

	if a != nil {
		p.notify("actorEnter", p.table(a.Ref()))
		p.notifyRoom(room, "actorEnter", p.table(a.Ref()))
	}
	for _, o := range room.Objects {
		if o.ID == 0 || o.Temporary {
			continue
		}
		if p.deps.Host.Exists(o.Ref(), "enter") {
			if _, cerr := p.deps.Host.CallMethod(o.Ref(), "enter"); cerr != nil {
				p.deps.Logger.Error("transition: object enter failed", zap.String("object", o.Key), zap.Error(cerr))
			}
		}
	}

	p.notify("enteredRoom", p.table(room.Ref()))
	p.deps.Logger.Debug("transition: entered room", zap.String("room", room.Name))
	return err
}

// patchLanguage re-resolves the sprite-sheet rectangles of every frame tagged
// with the default language suffix for the current language.
func (p *Protocol) patchLanguage(room *world.Room) {
	lang := p.deps.Language()
	for _, o := range room.Objects {
		for ai := range o.Animations {
			frames := o.Animations[ai].Frames
			for fi := range frames {
				name := frames[fi].Name
				if !strings.HasSuffix(name, languageSuffix) {
					continue
				}
				localized := strings.TrimSuffix(name, languageSuffix) + "_" + lang
				src, ok := room.SpriteSheet[localized]
				if !ok {
					continue
				}
				frames[fi].Rect = src.Rect
				frames[fi].SourceRect = src.SourceRect
				frames[fi].Size = src.Size
			}
		}
	}
}

// SetRoom moves the game to room: exit phase of the current room, switch,
// enter phase of room. The fade is cleared first.
//
// Precondition: room must be non-nil.
// Postcondition: Room() == room. Returns the joined lifecycle lookup
// failures; the transition itself always completes.
func (p *Protocol) SetRoom(room *world.Room) error {
	p.fade = 0
	if room == p.room {
		return nil
	}
	exitErr := p.exit(lua.LNil)
	p.switchTo(room)
	enterErr := p.enter(room, lua.LNil)
	return errors.Join(exitErr, enterErr)
}

// Facing returns the facing of an actor coming through a door used from dir.
//
// Postcondition: Returns an error wrapping ErrInvalidUseDirection for an unknown dir.
func Facing(dir world.UseDirection) (world.Facing, error) {
	switch dir {
	case world.UseDirBack:
		return world.FaceFront, nil
	case world.UseDirFront:
		return world.FaceBack, nil
	case world.UseDirLeft:
		return world.FaceRight, nil
	case world.UseDirRight:
		return world.FaceLeft, nil
	default:
		return 0, fmt.Errorf("%w: %d", ErrInvalidUseDirection, dir)
	}
}

// EnterRoomFromDoor moves the game to door's room. The current actor faces
// away from the door, stands at its use position, and the camera points
// there, unless the room is fullscreen.
//
// Precondition: door must be non-nil and belong to a room.
// Postcondition: Returns an error wrapping ErrInvalidUseDirection, with no
// state changed, when the door has no valid use direction.
func (p *Protocol) EnterRoomFromDoor(door *world.Object) error {
	facing, err := Facing(door.UseDirection)
	if err != nil {
		return err
	}
	room := door.Room
	if room == nil {
		return fmt.Errorf("transition: door %q has no room: %w", door.Key, ErrInvalidArgument)
	}
	p.fade = 0
	if room == p.room {
		return nil
	}

	exitErr := p.exit(p.table(room.Ref()))
	p.switchTo(room)

	if a := p.actor(); a != nil {
		a.Facing = facing
		if !room.Fullscreen {
			a.Room = room
			pos := door.Position.Add(door.Offset).Add(door.UsePosition)
			a.Position = pos
			p.deps.Camera.At(pos)
		}
	}

	enterErr := p.enter(room, p.table(door.Ref()))
	return errors.Join(exitErr, enterErr)
}
