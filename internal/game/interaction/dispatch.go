package interaction

import (
	"errors"

	lua "github.com/yuin/gopher-lua"
	"go.uber.org/zap"

	"github.com/cory-johannsen/adventure/internal/game/hud"
	"github.com/cory-johannsen/adventure/internal/game/input"
	"github.com/cory-johannsen/adventure/internal/game/world"
	"github.com/cory-johannsen/adventure/internal/scripting"
)

// Outcome names what a frame's input resulted in.
type Outcome int

// Frame outcomes.
const (
	OutcomeNone Outcome = iota
	// OutcomeDialogSkip asks the caller to stop all talking.
	OutcomeDialogSkip
	// OutcomeClickConsumed means a clickedAt hook handled the click.
	OutcomeClickConsumed
	// OutcomeVerbSelected means a verb bar button was clicked.
	OutcomeVerbSelected
	// OutcomeDragWalk means the held button walks the actor to the cursor.
	OutcomeDragWalk
	// OutcomeExecuted means a verb was executed on the resolved operands.
	OutcomeExecuted
	// OutcomeWalk means a click in free space walks the actor and resets the verb.
	OutcomeWalk
)

var outcomeNames = [...]string{"none", "dialog-skip", "click-consumed", "verb-selected", "drag-walk", "executed", "walk"}

// String returns the name of the outcome.
func (o Outcome) String() string {
	if int(o) < len(outcomeNames) {
		return outcomeNames[o]
	}
	return "unknown"
}

// Input is everything the resolver needs about one frame.
type Input struct {
	Room  *world.Room
	Actor *world.Actor
	// Frame is the edge-detected device input.
	Frame input.Frame
	// Camera is the room-space position of the viewport origin.
	Camera world.Point
	// Screen is the viewport size.
	Screen world.Size
	State  input.State
	// DialogActive reports that a dialog is showing choices or lines.
	DialogActive bool
	// RightClickSkipsDialog is the user preference of the same name.
	RightClickSkipsDialog bool
	// OverActorIcons reports the cursor is over the actor selection icons.
	OverActorIcons bool
}

// RoomPosition returns the room-space cursor position.
func (in Input) RoomPosition() world.Point { return in.Frame.Mouse.Add(in.Camera) }

// callArg returns the bound table of e, or nil.
func (r *Resolver) callArg(e world.Entity) lua.LValue {
	if e == nil {
		return lua.LNil
	}
	return r.host.Bind(e.Ref())
}

// callOptional calls a method that scripts may leave undeclared.
func (r *Resolver) callOptional(target scripting.Ref, method string, args ...lua.LValue) (lua.LValue, bool) {
	if !r.host.Exists(target, method) {
		return lua.LNil, false
	}
	ret, err := r.host.CallMethod(target, method, args...)
	if err != nil {
		r.logger.Error("interaction: script call failed", zap.String("method", method), zap.Error(err))
		return lua.LNil, false
	}
	return ret, true
}

// callGlobal calls an optional global notification.
func (r *Resolver) callGlobal(name string, args ...lua.LValue) {
	if _, err := r.host.Call(name, args...); err != nil && !errors.Is(err, scripting.ErrMissingFunction) {
		r.logger.Error("interaction: script call failed", zap.String("function", name), zap.Error(err))
	}
}

// ClickedAt offers a click at the room-space position to the room's, then
// the actor's, clickedAt hook.
//
// Postcondition: Returns true when a hook returned true.
func (r *Resolver) ClickedAt(room *world.Room, actor *world.Actor, pos world.Point) bool {
	if room == nil {
		return false
	}
	x, y := lua.LNumber(pos.X), lua.LNumber(pos.Y)
	if ret, ok := r.callOptional(room.Ref(), "clickedAt", x, y); ok && lua.LVAsBool(ret) {
		return true
	}
	if actor == nil {
		return false
	}
	ret, ok := r.callOptional(actor.Ref(), "clickedAt", x, y)
	return ok && lua.LVAsBool(ret)
}

// OnVerbClick selects v and cancels pending operands.
func (r *Resolver) OnVerbClick(v hud.Verb) {
	r.hud.SetCurrentVerb(v)
	r.ClearOperands()
	r.callGlobal("onVerbClick")
}

// Keyboard reports released keys to the room's pressedKey hook and selects
// the verb whose shortcut was released.
func (r *Resolver) Keyboard(room *world.Room, released []string) {
	if len(released) == 0 {
		return
	}
	if room != nil {
		for _, k := range released {
			r.callOptional(room.Ref(), "pressedKey", lua.LString(k))
		}
	}
	slot := r.hud.VerbSlot(r.hud.CurrentSlot())
	for _, v := range slot.Verbs {
		if v.IsZero() || v.Key == "" {
			continue
		}
		for _, k := range released {
			if k == v.Key {
				r.OnVerbClick(v)
			}
		}
	}
}

// Run switches the actor's run animation when the state changes.
func (r *Resolver) Run(actor *world.Actor, running bool) {
	if r.running == running {
		return
	}
	r.running = running
	if actor == nil {
		return
	}
	actor.Running = running
	r.callOptional(actor.Ref(), "run", lua.LBool(running))
}

// Update runs the interaction part of a frame: HUD activity, hover (stored as
// the alias entity), operand resolution and cursor hints, then, when input is
// enabled, keyboard, dialog skip, clickedAt hooks, verb bar clicks, verb
// execution and walking.
//
// Postcondition: Returns what the frame's input resulted in. Errors from the
// verb executor are logged, never returned.
func (r *Resolver) Update(in Input) Outcome {
	if in.Room == nil {
		return OutcomeNone
	}
	r.Run(in.Actor, in.Frame.Run)
	pos := in.RoomPosition()

	r.hud.SetActive(in.State.VerbsActive && !in.DialogActive && !in.Room.Fullscreen)
	r.hud.SetHoveredEntity(r.Alias(r.Hovered(in.Room, in.Actor, pos)))
	r.Resolve(in.Frame.RightClick)
	r.UpdateCursor(in.Frame.Mouse, in.Screen)

	if !in.State.Active {
		return OutcomeNone
	}
	r.Keyboard(in.Room, in.Frame.Released)

	if in.DialogActive {
		if in.RightClickSkipsDialog && in.Frame.RightClick {
			return OutcomeDialogSkip
		}
		return OutcomeNone
	}
	if in.OverActorIcons {
		return OutcomeNone
	}
	if in.Frame.Click && r.ClickedAt(in.Room, in.Actor, pos) {
		return OutcomeClickConsumed
	}
	if in.Actor == nil {
		return OutcomeNone
	}
	if !in.Frame.Click && !in.Frame.RightClick && !in.Frame.Held {
		return OutcomeNone
	}

	verb, onVerb := r.hoveredVerb(in)
	if onVerb {
		r.OnVerbClick(verb)
		return OutcomeVerbSelected
	}

	hovered := r.hud.HoveredEntity()
	if !in.Frame.Click && !in.Frame.RightClick {
		if hovered == nil {
			in.Actor.WalkTo(pos)
			return OutcomeDragWalk
		}
		return OutcomeNone
	}

	if hovered != nil {
		r.callGlobal("onObjectClick", r.callArg(hovered))
		r.execute()
		return OutcomeExecuted
	}

	in.Actor.WalkTo(pos)
	r.SetDefaultVerb()
	return OutcomeWalk
}

func (r *Resolver) hoveredVerb(in Input) (hud.Verb, bool) {
	if !r.hud.Active() || in.Room.Fullscreen {
		return hud.Verb{}, false
	}
	return r.hud.HoveredVerb(in.Frame.Mouse)
}

// execute runs the effective verb on the resolved operands. A completed
// two-object interaction clears the use flag.
func (r *Resolver) execute() {
	verb, ok := r.hud.VerbOverride()
	if !ok {
		verb, ok = r.hud.CurrentVerb()
	}
	if !ok {
		return
	}
	verb = r.OverrideVerb(verb)

	obj1, obj2 := r.obj1, r.obj2
	if verb.ID == hud.VerbTalkTo {
		obj1 = r.Alias(obj1)
	}
	if verb.ID == hud.VerbGive {
		obj2 = r.Alias(obj2)
	}
	if obj1 == nil {
		return
	}
	if err := r.exec.Execute(verb, obj1, obj2); err != nil {
		r.logger.Error("interaction: verb execution failed",
			zap.Int("verb", verb.ID),
			zap.String("object", obj1.Base().Key),
			zap.Error(err),
		)
	}
	if obj2 != nil {
		r.useFlag = UseNone
		r.useObject = nil
	}
}
