package engine

import (
	"errors"
	"fmt"

	lua "github.com/yuin/gopher-lua"
	"go.uber.org/zap"

	"github.com/cory-johannsen/adventure/internal/game/hud"
	"github.com/cory-johannsen/adventure/internal/game/input"
	"github.com/cory-johannsen/adventure/internal/game/interaction"
	"github.com/cory-johannsen/adventure/internal/game/task"
	"github.com/cory-johannsen/adventure/internal/game/world"
	"github.com/cory-johannsen/adventure/internal/scripting"
)

// ErrUnknownEntity is returned when a script refers to an entity the world does not hold.
var ErrUnknownEntity = errors.New("engine: unknown entity")

// bind injects the engine actions behind the engine.* script API.
func (e *Engine) bind() {
	h := e.deps.Host
	h.StartThread = func(th *scripting.Thread) int { return e.tasks.Start(th) }
	h.StopThread = e.tasks.Stop
	h.StartCutscene = e.startCutscene
	h.AddCallback = e.callbacks.Add
	h.RemoveCallback = e.callbacks.Remove
	h.SetRoom = e.setRoomRef
	h.EnterRoomFromDoor = e.enterRoomFromDoorRef
	h.SetUseFlag = e.setUseFlag
	h.SelectActor = func(ref scripting.Ref) error {
		a, err := e.actorRef(ref)
		if err != nil {
			return err
		}
		e.setCurrentActor(a, false)
		return nil
	}
	h.InputState = e.InputState
	h.SetInputState = e.SetInputState
	h.SetActorSlot = e.setActorSlot
	h.SetSelectableMode = func(mode int) { e.actors.SetMode(hud.SelectableMode(mode)) }
}

// startCutscene runs body with input disabled. The input state in effect
// when the cutscene begins is restored when it ends.
func (e *Engine) startCutscene(body *scripting.Thread, override *lua.LFunction) int {
	var skip func()
	if override != nil {
		skip = func() { e.deps.Host.CallFunction(override) }
	}
	var saved input.State
	c := task.NewCutscene(body, skip, task.CutsceneHooks{
		Begin: func() {
			saved = e.input
			e.input.Active = false
			e.input.VerbsActive = false
		},
		End: func() { e.input = saved },
	})
	return e.tasks.StartCutscene(c)
}

func (e *Engine) actorRef(ref scripting.Ref) (*world.Actor, error) {
	a, ok := e.deps.World.Actor(ref.Key)
	if !ok {
		return nil, fmt.Errorf("actor %q: %w", ref.Key, ErrUnknownEntity)
	}
	return a, nil
}

func (e *Engine) setRoomRef(ref scripting.Ref) error {
	r, ok := e.deps.World.Room(ref.Key)
	if !ok {
		return fmt.Errorf("room %q: %w", ref.Key, ErrUnknownEntity)
	}
	return e.SetRoom(r)
}

func (e *Engine) enterRoomFromDoorRef(ref scripting.Ref) error {
	ent, ok := e.deps.World.Resolve(ref)
	door, isObject := ent.(*world.Object)
	if !ok || !isObject {
		return fmt.Errorf("door %q: %w", ref.Key, ErrUnknownEntity)
	}
	if err := e.rooms.EnterRoomFromDoor(door); err != nil {
		e.logger.Error("engine: enter room from door", zap.String("door", door.Key), zap.Error(err))
		return err
	}
	return nil
}

// setUseFlag starts or cancels a two-object interaction. A zero ref with
// flag UseNone cancels it.
func (e *Engine) setUseFlag(flag int, ref scripting.Ref) error {
	f := interaction.UseFlag(flag)
	if f < interaction.UseNone || f > interaction.GiveTo {
		return fmt.Errorf("engine: use flag %d out of range", flag)
	}
	if ref.IsZero() {
		e.resolver.SetUseFlag(f, nil)
		return nil
	}
	ent, ok := e.deps.World.Resolve(ref)
	if !ok {
		return fmt.Errorf("%s %q: %w", ref.Kind, ref.Key, ErrUnknownEntity)
	}
	e.resolver.SetUseFlag(f, ent)
	return nil
}

func (e *Engine) setActorSlot(slot int, ref scripting.Ref, selectable bool) error {
	if slot < 0 || slot >= hud.ActorSlots {
		return fmt.Errorf("engine: actor slot %d out of range", slot)
	}
	a, err := e.actorRef(ref)
	if err != nil {
		return err
	}
	e.actors.SetSlot(slot, a, selectable)
	return nil
}
