package engine

import (
	"context"
	"errors"
	"fmt"
	"time"

	lua "github.com/yuin/gopher-lua"
	"go.uber.org/zap"

	"github.com/cory-johannsen/adventure/internal/game/world"
	"github.com/cory-johannsen/adventure/internal/preferences"
	"github.com/cory-johannsen/adventure/internal/savegame"
	"github.com/cory-johannsen/adventure/internal/scripting"
)

var _ savegame.Session = (*Engine)(nil)

// GameTime returns the unpaused play time in seconds.
func (e *Engine) GameTime() float64 { return e.time }

// SetGameTime replaces the play time.
func (e *Engine) SetGameTime(seconds float64) { e.time = seconds }

// InputState returns the encoded input state bitmask.
func (e *Engine) InputState() int { return e.input.Encode() }

// SetInputState applies the on/off pairs set in bits.
func (e *Engine) SetInputState(bits int) { e.input = e.input.Apply(bits) }

// CurrentActor returns the actor the player controls, or nil.
func (e *Engine) CurrentActor() *world.Actor { return e.actor }

// SelectActor makes a the current actor on behalf of scripts or a load.
func (e *Engine) SelectActor(a *world.Actor) { e.setCurrentActor(a, false) }

// CurrentRoom returns the current room, or nil.
func (e *Engine) CurrentRoom() *world.Room { return e.rooms.Room() }

// SetRoom runs the room transition to r.
//
// Precondition: r must be non-nil.
// Postcondition: CurrentRoom() == r. Lifecycle lookup failures are logged
// and returned.
func (e *Engine) SetRoom(r *world.Room) error {
	if err := e.rooms.SetRoom(r); err != nil {
		e.logger.Error("engine: room transition", zap.String("room", r.Name), zap.Error(err))
		return err
	}
	return nil
}

// ForceTalkieText reports the temporary preference of the same name.
func (e *Engine) ForceTalkieText() bool {
	return e.deps.Prefs.Temp(preferences.TempForceTalkieText, false)
}

// SetForceTalkieText sets the temporary preference of the same name.
func (e *Engine) SetForceTalkieText(force bool) {
	e.deps.Prefs.SetTemp(preferences.TempForceTalkieText, force)
}

// GameGUID identifies the game across its saves.
func (e *Engine) GameGUID() string { return e.guid }

// SetGameGUID adopts the identifier of a loaded game.
func (e *Engine) SetGameGUID(guid string) { e.guid = guid }

// setCurrentActor switches the controlled actor, selects its verb slot and
// notifies the global and room onActorSelected hooks.
func (e *Engine) setCurrentActor(a *world.Actor, userSelected bool) {
	e.actor = a
	if i := e.actors.IndexOf(a); i >= 0 {
		e.hud.SetCurrentSlot(i)
	}
	var arg lua.LValue = lua.LNil
	if a != nil {
		arg = e.deps.Host.Bind(a.Ref())
	}
	if _, err := e.deps.Host.Call("onActorSelected", arg, lua.LBool(userSelected)); err != nil && !errors.Is(err, scripting.ErrMissingFunction) {
		e.logger.Error("engine: onActorSelected failed", zap.Error(err))
	}
	if a == nil || a.Room == nil {
		return
	}
	ref := a.Room.Ref()
	if !e.deps.Host.Exists(ref, "onActorSelected") {
		return
	}
	if _, err := e.deps.Host.CallMethod(ref, "onActorSelected", arg, lua.LBool(userSelected)); err != nil {
		e.logger.Error("engine: room onActorSelected failed", zap.String("room", a.Room.Name), zap.Error(err))
	}
}

// SelectActorSlot switches to the actor of slot i as a player choice.
//
// Postcondition: Returns false when the slot is empty, not selectable, or
// switching is disabled.
func (e *Engine) SelectActorSlot(i int) bool {
	a, ok := e.actors.At(i)
	if !ok {
		return false
	}
	e.setCurrentActor(a, true)
	return true
}

// SelectNextActor switches to the next selectable actor as a player choice.
func (e *Engine) SelectNextActor() bool {
	a, ok := e.actors.Next(e.actor)
	if ok {
		e.setCurrentActor(a, true)
	}
	return ok
}

// SelectPreviousActor switches to the previous selectable actor as a player choice.
func (e *Engine) SelectPreviousActor() bool {
	a, ok := e.actors.Previous(e.actor)
	if ok {
		e.setCurrentActor(a, true)
	}
	return ok
}

// Save returns the save document of the current state.
func (e *Engine) Save() savegame.Value { return e.saves.Save() }

// Load restores doc.
//
// Postcondition: Returns an error wrapping savegame.ErrUnsupportedVersion,
// with no state changed, for a document of another version.
func (e *Engine) Load(doc savegame.Value) error { return e.saves.Load(doc) }

// SaveSlot writes the current state to slot.
func (e *Engine) SaveSlot(ctx context.Context, slot int) error {
	if e.deps.Slots == nil {
		return ErrNoSaveStore
	}
	start := time.Now()
	if err := e.deps.Slots.Save(ctx, slot, e.saves.Save()); err != nil {
		return fmt.Errorf("saving slot %d: %w", slot, err)
	}
	e.logger.Info("game saved",
		zap.Int("slot", slot),
		zap.Float64("game_time", e.time),
		zap.Duration("elapsed", time.Since(start)),
	)
	return nil
}

// LoadSlot restores the state saved in slot.
//
// Postcondition: Returns an error wrapping savestore.ErrSlotNotFound for an
// empty slot or savegame.ErrUnsupportedVersion for an incompatible one.
func (e *Engine) LoadSlot(ctx context.Context, slot int) error {
	if e.deps.Slots == nil {
		return ErrNoSaveStore
	}
	doc, err := e.deps.Slots.Load(ctx, slot)
	if err != nil {
		return fmt.Errorf("loading slot %d: %w", slot, err)
	}
	if err := e.saves.Load(doc); err != nil {
		return fmt.Errorf("loading slot %d: %w", slot, err)
	}
	e.logger.Info("game loaded", zap.Int("slot", slot), zap.Float64("game_time", e.time))
	return nil
}
