package engine

import (
	"errors"
	"time"

	lua "github.com/yuin/gopher-lua"
	"go.uber.org/zap"

	"github.com/cory-johannsen/adventure/internal/game/input"
	"github.com/cory-johannsen/adventure/internal/game/interaction"
	"github.com/cory-johannsen/adventure/internal/game/task"
	"github.com/cory-johannsen/adventure/internal/game/world"
	"github.com/cory-johannsen/adventure/internal/preferences"
	"github.com/cory-johannsen/adventure/internal/scripting"
)

// Tick polls the input source and runs one frame.
func (e *Engine) Tick(elapsed time.Duration) {
	var sample input.Sample
	if e.deps.Input != nil {
		sample = e.deps.Input.Sample()
	}
	e.Update(sample, elapsed.Seconds())
}

// Update runs one frame, elapsed real seconds after the previous one.
//
// Order: game speed scaling, the pause key, play time, cutscene and script
// threads, the cutscene skip key, timed callbacks, then, with a current room, room scalings,
// camera follow and the interaction resolver.
//
// Precondition: elapsed >= 0.
// Postcondition: Returns the interaction outcome of the frame. Subsystem
// failures are logged and never abort the frame.
func (e *Engine) Update(sample input.Sample, elapsed float64) interaction.Outcome {
	elapsed *= e.deps.Prefs.GameSpeedFactor()
	e.tasks.Prune()

	if e.state == StatePaused {
		for _, k := range e.tracker.Keys(sample) {
			if k == input.KeySpace {
				e.state = StateGame
				e.logger.Debug("engine: resumed")
			}
		}
		return interaction.OutcomeNone
	}

	frame := e.tracker.Update(sample, elapsed)
	if frame.KeyReleased(input.KeySpace) {
		e.state = StatePaused
		e.logger.Debug("engine: paused")
		return interaction.OutcomeNone
	}

	e.frames++
	e.time += elapsed
	e.tasks.Update(elapsed)
	// Threads started by the override are staged for the next frame.
	if frame.KeyReleased(input.KeyEscape) && e.tasks.InCutscene() {
		e.tasks.SkipCutscene()
	}
	e.callbacks.Update(elapsed, e.fireCallback)

	room := e.rooms.Room()
	if room == nil {
		return interaction.OutcomeNone
	}
	e.updateRoomScaling(room)
	e.follow(room)

	outcome := e.resolver.Update(interaction.Input{
		Room:                  room,
		Actor:                 e.actor,
		Frame:                 frame,
		Camera:                e.camera.Position(),
		Screen:                e.rooms.Screen(),
		State:                 e.input,
		DialogActive:          e.dialogActive,
		RightClickSkipsDialog: e.deps.Prefs.Bool(preferences.RightClickSkipsDialog),
		OverActorIcons:        e.overIcons,
	})
	if outcome == interaction.OutcomeDialogSkip {
		e.stopAllTalking()
	}
	return outcome
}

// fireCallback calls the global function of an expired callback.
func (e *Engine) fireCallback(cb task.Callback) {
	var args []lua.LValue
	if cb.Param != nil && cb.Param != lua.LNil {
		args = append(args, cb.Param)
	}
	if _, err := e.deps.Host.Call(cb.Function, args...); err != nil {
		e.logger.Error("engine: callback failed",
			zap.Int("id", cb.ID),
			zap.String("function", cb.Function),
			zap.Error(err),
		)
	}
}

// updateRoomScaling selects the scaling named by the trigger object under
// the current actor, else the room's first scaling.
func (e *Engine) updateRoomScaling(room *world.Room) {
	if e.actor == nil || len(room.Scalings) == 0 {
		return
	}
	pos := e.actor.Position.Truncate()
	for _, o := range room.Objects {
		if o.Type != world.TypeTrigger || !o.RealHotspot().Contains(pos) {
			continue
		}
		for i := range room.Scalings {
			if room.Scalings[i].Name == o.Name {
				room.Scaling = &room.Scalings[i]
				return
			}
		}
	}
	room.Scaling = &room.Scalings[0]
}

// follow keeps the current actor within the middle half of the screen.
func (e *Engine) follow(room *world.Room) {
	a := e.actor
	if a == nil || !a.Visible || a.Room != room || room.Fullscreen {
		return
	}
	screen := e.rooms.Screen()
	target := world.Point{
		X: a.Position.X - float64(screen.W)/2,
		Y: a.Position.Y - float64(screen.H)/2,
	}
	margin := float64(screen.W) / 4
	at := e.camera.Position()
	if at.X > target.X+margin || at.X < target.X-margin {
		e.camera.At(target)
	}
}

// stopAllTalking asks every actor declaring stopTalking to stop.
func (e *Engine) stopAllTalking() {
	for _, a := range e.deps.World.Actors() {
		ref := a.Ref()
		if !e.deps.Host.Exists(ref, "stopTalking") {
			continue
		}
		if _, err := e.deps.Host.CallMethod(ref, "stopTalking"); err != nil && !errors.Is(err, scripting.ErrMissingFunction) {
			e.logger.Error("engine: stopTalking failed", zap.String("actor", a.Key), zap.Error(err))
		}
	}
}
