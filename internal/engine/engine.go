// Package engine is the frame scheduler of the adventure runtime. It owns the
// game subsystems, binds the engine.* script API to them and advances them in
// a fixed order once per frame.
//
// An Engine is not safe for concurrent use. Every call, including save and
// load, must come from the goroutine running the frame loop.
package engine

import (
	"errors"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/cory-johannsen/adventure/internal/config"
	"github.com/cory-johannsen/adventure/internal/game/dialog"
	"github.com/cory-johannsen/adventure/internal/game/hud"
	"github.com/cory-johannsen/adventure/internal/game/input"
	"github.com/cory-johannsen/adventure/internal/game/interaction"
	"github.com/cory-johannsen/adventure/internal/game/task"
	"github.com/cory-johannsen/adventure/internal/game/transition"
	"github.com/cory-johannsen/adventure/internal/game/world"
	"github.com/cory-johannsen/adventure/internal/preferences"
	"github.com/cory-johannsen/adventure/internal/savegame"
	"github.com/cory-johannsen/adventure/internal/savestore"
	"github.com/cory-johannsen/adventure/internal/scripting"
)

// BootFunction is the global script function called by Boot.
const BootFunction = "boot"

// ErrNoSaveStore is returned by SaveSlot and LoadSlot when no store is configured.
var ErrNoSaveStore = errors.New("engine: no save store configured")

// State is the top-level engine state.
type State int

// Engine states.
const (
	StateGame State = iota
	// StatePaused only tracks keys until the pause key is released again.
	StatePaused
)

// Deps are the collaborators of an Engine.
type Deps struct {
	Config config.EngineConfig
	World  *world.Manager
	Host   *scripting.Manager
	Prefs  *preferences.Store
	// Oracle answers dialog asset existence while parsing saved dialog states.
	Oracle dialog.Oracle
	// Executor performs verbs. nil = interaction.ScriptExecutor.
	Executor interaction.VerbExecutor
	// Slots stores save games. nil disables SaveSlot and LoadSlot.
	Slots *savestore.Slots
	// Input polls the devices once per Tick. nil = no device, an idle sample.
	Input InputSource
	// NewGUID returns the identifier of a new game. nil = uuid.NewString.
	NewGUID func() string
	// Now returns the wall clock. nil = time.Now.
	Now    func() time.Time
	Logger *zap.Logger
}

// InputSource polls the input devices.
type InputSource interface {
	Sample() input.Sample
}

// inventoryCursor is the inventory object the presentation layer reports
// under the cursor.
type inventoryCursor struct{ obj *world.Object }

func (c *inventoryCursor) HoveredObject() *world.Object { return c.obj }

// Engine drives one running game.
type Engine struct {
	deps   Deps
	logger *zap.Logger

	hud       *hud.HUD
	actors    *hud.ActorSelection
	tasks     *task.Scheduler
	callbacks *task.Callbacks
	dialogs   *dialog.States
	camera    *transition.Camera
	rooms     *transition.Protocol
	resolver  *interaction.Resolver
	saves     *savegame.System
	tracker   *input.Tracker
	inventory *inventoryCursor

	state        State
	input        input.State
	actor        *world.Actor
	time         float64
	frames       int
	guid         string
	dialogActive bool
	overIcons    bool
}

// New wires the subsystems around the world and script host and binds the
// engine.* script API.
//
// Precondition: World, Host, Prefs, Oracle and Logger must be non-nil.
// Postcondition: Returns an Engine with no current room and no current actor.
func New(deps Deps) *Engine {
	if deps.NewGUID == nil {
		deps.NewGUID = uuid.NewString
	}
	if deps.Now == nil {
		deps.Now = time.Now
	}
	e := &Engine{
		deps:      deps,
		logger:    deps.Logger,
		hud:       hud.New(),
		actors:    &hud.ActorSelection{},
		tasks:     task.NewScheduler(),
		callbacks: task.NewCallbacks(),
		dialogs:   &dialog.States{},
		camera:    &transition.Camera{},
		tracker:   input.NewTracker(),
		inventory: &inventoryCursor{},
		input:     input.DefaultState,
		guid:      deps.NewGUID(),
	}
	exec := deps.Executor
	if exec == nil {
		exec = interaction.NewScriptExecutor(deps.Host, deps.Logger)
	}
	e.resolver = interaction.NewResolver(deps.World, e.hud, deps.Host, exec, e.inventory, deps.Logger)
	e.rooms = transition.New(transition.Deps{
		Host:     deps.Host,
		Tasks:    e.tasks,
		Verbs:    e.resolver,
		Camera:   e.camera,
		Actor:    e.CurrentActor,
		Language: deps.Prefs.Language,
		Screen:   world.Size{W: deps.Config.ScreenWidth, H: deps.Config.ScreenHeight},
		Logger:   deps.Logger,
	})
	e.saves = savegame.New(savegame.Deps{
		Host:         deps.Host,
		World:        deps.World,
		Actors:       e.actors,
		Dialogs:      e.dialogs,
		Oracle:       deps.Oracle,
		Callbacks:    e.callbacks,
		Session:      e,
		GlobalsTable: deps.Config.GlobalsTable,
		Now:          deps.Now,
		Logger:       deps.Logger,
	})
	e.bind()
	deps.Prefs.Subscribe(e.onPreferenceChanged)
	return e
}

// Boot binds every entity to its script table and calls the global boot function.
//
// Postcondition: Returns an error when scripts declare no boot function.
func (e *Engine) Boot() error {
	for _, r := range e.deps.World.Rooms() {
		e.deps.Host.Bind(r.Ref())
		for _, o := range r.Objects {
			e.deps.Host.Bind(o.Ref())
		}
	}
	for _, a := range e.deps.World.Actors() {
		e.deps.Host.Bind(a.Ref())
	}
	start := time.Now()
	if _, err := e.deps.Host.Call(BootFunction); err != nil {
		return err
	}
	e.logger.Info("game booted",
		zap.String("game_guid", e.guid),
		zap.Duration("elapsed", time.Since(start)),
	)
	return nil
}

func (e *Engine) onPreferenceChanged(name string) {
	if name != preferences.Language {
		return
	}
	e.logger.Info("language changed", zap.String("language", e.deps.Prefs.Language()))
	if _, err := e.deps.Host.Call("onLanguageChange"); err != nil && !errors.Is(err, scripting.ErrMissingFunction) {
		e.logger.Error("engine: onLanguageChange failed", zap.Error(err))
	}
}

// HUD returns the verb HUD.
func (e *Engine) HUD() *hud.HUD { return e.hud }

// Actors returns the actor selection slots.
func (e *Engine) Actors() *hud.ActorSelection { return e.actors }

// Tasks returns the task scheduler.
func (e *Engine) Tasks() *task.Scheduler { return e.tasks }

// Callbacks returns the pending timed callbacks.
func (e *Engine) Callbacks() *task.Callbacks { return e.callbacks }

// Dialogs returns the dialog condition states.
func (e *Engine) Dialogs() *dialog.States { return e.dialogs }

// Camera returns the camera.
func (e *Engine) Camera() *transition.Camera { return e.camera }

// Rooms returns the room transition protocol.
func (e *Engine) Rooms() *transition.Protocol { return e.rooms }

// Resolver returns the interaction resolver.
func (e *Engine) Resolver() *interaction.Resolver { return e.resolver }

// State returns the top-level state.
func (e *Engine) State() State { return e.state }

// Frames returns the number of unpaused frames run.
func (e *Engine) Frames() int { return e.frames }

// SetDialogActive tells the engine whether the dialog collaborator is
// showing lines or choices.
func (e *Engine) SetDialogActive(active bool) { e.dialogActive = active }

// SetInventoryHover reports the inventory object under the cursor. nil = none.
func (e *Engine) SetInventoryHover(o *world.Object) { e.inventory.obj = o }

// SetOverActorIcons reports whether the cursor is over the actor selection icons.
func (e *Engine) SetOverActorIcons(over bool) { e.overIcons = over }

// NoOverrideVisible reports whether the "cutscene cannot be skipped" indicator shows.
func (e *Engine) NoOverrideVisible() bool { return e.tasks.NoOverrideVisible() }
