package savegame

import (
	"errors"
	"fmt"
	"time"

	lua "github.com/yuin/gopher-lua"
	"go.uber.org/zap"

	"github.com/cory-johannsen/adventure/internal/game/dialog"
	"github.com/cory-johannsen/adventure/internal/game/hud"
	"github.com/cory-johannsen/adventure/internal/game/task"
	"github.com/cory-johannsen/adventure/internal/game/world"
	"github.com/cory-johannsen/adventure/internal/scripting"
)

// Version is the only document version Load accepts.
const Version = 2

// Build is the build stamp written to every save and published to scripts
// as SAVEBUILD on load.
const Build = 958

// DefaultGlobalsTable is the script table saved under "globals".
const DefaultGlobalsTable = "g"

// pseudoObjectsKey holds the objects of a pseudo-room inside its room hash.
const pseudoObjectsKey = "_pseudoObjects"

// ErrUnsupportedVersion is returned by Load for a document of another version.
var ErrUnsupportedVersion = errors.New("savegame: unsupported version")

// Session is the engine state outside the registries that a save captures.
type Session interface {
	GameTime() float64
	SetGameTime(seconds float64)
	InputState() int
	SetInputState(bits int)
	CurrentActor() *world.Actor
	SelectActor(a *world.Actor)
	CurrentRoom() *world.Room
	// SetRoom runs the full room transition.
	SetRoom(r *world.Room) error
	ForceTalkieText() bool
	SetForceTalkieText(force bool)
	GameGUID() string
	SetGameGUID(guid string)
}

// Deps are the collaborators of a System.
type Deps struct {
	Host      scripting.Host
	World     *world.Manager
	Actors    *hud.ActorSelection
	Dialogs   *dialog.States
	Oracle    dialog.Oracle
	Callbacks *task.Callbacks
	Session   Session
	// GlobalsTable names the saved globals table. Empty = DefaultGlobalsTable.
	GlobalsTable string
	// Now returns the wall clock. nil = time.Now.
	Now    func() time.Time
	Logger *zap.Logger
}

// System saves and restores the game state.
type System struct {
	deps Deps
	conv converter
}

// New creates a System.
//
// Precondition: every Deps field except GlobalsTable and Now must be set.
func New(deps Deps) *System {
	if deps.GlobalsTable == "" {
		deps.GlobalsTable = DefaultGlobalsTable
	}
	if deps.Now == nil {
		deps.Now = time.Now
	}
	return &System{
		deps: deps,
		conv: converter{host: deps.Host, world: deps.World, logger: deps.Logger},
	}
}

// SlotMeta is the summary shown for a save slot without loading it.
type SlotMeta struct {
	SaveTime time.Time
	GameTime float64
	EasyMode bool
}

// ReadMeta extracts the slot summary of doc.
func ReadMeta(doc Value) SlotMeta {
	return SlotMeta{
		SaveTime: time.Unix(doc.Get("savetime").Int(), 0),
		GameTime: doc.Get("gameTime").Double(),
		EasyMode: doc.Get("easy_mode").Truthy(),
	}
}

// hook calls an optional global script hook.
func (s *System) hook(name string) {
	if _, err := s.deps.Host.Call(name); err != nil && !errors.Is(err, scripting.ErrMissingFunction) {
		s.deps.Logger.Warn("savegame: hook failed", zap.String("hook", name), zap.Error(err))
	}
}

func (s *System) globals() *lua.LTable {
	if t, ok := s.deps.Host.Get(s.deps.GlobalsTable).(*lua.LTable); ok {
		return t
	}
	return nil
}

// bindAll makes every entity table known to the host so that references
// between tables are saved as entity references.
func (s *System) bindAll() {
	for _, r := range s.deps.World.Rooms() {
		s.deps.Host.Bind(r.Ref())
		for _, o := range r.Objects {
			s.deps.Host.Bind(o.Ref())
		}
	}
	for _, a := range s.deps.World.Actors() {
		s.deps.Host.Bind(a.Ref())
	}
}

// Save captures the current state between the preSave and postSave hooks.
//
// Postcondition: Returns a hash document of the current Version.
func (s *System) Save() Value {
	s.hook("preSave")
	s.bindAll()

	doc := Hash()
	doc.Set("actors", s.saveActors())
	doc.Set("callbacks", s.saveCallbacks())
	doc.Set("dialog", s.saveDialogs())
	doc.Set("gameScene", s.saveGameScene())
	doc.Set("globals", s.conv.snapshot(s.globals(), nil))
	doc.Set("inventory", s.saveInventory())
	doc.Set("objects", s.saveObjects())
	doc.Set("rooms", s.saveRooms())

	easyMode := int64(0)
	if g := s.globals(); g != nil {
		if n, ok := g.RawGetString("easy_mode").(lua.LNumber); ok {
			easyMode = int64(n)
		}
	}
	currentRoom := ""
	if r := s.deps.Session.CurrentRoom(); r != nil {
		currentRoom = r.Name
	}
	selected := ""
	if a := s.deps.Session.CurrentActor(); a != nil {
		selected = a.Key
	}
	doc.Set("currentRoom", String(currentRoom))
	doc.Set("easy_mode", Int(easyMode))
	doc.Set("gameGUID", String(s.deps.Session.GameGUID()))
	doc.Set("gameTime", Double(s.deps.Session.GameTime()))
	doc.Set("inputState", Int(int64(s.deps.Session.InputState())))
	doc.Set("savebuild", Int(Build))
	doc.Set("savetime", Int(s.deps.Now().Unix()))
	doc.Set("selectedActor", String(selected))
	doc.Set("version", Int(Version))

	s.hook("postSave")
	return doc
}

// Load restores doc. A document of another version is rejected before any
// state changes. Entries naming entities that no longer exist are skipped.
//
// Precondition: doc should come from Save or Codec.Decode.
// Postcondition: Returns an error wrapping ErrUnsupportedVersion without
// side effects, or the joined errors of the room transition.
func (s *System) Load(doc Value) error {
	if v := doc.Get("version").Int(); v != Version {
		s.deps.Logger.Warn("savegame: cannot load version", zap.Int64("version", v))
		return fmt.Errorf("%w: %d", ErrUnsupportedVersion, v)
	}
	s.hook("preLoad")

	s.loadGameScene(doc.Get("gameScene"))
	s.loadDialogs(doc.Get("dialog"))
	s.loadCallbacks(doc.Get("callbacks"))
	s.loadGlobals(doc.Get("globals"))
	s.loadActors(doc.Get("actors"))
	s.loadInventory(doc.Get("inventory"))
	s.loadRooms(doc.Get("rooms"))

	s.deps.Session.SetGameTime(doc.Get("gameTime").Double())
	s.deps.Session.SetInputState(int(doc.Get("inputState").Int()))
	if guid := doc.Get("gameGUID").Str(); guid != "" {
		s.deps.Session.SetGameGUID(guid)
	}

	if key := doc.Get("selectedActor").Str(); key != "" {
		if a, ok := s.deps.World.Actor(key); ok {
			s.deps.Session.SelectActor(a)
		} else {
			s.deps.Logger.Warn("load: selected actor not found", zap.String("actor", key))
		}
	}

	var errs []error
	name := doc.Get("currentRoom").Str()
	if r, ok := s.deps.World.Room(name); ok {
		if err := s.deps.Session.SetRoom(r); err != nil {
			errs = append(errs, err)
		}
	} else {
		s.deps.Logger.Warn("load: current room not found", zap.String("room", name))
	}
	s.loadObjects(doc.Get("objects"))

	s.deps.Host.Set("SAVEBUILD", lua.LNumber(doc.Get("savebuild").Int()))
	s.hook("postLoad")
	return errors.Join(errs...)
}
