package scripting

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"

	lua "github.com/yuin/gopher-lua"
	"go.uber.org/zap"
)

// ErrMissingFunction is returned when a called global or method is not a function.
var ErrMissingFunction = errors.New("scripting: missing function")

// RefKind classifies a script-visible engine entity.
type RefKind int

const (
	// RefRoom addresses a room table, published as a global named after the room.
	RefRoom RefKind = iota + 1
	// RefActor addresses an actor table, published as a global named after the actor key.
	RefActor
	// RefObject addresses an object table, a field of its room table.
	RefObject
)

// String returns the lower-case name of the kind.
func (k RefKind) String() string {
	switch k {
	case RefRoom:
		return "room"
	case RefActor:
		return "actor"
	case RefObject:
		return "object"
	default:
		return "unknown"
	}
}

// Ref is the stable identity of an engine entity as seen by the Script Host.
// Engine structures hold Refs, never interpreter tables.
type Ref struct {
	Kind RefKind
	// Key is the room name, actor key, or object key.
	Key string
	// Room qualifies an object key with its owning room name. Empty otherwise.
	Room string
}

// IsZero reports whether r addresses nothing.
func (r Ref) IsZero() bool { return r.Kind == 0 }

// Host is the narrow contract through which the engine dispatches to scripts.
type Host interface {
	// Call invokes the global function name.
	Call(name string, args ...lua.LValue) (lua.LValue, error)
	// CallMethod invokes target's method as target:method(args...).
	CallMethod(target Ref, method string, args ...lua.LValue) (lua.LValue, error)
	// Exists reports whether target declares method as a function.
	Exists(target Ref, method string) bool
	// ExistsGlobal reports whether the global name is a function.
	ExistsGlobal(name string) bool
	// RawGet reads a field of target's table without metamethods.
	RawGet(target Ref, field string) (lua.LValue, bool)
	// Get reads a global.
	Get(name string) lua.LValue
	// Set assigns a global.
	Set(name string, value lua.LValue)
	// ParamCount returns the declared parameter count of target's method,
	// counting the implicit self, or -1 when it is not a Lua function.
	ParamCount(target Ref, method string) int
	// Bind returns the table backing ref, creating it when scripts declared none.
	Bind(ref Ref) *lua.LTable
	// Lookup resolves a bound table back to its Ref.
	Lookup(t *lua.LTable) (Ref, bool)
	// NewTable creates an unbound table.
	NewTable() *lua.LTable
}

// Manager owns the single sandboxed LState of a running game and
// implements Host on top of it.
//
// Manager is not safe for concurrent use. The frame scheduler is its only
// caller; engine.* functions re-enter it from inside Lua calls.
type Manager struct {
	L      *lua.LState
	budget *Budget
	logger *zap.Logger
	tables map[Ref]*lua.LTable
	refs   map[*lua.LTable]Ref
	depth  int

	// Injected after construction. nil = no-op in engine.* modules.
	StartThread       func(th *Thread) int
	StopThread        func(id int) bool
	StartCutscene     func(body *Thread, override *lua.LFunction) int
	AddCallback       func(delay float64, function string, param lua.LValue) int
	RemoveCallback    func(id int) bool
	SetRoom           func(room Ref) error
	EnterRoomFromDoor func(door Ref) error
	SetUseFlag        func(flag int, object Ref) error
	SelectActor       func(actor Ref) error
	InputState        func() int
	SetInputState     func(state int)
	SetActorSlot      func(slot int, actor Ref, selectable bool) error
	SetSelectableMode func(mode int)
}

var _ Host = (*Manager)(nil)

// NewManager creates a Manager with a fresh sandboxed VM and the engine.*
// module registered.
//
// Precondition: logger must be non-nil; instLimit >= 0 (0 = DefaultInstructionLimit).
// Postcondition: Returns a non-nil Manager with no bound tables.
func NewManager(instLimit int, logger *zap.Logger) *Manager {
	L, budget := NewSandboxedState(instLimit)
	m := &Manager{
		L:      L,
		budget: budget,
		logger: logger,
		tables: make(map[Ref]*lua.LTable),
		refs:   make(map[*lua.LTable]Ref),
	}
	m.RegisterModules(L)
	return m
}

// Close releases the VM.
//
// Postcondition: The Manager must not be used afterwards.
func (m *Manager) Close() {
	m.L.Close()
}

// LoadDir executes every *.lua file in scriptDir in lexicographic order.
// Each file receives a fresh instruction budget.
//
// Precondition: scriptDir must be a readable directory.
// Postcondition: Returns an error on the first Lua load failure.
func (m *Manager) LoadDir(scriptDir string) error {
	entries, err := os.ReadDir(scriptDir)
	if err != nil {
		return fmt.Errorf("scripting: reading script dir %q: %w", scriptDir, err)
	}

	var luaFiles []string
	for _, e := range entries {
		if !e.IsDir() && filepath.Ext(e.Name()) == ".lua" {
			luaFiles = append(luaFiles, filepath.Join(scriptDir, e.Name()))
		}
	}
	sort.Strings(luaFiles)

	for _, path := range luaFiles {
		m.budget.Reset()
		if err := m.L.DoFile(path); err != nil {
			return fmt.Errorf("scripting: loading %q: %w", path, err)
		}
	}
	m.logger.Debug("scripting: scripts loaded",
		zap.String("dir", scriptDir),
		zap.Int("files", len(luaFiles)),
	)
	return nil
}

// DoString executes a Lua chunk with a fresh instruction budget.
//
// Postcondition: Returns the Lua compile or runtime error, if any.
func (m *Manager) DoString(src string) error {
	m.budget.Reset()
	if err := m.L.DoString(src); err != nil {
		return fmt.Errorf("scripting: executing chunk: %w", err)
	}
	return nil
}

// Call invokes the global function name. Lua runtime errors are logged at
// Warn level and never propagated.
//
// Postcondition: Returns the first return value, LNil on runtime error, or
// an error wrapping ErrMissingFunction when name is not a function.
func (m *Manager) Call(name string, args ...lua.LValue) (lua.LValue, error) {
	fn, ok := m.L.GetGlobal(name).(*lua.LFunction)
	if !ok {
		return lua.LNil, fmt.Errorf("scripting: calling %q: %w", name, ErrMissingFunction)
	}
	return m.protectedCall(fn, zap.String("function", name), args...), nil
}

// CallMethod invokes target:method(args...). Lua runtime errors are logged
// at Warn level and never propagated.
//
// Postcondition: Returns the first return value, LNil on runtime error, or
// an error wrapping ErrMissingFunction when the method is not declared.
func (m *Manager) CallMethod(target Ref, method string, args ...lua.LValue) (lua.LValue, error) {
	t := m.Bind(target)
	fn, ok := m.L.GetField(t, method).(*lua.LFunction)
	if !ok {
		return lua.LNil, fmt.Errorf("scripting: calling %s %q method %q: %w", target.Kind, target.Key, method, ErrMissingFunction)
	}
	callArgs := make([]lua.LValue, 0, len(args)+1)
	callArgs = append(callArgs, t)
	callArgs = append(callArgs, args...)
	return m.protectedCall(fn, zap.String("function", target.Key+":"+method), callArgs...), nil
}

// CallFunction invokes fn directly, with the same error policy as Call.
//
// Precondition: fn must be non-nil.
func (m *Manager) CallFunction(fn *lua.LFunction, args ...lua.LValue) lua.LValue {
	return m.protectedCall(fn, zap.String("function", "<closure>"), args...)
}

func (m *Manager) protectedCall(fn *lua.LFunction, name zap.Field, args ...lua.LValue) lua.LValue {
	if m.depth == 0 {
		m.budget.Reset()
	}
	m.depth++
	defer func() { m.depth-- }()

	if err := m.L.CallByParam(lua.P{
		Fn:      fn,
		NRet:    1,
		Protect: true,
	}, args...); err != nil {
		m.logger.Warn("scripting: Lua runtime error", name, zap.Error(err))
		return lua.LNil
	}
	ret := m.L.Get(-1)
	m.L.Pop(1)
	return ret
}

// Exists reports whether target declares method as a function.
func (m *Manager) Exists(target Ref, method string) bool {
	_, ok := m.L.GetField(m.Bind(target), method).(*lua.LFunction)
	return ok
}

// ExistsGlobal reports whether the global name is a function.
func (m *Manager) ExistsGlobal(name string) bool {
	_, ok := m.L.GetGlobal(name).(*lua.LFunction)
	return ok
}

// RawGet reads field from target's table without invoking metamethods.
//
// Postcondition: Returns (value, true) when the field is non-nil.
func (m *Manager) RawGet(target Ref, field string) (lua.LValue, bool) {
	v := m.Bind(target).RawGetString(field)
	return v, v != lua.LNil
}

// Get reads the global name.
func (m *Manager) Get(name string) lua.LValue { return m.L.GetGlobal(name) }

// Set assigns the global name.
func (m *Manager) Set(name string, value lua.LValue) { m.L.SetGlobal(name, value) }

// ParamCount returns the declared parameter count of target's method,
// including the implicit self of a colon-declared method.
//
// Postcondition: Returns -1 when the method is missing or is a Go function.
func (m *Manager) ParamCount(target Ref, method string) int {
	fn, ok := m.L.GetField(m.Bind(target), method).(*lua.LFunction)
	if !ok || fn.IsG || fn.Proto == nil {
		return -1
	}
	return int(fn.Proto.NumParameters)
}

// NewTable creates an unbound table.
func (m *Manager) NewTable() *lua.LTable { return m.L.NewTable() }

// Bind returns the table backing ref. Room and actor tables are the globals
// named by their key; object tables are fields of their room table, falling
// back to a global of the same name. A missing table is created empty and
// published at the location scripts would have declared it.
//
// Precondition: ref must not be zero.
// Postcondition: Bind(ref) returns the same table on every call.
func (m *Manager) Bind(ref Ref) *lua.LTable {
	if t, ok := m.tables[ref]; ok {
		return t
	}
	var t *lua.LTable
	switch ref.Kind {
	case RefObject:
		if ref.Room != "" {
			room := m.Bind(Ref{Kind: RefRoom, Key: ref.Room})
			if ot, ok := room.RawGetString(ref.Key).(*lua.LTable); ok {
				t = ot
			} else if gt, ok := m.L.GetGlobal(ref.Key).(*lua.LTable); ok {
				t = gt
			} else {
				t = m.L.NewTable()
				room.RawSetString(ref.Key, t)
			}
			break
		}
		fallthrough
	default:
		if gt, ok := m.L.GetGlobal(ref.Key).(*lua.LTable); ok {
			t = gt
		} else {
			t = m.L.NewTable()
			m.L.SetGlobal(ref.Key, t)
		}
	}
	m.tables[ref] = t
	m.refs[t] = ref
	return t
}

// Lookup resolves a bound table back to its Ref.
//
// Postcondition: Returns (ref, true) only for tables returned by Bind.
func (m *Manager) Lookup(t *lua.LTable) (Ref, bool) {
	ref, ok := m.refs[t]
	return ref, ok
}
