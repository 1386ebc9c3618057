package scripting

import (
	lua "github.com/yuin/gopher-lua"
	"go.uber.org/zap"
)

// RegisterModules registers all engine.* Lua tables into L.
//
// Precondition: L must be from NewSandboxedState.
// Postcondition: engine global is defined in L.
func (m *Manager) RegisterModules(L *lua.LState) {
	engine := L.NewTable()
	L.SetField(engine, "log", m.newLogModule(L))
	L.SetFuncs(engine, map[string]lua.LGFunction{
		"breaktime":            m.luaBreaktime,
		"startthread":          m.luaStartThread(false),
		"startglobalthread":    m.luaStartThread(true),
		"stopthread":           m.luaStopThread,
		"cutscene":             m.luaCutscene,
		"callback":             m.luaCallback,
		"remove_callback":      m.luaRemoveCallback,
		"set_room":             m.luaRefAction(RefRoom, func() func(Ref) error { return m.SetRoom }),
		"enter_room_from_door": m.luaRefAction(RefObject, func() func(Ref) error { return m.EnterRoomFromDoor }),
		"select_actor":         m.luaRefAction(RefActor, func() func(Ref) error { return m.SelectActor }),
		"use_flag":             m.luaUseFlag,
		"input_state":          m.luaInputState,
		"set_input_state":      m.luaSetInputState,
		"set_actor_slot":       m.luaSetActorSlot,
		"actor_slots_mode":     m.luaSelectableMode,
	})
	L.SetGlobal("engine", engine)
}

func (m *Manager) newLogModule(L *lua.LState) *lua.LTable {
	mod := L.NewTable()
	logAt := func(log func(string, ...zap.Field)) lua.LGFunction {
		return func(L *lua.LState) int {
			log(L.CheckString(1), zap.String("source", "lua"))
			return 0
		}
	}
	L.SetFuncs(mod, map[string]lua.LGFunction{
		"debug": logAt(m.logger.Debug),
		"info":  logAt(m.logger.Info),
		"warn":  logAt(m.logger.Warn),
		"error": logAt(m.logger.Error),
	})
	return mod
}

// engine.breaktime(seconds) suspends the calling thread.
func (m *Manager) luaBreaktime(L *lua.LState) int {
	secs := L.OptNumber(1, 0)
	return L.Yield(secs)
}

func (m *Manager) luaStartThread(global bool) lua.LGFunction {
	return func(L *lua.LState) int {
		fn := L.CheckFunction(1)
		var args []lua.LValue
		for i := 2; i <= L.GetTop(); i++ {
			args = append(args, L.Get(i))
		}
		if m.StartThread == nil {
			L.Push(lua.LNumber(0))
			return 1
		}
		L.Push(lua.LNumber(m.StartThread(m.NewThread(fn, global, args...))))
		return 1
	}
}

func (m *Manager) luaStopThread(L *lua.LState) int {
	id := L.CheckInt(1)
	ok := false
	if m.StopThread != nil {
		ok = m.StopThread(id)
	}
	L.Push(lua.LBool(ok))
	return 1
}

// engine.cutscene(fn [, override])
func (m *Manager) luaCutscene(L *lua.LState) int {
	fn := L.CheckFunction(1)
	var override *lua.LFunction
	if ov, ok := L.Get(2).(*lua.LFunction); ok {
		override = ov
	}
	if m.StartCutscene == nil {
		L.Push(lua.LNumber(0))
		return 1
	}
	L.Push(lua.LNumber(m.StartCutscene(m.NewThread(fn, true), override)))
	return 1
}

// engine.callback(delaySeconds, functionName [, param])
func (m *Manager) luaCallback(L *lua.LState) int {
	delay := float64(L.CheckNumber(1))
	name := L.CheckString(2)
	if m.AddCallback == nil {
		L.Push(lua.LNumber(0))
		return 1
	}
	L.Push(lua.LNumber(m.AddCallback(delay, name, L.Get(3))))
	return 1
}

func (m *Manager) luaRemoveCallback(L *lua.LState) int {
	id := L.CheckInt(1)
	ok := false
	if m.RemoveCallback != nil {
		ok = m.RemoveCallback(id)
	}
	L.Push(lua.LBool(ok))
	return 1
}

// luaRefAction adapts a Ref-taking engine action. The action is read at call
// time so fields injected after RegisterModules take effect.
func (m *Manager) luaRefAction(kind RefKind, action func() func(Ref) error) lua.LGFunction {
	return func(L *lua.LState) int {
		t := L.CheckTable(1)
		ref, ok := m.Lookup(t)
		if !ok || ref.Kind != kind {
			L.ArgError(1, kind.String()+" table expected")
			return 0
		}
		fn := action()
		if fn == nil {
			return 0
		}
		if err := fn(ref); err != nil {
			L.RaiseError("%s", err.Error())
		}
		return 0
	}
}

// engine.use_flag(flag, objectTable)
func (m *Manager) luaUseFlag(L *lua.LState) int {
	flag := L.CheckInt(1)
	var ref Ref
	if t, ok := L.Get(2).(*lua.LTable); ok {
		r, bound := m.Lookup(t)
		if !bound {
			L.ArgError(2, "entity table expected")
			return 0
		}
		ref = r
	}
	if m.SetUseFlag != nil {
		if err := m.SetUseFlag(flag, ref); err != nil {
			L.RaiseError("%s", err.Error())
		}
	}
	return 0
}

func (m *Manager) luaInputState(L *lua.LState) int {
	state := 0
	if m.InputState != nil {
		state = m.InputState()
	}
	L.Push(lua.LNumber(state))
	return 1
}

func (m *Manager) luaSetInputState(L *lua.LState) int {
	state := L.CheckInt(1)
	if m.SetInputState != nil {
		m.SetInputState(state)
	}
	return 0
}

// engine.set_actor_slot(slot, actorTable [, selectable])
func (m *Manager) luaSetActorSlot(L *lua.LState) int {
	slot := L.CheckInt(1)
	t := L.CheckTable(2)
	ref, ok := m.Lookup(t)
	if !ok || ref.Kind != RefActor {
		L.ArgError(2, RefActor.String()+" table expected")
		return 0
	}
	selectable := L.OptBool(3, true)
	if m.SetActorSlot != nil {
		if err := m.SetActorSlot(slot, ref, selectable); err != nil {
			L.RaiseError("%s", err.Error())
		}
	}
	return 0
}

func (m *Manager) luaSelectableMode(L *lua.LState) int {
	mode := L.CheckInt(1)
	if m.SetSelectableMode != nil {
		m.SetSelectableMode(mode)
	}
	return 0
}
