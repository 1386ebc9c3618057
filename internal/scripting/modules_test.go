package scripting_test

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	lua "github.com/yuin/gopher-lua"
	"go.uber.org/zap"
	"go.uber.org/zap/zaptest/observer"

	"github.com/cory-johannsen/adventure/internal/scripting"
)

func TestEngineLog_WritesToLogger(t *testing.T) {
	mgr, logs := newTestManager(t)
	require.NoError(t, mgr.DoString(`
		function do_log()
			engine.log.info("hello from lua")
			engine.log.error("bad thing")
		end
	`))
	_, err := mgr.Call("do_log")
	require.NoError(t, err)

	infos := logs.FilterMessage("hello from lua").All()
	require.Len(t, infos, 1)
	assert.Equal(t, zap.InfoLevel, infos[0].Level)
	assert.Len(t, logs.FilterMessage("bad thing").FilterField(zap.String("source", "lua")).All(), 1)
}

func TestEngineStartThread_UsesInjectedScheduler(t *testing.T) {
	mgr, _ := newTestManager(t)
	var started []*scripting.Thread
	mgr.StartThread = func(th *scripting.Thread) int {
		started = append(started, th)
		return len(started)
	}
	require.NoError(t, mgr.DoString(`
		function spawn()
			local a = engine.startthread(function() end)
			local b = engine.startglobalthread(function() end)
			return a * 10 + b
		end
	`))
	ret, err := mgr.Call("spawn")
	require.NoError(t, err)
	assert.Equal(t, lua.LNumber(12), ret)
	require.Len(t, started, 2)
	assert.False(t, started[0].Global())
	assert.True(t, started[1].Global())
}

func TestEngineStartThread_NoScheduler_ReturnsZero(t *testing.T) {
	mgr, _ := newTestManager(t)
	require.NoError(t, mgr.DoString(`function spawn() return engine.startthread(function() end) end`))
	ret, err := mgr.Call("spawn")
	require.NoError(t, err)
	assert.Equal(t, lua.LNumber(0), ret)
}

func TestEngineCallback_ForwardsArguments(t *testing.T) {
	mgr, _ := newTestManager(t)
	var gotDelay float64
	var gotName string
	var gotParam lua.LValue
	mgr.AddCallback = func(delay float64, function string, param lua.LValue) int {
		gotDelay, gotName, gotParam = delay, function, param
		return 57
	}
	require.NoError(t, mgr.DoString(`function schedule() return engine.callback(1.5, "ring", "bell") end`))
	ret, err := mgr.Call("schedule")
	require.NoError(t, err)
	assert.Equal(t, lua.LNumber(57), ret)
	assert.Equal(t, 1.5, gotDelay)
	assert.Equal(t, "ring", gotName)
	assert.Equal(t, lua.LString("bell"), gotParam)
}

func TestEngineSetRoom_ResolvesBoundTable(t *testing.T) {
	mgr, _ := newTestManager(t)
	mgr.Bind(street)
	var got scripting.Ref
	mgr.SetRoom = func(room scripting.Ref) error {
		got = room
		return nil
	}
	require.NoError(t, mgr.DoString(`function go_street() engine.set_room(Street) end`))
	_, err := mgr.Call("go_street")
	require.NoError(t, err)
	assert.Equal(t, street, got)
}

func TestEngineSetRoom_UnboundTable_RaisesLuaError(t *testing.T) {
	core, logs := observer.New(zap.DebugLevel)
	mgr := scripting.NewManager(0, zap.New(core))
	defer mgr.Close()
	called := false
	mgr.SetRoom = func(scripting.Ref) error { called = true; return nil }
	require.NoError(t, mgr.DoString(`function go_nowhere() engine.set_room({}) end`))
	_, err := mgr.Call("go_nowhere")
	require.NoError(t, err)
	assert.False(t, called)
	assert.Equal(t, 1, logs.FilterMessage("scripting: Lua runtime error").Len())
}

func TestEngineEnterRoomFromDoor_PropagatesErrorAsLuaError(t *testing.T) {
	mgr, logs := newTestManager(t)
	mgr.Bind(door)
	mgr.EnterRoomFromDoor = func(scripting.Ref) error { return errors.New("invalid use direction") }
	require.NoError(t, mgr.DoString(`
		function through()
			local ok, msg = pcall(engine.enter_room_from_door, Street.streetDoor)
			return ok
		end
	`))
	ret, err := mgr.Call("through")
	require.NoError(t, err)
	assert.Equal(t, lua.LFalse, ret)
	assert.Equal(t, 0, logs.FilterMessage("scripting: Lua runtime error").Len())
}

func TestEngineInputState_RoundTrips(t *testing.T) {
	mgr, _ := newTestManager(t)
	state := 0
	mgr.InputState = func() int { return state }
	mgr.SetInputState = func(s int) { state = s }
	require.NoError(t, mgr.DoString(`function flip() engine.set_input_state(5) return engine.input_state() end`))
	ret, err := mgr.Call("flip")
	require.NoError(t, err)
	assert.Equal(t, lua.LNumber(5), ret)
}

func TestEngineSetActorSlot_DefaultsToSelectable(t *testing.T) {
	mgr, _ := newTestManager(t)
	mgr.Bind(ray)
	type call struct {
		slot       int
		actor      scripting.Ref
		selectable bool
	}
	var calls []call
	mgr.SetActorSlot = func(slot int, actor scripting.Ref, selectable bool) error {
		calls = append(calls, call{slot, actor, selectable})
		return nil
	}
	mode := -1
	mgr.SetSelectableMode = func(m int) { mode = m }
	require.NoError(t, mgr.DoString(`
		function slots()
			engine.set_actor_slot(0, ray)
			engine.set_actor_slot(1, ray, false)
			engine.actor_slots_mode(1)
		end
	`))
	_, err := mgr.Call("slots")
	require.NoError(t, err)
	assert.Equal(t, []call{{0, ray, true}, {1, ray, false}}, calls)
	assert.Equal(t, 1, mode)
}
