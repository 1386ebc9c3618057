package scripting_test

import (
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	lua "github.com/yuin/gopher-lua"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"
	"pgregory.net/rapid"

	"github.com/cory-johannsen/adventure/internal/scripting"
)

func newTestManager(t testing.TB) (*scripting.Manager, *observer.ObservedLogs) {
	t.Helper()
	core, logs := observer.New(zap.DebugLevel)
	mgr := scripting.NewManager(0, zap.New(core))
	t.Cleanup(mgr.Close)
	return mgr, logs
}

func writeTempLua(t testing.TB, filename, src string) string {
	t.Helper()
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, filename), []byte(src), 0644))
	return dir
}

func hasLevel(logs *observer.ObservedLogs, level zapcore.Level) bool {
	for _, e := range logs.All() {
		if e.Level == level {
			return true
		}
	}
	return false
}

var (
	street = scripting.Ref{Kind: scripting.RefRoom, Key: "Street"}
	ray    = scripting.Ref{Kind: scripting.RefActor, Key: "ray"}
	door   = scripting.Ref{Kind: scripting.RefObject, Key: "streetDoor", Room: "Street"}
)

func TestManager_LoadDir_CallsGlobal(t *testing.T) {
	mgr, _ := newTestManager(t)
	dir := writeTempLua(t, "boot.lua", `
		function add(a, b)
			return a + b
		end
	`)
	require.NoError(t, mgr.LoadDir(dir))
	ret, err := mgr.Call("add", lua.LNumber(3), lua.LNumber(4))
	require.NoError(t, err)
	assert.Equal(t, lua.LNumber(7), ret)
}

func TestManager_Call_MissingFunction_ReturnsSentinel(t *testing.T) {
	mgr, _ := newTestManager(t)
	ret, err := mgr.Call("nonexistent")
	require.Error(t, err)
	assert.True(t, errors.Is(err, scripting.ErrMissingFunction))
	assert.Equal(t, lua.LNil, ret)
}

func TestManager_Call_RuntimeError_WarnLogNoError(t *testing.T) {
	mgr, logs := newTestManager(t)
	require.NoError(t, mgr.DoString(`
		function bad_hook()
			error("intentional error")
		end
	`))
	ret, err := mgr.Call("bad_hook")
	require.NoError(t, err)
	assert.Equal(t, lua.LNil, ret)
	assert.True(t, hasLevel(logs, zap.WarnLevel), "expected Warn log for Lua runtime error")
}

func TestManager_LoadDir_MultipleFiles_OrderedByName(t *testing.T) {
	mgr, _ := newTestManager(t)
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "a.lua"), []byte(`base_val = 10`), 0644))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "b.lua"), []byte(`
		function get_val() return base_val end
	`), 0644))
	require.NoError(t, mgr.LoadDir(dir))
	ret, err := mgr.Call("get_val")
	require.NoError(t, err)
	assert.Equal(t, lua.LNumber(10), ret)
}

func TestManager_LoadDir_InvalidLua_ReturnsError(t *testing.T) {
	mgr, _ := newTestManager(t)
	dir := writeTempLua(t, "bad.lua", `this is not valid lua @@@@`)
	assert.Error(t, mgr.LoadDir(dir))
}

func TestManager_LoadDir_MissingDir_ReturnsError(t *testing.T) {
	mgr, _ := newTestManager(t)
	assert.Error(t, mgr.LoadDir(filepath.Join(t.TempDir(), "missing")))
}

func TestManager_Bind_UsesDeclaredTables(t *testing.T) {
	mgr, _ := newTestManager(t)
	require.NoError(t, mgr.DoString(`
		Street = { name = "Street", streetDoor = { name = "door" } }
		ray = { name = "Ray" }
	`))
	assert.Equal(t, lua.LString("Street"), mgr.Bind(street).RawGetString("name"))
	assert.Equal(t, lua.LString("Ray"), mgr.Bind(ray).RawGetString("name"))
	assert.Equal(t, lua.LString("door"), mgr.Bind(door).RawGetString("name"))
	assert.Same(t, mgr.Bind(door), mgr.Bind(door))
}

func TestManager_Bind_CreatesMissingTables(t *testing.T) {
	mgr, _ := newTestManager(t)
	obj := mgr.Bind(door)
	room := mgr.Get("Street").(*lua.LTable)
	assert.Same(t, obj, room.RawGetString("streetDoor"))

	ref, ok := mgr.Lookup(obj)
	require.True(t, ok)
	assert.Equal(t, door, ref)

	_, ok = mgr.Lookup(mgr.NewTable())
	assert.False(t, ok)
}

func TestManager_CallMethod_PassesSelf(t *testing.T) {
	mgr, _ := newTestManager(t)
	require.NoError(t, mgr.DoString(`
		Street = { label = "street" }
		function Street:describe(suffix)
			return self.label .. suffix
		end
	`))
	ret, err := mgr.CallMethod(street, "describe", lua.LString("!"))
	require.NoError(t, err)
	assert.Equal(t, lua.LString("street!"), ret)
	assert.True(t, mgr.Exists(street, "describe"))
	assert.False(t, mgr.Exists(street, "label"))
}

func TestManager_CallMethod_Missing_ReturnsSentinel(t *testing.T) {
	mgr, _ := newTestManager(t)
	_, err := mgr.CallMethod(ray, "enter")
	assert.True(t, errors.Is(err, scripting.ErrMissingFunction))
}

func TestManager_CallMethod_FollowsMetatableIndex(t *testing.T) {
	mgr, _ := newTestManager(t)
	require.NoError(t, mgr.DoString(`
		Base = {}
		function Base:kind() return "base" end
		ray = setmetatable({}, { __index = Base })
	`))
	ret, err := mgr.CallMethod(ray, "kind")
	require.NoError(t, err)
	assert.Equal(t, lua.LString("base"), ret)
}

func TestManager_ParamCount_CountsSelf(t *testing.T) {
	mgr, _ := newTestManager(t)
	require.NoError(t, mgr.DoString(`
		Street = {}
		function Street:enter() end
		function Street:exit(door) end
	`))
	assert.Equal(t, 1, mgr.ParamCount(street, "enter"))
	assert.Equal(t, 2, mgr.ParamCount(street, "exit"))
	assert.Equal(t, -1, mgr.ParamCount(street, "missing"))
}

func TestManager_RawGet(t *testing.T) {
	mgr, _ := newTestManager(t)
	require.NoError(t, mgr.DoString(`ray = { dialog = "RayDialog" }`))
	v, ok := mgr.RawGet(ray, "dialog")
	assert.True(t, ok)
	assert.Equal(t, lua.LString("RayDialog"), v)
	_, ok = mgr.RawGet(ray, "defaultVerb")
	assert.False(t, ok)
}

func TestManager_SetGet_Global(t *testing.T) {
	mgr, _ := newTestManager(t)
	mgr.Set("SAVEBUILD", lua.LNumber(958))
	assert.Equal(t, lua.LNumber(958), mgr.Get("SAVEBUILD"))
	assert.False(t, mgr.ExistsGlobal("SAVEBUILD"))
}

func TestManager_EachTopLevelCallGetsFreshBudget(t *testing.T) {
	core, _ := observer.New(zap.DebugLevel)
	mgr := scripting.NewManager(200, zap.New(core))
	defer mgr.Close()
	require.NoError(t, mgr.DoString(`
		function small() local x = 0 for i = 1, 5 do x = x + i end return x end
	`))
	for i := 0; i < 50; i++ {
		ret, err := mgr.Call("small")
		require.NoError(t, err)
		assert.Equal(t, lua.LNumber(15), ret, "call %d must get a fresh budget", i)
	}
}

func TestProperty_CallMissingGlobalNeverPanics(t *testing.T) {
	mgr, _ := newTestManager(t)
	rapid.Check(t, func(rt *rapid.T) {
		name := rapid.StringMatching(`[a-z]{1,10}`).Draw(rt, "name")
		_, err := mgr.Call("missing_" + name)
		if !errors.Is(err, scripting.ErrMissingFunction) {
			rt.Fatalf("expected ErrMissingFunction, got %v", err)
		}
	})
}

func TestProperty_BindIsStable(t *testing.T) {
	mgr, _ := newTestManager(t)
	rapid.Check(t, func(rt *rapid.T) {
		key := rapid.StringMatching(`[a-z]{1,8}`).Draw(rt, "key")
		kind := rapid.SampledFrom([]scripting.RefKind{scripting.RefRoom, scripting.RefActor}).Draw(rt, "kind")
		ref := scripting.Ref{Kind: kind, Key: kind.String() + "_" + key}
		first := mgr.Bind(ref)
		if mgr.Bind(ref) != first {
			rt.Fatalf("Bind(%v) returned a different table", ref)
		}
		back, ok := mgr.Lookup(first)
		if !ok || back != ref {
			rt.Fatalf("Lookup mismatch: %v %v", back, ok)
		}
	})
}
