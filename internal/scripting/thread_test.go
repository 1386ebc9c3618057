package scripting_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	lua "github.com/yuin/gopher-lua"
	"go.uber.org/zap"

	"github.com/cory-johannsen/adventure/internal/scripting"
)

func newThread(t *testing.T, mgr *scripting.Manager, src string) *scripting.Thread {
	t.Helper()
	require.NoError(t, mgr.DoString(src))
	fn, ok := mgr.Get("body").(*lua.LFunction)
	require.True(t, ok, "script must define body()")
	return mgr.NewThread(fn, false)
}

func TestThread_BreaktimeSuspendsAcrossFrames(t *testing.T) {
	mgr, _ := newTestManager(t)
	th := newThread(t, mgr, `
		steps = 0
		function body()
			steps = 1
			engine.breaktime(1.0)
			steps = 2
		end
	`)

	assert.True(t, th.Step(0.016))
	assert.Equal(t, lua.LNumber(1), mgr.Get("steps"))

	assert.True(t, th.Step(0.5))
	assert.Equal(t, lua.LNumber(1), mgr.Get("steps"))

	assert.False(t, th.Step(0.6))
	assert.Equal(t, lua.LNumber(2), mgr.Get("steps"))
	assert.True(t, th.Stopped())
}

func TestThread_ZeroBreaktimeYieldsOneFrame(t *testing.T) {
	mgr, _ := newTestManager(t)
	th := newThread(t, mgr, `
		n = 0
		function body()
			for i = 1, 3 do
				n = i
				engine.breaktime()
			end
		end
	`)
	for i := 1; i <= 3; i++ {
		require.True(t, th.Step(0.016))
		assert.Equal(t, lua.LNumber(i), mgr.Get("n"))
	}
	assert.False(t, th.Step(0.016))
}

func TestThread_StopPreventsResume(t *testing.T) {
	mgr, _ := newTestManager(t)
	th := newThread(t, mgr, `
		n = 0
		function body()
			while true do
				n = n + 1
				engine.breaktime()
			end
		end
	`)
	require.True(t, th.Step(0.016))
	th.Stop()
	assert.False(t, th.Step(0.016))
	assert.Equal(t, lua.LNumber(1), mgr.Get("n"))
}

func TestThread_RuntimeError_StopsThread(t *testing.T) {
	mgr := scripting.NewManager(0, zap.NewNop())
	defer mgr.Close()
	th := newThread(t, mgr, `function body() error("boom") end`)
	assert.False(t, th.Step(0.016))
	assert.True(t, th.Stopped())
}

func TestThread_RunawayLoop_StoppedByBudget(t *testing.T) {
	mgr := scripting.NewManager(1000, zap.NewNop())
	defer mgr.Close()
	th := newThread(t, mgr, `function body() while true do end end`)
	assert.False(t, th.Step(0.016))
	assert.True(t, th.Stopped())
}
