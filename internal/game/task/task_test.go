package task_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	lua "github.com/yuin/gopher-lua"
	"pgregory.net/rapid"

	"github.com/cory-johannsen/adventure/internal/game/task"
)

// stepTask runs for a fixed number of steps.
type stepTask struct {
	steps   int
	ran     int
	global  bool
	stopped bool
	onStep  func()
}

func (s *stepTask) Step(float64) bool {
	s.ran++
	if s.onStep != nil {
		s.onStep()
	}
	return s.ran < s.steps
}
func (s *stepTask) Global() bool { return s.global }
func (s *stepTask) Stop() { s.stopped = true }
func (s *stepTask) Stopped() bool { return s.stopped }

func TestScheduler_StartedTaskRunsNextFrame(t *testing.T) {
	s := task.NewScheduler()
	inner := &stepTask{steps: 1}
	outer := &stepTask{steps: 2}
	outer.onStep = func() {
		if outer.ran == 1 {
			s.Start(inner)
		}
	}
	s.Start(outer)

	s.Update(0.016)
	assert.Equal(t, 1, outer.ran)
	assert.Equal(t, 0, inner.ran, "task started mid-frame must not run in the same frame")

	s.Update(0.016)
	assert.Equal(t, 1, inner.ran)
	assert.Equal(t, 0, s.Live())
}

func TestScheduler_StopLocalKeepsGlobal(t *testing.T) {
	s := task.NewScheduler()
	var local []*stepTask
	for i := 0; i < 5; i++ {
		lt := &stepTask{steps: 100}
		local = append(local, lt)
		s.Start(lt)
	}
	global := &stepTask{steps: 100, global: true}
	gid := s.Start(global)
	s.Update(0.016)

	assert.Equal(t, 5, s.StopLocal())
	s.Prune()
	assert.Equal(t, 1, s.Live())
	assert.True(t, s.Running(gid))
	for _, lt := range local {
		assert.True(t, lt.Stopped())
	}
}

func TestScheduler_StopStagedTask(t *testing.T) {
	s := task.NewScheduler()
	tk := &stepTask{steps: 10}
	id := s.Start(tk)
	assert.True(t, s.Stop(id))
	assert.False(t, s.Stop(id))
	s.Update(0.016)
	assert.Equal(t, 0, tk.ran)
	assert.False(t, s.Running(id))
}

func TestCutscene_SurvivesStopLocalAndRunsHooks(t *testing.T) {
	s := task.NewScheduler()
	var begun, ended int
	body := &stepTask{steps: 2}
	s.StartCutscene(task.NewCutscene(body, nil, task.CutsceneHooks{
		Begin: func() { begun++ },
		End:   func() { ended++ },
	}))
	s.Update(0.016)
	assert.True(t, s.InCutscene())
	assert.Equal(t, 1, begun)

	s.StopLocal()
	s.Update(0.016)
	assert.False(t, s.InCutscene())
	assert.Equal(t, 2, body.ran)
	assert.Equal(t, 1, ended)
}

func TestCutscene_TaskStartedByBodyRunsNextFrame(t *testing.T) {
	s := task.NewScheduler()
	inner := &stepTask{steps: 1}
	body := &stepTask{steps: 3}
	body.onStep = func() {
		if body.ran == 1 {
			s.Start(inner)
		}
	}
	s.StartCutscene(task.NewCutscene(body, nil, task.CutsceneHooks{}))

	s.Update(0.016)
	assert.Equal(t, 1, body.ran)
	assert.Equal(t, 0, inner.ran, "task started by the cutscene must wait for the next frame")

	s.Update(0.016)
	assert.Equal(t, 1, inner.ran)
}

func TestCutscene_TaskStartedByOverrideRunsOnNextUpdate(t *testing.T) {
	s := task.NewScheduler()
	after := &stepTask{steps: 1}
	body := &stepTask{steps: 100}
	s.StartCutscene(task.NewCutscene(body, func() { s.Start(after) }, task.CutsceneHooks{}))
	s.Update(0.016)

	require.True(t, s.SkipCutscene())
	assert.Equal(t, 0, after.ran)
	assert.Equal(t, 1, s.Live())

	s.Update(0.016)
	assert.Equal(t, 1, after.ran)
}

func TestCutscene_SkipWithOverride(t *testing.T) {
	s := task.NewScheduler()
	overridden := false
	body := &stepTask{steps: 100}
	s.StartCutscene(task.NewCutscene(body, func() { overridden = true }, task.CutsceneHooks{}))
	s.Update(0.016)

	assert.True(t, s.SkipCutscene())
	assert.True(t, overridden)
	assert.True(t, body.Stopped())
	assert.False(t, s.InCutscene())
	assert.False(t, s.NoOverrideVisible())
}

func TestCutscene_SkipWithoutOverrideShowsIndicator(t *testing.T) {
	s := task.NewScheduler()
	s.StartCutscene(task.NewCutscene(&stepTask{steps: 1000}, nil, task.CutsceneHooks{}))
	s.Update(0.016)

	assert.False(t, s.SkipCutscene())
	assert.True(t, s.InCutscene())
	assert.True(t, s.NoOverrideVisible())

	s.Update(1.0)
	assert.True(t, s.NoOverrideVisible())
	s.Update(1.5)
	assert.False(t, s.NoOverrideVisible())
}

func TestCallbacks_FireAfterDelay(t *testing.T) {
	cbs := task.NewCallbacks()
	cbs.Add(0.5, "onTimer", lua.LString("arg"))
	var fired []task.Callback
	fire := func(cb task.Callback) { fired = append(fired, cb) }

	cbs.Update(0.3, fire)
	assert.Empty(t, fired)
	cbs.Update(0.3, fire)
	require.Len(t, fired, 1)
	assert.Equal(t, "onTimer", fired[0].Function)
	assert.Equal(t, lua.LString("arg"), fired[0].Param)
	assert.Equal(t, 0, cbs.Len())
}

func TestCallbacks_AddedWhileFiringWaitsForNextFrame(t *testing.T) {
	cbs := task.NewCallbacks()
	cbs.Add(0, "first", nil)
	var fired []string
	var fire func(cb task.Callback)
	fire = func(cb task.Callback) {
		fired = append(fired, cb.Function)
		if cb.Function == "first" {
			cbs.Add(0, "second", nil)
		}
	}
	cbs.Update(0.016, fire)
	assert.Equal(t, []string{"first"}, fired)
	cbs.Update(0.016, fire)
	assert.Equal(t, []string{"first", "second"}, fired)
}

func TestCallbacks_Remove(t *testing.T) {
	cbs := task.NewCallbacks()
	id := cbs.Add(1, "later", nil)
	assert.True(t, cbs.Remove(id))
	assert.False(t, cbs.Remove(id))
	cbs.Update(2, func(task.Callback) { t.Fatal("removed callback fired") })
}

func TestCallbacks_RestoreContinuesIDs(t *testing.T) {
	cbs := task.NewCallbacks()
	cbs.Restore([]task.Callback{
		{ID: 12, Function: "a", Remaining: 1},
		{ID: 57, Function: "b", Remaining: 2},
		{ID: 30, Function: "c", Remaining: 3},
	}, 0)
	assert.Equal(t, 3, cbs.Len())
	assert.GreaterOrEqual(t, cbs.Add(1, "fresh", nil), 58)
}

func TestProperty_RestoredIDsNeverCollide(t *testing.T) {
	rapid.Check(t, func(rt *rapid.T) {
		ids := rapid.SliceOfNDistinct(rapid.IntRange(1, 10000), 0, 20, rapid.ID[int]).Draw(rt, "ids")
		next := rapid.IntRange(0, 10000).Draw(rt, "next")
		cbs := task.NewCallbacks()
		restored := make([]task.Callback, 0, len(ids))
		for _, id := range ids {
			restored = append(restored, task.Callback{ID: id, Function: "f", Remaining: 1})
		}
		cbs.Restore(restored, next)
		fresh := cbs.Add(1, "g", nil)
		for _, id := range ids {
			if fresh == id {
				rt.Fatalf("new id %d collides with restored id", fresh)
			}
		}
		if fresh < next {
			rt.Fatalf("new id %d below saved next id %d", fresh, next)
		}
	})
}
