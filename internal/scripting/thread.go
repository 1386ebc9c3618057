package scripting

import (
	"context"

	lua "github.com/yuin/gopher-lua"
	"go.uber.org/zap"
)

// Thread is a script function running on its own Lua coroutine. It is
// advanced cooperatively, once per frame, until it returns or is stopped.
// A coroutine suspends itself with engine.breaktime(seconds).
type Thread struct {
	m       *Manager
	co      *lua.LState
	cancel  context.CancelFunc
	fn      *lua.LFunction
	args    []lua.LValue
	global  bool
	started bool
	stopped bool
	wait    float64
}

// NewThread prepares fn to run as a coroutine. The thread does not run
// until its first Step.
//
// Precondition: fn must be non-nil.
// Postcondition: Returns a Thread that shares the Manager's instruction budget.
func (m *Manager) NewThread(fn *lua.LFunction, global bool, args ...lua.LValue) *Thread {
	co, cancel := m.L.NewThread()
	co.SetContext(m.budget)
	return &Thread{
		m:      m,
		co:     co,
		cancel: cancel,
		fn:     fn,
		args:   args,
		global: global,
	}
}

// Global reports whether the thread survives room transitions.
func (t *Thread) Global() bool { return t.global }

// Stopped reports whether the thread has finished or was stopped.
func (t *Thread) Stopped() bool { return t.stopped }

// Stop marks the thread finished. A stopped thread is never resumed.
func (t *Thread) Stop() {
	if t.stopped {
		return
	}
	t.stopped = true
	if t.cancel != nil {
		t.cancel()
	}
}

// Step resumes the coroutine once, or consumes elapsed seconds of a pending
// breaktime.
//
// Postcondition: Returns false once the thread has finished.
func (t *Thread) Step(elapsed float64) bool {
	if t.stopped {
		return false
	}
	if t.wait > 0 {
		t.wait -= elapsed
		if t.wait > 0 {
			return true
		}
	}

	if t.m.depth == 0 {
		t.m.budget.Reset()
	}
	t.m.depth++
	var (
		state lua.ResumeState
		err   error
		rets  []lua.LValue
	)
	if !t.started {
		t.started = true
		state, err, rets = t.m.L.Resume(t.co, t.fn, t.args...)
	} else {
		state, err, rets = t.m.L.Resume(t.co, t.fn)
	}
	t.m.depth--

	switch state {
	case lua.ResumeYield:
		t.wait = 0
		if len(rets) > 0 {
			if secs, ok := rets[0].(lua.LNumber); ok {
				t.wait = float64(secs)
			}
		}
		return true
	case lua.ResumeError:
		t.m.logger.Warn("scripting: Lua thread error", zap.Error(err))
	}
	t.Stop()
	return false
}
