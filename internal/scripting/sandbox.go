// Package scripting provides the sandboxed GopherLua Script Host for the
// adventure engine. It has no dependency on game domain packages; entities
// are addressed by Ref and all engine interactions are injected via Manager
// callback fields.
package scripting

import (
	"context"
	"errors"
	"sync/atomic"

	lua "github.com/yuin/gopher-lua"
)

// DefaultInstructionLimit is the maximum number of Lua opcodes allowed per
// top-level script call when no override is configured.
const DefaultInstructionLimit = 1_000_000

// ErrBudgetExhausted is reported by a Budget once its opcode allowance is spent.
var ErrBudgetExhausted = errors.New("scripting: instruction budget exhausted")

// Budget is a context.Context that reports cancellation after Done() has been
// called limit times since the last Reset. GopherLua's mainLoopWithContext
// calls Done() once per opcode, making this an exact instruction-count limit.
//
// Unlike a cancelled context a Budget can be refilled, so one long-lived VM
// can enforce a fresh limit for every frame's script calls.
type Budget struct {
	context.Context
	limit     int64
	remaining atomic.Int64
	spent     chan struct{}
}

func newBudget(limit int) *Budget {
	b := &Budget{
		Context: context.Background(),
		limit:   int64(limit),
		spent:   make(chan struct{}),
	}
	close(b.spent)
	b.remaining.Store(b.limit)
	return b
}

// Done returns a closed channel once the allowance is spent and nil
// otherwise. A nil channel never fires inside GopherLua's select-with-default.
func (b *Budget) Done() <-chan struct{} {
	if b.remaining.Add(-1) < 0 {
		return b.spent
	}
	return nil
}

// Err returns ErrBudgetExhausted after the allowance is spent, nil before.
func (b *Budget) Err() error {
	if b.remaining.Load() < 0 {
		return ErrBudgetExhausted
	}
	return nil
}

// Reset refills the allowance to its configured limit.
func (b *Budget) Reset() {
	b.remaining.Store(b.limit)
}

// NewSandboxedState creates a GopherLua LState with:
//   - Only safe stdlib loaded: base, table, string, math
//   - Dangerous globals removed: dofile, loadfile, load, collectgarbage, require
//   - Execution limited to at most instLimit Lua opcodes between two Budget resets
//
// Precondition: instLimit >= 0; 0 uses DefaultInstructionLimit.
// Postcondition: Returns a non-nil LState ready for RegisterModules and DoFile,
// together with the Budget installed as its context.
// The caller owns the LState and must call L.Close() when done.
func NewSandboxedState(instLimit int) (*lua.LState, *Budget) {
	limit := instLimit
	if limit <= 0 {
		limit = DefaultInstructionLimit
	}

	L := lua.NewState(lua.Options{SkipOpenLibs: true})

	lua.OpenBase(L)
	lua.OpenTable(L)
	lua.OpenString(L)
	lua.OpenMath(L)

	for _, name := range []string{"dofile", "loadfile", "load", "collectgarbage", "require"} {
		L.SetGlobal(name, lua.LNil)
	}

	budget := newBudget(limit)
	L.SetContext(budget)

	return L, budget
}
