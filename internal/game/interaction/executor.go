package interaction

import (
	"fmt"

	lua "github.com/yuin/gopher-lua"
	"go.uber.org/zap"

	"github.com/cory-johannsen/adventure/internal/game/hud"
	"github.com/cory-johannsen/adventure/internal/game/world"
	"github.com/cory-johannsen/adventure/internal/scripting"
)

// VerbExecutor performs a verb on its operands.
type VerbExecutor interface {
	// Execute runs verb on obj1, with obj2 as the optional second operand.
	Execute(verb hud.Verb, obj1, obj2 world.Entity) error
}

// ScriptExecutor executes verbs through the entity scripts: obj1:<verb.Func>(obj2)
// when obj1 declares the method, else the global verbDefault(verbID, obj1, obj2).
type ScriptExecutor struct {
	host   scripting.Host
	logger *zap.Logger
}

// NewScriptExecutor creates a ScriptExecutor.
//
// Precondition: host and logger must be non-nil.
func NewScriptExecutor(host scripting.Host, logger *zap.Logger) *ScriptExecutor {
	return &ScriptExecutor{host: host, logger: logger}
}

func (e *ScriptExecutor) arg(ent world.Entity) lua.LValue {
	if ent == nil {
		return lua.LNil
	}
	return e.host.Bind(ent.Ref())
}

// Execute implements VerbExecutor.
//
// Precondition: obj1 must be non-nil.
// Postcondition: Returns an error when the script call cannot be made. A verb
// with neither handler is logged at Debug level and is not an error.
func (e *ScriptExecutor) Execute(verb hud.Verb, obj1, obj2 world.Entity) error {
	ref := obj1.Ref()
	if verb.Func != "" && e.host.Exists(ref, verb.Func) {
		var err error
		if obj2 != nil {
			_, err = e.host.CallMethod(ref, verb.Func, e.arg(obj2))
		} else {
			_, err = e.host.CallMethod(ref, verb.Func)
		}
		if err != nil {
			return fmt.Errorf("executing %s on %q: %w", verb.Func, ref.Key, err)
		}
		return nil
	}
	if e.host.ExistsGlobal("verbDefault") {
		if _, err := e.host.Call("verbDefault", lua.LNumber(verb.ID), e.arg(obj1), e.arg(obj2)); err != nil {
			return fmt.Errorf("executing verbDefault on %q: %w", ref.Key, err)
		}
		return nil
	}
	e.logger.Debug("interaction: verb has no handler",
		zap.Int("verb", verb.ID),
		zap.String("object", ref.Key),
	)
	return nil
}
