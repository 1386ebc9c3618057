package dialog

import (
	"sort"

	"go.uber.org/zap"
)

// States is the set of consumed dialog choices of a running game.
type States struct {
	list []ConditionState
}

// Add records s. Recording the same state twice has no effect.
func (st *States) Add(s ConditionState) {
	if !st.Has(s) {
		st.list = append(st.list, s)
	}
}

// Has reports whether s was recorded.
func (st *States) Has(s ConditionState) bool {
	for _, it := range st.list {
		if it == s {
			return true
		}
	}
	return false
}

// All returns the recorded states in recording order.
func (st *States) All() []ConditionState {
	out := make([]ConditionState, len(st.list))
	copy(out, st.list)
	return out
}

// Len returns the number of recorded states.
func (st *States) Len() int { return len(st.list) }

// ClearTemporary forgets every TempOnce state. Called when a dialog ends.
func (st *States) ClearTemporary() {
	kept := st.list[:0]
	for _, s := range st.list {
		if s.Mode != TempOnce {
			kept = append(kept, s)
		}
	}
	st.list = kept
}

// Save returns encoded text to save value for every non-temporary state.
func (st *States) Save() map[string]int {
	out := make(map[string]int, len(st.list))
	for _, s := range st.list {
		if s.Mode == TempOnce {
			continue
		}
		out[s.Encode()] = s.SaveValue()
	}
	return out
}

// Load replaces the recorded states with the parsed keys of saved. Entries
// that cannot be parsed are logged and skipped.
//
// Precondition: oracle and logger must be non-nil.
// Postcondition: Returns the number of skipped entries.
func (st *States) Load(saved map[string]int, oracle Oracle, logger *zap.Logger) int {
	keys := make([]string, 0, len(saved))
	for k := range saved {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	st.list = st.list[:0]
	skipped := 0
	for _, k := range keys {
		s, err := Parse(k, oracle)
		if err != nil {
			logger.Warn("dialog: skipping condition state", zap.String("state", k), zap.Error(err))
			skipped++
			continue
		}
		st.Add(s)
	}
	return skipped
}
