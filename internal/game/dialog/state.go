// Package dialog records which dialog choices have been consumed and encodes
// them for save files.
package dialog

import (
	"errors"
	"fmt"
	"strconv"
	"strings"
)

// ErrMalformedState is returned when a saved condition state cannot be parsed.
var ErrMalformedState = errors.New("dialog: malformed condition state")

// Mode is the lifetime of a consumed dialog choice.
type Mode int

// Condition modes.
const (
	Once Mode = iota
	ShowOnce
	OnceEver
	ShowOnceEver
	TempOnce
)

var prefixes = map[Mode]byte{
	Once:         '?',
	ShowOnce:     '#',
	OnceEver:     '&',
	ShowOnceEver: '$',
	TempOnce:     '^',
}

// Prefix returns the save-file character of m.
func (m Mode) Prefix() byte { return prefixes[m] }

// String returns the lower-case name of the mode.
func (m Mode) String() string {
	switch m {
	case Once:
		return "once"
	case ShowOnce:
		return "showonce"
	case OnceEver:
		return "onceever"
	case ShowOnceEver:
		return "showonceever"
	case TempOnce:
		return "temponce"
	default:
		return "mode(" + strconv.Itoa(int(m)) + ")"
	}
}

// ModeFromPrefix maps a save-file character to its mode.
//
// Postcondition: Returns (mode, true) for one of ?#&$^.
func ModeFromPrefix(c byte) (Mode, bool) {
	for m, p := range prefixes {
		if p == c {
			return m, true
		}
	}
	return 0, false
}

// ConditionState records one consumed choice of a dialog.
type ConditionState struct {
	Mode Mode
	// Dialog is the dialog asset name without extension.
	Dialog string
	// Line is the line number of the choice.
	Line int
	// ActorKey is the actor that saw the choice.
	ActorKey string
}

// Encode returns the save-file text: prefix, dialog, line, actor key.
func (s ConditionState) Encode() string {
	var b strings.Builder
	b.WriteByte(s.Mode.Prefix())
	b.WriteString(s.Dialog)
	b.WriteString(strconv.Itoa(s.Line))
	b.WriteString(s.ActorKey)
	return b.String()
}

// SaveValue is the integer stored next to the encoded text.
func (s ConditionState) SaveValue() int {
	if s.Mode == ShowOnce {
		return 2
	}
	return 1
}

// Oracle reports whether a dialog asset exists.
type Oracle interface {
	HasDialog(name string) bool
}

func isDigit(c byte) bool { return c >= '0' && c <= '9' }

// Parse decodes text written by Encode. Dialog names may contain digits, so
// the name is the leading run of non-digits, extended one character at a
// time until oracle knows it. The digits that follow are the line number and
// the rest is the actor key.
//
// Precondition: oracle must be non-nil.
// Postcondition: Returns an error wrapping ErrMalformedState when the prefix
// is unknown or no prefix of the text names a known dialog.
func Parse(text string, oracle Oracle) (ConditionState, error) {
	if text == "" {
		return ConditionState{}, fmt.Errorf("%w: empty", ErrMalformedState)
	}
	mode, ok := ModeFromPrefix(text[0])
	if !ok {
		return ConditionState{}, fmt.Errorf("%w: unknown prefix %q in %q", ErrMalformedState, text[0], text)
	}
	i := 1
	for i < len(text) && !isDigit(text[i]) {
		i++
	}
	for !oracle.HasDialog(text[1:i]) {
		if i >= len(text) {
			return ConditionState{}, fmt.Errorf("%w: no known dialog in %q", ErrMalformedState, text)
		}
		i++
	}
	state := ConditionState{Mode: mode, Dialog: text[1:i]}
	j := i
	for j < len(text) && isDigit(text[j]) {
		j++
	}
	if j > i {
		line, err := strconv.Atoi(text[i:j])
		if err != nil {
			return ConditionState{}, fmt.Errorf("%w: line in %q: %v", ErrMalformedState, text, err)
		}
		state.Line = line
	}
	state.ActorKey = text[j:]
	return state, nil
}
