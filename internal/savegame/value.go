// Package savegame captures the live game state into a versioned document
// and restores it.
package savegame

import (
	"sort"
	"strconv"

	"github.com/cory-johannsen/adventure/internal/scripting"
)

// Kind tags the variant stored in a Value.
type Kind int

// Value kinds.
const (
	KindNull Kind = iota
	KindInt
	KindDouble
	KindString
	KindArray
	KindHash
	KindRef
)

// String returns the lower-case name of the kind.
func (k Kind) String() string {
	switch k {
	case KindNull:
		return "null"
	case KindInt:
		return "int"
	case KindDouble:
		return "double"
	case KindString:
		return "string"
	case KindArray:
		return "array"
	case KindHash:
		return "hash"
	case KindRef:
		return "ref"
	default:
		return "kind(" + strconv.Itoa(int(k)) + ")"
	}
}

// Value is one node of a save document. Hash values share their map when
// copied; Set on a copy is visible through the original.
type Value struct {
	kind  Kind
	i     int64
	d     float64
	s     string
	items []Value
	hash  map[string]Value
	ref   scripting.Ref
}

// Null returns the null value.
func Null() Value { return Value{} }

// Int returns an integer value.
func Int(v int64) Value { return Value{kind: KindInt, i: v} }

// Bool returns 1 for true and 0 for false, the document encoding of flags.
func Bool(v bool) Value {
	if v {
		return Int(1)
	}
	return Int(0)
}

// Double returns a floating point value.
func Double(v float64) Value { return Value{kind: KindDouble, d: v} }

// String returns a string value.
func String(v string) Value { return Value{kind: KindString, s: v} }

// Array returns an array holding items.
func Array(items ...Value) Value {
	if items == nil {
		items = []Value{}
	}
	return Value{kind: KindArray, items: items}
}

// Hash returns an empty hash.
func Hash() Value { return Value{kind: KindHash, hash: make(map[string]Value)} }

// HashOf returns a hash holding entries.
func HashOf(entries map[string]Value) Value {
	h := Hash()
	for k, v := range entries {
		h.hash[k] = v
	}
	return h
}

// EntityRef returns a reference to a live room, actor or object.
//
// Precondition: ref must not be zero.
func EntityRef(ref scripting.Ref) Value { return Value{kind: KindRef, ref: ref} }

// Kind returns the variant tag.
func (v Value) Kind() Kind { return v.kind }

// IsNull reports whether v is null.
func (v Value) IsNull() bool { return v.kind == KindNull }

// Int returns v as an integer. Doubles are truncated; other kinds give 0.
func (v Value) Int() int64 {
	switch v.kind {
	case KindInt:
		return v.i
	case KindDouble:
		return int64(v.d)
	default:
		return 0
	}
}

// Double returns v as a float. Integers are converted; other kinds give 0.
func (v Value) Double() float64 {
	switch v.kind {
	case KindDouble:
		return v.d
	case KindInt:
		return float64(v.i)
	default:
		return 0
	}
}

// Truthy reports whether v is a non-zero number.
func (v Value) Truthy() bool { return v.Double() != 0 }

// Str returns the string payload, or "" for other kinds.
func (v Value) Str() string {
	if v.kind == KindString {
		return v.s
	}
	return ""
}

// Items returns the array elements, or nil for other kinds.
func (v Value) Items() []Value {
	if v.kind == KindArray {
		return v.items
	}
	return nil
}

// Ref returns the referenced entity.
//
// Postcondition: Returns (ref, true) only for KindRef values.
func (v Value) Ref() (scripting.Ref, bool) {
	return v.ref, v.kind == KindRef
}

// Get returns the hash entry key, or null when absent or v is not a hash.
func (v Value) Get(key string) Value {
	if v.kind != KindHash {
		return Null()
	}
	return v.hash[key]
}

// Lookup returns the hash entry key.
//
// Postcondition: Returns (value, true) only when v is a hash holding key.
func (v Value) Lookup(key string) (Value, bool) {
	if v.kind != KindHash {
		return Null(), false
	}
	e, ok := v.hash[key]
	return e, ok
}

// Set stores a hash entry.
//
// Precondition: v must be a hash.
func (v Value) Set(key string, e Value) {
	v.hash[key] = e
}

// Keys returns the hash keys in sorted order.
func (v Value) Keys() []string {
	if v.kind != KindHash {
		return nil
	}
	keys := make([]string, 0, len(v.hash))
	for k := range v.hash {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

// Len returns the number of array elements or hash entries.
func (v Value) Len() int {
	switch v.kind {
	case KindArray:
		return len(v.items)
	case KindHash:
		return len(v.hash)
	default:
		return 0
	}
}

// Equal reports whether v and o hold the same tree.
func (v Value) Equal(o Value) bool {
	if v.kind != o.kind {
		return false
	}
	switch v.kind {
	case KindNull:
		return true
	case KindInt:
		return v.i == o.i
	case KindDouble:
		return v.d == o.d
	case KindString:
		return v.s == o.s
	case KindRef:
		return v.ref == o.ref
	case KindArray:
		if len(v.items) != len(o.items) {
			return false
		}
		for i := range v.items {
			if !v.items[i].Equal(o.items[i]) {
				return false
			}
		}
		return true
	case KindHash:
		if len(v.hash) != len(o.hash) {
			return false
		}
		for k, e := range v.hash {
			oe, ok := o.hash[k]
			if !ok || !e.Equal(oe) {
				return false
			}
		}
		return true
	}
	return false
}
