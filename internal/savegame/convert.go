package savegame

import (
	"math"
	"strconv"
	"strings"

	lua "github.com/yuin/gopher-lua"
	"go.uber.org/zap"

	"github.com/cory-johannsen/adventure/internal/game/world"
	"github.com/cory-johannsen/adventure/internal/scripting"
)

// converter maps script values to document values and back.
type converter struct {
	host   scripting.Host
	world  *world.Manager
	logger *zap.Logger
}

// snapshot converts the fields of an entity or globals table. Keys starting
// with '_' are reserved for engine fields and skipped, as are keys in skip.
func (c *converter) snapshot(t *lua.LTable, skip func(key string) bool) Value {
	h := Hash()
	if t == nil {
		return h
	}
	visiting := map[*lua.LTable]bool{t: true}
	t.ForEach(func(k, v lua.LValue) {
		key, ok := keyString(k)
		if !ok || strings.HasPrefix(key, "_") || (skip != nil && skip(key)) {
			return
		}
		if e, ok := c.fromLua(v, visiting); ok {
			h.hash[key] = e
		}
	})
	return h
}

// fromLua converts v. Bound entity tables become references. Functions,
// userdata, threads and cyclic tables are dropped (ok = false).
func (c *converter) fromLua(v lua.LValue, visiting map[*lua.LTable]bool) (Value, bool) {
	switch x := v.(type) {
	case *lua.LNilType:
		return Null(), true
	case lua.LBool:
		return Bool(bool(x)), true
	case lua.LNumber:
		return number(float64(x)), true
	case lua.LString:
		return String(string(x)), true
	case *lua.LTable:
		if ref, ok := c.host.Lookup(x); ok {
			return EntityRef(ref), true
		}
		if visiting[x] {
			c.logger.Debug("save: dropping cyclic table reference")
			return Null(), false
		}
		visiting[x] = true
		defer delete(visiting, x)
		return c.table(x, visiting), true
	default:
		return Null(), false
	}
}

func (c *converter) table(t *lua.LTable, visiting map[*lua.LTable]bool) Value {
	n := t.MaxN()
	count := 0
	t.ForEach(func(lua.LValue, lua.LValue) { count++ })
	if n > 0 && n == count {
		items := make([]Value, 0, n)
		for i := 1; i <= n; i++ {
			e, ok := c.fromLua(t.RawGetInt(i), visiting)
			if !ok {
				e = Null()
			}
			items = append(items, e)
		}
		return Array(items...)
	}
	h := Hash()
	t.ForEach(func(k, v lua.LValue) {
		key, ok := keyString(k)
		if !ok {
			return
		}
		if e, ok := c.fromLua(v, visiting); ok {
			h.hash[key] = e
		}
	})
	return h
}

// number keeps integral values as integers.
func number(f float64) Value {
	if f == math.Trunc(f) && f >= math.MinInt64 && f < math.MaxInt64 {
		return Int(int64(f))
	}
	return Double(f)
}

func keyString(k lua.LValue) (string, bool) {
	switch x := k.(type) {
	case lua.LString:
		return string(x), true
	case lua.LNumber:
		return lua.LVAsString(x), true
	default:
		return "", false
	}
}

// toLua converts a document value. References resolve to the live entity
// table; references to entities no longer in the world become nil.
func (c *converter) toLua(v Value) lua.LValue {
	switch v.kind {
	case KindInt:
		return lua.LNumber(v.i)
	case KindDouble:
		return lua.LNumber(v.d)
	case KindString:
		return lua.LString(v.s)
	case KindArray:
		t := c.host.NewTable()
		for _, e := range v.items {
			t.Append(c.toLua(e))
		}
		return t
	case KindHash:
		t := c.host.NewTable()
		for _, k := range v.Keys() {
			t.RawSet(tableKey(k), c.toLua(v.hash[k]))
		}
		return t
	case KindRef:
		ref, ok := c.resolve(v.ref)
		if !ok {
			c.logger.Warn("load: referenced entity not found",
				zap.Stringer("kind", v.ref.Kind), zap.String("key", v.ref.Key), zap.String("room", v.ref.Room))
			return lua.LNil
		}
		return c.host.Bind(ref)
	default:
		return lua.LNil
	}
}

// tableKey restores canonical integer keys as numbers.
func tableKey(k string) lua.LValue {
	if n, err := strconv.Atoi(k); err == nil && strconv.Itoa(n) == k {
		return lua.LNumber(n)
	}
	return lua.LString(k)
}

// resolve checks that ref names a live entity and returns its canonical Ref.
func (c *converter) resolve(ref scripting.Ref) (scripting.Ref, bool) {
	switch ref.Kind {
	case scripting.RefRoom:
		if r, ok := c.world.Room(ref.Key); ok {
			return r.Ref(), true
		}
	case scripting.RefActor, scripting.RefObject:
		if e, ok := c.world.Resolve(ref); ok {
			return e.Ref(), true
		}
	}
	return scripting.Ref{}, false
}

// formatPoint renders p as "{x,y}" with truncated coordinates.
func formatPoint(p world.Point) string {
	return "{" + strconv.Itoa(int(p.X)) + "," + strconv.Itoa(int(p.Y)) + "}"
}

// parsePoint reads "{x,y}". Malformed text yields the zero point.
func parsePoint(s string) world.Point {
	s = strings.TrimSuffix(strings.TrimPrefix(strings.TrimSpace(s), "{"), "}")
	xs, ys, ok := strings.Cut(s, ",")
	if !ok {
		return world.Point{}
	}
	x, errX := strconv.ParseFloat(strings.TrimSpace(xs), 64)
	y, errY := strconv.ParseFloat(strings.TrimSpace(ys), 64)
	if errX != nil || errY != nil {
		return world.Point{}
	}
	return world.Point{X: x, Y: y}
}
