package savegame

import (
	"errors"
	"strings"

	lua "github.com/yuin/gopher-lua"
	"go.uber.org/zap"

	"github.com/cory-johannsen/adventure/internal/game/hud"
	"github.com/cory-johannsen/adventure/internal/game/task"
	"github.com/cory-johannsen/adventure/internal/game/world"
	"github.com/cory-johannsen/adventure/internal/scripting"
)

var actorFields = map[string]bool{
	"_pos": true, "_costume": true, "_costumeSheet": true, RoomKey: true, "_color": true,
	"_dir": true, "_useDir": true, "_lockFacing": true, "_volume": true, "_usePos": true,
	"_renderOffset": true, "_offset": true,
}

var objectFields = map[string]bool{
	"_state": true, "_touchable": true, "_offset": true, "_hidden": true, "_rotation": true, "_color": true,
}

func (s *System) loadGameScene(h Value) {
	mode := hud.SelectableOff
	if h.Get("actorsSelectable").Truthy() {
		mode = hud.SelectableOn
	}
	if h.Get("actorsTempUnselectable").Truthy() {
		mode |= hud.SelectableTempUnselectable
	}
	s.deps.Actors.SetMode(mode)
	s.deps.Session.SetForceTalkieText(h.Get("forceTalkieText").Truthy())
	for _, e := range h.Get("selectableActors").Items() {
		key := e.Get(ActorKey).Str()
		if key == "" {
			continue
		}
		a, ok := s.deps.World.Actor(key)
		if !ok {
			s.deps.Logger.Warn("load: selectable actor not found", zap.String("actor", key))
			continue
		}
		s.deps.Actors.SetSelectable(a, e.Get("selectable").Truthy())
	}
}

func (s *System) loadDialogs(h Value) {
	saved := make(map[string]int, h.Len())
	for _, k := range h.Keys() {
		saved[k] = int(h.Get(k).Int())
	}
	s.deps.Dialogs.Load(saved, s.deps.Oracle, s.deps.Logger)
}

func (s *System) loadCallbacks(h Value) {
	items := h.Get("callbacks").Items()
	cbs := make([]task.Callback, 0, len(items))
	for _, e := range items {
		cb := task.Callback{
			ID:        int(e.Get("guid").Int()),
			Function:  e.Get("function").Str(),
			Remaining: float64(e.Get("time").Int()) / 1000,
		}
		if p, ok := e.Lookup("param"); ok && !p.IsNull() {
			if lv := s.conv.toLua(p); lv != lua.LNil {
				cb.Param = lv
			}
		}
		cbs = append(cbs, cb)
	}
	s.deps.Callbacks.Restore(cbs, int(h.Get("nextGuid").Int()))
}

// loadGlobals makes the globals table match h. Saveable fields missing
// from h are cleared; functions and engine fields are kept.
func (s *System) loadGlobals(h Value) {
	g := s.globals()
	if g == nil {
		g = s.deps.Host.NewTable()
		s.deps.Host.Set(s.deps.GlobalsTable, g)
	}
	saved := map[string]bool{}
	for _, k := range h.Keys() {
		saved[k] = true
	}
	var stale []string
	g.ForEach(func(k, v lua.LValue) {
		key, ok := keyString(k)
		if !ok || strings.HasPrefix(key, "_") || saved[key] {
			return
		}
		switch v.Type() {
		case lua.LTFunction, lua.LTUserData, lua.LTThread:
			return
		}
		stale = append(stale, key)
	})
	for _, k := range stale {
		g.RawSetString(k, lua.LNil)
	}
	for _, k := range h.Keys() {
		g.RawSetString(k, s.conv.toLua(h.Get(k)))
	}
}

// setFields copies the script fields of h into t. Engine fields not
// listed in known are reported and skipped.
func (s *System) setFields(t *lua.LTable, owner string, h Value, known map[string]bool, level func(string, ...zap.Field)) {
	for _, k := range h.Keys() {
		if k == "" || strings.HasPrefix(k, "_") {
			if !known[k] {
				level("load: property not loaded",
					zap.String("owner", owner), zap.String("property", k), zap.Stringer("type", h.Get(k).Kind()))
			}
			continue
		}
		t.RawSetString(k, s.conv.toLua(h.Get(k)))
	}
}

// postLoad calls target's postLoad method when declared.
func (s *System) postLoad(ref scripting.Ref) {
	if !s.deps.Host.Exists(ref, "postLoad") {
		return
	}
	if _, err := s.deps.Host.CallMethod(ref, "postLoad"); err != nil && !errors.Is(err, scripting.ErrMissingFunction) {
		s.deps.Logger.Warn("load: postLoad failed", zap.String("target", ref.Key), zap.Error(err))
	}
}

// loadActors restores the live actors found in h. Saved actors unknown to
// the world are ignored.
func (s *System) loadActors(h Value) {
	for _, a := range s.deps.World.Actors() {
		if a.Key == "" {
			continue
		}
		e, ok := h.Lookup(a.Key)
		if !ok {
			continue
		}
		s.loadActor(a, e)
	}
}

func (s *System) loadActor(a *world.Actor, h Value) {
	a.Color = world.White
	if v, ok := h.Lookup("_color"); ok {
		a.Color = world.ColorFromPacked(v.Int())
	}
	a.Position = parsePoint(h.Get("_pos").Str())
	a.Costume = h.Get("_costume").Str()
	a.CostumeSheet = h.Get("_costumeSheet").Str()

	roomName := h.Get(RoomKey).Str()
	if roomName == "" {
		roomName = world.VoidRoom
	}
	if r, ok := s.deps.World.Room(roomName); ok {
		a.Room = r
	} else {
		s.deps.Logger.Warn("load: actor room not found", zap.String("actor", a.Key), zap.String("room", roomName))
		a.Room = s.deps.World.Void()
	}

	a.Facing = world.FaceFront
	if v, ok := h.Lookup("_dir"); ok {
		a.Facing = world.Facing(v.Int())
	}
	a.UseDirection = nil
	if v, ok := h.Lookup("_useDir"); ok {
		dir := world.UseDirection(v.Int())
		a.UseDirection = &dir
	}
	a.LockFacing = int(h.Get("_lockFacing").Int())
	a.Volume = nil
	if v, ok := h.Lookup("_volume"); ok {
		vol := v.Double()
		a.Volume = &vol
	}
	a.UsePosition = nil
	if v, ok := h.Lookup("_usePos"); ok {
		p := parsePoint(v.Str())
		a.UsePosition = &p
	}
	a.RenderOffset = world.DefaultRenderOffset
	if v, ok := h.Lookup("_renderOffset"); ok {
		a.RenderOffset = parsePoint(v.Str())
	}
	a.Offset = parsePoint(h.Get("_offset").Str())

	s.setFields(s.deps.Host.Bind(a.Ref()), a.Key, h, actorFields, s.deps.Logger.Debug)
	s.postLoad(a.Ref())
}

// loadInventory refills the inventories of the actors in the slots.
func (s *System) loadInventory(h Value) {
	slots := h.Get("slots").Items()
	for i := 0; i < hud.ActorSlots && i < len(slots); i++ {
		a := s.deps.Actors.Slot(i).Actor
		if a == nil {
			continue
		}
		for _, o := range append([]*world.Object(nil), a.Inventory...) {
			a.Drop(o)
		}
		slot := slots[i]
		jiggle := slot.Get("jiggle").Items()
		for j, key := range slot.Get("objects").Items() {
			o, ok := s.deps.World.Object(key.Str())
			if !ok {
				s.deps.Logger.Warn("load: inventory object not found",
					zap.String("actor", a.Key), zap.String("object", key.Str()))
				continue
			}
			o.Jiggle = j < len(jiggle) && jiggle[j].Truthy()
			a.PickUp(o)
		}
		a.InventoryOffset = int(slot.Get("scroll").Int())
	}
}

func (s *System) loadObject(o *world.Object, h Value) {
	ref := o.Ref()
	o.State = 0
	if v, ok := s.deps.Host.RawGet(ref, "initState"); ok {
		if n, isNum := v.(lua.LNumber); isNum {
			o.State = int(n)
		}
	}
	if v, ok := h.Lookup("_state"); ok {
		o.State = int(v.Int())
	}
	o.Touchable = true
	if v, ok := s.deps.Host.RawGet(ref, "initTouchable"); ok {
		o.Touchable = luaTruthy(v)
	}
	if v, ok := h.Lookup("_touchable"); ok {
		o.Touchable = v.Truthy()
	}
	o.Offset = parsePoint(h.Get("_offset").Str())
	o.Hidden = h.Get("_hidden").Truthy()
	o.Rotation = h.Get("_rotation").Double()
	o.Color = world.White
	if v, ok := h.Lookup("_color"); ok {
		o.Color = world.ColorFromPacked(v.Int())
	}
	s.setFields(s.deps.Host.Bind(ref), o.Key, h, objectFields, s.deps.Logger.Warn)
}

// luaTruthy treats 0 as false, matching flags stored as numbers.
func luaTruthy(v lua.LValue) bool {
	switch x := v.(type) {
	case lua.LBool:
		return bool(x)
	case lua.LNumber:
		return x != 0
	default:
		return lua.LVAsBool(v)
	}
}

// loadObjects restores objects by key across all rooms.
func (s *System) loadObjects(h Value) {
	for _, key := range h.Keys() {
		if key == "" {
			continue
		}
		o, ok := s.deps.World.Object(key)
		if !ok {
			s.deps.Logger.Debug("load: object not found", zap.String("object", key))
			continue
		}
		s.loadObject(o, h.Get(key))
	}
}

// loadRooms restores the room tables and pseudo-room objects. Rooms unknown
// to the world are skipped.
func (s *System) loadRooms(h Value) {
	for _, name := range h.Keys() {
		r, ok := s.deps.World.Room(name)
		if !ok {
			s.deps.Logger.Debug("load: room not found", zap.String("room", name))
			continue
		}
		e := h.Get(name)
		if objs, ok := e.Lookup(pseudoObjectsKey); ok {
			for _, key := range objs.Keys() {
				o, found := r.Object(key)
				if !found {
					s.deps.Logger.Debug("load: room object not found", zap.String("room", name), zap.String("object", key))
					continue
				}
				s.loadObject(o, objs.Get(key))
			}
		}
		s.setFields(s.deps.Host.Bind(r.Ref()), name, e, map[string]bool{pseudoObjectsKey: true}, s.deps.Logger.Debug)
		s.postLoad(r.Ref())
	}
}
