package savegame

import (
	"math"
	"path/filepath"
	"strings"

	lua "github.com/yuin/gopher-lua"

	"github.com/cory-johannsen/adventure/internal/game/hud"
	"github.com/cory-johannsen/adventure/internal/game/world"
)

func (s *System) saveActors() Value {
	h := Hash()
	for _, a := range s.deps.World.Actors() {
		if a.Key == "" {
			continue
		}
		e := s.conv.snapshot(s.deps.Host.Bind(a.Ref()), nil)
		e.Set("_costume", String(costumeName(a.Costume)))
		e.Set("_dir", Int(int64(a.Facing)))
		e.Set("_lockFacing", Int(int64(a.LockFacing)))
		e.Set("_pos", String(formatPoint(a.Position)))
		if a.Volume != nil {
			e.Set("_volume", Double(*a.Volume))
		}
		if a.UseDirection != nil {
			e.Set("_useDir", Int(int64(*a.UseDirection)))
		}
		if a.UsePosition != nil {
			e.Set("_usePos", String(formatPoint(*a.UsePosition)))
		}
		if a.RenderOffset != world.DefaultRenderOffset {
			e.Set("_renderOffset", String(formatPoint(a.RenderOffset)))
		}
		if !a.Offset.IsZero() {
			e.Set("_offset", String(formatPoint(a.Offset)))
		}
		if a.Color != world.White {
			e.Set("_color", Int(a.Color.Packed()))
		}
		if a.CostumeSheet != "" {
			e.Set("_costumeSheet", String(a.CostumeSheet))
		}
		if a.Room != nil {
			e.Set(RoomKey, String(a.Room.Name))
		} else {
			e.Set(RoomKey, Null())
		}
		h.Set(a.Key, e)
	}
	return h
}

func (s *System) saveCallbacks() Value {
	list := make([]Value, 0, s.deps.Callbacks.Len())
	for _, cb := range s.deps.Callbacks.All() {
		e := HashOf(map[string]Value{
			"function": String(cb.Function),
			"guid":     Int(int64(cb.ID)),
			"time":     Int(int64(math.Round(cb.Remaining * 1000))),
		})
		if cb.Param != nil {
			if p, ok := s.conv.fromLua(cb.Param, map[*lua.LTable]bool{}); ok && !p.IsNull() {
				e.Set("param", p)
			}
		}
		list = append(list, e)
	}
	return HashOf(map[string]Value{
		"callbacks": Array(list...),
		"nextGuid":  Int(int64(s.deps.Callbacks.NextID())),
	})
}

func (s *System) saveDialogs() Value {
	h := Hash()
	for k, v := range s.deps.Dialogs.Save() {
		h.Set(k, Int(int64(v)))
	}
	return h
}

func (s *System) saveGameScene() Value {
	mode := s.deps.Actors.Mode()
	selectable := make([]Value, 0, hud.ActorSlots)
	for i := 0; i < hud.ActorSlots; i++ {
		slot := s.deps.Actors.Slot(i)
		if slot.Actor == nil {
			selectable = append(selectable, HashOf(map[string]Value{"selectable": Int(0)}))
			continue
		}
		selectable = append(selectable, HashOf(map[string]Value{
			ActorKey:     String(slot.Actor.Key),
			"selectable": Bool(slot.Selectable),
		}))
	}
	return HashOf(map[string]Value{
		"actorsSelectable":       Bool(mode&hud.SelectableOn != 0),
		"actorsTempUnselectable": Bool(mode&hud.SelectableTempUnselectable != 0),
		"forceTalkieText":        Bool(s.deps.Session.ForceTalkieText()),
		"selectableActors":       Array(selectable...),
	})
}

func (s *System) saveInventory() Value {
	slots := make([]Value, 0, hud.ActorSlots)
	for i := 0; i < hud.ActorSlots; i++ {
		a := s.deps.Actors.Slot(i).Actor
		if a == nil {
			slots = append(slots, HashOf(map[string]Value{"scroll": Int(0)}))
			continue
		}
		objects := make([]Value, 0, len(a.Inventory))
		jiggle := make([]Value, 0, len(a.Inventory))
		anyJiggle := false
		for _, o := range a.Inventory {
			objects = append(objects, String(o.Key))
			jiggle = append(jiggle, Bool(o.Jiggle))
			anyJiggle = anyJiggle || o.Jiggle
		}
		slot := HashOf(map[string]Value{
			"objects": Array(objects...),
			"scroll":  Int(int64(a.InventoryOffset)),
		})
		if anyJiggle {
			slot.Set("jiggle", Array(jiggle...))
		}
		slots = append(slots, slot)
	}
	return HashOf(map[string]Value{"slots": Array(slots...)})
}

func (s *System) saveObject(o *world.Object) Value {
	e := s.conv.snapshot(s.deps.Host.Bind(o.Ref()), nil)
	if o.State != 0 {
		e.Set("_state", Int(int64(o.State)))
	}
	if !o.Touchable {
		e.Set("_touchable", Bool(false))
	}
	if !o.Offset.IsZero() {
		e.Set("_offset", String(formatPoint(o.Offset)))
	}
	if o.Hidden {
		e.Set("_hidden", Bool(true))
	}
	if o.Rotation != 0 {
		e.Set("_rotation", Double(o.Rotation))
	}
	if o.Color != world.White {
		e.Set("_color", Int(o.Color.Packed()))
	}
	return e
}

// saveObjects covers the plain objects of physical rooms. Pseudo-room
// objects are saved with their room.
func (s *System) saveObjects() Value {
	h := Hash()
	for _, r := range s.deps.World.Rooms() {
		if r.PseudoRoom {
			continue
		}
		for _, o := range r.Objects {
			if o.Type != world.TypeObject {
				continue
			}
			h.Set(o.Key, s.saveObject(o))
		}
	}
	return h
}

func (s *System) saveRooms() Value {
	h := Hash()
	for _, r := range s.deps.World.Rooms() {
		isObject := func(key string) bool {
			_, ok := r.Object(key)
			return ok
		}
		e := s.conv.snapshot(s.deps.Host.Bind(r.Ref()), isObject)
		if r.PseudoRoom {
			objs := Hash()
			for _, o := range r.Objects {
				objs.Set(o.Key, s.saveObject(o))
			}
			e.Set(pseudoObjectsKey, objs)
		}
		h.Set(r.Name, e)
	}
	return h
}

// costumeName strips the directory and extension of a costume path.
func costumeName(path string) string {
	if path == "" {
		return ""
	}
	base := filepath.Base(path)
	return strings.TrimSuffix(base, filepath.Ext(base))
}
