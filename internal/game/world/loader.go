package world

import (
	"fmt"
	"os"
	"strings"

	"gopkg.in/yaml.v3"
)

// yamlWorldFile is the top-level YAML structure for world files.
type yamlWorldFile struct {
	Rooms  []yamlRoom  `yaml:"rooms"`
	Actors []yamlActor `yaml:"actors"`
}

type yamlPoint struct {
	X float64 `yaml:"x"`
	Y float64 `yaml:"y"`
}

type yamlRect struct {
	X float64 `yaml:"x"`
	Y float64 `yaml:"y"`
	W float64 `yaml:"w"`
	H float64 `yaml:"h"`
}

type yamlSize struct {
	W int `yaml:"w"`
	H int `yaml:"h"`
}

type yamlFrame struct {
	Rect       yamlRect `yaml:"rect"`
	SourceRect yamlRect `yaml:"source_rect"`
	Size       yamlSize `yaml:"size"`
}

type yamlAnimation struct {
	Name   string   `yaml:"name"`
	Frames []string `yaml:"frames"`
}

type yamlScaling struct {
	Trigger string           `yaml:"trigger"`
	Values  []yamlScaleValue `yaml:"values"`
}

type yamlScaleValue struct {
	Y     float64 `yaml:"y"`
	Scale float64 `yaml:"scale"`
}

type yamlWalkbox struct {
	Name     string      `yaml:"name"`
	Polygon  []yamlPoint `yaml:"polygon"`
	Disabled bool        `yaml:"disabled"`
}

// yamlRoom is the YAML representation of a room.
type yamlRoom struct {
	Name         string               `yaml:"name"`
	ID           int                  `yaml:"id"`
	Fullscreen   bool                 `yaml:"fullscreen"`
	ScreenHeight int                  `yaml:"screen_height"`
	RoomSize     yamlSize             `yaml:"room_size"`
	Pseudo       bool                 `yaml:"pseudo"`
	SpriteSheet  map[string]yamlFrame `yaml:"sprite_sheet"`
	Walkboxes    []yamlWalkbox        `yaml:"walkboxes"`
	Scalings     []yamlScaling        `yaml:"scalings"`
	Objects      []yamlObject         `yaml:"objects"`
}

// yamlObject is the YAML representation of a room object.
type yamlObject struct {
	Key          string          `yaml:"key"`
	Name         string          `yaml:"name"`
	ID           int             `yaml:"id"`
	Flags        []string        `yaml:"flags"`
	Touchable    *bool           `yaml:"touchable"`
	ZOrder       int             `yaml:"z_order"`
	Hotspot      yamlRect        `yaml:"hotspot"`
	Position     yamlPoint       `yaml:"position"`
	UsePosition  yamlPoint       `yaml:"use_position"`
	UseDirection string          `yaml:"use_direction"`
	DefaultVerb  int             `yaml:"default_verb"`
	Type         string          `yaml:"type"`
	State        int             `yaml:"state"`
	Temporary    bool            `yaml:"temporary"`
	Hidden       bool            `yaml:"hidden"`
	Animations   []yamlAnimation `yaml:"animations"`
}

// yamlActor is the YAML representation of an actor.
type yamlActor struct {
	Key         string    `yaml:"key"`
	Name        string    `yaml:"name"`
	ID          int       `yaml:"id"`
	Room        string    `yaml:"room"`
	Flags       []string  `yaml:"flags"`
	ZOrder      int       `yaml:"z_order"`
	Hotspot     yamlRect  `yaml:"hotspot"`
	Position    yamlPoint `yaml:"position"`
	Costume     string    `yaml:"costume"`
	DefaultVerb int       `yaml:"default_verb"`
	Inventory   []string  `yaml:"inventory"`
}

var flagNames = map[string]uint32{
	"use_with":   FlagUseWith,
	"use_on":     FlagUseOn,
	"use_in":     FlagUseIn,
	"door":       FlagDoor,
	"door_left":  FlagDoorLeft,
	"door_right": FlagDoorRight,
	"door_back":  FlagDoorBack,
	"door_front": FlagDoorFront,
	"giveable":   FlagGiveable,
	"talkable":   FlagTalkable,
}

var useDirectionNames = map[string]UseDirection{
	"right": UseDirRight,
	"left":  UseDirLeft,
	"front": UseDirFront,
	"back":  UseDirBack,
}

var objectTypeNames = map[string]ObjectType{
	"":        TypeObject,
	"object":  TypeObject,
	"spot":    TypeSpot,
	"trigger": TypeTrigger,
	"prop":    TypeProp,
}

// LoadFromFile reads and validates a world YAML file.
//
// Precondition: path must point to a valid YAML world file.
// Postcondition: Returns a populated Manager or a non-nil error.
func LoadFromFile(path string) (*Manager, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading world file %s: %w", path, err)
	}
	return LoadFromBytes(data)
}

// LoadFromBytes parses and validates a world from YAML bytes.
//
// Precondition: data must be valid YAML conforming to the world schema.
// Postcondition: Returns a populated Manager or a non-nil error.
func LoadFromBytes(data []byte) (*Manager, error) {
	var file yamlWorldFile
	if err := yaml.Unmarshal(data, &file); err != nil {
		return nil, fmt.Errorf("parsing world YAML: %w", err)
	}

	rooms := make([]*Room, 0, len(file.Rooms))
	for _, yr := range file.Rooms {
		room, err := convertYAMLRoom(yr)
		if err != nil {
			return nil, fmt.Errorf("room %q: %w", yr.Name, err)
		}
		rooms = append(rooms, room)
	}

	m, err := NewManager(rooms, nil)
	if err != nil {
		return nil, fmt.Errorf("validating world: %w", err)
	}

	for _, ya := range file.Actors {
		actor, err := convertYAMLActor(ya, m)
		if err != nil {
			return nil, fmt.Errorf("actor %q: %w", ya.Key, err)
		}
		if err := m.AddActor(actor); err != nil {
			return nil, fmt.Errorf("validating world: %w", err)
		}
	}
	return m, nil
}

func parseFlags(names []string) (uint32, error) {
	var flags uint32
	for _, n := range names {
		f, ok := flagNames[strings.ToLower(n)]
		if !ok {
			return 0, fmt.Errorf("unknown flag %q", n)
		}
		flags |= f
	}
	return flags, nil
}

func convertRect(r yamlRect) Rect { return Rect{X: r.X, Y: r.Y, W: r.W, H: r.H} }

func convertPoint(p yamlPoint) Point { return Point{X: p.X, Y: p.Y} }

// convertYAMLRoom converts the parsed YAML structures into domain types.
func convertYAMLRoom(yr yamlRoom) (*Room, error) {
	room := &Room{
		Name:         yr.Name,
		ID:           yr.ID,
		Fullscreen:   yr.Fullscreen,
		ScreenHeight: yr.ScreenHeight,
		RoomSize:     Size{W: yr.RoomSize.W, H: yr.RoomSize.H},
		PseudoRoom:   yr.Pseudo,
		SpriteSheet:  make(map[string]Frame, len(yr.SpriteSheet)),
	}
	for name, yf := range yr.SpriteSheet {
		room.SpriteSheet[name] = Frame{
			Name:       name,
			Rect:       convertRect(yf.Rect),
			SourceRect: convertRect(yf.SourceRect),
			Size:       Size{W: yf.Size.W, H: yf.Size.H},
		}
	}
	for _, yw := range yr.Walkboxes {
		wb := Walkbox{Name: yw.Name, Enabled: !yw.Disabled}
		for _, p := range yw.Polygon {
			wb.Polygon = append(wb.Polygon, convertPoint(p))
		}
		room.Walkboxes = append(room.Walkboxes, wb)
	}
	for _, ys := range yr.Scalings {
		sc := Scaling{Name: ys.Trigger}
		for _, v := range ys.Values {
			sc.Values = append(sc.Values, ScaleValue{Y: v.Y, Scale: v.Scale})
		}
		room.Scalings = append(room.Scalings, sc)
	}
	for _, yo := range yr.Objects {
		obj, err := convertYAMLObject(yo, room)
		if err != nil {
			return nil, fmt.Errorf("object %q: %w", yo.Key, err)
		}
		room.AddObject(obj)
	}
	return room, nil
}

func convertYAMLObject(yo yamlObject, room *Room) (*Object, error) {
	flags, err := parseFlags(yo.Flags)
	if err != nil {
		return nil, err
	}
	typ, ok := objectTypeNames[strings.ToLower(yo.Type)]
	if !ok {
		return nil, fmt.Errorf("unknown object type %q", yo.Type)
	}
	obj := NewObject(yo.Key)
	if yo.Name != "" {
		obj.Name = yo.Name
	}
	obj.ID = yo.ID
	obj.Flags = flags
	obj.ZOrder = yo.ZOrder
	obj.Hotspot = convertRect(yo.Hotspot)
	obj.Position = convertPoint(yo.Position)
	obj.UsePosition = convertPoint(yo.UsePosition)
	obj.DefaultVerb = yo.DefaultVerb
	obj.Type = typ
	obj.State = yo.State
	obj.Temporary = yo.Temporary
	obj.Hidden = yo.Hidden
	if yo.Touchable != nil {
		obj.Touchable = *yo.Touchable
	}
	if yo.UseDirection != "" {
		dir, ok := useDirectionNames[strings.ToLower(yo.UseDirection)]
		if !ok {
			return nil, fmt.Errorf("unknown use_direction %q", yo.UseDirection)
		}
		obj.UseDirection = dir
	}
	for _, ya := range yo.Animations {
		anim := Animation{Name: ya.Name}
		for _, name := range ya.Frames {
			frame, ok := room.SpriteSheet[name]
			if !ok {
				frame = Frame{Name: name}
			}
			anim.Frames = append(anim.Frames, frame)
		}
		obj.Animations = append(obj.Animations, anim)
	}
	return obj, nil
}

func convertYAMLActor(ya yamlActor, m *Manager) (*Actor, error) {
	flags, err := parseFlags(ya.Flags)
	if err != nil {
		return nil, err
	}
	actor := NewActor(ya.Key)
	if ya.Name != "" {
		actor.Name = ya.Name
	}
	actor.ID = ya.ID
	actor.Flags = flags
	actor.ZOrder = ya.ZOrder
	actor.Hotspot = convertRect(ya.Hotspot)
	actor.Position = convertPoint(ya.Position)
	actor.Costume = ya.Costume
	actor.DefaultVerb = ya.DefaultVerb
	if ya.Room != "" {
		room, ok := m.Room(ya.Room)
		if !ok {
			return nil, fmt.Errorf("unknown room %q", ya.Room)
		}
		actor.Room = room
	}
	for _, key := range ya.Inventory {
		obj, ok := m.Object(key)
		if !ok {
			return nil, fmt.Errorf("inventory object %q not found", key)
		}
		actor.PickUp(obj)
	}
	return actor, nil
}
