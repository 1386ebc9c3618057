package world

import (
	"fmt"
	"sync"

	"github.com/cory-johannsen/adventure/internal/scripting"
)

// VoidRoom names the pseudo-room that receives actors restored without a room.
const VoidRoom = "Void"

// Manager owns the loaded rooms and the global actor registry.
// Rooms and actors keep their registration order; hover tie-breaks depend on it.
type Manager struct {
	mu         sync.RWMutex
	rooms      []*Room
	roomByName map[string]*Room
	actors     []*Actor
	actorByKey map[string]*Actor
}

// NewManager creates a Manager holding the given rooms and actors, plus the
// Void pseudo-room when none was declared.
//
// Precondition: room names and actor keys must be unique; every actor room
// must be one of rooms.
// Postcondition: Returns a Manager indexing all rooms by name and actors by
// key, or an error on duplicates.
func NewManager(rooms []*Room, actors []*Actor) (*Manager, error) {
	m := &Manager{
		roomByName: make(map[string]*Room, len(rooms)+1),
		actorByKey: make(map[string]*Actor, len(actors)),
	}
	for _, r := range rooms {
		if err := m.AddRoom(r); err != nil {
			return nil, err
		}
	}
	if _, ok := m.roomByName[VoidRoom]; !ok {
		if err := m.AddRoom(&Room{Name: VoidRoom, PseudoRoom: true, Fullscreen: true}); err != nil {
			return nil, err
		}
	}
	for _, a := range actors {
		if err := m.AddActor(a); err != nil {
			return nil, err
		}
	}
	return m, nil
}

// AddRoom registers a room.
//
// Precondition: r must be non-nil and valid.
// Postcondition: Returns an error if r is invalid or its name is taken.
func (m *Manager) AddRoom(r *Room) error {
	if err := r.Validate(); err != nil {
		return err
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, exists := m.roomByName[r.Name]; exists {
		return fmt.Errorf("duplicate room name %q", r.Name)
	}
	for _, o := range r.Objects {
		o.Room = r
	}
	m.rooms = append(m.rooms, r)
	m.roomByName[r.Name] = r
	return nil
}

// AddActor registers an actor.
//
// Precondition: a must be non-nil with a non-empty key.
// Postcondition: Returns an error if the key is empty or taken.
func (m *Manager) AddActor(a *Actor) error {
	if a.Key == "" {
		return fmt.Errorf("actor key must not be empty")
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, exists := m.actorByKey[a.Key]; exists {
		return fmt.Errorf("duplicate actor key %q", a.Key)
	}
	m.actors = append(m.actors, a)
	m.actorByKey[a.Key] = a
	return nil
}

// Room returns the room with the given name.
//
// Postcondition: Returns (room, true) if found, or (nil, false) otherwise.
func (m *Manager) Room(name string) (*Room, bool) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	r, ok := m.roomByName[name]
	return r, ok
}

// Void returns the Void pseudo-room.
func (m *Manager) Void() *Room {
	r, _ := m.Room(VoidRoom)
	return r
}

// Rooms returns all rooms in registration order.
func (m *Manager) Rooms() []*Room {
	m.mu.RLock()
	defer m.mu.RUnlock()
	out := make([]*Room, len(m.rooms))
	copy(out, m.rooms)
	return out
}

// Actor returns the actor with the given key.
//
// Postcondition: Returns (actor, true) if found, or (nil, false) otherwise.
func (m *Manager) Actor(key string) (*Actor, bool) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	a, ok := m.actorByKey[key]
	return a, ok
}

// Actors returns all actors in registration order.
func (m *Manager) Actors() []*Actor {
	m.mu.RLock()
	defer m.mu.RUnlock()
	out := make([]*Actor, len(m.actors))
	copy(out, m.actors)
	return out
}

// ActorNamed returns the first actor whose display name is name.
// Objects standing for an actor share its name and inherit its flags.
//
// Postcondition: Returns (actor, true) if found, or (nil, false) otherwise.
func (m *Manager) ActorNamed(name string) (*Actor, bool) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	for _, a := range m.actors {
		if a.Name == name {
			return a, true
		}
	}
	return nil, false
}

// Object returns the first object with the given key across all rooms.
//
// Postcondition: Returns (object, true) if found, or (nil, false) otherwise.
func (m *Manager) Object(key string) (*Object, bool) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	for _, r := range m.rooms {
		if o, ok := r.Object(key); ok {
			return o, true
		}
	}
	return nil, false
}

// ObjectIn returns the object with the given key in the named room.
//
// Postcondition: Returns (object, true) if found, or (nil, false) otherwise.
func (m *Manager) ObjectIn(room, key string) (*Object, bool) {
	r, ok := m.Room(room)
	if !ok {
		return nil, false
	}
	return r.Object(key)
}

// Resolve maps a script Ref to its actor or object.
//
// Postcondition: Returns (entity, true) for actor and object refs that resolve.
func (m *Manager) Resolve(ref scripting.Ref) (Entity, bool) {
	switch ref.Kind {
	case scripting.RefActor:
		if a, ok := m.Actor(ref.Key); ok {
			return a, true
		}
	case scripting.RefObject:
		if ref.Room != "" {
			if o, ok := m.ObjectIn(ref.Room, ref.Key); ok {
				return o, true
			}
			return nil, false
		}
		if o, ok := m.Object(ref.Key); ok {
			return o, true
		}
	}
	return nil, false
}
