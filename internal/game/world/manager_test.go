package world_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/cory-johannsen/adventure/internal/game/world"
	"github.com/cory-johannsen/adventure/internal/scripting"
)

func newTestWorld(t *testing.T) *world.Manager {
	t.Helper()
	street := &world.Room{Name: "Street"}
	street.AddObject(world.NewObject("sign"))
	bank := &world.Room{Name: "Bank"}
	bank.AddObject(world.NewObject("vault"))
	ray := world.NewActor("ray")
	ray.Room = street
	m, err := world.NewManager([]*world.Room{street, bank}, []*world.Actor{ray, world.NewActor("reyes")})
	require.NoError(t, err)
	return m
}

func TestNewManager_AddsVoidRoom(t *testing.T) {
	m := newTestWorld(t)
	void := m.Void()
	require.NotNil(t, void)
	assert.True(t, void.PseudoRoom)
	assert.Len(t, m.Rooms(), 3)
}

func TestNewManager_DuplicateRoom_ReturnsError(t *testing.T) {
	_, err := world.NewManager([]*world.Room{{Name: "A"}, {Name: "A"}}, nil)
	assert.Error(t, err)
}

func TestNewManager_DuplicateActor_ReturnsError(t *testing.T) {
	_, err := world.NewManager(nil, []*world.Actor{world.NewActor("ray"), world.NewActor("ray")})
	assert.Error(t, err)
}

func TestManager_ActorsKeepRegistrationOrder(t *testing.T) {
	m := newTestWorld(t)
	actors := m.Actors()
	require.Len(t, actors, 2)
	assert.Equal(t, "ray", actors[0].Key)
	assert.Equal(t, "reyes", actors[1].Key)
}

func TestManager_ObjectLookup(t *testing.T) {
	m := newTestWorld(t)
	o, ok := m.Object("vault")
	require.True(t, ok)
	assert.Equal(t, "Bank", o.RoomName())

	_, ok = m.ObjectIn("Street", "vault")
	assert.False(t, ok)
	_, ok = m.ObjectIn("Nowhere", "vault")
	assert.False(t, ok)
}

func TestManager_Resolve(t *testing.T) {
	m := newTestWorld(t)
	e, ok := m.Resolve(scripting.Ref{Kind: scripting.RefActor, Key: "reyes"})
	require.True(t, ok)
	assert.Equal(t, "reyes", e.Base().Key)

	e, ok = m.Resolve(scripting.Ref{Kind: scripting.RefObject, Key: "sign", Room: "Street"})
	require.True(t, ok)
	assert.Equal(t, "sign", e.Base().Key)

	_, ok = m.Resolve(scripting.Ref{Kind: scripting.RefObject, Key: "sign", Room: "Bank"})
	assert.False(t, ok)
	_, ok = m.Resolve(scripting.Ref{Kind: scripting.RefRoom, Key: "Street"})
	assert.False(t, ok)
}

func TestManager_ActorNamed(t *testing.T) {
	m := newTestWorld(t)
	a, _ := m.Actor("reyes")
	a.Name = "Agent Reyes"
	got, ok := m.ActorNamed("Agent Reyes")
	require.True(t, ok)
	assert.Same(t, a, got)
}
