package hud_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"pgregory.net/rapid"

	"github.com/cory-johannsen/adventure/internal/game/hud"
	"github.com/cory-johannsen/adventure/internal/game/world"
)

func TestNew_SelectsWalkTo(t *testing.T) {
	h := hud.New()
	v, ok := h.CurrentVerb()
	require.True(t, ok)
	assert.Equal(t, hud.VerbWalkTo, v.ID)
	_, ok = h.VerbOverride()
	assert.False(t, ok)
	assert.True(t, h.Active())
}

func TestSetDefaultVerb_ClearsHovered(t *testing.T) {
	h := hud.New()
	look, ok := h.Verb(hud.VerbLookAt)
	require.True(t, ok)
	h.SetCurrentVerb(look)
	h.SetHoveredEntity(world.NewObject("door"))

	h.SetDefaultVerb()

	v, _ := h.CurrentVerb()
	assert.Equal(t, hud.VerbWalkTo, v.ID)
	assert.Nil(t, h.HoveredEntity())
}

func TestHoveredVerb_HitsButton(t *testing.T) {
	h := hud.New()
	h.SetVerbRect(1, world.Rect{X: 10, Y: 150, W: 40, H: 10})
	v, ok := h.HoveredVerb(world.Point{X: 12, Y: 152})
	require.True(t, ok)
	assert.Equal(t, hud.VerbOpen, v.ID)

	_, ok = h.HoveredVerb(world.Point{X: 300, Y: 10})
	assert.False(t, ok)
}

func TestHoveredVerb_InactiveHUD(t *testing.T) {
	h := hud.New()
	h.SetVerbRect(1, world.Rect{X: 0, Y: 0, W: 320, H: 180})
	h.SetActive(false)
	_, ok := h.HoveredVerb(world.Point{X: 5, Y: 5})
	assert.False(t, ok)
}

func TestSetVerbSlot_RejectsMissingWalkTo(t *testing.T) {
	h := hud.New()
	var slot hud.VerbSlot
	slot.Verbs[0] = hud.Verb{ID: hud.VerbOpen}
	assert.Error(t, h.SetVerbSlot(0, slot))
	assert.Error(t, h.SetVerbSlot(hud.ActorSlots, hud.DefaultVerbSlot()))
	assert.NoError(t, h.SetVerbSlot(2, hud.DefaultVerbSlot()))
}

func TestVerbSlot_VerbLookup(t *testing.T) {
	slot := hud.DefaultVerbSlot()
	v, ok := slot.Verb(hud.VerbUse)
	require.True(t, ok)
	assert.Equal(t, "verbUse", v.Func)
	_, ok = slot.Verb(0)
	assert.False(t, ok)
}

func selection(modes hud.SelectableMode) (*hud.ActorSelection, []*world.Actor) {
	actors := []*world.Actor{world.NewActor("ray"), world.NewActor("reyes"), world.NewActor("delores")}
	var s hud.ActorSelection
	for i, a := range actors {
		s.SetSlot(i, a, true)
	}
	s.SetMode(modes)
	return &s, actors
}

func TestActorSelection_NextCycles(t *testing.T) {
	s, actors := selection(hud.SelectableOn)
	next, ok := s.Next(actors[2])
	require.True(t, ok)
	assert.Same(t, actors[0], next)

	prev, ok := s.Previous(actors[0])
	require.True(t, ok)
	assert.Same(t, actors[2], prev)
}

func TestActorSelection_SkipsUnselectable(t *testing.T) {
	s, actors := selection(hud.SelectableOn)
	require.True(t, s.SetSelectable(actors[1], false))
	next, ok := s.Next(actors[0])
	require.True(t, ok)
	assert.Same(t, actors[2], next)
	_, ok = s.At(1)
	assert.False(t, ok)
}

func TestActorSelection_TemporarilyUnselectable(t *testing.T) {
	s, actors := selection(hud.SelectableOn | hud.SelectableTempUnselectable)
	_, ok := s.Next(actors[0])
	assert.False(t, ok)
	s.SetMode(hud.SelectableOff)
	_, ok = s.At(0)
	assert.False(t, ok)
}

func TestProperty_NextNeverReturnsCurrent(t *testing.T) {
	rapid.Check(t, func(rt *rapid.T) {
		var s hud.ActorSelection
		s.SetMode(hud.SelectableOn)
		actors := make([]*world.Actor, hud.ActorSlots)
		for i := range actors {
			actors[i] = world.NewActor("a" + string(rune('0'+i)))
			s.SetSlot(i, actors[i], rapid.Bool().Draw(rt, "selectable"))
		}
		cur := actors[rapid.IntRange(0, hud.ActorSlots-1).Draw(rt, "current")]
		next, ok := s.Next(cur)
		if ok && (next == cur || !s.Slot(s.IndexOf(next)).Selectable) {
			rt.Fatalf("Next returned %v", next.Key)
		}
	})
}
