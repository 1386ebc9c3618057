package savegame_test

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"pgregory.net/rapid"

	"github.com/cory-johannsen/adventure/internal/savegame"
	"github.com/cory-johannsen/adventure/internal/scripting"
)

func TestCodec_DoubleStaysDouble(t *testing.T) {
	c := savegame.NewCodec(false)
	data, err := c.Encode(savegame.HashOf(map[string]savegame.Value{
		"gameTime": savegame.Double(2),
		"version":  savegame.Int(2),
	}))
	require.NoError(t, err)
	assert.Contains(t, string(data), `"gameTime":2.0`)
	assert.Contains(t, string(data), `"version":2`)

	doc, err := c.Decode(data)
	require.NoError(t, err)
	assert.Equal(t, savegame.KindDouble, doc.Get("gameTime").Kind())
	assert.Equal(t, savegame.KindInt, doc.Get("version").Kind())
}

func TestCodec_DecodesReferenceMarkers(t *testing.T) {
	c := savegame.NewCodec(false)
	doc, err := c.Decode([]byte(`{
		"actor": {"_actorKey": "ray"},
		"object": {"_objectKey": "streetDoor", "_roomKey": "Street"},
		"globalObject": {"_objectKey": "coin"},
		"room": {"_roomKey": "Street"},
		"slot": {"_actorKey": "ray", "selectable": 1}
	}`))
	require.NoError(t, err)

	ref, ok := doc.Get("actor").Ref()
	require.True(t, ok)
	assert.Equal(t, scripting.Ref{Kind: scripting.RefActor, Key: "ray"}, ref)

	ref, ok = doc.Get("object").Ref()
	require.True(t, ok)
	assert.Equal(t, scripting.Ref{Kind: scripting.RefObject, Key: "streetDoor", Room: "Street"}, ref)

	ref, ok = doc.Get("globalObject").Ref()
	require.True(t, ok)
	assert.Equal(t, scripting.Ref{Kind: scripting.RefObject, Key: "coin"}, ref)

	ref, ok = doc.Get("room").Ref()
	require.True(t, ok)
	assert.Equal(t, scripting.Ref{Kind: scripting.RefRoom, Key: "Street"}, ref)

	slot := doc.Get("slot")
	assert.Equal(t, savegame.KindHash, slot.Kind())
	assert.Equal(t, "ray", slot.Get(savegame.ActorKey).Str())
}

func TestCodec_Compressed(t *testing.T) {
	doc := savegame.HashOf(map[string]savegame.Value{
		"currentRoom": savegame.String("Street"),
		"list":        savegame.Array(savegame.Int(1), savegame.Null(), savegame.String("x")),
	})
	data, err := savegame.NewCodec(true).Encode(doc)
	require.NoError(t, err)
	assert.True(t, bytes.HasPrefix(data, []byte{0x28, 0xb5, 0x2f, 0xfd}))

	back, err := savegame.NewCodec(false).Decode(data)
	require.NoError(t, err)
	assert.True(t, doc.Equal(back))
}

func TestCodec_RejectsGarbage(t *testing.T) {
	_, err := savegame.NewCodec(false).Decode([]byte("not json"))
	assert.Error(t, err)
}

func genValue(depth int) *rapid.Generator[savegame.Value] {
	return rapid.Custom(func(t *rapid.T) savegame.Value {
		top := 6
		if depth <= 0 {
			top = 4
		}
		switch rapid.IntRange(0, top).Draw(t, "kind") {
		case 0:
			return savegame.Null()
		case 1:
			return savegame.Int(rapid.Int64().Draw(t, "int"))
		case 2:
			return savegame.Double(rapid.Float64Range(-1e9, 1e9).Draw(t, "double"))
		case 3:
			return savegame.String(rapid.StringMatching(`[a-zA-Z0-9 ]{0,8}`).Draw(t, "string"))
		case 4:
			kind := rapid.SampledFrom([]scripting.RefKind{scripting.RefRoom, scripting.RefActor, scripting.RefObject}).Draw(t, "refKind")
			ref := scripting.Ref{Kind: kind, Key: rapid.StringMatching(`[a-z]{1,6}`).Draw(t, "refKey")}
			if kind == scripting.RefObject && rapid.Bool().Draw(t, "qualified") {
				ref.Room = rapid.StringMatching(`[A-Z][a-z]{1,6}`).Draw(t, "refRoom")
			}
			return savegame.EntityRef(ref)
		case 5:
			n := rapid.IntRange(0, 3).Draw(t, "len")
			items := make([]savegame.Value, n)
			for i := range items {
				items[i] = genValue(depth-1).Draw(t, "item")
			}
			return savegame.Array(items...)
		default:
			h := savegame.Hash()
			n := rapid.IntRange(0, 3).Draw(t, "len")
			for i := 0; i < n; i++ {
				h.Set(rapid.StringMatching(`[a-z]{1,6}`).Draw(t, "key"), genValue(depth-1).Draw(t, "entry"))
			}
			return h
		}
	})
}

func TestProperty_CodecRoundTrip(t *testing.T) {
	rapid.Check(t, func(rt *rapid.T) {
		doc := genValue(3).Draw(rt, "doc")
		c := savegame.NewCodec(rapid.Bool().Draw(rt, "compress"))
		data, err := c.Encode(doc)
		if err != nil {
			rt.Fatalf("encode: %v", err)
		}
		back, err := c.Decode(data)
		if err != nil {
			rt.Fatalf("decode: %v", err)
		}
		if !doc.Equal(back) {
			rt.Fatalf("round trip mismatch for %s", data)
		}
	})
}
