package savegame

import (
	"bytes"
	"encoding/json"
	"fmt"
	"math"
	"strconv"
	"strings"

	"github.com/klauspost/compress/zstd"

	"github.com/cory-johannsen/adventure/internal/scripting"
)

// Reference marker keys. A hash made only of marker keys stands for a live entity.
const (
	ActorKey  = "_actorKey"
	ObjectKey = "_objectKey"
	RoomKey   = "_roomKey"
)

var zstdMagic = []byte{0x28, 0xb5, 0x2f, 0xfd}

// Codec turns documents into bytes and back. Documents are JSON, optionally
// zstd-compressed. Decode accepts both forms regardless of the setting.
type Codec struct {
	compress bool
}

// NewCodec returns a Codec that compresses on Encode when compress is true.
func NewCodec(compress bool) *Codec { return &Codec{compress: compress} }

// Encode serializes doc.
//
// Postcondition: Decode(Encode(doc)) is Equal to doc, except that
// non-finite doubles become null.
func (c *Codec) Encode(doc Value) ([]byte, error) {
	data, err := json.Marshal(toJSON(doc))
	if err != nil {
		return nil, fmt.Errorf("encoding save document: %w", err)
	}
	if !c.compress {
		return data, nil
	}
	enc, err := zstd.NewWriter(nil)
	if err != nil {
		return nil, fmt.Errorf("creating zstd encoder: %w", err)
	}
	defer enc.Close()
	return enc.EncodeAll(data, nil), nil
}

// Decode parses a document produced by Encode.
//
// Postcondition: Returns the document or a non-nil error.
func (c *Codec) Decode(data []byte) (Value, error) {
	if bytes.HasPrefix(data, zstdMagic) {
		dec, err := zstd.NewReader(nil)
		if err != nil {
			return Null(), fmt.Errorf("creating zstd decoder: %w", err)
		}
		defer dec.Close()
		if data, err = dec.DecodeAll(data, nil); err != nil {
			return Null(), fmt.Errorf("decompressing save document: %w", err)
		}
	}
	d := json.NewDecoder(bytes.NewReader(data))
	d.UseNumber()
	var raw any
	if err := d.Decode(&raw); err != nil {
		return Null(), fmt.Errorf("decoding save document: %w", err)
	}
	return fromJSON(raw)
}

func toJSON(v Value) any {
	switch v.kind {
	case KindInt:
		return json.Number(strconv.FormatInt(v.i, 10))
	case KindDouble:
		if math.IsNaN(v.d) || math.IsInf(v.d, 0) {
			return nil
		}
		s := strconv.FormatFloat(v.d, 'g', -1, 64)
		if !strings.ContainsAny(s, ".eE") {
			s += ".0"
		}
		return json.Number(s)
	case KindString:
		return v.s
	case KindArray:
		out := make([]any, len(v.items))
		for i, e := range v.items {
			out[i] = toJSON(e)
		}
		return out
	case KindHash:
		out := make(map[string]any, len(v.hash))
		for k, e := range v.hash {
			out[k] = toJSON(e)
		}
		return out
	case KindRef:
		return refToJSON(v.ref)
	default:
		return nil
	}
}

func refToJSON(ref scripting.Ref) map[string]any {
	switch ref.Kind {
	case scripting.RefActor:
		return map[string]any{ActorKey: ref.Key}
	case scripting.RefObject:
		m := map[string]any{ObjectKey: ref.Key}
		if ref.Room != "" {
			m[RoomKey] = ref.Room
		}
		return m
	default:
		return map[string]any{RoomKey: ref.Key}
	}
}

func fromJSON(raw any) (Value, error) {
	switch x := raw.(type) {
	case nil:
		return Null(), nil
	case bool:
		return Bool(x), nil
	case string:
		return String(x), nil
	case json.Number:
		s := x.String()
		if strings.ContainsAny(s, ".eE") {
			f, err := x.Float64()
			if err != nil {
				return Null(), fmt.Errorf("number %q: %w", s, err)
			}
			return Double(f), nil
		}
		n, err := x.Int64()
		if err != nil {
			return Null(), fmt.Errorf("number %q: %w", s, err)
		}
		return Int(n), nil
	case []any:
		items := make([]Value, len(x))
		for i, e := range x {
			v, err := fromJSON(e)
			if err != nil {
				return Null(), err
			}
			items[i] = v
		}
		return Array(items...), nil
	case map[string]any:
		if ref, ok := refFromJSON(x); ok {
			return EntityRef(ref), nil
		}
		h := Hash()
		for k, e := range x {
			v, err := fromJSON(e)
			if err != nil {
				return Null(), fmt.Errorf("key %q: %w", k, err)
			}
			h.hash[k] = v
		}
		return h, nil
	default:
		return Null(), fmt.Errorf("unexpected JSON value %T", raw)
	}
}

// refFromJSON recognizes a hash whose keys are exactly one of the marker sets.
func refFromJSON(m map[string]any) (scripting.Ref, bool) {
	str := func(key string) (string, bool) {
		s, ok := m[key].(string)
		return s, ok
	}
	switch len(m) {
	case 1:
		if key, ok := str(ActorKey); ok {
			return scripting.Ref{Kind: scripting.RefActor, Key: key}, true
		}
		if key, ok := str(ObjectKey); ok {
			return scripting.Ref{Kind: scripting.RefObject, Key: key}, true
		}
		if key, ok := str(RoomKey); ok {
			return scripting.Ref{Kind: scripting.RefRoom, Key: key}, true
		}
	case 2:
		key, okObj := str(ObjectKey)
		room, okRoom := str(RoomKey)
		if okObj && okRoom {
			return scripting.Ref{Kind: scripting.RefObject, Key: key, Room: room}, true
		}
	}
	return scripting.Ref{}, false
}
