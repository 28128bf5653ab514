package codec

import (
	"errors"
	"testing"

	"github.com/golang/snappy"
	"google.golang.org/protobuf/types/known/structpb"
)

type point struct {
	X int    `json:"x" yaml:"x" cbor:"x"`
	Y int    `json:"y" yaml:"y" cbor:"y"`
	L string `json:"label" yaml:"label" cbor:"label"`
}

func TestJSONCodec(t *testing.T) {
	c := JSON()
	in := map[string]any{"a": 1, "b": "x"}
	b, err := c.Marshal(in)
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}
	var out map[string]any
	if err := c.Unmarshal(b, &out); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if out["a"].(float64) != 1 || out["b"].(string) != "x" {
		t.Fatalf("roundtrip mismatch: %#v", out)
	}
}

func TestCBORCodec(t *testing.T) {
	c, err := CBOR()
	if err != nil {
		t.Fatalf("new cbor: %v", err)
	}
	in := map[string]any{"n": 42}
	b, err := c.Marshal(in)
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}
	var out map[string]any
	if err := c.Unmarshal(b, &out); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if n, ok := out["n"].(uint64); !ok || n != 42 {
		t.Fatalf("roundtrip mismatch: %#v", out)
	}
}

func TestProtoCodec(t *testing.T) {
	c := Proto()
	s, err := structpb.NewStruct(map[string]any{"k": "v"})
	if err != nil {
		t.Fatalf("struct: %v", err)
	}
	b, err := c.Marshal(s)
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}
	var out structpb.Struct
	if err := c.Unmarshal(b, &out); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if out.Fields["k"].GetStringValue() != "v" {
		t.Fatalf("roundtrip mismatch")
	}
	if _, err := c.Marshal(point{}); err == nil {
		t.Fatalf("expected error for non-proto value")
	}
}

func TestYAMLCodec(t *testing.T) {
	c := YAML()
	b, err := c.Marshal(point{X: 1, Y: 2, L: "a"})
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}
	var out point
	if err := c.Unmarshal(b, &out); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if out != (point{X: 1, Y: 2, L: "a"}) {
		t.Fatalf("roundtrip mismatch: %#v", out)
	}
}

func TestSnappyCodec(t *testing.T) {
	c := Snappy(JSON())
	if c.ContentType() != "application/json+snappy" {
		t.Fatalf("content type: %s", c.ContentType())
	}
	b, err := c.Marshal(point{X: 3, L: "zz"})
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}
	out, err := Decode[point](c, b)
	if err != nil {
		t.Fatalf("decode: %v", err)
	}
	if out.X != 3 || out.L != "zz" {
		t.Fatalf("roundtrip mismatch: %#v", out)
	}
	if _, err := Decode[point](c, []byte("not snappy")); err == nil {
		t.Fatalf("expected error for corrupt input")
	}
}

func TestDecodeTyped(t *testing.T) {
	p, err := Decode[point](JSON(), []byte(`{"x":5,"y":6,"label":"p"}`))
	if err != nil {
		t.Fatalf("decode: %v", err)
	}
	if p != (point{X: 5, Y: 6, L: "p"}) {
		t.Fatalf("mismatch: %#v", p)
	}
	if _, err := Decode[point](JSON(), []byte("plain text")); err == nil {
		t.Fatalf("expected error for invalid json")
	}
	if _, err := Decode[point](JSON(), nil); err == nil {
		t.Fatalf("expected error for empty input")
	}
}

func TestDecodeNull(t *testing.T) {
	cb, err := CBOR()
	if err != nil {
		t.Fatalf("cbor: %v", err)
	}
	nulls := []struct {
		name string
		c    Codec
		data []byte
	}{
		{"json", JSON(), []byte(" null ")},
		{"json+snappy", Snappy(JSON()), snappy.Encode(nil, []byte("null"))},
		{"yaml", YAML(), []byte("~")},
		{"yaml empty", YAML(), nil},
		{"cbor", cb, []byte{0xf6}},
	}
	for _, tc := range nulls {
		t.Run(tc.name, func(t *testing.T) {
			if _, err := Decode[point](tc.c, tc.data); !errors.Is(err, ErrNull) {
				t.Fatalf("struct: expected ErrNull, got %v", err)
			}
			if _, err := Decode[int](tc.c, tc.data); !errors.Is(err, ErrNull) {
				t.Fatalf("int: expected ErrNull, got %v", err)
			}
			p, err := Decode[*point](tc.c, tc.data)
			if err != nil || p != nil {
				t.Fatalf("pointer: got %v, %v", p, err)
			}
			m, err := Decode[map[string]any](tc.c, tc.data)
			if err != nil || m != nil {
				t.Fatalf("map: got %v, %v", m, err)
			}
		})
	}
}

func TestDecodeProtoPointer(t *testing.T) {
	s, _ := structpb.NewStruct(map[string]any{"k": "v"})
	b, err := Encode(Proto(), s)
	if err != nil {
		t.Fatalf("encode: %v", err)
	}
	out, err := Decode[*structpb.Struct](Proto(), b)
	if err != nil {
		t.Fatalf("decode: %v", err)
	}
	if out.GetFields()["k"].GetStringValue() != "v" {
		t.Fatalf("roundtrip mismatch")
	}
}

func TestRegistryLookup(t *testing.T) {
	r := NewRegistry()
	for _, name := range []string{"json", "JSON", "application/json", "cbor", "proto", "yaml", "json+snappy"} {
		if _, err := r.Lookup(name); err != nil {
			t.Fatalf("lookup %q: %v", name, err)
		}
	}
	if _, err := r.Lookup("xml"); err == nil {
		t.Fatalf("expected unknown codec error")
	}
	if r.Get("application/x-protobuf") == nil {
		t.Fatalf("expected protobuf codec by content type")
	}
}
