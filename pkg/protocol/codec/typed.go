package codec

import (
	"google.golang.org/protobuf/proto"
)

// Encode marshals v with c.
func Encode[T any](c Codec, v T) ([]byte, error) { return c.Marshal(v) }

// Decode unmarshals data into a fresh T. Pointer message types such as
// *structpb.Struct are allocated before decoding so the protobuf codec
// receives a usable proto.Message.
func Decode[T any](c Codec, data []byte) (T, error) {
	var v T
	if m, ok := any(v).(proto.Message); ok {
		fresh := m.ProtoReflect().Type().New().Interface()
		if err := c.Unmarshal(data, fresh); err != nil {
			return v, err
		}
		return fresh.(T), nil
	}
	if err := c.Unmarshal(data, &v); err != nil {
		var zero T
		return zero, err
	}
	return v, nil
}
