package codec

import (
	"fmt"

	"github.com/golang/snappy"
)

type snappyCodec struct{ inner Codec }

// Snappy wraps inner with snappy block compression. The content type is the
// inner one suffixed with "+snappy".
func Snappy(inner Codec) Codec { return snappyCodec{inner: inner} }

func (s snappyCodec) ContentType() string { return s.inner.ContentType() + "+snappy" }

func (s snappyCodec) Marshal(v any) ([]byte, error) {
	b, err := s.inner.Marshal(v)
	if err != nil {
		return nil, err
	}
	return snappy.Encode(nil, b), nil
}

func (s snappyCodec) Unmarshal(data []byte, v any) error {
	b, err := snappy.Decode(nil, data)
	if err != nil {
		return fmt.Errorf("snappy: %w", err)
	}
	return s.inner.Unmarshal(b, v)
}
