package codec

import (
	cbor "github.com/fxamacker/cbor/v2"
)

type cborCodec struct {
	enc cbor.EncMode
	dec cbor.DecMode
}

// CBOR returns a deterministic CBOR codec (RFC 8949) with core profile.
func CBOR() (Codec, error) {
	em, err := cbor.CanonicalEncOptions().EncMode()
	if err != nil {
		return nil, err
	}
	dm, err := cbor.DecOptions{}.DecMode()
	if err != nil {
		return nil, err
	}
	return cborCodec{enc: em, dec: dm}, nil
}

func (c cborCodec) ContentType() string           { return "application/cbor" }
func (c cborCodec) Marshal(v any) ([]byte, error) { return c.enc.Marshal(v) }

// Unmarshal rejects a lone null (0xf6) or undefined (0xf7) for targets that
// cannot hold it.
func (c cborCodec) Unmarshal(data []byte, v any) error {
	if len(data) == 1 && (data[0] == 0xf6 || data[0] == 0xf7) {
		if err := rejectNull(v); err != nil {
			return err
		}
	}
	return c.dec.Unmarshal(data, v)
}
