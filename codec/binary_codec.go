package codec

import (
	"github.com/spiral/errors"
	"github.com/vmihailenco/msgpack/v5"
)

// BinaryCodec is the default payload codec: a compact MessagePack encoding
// of arbitrary Go values. It has no internal state, so its zero value
// BinaryCodec{} is ready to use and safe to share across goroutines.
type BinaryCodec struct{}

// NewBinaryCodec returns a ready-to-use BinaryCodec.
func NewBinaryCodec() *BinaryCodec {
	return &BinaryCodec{}
}

func (c *BinaryCodec) Encode(v any) ([]byte, error) {
	const op = errors.Op("binary_codec_encode")

	b, err := msgpack.Marshal(v)
	if err != nil {
		return nil, errors.E(op, err)
	}
	return b, nil
}

func (c *BinaryCodec) Decode(data []byte, v any) error {
	const op = errors.Op("binary_codec_decode")

	if err := msgpack.Unmarshal(data, v); err != nil {
		return errors.E(op, err)
	}
	return nil
}
