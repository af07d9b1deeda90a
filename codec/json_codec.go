package codec

import (
	jsoniter "github.com/json-iterator/go"
	"github.com/spiral/errors"
)

var jsonAPI = jsoniter.ConfigCompatibleWithStandardLibrary

// JSONCodec is the JSON realization of Codec, backed by jsoniter for lower
// allocation overhead than encoding/json while keeping the same semantics.
// It has no internal state; the zero value is ready to use.
type JSONCodec struct{}

// NewJSONCodec returns a ready-to-use JSONCodec.
func NewJSONCodec() *JSONCodec {
	return &JSONCodec{}
}

func (c *JSONCodec) Encode(v any) ([]byte, error) {
	const op = errors.Op("json_codec_encode")

	b, err := jsonAPI.Marshal(v)
	if err != nil {
		return nil, errors.E(op, err)
	}
	return b, nil
}

func (c *JSONCodec) Decode(data []byte, v any) error {
	const op = errors.Op("json_codec_decode")

	if err := jsonAPI.Unmarshal(data, v); err != nil {
		return errors.E(op, err)
	}
	return nil
}
