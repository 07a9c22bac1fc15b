package codec

import (
	"reflect"

	"github.com/fxamacker/cbor/v2"
	goconstruct "github.com/reoring/goconstruct"
)

// encMode uses Core Deterministic Encoding (RFC 8949 §4.2): sorted map
// keys, smallest integer encoding, no indefinite-length items.
var encMode cbor.EncMode

// decMode decodes maps into map[string]any when the target is any.
var decMode cbor.DecMode

func init() {
	var err error
	encMode, err = cbor.CoreDetEncOptions().EncMode()
	if err != nil {
		panic("codec: CBOR encoder initialization failed: " + err.Error())
	}
	decMode, err = cbor.DecOptions{
		DefaultMapType: reflect.TypeOf(map[string]any(nil)),
	}.DecMode()
	if err != nil {
		panic("codec: CBOR decoder initialization failed: " + err.Error())
	}
}

// MarshalCBOR encodes v deterministically. Containers are encoded as maps.
func MarshalCBOR(v any) ([]byte, error) {
	return encMode.Marshal(plain(v))
}

// UnmarshalCBOR decodes one CBOR item into a generic value.
func UnmarshalCBOR(data []byte) (any, error) {
	var v any
	if err := decMode.Unmarshal(data, &v); err != nil {
		return nil, err
	}
	return v, nil
}

func plain(v any) any {
	switch x := v.(type) {
	case *goconstruct.Container:
		return x.Map()
	case []any:
		out := make([]any, len(x))
		for i := range x {
			out[i] = plain(x[i])
		}
		return out
	case map[string]any:
		out := make(map[string]any, len(x))
		for k, e := range x {
			out[k] = plain(e)
		}
		return out
	}
	return v
}

type cborCodec struct{}

// CBOR returns the CBOR bytes <-> generic value codec.
func CBOR() goconstruct.Codec[[]byte, any] { return cborCodec{} }

func (cborCodec) Decode(data []byte) (any, error) {
	v, err := UnmarshalCBOR(data)
	if err != nil {
		e := goconstruct.Errorf(goconstruct.CodeCodec, "cbor decode: %v", err)
		e.Cause = err
		return nil, e
	}
	return v, nil
}

func (cborCodec) Encode(v any) ([]byte, error) {
	out, err := MarshalCBOR(v)
	if err != nil {
		e := goconstruct.Errorf(goconstruct.CodeCodec, "cbor encode: %v", err)
		e.Cause = err
		return nil, e
	}
	return out, nil
}
