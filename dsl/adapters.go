package dsl

import (
	"fmt"

	goconstruct "github.com/reoring/goconstruct"
	"github.com/reoring/goconstruct/codec"
	js "github.com/reoring/goconstruct/jsonschema"
)

// Adapt wraps sub with a decode/encode pair. The pair must be mutually
// inverse over valid values and must not change the wire length.
func Adapt(sub goconstruct.Construct, decode, encode goconstruct.Transform) *goconstruct.Adapter {
	return goconstruct.NewAdapter(sub, decode, encode)
}

// ConstCon enforces a literal value in the wire format.
type ConstCon struct {
	*goconstruct.Adapter
	value any
}

// Const parses sub and fails unless the result equals value. On build the
// input may be nil (or omitted inside a Struct); value is always emitted.
func Const(sub goconstruct.Construct, value any) *ConstCon {
	cc := &ConstCon{value: value}
	cc.Adapter = goconstruct.NewAdapter(sub,
		func(v any, _ *goconstruct.Context) (any, error) {
			if !goconstruct.Equal(v, value) {
				return nil, mismatch("expected %s, found %s", describe(value), describe(v))
			}
			return v, nil
		},
		func(v any, _ *goconstruct.Context) (any, error) {
			if v != nil && !goconstruct.Equal(v, value) {
				return nil, mismatch("expected %s, found %s", describe(value), describe(v))
			}
			return value, nil
		})
	return cc
}

func (cc *ConstCon) Omittable() bool          { return true }
func (cc *ConstCon) StaticValue() (any, bool) { return cc.value, true }

func (cc *ConstCon) JSONSchema() (*js.Schema, error) {
	s, err := JSONSchemaOf(cc.Sub)
	if err != nil {
		return nil, err
	}
	s.Const = cc.value
	return s, nil
}

// LengthValueCon pairs a length field with a payload.
type LengthValueCon struct {
	*goconstruct.Adapter
}

// LengthValue wraps a two-member sub whose first member is the payload
// length. Parse yields only the payload; build accepts the bare payload and
// computes the length.
func LengthValue(sub goconstruct.Construct) *LengthValueCon {
	return &LengthValueCon{Adapter: goconstruct.NewAdapter(sub,
		func(v any, _ *goconstruct.Context) (any, error) {
			items, ok := goconstruct.ListOf(v)
			if !ok || len(items) != 2 {
				return nil, mismatch("expected [length, payload], found %T", v)
			}
			return items[1], nil
		},
		func(v any, _ *goconstruct.Context) (any, error) {
			n, ok := goconstruct.LenOf(v)
			if !ok {
				return nil, mismatch("payload has no length: %T", v)
			}
			return []any{n, v}, nil
		})}
}

func (lv *LengthValueCon) JSONSchema() (*js.Schema, error) {
	if seq, ok := lv.Sub.(*SequenceCon); ok && len(seq.members) == 2 {
		return JSONSchemaOf(seq.members[1])
	}
	return js.Any(), nil
}

// PrefixedRaw is a byte string preceded by its length encoded with
// lengthCon.
//
//	dsl.PrefixedRaw(dsl.Uint8()) // 03 61 62 63 <-> []byte("abc")
func PrefixedRaw(lengthCon goconstruct.Construct) *LengthValueCon {
	return LengthValue(Sequence(lengthCon, Raw(goconstruct.IntAt(0))))
}

// PrefixedArray is a list of elem preceded by its count encoded with
// lengthCon.
func PrefixedArray(lengthCon, elem goconstruct.Construct) *LengthValueCon {
	return LengthValue(Sequence(lengthCon, Array(goconstruct.IntAt(0), elem)))
}

// EncodedCon maps raw bytes to text under a named character encoding.
type EncodedCon struct {
	*goconstruct.Adapter
	encoding string
}

// EncodedE wraps sub with a strict text codec. Labels follow the WHATWG
// encoding index ("utf-8", "utf-16le", "latin1", "shift_jis", ...).
func EncodedE(sub goconstruct.Construct, encoding string) (*EncodedCon, error) {
	tc, err := codec.Text(encoding)
	if err != nil {
		return nil, err
	}
	return &EncodedCon{
		encoding: encoding,
		Adapter: goconstruct.NewAdapter(sub,
			func(v any, _ *goconstruct.Context) (any, error) {
				b, ok := goconstruct.BytesOf(v)
				if !ok {
					return nil, mismatch("expected bytes, found %T", v)
				}
				return tc.Decode(b)
			},
			func(v any, _ *goconstruct.Context) (any, error) {
				s, ok := v.(string)
				if !ok {
					return nil, mismatch("expected string, found %T", v)
				}
				return tc.Encode(s)
			}),
	}, nil
}

// Encoded is EncodedE that panics on an unknown encoding label.
func Encoded(sub goconstruct.Construct, encoding string) *EncodedCon {
	ec, err := EncodedE(sub, encoding)
	if err != nil {
		panic(err)
	}
	return ec
}

// PascalString is text prefixed by its encoded byte length in lengthCon.
func PascalString(lengthCon goconstruct.Construct, encoding string) *EncodedCon {
	return Encoded(PrefixedRaw(lengthCon), encoding)
}

func (ec *EncodedCon) JSONSchema() (*js.Schema, error) {
	return &js.Schema{Type: "string", Description: "encoding: " + ec.encoding}, nil
}

// Base64Con exposes raw bytes as base64 text.
type Base64Con struct {
	*goconstruct.Adapter
}

// Base64 wraps a byte-producing sub: parse yields padded base64 text and
// build accepts it back.
func Base64(sub goconstruct.Construct) *Base64Con {
	b64 := codec.Base64()
	return &Base64Con{Adapter: goconstruct.NewAdapter(sub,
		func(v any, _ *goconstruct.Context) (any, error) {
			b, ok := goconstruct.BytesOf(v)
			if !ok {
				return nil, mismatch("expected bytes, found %T", v)
			}
			return b64.Decode(b)
		},
		func(v any, _ *goconstruct.Context) (any, error) {
			s, ok := v.(string)
			if !ok {
				return nil, mismatch("expected base64 string, found %T", v)
			}
			return b64.Encode(s)
		})}
}

func (*Base64Con) JSONSchema() (*js.Schema, error) {
	return &js.Schema{Type: "string", Pattern: `^[A-Za-z0-9+/]*={0,2}$`}, nil
}

// Predicate checks a value in either direction. A non-nil result rejects
// the value.
type Predicate func(v any, c *goconstruct.Context) error

// ValidateCon applies the same predicate on parse and build.
type ValidateCon struct {
	*goconstruct.Adapter
	schema func(*js.Schema)
}

// Validate wraps sub with a symmetric check. Failures that are not already
// *goconstruct.Error become CodeValidation.
func Validate(sub goconstruct.Construct, pred Predicate) *ValidateCon {
	check := func(v any, c *goconstruct.Context) (any, error) {
		if err := pred(v, c); err != nil {
			if _, ok := goconstruct.AsError(err); ok {
				return nil, err
			}
			e := goconstruct.NewError(goconstruct.CodeValidation, err.Error())
			e.Cause = err
			return nil, e
		}
		return v, nil
	}
	return &ValidateCon{Adapter: goconstruct.NewAdapter(sub, check, check)}
}

func (vc *ValidateCon) JSONSchema() (*js.Schema, error) {
	s, err := JSONSchemaOf(vc.Sub)
	if err != nil {
		return nil, err
	}
	if vc.schema != nil {
		vc.schema(s)
	}
	return s, nil
}

// OneOf accepts only the listed values.
func OneOf(sub goconstruct.Construct, values ...any) *ValidateCon {
	allowed := append([]any(nil), values...)
	vc := Validate(sub, func(v any, _ *goconstruct.Context) error {
		for _, a := range allowed {
			if goconstruct.Equal(v, a) {
				return nil
			}
		}
		return goconstruct.NewError(goconstruct.CodeValidation, fmt.Sprintf("%s is not one of %v", describe(v), allowed))
	})
	vc.schema = func(s *js.Schema) { s.Enum = allowed }
	return vc
}

// NoneOf rejects the listed values.
func NoneOf(sub goconstruct.Construct, values ...any) *ValidateCon {
	denied := append([]any(nil), values...)
	vc := Validate(sub, func(v any, _ *goconstruct.Context) error {
		for _, d := range denied {
			if goconstruct.Equal(v, d) {
				return goconstruct.NewError(goconstruct.CodeValidation, fmt.Sprintf("%s is not allowed", describe(v)))
			}
		}
		return nil
	})
	vc.schema = func(s *js.Schema) { s.Not = &js.Schema{Enum: denied} }
	return vc
}
