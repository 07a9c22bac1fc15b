package dsl

import (
	"bytes"
	"encoding/binary"
	"fmt"

	goconstruct "github.com/reoring/goconstruct"
	"github.com/reoring/goconstruct/codec"
	"github.com/reoring/goconstruct/cursor"
	js "github.com/reoring/goconstruct/jsonschema"
)

// CompressedCon exposes the decompressed form of a byte-producing sub.
type CompressedCon struct {
	*goconstruct.Adapter
	Algorithm codec.Algorithm
}

// CompressedE wraps sub (typically a PrefixedRaw) with zstd or lz4.
func CompressedE(sub goconstruct.Construct, algo codec.Algorithm) (*CompressedCon, error) {
	cc, err := codec.Compression(algo)
	if err != nil {
		return nil, err
	}
	return &CompressedCon{
		Algorithm: algo,
		Adapter: goconstruct.NewAdapter(sub,
			func(v any, _ *goconstruct.Context) (any, error) {
				b, ok := goconstruct.BytesOf(v)
				if !ok {
					return nil, mismatch("expected bytes, found %T", v)
				}
				return cc.Decode(b)
			},
			func(v any, _ *goconstruct.Context) (any, error) {
				b, ok := goconstruct.BytesOf(v)
				if !ok {
					return nil, mismatch("expected bytes, found %T", v)
				}
				return cc.Encode(b)
			}),
	}, nil
}

// Compressed is CompressedE that panics on an unknown algorithm.
func Compressed(sub goconstruct.Construct, algo codec.Algorithm) *CompressedCon {
	cc, err := CompressedE(sub, algo)
	if err != nil {
		panic(err)
	}
	return cc
}

func (*CompressedCon) JSONSchema() (*js.Schema, error) { return bytesSchema(), nil }

// CBORCon exposes a byte-producing sub as a decoded CBOR item.
type CBORCon struct {
	*goconstruct.Adapter
}

// CBOR decodes the bytes of sub as one CBOR item. Maps become Containers
// with sorted keys; building uses core deterministic encoding.
func CBOR(sub goconstruct.Construct) *CBORCon {
	cb := codec.CBOR()
	return &CBORCon{Adapter: goconstruct.NewAdapter(sub,
		func(v any, _ *goconstruct.Context) (any, error) {
			b, ok := goconstruct.BytesOf(v)
			if !ok {
				return nil, mismatch("expected bytes, found %T", v)
			}
			out, err := cb.Decode(b)
			if err != nil {
				return nil, err
			}
			return fromCBOR(out), nil
		},
		func(v any, _ *goconstruct.Context) (any, error) {
			return cb.Encode(v)
		})}
}

func fromCBOR(v any) any {
	switch x := v.(type) {
	case map[string]any:
		return goconstruct.ContainerFromMap(x)
	case []any:
		out := make([]any, len(x))
		for i := range x {
			out[i] = fromCBOR(x[i])
		}
		return out
	}
	return v
}

func (*CBORCon) JSONSchema() (*js.Schema, error) { return js.Any(), nil }

// BytesAt derives the bytes stored at path in the current scope.
//
//	dsl.Checksum(dsl.Uint32BE(), codec.CRC32, dsl.BytesAt("payload"))
func BytesAt(path ...any) goconstruct.Param[[]byte] {
	ref := goconstruct.At(path...)
	return goconstruct.Derived(func(c *goconstruct.Context) ([]byte, error) {
		v, err := ref.Eval(c)
		if err != nil {
			return nil, err
		}
		b, ok := goconstruct.BytesOf(v)
		if !ok {
			return nil, mismatch("value at %v is not bytes: %T", path, v)
		}
		return b, nil
	})
}

// ChecksumCon stores a digest of data that was parsed or built earlier.
type ChecksumCon struct {
	Sum       goconstruct.Construct
	Algorithm codec.Digest
	Data      goconstruct.Param[[]byte]
}

// Checksum reads the digest via sum and verifies it against data. On build
// the digest is computed, so the input may be omitted. sum is either a byte
// leaf of the digest size or, for CRC32, a 4-byte unsigned integer leaf.
func Checksum(sum goconstruct.Construct, algo codec.Digest, data goconstruct.Param[[]byte]) *ChecksumCon {
	if sum == nil {
		panic(schemaError("checksum has no construct"))
	}
	return &ChecksumCon{Sum: sum, Algorithm: algo, Data: data}
}

func (cs *ChecksumCon) digest(c *goconstruct.Context) ([]byte, error) {
	data, err := cs.Data.Eval(c)
	if err != nil {
		return nil, err
	}
	return cs.Algorithm.Sum(data), nil
}

// wire converts a digest into the value the Sum construct builds.
func (cs *ChecksumCon) wire(d []byte) any {
	if n, ok := cs.Sum.(*NumericCon); ok && !n.IsFloat() && n.Width() == len(d) {
		switch len(d) {
		case 4:
			return binary.BigEndian.Uint32(d)
		case 8:
			return binary.BigEndian.Uint64(d)
		}
	}
	return d
}

func (cs *ChecksumCon) matches(v any, d []byte) bool {
	if b, ok := v.([]byte); ok {
		return bytes.Equal(b, d)
	}
	return goconstruct.Equal(v, cs.wire(d))
}

func (cs *ChecksumCon) ParseStream(r *cursor.Reader, c *goconstruct.Context) (any, error) {
	start := r.Pos()
	got, err := cs.Sum.ParseStream(r, c)
	if err != nil {
		return nil, err
	}
	want, err := cs.digest(c)
	if err != nil {
		return nil, err
	}
	if !cs.matches(got, want) {
		e := goconstruct.NewError(goconstruct.CodeValidation,
			fmt.Sprintf("%s mismatch: stored %s, computed %x", cs.Algorithm, describe(got), want),
			"algorithm", string(cs.Algorithm))
		e.Offset = int64(start)
		return nil, e
	}
	return got, nil
}

func (cs *ChecksumCon) BuildStream(v any, w *cursor.Writer, c *goconstruct.Context) error {
	d, err := cs.digest(c)
	if err != nil {
		return err
	}
	if v != nil && !cs.matches(v, d) {
		return goconstruct.NewError(goconstruct.CodeValidation,
			fmt.Sprintf("%s mismatch: given %s, computed %x", cs.Algorithm, describe(v), d))
	}
	return cs.Sum.BuildStream(cs.wire(d), w, c)
}

func (cs *ChecksumCon) Sizeof(c *goconstruct.Context) (int, error) { return cs.Sum.Sizeof(c) }
func (cs *ChecksumCon) Omittable() bool                          { return true }
func (cs *ChecksumCon) Unwrap() goconstruct.Construct             { return cs.Sum }
